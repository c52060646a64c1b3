package services

import (
	"context"
	"log"

	"github.com/mohtashimnawaz/prediction/internal/apperr"
	"github.com/mohtashimnawaz/prediction/internal/blockchain"
	"github.com/mohtashimnawaz/prediction/internal/models"
	"github.com/mohtashimnawaz/prediction/internal/payout"
	"github.com/mohtashimnawaz/prediction/internal/repository"
)

// PayoutService pays winners and the platform from a resolved market's vault.
type PayoutService struct {
	repo    *repository.Repository
	clock   Clock
	custody blockchain.Custody
	vaults  blockchain.VaultLocator
	feeBps  uint64
}

func NewPayoutService(
	repo *repository.Repository,
	clock Clock,
	custody blockchain.Custody,
	vaults blockchain.VaultLocator,
	feeBps uint64,
) *PayoutService {
	return &PayoutService{
		repo:    repo,
		clock:   clock,
		custody: custody,
		vaults:  vaults,
		feeBps:  feeBps,
	}
}

// Claim pays out the bettor's winnings once. The caller must be the bettor.
func (s *PayoutService) Claim(ctx context.Context, marketID uint64, caller, bettor string) (uint64, error) {
	now := s.clock.Now()

	var winnings uint64
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		market, err := tx.LockMarket(ctx, marketID)
		if err != nil {
			return err
		}
		if !market.Resolved {
			return apperr.ErrNotResolved
		}
		bet, err := tx.LockBet(ctx, marketID, bettor)
		if err != nil {
			return err
		}
		if bet.Claimed {
			return apperr.ErrAlreadyClaimed
		}
		if caller != bet.Bettor {
			return apperr.ErrUnauthorized
		}

		breakdown, err := payout.Compute(market, s.feeBps)
		if err != nil {
			return err
		}
		// An empty winning side fails every claim, losers included.
		if breakdown.WinningPool == 0 {
			return apperr.ErrNoWinningBets
		}
		if bet.Prediction != breakdown.Outcome {
			return apperr.ErrLosingBet
		}
		winnings, err = breakdown.Winnings(bet.Amount)
		if err != nil {
			return err
		}

		if err := tx.MarkClaimed(ctx, bet.ID, now); err != nil {
			return err
		}
		return s.release(ctx, tx, marketID, models.TransferTypePayout, bet.Bettor, winnings, now)
	})
	if err != nil {
		return 0, err
	}

	log.Printf("[PayoutService] Market %d: %s claimed %d", marketID, bettor, winnings)
	return winnings, nil
}

// CollectFee sends the platform fee of a resolved market to the treasury.
// Repeat collection is bounded only by what custody still holds.
func (s *PayoutService) CollectFee(ctx context.Context, marketID uint64, caller string) (uint64, error) {
	now := s.clock.Now()

	var fee uint64
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		market, err := tx.LockMarket(ctx, marketID)
		if err != nil {
			return err
		}
		if !market.Resolved {
			return apperr.ErrNotResolved
		}
		platform, err := tx.LockPlatform(ctx)
		if err != nil {
			return err
		}
		if caller != platform.Authority {
			return apperr.ErrUnauthorized
		}

		breakdown, err := payout.Compute(market, s.feeBps)
		if err != nil {
			return err
		}
		fee = breakdown.PlatformFee
		return s.release(ctx, tx, marketID, models.TransferTypeFee, platform.Treasury, fee, now)
	})
	if err != nil {
		return 0, err
	}

	log.Printf("[PayoutService] Market %d: fee %d collected", marketID, fee)
	return fee, nil
}

// release moves amount out of the market vault and records it. Zero amounts
// are not sent.
func (s *PayoutService) release(
	ctx context.Context,
	tx *repository.Repository,
	marketID uint64,
	kind models.TransferType,
	to string,
	amount uint64,
	now int64,
) error {
	if amount == 0 {
		return nil
	}
	vault, err := s.vaults.VaultAddress(marketID)
	if err != nil {
		return apperr.Wrap(apperr.ErrCustodyFailed, err)
	}
	receipt, err := s.custody.Transfer(ctx, vault, to, amount)
	if err != nil {
		return apperr.Wrap(apperr.ErrCustodyFailed, err)
	}
	return tx.CreateTransfer(ctx, &models.Transfer{
		MarketID:  marketID,
		Type:      kind,
		From:      vault,
		To:        to,
		Amount:    amount,
		Signature: &receipt,
		CreatedAt: now,
	})
}

// Quote is a read-only view of a bettor's position. Before resolution the
// breakdown assumes the bettor's side wins.
type Quote struct {
	payout.Breakdown
	Bettor       string `json:"bettor"`
	Stake        uint64 `json:"stake"`
	Prediction   bool   `json:"prediction"`
	Claimed      bool   `json:"claimed"`
	Hypothetical bool   `json:"hypothetical"`
	Winnings     uint64 `json:"winnings"`
}

func (s *PayoutService) Quote(ctx context.Context, marketID uint64, bettor string) (*Quote, error) {
	market, err := s.repo.GetMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}
	bet, err := s.repo.GetBet(ctx, marketID, bettor)
	if err != nil {
		return nil, err
	}

	view := *market
	hypothetical := !market.Resolved
	if hypothetical {
		side := bet.Prediction
		view.Resolved = true
		view.Outcome = &side
	}
	breakdown, err := payout.Compute(&view, s.feeBps)
	if err != nil {
		return nil, err
	}

	q := &Quote{
		Breakdown:    breakdown,
		Bettor:       bettor,
		Stake:        bet.Amount,
		Prediction:   bet.Prediction,
		Claimed:      bet.Claimed,
		Hypothetical: hypothetical,
	}
	if bet.Prediction == breakdown.Outcome {
		q.Winnings, err = breakdown.Winnings(bet.Amount)
		if err != nil {
			return nil, err
		}
	}
	return q, nil
}
