package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mohtashimnawaz/prediction/internal/apperr"
	"github.com/mohtashimnawaz/prediction/internal/blockchain"
	"github.com/mohtashimnawaz/prediction/internal/ledger"
	"github.com/mohtashimnawaz/prediction/internal/models"
	"github.com/mohtashimnawaz/prediction/internal/oracle"
	"github.com/mohtashimnawaz/prediction/internal/repository"
)

// MarketService creates markets and accepts wagers.
type MarketService struct {
	repo      *repository.Repository
	clock     Clock
	custody   blockchain.Custody
	vaults    blockchain.VaultLocator
	ownership blockchain.TokenOwnership
}

func NewMarketService(
	repo *repository.Repository,
	clock Clock,
	custody blockchain.Custody,
	vaults blockchain.VaultLocator,
	ownership blockchain.TokenOwnership,
) *MarketService {
	return &MarketService{
		repo:      repo,
		clock:     clock,
		custody:   custody,
		vaults:    vaults,
		ownership: ownership,
	}
}

// CreateMarket validates the request and stores a new market owned by caller.
// The market id is the platform's market count after the increment.
func (s *MarketService) CreateMarket(ctx context.Context, caller string, req models.CreateMarketRequest) (*models.Market, error) {
	now := s.clock.Now()

	if err := models.ValidateText(req.Question, req.Description); err != nil {
		return nil, err
	}
	if req.EndTime <= now {
		return nil, apperr.ErrInvalidEndTime
	}
	category, err := models.ParseCategory(req.Category)
	if err != nil {
		return nil, err
	}
	spec, err := oracle.Build(req.Params)
	if err != nil {
		return nil, err
	}

	var market *models.Market
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		platform, err := tx.LockPlatform(ctx)
		if err != nil {
			return err
		}
		count, err := ledger.Add(platform.TotalMarkets, 1)
		if err != nil {
			return err
		}

		market = &models.Market{
			ID:          count,
			Authority:   caller,
			Creator:     caller,
			Question:    req.Question,
			Description: req.Description,
			Category:    category,
			EndTime:     req.EndTime,
			CreatedAt:   now,
			Oracle:      spec,
		}
		if err := tx.CreateMarket(ctx, market); err != nil {
			return err
		}

		platform.TotalMarkets = count
		return tx.SavePlatformTotals(ctx, platform)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[MarketService] Market %d created by %s (oracle=%s/%s, ends %d)",
		market.ID, caller, spec.Source, spec.DataType(), market.EndTime)
	return market, nil
}

// PlaceWager adds amount to the bettor's position on side and moves the stake
// into the market vault. Everything commits together or not at all.
func (s *MarketService) PlaceWager(
	ctx context.Context,
	marketID uint64,
	bettor string,
	side bool,
	amount uint64,
	cardMint *string,
) (*models.Bet, error) {
	now := s.clock.Now()

	var bet *models.Bet
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		market, err := tx.LockMarket(ctx, marketID)
		if err != nil {
			return err
		}
		if market.Resolved {
			return apperr.ErrAlreadyResolved
		}
		if now >= market.EndTime {
			return apperr.ErrMarketEnded
		}
		if amount == 0 {
			return apperr.ErrInvalidAmount
		}

		wager := ledger.Wager{Side: side, Amount: amount}
		if cardMint != nil {
			card, err := s.verifyCard(ctx, tx, bettor, *cardMint)
			if err != nil {
				return err
			}
			wager.CardMint = &card.Mint
			wager.Multiplier = card.Multiplier
		}

		platform, err := tx.LockPlatform(ctx)
		if err != nil {
			return err
		}

		isNew := false
		bet, err = tx.LockBet(ctx, marketID, bettor)
		if errors.Is(err, apperr.ErrBetNotFound) {
			isNew = true
			bet = &models.Bet{
				MarketID:       marketID,
				Bettor:         bettor,
				CardMultiplier: models.MultiplierScale,
				CreatedAt:      now,
			}
		} else if err != nil {
			return err
		}

		if err := ledger.Apply(platform, market, bet, wager); err != nil {
			return err
		}
		bet.UpdatedAt = now

		if err := tx.SavePools(ctx, market); err != nil {
			return err
		}
		if err := tx.SaveBet(ctx, bet, isNew); err != nil {
			return err
		}
		if err := tx.SavePlatformTotals(ctx, platform); err != nil {
			return err
		}

		if sig, ok := blockchain.DepositSignature(ctx); ok {
			used, err := tx.SignatureUsed(ctx, sig)
			if err != nil {
				return err
			}
			if used {
				return apperr.Wrap(apperr.ErrCustodyFailed, fmt.Errorf("deposit %s already applied", sig))
			}
		}

		vault, err := s.vaults.VaultAddress(marketID)
		if err != nil {
			return apperr.Wrap(apperr.ErrCustodyFailed, err)
		}
		receipt, err := s.custody.Transfer(ctx, bettor, vault, amount)
		if err != nil {
			return apperr.Wrap(apperr.ErrCustodyFailed, err)
		}

		return tx.CreateTransfer(ctx, &models.Transfer{
			MarketID:  marketID,
			Type:      models.TransferTypeWager,
			From:      bettor,
			To:        vault,
			Amount:    amount,
			Signature: &receipt,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[MarketService] Wager on market %d: bettor=%s side=%v amount=%d stake=%d",
		marketID, bettor, side, amount, bet.Amount)
	return bet, nil
}

// verifyCard checks that bettor holds the card both in the registry and on the token ledger.
func (s *MarketService) verifyCard(ctx context.Context, tx *repository.Repository, bettor, mint string) (*models.Card, error) {
	card, err := tx.GetCard(ctx, mint)
	if err != nil {
		return nil, err
	}
	if card.Owner != bettor {
		return nil, apperr.ErrNotCardOwner
	}
	held, err := s.ownership.HasSingleUnit(ctx, bettor, mint)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrOwnershipCheck, err)
	}
	if !held {
		return nil, apperr.ErrNotCardOwner
	}
	return card, nil
}

func (s *MarketService) GetMarket(ctx context.Context, id uint64) (*models.MarketResponse, error) {
	market, err := s.repo.GetMarket(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.MarketResponse{Market: market, State: market.State(s.clock.Now())}, nil
}

func (s *MarketService) ListMarkets(ctx context.Context, f repository.MarketFilter) ([]models.MarketResponse, int64, error) {
	markets, total, err := s.repo.ListMarkets(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	now := s.clock.Now()
	out := make([]models.MarketResponse, 0, len(markets))
	for _, m := range markets {
		out = append(out, models.MarketResponse{Market: m, State: m.State(now)})
	}
	return out, total, nil
}

func (s *MarketService) ListMarketBets(ctx context.Context, marketID uint64) ([]models.Bet, error) {
	if _, err := s.repo.GetMarket(ctx, marketID); err != nil {
		return nil, err
	}
	return s.repo.ListMarketBets(ctx, marketID)
}

func (s *MarketService) ListBettorBets(ctx context.Context, bettor string, limit, offset int) ([]models.Bet, error) {
	return s.repo.ListBettorBets(ctx, bettor, limit, offset)
}

// Reconcile compares the stored pools of a market against the sum of its bets.
func (s *MarketService) Reconcile(ctx context.Context, marketID uint64) (ledger.Imbalance, error) {
	market, err := s.repo.GetMarket(ctx, marketID)
	if err != nil {
		return ledger.Imbalance{}, err
	}
	bets, err := s.repo.ListMarketBets(ctx, marketID)
	if err != nil {
		return ledger.Imbalance{}, err
	}
	imbalance, err := ledger.Reconcile(market, bets)
	if err != nil {
		return ledger.Imbalance{}, err
	}
	if !imbalance.Balanced {
		log.Printf("[MarketService] Market %d out of balance: pools=%d stakes=%d",
			marketID, imbalance.PoolTotal, imbalance.StakeTotal)
	}
	return imbalance, nil
}
