package services

import (
	"context"
	"log"

	"github.com/mohtashimnawaz/prediction/internal/apperr"
	"github.com/mohtashimnawaz/prediction/internal/blockchain"
	"github.com/mohtashimnawaz/prediction/internal/ledger"
	"github.com/mohtashimnawaz/prediction/internal/models"
	"github.com/mohtashimnawaz/prediction/internal/repository"
)

// CardService registers collectible cards and tracks their win/loss record.
type CardService struct {
	repo      *repository.Repository
	clock     Clock
	ownership blockchain.TokenOwnership
}

func NewCardService(repo *repository.Repository, clock Clock, ownership blockchain.TokenOwnership) *CardService {
	return &CardService{repo: repo, clock: clock, ownership: ownership}
}

func (s *CardService) MintCard(ctx context.Context, owner string, req models.MintCardRequest) (*models.Card, error) {
	if req.Mint == "" ||
		req.Power < models.MinCardPower || req.Power > models.MaxCardPower ||
		req.Rarity > models.MaxCardRarity ||
		req.Multiplier == 0 || req.Multiplier > ledger.MaxAmount {
		return nil, apperr.ErrInvalidCard
	}

	card := &models.Card{
		Mint:       req.Mint,
		Owner:      owner,
		Power:      req.Power,
		Rarity:     req.Rarity,
		Multiplier: req.Multiplier,
		MintedAt:   s.clock.Now(),
	}
	if err := s.repo.CreateCard(ctx, card); err != nil {
		return nil, err
	}
	// Off-chain ownership tables learn the holder from the mint itself.
	if registrar, ok := s.ownership.(blockchain.OwnershipRegistrar); ok {
		registrar.Grant(owner, card.Mint)
	}

	log.Printf("[CardService] Card %s minted for %s (power=%d rarity=%d multiplier=%d)",
		card.Mint, owner, card.Power, card.Rarity, card.Multiplier)
	return card, nil
}

// UpdateCardStats records a win or a loss as reported by the card holder.
// The report is not checked against any market.
func (s *CardService) UpdateCardStats(ctx context.Context, mint, caller string, won bool) (*models.Card, error) {
	var card *models.Card
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		card, err = tx.LockCard(ctx, mint)
		if err != nil {
			return err
		}
		if card.Owner != caller {
			return apperr.ErrNotCardOwner
		}
		held, err := s.ownership.HasSingleUnit(ctx, caller, mint)
		if err != nil {
			return apperr.Wrap(apperr.ErrOwnershipCheck, err)
		}
		if !held {
			return apperr.ErrNotCardOwner
		}

		if won {
			card.Wins, err = ledger.Add(card.Wins, 1)
		} else {
			card.Losses, err = ledger.Add(card.Losses, 1)
		}
		if err != nil {
			return err
		}
		return tx.SaveCardStats(ctx, card)
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

func (s *CardService) GetCard(ctx context.Context, mint string) (*models.Card, error) {
	return s.repo.GetCard(ctx, mint)
}

func (s *CardService) ListCards(ctx context.Context, owner string) ([]models.Card, error) {
	return s.repo.ListCards(ctx, owner)
}
