package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mohtashimnawaz/prediction/internal/apperr"
	"github.com/mohtashimnawaz/prediction/internal/models"
)

// LockBet reads the (market, bettor) bet for update.
func (r *Repository) LockBet(ctx context.Context, marketID uint64, bettor string) (*models.Bet, error) {
	var bet models.Bet
	err := r.forUpdate(ctx).Where("market_id = ? AND bettor = ?", marketID, bettor).First(&bet).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrBetNotFound)
	}
	return &bet, nil
}

func (r *Repository) GetBet(ctx context.Context, marketID uint64, bettor string) (*models.Bet, error) {
	var bet models.Bet
	err := r.db.WithContext(ctx).Where("market_id = ? AND bettor = ?", marketID, bettor).First(&bet).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrBetNotFound)
	}
	return &bet, nil
}

// SaveBet inserts a new bet or writes the stake fields of an existing one.
func (r *Repository) SaveBet(ctx context.Context, bet *models.Bet, isNew bool) error {
	if isNew {
		if err := r.db.WithContext(ctx).Create(bet).Error; err != nil {
			return fmt.Errorf("failed to create bet: %w", err)
		}
		return nil
	}
	err := r.db.WithContext(ctx).Model(&models.Bet{}).
		Where("id = ?", bet.ID).
		Updates(map[string]interface{}{
			"amount":          bet.Amount,
			"prediction":      bet.Prediction,
			"card_mint":       bet.CardMint,
			"card_multiplier": bet.CardMultiplier,
			"updated_at":      bet.UpdatedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update bet: %w", err)
	}
	return nil
}

// MarkClaimed flips claimed from false to true exactly once.
func (r *Repository) MarkClaimed(ctx context.Context, betID uuid.UUID, at int64) error {
	res := r.db.WithContext(ctx).Model(&models.Bet{}).
		Where("id = ? AND claimed = ?", betID, false).
		Updates(map[string]interface{}{"claimed": true, "updated_at": at})
	if res.Error != nil {
		return fmt.Errorf("failed to mark bet claimed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrAlreadyClaimed
	}
	return nil
}

func (r *Repository) ListMarketBets(ctx context.Context, marketID uint64) ([]models.Bet, error) {
	var bets []models.Bet
	err := r.db.WithContext(ctx).Where("market_id = ?", marketID).Order("created_at ASC").Find(&bets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list market bets: %w", err)
	}
	return bets, nil
}

func (r *Repository) ListBettorBets(ctx context.Context, bettor string, limit, offset int) ([]models.Bet, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var bets []models.Bet
	err := r.db.WithContext(ctx).
		Where("bettor = ?", bettor).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&bets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bets: %w", err)
	}
	return bets, nil
}
