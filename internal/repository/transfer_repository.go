package repository

import (
	"context"
	"fmt"

	"github.com/mohtashimnawaz/prediction/internal/models"
)

func (r *Repository) CreateTransfer(ctx context.Context, t *models.Transfer) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to record transfer: %w", err)
	}
	return nil
}

func (r *Repository) ListTransfers(ctx context.Context, marketID uint64) ([]models.Transfer, error) {
	var transfers []models.Transfer
	err := r.db.WithContext(ctx).Where("market_id = ?", marketID).Order("created_at ASC").Find(&transfers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	return transfers, nil
}

// SignatureUsed reports whether a custody signature was already recorded.
func (r *Repository) SignatureUsed(ctx context.Context, signature string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Transfer{}).Where("signature = ?", signature).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check signature: %w", err)
	}
	return count > 0, nil
}
