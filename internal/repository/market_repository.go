package repository

import (
	"context"
	"fmt"

	"github.com/mohtashimnawaz/prediction/internal/apperr"
	"github.com/mohtashimnawaz/prediction/internal/models"
	"github.com/mohtashimnawaz/prediction/internal/oracle"
	"gorm.io/gorm"
)

func (r *Repository) CreateMarket(ctx context.Context, market *models.Market) error {
	if err := r.db.WithContext(ctx).Create(market).Error; err != nil {
		return fmt.Errorf("failed to create market: %w", err)
	}
	return nil
}

func (r *Repository) GetMarket(ctx context.Context, id uint64) (*models.Market, error) {
	var market models.Market
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&market).Error; err != nil {
		return nil, notFound(err, apperr.ErrMarketNotFound)
	}
	return &market, nil
}

// LockMarket reads a market for update. Concurrent wagers and resolutions on
// the same market serialize here.
func (r *Repository) LockMarket(ctx context.Context, id uint64) (*models.Market, error) {
	var market models.Market
	if err := r.forUpdate(ctx).Where("id = ?", id).First(&market).Error; err != nil {
		return nil, notFound(err, apperr.ErrMarketNotFound)
	}
	return &market, nil
}

// SavePools writes the pool totals of an unresolved market.
func (r *Repository) SavePools(ctx context.Context, market *models.Market) error {
	res := r.db.WithContext(ctx).Model(&models.Market{}).
		Where("id = ? AND resolved = ?", market.ID, false).
		Updates(map[string]interface{}{
			"total_yes_amount": market.TotalYesAmount,
			"total_no_amount":  market.TotalNoAmount,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update pools: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrAlreadyResolved
	}
	return nil
}

// MarkResolved sets the outcome once. A market that is already resolved is
// left untouched and ErrAlreadyResolved is returned.
func (r *Repository) MarkResolved(ctx context.Context, id uint64, spec oracle.Spec, outcome bool, at int64) error {
	res := r.db.WithContext(ctx).Model(&models.Market{}).
		Where("id = ? AND resolved = ?", id, false).
		Updates(map[string]interface{}{
			"resolved":    true,
			"outcome":     outcome,
			"resolved_at": at,
			"oracle":      spec,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to resolve market: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrAlreadyResolved
	}
	return nil
}

type MarketFilter struct {
	Category *models.MarketCategory
	Resolved *bool
	Creator  string
	Limit    int
	Offset   int
}

func (f MarketFilter) scope(db *gorm.DB) *gorm.DB {
	if f.Category != nil {
		db = db.Where("category = ?", *f.Category)
	}
	if f.Resolved != nil {
		db = db.Where("resolved = ?", *f.Resolved)
	}
	if f.Creator != "" {
		db = db.Where("creator = ?", f.Creator)
	}
	return db
}

func (r *Repository) ListMarkets(ctx context.Context, f MarketFilter) ([]*models.Market, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Market{}).Scopes(f.scope).Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count markets: %w", err)
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var markets []*models.Market
	err = r.db.WithContext(ctx).
		Scopes(f.scope).
		Order("id DESC").
		Limit(limit).
		Offset(f.Offset).
		Find(&markets).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list markets: %w", err)
	}
	return markets, total, nil
}

// ListDueMarkets returns unresolved markets of the given data type whose end time has passed.
func (r *Repository) ListDueMarkets(ctx context.Context, dataType oracle.DataType, now int64, limit int) ([]*models.Market, error) {
	var markets []*models.Market
	err := r.db.WithContext(ctx).
		Where("resolved = ? AND oracle_data_type = ? AND end_time <= ?", false, dataType, now).
		Order("end_time ASC").
		Limit(limit).
		Find(&markets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due markets: %w", err)
	}
	return markets, nil
}
