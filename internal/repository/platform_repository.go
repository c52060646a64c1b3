package repository

import (
	"context"
	"fmt"

	"github.com/mohtashimnawaz/prediction/internal/apperr"
	"github.com/mohtashimnawaz/prediction/internal/models"
	"gorm.io/gorm/clause"
)

// CreatePlatform inserts the platform row, failing if it already exists.
func (r *Repository) CreatePlatform(ctx context.Context, platform *models.Platform) error {
	platform.ID = models.PlatformID
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(platform)
	if res.Error != nil {
		return fmt.Errorf("failed to create platform: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrPlatformExists
	}
	return nil
}

func (r *Repository) GetPlatform(ctx context.Context) (*models.Platform, error) {
	var platform models.Platform
	err := r.db.WithContext(ctx).Where("id = ?", models.PlatformID).First(&platform).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrPlatformNotFound)
	}
	return &platform, nil
}

// LockPlatform reads the platform row for update inside a transaction.
func (r *Repository) LockPlatform(ctx context.Context) (*models.Platform, error) {
	var platform models.Platform
	err := r.forUpdate(ctx).Where("id = ?", models.PlatformID).First(&platform).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrPlatformNotFound)
	}
	return &platform, nil
}

func (r *Repository) SavePlatformTotals(ctx context.Context, platform *models.Platform) error {
	err := r.db.WithContext(ctx).Model(&models.Platform{}).
		Where("id = ?", platform.ID).
		Updates(map[string]interface{}{
			"total_markets": platform.TotalMarkets,
			"total_volume":  platform.TotalVolume,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update platform: %w", err)
	}
	return nil
}
