package repository

import (
	"context"
	"fmt"

	"github.com/mohtashimnawaz/prediction/internal/apperr"
	"github.com/mohtashimnawaz/prediction/internal/models"
	"gorm.io/gorm/clause"
)

func (r *Repository) CreateCard(ctx context.Context, card *models.Card) error {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(card)
	if res.Error != nil {
		return fmt.Errorf("failed to create card: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrCardExists
	}
	return nil
}

func (r *Repository) GetCard(ctx context.Context, mint string) (*models.Card, error) {
	var card models.Card
	if err := r.db.WithContext(ctx).Where("mint = ?", mint).First(&card).Error; err != nil {
		return nil, notFound(err, apperr.ErrCardNotFound)
	}
	return &card, nil
}

func (r *Repository) LockCard(ctx context.Context, mint string) (*models.Card, error) {
	var card models.Card
	if err := r.forUpdate(ctx).Where("mint = ?", mint).First(&card).Error; err != nil {
		return nil, notFound(err, apperr.ErrCardNotFound)
	}
	return &card, nil
}

func (r *Repository) SaveCardStats(ctx context.Context, card *models.Card) error {
	err := r.db.WithContext(ctx).Model(&models.Card{}).
		Where("mint = ?", card.Mint).
		Updates(map[string]interface{}{
			"owner":  card.Owner,
			"wins":   card.Wins,
			"losses": card.Losses,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}
	return nil
}

func (r *Repository) ListCards(ctx context.Context, owner string) ([]models.Card, error) {
	var cards []models.Card
	if err := r.db.WithContext(ctx).Where("owner = ?", owner).Order("minted_at ASC").Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return cards, nil
}
