package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MultiplierScale is the fixed-point unit for card multipliers: 1000 is 1.0x.
const MultiplierScale uint64 = 1000

// Bet is a bettor's cumulative position in one market.
type Bet struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MarketID       uint64    `gorm:"not null;uniqueIndex:idx_bets_market_bettor" json:"market_id"`
	Bettor         string    `gorm:"size:64;not null;uniqueIndex:idx_bets_market_bettor;index" json:"bettor"`
	Amount         uint64    `gorm:"not null" json:"amount"`
	Prediction     bool      `gorm:"not null" json:"prediction"`
	Claimed        bool      `gorm:"not null" json:"claimed"`
	CardMint       *string   `gorm:"size:64" json:"card_mint,omitempty"`
	CardMultiplier uint64    `gorm:"not null" json:"card_multiplier"`
	CreatedAt      int64     `gorm:"not null" json:"created_at"`
	UpdatedAt      int64     `gorm:"autoUpdateTime:false" json:"updated_at"`
}

func (Bet) TableName() string {
	return "bets"
}

func (b *Bet) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
