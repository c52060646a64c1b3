package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransferType string

const (
	TransferTypeWager  TransferType = "WAGER"
	TransferTypePayout TransferType = "PAYOUT"
	TransferTypeFee    TransferType = "FEE"
)

// Transfer records a custody movement committed together with the state change it paid for.
type Transfer struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	MarketID  uint64       `gorm:"not null;index" json:"market_id"`
	Type      TransferType `gorm:"size:20;not null;index" json:"type"`
	From      string       `gorm:"column:from_address;size:64;not null" json:"from"`
	To        string       `gorm:"column:to_address;size:64;not null" json:"to"`
	Amount    uint64       `gorm:"not null" json:"amount"`
	Signature *string      `gorm:"size:128;uniqueIndex" json:"signature,omitempty"`
	CreatedAt int64        `gorm:"not null" json:"created_at"`
}

func (Transfer) TableName() string {
	return "transfers"
}

func (t *Transfer) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
