package models

const (
	MinCardPower  uint8 = 1
	MaxCardPower  uint8 = 10
	MaxCardRarity uint8 = 4
)

// Card is a collectible whose multiplier can be attached to a wager.
type Card struct {
	Mint       string `gorm:"primaryKey;size:64" json:"mint"`
	Owner      string `gorm:"size:64;not null;index" json:"owner"`
	Power      uint8  `gorm:"not null" json:"power"`
	Rarity     uint8  `gorm:"not null" json:"rarity"`
	Multiplier uint64 `gorm:"not null" json:"multiplier"`
	Wins       uint64 `gorm:"not null" json:"wins"`
	Losses     uint64 `gorm:"not null" json:"losses"`
	MintedAt   int64  `gorm:"not null" json:"minted_at"`
}

func (Card) TableName() string {
	return "cards"
}
