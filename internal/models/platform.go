package models

// PlatformID is the primary key of the single platform row.
const PlatformID uint = 1

// Platform holds the fee authority, the treasury and running totals.
type Platform struct {
	ID           uint   `gorm:"primaryKey;autoIncrement:false" json:"-"`
	Authority    string `gorm:"size:64;not null" json:"authority"`
	Treasury     string `gorm:"size:64;not null" json:"treasury"`
	TotalMarkets uint64 `gorm:"not null" json:"total_markets"`
	TotalVolume  uint64 `gorm:"not null" json:"total_volume"`
	CreatedAt    int64  `gorm:"not null" json:"created_at"`
}

func (Platform) TableName() string {
	return "platforms"
}
