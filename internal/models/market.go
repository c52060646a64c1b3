package models

import (
	"github.com/mohtashimnawaz/prediction/internal/apperr"
	"github.com/mohtashimnawaz/prediction/internal/oracle"
	"gorm.io/gorm"
)

const (
	MaxQuestionLength    = 100
	MaxDescriptionLength = 200
)

type MarketCategory string

const (
	CategorySports        MarketCategory = "Sports"
	CategoryCrypto        MarketCategory = "Crypto"
	CategoryPolitics      MarketCategory = "Politics"
	CategoryEntertainment MarketCategory = "Entertainment"
	CategoryWeather       MarketCategory = "Weather"
	CategoryTechnology    MarketCategory = "Technology"
	CategoryGaming        MarketCategory = "Gaming"
	CategoryOther         MarketCategory = "Other"
)

var marketCategories = map[MarketCategory]bool{
	CategorySports: true, CategoryCrypto: true, CategoryPolitics: true, CategoryEntertainment: true,
	CategoryWeather: true, CategoryTechnology: true, CategoryGaming: true, CategoryOther: true,
}

// ParseCategory defaults an empty category to Other.
func ParseCategory(s string) (MarketCategory, error) {
	if s == "" {
		return CategoryOther, nil
	}
	c := MarketCategory(s)
	if !marketCategories[c] {
		return "", apperr.ErrInvalidCategory
	}
	return c, nil
}

type MarketState string

const (
	MarketStateOpen     MarketState = "OPEN"
	MarketStateEnded    MarketState = "ENDED"
	MarketStateResolved MarketState = "RESOLVED"
)

// Market is a binary proposition with pooled stakes on each side.
// Times are unix seconds.
type Market struct {
	ID             uint64          `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Authority      string          `gorm:"size:64;not null;index" json:"authority"`
	Creator        string          `gorm:"size:64;not null;index" json:"creator"`
	Question       string          `gorm:"size:100;not null" json:"question"`
	Description    string          `gorm:"size:200" json:"description"`
	Category       MarketCategory  `gorm:"size:32;not null;index" json:"category"`
	EndTime        int64           `gorm:"not null;index" json:"end_time"`
	CreatedAt      int64           `gorm:"not null" json:"created_at"`
	Resolved       bool            `gorm:"not null;index" json:"resolved"`
	Outcome        *bool           `json:"outcome"`
	ResolvedAt     *int64          `json:"resolved_at,omitempty"`
	TotalYesAmount uint64          `gorm:"not null" json:"total_yes_amount"`
	TotalNoAmount  uint64          `gorm:"not null" json:"total_no_amount"`
	Oracle         oracle.Spec     `gorm:"type:text;not null" json:"oracle"`
	OracleDataType oracle.DataType `gorm:"size:32;not null;index" json:"oracle_data_type"`
}

func (Market) TableName() string {
	return "markets"
}

// BeforeSave keeps the indexed data type column in step with the stored spec.
func (m *Market) BeforeSave(tx *gorm.DB) error {
	m.OracleDataType = m.Oracle.DataType()
	return nil
}

// State is derived from the stored fields and the supplied time.
func (m *Market) State(now int64) MarketState {
	switch {
	case m.Resolved:
		return MarketStateResolved
	case now >= m.EndTime:
		return MarketStateEnded
	default:
		return MarketStateOpen
	}
}

// PoolFor returns the pool on the given side.
func (m *Market) PoolFor(side bool) uint64 {
	if side {
		return m.TotalYesAmount
	}
	return m.TotalNoAmount
}

// ValidateText checks the question and description bounds in bytes.
func ValidateText(question, description string) error {
	if len(question) > MaxQuestionLength {
		return apperr.ErrQuestionTooLong
	}
	if len(description) > MaxDescriptionLength {
		return apperr.ErrDescriptionTooLong
	}
	return nil
}
