package models

import (
	"github.com/mohtashimnawaz/prediction/internal/oracle"
)

// CreatePlatformRequest initializes the platform; the caller becomes its authority.
type CreatePlatformRequest struct {
	Treasury string `json:"treasury" binding:"required"`
}

// CreateMarketRequest carries the market text, deadline and the flat oracle section.
type CreateMarketRequest struct {
	Question    string `json:"question" binding:"required"`
	Description string `json:"description"`
	EndTime     int64  `json:"end_time" binding:"required"`
	Category    string `json:"category"`
	oracle.Params
}

// PlaceWagerRequest places or tops up a bet. DepositSignature is the bettor's
// transfer into the market vault when custody runs on-chain.
type PlaceWagerRequest struct {
	Prediction       *bool   `json:"prediction" binding:"required"`
	Amount           uint64  `json:"amount"`
	CardMint         *string `json:"card_mint"`
	DepositSignature string  `json:"deposit_signature"`
}

type ResolveManualRequest struct {
	Outcome *bool `json:"outcome" binding:"required"`
}

type ResolveSportsRequest struct {
	TeamAScore uint32 `json:"team_a_score"`
	TeamBScore uint32 `json:"team_b_score"`
}

type ResolveWeatherRequest struct {
	RecordedValue int64 `json:"recorded_value"`
}

type ResolveSocialRequest struct {
	ActualValue uint64 `json:"actual_value"`
}

type MintCardRequest struct {
	Mint       string `json:"mint" binding:"required"`
	Power      uint8  `json:"power"`
	Rarity     uint8  `json:"rarity"`
	Multiplier uint64 `json:"multiplier"`
}

type UpdateCardStatsRequest struct {
	Won *bool `json:"won" binding:"required"`
}

// MarketResponse is a market with its state evaluated at the time of the request.
type MarketResponse struct {
	*Market
	State MarketState `json:"state"`
}
