// Package ledger applies wagers to pool totals and stakes with checked arithmetic.
package ledger

import (
	"math"

	"github.com/mohtashimnawaz/prediction/internal/apperr"
	"github.com/mohtashimnawaz/prediction/internal/models"
)

// MaxAmount is the largest amount or counter the store can hold. SQL drivers
// reject unsigned values with the high bit set.
const MaxAmount uint64 = math.MaxInt64

// Add returns a+b or ErrOverflow when either operand or the sum exceeds MaxAmount.
func Add(a, b uint64) (uint64, error) {
	if a > MaxAmount || b > MaxAmount-a {
		return 0, apperr.ErrOverflow
	}
	return a + b, nil
}

// Wager is one accepted stake.
type Wager struct {
	Side       bool
	Amount     uint64
	CardMint   *string
	Multiplier uint64
}

// Apply adds w to the market pool, the bet and the platform volume. Nothing is
// modified unless every addition succeeds.
func Apply(platform *models.Platform, market *models.Market, bet *models.Bet, w Wager) error {
	if w.Amount == 0 {
		return apperr.ErrInvalidAmount
	}

	yes, no := market.TotalYesAmount, market.TotalNoAmount
	var err error
	if w.Side {
		yes, err = Add(yes, w.Amount)
	} else {
		no, err = Add(no, w.Amount)
	}
	if err != nil {
		return err
	}
	// The pair must still be summable for payout.
	if _, err := Add(yes, no); err != nil {
		return err
	}

	stake, err := Add(bet.Amount, w.Amount)
	if err != nil {
		return err
	}
	volume, err := Add(platform.TotalVolume, w.Amount)
	if err != nil {
		return err
	}

	market.TotalYesAmount = yes
	market.TotalNoAmount = no
	bet.Amount = stake
	bet.Prediction = w.Side
	if w.CardMint != nil {
		mint := *w.CardMint
		bet.CardMint = &mint
		bet.CardMultiplier = w.Multiplier
	}
	platform.TotalVolume = volume
	return nil
}

// Imbalance describes a market whose pools disagree with its bets.
type Imbalance struct {
	MarketID   uint64 `json:"market_id"`
	PoolTotal  uint64 `json:"pool_total"`
	StakeTotal uint64 `json:"stake_total"`
	Balanced   bool   `json:"balanced"`
	BetCount   int    `json:"bet_count"`
}

// Reconcile compares yes+no against the sum of stakes.
func Reconcile(market *models.Market, bets []models.Bet) (Imbalance, error) {
	pools, err := Add(market.TotalYesAmount, market.TotalNoAmount)
	if err != nil {
		return Imbalance{}, err
	}
	var stakes uint64
	for i := range bets {
		stakes, err = Add(stakes, bets[i].Amount)
		if err != nil {
			return Imbalance{}, err
		}
	}
	return Imbalance{
		MarketID:   market.ID,
		PoolTotal:  pools,
		StakeTotal: stakes,
		Balanced:   pools == stakes,
		BetCount:   len(bets),
	}, nil
}
