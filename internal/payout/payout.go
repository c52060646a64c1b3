// Package payout computes the platform fee and each winner's share of a resolved market.
package payout

import (
	"math/big"

	"github.com/mohtashimnawaz/prediction/internal/apperr"
	"github.com/mohtashimnawaz/prediction/internal/ledger"
	"github.com/mohtashimnawaz/prediction/internal/models"
	"github.com/shopspring/decimal"
)

// BpsDenominator is the basis point scale.
const BpsDenominator = 10_000

// DefaultFeeBps is 2%.
const DefaultFeeBps uint64 = 200

var maxAmount = fromUint64(ledger.MaxAmount)

// Breakdown is derived from the immutable totals of a resolved market.
type Breakdown struct {
	TotalPool    uint64 `json:"total_pool"`
	WinningPool  uint64 `json:"winning_pool"`
	PlatformFee  uint64 `json:"platform_fee"`
	PoolAfterFee uint64 `json:"pool_after_fee"`
	Outcome      bool   `json:"outcome"`
}

// Compute returns the breakdown for a resolved market. It fails with
// ErrNotResolved before resolution and does not check the winning pool.
func Compute(market *models.Market, feeBps uint64) (Breakdown, error) {
	if !market.Resolved || market.Outcome == nil {
		return Breakdown{}, apperr.ErrNotResolved
	}
	total, err := ledger.Add(market.TotalYesAmount, market.TotalNoAmount)
	if err != nil {
		return Breakdown{}, err
	}
	fee, err := Fee(total, feeBps)
	if err != nil {
		return Breakdown{}, err
	}
	outcome := *market.Outcome
	return Breakdown{
		TotalPool:    total,
		WinningPool:  market.PoolFor(outcome),
		PlatformFee:  fee,
		PoolAfterFee: total - fee,
		Outcome:      outcome,
	}, nil
}

// Fee is floor(total * bps / 10000).
func Fee(total, feeBps uint64) (uint64, error) {
	if feeBps > BpsDenominator {
		return 0, apperr.ErrOverflow
	}
	return mulDiv(total, feeBps, BpsDenominator)
}

// Winnings is floor(amount * pool_after_fee / winning_pool).
func (b Breakdown) Winnings(amount uint64) (uint64, error) {
	if b.WinningPool == 0 {
		return 0, apperr.ErrNoWinningBets
	}
	return mulDiv(amount, b.PoolAfterFee, b.WinningPool)
}

// mulDiv computes floor(a*b/c) without intermediate overflow.
func mulDiv(a, b, c uint64) (uint64, error) {
	product := fromUint64(a).Mul(fromUint64(b))
	q, _ := product.QuoRem(fromUint64(c), 0)
	if q.GreaterThan(maxAmount) {
		return 0, apperr.ErrOverflow
	}
	return q.BigInt().Uint64(), nil
}

func fromUint64(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}
