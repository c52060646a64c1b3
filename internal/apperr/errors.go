package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers and for HTTP status mapping.
type Kind string

const (
	KindValidation    Kind = "validation_error"
	KindConfig        Kind = "config_error"
	KindState         Kind = "state_error"
	KindAuthorization Kind = "authorization_error"
	KindEconomic      Kind = "economic_error"
	KindExternal      Kind = "external_error"
)

// Error is a domain error with a stable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches on Code so wrapped copies compare equal to the sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newErr(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrQuestionTooLong    = newErr(KindValidation, "question_too_long", "question exceeds 100 characters")
	ErrDescriptionTooLong = newErr(KindValidation, "description_too_long", "description exceeds 200 characters")
	ErrInvalidEndTime     = newErr(KindValidation, "invalid_end_time", "end time must be in the future")
	ErrInvalidAmount      = newErr(KindValidation, "invalid_amount", "amount must be greater than zero")
	ErrInvalidCard        = newErr(KindValidation, "invalid_card", "card power, rarity or multiplier out of range")
	ErrInvalidCategory    = newErr(KindValidation, "invalid_category", "unknown market category")
	ErrInvalidAddress     = newErr(KindValidation, "invalid_address", "not a valid address")

	ErrOracleConfigRequired = newErr(KindConfig, "oracle_config_required", "oracle configuration is incomplete for this data type")
	ErrWrongResolutionPath  = newErr(KindConfig, "wrong_resolution_path", "market is not configured for this resolution path")
	ErrUnknownOracle        = newErr(KindConfig, "unknown_oracle", "unknown oracle source or data type")

	ErrPlatformExists   = newErr(KindState, "platform_exists", "platform already initialized")
	ErrPlatformNotFound = newErr(KindState, "platform_not_found", "platform not initialized")
	ErrMarketNotFound   = newErr(KindState, "market_not_found", "market not found")
	ErrBetNotFound      = newErr(KindState, "bet_not_found", "bet not found")
	ErrCardNotFound     = newErr(KindState, "card_not_found", "card not found")
	ErrCardExists       = newErr(KindState, "card_exists", "card already minted")
	ErrAlreadyResolved  = newErr(KindState, "market_already_resolved", "market already resolved")
	ErrMarketEnded      = newErr(KindState, "market_ended", "market has ended")
	ErrNotEnded         = newErr(KindState, "market_not_ended", "market has not ended yet")
	ErrNotResolved      = newErr(KindState, "market_not_resolved", "market not resolved yet")

	ErrUnauthorized = newErr(KindAuthorization, "unauthorized", "unauthorized")
	ErrNotCardOwner = newErr(KindAuthorization, "not_card_owner", "caller does not hold this card")

	ErrNoWinningBets  = newErr(KindEconomic, "no_winning_bets", "no bets on the winning side")
	ErrLosingBet      = newErr(KindEconomic, "losing_bet", "bet did not win")
	ErrAlreadyClaimed = newErr(KindEconomic, "already_claimed", "winnings already claimed")
	ErrOverflow       = newErr(KindEconomic, "arithmetic_overflow", "arithmetic overflow")

	ErrStaleData         = newErr(KindExternal, "stale_price_data", "oracle observation is too old")
	ErrPriceNotAvailable = newErr(KindExternal, "price_not_available", "oracle observation not available")
	ErrCustodyFailed     = newErr(KindExternal, "custody_failed", "custody transfer failed")
	ErrOwnershipCheck    = newErr(KindExternal, "ownership_check_failed", "token ownership check failed")
)

// Wrap attaches cause to a sentinel while keeping errors.Is(err, sentinel) true.
func Wrap(sentinel *Error, cause error) error {
	return fmt.Errorf("%w: %v", sentinel, cause)
}

// KindOf returns the kind of the first domain error in the chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// As returns the first domain error in the chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
