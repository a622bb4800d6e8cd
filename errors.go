package subchain

import (
	"errors"
	"fmt"

	"github.com/xraph/subchain/creator"
	"github.com/xraph/subchain/tier"
)

// Sentinel errors for lifecycle failures.
var (
	// General errors
	ErrInvalidInput = errors.New("subchain: invalid input")
	ErrUnauthorized = errors.New("subchain: unauthorized")

	// Creator errors
	ErrPriceTooLow              = errors.New("subchain: price must be greater than zero")
	ErrConfigAlreadyInitialized = errors.New("subchain: creator config already initialized")
	ErrConfigNotFound           = errors.New("subchain: creator config not found")
	ErrInvalidCreator           = errors.New("subchain: payee is not the configured creator")

	// Subscription errors
	ErrSubscriptionNotFound      = errors.New("subchain: subscription not found")
	ErrSubscriptionExists        = errors.New("subchain: subscription already exists")
	ErrPausedSubscription        = errors.New("subchain: subscription is paused") // reserved; no operation raises it
	ErrAlreadyPausedSubscription = errors.New("subchain: subscription is already paused")
	ErrExpiredSubscription       = errors.New("subchain: subscription has expired")
	ErrNotPausedSubscription     = errors.New("subchain: subscription is not paused")
	ErrInvalidTier               = errors.New("subchain: invalid subscription tier")

	// Store errors
	ErrStoreClosed = errors.New("subchain: store is closed")
)

// ValidationError represents a validation failure on a named field.
type ValidationError struct {
	Field string
	Err   error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("subchain: validation failed for %s: %v", e.Field, e.Err)
}

func (e ValidationError) Unwrap() error { return e.Err }

// IsNotFound returns true if the error reports a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrConfigNotFound) ||
		errors.Is(err, ErrSubscriptionNotFound)
}

// IsPrecondition returns true if the error reports a state check failure.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrConfigAlreadyInitialized) ||
		errors.Is(err, ErrSubscriptionExists) ||
		errors.Is(err, ErrPausedSubscription) ||
		errors.Is(err, ErrAlreadyPausedSubscription) ||
		errors.Is(err, ErrExpiredSubscription) ||
		errors.Is(err, ErrNotPausedSubscription)
}

// IsAuthorization returns true if the error reports a wrong signer or payee.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidCreator)
}

// IsValidation returns true if the error reports bad caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrPriceTooLow) ||
		errors.Is(err, ErrInvalidTier) ||
		errors.Is(err, ErrInvalidInput)
}

// priceError converts a creator field error into a root ValidationError
// wrapping ErrPriceTooLow.
func priceError(err error) error {
	var fe *creator.FieldError
	if errors.As(err, &fe) {
		return ValidationError{Field: fe.Field, Err: ErrPriceTooLow}
	}
	return ValidationError{Field: "price", Err: ErrPriceTooLow}
}

func tierError(t tier.Tier) error {
	return ValidationError{Field: "tier", Err: fmt.Errorf("%w: tag %d", ErrInvalidTier, uint8(t))}
}
