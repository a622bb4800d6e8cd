package subchain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/xraph/subchain/creator"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		notFound   bool
		precond    bool
		authz      bool
		validation bool
	}{
		{"config not found", ErrConfigNotFound, true, false, false, false},
		{"wrapped subscription not found", fmt.Errorf("load: %w", ErrSubscriptionNotFound), true, false, false, false},
		{"already initialized", ErrConfigAlreadyInitialized, false, true, false, false},
		{"already paused", ErrAlreadyPausedSubscription, false, true, false, false},
		{"expired", ErrExpiredSubscription, false, true, false, false},
		{"not paused", ErrNotPausedSubscription, false, true, false, false},
		{"unauthorized", ErrUnauthorized, false, false, true, false},
		{"invalid creator", ErrInvalidCreator, false, false, true, false},
		{"price too low", ValidationError{Field: "monthly_price", Err: ErrPriceTooLow}, false, false, false, true},
		{"other", errors.New("x"), false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.notFound {
				t.Errorf("IsNotFound = %v, want %v", got, tt.notFound)
			}
			if got := IsPrecondition(tt.err); got != tt.precond {
				t.Errorf("IsPrecondition = %v, want %v", got, tt.precond)
			}
			if got := IsAuthorization(tt.err); got != tt.authz {
				t.Errorf("IsAuthorization = %v, want %v", got, tt.authz)
			}
			if got := IsValidation(tt.err); got != tt.validation {
				t.Errorf("IsValidation = %v, want %v", got, tt.validation)
			}
		})
	}
}

func TestPriceError(t *testing.T) {
	err := priceError(&creator.FieldError{Field: "annual_price", Err: creator.ErrPriceTooLow})

	var ve ValidationError
	if !errors.As(err, &ve) || ve.Field != "annual_price" {
		t.Fatalf("got %v, want ValidationError on annual_price", err)
	}
	if !errors.Is(err, ErrPriceTooLow) {
		t.Error("should wrap ErrPriceTooLow")
	}
}
