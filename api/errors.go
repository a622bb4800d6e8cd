package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/xraph/subchain"
	"github.com/xraph/subchain/bank"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// StatusFor maps an operation error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case subchain.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, ErrMissingToken), errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case subchain.IsAuthorization(err):
		return http.StatusForbidden
	case subchain.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, subchain.ErrConfigAlreadyInitialized),
		errors.Is(err, subchain.ErrSubscriptionExists):
		return http.StatusConflict
	case subchain.IsPrecondition(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, bank.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, subchain.ErrStoreClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := ErrorResponse{Error: err.Error()}

	var ve subchain.ValidationError
	var fe validator.ValidationErrors
	switch {
	case errors.As(err, &ve):
		resp.Field = ve.Field
	case errors.As(err, &fe) && len(fe) > 0:
		resp.Field = fe[0].Field()
	}

	if status >= http.StatusInternalServerError {
		resp.Error = http.StatusText(status)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}
