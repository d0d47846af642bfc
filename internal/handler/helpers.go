package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bigtree/storefront-inquiry-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

// writeJSON writes an arbitrary payload (operational endpoints).
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes the inquiry envelope {success: true, data: ...}.
func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, domain.Envelope{Success: true, Data: data})
}

// writeFailure writes the inquiry envelope {success: false, data: {message}}.
func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, domain.Envelope{Success: false, Data: domain.EnvelopeMessage{Message: msg}})
}

// handleServiceError maps domain errors to HTTP responses in the failure
// envelope. Messages are user-facing; nothing is swallowed.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var unauthorized *domain.ErrUnauthorized
	var validation *domain.ErrValidation
	var conflict *domain.ErrConflict
	var emptyCart *domain.ErrEmptyCart
	var orderCreation *domain.ErrOrderCreation
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeFailure(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeFailure(w, http.StatusBadRequest, validation.Message)
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeFailure(w, http.StatusConflict, err.Error())
	case errors.As(err, &emptyCart):
		logger.Debug("empty cart", zap.String("session_id", emptyCart.SessionID))
		writeFailure(w, http.StatusUnprocessableEntity, "Cart is empty.")
	case errors.As(err, &orderCreation):
		logger.Error("order creation failed", zap.Error(err))
		writeFailure(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeFailure(w, http.StatusNotFound, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeFailure(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &external):
		logger.Error("external service error", zap.Error(err))
		writeFailure(w, http.StatusBadGateway, "Commerce backend unavailable.")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeFailure(w, http.StatusInternalServerError, "internal server error")
	}
}
