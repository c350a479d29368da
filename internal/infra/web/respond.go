package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"counseling-platform/internal/domain"
)

func respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, code int, msg string) {
	respondJSON(w, code, struct {
		Error string `json:"error"`
	}{Error: msg})
}

// respondDomainError maps the domain error taxonomy onto HTTP statuses.
// Unrecognized errors become a generic 500 so internals never leak.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrInvalidArgument):
		respondError(w, http.StatusBadRequest, "invalid request")
	case errors.Is(err, domain.ErrCouponNotFound):
		respondError(w, http.StatusBadRequest, "coupon not found")
	case errors.Is(err, domain.ErrCouponInactive):
		respondError(w, http.StatusBadRequest, "coupon is not active")
	case errors.Is(err, domain.ErrCouponExpired):
		respondError(w, http.StatusBadRequest, "coupon has expired")
	case errors.Is(err, domain.ErrCouponNotApplicable):
		respondError(w, http.StatusBadRequest, "coupon not applicable to this plan")
	case errors.Is(err, domain.ErrInvalidSignature):
		respondError(w, http.StatusBadRequest, "invalid signature")
	case errors.Is(err, domain.ErrAccountDeactivated):
		respondError(w, http.StatusForbidden, "account deactivated")
	case errors.Is(err, domain.ErrAlreadyPurchased):
		respondError(w, http.StatusForbidden, "plan already purchased")
	case errors.Is(err, domain.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrUnknownOrder) || errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrAlreadyExists):
		respondError(w, http.StatusConflict, "conflict")
	case errors.Is(err, domain.ErrGatewayUnavailable):
		respondError(w, http.StatusBadGateway, "payment gateway unavailable")
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
