package royaltyd

import (
	"context"
	"errors"
	"net/http"

	"royaltyhub/native/royalty"
)

type errorBody struct {
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch royalty.Code(err) {
	case "FeeTooHigh", "InvalidPercentage", "InvalidPrice", "InvalidMetadataUri", "InvalidAddress", "Overflow":
		return http.StatusBadRequest
	case "InsufficientFunds":
		return http.StatusPaymentRequired
	case "Unauthorized", "NotOwner":
		return http.StatusForbidden
	case "ListingNotFound", "ResaleNotFound", "PoolNotFound", "ClaimNotFound":
		return http.StatusNotFound
	case "NotInitialized", "AlreadyInitialized", "ListingExists", "ResaleExists", "ListingNotActive",
		"ListingExpired", "ListingNotExpired", "ResaleNotAllowed", "PayoutPoolEmpty", "AlreadyClaimed", "Conflict":
		return http.StatusConflict
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{Code: royalty.Code(err), Error: err.Error()}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "route", r.URL.Path, "error", err)
		body.Error = "internal error"
	}
	s.writeJSON(w, status, body)
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}
