package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"pharmadesk/m/domain"
	"pharmadesk/m/internal/onboarding"
)

type validationResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// respondFailure maps service and onboarding errors to status codes.
func (h *Handler) respondFailure(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr      *domain.ValidationError
		stepErr   *onboarding.StepError
		resendErr *onboarding.ResendError
	)
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusUnprocessableEntity, validationResponse{Error: "validation failed", Fields: verr.Fields})
	case errors.Is(err, onboarding.ErrInvalidOTP):
		respondJSON(w, http.StatusUnprocessableEntity, validationResponse{
			Error:  "validation failed",
			Fields: map[string]string{"otp": "Invalid OTP. Please try again."},
		})
	case errors.Is(err, onboarding.ErrTooManyAttempts):
		respondError(w, http.StatusTooManyRequests, "Too many invalid attempts. Please enter your phone number again.")
	case errors.As(err, &resendErr):
		w.Header().Set("Retry-After", strconv.Itoa(int(resendErr.Wait.Round(time.Second)/time.Second)))
		respondError(w, http.StatusTooManyRequests, "Resend OTP in "+clock(resendErr.Wait))
	case errors.As(err, &stepErr):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, onboarding.ErrSessionNotFound), errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidSale):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// clock formats a countdown as m:ss.
func clock(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// queryInt reads an integer query parameter in [0, limit]; absent means 0.
func queryInt(r *http.Request, key string, limit int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > limit {
		return 0, fmt.Errorf("%s must be an integer between 0 and %d", key, limit)
	}
	return n, nil
}

// Helpers
func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
