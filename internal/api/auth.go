package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pharmadesk/m/domain"
	"pharmadesk/m/internal/onboarding"
)

// Authentication helpers

type authClaims struct {
	SessionID string `json:"session_id"`
	Phone     string `json:"phone"`
	jwt.RegisteredClaims
}

func (h *Handler) generateToken(s onboarding.Session) (string, error) {
	now := time.Now()
	claims := authClaims{
		SessionID: s.ID,
		Phone:     s.Phone,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(h.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.secret))
}

// authMiddleware accepts a bearer token only while its onboarding session
// is still alive and authenticated.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.secret), nil
		})
		if err != nil || !token.Valid {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		claims, ok := token.Claims.(*authClaims)
		if !ok || claims.SessionID == "" {
			respondError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}
		s, err := h.flow.Get(claims.SessionID)
		if err != nil || s.Step != onboarding.StepAuthenticated || s.Phone != claims.Phone {
			respondError(w, http.StatusUnauthorized, "session expired")
			return
		}
		ctx := context.WithValue(r.Context(), ctxSession, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFromContext(r *http.Request) (onboarding.Session, bool) {
	s, ok := r.Context().Value(ctxSession).(onboarding.Session)
	return s, ok
}

// Onboarding handlers

type sessionResponse struct {
	onboarding.Session
	FormattedPhone  string `json:"formatted_phone,omitempty"`
	ResendInSeconds int    `json:"resend_in_seconds,omitempty"`
	NextStep        int    `json:"registration_step,omitempty"`
	Token           string `json:"token,omitempty"`
}

func (h *Handler) describe(s onboarding.Session) sessionResponse {
	resp := sessionResponse{Session: s}
	if s.Phone != "" {
		resp.FormattedPhone = onboarding.FormatPhone(s.Phone)
	}
	resp.ResendInSeconds = int(h.flow.ResendIn(s) / time.Second)
	return resp
}

type sessionRequest struct {
	SessionID string `json:"session_id"`
}

func (h *Handler) organizations(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, onboarding.Organizations)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneNumber string `json:"phone_number"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s, err := h.flow.Start(r.Context(), req.PhoneNumber)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, h.describe(s))
}

func (h *Handler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		OTP       string `json:"otp"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s, err := h.flow.VerifyOTP(r.Context(), req.SessionID, strings.TrimSpace(req.OTP))
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.describe(s))
}

func (h *Handler) resendOTP(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s, err := h.flow.Resend(r.Context(), req.SessionID)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.describe(s))
}

func (h *Handler) back(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s, err := h.flow.Back(req.SessionID)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.describe(s))
}

type registrationRequest struct {
	SessionID string `json:"session_id"`
	// Step 1 or 2 validates that group only; 0 or 3 submits the form.
	Step int `json:"step"`
	domain.Registration
}

func (h *Handler) registration(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Step < 0 || req.Step > onboarding.RegistrationSteps {
		respondError(w, http.StatusBadRequest, "step must be between 1 and 3")
		return
	}

	if req.Step > 0 && req.Step < onboarding.RegistrationSteps {
		if err := h.flow.CheckRegistrationStep(req.SessionID, req.Step, req.Registration); err != nil {
			h.respondFailure(w, r, err)
			return
		}
		s, err := h.flow.Get(req.SessionID)
		if err != nil {
			h.respondFailure(w, r, err)
			return
		}
		resp := h.describe(s)
		resp.NextStep = req.Step + 1
		respondJSON(w, http.StatusOK, resp)
		return
	}

	s, err := h.flow.SubmitRegistration(req.SessionID, req.Registration)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.describe(s))
}

type pharmacistRequest struct {
	SessionID string `json:"session_id"`
	domain.PharmacistInfo
}

// pharmacist completes onboarding and hands out the bearer token.
func (h *Handler) pharmacist(w http.ResponseWriter, r *http.Request) {
	var req pharmacistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s, err := h.flow.SubmitPharmacistInfo(req.SessionID, req.PharmacistInfo)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	token, err := h.generateToken(s)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}
	resp := h.describe(s)
	resp.Token = token
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFromContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing session")
		return
	}
	respondJSON(w, http.StatusOK, h.describe(s))
}
