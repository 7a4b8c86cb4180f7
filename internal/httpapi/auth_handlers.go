package httpapi

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"settleline.app/internal/auth"
	"settleline.app/internal/settle"
)

const tokenTTL = 24 * time.Hour

// demoAccounts is the fixed evaluation login set. Anything else is
// rejected; real traffic authenticates with externally issued tokens.
var demoAccounts = map[string]string{
	"client@demo.settleline.app":      auth.RoleClient,
	"broker@demo.settleline.app":      auth.RoleBroker,
	"conveyancer@demo.settleline.app": auth.RoleConveyancer,
	"admin@demo.settleline.app":       auth.RoleAdmin,
}

type demoLoginRequest struct {
	Email string `json:"email"`
}

type tokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *settle.User `json:"user"`
}

func (a *API) handleDemoLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req demoLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	role, ok := demoAccounts[email]
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unknown demo account")
		return
	}

	user, err := a.store.Users().FindByEmail(r.Context(), email)
	if errors.Is(err, settle.ErrNotFound) {
		user = &settle.User{
			ExternalID: "demo-" + strings.ToLower(role),
			Email:      email,
			Name:       "Demo " + role[:1] + strings.ToLower(role[1:]),
			Role:       role,
		}
		err = a.store.Users().Create(r.Context(), user)
		if errors.Is(err, settle.ErrAlreadyExists) {
			user, err = a.store.Users().FindByEmail(r.Context(), email)
		}
	}
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	token, err := auth.GenerateToken(user.ExternalID, user.Email, user.Name, user.Role, tokenTTL)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}

	a.audit(r.Context(), "auth.demo_login", "user", user.ID, map[string]string{"role": user.Role})
	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(tokenTTL),
		User:      user,
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// onboardingRequest is the complete set of self-service profile fields.
// DisallowUnknownFields turns anything outside this set (role, email,
// identity bindings) into a 400 naming the field.
type onboardingRequest struct {
	Phone              *string `json:"phone"`
	DateOfBirth        *string `json:"dateOfBirth"`
	Address            *string `json:"address"`
	State              *string `json:"state"`
	Postcode           *string `json:"postcode"`
	VOIMethod          *string `json:"voiMethod"`
	VOIStatus          *string `json:"voiStatus"`
	OnboardingStep     *int    `json:"onboardingStep"`
	OnboardingComplete *bool   `json:"onboardingComplete"`
}

func (a *API) handleOnboarding(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w, r, http.MethodPatch)
		return
	}
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	var req onboardingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := a.store.Users().UpdateProfile(r.Context(), user.ID, settle.ProfileUpdate{
		Phone:              req.Phone,
		DateOfBirth:        req.DateOfBirth,
		Address:            req.Address,
		State:              req.State,
		Postcode:           req.Postcode,
		VOIMethod:          req.VOIMethod,
		VOIStatus:          req.VOIStatus,
		OnboardingStep:     req.OnboardingStep,
		OnboardingComplete: req.OnboardingComplete,
	})
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	a.audit(r.Context(), "user.onboarding.update", "user", user.ID, nil)
	writeJSON(w, http.StatusOK, updated)
}

const otpTTL = 5 * time.Minute

func (a *API) handleOtpRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	if user.Phone == "" {
		writeError(w, r, http.StatusBadRequest, "phone number is required before verification")
		return
	}
	if a.vendors == nil || !a.vendors.SMS.IsConfigured() {
		writeError(w, r, http.StatusServiceUnavailable, "sms delivery is not configured")
		return
	}

	code, err := generateOtpCode()
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	record := &settle.OtpCode{
		UserID:    user.ID,
		CodeHash:  hashOtpCode(code),
		ExpiresAt: time.Now().UTC().Add(otpTTL),
	}
	if err := a.store.OtpCodes().Create(r.Context(), record); err != nil {
		handleStoreError(w, r, err)
		return
	}
	if err := a.vendors.SMS.Send(r.Context(), user.Phone, "Your Settleline verification code is "+code); err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "auth.otp.request", "user", user.ID, nil)
	writeJSON(w, http.StatusOK, map[string]any{
		"sent":      true,
		"expiresAt": record.ExpiresAt,
	})
}

type otpVerifyRequest struct {
	Code string `json:"code"`
}

func (a *API) handleOtpVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	var req otpVerifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		writeError(w, r, http.StatusBadRequest, "code is required")
		return
	}

	record, err := a.store.OtpCodes().LatestForUser(r.Context(), user.ID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	if time.Now().UTC().After(record.ExpiresAt) {
		writeError(w, r, http.StatusBadRequest, settle.ErrExpired.Error())
		return
	}
	if subtle.ConstantTimeCompare([]byte(hashOtpCode(code)), []byte(record.CodeHash)) != 1 {
		writeError(w, r, http.StatusBadRequest, "incorrect code")
		return
	}
	if err := a.store.OtpCodes().MarkVerified(r.Context(), record.ID); err != nil {
		handleStoreError(w, r, err)
		return
	}

	a.audit(r.Context(), "auth.otp.verify", "user", user.ID, nil)
	writeJSON(w, http.StatusOK, map[string]any{"verified": true})
}

func generateOtpCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func hashOtpCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
