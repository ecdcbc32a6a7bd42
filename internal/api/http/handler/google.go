package handler

import (
	"net/http"
	"strings"

	"github.com/dtroode/alumni-server/internal/api/http/response"
	"github.com/dtroode/alumni-server/internal/logger"
	"github.com/dtroode/alumni-server/internal/model"
	"github.com/dtroode/alumni-server/internal/service"
)

// AuthURLBuilder builds the Google consent URL.
type AuthURLBuilder interface {
	AuthURL(state string) string
}

// Google handles the /auth/google endpoints.
type Google struct {
	auth     *Auth
	urls     AuthURLBuilder
	newState func() (string, error)
	logger   *logger.Logger
}

// NewGoogle creates a new Google handler sharing auth's services and cookie policy.
func NewGoogle(auth *Auth, urls AuthURLBuilder, newState func() (string, error), logger *logger.Logger) *Google {
	return &Google{auth: auth, urls: urls, newState: newState, logger: logger}
}

// AuthURL returns the consent URL together with the state value it carries.
func (h *Google) AuthURL(w http.ResponseWriter, r *http.Request) {
	state, err := h.newState()
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	response.Success(w, http.StatusOK, "Google OAuth URL generated", map[string]string{
		"authUrl": h.urls.AuthURL(state),
		"state":   state,
	})
}

type googleRequest struct {
	Token string `json:"token"`
	googleSignupRequest
}

type googleSignupRequest struct {
	Department string `json:"department" validate:"oneof=TEP TPN TIN"`
	ClassYear  *int   `json:"classYear" validate:"required,min=1960,notfuture"`
}

func (req googleSignupRequest) empty() bool {
	return req.Department == "" && req.ClassYear == nil
}

func (h *Google) Login(w http.ResponseWriter, r *http.Request) {
	req, signup, ok := h.decode(w, r, false)
	if !ok {
		return
	}

	session, err := h.auth.authService.GoogleLogin(r.Context(), req.Token, signup)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	h.auth.writeSession(w, http.StatusOK, "Google login successful", session)
}

func (h *Google) Register(w http.ResponseWriter, r *http.Request) {
	req, signup, ok := h.decode(w, r, true)
	if !ok {
		return
	}

	session, err := h.auth.authService.GoogleRegister(r.Context(), req.Token, *signup)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	h.auth.writeSession(w, http.StatusCreated, "Google registration successful", session)
}

func (h *Google) decode(w http.ResponseWriter, r *http.Request, signupRequired bool) (googleRequest, *service.GoogleSignup, bool) {
	var req googleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, h.logger, err)
		return req, nil, false
	}

	req.Token = strings.TrimSpace(req.Token)
	req.Department = normalizeDepartment(req.Department)

	checks := []any{&tokenOnly{Token: req.Token}}
	if signupRequired || !req.googleSignupRequest.empty() {
		checks = append(checks, &req.googleSignupRequest)
	}
	if err := h.auth.validator.Check(checks...); err != nil {
		response.Error(w, r, h.logger, err)
		return req, nil, false
	}

	if len(checks) == 1 {
		return req, nil, true
	}
	return req, &service.GoogleSignup{
		Department: model.Department(req.Department),
		ClassYear:  *req.ClassYear,
	}, true
}

type tokenOnly struct {
	Token string `json:"token" validate:"required"`
}
