package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dtroode/alumni-server/internal/api/http/response"
	"github.com/dtroode/alumni-server/internal/logger"
	"github.com/dtroode/alumni-server/internal/model"
	"github.com/dtroode/alumni-server/internal/service"
)

// AuthService defines the credential flows exposed over HTTP.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (model.User, model.AlumniProfile, error)
	Login(ctx context.Context, email, password string) (service.Session, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	VerifyEmail(ctx context.Context, token string) (model.User, error)
	ResendVerification(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, actor service.Actor, targetID uuid.UUID, currentPassword, newPassword string) error
	GoogleLogin(ctx context.Context, idToken string, signup *service.GoogleSignup) (service.Session, error)
	GoogleRegister(ctx context.Context, idToken string, signup service.GoogleSignup) (service.Session, error)
}

// Auth handles the /auth endpoints.
type Auth struct {
	authService    AuthService
	userService    UserService
	contextManager model.ContextManager
	cookies        response.CookiePolicy
	logger         *logger.Logger
	validator      *Validator
	now            func() time.Time
}

// NewAuth creates a new Auth handler.
func NewAuth(
	authService AuthService,
	userService UserService,
	contextManager model.ContextManager,
	cookies response.CookiePolicy,
	logger *logger.Logger,
) *Auth {
	h := &Auth{
		authService:    authService,
		userService:    userService,
		contextManager: contextManager,
		cookies:        cookies,
		logger:         logger,
		now:            time.Now,
	}
	h.validator = NewValidator(func() time.Time { return h.now() })
	return h
}

type registerRequest struct {
	Email      string  `json:"email" validate:"required,email"`
	Password   string  `json:"password" validate:"min=8,bcryptmax,strongpassword"`
	Name       string  `json:"name" validate:"required,max=100"`
	Department string  `json:"department" validate:"oneof=TEP TPN TIN"`
	ClassYear  *int    `json:"classYear" validate:"required,min=1960,notfuture"`
	StudentID  *string `json:"studentId" validate:"omitnil,number,max=13"`
}

func (req *registerRequest) normalize() {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.Department = normalizeDepartment(req.Department)
	req.StudentID = trimOptional(req.StudentID)
}

func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	req.normalize()
	if err := h.validator.Check(&req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	user, profile, err := h.authService.Register(r.Context(), service.RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		Department: model.Department(req.Department),
		ClassYear:  *req.ClassYear,
		StudentID:  req.StudentID,
	})
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.Success(w, http.StatusCreated, "Registration successful. Please check your email to verify your account.", map[string]any{
		"user":    toUserResponse(user),
		"profile": toProfileResponse(profile),
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	req.Email = normalizeEmail(req.Email)
	if err := h.validator.Check(&req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	session, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	h.writeSession(w, http.StatusOK, "Login successful", session)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh accepts the refresh token from the JSON body or the refresh cookie.
func (h *Auth) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if r.ContentLength != 0 && r.Body != nil && r.Body != http.NoBody {
		if err := decodeJSON(w, r, &req); err != nil {
			response.Error(w, r, h.logger, err)
			return
		}
	}
	if req.RefreshToken == "" {
		if c, err := r.Cookie(response.RefreshCookie); err == nil {
			req.RefreshToken = c.Value
		}
	}
	if req.RefreshToken == "" {
		response.Error(w, r, h.logger, model.NewError(model.ErrInvalidCredential, "refresh token not found"))
		return
	}

	access, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	h.cookies.SetAccessCookie(w, access)
	response.Success(w, http.StatusOK, "Token refreshed", map[string]string{"accessToken": access})
}

// Logout clears the session cookies. Issued tokens stay valid until expiry.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.ClearSessionCookies(w)
	response.Success(w, http.StatusOK, "Logout successful", nil)
}

func (h *Auth) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	user, err := h.authService.VerifyEmail(r.Context(), token)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.Success(w, http.StatusOK, "Email verified successfully", map[string]any{
		"user": toUserResponse(user),
	})
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Auth) ResendVerification(w http.ResponseWriter, r *http.Request) {
	h.emailOnly(w, r, h.authService.ResendVerification, service.MsgVerificationResent)
}

func (h *Auth) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	h.emailOnly(w, r, h.authService.ForgotPassword, service.MsgForgotPasswordSent)
}

// emailOnly runs an enumeration-safe flow whose answer never depends on the
// account state.
func (h *Auth) emailOnly(w http.ResponseWriter, r *http.Request, run func(context.Context, string) error, message string) {
	var req emailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	req.Email = normalizeEmail(req.Email)
	if err := h.validator.Check(&req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	if err := run(r.Context(), req.Email); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	response.Success(w, http.StatusOK, message, nil)
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"min=8,bcryptmax,strongpassword"`
}

func (h *Auth) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	req.Token = strings.TrimSpace(req.Token)
	if err := h.validator.Check(&req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	response.Success(w, http.StatusOK, "Password reset successful. Please log in with your new password.", nil)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" validate:"min=8,bcryptmax,strongpassword"`
}

func (h *Auth) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.contextManager.GetClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, h.logger, model.NewError(model.ErrInvalidCredential, "authentication required"))
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	if err := h.validator.Check(&req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	actor := service.Actor{ID: claims.UserID, Role: claims.Role}
	if err := h.authService.ChangePassword(r.Context(), actor, claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	response.Success(w, http.StatusOK, "Password changed successfully", nil)
}

func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.contextManager.GetClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, h.logger, model.NewError(model.ErrInvalidCredential, "authentication required"))
		return
	}

	me, err := h.userService.GetMe(r.Context(), claims.UserID)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.Success(w, http.StatusOK, "", map[string]any{
		"user":    toUserResponse(me.User),
		"profile": toProfilePtr(me.Profile),
	})
}

func (h *Auth) writeSession(w http.ResponseWriter, status int, message string, s service.Session) {
	h.cookies.SetSessionCookies(w, s.Tokens.AccessToken, s.Tokens.RefreshToken)
	response.Success(w, status, message, sessionResponse{
		User:         toUserResponse(s.User),
		Profile:      toProfilePtr(s.Profile),
		AccessToken:  s.Tokens.AccessToken,
		RefreshToken: s.Tokens.RefreshToken,
	})
}
