package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dtroode/alumni-server/internal/api/http/response"
	"github.com/dtroode/alumni-server/internal/logger"
	"github.com/dtroode/alumni-server/internal/model"
	"github.com/dtroode/alumni-server/internal/service"
)

// UserService defines account and profile management operations.
type UserService interface {
	GetMe(ctx context.Context, userID uuid.UUID) (service.Me, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (model.AlumniProfile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, patch model.ProfilePatch) (model.AlumniProfile, error)
	UpdateRole(ctx context.Context, actorID, userID uuid.UUID, role model.Role) (model.User, error)
	SoftDelete(ctx context.Context, actorID, userID uuid.UUID) error
	Restore(ctx context.Context, userID uuid.UUID) error
	GetByID(ctx context.Context, userID uuid.UUID) (service.Me, error)
	List(ctx context.Context, q model.UserQuery) (service.UserPage, error)
	ListDeleted(ctx context.Context, page, limit int) (service.UserPage, error)
	AdminCreate(ctx context.Context, actorID uuid.UUID, in service.AdminCreateInput) (model.User, model.AlumniProfile, error)
}

// Users handles the /users endpoints.
type Users struct {
	userService    UserService
	authService    AuthService
	contextManager model.ContextManager
	logger         *logger.Logger
	validator      *Validator
	now            func() time.Time
}

// NewUsers creates a new Users handler.
func NewUsers(userService UserService, authService AuthService, contextManager model.ContextManager, logger *logger.Logger) *Users {
	h := &Users{
		userService:    userService,
		authService:    authService,
		contextManager: contextManager,
		logger:         logger,
		now:            time.Now,
	}
	h.validator = NewValidator(func() time.Time { return h.now() })
	return h
}

func (h *Users) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}
	profile, err := h.userService.GetProfile(r.Context(), claims.UserID)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	response.Success(w, http.StatusOK, "", toProfileResponse(profile))
}

type profilePatchRequest struct {
	FullName    *string `json:"fullName" validate:"omitnil,min=1,max=100"`
	StudentID   *string `json:"studentId" validate:"omitnil,number,max=13"`
	City        *string `json:"city" validate:"omitnil,max=100"`
	Industry    *string `json:"industry" validate:"omitnil,max=100"`
	JobLevel    *string `json:"jobLevel" validate:"omitnil,max=100"`
	IncomeRange *string `json:"incomeRange" validate:"omitnil,max=100"`
	JobTitle    *string `json:"jobTitle" validate:"omitnil,max=100"`
	CompanyName *string `json:"companyName" validate:"omitnil,max=100"`
	LinkedInURL *string `json:"linkedInUrl" validate:"omitnil,url"`
}

func (h *Users) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	var req profilePatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	req.StudentID = trimOptional(req.StudentID)
	req.LinkedInURL = trimOptional(req.LinkedInURL)
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		req.FullName = &name
	}
	if err := h.validator.Check(&req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	profile, err := h.userService.UpdateProfile(r.Context(), claims.UserID, model.ProfilePatch{
		FullName:    req.FullName,
		StudentID:   req.StudentID,
		City:        req.City,
		Industry:    req.Industry,
		JobLevel:    req.JobLevel,
		IncomeRange: req.IncomeRange,
		JobTitle:    req.JobTitle,
		CompanyName: req.CompanyName,
		LinkedInURL: req.LinkedInURL,
	})
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	response.Success(w, http.StatusOK, "Profile updated successfully", toProfileResponse(profile))
}

type roleRequest struct {
	Role string `json:"role"`
}

func (h *Users) UpdateRole(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req roleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	user, err := h.userService.UpdateRole(r.Context(), claims.UserID, userID, model.Role(req.Role))
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	response.Success(w, http.StatusOK, "Role updated successfully", toUserResponse(user))
}

type forcePasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"min=8,bcryptmax,strongpassword"`
}

// SetPassword lets an administrator replace another user's password.
func (h *Users) SetPassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req forcePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	if err := h.validator.Check(&req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	actor := service.Actor{ID: claims.UserID, Role: claims.Role}
	if err := h.authService.ChangePassword(r.Context(), actor, userID, "", req.NewPassword); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	response.Success(w, http.StatusOK, "Password updated successfully", nil)
}

func (h *Users) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.userService.SoftDelete(r.Context(), claims.UserID, userID); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	response.Success(w, http.StatusOK, "User deleted successfully", nil)
}

func (h *Users) Restore(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.userService.Restore(r.Context(), userID); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	response.Success(w, http.StatusOK, "User restored successfully", nil)
}

// Get returns any active account with its profile to an authenticated caller.
func (h *Users) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	found, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	response.Success(w, http.StatusOK, "", toUserDetail(model.UserWithProfile{User: found.User, Profile: found.Profile}))
}

type listQuery struct {
	Page       string `json:"page" validate:"omitempty,number"`
	Limit      string `json:"limit" validate:"omitempty,number"`
	Search     string `json:"search" validate:"max=100"`
	Department string `json:"department" validate:"omitempty,oneof=TEP TPN TIN"`
	ClassYear  string `json:"classYear" validate:"omitempty,number"`
}

func (h *Users) parseListQuery(w http.ResponseWriter, r *http.Request) (model.UserQuery, bool) {
	values := r.URL.Query()
	q := listQuery{
		Page:       strings.TrimSpace(values.Get("page")),
		Limit:      strings.TrimSpace(values.Get("limit")),
		Search:     strings.TrimSpace(values.Get("search")),
		Department: normalizeDepartment(values.Get("department")),
		ClassYear:  strings.TrimSpace(values.Get("classYear")),
	}
	if err := h.validator.Check(&q); err != nil {
		response.Error(w, r, h.logger, err)
		return model.UserQuery{}, false
	}

	atoi := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	return model.UserQuery{
		Page:       atoi(q.Page),
		Limit:      atoi(q.Limit),
		Search:     q.Search,
		Department: model.Department(q.Department),
		ClassYear:  atoi(q.ClassYear),
	}, true
}

// List returns a filtered page of active accounts.
func (h *Users) List(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseListQuery(w, r)
	if !ok {
		return
	}

	page, err := h.userService.List(r.Context(), q)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	response.Success(w, http.StatusOK, "", toUserPage(page))
}

// ListDeleted returns a page of soft-deleted accounts.
func (h *Users) ListDeleted(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseListQuery(w, r)
	if !ok {
		return
	}

	page, err := h.userService.ListDeleted(r.Context(), q.Page, q.Limit)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	response.Success(w, http.StatusOK, "", toUserPage(page))
}

type adminCreateRequest struct {
	Email      string  `json:"email" validate:"required,email"`
	Name       string  `json:"name" validate:"required,max=100"`
	FullName   string  `json:"fullName" validate:"max=100"`
	Password   string  `json:"password" validate:"omitempty,min=8,bcryptmax,strongpassword"`
	Role       string  `json:"role" validate:"omitempty,oneof=USER ADMIN"`
	Department string  `json:"department" validate:"oneof=TEP TPN TIN"`
	ClassYear  *int    `json:"classYear" validate:"required,min=1960,notfuture"`
	StudentID  *string `json:"studentId" validate:"omitnil,number,max=13"`
}

// Create lets an administrator add a verified account with its profile.
func (h *Users) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	var req adminCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.FullName = strings.TrimSpace(req.FullName)
	req.Role = strings.ToUpper(strings.TrimSpace(req.Role))
	req.Department = normalizeDepartment(req.Department)
	req.StudentID = trimOptional(req.StudentID)
	if err := h.validator.Check(&req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	user, profile, err := h.userService.AdminCreate(r.Context(), claims.UserID, service.AdminCreateInput{
		Email:      req.Email,
		Name:       req.Name,
		FullName:   req.FullName,
		Password:   req.Password,
		Role:       model.Role(req.Role),
		Department: model.Department(req.Department),
		ClassYear:  *req.ClassYear,
		StudentID:  req.StudentID,
	})
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	response.Success(w, http.StatusCreated, "User created successfully", map[string]any{
		"user":    toUserResponse(user),
		"profile": toProfileResponse(profile),
	})
}

func (h *Users) claims(w http.ResponseWriter, r *http.Request) (model.SessionClaims, bool) {
	claims, ok := h.contextManager.GetClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, h.logger, model.NewError(model.ErrInvalidCredential, "authentication required"))
	}
	return claims, ok
}

func (h *Users) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, h.logger, model.NewValidationError(model.FieldError{Field: "id", Message: "id must be a valid UUID"}))
		return uuid.Nil, false
	}
	return id, true
}
