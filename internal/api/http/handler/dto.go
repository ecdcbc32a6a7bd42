package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/alumni-server/internal/model"
	"github.com/dtroode/alumni-server/internal/service"
)

type userResponse struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Role          string    `json:"role"`
	AuthMethod    string    `json:"authMethod"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toUserResponse(u model.User) userResponse {
	return userResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          string(u.Role),
		AuthMethod:    string(u.AuthMethod),
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

type profileResponse struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"userId"`
	FullName    string    `json:"fullName"`
	Department  string    `json:"department"`
	ClassYear   int       `json:"classYear"`
	StudentID   *string   `json:"studentId"`
	City        *string   `json:"city"`
	Industry    *string   `json:"industry"`
	JobLevel    *string   `json:"jobLevel"`
	IncomeRange *string   `json:"incomeRange"`
	JobTitle    *string   `json:"jobTitle"`
	CompanyName *string   `json:"companyName"`
	LinkedInURL *string   `json:"linkedInUrl"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toProfileResponse(p model.AlumniProfile) profileResponse {
	return profileResponse{
		ID:          p.ID,
		UserID:      p.UserID,
		FullName:    p.FullName,
		Department:  string(p.Department),
		ClassYear:   p.ClassYear,
		StudentID:   p.StudentID,
		City:        p.City,
		Industry:    p.Industry,
		JobLevel:    p.JobLevel,
		IncomeRange: p.IncomeRange,
		JobTitle:    p.JobTitle,
		CompanyName: p.CompanyName,
		LinkedInURL: p.LinkedInURL,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toProfilePtr(p *model.AlumniProfile) *profileResponse {
	if p == nil {
		return nil
	}
	r := toProfileResponse(*p)
	return &r
}

type sessionResponse struct {
	User         userResponse     `json:"user"`
	Profile      *profileResponse `json:"profile,omitempty"`
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
}

type userDetailResponse struct {
	userResponse
	Profile   *profileResponse `json:"profile"`
	DeletedAt *time.Time       `json:"deletedAt,omitempty"`
}

func toUserDetail(u model.UserWithProfile) userDetailResponse {
	return userDetailResponse{
		userResponse: toUserResponse(u.User),
		Profile:      toProfilePtr(u.Profile),
		DeletedAt:    u.User.DeletedAt,
	}
}

type paginationResponse struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type userPageResponse struct {
	Users      []userDetailResponse `json:"users"`
	Pagination paginationResponse   `json:"pagination"`
}

func toUserPage(p service.UserPage) userPageResponse {
	users := make([]userDetailResponse, 0, len(p.Users))
	for _, u := range p.Users {
		users = append(users, toUserDetail(u))
	}
	return userPageResponse{
		Users: users,
		Pagination: paginationResponse{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      p.Total,
			TotalPages: p.TotalPages,
		},
	}
}
