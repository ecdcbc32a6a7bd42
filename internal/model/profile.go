package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Department is one of the fixed institutional department codes.
type Department string

const (
	DepartmentTEP Department = "TEP"
	DepartmentTPN Department = "TPN"
	DepartmentTIN Department = "TIN"
)

// Valid reports whether d is a known department code.
func (d Department) Valid() bool {
	switch d {
	case DepartmentTEP, DepartmentTPN, DepartmentTIN:
		return true
	}
	return false
}

// MinClassYear is the earliest accepted class year.
const MinClassYear = 1960

// ProfileStore defines persistence operations for alumni profiles.
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (AlumniProfile, error)
	Update(ctx context.Context, profile AlumniProfile) (AlumniProfile, error)
}

// AlumniProfile is the academic and career profile owned 1:1 by a user.
type AlumniProfile struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	FullName    string
	Department  Department
	ClassYear   int
	StudentID   *string
	City        *string
	Industry    *string
	JobLevel    *string
	IncomeRange *string
	JobTitle    *string
	CompanyName *string
	LinkedInURL *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProfilePatch lists the optional enrichment attributes a user may change.
// Nil fields are left untouched.
type ProfilePatch struct {
	FullName    *string
	StudentID   *string
	City        *string
	Industry    *string
	JobLevel    *string
	IncomeRange *string
	JobTitle    *string
	CompanyName *string
	LinkedInURL *string
}

// Apply copies the non-nil fields of p onto profile.
func (p ProfilePatch) Apply(profile AlumniProfile) AlumniProfile {
	if p.FullName != nil {
		profile.FullName = *p.FullName
	}
	setIfPresent(&profile.StudentID, p.StudentID)
	setIfPresent(&profile.City, p.City)
	setIfPresent(&profile.Industry, p.Industry)
	setIfPresent(&profile.JobLevel, p.JobLevel)
	setIfPresent(&profile.IncomeRange, p.IncomeRange)
	setIfPresent(&profile.JobTitle, p.JobTitle)
	setIfPresent(&profile.CompanyName, p.CompanyName)
	setIfPresent(&profile.LinkedInURL, p.LinkedInURL)
	return profile
}

func setIfPresent(dst **string, v *string) {
	if v == nil {
		return
	}
	value := *v
	*dst = &value
}
