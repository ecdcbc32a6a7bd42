package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/alumni-server/internal/model"
)

var _ model.ProfileStore = (*ProfileRepository)(nil)

const profileColumns = `id, user_id, full_name, department, class_year, student_id, city, industry,
	job_level, income_range, job_title, company_name, linkedin_url, created_at, updated_at`

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{
		db: db,
	}
}

func scanProfile(row rowScanner) (model.AlumniProfile, error) {
	var (
		p                                   model.AlumniProfile
		department                          string
		studentID, city, industry, jobLevel sql.NullString
		incomeRange, jobTitle, company      sql.NullString
		linkedIn                            sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.UserID, &p.FullName, &department, &p.ClassYear, &studentID, &city, &industry,
		&jobLevel, &incomeRange, &jobTitle, &company, &linkedIn, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return model.AlumniProfile{}, err
	}

	p.Department = model.Department(department)
	p.StudentID = nullableString(studentID)
	p.City = nullableString(city)
	p.Industry = nullableString(industry)
	p.JobLevel = nullableString(jobLevel)
	p.IncomeRange = nullableString(incomeRange)
	p.JobTitle = nullableString(jobTitle)
	p.CompanyName = nullableString(company)
	p.LinkedInURL = nullableString(linkedIn)
	return p, nil
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (model.AlumniProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM alumni_profiles WHERE user_id = $1`

	profile, err := scanProfile(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.AlumniProfile{}, model.ErrNotFound
		}
		return model.AlumniProfile{}, fmt.Errorf("failed to get profile by user id: %w", err)
	}

	return profile, nil
}

func (r *ProfileRepository) Update(ctx context.Context, p model.AlumniProfile) (model.AlumniProfile, error) {
	query := `UPDATE alumni_profiles SET full_name = $2, student_id = $3, city = $4, industry = $5, job_level = $6,
			  income_range = $7, job_title = $8, company_name = $9, linkedin_url = $10, updated_at = NOW()
			  WHERE user_id = $1
			  RETURNING ` + profileColumns

	profile, err := scanProfile(r.db.QueryRowContext(ctx, query,
		p.UserID, p.FullName, toNullString(p.StudentID), toNullString(p.City), toNullString(p.Industry),
		toNullString(p.JobLevel), toNullString(p.IncomeRange), toNullString(p.JobTitle),
		toNullString(p.CompanyName), toNullString(p.LinkedInURL),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.AlumniProfile{}, model.ErrNotFound
		}
		return model.AlumniProfile{}, fmt.Errorf("failed to update profile: %w", err)
	}

	return profile, nil
}
