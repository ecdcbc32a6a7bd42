package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dtroode/alumni-server/internal/model"
)

func qualify(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// listFilter renders the WHERE clause of q with positional arguments.
func listFilter(q model.UserQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if q.Deleted {
		conds = append(conds, "u.deleted_at IS NOT NULL")
	} else {
		conds = append(conds, "u.deleted_at IS NULL")
	}
	if q.Search != "" {
		p := arg("%" + q.Search + "%")
		conds = append(conds, "(u.name ILIKE "+p+" OR u.email ILIKE "+p+" OR p.full_name ILIKE "+p+")")
	}
	if q.Department != "" {
		conds = append(conds, "p.department = "+arg(string(q.Department)))
	}
	if q.ClassYear != 0 {
		conds = append(conds, "p.class_year = "+arg(q.ClassYear))
	}
	return strings.Join(conds, " AND "), args
}

func (r *UserRepository) List(ctx context.Context, q model.UserQuery) ([]model.UserWithProfile, int, error) {
	where, args := listFilter(q)
	from := ` FROM users u LEFT JOIN alumni_profiles p ON p.user_id = u.id WHERE ` + where

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+from, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	order := "u.created_at DESC"
	if q.Deleted {
		order = "u.deleted_at DESC"
	}
	n := len(args)
	query := `SELECT ` + qualify("u", userColumns) + `, ` + qualify("p", profileColumns) + from +
		` ORDER BY ` + order + ` LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)

	rows, err := r.db.QueryContext(ctx, query, append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	out := make([]model.UserWithProfile, 0, q.Limit)
	for rows.Next() {
		item, err := scanUserWithProfile(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return out, total, nil
}

// joinedRow hands the user half of a joined row to scanUser and keeps the
// profile half for later.
type joinedRow struct {
	row     rowScanner
	profile []any
}

func (j joinedRow) Scan(dest ...any) error {
	return j.row.Scan(append(dest, j.profile...)...)
}

type nullProfile struct {
	id, userID                          uuid.NullUUID
	fullName, department                sql.NullString
	classYear                           sql.NullInt64
	studentID, city, industry, jobLevel sql.NullString
	incomeRange, jobTitle, company      sql.NullString
	linkedIn                            sql.NullString
	createdAt, updatedAt                sql.NullTime
}

func (n *nullProfile) dest() []any {
	return []any{
		&n.id, &n.userID, &n.fullName, &n.department, &n.classYear, &n.studentID, &n.city, &n.industry,
		&n.jobLevel, &n.incomeRange, &n.jobTitle, &n.company, &n.linkedIn, &n.createdAt, &n.updatedAt,
	}
}

func (n *nullProfile) profile() *model.AlumniProfile {
	if !n.id.Valid {
		return nil
	}
	return &model.AlumniProfile{
		ID:          n.id.UUID,
		UserID:      n.userID.UUID,
		FullName:    n.fullName.String,
		Department:  model.Department(n.department.String),
		ClassYear:   int(n.classYear.Int64),
		StudentID:   nullableString(n.studentID),
		City:        nullableString(n.city),
		Industry:    nullableString(n.industry),
		JobLevel:    nullableString(n.jobLevel),
		IncomeRange: nullableString(n.incomeRange),
		JobTitle:    nullableString(n.jobTitle),
		CompanyName: nullableString(n.company),
		LinkedInURL: nullableString(n.linkedIn),
		CreatedAt:   n.createdAt.Time,
		UpdatedAt:   n.updatedAt.Time,
	}
}

func scanUserWithProfile(row rowScanner) (model.UserWithProfile, error) {
	var p nullProfile
	user, err := scanUser(joinedRow{row: row, profile: p.dest()})
	if err != nil {
		return model.UserWithProfile{}, err
	}
	return model.UserWithProfile{User: user, Profile: p.profile()}, nil
}
