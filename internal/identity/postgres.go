package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PGPrimaryStore reads the users table of the application database.
type PGPrimaryStore struct {
	db *sql.DB
}

func NewPGPrimaryStore(db *sql.DB) *PGPrimaryStore {
	return &PGPrimaryStore{db: db}
}

const primaryColumns = `code, name, COALESCE(phone, ''), COALESCE(email, ''), COALESCE(cargo, ''),
	COALESCE(role, ''), COALESCE(user_type, ''), COALESCE(password, '')`

func (s *PGPrimaryStore) FindByCode(ctx context.Context, code string) (Primary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+primaryColumns+`
		FROM users
		WHERE code = $1
	`, code)

	p, err := scanPrimary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Primary{}, ErrNotFound
	}
	if err != nil {
		return Primary{}, fmt.Errorf("query users: %w", err)
	}
	return p, nil
}

// List returns every user ordered by name. Secrets are not selected.
func (s *PGPrimaryStore) List(ctx context.Context, search string, limit, offset int) ([]Primary, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	search = strings.TrimSpace(search)

	rows, err := s.db.QueryContext(ctx, `
		SELECT code, name, COALESCE(phone, ''), COALESCE(email, ''), COALESCE(cargo, ''),
			COALESCE(role, ''), COALESCE(user_type, '')
		FROM users
		WHERE ($1 = '' OR code ILIKE '%' || $1 || '%' OR name ILIKE '%' || $1 || '%')
		ORDER BY name ASC
		LIMIT $2 OFFSET $3
	`, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []Primary
	for rows.Next() {
		var p Primary
		var userType string
		if err := rows.Scan(&p.Code, &p.Name, &p.Phone, &p.Email, &p.Cargo, &p.Role, &userType); err != nil {
			return nil, fmt.Errorf("scan users: %w", err)
		}
		p.UserType = UserType(userType)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

func scanPrimary(row *sql.Row) (Primary, error) {
	var p Primary
	var userType string
	err := row.Scan(&p.Code, &p.Name, &p.Phone, &p.Email, &p.Cargo, &p.Role, &userType, &p.Secret)
	p.UserType = UserType(userType)
	return p, err
}

// PGDirectoryStore reads the employee directory. Only rows whose cost
// center is in costCenters are visible; an empty list disables the filter.
// When an employee has several rows the most recent hire wins.
type PGDirectoryStore struct {
	db          *sql.DB
	costCenters []string
}

// NewPGDirectoryStore copies costCenters. The copy is never nil: pgx sends a
// nil slice as NULL, and a NULL array would filter out every row.
func NewPGDirectoryStore(db *sql.DB, costCenters []string) *PGDirectoryStore {
	return &PGDirectoryStore{db: db, costCenters: append([]string{}, costCenters...)}
}

func (s *PGDirectoryStore) FindEmployee(ctx context.Context, code string) (Directory, error) {
	var (
		d        Directory
		hireDate sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT national_id, full_name, COALESCE(position, ''), COALESCE(cost_center, ''),
			hire_date, COALESCE(email, ''), COALESCE(phone, '')
		FROM employee_directory
		WHERE national_id = $1
		  AND (cardinality($2::text[]) = 0 OR cost_center = ANY($2::text[]))
		ORDER BY hire_date DESC NULLS LAST
		LIMIT 1
	`, code, s.costCenters).Scan(&d.Code, &d.Name, &d.Cargo, &d.CostCenter, &hireDate, &d.Email, &d.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return Directory{}, ErrNotFound
	}
	if err != nil {
		return Directory{}, fmt.Errorf("query employee_directory: %w", err)
	}
	if hireDate.Valid {
		d.HireDate = hireDate.Time.Format(time.DateOnly)
	}
	return d, nil
}
