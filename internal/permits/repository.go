package permits

import (
	"context"
	"database/sql"
	"fmt"

	"permits-platform/pkg/utils"
)

// Repository reads permit requests from both request tables.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// requestUserType mirrors identity.Primary.Type for filers with a users row
// (missing or empty type is "registered"). Filers without one came in
// through the employee directory and are "se_maintenance".
const requestUserType = `CASE WHEN u.code IS NULL THEN 'se_maintenance'
			ELSE COALESCE(NULLIF(u.user_type, ''), 'registered') END`

const requestsUnion = `
	WITH requests AS (
		SELECT p.id, p.code, p.name, 'permiso' AS request_type, COALESCE(p.novelty_type, '') AS novelty_type,
			COALESCE(p.description, '') AS description, p.status, ` + requestUserType + ` AS user_type, p.created_at
		FROM permit_perms p
		LEFT JOIN users u ON u.code = p.code
		UNION ALL
		SELECT p.id, p.code, p.name, 'equipo' AS request_type, COALESCE(p.novelty_type, '') AS novelty_type,
			COALESCE(p.description, '') AS description, p.status, ` + requestUserType + ` AS user_type, p.created_at
		FROM permit_post p
		LEFT JOIN users u ON u.code = p.code
	)`

const requestsWhere = `
	WHERE ($1 = '' OR code = $1)
	  AND ($2 = '' OR user_type = $2)
	  AND ($3 = '' OR status = $3)
	  AND ($4 = '' OR novelty_type = $4)`

// List returns one page and the total count. Both queries run in one
// read-only transaction so the total matches the page.
func (r *Repository) List(ctx context.Context, f Filter, page Page) ([]Request, int, error) {
	page = page.normalized()

	var (
		out   []Request
		total int
	)
	err := utils.WithTx(ctx, r.db, utils.SnapshotRead, func(ctx context.Context, tx *sql.Tx) error {
		args := []any{f.UserCode, f.UserType, f.Status, f.NoveltyType}

		if err := tx.QueryRowContext(ctx, requestsUnion+` SELECT COUNT(*) FROM requests`+requestsWhere, args...).Scan(&total); err != nil {
			return fmt.Errorf("count requests: %w", err)
		}

		rows, err := tx.QueryContext(ctx, requestsUnion+`
			SELECT id, code, name, request_type, novelty_type, description, status, user_type, created_at
			FROM requests`+requestsWhere+`
			ORDER BY created_at DESC
			LIMIT $5 OFFSET $6`, append(args, page.Limit, page.Offset)...)
		if err != nil {
			return fmt.Errorf("list requests: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var req Request
			var kind string
			if err := rows.Scan(&req.ID, &req.Code, &req.Name, &kind, &req.NoveltyType, &req.Description, &req.Status, &req.UserType, &req.CreatedAt); err != nil {
				return fmt.Errorf("scan requests: %w", err)
			}
			req.Kind = Kind(kind)
			out = append(out, req)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
