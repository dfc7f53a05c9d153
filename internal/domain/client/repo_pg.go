package client

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/practicehub/practicehub/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const clientCols = `id, therapist_id, first_name, last_name, email, phone, date_of_birth,
	status, pronouns, note, created_at, updated_at`

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.TherapistID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.DateOfBirth, &c.Status, &c.Pronouns, &c.Note, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *repoPG) Create(ctx context.Context, c *Client) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO client (id, therapist_id, first_name, last_name, email, phone,
			date_of_birth, status, pronouns, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		c.ID, c.TherapistID, c.FirstName, c.LastName, c.Email, c.Phone,
		c.DateOfBirth, c.Status, c.Pronouns, c.Note)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	return scanClient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+clientCols+` FROM client WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, c *Client) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE client SET first_name=$2, last_name=$3, email=$4, phone=$5,
			date_of_birth=$6, status=$7, pronouns=$8, note=$9, updated_at=NOW()
		WHERE id = $1`,
		c.ID, c.FirstName, c.LastName, c.Email, c.Phone,
		c.DateOfBirth, c.Status, c.Pronouns, c.Note)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM client WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListByTherapist(ctx context.Context, therapistID uuid.UUID, limit, offset int) ([]*Client, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM client WHERE therapist_id = $1`, therapistID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+clientCols+` FROM client WHERE therapist_id = $1
		 ORDER BY last_name, first_name LIMIT $2 OFFSET $3`,
		therapistID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

// ListActiveByTherapists returns every active client whose owning therapist is
// in therapistIDs. Used by the at-risk caseload read.
func (r *repoPG) ListActiveByTherapists(ctx context.Context, therapistIDs []uuid.UUID) ([]*Client, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+clientCols+` FROM client
		 WHERE status = 'active' AND therapist_id = ANY($1)
		 ORDER BY last_name, first_name`, therapistIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Client, int, error) {
	query := `SELECT ` + clientCols + ` FROM client WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM client WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["therapist"]; ok {
		query += fmt.Sprintf(` AND therapist_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND therapist_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["status"]; ok {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["name"]; ok {
		query += fmt.Sprintf(` AND (first_name ILIKE $%d OR last_name ILIKE $%d)`, idx, idx)
		countQuery += fmt.Sprintf(` AND (first_name ILIKE $%d OR last_name ILIKE $%d)`, idx, idx)
		args = append(args, "%"+p+"%")
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY last_name, first_name LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func (r *repoPG) CountByTherapist(ctx context.Context, therapistID uuid.UUID) (int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM client WHERE therapist_id = $1 AND status = 'active'`,
		therapistID).Scan(&total)
	return total, err
}
