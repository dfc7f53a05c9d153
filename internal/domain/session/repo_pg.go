package session

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

const sessionCols = `id, client_id, therapist_id, session_date, status, mood_rating,
	progress_rating, duration_minutes, note, created_at, updated_at`

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.ClientID, &s.TherapistID, &s.SessionDate, &s.Status,
		&s.MoodRating, &s.ProgressRating, &s.DurationMinutes, &s.Note,
		&s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *repoPG) Create(ctx context.Context, s *Session) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO session (id, client_id, therapist_id, session_date, status,
			mood_rating, progress_rating, duration_minutes, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		s.ID, s.ClientID, s.TherapistID, s.SessionDate, s.Status,
		s.MoodRating, s.ProgressRating, s.DurationMinutes, s.Note)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	return scanSession(r.conn(ctx).QueryRow(ctx,
		`SELECT `+sessionCols+` FROM session WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, s *Session) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE session SET session_date=$2, status=$3, mood_rating=$4,
			progress_rating=$5, duration_minutes=$6, note=$7, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.SessionDate, s.Status, s.MoodRating,
		s.ProgressRating, s.DurationMinutes, s.Note)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM session WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Session, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM session WHERE client_id = $1`, clientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+sessionCols+` FROM session WHERE client_id = $1
		 ORDER BY session_date DESC LIMIT $2 OFFSET $3`,
		clientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

// ListByClients loads the full session history for every client in clientIDs
// in a single query, grouped by client. Used by the at-risk caseload read.
func (r *repoPG) ListByClients(ctx context.Context, clientIDs []uuid.UUID) (map[uuid.UUID][]Session, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+sessionCols+` FROM session WHERE client_id = ANY($1)
		 ORDER BY client_id, session_date DESC`, clientIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grouped := make(map[uuid.UUID][]Session, len(clientIDs))
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		grouped[s.ClientID] = append(grouped[s.ClientID], *s)
	}
	return grouped, rows.Err()
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Session, int, error) {
	query := `SELECT ` + sessionCols + ` FROM session WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM session WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["client"]; ok {
		query += fmt.Sprintf(` AND client_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND client_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
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
	if p, ok := params["since"]; ok {
		query += fmt.Sprintf(` AND session_date >= $%d`, idx)
		countQuery += fmt.Sprintf(` AND session_date >= $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY session_date DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}
