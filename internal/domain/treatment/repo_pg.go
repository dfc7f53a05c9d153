package treatment

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

// =========== Plan Repository ===========

type planRepoPG struct{ pool *pgxpool.Pool }

func NewPlanRepoPG(pool *pgxpool.Pool) PlanRepository {
	return &planRepoPG{pool: pool}
}

func (r *planRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const planCols = `id, client_id, therapist_id, title, description, status,
	diagnosis, start_date, review_date, created_at, updated_at`

func scanPlan(row pgx.Row) (*Plan, error) {
	var p Plan
	err := row.Scan(&p.ID, &p.ClientID, &p.TherapistID, &p.Title, &p.Description, &p.Status,
		&p.Diagnosis, &p.StartDate, &p.ReviewDate, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *planRepoPG) Create(ctx context.Context, p *Plan) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO treatment_plan (id, client_id, therapist_id, title, description, status,
			diagnosis, start_date, review_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.ClientID, p.TherapistID, p.Title, p.Description, p.Status,
		p.Diagnosis, p.StartDate, p.ReviewDate)
	return err
}

func (r *planRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Plan, error) {
	return scanPlan(r.conn(ctx).QueryRow(ctx, `SELECT `+planCols+` FROM treatment_plan WHERE id = $1`, id))
}

func (r *planRepoPG) Update(ctx context.Context, p *Plan) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE treatment_plan SET title=$2, description=$3, status=$4, diagnosis=$5,
			start_date=$6, review_date=$7, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Title, p.Description, p.Status, p.Diagnosis, p.StartDate, p.ReviewDate)
	return err
}

func (r *planRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM treatment_plan WHERE id = $1`, id)
	return err
}

func (r *planRepoPG) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Plan, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM treatment_plan WHERE client_id = $1`, clientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+planCols+` FROM treatment_plan WHERE client_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, clientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

func (r *planRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Plan, int, error) {
	query := `SELECT ` + planCols + ` FROM treatment_plan WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM treatment_plan WHERE 1=1`
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

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}

// =========== Goal Repository ===========

type goalRepoPG struct{ pool *pgxpool.Pool }

func NewGoalRepoPG(pool *pgxpool.Pool) GoalRepository {
	return &goalRepoPG{pool: pool}
}

func (r *goalRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const goalCols = `id, plan_id, description, status, progress, target_date,
	achieved_at, sort_order, created_at, updated_at`

func scanGoal(row pgx.Row) (*Goal, error) {
	var g Goal
	err := row.Scan(&g.ID, &g.PlanID, &g.Description, &g.Status, &g.Progress, &g.TargetDate,
		&g.AchievedAt, &g.SortOrder, &g.CreatedAt, &g.UpdatedAt)
	return &g, err
}

func (r *goalRepoPG) Create(ctx context.Context, g *Goal) error {
	g.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO treatment_goal (id, plan_id, description, status, progress, target_date, sort_order)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		g.ID, g.PlanID, g.Description, g.Status, g.Progress, g.TargetDate, g.SortOrder)
	return err
}

func (r *goalRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Goal, error) {
	return scanGoal(r.conn(ctx).QueryRow(ctx, `SELECT `+goalCols+` FROM treatment_goal WHERE id = $1`, id))
}

func (r *goalRepoPG) Update(ctx context.Context, g *Goal) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE treatment_goal SET description=$2, status=$3, progress=$4, target_date=$5,
			achieved_at=$6, sort_order=$7, updated_at=NOW()
		WHERE id = $1`,
		g.ID, g.Description, g.Status, g.Progress, g.TargetDate, g.AchievedAt, g.SortOrder)
	return err
}

func (r *goalRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM treatment_goal WHERE id = $1`, id)
	return err
}

func (r *goalRepoPG) ListByPlan(ctx context.Context, planID uuid.UUID) ([]*Goal, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+goalCols+` FROM treatment_goal WHERE plan_id = $1 ORDER BY sort_order, created_at`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, nil
}
