package org

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/practicehub/practicehub/internal/platform/auth"
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

const orgCols = `id, name, plan, owner_id, created_at, updated_at`

func scanOrg(row pgx.Row) (*Organization, error) {
	var o Organization
	err := row.Scan(&o.ID, &o.Name, &o.Plan, &o.OwnerID, &o.CreatedAt, &o.UpdatedAt)
	return &o, err
}

func (r *repoPG) Create(ctx context.Context, o *Organization) error {
	o.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO organization (id, name, plan, owner_id)
		VALUES ($1,$2,$3,$4)`,
		o.ID, o.Name, o.Plan, o.OwnerID)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Organization, error) {
	return scanOrg(r.conn(ctx).QueryRow(ctx, `SELECT `+orgCols+` FROM organization WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, o *Organization) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE organization SET name=$2, plan=$3, owner_id=$4, updated_at=NOW()
		WHERE id = $1`,
		o.ID, o.Name, o.Plan, o.OwnerID)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM organization WHERE id = $1`, id)
	return err
}

const memberCols = `id, org_id, user_id, role, supervisor_id, joined_at`

func scanMember(row pgx.Row) (*Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.OrgID, &m.UserID, &m.Role, &m.SupervisorID, &m.JoinedAt)
	return &m, err
}

func (r *repoPG) AddMember(ctx context.Context, m *Member) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO org_member (id, org_id, user_id, role, supervisor_id)
		VALUES ($1,$2,$3,$4,$5)`,
		m.ID, m.OrgID, m.UserID, m.Role, m.SupervisorID)
	return err
}

func (r *repoPG) GetMemberByUser(ctx context.Context, userID uuid.UUID) (*Member, error) {
	return scanMember(r.conn(ctx).QueryRow(ctx, `SELECT `+memberCols+` FROM org_member WHERE user_id = $1`, userID))
}

func (r *repoPG) ListMembers(ctx context.Context, orgID uuid.UUID) ([]*Member, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+memberCols+` FROM org_member WHERE org_id = $1 ORDER BY joined_at`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, nil
}

func (r *repoPG) UpdateMember(ctx context.Context, m *Member) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE org_member SET role=$2, supervisor_id=$3 WHERE id = $1`,
		m.ID, m.Role, m.SupervisorID)
	return err
}

func (r *repoPG) RemoveMember(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM org_member WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListTherapistIDs(ctx context.Context, orgID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT user_id FROM org_member
		WHERE org_id = $1 AND role = ANY($2)`,
		orgID, []string{auth.RoleOwner, auth.RoleAdmin, auth.RoleSupervisor, auth.RoleTherapist})
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

func (r *repoPG) ListSupervisedIDs(ctx context.Context, supervisorID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT user_id FROM org_member WHERE supervisor_id = $1`, supervisorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIDs(rows)
}

func scanIDs(rows pgx.Rows) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
