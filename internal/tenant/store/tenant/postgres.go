package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"tenancy/internal/sentinel"
	"tenancy/internal/tenant/models"
	id "tenancy/pkg/domain"
	"tenancy/pkg/platform/tx"
)

// PostgresStore persists tenants and their members in PostgreSQL.
// Calls join the transaction carried by ctx, if any.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed tenant store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateTenant inserts the tenant row and any members it carries in one
// transaction, joining the caller's when ctx has one. A failed member insert
// leaves no tenant behind.
func (s *PostgresStore) CreateTenant(ctx context.Context, t *models.Tenant) error {
	if t == nil {
		return fmt.Errorf("tenant is required")
	}
	return tx.NewPostgresRunner(s.db).RunInTx(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO tenants (normalized_name, name, created_at, updated_at)
			VALUES ($1, $2, $3, $4)
		`
		_, err := tx.ExecutorFor(ctx, s.db).ExecContext(ctx, query,
			t.NormalizedName,
			t.Name,
			t.CreatedAt,
			t.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("tenant name must be unique: %w", sentinel.ErrAlreadyUsed)
			}
			return fmt.Errorf("create tenant: %w", err)
		}
		for _, m := range t.Members {
			if err := s.AppendMember(ctx, models.AppendCondition{TenantName: t.NormalizedName}, m); err != nil {
				return err
			}
		}
		return nil
	})
}

// MemberExists reports whether any member matches filter. Empty predicates
// are skipped and an empty filter matches nothing.
func (s *PostgresStore) MemberExists(ctx context.Context, filter models.MemberFilter) (bool, error) {
	if filter.IsEmpty() {
		return false, nil
	}
	query := `
		SELECT EXISTS (
			SELECT 1 FROM tenant_members
			WHERE ($1 = '' OR tenant_name = $1)
			  AND (($2 <> '' AND user_id = $2) OR ($3 <> '' AND email = $3))
		)
	`
	var exists bool
	err := tx.ExecutorFor(ctx, s.db).QueryRowContext(ctx, query,
		filter.TenantName,
		filter.UserID.String(),
		filter.Email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check member exists: %w", err)
	}
	return exists, nil
}

// FindByNormalizedName loads a tenant. Unless lazy, members are loaded in
// insertion order.
func (s *PostgresStore) FindByNormalizedName(ctx context.Context, name string, lazy bool) (*models.Tenant, error) {
	exec := tx.ExecutorFor(ctx, s.db)
	query := `
		SELECT normalized_name, name, created_at, updated_at
		FROM tenants
		WHERE normalized_name = $1
	`
	var t models.Tenant
	err := exec.QueryRowContext(ctx, query, name).Scan(&t.NormalizedName, &t.Name, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find tenant by name: %w", err)
	}
	if lazy {
		return &t, nil
	}

	members, err := s.listMembers(ctx, exec, name)
	if err != nil {
		return nil, err
	}
	t.Members = members
	return &t, nil
}

// AppendMember inserts member for the tenant named by cond. The unique
// indexes on (tenant_name, email) and (tenant_name, user_id) enforce
// uniqueness atomically.
func (s *PostgresStore) AppendMember(ctx context.Context, cond models.AppendCondition, member *models.TenantMember) error {
	if member == nil {
		return fmt.Errorf("member is required")
	}
	exec := tx.ExecutorFor(ctx, s.db)
	query := `
		INSERT INTO tenant_members (id, tenant_name, user_id, email, role, status, invited_by, created_at, updated_at)
		SELECT $1, normalized_name, $3, $4, $5, $6, $7, $8, $9
		FROM tenants
		WHERE normalized_name = $2
	`
	res, err := exec.ExecContext(ctx, query,
		uuid.UUID(member.ID),
		cond.TenantName,
		member.UserID.String(),
		member.Email,
		string(member.Role),
		string(member.Status),
		member.InvitedBy.String(),
		member.CreatedAt,
		member.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("member must be unique within tenant: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("append member: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("append member rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}

	_, err = exec.ExecContext(ctx, `UPDATE tenants SET updated_at = $2 WHERE normalized_name = $1`,
		cond.TenantName, member.UpdatedAt)
	if err != nil {
		return fmt.Errorf("touch tenant: %w", err)
	}
	return nil
}

func (s *PostgresStore) listMembers(ctx context.Context, exec tx.Executor, tenantName string) ([]*models.TenantMember, error) {
	query := `
		SELECT id, user_id, email, role, status, invited_by, created_at, updated_at
		FROM tenant_members
		WHERE tenant_name = $1
		ORDER BY seq
	`
	rows, err := exec.QueryContext(ctx, query, tenantName)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := make([]*models.TenantMember, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

type memberRow interface {
	Scan(dest ...any) error
}

func scanMember(row memberRow) (*models.TenantMember, error) {
	var m models.TenantMember
	var memberID uuid.UUID
	var userID, role, status, invitedBy string
	if err := row.Scan(&memberID, &userID, &m.Email, &role, &status, &invitedBy, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.ID = id.MemberID(memberID)
	m.UserID = id.UserID(userID)
	m.Role = models.Role(role)
	m.Status = models.InvitationStatus(status)
	m.InvitedBy = id.UserID(invitedBy)
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
	return &m, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
