package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kitabuhq/kitabu_backend/internal/apperrors"
	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
	portsrepo "github.com/kitabuhq/kitabu_backend/internal/core/ports/repositories"
	"github.com/kitabuhq/kitabu_backend/internal/models"
	"github.com/kitabuhq/kitabu_backend/internal/utils/mapping"
)

const organizationColumns = `organization_id, name, base_currency_code, is_active, created_at, created_by, last_updated_at, last_updated_by`

type PgxOrganizationRepository struct {
	BaseRepository
}

// newPgxOrganizationRepository creates a new repository for organization and
// membership data.
func newPgxOrganizationRepository(pool *pgxpool.Pool) portsrepo.OrganizationRepositoryFacade {
	return &PgxOrganizationRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.OrganizationRepositoryFacade = (*PgxOrganizationRepository)(nil)

func scanOrganization(row pgx.Row) (*domain.Organization, error) {
	var m models.Organization
	err := row.Scan(
		&m.OrganizationID,
		&m.Name,
		&m.BaseCurrencyCode,
		&m.IsActive,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	o := mapping.ToDomainOrganization(m)
	return &o, nil
}

// SaveOrganization inserts the organization and the creator's OWNER
// membership atomically.
func (r *PgxOrganizationRepository) SaveOrganization(ctx context.Context, organization domain.Organization, creatorMembership domain.UserOrganization) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelOrganization(organization)
	orgQuery := `
		INSERT INTO organizations (` + organizationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	if _, err := tx.Exec(ctx, orgQuery,
		m.OrganizationID,
		m.Name,
		m.BaseCurrencyCode,
		m.IsActive,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	); err != nil {
		return apperrors.NewAppError(500, "failed to save organization "+m.OrganizationID, err)
	}

	if err := insertMembership(ctx, tx, mapping.ToModelUserOrganization(creatorMembership)); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func insertMembership(ctx context.Context, tx pgx.Tx, m models.UserOrganization) error {
	query := `
		INSERT INTO user_organizations (user_id, organization_id, role, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := tx.Exec(ctx, query,
		m.UserID,
		m.OrganizationID,
		m.Role,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: user %s is already a member of organization %s", apperrors.ErrDuplicate, m.UserID, m.OrganizationID)
		}
		return apperrors.NewAppError(500, "failed to save membership", err)
	}
	return nil
}

func (r *PgxOrganizationRepository) SaveMembership(ctx context.Context, membership domain.UserOrganization) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := insertMembership(ctx, tx, mapping.ToModelUserOrganization(membership)); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func (r *PgxOrganizationRepository) FindOrganizationByID(ctx context.Context, organizationID string) (*domain.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE organization_id = $1;`
	o, err := scanOrganization(r.Pool.QueryRow(ctx, query, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find organization by ID "+organizationID, err)
	}
	return o, nil
}

func (r *PgxOrganizationRepository) FindMembership(ctx context.Context, userID string, organizationID string) (*domain.UserOrganization, error) {
	query := `
		SELECT user_id, organization_id, role, created_at, created_by, last_updated_at, last_updated_by
		FROM user_organizations
		WHERE user_id = $1 AND organization_id = $2;
	`
	var m models.UserOrganization
	err := r.Pool.QueryRow(ctx, query, userID, organizationID).Scan(
		&m.UserID,
		&m.OrganizationID,
		&m.Role,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find membership", err)
	}
	membership := mapping.ToDomainUserOrganization(m)
	return &membership, nil
}

func (r *PgxOrganizationRepository) ListUserOrganizations(ctx context.Context, userID string) ([]domain.Organization, error) {
	query := `
		SELECT ` + qualifiedOrganizationColumns() + `
		FROM organizations o
		JOIN user_organizations uo ON uo.organization_id = o.organization_id
		WHERE uo.user_id = $1
		ORDER BY o.name;
	`
	rows, err := r.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list organizations for user "+userID, err)
	}
	defer rows.Close()

	orgs := make([]domain.Organization, 0)
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan organization row", err)
		}
		orgs = append(orgs, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating organization rows", err)
	}
	return orgs, nil
}

func qualifiedOrganizationColumns() string {
	return `o.organization_id, o.name, o.base_currency_code, o.is_active, o.created_at, o.created_by, o.last_updated_at, o.last_updated_by`
}
