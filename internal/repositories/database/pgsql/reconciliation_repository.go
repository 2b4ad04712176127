package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kitabuhq/kitabu_backend/internal/apperrors"
	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
	portsrepo "github.com/kitabuhq/kitabu_backend/internal/core/ports/repositories"
	"github.com/kitabuhq/kitabu_backend/internal/models"
	"github.com/kitabuhq/kitabu_backend/internal/utils/mapping"
)

const reconciliationColumns = `reconciliation_id, organization_id, bank_account_id, statement_date, statement_balance, opening_balance, status, cleared_entry_ids, cleared_bank_transaction_ids, version, finalized_at, finalized_by, created_at, created_by, last_updated_at, last_updated_by`

type PgxReconciliationRepository struct {
	BaseRepository
}

// newPgxReconciliationRepository creates a new repository for reconciliation
// sessions.
func newPgxReconciliationRepository(pool *pgxpool.Pool) portsrepo.ReconciliationRepositoryWithTx {
	return &PgxReconciliationRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.ReconciliationRepositoryWithTx = (*PgxReconciliationRepository)(nil)

func scanReconciliation(row pgx.Row) (*domain.Reconciliation, error) {
	var m models.Reconciliation
	var finalizedBy *string
	err := row.Scan(
		&m.ReconciliationID,
		&m.OrganizationID,
		&m.BankAccountID,
		&m.StatementDate,
		&m.StatementBalance,
		&m.OpeningBalance,
		&m.Status,
		&m.ClearedEntryIDs,
		&m.ClearedBankTransactionIDs,
		&m.Version,
		&m.FinalizedAt,
		&finalizedBy,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if finalizedBy != nil {
		m.FinalizedBy = *finalizedBy
	}
	if m.ClearedEntryIDs == nil {
		m.ClearedEntryIDs = []string{}
	}
	if m.ClearedBankTransactionIDs == nil {
		m.ClearedBankTransactionIDs = []string{}
	}
	rec := mapping.ToDomainReconciliation(m)
	return &rec, nil
}

func (r *PgxReconciliationRepository) SaveReconciliation(ctx context.Context, reconciliation domain.Reconciliation) error {
	m := mapping.ToModelReconciliation(reconciliation)
	query := `
		INSERT INTO reconciliations (` + reconciliationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	var finalizedBy *string
	if m.FinalizedBy != "" {
		finalizedBy = &m.FinalizedBy
	}
	_, err := r.Pool.Exec(ctx, query,
		m.ReconciliationID,
		m.OrganizationID,
		m.BankAccountID,
		m.StatementDate,
		m.StatementBalance,
		m.OpeningBalance,
		m.Status,
		m.ClearedEntryIDs,
		m.ClearedBankTransactionIDs,
		m.Version,
		m.FinalizedAt,
		finalizedBy,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Partial unique index: one IN_PROGRESS session per bank account.
			return fmt.Errorf("%w: bank account %s already has an open reconciliation", apperrors.ErrDuplicate, m.BankAccountID)
		}
		return apperrors.NewAppError(500, "failed to save reconciliation "+m.ReconciliationID, err)
	}
	return nil
}

func (r *PgxReconciliationRepository) FindReconciliationByID(ctx context.Context, reconciliationID string) (*domain.Reconciliation, error) {
	query := `SELECT ` + reconciliationColumns + ` FROM reconciliations WHERE reconciliation_id = $1;`
	rec, err := scanReconciliation(r.Pool.QueryRow(ctx, query, reconciliationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find reconciliation by ID "+reconciliationID, err)
	}
	return rec, nil
}

func (r *PgxReconciliationRepository) FindOpenByBankAccount(ctx context.Context, bankAccountID string) (*domain.Reconciliation, error) {
	query := `SELECT ` + reconciliationColumns + ` FROM reconciliations WHERE bank_account_id = $1 AND status = $2;`
	rec, err := scanReconciliation(r.Pool.QueryRow(ctx, query, bankAccountID, models.ReconciliationInProgress))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find open reconciliation for bank account "+bankAccountID, err)
	}
	return rec, nil
}

func (r *PgxReconciliationRepository) ListReconciliationsByBankAccount(ctx context.Context, bankAccountID string, limit int) ([]domain.Reconciliation, error) {
	query := `
		SELECT ` + reconciliationColumns + `
		FROM reconciliations
		WHERE bank_account_id = $1
		ORDER BY statement_date DESC, created_at DESC
		LIMIT $2;
	`
	rows, err := r.Pool.Query(ctx, query, bankAccountID, limit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list reconciliations for bank account "+bankAccountID, err)
	}
	defer rows.Close()

	sessions := make([]domain.Reconciliation, 0, limit)
	for rows.Next() {
		rec, err := scanReconciliation(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan reconciliation row", err)
		}
		sessions = append(sessions, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating reconciliation rows", err)
	}
	return sessions, nil
}

// FindLockedEntryIDs collects the book-side ids cleared by any finalized
// session of the bank account. Those entries are permanently locked.
func (r *PgxReconciliationRepository) FindLockedEntryIDs(ctx context.Context, bankAccountID string) (map[string]struct{}, error) {
	query := `
		SELECT unnest(cleared_entry_ids)
		FROM reconciliations
		WHERE bank_account_id = $1 AND status = $2;
	`
	rows, err := r.Pool.Query(ctx, query, bankAccountID, models.ReconciliationFinalized)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query locked entry ids for bank account "+bankAccountID, err)
	}
	defer rows.Close()

	locked := make(map[string]struct{})
	for rows.Next() {
		var entryID string
		if err := rows.Scan(&entryID); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan locked entry id", err)
		}
		locked[entryID] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating locked entry ids", err)
	}
	return locked, nil
}

func (r *PgxReconciliationRepository) UpdateClearedSets(ctx context.Context, reconciliationID string, clearedEntryIDs []string, clearedBankTransactionIDs []string, version int64, userID string, now time.Time) error {
	// The version guard rejects writes computed from a stale read, so a
	// concurrent update cannot silently drop the other caller's items.
	query := `
		UPDATE reconciliations
		SET cleared_entry_ids = $2, cleared_bank_transaction_ids = $3, version = version + 1, last_updated_at = $4, last_updated_by = $5
		WHERE reconciliation_id = $1 AND status = $6 AND version = $7;
	`
	tag, err := r.Pool.Exec(ctx, query, reconciliationID, clearedEntryIDs, clearedBankTransactionIDs, now, userID, models.ReconciliationInProgress, version)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01") {
			return apperrors.ErrConflict
		}
		return apperrors.NewAppError(500, "failed to update cleared sets for "+reconciliationID, err)
	}
	if tag.RowsAffected() == 0 {
		rec, findErr := r.FindReconciliationByID(ctx, reconciliationID)
		if findErr != nil {
			return findErr
		}
		if rec.Status == domain.ReconciliationFinalized {
			return fmt.Errorf("reconciliation %s: %w", reconciliationID, apperrors.ErrLockedSession)
		}
		// Still in progress, so the version moved; the service re-reads and retries.
		return apperrors.ErrConflict
	}
	return nil
}

func (r *PgxReconciliationRepository) FinalizeReconciliationInTx(ctx context.Context, tx pgx.Tx, reconciliationID string, version int64, userID string, now time.Time) error {
	// Lock the session row so concurrent finalize and toggle calls serialize.
	var status models.ReconciliationStatus
	var current int64
	err := tx.QueryRow(ctx, `SELECT status, version FROM reconciliations WHERE reconciliation_id = $1 FOR UPDATE;`, reconciliationID).Scan(&status, &current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return apperrors.NewAppError(500, "failed to lock reconciliation "+reconciliationID, err)
	}
	if status == models.ReconciliationFinalized {
		return fmt.Errorf("reconciliation %s: %w", reconciliationID, apperrors.ErrLockedSession)
	}
	if current != version {
		// The cleared sets changed after the caller's balance check.
		return apperrors.ErrConflict
	}

	query := `
		UPDATE reconciliations
		SET status = $2, version = version + 1, finalized_at = $3, finalized_by = $4, last_updated_at = $3, last_updated_by = $4
		WHERE reconciliation_id = $1;
	`
	if _, err := tx.Exec(ctx, query, reconciliationID, models.ReconciliationFinalized, now, userID); err != nil {
		return apperrors.NewAppError(500, "failed to finalize reconciliation "+reconciliationID, err)
	}
	return nil
}
