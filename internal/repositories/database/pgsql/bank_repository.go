package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kitabuhq/kitabu_backend/internal/apperrors"
	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
	portsrepo "github.com/kitabuhq/kitabu_backend/internal/core/ports/repositories"
	"github.com/kitabuhq/kitabu_backend/internal/models"
	"github.com/kitabuhq/kitabu_backend/internal/utils/mapping"
	"github.com/shopspring/decimal"
)

const bankAccountColumns = `bank_account_id, organization_id, name, gl_account_id, currency_code, opening_balance, last_reconciled_date, last_reconciled_balance, created_at, created_by, last_updated_at, last_updated_by`

const bankTransactionColumns = `bank_transaction_id, bank_account_id, transaction_date, amount, direction, description, reference, payee, reconciliation_id, created_at, created_by, last_updated_at, last_updated_by`

type PgxBankRepository struct {
	pool *pgxpool.Pool
}

// newPgxBankRepository creates a new repository for bank accounts and
// imported feed rows.
func newPgxBankRepository(pool *pgxpool.Pool) portsrepo.BankAccountRepositoryFacade {
	return &PgxBankRepository{pool: pool}
}

var _ portsrepo.BankAccountRepositoryFacade = (*PgxBankRepository)(nil)

func scanBankAccount(row pgx.Row) (*domain.BankAccount, error) {
	var m models.BankAccount
	err := row.Scan(
		&m.BankAccountID,
		&m.OrganizationID,
		&m.Name,
		&m.GLAccountID,
		&m.CurrencyCode,
		&m.OpeningBalance,
		&m.LastReconciledDate,
		&m.LastReconciledBalance,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	b := mapping.ToDomainBankAccount(m)
	return &b, nil
}

func (r *PgxBankRepository) SaveBankAccount(ctx context.Context, bankAccount domain.BankAccount) error {
	m := mapping.ToModelBankAccount(bankAccount)
	query := `
		INSERT INTO bank_accounts (` + bankAccountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := r.pool.Exec(ctx, query,
		m.BankAccountID,
		m.OrganizationID,
		m.Name,
		m.GLAccountID,
		m.CurrencyCode,
		m.OpeningBalance,
		m.LastReconciledDate,
		m.LastReconciledBalance,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save bank account "+m.BankAccountID, err)
	}
	return nil
}

func (r *PgxBankRepository) FindBankAccountByID(ctx context.Context, bankAccountID string) (*domain.BankAccount, error) {
	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts WHERE bank_account_id = $1;`
	b, err := scanBankAccount(r.pool.QueryRow(ctx, query, bankAccountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find bank account by ID "+bankAccountID, err)
	}
	return b, nil
}

func (r *PgxBankRepository) ListBankAccounts(ctx context.Context, organizationID string) ([]domain.BankAccount, error) {
	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts WHERE organization_id = $1 ORDER BY name;`
	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list bank accounts", err)
	}
	defer rows.Close()

	bankAccounts := make([]domain.BankAccount, 0)
	for rows.Next() {
		b, err := scanBankAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan bank account row", err)
		}
		bankAccounts = append(bankAccounts, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating bank account rows", err)
	}
	return bankAccounts, nil
}

func (r *PgxBankRepository) UpdateLastReconciledInTx(ctx context.Context, tx pgx.Tx, bankAccountID string, reconciledDate time.Time, reconciledBalance decimal.Decimal, userID string, now time.Time) error {
	query := `
		UPDATE bank_accounts
		SET last_reconciled_date = $2, last_reconciled_balance = $3, last_updated_at = $4, last_updated_by = $5
		WHERE bank_account_id = $1;
	`
	tag, err := tx.Exec(ctx, query, bankAccountID, reconciledDate, reconciledBalance, now, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to stamp last reconciled on bank account "+bankAccountID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanBankTransaction(row pgx.Row) (*domain.BankTransaction, error) {
	var m models.BankTransaction
	err := row.Scan(
		&m.BankTransactionID,
		&m.BankAccountID,
		&m.TransactionDate,
		&m.Amount,
		&m.Direction,
		&m.Description,
		&m.Reference,
		&m.Payee,
		&m.ReconciliationID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	b := mapping.ToDomainBankTransaction(m)
	return &b, nil
}

func (r *PgxBankRepository) FindBankTransactionByID(ctx context.Context, bankTransactionID string) (*domain.BankTransaction, error) {
	query := `SELECT ` + bankTransactionColumns + ` FROM bank_transactions WHERE bank_transaction_id = $1;`
	b, err := scanBankTransaction(r.pool.QueryRow(ctx, query, bankTransactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find bank transaction by ID "+bankTransactionID, err)
	}
	return b, nil
}

func (r *PgxBankRepository) FindUnlockedByBankAccount(ctx context.Context, bankAccountID string, through time.Time) ([]domain.BankTransaction, error) {
	query := `
		SELECT ` + bankTransactionColumns + `
		FROM bank_transactions
		WHERE bank_account_id = $1 AND reconciliation_id IS NULL AND transaction_date <= $2
		ORDER BY transaction_date, created_at;
	`
	rows, err := r.pool.Query(ctx, query, bankAccountID, through)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query feed rows for bank account "+bankAccountID, err)
	}
	defer rows.Close()

	bankTxns := make([]domain.BankTransaction, 0)
	for rows.Next() {
		b, err := scanBankTransaction(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan bank transaction row", err)
		}
		bankTxns = append(bankTxns, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating bank transaction rows", err)
	}
	return bankTxns, nil
}

// SaveBankTransactions bulk-inserts feed rows. Re-imports of the same
// statement are absorbed by the dedupe index; the returned count only covers
// rows actually written.
func (r *PgxBankRepository) SaveBankTransactions(ctx context.Context, rowsIn []domain.BankTransaction) (int, error) {
	query := `
		INSERT INTO bank_transactions (` + bankTransactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (bank_account_id, reference, transaction_date, amount, direction) DO NOTHING;
	`
	batch := &pgx.Batch{}
	for _, row := range rowsIn {
		m := mapping.ToModelBankTransaction(row)
		batch.Queue(query,
			m.BankTransactionID,
			m.BankAccountID,
			m.TransactionDate,
			m.Amount,
			m.Direction,
			m.Description,
			m.Reference,
			m.Payee,
			m.ReconciliationID,
			m.CreatedAt,
			m.CreatedBy,
			m.LastUpdatedAt,
			m.LastUpdatedBy,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	inserted := 0
	for range rowsIn {
		tag, err := br.Exec()
		if err != nil {
			return inserted, apperrors.NewAppError(500, "failed to insert bank transaction batch", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (r *PgxBankRepository) LockBankTransactionsInTx(ctx context.Context, tx pgx.Tx, bankTransactionIDs []string, reconciliationID string, userID string, now time.Time) error {
	query := `
		UPDATE bank_transactions
		SET reconciliation_id = $2, last_updated_at = $3, last_updated_by = $4
		WHERE bank_transaction_id = ANY($1) AND reconciliation_id IS NULL;
	`
	tag, err := tx.Exec(ctx, query, bankTransactionIDs, reconciliationID, now, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to lock bank transactions for reconciliation "+reconciliationID, err)
	}
	if int(tag.RowsAffected()) != len(bankTransactionIDs) {
		// Some row vanished or was locked by a concurrent finalize.
		return apperrors.ErrConflict
	}
	return nil
}
