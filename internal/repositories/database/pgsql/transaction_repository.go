package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kitabuhq/kitabu_backend/internal/apperrors"
	"github.com/kitabuhq/kitabu_backend/internal/core/domain"
	portsrepo "github.com/kitabuhq/kitabu_backend/internal/core/ports/repositories"
	"github.com/kitabuhq/kitabu_backend/internal/models"
	"github.com/kitabuhq/kitabu_backend/internal/utils/accounting"
	"github.com/kitabuhq/kitabu_backend/internal/utils/mapping"
	"github.com/kitabuhq/kitabu_backend/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

const transactionColumns = `transaction_id, organization_id, transaction_date, transaction_type, description, reference, status, currency_code, amount, original_transaction_id, reversing_transaction_id, created_at, created_by, last_updated_at, last_updated_by`

const entryInsertQuery = `
	INSERT INTO ledger_entries (entry_id, transaction_id, account_id, side, amount, currency_code, exchange_rate, base_amount, notes, running_balance, created_at, created_by, last_updated_at, last_updated_by)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
`

// entrySelectColumns joins the transaction header for the denormalized
// date and description carried on read.
const entrySelectColumns = `
	e.entry_id, e.transaction_id, e.account_id, e.side, e.amount, e.currency_code, e.exchange_rate, e.base_amount, e.notes, e.running_balance,
	e.created_at, e.created_by, e.last_updated_at, e.last_updated_by,
	t.transaction_date, t.description
`

type PgxTransactionRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountRepositoryFacade
}

// newPgxTransactionRepository creates a new repository for transaction and
// ledger entry data.
func newPgxTransactionRepository(pool *pgxpool.Pool, accountRepo portsrepo.AccountRepositoryFacade) portsrepo.TransactionRepositoryWithTx {
	return &PgxTransactionRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

var _ portsrepo.TransactionRepositoryWithTx = (*PgxTransactionRepository)(nil)

// insertTransactionHeader writes the transactions row inside tx.
func (r *PgxTransactionRepository) insertTransactionHeader(ctx context.Context, tx pgx.Tx, m models.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := tx.Exec(ctx, query,
		m.TransactionID,
		m.OrganizationID,
		m.TransactionDate,
		m.TransactionType,
		m.Description,
		m.Reference,
		m.Status,
		m.CurrencyCode,
		m.Amount,
		m.OriginalTransactionID,
		m.ReversingTransactionID,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert transaction "+m.TransactionID, err)
	}
	return nil
}

// insertEntries applies balance deltas under row locks, assigns running
// balances, and batch-inserts the entries, all inside tx. For drafts
// (balanceChanges empty) balances are untouched and running balances stay
// zero until posting.
func (r *PgxTransactionRepository) insertEntries(ctx context.Context, tx pgx.Tx, entries []domain.LedgerEntry, balanceChanges map[string]decimal.Decimal, userID string, now time.Time) error {
	runningBalances, err := r.applyBalances(ctx, tx, balanceChanges, userID, now)
	if err != nil {
		return err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].EntryID < entries[j].EntryID
	})

	batch := &pgx.Batch{}
	for i := range entries {
		m := mapping.ToModelLedgerEntry(entries[i])
		if runningBalances != nil {
			next := runningBalances[m.AccountID].Add(accounting.EntryBalanceDelta(entries[i]))
			runningBalances[m.AccountID] = next
			m.RunningBalance = next
		}
		batch.Queue(entryInsertQuery,
			m.EntryID,
			m.TransactionID,
			m.AccountID,
			m.Side,
			m.Amount,
			m.CurrencyCode,
			m.ExchangeRate,
			m.BaseAmount,
			m.Notes,
			m.RunningBalance,
			m.CreatedAt,
			m.CreatedBy,
			m.LastUpdatedAt,
			m.LastUpdatedBy,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert ledger entries", err)
	}
	return nil
}

// applyBalances locks the touched accounts, applies the deltas, and returns
// the pre-change balances for running balance assignment. Returns nil for an
// empty change set.
func (r *PgxTransactionRepository) applyBalances(ctx context.Context, tx pgx.Tx, balanceChanges map[string]decimal.Decimal, userID string, now time.Time) (map[string]decimal.Decimal, error) {
	if len(balanceChanges) == 0 {
		return nil, nil
	}

	accountIDs := make([]string, 0, len(balanceChanges))
	for accountID := range balanceChanges {
		accountIDs = append(accountIDs, accountID)
	}

	lockedAccounts, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, accountIDs)
	if err != nil {
		return nil, err
	}
	if err := r.accountRepo.UpdateAccountBalancesInTx(ctx, tx, balanceChanges, userID, now); err != nil {
		return nil, err
	}

	runningBalances := make(map[string]decimal.Decimal, len(lockedAccounts))
	for accountID, acc := range lockedAccounts {
		runningBalances[accountID] = acc.Balance
	}
	return runningBalances, nil
}

func (r *PgxTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction, entries []domain.LedgerEntry, balanceChanges map[string]decimal.Decimal) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := r.insertTransactionHeader(ctx, tx, mapping.ToModelTransaction(txn)); err != nil {
		return err
	}
	if err := r.insertEntries(ctx, tx, entries, balanceChanges, txn.CreatedBy, txn.CreatedAt); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func (r *PgxTransactionRepository) SaveReversal(ctx context.Context, reversal domain.Transaction, entries []domain.LedgerEntry, balanceChanges map[string]decimal.Decimal) error {
	if reversal.OriginalTransactionID == nil {
		return fmt.Errorf("%w: reversal has no original transaction", apperrors.ErrValidation)
	}
	originalID := *reversal.OriginalTransactionID

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	// Void the original first; the status guard makes concurrent double
	// reversals lose cleanly.
	voidQuery := `
		UPDATE transactions
		SET status = $2, reversing_transaction_id = $3, last_updated_at = $4, last_updated_by = $5
		WHERE transaction_id = $1 AND status = $6;
	`
	tag, err := tx.Exec(ctx, voidQuery, originalID, models.Voided, reversal.TransactionID, reversal.CreatedAt, reversal.CreatedBy, models.Posted)
	if err != nil {
		return apperrors.NewAppError(500, "failed to void transaction "+originalID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s is not posted: %w", originalID, apperrors.ErrImmutable)
	}

	if err := r.insertTransactionHeader(ctx, tx, mapping.ToModelTransaction(reversal)); err != nil {
		return err
	}
	if err := r.insertEntries(ctx, tx, entries, balanceChanges, reversal.CreatedBy, reversal.CreatedAt); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func (r *PgxTransactionRepository) ReplaceDraftEntries(ctx context.Context, txn domain.Transaction, entries []domain.LedgerEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelTransaction(txn)
	headerQuery := `
		UPDATE transactions
		SET transaction_date = $2, description = $3, reference = $4, amount = $5, last_updated_at = $6, last_updated_by = $7
		WHERE transaction_id = $1 AND status = $8;
	`
	tag, err := tx.Exec(ctx, headerQuery, m.TransactionID, m.TransactionDate, m.Description, m.Reference, m.Amount, m.LastUpdatedAt, m.LastUpdatedBy, models.Draft)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update draft "+m.TransactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s is not a draft: %w", m.TransactionID, apperrors.ErrImmutable)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM ledger_entries WHERE transaction_id = $1;`, m.TransactionID); err != nil {
		return apperrors.NewAppError(500, "failed to clear draft entries "+m.TransactionID, err)
	}
	if err := r.insertEntries(ctx, tx, entries, nil, txn.LastUpdatedBy, txn.LastUpdatedAt); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func (r *PgxTransactionRepository) PostDraft(ctx context.Context, txn domain.Transaction, entries []domain.LedgerEntry, balanceChanges map[string]decimal.Decimal) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelTransaction(txn)
	postQuery := `
		UPDATE transactions
		SET status = $2, amount = $3, last_updated_at = $4, last_updated_by = $5
		WHERE transaction_id = $1 AND status = $6;
	`
	tag, err := tx.Exec(ctx, postQuery, m.TransactionID, models.Posted, m.Amount, m.LastUpdatedAt, m.LastUpdatedBy, models.Draft)
	if err != nil {
		return apperrors.NewAppError(500, "failed to post draft "+m.TransactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s is not a draft: %w", m.TransactionID, apperrors.ErrImmutable)
	}

	runningBalances, err := r.applyBalances(ctx, tx, balanceChanges, txn.LastUpdatedBy, txn.LastUpdatedAt)
	if err != nil {
		return err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].EntryID < entries[j].EntryID
	})

	// The entries already exist from the draft stage; stamp their running
	// balances now that the deltas are applied.
	updateQuery := `
		UPDATE ledger_entries
		SET running_balance = $2, last_updated_at = $3, last_updated_by = $4
		WHERE entry_id = $1;
	`
	batch := &pgx.Batch{}
	for i := range entries {
		next := runningBalances[entries[i].AccountID].Add(accounting.EntryBalanceDelta(entries[i]))
		runningBalances[entries[i].AccountID] = next
		batch.Queue(updateQuery, entries[i].EntryID, next, txn.LastUpdatedAt, txn.LastUpdatedBy)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(500, "failed to stamp running balances for "+m.TransactionID, err)
	}
	return r.Commit(ctx, tx)
}

func (r *PgxTransactionRepository) DeleteDraft(ctx context.Context, transactionID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if _, err := tx.Exec(ctx, `DELETE FROM ledger_entries WHERE transaction_id = $1;`, transactionID); err != nil {
		return apperrors.NewAppError(500, "failed to delete draft entries "+transactionID, err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM transactions WHERE transaction_id = $1 AND status = $2;`, transactionID, models.Draft)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete draft "+transactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s is not a draft: %w", transactionID, apperrors.ErrImmutable)
	}
	return r.Commit(ctx, tx)
}

// scanTransaction scans one transactions row with its nullable linkage.
func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var m models.Transaction
	var originalID, reversingID sql.NullString
	err := row.Scan(
		&m.TransactionID,
		&m.OrganizationID,
		&m.TransactionDate,
		&m.TransactionType,
		&m.Description,
		&m.Reference,
		&m.Status,
		&m.CurrencyCode,
		&m.Amount,
		&originalID,
		&reversingID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if originalID.Valid {
		m.OriginalTransactionID = &originalID.String
	}
	if reversingID.Valid {
		m.ReversingTransactionID = &reversingID.String
	}
	txn := mapping.ToDomainTransaction(m)
	return &txn, nil
}

func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1;`
	txn, err := scanTransaction(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find transaction by ID "+transactionID, err)
	}
	return txn, nil
}

func (r *PgxTransactionRepository) ListTransactionsByOrganization(ctx context.Context, organizationID string, limit int, nextToken *string, includeReversals bool) ([]domain.Transaction, *string, error) {
	args := []interface{}{organizationID}
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE organization_id = $1
	`
	if !includeReversals {
		query += ` AND transaction_type <> 'REVERSAL'`
	}
	if nextToken != nil && *nextToken != "" {
		tokenDate, tokenCreatedAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		query += fmt.Sprintf(` AND (transaction_date, created_at) < ($%d, $%d)`, len(args)+1, len(args)+2)
		args = append(args, tokenDate, tokenCreatedAt)
	}
	query += fmt.Sprintf(` ORDER BY transaction_date DESC, created_at DESC LIMIT $%d;`, len(args)+1)
	args = append(args, limit+1) // Fetch one extra to detect the next page

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to list transactions", err)
	}
	defer rows.Close()

	txns := make([]domain.Transaction, 0, limit+1)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan transaction row", err)
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating transaction rows", err)
	}

	var newToken *string
	if len(txns) > limit {
		txns = txns[:limit]
		last := txns[limit-1]
		token := pagination.EncodeToken(last.TransactionDate, last.CreatedAt)
		newToken = &token
	}
	return txns, newToken, nil
}

// scanEntry scans one joined ledger_entries row.
func scanEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var m models.LedgerEntry
	var transactionDate time.Time
	var transactionDescription string
	err := row.Scan(
		&m.EntryID,
		&m.TransactionID,
		&m.AccountID,
		&m.Side,
		&m.Amount,
		&m.CurrencyCode,
		&m.ExchangeRate,
		&m.BaseAmount,
		&m.Notes,
		&m.RunningBalance,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
		&transactionDate,
		&transactionDescription,
	)
	if err != nil {
		return nil, err
	}
	entry := mapping.ToDomainLedgerEntry(m)
	entry.TransactionDate = transactionDate
	entry.TransactionDescription = transactionDescription
	return &entry, nil
}

func (r *PgxTransactionRepository) FindEntriesByTransactionID(ctx context.Context, transactionID string) ([]domain.LedgerEntry, error) {
	query := `
		SELECT ` + entrySelectColumns + `
		FROM ledger_entries e
		JOIN transactions t ON t.transaction_id = e.transaction_id
		WHERE e.transaction_id = $1
		ORDER BY e.entry_id;
	`
	rows, err := r.Pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query entries for transaction "+transactionID, err)
	}
	defer rows.Close()

	entries := make([]domain.LedgerEntry, 0, 2)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan ledger entry row", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating ledger entry rows", err)
	}
	return entries, nil
}

func (r *PgxTransactionRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	query := `
		SELECT ` + entrySelectColumns + `
		FROM ledger_entries e
		JOIN transactions t ON t.transaction_id = e.transaction_id
		WHERE e.entry_id = $1;
	`
	entry, err := scanEntry(r.Pool.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find ledger entry by ID "+entryID, err)
	}
	return entry, nil
}

func (r *PgxTransactionRepository) ListEntriesByAccountID(ctx context.Context, organizationID, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	args := []interface{}{organizationID, accountID}
	query := `
		SELECT ` + entrySelectColumns + `
		FROM ledger_entries e
		JOIN transactions t ON t.transaction_id = e.transaction_id
		WHERE t.organization_id = $1 AND e.account_id = $2 AND t.status <> 'DRAFT'
	`
	if nextToken != nil && *nextToken != "" {
		tokenDate, tokenCreatedAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		query += fmt.Sprintf(` AND (t.transaction_date, e.created_at) < ($%d, $%d)`, len(args)+1, len(args)+2)
		args = append(args, tokenDate, tokenCreatedAt)
	}
	query += fmt.Sprintf(` ORDER BY t.transaction_date DESC, e.created_at DESC LIMIT $%d;`, len(args)+1)
	args = append(args, limit+1)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to list entries for account "+accountID, err)
	}
	defer rows.Close()

	entries := make([]domain.LedgerEntry, 0, limit+1)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan ledger entry row", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating ledger entry rows", err)
	}

	var newToken *string
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[limit-1]
		token := pagination.EncodeToken(last.TransactionDate, last.CreatedAt)
		newToken = &token
	}
	return entries, newToken, nil
}

// FindPostedEntriesByAccountInRange feeds the reconciliation projection:
// posted entries on the account, dated up to the statement date. Voided
// originals and their offsetting reversals are omitted as a pair so the
// projection only carries money that actually moved.
func (r *PgxTransactionRepository) FindPostedEntriesByAccountInRange(ctx context.Context, accountID string, through time.Time) ([]domain.LedgerEntry, error) {
	query := `
		SELECT ` + entrySelectColumns + `
		FROM ledger_entries e
		JOIN transactions t ON t.transaction_id = e.transaction_id
		WHERE e.account_id = $1
		  AND t.status = 'POSTED'
		  AND t.transaction_type <> 'REVERSAL'
		  AND t.transaction_date <= $2
		ORDER BY t.transaction_date, e.created_at;
	`
	rows, err := r.Pool.Query(ctx, query, accountID, through)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query posted entries for account "+accountID, err)
	}
	defer rows.Close()

	entries := make([]domain.LedgerEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan ledger entry row", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating ledger entry rows", err)
	}
	return entries, nil
}
