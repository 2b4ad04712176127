package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates the authenticated user is not allowed to perform the action.
var ErrForbidden = errors.New("forbidden")

// ErrConflict indicates a concurrent-update conflict that persisted past the retry budget.
var ErrConflict = errors.New("conflicting concurrent update")

// ErrImmutable indicates an attempt to mutate posted ledger state or a locked
// reconciliation item. The remedy is a reversal, never an edit.
var ErrImmutable = errors.New("immutable state: use a reversal instead of editing")

// ErrLockedSession indicates a mutation attempted on a finalized reconciliation.
var ErrLockedSession = errors.New("reconciliation session is finalized")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// UnbalancedError reports a transaction whose debit and credit totals differ.
// Difference is signed: debits minus credits in the base currency.
type UnbalancedError struct {
	Difference decimal.Decimal
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("transaction entries do not balance: debit total minus credit total is %s in base currency", e.Difference.String())
}

// NewUnbalancedError creates an UnbalancedError with the given signed difference.
func NewUnbalancedError(difference decimal.Decimal) *UnbalancedError {
	return &UnbalancedError{Difference: difference}
}

// UnreconciledError reports a finalize attempt on a session whose gap is not
// zero. Difference is signed (calculated balance minus statement balance) so
// the operator knows which direction to investigate.
type UnreconciledError struct {
	Difference decimal.Decimal
}

func (e *UnreconciledError) Error() string {
	if e.Difference.IsPositive() {
		return fmt.Sprintf("reconciliation is off by %s: cleared balance exceeds the statement balance, check for missing cleared withdrawals", e.Difference.String())
	}
	return fmt.Sprintf("reconciliation is off by %s: statement balance exceeds the cleared balance, check for missing cleared deposits", e.Difference.String())
}

// NewUnreconciledError creates an UnreconciledError with the given signed difference.
func NewUnreconciledError(difference decimal.Decimal) *UnreconciledError {
	return &UnreconciledError{Difference: difference}
}

// AppError wraps a lower-layer failure with a status code and a message
// suitable for logging. Used primarily by the repository layer.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that unwraps to ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}
