package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrForeignKey     = errors.New("foreign key violation")
	ErrUnknown        = errors.New("unknown error")

	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrMemberNotFound        = errors.New("member not found")
	ErrMemberHasTransactions = errors.New("member has transactions")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInvalidTransaction    = errors.New("invalid transaction type")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrDuplicateOperation    = errors.New("idempotency key reused with different parameters")
	ErrPersistenceFailure    = errors.New("persistence failure")
	ErrLedgerBusy            = errors.New("member ledger is busy")

	ErrInvalidOrder  = errors.New("invalid order")
	ErrOrderNotFound = errors.New("order not found")
	ErrUnknownStore  = errors.New("unknown store")

	ErrInvalidMenuItem = errors.New("invalid menu item")
	ErrMenuItemInUse   = errors.New("menu item is referenced by orders")

	ErrInvalidMember = errors.New("invalid member")
	ErrInvalidNote   = errors.New("invalid note")
	ErrUnknownReport = errors.New("unknown report")
)

type PersistenceKind string

const (
	// WriteUncertain запись могла быть зафиксирована, баланс участника считается неизвестным.
	WriteUncertain PersistenceKind = "write_uncertain"
	// WriteConfirmedFailed транзакция БД откачена, изменений нет.
	WriteConfirmedFailed PersistenceKind = "write_confirmed_failed"
)

// PersistenceError ошибка записи в журнал баланса. errors.Is(err, ErrPersistenceFailure) истинно для обоих видов.
type PersistenceError struct {
	Kind     PersistenceKind
	MemberID string
	Err      error
}

func NewPersistenceError(kind PersistenceKind, memberID string, err error) *PersistenceError {
	return &PersistenceError{Kind: kind, MemberID: memberID, Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s (%s) for member %s: %v", ErrPersistenceFailure, e.Kind, e.MemberID, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistenceFailure, e.Err}
}

// Uncertain истинно, если вызывающий обязан перечитать баланс перед повтором.
func (e *PersistenceError) Uncertain() bool {
	return e.Kind == WriteUncertain
}

// IsRejection истинно для ошибок валидации, обнаруженных до любой записи.
func IsRejection(err error) bool {
	return errors.Is(err, ErrMemberNotFound) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidTransaction) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrDuplicateOperation) ||
		errors.Is(err, ErrInvalidOrder) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrUnknownStore)
}
