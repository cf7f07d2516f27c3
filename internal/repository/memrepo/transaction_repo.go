package memrepo

import (
	"context"
	"fmt"
	"sort"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionRepository struct {
	tx *Tx
}

// Create повторяет ограничения таблицы transactions: уникальный ключ идемпотентности, одно списание на заказ,
// существующий участник, ненулевая сумма.
func (t *TransactionRepository) Create(
	_ context.Context,
	args repoargs.CreateTransaction,
) (*domain.Transaction, error) {
	t.tx.store.mu.Lock()
	defer t.tx.store.mu.Unlock()

	if _, ok := t.tx.member(args.MemberID); !ok {
		return nil, fmt.Errorf("[repository/creating transaction for member `%s`] %w", args.MemberID, domain.ErrForeignKey)
	}
	if args.Amount.IsZero() || args.ResultingBalance.IsNegative() {
		return nil, fmt.Errorf("[repository/creating transaction for member `%s`] %w: check constraint violated",
			args.MemberID, domain.ErrUnknown)
	}
	for _, existing := range t.tx.allTransactions() {
		duplicateKey := args.IdempotencyKey != nil && existing.IdempotencyKey != nil &&
			*args.IdempotencyKey == *existing.IdempotencyKey
		duplicateOrder := args.OrderID != nil && existing.OrderID != nil && *args.OrderID == *existing.OrderID &&
			args.Type == domain.TransactionConsumption && existing.Type == domain.TransactionConsumption
		if duplicateKey || duplicateOrder {
			return nil, fmt.Errorf("[repository/creating transaction for member `%s`] %w",
				args.MemberID, domain.ErrDuplicateKey)
		}
	}

	transaction := domain.Transaction{
		ID:               uuid.NewString(),
		CreatedAt:        args.CreatedAt,
		MemberID:         args.MemberID,
		StoreID:          args.StoreID,
		Type:             args.Type,
		Amount:           args.Amount,
		ResultingBalance: args.ResultingBalance,
		OrderID:          args.OrderID,
		IdempotencyKey:   args.IdempotencyKey,
	}
	t.tx.putTransaction(transaction)
	return &transaction, nil
}

func (t *TransactionRepository) FindByIdempotencyKey(_ context.Context, key string) (*domain.Transaction, error) {
	t.tx.store.mu.Lock()
	defer t.tx.store.mu.Unlock()

	for _, tr := range t.tx.allTransactions() {
		if tr.IdempotencyKey != nil && *tr.IdempotencyKey == key {
			return &tr, nil
		}
	}
	return nil, notFound("finding transaction by idempotency key `%s`", key)
}

func (t *TransactionRepository) FindByOrderID(_ context.Context, orderID string) (*domain.Transaction, error) {
	t.tx.store.mu.Lock()
	defer t.tx.store.mu.Unlock()

	for _, tr := range t.tx.allTransactions() {
		if tr.OrderID != nil && *tr.OrderID == orderID && tr.Type == domain.TransactionConsumption {
			return &tr, nil
		}
	}
	return nil, notFound("finding transaction by order id `%s`", orderID)
}

func (t *TransactionRepository) List(
	_ context.Context,
	filter repoargs.TransactionFilter,
) ([]domain.Transaction, error) {
	t.tx.store.mu.Lock()
	defer t.tx.store.mu.Unlock()

	var res = make([]domain.Transaction, 0)
	for _, tr := range t.tx.allTransactions() {
		if filter.MemberID != "" && tr.MemberID != filter.MemberID {
			continue
		}
		if filter.StoreID != "" && tr.StoreID != filter.StoreID {
			continue
		}
		if filter.From != nil && tr.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && tr.CreatedAt.After(*filter.To) {
			continue
		}
		res = append(res, tr)
	}
	// при равных датах последние добавленные операции идут первыми.
	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	if filter.Limit > 0 && uint(len(res)) > filter.Limit {
		res = res[:filter.Limit]
	}
	return res, nil
}

func (t *TransactionRepository) SumByMember(_ context.Context, memberID string) (decimal.Decimal, error) {
	t.tx.store.mu.Lock()
	defer t.tx.store.mu.Unlock()

	sum := decimal.Zero
	for _, tr := range t.tx.allTransactions() {
		if tr.MemberID == memberID {
			sum = sum.Add(tr.Amount)
		}
	}
	return sum, nil
}
