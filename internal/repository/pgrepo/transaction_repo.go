package pgrepo

import (
	"context"
	"fmt"
	"strings"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/fsdevblog/cafe-pos/pkg/uow"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const transactionColumns = `transaction_id::text, transaction_date, member_id::text, store_id::text,
	transaction_type::text, amount, resulting_balance, order_id::text, idempotency_key`

// TransactionRepository журнал операций по балансу. Записи только добавляются: методов изменения и удаления нет.
type TransactionRepository struct {
	conn uow.DBTX
}

func NewTransactionRepository(conn uow.DBTX) *TransactionRepository {
	return &TransactionRepository{conn: conn}
}

func (t *TransactionRepository) Create(
	ctx context.Context,
	args repoargs.CreateTransaction,
) (*domain.Transaction, error) {
	row := t.conn.QueryRow(ctx,
		`INSERT INTO transactions
			(member_id, store_id, transaction_type, amount, resulting_balance, order_id, idempotency_key, transaction_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+transactionColumns,
		args.MemberID,
		args.StoreID,
		string(args.Type),
		args.Amount,
		args.ResultingBalance,
		args.OrderID,
		args.IdempotencyKey,
		args.CreatedAt,
	)
	transaction, err := scanTransaction(row)
	if err != nil {
		return nil, convertErr(err, "creating transaction for member `%s`", args.MemberID)
	}
	return transaction, nil
}

func (t *TransactionRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	row := t.conn.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE idempotency_key = $1`,
		key,
	)
	transaction, err := scanTransaction(row)
	if err != nil {
		return nil, convertErr(err, "finding transaction by idempotency key `%s`", key)
	}
	return transaction, nil
}

// FindByOrderID возвращает списание, привязанное к заказу.
func (t *TransactionRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Transaction, error) {
	row := t.conn.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE order_id = $1 AND transaction_type = 'consumption'`,
		orderID,
	)
	transaction, err := scanTransaction(row)
	if err != nil {
		return nil, convertErr(err, "finding transaction by order id `%s`", orderID)
	}
	return transaction, nil
}

// List возвращает операции по фильтру, отсортированные по дате создания по убыванию.
func (t *TransactionRepository) List(
	ctx context.Context,
	filter repoargs.TransactionFilter,
) ([]domain.Transaction, error) {
	var where []string
	var args []any
	if filter.MemberID != "" {
		args = append(args, filter.MemberID)
		where = append(where, fmt.Sprintf("member_id = $%d", len(args)))
	}
	if filter.StoreID != "" {
		args = append(args, filter.StoreID)
		where = append(where, fmt.Sprintf("store_id = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		where = append(where, fmt.Sprintf("transaction_date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where = append(where, fmt.Sprintf("transaction_date <= $%d", len(args)))
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY transaction_date DESC, transaction_id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := t.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, convertErr(err, "listing transactions")
	}
	defer rows.Close()

	var transactions = make([]domain.Transaction, 0)
	for rows.Next() {
		transaction, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "scanning transaction")
		}
		transactions = append(transactions, *transaction)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "listing transactions")
	}
	return transactions, nil
}

// SumByMember сумма всех операций участника. Должна совпадать с его балансом.
func (t *TransactionRepository) SumByMember(ctx context.Context, memberID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := t.conn.QueryRow(ctx,
		`SELECT coalesce(sum(amount), 0) FROM transactions WHERE member_id = $1`,
		memberID,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, convertErr(err, "summing transactions of member `%s`", memberID)
	}
	return sum, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var transaction domain.Transaction
	var transactionType string
	if err := row.Scan(
		&transaction.ID,
		&transaction.CreatedAt,
		&transaction.MemberID,
		&transaction.StoreID,
		&transactionType,
		&transaction.Amount,
		&transaction.ResultingBalance,
		&transaction.OrderID,
		&transaction.IdempotencyKey,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	transaction.Type = domain.TransactionType(transactionType)
	return &transaction, nil
}
