package pgrepo

import (
	"context"
	"time"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/fsdevblog/cafe-pos/pkg/uow"
	"github.com/jackc/pgx/v5"
)

const orderColumns = `id::text, created_at, store_id::text, member_id::text, total_amount,
	payment_method::text, status::text, idempotency_key`

type OrderRepository struct {
	conn uow.DBTX
}

func NewOrderRepository(conn uow.DBTX) *OrderRepository {
	return &OrderRepository{conn: conn}
}

// Create сохраняет заказ и его позиции. Позиции отправляются одним батчем, поэтому метод следует вызывать
// внутри транзакции UnitOfWork, иначе при ошибке заказ останется без части позиций.
func (o *OrderRepository) Create(ctx context.Context, args repoargs.CreateOrder) (*domain.Order, error) {
	row := o.conn.QueryRow(ctx,
		`INSERT INTO orders (store_id, member_id, total_amount, payment_method, status, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+orderColumns,
		args.StoreID, args.MemberID, args.TotalAmount, string(args.PaymentMethod), string(args.Status),
		args.IdempotencyKey,
	)
	order, err := scanOrder(row)
	if err != nil {
		return nil, convertErr(err, "creating order in store `%s`", args.StoreID)
	}

	batch := new(pgx.Batch)
	for _, item := range args.Items {
		batch.Queue(
			`INSERT INTO order_items (order_id, menu_item_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)
			RETURNING id::text, order_id::text, menu_item_id::text, quantity, unit_price`,
			order.ID, item.MenuItemID, item.Quantity, item.UnitPrice,
		)
	}

	results := o.conn.SendBatch(ctx, batch)
	order.Items = make([]domain.OrderItem, 0, len(args.Items))
	var itemsErr error
	for range args.Items {
		var item domain.OrderItem
		if scanErr := results.QueryRow().Scan(
			&item.ID, &item.OrderID, &item.MenuItemID, &item.Quantity, &item.UnitPrice,
		); scanErr != nil {
			itemsErr = scanErr
			break
		}
		order.Items = append(order.Items, item)
	}
	if closeErr := results.Close(); closeErr != nil && itemsErr == nil {
		itemsErr = closeErr
	}
	if itemsErr != nil {
		return nil, convertErr(itemsErr, "creating items of order `%s`", order.ID)
	}
	return order, nil
}

// GetByID возвращает заказ вместе с позициями.
func (o *OrderRepository) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := scanOrder(o.conn.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if err != nil {
		return nil, convertErr(err, "getting order `%s`", orderID)
	}
	if err = o.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// FindByIdempotencyKey возвращает заказ, оформленный с ключом key, вместе с позициями.
func (o *OrderRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	order, err := scanOrder(o.conn.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE idempotency_key = $1`, key))
	if err != nil {
		return nil, convertErr(err, "finding order by idempotency key `%s`", key)
	}
	if err = o.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (o *OrderRepository) loadItems(ctx context.Context, order *domain.Order) error {
	orderID := order.ID
	rows, err := o.conn.Query(ctx,
		`SELECT id::text, order_id::text, menu_item_id::text, quantity, unit_price
		FROM order_items WHERE order_id = $1 ORDER BY id`,
		orderID,
	)
	if err != nil {
		return convertErr(err, "getting items of order `%s`", orderID)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if scanErr := rows.Scan(
			&item.ID, &item.OrderID, &item.MenuItemID, &item.Quantity, &item.UnitPrice,
		); scanErr != nil {
			return convertErr(scanErr, "scanning item of order `%s`", orderID)
		}
		order.Items = append(order.Items, item)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return convertErr(rowsErr, "getting items of order `%s`", orderID)
	}
	return nil
}

func (o *OrderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatusType) error {
	tag, err := o.conn.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, orderID, string(status))
	if err != nil {
		return convertErr(err, "updating status of order `%s`", orderID)
	}
	if tag.RowsAffected() == 0 {
		return convertErr(pgx.ErrNoRows, "updating status of order `%s`", orderID)
	}
	return nil
}

// ListUnreconciled возвращает ожидающие оплаты балансом заказы, созданные раньше olderThan, начиная с самых старых.
func (o *OrderRepository) ListUnreconciled(
	ctx context.Context,
	olderThan time.Time,
	limit uint,
) ([]domain.Order, error) {
	rows, err := o.conn.Query(ctx,
		`SELECT `+orderColumns+` FROM orders
		WHERE payment_method = 'member_balance' AND status = 'pending' AND created_at < $1
		ORDER BY created_at
		LIMIT $2`,
		olderThan, limit,
	)
	if err != nil {
		return nil, convertErr(err, "listing unreconciled orders")
	}
	defer rows.Close()

	var orders = make([]domain.Order, 0)
	for rows.Next() {
		order, scanErr := scanOrder(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "scanning order")
		}
		orders = append(orders, *order)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "listing unreconciled orders")
	}
	return orders, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var order domain.Order
	var paymentMethod, status string
	if err := row.Scan(
		&order.ID,
		&order.CreatedAt,
		&order.StoreID,
		&order.MemberID,
		&order.TotalAmount,
		&paymentMethod,
		&status,
		&order.IdempotencyKey,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	order.PaymentMethod = domain.PaymentMethod(paymentMethod)
	order.Status = domain.OrderStatusType(status)
	return &order, nil
}
