package memrepo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/google/uuid"
)

type OrderRepository struct {
	tx *Tx
}

func (o *OrderRepository) Create(_ context.Context, args repoargs.CreateOrder) (*domain.Order, error) {
	o.tx.store.mu.Lock()
	defer o.tx.store.mu.Unlock()

	if args.MemberID != nil {
		if _, ok := o.tx.member(*args.MemberID); !ok {
			return nil, fmt.Errorf("[repository/creating order in store `%s`] %w", args.StoreID, domain.ErrForeignKey)
		}
	}
	if args.IdempotencyKey != nil {
		if _, ok := o.tx.orderByKey(*args.IdempotencyKey); ok {
			return nil, fmt.Errorf("[repository/creating order with key `%s`] %w",
				*args.IdempotencyKey, domain.ErrDuplicateKey)
		}
	}

	order := domain.Order{
		ID:             uuid.NewString(),
		CreatedAt:      o.tx.store.now(),
		StoreID:        args.StoreID,
		MemberID:       args.MemberID,
		TotalAmount:    args.TotalAmount,
		PaymentMethod:  args.PaymentMethod,
		Status:         args.Status,
		IdempotencyKey: args.IdempotencyKey,
		Items:          make([]domain.OrderItem, 0, len(args.Items)),
	}
	for _, item := range args.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ID:         uuid.NewString(),
			OrderID:    order.ID,
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
		})
	}
	o.tx.putOrder(order)
	return &order, nil
}

func (o *OrderRepository) GetByID(_ context.Context, orderID string) (*domain.Order, error) {
	o.tx.store.mu.Lock()
	defer o.tx.store.mu.Unlock()

	order, ok := o.tx.order(orderID)
	if !ok {
		return nil, notFound("getting order `%s`", orderID)
	}
	return &order, nil
}

func (o *OrderRepository) FindByIdempotencyKey(_ context.Context, key string) (*domain.Order, error) {
	o.tx.store.mu.Lock()
	defer o.tx.store.mu.Unlock()

	order, ok := o.tx.orderByKey(key)
	if !ok {
		return nil, notFound("finding order by idempotency key `%s`", key)
	}
	return &order, nil
}

func (o *OrderRepository) UpdateStatus(_ context.Context, orderID string, status domain.OrderStatusType) error {
	o.tx.store.mu.Lock()
	defer o.tx.store.mu.Unlock()

	order, ok := o.tx.order(orderID)
	if !ok {
		return notFound("updating status of order `%s`", orderID)
	}
	order.Status = status
	o.tx.putOrder(order)
	return nil
}

func (o *OrderRepository) ListUnreconciled(
	_ context.Context,
	olderThan time.Time,
	limit uint,
) ([]domain.Order, error) {
	o.tx.store.mu.Lock()
	defer o.tx.store.mu.Unlock()

	var orders = make([]domain.Order, 0)
	for _, order := range o.tx.allOrders() {
		if order.PaymentMethod == domain.PaymentMemberBalance &&
			order.Status == domain.OrderStatusPending &&
			order.CreatedAt.Before(olderThan) {
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt) })
	if limit > 0 && uint(len(orders)) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}
