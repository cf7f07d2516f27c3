package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/fsdevblog/cafe-pos/pkg/uow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const DefaultReconcileGrace = 2 * time.Minute

type CheckoutItem struct {
	MenuItemID string
	Quantity   int
	UnitPrice  decimal.Decimal
}

type CheckoutArgs struct {
	StoreID       string
	MemberID      *string
	PaymentMethod domain.PaymentMethod
	TotalAmount   decimal.Decimal
	Items         []CheckoutItem
	// IdempotencyKey необязателен. Повтор с тем же ключом возвращает уже оформленный заказ.
	IdempotencyKey string
}

type CheckoutResult struct {
	Order *domain.Order
	// Payment результат списания. nil для оплаты наличными и для повтора завершенного заказа.
	Payment *domain.LedgerResult
	// Replayed заказ был оформлен ранее с тем же ключом идемпотентности.
	Replayed bool
}

type OrderService struct {
	uow             uow.UOW
	orderRepo       OrderRepository
	memberRepo      MemberRepository
	transactionRepo TransactionRepository
	payments        OrderPaymentRecorder
	grace           time.Duration
	now             func() time.Time
	l               *logrus.Entry
}

type OrderOption func(*OrderService)

// WithReconcileGrace время, после которого ожидающий оплаты заказ без списания считается проблемным.
func WithReconcileGrace(d time.Duration) OrderOption {
	return func(o *OrderService) {
		o.grace = d
	}
}

func WithOrderClock(now func() time.Time) OrderOption {
	return func(o *OrderService) {
		o.now = now
	}
}

func NewOrderService(
	u uow.UOW,
	payments OrderPaymentRecorder,
	l *logrus.Logger,
	opts ...OrderOption,
) (*OrderService, error) {
	orderRepo, err := uow.GetRepositoryAs[OrderRepository](u, uow.RepositoryName(repoargs.OrderRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	memberRepo, err := uow.GetRepositoryAs[MemberRepository](u, uow.RepositoryName(repoargs.MemberRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	transactionRepo, err := uow.GetRepositoryAs[TransactionRepository](
		u, uow.RepositoryName(repoargs.TransactionRepoName),
	)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	o := &OrderService{
		uow:             u,
		orderRepo:       orderRepo,
		memberRepo:      memberRepo,
		transactionRepo: transactionRepo,
		payments:        payments,
		grace:           DefaultReconcileGrace,
		now:             time.Now,
		l:               l.WithFields(logrus.Fields{"component": "service", "module": "orders"}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Checkout оформляет заказ.
//
// Алгоритм работы:
//  1. Проверяет заказ до любой записи. Для оплаты балансом заранее отклоняет заведомо недостаточный баланс,
//     окончательная проверка выполняется при списании.
//  2. Сохраняет заказ с позициями. Оплата балансом - статус pending, наличными - completed.
//  3. Для оплаты балансом вызывает RecordOrderPayment. Успех - completed, отказ - cancelled.
//     При ошибке записи заказ остается pending до сверки, ошибка возвращается вызывающему.
//
// С ключом идемпотентности повтор не создает второй заказ. Для заказа, все еще ожидающего оплаты,
// списание повторяется: его ключ выводится из id заказа, поэтому дважды деньги не спишутся.
func (o *OrderService) Checkout(ctx context.Context, args CheckoutArgs) (*CheckoutResult, error) {
	if err := validateCheckout(args); err != nil {
		return nil, err
	}
	if args.IdempotencyKey != "" {
		existing, err := o.orderRepo.FindByIdempotencyKey(ctx, args.IdempotencyKey)
		switch {
		case err == nil:
			return o.replay(ctx, args, existing)
		case !errors.Is(err, domain.ErrRecordNotFound):
			return nil, fmt.Errorf("finding order by key `%s`: %w", args.IdempotencyKey, err)
		}
	}
	if err := o.precheckMember(ctx, args); err != nil {
		return nil, err
	}

	status := domain.OrderStatusCompleted
	if args.PaymentMethod == domain.PaymentMemberBalance {
		status = domain.OrderStatusPending
	}
	var key *string
	if args.IdempotencyKey != "" {
		key = &args.IdempotencyKey
	}
	items := make([]repoargs.CreateOrderItem, len(args.Items))
	for i, item := range args.Items {
		items[i] = repoargs.CreateOrderItem{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
		}
	}

	var order *domain.Order
	txErr := o.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		repo, err := uow.GetAs[OrderRepository](tx, uow.RepositoryName(repoargs.OrderRepoName))
		if err != nil {
			return err //nolint:wrapcheck
		}
		order, err = repo.Create(c, repoargs.CreateOrder{
			StoreID:        args.StoreID,
			MemberID:       args.MemberID,
			TotalAmount:    args.TotalAmount,
			PaymentMethod:  args.PaymentMethod,
			Status:         status,
			IdempotencyKey: key,
			Items:          items,
		})
		return err //nolint:wrapcheck
	})
	if txErr != nil {
		if key != nil && errors.Is(txErr, domain.ErrDuplicateKey) {
			// параллельный запрос с тем же ключом успел сохранить заказ.
			existing, err := o.orderRepo.FindByIdempotencyKey(ctx, *key)
			if err != nil {
				return nil, fmt.Errorf("finding order by key `%s`: %w", *key, err)
			}
			return o.replay(ctx, args, existing)
		}
		if errors.Is(txErr, domain.ErrForeignKey) {
			return nil, fmt.Errorf("%w: unknown store or menu item: %w", domain.ErrInvalidOrder, txErr)
		}
		return nil, fmt.Errorf("creating order: %w", txErr)
	}

	l := o.l.WithField("order_id", order.ID)
	if args.PaymentMethod != domain.PaymentMemberBalance {
		l.Info("cash order completed")
		return &CheckoutResult{Order: order}, nil
	}

	return o.pay(ctx, l, order)
}

func (o *OrderService) pay(ctx context.Context, l *logrus.Entry, order *domain.Order) (*CheckoutResult, error) {
	payment, payErr := o.payments.RecordOrderPayment(ctx, *order)
	switch {
	case payErr == nil:
		o.setStatus(ctx, l, order, domain.OrderStatusCompleted)
		return &CheckoutResult{Order: order, Payment: payment}, nil
	case domain.IsRejection(payErr):
		o.setStatus(ctx, l, order, domain.OrderStatusCancelled)
		return nil, payErr
	default:
		l.WithError(payErr).Error("order payment failed, order left pending for reconciliation")
		return nil, payErr
	}
}

// replay отвечает на повтор оформления. Заказ в конечном статусе возвращается как есть.
func (o *OrderService) replay(ctx context.Context, args CheckoutArgs, order *domain.Order) (*CheckoutResult, error) {
	if !sameCheckout(order, args) {
		return nil, fmt.Errorf("%w: key `%s`", domain.ErrDuplicateOperation, args.IdempotencyKey)
	}
	l := o.l.WithFields(logrus.Fields{"order_id": order.ID, "idempotency_key": args.IdempotencyKey})
	if order.PaymentMethod != domain.PaymentMemberBalance || order.Status != domain.OrderStatusPending {
		l.Info("checkout replay")
		return &CheckoutResult{Order: order, Replayed: true}, nil
	}

	l.Info("checkout replay, retrying order payment")
	res, err := o.pay(ctx, l, order)
	if err != nil {
		return nil, err
	}
	res.Replayed = true
	return res, nil
}

// Reconcile сверяет ожидающий оплаты заказ с журналом баланса. Найденное списание завершает заказ.
// Если списания нет дольше grace, заказ помечается payment_missing. Так же сразу помечается заказ, к которому
// привязана операция другого участника или на другую сумму. Списание автоматически не выполняется.
func (o *OrderService) Reconcile(ctx context.Context, order domain.Order) (domain.OrderStatusType, error) {
	if order.PaymentMethod != domain.PaymentMemberBalance || order.Status != domain.OrderStatusPending {
		return order.Status, nil
	}

	payment, err := o.transactionRepo.FindByOrderID(ctx, order.ID)
	switch {
	case err == nil && !paysOrder(payment, order):
		// операция с id заказа не является его оплатой, настоящее списание уже не запишется.
		o.l.WithFields(logrus.Fields{
			"order_id":       order.ID,
			"transaction_id": payment.ID,
		}).Warn("transaction does not match order payment")
		if updErr := o.orderRepo.UpdateStatus(ctx, order.ID, domain.OrderStatusPaymentMissing); updErr != nil {
			return order.Status, fmt.Errorf("reconciling order `%s`: %w", order.ID, updErr)
		}
		return domain.OrderStatusPaymentMissing, nil
	case err == nil:
		if updErr := o.orderRepo.UpdateStatus(ctx, order.ID, domain.OrderStatusCompleted); updErr != nil {
			return order.Status, fmt.Errorf("reconciling order `%s`: %w", order.ID, updErr)
		}
		return domain.OrderStatusCompleted, nil
	case !errors.Is(err, domain.ErrRecordNotFound):
		return order.Status, fmt.Errorf("reconciling order `%s`: %w", order.ID, err)
	}

	if o.now().Sub(order.CreatedAt) < o.grace {
		return order.Status, nil
	}
	if updErr := o.orderRepo.UpdateStatus(ctx, order.ID, domain.OrderStatusPaymentMissing); updErr != nil {
		return order.Status, fmt.Errorf("reconciling order `%s`: %w", order.ID, updErr)
	}
	return domain.OrderStatusPaymentMissing, nil
}

// Unreconciled заказы с оплатой балансом, ожидающие оплаты дольше grace, начиная с самых старых.
func (o *OrderService) Unreconciled(ctx context.Context, limit uint) ([]domain.Order, error) {
	orders, err := o.orderRepo.ListUnreconciled(ctx, o.now().Add(-o.grace), limit)
	if err != nil {
		return nil, fmt.Errorf("listing unreconciled orders: %w", err)
	}
	return orders, nil
}

func (o *OrderService) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := o.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: `%s`", domain.ErrOrderNotFound, orderID)
		}
		return nil, err //nolint:wrapcheck
	}
	return order, nil
}

// precheckMember проверяет участника до записи заказа. Баланс здесь читается без блокировки
// и служит только для раннего отказа.
func (o *OrderService) precheckMember(ctx context.Context, args CheckoutArgs) error {
	if args.MemberID == nil {
		return nil
	}
	member, err := o.memberRepo.GetByID(ctx, *args.MemberID)
	if err != nil {
		return memberErr(*args.MemberID, err)
	}
	if args.PaymentMethod == domain.PaymentMemberBalance && member.Balance.LessThan(args.TotalAmount) {
		return fmt.Errorf("%w: balance %s, order total %s", domain.ErrInsufficientBalance,
			member.Balance.StringFixed(domain.CurrencyScale), args.TotalAmount.StringFixed(domain.CurrencyScale))
	}
	return nil
}

// setStatus обновляет статус после списания. Ошибка только логируется: сверка доведет заказ до нужного статуса.
func (o *OrderService) setStatus(
	ctx context.Context,
	l *logrus.Entry,
	order *domain.Order,
	status domain.OrderStatusType,
) {
	if err := o.orderRepo.UpdateStatus(ctx, order.ID, status); err != nil {
		l.WithError(err).WithField("status", status).Error("failed to update order status")
		return
	}
	order.Status = status
}

// paysOrder истинно для списания с участника заказа ровно на сумму заказа.
func paysOrder(t *domain.Transaction, order domain.Order) bool {
	return order.MemberID != nil &&
		t.MemberID == *order.MemberID &&
		t.Type == domain.TransactionConsumption &&
		t.Amount.Equal(order.TotalAmount.Neg())
}

// sameCheckout сравнивает повтор с сохраненным заказом. Позиции не сравниваются, их сумма уже в TotalAmount.
func sameCheckout(order *domain.Order, args CheckoutArgs) bool {
	if order.StoreID != args.StoreID ||
		order.PaymentMethod != args.PaymentMethod ||
		!order.TotalAmount.Equal(args.TotalAmount) {
		return false
	}
	switch {
	case order.MemberID == nil && args.MemberID == nil:
		return true
	case order.MemberID == nil || args.MemberID == nil:
		return false
	default:
		return *order.MemberID == *args.MemberID
	}
}

func validateCheckout(args CheckoutArgs) error {
	if args.StoreID == "" {
		return fmt.Errorf("%w: store is required", domain.ErrInvalidOrder)
	}
	if !args.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unknown payment method `%s`", domain.ErrInvalidOrder, args.PaymentMethod)
	}
	if args.PaymentMethod == domain.PaymentMemberBalance && (args.MemberID == nil || *args.MemberID == "") {
		return fmt.Errorf("%w: balance payment requires a member", domain.ErrInvalidOrder)
	}
	if len(args.Items) == 0 {
		return fmt.Errorf("%w: no items", domain.ErrInvalidOrder)
	}

	sum := decimal.Zero
	for i, item := range args.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %d quantity must be positive", domain.ErrInvalidOrder, i)
		}
		if err := domain.ValidateAmount(item.UnitPrice); err != nil {
			return fmt.Errorf("%w: item %d unit price: %w", domain.ErrInvalidOrder, i, err)
		}
		sum = sum.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if err := domain.ValidateAmount(args.TotalAmount); err != nil {
		return fmt.Errorf("%w: total: %w", domain.ErrInvalidOrder, err)
	}
	if !sum.Equal(args.TotalAmount) {
		return fmt.Errorf("%w: total %s does not match items sum %s", domain.ErrInvalidOrder,
			args.TotalAmount.StringFixed(domain.CurrencyScale), sum.StringFixed(domain.CurrencyScale))
	}
	return nil
}
