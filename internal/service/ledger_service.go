package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/fsdevblog/cafe-pos/pkg/uow"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	DefaultLockTimeout    = 5 * time.Second
	defaultPublishTimeout = 3 * time.Second
	orderPaymentKeyPrefix = "order-payment:"
	memberLockPrefix      = "member:"
)

type ApplyTransactionArgs struct {
	MemberID string
	StoreID  string
	Type     domain.TransactionType
	Amount   decimal.Decimal
	// OrderID заказ, который оплачивается списанием. Заказ должен ожидать оплаты балансом этого участника
	// на ту же сумму.
	OrderID *string
	// IdempotencyKey необязателен. Повтор с тем же ключом и параметрами не изменяет баланс повторно.
	IdempotencyKey string
}

type LedgerService struct {
	uow             uow.UOW
	memberRepo      MemberRepository
	transactionRepo TransactionRepository
	locker          MemberLocker
	publisher       LedgerEventPublisher
	lockTimeout     time.Duration
	now             func() time.Time
	l               *logrus.Entry
}

type LedgerOption func(*LedgerService)

func WithLockTimeout(d time.Duration) LedgerOption {
	return func(s *LedgerService) {
		s.lockTimeout = d
	}
}

func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(s *LedgerService) {
		s.now = now
	}
}

func NewLedgerService(
	u uow.UOW,
	locker MemberLocker,
	publisher LedgerEventPublisher,
	l *logrus.Logger,
	opts ...LedgerOption,
) (*LedgerService, error) {
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
	s := &LedgerService{
		uow:             u,
		memberRepo:      memberRepo,
		transactionRepo: transactionRepo,
		locker:          locker,
		publisher:       publisher,
		lockTimeout:     DefaultLockTimeout,
		now:             time.Now,
		l:               l.WithFields(logrus.Fields{"component": "service", "module": "ledger"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ApplyTransaction изменяет баланс участника и записывает операцию в журнал.
//
// Алгоритм работы:
//  1. Проверяет аргументы до любых обращений к хранилищу.
//  2. Захватывает блокировку участника, затем внутри транзакции БД блокирует его строку.
//  3. Ищет операцию с тем же ключом идемпотентности. Совпадение параметров - возвращает ее результат,
//     расхождение - ErrDuplicateOperation.
//  4. Для оплаты заказа сверяет операцию с заказом: участник, сумма, способ оплаты и статус pending.
//  5. Считает новый баланс. Списание в минус - ErrInsufficientBalance, без записей.
//  6. Добавляет запись в журнал и обновляет баланс, возвращая значение, сохраненное в БД.
//
// Ошибки записи возвращаются как *domain.PersistenceError. WriteUncertain означает, что операция могла
// зафиксироваться: перед повтором нужно вызвать ResolveAttempt или перечитать баланс.
func (s *LedgerService) ApplyTransaction(
	ctx context.Context,
	args ApplyTransactionArgs,
) (*domain.LedgerResult, error) {
	delta, err := s.validate(args)
	if err != nil {
		return nil, err
	}

	l := s.l.WithFields(logrus.Fields{
		"member_id":       args.MemberID,
		"type":            args.Type,
		"amount":          args.Amount.String(),
		"idempotency_key": args.IdempotencyKey,
	})

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	unlock, err := s.locker.Lock(lockCtx, memberLockPrefix+args.MemberID)
	cancel()
	if err != nil {
		return nil, domain.NewPersistenceError(
			domain.WriteConfirmedFailed, args.MemberID, errors.Join(domain.ErrLedgerBusy, err),
		)
	}
	defer unlock()

	var result *domain.LedgerResult
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		var applyErr error
		result, applyErr = s.apply(c, tx, args, delta)
		return applyErr
	})

	if txErr != nil {
		return nil, s.classify(l, args.MemberID, txErr)
	}

	if result.Replayed {
		l.WithField("transaction_id", result.Transaction.ID).Info("idempotent replay")
		return result, nil
	}
	l.WithFields(logrus.Fields{
		"transaction_id": result.Transaction.ID,
		"balance":        result.Balance.String(),
	}).Info("transaction committed")
	s.publish(ctx, *result.Transaction)
	return result, nil
}

// RecordOrderPayment списывает с баланса участника сумму заказа. Заказ уже должен быть сохранен.
// Ключ идемпотентности выводится из id заказа, поэтому повторный вызов не спишет деньги дважды.
func (s *LedgerService) RecordOrderPayment(ctx context.Context, order domain.Order) (*domain.LedgerResult, error) {
	if order.PaymentMethod != domain.PaymentMemberBalance {
		return nil, fmt.Errorf("%w: order `%s` is paid by %s", domain.ErrInvalidOrder, order.ID, order.PaymentMethod)
	}
	if order.MemberID == nil || *order.MemberID == "" {
		return nil, fmt.Errorf("%w: balance payment requires a member", domain.ErrMemberNotFound)
	}
	orderID := order.ID
	return s.ApplyTransaction(ctx, ApplyTransactionArgs{
		MemberID:       *order.MemberID,
		StoreID:        order.StoreID,
		Type:           domain.TransactionConsumption,
		Amount:         order.TotalAmount,
		OrderID:        &orderID,
		IdempotencyKey: OrderPaymentKey(order.ID),
	})
}

// OrderPaymentKey ключ идемпотентности оплаты заказа балансом.
func OrderPaymentKey(orderID string) string {
	return orderPaymentKeyPrefix + orderID
}

// ResolveAttempt переводит неопределенную попытку в Committed или NotApplied по ключу идемпотентности.
func (s *LedgerService) ResolveAttempt(
	ctx context.Context,
	idempotencyKey string,
) (*domain.AttemptResolution, error) {
	if idempotencyKey == "" {
		return nil, fmt.Errorf("%w: idempotency key is required", domain.ErrInvalidTransaction)
	}
	transaction, err := s.transactionRepo.FindByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return &domain.AttemptResolution{State: domain.AttemptNotApplied}, nil
		}
		return nil, fmt.Errorf("resolving attempt `%s`: %w", idempotencyKey, err)
	}
	return &domain.AttemptResolution{State: domain.AttemptCommitted, Transaction: transaction}, nil
}

// History операции по фильтру, новые первыми.
func (s *LedgerService) History(
	ctx context.Context,
	filter repoargs.TransactionFilter,
) ([]domain.Transaction, error) {
	transactions, err := s.transactionRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	return transactions, nil
}

// Audit сверяет баланс участника с суммой его операций. Строка участника блокируется на время чтения,
// поэтому обе величины согласованы между собой.
func (s *LedgerService) Audit(ctx context.Context, memberID string) (*domain.AuditReport, error) {
	var report *domain.AuditReport
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		memberRepo, err := uow.GetAs[MemberRepository](tx, uow.RepositoryName(repoargs.MemberRepoName))
		if err != nil {
			return err //nolint:wrapcheck
		}
		transactionRepo, err := uow.GetAs[TransactionRepository](tx, uow.RepositoryName(repoargs.TransactionRepoName))
		if err != nil {
			return err //nolint:wrapcheck
		}
		member, err := memberRepo.GetByIDForUpdate(c, memberID)
		if err != nil {
			return memberErr(memberID, err)
		}
		sum, err := transactionRepo.SumByMember(c, memberID)
		if err != nil {
			return err //nolint:wrapcheck
		}
		report = &domain.AuditReport{
			MemberID:       memberID,
			Balance:        member.Balance,
			TransactionSum: sum,
			Consistent:     member.Balance.Equal(sum),
		}
		return nil
	})
	if txErr != nil {
		return nil, fmt.Errorf("auditing member `%s`: %w", memberID, txErr)
	}
	if !report.Consistent {
		s.l.WithFields(logrus.Fields{
			"member_id":       memberID,
			"balance":         report.Balance.String(),
			"transaction_sum": report.TransactionSum.String(),
		}).Warn("balance does not match transaction journal")
	}
	return report, nil
}

func (s *LedgerService) validate(args ApplyTransactionArgs) (decimal.Decimal, error) {
	if args.MemberID == "" {
		return decimal.Zero, fmt.Errorf("%w: empty member id", domain.ErrMemberNotFound)
	}
	if !args.Type.Valid() {
		return decimal.Zero, fmt.Errorf("%w: `%s`", domain.ErrInvalidTransaction, args.Type)
	}
	if err := domain.ValidateAmount(args.Amount); err != nil {
		return decimal.Zero, err //nolint:wrapcheck
	}
	if args.StoreID != "" {
		if _, err := uuid.Parse(args.StoreID); err != nil {
			return decimal.Zero, fmt.Errorf("%w: `%s`", domain.ErrUnknownStore, args.StoreID)
		}
	}
	if args.OrderID != nil {
		if args.Type != domain.TransactionConsumption {
			return decimal.Zero, fmt.Errorf("%w: only consumption can pay an order", domain.ErrInvalidOrder)
		}
		if _, err := uuid.Parse(*args.OrderID); err != nil {
			return decimal.Zero, fmt.Errorf("%w: `%s`", domain.ErrOrderNotFound, *args.OrderID)
		}
	}
	return domain.SignedDelta(args.Type, args.Amount) //nolint:wrapcheck
}

func (s *LedgerService) apply(
	ctx context.Context,
	tx uow.TX,
	args ApplyTransactionArgs,
	delta decimal.Decimal,
) (*domain.LedgerResult, error) {
	memberRepo, err := uow.GetAs[MemberRepository](tx, uow.RepositoryName(repoargs.MemberRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	transactionRepo, err := uow.GetAs[TransactionRepository](tx, uow.RepositoryName(repoargs.TransactionRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	member, err := memberRepo.GetByIDForUpdate(ctx, args.MemberID)
	if err != nil {
		return nil, memberErr(args.MemberID, err)
	}

	var key *string
	if args.IdempotencyKey != "" {
		key = &args.IdempotencyKey
		existing, findErr := transactionRepo.FindByIdempotencyKey(ctx, args.IdempotencyKey)
		switch {
		case findErr == nil:
			if !sameOperation(existing, args, delta) {
				return nil, fmt.Errorf("%w: key `%s`", domain.ErrDuplicateOperation, args.IdempotencyKey)
			}
			return &domain.LedgerResult{Transaction: existing, Balance: existing.ResultingBalance, Replayed: true}, nil
		case !errors.Is(findErr, domain.ErrRecordNotFound):
			return nil, findErr //nolint:wrapcheck
		}
	}

	if args.OrderID != nil {
		if err = checkOrderPayment(ctx, tx, args); err != nil {
			return nil, err
		}
	}

	newBalance := member.Balance.Add(delta)
	if newBalance.IsNegative() {
		return nil, fmt.Errorf("%w: balance %s, requested %s",
			domain.ErrInsufficientBalance, member.Balance.StringFixed(domain.CurrencyScale),
			args.Amount.StringFixed(domain.CurrencyScale))
	}

	storeID := args.StoreID
	if storeID == "" {
		storeID = member.StoreID
	}
	now := s.now()
	transaction, err := transactionRepo.Create(ctx, repoargs.CreateTransaction{
		MemberID:         args.MemberID,
		StoreID:          storeID,
		Type:             args.Type,
		Amount:           delta,
		ResultingBalance: newBalance,
		OrderID:          args.OrderID,
		IdempotencyKey:   key,
		CreatedAt:        now,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateKey):
			// ключ или заказ заняты операцией другого участника.
			return nil, fmt.Errorf("%w: %w", domain.ErrDuplicateOperation, err)
		case errors.Is(err, domain.ErrForeignKey):
			// участник заблокирован, заказ проверен выше, остается точка.
			return nil, fmt.Errorf("%w: `%s`: %w", domain.ErrUnknownStore, storeID, err)
		}
		return nil, err //nolint:wrapcheck
	}

	persisted, err := memberRepo.UpdateBalance(ctx, args.MemberID, newBalance, now)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	if !persisted.Equal(newBalance) {
		return nil, fmt.Errorf("persisted balance %s differs from computed %s", persisted, newBalance)
	}
	return &domain.LedgerResult{Transaction: transaction, Balance: persisted}, nil
}

// classify отделяет отказы валидации от ошибок записи.
func (s *LedgerService) classify(l *logrus.Entry, memberID string, err error) error {
	if domain.IsRejection(err) {
		l.WithError(err).Info("transaction rejected")
		return err
	}
	if uow.IsCommitError(err) {
		l.WithError(err).Error("transaction outcome is uncertain")
		return domain.NewPersistenceError(domain.WriteUncertain, memberID, err)
	}
	l.WithError(err).Error("transaction rolled back")
	return domain.NewPersistenceError(domain.WriteConfirmedFailed, memberID, err)
}

func (s *LedgerService) publish(ctx context.Context, t domain.Transaction) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultPublishTimeout)
	defer cancel()
	if err := s.publisher.TransactionCommitted(pubCtx, t); err != nil {
		s.l.WithError(err).WithField("transaction_id", t.ID).Warn("failed to publish ledger event")
	}
}

// checkOrderPayment проверяет, что списание оплачивает ожидающий оплаты балансом заказ этого участника
// ровно на сумму заказа.
func checkOrderPayment(ctx context.Context, tx uow.TX, args ApplyTransactionArgs) error {
	orderRepo, err := uow.GetAs[OrderRepository](tx, uow.RepositoryName(repoargs.OrderRepoName))
	if err != nil {
		return err //nolint:wrapcheck
	}
	order, err := orderRepo.GetByID(ctx, *args.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return fmt.Errorf("%w: `%s`", domain.ErrOrderNotFound, *args.OrderID)
		}
		return err //nolint:wrapcheck
	}
	switch {
	case order.PaymentMethod != domain.PaymentMemberBalance:
		return fmt.Errorf("%w: order `%s` is paid by %s", domain.ErrInvalidOrder, order.ID, order.PaymentMethod)
	case order.Status != domain.OrderStatusPending:
		return fmt.Errorf("%w: order `%s` is %s", domain.ErrInvalidOrder, order.ID, order.Status)
	case order.MemberID == nil || *order.MemberID != args.MemberID:
		return fmt.Errorf("%w: order `%s` belongs to another member", domain.ErrInvalidOrder, order.ID)
	case !order.TotalAmount.Equal(args.Amount):
		return fmt.Errorf("%w: order `%s` total is %s", domain.ErrInvalidOrder, order.ID,
			order.TotalAmount.StringFixed(domain.CurrencyScale))
	}
	return nil
}

func sameOperation(existing *domain.Transaction, args ApplyTransactionArgs, delta decimal.Decimal) bool {
	if existing.MemberID != args.MemberID || existing.Type != args.Type || !existing.Amount.Equal(delta) {
		return false
	}
	if args.StoreID != "" && existing.StoreID != args.StoreID {
		return false
	}
	switch {
	case existing.OrderID == nil && args.OrderID == nil:
		return true
	case existing.OrderID == nil || args.OrderID == nil:
		return false
	default:
		return *existing.OrderID == *args.OrderID
	}
}

func memberErr(memberID string, err error) error {
	if errors.Is(err, domain.ErrRecordNotFound) {
		return fmt.Errorf("%w: `%s`", domain.ErrMemberNotFound, memberID)
	}
	return err
}
