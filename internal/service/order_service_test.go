package service

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/repository/memrepo"
	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/fsdevblog/cafe-pos/internal/service/mocks"
	"github.com/fsdevblog/cafe-pos/internal/transport/events"
	"github.com/fsdevblog/cafe-pos/pkg/keylock"
	"github.com/fsdevblog/cafe-pos/pkg/uow"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

type OrderServiceTestSuite struct {
	suite.Suite
	now     time.Time
	store   *memrepo.Store
	uow     *memrepo.UnitOfWork
	logger  *logrus.Logger
	ledger  *LedgerService
	orders  *OrderService
	storeID string
}

func TestOrderServiceSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}

func (s *OrderServiceTestSuite) SetupTest() {
	s.now = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }
	s.store = memrepo.NewStore(memrepo.WithClock(clock))
	s.uow = memrepo.NewUnitOfWork(s.store)
	s.storeID = gofakeit.UUID()

	s.logger = logrus.New()
	s.logger.SetLevel(logrus.PanicLevel)

	ledger, err := NewLedgerService(s.uow, keylock.NewLocalLocker(), events.NoopPublisher{}, s.logger,
		WithLedgerClock(clock))
	s.Require().NoError(err)
	s.ledger = ledger

	s.orders = s.newOrderService(ledger)
}

func (s *OrderServiceTestSuite) newOrderService(payments OrderPaymentRecorder) *OrderService {
	orders, err := NewOrderService(s.uow, payments, s.logger,
		WithOrderClock(func() time.Time { return s.now }),
		WithReconcileGrace(time.Minute))
	s.Require().NoError(err)
	return orders
}

func (s *OrderServiceTestSuite) addMember(balance int64) string {
	return s.store.AddMember(domain.Member{
		Phone:   gofakeit.Numerify("09########"),
		Name:    gofakeit.Name(),
		Balance: decimal.NewFromInt(balance),
		StoreID: s.storeID,
	}).ID
}

func (s *OrderServiceTestSuite) balanceArgs(memberID string, quantity int, unitPrice int64) CheckoutArgs {
	return CheckoutArgs{
		StoreID:       s.storeID,
		MemberID:      &memberID,
		PaymentMethod: domain.PaymentMemberBalance,
		TotalAmount:   decimal.NewFromInt(int64(quantity) * unitPrice),
		Items: []CheckoutItem{
			{MenuItemID: gofakeit.UUID(), Quantity: quantity, UnitPrice: decimal.NewFromInt(unitPrice)},
		},
	}
}

func (s *OrderServiceTestSuite) TestCheckoutValidation() {
	memberID := s.addMember(1000)
	valid := s.balanceArgs(memberID, 2, 100)

	cases := []struct {
		name   string
		mutate func(a *CheckoutArgs)
	}{
		{name: "no items", mutate: func(a *CheckoutArgs) { a.Items = nil }},
		{name: "zero quantity", mutate: func(a *CheckoutArgs) { a.Items[0].Quantity = 0 }},
		{name: "zero unit price", mutate: func(a *CheckoutArgs) { a.Items[0].UnitPrice = decimal.Zero }},
		{name: "total mismatch", mutate: func(a *CheckoutArgs) { a.TotalAmount = decimal.NewFromInt(150) }},
		{name: "zero total", mutate: func(a *CheckoutArgs) { a.TotalAmount = decimal.Zero }},
		{name: "balance without member", mutate: func(a *CheckoutArgs) { a.MemberID = nil }},
		{name: "unknown payment", mutate: func(a *CheckoutArgs) { a.PaymentMethod = "card" }},
		{name: "no store", mutate: func(a *CheckoutArgs) { a.StoreID = "" }},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			args := valid
			args.Items = append([]CheckoutItem(nil), valid.Items...)
			tc.mutate(&args)

			_, err := s.orders.Checkout(s.T().Context(), args)
			s.Require().ErrorIs(err, domain.ErrInvalidOrder)
			s.Empty(s.store.Orders())
		})
	}
}

func (s *OrderServiceTestSuite) TestCheckoutWithBalance() {
	memberID := s.addMember(500)

	res, err := s.orders.Checkout(s.T().Context(), s.balanceArgs(memberID, 2, 100))
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusCompleted, res.Order.Status)
	s.Require().NotNil(res.Payment)
	s.Equal("300", res.Payment.Balance.String())
	s.Len(res.Order.Items, 1)

	stored, ok := s.store.Order(res.Order.ID)
	s.Require().True(ok)
	s.Equal(domain.OrderStatusCompleted, stored.Status)

	transactions := s.store.MemberTransactions(memberID)
	s.Require().Len(transactions, 1)
	s.Equal(res.Order.ID, *transactions[0].OrderID)
}

func (s *OrderServiceTestSuite) TestCheckoutPrecheckRejectsWithoutWrites() {
	memberID := s.addMember(50)

	_, err := s.orders.Checkout(s.T().Context(), s.balanceArgs(memberID, 2, 100))
	s.Require().ErrorIs(err, domain.ErrInsufficientBalance)
	s.Empty(s.store.Orders())
	s.Empty(s.store.MemberTransactions(memberID))
}

func (s *OrderServiceTestSuite) TestCheckoutUnknownMember() {
	_, err := s.orders.Checkout(s.T().Context(), s.balanceArgs(gofakeit.UUID(), 1, 10))
	s.Require().ErrorIs(err, domain.ErrMemberNotFound)
	s.Empty(s.store.Orders())
}

func (s *OrderServiceTestSuite) TestCheckoutCash() {
	memberID := s.addMember(10)
	args := s.balanceArgs(memberID, 3, 20)
	args.PaymentMethod = domain.PaymentCash

	res, err := s.orders.Checkout(s.T().Context(), args)
	s.Require().NoError(err)
	s.Nil(res.Payment)
	s.Equal(domain.OrderStatusCompleted, res.Order.Status)
	s.Empty(s.store.MemberTransactions(memberID))
}

func (s *OrderServiceTestSuite) TestCheckoutPaymentOutcomes() {
	cases := []struct {
		name       string
		payErr     error
		wantStatus domain.OrderStatusType
	}{
		{
			name:       "rejected after write cancels order",
			payErr:     domain.ErrInsufficientBalance,
			wantStatus: domain.OrderStatusCancelled,
		},
		{
			name:       "uncertain leaves order pending",
			payErr:     domain.NewPersistenceError(domain.WriteUncertain, "m", domain.ErrUnknown),
			wantStatus: domain.OrderStatusPending,
		},
		{
			name:       "confirmed failure leaves order pending",
			payErr:     domain.NewPersistenceError(domain.WriteConfirmedFailed, "m", domain.ErrUnknown),
			wantStatus: domain.OrderStatusPending,
		},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.SetupTest()
			ctrl := gomock.NewController(s.T())
			recorder := mocks.NewMockOrderPaymentRecorder(ctrl)
			recorder.EXPECT().RecordOrderPayment(gomock.Any(), gomock.Any()).Return(nil, tc.payErr)
			orders := s.newOrderService(recorder)

			memberID := s.addMember(500)
			_, err := orders.Checkout(s.T().Context(), s.balanceArgs(memberID, 1, 100))
			s.Require().ErrorIs(err, tc.payErr)

			stored := s.store.Orders()
			s.Require().Len(stored, 1)
			s.Equal(tc.wantStatus, stored[0].Status)
		})
	}
}

func (s *OrderServiceTestSuite) TestReconcile() {
	ctrl := gomock.NewController(s.T())
	recorder := mocks.NewMockOrderPaymentRecorder(ctrl)
	lost := domain.NewPersistenceError(domain.WriteUncertain, "m", domain.ErrUnknown)
	recorder.EXPECT().RecordOrderPayment(gomock.Any(), gomock.Any()).Return(nil, lost).Times(2)
	orders := s.newOrderService(recorder)

	paidMember := s.addMember(500)
	unpaidMember := s.addMember(500)

	_, err := orders.Checkout(s.T().Context(), s.balanceArgs(paidMember, 1, 100))
	s.Require().ErrorIs(err, domain.ErrPersistenceFailure)
	_, err = orders.Checkout(s.T().Context(), s.balanceArgs(unpaidMember, 1, 100))
	s.Require().ErrorIs(err, domain.ErrPersistenceFailure)

	var paidOrder, unpaidOrder domain.Order
	for _, o := range s.store.Orders() {
		if *o.MemberID == paidMember {
			paidOrder = o
		} else {
			unpaidOrder = o
		}
	}

	// списание по первому заказу на самом деле прошло.
	_, err = s.ledger.RecordOrderPayment(s.T().Context(), paidOrder)
	s.Require().NoError(err)

	// до истечения grace заказ без списания не трогается.
	unreconciled, err := orders.Unreconciled(s.T().Context(), 10)
	s.Require().NoError(err)
	s.Empty(unreconciled)
	status, err := orders.Reconcile(s.T().Context(), unpaidOrder)
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusPending, status)

	s.now = s.now.Add(2 * time.Minute)
	unreconciled, err = orders.Unreconciled(s.T().Context(), 10)
	s.Require().NoError(err)
	s.Len(unreconciled, 2)

	for _, o := range unreconciled {
		_, err = orders.Reconcile(s.T().Context(), o)
		s.Require().NoError(err)
	}

	got, _ := s.store.Order(paidOrder.ID)
	s.Equal(domain.OrderStatusCompleted, got.Status)
	got, _ = s.store.Order(unpaidOrder.ID)
	s.Equal(domain.OrderStatusPaymentMissing, got.Status)

	// заказ без оплаты не списывается автоматически.
	m, _ := s.store.Member(unpaidMember)
	s.Equal("500", m.Balance.String())
}

// pendingOrder оформляет заказ, оплата которого потерялась: заказ остается pending без списания.
func (s *OrderServiceTestSuite) pendingOrder(args CheckoutArgs) domain.Order {
	ctrl := gomock.NewController(s.T())
	recorder := mocks.NewMockOrderPaymentRecorder(ctrl)
	lost := domain.NewPersistenceError(domain.WriteUncertain, "m", domain.ErrUnknown)
	recorder.EXPECT().RecordOrderPayment(gomock.Any(), gomock.Any()).Return(nil, lost)

	_, err := s.newOrderService(recorder).Checkout(s.T().Context(), args)
	s.Require().ErrorIs(err, domain.ErrPersistenceFailure)

	for _, o := range s.store.Orders() {
		if o.Status == domain.OrderStatusPending {
			return o
		}
	}
	s.FailNow("pending order not found")
	return domain.Order{}
}

func (s *OrderServiceTestSuite) TestForeignConsumptionCannotClaimOrder() {
	owner := s.addMember(500)
	stranger := s.addMember(500)
	order := s.pendingOrder(s.balanceArgs(owner, 1, 200))

	cases := []struct {
		name string
		args ApplyTransactionArgs
	}{
		{
			name: "another member",
			args: ApplyTransactionArgs{
				MemberID: stranger, Type: domain.TransactionConsumption, Amount: decimal.NewFromInt(200),
			},
		},
		{
			name: "partial amount",
			args: ApplyTransactionArgs{
				MemberID: owner, Type: domain.TransactionConsumption, Amount: decimal.NewFromInt(1),
			},
		},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			args := tc.args
			args.OrderID = &order.ID
			_, err := s.ledger.ApplyTransaction(s.T().Context(), args)
			s.Require().ErrorIs(err, domain.ErrInvalidOrder)
		})
	}
	s.Empty(s.store.MemberTransactions(stranger))
	s.Empty(s.store.MemberTransactions(owner))

	// настоящая оплата заказа проходит.
	res, err := s.ledger.RecordOrderPayment(s.T().Context(), order)
	s.Require().NoError(err)
	s.Equal("300", res.Balance.String())

	s.now = s.now.Add(2 * time.Minute)
	status, err := s.orders.Reconcile(s.T().Context(), order)
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusCompleted, status)
}

func (s *OrderServiceTestSuite) TestReconcileFlagsMismatchedPayment() {
	owner := s.addMember(500)
	stranger := s.addMember(500)
	order := s.pendingOrder(s.balanceArgs(owner, 1, 200))

	// операция, записанная в обход проверок сервиса.
	repo, err := uow.GetRepositoryAs[TransactionRepository](s.uow, uow.RepositoryName(repoargs.TransactionRepoName))
	s.Require().NoError(err)
	_, err = repo.Create(s.T().Context(), repoargs.CreateTransaction{
		MemberID:         stranger,
		StoreID:          s.storeID,
		Type:             domain.TransactionConsumption,
		Amount:           decimal.NewFromInt(-1),
		ResultingBalance: decimal.NewFromInt(499),
		OrderID:          &order.ID,
		CreatedAt:        s.now,
	})
	s.Require().NoError(err)

	// несовпадение видно сразу, ждать grace не нужно.
	status, err := s.orders.Reconcile(s.T().Context(), order)
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusPaymentMissing, status)

	got, _ := s.store.Order(order.ID)
	s.Equal(domain.OrderStatusPaymentMissing, got.Status)
	m, _ := s.store.Member(owner)
	s.Equal("500", m.Balance.String())
}

func (s *OrderServiceTestSuite) TestCheckoutReplayWithSameKey() {
	memberID := s.addMember(500)
	args := s.balanceArgs(memberID, 2, 100)
	args.IdempotencyKey = "checkout-1"

	first, err := s.orders.Checkout(s.T().Context(), args)
	s.Require().NoError(err)
	s.False(first.Replayed)

	again, err := s.orders.Checkout(s.T().Context(), args)
	s.Require().NoError(err)
	s.True(again.Replayed)
	s.Equal(first.Order.ID, again.Order.ID)
	s.Equal(domain.OrderStatusCompleted, again.Order.Status)

	s.Len(s.store.Orders(), 1)
	s.Len(s.store.MemberTransactions(memberID), 1)
	m, _ := s.store.Member(memberID)
	s.Equal("300", m.Balance.String())
}

func (s *OrderServiceTestSuite) TestCheckoutKeyReusedWithOtherParams() {
	memberID := s.addMember(500)
	args := s.balanceArgs(memberID, 2, 100)
	args.IdempotencyKey = "checkout-1"

	_, err := s.orders.Checkout(s.T().Context(), args)
	s.Require().NoError(err)

	other := s.balanceArgs(memberID, 1, 100)
	other.IdempotencyKey = "checkout-1"
	_, err = s.orders.Checkout(s.T().Context(), other)
	s.Require().ErrorIs(err, domain.ErrDuplicateOperation)
	s.Len(s.store.Orders(), 1)
}

func (s *OrderServiceTestSuite) TestCheckoutReplayRetriesLostPayment() {
	memberID := s.addMember(500)
	args := s.balanceArgs(memberID, 1, 150)
	args.IdempotencyKey = "checkout-1"
	order := s.pendingOrder(args)

	res, err := s.orders.Checkout(s.T().Context(), args)
	s.Require().NoError(err)
	s.True(res.Replayed)
	s.Equal(order.ID, res.Order.ID)
	s.Equal(domain.OrderStatusCompleted, res.Order.Status)
	s.Require().NotNil(res.Payment)
	s.Equal("350", res.Payment.Balance.String())

	s.Len(s.store.Orders(), 1)
	s.Len(s.store.MemberTransactions(memberID), 1)
}
