package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/repository/memrepo"
	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/fsdevblog/cafe-pos/internal/transport/events"
	"github.com/fsdevblog/cafe-pos/pkg/keylock"
	"github.com/fsdevblog/cafe-pos/pkg/uow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"
)

// rowLockOnly не блокирует ничего: корректность обеспечивает только блокировка строки участника.
type rowLockOnly struct{}

func (rowLockOnly) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}

type LedgerConcurrencyTestSuite struct {
	suite.Suite
	store   *memrepo.Store
	uow     *memrepo.UnitOfWork
	ledger  *LedgerService
	storeID string
}

func TestLedgerConcurrencySuite(t *testing.T) {
	suite.Run(t, new(LedgerConcurrencyTestSuite))
}

func (s *LedgerConcurrencyTestSuite) SetupTest() {
	s.setup(keylock.NewLocalLocker())
}

func (s *LedgerConcurrencyTestSuite) setup(locker MemberLocker) {
	s.store = memrepo.NewStore()
	s.uow = memrepo.NewUnitOfWork(s.store)
	s.storeID = gofakeit.UUID()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	ledger, err := NewLedgerService(s.uow, locker, events.NoopPublisher{}, logger)
	s.Require().NoError(err)
	s.ledger = ledger
}

func (s *LedgerConcurrencyTestSuite) addMember(balance int64) domain.Member {
	return s.store.AddMember(domain.Member{
		Phone:   gofakeit.Numerify("09########"),
		Name:    gofakeit.Name(),
		Balance: decimal.NewFromInt(balance),
		StoreID: s.storeID,
	})
}

func (s *LedgerConcurrencyTestSuite) apply(
	memberID string,
	t domain.TransactionType,
	amount int64,
	key string,
) (*domain.LedgerResult, error) {
	return s.ledger.ApplyTransaction(context.Background(), ApplyTransactionArgs{
		MemberID:       memberID,
		StoreID:        s.storeID,
		Type:           t,
		Amount:         decimal.NewFromInt(amount),
		IdempotencyKey: key,
	})
}

func (s *LedgerConcurrencyTestSuite) balanceOf(memberID string) decimal.Decimal {
	m, ok := s.store.Member(memberID)
	s.Require().True(ok)
	return m.Balance
}

func (s *LedgerConcurrencyTestSuite) TestDepositScenario() {
	member := s.addMember(100)

	res, err := s.apply(member.ID, domain.TransactionDeposit, 50, "")
	s.Require().NoError(err)
	s.Equal("150", res.Balance.String())

	transactions := s.store.MemberTransactions(member.ID)
	s.Require().Len(transactions, 1)
	s.Equal("50", transactions[0].Amount.String())
	s.Equal("150", transactions[0].ResultingBalance.String())
	s.Equal("150", s.balanceOf(member.ID).String())
}

func (s *LedgerConcurrencyTestSuite) TestInsufficientBalanceScenario() {
	member := s.addMember(30)

	_, err := s.apply(member.ID, domain.TransactionConsumption, 50, "")
	s.Require().ErrorIs(err, domain.ErrInsufficientBalance)

	after, _ := s.store.Member(member.ID)
	s.Equal("30", after.Balance.String())
	s.Nil(after.LastBalanceUpdate)
	s.Empty(s.store.MemberTransactions(member.ID))
}

func (s *LedgerConcurrencyTestSuite) TestConcurrentConsumptionsScenario() {
	lockers := map[string]MemberLocker{
		"member lock": keylock.NewLocalLocker(),
		"row lock":    rowLockOnly{},
	}
	for name, locker := range lockers {
		s.Run(name, func() {
			s.setup(locker)
			member := s.addMember(100)

			var succeeded, rejected atomic.Int32
			var g errgroup.Group
			for range 2 {
				g.Go(func() error {
					_, err := s.apply(member.ID, domain.TransactionConsumption, 60, "")
					switch {
					case err == nil:
						succeeded.Add(1)
					case errors.Is(err, domain.ErrInsufficientBalance):
						rejected.Add(1)
					default:
						return err
					}
					return nil
				})
			}
			s.Require().NoError(g.Wait())

			s.Equal(int32(1), succeeded.Load())
			s.Equal(int32(1), rejected.Load())
			s.Equal("40", s.balanceOf(member.ID).String())

			transactions := s.store.MemberTransactions(member.ID)
			s.Require().Len(transactions, 1)
			s.Equal("-60", transactions[0].Amount.String())
		})
	}
}

func (s *LedgerConcurrencyTestSuite) TestOrderPaymentScenario() {
	member := s.addMember(500)
	order := s.createOrder(member.ID, 200)

	res, err := s.ledger.RecordOrderPayment(s.T().Context(), order)
	s.Require().NoError(err)
	s.Equal("300", res.Balance.String())

	transactions := s.store.MemberTransactions(member.ID)
	s.Require().Len(transactions, 1)
	s.Equal(domain.TransactionConsumption, transactions[0].Type)
	s.Equal("-200", transactions[0].Amount.String())
	s.Require().NotNil(transactions[0].OrderID)
	s.Equal(order.ID, *transactions[0].OrderID)

	// повторный вызов для того же заказа не списывает второй раз.
	again, err := s.ledger.RecordOrderPayment(s.T().Context(), order)
	s.Require().NoError(err)
	s.True(again.Replayed)
	s.Equal("300", s.balanceOf(member.ID).String())
	s.Len(s.store.MemberTransactions(member.ID), 1)
}

func (s *LedgerConcurrencyTestSuite) TestConservationUnderLoad() {
	lockers := map[string]MemberLocker{
		"member lock": keylock.NewLocalLocker(),
		"row lock":    rowLockOnly{},
	}
	for name, locker := range lockers {
		s.Run(name, func() {
			s.setup(locker)
			member := s.addMember(0)
			_, err := s.apply(member.ID, domain.TransactionDeposit, 100, "")
			s.Require().NoError(err)

			var deposited, consumed atomic.Int64
			var g errgroup.Group
			for i := range 100 {
				amount := int64(gofakeit.Number(1, 40))
				t := domain.TransactionConsumption
				if i%3 == 0 {
					t = domain.TransactionDeposit
				}
				g.Go(func() error {
					_, applyErr := s.apply(member.ID, t, amount, "")
					switch {
					case applyErr == nil && t == domain.TransactionDeposit:
						deposited.Add(amount)
					case applyErr == nil:
						consumed.Add(amount)
					case !errors.Is(applyErr, domain.ErrInsufficientBalance):
						return applyErr
					}
					return nil
				})
			}
			s.Require().NoError(g.Wait())

			want := decimal.NewFromInt(100 + deposited.Load() - consumed.Load())
			s.True(s.balanceOf(member.ID).Equal(want), "balance %s, want %s", s.balanceOf(member.ID), want)

			running := decimal.Zero
			for _, tr := range s.store.MemberTransactions(member.ID) {
				running = running.Add(tr.Amount)
				s.False(tr.ResultingBalance.IsNegative())
				s.True(running.Equal(tr.ResultingBalance), "journal must be linearizable")
			}

			report, err := s.ledger.Audit(s.T().Context(), member.ID)
			s.Require().NoError(err)
			s.True(report.Consistent)
		})
	}
}

func (s *LedgerConcurrencyTestSuite) TestIdempotentRetry() {
	member := s.addMember(10)

	var replayed atomic.Int32
	var g errgroup.Group
	for range 10 {
		g.Go(func() error {
			res, err := s.apply(member.ID, domain.TransactionDeposit, 25, "retry-1")
			if err != nil {
				return err
			}
			if res.Replayed {
				replayed.Add(1)
			}
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	s.Equal(int32(9), replayed.Load())
	s.Equal("35", s.balanceOf(member.ID).String())
	s.Len(s.store.MemberTransactions(member.ID), 1)

	_, err := s.apply(member.ID, domain.TransactionDeposit, 30, "retry-1")
	s.Require().ErrorIs(err, domain.ErrDuplicateOperation)
}

func (s *LedgerConcurrencyTestSuite) TestUncertainAttemptResolution() {
	member := s.addMember(100)

	s.store.FailNextCommit(memrepo.CommitFault{Err: errors.New("connection lost"), Applied: true})
	_, err := s.apply(member.ID, domain.TransactionConsumption, 40, "pay-1")
	var persistenceErr *domain.PersistenceError
	s.Require().ErrorAs(err, &persistenceErr)
	s.True(persistenceErr.Uncertain())

	resolution, err := s.ledger.ResolveAttempt(s.T().Context(), "pay-1")
	s.Require().NoError(err)
	s.Equal(domain.AttemptCommitted, resolution.State)

	// повтор после неопределенного исхода не списывает второй раз.
	res, err := s.apply(member.ID, domain.TransactionConsumption, 40, "pay-1")
	s.Require().NoError(err)
	s.True(res.Replayed)
	s.Equal("60", s.balanceOf(member.ID).String())

	s.store.FailNextCommit(memrepo.CommitFault{Err: errors.New("connection lost"), Applied: false})
	_, err = s.apply(member.ID, domain.TransactionConsumption, 10, "pay-2")
	s.Require().ErrorAs(err, &persistenceErr)
	s.True(persistenceErr.Uncertain())

	resolution, err = s.ledger.ResolveAttempt(s.T().Context(), "pay-2")
	s.Require().NoError(err)
	s.Equal(domain.AttemptNotApplied, resolution.State)
	s.Equal("60", s.balanceOf(member.ID).String())
}

func (s *LedgerConcurrencyTestSuite) createOrder(memberID string, total int64) domain.Order {
	repo, err := uow.GetRepositoryAs[OrderRepository](s.uow, uow.RepositoryName(repoargs.OrderRepoName))
	s.Require().NoError(err)
	order, err := repo.Create(s.T().Context(), repoargs.CreateOrder{
		StoreID:       s.storeID,
		MemberID:      &memberID,
		TotalAmount:   decimal.NewFromInt(total),
		PaymentMethod: domain.PaymentMemberBalance,
		Status:        domain.OrderStatusPending,
		Items: []repoargs.CreateOrderItem{
			{MenuItemID: gofakeit.UUID(), Quantity: 1, UnitPrice: decimal.NewFromInt(total)},
		},
	})
	s.Require().NoError(err)
	return *order
}
