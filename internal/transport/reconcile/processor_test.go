package reconcile

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/transport/reconcile/mocks"
	"github.com/golang/mock/gomock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

type ProcessorTestSuite struct {
	suite.Suite
	processor   *Processor
	mockService *mocks.MockServicer
	ctrl        *gomock.Controller
}

func (s *ProcessorTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockService = mocks.NewMockServicer(s.ctrl)

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	s.processor = New(s.mockService, logger).
		SetWorkers(3).
		SetLimitPerIteration(10).
		SetInterval(10 * time.Millisecond)
}

func TestProcessorSuite(t *testing.T) {
	suite.Run(t, new(ProcessorTestSuite))
}

func pendingOrder(id string) domain.Order {
	memberID := "m-" + id
	return domain.Order{
		ID:            id,
		MemberID:      &memberID,
		PaymentMethod: domain.PaymentMemberBalance,
		Status:        domain.OrderStatusPending,
		CreatedAt:     time.Now().Add(-time.Hour),
	}
}

// TestProcess_NoOrders нет заказов для сверки.
func (s *ProcessorTestSuite) TestProcess_NoOrders() {
	s.mockService.EXPECT().Unreconciled(gomock.Any(), uint(10)).Return([]domain.Order{}, nil)

	processed, err := s.processor.process(s.T().Context())
	s.Require().ErrorIs(err, ErrNoOrders)
	s.Zero(processed)
}

// TestProcess_Success каждый заказ сверяется ровно один раз.
func (s *ProcessorTestSuite) TestProcess_Success() {
	orders := []domain.Order{pendingOrder("1"), pendingOrder("2"), pendingOrder("3"), pendingOrder("4")}
	s.mockService.EXPECT().Unreconciled(gomock.Any(), uint(10)).Return(orders, nil)

	var calls atomic.Int32
	s.mockService.EXPECT().Reconcile(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, order domain.Order) (domain.OrderStatusType, error) {
			calls.Add(1)
			if order.ID == "2" {
				return domain.OrderStatusPaymentMissing, nil
			}
			return domain.OrderStatusCompleted, nil
		}).Times(len(orders))

	processed, err := s.processor.process(s.T().Context())
	s.Require().NoError(err)
	s.Equal(uint(len(orders)), processed)
	s.Equal(int32(len(orders)), calls.Load())
}

// TestProcess_PartialFailure ошибка одного заказа не мешает сверке остальных.
func (s *ProcessorTestSuite) TestProcess_PartialFailure() {
	orders := []domain.Order{pendingOrder("1"), pendingOrder("2")}
	s.mockService.EXPECT().Unreconciled(gomock.Any(), gomock.Any()).Return(orders, nil)
	s.mockService.EXPECT().Reconcile(gomock.Any(), orders[0]).Return(domain.OrderStatusCompleted, nil)
	s.mockService.EXPECT().Reconcile(gomock.Any(), orders[1]).
		Return(domain.OrderStatusPending, errors.New("db is down"))

	_, err := s.processor.process(s.T().Context())
	s.Require().Error(err)
	s.Contains(err.Error(), "1 of 2")
}

// TestRun_StopsOnCancel цикл завершается после отмены контекста.
func (s *ProcessorTestSuite) TestRun_StopsOnCancel() {
	s.mockService.EXPECT().Unreconciled(gomock.Any(), gomock.Any()).Return(nil, nil).MinTimes(1)

	ctx, cancel := context.WithCancel(s.T().Context())
	done := make(chan struct{})
	go func() {
		s.processor.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("processor did not stop")
	}
}
