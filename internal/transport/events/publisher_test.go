package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fsdevblog/cafe-pos/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	published []published
	err       error
}

func (f *fakeChannel) PublishWithContext(
	_ context.Context,
	exchange, key string,
	_, _ bool,
	msg amqp.Publishing,
) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	return nil
}

type PublisherTestSuite struct {
	suite.Suite
	ch        *fakeChannel
	publisher *Publisher
}

func TestPublisherSuite(t *testing.T) {
	suite.Run(t, new(PublisherTestSuite))
}

func (s *PublisherTestSuite) SetupTest() {
	s.ch = new(fakeChannel)
	s.publisher = newPublisher(s.ch, DefaultExchange, logrus.New())
}

func (s *PublisherTestSuite) TestTransactionCommitted() {
	orderID := gofakeit.UUID()
	tr := domain.Transaction{
		ID:               gofakeit.UUID(),
		CreatedAt:        time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
		MemberID:         gofakeit.UUID(),
		StoreID:          gofakeit.UUID(),
		Type:             domain.TransactionConsumption,
		Amount:           decimal.NewFromInt(-200),
		ResultingBalance: decimal.NewFromInt(300),
		OrderID:          &orderID,
	}

	s.Require().NoError(s.publisher.TransactionCommitted(s.T().Context(), tr))
	s.Require().Len(s.ch.published, 1)

	got := s.ch.published[0]
	s.Equal(DefaultExchange, got.exchange)
	s.Equal(TransactionCommittedKey, got.key)
	s.Equal(tr.ID, got.msg.MessageId)
	s.Equal("application/json", got.msg.ContentType)

	var event TransactionCommitted
	s.Require().NoError(json.Unmarshal(got.msg.Body, &event))
	s.Equal("-200.00", event.Amount)
	s.Equal("300.00", event.ResultingBalance)
	s.Equal("consumption", event.Type)
	s.Require().NotNil(event.OrderID)
	s.Equal(orderID, *event.OrderID)
}

func (s *PublisherTestSuite) TestPublishError() {
	s.ch.err = errors.New("channel closed")
	err := s.publisher.TransactionCommitted(s.T().Context(), domain.Transaction{ID: "x"})
	s.Require().Error(err)
	s.Contains(err.Error(), TransactionCommittedKey)
}
