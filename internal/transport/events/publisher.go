package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const (
	TransactionCommittedKey = "ledger.transaction.committed"
	DefaultExchange         = "cafe.ledger"
)

// TransactionCommitted тело события о зафиксированной операции по балансу.
type TransactionCommitted struct {
	TransactionID    string    `json:"transaction_id"`
	MemberID         string    `json:"member_id"`
	StoreID          string    `json:"store_id"`
	Type             string    `json:"transaction_type"`
	Amount           string    `json:"amount"`
	ResultingBalance string    `json:"resulting_balance"`
	OrderID          *string   `json:"order_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func newTransactionCommitted(t domain.Transaction) TransactionCommitted {
	return TransactionCommitted{
		TransactionID:    t.ID,
		MemberID:         t.MemberID,
		StoreID:          t.StoreID,
		Type:             string(t.Type),
		Amount:           t.Amount.StringFixed(domain.CurrencyScale),
		ResultingBalance: t.ResultingBalance.StringFixed(domain.CurrencyScale),
		OrderID:          t.OrderID,
		CreatedAt:        t.CreatedAt,
	}
}

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher публикует события журнала баланса в topic exchange RabbitMQ.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       amqpChannel
	exchange string
	l        *logrus.Entry
}

func NewPublisher(url, exchange string, l *logrus.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err = ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	p := newPublisher(ch, exchange, l)
	p.conn = conn
	return p, nil
}

func newPublisher(ch amqpChannel, exchange string, l *logrus.Logger) *Publisher {
	return &Publisher{
		ch:       ch,
		exchange: exchange,
		l:        l.WithFields(logrus.Fields{"component": "events", "exchange": exchange}),
	}
}

func (p *Publisher) TransactionCommitted(ctx context.Context, t domain.Transaction) error {
	body, err := json.Marshal(newTransactionCommitted(t))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, p.exchange, TransactionCommittedKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    t.ID,
		Timestamp:    t.CreatedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish `%s`: %w", TransactionCommittedKey, err)
	}
	p.l.WithField("transaction_id", t.ID).Debug("event published")
	return nil
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close() //nolint:wrapcheck
	}
	return nil
}

// NoopPublisher используется, когда брокер не настроен.
type NoopPublisher struct{}

func (NoopPublisher) TransactionCommitted(context.Context, domain.Transaction) error {
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}
