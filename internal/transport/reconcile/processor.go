// Package reconcile сверяет заказы с оплатой балансом, оставшиеся в статусе pending, с журналом баланса.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	defaultServiceTimeout         = 3 * time.Second
	defaultInterval               = 30 * time.Second
	defaultLimitPerIteration uint = 100
	defaultWorkers                = 4
)

// Processor периодически сверяет ожидающие оплаты заказы.
type Processor struct {
	svs               Servicer
	l                 *logrus.Entry
	interval          time.Duration
	limitPerIteration uint
	workers           int
}

func New(svs Servicer, l *logrus.Logger) *Processor {
	loggerEntry := l.WithFields(logrus.Fields{
		"component": "reconcile",
		"module":    "processor",
	})

	return &Processor{
		svs:               svs,
		l:                 loggerEntry,
		interval:          defaultInterval,
		limitPerIteration: defaultLimitPerIteration,
		workers:           defaultWorkers,
	}
}

// SetInterval устанавливает паузу между итерациями, когда сверять нечего.
func (p *Processor) SetInterval(interval time.Duration) *Processor {
	if interval > 0 {
		p.interval = interval
	}
	return p
}

// SetLimitPerIteration устанавливает кол-во заказов, обрабатываемых в одной итерации.
func (p *Processor) SetLimitPerIteration(limit uint) *Processor {
	p.limitPerIteration = limit
	return p
}

// SetWorkers устанавливает кол-во воркеров, параллельно сверяющих заказы.
func (p *Processor) SetWorkers(workers int) *Processor {
	if workers > 0 {
		p.workers = workers
	}
	return p
}

// Run запускает сверку в цикле до отмены контекста.
//
// Алгоритм работы:
//  1. В каждой итерации запрашивает через сервисный слой заказы, ожидающие оплаты дольше допустимого.
//  2. Раздает заказы N воркерам, каждый вызывает Reconcile.
//  3. Если заказов нет или итерация завершилась ошибкой, ждет interval.
func (p *Processor) Run(ctx context.Context) {
	p.l.WithFields(logrus.Fields{
		"interval":          p.interval.String(),
		"limitPerIteration": p.limitPerIteration,
		"workers":           p.workers,
	}).Info("Starting")

	for {
		processed, err := p.process(ctx)
		if err != nil && !errors.Is(err, ErrNoOrders) && ctx.Err() == nil {
			p.l.WithError(err).Error("process error")
		}
		// полная выборка означает, что в очереди могут остаться заказы.
		if err == nil && processed >= p.limitPerIteration {
			continue
		}

		select {
		case <-ctx.Done():
			p.l.Info("Got stop signal, exiting...")
			return
		case <-time.After(p.interval):
		}
	}
}

// process сверяет одну выборку заказов и возвращает ее размер.
func (p *Processor) process(ctx context.Context) (uint, error) {
	orders, err := p.produce(ctx)
	if err != nil {
		return 0, fmt.Errorf("process: %w", err)
	}

	results := p.runWorkers(ctx, orders)
	var failed int
	for _, result := range results {
		l := p.l.WithFields(logrus.Fields{
			"worker":  result.WorkerID,
			"orderID": result.Order.ID,
		})
		switch {
		case result.Error != nil:
			failed++
			l.WithError(result.Error).Error("reconcile order")
		case result.Status == domain.OrderStatusPaymentMissing:
			l.WithField("memberID", result.Order.MemberID).Warn("balance payment missing")
		case result.Status != result.Order.Status:
			l.WithField("status", result.Status).Info("Reconciled")
		}
	}
	if failed > 0 {
		return uint(len(orders)), fmt.Errorf("process: %d of %d orders failed", failed, len(orders)) //nolint:gosec
	}
	return uint(len(orders)), nil //nolint:gosec
}

// workerResult результат сверки одного заказа.
type workerResult struct {
	WorkerID int
	Order    domain.Order
	Status   domain.OrderStatusType
	Error    error
}

// runWorkers раздает заказы воркерам и ждет конца их работы (fan-out/fan-in).
func (p *Processor) runWorkers(ctx context.Context, orders []domain.Order) []workerResult {
	taskCh := make(chan domain.Order, len(orders))
	for _, order := range orders {
		taskCh <- order
	}
	close(taskCh)

	resultCh := make(chan workerResult, len(orders))

	g := new(errgroup.Group)
	for i := range p.workers {
		workerID := i + 1
		g.Go(func() error {
			p.worker(ctx, workerID, taskCh, resultCh)
			return nil
		})
	}
	_ = g.Wait()
	close(resultCh)

	results := make([]workerResult, 0, len(orders))
	for result := range resultCh {
		results = append(results, result)
	}
	return results
}

func (p *Processor) worker(
	ctx context.Context,
	workerID int,
	taskCh <-chan domain.Order,
	resultCh chan<- workerResult,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case order, ok := <-taskCh:
			if !ok {
				return
			}
			reqCtx, cancel := context.WithTimeout(ctx, defaultServiceTimeout)
			status, err := p.svs.Reconcile(reqCtx, order)
			cancel()
			resultCh <- workerResult{
				WorkerID: workerID,
				Order:    order,
				Status:   status,
				Error:    err,
			}
		}
	}
}

// produce получает заказы для сверки. Возвращает ErrNoOrders, если их нет.
func (p *Processor) produce(ctx context.Context) ([]domain.Order, error) {
	produceCtx, cancel := context.WithTimeout(ctx, defaultServiceTimeout)
	defer cancel()

	orders, err := p.svs.Unreconciled(produceCtx, p.limitPerIteration)
	if err != nil {
		return nil, fmt.Errorf("produce: %w", err)
	}
	if len(orders) == 0 {
		return nil, ErrNoOrders
	}
	return orders, nil
}
