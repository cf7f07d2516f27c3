// Package memrepo хранилище в памяти с тем же контрактом unit of work, что и pgrepo: изменения транзакции
// видны другим только после фиксации, GetByIDForUpdate держит блокировку строки до конца транзакции.
// Используется в тестах сервисов, где важна конкурентная семантика, а Postgres недоступен.
package memrepo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/google/uuid"
)

// CommitFault ошибка, которую вернет следующая фиксация. Applied - изменения все же применяются,
// что соответствует потерянному ответу на COMMIT.
type CommitFault struct {
	Err     error
	Applied bool
}

type Store struct {
	mu           sync.Mutex
	members      map[string]domain.Member
	transactions []domain.Transaction
	orders       map[string]domain.Order
	rowLocks     map[string]chan struct{}
	fault        *CommitFault
	now          func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		members:  make(map[string]domain.Member),
		orders:   make(map[string]domain.Order),
		rowLocks: make(map[string]chan struct{}),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddMember добавляет участника в обход транзакций. Пустой ID генерируется.
func (s *Store) AddMember(m domain.Member) domain.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Gender == "" {
		m.Gender = domain.GenderOther
	}
	m.CreatedAt = s.now()
	s.members[m.ID] = m
	return m
}

func (s *Store) Member(id string) (domain.Member, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	return m, ok
}

// MemberTransactions зафиксированные операции участника в порядке добавления.
func (s *Store) MemberTransactions(memberID string) []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []domain.Transaction
	for _, t := range s.transactions {
		if t.MemberID == memberID {
			res = append(res, t)
		}
	}
	return res
}

func (s *Store) Order(id string) (domain.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	return o, ok
}

// Orders зафиксированные заказы в произвольном порядке.
func (s *Store) Orders() []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		res = append(res, o)
	}
	return res
}

// FailNextCommit заставляет следующую фиксацию транзакции вернуть fault.Err.
func (s *Store) FailNextCommit(fault CommitFault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = &fault
}

// lockRow захватывает блокировку строки. Ожидание прерывается завершением ctx.
func (s *Store) lockRow(ctx context.Context, id string) (chan struct{}, error) {
	s.mu.Lock()
	ch, ok := s.rowLocks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.rowLocks[id] = ch
	}
	s.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return ch, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("[repository/locking row `%s`] %w: %s", id, domain.ErrUnknown, ctx.Err().Error())
	}
}
