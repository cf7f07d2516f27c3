package memrepo

import (
	"context"
	"errors"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/fsdevblog/cafe-pos/pkg/uow"
)

var ErrRegisterUnsupported = errors.New("[memrepo] repositories are fixed")

// UnitOfWork реализация uow.UOW поверх Store.
type UnitOfWork struct {
	store *Store
}

func NewUnitOfWork(store *Store) *UnitOfWork {
	return &UnitOfWork{store: store}
}

func (u *UnitOfWork) Register(uow.RepositoryName, uow.RepositoryFactory) error {
	return ErrRegisterUnsupported
}

// Do выполняет fn в транзакции. Ошибка fn отбрасывает все изменения, ошибка фиксации возвращается
// как *uow.CommitError.
func (u *UnitOfWork) Do(ctx context.Context, fn func(context.Context, uow.TX) error) error {
	tx := newTx(u.store, false)
	defer tx.releaseLocks()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.commit(ctx); err != nil {
		return &uow.CommitError{Err: err}
	}
	return nil
}

// GetRepository возвращает репозиторий, каждая запись которого фиксируется сразу.
func (u *UnitOfWork) GetRepository(name uow.RepositoryName) (uow.Repository, error) {
	return newTx(u.store, true).Get(name)
}

// Tx транзакция в памяти. Изменения накапливаются и применяются к Store при фиксации.
type Tx struct {
	store        *Store
	auto         bool
	members      map[string]domain.Member
	transactions []domain.Transaction
	orders       map[string]domain.Order
	locks        map[string]chan struct{}
}

func newTx(store *Store, auto bool) *Tx {
	return &Tx{
		store:   store,
		auto:    auto,
		members: make(map[string]domain.Member),
		orders:  make(map[string]domain.Order),
		locks:   make(map[string]chan struct{}),
	}
}

func (t *Tx) Get(name uow.RepositoryName) (uow.Repository, error) {
	switch repoargs.RepositoryName(name) {
	case repoargs.MemberRepoName:
		return &MemberRepository{tx: t}, nil
	case repoargs.TransactionRepoName:
		return &TransactionRepository{tx: t}, nil
	case repoargs.OrderRepoName:
		return &OrderRepository{tx: t}, nil
	default:
		return nil, uow.ErrRepositoryNotRegistered
	}
}

// lockRow блокирует строку до конца транзакции. Вне транзакции только дожидается освобождения строки.
func (t *Tx) lockRow(ctx context.Context, id string) error {
	if _, held := t.locks[id]; held {
		return nil
	}
	ch, err := t.store.lockRow(ctx, id)
	if err != nil {
		return err
	}
	if t.auto {
		<-ch
		return nil
	}
	t.locks[id] = ch
	return nil
}

func (t *Tx) releaseLocks() {
	for id, ch := range t.locks {
		<-ch
		delete(t.locks, id)
	}
}

// Методы ниже вызываются под store.mu.

func (t *Tx) member(id string) (domain.Member, bool) {
	if m, ok := t.members[id]; ok {
		return m, true
	}
	m, ok := t.store.members[id]
	return m, ok
}

func (t *Tx) putMember(m domain.Member) {
	if t.auto {
		t.store.members[m.ID] = m
		return
	}
	t.members[m.ID] = m
}

func (t *Tx) allMembers() map[string]domain.Member {
	res := make(map[string]domain.Member, len(t.store.members)+len(t.members))
	for id, m := range t.store.members {
		res[id] = m
	}
	for id, m := range t.members {
		res[id] = m
	}
	return res
}

func (t *Tx) allTransactions() []domain.Transaction {
	res := make([]domain.Transaction, 0, len(t.store.transactions)+len(t.transactions))
	res = append(res, t.store.transactions...)
	return append(res, t.transactions...)
}

func (t *Tx) putTransaction(tr domain.Transaction) {
	if t.auto {
		t.store.transactions = append(t.store.transactions, tr)
		return
	}
	t.transactions = append(t.transactions, tr)
}

func (t *Tx) order(id string) (domain.Order, bool) {
	if o, ok := t.orders[id]; ok {
		return o, true
	}
	o, ok := t.store.orders[id]
	return o, ok
}

func (t *Tx) allOrders() map[string]domain.Order {
	res := make(map[string]domain.Order, len(t.store.orders)+len(t.orders))
	for id, o := range t.store.orders {
		res[id] = o
	}
	for id, o := range t.orders {
		res[id] = o
	}
	return res
}

func (t *Tx) orderByKey(key string) (domain.Order, bool) {
	for _, o := range t.allOrders() {
		if o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			return o, true
		}
	}
	return domain.Order{}, false
}

func (t *Tx) putOrder(o domain.Order) {
	if t.auto {
		t.store.orders[o.ID] = o
		return
	}
	t.orders[o.ID] = o
}

func (t *Tx) commit(ctx context.Context) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err //nolint:wrapcheck
	}

	fault := t.store.fault
	t.store.fault = nil
	if fault != nil && !fault.Applied {
		return fault.Err
	}

	for id, m := range t.members {
		t.store.members[id] = m
	}
	t.store.transactions = append(t.store.transactions, t.transactions...)
	for id, o := range t.orders {
		t.store.orders[id] = o
	}

	if fault != nil {
		return fault.Err
	}
	return nil
}
