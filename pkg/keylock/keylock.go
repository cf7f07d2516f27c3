// Package keylock блокировки по строковому ключу. Используется для сериализации изменений баланса
// одного участника.
package keylock

import "context"

// Locker захватывает блокировку key. Возвращаемая функция освобождает блокировку, повторный вызов безопасен.
// Если ctx завершился раньше, чем блокировка получена, возвращается ошибка контекста.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
