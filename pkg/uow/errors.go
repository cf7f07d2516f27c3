package uow

import (
	"errors"
	"fmt"
)

var (
	ErrRepositoryNotRegistered     = errors.New("[uow] repository not registered")
	ErrRepositoryAlreadyRegistered = errors.New("[uow] repository already registered")
	ErrInvalidRepositoryType       = errors.New("[uow] invalid repository type")
)

// CommitError возвращается, когда fn отработала успешно, но COMMIT завершился ошибкой. В этом случае
// исход транзакции на сервере неизвестен: она могла как зафиксироваться, так и откатиться.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("[uow] commit: %s", e.Err.Error())
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// IsCommitError проверяет, что err (или одна из обернутых ошибок) - *CommitError.
func IsCommitError(err error) bool {
	var commitErr *CommitError
	return errors.As(err, &commitErr)
}
