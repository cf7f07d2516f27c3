package api

import (
	"errors"
	"net/http"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const (
	msgVerifyBalance = "balance state is unknown, please verify balance before retrying"
	msgLedgerBusy    = "member ledger is busy, please verify balance before retrying"
	msgWriteFailed   = "operation was not recorded, no changes were made"
)

// abortWithServiceError переводит ошибку сервисного слоя в http статус. Ошибки клиента отдаются с текстом,
// ошибки сервера - только текстом статуса.
func abortWithServiceError(c *gin.Context, err error) {
	var persistErr *domain.PersistenceError
	switch {
	case errors.Is(err, domain.ErrLedgerBusy):
		_ = c.Error(err).SetType(gin.ErrorTypePrivate)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": msgLedgerBusy})
	case errors.As(err, &persistErr):
		_ = c.Error(err).SetType(gin.ErrorTypePrivate)
		if persistErr.Uncertain() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": msgVerifyBalance})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msgWriteFailed})
	case errors.Is(err, domain.ErrInsufficientBalance):
		_ = c.AbortWithError(http.StatusPaymentRequired, err).SetType(gin.ErrorTypePublic)
	case errors.Is(err, domain.ErrInvalidCredentials):
		_ = c.AbortWithError(http.StatusUnauthorized, err).SetType(gin.ErrorTypePublic)
	case errors.Is(err, domain.ErrMemberNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrUnknownReport),
		errors.Is(err, domain.ErrRecordNotFound):
		_ = c.AbortWithError(http.StatusNotFound, err).SetType(gin.ErrorTypePublic)
	case errors.Is(err, domain.ErrDuplicateOperation),
		errors.Is(err, domain.ErrDuplicateKey),
		errors.Is(err, domain.ErrMemberHasTransactions),
		errors.Is(err, domain.ErrMenuItemInUse):
		_ = c.AbortWithError(http.StatusConflict, err).SetType(gin.ErrorTypePublic)
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidTransaction),
		errors.Is(err, domain.ErrInvalidOrder),
		errors.Is(err, domain.ErrInvalidMember),
		errors.Is(err, domain.ErrInvalidMenuItem),
		errors.Is(err, domain.ErrInvalidNote),
		errors.Is(err, domain.ErrUnknownStore):
		_ = c.AbortWithError(http.StatusUnprocessableEntity, err).SetType(gin.ErrorTypePublic)
	default:
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
	}
}

// bindJSON разбирает тело запроса. Ошибки валидации - 422, прочие ошибки разбора - 400.
func bindJSON(c *gin.Context, obj any) bool {
	bindErr := c.ShouldBindJSON(obj)
	if bindErr == nil {
		return true
	}
	var valErrs validator.ValidationErrors
	if errors.As(bindErr, &valErrs) {
		_ = c.Error(bindErr).SetType(gin.ErrorTypeBind)
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": validationMessages(valErrs)})
		return false
	}
	_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
	return false
}

func validationMessages(errs validator.ValidationErrors) map[string]string {
	res := make(map[string]string, len(errs))
	for _, e := range errs {
		res[e.Field()] = e.Tag()
	}
	return res
}
