package api

import (
	"context"
	"net/http"
	"time"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/fsdevblog/cafe-pos/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// IdempotencyKeyHeader ключ идемпотентности операции. Повтор запроса с тем же ключом и телом не изменяет
// баланс повторно.
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyBytes = 128

type TransactionsHandler struct {
	ledgerSvs LedgerServicer
}

func NewTransactionsHandler(ledgerSvs LedgerServicer) *TransactionsHandler {
	return &TransactionsHandler{
		ledgerSvs: ledgerSvs,
	}
}

// ApplyTransactionParams ручная операция сотрудника. Оплата заказа проводится только через оформление заказа,
// поэтому привязать операцию к заказу здесь нельзя.
type ApplyTransactionParams struct {
	StoreID string                 `binding:"required,uuid"                     json:"store_id"`
	Type    domain.TransactionType `binding:"required,oneof=deposit consumption" json:"type"`
	Amount  decimal.Decimal        `binding:"required,money"                    json:"amount"`
}

// Create POST RouteGroup + MemberTransactionsRoute. Пополнение или списание баланса участника.
func (h *TransactionsHandler) Create(c *gin.Context) {
	idempotencyKey, ok := idempotencyKeyHeader(c)
	if !ok {
		return
	}

	var params ApplyTransactionParams
	if !bindJSON(c, &params) {
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	result, err := h.ledgerSvs.ApplyTransaction(reqCtx, service.ApplyTransactionArgs{
		MemberID:       c.Param("id"),
		StoreID:        params.StoreID,
		Type:           params.Type,
		Amount:         params.Amount,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, newLedgerResponse(result))
}

// idempotencyKeyHeader читает заголовок IdempotencyKeyHeader. Слишком длинный ключ - 400.
func idempotencyKeyHeader(c *gin.Context) (string, bool) {
	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyBytes {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "idempotency key is too long"})
		return "", false
	}
	return key, true
}

// MemberIndex GET RouteGroup + MemberTransactionsRoute. История операций участника, новые первыми.
func (h *TransactionsHandler) MemberIndex(c *gin.Context) {
	var query TransactionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		_ = c.AbortWithError(http.StatusBadRequest, err).SetType(gin.ErrorTypeBind)
		return
	}
	query.MemberID = c.Param("id")
	h.list(c, query)
}

type TransactionsQuery struct {
	MemberID string     `form:"member_id"`
	StoreID  string     `form:"store_id"`
	From     *time.Time `form:"from"      time_format:"2006-01-02T15:04:05Z07:00"`
	To       *time.Time `form:"to"        time_format:"2006-01-02T15:04:05Z07:00"`
	Limit    uint       `binding:"max=1000" form:"limit"`
}

// Index GET RouteGroup + TransactionsRoute. Операции по фильтру участника, точки и периода.
func (h *TransactionsHandler) Index(c *gin.Context) {
	var query TransactionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		_ = c.AbortWithError(http.StatusBadRequest, err).SetType(gin.ErrorTypeBind)
		return
	}
	h.list(c, query)
}

func (h *TransactionsHandler) list(c *gin.Context, query TransactionsQuery) {
	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	transactions, err := h.ledgerSvs.History(reqCtx, repoargs.TransactionFilter{
		MemberID: query.MemberID,
		StoreID:  query.StoreID,
		From:     query.From,
		To:       query.To,
		Limit:    query.Limit,
	})
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionsResponse(transactions))
}

type AttemptResponse struct {
	State       domain.AttemptState  `json:"state"`
	Transaction *TransactionResponse `json:"transaction,omitempty"`
}

// Attempt GET RouteGroup + AttemptRoute. Сверка попытки, завершившейся неопределенным результатом.
func (h *TransactionsHandler) Attempt(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	resolution, err := h.ledgerSvs.ResolveAttempt(reqCtx, c.Param("key"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	response := AttemptResponse{State: resolution.State}
	if resolution.Transaction != nil {
		t := newTransactionResponse(resolution.Transaction)
		response.Transaction = &t
	}
	c.JSON(http.StatusOK, response)
}
