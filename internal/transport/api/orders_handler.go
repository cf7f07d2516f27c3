package api

import (
	"context"
	"net/http"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const defaultReconciliationLimit uint = 100

type OrdersHandler struct {
	orderSvs OrderServicer
}

func NewOrdersHandler(orderSvs OrderServicer) *OrdersHandler {
	return &OrdersHandler{
		orderSvs: orderSvs,
	}
}

type CheckoutItemParams struct {
	MenuItemID string          `binding:"required"       json:"menu_item_id"`
	Quantity   int             `binding:"required,gt=0"  json:"quantity"`
	UnitPrice  decimal.Decimal `binding:"required,money" json:"unit_price"`
}

type CheckoutParams struct {
	StoreID       string               `binding:"required"                           json:"store_id"`
	MemberID      *string              `binding:"omitempty"                          json:"member_id"`
	PaymentMethod domain.PaymentMethod `binding:"required,oneof=cash member_balance" json:"payment_method"`
	TotalAmount   decimal.Decimal      `binding:"required,money"                     json:"total_amount"`
	Items         []CheckoutItemParams `binding:"required,min=1,dive"                json:"items"`
}

type CheckoutResponse struct {
	Order    OrderResponse   `json:"order"`
	Payment  *LedgerResponse `json:"payment,omitempty"`
	Replayed bool            `json:"replayed"`
}

// Create POST RouteGroup + OrdersRoute. Оформляет заказ и списывает баланс участника при оплате балансом.
// Повтор с тем же IdempotencyKeyHeader возвращает ранее оформленный заказ со статусом 200.
func (o *OrdersHandler) Create(c *gin.Context) {
	idempotencyKey, ok := idempotencyKeyHeader(c)
	if !ok {
		return
	}

	var params CheckoutParams
	if !bindJSON(c, &params) {
		return
	}

	items := make([]service.CheckoutItem, len(params.Items))
	for i, item := range params.Items {
		items[i] = service.CheckoutItem{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
		}
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	result, err := o.orderSvs.Checkout(reqCtx, service.CheckoutArgs{
		StoreID:        params.StoreID,
		MemberID:       params.MemberID,
		PaymentMethod:  params.PaymentMethod,
		TotalAmount:    params.TotalAmount,
		Items:          items,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	response := CheckoutResponse{Order: newOrderResponse(result.Order), Replayed: result.Replayed}
	if result.Payment != nil {
		payment := newLedgerResponse(result.Payment)
		response.Payment = &payment
	}
	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, response)
}

// Show GET RouteGroup + OrderRoute.
func (o *OrdersHandler) Show(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	order, err := o.orderSvs.GetByID(reqCtx, c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderResponse(order))
}

type ReconciliationQuery struct {
	Limit uint `binding:"max=1000" form:"limit"`
}

// Unreconciled GET RouteGroup + AdminReconciliationRoute. Заказы с оплатой балансом, ожидающие сверки.
func (o *OrdersHandler) Unreconciled(c *gin.Context) {
	var query ReconciliationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		_ = c.AbortWithError(http.StatusBadRequest, err).SetType(gin.ErrorTypeBind)
		return
	}
	if query.Limit == 0 {
		query.Limit = defaultReconciliationLimit
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	orders, err := o.orderSvs.Unreconciled(reqCtx, query.Limit)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	response := make([]OrderResponse, len(orders))
	for i := range orders {
		response[i] = newOrderResponse(&orders[i])
	}
	c.JSON(http.StatusOK, response)
}
