package api

import (
	"context"
	"net/http"

	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type MenuHandler struct {
	menuSvs MenuServicer
}

func NewMenuHandler(menuSvs MenuServicer) *MenuHandler {
	return &MenuHandler{menuSvs: menuSvs}
}

// Available GET RouteGroup + MenuRoute. Позиции, доступные для заказа.
func (h *MenuHandler) Available(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	items, err := h.menuSvs.Available(reqCtx)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMenuResponse(items))
}

type MenuQuery struct {
	Available *bool `form:"available"`
}

// Index GET RouteGroup + AdminMenuRoute. Все позиции, либо только доступные/недоступные.
func (h *MenuHandler) Index(c *gin.Context) {
	var query MenuQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		_ = c.AbortWithError(http.StatusBadRequest, err).SetType(gin.ErrorTypeBind)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	items, err := h.menuSvs.List(reqCtx, query.Available)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMenuResponse(items))
}

// Categories GET RouteGroup + AdminMenuCategoriesRoute.
func (h *MenuHandler) Categories(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	categories, err := h.menuSvs.Categories(reqCtx)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

type CreateMenuItemParams struct {
	Name        string          `binding:"required"               json:"name"`
	Price       decimal.Decimal `binding:"money"                  json:"price"`
	Cost        decimal.Decimal `binding:"money"                  json:"cost"`
	Category    string          `binding:"required,max=50"        json:"category"`
	ImageURL    string          `binding:"omitempty,url,max=2048" json:"image_url"`
	IsAvailable *bool           `binding:"required"               json:"is_available"`
}

// Create POST RouteGroup + AdminMenuRoute.
func (h *MenuHandler) Create(c *gin.Context) {
	var params CreateMenuItemParams
	if !bindJSON(c, &params) {
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	item, err := h.menuSvs.Create(reqCtx, repoargs.CreateMenuItem{
		Name:        params.Name,
		Price:       params.Price,
		Cost:        params.Cost,
		Category:    params.Category,
		ImageURL:    params.ImageURL,
		IsAvailable: *params.IsAvailable,
	})
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newMenuItemResponse(item))
}

type UpdateMenuItemParams struct {
	Name        *string          `binding:"omitempty"                json:"name"`
	Price       *decimal.Decimal `binding:"omitempty,money"          json:"price"`
	Cost        *decimal.Decimal `binding:"omitempty,money"          json:"cost"`
	Category    *string          `binding:"omitempty,max=50"         json:"category"`
	ImageURL    *string          `binding:"omitempty,max=2048"       json:"image_url"`
	IsAvailable *bool            `binding:"required"                 json:"is_available"`
}

// Update PATCH RouteGroup + AdminMenuItemRoute. Доступность позиции передается всегда.
func (h *MenuHandler) Update(c *gin.Context) {
	var params UpdateMenuItemParams
	if !bindJSON(c, &params) {
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	item, err := h.menuSvs.Update(reqCtx, c.Param("id"), repoargs.UpdateMenuItem{
		Name:        params.Name,
		Price:       params.Price,
		Cost:        params.Cost,
		Category:    params.Category,
		ImageURL:    params.ImageURL,
		IsAvailable: *params.IsAvailable,
	})
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMenuItemResponse(item))
}

// Delete DELETE RouteGroup + AdminMenuItemRoute.
func (h *MenuHandler) Delete(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	if err := h.menuSvs.Delete(reqCtx, c.Param("id")); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.AbortWithStatus(http.StatusNoContent)
}
