package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/gin-gonic/gin"
)

type MembersHandler struct {
	memberSvs MemberServicer
	ledgerSvs LedgerServicer
}

func NewMembersHandler(memberSvs MemberServicer, ledgerSvs LedgerServicer) *MembersHandler {
	return &MembersHandler{
		memberSvs: memberSvs,
		ledgerSvs: ledgerSvs,
	}
}

type MembersQuery struct {
	Phone   string `form:"phone"`
	StoreID string `form:"store_id"`
	Limit   uint   `binding:"max=500" form:"limit"`
}

// Index GET RouteGroup + MembersRoute. С параметром phone ищет одного участника по телефону.
func (h *MembersHandler) Index(c *gin.Context) {
	var query MembersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		_ = c.AbortWithError(http.StatusBadRequest, err).SetType(gin.ErrorTypeBind)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	if query.Phone != "" && query.StoreID == "" {
		member, err := h.memberSvs.FindByPhone(reqCtx, query.Phone)
		if err != nil {
			abortWithServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, []MemberResponse{newMemberResponse(member)})
		return
	}

	members, err := h.memberSvs.List(reqCtx, repoargs.MemberFilter{
		StoreID: query.StoreID,
		Phone:   query.Phone,
		Limit:   query.Limit,
	})
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	response := make([]MemberResponse, len(members))
	for i := range members {
		response[i] = newMemberResponse(&members[i])
	}
	c.JSON(http.StatusOK, response)
}

type CreateMemberParams struct {
	Phone    string            `binding:"required,phone"                       json:"phone"`
	Name     string            `binding:"required,max=100"                     json:"name"`
	Birthday string            `binding:"omitempty,datetime=2006-01-02"        json:"birthday"`
	Gender   domain.GenderType `binding:"omitempty,oneof=male female other"    json:"gender"`
	StoreID  string            `binding:"required"                             json:"store_id"`
}

// Create POST RouteGroup + MembersRoute. Регистрирует участника с нулевым балансом.
func (h *MembersHandler) Create(c *gin.Context) {
	var params CreateMemberParams
	if !bindJSON(c, &params) {
		return
	}
	birthday, err := parseBirthday(params.Birthday)
	if err != nil {
		_ = c.AbortWithError(http.StatusUnprocessableEntity, err).SetType(gin.ErrorTypePublic)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	member, err := h.memberSvs.Create(reqCtx, repoargs.CreateMember{
		Phone:    params.Phone,
		Name:     params.Name,
		Birthday: birthday,
		Gender:   params.Gender,
		StoreID:  params.StoreID,
	})
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newMemberResponse(member))
}

// Show GET RouteGroup + MemberRoute.
func (h *MembersHandler) Show(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	member, err := h.memberSvs.Get(reqCtx, c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMemberResponse(member))
}

type UpdateMemberParams struct {
	Phone    *string            `binding:"omitempty,phone"                    json:"phone"`
	Name     *string            `binding:"omitempty,min=1,max=100"            json:"name"`
	Birthday *string            `binding:"omitempty,datetime=2006-01-02"      json:"birthday"`
	Gender   *domain.GenderType `binding:"omitempty,oneof=male female other"  json:"gender"`
}

// Update PATCH RouteGroup + MemberRoute. Баланс через этот метод не изменяется.
func (h *MembersHandler) Update(c *gin.Context) {
	var params UpdateMemberParams
	if !bindJSON(c, &params) {
		return
	}
	args := repoargs.UpdateMember{
		Phone:  params.Phone,
		Name:   params.Name,
		Gender: params.Gender,
	}
	if params.Birthday != nil {
		birthday, err := parseBirthday(*params.Birthday)
		if err != nil {
			_ = c.AbortWithError(http.StatusUnprocessableEntity, err).SetType(gin.ErrorTypePublic)
			return
		}
		args.Birthday = birthday
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	member, err := h.memberSvs.Update(reqCtx, c.Param("id"), args)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMemberResponse(member))
}

// Delete DELETE RouteGroup + MemberRoute. Только для администратора.
func (h *MembersHandler) Delete(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	if err := h.memberSvs.Delete(reqCtx, c.Param("id")); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.AbortWithStatus(http.StatusNoContent)
}

type AuditResponse struct {
	MemberID       string `json:"member_id"`
	Balance        string `json:"balance"`
	TransactionSum string `json:"transaction_sum"`
	Consistent     bool   `json:"consistent"`
}

// Audit GET RouteGroup + MemberAuditRoute. Сверка баланса с суммой операций.
func (h *MembersHandler) Audit(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	report, err := h.ledgerSvs.Audit(reqCtx, c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, AuditResponse{
		MemberID:       report.MemberID,
		Balance:        money(report.Balance),
		TransactionSum: money(report.TransactionSum),
		Consistent:     report.Consistent,
	})
}

func parseBirthday(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil //nolint:nilnil
	}
	birthday, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, fmt.Errorf("invalid birthday `%s`", value)
	}
	return &birthday, nil
}
