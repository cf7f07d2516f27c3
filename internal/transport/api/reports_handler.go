package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ReportsHandler struct {
	reportSvs ReportServicer
}

func NewReportsHandler(reportSvs ReportServicer) *ReportsHandler {
	return &ReportsHandler{reportSvs: reportSvs}
}

type ReportQuery struct {
	Days int `binding:"min=0" form:"days"`
}

// Show GET RouteGroup + AdminReportRoute. Строки отчета отдаются как есть.
func (h *ReportsHandler) Show(c *gin.Context) {
	var query ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		_ = c.AbortWithError(http.StatusBadRequest, err).SetType(gin.ErrorTypeBind)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	rows, err := h.reportSvs.Report(reqCtx, c.Param("name"), query.Days)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
