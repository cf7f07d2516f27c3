package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Logger пишет в лог каждый запрос. Запросы, завершившиеся ошибкой сервера, пишутся с уровнем Error.
func Logger(l *logrus.Logger) gin.HandlerFunc {
	entry := l.WithFields(logrus.Fields{
		"component": "api",
		"module":    "http",
	})
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   status,
			"latency":  time.Since(start).String(),
			"clientIP": c.ClientIP(),
		}
		if staff, ok := c.Get(CurrentStaffKey); ok {
			fields["staff"] = staff
		}
		reqLog := entry.WithFields(fields)

		if len(c.Errors) > 0 {
			reqLog = reqLog.WithField("errors", c.Errors.String())
		}
		if status >= 500 { //nolint:mnd
			reqLog.Error("request failed")
			return
		}
		reqLog.Info("request")
	}
}
