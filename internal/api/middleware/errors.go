package middleware

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/chirp/pkg/logger"
)

// ReportErrors 5xx 时把 c.Errors 写日志并上报 Sentry（未配置 DSN 时 hub 为空）
func ReportErrors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() < http.StatusInternalServerError || len(c.Errors) == 0 {
			return
		}
		hub := sentrygin.GetHubFromContext(c)
		for _, e := range c.Errors {
			logger.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.Error(e.Err),
			)
			if hub != nil {
				hub.WithScope(func(scope *sentry.Scope) {
					scope.SetTag("route", c.FullPath())
					if uid := CurrentUserID(c); uid != "" {
						scope.SetUser(sentry.User{ID: uid})
					}
					hub.CaptureException(e.Err)
				})
			}
		}
	}
}
