package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/sinistra/pkg/logging"
	"github.com/nao1215/sinistra/pkg/metrics"
)

// Logger はリクエストごとにアクセスログを出力し、リクエスト数を記録するGinミドルウェアを返す。
// メトリクスのラベルにはルート定義のパスを使い、未定義のパスは "unmatched" とする。
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(route, status)

		event := logging.Info()
		switch {
		case status >= 500:
			event = logging.Error()
		case status >= 400:
			event = logging.Warn()
		}

		event = event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP())
		if s := CurrentSession(c); s.Authenticated() {
			event = event.Str("user", s.Username).Str("tenant", s.TenantName)
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.Msg("リクエスト")
	}
}
