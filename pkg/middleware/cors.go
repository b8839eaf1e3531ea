package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/sinistra/pkg/logging"
)

// corsMaxAge はプリフライトの結果をブラウザが保持する秒数。
const corsMaxAge = "86400"

// normalizeOrigin は比較のためにオリジンの末尾のスラッシュを除いて小文字にする。
func normalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}

// CORS は許可リストのオリジンにだけクロスオリジンのアクセスを許可するGinミドルウェアを返す。
// セッションCookieを伴うため "*" は受け付けず、一致したオリジンをそのまま返す。
// 許可されていないオリジンからのプリフライトは403で拒否する。
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		o = normalizeOrigin(o)
		switch o {
		case "":
			continue
		case "*":
			logging.Warn().Msg("CORS_ORIGINSの * はCookie付きのリクエストに使えないため無視します")
			continue
		}
		allowed[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		_, ok := allowed[normalizeOrigin(origin)]
		if origin != "" {
			c.Header("Vary", "Origin")
		}
		if ok {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}

		if origin != "" && !ok {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		if ok {
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, "+CSRFHeader)
			c.Header("Access-Control-Max-Age", corsMaxAge)
		}
		c.AbortWithStatus(http.StatusNoContent)
	}
}
