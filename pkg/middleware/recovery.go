package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/sinistra/pkg/logging"
	"github.com/nao1215/sinistra/pkg/metrics"
)

// recoveryMessage はパニック発生時に返す本文。
const recoveryMessage = "Something went wrong while rendering this page. Please try again."

// Recovery はハンドラのパニックを回復して500を返すGinミドルウェアを返す。
// ログにはスタックトレースとログイン中のユーザーを残し、APIキーは出力しない。
// http.ErrAbortHandler は接続を切るためにそのまま再送出する。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if err, ok := r.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(r)
			}

			metrics.ObservePanic(c.FullPath())
			event := logging.Error().
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Interface("panic", r).
				Bytes("stack", debug.Stack())
			if s := CurrentSession(c); s.Authenticated() {
				event = event.Str("user", s.Username).Str("tenant", s.TenantName)
			}
			event.Msg("パニックから回復")

			c.Abort()
			// 既に書き出し始めている場合はステータスを変えられない
			if c.Writer.Written() {
				return
			}
			c.Header("Cache-Control", "no-store")
			c.String(http.StatusInternalServerError, recoveryMessage)
		}()
		c.Next()
	}
}
