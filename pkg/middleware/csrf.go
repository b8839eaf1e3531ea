package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CSRFFormField はフォームでCSRFトークンを送るフィールド名。
const CSRFFormField = "csrf_token"

// CSRFHeader はヘッダーでCSRFトークンを送る場合のヘッダー名。
const CSRFHeader = "X-CSRF-Token"

// CSRF は状態を変更するリクエストでCSRFトークンを検証するGinミドルウェアを返す。
// トークンはセッションに保持されたものと比較する。LoadSession の後に適用する。
func CSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if !ValidCSRF(c) {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}

// ValidCSRF はリクエストのCSRFトークンが現在のセッションのものと一致するかを返す。
// セッションがない場合は常にfalse。
func ValidCSRF(c *gin.Context) bool {
	s := CurrentSession(c)
	if s == nil || s.CSRFToken == "" {
		return false
	}
	token := c.GetHeader(CSRFHeader)
	if token == "" {
		token = c.PostForm(CSRFFormField)
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.CSRFToken)) == 1
}

// CSRFToken は現在のセッションのCSRFトークンを返す。テンプレートへの埋め込みに使う。
func CSRFToken(c *gin.Context) string {
	if s := CurrentSession(c); s != nil {
		return s.CSRFToken
	}
	return ""
}
