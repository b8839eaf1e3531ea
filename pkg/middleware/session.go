package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/nao1215/sinistra/pkg/logging"
	"github.com/nao1215/sinistra/pkg/session"
)

// SessionCookieName はセッショントークンを保持するCookieの名前。
const SessionCookieName = "sinistra_session"

// tokenIssuer はセッショントークンの発行者。
const tokenIssuer = "sinistra-dashboard"

// contextKeySession はGinコンテキストにセッションを格納するキー。
const contextKeySession = "session"

// SessionClaims はセッショントークンのクレーム。
// トークンにはセッションIDのみを含め、資格情報は Store 側に保持する。
type SessionClaims struct {
	jwt.RegisteredClaims
	// SessionID はセッションの識別子。
	SessionID string `json:"sid"`
}

// IssueSessionToken はセッションIDを含む署名付きトークンを生成する。
func IssueSessionToken(secret, sessionID string, expiresAt time.Time) (string, error) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    tokenIssuer,
		},
		SessionID: sessionID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("セッショントークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// ParseSessionToken はトークンを検証してセッションIDを返す。
func ParseSessionToken(secret, tokenString string) (string, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return "", fmt.Errorf("セッショントークンの検証に失敗: %w", err)
	}
	if !token.Valid || claims.SessionID == "" {
		return "", errors.New("セッショントークンが無効です")
	}
	return claims.SessionID, nil
}

// SetSessionCookie はセッショントークンをHttpOnlyのCookieとして設定する。
func SetSessionCookie(c *gin.Context, token string, expiresAt time.Time, secure bool) {
	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, maxAge, "/", "", secure, true)
}

// ClearSessionCookie はセッションCookieを削除する。
func ClearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", secure, true)
}

// LoadSession はCookieのトークンからセッションを復元するGinミドルウェアを返す。
// 復元できない場合もリクエストは中断せず、匿名として扱う。
func LoadSession(secret string, store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(SessionCookieName)
		if err != nil || tokenString == "" {
			c.Next()
			return
		}

		sessionID, err := ParseSessionToken(secret, tokenString)
		if err != nil {
			c.Next()
			return
		}

		s, err := store.Load(c.Request.Context(), sessionID)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				logging.Error().Err(err).Msg("セッションの読み込みに失敗")
			}
			c.Next()
			return
		}

		c.Set(contextKeySession, s)
		c.Next()
	}
}

// RequireSession は認証済みセッションを必須とするGinミドルウェアを返す。
// 未認証の場合はloginPathへリダイレクトする。GETの場合は元のパスを next に付与する。
func RequireSession(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s := CurrentSession(c); s.Authenticated() {
			c.Next()
			return
		}

		target := loginPath
		if c.Request.Method == http.MethodGet {
			target += "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
			c.Redirect(http.StatusFound, target)
		} else {
			c.Redirect(http.StatusSeeOther, target)
		}
		c.Abort()
	}
}

// RequireAdmin は管理者権限を必須とするGinミドルウェアを返す。
// RequireSession の後に適用する。
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := CurrentSession(c)
		if s == nil || !s.IsAdmin {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}

// CurrentSession はGinコンテキストからセッションを取得する。
// LoadSession で復元されていない場合はnilを返す。
func CurrentSession(c *gin.Context) *session.Session {
	v, ok := c.Get(contextKeySession)
	if !ok {
		return nil
	}
	s, _ := v.(*session.Session)
	return s
}

// SetCurrentSession はGinコンテキストにセッションを設定する。ログイン直後に使用する。
func SetCurrentSession(c *gin.Context, s *session.Session) {
	c.Set(contextKeySession, s)
}
