package dashboard

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/sinistra/pkg/apiclient"
	"github.com/nao1215/sinistra/pkg/config"
	"github.com/nao1215/sinistra/pkg/event"
	"github.com/nao1215/sinistra/pkg/logging"
	"github.com/nao1215/sinistra/pkg/metrics"
	"github.com/nao1215/sinistra/pkg/middleware"
	"github.com/nao1215/sinistra/pkg/session"
)

// invalidCredentialsMessage はログインが拒否された場合の表示。
const invalidCredentialsMessage = "Invalid username or password."

// handleLoginForm はログイン画面を表示するハンドラを返す。
func (s *Server) handleLoginForm() gin.HandlerFunc {
	return func(c *gin.Context) {
		if middleware.CurrentSession(c).Authenticated() {
			c.Redirect(http.StatusFound, safeNext(c.Query("next")))
			return
		}
		s.render(c, http.StatusOK, "login.html", gin.H{
			"Title": "Login",
			"Next":  c.Query("next"),
		})
	}
}

// handleLogin はログインを処理するハンドラを返す。
// 成功するとAPIキーを紐付けたセッションを保存し、署名付きCookieを発行する。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var form loginForm
		if errs := bindForm(c, &form); errs != nil {
			s.render(c, http.StatusBadRequest, "login.html", gin.H{
				"Title":    "Login",
				"Next":     form.Next,
				"Username": form.Username,
				"Error":    "Username and password are required.",
			})
			return
		}

		// テナントが判明しない失敗は audit.login_tenant に記録する
		fail := func(status int, tenant, reason, message string) {
			if tenant == "" {
				tenant = s.cfg.Audit.LoginTenant
			}
			s.recordAs(ctx, tenant, form.Username, event.TypeLoginFailed, form.Username, event.LoginData{
				ClientIP: c.ClientIP(),
				Reason:   reason,
			})
			s.render(c, status, "login.html", gin.H{
				"Title":    "Login",
				"Next":     form.Next,
				"Username": form.Username,
				"Error":    message,
			})
		}

		res, err := s.loginClient().Login(ctx, form.Username, form.Password)
		if err != nil {
			if apiclient.IsAuthentication(err) {
				metrics.ObserveLogin("rejected")
				fail(http.StatusUnauthorized, "", "rejected", invalidCredentialsMessage)
				return
			}
			metrics.ObserveLogin("error")
			logging.Warn().Err(err).Str("user", form.Username).Msg("ログインAPIの呼び出しに失敗")
			fail(http.StatusBadGateway, "", "error", errorMessage(err))
			return
		}

		key, staticBound := res.APIKey, false
		if key == "" {
			if s.cfg.API.KeyMode != config.KeyModeStatic {
				metrics.ObserveLogin("rejected")
				fail(http.StatusUnauthorized, res.TenantName, "no_api_key", "Login succeeded but no API key was issued for your tenant.")
				return
			}
			key, staticBound = s.cfg.API.Key, true
		}

		// 以前のセッションは引き継がない
		if old := middleware.CurrentSession(c); old != nil {
			_ = s.sessions.Delete(ctx, old.ID)
		}

		sess := session.New(s.cfg.Session.TTL)
		if err := sess.Set(session.Credentials{
			Username:   res.Username,
			TenantName: res.TenantName,
			APIKey:     key,
			IsAdmin:    bool(res.IsAdmin),
		}); err != nil {
			metrics.ObserveLogin("error")
			fail(http.StatusInternalServerError, res.TenantName, "error", "Could not start a session.")
			return
		}
		if err := s.sessions.Save(ctx, sess); err != nil {
			logging.Error().Err(err).Msg("セッションの保存に失敗")
			metrics.ObserveLogin("error")
			fail(http.StatusInternalServerError, res.TenantName, "error", "Could not start a session.")
			return
		}

		token, err := middleware.IssueSessionToken(s.cfg.Session.Secret, sess.ID, sess.ExpiresAt)
		if err != nil {
			logging.Error().Err(err).Msg("セッショントークンの発行に失敗")
			_ = s.sessions.Delete(ctx, sess.ID)
			metrics.ObserveLogin("error")
			fail(http.StatusInternalServerError, res.TenantName, "error", "Could not start a session.")
			return
		}
		middleware.SetSessionCookie(c, token, sess.ExpiresAt, s.cfg.Session.CookieSecure)
		middleware.SetCurrentSession(c, sess)

		metrics.ObserveLogin("success")
		s.recordAs(ctx, sess.TenantName, sess.Username, event.TypeLoginSucceeded, sess.Username, event.LoginData{
			ClientIP: c.ClientIP(),
			Admin:    sess.IsAdmin,
		})
		if staticBound {
			s.recordAs(ctx, sess.TenantName, sess.Username, event.TypeStaticKeyBound, sess.Username, nil)
			logging.Warn().Str("user", sess.Username).Str("tenant", sess.TenantName).
				Msg("ログイン応答にAPIキーがないため固定キーを紐付けました")
		}
		logging.Info().Str("user", sess.Username).Str("tenant", sess.TenantName).Msg("ログインしました")

		c.Redirect(http.StatusSeeOther, safeNext(form.Next))
	}
}

// loginClient はログインに使うクライアントを返す。固定キーがあればブートストラップ用に付与する。
func (s *Server) loginClient() *apiclient.Client {
	if s.cfg.API.Key != "" {
		return s.api.WithCredentials(apiclient.StaticKey(s.cfg.API.Key))
	}
	return s.api.WithCredentials(nil)
}

// handleLogout はログアウトを処理するハンドラを返す。何度呼んでもよい。
// everywhere=1 の場合は同じユーザーの全てのセッションを破棄する。
func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if sess := middleware.CurrentSession(c); sess != nil {
			if !middleware.ValidCSRF(c) {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}

			tenant, username := sess.TenantName, sess.Username
			if c.PostForm("everywhere") == "1" && sess.Authenticated() {
				n, err := s.sessions.DeleteByUser(ctx, tenant, username)
				if err != nil {
					logging.Error().Err(err).Str("user", username).Msg("セッションの一括削除に失敗")
				} else {
					logging.Info().Int("sessions", n).Str("user", username).Msg("全てのセッションを破棄しました")
				}
			}
			if err := s.sessions.Delete(ctx, sess.ID); err != nil {
				logging.Error().Err(err).Msg("セッションの削除に失敗")
			}
			if sess.Authenticated() {
				s.recordAs(ctx, tenant, username, event.TypeLoggedOut, username, nil)
			}
			sess.Clear()
		}

		middleware.ClearSessionCookie(c, s.cfg.Session.CookieSecure)
		c.Redirect(http.StatusSeeOther, loginPath)
	}
}

// safeNext はログイン後の遷移先を同一オリジンのパスに限定する。
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") ||
		strings.HasPrefix(next, `/\`) || strings.HasPrefix(next, loginPath) {
		return homePath
	}
	return next
}
