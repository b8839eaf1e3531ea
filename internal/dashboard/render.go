package dashboard

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/sinistra/internal/report"
	"github.com/nao1215/sinistra/pkg/apiclient"
	"github.com/nao1215/sinistra/pkg/middleware"
)

//go:embed templates
var templatesFS embed.FS

// templateFuncs はテンプレートから使う関数。
var templateFuncs = template.FuncMap{
	"number": report.Number,
	"join":   strings.Join,
	// pathEscape はパスの1セグメントとして埋め込む値をエスケープする。
	"pathEscape": func(v any) string {
		return url.PathEscape(fmt.Sprint(v))
	},
	// css は report パッケージが組み立てたスタイルをそのまま出力する。
	"css": func(s string) template.CSS {
		return template.CSS(s)
	},
	"bar": func(percent float64, color string) template.CSS {
		return template.CSS(fmt.Sprintf("width:%.1f%%;background:%s", percent, color))
	},
	"pct": func(percent float64) string {
		return fmt.Sprintf("%.1f%%", percent)
	},
	// seq は0からn-1までの整数を返す。
	"seq": func(n int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	},
	"contains": func(items []string, v string) bool {
		for _, item := range items {
			if item == v {
				return true
			}
		}
		return false
	},
}

// parseTemplates は埋め込んだテンプレートを読み込む。
func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
}

// navItem はナビゲーションの項目。
type navItem struct {
	Path  string
	Label string
	Admin bool
}

var navItems = []navItem{
	{Path: "/leaderboard", Label: "Leaderboard"},
	{Path: "/evaluations", Label: "Evaluations"},
	{Path: "/cmdrs", Label: "Commanders"},
	{Path: "/recruits", Label: "Recruits"},
	{Path: "/vouchers", Label: "Vouchers"},
	{Path: "/cz", Label: "CZ Summary"},
	{Path: "/fsdjump", Label: "FSD Jumps"},
	{Path: "/system-info", Label: "System Info"},
	{Path: "/systems", Label: "Systems"},
	{Path: "/objectives", Label: "Objectives"},
	{Path: "/tables", Label: "Tables"},
	{Path: "/admin/factions", Label: "Factions", Admin: true},
	{Path: "/admin/audit", Label: "Audit Log", Admin: true},
}

// render は共通のデータを加えてテンプレートを描画する。
func (s *Server) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	sess := middleware.CurrentSession(c)
	isAdmin := sess.Authenticated() && sess.IsAdmin

	nav := make([]navItem, 0, len(navItems))
	if sess.Authenticated() {
		for _, item := range navItems {
			if !item.Admin || isAdmin {
				nav = append(nav, item)
			}
		}
	}

	data["Session"] = sess
	data["IsAdmin"] = isAdmin
	data["CSRF"] = middleware.CSRFToken(c)
	data["CSRFField"] = middleware.CSRFFormField
	data["Path"] = c.Request.URL.Path
	data["Nav"] = nav
	if f := takeFlash(c); f != nil {
		data["Flash"] = f
	}
	c.HTML(status, name, data)
}

// flashCookieName はリダイレクト先に表示するメッセージを運ぶCookie。
const flashCookieName = "sinistra_flash"

const (
	flashSuccess = "success"
	flashError   = "error"
)

// Flash はリダイレクト後に一度だけ表示するメッセージ。
type Flash struct {
	Kind    string
	Message string
}

// setFlash は次のページに表示するメッセージを設定する。
func (s *Server) setFlash(c *gin.Context, kind, message string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookieName, kind+":"+message, 60, "/", "", s.cfg.Session.CookieSecure, true)
}

// takeFlash はメッセージを取り出してCookieを削除する。
func takeFlash(c *gin.Context) *Flash {
	v, err := c.Cookie(flashCookieName)
	if err != nil || v == "" {
		return nil
	}
	c.SetCookie(flashCookieName, "", -1, "/", "", false, true)

	kind, message, ok := strings.Cut(v, ":")
	if !ok || (kind != flashSuccess && kind != flashError) {
		return nil
	}
	return &Flash{Kind: kind, Message: message}
}

// redirectWithFlash はメッセージを設定してPOST後のリダイレクトを行う。
func (s *Server) redirectWithFlash(c *gin.Context, target, kind, message string) {
	s.setFlash(c, kind, message)
	c.Redirect(http.StatusSeeOther, target)
}

// errorMessage はAPIクライアントのエラーを画面に表示するメッセージに変換する。
func errorMessage(err error) string {
	var (
		ae *apiclient.AuthenticationError
		re *apiclient.RequestError
		te *apiclient.TransportError
		nf *apiclient.NotFoundError
	)
	switch {
	case errors.As(err, &ae):
		return "Your session has expired. Please log in again."
	case errors.As(err, &re):
		body := strings.TrimSpace(string(re.Body))
		if body == "" {
			return fmt.Sprintf("API error %d", re.StatusCode)
		}
		return fmt.Sprintf("API error %d: %s", re.StatusCode, body)
	case errors.As(err, &te):
		return "API unreachable. Please try again later."
	case errors.As(err, &nf):
		return "Not found: " + nf.Name
	default:
		return "Unexpected error: " + err.Error()
	}
}

// handleAuthError は認証エラーの場合にセッションを破棄してログイン画面へリダイレクトし、trueを返す。
func (s *Server) handleAuthError(c *gin.Context, err error) bool {
	if !apiclient.IsAuthentication(err) {
		return false
	}
	if sess := middleware.CurrentSession(c); sess != nil {
		_ = s.sessions.Delete(c.Request.Context(), sess.ID)
		sess.Clear()
	}
	middleware.ClearSessionCookie(c, s.cfg.Session.CookieSecure)
	s.redirectWithFlash(c, loginPath, flashError, errorMessage(err))
	c.Abort()
	return true
}

// apiError はAPI呼び出しの失敗をdataに設定する。
// 認証エラーでリダイレクトした場合はtrueを返し、呼び出し元は描画せずに終了する。
func (s *Server) apiError(c *gin.Context, data gin.H, err error) bool {
	if s.handleAuthError(c, err) {
		return true
	}
	_ = c.Error(err)
	data["Error"] = errorMessage(err)
	return false
}
