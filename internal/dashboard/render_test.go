package dashboard

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/sinistra/pkg/apiclient"
)

// TestErrorMessage はerrorMessage関数を検証する。
func TestErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "認証エラー",
			err:  &apiclient.AuthenticationError{Reason: "x", Err: apiclient.ErrNoCredential},
			want: "Your session has expired. Please log in again.",
		},
		{
			name: "HTTPエラーは本文を含める",
			err:  &apiclient.RequestError{Method: http.MethodGet, Path: "p", StatusCode: 400, Body: []byte(" bad period \n")},
			want: "API error 400: bad period",
		},
		{
			name: "本文のないHTTPエラー",
			err:  &apiclient.RequestError{Method: http.MethodGet, Path: "p", StatusCode: 503},
			want: "API error 503",
		},
		{
			name: "通信エラー",
			err:  &apiclient.TransportError{Method: http.MethodGet, Path: "p", Err: errors.New("dial tcp")},
			want: "API unreachable. Please try again later.",
		},
		{
			name: "見つからない",
			err:  &apiclient.NotFoundError{Kind: "faction", Name: "Ghost"},
			want: "Not found: Ghost",
		},
		{
			name: "その他",
			err:  errors.New("boom"),
			want: "Unexpected error: boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := errorMessage(tt.err); got != tt.want {
				t.Errorf("errorMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestTakeFlash はtakeFlash関数を検証する。
func TestTakeFlash(t *testing.T) {
	t.Parallel()

	t.Run("メッセージを取り出してCookieを削除すること", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.AddCookie(&http.Cookie{Name: flashCookieName, Value: "success%3AFaction+%22A%22+added."})

		f := takeFlash(c)
		if f == nil || f.Kind != flashSuccess || f.Message != `Faction "A" added.` {
			t.Fatalf("takeFlash() = %+v", f)
		}
		cookies := w.Result().Cookies()
		if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
			t.Errorf("cookies = %+v", cookies)
		}
	})

	t.Run("種類が不明な場合は無視すること", func(t *testing.T) {
		t.Parallel()

		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.AddCookie(&http.Cookie{Name: flashCookieName, Value: "script%3Aalert"})

		if f := takeFlash(c); f != nil {
			t.Errorf("takeFlash() = %+v, want nil", f)
		}
	})
}

// TestParseTemplates は全てのテンプレートが読み込めることを確認する。
func TestParseTemplates(t *testing.T) {
	t.Parallel()

	tmpl, err := parseTemplates()
	if err != nil {
		t.Fatalf("parseTemplates()でエラーが発生: %v", err)
	}
	for _, name := range []string{
		"login.html", "tables.html", "evaluations.html", "table_page.html", "leaderboard.html",
		"vouchers.html", "cz.html", "fsdjump.html", "system_info.html", "systems.html",
		"objectives.html", "factions.html", "audit.html", "confirm.html",
	} {
		if tmpl.Lookup(name) == nil {
			t.Errorf("テンプレート %s がない", name)
		}
	}
}
