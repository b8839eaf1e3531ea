package dashboard

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/nao1215/sinistra/pkg/config"
	"github.com/nao1215/sinistra/pkg/event"
	"github.com/nao1215/sinistra/pkg/middleware"
	"github.com/nao1215/sinistra/pkg/session"
)

// sessionFromResponse はレスポンスのCookieからセッションを復元する。
func sessionFromResponse(t *testing.T, env *testEnv, w interface{ Result() *http.Response }) (*http.Cookie, *session.Session) {
	t.Helper()

	for _, c := range w.Result().Cookies() {
		if c.Name != middleware.SessionCookieName || c.Value == "" {
			continue
		}
		id, err := middleware.ParseSessionToken(testSecret, c.Value)
		if err != nil {
			t.Fatalf("ParseSessionToken()でエラーが発生: %v", err)
		}
		sess, err := env.sessions.Load(context.Background(), id)
		if err != nil {
			t.Fatalf("Load()でエラーが発生: %v", err)
		}
		return c, sess
	}
	t.Fatal("セッションCookieが設定されていない")
	return nil, nil
}

// TestLogin はログインを検証する。
func TestLogin(t *testing.T) {
	t.Parallel()

	loginForm := func(next string) url.Values {
		return url.Values{"username": {testUser}, "password": {"secret"}, "next": {next}}
	}

	t.Run("応答のAPIキーをセッションに紐付けて遷移先へリダイレクトすること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, map[string]fakeResponse{
			"POST /login":              {http.StatusOK, `{"username":"cmdr","tenant_name":"Sinistra","is_admin":0,"api_key":"tenant-key"}`},
			"GET /summary/leaderboard": {http.StatusOK, `[]`},
		})

		w := env.post(t, "/login", loginForm("/leaderboard?period=lw"), nil, nil)
		if w.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want %d, body = %s", w.Code, http.StatusSeeOther, w.Body.String())
		}
		if got := w.Header().Get("Location"); got != "/leaderboard?period=lw" {
			t.Errorf("Location = %q", got)
		}

		cookie, sess := sessionFromResponse(t, env, w)
		if !sess.Authenticated() || sess.TenantName != testTenant || sess.IsAdmin {
			t.Errorf("session = %+v", sess)
		}
		if key, _ := sess.APIKey(context.Background()); key != testKey {
			t.Errorf("APIKey = %q, want %q", key, testKey)
		}
		if !hasEvent(env.events(t, testTenant), event.TypeLoginSucceeded) {
			t.Error("LoginSucceeded が記録されていない")
		}

		// 以降のAPI呼び出しはセッションのキーを使う
		if w := env.get(t, "/leaderboard", cookie); w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		reqs := env.api.find(http.MethodGet, "/summary/leaderboard")
		if len(reqs) != 1 || reqs[0].APIKey != testKey {
			t.Errorf("requests = %+v", reqs)
		}
	})

	t.Run("セッションモードでAPIキーがない場合は拒否すること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, map[string]fakeResponse{
			"POST /login": {http.StatusOK, `{"username":"cmdr","tenant_name":"Sinistra"}`},
		})

		w := env.post(t, "/login", loginForm(""), nil, nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if !strings.Contains(w.Body.String(), "no API key") {
			t.Errorf("body = %s", w.Body.String())
		}
		if n := env.sessions.Len(); n != 0 {
			t.Errorf("sessions = %d, want 0", n)
		}
		if !hasEvent(env.events(t, testTenant), event.TypeLoginFailed) {
			t.Error("ログイン応答のテナントに LoginFailed が記録されていない")
		}
	})

	t.Run("固定キーモードでは固定キーを紐付けて記録すること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, map[string]fakeResponse{
			"POST /login": {http.StatusOK, `{"username":"cmdr","tenant_name":"Sinistra","is_admin":true}`},
		}, func(cfg *config.Config) {
			cfg.API.KeyMode = config.KeyModeStatic
			cfg.API.Key = "static-key"
		})

		w := env.post(t, "/login", loginForm(""), nil, nil)
		if w.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
		}
		if got := w.Header().Get("Location"); got != homePath {
			t.Errorf("Location = %q, want %q", got, homePath)
		}

		_, sess := sessionFromResponse(t, env, w)
		if key, _ := sess.APIKey(context.Background()); key != "static-key" {
			t.Errorf("APIKey = %q, want %q", key, "static-key")
		}
		if !sess.IsAdmin {
			t.Error("IsAdmin = false, want true")
		}

		reqs := env.api.find(http.MethodPost, "/login")
		if len(reqs) != 1 || reqs[0].APIKey != "static-key" {
			t.Errorf("login requests = %+v", reqs)
		}
		if !hasEvent(env.events(t, testTenant), event.TypeStaticKeyBound) {
			t.Error("StaticKeyBound が記録されていない")
		}
	})

	t.Run("拒否された場合は401で入力画面を再表示すること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, map[string]fakeResponse{
			"POST /login": {http.StatusUnauthorized, `{"detail":"invalid credentials"}`},
		})

		w := env.post(t, "/login", loginForm(""), nil, nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if !strings.Contains(w.Body.String(), invalidCredentialsMessage) {
			t.Errorf("body = %s", w.Body.String())
		}
		if n := env.sessions.Len(); n != 0 {
			t.Errorf("sessions = %d, want 0", n)
		}
		if !hasEvent(env.events(t, ""), event.TypeLoginFailed) {
			t.Error("テナントなしで LoginFailed が記録されていない")
		}
		if hasEvent(env.events(t, testTenant), event.TypeLoginFailed) {
			t.Error("設定していないテナントに LoginFailed が記録された")
		}
	})

	t.Run("拒否されたログインは設定したテナントの監査ログに表示されること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, map[string]fakeResponse{
			"POST /login": {http.StatusUnauthorized, `{"detail":"invalid credentials"}`},
		}, func(cfg *config.Config) {
			cfg.Audit.LoginTenant = testTenant
		})

		w := env.post(t, "/login", loginForm(""), nil, nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}

		cookie, _ := env.login(t, true)
		w = env.get(t, "/admin/audit", cookie)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		if !strings.Contains(w.Body.String(), "<td>"+string(event.TypeLoginFailed)+"</td>") {
			t.Errorf("監査ログに LoginFailed が表示されていない: %s", w.Body.String())
		}
	})

	t.Run("パスワードがない場合はAPIを呼ばずに400を返すこと", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, nil)
		w := env.post(t, "/login", url.Values{"username": {testUser}}, nil, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
		if len(env.api.find(http.MethodPost, "/login")) != 0 {
			t.Error("ログインAPIが呼ばれた")
		}
	})

	t.Run("ログイン済みでログイン画面を開くとリダイレクトすること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, nil)
		cookie, _ := env.login(t, false)
		w := env.get(t, "/login", cookie)
		if w.Code != http.StatusFound {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusFound)
		}
		if got := w.Header().Get("Location"); got != homePath {
			t.Errorf("Location = %q, want %q", got, homePath)
		}
	})
}

// TestLogout はログアウトを検証する。
func TestLogout(t *testing.T) {
	t.Parallel()

	t.Run("セッションを削除してログイン画面へリダイレクトすること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, nil)
		cookie, sess := env.login(t, false)
		other, _ := env.login(t, false)

		w := env.post(t, "/logout", nil, cookie, sess)
		if w.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
		}
		if got := w.Header().Get("Location"); got != loginPath {
			t.Errorf("Location = %q, want %q", got, loginPath)
		}
		if n := env.sessions.Len(); n != 1 {
			t.Errorf("sessions = %d, want 1", n)
		}
		if !hasEvent(env.events(t, testTenant), event.TypeLoggedOut) {
			t.Error("LoggedOut が記録されていない")
		}
		// 他のセッションは有効なまま
		if w := env.get(t, "/login", other); w.Code != http.StatusFound {
			t.Errorf("other session status = %d, want %d", w.Code, http.StatusFound)
		}
	})

	t.Run("everywhereを指定すると同じユーザーの全セッションを削除すること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, nil)
		cookie, sess := env.login(t, false)
		env.login(t, false)
		env.login(t, true)

		w := env.post(t, "/logout", url.Values{"everywhere": {"1"}}, cookie, sess)
		if w.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
		}
		if n := env.sessions.Len(); n != 0 {
			t.Errorf("sessions = %d, want 0", n)
		}
	})

	t.Run("セッションがなくても成功すること", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, nil)
		w := env.post(t, "/logout", nil, nil, nil)
		if w.Code != http.StatusSeeOther {
			t.Errorf("status = %d, want %d", w.Code, http.StatusSeeOther)
		}
	})

	t.Run("CSRFトークンが一致しない場合は403を返すこと", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t, nil)
		cookie, _ := env.login(t, false)
		w := env.post(t, "/logout", nil, cookie, nil)
		if w.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
		}
		if n := env.sessions.Len(); n != 1 {
			t.Errorf("sessions = %d, want 1", n)
		}
	})
}

// TestSafeNext はsafeNext関数を検証する。
func TestSafeNext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		next string
		want string
	}{
		{name: "空の場合は既定のページ", next: "", want: homePath},
		{name: "同一オリジンのパス", next: "/vouchers?period=lw", want: "/vouchers?period=lw"},
		{name: "外部URL", next: "https://evil.example.com", want: homePath},
		{name: "プロトコル相対URL", next: "//evil.example.com", want: homePath},
		{name: "バックスラッシュ", next: `/\evil.example.com`, want: homePath},
		{name: "ログイン画面", next: "/login?next=/x", want: homePath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := safeNext(tt.next); got != tt.want {
				t.Errorf("safeNext(%q) = %q, want %q", tt.next, got, tt.want)
			}
		})
	}
}
