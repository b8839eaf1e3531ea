package apiclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

// testAPIKey はテスト用のAPIキー。
const testAPIKey = "tenant-key-123"

// testVersion はテスト用のAPIバージョン。
const testVersion = "2"

// testRequest はテストサーバーが受け取ったリクエスト情報を保持する構造体。
type testRequest struct {
	// Method はHTTPメソッド。
	Method string
	// Path はリクエストパス。
	Path string
	// RawQuery はクエリ文字列。
	RawQuery string
	// Body はリクエストボディ。
	Body []byte
	// Headers はリクエストヘッダー。
	Headers http.Header
}

// recorder はテストサーバーが受け取ったリクエストを記録する。
type recorder struct {
	mu       sync.Mutex
	requests []testRequest
}

// last は最後に受け取ったリクエストを返す。
func (r *recorder) last() testRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.requests) == 0 {
		return testRequest{}
	}
	return r.requests[len(r.requests)-1]
}

// count は受け取ったリクエスト数を返す。
func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

// recordingServer は受信したリクエストを記録し、固定のレスポンスを返すテストサーバーを起動する。
func recordingServer(t *testing.T, status int, body string) (*httptest.Server, *recorder) {
	t.Helper()

	rec := &recorder{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqBody, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.requests = append(rec.requests, testRequest{
			Method:   r.Method,
			Path:     r.URL.Path,
			RawQuery: r.URL.RawQuery,
			Body:     reqBody,
			Headers:  r.Header.Clone(),
		})
		rec.mu.Unlock()

		if body != "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts, rec
}

// TestNew はNew関数でクライアントが正しく生成されることを検証する。
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("末尾のスラッシュが取り除かれること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8000/api/", testVersion, StaticKey(testAPIKey))
		if client.BaseURL() != "http://localhost:8000/api" {
			t.Errorf("BaseURL() = %q, want %q", client.BaseURL(), "http://localhost:8000/api")
		}
	})

	t.Run("タイムアウトがデフォルトで30秒に設定されていること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8000", testVersion, nil)
		if client.httpClient.Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want 30s", client.httpClient.Timeout)
		}
	})

	t.Run("WithTimeoutでタイムアウトを変更できること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8000", testVersion, nil, WithTimeout(5*time.Second))
		if client.httpClient.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want 5s", client.httpClient.Timeout)
		}
	})

	t.Run("WithCredentialsは元のクライアントを変更しないこと", func(t *testing.T) {
		t.Parallel()

		base := New("http://localhost:8000", testVersion, nil)
		bound := base.WithCredentials(StaticKey(testAPIKey))
		if base.creds != nil {
			t.Error("元のクライアントの資格情報が変更された")
		}
		if bound.httpClient != base.httpClient {
			t.Error("HTTPクライアントが共有されていない")
		}
	})
}

// TestGet はGet関数を検証する。
func TestGet(t *testing.T) {
	t.Parallel()

	t.Run("apikeyとapiversionヘッダーが付与されること", func(t *testing.T) {
		t.Parallel()

		ts, rec := recordingServer(t, http.StatusOK, `[]`)
		client := New(ts.URL, testVersion, StaticKey(testAPIKey))

		var out any
		if err := client.Get(context.Background(), "summary/leaderboard", url.Values{"period": {"cw"}}, &out); err != nil {
			t.Fatalf("Get()でエラーが発生: %v", err)
		}

		received := rec.last()
		if received.Method != http.MethodGet {
			t.Errorf("Method = %q, want %q", received.Method, http.MethodGet)
		}
		if received.Path != "/summary/leaderboard" {
			t.Errorf("Path = %q, want %q", received.Path, "/summary/leaderboard")
		}
		if received.RawQuery != "period=cw" {
			t.Errorf("RawQuery = %q, want %q", received.RawQuery, "period=cw")
		}
		if got := received.Headers.Get("apikey"); got != testAPIKey {
			t.Errorf("apikey = %q, want %q", got, testAPIKey)
		}
		if got := received.Headers.Get("apiversion"); got != testVersion {
			t.Errorf("apiversion = %q, want %q", got, testVersion)
		}
	})

	t.Run("レスポンスがjson.Unmarshalと構造的に等しいこと", func(t *testing.T) {
		t.Parallel()

		body := `[{"cmdr":"Alpha","profit":1200.5,"rank":0,"tags":["a","b"],"meta":{"x":null}}]`
		ts, _ := recordingServer(t, http.StatusOK, body)
		client := New(ts.URL, testVersion, StaticKey(testAPIKey))

		var got any
		if err := client.Get(context.Background(), "/table/cmdr", nil, &got); err != nil {
			t.Fatalf("Get()でエラーが発生: %v", err)
		}

		var want any
		if err := json.Unmarshal([]byte(body), &want); err != nil {
			t.Fatalf("期待値のパースに失敗: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Get() = %#v, want %#v", got, want)
		}
	})

	t.Run("同じ呼び出しを2回行っても結果が等しくクエリが変更されないこと", func(t *testing.T) {
		t.Parallel()

		ts, rec := recordingServer(t, http.StatusOK, `{"systems":["Sol","Achenar"]}`)
		client := New(ts.URL, testVersion, StaticKey(testAPIKey))

		query := url.Values{"faction": {"Sinistra"}, "state": {"War"}}
		snapshot := url.Values{"faction": {"Sinistra"}, "state": {"War"}}

		var first, second any
		if err := client.Get(context.Background(), "system-summary", query, &first); err != nil {
			t.Fatalf("1回目のGet()でエラーが発生: %v", err)
		}
		if err := client.Get(context.Background(), "system-summary", query, &second); err != nil {
			t.Fatalf("2回目のGet()でエラーが発生: %v", err)
		}

		if !reflect.DeepEqual(first, second) {
			t.Errorf("結果が一致しない: %#v != %#v", first, second)
		}
		if !reflect.DeepEqual(query, snapshot) {
			t.Errorf("クエリが変更された: %v", query)
		}
		if rec.count() != 2 {
			t.Errorf("リクエスト数 = %d, want 2（キャッシュしないこと）", rec.count())
		}
	})

	t.Run("2xx以外のステータスでステータスとボディを保持したRequestErrorを返すこと", func(t *testing.T) {
		t.Parallel()

		body := `{"error":"Too many systems","systems":["A","B"],"count":120}`
		ts, _ := recordingServer(t, http.StatusBadRequest, body)
		client := New(ts.URL, testVersion, StaticKey(testAPIKey))

		err := client.Get(context.Background(), "system-summary", nil, nil)
		var re *RequestError
		if !errors.As(err, &re) {
			t.Fatalf("エラー型 = %T, want *RequestError", err)
		}
		if re.StatusCode != http.StatusBadRequest {
			t.Errorf("StatusCode = %d, want %d", re.StatusCode, http.StatusBadRequest)
		}
		if string(re.Body) != body {
			t.Errorf("Body = %q, want %q", string(re.Body), body)
		}
	})

	t.Run("資格情報がない場合は通信せずにAuthenticationErrorを返すこと", func(t *testing.T) {
		t.Parallel()

		ts, rec := recordingServer(t, http.StatusOK, `[]`)
		sources := map[string]CredentialSource{
			"nil":   nil,
			"empty": StaticKey(""),
			"func": CredentialFunc(func(context.Context) (string, error) {
				return "", ErrNoCredential
			}),
		}
		for name, src := range sources {
			client := New(ts.URL, testVersion, src)
			err := client.Get(context.Background(), "table/cmdr", nil, nil)
			if !IsAuthentication(err) {
				t.Errorf("%s: エラー型 = %T, want *AuthenticationError", name, err)
			}
			if !errors.Is(err, ErrNoCredential) {
				t.Errorf("%s: ErrNoCredentialを包んでいない: %v", name, err)
			}
		}
		if rec.count() != 0 {
			t.Errorf("リクエスト数 = %d, want 0", rec.count())
		}
	})

	t.Run("接続できない場合はTransportErrorを返すこと", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.NotFoundHandler())
		addr := ts.URL
		ts.Close()

		client := New(addr, testVersion, StaticKey(testAPIKey))
		err := client.Get(context.Background(), "table/cmdr", nil, nil)
		var te *TransportError
		if !errors.As(err, &te) {
			t.Fatalf("エラー型 = %T, want *TransportError", err)
		}
		if te.Err == nil {
			t.Error("原因のエラーが保持されていない")
		}
	})

	t.Run("コンテキストのキャンセルがTransportErrorとして返ること", func(t *testing.T) {
		t.Parallel()

		ts, _ := recordingServer(t, http.StatusOK, `[]`)
		client := New(ts.URL, testVersion, StaticKey(testAPIKey))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := client.Get(ctx, "table/cmdr", nil, nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("context.Canceledを包んでいない: %v", err)
		}
	})

	t.Run("不正なJSONの場合はデシリアライズエラーを返すこと", func(t *testing.T) {
		t.Parallel()

		ts, _ := recordingServer(t, http.StatusOK, `<html>`)
		client := New(ts.URL, testVersion, StaticKey(testAPIKey))

		var out any
		if err := client.Get(context.Background(), "table/cmdr", nil, &out); err == nil {
			t.Fatal("エラーが返されなかった")
		}
	})
}

// TestPost はPost関数を検証する。
func TestPost(t *testing.T) {
	t.Parallel()

	t.Run("ステータスコードとボディの両方を返すこと", func(t *testing.T) {
		t.Parallel()

		ts, rec := recordingServer(t, http.StatusCreated, `{"id":7}`)
		client := New(ts.URL, testVersion, StaticKey(testAPIKey))

		var out map[string]any
		status, err := client.Post(context.Background(), "objectives", map[string]string{"title": "x"}, &out)
		if err != nil {
			t.Fatalf("Post()でエラーが発生: %v", err)
		}
		if status != http.StatusCreated {
			t.Errorf("status = %d, want %d", status, http.StatusCreated)
		}
		if out["id"] != float64(7) {
			t.Errorf("id = %v, want 7", out["id"])
		}
		received := rec.last()
		if got := received.Headers.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want %q", got, "application/json")
		}
		if string(received.Body) != `{"title":"x"}` {
			t.Errorf("Body = %q", string(received.Body))
		}
	})

	t.Run("ボディなしの呼び出しではステータスのみを返すこと", func(t *testing.T) {
		t.Parallel()

		ts, rec := recordingServer(t, http.StatusAccepted, "")
		client := New(ts.URL, testVersion, StaticKey(testAPIKey))

		status, err := client.Post(context.Background(), "sync/cmdrs", nil, nil)
		if err != nil {
			t.Fatalf("Post()でエラーが発生: %v", err)
		}
		if status != http.StatusAccepted {
			t.Errorf("status = %d, want %d", status, http.StatusAccepted)
		}
		received := rec.last()
		if len(received.Body) != 0 {
			t.Errorf("ボディが送信された: %q", string(received.Body))
		}
		if got := received.Headers.Get("Content-Type"); got != "" {
			t.Errorf("Content-Type = %q, want empty", got)
		}
	})

	t.Run("失敗時もステータスコードを返すこと", func(t *testing.T) {
		t.Parallel()

		ts, _ := recordingServer(t, http.StatusConflict, `{"error":"Faction already exists"}`)
		client := New(ts.URL, testVersion, StaticKey(testAPIKey))

		status, err := client.Post(context.Background(), "protected-faction", map[string]string{"name": "A"}, nil)
		if status != http.StatusConflict {
			t.Errorf("status = %d, want %d", status, http.StatusConflict)
		}
		var re *RequestError
		if !errors.As(err, &re) {
			t.Fatalf("エラー型 = %T, want *RequestError", err)
		}
	})
}

// TestPut はPut関数を検証する。
func TestPut(t *testing.T) {
	t.Parallel()

	t.Run("JSONボディを返すこと", func(t *testing.T) {
		t.Parallel()

		ts, rec := recordingServer(t, http.StatusOK, `{"status":"updated"}`)
		client := New(ts.URL, testVersion, StaticKey(testAPIKey))

		var out map[string]string
		if err := client.Put(context.Background(), "protected-faction/2", map[string]string{"description": "y"}, &out); err != nil {
			t.Fatalf("Put()でエラーが発生: %v", err)
		}
		received := rec.last()
		if received.Method != http.MethodPut {
			t.Errorf("Method = %q, want %q", received.Method, http.MethodPut)
		}
		if out["status"] != "updated" {
			t.Errorf("status = %q, want %q", out["status"], "updated")
		}
	})

	t.Run("ボディが空の場合はErrEmptyBodyを返すこと", func(t *testing.T) {
		t.Parallel()

		ts, _ := recordingServer(t, http.StatusOK, "")
		client := New(ts.URL, testVersion, StaticKey(testAPIKey))

		var out map[string]any
		err := client.Put(context.Background(), "protected-faction/2", map[string]string{"description": "y"}, &out)
		if !errors.Is(err, ErrEmptyBody) {
			t.Errorf("err = %v, want ErrEmptyBody", err)
		}
	})

	t.Run("outがnilでもボディが空の場合はErrEmptyBodyを返すこと", func(t *testing.T) {
		t.Parallel()

		ts, _ := recordingServer(t, http.StatusOK, "")
		client := New(ts.URL, testVersion, StaticKey(testAPIKey))

		err := client.Put(context.Background(), "protected-faction/2", map[string]string{"description": "y"}, nil)
		if !errors.Is(err, ErrEmptyBody) {
			t.Errorf("err = %v, want ErrEmptyBody", err)
		}
	})

	t.Run("outがnilの場合はボディを読み捨てること", func(t *testing.T) {
		t.Parallel()

		ts, _ := recordingServer(t, http.StatusOK, `{"status":"updated"}`)
		client := New(ts.URL, testVersion, StaticKey(testAPIKey))

		if err := client.Put(context.Background(), "protected-faction/2", map[string]string{"description": "y"}, nil); err != nil {
			t.Errorf("Put()でエラーが発生: %v", err)
		}
	})
}

// TestDelete はDelete関数を検証する。
func TestDelete(t *testing.T) {
	t.Parallel()

	t.Run("サーバーのボディをそのまま返すこと", func(t *testing.T) {
		t.Parallel()

		ts, rec := recordingServer(t, http.StatusOK, `{"message":"removed","id":3}`)
		client := New(ts.URL, testVersion, StaticKey(testAPIKey))

		var out map[string]any
		if err := client.Delete(context.Background(), "objectives/3", &out); err != nil {
			t.Fatalf("Delete()でエラーが発生: %v", err)
		}
		received := rec.last()
		if received.Method != http.MethodDelete {
			t.Errorf("Method = %q, want %q", received.Method, http.MethodDelete)
		}
		if out["message"] != "removed" {
			t.Errorf("message = %v, want removed", out["message"])
		}
	})

	t.Run("ボディがない場合はstatus=deletedを合成すること", func(t *testing.T) {
		t.Parallel()

		ts, _ := recordingServer(t, http.StatusNoContent, "")
		client := New(ts.URL, testVersion, StaticKey(testAPIKey))

		var out map[string]any
		if err := client.Delete(context.Background(), "objectives/3", &out); err != nil {
			t.Fatalf("Delete()でエラーが発生: %v", err)
		}
		if out["status"] != "deleted" {
			t.Errorf("status = %v, want deleted", out["status"])
		}
	})

	t.Run("404の場合はIsNotFoundが真になること", func(t *testing.T) {
		t.Parallel()

		ts, _ := recordingServer(t, http.StatusNotFound, `{"error":"not found"}`)
		client := New(ts.URL, testVersion, StaticKey(testAPIKey))

		err := client.Delete(context.Background(), "objectives/999", nil)
		if err == nil {
			t.Fatal("エラーが返されなかった")
		}
		if !IsNotFound(err) {
			t.Errorf("IsNotFound(%v) = false, want true", err)
		}
	})
}

// TestPathJoin はPathJoin関数を検証する。
func TestPathJoin(t *testing.T) {
	t.Parallel()

	t.Run("セグメントがエスケープされること", func(t *testing.T) {
		t.Parallel()

		got := PathJoin("systems", "HIP 4120", "status")
		if got != "systems/HIP%204120/status" {
			t.Errorf("PathJoin() = %q, want %q", got, "systems/HIP%204120/status")
		}
	})
}
