package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nao1215/sinistra/pkg/metrics"
)

// DefaultTimeout はHTTPリクエストのデフォルトタイムアウト。
const DefaultTimeout = 30 * time.Second

// maxBodySize は読み込むレスポンスボディの上限（バイト）。
const maxBodySize = 32 << 20

// deletedBody はDELETEのレスポンスボディが空の場合に代わりに返すJSON。
var deletedBody = []byte(`{"status":"deleted"}`)

// ErrEmptyBody はJSONボディを必須とする呼び出しで、ボディが空だったことを表す。
var ErrEmptyBody = errors.New("レスポンスボディが空です")

// Client はBGS APIを呼び出すHTTPクライアント。
// ベースURLとAPIバージョンは生成時に固定され、APIキーは呼び出しごとに
// CredentialSource から解決する。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は接続先APIのベースURL（末尾スラッシュなし）。
	baseURL string
	// version は apiversion ヘッダーに設定する値。
	version string
	// creds はAPIキーの取得元。
	creds CredentialSource
}

// Option はClientの生成オプション。
type Option func(*Client)

// WithTimeout はHTTPリクエストのタイムアウトを設定する。
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient は内部で使用するHTTPクライアントを差し替える。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New は新しいAPIクライアントを生成する。
// baseURLには接続先APIのベースURL（例: "https://bgs.example.com/api"）を指定する。
// credsがnilの場合、認証付きの呼び出しはすべて AuthenticationError になる。
func New(baseURL, version string, creds CredentialSource, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		version: version,
		creds:   creds,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithCredentials は同じ接続設定で資格情報の取得元だけを差し替えたクライアントを返す。
// HTTPクライアントは共有される。
func (c *Client) WithCredentials(creds CredentialSource) *Client {
	clone := *c
	clone.creds = creds
	return &clone
}

// BaseURL は接続先のベースURLを返す。
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get は指定パスにGETリクエストを送信し、レスポンスボディをoutにデシリアライズする。
// queryは変更されない。outがnilの場合はボディを読み捨てる。
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return resp.decode(out, false)
}

// Post は指定パスにJSONボディでPOSTリクエストを送信する。
// ステータスコードを常に返し、ボディがありoutが非nilの場合はデシリアライズする。
// 結果が不要な呼び出しではoutにnilを渡す。
func (c *Client) Post(ctx context.Context, path string, body, out any) (int, error) {
	resp, err := c.do(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		var re *RequestError
		if errors.As(err, &re) {
			return re.StatusCode, err
		}
		return 0, err
	}
	return resp.status, resp.decode(out, false)
}

// Put は指定パスにJSONボディでPUTリクエストを送信する。
// レスポンスは常にJSONボディを伴う必要があり、空の場合は ErrEmptyBody を返す。
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	resp, err := c.do(ctx, http.MethodPut, path, nil, body)
	if err != nil {
		return err
	}
	return resp.decode(out, true)
}

// Delete は指定パスにDELETEリクエストを送信し、確認用のレスポンスボディをoutに
// デシリアライズする。サーバーがボディを返さない場合は {"status":"deleted"} を返す。
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(resp.body)) == 0 {
		resp.body = deletedBody
	}
	return resp.decode(out, false)
}

// response はHTTPレスポンスのステータスとボディ。
type response struct {
	status int
	body   []byte
}

// decode はボディをoutにデシリアライズする。
// requiredの場合はoutがnilでも空のボディを ErrEmptyBody とする。
func (r *response) decode(out any, required bool) error {
	if len(bytes.TrimSpace(r.body)) == 0 {
		if required {
			return ErrEmptyBody
		}
		return nil
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(r.body, out); err != nil {
		return fmt.Errorf("レスポンスボディのデシリアライズに失敗: %w", err)
	}
	return nil
}

// do はAPIキーを解決してからリクエストを送信する。
// キーが解決できない場合はネットワークI/Oを行わずに AuthenticationError を返す。
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*response, error) {
	if c.creds == nil {
		return nil, &AuthenticationError{Reason: "資格情報の取得元が設定されていません", Err: ErrNoCredential}
	}
	key, err := c.creds.APIKey(ctx)
	if err != nil {
		return nil, &AuthenticationError{Reason: "APIキーを解決できません", Err: err}
	}
	if key == "" {
		return nil, &AuthenticationError{Reason: "APIキーを解決できません", Err: ErrNoCredential}
	}
	return c.send(ctx, method, path, query, body, key)
}

// send はHTTPリクエストを1回だけ送信する共通処理。
// keyが空の場合は apikey ヘッダーを付与しない（ログイン用）。
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any, key string) (*response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("リクエストボディのシリアライズに失敗: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path, query), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set("apikey", key)
	}
	req.Header.Set("apiversion", c.version)

	start := time.Now()
	endpoint := endpointLabel(path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveUpstream(method, endpoint, "transport_error", time.Since(start))
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		metrics.ObserveUpstream(method, endpoint, "transport_error", time.Since(start))
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.ObserveUpstream(method, endpoint, fmt.Sprintf("%dxx", resp.StatusCode/100), time.Since(start))
		return nil, &RequestError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       respBody,
		}
	}

	metrics.ObserveUpstream(method, endpoint, "2xx", time.Since(start))
	return &response{status: resp.StatusCode, body: respBody}, nil
}

// resolve はベースURL・相対パス・クエリから完全なURLを組み立てる。
func (c *Client) resolve(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// endpointLabel はメトリクスのラベルに使うパスの先頭セグメントを返す。
func endpointLabel(path string) string {
	path = strings.TrimLeft(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	if path == "" {
		return "root"
	}
	return path
}

// PathJoin は各セグメントをパスエスケープして "/" で連結する。
// システム名のように空白を含む値をパスに埋め込む場合に使用する。
func PathJoin(segments ...string) string {
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}
	return strings.Join(escaped, "/")
}
