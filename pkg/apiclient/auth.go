package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// LoginResult は /login の成功時の応答。
type LoginResult struct {
	// Username は認証されたユーザー名。
	Username string `json:"username"`
	// TenantName はユーザーが所属するテナント名。
	TenantName string `json:"tenant_name"`
	// IsAdmin は管理者権限の有無。
	IsAdmin Flag `json:"is_admin"`
	// APIKey はテナントに紐付くAPIキー。応答に含まれない場合は空。
	APIKey string `json:"api_key"`
}

// loginRequest は /login へのリクエストボディ。
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login はユーザー名とパスワードで /login を呼び出す。
// 資格情報の取得元にキーがあれば apikey ヘッダーとして付与するが、なくても呼び出す。
// 拒否された場合は原因の RequestError を包んだ AuthenticationError を返し、
// ネットワーク障害は TransportError としてそのまま返す。
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var key string
	if c.creds != nil {
		k, err := c.creds.APIKey(ctx)
		if err != nil && !errors.Is(err, ErrNoCredential) {
			return nil, &AuthenticationError{Reason: "ブートストラップ用APIキーを解決できません", Err: err}
		}
		key = k
	}

	resp, err := c.send(ctx, http.MethodPost, "login", nil, loginRequest{Username: username, Password: password}, key)
	if err != nil {
		var re *RequestError
		if errors.As(err, &re) {
			reason := "ログインに失敗しました"
			if re.StatusCode == http.StatusUnauthorized || re.StatusCode == http.StatusForbidden {
				reason = "ユーザー名またはパスワードが正しくありません"
			}
			return nil, &AuthenticationError{Reason: reason, Err: err}
		}
		return nil, err
	}

	var result LoginResult
	if err := json.Unmarshal(resp.body, &result); err != nil {
		return nil, &AuthenticationError{
			Reason: "ログイン応答を解析できません",
			Err:    fmt.Errorf("レスポンスボディのデシリアライズに失敗: %w", err),
		}
	}
	if strings.TrimSpace(result.Username) == "" {
		result.Username = username
	}
	return &result, nil
}
