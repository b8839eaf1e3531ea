package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoCredential はリクエストに使用するAPIキーが存在しないことを表す。
var ErrNoCredential = errors.New("セッションに資格情報が紐付いていません")

// AuthenticationError はAPIキーが解決できない、またはログインが拒否されたことを表す。
// ネットワークI/Oの前に発生するものと、/login の応答によるものがある。
type AuthenticationError struct {
	// Reason は利用者向けの理由。
	Reason string
	// Err は原因となったエラー。
	Err error
}

// Error はエラーメッセージを返す。
func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("認証エラー: %s: %v", e.Reason, e.Err)
	}
	return "認証エラー: " + e.Reason
}

// Unwrap は原因となったエラーを返す。
func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// RequestError はAPIサーバーが2xx以外のステータスを返したことを表す。
// 受信したステータスコードとボディをそのまま保持する。
type RequestError struct {
	// Method はHTTPメソッド。
	Method string
	// Path はリクエストした相対パス。
	Path string
	// StatusCode はHTTPステータスコード。
	StatusCode int
	// Body はレスポンスボディ。
	Body []byte
}

// Error はエラーメッセージを返す。
func (e *RequestError) Error() string {
	return fmt.Sprintf("HTTPエラー: %s %s: status=%d, body=%s", e.Method, e.Path, e.StatusCode, string(e.Body))
}

// TransportError はDNS解決失敗、タイムアウト、接続拒否などネットワーク層の失敗を表す。
type TransportError struct {
	// Method はHTTPメソッド。
	Method string
	// Path はリクエストした相対パス。
	Path string
	// Err は原因となったエラー。
	Err error
}

// Error はエラーメッセージを返す。
func (e *TransportError) Error() string {
	return fmt.Sprintf("HTTPリクエストの送信に失敗: %s %s: %v", e.Method, e.Path, e.Err)
}

// Unwrap は原因となったエラーを返す。
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NotFoundError は名前による検索（例: ファクション名からIDの解決）で一致がなかったことを表す。
type NotFoundError struct {
	// Kind は検索対象の種類。
	Kind string
	// Name は検索した名前。
	Name string
}

// Error はエラーメッセージを返す。
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%sが見つかりません: %s", e.Kind, e.Name)
}

// IsNotFound はerrが NotFoundError、または404の RequestError であるかを判定する。
func IsNotFound(err error) bool {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return true
	}
	var re *RequestError
	return errors.As(err, &re) && re.StatusCode == http.StatusNotFound
}

// IsAuthentication はerrが AuthenticationError であるかを判定する。
func IsAuthentication(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}
