package apiclient

import "context"

// CredentialSource はリクエストごとにAPIキーを解決する。
// *session.Session もこのインターフェースを満たす。
type CredentialSource interface {
	// APIKey はAPIキーを返す。キーがない場合はエラーを返す。
	APIKey(ctx context.Context) (string, error)
}

// StaticKey は固定のAPIキーを返す CredentialSource。
// 空文字列の場合は ErrNoCredential を返す。
type StaticKey string

// APIKey は固定のAPIキーを返す。
func (k StaticKey) APIKey(_ context.Context) (string, error) {
	if k == "" {
		return "", ErrNoCredential
	}
	return string(k), nil
}

// CredentialFunc は関数を CredentialSource として扱うためのアダプタ。
type CredentialFunc func(ctx context.Context) (string, error)

// APIKey は関数を呼び出してAPIキーを返す。
func (f CredentialFunc) APIKey(ctx context.Context) (string, error) {
	return f(ctx)
}
