// Package session はログイン中のユーザーに紐付く資格情報（APIキーとテナント）を保持する。
//
// Session は匿名状態と認証済み状態の2状態を持ち、ログイン成功時に Set で認証済みに、
// ログアウト時に Clear で匿名に戻る。セッション全体の有効期限は Store 側で扱う。
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNoCredential はセッションにAPIキーが紐付いていないことを表す。
var ErrNoCredential = errors.New("セッションに資格情報が紐付いていません")

// ErrEmptyAPIKey は空のAPIキーを紐付けようとしたことを表す。
var ErrEmptyAPIKey = errors.New("APIキーが空です")

// State はセッションの認証状態を表す。
type State string

const (
	// StateAnonymous は資格情報が紐付いていない状態。
	StateAnonymous State = "anonymous"
	// StateAuthenticated はログイン済みの状態。
	StateAuthenticated State = "authenticated"
)

// Credentials はログイン成功時にセッションへ紐付ける情報。
type Credentials struct {
	// Username はユーザー名。
	Username string
	// TenantName はテナント名。
	TenantName string
	// APIKey はテナントのAPIキー。
	APIKey string
	// IsAdmin は管理者権限の有無。
	IsAdmin bool
}

// Session はひとつのブラウザセッションの状態。
// APIリクエスト処理中は読み取り専用として扱い、更新は Store を経由して行う。
type Session struct {
	// ID はセッションの一意識別子（UUID）。
	ID string
	// CSRFToken はフォーム送信の検証に使うトークン。
	CSRFToken string
	// Username はログイン中のユーザー名。
	Username string
	// TenantName はユーザーが所属するテナント名。
	TenantName string
	// IsAdmin は管理者権限の有無。
	IsAdmin bool
	// CreatedAt はセッションの作成日時。
	CreatedAt time.Time
	// ExpiresAt はセッションの有効期限。
	ExpiresAt time.Time

	apiKey string
}

// New は有効期間ttlの匿名セッションを生成する。
func New(ttl time.Duration) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		CSRFToken: uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Set は資格情報をセッションに紐付け、認証済み状態にする。
// 検証はAPIキーが空でないことのみ。
func (s *Session) Set(c Credentials) error {
	if c.APIKey == "" {
		return ErrEmptyAPIKey
	}
	s.Username = c.Username
	s.TenantName = c.TenantName
	s.IsAdmin = c.IsAdmin
	s.apiKey = c.APIKey
	return nil
}

// APIKey は紐付いているAPIキーを返す。apiclient.CredentialSource を満たす。
func (s *Session) APIKey(_ context.Context) (string, error) {
	if s == nil || s.apiKey == "" {
		return "", ErrNoCredential
	}
	return s.apiKey, nil
}

// Clear は資格情報をすべて取り除き、匿名状態に戻す。何度呼んでもよい。
func (s *Session) Clear() {
	s.Username = ""
	s.TenantName = ""
	s.IsAdmin = false
	s.apiKey = ""
}

// State は現在の認証状態を返す。
func (s *Session) State() State {
	if s.Authenticated() {
		return StateAuthenticated
	}
	return StateAnonymous
}

// Authenticated はAPIキーが紐付いているかを返す。
func (s *Session) Authenticated() bool {
	return s != nil && s.apiKey != ""
}

// Expired は時刻nowの時点で有効期限を過ぎているかを返す。
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Clone はセッションの複製を返す。
func (s *Session) Clone() *Session {
	clone := *s
	return &clone
}
