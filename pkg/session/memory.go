package session

import (
	"context"
	"sync"
	"time"

	"github.com/nao1215/sinistra/pkg/metrics"
)

// MemoryStore はプロセス内のマップにセッションを保持する Store。
// 単一インスタンスで動かす場合のデフォルト実装。
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewMemoryStore は空の MemoryStore を生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Save はセッションの複製を保存する。
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	m.sessions[s.ID] = s.Clone()
	n := len(m.sessions)
	m.mu.Unlock()

	metrics.SetActiveSessions(n)
	return nil
}

// Load はセッションの複製を返す。期限切れのセッションは ErrNotFound になる。
func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok || s.Expired(m.now()) {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

// Delete はセッションを削除する。
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	metrics.SetActiveSessions(n)
	return nil
}

// DeleteByUser はテナント内のユーザーのセッションをすべて削除する。
func (m *MemoryStore) DeleteByUser(_ context.Context, tenant, username string) (int, error) {
	m.mu.Lock()
	deleted := 0
	for id, s := range m.sessions {
		if s.TenantName == tenant && s.Username == username {
			delete(m.sessions, id)
			deleted++
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	metrics.SetActiveSessions(n)
	return deleted, nil
}

// Sweep は期限切れのセッションを取り除き、削除件数を返す。
func (m *MemoryStore) Sweep() int {
	now := m.now()

	m.mu.Lock()
	removed := 0
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	metrics.SetActiveSessions(n)
	return removed
}

// Len は保持しているセッション数を返す。
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// RunSweeper はctxがキャンセルされるまでinterval間隔で Sweep を実行する。
func (m *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
