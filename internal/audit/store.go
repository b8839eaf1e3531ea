// Package audit はダッシュボードでの状態変更操作を追記のみのSQLiteに記録する。
package audit

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/nao1215/sinistra/pkg/event"
	"github.com/nao1215/sinistra/pkg/logging"
	"github.com/nao1215/sinistra/pkg/migration"

	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

// DefaultLimit は件数指定がない場合の取得件数。
const DefaultLimit = 100

// maxLimit は1回に取得できる最大件数。
const maxLimit = 1000

// timeLayout は created_at の保存形式。固定長にして文字列順と時刻順を一致させる。
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Recorder は監査イベントの記録先。
type Recorder interface {
	Append(ctx context.Context, e *event.Event) error
}

// Store はSQLiteに監査イベントを保存する。
type Store struct {
	db *sql.DB
}

// Open はpathのSQLiteファイルを開き、マイグレーションを適用する。
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("監査ログDBのオープンに失敗: %w", err)
	}
	s, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New は既に開いているDBから Store を生成する。
func New(db *sql.DB) (*Store, error) {
	if err := migration.Run(db, migrationsFS, "migrations"); err != nil {
		return nil, fmt.Errorf("監査ログのマイグレーションに失敗: %w", err)
	}
	return &Store{db: db}, nil
}

// Close はDBを閉じる。
func (s *Store) Close() error {
	return s.db.Close()
}

// Append はイベントを1件追記する。
func (s *Store) Append(ctx context.Context, e *event.Event) error {
	if e == nil {
		return fmt.Errorf("イベントがnilです")
	}
	if !e.EventType.Valid() {
		return fmt.Errorf("未定義のイベント種別です: %s", e.EventType)
	}
	data := string(e.Data)
	if data == "" {
		data = "{}"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_events (id, tenant, actor, event_type, subject, data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Tenant, e.Actor, string(e.EventType), e.Subject, data,
		e.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("監査イベントの追記に失敗: %w", err)
	}
	return nil
}

// Recent はテナントの新しい順のイベントを取得する。
func (s *Store) Recent(ctx context.Context, tenant string, limit int) ([]*event.Event, error) {
	return s.query(ctx,
		`SELECT id, tenant, actor, event_type, subject, data, created_at
		 FROM audit_events WHERE tenant = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		tenant, clampLimit(limit))
}

// ByActor は操作したユーザーで絞り込んだイベントを新しい順に取得する。
func (s *Store) ByActor(ctx context.Context, tenant, actor string, limit int) ([]*event.Event, error) {
	return s.query(ctx,
		`SELECT id, tenant, actor, event_type, subject, data, created_at
		 FROM audit_events WHERE tenant = ? AND actor = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		tenant, actor, clampLimit(limit))
}

// ByType はイベント種別で絞り込んだイベントを新しい順に取得する。
func (s *Store) ByType(ctx context.Context, tenant string, eventType event.Type, limit int) ([]*event.Event, error) {
	return s.query(ctx,
		`SELECT id, tenant, actor, event_type, subject, data, created_at
		 FROM audit_events WHERE tenant = ? AND event_type = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		tenant, string(eventType), clampLimit(limit))
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]*event.Event, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("監査イベントの取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := []*event.Event{}
	for rows.Next() {
		var (
			e         event.Event
			eventType string
			data      string
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.Tenant, &e.Actor, &eventType, &e.Subject, &data, &createdAt); err != nil {
			return nil, fmt.Errorf("監査イベントの読み取りに失敗: %w", err)
		}
		e.EventType = event.Type(eventType)
		e.Data = json.RawMessage(data)
		e.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("created_atの解析に失敗: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("監査イベントの取得に失敗: %w", err)
	}
	return events, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > maxLimit:
		return maxLimit
	default:
		return limit
	}
}

// Record はイベントを生成して記録する。
// 記録に失敗しても操作自体は成功しているため、エラーはログに残すだけにする。
func Record(ctx context.Context, r Recorder, tenant, actor string, eventType event.Type, subject string, data any) {
	if r == nil {
		return
	}
	e, err := event.New(tenant, actor, eventType, subject, data)
	if err == nil {
		err = r.Append(ctx, e)
	}
	if err != nil {
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("event_type", string(eventType)).
			Str("tenant", tenant).
			Msg("監査イベントの記録に失敗しました")
	}
}
