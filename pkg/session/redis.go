package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/nao1215/sinistra/pkg/metrics"
)

const (
	// sessionKeyPrefix はセッション本体のキーの接頭辞。
	sessionKeyPrefix = "session:"
	// userSessionKeyPrefix はユーザーごとのセッションID集合のキーの接頭辞。
	userSessionKeyPrefix = "user_sessions:"
)

// record はRedisに保存するセッションの表現。APIキーは暗号化して保持する。
type record struct {
	ID           string `json:"id"`
	CSRFToken    string `json:"csrf_token"`
	Username     string `json:"username"`
	TenantName   string `json:"tenant_name"`
	IsAdmin      bool   `json:"is_admin"`
	SealedAPIKey string `json:"sealed_api_key,omitempty"`
	CreatedAt    int64  `json:"created_at"`
	ExpiresAt    int64  `json:"expires_at"`
}

// RedisStore はRedisにセッションを保存する Store。
// 複数インスタンスでセッションを共有する場合に使用する。
type RedisStore struct {
	client redis.UniversalClient
	sealer *Sealer
}

// NewRedisStore はRedisを保存先とする Store を生成する。
func NewRedisStore(client redis.UniversalClient, sealer *Sealer) *RedisStore {
	return &RedisStore{client: client, sealer: sealer}
}

// NewRedisClient は接続URLからRedisクライアントを生成し、疎通を確認する。
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("RedisのURLの解析に失敗: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("Redisへの接続確認に失敗: %w", err)
	}
	return client, nil
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func userSessionsKey(tenant, username string) string {
	return userSessionKeyPrefix + tenant + ":" + username
}

// encode はセッションを保存用のJSONに変換する。
func (r *RedisStore) encode(s *Session) ([]byte, error) {
	rec := record{
		ID:         s.ID,
		CSRFToken:  s.CSRFToken,
		Username:   s.Username,
		TenantName: s.TenantName,
		IsAdmin:    s.IsAdmin,
		CreatedAt:  s.CreatedAt.UnixNano(),
		ExpiresAt:  s.ExpiresAt.UnixNano(),
	}
	if s.apiKey != "" {
		sealed, err := r.sealer.Seal(s.apiKey)
		if err != nil {
			return nil, err
		}
		rec.SealedAPIKey = sealed
	}
	return json.Marshal(rec)
}

// decode は保存用のJSONからセッションを復元する。
func (r *RedisStore) decode(data []byte) (*Session, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("セッションのデシリアライズに失敗: %w", err)
	}
	s := &Session{
		ID:         rec.ID,
		CSRFToken:  rec.CSRFToken,
		Username:   rec.Username,
		TenantName: rec.TenantName,
		IsAdmin:    rec.IsAdmin,
		CreatedAt:  time.Unix(0, rec.CreatedAt).UTC(),
		ExpiresAt:  time.Unix(0, rec.ExpiresAt).UTC(),
	}
	if rec.SealedAPIKey != "" {
		key, err := r.sealer.Open(rec.SealedAPIKey)
		if err != nil {
			return nil, err
		}
		s.apiKey = key
	}
	return s, nil
}

// Save はセッションを有効期限付きで保存し、ユーザーごとの索引に登録する。
func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return r.Delete(ctx, s.ID)
	}

	data, err := r.encode(s)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(s.ID), data, ttl)
		if s.Username != "" {
			userKey := userSessionsKey(s.TenantName, s.Username)
			pipe.SAdd(ctx, userKey, s.ID)
			pipe.Expire(ctx, userKey, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("セッションの保存に失敗: %w", err)
	}
	r.reportPoolStats()
	return nil
}

// Load はセッションを取得する。
func (r *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("セッションの取得に失敗: %w", err)
	}
	s, err := r.decode(data)
	if err != nil {
		return nil, err
	}
	if s.Expired(time.Now()) {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete はセッションを削除し、ユーザーごとの索引からも取り除く。
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	s, err := r.Load(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(id))
		if s != nil && s.Username != "" {
			pipe.SRem(ctx, userSessionsKey(s.TenantName, s.Username), id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("セッションの削除に失敗: %w", err)
	}
	return nil
}

// DeleteByUser はテナント内のユーザーのセッションをすべて削除する。
func (r *RedisStore) DeleteByUser(ctx context.Context, tenant, username string) (int, error) {
	userKey := userSessionsKey(tenant, username)
	ids, err := r.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return 0, fmt.Errorf("ユーザーのセッション一覧の取得に失敗: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, userKey)

	deleted, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("ユーザーのセッションの削除に失敗: %w", err)
	}
	// 索引キー自体の削除は件数に含めない
	n := int(deleted)
	if len(ids) > 0 {
		n--
	}
	return n, nil
}

// reportPoolStats はコネクションプールの統計値をメトリクスに記録する。
func (r *RedisStore) reportPoolStats() {
	stats := r.client.PoolStats()
	if stats == nil {
		return
	}
	metrics.SetRedisPoolStats(metrics.RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
	})
}
