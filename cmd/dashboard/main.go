// ダッシュボードのエントリポイント。
// BGS APIにログインしたユーザーごとのAPIキーで集計を閲覧し、管理操作を行う。
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nao1215/sinistra/internal/audit"
	"github.com/nao1215/sinistra/internal/dashboard"
	"github.com/nao1215/sinistra/pkg/apiclient"
	"github.com/nao1215/sinistra/pkg/config"
	"github.com/nao1215/sinistra/pkg/logging"
	"github.com/nao1215/sinistra/pkg/middleware"
	"github.com/nao1215/sinistra/pkg/session"
	"github.com/nao1215/sinistra/pkg/telemetry"
)

// cleanupInterval は期限切れのセッションと試行回数の記録を掃除する間隔。
const cleanupInterval = time.Minute

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("ダッシュボードが異常終了しました")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Timestamp: true,
	})
	if cfg.GeneratedSecret {
		logging.Warn().Msg("SESSION_SECRETが未設定のため一時的なシークレットを生成しました。再起動するとセッションは無効になります")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown := telemetry.Setup(ctx, "sinistra-dashboard")
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logging.Error().Err(err).Msg("トレースの終了処理に失敗")
		}
	}()

	var sessions session.Store
	switch cfg.Session.Store {
	case config.StoreRedis:
		client, err := session.NewRedisClient(ctx, cfg.Session.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		sessions = session.NewRedisStore(client, session.NewSealer(cfg.Session.Secret))
		logging.Info().Msg("セッションをRedisに保存します")
	default:
		mem := session.NewMemoryStore()
		go mem.RunSweeper(ctx, cleanupInterval)
		sessions = mem
	}

	deps := dashboard.Deps{
		Client:   apiclient.New(cfg.API.Base, cfg.API.Version, nil, apiclient.WithTimeout(cfg.API.Timeout)),
		Sessions: sessions,
		Limiter:  middleware.NewRateLimiter(cfg.Login.RatePerMinute, cfg.Login.Burst),
	}
	go deps.Limiter.RunCleanup(ctx, cleanupInterval)

	if cfg.Audit.Path != "" {
		store, err := audit.Open(cfg.Audit.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		deps.Audit = store
	} else {
		logging.Warn().Msg("AUDIT_DB_PATHが未設定のため監査ログは記録しません")
	}

	server, err := dashboard.NewServer(cfg, deps)
	if err != nil {
		return err
	}
	return server.Run(ctx)
}
