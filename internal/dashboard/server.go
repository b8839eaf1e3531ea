// Package dashboard はBGS APIを閲覧・操作するWebダッシュボードを提供する。
//
// ページはサーバー側でHTMLに描画する。APIへの呼び出しはログインしたユーザーの
// セッションに紐付いたAPIキーで行い、テナントをまたいだ資格情報の共有はしない。
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nao1215/sinistra/internal/audit"
	"github.com/nao1215/sinistra/pkg/apiclient"
	"github.com/nao1215/sinistra/pkg/config"
	"github.com/nao1215/sinistra/pkg/event"
	"github.com/nao1215/sinistra/pkg/logging"
	"github.com/nao1215/sinistra/pkg/metrics"
	"github.com/nao1215/sinistra/pkg/middleware"
	"github.com/nao1215/sinistra/pkg/session"
)

// serviceName はヘルスチェックとトレースに使うサービス名。
const serviceName = "dashboard"

// loginPath はログイン画面のパス。
const loginPath = "/login"

// homePath はログイン後の既定の遷移先。
const homePath = "/leaderboard"

// shutdownTimeout はグレースフルシャットダウンの待ち時間。
const shutdownTimeout = 10 * time.Second

// AuditLog は監査ログの記録先と参照先。
type AuditLog interface {
	audit.Recorder
	Recent(ctx context.Context, tenant string, limit int) ([]*event.Event, error)
	ByActor(ctx context.Context, tenant, actor string, limit int) ([]*event.Event, error)
	ByType(ctx context.Context, tenant string, eventType event.Type, limit int) ([]*event.Event, error)
}

// Deps はサーバーが使う外部の部品。
type Deps struct {
	// Client は資格情報を持たないAPIクライアント。リクエストごとにセッションの資格情報を紐付ける。
	Client *apiclient.Client
	// Sessions はセッションの保存先。
	Sessions session.Store
	// Audit は監査ログ。nilの場合は記録しない。
	Audit AuditLog
	// Limiter はログイン試行の制限。nilの場合は設定値から生成する。
	Limiter *middleware.RateLimiter
}

// Server はダッシュボードのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	cfg    *config.Config
	// api は資格情報を持たないAPIクライアント。
	api      *apiclient.Client
	sessions session.Store
	audit    AuditLog
	limiter  *middleware.RateLimiter
	// now は現在時刻。テストで差し替える。
	now func() time.Time
}

// NewServer は新しいダッシュボードサーバーを生成する。
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Client == nil {
		return nil, errors.New("APIクライアントが指定されていません")
	}
	if deps.Sessions == nil {
		return nil, errors.New("セッションストアが指定されていません")
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("テンプレートの読み込みに失敗: %w", err)
	}

	limiter := deps.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(cfg.Login.RatePerMinute, cfg.Login.Burst)
	}

	router := gin.New()
	// ファクション名の "/" をエスケープしたままパラメータとして受け取る
	router.UseRawPath = true
	router.UnescapePathValues = true
	router.SetHTMLTemplate(tmpl)
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	router.Use(middleware.LoadSession(cfg.Session.Secret, deps.Sessions))

	s := &Server{
		router:   router,
		cfg:      cfg,
		api:      deps.Client,
		sessions: deps.Sessions,
		audit:    deps.Audit,
		limiter:  limiter,
		now:      time.Now,
	}
	s.setupRoutes()

	return s, nil
}

// Handler はトレースを付与したHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, serviceName)
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされるとグレースフルシャットダウンする。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("ダッシュボードを起動します")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTPサーバーの起動に失敗: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTPサーバーの停止に失敗: %w", err)
		}
		logging.Info().Msg("ダッシュボードを停止しました")
		return nil
	}
}

// setupRoutes はルーティングを設定する。
func (s *Server) setupRoutes() {
	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
	})
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// ログインはセッションがないためCSRFの代わりに試行回数で制限する
	s.router.GET(loginPath, s.handleLoginForm())
	s.router.POST(loginPath, middleware.RateLimit(s.limiter), s.handleLogin())
	s.router.POST("/logout", s.handleLogout())

	pages := s.router.Group("/")
	pages.Use(middleware.RequireSession(loginPath), middleware.CSRF())
	{
		pages.GET("", func(c *gin.Context) {
			c.Redirect(http.StatusFound, homePath)
		})
		pages.GET("/tables", s.handleTables())
		pages.GET("/evaluations", s.handleEvaluations())
		pages.GET("/cmdrs", s.handleCmdrs())
		pages.GET("/leaderboard", s.handleLeaderboard())
		pages.GET("/recruits", s.handleRecruits())
		pages.GET("/vouchers", s.handleVouchers())
		pages.GET("/cz", s.handleCZ())
		pages.GET("/fsdjump", s.handleFSDJump())
		pages.GET("/system-info", s.handleSystemInfo())
		pages.GET("/systems", s.handleSystems())

		// 目標
		pages.GET("/objectives", s.handleObjectives())
		pages.POST("/objectives", s.handleCreateObjective())
		pages.POST("/objectives/:id/delete", s.handleDeleteObjective())
	}

	admin := pages.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("/factions", s.handleFactions())
		admin.POST("/factions", s.handleAddFaction())
		admin.POST("/factions/:name/update", s.handleUpdateFaction())
		admin.POST("/factions/:name/delete", s.handleDeleteFaction())
		admin.POST("/triggers/:action", s.handleTrigger())
		admin.GET("/audit", s.handleAudit())
	}
}

// client は現在のセッションの資格情報を紐付けたAPIクライアントを返す。
func (s *Server) client(c *gin.Context) *apiclient.Client {
	return s.api.WithCredentials(middleware.CurrentSession(c))
}

// record は現在のユーザーの操作として監査イベントを記録する。
func (s *Server) record(c *gin.Context, eventType event.Type, subject string, data any) {
	sess := middleware.CurrentSession(c)
	if sess == nil {
		return
	}
	s.recordAs(c.Request.Context(), sess.TenantName, sess.Username, eventType, subject, data)
}

// recordAs はテナントとユーザーを指定して監査イベントを記録する。
func (s *Server) recordAs(ctx context.Context, tenant, actor string, eventType event.Type, subject string, data any) {
	if s.audit == nil {
		return
	}
	audit.Record(ctx, s.audit, tenant, actor, eventType, subject, data)
}
