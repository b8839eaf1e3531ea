// Package config はダッシュボードの設定を読み込む。
//
// 設定は構造体のデフォルト値、YAMLファイル、環境変数の順に重ねて読み込み、
// 後から読み込んだものが優先される。開発環境では .env ファイルも環境変数として読み込む。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar は設定ファイルのパスを指定する環境変数。
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfigPaths は設定ファイルを探すパス。最初に見つかったものを使う。
var defaultConfigPaths = []string{"config.yaml", "config.yml"}

const (
	// EnvProduction は本番環境を表す。
	EnvProduction = "production"
	// KeyModeSession はログイン応答のAPIキーをセッションに紐付けるモード。
	KeyModeSession = "session"
	// KeyModeStatic はログイン応答にキーがない場合に固定キーを紐付けるモード。
	KeyModeStatic = "static"
	// StoreMemory はプロセス内メモリのセッションストア。
	StoreMemory = "memory"
	// StoreRedis はRedisのセッションストア。
	StoreRedis = "redis"
)

// Config はダッシュボード全体の設定。
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	API     APIConfig     `koanf:"api"`
	Session SessionConfig `koanf:"session"`
	Audit   AuditConfig   `koanf:"audit"`
	Log     LogConfig     `koanf:"log"`
	Login   LoginConfig   `koanf:"login"`

	// GeneratedSecret はセッションシークレットが未設定のため起動時に生成したかどうか。
	GeneratedSecret bool `koanf:"-"`
}

// ServerConfig はHTTPサーバーの設定。
type ServerConfig struct {
	// Port は待ち受けポート。
	Port int `koanf:"port" validate:"min=1,max=65535"`
	// Environment は実行環境（development, production, test）。
	Environment string `koanf:"environment" validate:"oneof=development production test"`
	// CORSOrigins はクロスオリジンを許可するオリジン。
	CORSOrigins []string `koanf:"cors_origins"`
}

// APIConfig はBGS APIへの接続設定。起動時に一度だけ解決する。
type APIConfig struct {
	// Base はAPIのベースURL。
	Base string `koanf:"base" validate:"required,url"`
	// Version は apiversion ヘッダーの値。
	Version string `koanf:"version" validate:"required"`
	// Key はブートストラップ用の固定APIキー。
	Key string `koanf:"key"`
	// KeyMode はセッションへのAPIキーの紐付け方（session または static）。
	KeyMode string `koanf:"key_mode" validate:"oneof=session static"`
	// Timeout はリクエストのタイムアウト。
	Timeout time.Duration `koanf:"timeout" validate:"min=1s"`
}

// SessionConfig はセッションの設定。
type SessionConfig struct {
	// Secret はCookieの署名とAPIキーの暗号化に使うシークレット。
	Secret string `koanf:"secret"`
	// TTL はセッションの有効期間。
	TTL time.Duration `koanf:"ttl" validate:"min=1m"`
	// Store はセッションの保存先（memory または redis）。
	Store string `koanf:"store" validate:"oneof=memory redis"`
	// RedisURL はRedisの接続URL。
	RedisURL string `koanf:"redis_url" validate:"required_if=Store redis"`
	// CookieSecure はCookieにSecure属性を付けるかどうか。
	CookieSecure bool `koanf:"cookie_secure"`
}

// AuditConfig は監査ログの設定。
type AuditConfig struct {
	// Path はSQLiteファイルのパス。空の場合は監査ログを記録しない。
	Path string `koanf:"path"`
	// LoginTenant はテナントが判明しない失敗したログインを記録するテナント。
	// 空の場合はテナントなしで記録し、監査ログのページには表示されない。
	LoginTenant string `koanf:"login_tenant"`
}

// LogConfig はログ出力の設定。
type LogConfig struct {
	// Level は出力する最小レベル。
	Level string `koanf:"level" validate:"oneof=trace debug info warn error"`
	// Format は出力形式。
	Format string `koanf:"format" validate:"oneof=json console"`
}

// LoginConfig はログイン試行の制限。
type LoginConfig struct {
	// RatePerMinute はクライアントIPごとの1分あたりの試行回数。
	RatePerMinute int `koanf:"rate_per_minute" validate:"min=1"`
	// Burst は連続して許可する試行回数。
	Burst int `koanf:"burst" validate:"min=1"`
}

// Default はデフォルト値を設定した Config を返す。
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8501,
			Environment: "development",
			CORSOrigins: []string{},
		},
		API: APIConfig{
			Version: "1",
			KeyMode: KeyModeSession,
			Timeout: 30 * time.Second,
		},
		Session: SessionConfig{
			TTL:   12 * time.Hour,
			Store: StoreMemory,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Login: LoginConfig{
			RatePerMinute: 10,
			Burst:         5,
		},
	}
}

// envMappings は環境変数名と設定キーの対応。ここにない環境変数は無視する。
var envMappings = map[string]string{
	"port":                  "server.port",
	"app_env":               "server.environment",
	"cors_origins":          "server.cors_origins",
	"api_base":              "api.base",
	"api_version":           "api.version",
	"api_key":               "api.key",
	"api_key_mode":          "api.key_mode",
	"api_timeout":           "api.timeout",
	"session_secret":        "session.secret",
	"session_ttl":           "session.ttl",
	"session_store":         "session.store",
	"redis_url":             "session.redis_url",
	"session_cookie_secure": "session.cookie_secure",
	"audit_db_path":         "audit.path",
	"audit_login_tenant":    "audit.login_tenant",
	"log_level":             "log.level",
	"log_format":            "log.format",
	"login_rate_per_minute": "login.rate_per_minute",
	"login_burst":           "login.burst",
}

// envTransform は環境変数名を設定キーに変換する。
func envTransform(key string) string {
	return envMappings[strings.ToLower(key)]
}

// Load は .env・設定ファイル・環境変数から設定を読み込み、検証する。
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != EnvProduction {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf(".envファイルの読み込みに失敗: %w", err)
		}
	}
	return LoadFrom(findConfigFile())
}

// LoadFrom は指定した設定ファイルと環境変数から設定を読み込む。pathが空の場合はファイルを読まない。
func LoadFrom(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("デフォルト値の読み込みに失敗: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("設定ファイル %s の読み込みに失敗: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("環境変数の読み込みに失敗: %w", err)
	}
	if err := splitCommaList(k, "server.cors_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("設定の変換に失敗: %w", err)
	}
	cfg.API.Base = strings.TrimRight(cfg.API.Base, "/")

	if cfg.Session.Secret == "" && !cfg.IsProduction() {
		cfg.Session.Secret = uuid.NewString() + uuid.NewString()
		cfg.GeneratedSecret = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}
	return cfg, nil
}

// findConfigFile は設定ファイルを探す。見つからない場合は空文字列を返す。
func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range defaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// splitCommaList は環境変数から文字列で渡されたカンマ区切りの値をスライスに変換する。
func splitCommaList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	parts := make([]string, 0)
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if err := k.Set(path, parts); err != nil {
		return fmt.Errorf("%s の変換に失敗: %w", path, err)
	}
	return nil
}

// IsProduction は本番環境かどうかを返す。
func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

// Addr はHTTPサーバーの待ち受けアドレスを返す。
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate は設定値を検証する。
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.API.KeyMode == KeyModeStatic && c.API.Key == "" {
		return errors.New("API_KEY_MODE=static の場合は API_KEY が必要です")
	}
	if c.IsProduction() && len(c.Session.Secret) < 32 {
		return errors.New("本番環境では32文字以上の SESSION_SECRET が必要です")
	}
	return nil
}
