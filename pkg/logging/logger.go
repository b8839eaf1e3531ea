// Package logging はzerologによる構造化ログの共通設定を提供する。
//
// 起動時に Init で出力形式とレベルを設定し、以降は Info() や Error() から
// イベントを組み立てて Msg で出力する。
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("addr", addr).Msg("サーバーを起動します")
//
// APIキーやパスワードはフィールドとして渡さないこと。
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config はロガーの設定。
type Config struct {
	// Level は出力する最小レベル（debug, info, warn, error）。デフォルトは info。
	Level string
	// Format は出力形式（json または console）。デフォルトは json。
	Format string
	// Caller は呼び出し元のファイルと行を出力するかどうか。
	Caller bool
	// Timestamp はタイムスタンプを出力するかどうか。
	Timestamp bool
	// Output は出力先。デフォルトは os.Stderr。
	Output io.Writer
}

// DefaultConfig はデフォルトの設定を返す。
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "json",
		Timestamp: true,
		Output:    os.Stderr,
	}
}

var (
	logger zerolog.Logger
	mu     sync.RWMutex
)

func init() {
	initLogger(DefaultConfig())
}

// Init はグローバルロガーを設定する。複数回呼んだ場合は再設定される。
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	initLogger(cfg)
}

// initLogger はグローバルロガーを構築する。muを保持した状態で呼ぶこと。
func initLogger(cfg Config) {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	output := cfg.Output
	if strings.EqualFold(cfg.Format, "console") {
		output = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}

	l := zerolog.New(output)
	if cfg.Timestamp {
		l = l.With().Timestamp().Logger()
	}
	if cfg.Caller {
		l = l.With().Caller().Logger()
	}
	logger = l
}

// ParseLevel は文字列をzerologのレベルに変換する。不明な値は info になる。
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Logger はグローバルロガーの複製を返す。
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// With はグローバルロガーにフィールドを追加するためのコンテキストを返す。
func With() zerolog.Context {
	mu.RLock()
	defer mu.RUnlock()
	return logger.With()
}

// Ctx はcontextに紐付いたロガーがあればそれを、なければグローバルロガーを返す。
func Ctx(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	l := Logger()
	return &l
}

// Debug はdebugレベルのイベントを開始する。
func Debug() *zerolog.Event {
	l := Logger()
	return l.Debug()
}

// Info はinfoレベルのイベントを開始する。
func Info() *zerolog.Event {
	l := Logger()
	return l.Info()
}

// Warn はwarnレベルのイベントを開始する。
func Warn() *zerolog.Event {
	l := Logger()
	return l.Warn()
}

// Error はerrorレベルのイベントを開始する。
func Error() *zerolog.Event {
	l := Logger()
	return l.Error()
}
