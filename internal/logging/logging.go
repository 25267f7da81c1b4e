// Package logging は構造化ログの初期化を提供します。
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config はログ出力の設定です。
type Config struct {
	Level      string
	FilePath   string // 空の場合はファイル出力を行わない
	MaxSize    int    // megabytes
	MaxBackups int
	MaxAge     int // days
	NoColor    bool
}

// DefaultConfig はコンソール出力のみのデフォルト設定を返します。
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     30,
	}
}

// New は設定に従ってロガーを生成します。コンソール出力は標準エラーに書き込みます。
func New(cfg Config) zerolog.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter はコンソール出力先を指定してロガーを生成します。
func NewWithWriter(cfg Config, console io.Writer) zerolog.Logger {
	writers := []io.Writer{
		zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339, NoColor: cfg.NoColor},
	}

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			})
		}
	}

	var w io.Writer = writers[0]
	if len(writers) > 1 {
		w = zerolog.MultiLevelWriter(writers...)
	}

	return zerolog.New(w).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()
}

// ParseLevel はレベル名を zerolog.Level に変換します。不明な値は info 扱いです。
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
