package cmd

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/shouni/go-price-watch/internal/logging"
	"github.com/shouni/go-price-watch/pkg/config"
)

// --- グローバル定数 ---

const (
	appName           = "price-watch"
	defaultTimeoutSec = 10 // 秒
	defaultMaxRetries = 0  // 既定では一度だけリクエストする

	// 全体処理のタイムアウト (クライアントタイムアウトの倍数)
	overallTimeoutFactor = 2
	// DefaultOverallTimeout は --timeout に 0 が指定された場合の全体タイムアウトです。
	DefaultOverallTimeout = 20 * time.Second
)

// --- グローバル変数とフラグ構造体 ---

// AppFlags はこのアプリケーション固有の永続フラグを保持
type AppFlags struct {
	TimeoutSec int    // --timeout タイムアウト
	MaxRetries int    // --max-retries リトライ回数
	ConfigFile string // --config 設定ファイル
	EnvFile    string // --env-file .env ファイル
	LogLevel   string // --log-level
	LogFile    string // --log-file
}

// Flags はアプリケーション固有フラグにアクセスするためのグローバル変数
var Flags AppFlags

var (
	appConfig *config.Config
	appLogger = zerolog.Nop()
)

// flagBindings はフラグ名と設定キーの対応です。明示的に指定されたフラグだけが設定を上書きします。
var flagBindings = map[string]string{
	"max-retries":  "http.max_retries",
	"log-level":    "log.level",
	"log-file":     "log.file",
	"url":          "url",
	"target-price": "target_price",
	"id":           "selector.id",
	"tag":          "selector.tag",
	"class":        "selector.class",
}

// --- 初期化とロジック (clibaseへのコールバックとして利用) ---

// addAppPersistentFlags は、アプリケーション固有の永続フラグをルートコマンドに追加します。
func addAppPersistentFlags(rootCmd *cobra.Command) {
	pf := rootCmd.PersistentFlags()
	pf.IntVar(&Flags.TimeoutSec, "timeout", defaultTimeoutSec, "HTTPリクエストのタイムアウト時間（秒）")
	pf.IntVar(&Flags.MaxRetries, "max-retries", defaultMaxRetries, "HTTPリクエストのリトライ最大回数 (0 で一度だけ)")
	pf.StringVar(&Flags.ConfigFile, "config", "", "設定ファイルのパス (既定: ./price-watch.{toml,yaml,json})")
	pf.StringVar(&Flags.EnvFile, "env-file", config.DefaultEnvFile, "読み込む .env ファイル")
	pf.StringVar(&Flags.LogLevel, "log-level", "info", "ログレベル (debug, info, warn, error)")
	pf.StringVar(&Flags.LogFile, "log-file", "", "ログを追記するファイル (ローテーションあり)")
}

// addTargetFlags は監視対象を指定するフラグをコマンドに追加します。
func addTargetFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("url", "u", "", "監視対象のURL")
	f.Float64P("target-price", "p", 0, "通知する目標価格 (この価格未満で通知)")
	f.String("id", "", "価格要素の id 属性 (指定時は --tag/--class より優先)")
	f.String("tag", "", "価格要素のタグ名")
	f.String("class", "", "価格要素のクラス名")
}

// initAppPreRunE は、clibase共通処理の後に実行される、アプリケーション固有のPersistentPreRunEです。
// .env、設定ファイル、環境変数、フラグの順に設定を重ね、ロガーを初期化します。
func initAppPreRunE(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnvFile(Flags.EnvFile); err != nil {
		return err
	}

	v := config.NewViper()
	if err := applyFlags(cmd.Flags(), func(key string, value any) { v.Set(key, value) }); err != nil {
		return err
	}

	cfg, err := config.Load(v, Flags.ConfigFile)
	if err != nil {
		return fmt.Errorf("設定の読み込みエラー: %w", err)
	}

	logCfg := cfg.Logging()
	if clibase.Flags.Verbose {
		logCfg.Level = "debug"
	}
	appLogger = logging.New(logCfg)
	appConfig = cfg

	appLogger.Debug().
		Dur("timeout", cfg.HTTP.Timeout).
		Int("max_retries", cfg.HTTP.MaxRetries).
		Str("selector", cfg.Target().Selector.Mode().String()).
		Msg("設定を読み込みました")

	return nil
}

// applyFlags は明示的に指定されたフラグの値を設定キーに反映します。
func applyFlags(flags *pflag.FlagSet, set func(key string, value any)) error {
	if f := flags.Lookup("timeout"); f != nil && f.Changed {
		set("http.timeout", time.Duration(Flags.TimeoutSec)*time.Second)
	}

	var applyErr error
	flags.Visit(func(f *pflag.Flag) {
		key, ok := flagBindings[f.Name]
		if !ok || applyErr != nil {
			return
		}
		value := f.Value.String()
		if f.Name == "url" {
			processed, err := ensureScheme(value)
			if err != nil {
				applyErr = fmt.Errorf("URLスキームの処理エラー: %w", err)
				return
			}
			value = processed
		}
		set(key, value)
	})
	return applyErr
}

// overallTimeout はクライアントタイムアウトの2倍を全体のタイムアウトとして返します。
func overallTimeout(cfg *config.Config) time.Duration {
	if cfg.HTTP.Timeout <= 0 {
		return DefaultOverallTimeout
	}
	return cfg.HTTP.Timeout * overallTimeoutFactor
}

// --- エントリポイント ---

// Execute は、clibaseのExecuteを使用してルートコマンドを組み立て、実行します。
func Execute() {
	clibase.Execute(
		appName,
		addAppPersistentFlags,
		initAppPreRunE,
		checkCmd,
		extractCmd,
	)
}
