// Package config は価格監視の設定を .env、設定ファイル、環境変数、フラグから読み込みます。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/shouni/go-price-watch/internal/logging"
	"github.com/shouni/go-price-watch/pkg/notify"
	"github.com/shouni/go-price-watch/pkg/types"
)

const (
	// EnvPrefix は設定キーに対応する環境変数の接頭辞です (例: PRICE_WATCH_TARGET_PRICE)。
	EnvPrefix = "PRICE_WATCH"
	// DefaultConfigName は拡張子を除いた設定ファイル名です。
	DefaultConfigName = "price-watch"
	// DefaultEnvFile は起動時に読み込む .env ファイルです。
	DefaultEnvFile = ".env"
	// DefaultURL は設定がない場合の監視対象ページです。
	DefaultURL = "https://www.amazon.in/dp/B07HBLDVP3"
)

// Config は一回の価格チェックに必要な設定をすべて保持します。読み込み後は変更しません。
type Config struct {
	URL         string         `mapstructure:"url"`
	TargetPrice float64        `mapstructure:"target_price"`
	Selector    SelectorConfig `mapstructure:"selector"`
	Email       EmailConfig    `mapstructure:"email"`
	SMTP        SMTPConfig     `mapstructure:"smtp"`
	HTTP        HTTPConfig     `mapstructure:"http"`
	Log         LogConfig      `mapstructure:"log"`
}

// SelectorConfig は価格要素の探索方法です。ID が Tag+Class より優先されます。
type SelectorConfig struct {
	ID    string `mapstructure:"id"`
	Tag   string `mapstructure:"tag"`
	Class string `mapstructure:"class"`
}

// EmailConfig はメール通知の認証情報です。
type EmailConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	Receiver string `mapstructure:"receiver"`
}

// SMTPConfig はメールリレーの接続先です。
type SMTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// HTTPConfig は商品ページ取得の設定です。
type HTTPConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	UserAgent      string        `mapstructure:"user_agent"`
	AcceptLanguage string        `mapstructure:"accept_language"`
}

// LogConfig はログ出力の設定です。
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// envBindings は接頭辞なしで参照する環境変数です。
var envBindings = map[string]string{
	"email.address":  "EMAIL_ADDRESS",
	"email.password": "EMAIL_PASSWORD",
	"email.receiver": "RECEIVER_EMAIL",
}

// NewViper はデフォルト値と環境変数の対応付けを済ませた viper インスタンスを返します。
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("url", DefaultURL)
	v.SetDefault("target_price", 20000.0)
	v.SetDefault("selector.id", "")
	v.SetDefault("selector.tag", "span")
	v.SetDefault("selector.class", "a-price-whole")
	v.SetDefault("email.address", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.receiver", "")
	v.SetDefault("smtp.host", notify.DefaultSMTPHost)
	v.SetDefault("smtp.port", notify.DefaultSMTPPort)
	v.SetDefault("http.timeout", 10*time.Second)
	v.SetDefault("http.max_retries", 0)
	v.SetDefault("http.user_agent", "")
	v.SetDefault("http.accept_language", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	return v
}

// LoadEnvFile は .env ファイルを読み込みます。ファイルが存在しない場合はエラーにしません。
// 既に設定されている環境変数は上書きされません。
func LoadEnvFile(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%s の読み込みに失敗しました: %w", path, err)
	}
	return nil
}

// Load は設定ファイルを読み込み、Config を返します。
// configFile が空の場合はカレントディレクトリの price-watch.{toml,yaml,json} を探し、
// 見つからなくてもエラーにしません。
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("設定ファイル %s の読み込みに失敗しました: %w", configFile, err)
		}
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("設定ファイルの読み込みに失敗しました: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("設定の展開に失敗しました: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は設定値の整合性を検証します。
func (c *Config) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return fmt.Errorf("監視対象のURLが設定されていません (--url または %s_URL)", EnvPrefix)
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("URLのパースエラー: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("無効なURLスキームです。httpまたはhttpsを指定してください: %s", c.URL)
	}
	if c.TargetPrice <= 0 {
		return fmt.Errorf("target_price は正の値である必要があります: %v", c.TargetPrice)
	}
	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		return fmt.Errorf("smtp.port が不正です: %d", c.SMTP.Port)
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries は0以上である必要があります: %d", c.HTTP.MaxRetries)
	}
	return nil
}

// Target は監視対象を返します。
func (c *Config) Target() types.Target {
	return types.Target{
		URL: c.URL,
		Selector: types.Selector{
			ID:    c.Selector.ID,
			Tag:   c.Selector.Tag,
			Class: c.Selector.Class,
		},
	}
}

// Credentials は notify.CredentialsProvider を満たします。
func (c *Config) Credentials() notify.Credentials {
	return notify.Credentials{
		Sender:   c.Email.Address,
		Secret:   c.Email.Password,
		Receiver: c.Email.Receiver,
	}
}

// Logging はログ設定を返します。
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Log.Level
	cfg.FilePath = c.Log.File
	return cfg
}
