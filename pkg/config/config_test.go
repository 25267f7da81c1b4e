package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-price-watch/pkg/notify"
	"github.com/shouni/go-price-watch/pkg/types"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DefaultURL(t *testing.T) {
	t.Setenv("PRICE_WATCH_URL", "")

	cfg, err := Load(NewViper(), writeFile(t, "price-watch.toml", ""))
	require.NoError(t, err)

	assert.Equal(t, DefaultURL, cfg.URL)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("PRICE_WATCH_URL", "https://example.com/item")
	t.Setenv("EMAIL_ADDRESS", "me@example.com")
	t.Setenv("EMAIL_PASSWORD", "secret")
	t.Setenv("RECEIVER_EMAIL", "you@example.com")
	t.Setenv("PRICE_WATCH_HTTP_MAX_RETRIES", "2")

	cfg, err := Load(NewViper(), writeFile(t, "price-watch.toml", ""))
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/item", cfg.URL)
	assert.Equal(t, 20000.0, cfg.TargetPrice)
	assert.Equal(t, types.Target{
		URL:      "https://example.com/item",
		Selector: types.Selector{Tag: "span", Class: "a-price-whole"},
	}, cfg.Target())
	assert.Equal(t, notify.DefaultSMTPHost, cfg.SMTP.Host)
	assert.Equal(t, notify.DefaultSMTPPort, cfg.SMTP.Port)
	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 2, cfg.HTTP.MaxRetries)
	assert.Equal(t, notify.Credentials{Sender: "me@example.com", Secret: "secret", Receiver: "you@example.com"}, cfg.Credentials())
}

func TestLoad_ConfigFile(t *testing.T) {
	path := writeFile(t, "price-watch.toml", `
url = "http://shop.example.com/p/1"
target_price = 199.5

[selector]
id = "priceblock_ourprice"

[http]
timeout = "3s"

[log]
level = "debug"
file = "/tmp/price-watch.log"
`)

	cfg, err := Load(NewViper(), path)
	require.NoError(t, err)

	assert.Equal(t, 199.5, cfg.TargetPrice)
	assert.Equal(t, types.SelectByID, cfg.Target().Selector.Mode())
	assert.Equal(t, 3*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "debug", cfg.Logging().Level)
	assert.Equal(t, "/tmp/price-watch.log", cfg.Logging().FilePath)
	assert.False(t, cfg.Credentials().CanSend())
}

func TestLoad_MissingConfigFileIsAnError(t *testing.T) {
	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{URL: "https://example.com", TargetPrice: 100, SMTP: SMTPConfig{Port: 587}}
	}

	testCases := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"valid", func(c *Config) {}, true},
		{"empty url", func(c *Config) { c.URL = "" }, false},
		{"ftp scheme", func(c *Config) { c.URL = "ftp://example.com" }, false},
		{"zero threshold", func(c *Config) { c.TargetPrice = 0 }, false},
		{"bad port", func(c *Config) { c.SMTP.Port = 70000 }, false},
		{"negative retries", func(c *Config) { c.HTTP.MaxRetries = -1 }, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(&c)
			if tc.ok {
				assert.NoError(t, c.Validate())
			} else {
				assert.Error(t, c.Validate())
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), ".env")))
	})

	t.Run("sets variables", func(t *testing.T) {
		const key = "PRICE_WATCH_TEST_DOTENV"
		t.Cleanup(func() { os.Unsetenv(key) })

		require.NoError(t, LoadEnvFile(writeFile(t, ".env", key+"=from-dotenv\n")))
		assert.Equal(t, "from-dotenv", os.Getenv(key))
	})
}
