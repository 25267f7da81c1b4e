package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shouni/go-http-kit/pkg/httpkit"
)

const (
	DefaultHTTPTimeout = httpkit.DefaultHTTPTimeout
	// MaxBodySize を超えるボディは切り詰めず、取得エラーとして扱われます。
	MaxBodySize = httpkit.MaxResponseBodySize

	// 既定では一度だけリクエストする
	DefaultMaxRetries      = 0
	InitialBackoffInterval = 500 * time.Millisecond
	MaxBackoffInterval     = 5 * time.Second

	// サイトからのブロックを避けるためのUser-Agent
	UserAgent      = httpkit.UserAgent
	AcceptLanguage = "en-US,en;q=0.9"
)

// Doer は、標準の *http.Client.Do() と互換性のあるインターフェースです。
type Doer = httpkit.Doer

// Client は httpkit.Client をラップし、ブラウザ風のヘッダー付きで価格ページを取得します。
// リトライとレスポンスサイズの制限は httpkit.Client が処理します。
type Client struct {
	*httpkit.Client
	userAgent      string
	acceptLanguage string
}

// Option は Client の設定を行うための関数型です。
type Option func(*Client)

// WithHTTPClient はカスタムの Doer を設定します。
func WithHTTPClient(doer Doer) Option {
	return func(c *Client) {
		httpkit.WithHTTPClient(doer)(c.Client)
	}
}

// WithMaxRetries は最大リトライ回数を設定します。0 の場合は一度だけリクエストします。
func WithMaxRetries(max uint64) Option {
	return func(c *Client) {
		httpkit.WithMaxRetries(max)(c.Client)
	}
}

// WithBackoff はリトライ間隔の初期値と上限を設定します。
func WithBackoff(initial, max time.Duration) Option {
	return func(c *Client) {
		httpkit.WithInitialInterval(initial)(c.Client)
		httpkit.WithMaxInterval(max)(c.Client)
	}
}

// WithUserAgent は User-Agent ヘッダーを上書きします。
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithAcceptLanguage は Accept-Language ヘッダーを上書きします。
func WithAcceptLanguage(lang string) Option {
	return func(c *Client) {
		if lang != "" {
			c.acceptLanguage = lang
		}
	}
}

// New は、新しいClientを生成します。
func New(timeout time.Duration, options ...Option) *Client {
	kitClient := httpkit.New(timeout,
		httpkit.WithMaxRetries(DefaultMaxRetries),
		httpkit.WithInitialInterval(InitialBackoffInterval),
		httpkit.WithMaxInterval(MaxBackoffInterval),
	)

	c := &Client{
		Client:         kitClient,
		userAgent:      UserAgent,
		acceptLanguage: AcceptLanguage,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// newRequest はブラウザを装うヘッダー付きの GET リクエストを組み立てます。
func (c *Client) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("GETリクエスト作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", c.acceptLanguage)
	return req, nil
}

// FetchBytes はURLからレスポンスボディを取得します。
// httpkit の同名メソッドと異なり、Accept-Language も送信します。
func (c *Client) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := c.newRequest(ctx, url)
	if err != nil {
		return nil, err
	}
	return c.Client.DoRequest(req)
}

// FetchDocument はURLからHTMLを取得し、goquery.Documentを返します。
func (c *Client) FetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := c.FetchBytes(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("HTML解析に失敗しました: %w", err)
	}
	return doc, nil
}

// IsNonRetryableError は 4xx などの再試行しない HTTP エラーかどうかを判定します。
func IsNonRetryableError(err error) bool {
	return httpkit.IsNonRetryableError(err)
}
