// Package notify は価格下落時のメール通知を提供します。
package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

const (
	DefaultSMTPHost = "smtp.gmail.com"
	DefaultSMTPPort = 587
)

// ErrNoRecipient は送信先アドレスが設定されていないことを示します。
var ErrNoRecipient = errors.New("送信先メールアドレスが設定されていません")

// Credentials はメール送信に使う認証情報です。
type Credentials struct {
	Sender   string
	Secret   string
	Receiver string
}

// CanSend は送信元アドレスとパスワードの両方が設定されていれば true を返します。
func (c Credentials) CanSend() bool {
	return strings.TrimSpace(c.Sender) != "" && c.Secret != ""
}

// CredentialsProvider は認証情報を提供する機能です。
type CredentialsProvider interface {
	Credentials() Credentials
}

// StaticCredentials は固定の認証情報を返す CredentialsProvider です。
type StaticCredentials Credentials

func (s StaticCredentials) Credentials() Credentials { return Credentials(s) }

// Status は一回の通知試行の結果です。
type Status int

const (
	StatusSent Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSent:
		return "sent"
	case StatusSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Result は Notify の戻り値です。StatusFailed の場合のみ Err が設定されます。
type Result struct {
	Status Status
	Err    error
}

// Notifier は価格通知を送る機能のインターフェースです。
type Notifier interface {
	Notify(ctx context.Context, price float64, productURL string) Result
}

// Message は送信されるメールの内容です。
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// NewMessage は価格と商品URLから通知メールを組み立てます。
func NewMessage(creds Credentials, price float64, productURL string) Message {
	p := FormatPrice(price)
	return Message{
		From:    creds.Sender,
		To:      creds.Receiver,
		Subject: fmt.Sprintf("Price Alert! Dropped to %s", p),
		Body:    fmt.Sprintf("The price is now %s!\n\nLink: %s", p, productURL),
	}
}

// Bytes は DATA コマンドで送るプレーンテキストのメッセージを返します。
func (m Message) Bytes() []byte {
	body := strings.ReplaceAll(m.Body, "\n", "\r\n")
	return []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n",
		m.From, m.To, m.Subject, body))
}

// FormatPrice は整数値でも小数点以下を一桁残して価格を表示します (例: 150 -> "150.0")。
func FormatPrice(price float64) string {
	s := strconv.FormatFloat(price, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// EmailNotifier は SMTP (STARTTLS) でメールを一通だけ送信します。リトライは行いません。
type EmailNotifier struct {
	host   string
	port   int
	creds  CredentialsProvider
	dial   Dialer
	logger zerolog.Logger
}

// Option は EmailNotifier の設定を行うための関数型です。
type Option func(*EmailNotifier)

// WithDialer は接続処理を差し替えます。
func WithDialer(d Dialer) Option {
	return func(n *EmailNotifier) {
		n.dial = d
	}
}

// WithRelay はメールリレーのホストとポートを設定します。
func WithRelay(host string, port int) Option {
	return func(n *EmailNotifier) {
		if host != "" {
			n.host = host
		}
		if port > 0 {
			n.port = port
		}
	}
}

// NewEmailNotifier は EmailNotifier を生成します。
func NewEmailNotifier(creds CredentialsProvider, logger zerolog.Logger, options ...Option) *EmailNotifier {
	n := &EmailNotifier{
		host:   DefaultSMTPHost,
		port:   DefaultSMTPPort,
		creds:  creds,
		dial:   DialSMTP,
		logger: logger.With().Str("component", "notifier").Logger(),
	}
	for _, opt := range options {
		opt(n)
	}
	return n
}

// Notify は通知メールの送信を一度だけ試みます。
// 認証情報がない場合は送信をスキップし、エラーとしては扱いません。
func (n *EmailNotifier) Notify(ctx context.Context, price float64, productURL string) Result {
	creds := n.creds.Credentials()
	if !creds.CanSend() {
		n.logger.Warn().Msg("認証情報が設定されていないため、メール送信をスキップします")
		return Result{Status: StatusSkipped}
	}
	if strings.TrimSpace(creds.Receiver) == "" {
		n.logger.Error().Err(ErrNoRecipient).Msg("メール送信に失敗しました")
		return Result{Status: StatusFailed, Err: ErrNoRecipient}
	}

	if err := n.send(ctx, creds, NewMessage(creds, price, productURL)); err != nil {
		n.logger.Error().Err(err).Str("host", n.host).Int("port", n.port).Msg("メール送信に失敗しました")
		return Result{Status: StatusFailed, Err: err}
	}

	n.logger.Info().Str("to", creds.Receiver).Msg("メールを送信しました")
	return Result{Status: StatusSent}
}

// send は接続からQUITまでの一連のSMTPセッションを実行します。
// 接続はどの経路で抜けても必ず閉じられます。
func (n *EmailNotifier) send(ctx context.Context, creds Credentials, msg Message) error {
	client, err := n.dial(ctx, n.host, n.port)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: n.host}); err != nil {
		return fmt.Errorf("STARTTLSに失敗しました: %w", err)
	}
	if err := client.Auth(smtp.PlainAuth("", creds.Sender, creds.Secret, n.host)); err != nil {
		return fmt.Errorf("SMTP認証に失敗しました: %w", err)
	}
	if err := client.Mail(msg.From); err != nil {
		return fmt.Errorf("SMTP MAILコマンドに失敗しました: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("SMTP RCPTコマンドに失敗しました: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATAコマンドに失敗しました: %w", err)
	}
	if _, err := w.Write(msg.Bytes()); err != nil {
		w.Close()
		return fmt.Errorf("メール本文の書き込みに失敗しました: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("メール本文のクローズに失敗しました: %w", err)
	}

	return client.Quit()
}
