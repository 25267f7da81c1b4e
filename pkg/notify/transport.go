package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
)

// Client は SMTP セッションに必要な操作だけを抜き出したものです。
// *smtp.Client がこれを満たします。
type Client interface {
	StartTLS(config *tls.Config) error
	Auth(a smtp.Auth) error
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Dialer はメールリレーへの接続を確立します。
type Dialer func(ctx context.Context, host string, port int) (Client, error)

// DialSMTP は TCP で接続し、SMTP クライアントを生成します。
// コンテキストに期限があれば接続全体のデッドラインとして使用します。
func DialSMTP(ctx context.Context, host string, port int) (Client, error) {
	addr := net.JoinHostPort(host, fmt.Sprint(port))

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("SMTPサーバーへの接続に失敗しました (%s): %w", addr, err)
	}
	return newSMTPClient(ctx, conn, host)
}

// newSMTPClient は確立済みの接続から SMTP クライアントを生成します。失敗時は接続を閉じます。
func newSMTPClient(ctx context.Context, conn net.Conn, host string) (Client, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return nil, fmt.Errorf("SMTP接続のデッドライン設定に失敗しました: %w", err)
		}
	}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("SMTPクライアントの生成に失敗しました: %w", err)
	}
	return c, nil
}
