package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net/smtp"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient は呼び出されたコマンドを記録する Client 実装です。
type fakeClient struct {
	calls   []string
	authErr error
	rcptErr error
	closed  int
	data    bytes.Buffer
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func (f *fakeClient) StartTLS(*tls.Config) error { f.calls = append(f.calls, "STARTTLS"); return nil }
func (f *fakeClient) Auth(smtp.Auth) error { f.calls = append(f.calls, "AUTH"); return f.authErr }
func (f *fakeClient) Mail(string) error { f.calls = append(f.calls, "MAIL"); return nil }
func (f *fakeClient) Rcpt(string) error { f.calls = append(f.calls, "RCPT"); return f.rcptErr }
func (f *fakeClient) Data() (io.WriteCloser, error) {
	f.calls = append(f.calls, "DATA")
	return nopWriteCloser{&f.data}, nil
}
func (f *fakeClient) Quit() error { f.calls = append(f.calls, "QUIT"); return nil }
func (f *fakeClient) Close() error { f.closed++; return nil }

// fakeDialer は接続の開始回数を記録します。
type fakeDialer struct {
	client *fakeClient
	err    error
	opened int
	addr   string
}

func (d *fakeDialer) Dial(ctx context.Context, host string, port int) (Client, error) {
	d.opened++
	d.addr = host
	if d.err != nil {
		return nil, d.err
	}
	return d.client, nil
}

var validCreds = StaticCredentials{Sender: "me@example.com", Secret: "app-password", Receiver: "you@example.com"}

func newTestNotifier(creds CredentialsProvider, d *fakeDialer) *EmailNotifier {
	return NewEmailNotifier(creds, zerolog.Nop(), WithDialer(d.Dial))
}

func TestNotify_Sent(t *testing.T) {
	d := &fakeDialer{client: &fakeClient{}}

	res := newTestNotifier(validCreds, d).Notify(context.Background(), 150, "https://example.com/item")

	require.Equal(t, StatusSent, res.Status)
	assert.NoError(t, res.Err)
	assert.Equal(t, DefaultSMTPHost, d.addr)
	assert.Equal(t, []string{"STARTTLS", "AUTH", "MAIL", "RCPT", "DATA", "QUIT"}, d.client.calls)
	assert.Equal(t, 1, d.client.closed)

	body := d.client.data.String()
	assert.Contains(t, body, "Subject: Price Alert! Dropped to 150.0\r\n")
	assert.Contains(t, body, "The price is now 150.0!\r\n\r\nLink: https://example.com/item")
	assert.Contains(t, body, "To: you@example.com\r\n")
}

func TestNotify_SkipsWithoutCredentials(t *testing.T) {
	testCases := []struct {
		name  string
		creds StaticCredentials
	}{
		{"no_sender", StaticCredentials{Secret: "x", Receiver: "you@example.com"}},
		{"no_secret", StaticCredentials{Sender: "me@example.com", Receiver: "you@example.com"}},
		{"nothing", StaticCredentials{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := &fakeDialer{client: &fakeClient{}}

			res := newTestNotifier(tc.creds, d).Notify(context.Background(), 10, "https://example.com")

			assert.Equal(t, StatusSkipped, res.Status)
			assert.NoError(t, res.Err)
			assert.Equal(t, 0, d.opened)
		})
	}
}

func TestNotify_NoRecipient(t *testing.T) {
	d := &fakeDialer{client: &fakeClient{}}

	res := newTestNotifier(StaticCredentials{Sender: "me@example.com", Secret: "x"}, d).Notify(context.Background(), 10, "https://example.com")

	assert.Equal(t, StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, ErrNoRecipient)
	assert.Equal(t, 0, d.opened)
}

func TestNotify_ReleasesConnectionOnFailure(t *testing.T) {
	t.Run("auth_failure", func(t *testing.T) {
		d := &fakeDialer{client: &fakeClient{authErr: errors.New("535 bad credentials")}}

		res := newTestNotifier(validCreds, d).Notify(context.Background(), 10, "https://example.com")

		assert.Equal(t, StatusFailed, res.Status)
		assert.Contains(t, res.Err.Error(), "535 bad credentials")
		assert.Equal(t, 1, d.opened)
		assert.Equal(t, 1, d.client.closed)
		assert.Equal(t, []string{"STARTTLS", "AUTH"}, d.client.calls)
	})

	t.Run("rcpt_failure", func(t *testing.T) {
		d := &fakeDialer{client: &fakeClient{rcptErr: errors.New("550 no such user")}}

		res := newTestNotifier(validCreds, d).Notify(context.Background(), 10, "https://example.com")

		assert.Equal(t, StatusFailed, res.Status)
		assert.Equal(t, 1, d.client.closed)
	})

	t.Run("dial_failure", func(t *testing.T) {
		d := &fakeDialer{err: errors.New("connection refused")}

		res := newTestNotifier(validCreds, d).Notify(context.Background(), 10, "https://example.com")

		assert.Equal(t, StatusFailed, res.Status)
		assert.Equal(t, 1, d.opened)
	})
}

func TestWithRelay(t *testing.T) {
	d := &fakeDialer{client: &fakeClient{}}
	n := NewEmailNotifier(validCreds, zerolog.Nop(), WithDialer(d.Dial), WithRelay("mail.example.com", 2525))

	assert.Equal(t, "mail.example.com", n.host)
	assert.Equal(t, 2525, n.port)
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "150.0", FormatPrice(150))
	assert.Equal(t, "1299.5", FormatPrice(1299.5))
	assert.Equal(t, "0.0", FormatPrice(0))
}
