package notify

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"mime/quotedprintable"
	"net"
	netmail "net/mail"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/vovakirdan/portfolio-server/internal/config"
	"github.com/vovakirdan/portfolio-server/internal/store"
)

// smtpSession is one delivered message as seen by the relay.
type smtpSession struct {
	Auth string
	From string
	To   []string
	Data string
}

// smtpRelay is a minimal in-process SMTP server speaking just enough ESMTP
// for go-mail: EHLO with AUTH PLAIN, MAIL, RCPT, DATA, RSET, NOOP, QUIT.
type smtpRelay struct {
	ln net.Listener
	wg sync.WaitGroup

	mu       sync.Mutex
	sessions []smtpSession
	conns    int
}

func newSMTPRelay(t *testing.T) *smtpRelay {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	r := &smtpRelay{ln: ln}
	go r.serve()
	t.Cleanup(func() {
		_ = ln.Close()
		r.wg.Wait()
	})
	return r
}

func (r *smtpRelay) port(t *testing.T) int {
	t.Helper()
	_, p, err := net.SplitHostPort(r.ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(p)
	require.NoError(t, err)
	return port
}

func (r *smtpRelay) delivered() []smtpSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]smtpSession(nil), r.sessions...)
}

func (r *smtpRelay) connections() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conns
}

func (r *smtpRelay) serve() {
	for {
		conn, err := r.ln.Accept()
		if err != nil {
			return
		}
		r.mu.Lock()
		r.conns++
		r.mu.Unlock()

		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.handle(conn)
		}()
	}
}

func (r *smtpRelay) handle(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))

	tp := textproto.NewConn(conn)
	reply := func(format string, args ...any) { _ = tp.PrintfLine(format, args...) }

	reply("220 localhost ESMTP relay ready")
	var sess smtpSession
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		verb, arg, _ := strings.Cut(line, " ")
		switch strings.ToUpper(verb) {
		case "EHLO":
			reply("250-localhost greets %s", arg)
			reply("250-8BITMIME")
			reply("250 AUTH PLAIN LOGIN")
		case "HELO":
			reply("250 localhost")
		case "AUTH":
			sess.Auth = arg
			reply("235 2.7.0 Authentication successful")
		case "MAIL":
			sess.From = angleAddr(arg)
			reply("250 2.1.0 Ok")
		case "RCPT":
			sess.To = append(sess.To, angleAddr(arg))
			reply("250 2.1.5 Ok")
		case "DATA":
			reply("354 End data with <CR><LF>.<CR><LF>")
			data, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			sess.Data = string(data)
			r.mu.Lock()
			r.sessions = append(r.sessions, sess)
			r.mu.Unlock()
			sess = smtpSession{Auth: sess.Auth}
			reply("250 2.0.0 Ok: queued")
		case "RSET":
			sess = smtpSession{Auth: sess.Auth}
			reply("250 2.0.0 Ok")
		case "NOOP":
			reply("250 2.0.0 Ok")
		case "QUIT":
			reply("221 2.0.0 Bye")
			return
		default:
			reply("502 5.5.2 Command not recognized")
		}
	}
}

func angleAddr(arg string) string {
	start := strings.Index(arg, "<")
	end := strings.Index(arg, ">")
	if start < 0 || end <= start {
		return arg
	}
	return arg[start+1 : end]
}

// parseDelivered splits a delivered message into headers and its decoded body.
func parseDelivered(t *testing.T, data string) (netmail.Header, string) {
	t.Helper()
	msg, err := netmail.ReadMessage(strings.NewReader(data))
	require.NoError(t, err)

	var body io.Reader = msg.Body
	if strings.EqualFold(msg.Header.Get("Content-Transfer-Encoding"), "quoted-printable") {
		body = quotedprintable.NewReader(msg.Body)
	}
	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	return msg.Header, string(raw)
}

func newRelayNotifier(t *testing.T, port int) *SMTPNotifier {
	t.Helper()
	n, err := NewSMTPNotifier(config.EmailConfig{
		Host:     "127.0.0.1",
		Port:     port,
		Username: "me@example.com",
		Password: "app-password",
		To:       []string{"owner@example.com", "backup@example.com"},
		Timeout:  2 * time.Second,
	})
	require.NoError(t, err)
	n.tlsPolicy = mail.NoTLS
	n.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return n
}

func TestSMTPNotify(t *testing.T) {
	relay := newSMTPRelay(t)
	n := newRelayNotifier(t, relay.port(t))

	receipt, err := n.Notify(context.Background(), store.Submission{
		ID:        "1",
		Name:      "Ann",
		Email:     "ann@x.com",
		Message:   "<script>alert(1)</script>\nsecond line",
		Timestamp: "2025-01-02T03:04:05.000Z",
		IPAddress: "203.0.113.5",
	})
	require.NoError(t, err)
	require.Equal(t, ProviderSMTP, receipt.Provider)
	require.Equal(t, "me@example.com", receipt.From)
	require.Equal(t, []string{"owner@example.com", "backup@example.com"}, receipt.To)

	sessions := relay.delivered()
	require.Len(t, sessions, 1)
	sess := sessions[0]
	require.Equal(t, "me@example.com", sess.From)
	require.ElementsMatch(t, []string{"owner@example.com", "backup@example.com"}, sess.To)

	mech, initial, ok := strings.Cut(sess.Auth, " ")
	require.True(t, ok, "expected initial response in %q", sess.Auth)
	require.Equal(t, "PLAIN", strings.ToUpper(mech))
	creds, err := base64.StdEncoding.DecodeString(initial)
	require.NoError(t, err)
	require.Equal(t, "\x00me@example.com\x00app-password", string(creds))

	header, body := parseDelivered(t, sess.Data)
	require.Equal(t, "New Portfolio Contact: Ann", header.Get("Subject"))
	require.Contains(t, header.Get("Reply-To"), "ann@x.com")
	require.Contains(t, header.Get("Content-Type"), "text/html")
	require.Contains(t, body, "&lt;script&gt;alert(1)&lt;/script&gt;<br>second line")
	require.NotContains(t, body, "<script>")
	require.Contains(t, body, "203.0.113.5")
}

func TestSMTPSendTestGoesToSender(t *testing.T) {
	relay := newSMTPRelay(t)
	n := newRelayNotifier(t, relay.port(t))

	receipt, err := n.SendTest(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"me@example.com"}, receipt.To)
	require.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), receipt.SentAt)

	// One connection to verify the relay, one to deliver.
	require.Equal(t, 2, relay.connections())

	sessions := relay.delivered()
	require.Len(t, sessions, 1)
	require.Equal(t, []string{"me@example.com"}, sessions[0].To)

	header, body := parseDelivered(t, sessions[0].Data)
	require.Equal(t, testSubject, header.Get("Subject"))
	require.Empty(t, header.Get("Reply-To"))
	require.Contains(t, body, "Email Configuration Test")
}

func TestSMTPSendTestDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, p, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	require.NoError(t, ln.Close())
	port, err := strconv.Atoi(p)
	require.NoError(t, err)

	n := newRelayNotifier(t, port)

	_, err = n.SendTest(context.Background())
	require.Error(t, err)

	var nerr *Error
	require.True(t, errors.As(err, &nerr), "expected *Error, got %T", err)
	require.Equal(t, ProviderSMTP, nerr.Provider)
	require.False(t, errors.Is(err, ErrNotConfigured))
}

func TestSMTPNotifyDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, p, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	require.NoError(t, ln.Close())
	port, err := strconv.Atoi(p)
	require.NoError(t, err)

	n := newRelayNotifier(t, port)

	_, err = n.Notify(context.Background(), store.Submission{Name: "Ann", Email: "ann@x.com", Message: "Hi"})
	var nerr *Error
	require.True(t, errors.As(err, &nerr), "expected *Error, got %T", err)
}
