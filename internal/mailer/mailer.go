// Package mailer delivers campaign emails. The primary transport is SMTP
// with STARTTLS; an AWS SES transport is available for managed delivery.
// Sends are per-recipient so one bad address does not sink the batch.
package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a batch of messages. It returns the number of messages
// actually delivered; an error is returned only when nothing was sent.
type Sender interface {
	SendBulk(ctx context.Context, msgs []Message) (int, error)
}

// ErrMissingCredentials indicates the SMTP sender was constructed without
// a complete credential set.
var ErrMissingCredentials = errors.New("SMTP credentials not configured")

// Throttler gates outbound sends. Implementations may consult Redis or
// always allow.
type Throttler interface {
	Allow(ctx context.Context, n int) (bool, error)
}

// SMTPSender sends mail over SMTP with STARTTLS and PLAIN auth.
type SMTPSender struct {
	server   string
	port     string
	user     string
	password string
	throttle Throttler

	// dialTimeout applies to the initial TCP connect.
	dialTimeout time.Duration
}

// NewSMTPSender creates an SMTP sender. Credentials are validated at send
// time so a sender can be constructed before configuration arrives.
func NewSMTPSender(server, port, user, password string) *SMTPSender {
	return &SMTPSender{
		server:      server,
		port:        port,
		user:        user,
		password:    password,
		dialTimeout: 10 * time.Second,
	}
}

// WithThrottler attaches a send throttler and returns the sender.
func (s *SMTPSender) WithThrottler(t Throttler) *SMTPSender {
	s.throttle = t
	return s
}

func (s *SMTPSender) configured() bool {
	return s.server != "" && s.port != "" && s.user != "" && s.password != ""
}

// SendBulk delivers each message in turn from a single SMTP session.
// Per-recipient failures are logged and skipped; an error is returned only
// when no message went out at all.
func (s *SMTPSender) SendBulk(ctx context.Context, msgs []Message) (int, error) {
	if !s.configured() {
		return 0, ErrMissingCredentials
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	if s.throttle != nil {
		allowed, err := s.throttle.Allow(ctx, len(msgs))
		if err != nil {
			log.Printf("[SMTP] throttle check failed, proceeding: %v", err)
		} else if !allowed {
			return 0, fmt.Errorf("send rate limit exceeded")
		}
	}

	client, err := s.dial(ctx)
	if err != nil {
		return 0, err
	}
	defer client.Close()

	sent := 0
	var lastErr error
	for _, msg := range msgs {
		if err := ctx.Err(); err != nil {
			break
		}
		if err := s.sendOne(client, msg); err != nil {
			lastErr = err
			log.Printf("[SMTP] Failed to send to %s: %v", msg.To, err)
			// Reset the session so the next recipient starts clean.
			if rerr := client.Reset(); rerr != nil {
				return sent, fmt.Errorf("SMTP session lost after failure: %w", rerr)
			}
			continue
		}
		sent++
	}

	if err := client.Quit(); err != nil {
		log.Printf("[SMTP] Quit failed: %v", err)
	}

	if sent == 0 {
		if lastErr != nil {
			return 0, fmt.Errorf("failed to send any emails: %w", lastErr)
		}
		return 0, fmt.Errorf("failed to send any emails")
	}
	return sent, nil
}

// TestConnection checks that the server accepts our credentials without
// sending anything.
func (s *SMTPSender) TestConnection(ctx context.Context) error {
	if !s.configured() {
		return ErrMissingCredentials
	}
	client, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()
	return client.Quit()
}

func (s *SMTPSender) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(s.server, s.port)
	dialer := &net.Dialer{Timeout: s.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, s.server)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("SMTP handshake failed: %w", err)
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.server}); err != nil {
			client.Close()
			return nil, fmt.Errorf("STARTTLS failed: %w", err)
		}
	}

	auth := smtp.PlainAuth("", s.user, s.password, s.server)
	if err := client.Auth(auth); err != nil {
		client.Close()
		return nil, fmt.Errorf("SMTP auth failed: %w", err)
	}

	return client, nil
}

func (s *SMTPSender) sendOne(client *smtp.Client, msg Message) error {
	if err := client.Mail(s.user); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("RCPT TO: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := w.Write([]byte(formatMessage(s.user, msg))); err != nil {
		w.Close()
		return fmt.Errorf("write body: %w", err)
	}
	return w.Close()
}

func formatMessage(from string, msg Message) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", from)
	fmt.Fprintf(&sb, "To: %s\r\n", msg.To)
	fmt.Fprintf(&sb, "Subject: %s\r\n", msg.Subject)
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(msg.Body)
	return sb.String()
}
