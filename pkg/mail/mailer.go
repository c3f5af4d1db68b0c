package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"
)

// ErrDisabled signals that email delivery is switched off in configuration.
// The email channel treats it as "not routable" rather than a failure.
var ErrDisabled = errors.New("mail: delivery disabled")

// Mailer delivers one reminder email to a single recipient. The sender
// address comes from configuration; reminders never vary it per message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSettings capture the runtime configuration required by the SMTP mailer.
type SMTPSettings struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool
	Timeout  time.Duration
}

type smtpDialFunc func(ctx context.Context, cfg SMTPSettings) (net.Conn, smtpClient, error)
type smtpAuthFunc func(client smtpClient, cfg SMTPSettings) error

type smtpMailer struct {
	cfg    SMTPSettings
	dialFn smtpDialFunc
	authFn smtpAuthFunc
}

// NewSMTP constructs an SMTP-backed Mailer. When delivery is enabled the
// host, port and a parseable From address are required up front, so a
// misconfigured sender fails at startup instead of on the first sweep.
func NewSMTP(cfg SMTPSettings) (Mailer, error) {
	if cfg.Enabled {
		if strings.TrimSpace(cfg.Host) == "" {
			return nil, errors.New("mail: host is required when enabled")
		}
		if cfg.Port == 0 {
			return nil, errors.New("mail: port is required when enabled")
		}
		cfg.From = strings.TrimSpace(cfg.From)
		if cfg.From == "" {
			return nil, errors.New("mail: from address is required when enabled")
		}
		if _, err := mail.ParseAddress(cfg.From); err != nil {
			return nil, fmt.Errorf("mail: invalid from address: %w", err)
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &smtpMailer{
		cfg:    cfg,
		dialFn: defaultDialFunc,
		authFn: defaultAuthFunc,
	}, nil
}

func (m *smtpMailer) Send(ctx context.Context, to, subject, body string) error {
	if !m.cfg.Enabled {
		return ErrDisabled
	}

	to = strings.TrimSpace(to)
	if to == "" {
		return errors.New("mail: recipient is required")
	}
	if _, err := mail.ParseAddress(to); err != nil {
		return fmt.Errorf("mail: invalid recipient address %q: %w", to, err)
	}

	conn, client, err := m.dialFn(ctx, m.cfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	defer client.Close()

	if err := m.authFn(client, m.cfg); err != nil {
		return err
	}

	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("mail: mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("mail: rcpt to %s: %w", to, err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("mail: data command: %w", err)
	}

	if _, err := io.WriteString(wc, reminderMessage(m.cfg.From, to, subject, body)); err != nil {
		_ = wc.Close()
		return fmt.Errorf("mail: write body: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("mail: close data writer: %w", err)
	}

	return client.Quit()
}

// reminderMessage renders the wire format for one reminder. The
// Auto-Submitted header marks the mail as machine-generated so receiving
// systems suppress vacation replies to the sweep's sender address.
func reminderMessage(from, to, subject, body string) string {
	headers := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", escapeHeader(subject)),
		"Auto-Submitted: auto-generated",
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
	}

	return strings.Join(headers, "\r\n") + body
}

func escapeHeader(value string) string {
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	return value
}

type smtpClient interface {
	Mail(string) error
	Rcpt(string) error
	Data() (io.WriteCloser, error)
	Auth(smtp.Auth) error
	Extension(string) (bool, string)
	StartTLS(*tls.Config) error
	Quit() error
	Close() error
}

type realSMTPClient struct {
	*smtp.Client
}

func defaultDialFunc(ctx context.Context, cfg SMTPSettings) (net.Conn, smtpClient, error) {
	address := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	dialer := &net.Dialer{Timeout: cfg.Timeout}

	var (
		conn net.Conn
		err  error
	)

	if cfg.UseTLS {
		conn, err = tls.DialWithDialer(dialer, "tcp", address, &tls.Config{ServerName: cfg.Host})
	} else if ctx != nil {
		conn, err = dialer.DialContext(ctx, "tcp", address)
	} else {
		conn, err = dialer.Dial("tcp", address)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("mail: dial %s: %w", address, err)
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("mail: new client: %w", err)
	}

	if !cfg.UseTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: cfg.Host}); err != nil {
				_ = client.Close()
				_ = conn.Close()
				return nil, nil, fmt.Errorf("mail: start tls: %w", err)
			}
		}
	}

	return conn, &realSMTPClient{Client: client}, nil
}

func defaultAuthFunc(client smtpClient, cfg SMTPSettings) error {
	if strings.TrimSpace(cfg.Username) == "" {
		return nil
	}
	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("mail: auth: %w", err)
	}
	return nil
}
