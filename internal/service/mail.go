package service

import (
	"context"
	"errors"
	"fmt"
	"html"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Dispatcher delivers account emails. Callers never wait on it; the mail
// queue runs every send in the background.
type Dispatcher interface {
	SendVerificationEmail(ctx context.Context, to, name, link string) error
	SendWelcomeEmail(ctx context.Context, to, name string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	SiteName string
	SSL      bool
}

type SMTPDispatcher struct {
	from     string
	siteName string
	dialer   *gomail.Dialer
}

func NewSMTPDispatcher(c SMTPConfig) *SMTPDispatcher {
	d := gomail.NewDialer(c.Host, c.Port, c.Username, c.Password)
	d.SSL = c.SSL

	siteName := c.SiteName
	if siteName == "" {
		siteName = "the community"
	}

	return &SMTPDispatcher{from: c.From, siteName: siteName, dialer: d}
}

func (d *SMTPDispatcher) SendVerificationEmail(ctx context.Context, to, name, link string) error {
	m, err := d.message(to, "Verify your email to join "+d.siteName)
	if err != nil {
		return err
	}

	m.SetBody("text/html", fmt.Sprintf(
		"Hi %s,<br><br>Click <a href='%s'>here</a> to verify your account.<br><br>This link will expire in 24 hours.",
		html.EscapeString(name), html.EscapeString(link)))

	return d.send(ctx, m)
}

func (d *SMTPDispatcher) SendWelcomeEmail(ctx context.Context, to, name string) error {
	m, err := d.message(to, "Welcome to "+d.siteName)
	if err != nil {
		return err
	}

	m.SetBody("text/html", fmt.Sprintf(
		"Hi %s,<br><br>Your email has been verified, you can now log in.",
		html.EscapeString(name)))

	return d.send(ctx, m)
}

func (d *SMTPDispatcher) message(to, subject string) (*gomail.Message, error) {
	if to == d.from {
		return nil, errors.New("invalid email address")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", d.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)

	return m, nil
}

// send gives up waiting on ctx. The dial itself is bounded by gomail's own
// timeout and may still deliver, its late outcome is logged.
func (d *SMTPDispatcher) send(ctx context.Context, m *gomail.Message) error {
	errc := make(chan error, 1)

	go func() {
		errc <- d.dialer.DialAndSend(m)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("failed to send mail, %w", err)
		}

		return nil
	case <-ctx.Done():
		to := m.GetHeader("To")

		go func() {
			if err := <-errc; err != nil {
				zap.L().Warn("Abandoned email failed", zap.Strings("to", to), zap.Error(err))
				return
			}

			zap.L().Info("Abandoned email was delivered", zap.Strings("to", to))
		}()

		return ctx.Err()
	}
}

// LogDispatcher writes emails to the log instead of sending them. Used when
// mail is disabled for local development.
type LogDispatcher struct {
	Logger *zap.Logger
}

func (d *LogDispatcher) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.L()
	}

	return d.Logger
}

func (d *LogDispatcher) SendVerificationEmail(_ context.Context, to, name, link string) error {
	d.logger().Info("Verification email",
		zap.String("to", to),
		zap.String("name", name),
		zap.String("link", link))

	return nil
}

func (d *LogDispatcher) SendWelcomeEmail(_ context.Context, to, name string) error {
	d.logger().Info("Welcome email", zap.String("to", to), zap.String("name", name))
	return nil
}
