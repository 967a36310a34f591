package mail

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
)

// Config datos del servidor SMTP.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string // vacío = User
}

// Attachment archivo adjunto en memoria.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message correo listo para enviar.
type Message struct {
	To          []string
	CC          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// SMTPMailer envía correos con adjuntos por SMTP.
type SMTPMailer struct {
	cfg  Config
	send func(*email.Email) error
}

// MailerOption configura un SMTPMailer.
type MailerOption func(*SMTPMailer)

// WithSender reemplaza el envío SMTP; útil en tests.
func WithSender(fn func(*email.Email) error) MailerOption {
	return func(m *SMTPMailer) { m.send = fn }
}

// NewSMTPMailer construye el mailer.
func NewSMTPMailer(cfg Config, opts ...MailerOption) *SMTPMailer {
	m := &SMTPMailer{cfg: cfg}
	m.send = func(e *email.Email) error {
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		var auth smtp.Auth
		if cfg.User != "" {
			auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
		}
		return e.Send(addr, auth)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Send arma el correo y lo envía. El contexto solo se revisa antes de enviar:
// la librería SMTP no acepta cancelación.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("mailer: sin destinatarios")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = m.cfg.From
	if e.From == "" {
		e.From = m.cfg.User
	}
	e.To = msg.To
	e.Cc = msg.CC
	e.Subject = msg.Subject
	e.Text = []byte(msg.Body)

	for _, a := range msg.Attachments {
		if _, err := e.Attach(bytes.NewReader(a.Data), a.Name, a.ContentType); err != nil {
			return fmt.Errorf("mailer: adjuntar %s: %w", a.Name, err)
		}
	}
	if err := m.send(e); err != nil {
		return fmt.Errorf("mailer: enviar: %w", err)
	}
	return nil
}
