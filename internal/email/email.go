// Package email sends registration confirmation messages.
//
// Two senders exist: an SMTP sender for production and a log sender that
// prints the message instead of delivering it, for development environments.
// Callers treat delivery failures as non-fatal to the registration flow.
package email

import (
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// DevLogHost is the SMTP_HOST value that selects the logging sender.
const DevLogHost = "dev-log"

// DefaultFrom is the sender address used when none is configured.
const DefaultFrom = "inscricao@biosummit.com.br"

// ErrDelivery indicates the message could not be handed to the mail server.
var ErrDelivery = errors.New("email delivery failed")

// Sender delivers registration confirmation emails.
type Sender interface {
	SendRegistrationConfirmation(toEmail, fullName string) error
}

// Opts holds configuration options for the SMTP sender.
type Opts struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Option defines a configuration option for the SMTP sender.
type Option func(*Opts)

// WithHost sets the SMTP server host.
func WithHost(host string) Option {
	return func(o *Opts) { o.Host = host }
}

// WithPort sets the SMTP server port.
func WithPort(port int) Option {
	return func(o *Opts) { o.Port = port }
}

// WithCredentials sets the SMTP authentication credentials.
func WithCredentials(username, password string) Option {
	return func(o *Opts) {
		o.Username = username
		o.Password = password
	}
}

// WithFrom sets the sender address.
func WithFrom(from string) Option {
	return func(o *Opts) { o.From = from }
}

// NewSender builds the sender matching the configured host: the logging
// sender for DevLogHost (or an empty host), the SMTP sender otherwise.
func NewSender(opts ...Option) Sender {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.From == "" {
		cfg.From = DefaultFrom
	}
	if cfg.Host == "" || cfg.Host == DevLogHost {
		return &LogSender{From: cfg.From}
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPSender{opts: cfg, send: smtp.SendMail}
}

// confirmationBody renders the confirmation message for fullName.
func confirmationBody(fullName string) string {
	return fmt.Sprintf(`Olá, %s!

Sua inscrição no BioSummit 2026 foi confirmada com sucesso!

Detalhes do evento:
- Data: 6 e 7 de maio de 2026
- Local: Expo Dom Pedro, Campinas - SP
- Tema: Bioinsumos e Agricultura Regenerativa: Cultivando o Futuro Sustentável

Em breve você receberá mais informações sobre a programação e próximos passos.

Aguardamos você no BioSummit 2026!

Equipe BioSummit
`, fullName)
}

const confirmationSubject = "Confirmação de inscrição - BioSummit 2026"

func validateRecipient(toEmail, fullName string) error {
	if strings.TrimSpace(toEmail) == "" {
		return fmt.Errorf("recipient email cannot be empty")
	}
	if strings.TrimSpace(fullName) == "" {
		return fmt.Errorf("recipient name cannot be empty")
	}
	return nil
}

// SMTPSender delivers messages through an SMTP server.
type SMTPSender struct {
	opts Opts
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// SendRegistrationConfirmation delivers the confirmation message to toEmail.
func (s *SMTPSender) SendRegistrationConfirmation(toEmail, fullName string) error {
	if err := validateRecipient(toEmail, fullName); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.opts.From)
	fmt.Fprintf(&msg, "To: %s\r\n", toEmail)
	fmt.Fprintf(&msg, "Subject: %s\r\n", confirmationSubject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(confirmationBody(fullName))

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	var auth smtp.Auth
	if s.opts.Username != "" {
		auth = smtp.PlainAuth("", s.opts.Username, s.opts.Password, s.opts.Host)
	}
	slog.Debug("Sending confirmation email", "to", toEmail, "smtpAddr", addr)
	if err := s.send(addr, auth, s.opts.From, []string{toEmail}, []byte(msg.String())); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	slog.Info("Confirmation email sent", "to", toEmail)
	return nil
}

// LogSender logs the confirmation message instead of delivering it.
type LogSender struct {
	From string
}

// SendRegistrationConfirmation logs the message that would have been sent.
func (s *LogSender) SendRegistrationConfirmation(toEmail, fullName string) error {
	if err := validateRecipient(toEmail, fullName); err != nil {
		return err
	}
	slog.Info("Confirmation email (dev mode, not delivered)",
		"from", s.From,
		"to", toEmail,
		"subject", confirmationSubject,
		"body", confirmationBody(fullName))
	return nil
}
