package infra

import (
	"fmt"
	"net/smtp"
	"net/textproto"

	"nexogym/internal/config"

	"github.com/jordan-wright/email"
)

const receiptSender = "NexoGym Recibos"

// Mailer delivers PDF receipts over SMTP. A Mailer without a host is
// valid and reports Configured() == false.
type Mailer struct {
	addr string
	from string
	auth smtp.Auth
	host string
}

func NewMailer(cfg *config.Config) *Mailer {
	m := &Mailer{
		host: cfg.SMTPHost,
		addr: fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		from: fmt.Sprintf("%s <%s>", receiptSender, cfg.SMTPUser),
	}
	if cfg.SMTPUser != "" {
		m.auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return m
}

func (m *Mailer) Configured() bool { return m != nil && m.host != "" }

func (m *Mailer) SendReceipt(to, subject, body, pdfPath string) error {
	msg, err := m.receiptMessage(to, subject, body, pdfPath)
	if err != nil {
		return err
	}
	return msg.Send(m.addr, m.auth)
}

func (m *Mailer) receiptMessage(to, subject, body, pdfPath string) (*email.Email, error) {
	e := &email.Email{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Text:    []byte(body),
		Headers: textproto.MIMEHeader{"X-Mailer": {"nexogym"}},
	}
	if pdfPath == "" {
		return e, nil
	}
	if _, err := e.AttachFile(pdfPath); err != nil {
		return nil, fmt.Errorf("mailer: attach receipt: %w", err)
	}
	return e, nil
}
