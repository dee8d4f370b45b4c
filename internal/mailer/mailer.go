package mailer

import (
	"github.com/artrate/artrate/internal/config"
	gomail "github.com/wneessen/go-mail"
)

// Sender delivers a single outbound message. A send failure must surface
// to the caller: enrollment treats it as a hard error, never as a
// logged-and-ignored event.
type Sender interface {
	Send(recipient, subject, body string) error
}

// SMTPSender delivers mail over authenticated SMTP.
type SMTPSender struct {
	client *gomail.Client
	from   string
}

func NewSMTPSender(cfg *config.Config) (*SMTPSender, error) {
	client, err := gomail.NewClient(cfg.SMTPHost,
		gomail.WithPort(cfg.SMTPPort),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.SMTPUsername),
		gomail.WithPassword(cfg.SMTPPassword),
	)
	if err != nil {
		return nil, err
	}

	return &SMTPSender{
		client: client,
		from:   cfg.FromEmail,
	}, nil
}

func (s *SMTPSender) Send(recipient, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return err
	}
	if err := msg.To(recipient); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	return s.client.DialAndSend(msg)
}
