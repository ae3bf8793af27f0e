// file: internals/features/finance/fees/service/mailer.go
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"
)

type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPMailer sends plain-text notifications to one operator address.
type SMTPMailer struct {
	From   string
	To     string
	sender mailSender
}

type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

func NewSMTPMailer(o SMTPOptions) (*SMTPMailer, error) {
	if o.Host == "" || o.To == "" {
		return nil, errors.New("smtp host and operator address are required")
	}
	opts := []mail.Option{
		mail.WithPort(o.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if o.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(o.Username),
			mail.WithPassword(o.Password),
		)
	}
	c, err := mail.NewClient(o.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	from := o.From
	if from == "" {
		from = o.Username
	}
	return &SMTPMailer{From: from, To: o.To, sender: c}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, subject, body string) error {
	msg, err := m.build(subject, body)
	if err != nil {
		return err
	}
	return m.sender.DialAndSendWithContext(ctx, msg)
}

func (m *SMTPMailer) build(subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}
