package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/vahabvahabov/silentsignals/internal/config"
	"github.com/vahabvahabov/silentsignals/internal/domain/contact"
	"github.com/vahabvahabov/silentsignals/internal/pkg/logger"
)

const sosEmailTemplate = `<div style="font-family: Arial, sans-serif; padding: 20px; background-color: #f4f4f4; border-radius: 8px; max-width: 600px; margin: auto;">
  <div style="background-color: #ffffff; padding: 30px; border-radius: 8px; border-top: 5px solid #ff0000;">
    <h2 style="color: #333333; text-align: center; border-bottom: 1px solid #eeeeee; padding-bottom: 10px;">Emergency SOS Alert</h2>
    <p style="color: #555555; font-size: 16px;">Dear recipient,</p>
    <p style="color: #555555; font-size: 16px;">You have received an SOS alert from <strong>{{.Username}}</strong>.</p>
    <p style="color: #555555; font-size: 16px;"><strong>Description:</strong> {{.Description}}</p>
    <p style="color: #555555; font-size: 16px;"><strong>Location:</strong> {{.Location}}</p>
    <p style="color: #ff0000; font-size: 16px; font-weight: bold;">Please take immediate action to ensure their safety.</p>
    <p style="color: #999999; font-size: 14px; border-top: 1px solid #eeeeee; padding-top: 15px; margin-top: 20px;">This is an automated message, please do not reply.</p>
  </div>
</div>`

const sosReminderEmailTemplate = `<div style="font-family: Arial, sans-serif; padding: 20px; background-color: #f4f4f4; border-radius: 8px; max-width: 600px; margin: auto;">
  <div style="background-color: #ffffff; padding: 30px; border-radius: 8px; border-top: 5px solid #ff9900;">
    <h2 style="color: #333333; text-align: center; border-bottom: 1px solid #eeeeee; padding-bottom: 10px;">REMINDER: Emergency SOS Alert</h2>
    <p style="color: #555555; font-size: 16px;">Dear recipient,</p>
    <p style="color: #555555; font-size: 16px;">This is a <strong>REMINDER</strong> for the SOS alert from <strong>{{.Username}}</strong>.</p>
    <p style="color: #555555; font-size: 16px;"><strong>Description:</strong> {{.Description}}</p>
    <p style="color: #555555; font-size: 16px;"><strong>Location:</strong> {{.Location}}</p>
    <p style="color: #ff9900; font-size: 16px; font-weight: bold;">This alert is still active. Please ensure their safety.</p>
    <p style="color: #999999; font-size: 14px; border-top: 1px solid #eeeeee; padding-top: 15px; margin-top: 20px;">This is an automated reminder message, please do not reply.</p>
  </div>
</div>`

type emailTemplateData struct {
	Username    string
	Description string
	Location    string
}

// EmailChannel renders an HTML alert and submits it to an SMTP transport.
// Success means the transport accepted the message for sending, not that it
// reached the inbox.
type EmailChannel struct {
	cfg      config.SMTPConfig
	initial  *template.Template
	reminder *template.Template
	logger   *logger.Logger

	// send is swapped out in tests to avoid a live SMTP connection.
	send func(m ...*gomail.Message) error
}

// NewEmailChannel creates an email channel for the given SMTP configuration.
func NewEmailChannel(cfg config.SMTPConfig, log *logger.Logger) *EmailChannel {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &EmailChannel{
		cfg:      cfg,
		initial:  template.Must(template.New("sos_alert").Parse(sosEmailTemplate)),
		reminder: template.Must(template.New("sos_reminder").Parse(sosReminderEmailTemplate)),
		logger:   log,
		send:     dialer.DialAndSend,
	}
}

func (ch *EmailChannel) Name() string { return "email" }

func (ch *EmailChannel) Recipient(c *contact.Contact) (string, bool) {
	email := strings.TrimSpace(c.Email)
	return email, email != ""
}

// Subject builds the subject line for the message.
func (ch *EmailChannel) Subject(msg Message) string {
	if msg.Reminder {
		return fmt.Sprintf("REMINDER: SOS Alert from %s", msg.Username)
	}
	return fmt.Sprintf("SOS Alert from %s", msg.Username)
}

// Render produces the HTML body for the message.
func (ch *EmailChannel) Render(msg Message) (string, error) {
	tmpl := ch.initial
	if msg.Reminder {
		tmpl = ch.reminder
	}

	var buf bytes.Buffer
	err := tmpl.Execute(&buf, emailTemplateData{
		Username:    msg.Username,
		Description: msg.Description,
		Location:    msg.LocationOrFallback(),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (ch *EmailChannel) Deliver(ctx context.Context, msg Message, c *contact.Contact) Result {
	addr, ok := ch.Recipient(c)
	if !ok {
		return skipped(ch.Name(), "contact has no email address")
	}

	if err := ctx.Err(); err != nil {
		return failed(ch.Name(), "context cancelled before send", err)
	}

	body, err := ch.Render(msg)
	if err != nil {
		return failed(ch.Name(), "failed to render template", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", ch.cfg.From)
	m.SetHeader("To", addr)
	m.SetHeader("Subject", ch.Subject(msg))
	m.SetBody("text/html", body)

	// The transport has no context support, so the call runs in its own
	// goroutine and the attempt is abandoned when the deadline passes.
	errc := make(chan error, 1)
	go func() { errc <- ch.send(m) }()

	select {
	case <-ctx.Done():
		ch.logger.With("contact", addr).Warn("SMTP send abandoned at attempt deadline")
		return failed(ch.Name(), "attempt deadline passed before the transport answered", ctx.Err())
	case err := <-errc:
		if err != nil {
			ch.logger.WithFields(map[string]interface{}{
				"contact": addr,
			}).ErrorWithErr(err, "SMTP send failed")
			return failed(ch.Name(), "smtp send failed", err)
		}
	}

	ch.logger.With("contact", addr).Debug("SOS email handed to transport")
	return delivered(ch.Name())
}
