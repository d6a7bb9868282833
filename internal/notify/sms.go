package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	twilio "github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	twapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/vahabvahabov/silentsignals/internal/config"
	"github.com/vahabvahabov/silentsignals/internal/domain/contact"
	"github.com/vahabvahabov/silentsignals/internal/pkg/logger"
)

// Twilio rejects messages where To equals From with this error code. It is a
// skip for us, not a failure: texting the sender's own number is meaningless.
const twilioErrSameToAndFrom = 21266

type smsSender interface {
	CreateMessage(params *twapi.CreateMessageParams) (*twapi.ApiV2010Message, error)
}

// SmsChannel normalizes destination numbers to international format and
// submits the alert text to the Twilio REST API.
type SmsChannel struct {
	cfg    config.SMSConfig
	from   string
	api    smsSender
	logger *logger.Logger
}

// NewSmsChannel creates an SMS channel for the given Twilio configuration.
func NewSmsChannel(cfg config.SMSConfig, log *logger.Logger) *SmsChannel {
	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &SmsChannel{
		cfg:    cfg,
		from:   normalizeNumber(cfg.FromNumber, cfg.DefaultCountryCode),
		api:    rest.Api,
		logger: log,
	}
}

func (ch *SmsChannel) Name() string { return "sms" }

func (ch *SmsChannel) Recipient(c *contact.Contact) (string, bool) {
	phone := strings.TrimSpace(c.Phone)
	return phone, phone != ""
}

func (ch *SmsChannel) Deliver(ctx context.Context, msg Message, c *contact.Contact) Result {
	phone, ok := ch.Recipient(c)
	if !ok {
		return skipped(ch.Name(), "contact has no phone number")
	}

	if ch.cfg.AccountSID == "" || ch.cfg.AuthToken == "" || ch.from == "" {
		return failed(ch.Name(), "sms transport is not configured", nil)
	}

	to := normalizeNumber(phone, ch.cfg.DefaultCountryCode)

	if sameNumber(to, ch.from) {
		ch.logger.With("contact", to).Warn("Skipping SMS: destination equals sender number")
		return skipped(ch.Name(), "destination equals sender number")
	}

	if !plausibleNumber(to) {
		return failed(ch.Name(), fmt.Sprintf("implausible phone number %q", to), nil)
	}

	if err := ctx.Err(); err != nil {
		return failed(ch.Name(), "context cancelled before send", err)
	}

	body := fmt.Sprintf("🚨 SOS ALERT from %s\n\n%s\n\nLocation: %s\n\nPlease respond immediately!",
		msg.Username, msg.Description, msg.LocationOrFallback())

	params := &twapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(ch.from)
	params.SetBody(body)

	// The REST client has no context support, so the call runs in its own
	// goroutine and the attempt is abandoned when the deadline passes.
	errc := make(chan error, 1)
	go func() {
		_, err := ch.api.CreateMessage(params)
		errc <- err
	}()

	select {
	case <-ctx.Done():
		ch.logger.With("contact", to).Warn("Twilio send abandoned at attempt deadline")
		return failed(ch.Name(), "attempt deadline passed before the provider answered", ctx.Err())
	case err := <-errc:
		if err != nil {
			var restErr *twclient.TwilioRestError
			if errors.As(err, &restErr) && restErr.Code == twilioErrSameToAndFrom {
				ch.logger.With("contact", to).Warn("Twilio blocked SMS to same number")
				return skipped(ch.Name(), "provider rejected duplicate destination")
			}
			ch.logger.WithFields(map[string]interface{}{
				"contact": to,
			}).ErrorWithErr(err, "Twilio send failed")
			return failed(ch.Name(), "provider send failed", err)
		}
	}

	ch.logger.With("contact", to).Debug("SOS SMS handed to transport")
	return delivered(ch.Name())
}

// normalizeNumber converts a phone number to international format. Numbers
// already carrying a + prefix are kept; a leading 0 or a bare national
// number gets the configured default country code.
func normalizeNumber(phone, countryCode string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' || r == '+' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	switch {
	case cleaned == "":
		return ""
	case strings.HasPrefix(cleaned, "+"):
		return cleaned
	case strings.HasPrefix(cleaned, "0"):
		return countryCode + cleaned[1:]
	default:
		return countryCode + cleaned
	}
}

// plausibleNumber reports whether the number looks deliverable: an
// international prefix marker and at least ten digits.
func plausibleNumber(phone string) bool {
	if !strings.HasPrefix(phone, "+") {
		return false
	}
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 10
}

// sameNumber compares two numbers on digits only, ignoring formatting.
func sameNumber(a, b string) bool {
	strip := func(s string) string {
		var d strings.Builder
		for _, r := range s {
			if r >= '0' && r <= '9' {
				d.WriteRune(r)
			}
		}
		return d.String()
	}
	sa, sb := strip(a), strip(b)
	return sa != "" && sa == sb
}
