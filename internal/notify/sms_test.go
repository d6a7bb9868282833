package notify

import (
	"context"
	"testing"
	"time"

	twclient "github.com/twilio/twilio-go/client"
	twapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/vahabvahabov/silentsignals/internal/config"
	"github.com/vahabvahabov/silentsignals/internal/domain/contact"
	"github.com/vahabvahabov/silentsignals/internal/pkg/logger"
)

type fakeSmsAPI struct {
	calls []twapi.CreateMessageParams
	err   error
	block chan struct{} // when set, CreateMessage waits until it is closed
}

func (f *fakeSmsAPI) CreateMessage(params *twapi.CreateMessageParams) (*twapi.ApiV2010Message, error) {
	if f.block != nil {
		<-f.block
	}
	f.calls = append(f.calls, *params)
	if f.err != nil {
		return nil, f.err
	}
	return &twapi.ApiV2010Message{}, nil
}

func newTestSmsChannel(api smsSender) *SmsChannel {
	cfg := config.SMSConfig{
		AccountSID:         "AC-test",
		AuthToken:          "token",
		FromNumber:         "+994501234567",
		DefaultCountryCode: "+994",
	}
	return &SmsChannel{
		cfg:    cfg,
		from:   normalizeNumber(cfg.FromNumber, cfg.DefaultCountryCode),
		api:    api,
		logger: logger.New(logger.Config{Level: "error", Format: "json"}),
	}
}

func TestNormalizeNumber(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  string
	}{
		{name: "already international", phone: "+994 50 123-45-67", want: "+994501234567"},
		{name: "leading zero gets country code", phone: "0501234567", want: "+994501234567"},
		{name: "bare national number", phone: "501234567", want: "+994501234567"},
		{name: "formatting stripped", phone: "(050) 123 45 67", want: "+994501234567"},
		{name: "empty", phone: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeNumber(tt.phone, "+994"); got != tt.want {
				t.Errorf("normalizeNumber(%q) = %q, want %q", tt.phone, got, tt.want)
			}
		})
	}
}

func TestPlausibleNumber(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"+994501234567", true},
		{"994501234567", false},
		{"+12345", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := plausibleNumber(tt.phone); got != tt.want {
			t.Errorf("plausibleNumber(%q) = %v, want %v", tt.phone, got, tt.want)
		}
	}
}

func TestSmsChannel_Deliver(t *testing.T) {
	msg := Message{Username: "vahab", Description: "Fell down stairs", Address: "Baku"}

	t.Run("delivered", func(t *testing.T) {
		api := &fakeSmsAPI{}
		ch := newTestSmsChannel(api)

		res := ch.Deliver(context.Background(), msg, &contact.Contact{Phone: "0701112233"})
		if res.Status != StatusDelivered {
			t.Fatalf("status = %s (%s), want delivered", res.Status, res.Reason)
		}
		if len(api.calls) != 1 {
			t.Fatalf("expected 1 transport call, got %d", len(api.calls))
		}
		if got := *api.calls[0].To; got != "+994701112233" {
			t.Errorf("To = %q, want normalized +994701112233", got)
		}
	})

	t.Run("self number is a skip, not a failure", func(t *testing.T) {
		api := &fakeSmsAPI{}
		ch := newTestSmsChannel(api)

		res := ch.Deliver(context.Background(), msg, &contact.Contact{Phone: "0501234567"})
		if res.Status != StatusSkipped {
			t.Fatalf("status = %s, want skipped", res.Status)
		}
		if len(api.calls) != 0 {
			t.Error("transport should not be called for the sender's own number")
		}
	})

	t.Run("provider same-number code is a skip", func(t *testing.T) {
		api := &fakeSmsAPI{err: &twclient.TwilioRestError{Code: twilioErrSameToAndFrom, Message: "same To and From"}}
		ch := newTestSmsChannel(api)

		res := ch.Deliver(context.Background(), msg, &contact.Contact{Phone: "0701112233"})
		if res.Status != StatusSkipped {
			t.Fatalf("status = %s, want skipped", res.Status)
		}
	})

	t.Run("provider error is a failure", func(t *testing.T) {
		api := &fakeSmsAPI{err: &twclient.TwilioRestError{Code: 20003, Message: "authentication failed"}}
		ch := newTestSmsChannel(api)

		res := ch.Deliver(context.Background(), msg, &contact.Contact{Phone: "0701112233"})
		if res.Status != StatusFailed {
			t.Fatalf("status = %s, want failed", res.Status)
		}
	})

	t.Run("implausible number fails without transport call", func(t *testing.T) {
		api := &fakeSmsAPI{}
		ch := newTestSmsChannel(api)

		res := ch.Deliver(context.Background(), msg, &contact.Contact{Phone: "+1234"})
		if res.Status != StatusFailed {
			t.Fatalf("status = %s, want failed", res.Status)
		}
		if len(api.calls) != 0 {
			t.Error("transport should not be called for an implausible number")
		}
	})

	t.Run("missing phone is a skip", func(t *testing.T) {
		ch := newTestSmsChannel(&fakeSmsAPI{})

		res := ch.Deliver(context.Background(), msg, &contact.Contact{Email: "a@b.c"})
		if res.Status != StatusSkipped {
			t.Fatalf("status = %s, want skipped", res.Status)
		}
	})

	t.Run("stalled provider fails at the attempt deadline", func(t *testing.T) {
		api := &fakeSmsAPI{block: make(chan struct{})}
		defer close(api.block)
		ch := newTestSmsChannel(api)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		start := time.Now()
		res := ch.Deliver(ctx, msg, &contact.Contact{Phone: "0701112233"})

		if res.Status != StatusFailed {
			t.Fatalf("status = %s, want failed", res.Status)
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("Deliver blocked %v past the attempt deadline", elapsed)
		}
	})
}
