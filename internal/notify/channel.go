// Package notify contains the delivery channels an alert dispatch fans out
// over. Every channel reports its outcome as a value; a channel never
// panics and never lets a transport error escape its boundary, which is
// what allows the dispatcher to iterate channels without special cases.
package notify

import (
	"context"

	"github.com/vahabvahabov/silentsignals/internal/domain/contact"
)

// Status classifies the outcome of a single delivery attempt.
type Status string

const (
	// StatusDelivered means the transport accepted the message. It is not
	// an end-to-end delivery acknowledgment.
	StatusDelivered Status = "delivered"
	// StatusSkipped means the attempt was intentionally not made, e.g. a
	// destination equal to the sender. Logged distinctly from a failure.
	StatusSkipped Status = "skipped"
	// StatusFailed means the transport rejected the message or was unreachable.
	StatusFailed Status = "failed"
)

// Result is the outcome of one channel attempt for one contact.
type Result struct {
	Channel string
	Status  Status
	Reason  string
	Err     error
}

// Message is the payload shape shared by all channels. Channels format it
// for their own transport.
type Message struct {
	Username    string
	Description string
	Coordinates string
	Address     string
	Reminder    bool
}

// LocationOrFallback returns the address or a placeholder when none was
// captured, matching what recipients see across all channels.
func (m Message) LocationOrFallback() string {
	if m.Address == "" {
		return "Location not available"
	}
	return m.Address
}

// Channel is one delivery mechanism with its own failure domain.
type Channel interface {
	// Name identifies the channel in logs and metrics.
	Name() string

	// Recipient returns the delivery address this channel would use for
	// the contact, and whether the contact is addressable at all. The
	// dispatcher only attempts delivery when ok is true.
	Recipient(c *contact.Contact) (addr string, ok bool)

	// Deliver attempts to deliver the message to the contact. It must
	// honor ctx cancellation where the transport allows and always return
	// a Result instead of propagating transport errors.
	Deliver(ctx context.Context, msg Message, c *contact.Contact) Result
}

func delivered(channel string) Result {
	return Result{Channel: channel, Status: StatusDelivered}
}

func skipped(channel, reason string) Result {
	return Result{Channel: channel, Status: StatusSkipped, Reason: reason}
}

func failed(channel, reason string, err error) Result {
	return Result{Channel: channel, Status: StatusFailed, Reason: reason, Err: err}
}
