package notify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vahabvahabov/silentsignals/internal/domain/contact"
	"github.com/vahabvahabov/silentsignals/internal/pkg/logger"
)

const realtimeTopicPrefix = "alerts:"

// RealtimeChannel publishes alerts to a Redis pub/sub topic keyed by the
// contact's email address. Connected frontends subscribe to their own topic.
// Delivery is fire and forget: success means the publish was accepted, not
// that anyone was listening.
type RealtimeChannel struct {
	rdb    *redis.Client
	logger *logger.Logger
}

// NewRealtimeChannel creates a realtime channel backed by the given Redis client.
func NewRealtimeChannel(rdb *redis.Client, log *logger.Logger) *RealtimeChannel {
	return &RealtimeChannel{rdb: rdb, logger: log}
}

func (ch *RealtimeChannel) Name() string { return "realtime" }

func (ch *RealtimeChannel) Recipient(c *contact.Contact) (string, bool) {
	email := strings.TrimSpace(c.Email)
	return email, email != ""
}

type realtimePayload struct {
	From        string    `json:"from"`
	Description string    `json:"description"`
	Address     string    `json:"address"`
	Coordinates string    `json:"coordinates,omitempty"`
	Reminder    bool      `json:"reminder"`
	SentAt      time.Time `json:"sent_at"`
}

func (ch *RealtimeChannel) Deliver(ctx context.Context, msg Message, c *contact.Contact) Result {
	addr, ok := ch.Recipient(c)
	if !ok {
		return skipped(ch.Name(), "contact has no email address")
	}

	payload, err := json.Marshal(realtimePayload{
		From:        msg.Username,
		Description: msg.Description,
		Address:     msg.LocationOrFallback(),
		Coordinates: msg.Coordinates,
		Reminder:    msg.Reminder,
		SentAt:      time.Now().UTC(),
	})
	if err != nil {
		return failed(ch.Name(), "failed to encode payload", err)
	}

	if err := ch.rdb.Publish(ctx, realtimeTopicPrefix+addr, payload).Err(); err != nil {
		ch.logger.WithFields(map[string]interface{}{
			"contact": addr,
		}).ErrorWithErr(err, "Realtime publish failed")
		return failed(ch.Name(), "publish failed", err)
	}

	ch.logger.With("contact", addr).Debug("Realtime alert published")
	return delivered(ch.Name())
}
