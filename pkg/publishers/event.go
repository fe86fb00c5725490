package publishers

import (
	"crypto/sha1" //nolint:gosec // identifier hashing, not security
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event records one answered inbound message.
type Event struct {
	ID         string    `json:"id"`
	Channel    string    `json:"channel"`
	SenderHash string    `json:"sender_hash,omitempty"`
	Query      string    `json:"query,omitempty"`
	Intent     string    `json:"intent"`
	Disease    string    `json:"disease,omitempty"`
	Outcome    string    `json:"outcome"`
	Reply      string    `json:"reply"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent stamps an event with a fresh id and the current time. The sender
// identifier never leaves the process in clear text.
func NewEvent(channel, sender string) Event {
	return Event{
		ID:         uuid.NewString(),
		Channel:    channel,
		SenderHash: HashSender(sender),
		OccurredAt: time.Now().UTC(),
	}
}

// HashSender returns the sha1 hex digest of a sender identifier, or "" for an
// empty one.
func HashSender(sender string) string {
	sender = strings.TrimSpace(sender)
	if sender == "" {
		return ""
	}
	sum := sha1.Sum([]byte(sender))
	return hex.EncodeToString(sum[:])
}

// attributes are the routing fields mirrored into broker message metadata.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"event_id": e.ID,
		"channel":  e.Channel,
		"intent":   e.Intent,
		"outcome":  e.Outcome,
	}
}
