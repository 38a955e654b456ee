// Package envelope defines the JSON envelope format carried by the realtime
// channel. Every frame is an object with a "type" discriminator; frames
// without one are rejected at the channel boundary instead of being passed
// through to consumers.
package envelope

import (
	"encoding/json"
	"fmt"
	"time"

	"verigate.github.io/pulse/xerr"
)

// Kind is the envelope type discriminator.
// Applications may define their own kinds; the ping and pong kinds are
// reserved for the heartbeat and never reach message observers.
type Kind string

const (
	KindPing         Kind = "ping"
	KindPong         Kind = "pong"
	KindNotification Kind = "notification"
	KindStatus       Kind = "status"
)

// Envelope is one frame of the realtime channel.
type Envelope struct {
	Kind      Kind            `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// IsHeartbeat reports whether the envelope belongs to the keepalive
// exchange and must be swallowed before observer delivery.
func (e Envelope) IsHeartbeat() bool {
	return e.Kind == KindPing || e.Kind == KindPong
}

func (e Envelope) String() string {
	return fmt.Sprintf("envelope{type=%s id=%s len=%d}", e.Kind, e.ID, len(e.Payload))
}

// NewPing builds a heartbeat ping carrying the socket session id.
func NewPing(sid string) Envelope {
	return Envelope{Kind: KindPing, ID: sid, Timestamp: time.Now().UnixMilli()}
}

// NewPong builds the reply to a server-initiated ping.
func NewPong(sid string) Envelope {
	return Envelope{Kind: KindPong, ID: sid, Timestamp: time.Now().UnixMilli()}
}

// New builds an envelope of the given kind with a JSON-encoded payload.
func New(kind Kind, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Kind: kind, Payload: data, Timestamp: time.Now().UnixMilli()}, nil
}

// Decode parses one frame. A frame that is not a JSON object or carries no
// type discriminator fails with xerr.MalformedEnvelope; unknown kinds are
// not an error, they are forwarded to observers as-is.
func Decode(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", xerr.MalformedEnvelope, err)
	}
	if e.Kind == "" {
		return Envelope{}, fmt.Errorf("%w: missing type", xerr.MalformedEnvelope)
	}
	return e, nil
}

// Encode serializes one frame.
func Encode(e Envelope) ([]byte, error) {
	return json.Marshal(e)
}
