package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/yllada/deskshell/common"
)

// Kind is the shape of a single message on the wire.
type Kind string

const (
	KindCommand   Kind = "command"
	KindRequest   Kind = "request"
	KindReply     Kind = "reply"
	KindBroadcast Kind = "broadcast"
)

// Message is the envelope carried by a Conn.
type Message struct {
	Channel Channel         `json:"channel"`
	Kind    Kind            `json:"kind"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// LogPayload is the body of the log-* commands.
type LogPayload struct {
	Message string `json:"message"`
	Meta    []any  `json:"meta,omitempty"`
}

func encodePayload(payload any) (json.RawMessage, error) {
	if payload == nil {
		return nil, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidMessage, err)
	}
	return data, nil
}

// NewCommand builds a fire-and-forget message.
func NewCommand(ch Channel, payload any) (Message, error) {
	data, err := encodePayload(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Channel: ch, Kind: KindCommand, Payload: data}, nil
}

// NewRequest builds a request with a fresh correlation ID.
func NewRequest(ch Channel, payload any) (Message, error) {
	data, err := encodePayload(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Channel: ch, Kind: KindRequest, ID: uuid.NewString(), Payload: data}, nil
}

// NewReply answers req. A non-nil replyErr is carried as the error string.
func NewReply(req Message, payload any, replyErr error) (Message, error) {
	reply := Message{Channel: req.Channel, Kind: KindReply, ID: req.ID}
	if replyErr != nil {
		reply.Error = replyErr.Error()
		return reply, nil
	}
	data, err := encodePayload(payload)
	if err != nil {
		return Message{}, err
	}
	reply.Payload = data
	return reply, nil
}

// NewBroadcast builds a host-originated event.
func NewBroadcast(ch Channel, payload any) (Message, error) {
	data, err := encodePayload(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Channel: ch, Kind: KindBroadcast, Payload: data}, nil
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%w: %s has no payload", common.ErrInvalidMessage, m.Channel)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("%w: %s: %v", common.ErrInvalidMessage, m.Channel, err)
	}
	return nil
}
