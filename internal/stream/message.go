package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Message is a decoded server push. Data holds the data field when present,
// otherwise the whole message so flat payloads still reach their reducer.
type Message struct {
	Type string
	Data json.RawMessage
	Raw  json.RawMessage
}

var errMissingType = errors.New("message has no type")

// Decode parses a raw frame into a Message.
func Decode(raw []byte) (Message, error) {
	var probe struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if probe.Type == "" {
		return Message{}, errMissingType
	}
	msg := Message{Type: probe.Type, Raw: append(json.RawMessage(nil), raw...)}
	if len(probe.Data) > 0 && !bytes.Equal(bytes.TrimSpace(probe.Data), []byte("null")) {
		msg.Data = probe.Data
	} else {
		msg.Data = msg.Raw
	}
	return msg, nil
}

// Unmarshal decodes m.Data into dest.
func (m Message) Unmarshal(dest any) error {
	if err := json.Unmarshal(m.Data, dest); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Type, err)
	}
	return nil
}
