package multicast

import (
	"encoding/json"
	"fmt"
	"time"
)

// envelope is the wire form of a Message used by bridges. The payload is
// flattened with a kind discriminator so each variant round-trips exactly.
type envelope struct {
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Tags        []string  `json:"tags,omitempty"`
	Kind        string    `json:"kind"`
	Name        string    `json:"name,omitempty"`
	Value       float64   `json:"value,omitempty"`
	Text        string    `json:"text,omitempty"`
	Data        []byte    `json:"data,omitempty"`
	SentAt      time.Time `json:"sent_at"`
	Origin      string    `json:"origin"`
}

func encodeMessage(msg Message, origin string) ([]byte, error) {
	env := envelope{
		Source:      msg.Source,
		Destination: msg.Destination,
		Tags:        msg.Tags,
		Kind:        payloadKind(msg.Payload),
		SentAt:      msg.SentAt,
		Origin:      origin,
	}
	switch p := msg.Payload.(type) {
	case nil:
	case ValuePayload:
		env.Name, env.Value = p.Name, p.Value
	case TextPayload:
		env.Name, env.Text = p.Name, p.Text
	case DataPayload:
		env.Name, env.Data = p.Name, p.Data
	default:
		return nil, fmt.Errorf("multicast: unknown payload kind %q", msg.Payload.Kind())
	}
	return json.Marshal(env)
}

func decodeMessage(b []byte) (Message, string, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Message{}, "", fmt.Errorf("multicast: decode envelope: %w", err)
	}

	msg := Message{
		Source:      env.Source,
		Destination: env.Destination,
		Tags:        env.Tags,
		SentAt:      env.SentAt,
		origin:      env.Origin,
	}
	switch env.Kind {
	case "none", "":
	case "value":
		msg.Payload = ValuePayload{Name: env.Name, Value: env.Value}
	case "text":
		msg.Payload = TextPayload{Name: env.Name, Text: env.Text}
	case "data":
		msg.Payload = DataPayload{Name: env.Name, Data: env.Data}
	default:
		return Message{}, "", fmt.Errorf("multicast: unknown payload kind %q", env.Kind)
	}
	return msg, env.Origin, nil
}
