// Package multicast provides the process-wide publish/subscribe pool used for
// cross-thread messaging between task threads.
//
// Delivery is asynchronous: Publish never invokes subscriber callbacks inline.
// Every subscription carries an Executor which marshals the callback onto the
// subscriber's own execution context, so a queue owned by a task thread is
// only ever touched from that thread.
package multicast

import "time"

// DestAll is the wildcard destination: the message targets every subscriber
// whose remaining filter fields match.
const DestAll = "*"

// Message is an immutable addressed, tagged payload broadcast on the pool.
type Message struct {
	// Source identifies the publishing thread or device.
	Source string

	// Destination is the intended receiver. Empty or DestAll means
	// broadcast.
	Destination string

	// Tags classify the message; a message may carry none.
	Tags []string

	// Payload is the message body.
	Payload Payload

	// SentAt is the publish timestamp, filled in by the pool if zero.
	SentAt time.Time

	// origin is set by a bridge when the message was injected from another
	// process; bridges skip re-forwarding such messages.
	origin string
}

// HasTag reports whether the message carries the given tag.
func (m Message) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Payload is a closed set of message body shapes. Keeping the set closed
// makes the cross-thread hand-off and the bridge codec total.
type Payload interface {
	// Kind returns the payload discriminator used by the wire codec.
	Kind() string
}

// ValuePayload carries a named scalar sample (a stage position, a DAQ
// reading).
type ValuePayload struct {
	Name  string
	Value float64
}

// Kind implements Payload.
func (ValuePayload) Kind() string { return "value" }

// TextPayload carries a named text value (a device status string, an event
// label).
type TextPayload struct {
	Name string
	Text string
}

// Kind implements Payload.
func (TextPayload) Kind() string { return "text" }

// DataPayload carries a named opaque blob (a camera frame, a waveform).
type DataPayload struct {
	Name string
	Data []byte
}

// Kind implements Payload.
func (DataPayload) Kind() string { return "data" }

// payloadKind returns the kind label for metrics, tolerating nil payloads.
func payloadKind(p Payload) string {
	if p == nil {
		return "none"
	}
	return p.Kind()
}
