// Package action defines the immutable value types that cross the
// channels connecting the MQTT bridge, the timer source, and the
// runtime loop: inbound Actions and outbound Messages.
package action

import (
	"encoding/json"
	"strings"
)

// InternalPrefix marks topics that never cross the MQTT boundary.
// They are produced and consumed only by in-process collaborators
// (the timer, error injection, shutdown notifications).
const InternalPrefix = "SYSMR/"

// TickTopic is the synthetic topic used by the timer source.
const TickTopic = InternalPrefix + "action/tick"

// ErrorTopic is the synthetic topic injected when the MQTT connection
// is lost after startup, driving the master engine to a Final(Error,...)
// state.
const ErrorTopic = InternalPrefix + "action/error"

// Action is an inbound event: an MQTT publish, a timer tick, or an
// injected control/diagnostic event. It is immutable after creation
// and is consumed exactly once by the runtime loop.
type Action struct {
	Topic   string
	Payload []byte
}

// New creates an Action from a topic and payload.
func New(topic string, payload []byte) Action {
	return Action{Topic: topic, Payload: payload}
}

// Internal reports whether this action originated from, or targets,
// an internal SYSMR/ topic.
func (a Action) Internal() bool {
	return strings.HasPrefix(a.Topic, InternalPrefix)
}

// properties is the decoded shape of a Message's Properties field.
// Absent or invalid fields fall back to the documented defaults.
type properties struct {
	QoS    *int  `json:"qos"`
	Retain *bool `json:"retain"`
}

// Message is an outbound publish request produced by the master
// engine. Properties conveys optional per-message QoS and retain
// flags; a nil or malformed Properties defaults to QoS 1,
// non-retained.
type Message struct {
	Topic      string
	Payload    []byte
	Properties json.RawMessage
}

// NewMessage creates a Message with no properties (QoS 1, non-retained).
func NewMessage(topic string, payload []byte) Message {
	return Message{Topic: topic, Payload: payload}
}

func (m Message) decodeProperties() properties {
	var p properties
	if len(m.Properties) == 0 {
		return p
	}
	_ = json.Unmarshal(m.Properties, &p)
	return p
}

// QoS returns the message's requested QoS, defaulting to 1 when
// Properties is absent, malformed, or out of range.
func (m Message) QoS() byte {
	p := m.decodeProperties()
	if p.QoS == nil || *p.QoS < 0 || *p.QoS > 2 {
		return 1
	}
	return byte(*p.QoS)
}

// Retain returns the message's requested retain flag, defaulting to
// false when Properties is absent or malformed.
func (m Message) Retain() bool {
	p := m.decodeProperties()
	if p.Retain == nil {
		return false
	}
	return *p.Retain
}

// Internal reports whether this message targets an internal SYSMR/
// topic and must never be published to the broker.
func (m Message) Internal() bool {
	return strings.HasPrefix(m.Topic, InternalPrefix)
}
