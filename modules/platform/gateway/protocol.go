package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"econdash/modules/core/sim"
)

// Topic names pushed by the simulation backend
const (
	TopicMetrics    = "metrics.update"
	TopicWorldDelta = "world.delta"
	TopicEvents     = "events.stream"
	TopicPolicyVote = "policy.vote"
)

// Envelope is the wire frame in both directions: {topic, data, timestamp?}
type Envelope struct {
	Topic     string          `json:"topic"`
	Data      json.RawMessage `json:"data"`
	Timestamp *float64        `json:"timestamp,omitempty"`
}

// DecodeEnvelope parses a raw inbound frame
func DecodeEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}
	return &env, nil
}

// controlFrame is a non-topic frame sent by the server (confirmations, pong)
type controlFrame struct {
	Type   string   `json:"type"`
	Topics []string `json:"topics,omitempty"`
}

// SubscribeRequest is sent exactly once after every successful open
type SubscribeRequest struct {
	Type     string   `json:"type"`
	ClientID string   `json:"client_id,omitempty"`
	Topics   []string `json:"topics"`
}

// PingRequest is the periodic keep-alive envelope
type PingRequest struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// NewPing returns a ping envelope stamped with the current wall clock
func NewPing() PingRequest {
	return PingRequest{Type: "ping", Timestamp: time.Now().UnixMilli()}
}

// Frame is the decoded, topic-tagged payload of an inbound envelope.
// Exactly one concrete type exists per recognized topic so dispatch is a
// type switch instead of runtime field probing.
type Frame interface {
	frameTopic() string
}

// MetricsFrame carries one metric sample
type MetricsFrame struct {
	Sample sim.MetricSample
}

func (MetricsFrame) frameTopic() string { return TopicMetrics }

// WorldDeltaFrame carries partial entity updates and an opaque tile delta
type WorldDeltaFrame struct {
	Actors []sim.EntityDelta
	Tiles  json.RawMessage
}

func (WorldDeltaFrame) frameTopic() string { return TopicWorldDelta }

// EventFrame carries one dashboard event
type EventFrame struct {
	Event sim.Event
}

func (EventFrame) frameTopic() string { return TopicEvents }

// PolicyVoteFrame carries one vote by a policy committee member
type PolicyVoteFrame struct {
	MemberID *int64          `json:"member_id"`
	Vote     json.RawMessage `json:"vote"`
}

func (PolicyVoteFrame) frameTopic() string { return TopicPolicyVote }

// ErrUnknownTopic marks a topic this client version does not recognize.
// Callers log and drop the frame so new server topics never crash a
// running dashboard.
type ErrUnknownTopic struct {
	Topic string
}

func (e *ErrUnknownTopic) Error() string {
	return fmt.Sprintf("unknown topic %q", e.Topic)
}

// worldDeltaPayload mirrors the wire shape of a world.delta frame
type worldDeltaPayload struct {
	ActorsDelta []sim.EntityDelta `json:"actors_delta,omitempty"`
	TilesDelta  json.RawMessage   `json:"tiles_delta,omitempty"`
}

// DecodeFrame turns an envelope into its topic-tagged payload
func DecodeFrame(env *Envelope) (Frame, error) {
	switch env.Topic {
	case TopicMetrics:
		var sample sim.MetricSample
		if err := json.Unmarshal(env.Data, &sample); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Topic, err)
		}
		return MetricsFrame{Sample: sample}, nil

	case TopicWorldDelta:
		var payload worldDeltaPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Topic, err)
		}
		return WorldDeltaFrame{Actors: payload.ActorsDelta, Tiles: payload.TilesDelta}, nil

	case TopicEvents:
		var event sim.Event
		if err := json.Unmarshal(env.Data, &event); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Topic, err)
		}
		return EventFrame{Event: event}, nil

	case TopicPolicyVote:
		var frame PolicyVoteFrame
		if err := json.Unmarshal(env.Data, &frame); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Topic, err)
		}
		return frame, nil

	default:
		return nil, &ErrUnknownTopic{Topic: env.Topic}
	}
}
