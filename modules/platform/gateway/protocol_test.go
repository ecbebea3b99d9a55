package gateway

import (
	"errors"
	"testing"
)

func TestDecodeEnvelope(t *testing.T) {
	raw := []byte(`{"topic":"metrics.update","data":{"timestamp":12,"kpis":{"gdp":1.5}},"timestamp":12.5}`)

	env, err := DecodeEnvelope(raw)
	if err != nil {
		t.Fatalf("DecodeEnvelope() error = %v", err)
	}
	if env.Topic != TopicMetrics {
		t.Errorf("Topic = %q, want %q", env.Topic, TopicMetrics)
	}
	if env.Timestamp == nil || *env.Timestamp != 12.5 {
		t.Errorf("Timestamp = %v, want 12.5", env.Timestamp)
	}
}

func TestDecodeEnvelopeMalformed(t *testing.T) {
	if _, err := DecodeEnvelope([]byte(`{"topic":`)); err == nil {
		t.Fatal("DecodeEnvelope() expected error for truncated frame")
	}
}

func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name  string
		topic string
		data  string
		check func(t *testing.T, f Frame)
	}{
		{
			name:  "metrics sample",
			topic: TopicMetrics,
			data:  `{"timestamp":42,"kpis":{"gdp":100.5,"unemployment":4.2}}`,
			check: func(t *testing.T, f Frame) {
				mf, ok := f.(MetricsFrame)
				if !ok {
					t.Fatalf("frame type = %T, want MetricsFrame", f)
				}
				if mf.Sample.Timestamp != 42 {
					t.Errorf("Timestamp = %v, want 42", mf.Sample.Timestamp)
				}
				if mf.Sample.KPIs["gdp"] != 100.5 {
					t.Errorf("KPIs[gdp] = %v, want 100.5", mf.Sample.KPIs["gdp"])
				}
			},
		},
		{
			name:  "world delta with partial actor",
			topic: TopicWorldDelta,
			data:  `{"actors_delta":[{"id":5,"status":"bankrupt"}],"tiles_delta":{"region":"north"}}`,
			check: func(t *testing.T, f Frame) {
				wf, ok := f.(WorldDeltaFrame)
				if !ok {
					t.Fatalf("frame type = %T, want WorldDeltaFrame", f)
				}
				if len(wf.Actors) != 1 {
					t.Fatalf("len(Actors) = %d, want 1", len(wf.Actors))
				}
				d := wf.Actors[0]
				if d.ID != 5 {
					t.Errorf("ID = %d, want 5", d.ID)
				}
				if d.Status == nil || *d.Status != "bankrupt" {
					t.Errorf("Status = %v, want bankrupt", d.Status)
				}
				if d.X != nil {
					t.Errorf("X = %v, want nil for absent field", *d.X)
				}
				if len(wf.Tiles) == 0 {
					t.Error("Tiles empty, want raw payload")
				}
			},
		},
		{
			name:  "event",
			topic: TopicEvents,
			data:  `{"timestamp":7,"event_type":"firm_bankruptcy","actor_id":12}`,
			check: func(t *testing.T, f Frame) {
				ef, ok := f.(EventFrame)
				if !ok {
					t.Fatalf("frame type = %T, want EventFrame", f)
				}
				if ef.Event.Type != "firm_bankruptcy" {
					t.Errorf("Type = %q, want firm_bankruptcy", ef.Event.Type)
				}
				if ef.Event.ActorID == nil || *ef.Event.ActorID != 12 {
					t.Errorf("ActorID = %v, want 12", ef.Event.ActorID)
				}
			},
		},
		{
			name:  "policy vote",
			topic: TopicPolicyVote,
			data:  `{"member_id":3,"vote":{"rate":0.25}}`,
			check: func(t *testing.T, f Frame) {
				pf, ok := f.(PolicyVoteFrame)
				if !ok {
					t.Fatalf("frame type = %T, want PolicyVoteFrame", f)
				}
				if pf.MemberID == nil || *pf.MemberID != 3 {
					t.Errorf("MemberID = %v, want 3", pf.MemberID)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := &Envelope{Topic: tt.topic, Data: []byte(tt.data)}
			frame, err := DecodeFrame(env)
			if err != nil {
				t.Fatalf("DecodeFrame() error = %v", err)
			}
			tt.check(t, frame)
		})
	}
}

func TestDecodeFrameUnknownTopic(t *testing.T) {
	env := &Envelope{Topic: "weather.forecast", Data: []byte(`{}`)}

	_, err := DecodeFrame(env)
	var unknown *ErrUnknownTopic
	if !errors.As(err, &unknown) {
		t.Fatalf("DecodeFrame() error = %v, want *ErrUnknownTopic", err)
	}
	if unknown.Topic != "weather.forecast" {
		t.Errorf("Topic = %q, want weather.forecast", unknown.Topic)
	}
}

func TestDecodeFrameMalformedPayload(t *testing.T) {
	env := &Envelope{Topic: TopicMetrics, Data: []byte(`[1,2,3]`)}
	if _, err := DecodeFrame(env); err == nil {
		t.Fatal("DecodeFrame() expected error for mistyped payload")
	}
}
