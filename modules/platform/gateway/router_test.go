package gateway

import (
	"io"
	"testing"
	"time"

	"econdash/modules/platform/logger"
)

func testLogger() *logger.Logger {
	return logger.NewLogger(logger.ERROR, []io.Writer{io.Discard}, "test")
}

// recordingStore records the order of mutations it receives
type recordingStore struct {
	calls []string
}

func (s *recordingStore) ApplyMetrics(MetricsFrame)       { s.calls = append(s.calls, "metrics") }
func (s *recordingStore) ApplyWorldDelta(WorldDeltaFrame) { s.calls = append(s.calls, "world") }
func (s *recordingStore) ApplyEvent(EventFrame)           { s.calls = append(s.calls, "event") }
func (s *recordingStore) ApplyPolicyVote(PolicyVoteFrame) { s.calls = append(s.calls, "vote") }

func TestDispatchRoutesByTopic(t *testing.T) {
	tests := []struct {
		topic string
		data  string
		want  string
	}{
		{TopicMetrics, `{"timestamp":1,"kpis":{}}`, "metrics"},
		{TopicWorldDelta, `{"actors_delta":[]}`, "world"},
		{TopicEvents, `{"timestamp":1,"event_type":"x"}`, "event"},
		{TopicPolicyVote, `{"member_id":1}`, "vote"},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			store := &recordingStore{}
			router := NewRouter(store, testLogger())

			router.Dispatch(&Envelope{Topic: tt.topic, Data: []byte(tt.data)})

			if len(store.calls) != 1 || store.calls[0] != tt.want {
				t.Errorf("calls = %v, want [%s]", store.calls, tt.want)
			}
		})
	}
}

func TestDispatchDropsBadFrames(t *testing.T) {
	tests := []struct {
		name string
		env  *Envelope
	}{
		{"unknown topic", &Envelope{Topic: "nope.nope", Data: []byte(`{}`)}},
		{"malformed payload", &Envelope{Topic: TopicMetrics, Data: []byte(`"not an object"`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &recordingStore{}
			router := NewRouter(store, testLogger())

			router.Dispatch(tt.env)

			if len(store.calls) != 0 {
				t.Errorf("calls = %v, want none", store.calls)
			}
		})
	}
}

func TestRunPreservesArrivalOrder(t *testing.T) {
	store := &recordingStore{}
	router := NewRouter(store, testLogger())

	frames := make(chan *Envelope, 4)
	frames <- &Envelope{Topic: TopicMetrics, Data: []byte(`{"timestamp":1,"kpis":{}}`)}
	frames <- &Envelope{Topic: TopicWorldDelta, Data: []byte(`{"actors_delta":[]}`)}
	frames <- &Envelope{Topic: TopicEvents, Data: []byte(`{"timestamp":2,"event_type":"x"}`)}
	frames <- &Envelope{Topic: TopicMetrics, Data: []byte(`{"timestamp":3,"kpis":{}}`)}
	close(frames)

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		router.Run(frames, done)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit after channel close")
	}

	want := []string{"metrics", "world", "event", "metrics"}
	if len(store.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", store.calls, want)
	}
	for i := range want {
		if store.calls[i] != want[i] {
			t.Errorf("calls[%d] = %s, want %s", i, store.calls[i], want[i])
		}
	}
}

func TestRunStopsOnDone(t *testing.T) {
	router := NewRouter(&recordingStore{}, testLogger())
	frames := make(chan *Envelope)
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		router.Run(frames, done)
		close(finished)
	}()

	close(done)
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit after done was signalled")
	}
}
