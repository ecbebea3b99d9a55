package core

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"econdash/modules/core/sim"
	"econdash/modules/platform/config"
	"econdash/modules/platform/eventbus"
	"econdash/modules/platform/gateway"
)

// EventTypePolicyVote tags events synthesized from policy.vote frames
const EventTypePolicyVote = "policy_vote"

// DashState is the canonical snapshot of everything the dashboards
// display. It is the single source of truth: topic handlers and command
// results write into it, presentation only reads from it.
type DashState struct {
	mu  sync.RWMutex
	bus *eventbus.Bus

	// Connection
	connState    gateway.ConnState
	attempts     int
	connError    string
	terminalConn bool

	// Latest run state
	status *sim.Status

	// Bounded metric history, oldest first
	metricCap int
	metrics   []sim.MetricSample
	latest    *sim.MetricSample

	// Bounded event log, oldest first
	eventCap int
	events   []sim.Event

	// Entity registry, keyed by id
	entities   map[int64]*sim.Entity
	tilesDelta json.RawMessage
	selectedID *int64

	// Command channel
	commandError string

	// Pulled lists
	scenarios []sim.Scenario
	snapshots []sim.Snapshot
}

// NewDashState creates a state store sized by the dashboard profile
func NewDashState(profile *config.DashboardProfile, bus *eventbus.Bus) *DashState {
	if profile == nil {
		profile = &config.DashboardProfile{MetricHistory: 100, EventLog: 200}
	}
	return &DashState{
		bus:       bus,
		connState: gateway.StateDisconnected,
		metricCap: profile.MetricHistory,
		eventCap:  profile.EventLog,
		entities:  make(map[int64]*sim.Entity),
	}
}

func (s *DashState) publish(eventType eventbus.EventType) {
	if s.bus != nil {
		s.bus.Publish(eventbus.NewEvent(eventType).WithSource("store"))
	}
}

// SetConnState records a connection state transition; wired to the
// gateway's state listener
func (s *DashState) SetConnState(state gateway.ConnState, attempts int, errText string, terminal bool) {
	s.mu.Lock()
	s.connState = state
	s.attempts = attempts
	s.connError = errText
	s.terminalConn = terminal
	s.mu.Unlock()
	s.publish(eventbus.EventConnectionUpdated)
}

// Connection returns the connection state, attempt counter, error text
// and whether the failure is terminal
func (s *DashState) Connection() (gateway.ConnState, int, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connState, s.attempts, s.connError, s.terminalConn
}

// Connected reports whether the push channel is open
func (s *DashState) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connState == gateway.StateConnected
}

// SetStatus records the latest run state from a status fetch
func (s *DashState) SetStatus(status *sim.Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
	s.publish(eventbus.EventStatusUpdated)
}

// Status returns the latest known run state, nil before the first fetch
func (s *DashState) Status() *sim.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// CurrentTime returns the latest known logical clock value
func (s *DashState) CurrentTime() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status == nil {
		return 0
	}
	return s.status.CurrentTime
}

// SetCommandError records a command failure message; empty clears it
func (s *DashState) SetCommandError(msg string) {
	s.mu.Lock()
	s.commandError = msg
	s.mu.Unlock()
	s.publish(eventbus.EventConnectionUpdated)
}

// CommandError returns the latest command failure message
func (s *DashState) CommandError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commandError
}

// ApplyMetrics pushes one sample into the bounded history and makes it
// the latest sample
func (s *DashState) ApplyMetrics(f gateway.MetricsFrame) {
	s.mu.Lock()
	s.metrics = append(s.metrics, f.Sample)
	if len(s.metrics) > s.metricCap {
		s.metrics = s.metrics[1:]
	}
	sample := f.Sample
	s.latest = &sample
	s.mu.Unlock()
	s.publish(eventbus.EventMetricsUpdated)
}

// BackfillMetrics seeds the history from a pull, oldest first. Pushed
// samples may already have landed by the time the pull resolves, so only
// history strictly older than the current oldest sample is inserted; the
// series stays monotonic in timestamp. Capacity still applies.
func (s *DashState) BackfillMetrics(samples []sim.MetricSample) {
	s.mu.Lock()
	if len(s.metrics) > 0 {
		cutoff := s.metrics[0].Timestamp
		older := make([]sim.MetricSample, 0, len(samples))
		for _, sample := range samples {
			if sample.Timestamp < cutoff {
				older = append(older, sample)
			}
		}
		s.metrics = append(older, s.metrics...)
	} else {
		s.metrics = append(s.metrics, samples...)
	}
	if n := len(s.metrics); n > s.metricCap {
		s.metrics = s.metrics[n-s.metricCap:]
	}
	if n := len(s.metrics); n > 0 {
		last := s.metrics[n-1]
		s.latest = &last
	}
	s.mu.Unlock()
	s.publish(eventbus.EventMetricsUpdated)
}

// MetricHistory returns a copy of the bounded history, oldest first
func (s *DashState) MetricHistory() []sim.MetricSample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]sim.MetricSample, len(s.metrics))
	copy(out, s.metrics)
	return out
}

// LatestMetrics returns the most recent sample, nil before the first
func (s *DashState) LatestMetrics() *sim.MetricSample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// ApplyEvent appends one event to the bounded log
func (s *DashState) ApplyEvent(f gateway.EventFrame) {
	s.appendEvent(f.Event)
}

// ApplyPolicyVote synthesizes a policy_vote event from a vote frame
func (s *DashState) ApplyPolicyVote(f gateway.PolicyVoteFrame) {
	event := sim.Event{
		Timestamp: float64(time.Now().Unix()),
		Type:      EventTypePolicyVote,
		ActorID:   f.MemberID,
	}
	if len(f.Vote) > 0 {
		event.Payload = map[string]json.RawMessage{"vote": f.Vote}
	}
	s.appendEvent(event)
}

func (s *DashState) appendEvent(event sim.Event) {
	s.mu.Lock()
	s.events = append(s.events, event)
	if len(s.events) > s.eventCap {
		s.events = s.events[1:]
	}
	s.mu.Unlock()
	s.publish(eventbus.EventLogUpdated)
}

// EventLog returns a copy of the bounded log, oldest first
func (s *DashState) EventLog() []sim.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]sim.Event, len(s.events))
	copy(out, s.events)
	return out
}

// ApplyWorldDelta upserts each entity delta by id. Entities absent from a
// delta are left untouched; a delta is never a full replacement. The raw
// tile delta is passed through for the renderer.
//
// An upsert installs a fresh record rather than mutating the stored one,
// so pointers previously handed out by the accessors stay valid immutable
// snapshots while the router keeps applying deltas.
func (s *DashState) ApplyWorldDelta(f gateway.WorldDeltaFrame) {
	s.mu.Lock()
	for i := range f.Actors {
		delta := &f.Actors[i]
		if existing, ok := s.entities[delta.ID]; ok {
			updated := *existing
			if len(existing.Attrs) > 0 {
				updated.Attrs = make(map[string]json.RawMessage, len(existing.Attrs))
				for k, v := range existing.Attrs {
					updated.Attrs[k] = v
				}
			}
			delta.Apply(&updated)
			s.entities[delta.ID] = &updated
		} else {
			s.entities[delta.ID] = delta.NewEntity()
		}
	}
	if len(f.Tiles) > 0 {
		s.tilesDelta = f.Tiles
	}
	s.mu.Unlock()
	s.publish(eventbus.EventWorldUpdated)
}

// Entities returns the registry as a slice sorted by id. The records are
// immutable snapshots; a later delta replaces them rather than mutating
// them in place.
func (s *DashState) Entities() []*sim.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*sim.Entity, 0, len(s.entities))
	for _, e := range s.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Entity returns one entity by id, nil when unknown
func (s *DashState) Entity(id int64) *sim.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entities[id]
}

// EntityCount returns the registry size
func (s *DashState) EntityCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

// TilesDelta returns the most recent raw tile delta for the renderer
func (s *DashState) TilesDelta() json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tilesDelta
}

// SelectEntity marks an entity as selected; pass nil to clear
func (s *DashState) SelectEntity(id *int64) {
	s.mu.Lock()
	s.selectedID = id
	s.mu.Unlock()
	s.publish(eventbus.EventSelectionUpdated)
}

// SelectedEntity resolves the selection against the live registry, so a
// selected entity updated by a later delta is never observed stale
func (s *DashState) SelectedEntity() *sim.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selectedID == nil {
		return nil
	}
	return s.entities[*s.selectedID]
}

// SetScenarios stores the pulled scenario list
func (s *DashState) SetScenarios(scenarios []sim.Scenario) {
	s.mu.Lock()
	s.scenarios = scenarios
	s.mu.Unlock()
	s.publish(eventbus.EventStatusUpdated)
}

// Scenarios returns the pulled scenario list
func (s *DashState) Scenarios() []sim.Scenario {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scenarios
}

// SetSnapshots stores the pulled snapshot list
func (s *DashState) SetSnapshots(snapshots []sim.Snapshot) {
	s.mu.Lock()
	s.snapshots = snapshots
	s.mu.Unlock()
	s.publish(eventbus.EventStatusUpdated)
}

// Snapshots returns the pulled snapshot list
func (s *DashState) Snapshots() []sim.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshots
}

// Reset restores every simulation-derived field to its initial empty
// value in one step. Connection state is untouched: reset is a user
// action against the view of the simulation, not the channel.
func (s *DashState) Reset() {
	s.mu.Lock()
	s.status = nil
	s.metrics = nil
	s.latest = nil
	s.events = nil
	s.entities = make(map[int64]*sim.Entity)
	s.tilesDelta = nil
	s.selectedID = nil
	s.commandError = ""
	s.scenarios = nil
	s.snapshots = nil
	s.mu.Unlock()
	s.publish(eventbus.EventStoreReset)
}
