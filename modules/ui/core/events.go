package core

// EventType identifies the type of UI event
type EventType string

const (
	// Control events
	EventPlay           EventType = "play"
	EventPause          EventType = "pause"
	EventStep           EventType = "step"
	EventSetSpeed       EventType = "set_speed"
	EventSeek           EventType = "seek"
	EventResetSim       EventType = "reset_sim"
	EventLoadScenario   EventType = "load_scenario"
	EventCreateSnapshot EventType = "create_snapshot"

	// View events
	EventSelectEntity   EventType = "select_entity"
	EventClearSelection EventType = "clear_selection"
	EventClearError     EventType = "clear_error"
	EventRefresh        EventType = "refresh"
	EventQuit           EventType = "quit"
)

// Event represents a user action in the UI. Fields are typed per intent
// rather than carried in an untyped bag.
type Event struct {
	Type       EventType `json:"type"`
	Speed      float64   `json:"speed,omitempty"`
	Steps      int       `json:"steps,omitempty"`
	TargetTime int64     `json:"target_time,omitempty"`
	EntityID   *int64    `json:"entity_id,omitempty"`
	Scenario   string    `json:"scenario,omitempty"`
}

// NewEvent creates a new event
func NewEvent(eventType EventType) *Event {
	return &Event{Type: eventType}
}

// WithSpeed sets the speed multiplier
func (e *Event) WithSpeed(speed float64) *Event {
	e.Speed = speed
	return e
}

// WithSteps sets the step count
func (e *Event) WithSteps(steps int) *Event {
	e.Steps = steps
	return e
}

// WithTarget sets the target logical time
func (e *Event) WithTarget(targetTime int64) *Event {
	e.TargetTime = targetTime
	return e
}

// WithEntity sets the entity id
func (e *Event) WithEntity(id int64) *Event {
	e.EntityID = &id
	return e
}

// WithScenario sets the scenario name
func (e *Event) WithScenario(name string) *Event {
	e.Scenario = name
	return e
}
