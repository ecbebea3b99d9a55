package sim

import "encoding/json"

// RunMode represents the run state of the remote simulation
type RunMode string

const (
	ModeStopped   RunMode = "stopped"
	ModeRunning   RunMode = "running"
	ModePaused    RunMode = "paused"
	ModeStepping  RunMode = "stepping"
	ModeRewinding RunMode = "rewinding"
)

// Status represents the latest known run state of the simulation
type Status struct {
	Mode           RunMode `json:"mode"`
	CurrentTime    int64   `json:"current_time"`
	Speed          float64 `json:"speed"`
	EntityCount    int     `json:"entity_count"`
	StepsPerSecond float64 `json:"steps_per_second"`
	MemoryMB       float64 `json:"memory_mb"`
}

// MetricSample is one observation of the economic indicators at a logical time
type MetricSample struct {
	Timestamp float64                    `json:"timestamp"`
	KPIs      map[string]float64         `json:"kpis"`
	Regional  map[string]json.RawMessage `json:"regional_data,omitempty"`
	Sectoral  map[string]json.RawMessage `json:"sectoral_data,omitempty"`
}

// Event is one notable occurrence reported by the simulation
type Event struct {
	Timestamp float64                    `json:"timestamp"`
	Type      string                     `json:"event_type"`
	ActorID   *int64                     `json:"actor_id,omitempty"`
	Payload   map[string]json.RawMessage `json:"payload,omitempty"`
	Metadata  map[string]json.RawMessage `json:"metadata,omitempty"`
}

// Entity is one simulated actor with a world position
type Entity struct {
	ID     int64                      `json:"id"`
	Type   string                     `json:"type"`
	X      float64                    `json:"x"`
	Y      float64                    `json:"y"`
	Status string                     `json:"status"`
	Attrs  map[string]json.RawMessage `json:"attrs,omitempty"`
}

// EntityDelta is a partial update for a single entity. Only the fields
// present on the wire are applied; absent fields leave the stored entity
// untouched.
type EntityDelta struct {
	ID     int64                      `json:"id"`
	Type   *string                    `json:"type,omitempty"`
	X      *float64                   `json:"x,omitempty"`
	Y      *float64                   `json:"y,omitempty"`
	Status *string                    `json:"status,omitempty"`
	Attrs  map[string]json.RawMessage `json:"attrs,omitempty"`
}

// Apply merges the delta into an existing entity record
func (d *EntityDelta) Apply(e *Entity) {
	if d.Type != nil {
		e.Type = *d.Type
	}
	if d.X != nil {
		e.X = *d.X
	}
	if d.Y != nil {
		e.Y = *d.Y
	}
	if d.Status != nil {
		e.Status = *d.Status
	}
	for k, v := range d.Attrs {
		if e.Attrs == nil {
			e.Attrs = make(map[string]json.RawMessage)
		}
		e.Attrs[k] = v
	}
}

// NewEntity materializes an entity from a delta for an id not yet known
func (d *EntityDelta) NewEntity() *Entity {
	e := &Entity{ID: d.ID}
	d.Apply(e)
	return e
}

// Scenario describes a named scenario available on the server
type Scenario struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	FilePath     string  `json:"file_path"`
	Size         int64   `json:"size"`
	ModifiedTime float64 `json:"modified_time"`
}

// Snapshot describes a stored point-in-time capture of simulation state
type Snapshot struct {
	Timestamp int64  `json:"timestamp"`
	FileSize  int64  `json:"file_size"`
	FilePath  string `json:"file_path"`
}
