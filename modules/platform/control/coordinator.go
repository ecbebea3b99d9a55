package control

import (
	"context"
	"sync"
	"time"

	"econdash/modules/platform/eventbus"
	"econdash/modules/platform/logger"

	"github.com/google/uuid"
)

// CommandKind identifies one class of control command
type CommandKind string

const (
	KindPlay         CommandKind = "play"
	KindPause        CommandKind = "pause"
	KindStep         CommandKind = "step"
	KindSetSpeed     CommandKind = "set_speed"
	KindJump         CommandKind = "jump"
	KindRewind       CommandKind = "rewind"
	KindReset        CommandKind = "reset"
	KindLoadScenario CommandKind = "load_scenario"
	KindSnapshot     CommandKind = "snapshot"
)

// PendingCommand tracks one in-flight control request
type PendingCommand struct {
	ID       string
	Kind     CommandKind
	IssuedAt time.Time
}

// Coordinator turns user intents into control API calls, tracks which
// commands are in flight, and triggers a coordinated refresh when one
// succeeds. Commands of a kind already in flight are coalesced: the
// duplicate is dropped so overlapping jump/rewind requests cannot land
// out of order.
type Coordinator struct {
	api *Client
	bus *eventbus.Bus
	log *logger.Logger

	mu       sync.Mutex
	pending  map[string]*PendingCommand
	inFlight map[CommandKind]bool
	lastErr  string

	// Injected collaborators
	refresh func()       // invalidate-and-refetch after a command succeeds
	clock   func() int64 // current logical time, read from the state store

	wg sync.WaitGroup
}

// NewCoordinator creates a command coordinator over the control API
func NewCoordinator(api *Client, bus *eventbus.Bus, log *logger.Logger) *Coordinator {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Coordinator{
		api:      api,
		bus:      bus,
		log:      log,
		pending:  make(map[string]*PendingCommand),
		inFlight: make(map[CommandKind]bool),
	}
}

// SetRefreshFunc injects the callback run after any successful command
func (c *Coordinator) SetRefreshFunc(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresh = fn
}

// SetClockFunc injects the reader for the current logical time
func (c *Coordinator) SetClockFunc(fn func() int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock = fn
}

// IsLoading reports whether any command is in flight
func (c *Coordinator) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending) > 0
}

// LastError returns the most recent command error text, empty when clear
func (c *Coordinator) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ClearError clears the command error text
func (c *Coordinator) ClearError() {
	c.mu.Lock()
	c.lastErr = ""
	c.mu.Unlock()
}

// Wait blocks until all in-flight commands resolve; used on shutdown and
// in tests
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Play starts or resumes the simulation
func (c *Coordinator) Play(speed float64) {
	if speed <= 0 {
		speed = 1.0
	}
	c.issue(KindPlay, func(ctx context.Context) error {
		_, err := c.api.Play(ctx, speed)
		return err
	})
}

// Pause pauses the simulation
func (c *Coordinator) Pause() {
	c.issue(KindPause, func(ctx context.Context) error {
		_, err := c.api.Pause(ctx)
		return err
	})
}

// Step advances the simulation by count steps
func (c *Coordinator) Step(count int) {
	if count < 1 {
		count = 1
	}
	c.issue(KindStep, func(ctx context.Context) error {
		_, err := c.api.Step(ctx, count)
		return err
	})
}

// SetSpeed changes the speed multiplier
func (c *Coordinator) SetSpeed(speed float64) {
	c.issue(KindSetSpeed, func(ctx context.Context) error {
		_, err := c.api.SetSpeed(ctx, speed)
		return err
	})
}

// Seek moves the simulation to the target logical time. A target earlier
// than the current time takes the rewind path (snapshot restore); a later
// target takes the cheaper forward jump.
func (c *Coordinator) Seek(targetTime int64) {
	c.mu.Lock()
	clock := c.clock
	c.mu.Unlock()

	var current int64
	if clock != nil {
		current = clock()
	}
	if targetTime < current {
		c.Rewind(targetTime)
	} else {
		c.Jump(targetTime)
	}
}

// Jump fast-advances to a future logical time
func (c *Coordinator) Jump(targetTime int64) {
	c.issue(KindJump, func(ctx context.Context) error {
		_, err := c.api.Jump(ctx, targetTime)
		return err
	})
}

// Rewind restores a past logical time
func (c *Coordinator) Rewind(targetTime int64) {
	c.issue(KindRewind, func(ctx context.Context) error {
		_, err := c.api.Rewind(ctx, targetTime)
		return err
	})
}

// Reset restores the simulation to its initial state
func (c *Coordinator) Reset() {
	c.issue(KindReset, func(ctx context.Context) error {
		_, err := c.api.Reset(ctx)
		return err
	})
}

// LoadScenario loads a named scenario
func (c *Coordinator) LoadScenario(name string) {
	c.issue(KindLoadScenario, func(ctx context.Context) error {
		_, err := c.api.LoadScenario(ctx, name)
		return err
	})
}

// CreateSnapshot captures a snapshot of the current simulation state
func (c *Coordinator) CreateSnapshot() {
	c.issue(KindSnapshot, func(ctx context.Context) error {
		_, err := c.api.CreateSnapshot(ctx)
		return err
	})
}

// issue runs one command asynchronously with per-kind coalescing
func (c *Coordinator) issue(kind CommandKind, call func(ctx context.Context) error) {
	c.mu.Lock()
	if c.inFlight[kind] {
		c.mu.Unlock()
		c.log.Info("dropping %s: command of that kind already in flight", kind)
		return
	}
	cmd := &PendingCommand{
		ID:       uuid.NewString(),
		Kind:     kind,
		IssuedAt: time.Now(),
	}
	c.pending[cmd.ID] = cmd
	c.inFlight[kind] = true
	c.mu.Unlock()

	c.publish(eventbus.EventCommandStarted, cmd)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		err := call(ctx)

		c.mu.Lock()
		delete(c.pending, cmd.ID)
		delete(c.inFlight, kind)
		if err != nil {
			c.lastErr = UserMessage(err)
		} else {
			c.lastErr = ""
		}
		refresh := c.refresh
		c.mu.Unlock()

		if err != nil {
			c.log.Error("%s failed: %v", kind, err)
			c.publish(eventbus.EventCommandFailed, cmd)
			return
		}

		c.publish(eventbus.EventCommandFinished, cmd)
		if refresh != nil {
			refresh()
		}
	}()
}

func (c *Coordinator) publish(eventType eventbus.EventType, cmd *PendingCommand) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(eventbus.NewEvent(eventType).
		WithSource("control").
		WithData("command_id", cmd.ID).
		WithData("kind", string(cmd.Kind)))
}
