package core

import (
	"context"
	"sync"
	"time"

	"econdash/modules/platform/config"
	"econdash/modules/platform/control"
	"econdash/modules/platform/eventbus"
	"econdash/modules/platform/gateway"
	"econdash/modules/platform/logger"
)

// Presenter wires the gateway, router, state store and command
// coordinator together for one dashboard and translates UI events into
// control commands.
type Presenter struct {
	store  *DashState
	gw     *gateway.Client
	router *gateway.Router
	coord  *control.Coordinator
	api    *control.Client
	bus    *eventbus.Bus
	log    *logger.Logger

	profile *config.DashboardProfile

	done     chan struct{}
	stopOnce sync.Once
}

// NewPresenter builds the full pipeline for the given dashboard profile
func NewPresenter(cfg *config.Config, profile *config.DashboardProfile, log *logger.Logger) *Presenter {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	bus := eventbus.NewBus()
	store := NewDashState(profile, bus)
	api := control.NewClient(cfg.Server)
	coord := control.NewCoordinator(api, bus, log)
	gw := gateway.NewClient(cfg.Server.WebsocketURL, cfg.Gateway, log)
	router := gateway.NewRouter(store, log)

	p := &Presenter{
		store:   store,
		gw:      gw,
		router:  router,
		coord:   coord,
		api:     api,
		bus:     bus,
		log:     log,
		profile: profile,
		done:    make(chan struct{}),
	}

	gw.SetStateListener(func(state gateway.ConnState, attempts int, errText string) {
		store.SetConnState(state, attempts, errText, gw.Terminal())
	})
	coord.SetClockFunc(store.CurrentTime)
	coord.SetRefreshFunc(p.refreshStatus)

	// Command results land in the store's error channel; a later success
	// clears the text
	bus.Subscribe([]eventbus.EventType{eventbus.EventCommandFailed}, func(*eventbus.Event) {
		store.SetCommandError(coord.LastError())
	})
	bus.Subscribe([]eventbus.EventType{eventbus.EventCommandFinished}, func(*eventbus.Event) {
		store.SetCommandError("")
	})

	return p
}

// Store returns the state store presentation reads from
func (p *Presenter) Store() *DashState {
	return p.store
}

// Bus returns the notification bus views subscribe to
func (p *Presenter) Bus() *eventbus.Bus {
	return p.bus
}

// IsLoading reports whether any control command is in flight
func (p *Presenter) IsLoading() bool {
	return p.coord.IsLoading()
}

// Start opens the push channel, starts the dispatch loop, and backfills
// status and metric history over the pull path
func (p *Presenter) Start() {
	go p.router.Run(p.gw.Frames(), p.done)
	if err := p.gw.Connect(); err != nil {
		// Retries are already scheduled by the gateway
		p.log.Warn("initial connect failed: %v", err)
	}
	go p.backfill()
}

// Stop tears the pipeline down; safe to call multiple times
func (p *Presenter) Stop() {
	p.stopOnce.Do(func() {
		p.gw.Disconnect()
		close(p.done)
		p.coord.Wait()
	})
}

// backfill populates the store before the first push arrives
func (p *Presenter) backfill() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if status, err := p.api.GetStatus(ctx); err == nil {
		p.store.SetStatus(status)
	} else {
		p.log.Warn("status backfill failed: %v", err)
	}

	limit := 100
	if p.profile != nil && p.profile.MetricHistory > 0 {
		limit = p.profile.MetricHistory
	}
	if samples, err := p.api.GetMetricsHistory(ctx, limit); err == nil {
		p.store.BackfillMetrics(samples)
	} else {
		p.log.Warn("metrics backfill failed: %v", err)
	}
}

// refreshStatus is the invalidate-and-refetch run after any successful
// command; the push channel is not assumed to be the only source of truth
func (p *Presenter) refreshStatus() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	status, err := p.api.GetStatus(ctx)
	if err != nil {
		p.log.Warn("status refresh failed: %v", err)
		return
	}
	p.store.SetStatus(status)
}

// RefreshScenarios pulls the scenario list into the store
func (p *Presenter) RefreshScenarios() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	scenarios, err := p.api.ListScenarios(ctx)
	if err != nil {
		p.log.Warn("scenario list failed: %v", err)
		return
	}
	p.store.SetScenarios(scenarios)
}

// RefreshSnapshots pulls the snapshot list into the store
func (p *Presenter) RefreshSnapshots() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snapshots, err := p.api.ListSnapshots(ctx)
	if err != nil {
		p.log.Warn("snapshot list failed: %v", err)
		return
	}
	p.store.SetSnapshots(snapshots)
}

// HandleEvent translates a UI event into its effect
func (p *Presenter) HandleEvent(e *Event) {
	if e == nil {
		return
	}

	switch e.Type {
	case EventPlay:
		p.coord.Play(e.Speed)
	case EventPause:
		p.coord.Pause()
	case EventStep:
		p.coord.Step(e.Steps)
	case EventSetSpeed:
		p.coord.SetSpeed(e.Speed)
	case EventSeek:
		p.coord.Seek(e.TargetTime)
	case EventResetSim:
		p.coord.Reset()
		p.store.Reset()
	case EventLoadScenario:
		p.coord.LoadScenario(e.Scenario)
	case EventCreateSnapshot:
		p.coord.CreateSnapshot()
	case EventSelectEntity:
		p.store.SelectEntity(e.EntityID)
	case EventClearSelection:
		p.store.SelectEntity(nil)
	case EventClearError:
		p.coord.ClearError()
		p.store.SetCommandError("")
	case EventRefresh:
		go p.refreshStatus()
	default:
		p.log.Debug("unhandled ui event %q", e.Type)
	}
}
