package control

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"econdash/modules/platform/config"
	"econdash/modules/platform/eventbus"
	"econdash/modules/platform/logger"
)

func coordLogger() *logger.Logger {
	return logger.NewLogger(logger.ERROR, []io.Writer{io.Discard}, "test")
}

// controlRecorder is a control API stub that records request paths
type controlRecorder struct {
	mu     sync.Mutex
	paths  []string
	block  chan struct{} // when set, handlers wait on it before replying
	status int
	body   interface{}
}

func (cr *controlRecorder) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cr.mu.Lock()
		cr.paths = append(cr.paths, r.URL.Path)
		block := cr.block
		cr.mu.Unlock()

		if block != nil {
			<-block
		}
		if cr.status != 0 {
			w.WriteHeader(cr.status)
		}
		body := cr.body
		if body == nil {
			body = map[string]string{"status": "success"}
		}
		json.NewEncoder(w).Encode(body)
	}
}

func (cr *controlRecorder) recorded() []string {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	out := make([]string, len(cr.paths))
	copy(out, cr.paths)
	return out
}

func newTestCoordinator(t *testing.T, rec *controlRecorder) (*Coordinator, *eventbus.Bus) {
	t.Helper()
	server := httptest.NewServer(rec.handler())
	t.Cleanup(server.Close)

	api := NewClient(&config.ServerConfig{BaseURL: server.URL, RequestTimeout: 5})
	bus := eventbus.NewBus()
	return NewCoordinator(api, bus, coordLogger()), bus
}

func TestSeekChoosesJumpOrRewind(t *testing.T) {
	rec := &controlRecorder{}
	coord, _ := newTestCoordinator(t, rec)
	coord.SetClockFunc(func() int64 { return 120 })

	coord.Seek(50)
	coord.Wait()
	coord.Seek(200)
	coord.Wait()

	paths := rec.recorded()
	want := []string{"/control/rewind", "/control/jump"}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %s, want %s", i, paths[i], want[i])
		}
	}
}

func TestSeekToCurrentTimeJumps(t *testing.T) {
	rec := &controlRecorder{}
	coord, _ := newTestCoordinator(t, rec)
	coord.SetClockFunc(func() int64 { return 120 })

	coord.Seek(120)
	coord.Wait()

	paths := rec.recorded()
	if len(paths) != 1 || paths[0] != "/control/jump" {
		t.Errorf("paths = %v, want [/control/jump]", paths)
	}
}

func TestDuplicateKindIsCoalesced(t *testing.T) {
	release := make(chan struct{})
	rec := &controlRecorder{block: release}
	coord, _ := newTestCoordinator(t, rec)

	coord.Play(1.0)
	coord.Play(2.0) // same kind in flight, must be dropped
	coord.Pause()   // different kind, goes through

	close(release)
	coord.Wait()

	paths := rec.recorded()
	plays := 0
	pauses := 0
	for _, p := range paths {
		switch p {
		case "/control/play":
			plays++
		case "/control/pause":
			pauses++
		}
	}
	if plays != 1 {
		t.Errorf("play requests = %d, want 1 after coalescing", plays)
	}
	if pauses != 1 {
		t.Errorf("pause requests = %d, want 1", pauses)
	}
}

func TestIsLoadingTracksInFlightCommands(t *testing.T) {
	release := make(chan struct{})
	rec := &controlRecorder{block: release}
	coord, _ := newTestCoordinator(t, rec)

	if coord.IsLoading() {
		t.Fatal("IsLoading() = true before any command")
	}

	coord.Step(1)
	if !coord.IsLoading() {
		t.Error("IsLoading() = false while a command is in flight")
	}

	close(release)
	coord.Wait()
	if coord.IsLoading() {
		t.Error("IsLoading() = true after all commands resolved")
	}
}

func TestFailureRecordsUserMessageAndPublishes(t *testing.T) {
	rec := &controlRecorder{
		status: http.StatusBadRequest,
		body:   map[string]string{"detail": "cannot rewind to a future time"},
	}
	coord, bus := newTestCoordinator(t, rec)

	var mu sync.Mutex
	var seen []eventbus.EventType
	bus.Subscribe(nil, func(e *eventbus.Event) {
		mu.Lock()
		seen = append(seen, e.Type)
		mu.Unlock()
	})

	coord.Rewind(900)
	coord.Wait()

	if got := coord.LastError(); got != "cannot rewind to a future time" {
		t.Errorf("LastError = %q, want the server detail", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != eventbus.EventCommandStarted || seen[1] != eventbus.EventCommandFailed {
		t.Errorf("events = %v, want [command_started command_failed]", seen)
	}

	coord.ClearError()
	if coord.LastError() != "" {
		t.Error("LastError not empty after ClearError")
	}
}

func TestSuccessClearsLastError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/control/rewind" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"detail": "cannot rewind to a future time"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "success"})
	}))
	defer server.Close()

	api := NewClient(&config.ServerConfig{BaseURL: server.URL, RequestTimeout: 5})
	coord := NewCoordinator(api, eventbus.NewBus(), coordLogger())

	coord.Rewind(900)
	coord.Wait()
	if coord.LastError() == "" {
		t.Fatal("LastError empty after a failed command")
	}

	coord.Pause()
	coord.Wait()
	if got := coord.LastError(); got != "" {
		t.Errorf("LastError = %q after a later success, want empty", got)
	}
}

func TestSuccessRunsRefresh(t *testing.T) {
	rec := &controlRecorder{}
	coord, bus := newTestCoordinator(t, rec)

	refreshed := make(chan struct{}, 1)
	coord.SetRefreshFunc(func() { refreshed <- struct{}{} })

	finished := make(chan struct{}, 1)
	bus.Subscribe([]eventbus.EventType{eventbus.EventCommandFinished}, func(*eventbus.Event) {
		finished <- struct{}{}
	})

	coord.Play(1.0)
	coord.Wait()

	select {
	case <-refreshed:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh never ran after a successful command")
	}
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("command_finished never published")
	}

	if coord.LastError() != "" {
		t.Errorf("LastError = %q after success, want empty", coord.LastError())
	}
}
