package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"econdash/modules/platform/config"

	"github.com/gorilla/websocket"
)

func testGatewayConfig() *config.GatewayConfig {
	return &config.GatewayConfig{
		Topics:            []string{TopicMetrics, TopicEvents},
		HeartbeatInterval: 30,
		ReconnectAttempts: 2,
		ReconnectBaseMS:   10,
		ReconnectMaxMS:    20,
		InboundQueueSize:  16,
	}
}

// wsTestServer upgrades every request and hands the connection to fn
func wsTestServer(t *testing.T, fn func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		fn(conn)
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestConnectSendsSubscribeFirst(t *testing.T) {
	first := make(chan SubscribeRequest, 1)
	server := wsTestServer(t, func(conn *websocket.Conn) {
		var sub SubscribeRequest
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		if err := conn.ReadJSON(&sub); err != nil {
			t.Errorf("reading first client message: %v", err)
			return
		}
		first <- sub
	})

	client := NewClient(wsURL(server), testGatewayConfig(), testLogger())
	defer client.Disconnect()

	if err := client.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	select {
	case sub := <-first:
		if sub.Type != "subscribe" {
			t.Errorf("first message type = %q, want subscribe", sub.Type)
		}
		if len(sub.Topics) != 2 || sub.Topics[0] != TopicMetrics {
			t.Errorf("topics = %v, want configured topics", sub.Topics)
		}
		if sub.ClientID == "" {
			t.Error("client_id empty, want stable identifier")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server never received the subscribe envelope")
	}

	state, attempts, errText := client.State()
	if state != StateConnected {
		t.Errorf("state = %s, want connected", state)
	}
	if attempts != 0 {
		t.Errorf("attempts = %d, want 0 after a successful open", attempts)
	}
	if errText != "" {
		t.Errorf("error text = %q, want empty after a successful open", errText)
	}
}

func TestInboundTopicFramesReachQueue(t *testing.T) {
	server := wsTestServer(t, func(conn *websocket.Conn) {
		var sub SubscribeRequest
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}

		// Confirmation first; it must never surface as a topic frame
		conn.WriteJSON(map[string]interface{}{
			"type":   "subscription_confirmed",
			"topics": sub.Topics,
		})
		conn.WriteJSON(Envelope{
			Topic: TopicMetrics,
			Data:  json.RawMessage(`{"timestamp":9,"kpis":{"gdp":2.5}}`),
		})

		// Hold the connection open until the test finishes
		conn.ReadMessage()
	})

	client := NewClient(wsURL(server), testGatewayConfig(), testLogger())
	defer client.Disconnect()

	if err := client.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	select {
	case env := <-client.Frames():
		if env.Topic != TopicMetrics {
			t.Errorf("Topic = %q, want %q", env.Topic, TopicMetrics)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("topic frame never reached the inbound queue")
	}

	// The confirmation must not be queued behind it
	select {
	case env := <-client.Frames():
		t.Errorf("unexpected extra frame with topic %q", env.Topic)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestReconnectGivesUpAfterBudget(t *testing.T) {
	// Nothing listens here; every dial fails
	client := NewClient("ws://127.0.0.1:1/ws", testGatewayConfig(), testLogger())
	defer client.Disconnect()

	client.Connect()

	deadline := time.Now().Add(5 * time.Second)
	for !client.Terminal() {
		if time.Now().After(deadline) {
			t.Fatal("client never reached the terminal state")
		}
		time.Sleep(10 * time.Millisecond)
	}

	state, attempts, errText := client.State()
	if state != StateDisconnected {
		t.Errorf("state = %s, want disconnected", state)
	}
	if attempts <= testGatewayConfig().ReconnectAttempts {
		t.Errorf("attempts = %d, want more than the budget of %d", attempts, testGatewayConfig().ReconnectAttempts)
	}
	if errText == "" {
		t.Error("error text empty, want terminal failure message")
	}
}

func TestDisconnectCancelsScheduledReconnect(t *testing.T) {
	cfg := testGatewayConfig()
	cfg.ReconnectAttempts = 100
	cfg.ReconnectBaseMS = 50
	cfg.ReconnectMaxMS = 50

	client := NewClient("ws://127.0.0.1:1/ws", cfg, testLogger())

	client.Connect()
	_, attemptsBefore, _ := client.State()
	if attemptsBefore == 0 {
		t.Fatal("expected at least one failed attempt")
	}

	client.Disconnect()
	time.Sleep(200 * time.Millisecond)

	state, attemptsAfter, _ := client.State()
	if state != StateDisconnected {
		t.Errorf("state = %s, want disconnected", state)
	}
	if attemptsAfter != attemptsBefore {
		t.Errorf("attempts grew from %d to %d after Disconnect", attemptsBefore, attemptsAfter)
	}
}

func TestConnectIsNoopWhileConnected(t *testing.T) {
	subscribes := make(chan struct{}, 4)
	server := wsTestServer(t, func(conn *websocket.Conn) {
		var sub SubscribeRequest
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		subscribes <- struct{}{}
		conn.ReadMessage()
	})

	client := NewClient(wsURL(server), testGatewayConfig(), testLogger())
	defer client.Disconnect()

	if err := client.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	<-subscribes

	if err := client.Connect(); err != nil {
		t.Fatalf("second Connect() error = %v", err)
	}

	select {
	case <-subscribes:
		t.Error("second Connect opened a duplicate connection")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestStateListenerObservesTransitions(t *testing.T) {
	server := wsTestServer(t, func(conn *websocket.Conn) {
		conn.ReadMessage()
		conn.ReadMessage()
	})

	states := make(chan ConnState, 8)
	client := NewClient(wsURL(server), testGatewayConfig(), testLogger())
	client.SetStateListener(func(state ConnState, attempts int, errText string) {
		states <- state
	})
	defer client.Disconnect()

	if err := client.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	want := []ConnState{StateConnecting, StateConnected}
	for _, expected := range want {
		select {
		case got := <-states:
			if got != expected {
				t.Fatalf("transition = %s, want %s", got, expected)
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("never observed the %s transition", expected)
		}
	}
}
