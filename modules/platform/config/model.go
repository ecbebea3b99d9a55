package config

// Config represents the main configuration
type Config struct {
	Version    string                       `yaml:"version"`
	Server     *ServerConfig                `yaml:"server"`
	Gateway    *GatewayConfig               `yaml:"gateway"`
	Dashboards map[string]*DashboardProfile `yaml:"dashboards,omitempty"`
	Logger     *LoggerConfig                `yaml:"logger,omitempty"`
}

// ServerConfig points the client at the simulation backend
type ServerConfig struct {
	BaseURL        string `yaml:"base_url" json:"base_url"`               // Control API root, e.g. http://localhost:8000/api
	WebsocketURL   string `yaml:"websocket_url" json:"websocket_url"`     // Push channel, e.g. ws://localhost:8000/ws
	RequestTimeout int    `yaml:"request_timeout" json:"request_timeout"` // Control API timeout in seconds
}

// GatewayConfig tunes the push channel lifecycle
type GatewayConfig struct {
	Topics            []string `yaml:"topics" json:"topics"`                         // Subscribed on every successful open
	HeartbeatInterval int      `yaml:"heartbeat_interval" json:"heartbeat_interval"` // Seconds between ping envelopes
	ReconnectAttempts int      `yaml:"reconnect_attempts" json:"reconnect_attempts"` // Bounded retry budget before terminal failure
	ReconnectBaseMS   int      `yaml:"reconnect_base_ms" json:"reconnect_base_ms"`   // First retry delay, doubled per attempt
	ReconnectMaxMS    int      `yaml:"reconnect_max_ms" json:"reconnect_max_ms"`     // Backoff ceiling
	InboundQueueSize  int      `yaml:"inbound_queue_size" json:"inbound_queue_size"` // Buffered frames awaiting dispatch
}

// DashboardProfile configures one of the dashboard consumers
type DashboardProfile struct {
	Name          string   `yaml:"name" json:"name"`
	MetricHistory int      `yaml:"metric_history" json:"metric_history"` // Ring capacity for metric samples
	EventLog      int      `yaml:"event_log" json:"event_log"`           // Ring capacity for the event log
	KPIs          []string `yaml:"kpis,omitempty" json:"kpis,omitempty"` // KPIs shown as sparklines; empty = all
}

// LoggerConfig represents logger configuration
type LoggerConfig struct {
	Level     string `yaml:"level" json:"level"`             // debug, info, warn, error
	FilePath  string `yaml:"file_path" json:"file_path"`     // Log file path (empty = stderr only)
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"` // Max log file size before rotation
}

// DefaultLoggerConfig returns default logger configuration
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:     "info",
		FilePath:  "",
		MaxSizeMB: 10,
	}
}

// DefaultServerConfig returns the default backend endpoints
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		BaseURL:        "http://localhost:8000/api",
		WebsocketURL:   "ws://localhost:8000/ws",
		RequestTimeout: 10,
	}
}

// DefaultGatewayConfig returns the default push channel tuning
func DefaultGatewayConfig() *GatewayConfig {
	return &GatewayConfig{
		Topics:            []string{"metrics.update", "world.delta", "events.stream", "policy.vote"},
		HeartbeatInterval: 30,
		ReconnectAttempts: 8,
		ReconnectBaseMS:   500,
		ReconnectMaxMS:    15000,
		InboundQueueSize:  256,
	}
}

// DefaultDashboardProfiles returns the built-in dashboard profiles
func DefaultDashboardProfiles() map[string]*DashboardProfile {
	return map[string]*DashboardProfile{
		"dash": {
			Name:          "Metrics Dashboard",
			MetricHistory: 100,
			EventLog:      200,
		},
		"world": {
			Name:          "World Dashboard",
			MetricHistory: 100,
			EventLog:      1000,
		},
	}
}

// DefaultConfig returns a complete default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:    "1",
		Server:     DefaultServerConfig(),
		Gateway:    DefaultGatewayConfig(),
		Dashboards: DefaultDashboardProfiles(),
		Logger:     DefaultLoggerConfig(),
	}
}

// Profile returns the named dashboard profile, falling back to defaults
func (c *Config) Profile(name string) *DashboardProfile {
	if c.Dashboards != nil {
		if p, ok := c.Dashboards[name]; ok {
			return p
		}
	}
	if p, ok := DefaultDashboardProfiles()[name]; ok {
		return p
	}
	return &DashboardProfile{Name: name, MetricHistory: 100, EventLog: 200}
}
