package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFileName is the default config file name
	DefaultConfigFileName = "econdash.yaml"
)

var (
	// globalConfig is the globally loaded configuration
	globalConfig *Config
	// globalConfigPath is the path to the loaded config file
	globalConfigPath string
	// configMutex protects config access
	configMutex sync.RWMutex
)

// Loader handles configuration loading and saving
type Loader struct {
	configPath string
}

// NewLoader creates a new config loader
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// Load loads configuration from file
func (l *Loader) Load() (*Config, error) {
	return l.LoadWithCreate(false)
}

// LoadWithCreate loads configuration from file, optionally creating it if missing
func (l *Loader) LoadWithCreate(createIfMissing bool) (*Config, error) {
	if _, err := os.Stat(l.configPath); os.IsNotExist(err) {
		config := DefaultConfig()

		if createIfMissing {
			if err := l.Save(config); err != nil {
				return nil, fmt.Errorf("failed to create config file: %w", err)
			}
		}

		return config, nil
	}

	data, err := os.ReadFile(l.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply defaults for missing sections
	if config.Server == nil {
		config.Server = DefaultServerConfig()
	}
	if config.Server.RequestTimeout <= 0 {
		config.Server.RequestTimeout = DefaultServerConfig().RequestTimeout
	}
	if config.Gateway == nil {
		config.Gateway = DefaultGatewayConfig()
	} else {
		applyGatewayDefaults(config.Gateway)
	}
	if len(config.Dashboards) == 0 {
		config.Dashboards = DefaultDashboardProfiles()
	}
	if config.Logger == nil {
		config.Logger = DefaultLoggerConfig()
	}

	return &config, nil
}

func applyGatewayDefaults(gw *GatewayConfig) {
	def := DefaultGatewayConfig()
	if len(gw.Topics) == 0 {
		gw.Topics = def.Topics
	}
	if gw.HeartbeatInterval <= 0 {
		gw.HeartbeatInterval = def.HeartbeatInterval
	}
	if gw.ReconnectAttempts <= 0 {
		gw.ReconnectAttempts = def.ReconnectAttempts
	}
	if gw.ReconnectBaseMS <= 0 {
		gw.ReconnectBaseMS = def.ReconnectBaseMS
	}
	if gw.ReconnectMaxMS <= 0 {
		gw.ReconnectMaxMS = def.ReconnectMaxMS
	}
	if gw.InboundQueueSize <= 0 {
		gw.InboundQueueSize = def.InboundQueueSize
	}
}

// Save saves configuration to file
func (l *Loader) Save(config *Config) error {
	dir := filepath.Dir(l.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(l.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetPath returns the config file path
func (l *Loader) GetPath() string {
	return l.configPath
}

// Exists checks if config file exists
func (l *Loader) Exists() bool {
	_, err := os.Stat(l.configPath)
	return err == nil
}

// FindConfigFile searches for config file in standard locations
func FindConfigFile() string {
	// Priority order:
	// 1. Current directory
	// 2. Executable directory
	// 3. User config directory

	cwd, err := os.Getwd()
	if err == nil {
		configPath := filepath.Join(cwd, DefaultConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}

	execPath, err := os.Executable()
	if err == nil {
		execDir := filepath.Dir(execPath)
		configPath := filepath.Join(execDir, DefaultConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".config", "econdash", DefaultConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}

	// Default to current directory
	if cwd != "" {
		return filepath.Join(cwd, DefaultConfigFileName)
	}

	return DefaultConfigFileName
}

// LoadGlobal loads configuration globally
func LoadGlobal(configPath string) error {
	configMutex.Lock()
	defer configMutex.Unlock()

	if configPath == "" {
		configPath = FindConfigFile()
	}

	loader := NewLoader(configPath)
	config, err := loader.Load()
	if err != nil {
		return err
	}

	globalConfig = config
	globalConfigPath = configPath

	return nil
}

// GetGlobal returns the globally loaded configuration
func GetGlobal() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	if globalConfig == nil {
		return DefaultConfig()
	}
	return globalConfig
}

// GetGlobalPath returns the path of the globally loaded config file
func GetGlobalPath() string {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfigPath
}
