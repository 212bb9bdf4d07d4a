// Package config provides runtime configuration loaded from environment
// variables.
//
// Only runtime-relevant settings live here: agent identity, engine bridge
// parameters, janitor behavior, and observability toggles. Handler wiring is
// code, not configuration.
package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/empi-systems/agentruntime/agentcore/bridge"
	"github.com/kelseyhightower/envconfig"
)

// envPrefix namespaces the runtime's environment variables, e.g.
// AGENTRUNTIME_AGENT_ID.
const envPrefix = "agentruntime"

// RuntimeConfig holds agent runtime configuration.
type RuntimeConfig struct {
	// Agent identity
	AgentID         string `envconfig:"AGENT_ID" default:"text_analyzer"`
	DefaultTaskType string `envconfig:"DEFAULT_TASK" default:"text_metrics"`

	// Engine bridge
	EnginePath    string        `envconfig:"ENGINE_PATH"`
	ScriptPath    string        `envconfig:"SCRIPT_PATH" default:"integrations/text_analyzer.py"`
	InvokeTimeout time.Duration `envconfig:"INVOKE_TIMEOUT" default:"30s"`
	TempDir       string        `envconfig:"TEMP_DIR"`

	// Janitor
	JanitorEnabled   bool          `envconfig:"JANITOR_ENABLED" default:"false"`
	JanitorInterval  time.Duration `envconfig:"JANITOR_INTERVAL" default:"5m"`
	JanitorRetention time.Duration `envconfig:"JANITOR_RETENTION" default:"1h"`

	// Observability
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	TracingEnabled bool   `envconfig:"TRACING_ENABLED" default:"false"`
	OTLPEndpoint   string `envconfig:"OTLP_ENDPOINT" default:"localhost:4317"`
}

// Default returns a RuntimeConfig with default values.
func Default() *RuntimeConfig {
	return &RuntimeConfig{
		AgentID:         "text_analyzer",
		DefaultTaskType: "text_metrics",

		ScriptPath:    "integrations/text_analyzer.py",
		InvokeTimeout: 30 * time.Second,

		JanitorEnabled:   false,
		JanitorInterval:  5 * time.Minute,
		JanitorRetention: 1 * time.Hour,

		LogLevel:       "info",
		TracingEnabled: false,
		OTLPEndpoint:   "localhost:4317",
	}
}

// Load reads configuration from the environment.
func Load() (*RuntimeConfig, error) {
	var c RuntimeConfig
	if err := envconfig.Process(envPrefix, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the configuration for values the runtime cannot start
// with.
func (c *RuntimeConfig) Validate() error {
	if c.AgentID == "" {
		return fmt.Errorf("AGENT_ID must not be empty")
	}
	if c.DefaultTaskType == "" {
		return fmt.Errorf("DEFAULT_TASK must not be empty")
	}
	if c.ScriptPath == "" {
		return fmt.Errorf("SCRIPT_PATH must not be empty")
	}
	if c.InvokeTimeout <= 0 {
		return fmt.Errorf("INVOKE_TIMEOUT must be positive")
	}
	if c.JanitorEnabled {
		if c.JanitorInterval <= 0 {
			return fmt.Errorf("JANITOR_INTERVAL must be positive when the janitor is enabled")
		}
		if c.JanitorRetention <= 0 {
			return fmt.Errorf("JANITOR_RETENTION must be positive when the janitor is enabled")
		}
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got '%s'", c.LogLevel)
	}
	if c.TracingEnabled && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTLP_ENDPOINT must be set when tracing is enabled")
	}
	return nil
}

// BridgeConfig projects the runtime config onto engine bridge settings.
func (c *RuntimeConfig) BridgeConfig() bridge.Config {
	cfg := bridge.DefaultConfig()
	cfg.EnginePath = c.EnginePath
	cfg.ScriptPath = c.ScriptPath
	cfg.InvokeTimeout = c.InvokeTimeout
	cfg.TempDir = c.TempDir
	return cfg
}

// JanitorConfig projects the runtime config onto janitor sweep settings.
func (c *RuntimeConfig) JanitorConfig() bridge.JanitorConfig {
	return bridge.JanitorConfig{
		Interval:  c.JanitorInterval,
		Retention: c.JanitorRetention,
		TempDir:   c.TempDir,
	}
}

// =============================================================================
// GLOBAL CONFIG
// =============================================================================

var (
	globalConfig *RuntimeConfig
	configMu     sync.RWMutex
)

// GetRuntimeConfig gets the runtime configuration instance.
// Returns the injected config or defaults.
func GetRuntimeConfig() *RuntimeConfig {
	configMu.RLock()
	defer configMu.RUnlock()

	if globalConfig == nil {
		return Default()
	}
	return globalConfig
}

// SetRuntimeConfig sets the runtime configuration instance.
// Called by the host process after loading the environment.
func SetRuntimeConfig(config *RuntimeConfig) {
	configMu.Lock()
	defer configMu.Unlock()

	globalConfig = config
}

// ResetRuntimeConfig resets the runtime config to nil (useful for testing).
// After reset, GetRuntimeConfig() will return defaults.
func ResetRuntimeConfig() {
	configMu.Lock()
	defer configMu.Unlock()

	globalConfig = nil
}
