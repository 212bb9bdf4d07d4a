// Package testutil provides shared test utilities and mocks for integration
// tests.
//
// The fake engine helpers stand in for the external analysis engine: /bin/sh
// plays the interpreter and small scripts play the analysis script, honoring
// the same argv contract (script, request file, response file).
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/empi-systems/agentruntime/agentcore/agent"
	"github.com/empi-systems/agentruntime/agentcore/bridge"
	"github.com/empi-systems/agentruntime/agentcore/envelope"
	"github.com/empi-systems/agentruntime/agentcore/typeutil"
)

// =============================================================================
// MOCK LOGGER
// =============================================================================

// MockLogger implements agent.Logger for testing.
type MockLogger struct {
	// Logs captures all log entries.
	Logs []LogEntry

	mu sync.Mutex
}

// LogEntry represents a captured log entry.
type LogEntry struct {
	Level   string
	Message string
	Fields  map[string]any
}

// NewMockLogger creates a MockLogger.
func NewMockLogger() *MockLogger {
	return &MockLogger{
		Logs: make([]LogEntry, 0),
	}
}

func (m *MockLogger) Debug(msg string, keysAndValues ...any) {
	m.log("debug", msg, keysAndValues...)
}

func (m *MockLogger) Info(msg string, keysAndValues ...any) {
	m.log("info", msg, keysAndValues...)
}

func (m *MockLogger) Warn(msg string, keysAndValues ...any) {
	m.log("warn", msg, keysAndValues...)
}

func (m *MockLogger) Error(msg string, keysAndValues ...any) {
	m.log("error", msg, keysAndValues...)
}

func (m *MockLogger) Bind(fields ...any) agent.Logger {
	return m
}

func (m *MockLogger) log(level, msg string, keysAndValues ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fields := make(map[string]any)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			fields[key] = keysAndValues[i+1]
		}
	}

	m.Logs = append(m.Logs, LogEntry{
		Level:   level,
		Message: msg,
		Fields:  fields,
	})
}

// GetLogs returns captured logs (thread-safe).
func (m *MockLogger) GetLogs() []LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]LogEntry, len(m.Logs))
	copy(copied, m.Logs)
	return copied
}

// HasLog checks if a log message exists at the given level.
func (m *MockLogger) HasLog(level, message string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, log := range m.Logs {
		if log.Level == level && log.Message == message {
			return true
		}
	}
	return false
}

// Clear removes all captured logs.
func (m *MockLogger) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = nil
}

// =============================================================================
// FAKE ENGINE
// =============================================================================

// WriteEngineScript writes a fake engine script into dir and returns its
// path. The script runs with argv = script requestFile responseFile, so "$1"
// is the request file and "$2" is the response file.
func WriteEngineScript(dir, body string) (string, error) {
	path := filepath.Join(dir, "engine.sh")
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		return "", err
	}
	return path, nil
}

// EngineScriptSuccess returns a script body that writes the given JSON
// document as the engine response.
func EngineScriptSuccess(responseJSON string) string {
	return fmt.Sprintf("echo '%s' > \"$2\"\n", responseJSON)
}

// EngineScriptError returns a script body that reports an engine error.
func EngineScriptError(message string) string {
	payload, _ := json.Marshal(map[string]any{"error": message})
	return EngineScriptSuccess(string(payload))
}

// EngineScriptExit returns a script body that writes to stderr and exits
// with the given code.
func EngineScriptExit(code int, stderrMsg string) string {
	return fmt.Sprintf("echo '%s' >&2\nexit %d\n", stderrMsg, code)
}

// EngineScriptSleep returns a script body that sleeps past any reasonable
// test deadline.
func EngineScriptSleep(d time.Duration) string {
	return fmt.Sprintf("sleep %d\n", int(d.Seconds()))
}

// EngineScriptEmpty returns a script body that exits cleanly without writing
// a response.
func EngineScriptEmpty() string {
	return "exit 0\n"
}

// FakeMetrics returns a realistic flat engine response built around the
// given readability grade.
func FakeMetrics(grade float64) map[string]any {
	return map[string]any{
		"flesch_kincaid_grade": grade,
		"flesch_reading_ease":  72.5,
		"gunning_fog_index":    grade + 1.3,
		"smog_index":           grade + 0.8,
		"difficult_word_count": 4.0,
		"metadata": map[string]any{
			"text_length_words": 42.0,
			"language":          "en",
		},
	}
}

// FakeMetricsJSON returns FakeMetrics serialized for use in a script body.
func FakeMetricsJSON(grade float64) string {
	payload, _ := json.Marshal(FakeMetrics(grade))
	return string(payload)
}

// NewTestBridgeConfig returns a bridge config wired to /bin/sh and the given
// script, with a short invoke timeout suitable for tests.
func NewTestBridgeConfig(scriptPath, tempDir string) bridge.Config {
	return bridge.Config{
		EnginePath:    "/bin/sh",
		ScriptPath:    scriptPath,
		ProbeArgs:     []string{"-c", "true"},
		InvokeTimeout: 5 * time.Second,
		TempDir:       tempDir,
	}
}

// =============================================================================
// ASSERTION HELPERS
// =============================================================================

// AssertSuccessData checks that the envelope carries a success data object.
func AssertSuccessData(env *envelope.Envelope) error {
	if err := env.Validate(); err != nil {
		return err
	}
	status := typeutil.SafeStringDefault(env.Data()["status"], "")
	if status != agent.StatusSuccess {
		return fmt.Errorf("expected status='success', got '%s'", status)
	}
	return nil
}

// AssertErrorData checks that the envelope carries a tagged error data
// object of the given kind.
func AssertErrorData(env *envelope.Envelope, kind agent.ErrorKind) error {
	if err := env.Validate(); err != nil {
		return err
	}
	data := env.Data()
	status := typeutil.SafeStringDefault(data["status"], "")
	if status != agent.StatusError {
		return fmt.Errorf("expected status='error', got '%s'", status)
	}
	errType := typeutil.SafeStringDefault(data["error_type"], "")
	if errType != kind.String() {
		return fmt.Errorf("expected error_type='%s', got '%s'", kind, errType)
	}
	if typeutil.SafeStringDefault(data["message"], "") == "" {
		return fmt.Errorf("expected a non-empty error message")
	}
	return nil
}
