// Package main provides the agentd CLI for driving the agent runtime.
//
// The CLI reads JSON requests from stdin, dispatches them through the
// agent core, and writes envelope JSON to stdout. Designed for
// subprocess-based interop and smoke testing.
//
// Usage:
//
//	# Dispatch one request
//	echo '{"text": "hello world"}' | agentd process
//
//	# Dispatch with an explicit task type
//	echo '{"text": "hello world"}' | agentd process text_metrics
//
//	# Report engine availability
//	agentd check
//
//	# Run a batch and print the final session state
//	echo '[{"text": "a"}, {"text": "b"}]' | agentd state
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/empi-systems/agentruntime/agentcore/agent"
	"github.com/empi-systems/agentruntime/agentcore/bridge"
	"github.com/empi-systems/agentruntime/agentcore/config"
	"github.com/empi-systems/agentruntime/agentcore/observability"
	"github.com/empi-systems/agentruntime/agentcore/textmetrics"
)

const (
	cmdProcess = "process"
	cmdCheck   = "check"
	cmdState   = "state"
	cmdVersion = "version"
)

// Version information
const (
	Version   = "1.0.0"
	BuildTime = "2026-08-21"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]

	switch cmd {
	case cmdVersion:
		handleVersion()
	case cmdProcess:
		handleProcess()
	case cmdCheck:
		handleCheck()
	case cmdState:
		handleState()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: agentd <command>

Commands:
  process [task]  Read request JSON from stdin, dispatch, write envelope to stdout
  check           Report engine availability as JSON
  state           Dispatch a JSON array of requests, write final session state
  version         Print version information

Input/Output:
  process and state read JSON from stdin and write JSON to stdout.
  Logs and usage go to stderr.

Configuration:
  All settings come from AGENTRUNTIME_* environment variables, e.g.
  AGENTRUNTIME_SCRIPT_PATH, AGENTRUNTIME_ENGINE_PATH,
  AGENTRUNTIME_INVOKE_TIMEOUT. See the config package for the full list.

Examples:
  echo '{"text":"hello world"}' | agentd process
  echo '[{"text":"a"},{"content":"b"}]' | agentd state
  agentd check`)
}

// handleVersion prints version information.
func handleVersion() {
	output := map[string]string{
		"version":    Version,
		"build_time": BuildTime,
		"go_version": "1.24+",
	}
	writeJSON(output)
}

// handleProcess reads one request, dispatches it, and writes the envelope.
func handleProcess() {
	host, _, cleanup, err := newRuntime()
	if err != nil {
		writeError("config_error", err.Error())
		os.Exit(1)
	}
	defer cleanup()

	input, err := readInput()
	if err != nil {
		writeError("read_error", err.Error())
		os.Exit(1)
	}

	var request map[string]any
	if err := json.Unmarshal(input, &request); err != nil {
		writeError("parse_error", fmt.Sprintf("Invalid JSON: %s", err.Error()))
		os.Exit(1)
	}

	// Optional explicit task type; empty means the agent default.
	taskType := ""
	if len(os.Args) > 2 {
		taskType = os.Args[2]
	}

	env := host.Process(context.Background(), request, taskType)
	writeJSON(env)
}

// handleCheck reports whether the engine bridge can serve requests.
func handleCheck() {
	_, br, cleanup, err := newRuntime()
	if err != nil {
		writeError("config_error", err.Error())
		os.Exit(1)
	}
	defer cleanup()

	result := map[string]any{
		"engine": br.EnginePath(),
		"script": br.ScriptPath(),
	}

	if err := br.CheckAvailability(); err != nil {
		result["available"] = false
		result["error"] = err.Error()
		writeJSON(result)
		os.Exit(1)
	}

	result["available"] = true
	writeJSON(result)
}

// handleState dispatches a batch of requests and prints the resulting
// session state. Requests run in array order against one shared session.
func handleState() {
	host, _, cleanup, err := newRuntime()
	if err != nil {
		writeError("config_error", err.Error())
		os.Exit(1)
	}
	defer cleanup()

	input, err := readInput()
	if err != nil {
		writeError("read_error", err.Error())
		os.Exit(1)
	}

	var requests []map[string]any
	if err := json.Unmarshal(input, &requests); err != nil {
		writeError("parse_error", fmt.Sprintf("Invalid JSON, expected an array of requests: %s", err.Error()))
		os.Exit(1)
	}

	for _, request := range requests {
		host.Process(context.Background(), request, "")
	}

	result := map[string]any{
		"requests_processed": len(requests),
		"session_state":      host.State(),
	}
	writeJSON(result)
}

// newRuntime loads configuration from the environment and wires the agent
// host, the engine bridge, and the optional background pieces. The returned
// cleanup stops what was started.
func newRuntime() (*agent.Agent, *bridge.Bridge, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}
	config.SetRuntimeConfig(cfg)

	// Logs go to stderr so stdout stays a clean JSON channel.
	slogger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel(cfg.LogLevel),
	}))
	logger := agent.NewSlogLogger(slogger)

	var cleanups []func()

	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracer("agentd", cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn("tracer_init_failed", "error", err.Error())
		} else {
			cleanups = append(cleanups, func() { _ = shutdown(context.Background()) })
		}
	}

	br := bridge.New(cfg.BridgeConfig(), logger)

	if cfg.JanitorEnabled {
		stop := bridge.StartJanitor(cfg.JanitorConfig(), logger)
		cleanups = append(cleanups, stop)
	}

	host := agent.New(cfg.AgentID, cfg.DefaultTaskType, agent.WithLogger(logger))
	if err := textmetrics.New(br).RegisterWith(host); err != nil {
		return nil, nil, nil, err
	}

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	return host, br, cleanup, nil
}

// slogLevel maps a config log level string onto a slog level.
func slogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// readInput reads all input from stdin.
func readInput() ([]byte, error) {
	reader := bufio.NewReader(os.Stdin)
	return io.ReadAll(reader)
}

// writeJSON writes a JSON object to stdout.
func writeJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %s\n", err.Error())
		os.Exit(1)
	}
}

// writeError writes an error response to stdout.
func writeError(code, message string) {
	result := map[string]any{
		"error":   true,
		"code":    code,
		"message": message,
	}
	writeJSON(result)
}
