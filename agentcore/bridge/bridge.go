// Package bridge invokes an external analysis engine through a temp-file
// JSON hand-off.
//
// The engine is an untrusted interpreter process. Each invocation writes the
// request to a fresh temp file, runs the engine with the script and both file
// paths as arguments, then reads the response file back. The engine never
// receives a shell string and never outlives the invocation deadline. Both
// hand-off files are removed on every exit path.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/empi-systems/agentruntime/agentcore/observability"
	"github.com/empi-systems/agentruntime/agentcore/typeutil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("agentruntime/bridge")

// probeTimeout bounds the per-candidate discovery probe.
const probeTimeout = 5 * time.Second

// GradeField is the numeric field every well-formed engine response carries.
// Callers classify results on this value.
const GradeField = "flesch_kincaid_grade"

// Logger is the logging surface the bridge needs.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds engine discovery and invocation parameters.
type Config struct {
	// EnginePath is the preferred interpreter. When set it is probed before
	// the fallbacks.
	EnginePath string
	// ScriptPath is the analysis script handed to the engine.
	ScriptPath string
	// FallbackEngines are candidate interpreter names probed in order.
	FallbackEngines []string
	// ProbeArgs are the arguments that prove a candidate responds.
	ProbeArgs []string
	// InvokeTimeout bounds a single engine invocation.
	InvokeTimeout time.Duration
	// TempDir holds the hand-off files. Empty means the OS default.
	TempDir string
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		FallbackEngines: []string{"python3", "python", "python3.11", "python3.10", "python3.9", "python3.8"},
		ProbeArgs:       []string{"--version"},
		InvokeTimeout:   30 * time.Second,
	}
}

// Request is the JSON document handed to the engine. Language is optional;
// the engine applies its own default when the key is absent.
type Request struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// =============================================================================
// BRIDGE
// =============================================================================

// Bridge runs analysis requests through a discovered engine interpreter.
// Discovery happens once at construction; a bridge with no engine still
// constructs, and reports EngineNotFoundError on use.
type Bridge struct {
	cfg        Config
	enginePath string
	scriptPath string
	logger     Logger

	mu      sync.Mutex
	lastErr error
}

// New creates a bridge and eagerly discovers the engine interpreter.
func New(cfg Config, logger Logger) *Bridge {
	if logger == nil {
		logger = nopLogger{}
	}
	defaults := DefaultConfig()
	if len(cfg.FallbackEngines) == 0 {
		cfg.FallbackEngines = defaults.FallbackEngines
	}
	if len(cfg.ProbeArgs) == 0 {
		cfg.ProbeArgs = defaults.ProbeArgs
	}
	if cfg.InvokeTimeout <= 0 {
		cfg.InvokeTimeout = defaults.InvokeTimeout
	}

	b := &Bridge{
		cfg:        cfg,
		scriptPath: cfg.ScriptPath,
		logger:     logger,
	}

	b.enginePath = b.discoverEngine()
	if b.enginePath == "" {
		b.logger.Warn("engine_discovery_failed",
			"tried", strings.Join(b.probeCandidates(), ","),
		)
	} else {
		b.logger.Info("engine_discovered", "engine", b.enginePath)
	}
	return b
}

// probeCandidates returns the interpreter candidates in probe order.
func (b *Bridge) probeCandidates() []string {
	candidates := make([]string, 0, len(b.cfg.FallbackEngines)+1)
	if b.cfg.EnginePath != "" {
		candidates = append(candidates, b.cfg.EnginePath)
	}
	candidates = append(candidates, b.cfg.FallbackEngines...)
	return candidates
}

func (b *Bridge) discoverEngine() string {
	for _, candidate := range b.probeCandidates() {
		if b.probe(candidate) {
			return candidate
		}
	}
	return ""
}

func (b *Bridge) probe(path string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	return exec.CommandContext(ctx, path, b.cfg.ProbeArgs...).Run() == nil
}

// Analyze runs one request through the engine and returns the decoded
// response document. Failures are returned as the typed errors in this
// package; the raw engine payload rides on the error where one exists.
func (b *Bridge) Analyze(ctx context.Context, req Request) (map[string]any, error) {
	started := time.Now()

	ctx, span := tracer.Start(ctx, "bridge.analyze",
		trace.WithAttributes(
			attribute.String("agentruntime.bridge.engine", b.enginePath),
			attribute.String("agentruntime.bridge.script", b.scriptPath),
		))
	defer span.End()

	result, err := b.invoke(ctx, req)

	durationMS := int(time.Since(started).Milliseconds())
	span.SetAttributes(attribute.Int("duration_ms", durationMS))

	if err != nil {
		b.setLastError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.RecordBridgeInvocation(b.engineLabel(), failureLabel(err), durationMS)
		b.logger.Error("engine_invocation_failed",
			"engine", b.enginePath,
			"error", err.Error(),
			"duration_ms", durationMS,
		)
		return nil, err
	}

	b.setLastError(nil)
	span.SetStatus(codes.Ok, "success")
	observability.RecordBridgeInvocation(b.engineLabel(), "success", durationMS)
	b.logger.Debug("engine_invocation_completed", "engine", b.enginePath, "duration_ms", durationMS)
	return result, nil
}

// invoke walks the hand-off state machine for a single request.
func (b *Bridge) invoke(ctx context.Context, req Request) (map[string]any, error) {
	if b.enginePath == "" {
		return nil, &EngineNotFoundError{Tried: b.probeCandidates()}
	}

	if _, err := os.Stat(b.scriptPath); err != nil {
		wd, _ := os.Getwd()
		return nil, &ScriptNotFoundError{Path: b.scriptPath, WorkDir: wd}
	}

	reqFile, err := os.CreateTemp(b.cfg.TempDir, "engine_req_*.json")
	if err != nil {
		return nil, &TempFileError{Op: "create request", Err: err}
	}
	reqPath := reqFile.Name()
	defer os.Remove(reqPath)

	respFile, err := os.CreateTemp(b.cfg.TempDir, "engine_resp_*.json")
	if err != nil {
		reqFile.Close()
		return nil, &TempFileError{Op: "create response", Err: err}
	}
	respPath := respFile.Name()
	defer os.Remove(respPath)
	respFile.Close()

	payload, err := json.Marshal(req)
	if err != nil {
		reqFile.Close()
		return nil, &TempFileError{Op: "encode request", Err: err}
	}
	if _, err := reqFile.Write(payload); err != nil {
		reqFile.Close()
		return nil, &TempFileError{Op: "write request", Err: err}
	}
	if err := reqFile.Close(); err != nil {
		return nil, &TempFileError{Op: "close request", Err: err}
	}

	// The engine gets discrete arguments, never a shell string, and is
	// killed when the deadline passes.
	timeoutCtx, cancel := context.WithTimeout(ctx, b.cfg.InvokeTimeout)
	defer cancel()

	cmd := exec.CommandContext(timeoutCtx, b.enginePath, b.scriptPath, reqPath, respPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
		return nil, &TimeoutError{Timeout: b.cfg.InvokeTimeout}
	}
	if runErr != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return nil, &EngineExecutionError{
			ExitCode: exitCode,
			Stderr:   strings.TrimSpace(stderr.String()),
		}
	}

	raw, err := os.ReadFile(respPath)
	if err != nil {
		return nil, &TempFileError{Op: "read response", Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &EmptyResponseError{Path: respPath}
	}

	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &EngineReportedError{Message: "response is not a JSON object", Raw: string(raw)}
	}
	if errVal, exists := result["error"]; exists {
		return nil, &EngineReportedError{
			Message: typeutil.SafeStringDefault(errVal, "unknown engine error"),
			Raw:     string(raw),
		}
	}
	if _, ok := result[GradeField].(float64); !ok {
		return nil, &MissingRequiredFieldError{Field: GradeField, Raw: string(raw)}
	}

	return result, nil
}

// CheckAvailability reports whether the bridge can serve requests without
// invoking the engine. It verifies the interpreter was discovered and the
// script exists on disk.
func (b *Bridge) CheckAvailability() error {
	if b.enginePath == "" {
		return &EngineNotFoundError{Tried: b.probeCandidates()}
	}
	if _, err := os.Stat(b.scriptPath); err != nil {
		wd, _ := os.Getwd()
		return &ScriptNotFoundError{Path: b.scriptPath, WorkDir: wd}
	}
	return nil
}

// Available reports whether an engine interpreter was discovered.
func (b *Bridge) Available() bool {
	return b.enginePath != ""
}

// EnginePath returns the discovered interpreter, or "" when discovery failed.
func (b *Bridge) EnginePath() string {
	return b.enginePath
}

// ScriptPath returns the analysis script path.
func (b *Bridge) ScriptPath() string {
	return b.scriptPath
}

// LastError returns the most recent invocation failure, or nil after a
// successful invocation.
func (b *Bridge) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

func (b *Bridge) setLastError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastErr = err
}

func (b *Bridge) engineLabel() string {
	if b.enginePath == "" {
		return "none"
	}
	return filepath.Base(b.enginePath)
}
