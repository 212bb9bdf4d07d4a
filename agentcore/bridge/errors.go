package bridge

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// FAILURE TAXONOMY
// =============================================================================
//
// Each stage of an engine invocation fails with its own error type so callers
// can map failures onto envelope error objects without string matching.

// EngineNotFoundError is returned when no candidate interpreter responded to
// the discovery probe.
type EngineNotFoundError struct {
	Tried []string
}

func (e *EngineNotFoundError) Error() string {
	if len(e.Tried) == 0 {
		return "no usable engine found"
	}
	return fmt.Sprintf("no usable engine found (tried: %s)", strings.Join(e.Tried, ", "))
}

// ScriptNotFoundError is returned when the analysis script does not exist on
// disk. WorkDir captures the working directory the path was resolved against.
type ScriptNotFoundError struct {
	Path    string
	WorkDir string
}

func (e *ScriptNotFoundError) Error() string {
	return fmt.Sprintf("analysis script not found at '%s' (cwd: %s)", e.Path, e.WorkDir)
}

// TempFileError is returned when the request or response hand-off file cannot
// be created, written, or read back.
type TempFileError struct {
	Op  string
	Err error
}

func (e *TempFileError) Error() string {
	return fmt.Sprintf("temp file %s failed: %v", e.Op, e.Err)
}

func (e *TempFileError) Unwrap() error {
	return e.Err
}

// EngineExecutionError is returned when the engine process exits nonzero.
// Stderr holds whatever the process wrote before exiting.
type EngineExecutionError struct {
	ExitCode int
	Stderr   string
}

func (e *EngineExecutionError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("engine exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("engine exited with code %d: %s", e.ExitCode, e.Stderr)
}

// EmptyResponseError is returned when the engine exits cleanly but leaves the
// response file empty.
type EmptyResponseError struct {
	Path string
}

func (e *EmptyResponseError) Error() string {
	return fmt.Sprintf("engine produced an empty response at '%s'", e.Path)
}

// EngineReportedError is returned when the response decodes to an object
// carrying an "error" key, or does not decode at all. Raw preserves the
// payload for diagnostics.
type EngineReportedError struct {
	Message string
	Raw     string
}

func (e *EngineReportedError) Error() string {
	return fmt.Sprintf("engine reported an error: %s", e.Message)
}

// MissingRequiredFieldError is returned when a structurally valid response
// lacks a required numeric field.
type MissingRequiredFieldError struct {
	Field string
	Raw   string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("engine response missing required numeric field '%s'", e.Field)
}

// TimeoutError is returned when the engine process is terminated for running
// past the invocation deadline.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("engine did not complete within %s", e.Timeout)
}

// failureLabel condenses an invocation error into a metric label.
func failureLabel(err error) string {
	switch err.(type) {
	case *EngineNotFoundError:
		return "engine_not_found"
	case *ScriptNotFoundError:
		return "script_not_found"
	case *TempFileError:
		return "temp_file_error"
	case *EngineExecutionError:
		return "engine_execution_error"
	case *EmptyResponseError:
		return "empty_response"
	case *EngineReportedError:
		return "engine_reported_error"
	case *MissingRequiredFieldError:
		return "missing_required_field"
	case *TimeoutError:
		return "timeout"
	default:
		return "error"
	}
}
