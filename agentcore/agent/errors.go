package agent

import (
	"fmt"
	"strings"
)

// =============================================================================
// STATUS VALUES
// =============================================================================

const (
	// StatusSuccess marks a data object produced by successful processing.
	StatusSuccess = "success"
	// StatusError marks a tagged error object inside payload.data.
	StatusError = "error"
)

// =============================================================================
// ERROR KINDS
// =============================================================================

// ErrorKind classifies every failure the runtime can surface inside an
// envelope's data object. The value is wire-visible as the error_type field.
type ErrorKind string

const (
	// ErrorKindInvalidArgument indicates a bad registration call.
	ErrorKindInvalidArgument ErrorKind = "invalid_argument"
	// ErrorKindHandlerNotFound indicates an unknown task identifier at dispatch time.
	ErrorKindHandlerNotFound ErrorKind = "handler_not_found"
	// ErrorKindInputValidation indicates extraction could not locate usable content.
	ErrorKindInputValidation ErrorKind = "input_validation"
	// ErrorKindDataStructure indicates an extracted record with an unusable shape.
	ErrorKindDataStructure ErrorKind = "data_structure"
	// ErrorKindEngineNotFound indicates no external engine answered discovery.
	ErrorKindEngineNotFound ErrorKind = "engine_not_found"
	// ErrorKindScriptNotFound indicates the engine script is missing on disk.
	ErrorKindScriptNotFound ErrorKind = "script_not_found"
	// ErrorKindTempFile indicates a local temp-file I/O failure.
	ErrorKindTempFile ErrorKind = "temp_file_error"
	// ErrorKindEngineExecution indicates the engine exited nonzero.
	ErrorKindEngineExecution ErrorKind = "engine_execution_error"
	// ErrorKindEmptyResponse indicates the engine wrote nothing back.
	ErrorKindEmptyResponse ErrorKind = "empty_response"
	// ErrorKindEngineReported indicates the engine reported its own error.
	ErrorKindEngineReported ErrorKind = "engine_reported_error"
	// ErrorKindMissingRequiredField indicates a success payload without the
	// field downstream classification needs.
	ErrorKindMissingRequiredField ErrorKind = "missing_required_field"
	// ErrorKindTimeout indicates the engine exceeded its bounded wait and was killed.
	ErrorKindTimeout ErrorKind = "timeout"
	// ErrorKindProcessingException is the catch-all for anything unexpected inside a stage.
	ErrorKindProcessingException ErrorKind = "processing_exception"
)

// String returns the wire value.
func (k ErrorKind) String() string {
	return string(k)
}

// IsBridgeFailure checks if this kind originated in the external
// computation bridge.
func (k ErrorKind) IsBridgeFailure() bool {
	switch k {
	case ErrorKindEngineNotFound,
		ErrorKindScriptNotFound,
		ErrorKindTempFile,
		ErrorKindEngineExecution,
		ErrorKindEmptyResponse,
		ErrorKindEngineReported,
		ErrorKindMissingRequiredField,
		ErrorKindTimeout:
		return true
	default:
		return false
	}
}

// ErrorKindFromString parses an error kind string.
func ErrorKindFromString(value string) (ErrorKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "invalid_argument":
		return ErrorKindInvalidArgument, nil
	case "handler_not_found":
		return ErrorKindHandlerNotFound, nil
	case "input_validation":
		return ErrorKindInputValidation, nil
	case "data_structure":
		return ErrorKindDataStructure, nil
	case "engine_not_found":
		return ErrorKindEngineNotFound, nil
	case "script_not_found":
		return ErrorKindScriptNotFound, nil
	case "temp_file_error":
		return ErrorKindTempFile, nil
	case "engine_execution_error":
		return ErrorKindEngineExecution, nil
	case "empty_response":
		return ErrorKindEmptyResponse, nil
	case "engine_reported_error":
		return ErrorKindEngineReported, nil
	case "missing_required_field":
		return ErrorKindMissingRequiredField, nil
	case "timeout":
		return ErrorKindTimeout, nil
	case "processing_exception":
		return ErrorKindProcessingException, nil
	default:
		return "", fmt.Errorf("invalid error kind '%s'", value)
	}
}

// =============================================================================
// ERROR DATA OBJECTS
// =============================================================================

// ErrorData builds the tagged error object placed into payload.data.
// Callers distinguish failure from success solely via these fields.
func ErrorData(kind ErrorKind, message string) map[string]any {
	return map[string]any{
		"status":     StatusError,
		"message":    message,
		"error_type": string(kind),
	}
}

// ErrorDataWithRaw builds a tagged error object carrying the raw engine
// output for diagnostics.
func ErrorDataWithRaw(kind ErrorKind, message, raw string) map[string]any {
	data := ErrorData(kind, message)
	data["raw_engine_output"] = raw
	return data
}

// =============================================================================
// REGISTRATION ERRORS
// =============================================================================

// InvalidArgumentError is returned when Register is called with an empty
// task type or a nil stage function. It signals programmer error, never a
// runtime condition.
type InvalidArgumentError struct {
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return e.Message
}

// NewInvalidArgumentError creates a new InvalidArgumentError.
func NewInvalidArgumentError(message string) *InvalidArgumentError {
	return &InvalidArgumentError{Message: message}
}

// NotFoundError is returned when no handler pair is registered for a task type.
type NotFoundError struct {
	TaskType string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no handler registered for task type '%s'", e.TaskType)
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(taskType string) *NotFoundError {
	return &NotFoundError{TaskType: taskType}
}
