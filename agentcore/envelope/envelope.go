// Package envelope provides the EMPI response envelope returned by every
// dispatch call.
//
// An envelope wraps one task result in a versioned, self-describing
// structure: a header block carrying protocol identity and a payload block
// carrying call metadata plus the task-specific data map. Failures travel
// inside payload.data as tagged error objects; an envelope is produced on
// every path, success or failure.
package envelope

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Protocol Constants
// =============================================================================

const (
	// Protocol is the wire protocol identifier stamped into every header.
	Protocol = "EMPI/1.0"
	// SchemaVersion is the envelope schema version stamped into every header.
	SchemaVersion = "1.0"
)

// =============================================================================
// Envelope Types
// =============================================================================

// Header identifies one dispatch response: protocol, message identity,
// originating agent, and the task that produced it.
type Header struct {
	Protocol  string `json:"protocol"`
	MessageID string `json:"message_id"`
	Timestamp string `json:"timestamp"`
	AgentID   string `json:"agent_id"`
	TaskType  string `json:"task_type"`
	Version   string `json:"version"`
}

// Metadata carries per-call processing metadata inside the payload.
type Metadata struct {
	Source          string `json:"source"`
	ProcessingStart string `json:"processing_start"`
}

// Payload holds call metadata and the task result data map.
type Payload struct {
	Metadata Metadata       `json:"metadata"`
	Data     map[string]any `json:"data"`
}

// Envelope is the unit returned from every dispatch call.
type Envelope struct {
	Header  Header  `json:"header"`
	Payload Payload `json:"payload"`
}

// =============================================================================
// Construction
// =============================================================================

// msgSeq is the process-wide monotonic component of message identifiers.
// Second-resolution wall clock alone collides under rapid sequential calls.
var msgSeq atomic.Uint64

// New creates a fresh envelope for one dispatch call with identity fields
// populated and an empty data map. Empty agentID gets a generated fallback
// identity so every envelope stays attributable.
func New(agentID, taskType string) *Envelope {
	if agentID == "" {
		agentID = "agent_" + uuid.New().String()[:8]
	}
	now := time.Now().UTC()
	ts := now.Format(time.RFC3339)
	return &Envelope{
		Header: Header{
			Protocol:  Protocol,
			MessageID: newMessageID(now, agentID),
			Timestamp: ts,
			AgentID:   agentID,
			TaskType:  taskType,
			Version:   SchemaVersion,
		},
		Payload: Payload{
			Metadata: Metadata{
				Source:          agentID,
				ProcessingStart: ts,
			},
			Data: make(map[string]any),
		},
	}
}

// newMessageID builds a message identifier unique within this process:
// wall-clock seconds for readability, a monotonic counter for uniqueness.
func newMessageID(now time.Time, agentID string) string {
	return fmt.Sprintf("msg_%d_%d_%s", now.Unix(), msgSeq.Add(1), agentID)
}

// =============================================================================
// Data Access Helpers
// =============================================================================

// TaskType returns the task identifier this envelope was built for.
func (e *Envelope) TaskType() string {
	return e.Header.TaskType
}

// Data returns the payload data map. The map is live; mutations are
// reflected in the envelope.
func (e *Envelope) Data() map[string]any {
	return e.Payload.Data
}

// SetData replaces the payload data map. A nil map installs an empty one so
// the envelope stays well-formed.
func (e *Envelope) SetData(data map[string]any) {
	if data == nil {
		data = make(map[string]any)
	}
	e.Payload.Data = data
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks that the envelope carries the expected protocol literals
// and non-empty identity fields.
func (e *Envelope) Validate() error {
	if e.Header.Protocol != Protocol {
		return fmt.Errorf("envelope protocol %q, want %q", e.Header.Protocol, Protocol)
	}
	if e.Header.Version != SchemaVersion {
		return fmt.Errorf("envelope version %q, want %q", e.Header.Version, SchemaVersion)
	}
	if e.Header.MessageID == "" {
		return fmt.Errorf("envelope missing message_id")
	}
	if e.Header.AgentID == "" {
		return fmt.Errorf("envelope missing agent_id")
	}
	if e.Payload.Data == nil {
		return fmt.Errorf("envelope missing payload data")
	}
	return nil
}

// =============================================================================
// Clone - Deep Copy
// =============================================================================

// Clone creates a deep copy of the envelope.
func (e *Envelope) Clone() *Envelope {
	clone := &Envelope{
		Header: e.Header,
		Payload: Payload{
			Metadata: e.Payload.Metadata,
		},
	}
	clone.Payload.Data = deepCopyAnyMap(e.Payload.Data)
	return clone
}

func deepCopyAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = deepCopyValue(v)
	}
	return result
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyAnyMap(val)
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = deepCopyValue(item)
		}
		return result
	case []string:
		result := make([]string, len(val))
		copy(result, val)
		return result
	default:
		return v // Primitives are copied by value
	}
}

// =============================================================================
// Serialization
// =============================================================================

// ToMap converts the envelope to a nested map, the shape handed to hosts
// that want raw JSON-style access instead of typed structs.
func (e *Envelope) ToMap() map[string]any {
	return map[string]any{
		"header": map[string]any{
			"protocol":   e.Header.Protocol,
			"message_id": e.Header.MessageID,
			"timestamp":  e.Header.Timestamp,
			"agent_id":   e.Header.AgentID,
			"task_type":  e.Header.TaskType,
			"version":    e.Header.Version,
		},
		"payload": map[string]any{
			"metadata": map[string]any{
				"source":           e.Payload.Metadata.Source,
				"processing_start": e.Payload.Metadata.ProcessingStart,
			},
			"data": deepCopyAnyMap(e.Payload.Data),
		},
	}
}

// FromMap rebuilds an envelope from a nested map produced by ToMap or
// decoded from JSON. Missing or foreign-typed fields are left at their zero
// values; the data map is always non-nil.
func FromMap(m map[string]any) *Envelope {
	e := &Envelope{
		Payload: Payload{Data: make(map[string]any)},
	}
	header, _ := m["header"].(map[string]any)
	if v, ok := header["protocol"].(string); ok {
		e.Header.Protocol = v
	}
	if v, ok := header["message_id"].(string); ok {
		e.Header.MessageID = v
	}
	if v, ok := header["timestamp"].(string); ok {
		e.Header.Timestamp = v
	}
	if v, ok := header["agent_id"].(string); ok {
		e.Header.AgentID = v
	}
	if v, ok := header["task_type"].(string); ok {
		e.Header.TaskType = v
	}
	if v, ok := header["version"].(string); ok {
		e.Header.Version = v
	}
	payload, _ := m["payload"].(map[string]any)
	if meta, ok := payload["metadata"].(map[string]any); ok {
		if v, ok := meta["source"].(string); ok {
			e.Payload.Metadata.Source = v
		}
		if v, ok := meta["processing_start"].(string); ok {
			e.Payload.Metadata.ProcessingStart = v
		}
	}
	if data, ok := payload["data"].(map[string]any); ok {
		e.Payload.Data = deepCopyAnyMap(data)
	}
	return e
}
