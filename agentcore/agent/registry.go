package agent

import (
	"context"
	"sort"
	"sync"
)

// HandlerFunc is one dispatch stage. Extraction stages read the raw input
// and mutate session state; processing stages compute the result placed
// into the envelope. Both receive a per-call context map (ctxData) and the
// lent session state map; ctx bounds any blocking work inside the stage.
type HandlerFunc func(ctx context.Context, input map[string]any, ctxData map[string]any, state map[string]any) map[string]any

// HandlerPair binds a task type to its extraction and processing stages.
type HandlerPair struct {
	TaskType string
	Extract  HandlerFunc
	Process  HandlerFunc
}

// Registry maps task types to handler pairs. Registration normally happens
// at construction time; re-registering a task type overwrites the prior
// pair, last write wins.
type Registry struct {
	handlers map[string]*HandlerPair
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]*HandlerPair),
	}
}

// Register binds a task type to an extraction/processing pair. Empty task
// types and nil stage functions are rejected with *InvalidArgumentError.
func (r *Registry) Register(taskType string, extract, process HandlerFunc) error {
	if taskType == "" {
		return NewInvalidArgumentError("task type is required")
	}
	if extract == nil {
		return NewInvalidArgumentError("extraction function is required for '" + taskType + "'")
	}
	if process == nil {
		return NewInvalidArgumentError("processing function is required for '" + taskType + "'")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[taskType] = &HandlerPair{
		TaskType: taskType,
		Extract:  extract,
		Process:  process,
	}
	return nil
}

// Resolve looks up the handler pair for a task type. A miss returns
// *NotFoundError.
func (r *Registry) Resolve(taskType string) (*HandlerPair, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pair, exists := r.handlers[taskType]
	if !exists {
		return nil, NewNotFoundError(taskType)
	}
	return pair, nil
}

// Has checks if a task type is registered.
func (r *Registry) Has(taskType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.handlers[taskType]
	return exists
}

// Tasks returns all registered task types in sorted order.
func (r *Registry) Tasks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]string, 0, len(r.handlers))
	for task := range r.handlers {
		tasks = append(tasks, task)
	}
	sort.Strings(tasks)
	return tasks
}

// Len returns the number of registered task types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// HandlerRegistry is an interface for handler registration and lookup.
type HandlerRegistry interface {
	Register(taskType string, extract, process HandlerFunc) error
	Resolve(taskType string) (*HandlerPair, error)
	Has(taskType string) bool
	Tasks() []string
}

// Ensure Registry implements HandlerRegistry
var _ HandlerRegistry = (*Registry)(nil)
