// Package agent provides the dispatch core: it binds task types to
// extraction/processing handler pairs and threads mutable session state
// through them.
//
// Process is total. Whatever the input, the caller receives a complete
// envelope; handler misses, rejected input, bridge failures, and stage
// panics all surface as tagged error objects inside payload.data.
package agent

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/empi-systems/agentruntime/agentcore/envelope"
	"github.com/empi-systems/agentruntime/agentcore/observability"
	"github.com/empi-systems/agentruntime/agentcore/session"
	"github.com/empi-systems/agentruntime/agentcore/typeutil"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("agentruntime/agent")

// Agent owns one handler registry and one session state store and runs the
// two-stage dispatch over them.
type Agent struct {
	agentID         string
	defaultTaskType string
	registry        *Registry
	state           *session.Store
	logger          Logger
}

// Option configures an Agent at construction time.
type Option func(*Agent)

// WithLogger injects the logger used for dispatch events.
func WithLogger(logger Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithRegistry installs a pre-populated handler registry.
func WithRegistry(registry *Registry) Option {
	return func(a *Agent) {
		if registry != nil {
			a.registry = registry
		}
	}
}

// New creates an Agent with an empty session state store. An empty agentID
// gets a generated fallback identity.
func New(agentID, defaultTaskType string, opts ...Option) *Agent {
	if agentID == "" {
		agentID = "agent_" + uuid.New().String()[:8]
	}
	a := &Agent{
		agentID:         agentID,
		defaultTaskType: defaultTaskType,
		registry:        NewRegistry(),
		state:           session.NewStore(),
		logger:          NopLogger{},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.Bind("agent", agentID)
	return a
}

// RegisterHandler binds a task type to an extraction/processing pair on
// this agent's registry.
func (a *Agent) RegisterHandler(taskType string, extract, process HandlerFunc) error {
	if err := a.registry.Register(taskType, extract, process); err != nil {
		return err
	}
	observability.RecordHandlerRegistration(taskType)
	a.logger.Debug("handler_registered", "task_type", taskType)
	return nil
}

// Process runs one request through the dispatch chain and always returns a
// complete envelope. An empty taskType selects the agent's default task.
func (a *Agent) Process(ctx context.Context, input map[string]any, taskType string) *envelope.Envelope {
	task := taskType
	if task == "" {
		task = a.defaultTaskType
	}

	ctx, span := tracer.Start(ctx, "agent.process",
		trace.WithAttributes(
			attribute.String("agentruntime.agent.id", a.agentID),
			attribute.String("agentruntime.task.type", task),
		))
	defer span.End()

	startTime := time.Now()
	env := envelope.New(a.agentID, task)
	log := a.logger.Bind("task_type", task, "message_id", env.Header.MessageID)
	log.Debug("dispatch_started")

	defer func() {
		durationMS := int(time.Since(startTime).Milliseconds())
		data := env.Data()
		status := typeutil.SafeStringDefault(data["status"], StatusSuccess)

		span.SetAttributes(attribute.Int("duration_ms", durationMS))
		observability.RecordProcess(a.agentID, task, status, durationMS)
		observability.SetSessionStateKeys(a.agentID, a.state.Len())

		if status == StatusError {
			errType := typeutil.SafeStringDefault(data["error_type"], "")
			span.SetStatus(codes.Error, typeutil.SafeStringDefault(data["message"], "processing failed"))
			log.Error("dispatch_completed",
				"status", status,
				"error_type", errType,
				"duration_ms", durationMS,
			)
		} else {
			span.SetStatus(codes.Ok, StatusSuccess)
			log.Info("dispatch_completed", "status", status, "duration_ms", durationMS)
		}
	}()

	pair, err := a.registry.Resolve(task)
	if err != nil {
		env.SetData(ErrorData(ErrorKindHandlerNotFound, err.Error()))
		return env
	}

	// Stages run with the state lock held, so concurrent Process calls on
	// the same instance serialize here.
	var result map[string]any
	a.state.WithLock(func(state map[string]any) {
		extracted, stageErr := safeStage(log, "extract", func() map[string]any {
			return pair.Extract(ctx, input, map[string]any{}, state)
		})
		if stageErr != nil {
			result = ErrorData(ErrorKindProcessingException, stageErr.Error())
			return
		}

		processed, stageErr := safeStage(log, "process", func() map[string]any {
			return pair.Process(ctx, extracted, map[string]any{}, state)
		})
		if stageErr != nil {
			result = ErrorData(ErrorKindProcessingException, stageErr.Error())
			return
		}
		result = processed
	})

	env.SetData(result)
	return env
}

// safeStage executes one stage function with panic recovery. A panic is
// logged with its stack and converted into an error; it never reaches the
// Process caller.
func safeStage(logger Logger, stage string, fn func() map[string]any) (result map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := string(debug.Stack())
			logger.Error("stage_panic_recovered",
				"stage", stage,
				"panic", r,
				"stack", stack,
			)
			err = fmt.Errorf("panic in %s stage: %v", stage, r)
		}
	}()
	return fn(), nil
}

// =============================================================================
// Identity and State Access
// =============================================================================

// AgentID returns the agent's identifier.
func (a *Agent) AgentID() string {
	return a.agentID
}

// DefaultTaskType returns the task type used when Process is called
// without an explicit one.
func (a *Agent) DefaultTaskType() string {
	return a.defaultTaskType
}

// Registry returns the agent's handler registry.
func (a *Agent) Registry() *Registry {
	return a.registry
}

// State returns a deep-copy snapshot of the session state.
func (a *Agent) State() map[string]any {
	return a.state.Get()
}

// SetState replaces the session state.
func (a *Agent) SetState(state map[string]any) {
	a.state.Set(state)
}

// ResetState clears the session state back to an empty mapping.
func (a *Agent) ResetState() {
	a.state.Reset()
}
