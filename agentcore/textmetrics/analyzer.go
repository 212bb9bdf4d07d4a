// Package textmetrics implements the text-metrics task: extract text from a
// loosely structured request, run it through the engine bridge, and classify
// the readability result.
package textmetrics

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/empi-systems/agentruntime/agentcore/agent"
	"github.com/empi-systems/agentruntime/agentcore/bridge"
	"github.com/empi-systems/agentruntime/agentcore/session"
	"github.com/empi-systems/agentruntime/agentcore/typeutil"
)

// TaskType is the task identifier the analyzer registers under.
const TaskType = "text_metrics"

// noTextMessage is the error marker for requests with no usable text.
const noTextMessage = "No text found in input. Expected fields: 'text', 'content', or 'data.text'"

// Analyzer implements the text-metrics task on top of the engine bridge.
type Analyzer struct {
	bridge *bridge.Bridge
}

// New creates an analyzer around an engine bridge.
func New(b *bridge.Bridge) *Analyzer {
	return &Analyzer{bridge: b}
}

// RegisterWith installs the analyzer's extraction and processing stages on
// the host agent under TaskType.
func (a *Analyzer) RegisterWith(host *agent.Agent) error {
	return host.RegisterHandler(TaskType, a.extractText, a.analyzeText)
}

// Bridge returns the underlying engine bridge.
func (a *Analyzer) Bridge() *bridge.Bridge {
	return a.bridge
}

// extractText is the extraction stage. It normalizes the request into a
// record carrying the text and an optional language hint, and bumps the
// session counters. A request with no usable text yields an error marker
// record and leaves the counters untouched.
func (a *Analyzer) extractText(ctx context.Context, input map[string]any, ctxData map[string]any, state map[string]any) map[string]any {
	text := resolveTextField(input)
	if strings.TrimSpace(text) == "" {
		return map[string]any{"error": noTextMessage}
	}

	record := map[string]any{"text": text}
	if lang := resolveLanguageField(input); lang != "" {
		record["language"] = lang
	}

	session.IncrInt(state, "total_texts_processed", 1)
	session.IncrInt(state, "total_chars_processed", len(text))
	return record
}

// resolveTextField checks the text aliases in fixed priority order. The
// first string-valued field wins, even when empty; non-string values do not
// match.
func resolveTextField(input map[string]any) string {
	if text, ok := typeutil.SafeString(input["text"]); ok {
		return text
	}
	if text, ok := typeutil.SafeString(input["content"]); ok {
		return text
	}
	if text, ok := typeutil.GetNestedString(input, "data.text"); ok {
		return text
	}
	return ""
}

func resolveLanguageField(input map[string]any) string {
	if lang, ok := typeutil.SafeString(input["language"]); ok {
		return lang
	}
	if lang, ok := typeutil.GetNestedString(input, "meta.language"); ok {
		return lang
	}
	return ""
}

// analyzeText is the processing stage. It short-circuits extraction error
// markers, invokes the engine, and classifies the result.
func (a *Analyzer) analyzeText(ctx context.Context, input map[string]any, ctxData map[string]any, state map[string]any) map[string]any {
	if marker, exists := input["error"]; exists {
		return agent.ErrorData(agent.ErrorKindInputValidation,
			typeutil.SafeStringDefault(marker, "invalid input"))
	}

	text, ok := typeutil.SafeString(input["text"])
	if !ok {
		return agent.ErrorData(agent.ErrorKindDataStructure,
			"extracted record is missing a string 'text' field")
	}

	metrics, err := a.bridge.Analyze(ctx, bridge.Request{
		Text:     text,
		Language: typeutil.SafeStringDefault(input["language"], ""),
	})
	if err != nil {
		return bridgeErrorData(err)
	}

	grade := typeutil.SafeFloat64Default(metrics[bridge.GradeField], 0)
	complexity, accessibility := Classify(grade)

	return map[string]any{
		"status":              agent.StatusSuccess,
		"analysis_id":         fmt.Sprintf("analyze_%d", typeutil.SafeIntDefault(state["total_texts_processed"], 0)),
		"metrics":             metrics,
		"complexity_label":    complexity.String(),
		"accessibility_level": accessibility.String(),
	}
}

// bridgeErrorData maps a bridge failure onto a tagged error data object,
// attaching the raw engine payload where the bridge preserved one.
func bridgeErrorData(err error) map[string]any {
	kind := agent.ErrorKindProcessingException
	raw := ""

	var (
		engineNotFound *bridge.EngineNotFoundError
		scriptNotFound *bridge.ScriptNotFoundError
		tempFile       *bridge.TempFileError
		execution      *bridge.EngineExecutionError
		emptyResponse  *bridge.EmptyResponseError
		reported       *bridge.EngineReportedError
		missingField   *bridge.MissingRequiredFieldError
		timeout        *bridge.TimeoutError
	)

	switch {
	case errors.As(err, &engineNotFound):
		kind = agent.ErrorKindEngineNotFound
	case errors.As(err, &scriptNotFound):
		kind = agent.ErrorKindScriptNotFound
	case errors.As(err, &tempFile):
		kind = agent.ErrorKindTempFile
	case errors.As(err, &execution):
		kind = agent.ErrorKindEngineExecution
		raw = execution.Stderr
	case errors.As(err, &emptyResponse):
		kind = agent.ErrorKindEmptyResponse
	case errors.As(err, &reported):
		kind = agent.ErrorKindEngineReported
		raw = reported.Raw
	case errors.As(err, &missingField):
		kind = agent.ErrorKindMissingRequiredField
		raw = missingField.Raw
	case errors.As(err, &timeout):
		kind = agent.ErrorKindTimeout
	}

	if raw != "" {
		return agent.ErrorDataWithRaw(kind, err.Error(), raw)
	}
	return agent.ErrorData(kind, err.Error())
}
