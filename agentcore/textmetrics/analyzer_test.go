package textmetrics

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/empi-systems/agentruntime/agentcore/agent"
	"github.com/empi-systems/agentruntime/agentcore/bridge"
	"github.com/empi-systems/agentruntime/agentcore/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// newTestAnalyzer builds an analyzer backed by a /bin/sh fake engine running
// the given script body.
func newTestAnalyzer(t *testing.T, scriptBody string) *Analyzer {
	t.Helper()
	script, err := testutil.WriteEngineScript(t.TempDir(), scriptBody)
	require.NoError(t, err)
	return New(bridge.New(testutil.NewTestBridgeConfig(script, t.TempDir()), nil))
}

// newBrokenAnalyzer builds an analyzer whose script does not exist, so any
// engine invocation fails.
func newBrokenAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	missing := filepath.Join(t.TempDir(), "gone.py")
	return New(bridge.New(testutil.NewTestBridgeConfig(missing, t.TempDir()), nil))
}

// =============================================================================
// EXTRACTION TESTS
// =============================================================================

func TestExtractTextPrimaryField(t *testing.T) {
	a := newBrokenAnalyzer(t)
	state := map[string]any{}

	record := a.extractText(context.Background(), map[string]any{"text": "hello world"}, nil, state)

	assert.Equal(t, "hello world", record["text"])
	assert.NotContains(t, record, "error")
}

func TestExtractTextContentAlias(t *testing.T) {
	a := newBrokenAnalyzer(t)

	record := a.extractText(context.Background(), map[string]any{"content": "from content"}, nil, map[string]any{})

	assert.Equal(t, "from content", record["text"])
}

func TestExtractTextNestedAlias(t *testing.T) {
	a := newBrokenAnalyzer(t)
	input := map[string]any{"data": map[string]any{"text": "nested"}}

	record := a.extractText(context.Background(), input, nil, map[string]any{})

	assert.Equal(t, "nested", record["text"])
}

func TestExtractTextPriorityOrder(t *testing.T) {
	// The primary field wins over both aliases.
	a := newBrokenAnalyzer(t)
	input := map[string]any{
		"text":    "primary",
		"content": "secondary",
		"data":    map[string]any{"text": "tertiary"},
	}

	record := a.extractText(context.Background(), input, nil, map[string]any{})

	assert.Equal(t, "primary", record["text"])
}

func TestExtractTextEmptyFirstMatchDoesNotFallThrough(t *testing.T) {
	// An empty primary field is a match; later aliases are not consulted.
	a := newBrokenAnalyzer(t)
	input := map[string]any{"text": "", "content": "fallback"}

	record := a.extractText(context.Background(), input, nil, map[string]any{})

	assert.Contains(t, record, "error")
}

func TestExtractTextNonStringFallsThrough(t *testing.T) {
	a := newBrokenAnalyzer(t)
	input := map[string]any{"text": 42, "content": "fallback"}

	record := a.extractText(context.Background(), input, nil, map[string]any{})

	assert.Equal(t, "fallback", record["text"])
}

func TestExtractTextMissing(t *testing.T) {
	a := newBrokenAnalyzer(t)

	record := a.extractText(context.Background(), map[string]any{}, nil, map[string]any{})

	require.Contains(t, record, "error")
	assert.Contains(t, record["error"], "'text', 'content', or 'data.text'")
}

func TestExtractTextWhitespaceOnly(t *testing.T) {
	a := newBrokenAnalyzer(t)

	record := a.extractText(context.Background(), map[string]any{"text": "   \n\t"}, nil, map[string]any{})

	assert.Contains(t, record, "error")
}

func TestExtractLanguage(t *testing.T) {
	a := newBrokenAnalyzer(t)

	record := a.extractText(context.Background(), map[string]any{"text": "hi", "language": "fr"}, nil, map[string]any{})
	assert.Equal(t, "fr", record["language"])

	input := map[string]any{"text": "hi", "meta": map[string]any{"language": "de"}}
	record = a.extractText(context.Background(), input, nil, map[string]any{})
	assert.Equal(t, "de", record["language"])

	record = a.extractText(context.Background(), map[string]any{"text": "hi"}, nil, map[string]any{})
	assert.NotContains(t, record, "language")
}

func TestExtractTextBumpsCounters(t *testing.T) {
	a := newBrokenAnalyzer(t)
	state := map[string]any{}

	a.extractText(context.Background(), map[string]any{"text": "hello"}, nil, state)
	a.extractText(context.Background(), map[string]any{"text": "hello"}, nil, state)

	assert.Equal(t, 2, state["total_texts_processed"])
	assert.Equal(t, 10, state["total_chars_processed"])
}

func TestExtractTextMarkerLeavesStateUntouched(t *testing.T) {
	a := newBrokenAnalyzer(t)
	state := map[string]any{}

	a.extractText(context.Background(), map[string]any{}, nil, state)

	assert.Empty(t, state)
}

// =============================================================================
// PROCESSING TESTS
// =============================================================================

func TestAnalyzeTextMarkerShortCircuit(t *testing.T) {
	// An extraction marker never reaches the engine; the broken script would
	// surface as script_not_found if it did.
	a := newBrokenAnalyzer(t)

	data := a.analyzeText(context.Background(), map[string]any{"error": noTextMessage}, nil, map[string]any{})

	assert.Equal(t, agent.StatusError, data["status"])
	assert.Equal(t, agent.ErrorKindInputValidation.String(), data["error_type"])
	assert.Equal(t, noTextMessage, data["message"])
}

func TestAnalyzeTextMissingTextField(t *testing.T) {
	a := newBrokenAnalyzer(t)

	data := a.analyzeText(context.Background(), map[string]any{"language": "en"}, nil, map[string]any{})

	assert.Equal(t, agent.StatusError, data["status"])
	assert.Equal(t, agent.ErrorKindDataStructure.String(), data["error_type"])
}

func TestAnalyzeTextSuccess(t *testing.T) {
	a := newTestAnalyzer(t, testutil.EngineScriptSuccess(testutil.FakeMetricsJSON(7.2)))
	state := map[string]any{"total_texts_processed": 3}

	data := a.analyzeText(context.Background(), map[string]any{"text": "hello", "language": "en"}, nil, state)

	assert.Equal(t, agent.StatusSuccess, data["status"])
	assert.Equal(t, "analyze_3", data["analysis_id"])
	assert.Equal(t, testutil.FakeMetrics(7.2), data["metrics"])
	assert.Equal(t, "simple", data["complexity_label"])
	assert.Equal(t, "high", data["accessibility_level"])
}

func TestAnalyzeTextModerateGrade(t *testing.T) {
	a := newTestAnalyzer(t, testutil.EngineScriptSuccess(testutil.FakeMetricsJSON(10.4)))

	data := a.analyzeText(context.Background(), map[string]any{"text": "hello"}, nil, map[string]any{})

	assert.Equal(t, "moderate", data["complexity_label"])
	assert.Equal(t, "medium", data["accessibility_level"])
}

func TestAnalyzeTextEngineReported(t *testing.T) {
	a := newTestAnalyzer(t, testutil.EngineScriptError("text too garbled"))

	data := a.analyzeText(context.Background(), map[string]any{"text": "hello"}, nil, map[string]any{})

	assert.Equal(t, agent.StatusError, data["status"])
	assert.Equal(t, agent.ErrorKindEngineReported.String(), data["error_type"])
	assert.Contains(t, data["message"], "text too garbled")
	assert.Contains(t, data["raw_engine_output"], "text too garbled")
}

func TestAnalyzeTextEngineExecutionFailure(t *testing.T) {
	a := newTestAnalyzer(t, testutil.EngineScriptExit(2, "stack trace here"))

	data := a.analyzeText(context.Background(), map[string]any{"text": "hello"}, nil, map[string]any{})

	assert.Equal(t, agent.ErrorKindEngineExecution.String(), data["error_type"])
	assert.Contains(t, data["raw_engine_output"], "stack trace here")
}

func TestAnalyzeTextEngineNotFound(t *testing.T) {
	script, err := testutil.WriteEngineScript(t.TempDir(), testutil.EngineScriptEmpty())
	require.NoError(t, err)
	cfg := bridge.Config{
		ScriptPath:      script,
		FallbackEngines: []string{"agentruntime-no-such-engine"},
		ProbeArgs:       []string{"-c", "true"},
	}
	a := New(bridge.New(cfg, nil))

	data := a.analyzeText(context.Background(), map[string]any{"text": "hello"}, nil, map[string]any{})

	assert.Equal(t, agent.ErrorKindEngineNotFound.String(), data["error_type"])
}

func TestAnalyzeTextMissingGradeField(t *testing.T) {
	a := newTestAnalyzer(t, testutil.EngineScriptSuccess(`{"word_count": 5}`))

	data := a.analyzeText(context.Background(), map[string]any{"text": "hello"}, nil, map[string]any{})

	assert.Equal(t, agent.ErrorKindMissingRequiredField.String(), data["error_type"])
	assert.Contains(t, data["raw_engine_output"], "word_count")
}

func TestAnalyzeTextTimeout(t *testing.T) {
	script, err := testutil.WriteEngineScript(t.TempDir(), testutil.EngineScriptSleep(5*time.Second))
	require.NoError(t, err)
	cfg := testutil.NewTestBridgeConfig(script, t.TempDir())
	cfg.InvokeTimeout = 100 * time.Millisecond
	a := New(bridge.New(cfg, nil))

	data := a.analyzeText(context.Background(), map[string]any{"text": "hello"}, nil, map[string]any{})

	assert.Equal(t, agent.ErrorKindTimeout.String(), data["error_type"])
}

// =============================================================================
// END TO END TESTS
// =============================================================================

func TestEndToEndProcess(t *testing.T) {
	// Full dispatch: request in, classified envelope out, counters advanced.
	analyzer := newTestAnalyzer(t, testutil.EngineScriptSuccess(testutil.FakeMetricsJSON(6.1)))
	host := agent.New("text_analyzer", TaskType, agent.WithLogger(testutil.NewMockLogger()))
	require.NoError(t, analyzer.RegisterWith(host))

	env := host.Process(context.Background(), map[string]any{"text": "The cat sat on the mat."}, "")

	require.NoError(t, testutil.AssertSuccessData(env))
	data := env.Data()
	assert.Equal(t, "analyze_1", data["analysis_id"])
	assert.Equal(t, "simple", data["complexity_label"])

	env = host.Process(context.Background(), map[string]any{"content": "Another short text."}, "")
	require.NoError(t, testutil.AssertSuccessData(env))
	assert.Equal(t, "analyze_2", env.Data()["analysis_id"])

	state := host.State()
	assert.Equal(t, 2, state["total_texts_processed"])
	assert.Equal(t, len("The cat sat on the mat.")+len("Another short text."), state["total_chars_processed"])
}

func TestEndToEndEmptyRequest(t *testing.T) {
	// An empty request resolves to the handler and is rejected by the
	// extraction stage, not by dispatch.
	analyzer := newTestAnalyzer(t, testutil.EngineScriptSuccess(testutil.FakeMetricsJSON(6.1)))
	host := agent.New("text_analyzer", TaskType, agent.WithLogger(testutil.NewMockLogger()))
	require.NoError(t, analyzer.RegisterWith(host))

	env := host.Process(context.Background(), map[string]any{}, "")

	require.NoError(t, testutil.AssertErrorData(env, agent.ErrorKindInputValidation))
	assert.Empty(t, host.State())
}

func TestEndToEndEngineFailure(t *testing.T) {
	analyzer := newBrokenAnalyzer(t)
	host := agent.New("text_analyzer", TaskType, agent.WithLogger(testutil.NewMockLogger()))
	require.NoError(t, analyzer.RegisterWith(host))

	env := host.Process(context.Background(), map[string]any{"text": "hello"}, "")

	require.NoError(t, testutil.AssertErrorData(env, agent.ErrorKindScriptNotFound))
}
