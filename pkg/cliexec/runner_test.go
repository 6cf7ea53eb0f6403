package cliexec

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	chunks []Chunk
}

func (s *recordingSink) Chunk(c Chunk) { s.chunks = append(s.chunks, c) }

func TestInvokeSuccessParsesResultAndChunks(t *testing.T) {
	script := `
echo '{"type":"assistant","message":{"content":[{"type":"text","text":"hello"}]}}'
echo '{"type":"tool_use","name":"grep"}'
echo '{"type":"result","total_cost_usd":0.0123,"usage":{"input_tokens":10,"output_tokens":20}}'
`
	sink := &recordingSink{}
	r := New()
	res, err := r.Invoke(context.Background(), Invocation{
		Binary: "sh",
		Env:    map[string]string{},
		Sink:   sink,
	}.withScript(script))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 0.0123, res.CostUSD)
	assert.Equal(t, 10, res.InputTokens)
	assert.Equal(t, 20, res.OutputTokens)
	assert.Contains(t, res.Output, "hello")
	require.Len(t, sink.chunks, 2)
	assert.Equal(t, RecordAssistant, sink.chunks[0].Type)
	assert.Equal(t, RecordToolUse, sink.chunks[1].Type)
}

func TestInvokeNoResultRecordIsUnsuccessful(t *testing.T) {
	script := `echo '{"type":"assistant","message":{"content":[{"type":"text","text":"partial"}]}}'`
	r := New()
	res, err := r.Invoke(context.Background(), Invocation{Binary: "sh"}.withScript(script))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 0.0, res.CostUSD)
}

func TestInvokeMalformedLineIsSkippedNotFatal(t *testing.T) {
	script := `
echo 'not json'
echo '{"type":"result","total_cost_usd":1.0,"usage":{"input_tokens":1,"output_tokens":1}}'
`
	r := New()
	res, err := r.Invoke(context.Background(), Invocation{Binary: "sh"}.withScript(script))
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestInvokeTimeout(t *testing.T) {
	script := `sleep 2`
	r := New()
	_, err := r.Invoke(context.Background(), Invocation{
		Binary:  "sh",
		Timeout: 50 * time.Millisecond,
	}.withScript(script))
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestInvokeNonZeroExit(t *testing.T) {
	script := `exit 3`
	r := New()
	_, err := r.Invoke(context.Background(), Invocation{Binary: "sh"}.withScript(script))
	var exitErr *NonZeroExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode)
}

// withScript is a test-only helper that drives Invoke against a plain
// shell script rather than the real CLI binary, by replacing the
// package-level argsBuilder (it is not restored afterwards).
func (inv Invocation) withScript(script string) Invocation {
	argsBuilder = func(Invocation) []string { return []string{"-c", script} }
	return inv
}
