package stream

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askbudi/juno-code/render"
)

func fixedRenderer() *render.Renderer {
	ts := time.Date(2025, 3, 14, 15, 4, 5, 0, time.UTC)
	return render.New(render.WithClock(func() time.Time { return ts }))
}

// runShell drives one `sh -c script` child through a fresh Driver and
// returns the captured streams.
func runShell(t *testing.T, script string, opts ...Option) (code int, out, errOut string) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	opts = append([]Option{
		WithOutput(&stdout),
		WithErrOutput(&stderr),
		WithRenderer(fixedRenderer()),
	}, opts...)
	d := New(opts...)

	code, err := d.Run(context.Background(), "sh", []string{"-c", script}, "")
	require.NoError(t, err)
	return code, stdout.String(), stderr.String()
}

func TestDriverRendersSurvivingEvents(t *testing.T) {
	script := `printf '%s\n' '{"msg":{"type":"agent_message","message":"Hello\nWorld"}}' '{"msg":{"type":"token_count","input":5}}'`

	code, out, errOut := runShell(t, script)

	assert.Equal(t, 0, code)
	assert.Empty(t, errOut)
	want := `{"type":"agent_message","datetime":"03:04:05 PM","counter":"#1"}` +
		"\nmessage:\nHello\nWorld\n"
	assert.Equal(t, want, out, "token_count must produce no output at all")
}

func TestDriverTracksTokenUsageWithoutEmitting(t *testing.T) {
	var stdout bytes.Buffer
	d := New(WithOutput(&stdout), WithRenderer(fixedRenderer()))

	script := `printf '%s\n' '{"msg":{"type":"token_count","input":5,"output":9}}'`
	code, err := d.Run(context.Background(), "sh", []string{"-c", script}, "")
	require.NoError(t, err)

	assert.Equal(t, 0, code)
	assert.Empty(t, stdout.String())
	usage := d.LastTokenUsage()
	require.NotNil(t, usage)
	in, ok := usage.Int("input")
	assert.True(t, ok)
	assert.EqualValues(t, 5, in)
}

func TestDriverTokenUsageFlush(t *testing.T) {
	script := `printf '%s\n' '{"msg":{"type":"token_count","input":5}}'`

	_, out, _ := runShell(t, script, WithTokenUsageFlush(true))

	assert.Equal(t, `{"datetime":"03:04:05 PM","counter":"#1","type":"token_count","input":5}`+"\n", out)
}

func TestDriverReassemblesAcrossReads(t *testing.T) {
	script := `printf '%s' '{"msg":{"typ'; sleep 0.2; printf '%s\n' 'e":"agent_message","message":"hi"}}'`

	code, out, _ := runShell(t, script)

	assert.Equal(t, 0, code)
	assert.Equal(t, `{"type":"agent_message","datetime":"03:04:05 PM","counter":"#1","message":"hi"}`+"\n", out)
}

func TestDriverPrettyPrintedObjects(t *testing.T) {
	// one suppressed and one rendered event, both indented across many
	// physical lines the way json.MarshalIndent output arrives
	script := `printf '%s\n' '{' '  "msg": {' '    "type": "token_count",' '    "input": 5' '  }' '}' '{' '  "msg": {' '    "type": "agent_message",' '    "message": "hi"' '  }' '}'`

	code, out, _ := runShell(t, script)

	assert.Equal(t, 0, code)
	assert.Equal(t, `{"type":"agent_message","datetime":"03:04:05 PM","counter":"#1","message":"hi"}`+"\n", out)
	assert.NotContains(t, out, "  \"", "no raw indented fragment may reach output")
}

func TestDriverCounterSkipsSuppressed(t *testing.T) {
	script := `printf '%s\n' '{"msg":{"type":"agent_message","message":"a"}}' '{"msg":{"type":"token_count","input":1}}' '{"msg":{"type":"agent_message","message":"b"}}'`

	_, out, _ := runShell(t, script)

	assert.Contains(t, out, `"counter":"#1","message":"a"`)
	assert.Contains(t, out, `"counter":"#2","message":"b"`)
	assert.NotContains(t, out, "token_count")
}

func TestDriverRawTextPassthrough(t *testing.T) {
	script := `printf '%s\n' 'starting up...' '{"msg":{"type":"agent_message","message":"ok"}}'`

	_, out, _ := runShell(t, script)

	assert.Contains(t, out, "starting up...\n")
	assert.Contains(t, out, `"message":"ok"`)
}

func TestDriverSuppressesUnparseableSpansByName(t *testing.T) {
	// a suppressed kind must not leak even when its span cannot be parsed
	script := `printf '%s\n' 'partial "token_count" fragment that never parses'`

	_, out, _ := runShell(t, script)

	assert.Empty(t, out)
}

func TestDriverRawMode(t *testing.T) {
	script := `printf '%s\n' '{"msg":{"type":"token_count","input":5}}' 'noise'`

	var stdout bytes.Buffer
	d := New(WithOutput(&stdout), WithPretty(false))
	code, err := d.Run(context.Background(), "sh", []string{"-c", script}, "")
	require.NoError(t, err)

	assert.Equal(t, 0, code)
	assert.Equal(t, `{"msg":{"type":"token_count","input":5}}`+"\nnoise\n", stdout.String())
	assert.Nil(t, d.LastTokenUsage(), "raw mode does not inspect events")
}

func TestDriverJSONRepair(t *testing.T) {
	// trailing comma: balanced braces, invalid JSON
	script := `printf '%s\n' '{"type":"agent_message","message":"hi",}'`

	t.Run("disabled passes the span through raw", func(t *testing.T) {
		_, out, _ := runShell(t, script)
		assert.Equal(t, `{"type":"agent_message","message":"hi",}`+"\n", out)
	})

	t.Run("enabled repairs and renders", func(t *testing.T) {
		_, out, _ := runShell(t, script, WithJSONRepair(true))
		assert.Contains(t, out, `"type":"agent_message"`)
		assert.Contains(t, out, `"counter":"#1"`)
		assert.Contains(t, out, `"message":"hi"`)
	})
}

func TestDriverExitCodePropagates(t *testing.T) {
	code, _, _ := runShell(t, "exit 3")
	assert.Equal(t, 3, code)
}

func TestDriverStderrSurfacedOnFailure(t *testing.T) {
	code, out, errOut := runShell(t, `echo boom >&2; exit 3`)

	assert.Equal(t, 3, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "boom")
}

func TestDriverStderrQuietOnSuccess(t *testing.T) {
	script := `echo noise >&2; printf '%s\n' '{"type":"agent_message","message":"ok"}'`

	code, out, errOut := runShell(t, script)

	assert.Equal(t, 0, code)
	assert.Contains(t, out, `"message":"ok"`)
	assert.Empty(t, errOut, "stderr is only surfaced on non-zero exit")
}

func TestDriverCLINotFound(t *testing.T) {
	d := New(WithOutput(&bytes.Buffer{}))

	code, err := d.Run(context.Background(), "definitely-not-a-real-binary-xyz", nil, "")

	assert.Equal(t, 1, code)
	var notFound *CLINotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "definitely-not-a-real-binary-xyz", notFound.Name)
}

func TestDriverInterrupt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	d := New(WithOutput(&bytes.Buffer{}), WithErrOutput(&bytes.Buffer{}))
	start := time.Now()
	code, err := d.Run(ctx, "sleep", []string{"5"}, "")

	require.NoError(t, err)
	assert.Equal(t, ExitInterrupted, code)
	assert.Less(t, time.Since(start), 3*time.Second, "cancellation must not wait out the child")
}

func TestDriverRejectsConcurrentRuns(t *testing.T) {
	d := New(WithOutput(&bytes.Buffer{}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = d.Run(context.Background(), "sleep", []string{"1"}, "")
	}()
	time.Sleep(100 * time.Millisecond)

	_, err := d.Run(context.Background(), "sleep", []string{"1"}, "")
	assert.ErrorIs(t, err, ErrDriverBusy)
	<-done
}
