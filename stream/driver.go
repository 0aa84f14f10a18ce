// Package stream runs a wrapped agent CLI and normalizes its structured
// stdout: chunks are reassembled into complete JSON objects, classified,
// filtered, and rendered one event at a time, in arrival order. The
// wrapper's exit status mirrors the child's.
package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/askbudi/juno-code/event"
	"github.com/askbudi/juno-code/internal/procattr"
	"github.com/askbudi/juno-code/render"
)

// ExitInterrupted is the wrapper's exit status when the run is canceled
// before the child reports its own status.
const ExitInterrupted = 130

// stopGrace is how long the child gets after SIGTERM before its process
// group is killed.
const stopGrace = 500 * time.Millisecond

const readBufferSize = 4096

// Driver owns one child-process invocation: it pumps stdout through the
// reassemble → normalize → filter → render pipeline and tracks the
// per-stream counter and token-usage cell. A Driver is single-threaded
// and must not be shared by concurrent runs.
type Driver struct {
	out        io.Writer
	errOut     io.Writer
	filter     *event.Filter
	renderer   *render.Renderer
	pretty     bool
	repair     bool
	flushUsage bool
	env        []string

	mu      sync.Mutex
	running bool

	scanner   *Scanner
	counter   int
	lastUsage *event.Payload
}

// Option configures a Driver.
type Option func(*Driver)

// WithOutput redirects the rendered event stream (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(d *Driver) { d.out = w }
}

// WithErrOutput redirects surfaced child stderr (default os.Stderr).
func WithErrOutput(w io.Writer) Option {
	return func(d *Driver) { d.errOut = w }
}

// WithFilter replaces the suppression filter.
func WithFilter(f *event.Filter) Option {
	return func(d *Driver) { d.filter = f }
}

// WithRenderer replaces the event renderer.
func WithRenderer(r *render.Renderer) Option {
	return func(d *Driver) { d.renderer = r }
}

// WithPretty toggles normalization. When off, the child's stdout is
// copied through untouched.
func WithPretty(pretty bool) Option {
	return func(d *Driver) { d.pretty = pretty }
}

// WithJSONRepair enables a best-effort repair pass on spans that fail to
// parse, before the raw-text fallback.
func WithJSONRepair(enabled bool) Option {
	return func(d *Driver) { d.repair = enabled }
}

// WithTokenUsageFlush emits the retained token-usage event once at stream
// end instead of discarding it with the run.
func WithTokenUsageFlush(enabled bool) Option {
	return func(d *Driver) { d.flushUsage = enabled }
}

// WithEnv adds variables to the child's environment on top of the
// wrapper's own.
func WithEnv(env map[string]string) Option {
	return func(d *Driver) {
		for k, v := range env {
			d.env = append(d.env, k+"="+v)
		}
	}
}

// New returns a Driver wired to stdout/stderr with the default filter
// and renderer.
func New(opts ...Option) *Driver {
	d := &Driver{
		out:      os.Stdout,
		errOut:   os.Stderr,
		filter:   event.NewFilter(event.SuppressedFromEnv()...),
		renderer: render.New(),
		pretty:   true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run launches the CLI and pumps its stdout through the pipeline until
// the process exits. The returned status is the child's own exit code, or
// ExitInterrupted when ctx was canceled first. Pipeline state is owned by
// the run and reset on entry.
func (d *Driver) Run(ctx context.Context, name string, args []string, dir string) (int, error) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return 1, ErrDriverBusy
	}
	d.running = true
	d.scanner = NewScanner()
	d.counter = 0
	d.lastUsage = nil
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), d.env...)
	procattr.Set(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 1, &ProcessError{Message: "failed to create stdout pipe", Cause: err}
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return 1, &CLINotFoundError{Name: name, Cause: err}
		}
		return 1, &ProcessError{Message: "failed to start CLI process", Cause: err}
	}
	slog.Debug("CLI process started", "name", name, "pid", cmd.Process.Pid)

	// Graceful shutdown on cancellation: SIGTERM → grace → SIGKILL,
	// group-wide so the child's own children don't outlive it.
	waitDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = procattr.SignalGroup(cmd.Process, syscall.SIGTERM)
			select {
			case <-waitDone:
			case <-time.After(stopGrace):
				_ = procattr.KillGroup(cmd.Process)
			}
		case <-waitDone:
		}
	}()

	pumpErr := d.pump(stdout)
	if d.pretty {
		d.finish()
	}

	waitErr := cmd.Wait()
	close(waitDone)

	if ctx.Err() != nil {
		d.surfaceStderr(&stderr)
		return ExitInterrupted, nil
	}
	if pumpErr != nil {
		return 1, &ProcessError{Message: "reading CLI stdout", Cause: pumpErr}
	}

	code := 0
	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
	case errors.As(waitErr, &exitErr):
		code = exitErr.ExitCode()
		if code < 0 {
			// killed by a signal; there is no child-reported status
			code = 1
		}
	default:
		return 1, &ProcessError{Message: "waiting for CLI process", Cause: waitErr}
	}

	if code != 0 {
		d.surfaceStderr(&stderr)
	}
	return code, nil
}

// LastTokenUsage returns the most recent token-usage payload seen on the
// stream, or nil. Meaningful after Run returns.
func (d *Driver) LastTokenUsage() *event.Payload {
	return d.lastUsage
}

// pump reads stdout in chunks and pushes them through the pipeline. In
// raw mode chunks are copied through untouched.
func (d *Driver) pump(r io.Reader) error {
	buf := make([]byte, readBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if d.pretty {
				d.consume(buf[:n])
			} else if _, werr := d.out.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (d *Driver) consume(chunk []byte) {
	for _, span := range d.scanner.Feed(chunk) {
		d.emit(span)
	}
}

// emit routes one span: objects are normalized, filtered, and rendered;
// text and unparseable spans pass through raw, guarded by the quoted-name
// suppression heuristic.
func (d *Driver) emit(span Span) {
	if span.Type == SpanText {
		if !d.filter.DropsRaw(span.Text) {
			_, _ = io.WriteString(d.out, span.Text)
		}
		return
	}

	raw := span.Text
	root, err := event.ParsePayload([]byte(raw))
	if err != nil && d.repair {
		if repaired, rerr := jsonrepair.JSONRepair(raw); rerr == nil {
			if fixed, perr := event.ParsePayload([]byte(repaired)); perr == nil {
				root, err = fixed, nil
			}
		}
	}
	if err != nil {
		slog.Debug("span is not valid JSON, passing through", "error", err)
		if !d.filter.DropsRaw(raw) {
			fmt.Fprintln(d.out, raw)
		}
		return
	}

	ev := event.Normalize(root)
	if ev.Kind == event.KindTokenUsage {
		// tracked in a one-slot cell, never part of the output stream
		d.lastUsage = ev.Payload
		return
	}
	if d.filter.Drops(ev.Kind) {
		return
	}
	d.write(ev, raw)
}

// write renders one surviving event. The counter is consumed only when
// rendering succeeds; a render failure re-emits the original span.
func (d *Driver) write(ev *event.Event, raw string) {
	out, ok := d.renderer.Render(ev, d.counter+1)
	if !ok {
		fmt.Fprintln(d.out, raw)
		return
	}
	d.counter++
	fmt.Fprintln(d.out, out)
}

// finish runs at stream end: an unterminated partial object is dropped,
// and the retained token usage is flushed only when configured to be.
func (d *Driver) finish() {
	if d.scanner.Pending() {
		slog.Debug("discarding unterminated object at stream end")
	}
	for _, span := range d.scanner.Close() {
		d.emit(span)
	}
	if d.flushUsage && d.lastUsage != nil {
		d.write(&event.Event{
			Kind:    event.KindTokenUsage,
			Payload: d.lastUsage,
			Root:    d.lastUsage,
		}, "")
	}
}

func (d *Driver) surfaceStderr(buf *bytes.Buffer) {
	if buf.Len() == 0 {
		return
	}
	_, _ = d.errOut.Write(buf.Bytes())
	if !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
		fmt.Fprintln(d.errOut)
	}
}
