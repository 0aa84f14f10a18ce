// Package render turns canonical events into the wrapper's output blocks:
// one compact JSON header line, optionally followed by a field label and the
// verbatim multi-line text, so the consumer can split the stream on header
// lines without re-parsing large blobs.
package render

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/askbudi/juno-code/event"
)

// timeLayout matches the wall-clock stamps the original services emitted.
const timeLayout = "03:04:05 PM"

// truncationMarker ends a user message cut at the configured line limit.
const truncationMarker = "[Truncated...]"

// DefaultUserTruncateLines is the user-message line limit when none is
// configured. Tool results echo back as user messages and routinely run to
// hundreds of lines; four is enough for the consumer's progress display.
const DefaultUserTruncateLines = 4

const (
	kindAssistant = "assistant"
	kindUser      = "user"
	kindInit      = "init"
	kindToolUse   = "tool_use"
)

// conversationalKinds carry human-readable text under one of the
// message-field names.
var conversationalKinds = map[string]struct{}{
	"agent_message":               {},
	"agent_reasoning":             {},
	"agent_reasoning_raw_content": {},
	"reasoning":                   {},
	"message":                     {},
	"error":                       {},
}

// actionKinds are tool/command lifecycle notifications: header-only when
// they carry no output, header + output block when they do.
var actionKinds = map[string]struct{}{
	"exec_command_begin":  {},
	"exec_command_end":    {},
	"command_execution":   {},
	"mcp_tool_call_begin": {},
	"mcp_tool_call_end":   {},
	"patch_apply_begin":   {},
	"patch_apply_end":     {},
	"tool_use":            {},
	"web_search":          {},
	"file_change":         {},
	"todo_list":           {},
}

// headerScalars are payload fields short enough to ride along in the
// header when present.
var headerScalars = []struct{ key, as string }{
	{"role", "role"},
	{"status", "status"},
	{"command", "command"},
	{"exit_code", "exit_code"},
	{"tool_name", "tool"},
	{"tool_id", "tool_id"},
	{"timestamp", "timestamp"},
	{"session_id", "session_id"},
	{"model", "model"},
	{"id", "id"},
	{"query", "query"},
}

// Renderer formats canonical events. Safe to reuse across events of one
// stream; construct per invocation.
type Renderer struct {
	clock        func() time.Time
	userTruncate int
	unwrap       map[string]struct{}
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithClock replaces the wall clock, for deterministic output.
func WithClock(clock func() time.Time) Option {
	return func(r *Renderer) { r.clock = clock }
}

// WithUserTruncate sets the user-message line limit. Negative disables
// truncation entirely.
func WithUserTruncate(lines int) Option {
	return func(r *Renderer) { r.userTruncate = lines }
}

// WithUnwrapKinds adds kinds whose content[0] object is flattened one
// level before rendering.
func WithUnwrapKinds(kinds ...string) Option {
	return func(r *Renderer) {
		for _, k := range kinds {
			r.unwrap[k] = struct{}{}
		}
	}
}

// New returns a Renderer with the defaults the original services used.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		clock:        time.Now,
		userTruncate: DefaultUserTruncateLines,
		unwrap:       map[string]struct{}{"tool_result": {}},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render formats one event. ok is false when rendering failed and the
// caller should emit the raw span instead; rendering is best-effort and
// never aborts the stream.
func (r *Renderer) Render(ev *event.Event, counter int) (out string, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Debug("event render failed, falling back to raw span", "kind", ev.Kind, "cause", rec)
			out, ok = "", false
		}
	}()

	now := r.clock().Format(timeLayout)
	count := fmt.Sprintf("#%d", counter)

	switch {
	case ev.Kind == kindAssistant || ev.Kind == kindUser:
		return r.renderChatMessage(ev, newHeader(ev, now, count)), true
	case r.unwrapped(ev.Kind):
		return r.renderUnwrapped(ev, newHeader(ev, now, count)), true
	case isConversational(ev.Kind):
		return renderConversation(ev, newHeader(ev, now, count)), true
	case isAction(ev.Kind):
		return renderAction(ev, newHeader(ev, now, count)), true
	case ev.Kind == kindInit:
		return renderInit(ev, newHeader(ev, now, count)), true
	default:
		return renderFallback(ev, now, count), true
	}
}

func (r *Renderer) unwrapped(kind string) bool {
	_, ok := r.unwrap[kind]
	return ok
}

func isConversational(kind string) bool {
	_, ok := conversationalKinds[kind]
	return ok
}

func isAction(kind string) bool {
	_, ok := actionKinds[kind]
	return ok
}

// newHeader starts the compact header every event carries. When the
// wrapper type differs from the item's own, the header discloses both.
func newHeader(ev *event.Event, now, count string) *event.Payload {
	h := event.NewPayload()
	if ev.OuterKind != "" {
		h.Set("type", ev.OuterKind)
		h.Set("item_type", ev.Kind)
	} else {
		h.Set("type", ev.Kind)
	}
	h.Set("datetime", now)
	h.Set("counter", count)
	return h
}

// copyScalars lifts short metadata fields from the payload into the
// header. Objects and arrays stay behind; only values that fit a one-line
// summary ride along.
func copyScalars(h, payload *event.Payload) {
	for _, sc := range headerScalars {
		v, present := payload.Get(sc.key)
		if !present || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			if val != "" {
				h.Set(sc.as, val)
			}
		case bool, json.Number:
			h.Set(sc.as, val)
		}
	}
	if payload.Truthy("delta") {
		h.Set("delta", true)
	}
}

// textBlock applies the single-line-vs-body rule: multi-line text becomes
// a labeled block under the header, anything else inlines under its
// source field name.
func textBlock(h *event.Payload, field, text string) string {
	if strings.Contains(text, "\n") {
		return marshalHeader(h) + "\n" + field + ":\n" + text
	}
	if text != "" {
		h.Set(field, text)
	}
	return marshalHeader(h)
}

func marshalHeader(h *event.Payload) string {
	b, err := json.Marshal(h)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// renderChatMessage handles the claude-style assistant/user shape: the
// text lives in message.content[] blocks. The first recognized block
// wins: text inlines or becomes a content block, tool_use stays a compact
// one-liner, tool_result contributes its nested output. User messages are
// truncated to the configured line limit; assistant messages never are.
func (r *Renderer) renderChatMessage(ev *event.Event, h *event.Payload) string {
	msg := ev.Payload.Map("message")
	text := msg.Str("content")
scan:
	for _, raw := range msg.List("content") {
		block, isObj := raw.(*event.Payload)
		if !isObj {
			continue
		}
		switch block.Str("type") {
		case "text":
			text = block.Str("text")
			break scan
		case "tool_use":
			use := event.NewPayload()
			use.Set("name", block.Str("name"))
			if input := block.Map("input"); input != nil {
				use.Set("input", input)
			} else {
				use.Set("input", event.NewPayload())
			}
			h.Set("tool_use", use)
			return marshalHeader(h)
		case "tool_result":
			text = toolResultText(block)
			hoistToolResultScalars(h, block)
			break scan
		}
	}

	if ev.Kind == kindUser {
		text = truncateLines(text, r.userTruncate)
	}
	if strings.Contains(text, "\n") {
		return marshalHeader(h) + "\ncontent:\n" + text
	}
	// the consumer expects a content key on chat messages even when empty
	h.Set("content", text)
	return marshalHeader(h)
}

// renderUnwrapped flattens nested-content wrappers: content[0] carries the
// real payload one level down, so its kind, scalars, and text are hoisted
// instead of re-emitting the wrapper literally.
func (r *Renderer) renderUnwrapped(ev *event.Event, h *event.Payload) string {
	var nested *event.Payload
	if list := ev.Payload.List("content"); len(list) > 0 {
		nested, _ = list[0].(*event.Payload)
	}
	if nested == nil {
		// no nesting after all; fall back to the plain text chain
		copyScalars(h, ev.Payload)
		text, field := ev.Payload.MessageText()
		return textBlock(h, field, text)
	}

	if kind := strings.TrimSpace(nested.Str("type")); kind != "" && kind != ev.Kind {
		h.Set("item_type", kind)
	}
	hoistToolResultScalars(h, nested)
	return textBlock(h, "content", toolResultText(nested))
}

func toolResultText(block *event.Payload) string {
	if s := block.Str("content"); s != "" {
		return s
	}
	if s := event.JoinContent(block.List("content")); s != "" {
		return s
	}
	return block.FirstStr("output", "result")
}

func hoistToolResultScalars(h, block *event.Payload) {
	if s := block.Str("tool_use_id"); s != "" {
		h.Set("tool_use_id", s)
	}
	if v, present := block.Get("is_error"); present {
		if b, isBool := v.(bool); isBool {
			h.Set("is_error", b)
		}
	}
}

func renderConversation(ev *event.Event, h *event.Payload) string {
	copyScalars(h, ev.Payload)
	text, field := ev.Payload.MessageText()
	return textBlock(h, field, text)
}

func renderAction(ev *event.Event, h *event.Payload) string {
	copyScalars(h, ev.Payload)
	if text, field := ev.Payload.OutputText(); text != "" {
		return textBlock(h, field, text)
	}
	if ev.Kind == kindToolUse {
		return renderToolUse(ev, h)
	}
	// a started/progress notification: header context only
	return marshalHeader(h)
}

// renderToolUse summarizes an invocation that carries no output yet: the
// parameters object rides in the header plus a compact-JSON content string.
func renderToolUse(ev *event.Event, h *event.Payload) string {
	params, present := ev.Payload.Get("parameters")
	if !present {
		params, present = ev.Payload.Get("tool_use")
	}
	if !present {
		params, present = ev.Payload.Get("input")
	}
	if !present || params == nil {
		return marshalHeader(h)
	}

	switch val := params.(type) {
	case *event.Payload, []any:
		h.Set("parameters", val)
		b, err := json.Marshal(compactValue{val})
		if err != nil {
			panic(err)
		}
		h.Set("content", string(b))
	case string:
		h.Set("content", val)
	default:
		h.Set("content", fmt.Sprintf("%v", val))
	}
	return marshalHeader(h)
}

// compactValue wraps arbitrary payload values so nested *event.Payload
// marshals through its ordered encoder.
type compactValue struct {
	v any
}

func (c compactValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.v)
}

func renderInit(ev *event.Event, h *event.Payload) string {
	copyScalars(h, ev.Payload)
	if text, field := ev.Payload.MessageText(); text != "" {
		return textBlock(h, field, text)
	}
	summary := event.NewPayload()
	for _, key := range []string{"session_id", "model"} {
		if s := ev.Payload.Str(key); s != "" {
			summary.Set(key, s)
		}
	}
	if summary.Len() > 0 {
		b, err := json.Marshal(summary)
		if err != nil {
			panic(err)
		}
		h.Set("content", string(b))
	}
	return marshalHeader(h)
}

// renderFallback re-emits the full original object behind the stamp
// fields, in source key order, the way the original services merged
// unrecognized events. A multi-line result string is popped out of the
// header and emitted as the body.
func renderFallback(ev *event.Event, now, count string) string {
	merged := event.NewPayload()
	merged.Set("datetime", now)
	merged.Set("counter", count)
	// envelope events carry their type inside msg; the header still needs
	// one at the top level or the consumer cannot spot the boundary
	if _, present := ev.Root.Get("type"); !present {
		kind := ev.OuterKind
		if kind == "" {
			kind = ev.Kind
		}
		merged.Set("type", kind)
	}
	for k, v := range ev.Root.All() {
		merged.Set(k, v)
	}

	if v, present := merged.Get("result"); present {
		if s, isStr := v.(string); isStr && strings.Contains(s, "\n") {
			merged.Delete("result")
			return marshalHeader(merged) + "\nresult:\n" + s
		}
	}
	return marshalHeader(merged)
}

// truncateLines keeps the first limit lines of text and appends the
// truncation marker. A negative limit disables truncation; text at or
// under the limit is untouched.
func truncateLines(text string, limit int) string {
	if limit < 0 || text == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) <= limit {
		return text
	}
	kept := strings.Join(lines[:limit], "\n")
	if kept == "" {
		return truncationMarker
	}
	return kept + "\n" + truncationMarker
}
