package event

import "strings"

// Kinds with dedicated handling in the pipeline.
const (
	// KindTokenUsage is the running usage-total event: tracked in a
	// single-slot cell by the driver, never printed.
	KindTokenUsage = "token_count"

	// KindFallbackMessage is the last-resort kind for objects carrying no
	// usable type field.
	KindFallbackMessage = "message"
)

// Event is the canonical form every source schema normalizes into.
type Event struct {
	// Kind is the most specific event type: msg.type for the envelope
	// schema, item.type for the item schema, the object's own type
	// otherwise.
	Kind string

	// OuterKind is the wrapper's type when it differs from Kind, e.g.
	// "item.completed" around a "command_execution" item. Empty when the
	// two coincide or no wrapper exists.
	OuterKind string

	// Payload is the object Kind was read from.
	Payload *Payload

	// Root is the full original object, kept for the renderer's
	// emit-everything fallback.
	Root *Payload
}

// Normalize classifies one decoded object. It never rejects: an object
// matching no schema still comes back with Kind "message".
func Normalize(root *Payload) *Event {
	outer := typeName(root)

	inner := root.Map("msg")
	if inner == nil {
		inner = root.Map("item")
	}
	if inner != nil {
		kind := typeName(inner)
		if kind == "" {
			kind = KindFallbackMessage
		}
		ev := &Event{Kind: kind, Payload: inner, Root: root}
		if outer != "" && outer != kind {
			ev.OuterKind = outer
		}
		return ev
	}

	kind := outer
	if kind == "" {
		kind = KindFallbackMessage
	}
	return &Event{Kind: kind, Payload: root, Root: root}
}

// typeName extracts an event type, trying "type" then the older "event"
// field, trimmed. Empty means neither carried a usable string.
func typeName(p *Payload) string {
	if s := strings.TrimSpace(p.Str("type")); s != "" {
		return s
	}
	return strings.TrimSpace(p.Str("event"))
}
