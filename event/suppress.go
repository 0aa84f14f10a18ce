package event

import (
	"os"
	"strings"
)

// Environment variables naming extra suppressed kinds, comma-separated.
// Both are honored and merged: CODEX_SUPPRESS_EVENTS predates the
// service-neutral name and existing deployments still set it.
const (
	SuppressEnv       = "JUNO_SUPPRESS_EVENTS"
	SuppressEnvLegacy = "CODEX_SUPPRESS_EVENTS"
)

// DefaultSuppressedKinds returns the built-in suppressed set: running
// usage totals, whole-turn diff bodies and incremental output deltas,
// the high-frequency events a consumer never displays.
func DefaultSuppressedKinds() []string {
	return []string{KindTokenUsage, "turn_diff", "exec_command_output_delta"}
}

// Filter decides whether an event kind is dropped before rendering.
type Filter struct {
	kinds  map[string]struct{}
	quoted []string
}

// NewFilter builds a filter from the default suppressed set plus extra
// kinds. Extras merge with the defaults; nothing removes a default.
func NewFilter(extra ...string) *Filter {
	f := &Filter{kinds: make(map[string]struct{})}
	for _, kind := range DefaultSuppressedKinds() {
		f.add(kind)
	}
	for _, kind := range extra {
		f.add(kind)
	}
	return f
}

func (f *Filter) add(kind string) {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return
	}
	if _, ok := f.kinds[kind]; ok {
		return
	}
	f.kinds[kind] = struct{}{}
	f.quoted = append(f.quoted, `"`+strings.ToLower(kind)+`"`)
}

// SuppressedFromEnv reads both override variables and returns the merged
// extra-kind list, trimmed, with empties dropped.
func SuppressedFromEnv() []string {
	var kinds []string
	for _, name := range []string{SuppressEnv, SuppressEnvLegacy} {
		for _, part := range strings.Split(os.Getenv(name), ",") {
			if part = strings.TrimSpace(part); part != "" {
				kinds = append(kinds, part)
			}
		}
	}
	return kinds
}

// Drops reports whether events of this kind are suppressed.
func (f *Filter) Drops(kind string) bool {
	_, ok := f.kinds[kind]
	return ok
}

// DropsRaw reports whether an unparseable span should be dropped because
// it contains a suppressed kind as a quoted name. Case-insensitive and
// deliberately conservative: losing one malformed line beats leaking a
// high-volume suppressed event that arrived truncated.
func (f *Filter) DropsRaw(span string) bool {
	lower := strings.ToLower(span)
	for _, q := range f.quoted {
		if strings.Contains(lower, q) {
			return true
		}
	}
	return false
}
