package stream

import "strings"

// SpanType discriminates what a reassembled span holds.
type SpanType int

const (
	// SpanText is non-JSON output found between objects, preserved verbatim.
	SpanText SpanType = iota
	// SpanObject is one syntactically complete top-level JSON object.
	SpanObject
)

// Span is one reassembled piece of child output.
type Span struct {
	Type SpanType
	Text string
}

// Scanner reassembles complete top-level JSON objects from output that
// arrives split at arbitrary byte offsets. Brace depth, in-string state,
// and escape state carry across feeds, so braces inside string values
// never open or close an object and a split may land anywhere, including
// mid-escape.
//
// Only a partial object is ever carried between feeds: text between
// objects flushes at the end of the feed that produced it, so the carry
// buffer can never hold a complete balanced object.
type Scanner struct {
	pending  strings.Builder
	depth    int
	inString bool
	escaped  bool
}

// NewScanner returns a Scanner with empty carry state. One Scanner serves
// one stream; state is not reusable across child invocations.
func NewScanner() *Scanner {
	return &Scanner{}
}

// eventSeparator is ASCII DEL, which one CLI emits between events. It is
// whitespace as far as framing is concerned.
const eventSeparator = 0x7f

// Feed consumes one chunk and returns the spans it completes, in input
// order. Whitespace-only text between objects is dropped; anything else
// is returned verbatim as a text span.
func (s *Scanner) Feed(chunk []byte) []Span {
	var spans []Span
	var text strings.Builder

	flushText := func() {
		if text.Len() == 0 {
			return
		}
		t := text.String()
		text.Reset()
		if strings.TrimSpace(t) == "" {
			return
		}
		spans = append(spans, Span{Type: SpanText, Text: t})
	}

	for i := 0; i < len(chunk); i++ {
		c := chunk[i]

		if s.depth == 0 {
			if c == '{' {
				flushText()
				s.pending.Reset()
				s.pending.WriteByte(c)
				s.depth = 1
				s.inString = false
				s.escaped = false
				continue
			}
			if c != eventSeparator {
				text.WriteByte(c)
			}
			continue
		}

		s.pending.WriteByte(c)
		if s.escaped {
			s.escaped = false
			continue
		}
		switch c {
		case '\\':
			if s.inString {
				s.escaped = true
			}
		case '"':
			s.inString = !s.inString
		case '{':
			if !s.inString {
				s.depth++
			}
		case '}':
			if !s.inString {
				s.depth--
				if s.depth == 0 {
					spans = append(spans, Span{Type: SpanObject, Text: s.pending.String()})
					s.pending.Reset()
				}
			}
		}
	}

	flushText()
	return spans
}

// Pending reports whether a partial object is being carried.
func (s *Scanner) Pending() bool {
	return s.depth > 0
}

// Close ends the stream, discarding any partial object still pending. A
// child that exits mid-object produced no usable event, so the tail is
// dropped rather than surfaced as garbage. Text never pends across feeds,
// so Close has nothing to flush.
func (s *Scanner) Close() []Span {
	s.pending.Reset()
	s.depth = 0
	s.inString = false
	s.escaped = false
	return nil
}
