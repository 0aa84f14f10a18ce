package event

import "strings"

// MessageText returns the first human-readable text found in the payload
// and the field name it came from. The chain covers every name the source
// schemas use for the same concept; callers label output blocks with the
// reported field so the consumer sees where the text lived.
func (p *Payload) MessageText() (text, field string) {
	for _, key := range []string{"message", "text", "final", "response", "output", "content", "result"} {
		if s := p.Str(key); strings.TrimSpace(s) != "" {
			return s, key
		}
	}
	if res := p.Map("result"); res != nil {
		if s := res.Str("message"); strings.TrimSpace(s) != "" {
			return s, "message"
		}
		if s := res.Str("text"); strings.TrimSpace(s) != "" {
			return s, "text"
		}
	}
	if s := JoinContent(p.List("content")); s != "" {
		return s, "content"
	}
	return "", ""
}

// OutputText returns command/tool output text and its source field.
func (p *Payload) OutputText() (text, field string) {
	for _, key := range []string{"formatted_output", "aggregated_output", "output", "stdout"} {
		if s := p.Str(key); strings.TrimSpace(s) != "" {
			return s, key
		}
	}
	return "", ""
}

// JoinContent flattens a content[] array into newline-joined text: object
// entries contribute their text/response/output field, string entries
// contribute themselves, blanks are skipped.
func JoinContent(list []any) string {
	var parts []string
	for _, entry := range list {
		switch val := entry.(type) {
		case *Payload:
			if s := val.FirstStr("text", "response", "output"); strings.TrimSpace(s) != "" {
				parts = append(parts, s)
			}
		case string:
			if strings.TrimSpace(val) != "" {
				parts = append(parts, val)
			}
		}
	}
	return strings.Join(parts, "\n")
}
