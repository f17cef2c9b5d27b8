package signup

import (
	"fmt"
	"strings"
)

// Violations maps a field to the messages of the rules it broke.
// A non-empty Violations is returned as the error from Validate.
type Violations map[Field][]string

func (v Violations) add(f Field, msg string) {
	v[f] = append(v[f], msg)
}

// Has reports whether f has at least one violation.
func (v Violations) Has(f Field) bool {
	return len(v[f]) > 0
}

// Messages returns the messages recorded for f.
func (v Violations) Messages(f Field) []string {
	return v[f]
}

// First returns the first message for f, or "" if f is valid.
func (v Violations) First(f Field) string {
	if msgs := v[f]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Fields returns the violated fields in form order.
func (v Violations) Fields() []Field {
	var out []Field
	for _, f := range Fields() {
		if v.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Clone returns a deep copy of v.
func (v Violations) Clone() Violations {
	if v == nil {
		return nil
	}
	out := make(Violations, len(v))
	for f, msgs := range v {
		out[f] = append([]string(nil), msgs...)
	}
	return out
}

func (v Violations) Error() string {
	parts := make([]string, 0, len(v))
	for _, f := range v.Fields() {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(v[f], ", ")))
	}
	return "signup: invalid input: " + strings.Join(parts, "; ")
}
