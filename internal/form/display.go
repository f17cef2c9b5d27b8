package form

import "github.com/smileynet/signup/internal/signup"

// ErrorDisplay decides which fields render their violations. Fields missing
// from the table are not rendered.
type ErrorDisplay map[signup.Field]bool

// DefaultErrorDisplay shows email and password violations only. Name and
// phone number are still validated and block submission.
func DefaultErrorDisplay() ErrorDisplay {
	return ErrorDisplay{
		signup.FieldName:        false,
		signup.FieldEmail:       true,
		signup.FieldPassword:    true,
		signup.FieldPhoneNumber: false,
	}
}

// AllErrorDisplay shows violations for every field.
func AllErrorDisplay() ErrorDisplay {
	d := ErrorDisplay{}
	for _, f := range signup.Fields() {
		d[f] = true
	}
	return d
}

// Shows reports whether violations on f are rendered.
func (d ErrorDisplay) Shows(f signup.Field) bool {
	return d[f]
}

// Visible returns the subset of v that should be rendered.
func (d ErrorDisplay) Visible(v signup.Violations) signup.Violations {
	out := signup.Violations{}
	for f, msgs := range v {
		if d.Shows(f) {
			out[f] = append([]string(nil), msgs...)
		}
	}
	return out
}
