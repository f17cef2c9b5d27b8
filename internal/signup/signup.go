// Package signup defines the sign-up record and the schema it must satisfy
// before it is handed to a submitter.
package signup

import (
	"errors"
	"math"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Field names a sign-up form field. Values match the json keys of Input.
type Field string

const (
	FieldName        Field = "name"
	FieldEmail       Field = "email"
	FieldPassword    Field = "password"
	FieldPhoneNumber Field = "phone_number"
)

// Violation messages. The phone message talks about characters although the
// rule checks the numeric value; the wording is kept as users already see it.
const (
	MsgName        = "Name must be at least 3 characters long!"
	MsgEmail       = "Invalid email"
	MsgPassword    = "Password must be at least 8 characters long!"
	MsgPhoneNumber = "Phone number must be at least 11 characters!"
	MsgPhoneNaN    = "Expected number, received nan"
)

const (
	minNameLength     = 3
	minPasswordLength = 8
	minPhoneNumber    = 11.0
)

// Fields returns every field in form order.
func Fields() []Field {
	return []Field{FieldName, FieldEmail, FieldPhoneNumber, FieldPassword}
}

// Known reports whether f is one of the sign-up fields.
func (f Field) Known() bool {
	switch f {
	case FieldName, FieldEmail, FieldPassword, FieldPhoneNumber:
		return true
	}
	return false
}

// Input is a validated sign-up record.
type Input struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	PhoneNumber float64 `json:"phone_number"`
}

// Validate checks i against the sign-up schema. A failure is a
// validation.Errors keyed by json field name.
func (i Input) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Name,
			validation.Required.Error(MsgName),
			validation.RuneLength(minNameLength, 0).Error(MsgName)),
		validation.Field(&i.Email,
			validation.Required.Error(MsgEmail),
			is.Email.Error(MsgEmail)),
		validation.Field(&i.Password,
			validation.Required.Error(MsgPassword),
			validation.RuneLength(minPasswordLength, 0).Error(MsgPassword)),
		// Required catches zero, which Min skips.
		validation.Field(&i.PhoneNumber,
			validation.Required.Error(MsgPhoneNumber),
			validation.Min(minPhoneNumber).Error(MsgPhoneNumber)),
	)
}

// Draft holds the raw text of each field as typed.
type Draft struct {
	Name        string
	Email       string
	Password    string
	PhoneNumber string
}

// DraftFrom builds a Draft from a field/value map. Missing fields are empty.
func DraftFrom(values map[Field]string) Draft {
	return Draft{
		Name:        values[FieldName],
		Email:       values[FieldEmail],
		Password:    values[FieldPassword],
		PhoneNumber: values[FieldPhoneNumber],
	}
}

// Validate parses and validates d. It returns the Input and nil when every
// rule holds, or a zero Input and a Violations error otherwise.
func Validate(d Draft) (Input, error) {
	in := Input{
		Name:     d.Name,
		Email:    d.Email,
		Password: d.Password,
	}

	v := Violations{}
	phone, ok := parsePhoneNumber(d.PhoneNumber)
	in.PhoneNumber = phone

	err := in.Validate()
	if err != nil {
		var verrs validation.Errors
		if !errors.As(err, &verrs) {
			// Only returned for a misdeclared rule set.
			return Input{}, err
		}
		for key, ferr := range verrs {
			v.add(Field(key), ferr.Error())
		}
	}
	if !ok {
		// A non-numeric phone reports the type error instead of the range error.
		v[FieldPhoneNumber] = []string{MsgPhoneNaN}
	}

	if len(v) > 0 {
		return Input{}, v
	}
	return in, nil
}

// parsePhoneNumber reads s as a finite number. ok is false when s is empty or
// not a number.
func parsePhoneNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
