// Package validation checks a request's populated fields before anything is signed or sent.
//
// Rules run in a fixed order (required fields first, then conditional rules) and the
// first failing rule aborts with its message. Failures are never accumulated.
package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRequest matches every *Error via errors.Is.
var ErrInvalidRequest = errors.New("invalid request")

// Error is a structurally invalid request. Message is stable and safe to assert on.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Is(target error) bool { return target == ErrInvalidRequest }

// Field is a required collection field and its current length. A nil and an
// empty collection both have length zero.
type Field struct {
	Name string
	Len  int
}

// Rule is a predicate over a request's fields plus the message reported when it fails.
type Rule struct {
	Field   string
	Message string
	Valid   func() bool
}

// Validatable is implemented by every request shape.
type Validatable interface {
	RequiredFields() []Field
	ConditionalRules() []Rule
}

// Validate runs r's rules and returns the first failure.
func Validate(r Validatable) error {
	if r == nil {
		return &Error{Message: "Request is required."}
	}
	for _, f := range r.RequiredFields() {
		if f.Len == 0 {
			return &Error{Field: f.Name, Message: f.Name + " is required."}
		}
	}
	for _, rule := range r.ConditionalRules() {
		if rule.Valid != nil && !rule.Valid() {
			return &Error{Field: rule.Field, Message: rule.Message}
		}
	}
	return nil
}

// Required is a Field for a collection of length n.
func Required(name string, n int) Field {
	return Field{Name: name, Len: n}
}

// RequiredString is a Field for a scalar string; whitespace counts as unset.
func RequiredString(name, value string) Field {
	return Field{Name: name, Len: len(strings.TrimSpace(value))}
}

// RequiredOneOfWhen fails when active is true and neither alternative is set:
// "<a> or <b> is required, when <discriminant> is <value>."
func RequiredOneOfWhen(discriminant, value string, active bool, a string, aSet bool, b string, bSet bool) Rule {
	return Rule{
		Field:   a,
		Message: fmt.Sprintf("%s or %s is required, when %s is %s.", a, b, discriminant, value),
		Valid: func() bool {
			return !active || aSet || bSet
		},
	}
}

// ExactlyOneOf fails unless exactly one of the flags is set:
// "<n1>, <n2> or <n3> is required."
func ExactlyOneOf(names []string, set ...bool) Rule {
	return Rule{
		Field:   strings.Join(names, ","),
		Message: joinAlternatives(names) + " is required.",
		Valid: func() bool {
			n := 0
			for _, s := range set {
				if s {
					n++
				}
			}
			return n == 1
		},
	}
}

// InRange fails when set is true and v lies outside [min, max].
func InRange(field string, v int, set bool, min, max int) Rule {
	return Rule{
		Field:   field,
		Message: fmt.Sprintf("%s must be between %d and %d.", field, min, max),
		Valid: func() bool {
			return !set || (v >= min && v <= max)
		},
	}
}

// Check wraps an arbitrary predicate.
func Check(field, message string, valid func() bool) Rule {
	return Rule{Field: field, Message: message, Valid: valid}
}

func joinAlternatives(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " or " + names[len(names)-1]
	}
}
