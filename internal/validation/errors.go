package validation

import "fmt"

// Violation describes a single invariant violation found in a topology.
type Violation struct {
	Entity  string `json:"entity"`
	Field   string `json:"field,omitempty"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (v *Violation) Error() string {
	if v.Field != "" {
		return fmt.Sprintf("%s.%s: %s", v.Entity, v.Field, v.Message)
	}
	return fmt.Sprintf("%s: %s", v.Entity, v.Message)
}

// NewViolation creates a new Violation.
func NewViolation(entity, field, value, message string) *Violation {
	return &Violation{
		Entity:  entity,
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Violations is an ordered collection of invariant violations. Validation
// never stops at the first problem, so a caller gets one complete report
// per run.
type Violations []*Violation

// Error implements the error interface.
func (v Violations) Error() string {
	if len(v) == 0 {
		return ""
	}
	if len(v) == 1 {
		return v[0].Error()
	}
	return fmt.Sprintf("%s (and %d more violations)", v[0].Error(), len(v)-1)
}

// Add appends a violation to the collection.
func (v *Violations) Add(entity, field, value, message string) {
	*v = append(*v, NewViolation(entity, field, value, message))
}

// HasViolations returns true if any violations were collected.
func (v Violations) HasViolations() bool {
	return len(v) > 0
}
