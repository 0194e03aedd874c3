// Package wizard implements the multi-step form engine shared by every flow:
// ordered step definitions, per-step validation, navigation and all-or-nothing submission.
package wizard

import (
	"github.com/pkg/errors"

	"github.com/trezcool/kaushal/core"
	"github.com/trezcool/kaushal/core/draft"
)

// Field kinds, used by view adapters to pick an input.
const (
	KindText     = "text"
	KindNumber   = "number"
	KindDate     = "date"
	KindBool     = "bool"
	KindPhoto    = "photo"
	KindLocation = "location"
	KindList     = "list"
)

// Field describes one input of a step. Name is a dot path into the step state, eg. "address.city".
type Field struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Kind     string `json:"kind"`
	Required bool   `json:"required"`
}

// StepDefinition is one static entry of a wizard's ordered step table.
type StepDefinition struct {
	ID      string
	Title   string
	Fields  []Field
	Initial func() draft.State
	Rule    Rule
}

// InitialState returns a fresh copy of the step's default state.
func (def StepDefinition) InitialState() draft.State {
	if def.Initial == nil {
		return draft.State{}
	}
	st, err := draft.Normalize(def.Initial())
	if err != nil {
		return draft.State{}
	}
	return st
}

// Check validates state against the step's rule.
func (def StepDefinition) Check(state draft.State) []core.FieldError {
	if def.Rule == nil {
		return nil
	}
	return def.Rule.Check(state)
}

// Valid reports whether state satisfies the step's rule.
func (def StepDefinition) Valid(state draft.State) bool {
	return len(def.Check(state)) == 0
}

// Steps is an ordered step table. Order is fixed: it never changes at runtime.
type Steps []StepDefinition

// Validate checks that the table is usable: at least one step, non-empty and unique ids.
func (steps Steps) Validate() error {
	if len(steps) == 0 {
		return errors.New("a wizard needs at least one step")
	}
	seen := make(map[string]struct{}, len(steps))
	for i, def := range steps {
		if def.ID == "" {
			return errors.Errorf("step %d has no id", i)
		}
		if _, ok := seen[def.ID]; ok {
			return errors.Errorf("duplicate step id %q", def.ID)
		}
		seen[def.ID] = struct{}{}
	}
	return nil
}

// IDs returns the step ids in order.
func (steps Steps) IDs() []string {
	ids := make([]string, len(steps))
	for i, def := range steps {
		ids[i] = def.ID
	}
	return ids
}

// Index returns the position of the step with id, -1 if unknown.
func (steps Steps) Index(id string) int {
	for i, def := range steps {
		if def.ID == id {
			return i
		}
	}
	return -1
}

// StepDescriptor is the view of a StepDefinition sent to view adapters.
type StepDescriptor struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

// Describe returns the descriptors of the step table.
func (steps Steps) Describe() []StepDescriptor {
	descs := make([]StepDescriptor, len(steps))
	for i, def := range steps {
		descs[i] = def.Describe()
	}
	return descs
}

func (def StepDefinition) Describe() StepDescriptor {
	fields := def.Fields
	if fields == nil {
		fields = []Field{}
	}
	return StepDescriptor{ID: def.ID, Title: def.Title, Fields: fields}
}
