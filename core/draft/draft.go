// Package draft persists the in-progress state of multi-step forms, one JSON document per draft key.
package draft

import (
	"errors"
	"strings"
	"time"
)

// SchemaVersion is the version of the persisted Draft document.
// Documents without a version (written before versioning) are read as version 1.
const SchemaVersion = 1

var (
	// ErrNotFound is returned by a Repository when no document exists for a key.
	ErrNotFound = errors.New("draft not found")

	NowFunc = time.Now // mockable
)

// State is the JSON-serializable step-local state: strings, numbers, booleans, nested objects and lists.
type State map[string]interface{}

// Clone deep copies the state so callers never share nested maps or slices.
func (s State) Clone() State {
	if s == nil {
		return nil
	}
	return cloneValue(map[string]interface{}(s)).(map[string]interface{})
}

// Merge returns a copy of s with the top level keys of partial set over it.
// Nested objects in partial replace the previous value wholesale.
func (s State) Merge(partial State) State {
	merged := make(State, len(s)+len(partial))
	for k, v := range s {
		merged[k] = cloneValue(v)
	}
	for k, v := range partial {
		merged[k] = cloneValue(v)
	}
	return merged
}

// Step is the persisted state of one wizard step.
type Step struct {
	State     State     `json:"state"`
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Draft is the persisted unit of in-progress work.
type Draft struct {
	Key           string          `json:"draft_key"`
	SchemaVersion int             `json:"schema_version"`
	Steps         map[string]Step `json:"steps"`
	CurrentStep   int             `json:"current_step"`
	UpdatedAt     time.Time       `json:"updated_at"` // UTC
}

// New returns the empty document for key.
func New(key string) Draft {
	return Draft{
		Key:           key,
		SchemaVersion: SchemaVersion,
		Steps:         make(map[string]Step),
	}
}

// IsEmpty reports whether nothing was ever saved in the draft.
func (d Draft) IsEmpty() bool {
	return len(d.Steps) == 0 && d.CurrentStep == 0
}

// StepState returns a copy of the saved state of a step, nil if it was never saved.
func (d Draft) StepState(stepID string) State {
	if st, ok := d.Steps[stepID]; ok {
		return st.State.Clone()
	}
	return nil
}

// Clone deep copies the draft.
func (d Draft) Clone() Draft {
	c := d
	c.Steps = make(map[string]Step, len(d.Steps))
	for id, st := range d.Steps {
		c.Steps[id] = Step{State: st.State.Clone(), UpdatedAt: st.UpdatedAt}
	}
	return c
}

// filter drops the steps whose id is not in known. An empty known list keeps everything.
func (d *Draft) filter(known []string) {
	if len(known) == 0 {
		return
	}
	keep := make(map[string]struct{}, len(known))
	for _, id := range known {
		keep[id] = struct{}{}
	}
	for id := range d.Steps {
		if _, ok := keep[id]; !ok {
			delete(d.Steps, id)
		}
	}
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, vv := range val {
			m[k] = cloneValue(vv)
		}
		return m
	case State:
		return State(cloneValue(map[string]interface{}(val)).(map[string]interface{}))
	case []interface{}:
		l := make([]interface{}, len(val))
		for i, vv := range val {
			l[i] = cloneValue(vv)
		}
		return l
	default:
		return val
	}
}

// Get returns the value at a dot path, eg. "address.city".
func (s State) Get(path string) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(s)
	for _, part := range strings.Split(path, ".") {
		var m map[string]interface{}
		switch obj := cur.(type) {
		case map[string]interface{}:
			m = obj
		case State:
			m = obj
		default:
			return nil, false
		}
		v, ok := m[part]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// Set returns a copy of s with value stored at a dot path, creating intermediate objects.
func (s State) Set(path string, value interface{}) State {
	out := s.Clone()
	if out == nil {
		out = State{}
	}
	parts := strings.Split(path, ".")
	cur := map[string]interface{}(out)
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			cur[part] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
	return out
}
