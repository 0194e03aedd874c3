package draft

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrCorrupt         = errors.New("corrupt draft document")
	ErrUnsupported     = errors.New("unsupported draft schema version")
	ErrNotSerializable = errors.New("state is not JSON-serializable")
)

// Encode serializes a draft document.
func Encode(d Draft) ([]byte, error) {
	if d.Steps == nil {
		d.Steps = make(map[string]Step)
	}
	if d.SchemaVersion == 0 {
		d.SchemaVersion = SchemaVersion
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, errors.Wrap(ErrNotSerializable, err.Error())
	}
	return data, nil
}

// Decode parses a document saved under key.
// It fails with ErrCorrupt on invalid JSON or foreign keys, and ErrUnsupported on newer schema versions.
func Decode(key string, data []byte) (Draft, error) {
	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return Draft{}, errors.Wrap(ErrCorrupt, err.Error())
	}
	if d.Key != "" && d.Key != key {
		return Draft{}, errors.Wrap(ErrCorrupt, fmt.Sprintf("document belongs to %q", d.Key))
	}
	if d.SchemaVersion > SchemaVersion {
		return Draft{}, errors.Wrap(ErrUnsupported, fmt.Sprintf("version %d", d.SchemaVersion))
	}
	if d.CurrentStep < 0 {
		return Draft{}, errors.Wrap(ErrCorrupt, "negative current step")
	}

	d.Key = key
	d.SchemaVersion = SchemaVersion
	if d.Steps == nil {
		d.Steps = make(map[string]Step)
	}
	for id, st := range d.Steps {
		if st.State == nil {
			st.State = State{}
			d.Steps[id] = st
		}
	}
	return d, nil
}

// Normalize round-trips a state through JSON so in-memory values have the same shape as loaded ones
// (numbers as float64, structs as objects).
func Normalize(s State) (State, error) {
	if s == nil {
		return State{}, nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(ErrNotSerializable, err.Error())
	}
	var out State
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(ErrNotSerializable, err.Error())
	}
	if out == nil {
		out = State{}
	}
	return out, nil
}
