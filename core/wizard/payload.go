package wizard

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/kaushal/core/draft"
)

// PayloadStep is the contribution of one step to a submission.
type PayloadStep struct {
	ID    string
	State draft.State
}

// Payload is the final submission, assembled from every step in definition order.
// It is only ever built whole.
type Payload struct {
	ID          uuid.UUID
	Flow        string
	DraftKey    string
	SubmittedAt time.Time // UTC
	Steps       []PayloadStep
}

// Step returns the state contributed by step id.
func (p Payload) Step(id string) (draft.State, bool) {
	for _, st := range p.Steps {
		if st.ID == id {
			return st.State, true
		}
	}
	return nil, false
}

type payloadHeader struct {
	ID          uuid.UUID `json:"id"`
	Flow        string    `json:"flow"`
	DraftKey    string    `json:"draft_key"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// MarshalJSON renders `steps` as an object keyed by step id, keeping definition order.
func (p Payload) MarshalJSON() ([]byte, error) {
	head, err := json.Marshal(payloadHeader{ID: p.ID, Flow: p.Flow, DraftKey: p.DraftKey, SubmittedAt: p.SubmittedAt})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(head[:len(head)-1]) // drop "}"
	buf.WriteString(`,"steps":{`)
	for i, st := range p.Steps {
		if i > 0 {
			buf.WriteByte(',')
		}
		id, err := json.Marshal(st.ID)
		if err != nil {
			return nil, err
		}
		state := st.State
		if state == nil {
			state = draft.State{}
		}
		val, err := json.Marshal(state)
		if err != nil {
			return nil, err
		}
		buf.Write(id)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a payload back, keeping the order of `steps`.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var head payloadHeader
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	var raw struct {
		Steps json.RawMessage `json:"steps"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	steps := make([]PayloadStep, 0)
	if len(raw.Steps) > 0 && string(raw.Steps) != "null" {
		dec := json.NewDecoder(bytes.NewReader(raw.Steps))
		if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
			return errors.New("payload steps must be an object")
		}
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			id, ok := tok.(string)
			if !ok {
				return errors.New("payload step id must be a string")
			}
			var state draft.State
			if err := dec.Decode(&state); err != nil {
				return errors.Wrapf(err, "decoding payload step %q", id)
			}
			if state == nil {
				state = draft.State{}
			}
			steps = append(steps, PayloadStep{ID: id, State: state})
		}
	}

	*p = Payload{
		ID:          head.ID,
		Flow:        head.Flow,
		DraftKey:    head.DraftKey,
		SubmittedAt: head.SubmittedAt,
		Steps:       steps,
	}
	return nil
}

// Payload assembles the current step states. Validity is not checked.
func (s *Session) Payload() Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payload()
}

func (s *Session) payload() Payload {
	steps := make([]PayloadStep, len(s.steps))
	for i, def := range s.steps {
		steps[i] = PayloadStep{ID: def.ID, State: s.states[i].Clone()}
	}
	return Payload{
		ID:          uuid.New(),
		Flow:        s.flow,
		DraftKey:    s.key,
		SubmittedAt: draft.NowFunc().UTC(),
		Steps:       steps,
	}
}
