package wizard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/kaushal/core"
	"github.com/trezcool/kaushal/core/draft"
)

// Outcome is the result of a Next transition.
type Outcome int

const (
	// Blocked: the current step is invalid, nothing changed.
	Blocked Outcome = iota
	// Advanced: the wizard moved to the next step.
	Advanced
	// AtEnd: the last step is valid, the wizard is ready for submission.
	AtEnd
)

func (o Outcome) String() string {
	switch o {
	case Advanced:
		return "advanced"
	case AtEnd:
		return "at_end"
	default:
		return "blocked"
	}
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// Option configures a Session.
type Option func(*Session)

// WithFlow names the flow the session belongs to (used when reporting to the Observer).
func WithFlow(name string) Option {
	return func(s *Session) { s.flow = name }
}

func WithLogger(logger core.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(s *Session) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// Session is the state machine of one wizard over one draft.
// Its only state family is "editing step i": submission is handled by the Coordinator.
type Session struct {
	mu sync.Mutex

	flow     string
	key      string
	steps    Steps
	store    *draft.Store
	logger   core.Logger
	observer Observer

	states  []draft.State
	index   int
	dirty   bool      // something worth persisting exists (loaded draft or edits)
	savedAt time.Time // UpdatedAt of the draft as last read or written by this session
}

// Open resumes the draft saved under key, or starts a fresh one.
// Saved state is merged over each step's initial state; steps unknown to the table are ignored.
// The session resumes at the saved cursor.
func Open(ctx context.Context, store *draft.Store, key string, steps Steps, opts ...Option) (*Session, error) {
	if err := vala.BeginValidation().Validate(
		vala.IsNotNil(store, "store"),
		vala.StringNotEmpty(key, "key"),
	).Check(); err != nil {
		return nil, errors.Wrap(err, "opening wizard session")
	}
	if err := steps.Validate(); err != nil {
		return nil, errors.Wrap(err, "opening wizard session")
	}

	s := &Session{
		key:      key,
		steps:    steps,
		store:    store,
		logger:   core.NopLogger{},
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}

	d := store.Load(ctx, key, steps.IDs()...)
	s.states = make([]draft.State, len(steps))
	for i, def := range steps {
		s.states[i] = def.InitialState().Merge(d.StepState(def.ID))
	}
	s.index = clamp(d.CurrentStep, len(steps))
	s.dirty = !d.IsEmpty()
	s.savedAt = d.UpdatedAt
	return s, nil
}

func (s *Session) Flow() string { return s.flow }
func (s *Session) Key() string  { return s.key }
func (s *Session) Steps() Steps { return s.steps }
func (s *Session) Len() int     { return len(s.steps) }

// Index returns the current step index.
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Current returns the definition of the current step.
func (s *Session) Current() StepDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.steps[s.index]
}

// State returns a copy of the state of step id.
func (s *Session) State(id string) (draft.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.steps.Index(id)
	if idx < 0 {
		return nil, errors.Wrap(ErrUnknownStep, id)
	}
	return s.states[idx].Clone(), nil
}

// CanProceed validates the current step against its live state.
// It is recomputed on every call: validity is never cached across edits or visits.
func (s *Session) CanProceed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canProceed()
}

func (s *Session) canProceed() bool {
	return s.steps[s.index].Valid(s.states[s.index])
}

// Errors returns the field errors of the current step.
func (s *Session) Errors() []core.FieldError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.steps[s.index].Check(s.states[s.index])
}

// Change merges partial into the current step's state and persists it.
// A storage failure degrades the draft to memory-only and is logged, not returned.
func (s *Session) Change(ctx context.Context, stepID string, partial draft.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.steps.Index(stepID)
	if idx < 0 {
		return errors.Wrap(ErrUnknownStep, stepID)
	}
	if idx != s.index {
		return errors.Wrap(ErrNotCurrentStep, stepID)
	}
	norm, err := draft.Normalize(partial)
	if err != nil {
		return core.NewValidationError(err)
	}

	s.states[idx] = s.states[idx].Merge(norm)
	s.dirty = true
	d, err := s.store.SaveStep(ctx, s.key, stepID, norm)
	if err != nil && !draft.IsDegraded(err) {
		s.logger.Warn(fmt.Sprintf("wizard %q: saving step %q failed", s.key, stepID), err)
	} else {
		s.savedAt = d.UpdatedAt
	}
	s.observer.ObserveTransition(s.flow, ActionChange, "ok")
	return nil
}

// Next advances to the following step if the current one is valid.
// On the last step it never moves: AtEnd tells the caller to submit.
func (s *Session) Next(ctx context.Context) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcome := Blocked
	switch {
	case !s.canProceed():
	case s.index == len(s.steps)-1:
		outcome = AtEnd
	default:
		s.index++
		s.saveCursor(ctx)
		outcome = Advanced
	}
	s.observer.ObserveTransition(s.flow, ActionNext, outcome.String())
	return outcome
}

// Back moves to the previous step. It is never blocked by validation and never touches step data.
// It reports false on the first step.
func (s *Session) Back(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == 0 {
		s.observer.ObserveTransition(s.flow, ActionBack, "noop")
		return false
	}
	s.index--
	s.saveCursor(ctx)
	s.observer.ObserveTransition(s.flow, ActionBack, "moved")
	return true
}

// JumpTo moves to any step, eg. from the "Edit" links of a review step.
// Skipped steps are not re-validated.
func (s *Session) JumpTo(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.steps) {
		s.observer.ObserveTransition(s.flow, ActionJump, "out_of_range")
		return errors.Wrap(ErrIndexOutOfRange, fmt.Sprintf("%d not in [0, %d)", index, len(s.steps)))
	}
	if index != s.index {
		s.index = index
		s.saveCursor(ctx)
	}
	s.observer.ObserveTransition(s.flow, ActionJump, "moved")
	return nil
}

// Reset starts over: first step, initial states. The store is not touched.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Session) reset() {
	for i, def := range s.steps {
		s.states[i] = def.InitialState()
	}
	s.index = 0
	s.dirty = false
	s.savedAt = time.Time{}
}

func (s *Session) saveCursor(ctx context.Context) {
	if !s.dirty {
		return
	}
	d, err := s.store.SaveCursor(ctx, s.key, s.index)
	if err != nil && !draft.IsDegraded(err) {
		s.logger.Warn(fmt.Sprintf("wizard %q: saving cursor failed", s.key), err)
		return
	}
	s.savedAt = d.UpdatedAt
}

// stale reports whether the saved draft changed since this session last read or wrote it,
// eg. because another process cleared it. Storage failures never make a session stale.
func (s *Session) stale(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	updatedAt, err := s.store.UpdatedAt(ctx, s.key)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("wizard %q: checking the saved draft failed", s.key), err)
		return false
	}
	return !updatedAt.Equal(s.savedAt)
}

// incomplete returns the errors of every invalid step, as "<step id>.<field>".
func (s *Session) incomplete() []core.FieldError {
	var flds []core.FieldError
	for i, def := range s.steps {
		for _, fe := range def.Check(s.states[i]) {
			name := def.ID
			if fe.Field != "" {
				name += "." + fe.Field
			}
			flds = append(flds, core.FieldError{Field: name, Error: fe.Error})
		}
	}
	return flds
}

// StepStatus is one step as seen by a view adapter.
type StepStatus struct {
	StepDescriptor
	Valid bool        `json:"valid"`
	State draft.State `json:"state"`
}

// Snapshot is everything a view adapter needs to render the wizard.
type Snapshot struct {
	Flow       string            `json:"flow"`
	DraftKey   string            `json:"draft_key"`
	Index      int               `json:"index"`
	Total      int               `json:"total"`
	Current    StepDescriptor    `json:"current"`
	CanProceed bool              `json:"can_proceed"`
	IsLast     bool              `json:"is_last"`
	Errors     []core.FieldError `json:"errors"`
	Steps      []StepStatus      `json:"steps"`
}

// Snapshot returns the current view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	errs := s.steps[s.index].Check(s.states[s.index])
	if errs == nil {
		errs = []core.FieldError{}
	}
	statuses := make([]StepStatus, len(s.steps))
	for i, def := range s.steps {
		statuses[i] = StepStatus{
			StepDescriptor: def.Describe(),
			Valid:          def.Valid(s.states[i]),
			State:          s.states[i].Clone(),
		}
	}
	return Snapshot{
		Flow:       s.flow,
		DraftKey:   s.key,
		Index:      s.index,
		Total:      len(s.steps),
		Current:    s.steps[s.index].Describe(),
		CanProceed: len(errs) == 0,
		IsLast:     s.index == len(s.steps)-1,
		Errors:     errs,
		Steps:      statuses,
	}
}

func clamp(index, n int) int {
	if index < 0 {
		return 0
	}
	if index >= n {
		return n - 1
	}
	return index
}
