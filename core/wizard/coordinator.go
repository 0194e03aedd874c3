package wizard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/kaushal/core"
)

// Submitter is the external collaborator a flow submits its final payload to.
type Submitter interface {
	Submit(ctx context.Context, payload Payload) error
}

// SubmitterFunc adapts a function to a Submitter.
type SubmitterFunc func(ctx context.Context, payload Payload) error

func (f SubmitterFunc) Submit(ctx context.Context, payload Payload) error { return f(ctx, payload) }

// LogSubmitter only logs payloads. It is the default for flows without a back end.
type LogSubmitter struct {
	Logger core.Logger
}

func (sub LogSubmitter) Submit(_ context.Context, payload Payload) error {
	sub.Logger.Info(fmt.Sprintf("submission %s received for %q", payload.ID, payload.DraftKey))
	return nil
}

// Receipt describes a successful submission.
type Receipt struct {
	ID          uuid.UUID `json:"id"`
	Flow        string    `json:"flow"`
	DraftKey    string    `json:"draft_key"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Coordinator submits sessions: all steps or nothing.
type Coordinator struct {
	submitter Submitter
	logger    core.Logger
	observer  Observer
}

func NewCoordinator(submitter Submitter, logger core.Logger, observer Observer) *Coordinator {
	if logger == nil {
		logger = core.NopLogger{}
	}
	if submitter == nil {
		submitter = LogSubmitter{Logger: logger}
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &Coordinator{submitter: submitter, logger: logger, observer: observer}
}

// Submit sends the session's payload. The session must be on its last step and every step must be valid.
//   - success: the draft is cleared from the store and the session starts over on fresh state.
//   - failure: draft and session are left untouched; the error is returned as is (no retry).
func (c *Coordinator) Submit(ctx context.Context, s *Session) (Receipt, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != len(s.steps)-1 {
		return Receipt{}, ErrNotOnLastStep
	}
	if flds := s.incomplete(); len(flds) > 0 {
		c.observer.ObserveSubmission(s.flow, StatusIncomplete, time.Since(start))
		return Receipt{}, &IncompleteError{Fields: flds}
	}

	payload := s.payload()
	if err := c.submitter.Submit(ctx, payload); err != nil {
		c.observer.ObserveSubmission(s.flow, StatusFailed, time.Since(start))
		return Receipt{}, &SubmissionError{DraftKey: s.key, Err: err}
	}

	if err := s.store.Clear(ctx, s.key); err != nil {
		c.logger.Warn(fmt.Sprintf("wizard %q: submitted but clearing the draft failed", s.key), err)
	}
	s.reset()
	c.observer.ObserveSubmission(s.flow, StatusSuccess, time.Since(start))

	return Receipt{
		ID:          payload.ID,
		Flow:        payload.Flow,
		DraftKey:    payload.DraftKey,
		SubmittedAt: payload.SubmittedAt,
	}, nil
}
