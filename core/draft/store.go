package draft

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/kaushal/core"
)

// Repository is the key-value boundary drafts are persisted through.
type Repository interface {
	// GetDraft returns the raw document saved under key, ErrNotFound if there is none.
	GetDraft(ctx context.Context, key string) ([]byte, error)
	PutDraft(ctx context.Context, key string, doc []byte) error
	DeleteDraft(ctx context.Context, key string) error
	ListDraftKeys(ctx context.Context) ([]string, error)
}

// DegradedError reports a write the Repository refused. The document is kept in memory instead,
// so the session keeps working for the lifetime of the process.
type DegradedError struct {
	Key string
	Err error
}

func (err *DegradedError) Error() string {
	return fmt.Sprintf("draft %q kept in memory only: %v", err.Key, err.Err)
}

func (err *DegradedError) Unwrap() error { return err.Err }

// IsDegraded reports whether err is a *DegradedError.
func IsDegraded(err error) bool {
	_, ok := errors.Cause(err).(*DegradedError)
	return ok
}

// overlayEntry is a document the Repository failed to persist. A nil doc is a pending delete.
type overlayEntry struct {
	doc []byte
}

// Store is the only way drafts are read and written.
type Store struct {
	repo   Repository
	logger core.Logger

	mu      sync.Mutex
	overlay map[string]overlayEntry
}

// NewStore returns a Store persisting through repo.
func NewStore(repo Repository, logger core.Logger) (*Store, error) {
	switch {
	case repo == nil:
		return nil, errors.New("draft store: repo is nil")
	case logger == nil:
		return nil, errors.New("draft store: logger is nil")
	}
	return &Store{
		repo:    repo,
		logger:  logger,
		overlay: make(map[string]overlayEntry),
	}, nil
}

// Load returns the document saved under key, limited to the knownSteps (if any).
// It never fails: absent, corrupt or unsupported documents load as an empty draft.
func (s *Store) Load(ctx context.Context, key string, knownSteps ...string) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.load(ctx, key)
	d.filter(knownSteps)
	return d
}

func (s *Store) load(ctx context.Context, key string) Draft {
	var doc []byte
	if entry, ok := s.overlay[key]; ok {
		if entry.doc == nil {
			return New(key)
		}
		doc = entry.doc
	} else {
		var err error
		if doc, err = s.repo.GetDraft(ctx, key); err != nil {
			if errors.Cause(err) != ErrNotFound {
				s.logger.Warn(fmt.Sprintf("draft %q: reading from storage failed, starting empty", key), err)
			}
			return New(key)
		}
	}

	d, err := Decode(key, doc)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("draft %q: discarding unreadable document", key), err)
		return New(key)
	}
	return d
}

// UpdatedAt returns the last write time of the draft saved under key, zero if there is none.
// Unlike Load, it reports storage failures.
func (s *Store) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc []byte
	if entry, ok := s.overlay[key]; ok {
		doc = entry.doc
	} else {
		var err error
		if doc, err = s.repo.GetDraft(ctx, key); err != nil {
			if errors.Cause(err) == ErrNotFound {
				return time.Time{}, nil
			}
			return time.Time{}, errors.Wrapf(err, "reading draft %q", key)
		}
	}
	if doc == nil {
		return time.Time{}, nil
	}
	d, err := Decode(key, doc)
	if err != nil {
		return time.Time{}, nil
	}
	return d.UpdatedAt, nil
}

// SaveStep merges state into steps[stepID] and persists the whole document.
// A *DegradedError means the document is only held in memory.
func (s *Store) SaveStep(ctx context.Context, key, stepID string, state State) (Draft, error) {
	if stepID == "" {
		return Draft{}, errors.New("saving draft step: empty step id")
	}
	state, err := Normalize(state)
	if err != nil {
		return Draft{}, errors.Wrap(err, "saving draft step")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.load(ctx, key)
	now := NowFunc().UTC()
	d.Steps[stepID] = Step{
		State:     d.Steps[stepID].State.Merge(state),
		UpdatedAt: now,
	}
	d.UpdatedAt = now
	return d.Clone(), s.persist(ctx, d)
}

// SaveCursor persists the step the wizard should resume at.
func (s *Store) SaveCursor(ctx context.Context, key string, index int) (Draft, error) {
	if index < 0 {
		return Draft{}, errors.Errorf("saving draft cursor: invalid index %d", index)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.load(ctx, key)
	if d.CurrentStep == index {
		return d.Clone(), nil
	}
	d.CurrentStep = index
	d.UpdatedAt = NowFunc().UTC()
	return d.Clone(), s.persist(ctx, d)
}

// Clear removes the document saved under key.
func (s *Store) Clear(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.DeleteDraft(ctx, key); err != nil && errors.Cause(err) != ErrNotFound {
		s.overlay[key] = overlayEntry{}
		s.logger.Warn(fmt.Sprintf("draft %q: clearing storage failed, hiding it in memory", key), err)
		return &DegradedError{Key: key, Err: err}
	}
	delete(s.overlay, key)
	return nil
}

// Keys lists the drafts known to the storage and the in-memory overlay.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.repo.ListDraftKeys(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing draft keys")
	}
	set := make(map[string]struct{}, len(keys)+len(s.overlay))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	for k, entry := range s.overlay {
		if entry.doc == nil {
			delete(set, k)
		} else {
			set[k] = struct{}{}
		}
	}
	keys = make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Degraded reports whether key is currently held in memory only.
func (s *Store) Degraded(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.overlay[key]
	return ok
}

func (s *Store) persist(ctx context.Context, d Draft) error {
	doc, err := Encode(d)
	if err != nil {
		return errors.Wrap(err, "encoding draft")
	}
	if err := s.repo.PutDraft(ctx, d.Key, doc); err != nil {
		s.overlay[d.Key] = overlayEntry{doc: doc}
		s.logger.Warn(fmt.Sprintf("draft %q: writing to storage failed, keeping it in memory", d.Key), err)
		return &DegradedError{Key: d.Key, Err: err}
	}
	// storage caught up
	delete(s.overlay, d.Key)
	return nil
}
