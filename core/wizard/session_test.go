package wizard

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kaushal/core"
	"github.com/trezcool/kaushal/core/draft"
)

type memRepo struct {
	mu        sync.Mutex
	docs      map[string][]byte
	failRead  bool
	failWrite bool
}

func newMemRepo() *memRepo { return &memRepo{docs: make(map[string][]byte)} }

func (repo *memRepo) GetDraft(_ context.Context, key string) ([]byte, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.failRead {
		return nil, errors.New("storage unavailable")
	}
	doc, ok := repo.docs[key]
	if !ok {
		return nil, draft.ErrNotFound
	}
	return doc, nil
}

func (repo *memRepo) PutDraft(_ context.Context, key string, doc []byte) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.failWrite {
		return errors.New("storage unavailable")
	}
	repo.docs[key] = doc
	return nil
}

func (repo *memRepo) DeleteDraft(_ context.Context, key string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.failWrite {
		return errors.New("storage unavailable")
	}
	delete(repo.docs, key)
	return nil
}

func (repo *memRepo) ListDraftKeys(context.Context) ([]string, error) { return nil, nil }

type rec struct {
	transitions []string
	submissions []string
}

func (r *rec) ObserveTransition(flow, action, outcome string) {
	r.transitions = append(r.transitions, action+":"+outcome)
}

func (r *rec) ObserveSubmission(flow, status string, _ time.Duration) {
	r.submissions = append(r.submissions, status)
}

func testSteps() Steps {
	return Steps{
		{ID: "first", Title: "First", Rule: Required("name")},
		{ID: "second", Title: "Second", Rule: All(Required("city"), Checked("agree")),
			Initial: func() draft.State { return draft.State{"agree": false} }},
		{ID: "review", Title: "Review"},
	}
}

func newTestSession(t *testing.T, repo *memRepo, opts ...Option) (*Session, *draft.Store) {
	store, err := draft.NewStore(repo, core.NopLogger{})
	require.NoError(t, err)
	s, err := Open(context.Background(), store, "test:1", testSteps(), opts...)
	require.NoError(t, err)
	return s, store
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	store, err := draft.NewStore(newMemRepo(), core.NopLogger{})
	require.NoError(t, err)

	tests := []struct {
		name  string
		store *draft.Store
		key   string
		steps Steps
	}{
		{name: "nil store", key: "k", steps: testSteps()},
		{name: "empty key", store: store, steps: testSteps()},
		{name: "no steps", store: store, key: "k"},
		{name: "duplicate ids", store: store, key: "k", steps: Steps{{ID: "a"}, {ID: "a"}}},
		{name: "empty id", store: store, key: "k", steps: Steps{{ID: ""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(ctx, tt.store, tt.key, tt.steps)
			assert.Error(t, err)
		})
	}
}

func TestSession_Navigation(t *testing.T) {
	ctx := context.Background()
	obs := &rec{}
	s, _ := newTestSession(t, newMemRepo(), WithFlow("test"), WithObserver(obs))

	// validation gating
	assert.False(t, s.CanProceed())
	assert.Equal(t, Blocked, s.Next(ctx))
	assert.Equal(t, 0, s.Index())

	// back is a no-op on the first step
	assert.False(t, s.Back(ctx))

	require.NoError(t, s.Change(ctx, "first", draft.State{"name": "Ann"}))
	assert.True(t, s.CanProceed())
	assert.Equal(t, Advanced, s.Next(ctx))
	assert.Equal(t, 1, s.Index())

	// validity is live: an edit that blanks the field blocks again after coming back
	assert.True(t, s.Back(ctx))
	require.NoError(t, s.Change(ctx, "first", draft.State{"name": "  "}))
	assert.False(t, s.CanProceed())
	assert.Equal(t, Blocked, s.Next(ctx))
	require.NoError(t, s.Change(ctx, "first", draft.State{"name": "Ann"}))
	assert.Equal(t, Advanced, s.Next(ctx))

	// back is never blocked, whatever the validity of the current step
	assert.False(t, s.CanProceed())
	assert.True(t, s.Back(ctx))
	assert.Equal(t, 0, s.Index())

	// jump skips validation
	require.NoError(t, s.JumpTo(ctx, 2))
	assert.Equal(t, 2, s.Index())
	assert.Equal(t, AtEnd, s.Next(ctx))
	assert.Equal(t, 2, s.Index())
	assert.True(t, errors.Is(s.JumpTo(ctx, 3), ErrIndexOutOfRange))
	assert.True(t, errors.Is(s.JumpTo(ctx, -1), ErrIndexOutOfRange))

	assert.Equal(t, []string{
		"next:blocked", "back:noop", "change:ok", "next:advanced", "back:moved", "change:ok", "next:blocked",
		"change:ok", "next:advanced", "back:moved", "jump:moved", "next:at_end",
		"jump:out_of_range", "jump:out_of_range",
	}, obs.transitions)
}

func TestSession_Change(t *testing.T) {
	ctx := context.Background()
	s, store := newTestSession(t, newMemRepo())

	tests := []struct {
		name    string
		stepID  string
		partial draft.State
		wantErr error
	}{
		{name: "unknown step", stepID: "nope", partial: draft.State{}, wantErr: ErrUnknownStep},
		{name: "not current", stepID: "second", partial: draft.State{"city": "Pune"}, wantErr: ErrNotCurrentStep},
		{name: "current", stepID: "first", partial: draft.State{"name": "Ann"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Change(ctx, tt.stepID, tt.partial)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("not serializable", func(t *testing.T) {
		err := s.Change(ctx, "first", draft.State{"ch": make(chan int)})
		_, ok := err.(*core.ValidationError)
		assert.True(t, ok)
	})

	// step isolation
	d := store.Load(ctx, "test:1")
	assert.Equal(t, draft.State{"name": "Ann"}, d.Steps["first"].State)
	_, ok := d.Steps["second"]
	assert.False(t, ok)

	state, err := s.State("second")
	require.NoError(t, err)
	assert.Equal(t, draft.State{"agree": false}, state)
}

func TestSession_Resume(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	s, _ := newTestSession(t, repo)

	require.NoError(t, s.Change(ctx, "first", draft.State{"name": "Ann"}))
	require.Equal(t, Advanced, s.Next(ctx))
	require.NoError(t, s.Change(ctx, "second", draft.State{"city": "Pune"}))

	// the tab is closed and the flow reopened
	resumed, _ := newTestSession(t, repo)
	assert.Equal(t, 1, resumed.Index())
	first, err := resumed.State("first")
	require.NoError(t, err)
	assert.Equal(t, draft.State{"name": "Ann"}, first)
	second, err := resumed.State("second")
	require.NoError(t, err)
	assert.Equal(t, draft.State{"city": "Pune", "agree": false}, second)

	t.Run("cursor out of range is clamped", func(t *testing.T) {
		repo.docs["test:1"] = []byte(`{"draft_key":"test:1","steps":{},"current_step":7}`)
		s, _ := newTestSession(t, repo)
		assert.Equal(t, 2, s.Index())
	})

	t.Run("navigating a fresh draft writes nothing", func(t *testing.T) {
		repo := newMemRepo()
		s, _ := newTestSession(t, repo)
		require.NoError(t, s.JumpTo(ctx, 1))
		assert.Empty(t, repo.docs)
	})
}

func TestSession_Degraded(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	repo.failWrite = true
	s, store := newTestSession(t, repo)

	require.NoError(t, s.Change(ctx, "first", draft.State{"name": "Ann"}))
	assert.Equal(t, Advanced, s.Next(ctx))
	assert.True(t, store.Degraded("test:1"))
	assert.Empty(t, repo.docs)

	// same process: the draft is still there
	d := store.Load(ctx, "test:1")
	assert.Equal(t, "Ann", d.Steps["first"].State["name"])
	assert.Equal(t, 1, d.CurrentStep)
}

func TestSession_Snapshot(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t, newMemRepo(), WithFlow("test"))

	snap := s.Snapshot()
	assert.Equal(t, "test", snap.Flow)
	assert.Equal(t, "test:1", snap.DraftKey)
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, 3, snap.Total)
	assert.Equal(t, "first", snap.Current.ID)
	assert.False(t, snap.CanProceed)
	assert.False(t, snap.IsLast)
	assert.Equal(t, []core.FieldError{{Field: "name", Error: "this field is required"}}, snap.Errors)
	require.Len(t, snap.Steps, 3)
	assert.False(t, snap.Steps[0].Valid)
	assert.False(t, snap.Steps[1].Valid)
	assert.True(t, snap.Steps[2].Valid)

	require.NoError(t, s.Change(ctx, "first", draft.State{"name": "Ann"}))
	snap = s.Snapshot()
	assert.True(t, snap.CanProceed)
	assert.Equal(t, []core.FieldError{}, snap.Errors)

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"can_proceed":true`)
}

func TestRequired(t *testing.T) {
	tests := []struct {
		name  string
		state draft.State
		want  bool
	}{
		{name: "absent", state: draft.State{}, want: false},
		{name: "null", state: draft.State{"v": nil}, want: false},
		{name: "blank", state: draft.State{"v": " \t"}, want: false},
		{name: "empty list", state: draft.State{"v": []interface{}{}}, want: false},
		{name: "empty object", state: draft.State{"v": map[string]interface{}{}}, want: false},
		{name: "zero", state: draft.State{"v": float64(0)}, want: true},
		{name: "false", state: draft.State{"v": false}, want: true},
		{name: "text", state: draft.State{"v": "x"}, want: true},
		{name: "list", state: draft.State{"v": []interface{}{"a"}}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(Required("v"), tt.state))
		})
	}

	assert.True(t, Valid(nil, draft.State{}))
	assert.False(t, Valid(Checked("ok"), draft.State{"ok": "true"}))
	assert.True(t, Valid(Checked("ok"), draft.State{"ok": true}))
}

type structState struct {
	Name    string `json:"name" validate:"required,notblank"`
	Address struct {
		City string `json:"city" validate:"required"`
	} `json:"address"`
}

func TestStruct(t *testing.T) {
	translator := core.NewTranslator()
	rule := Struct(core.NewValidator(translator), translator, func() interface{} { return new(structState) })

	tests := []struct {
		name  string
		state draft.State
		want  []core.FieldError
	}{
		{
			name:  "valid",
			state: draft.State{"name": "Ann", "address": map[string]interface{}{"city": "Pune"}},
		},
		{
			name:  "missing nested",
			state: draft.State{"name": "Ann"},
			want:  []core.FieldError{{Field: "address.city", Error: "this field is required"}},
		},
		{
			name:  "blank",
			state: draft.State{"name": "  ", "address": map[string]interface{}{"city": "Pune"}},
			want:  []core.FieldError{{Field: "name", Error: "this field cannot be blank"}},
		},
		{
			name:  "wrong type",
			state: draft.State{"name": 12},
			want:  []core.FieldError{{Field: "name", Error: "invalid value"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rule.Check(tt.state))
		})
	}
}
