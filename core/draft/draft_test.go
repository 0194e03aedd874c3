package draft

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kaushal/core"
)

var errStorage = errors.New("quota exceeded")

type memRepo struct {
	mu        sync.Mutex
	docs      map[string][]byte
	failWrite bool
	failRead  bool
	puts      int
}

func newMemRepo() *memRepo {
	return &memRepo{docs: make(map[string][]byte)}
}

func (repo *memRepo) GetDraft(_ context.Context, key string) ([]byte, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.failRead {
		return nil, errStorage
	}
	doc, ok := repo.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (repo *memRepo) PutDraft(_ context.Context, key string, doc []byte) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.failWrite {
		return errStorage
	}
	repo.puts++
	repo.docs[key] = doc
	return nil
}

func (repo *memRepo) DeleteDraft(_ context.Context, key string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.failWrite {
		return errStorage
	}
	delete(repo.docs, key)
	return nil
}

func (repo *memRepo) ListDraftKeys(context.Context) ([]string, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	keys := make([]string, 0, len(repo.docs))
	for k := range repo.docs {
		keys = append(keys, k)
	}
	return keys, nil
}

func newTestStore(t *testing.T) (*Store, *memRepo) {
	repo := newMemRepo()
	store, err := NewStore(repo, core.NopLogger{})
	require.NoError(t, err)
	return store, repo
}

// valueRepo is a Repository held by value.
type valueRepo struct{ *memRepo }

func TestNewStore(t *testing.T) {
	tests := []struct {
		name    string
		repo    Repository
		logger  core.Logger
		wantErr bool
	}{
		{name: "no repo", logger: core.NopLogger{}, wantErr: true},
		{name: "no logger", repo: newMemRepo(), wantErr: true},
		{name: "value logger", repo: newMemRepo(), logger: core.NopLogger{}},
		{name: "value repo", repo: valueRepo{newMemRepo()}, logger: core.NopLogger{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var store *Store
			var err error
			require.NotPanics(t, func() { store, err = NewStore(tt.repo, tt.logger) })
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			_, err = store.SaveStep(context.Background(), "k", "a", State{"v": 1})
			assert.NoError(t, err)
		})
	}
}

func TestStore_Load(t *testing.T) {
	ctx := context.Background()
	store, repo := newTestStore(t)

	repo.docs["k:corrupt"] = []byte("{not json")
	repo.docs["k:foreign"] = []byte(`{"draft_key":"other","steps":{}}`)
	repo.docs["k:future"] = []byte(`{"draft_key":"k:future","schema_version":99,"steps":{"a":{"state":{"x":1}}}}`)
	repo.docs["k:legacy"] = []byte(`{"steps":{"a":{"state":{"x":"y"}},"gone":{"state":{"z":1}}}}`)
	repo.docs["k:nullstate"] = []byte(`{"draft_key":"k:nullstate","steps":{"a":{"state":null}}}`)

	tests := []struct {
		name      string
		key       string
		wantSteps map[string]State
	}{
		{name: "absent", key: "k:absent", wantSteps: map[string]State{}},
		{name: "corrupt", key: "k:corrupt", wantSteps: map[string]State{}},
		{name: "foreign key", key: "k:foreign", wantSteps: map[string]State{}},
		{name: "newer schema", key: "k:future", wantSteps: map[string]State{}},
		{name: "unversioned, unknown step dropped", key: "k:legacy", wantSteps: map[string]State{"a": {"x": "y"}}},
		{name: "null state", key: "k:nullstate", wantSteps: map[string]State{"a": {}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := store.Load(ctx, tt.key, "a", "b")
			assert.Equal(t, tt.key, d.Key)
			assert.Equal(t, SchemaVersion, d.SchemaVersion)
			got := make(map[string]State, len(d.Steps))
			for id, st := range d.Steps {
				got[id] = st.State
			}
			assert.Equal(t, tt.wantSteps, got)
		})
	}

	t.Run("read failure", func(t *testing.T) {
		repo.failRead = true
		defer func() { repo.failRead = false }()
		d := store.Load(ctx, "k:legacy")
		assert.True(t, d.IsEmpty())
	})
}

func TestStore_SaveStep(t *testing.T) {
	ctx := context.Background()
	store, repo := newTestStore(t)

	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	NowFunc = func() time.Time { return t1 }
	defer func() { NowFunc = time.Now }()

	_, err := store.SaveStep(ctx, "k", "a", State{"name": "Ann", "age": 30})
	require.NoError(t, err)
	_, err = store.SaveStep(ctx, "k", "b", State{"city": "Pune"})
	require.NoError(t, err)

	NowFunc = func() time.Time { return t2 }
	d, err := store.SaveStep(ctx, "k", "a", State{"name": "Anna", "address": map[string]interface{}{"city": "Pune"}})
	require.NoError(t, err)

	// shallow merge, numbers normalized
	assert.Equal(t, State{"name": "Anna", "age": float64(30), "address": map[string]interface{}{"city": "Pune"}}, d.Steps["a"].State)
	assert.Equal(t, t2, d.Steps["a"].UpdatedAt)
	assert.Equal(t, t2, d.UpdatedAt)
	// other steps untouched
	assert.Equal(t, State{"city": "Pune"}, d.Steps["b"].State)
	assert.Equal(t, t1, d.Steps["b"].UpdatedAt)
	assert.Equal(t, 3, repo.puts)

	// persisted document round trips
	loaded := store.Load(ctx, "k")
	assert.Equal(t, d.Steps["a"].State, loaded.Steps["a"].State)
	assert.Equal(t, d.Steps["b"].State, loaded.Steps["b"].State)

	t.Run("not serializable", func(t *testing.T) {
		_, err := store.SaveStep(ctx, "k", "a", State{"ch": make(chan int)})
		assert.True(t, errors.Is(err, ErrNotSerializable))
	})
	t.Run("empty step id", func(t *testing.T) {
		_, err := store.SaveStep(ctx, "k", "", State{})
		assert.Error(t, err)
	})
}

func TestStore_Degradation(t *testing.T) {
	ctx := context.Background()
	store, repo := newTestStore(t)

	_, err := store.SaveStep(ctx, "k", "a", State{"v": "persisted"})
	require.NoError(t, err)

	repo.failWrite = true
	_, err = store.SaveStep(ctx, "k", "a", State{"v": "memory"})
	require.Error(t, err)
	assert.True(t, IsDegraded(err))
	assert.True(t, store.Degraded("k"))

	// read after write holds while storage refuses writes
	d := store.Load(ctx, "k")
	assert.Equal(t, "memory", d.Steps["a"].State["v"])

	// clear is hidden by a tombstone
	err = store.Clear(ctx, "k")
	assert.True(t, IsDegraded(err))
	assert.True(t, store.Load(ctx, "k").IsEmpty())
	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	// storage recovers
	repo.failWrite = false
	_, err = store.SaveStep(ctx, "k", "a", State{"v": "back"})
	require.NoError(t, err)
	assert.False(t, store.Degraded("k"))
	assert.Equal(t, "back", store.Load(ctx, "k").Steps["a"].State["v"])
}

func TestStore_SaveCursorAndClear(t *testing.T) {
	ctx := context.Background()
	store, repo := newTestStore(t)

	d, err := store.SaveCursor(ctx, "k", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, d.CurrentStep)
	assert.Equal(t, 2, store.Load(ctx, "k").CurrentStep)

	// unchanged cursor is not written again
	puts := repo.puts
	_, err = store.SaveCursor(ctx, "k", 2)
	require.NoError(t, err)
	assert.Equal(t, puts, repo.puts)

	_, err = store.SaveCursor(ctx, "k", -1)
	assert.Error(t, err)

	require.NoError(t, store.Clear(ctx, "k"))
	assert.True(t, store.Load(ctx, "k").IsEmpty())
	require.NoError(t, store.Clear(ctx, "k"))
}

func TestState(t *testing.T) {
	s := State{"address": map[string]interface{}{"city": "Pune"}, "tags": []interface{}{"a"}}

	v, ok := s.Get("address.city")
	assert.True(t, ok)
	assert.Equal(t, "Pune", v)
	_, ok = s.Get("address.state")
	assert.False(t, ok)
	_, ok = s.Get("tags.0")
	assert.False(t, ok)

	c := s.Clone()
	c["address"].(map[string]interface{})["city"] = "Delhi"
	c["tags"].([]interface{})[0] = "b"
	assert.Equal(t, "Pune", s["address"].(map[string]interface{})["city"])
	assert.Equal(t, "a", s["tags"].([]interface{})[0])

	set := s.Set("address.state", "MH").Set("geo.lat", 18.5)
	v, _ = set.Get("address.state")
	assert.Equal(t, "MH", v)
	v, _ = set.Get("geo.lat")
	assert.Equal(t, 18.5, v)
	_, ok = s.Get("address.state")
	assert.False(t, ok)

	merged := s.Merge(State{"address": map[string]interface{}{"state": "MH"}})
	assert.Equal(t, map[string]interface{}{"state": "MH"}, merged["address"])
}

func TestCodec(t *testing.T) {
	d := New("k")
	d.Steps["a"] = Step{State: State{"x": "y"}}
	d.CurrentStep = 1

	data, err := Encode(d)
	require.NoError(t, err)
	got, err := Decode("k", data)
	require.NoError(t, err)
	assert.Equal(t, d.Steps["a"].State, got.Steps["a"].State)
	assert.Equal(t, 1, got.CurrentStep)

	_, err = Decode("other", data)
	assert.True(t, errors.Is(err, ErrCorrupt))
	_, err = Decode("k", []byte(`{"schema_version":2}`))
	assert.True(t, errors.Is(err, ErrUnsupported))
	_, err = Decode("k", []byte(`{"current_step":-3}`))
	assert.True(t, errors.Is(err, ErrCorrupt))
}
