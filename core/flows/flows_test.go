package flows

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kaushal/core"
	"github.com/trezcool/kaushal/core/draft"
	"github.com/trezcool/kaushal/core/wizard"
)

type memRepo struct {
	docs map[string][]byte
}

func (repo *memRepo) GetDraft(_ context.Context, key string) ([]byte, error) {
	doc, ok := repo.docs[key]
	if !ok {
		return nil, draft.ErrNotFound
	}
	return doc, nil
}

func (repo *memRepo) PutDraft(_ context.Context, key string, doc []byte) error {
	repo.docs[key] = doc
	return nil
}

func (repo *memRepo) DeleteDraft(_ context.Context, key string) error {
	delete(repo.docs, key)
	return nil
}

func (repo *memRepo) ListDraftKeys(context.Context) ([]string, error) { return nil, nil }

func openFlow(t *testing.T, repo *memRepo, name, id string) *wizard.Session {
	f, err := DefaultRegistry().Lookup(name)
	require.NoError(t, err)
	store, err := draft.NewStore(repo, core.NopLogger{})
	require.NoError(t, err)
	s, err := wizard.Open(context.Background(), store, DraftKey(name, id), f.Steps, wizard.WithFlow(name))
	require.NoError(t, err)
	return s
}

func TestRegistry(t *testing.T) {
	reg := DefaultRegistry()

	var names []string
	for _, f := range reg.All() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{CandidateEnrollment, CommunityDrive, CompanyRegistration, PlacementDrive, StudentDetails}, names)

	_, err := reg.Lookup("nope")
	assert.Equal(t, wizard.ErrUnknownFlow, errors.Cause(err))

	assert.Equal(t, "student_details:7", DraftKey(StudentDetails, "7"))
}

func TestCandidateEnrollment_HappyPath(t *testing.T) {
	ctx := context.Background()
	s := openFlow(t, &memRepo{docs: make(map[string][]byte)}, CandidateEnrollment, "1")

	steps := []struct {
		id    string
		state draft.State
	}{
		{id: "job_role", state: draft.State{"role": "Technician", "project": "X"}},
		{id: "address", state: draft.State{
			"lat": 20.3, "lng": 85.8,
			"address": map[string]interface{}{"city": "Cuttack", "state": "Odisha", "pincode": "753001"},
		}},
		{id: "personal", state: draft.State{
			"name": "Asha", "gender": "F", "dob": "2001-05-04", "mobile": "9876543210",
			"education": "ITI", "declaration": true,
		}},
		{id: "live_capture", state: draft.State{
			"photo":    "data:image/jpeg;base64,AAAA",
			"location": map[string]interface{}{"lat": 20.3, "lng": 85.8, "accuracy": 12},
		}},
	}
	for i, st := range steps {
		require.Equal(t, i, s.Index())
		require.False(t, i > 0 && s.CanProceed(), "step %q should start invalid", st.id)
		require.NoError(t, s.Change(ctx, st.id, st.state))
		require.True(t, s.CanProceed(), "step %q: %v", st.id, s.Errors())
		want := wizard.Advanced
		if i == len(steps)-1 {
			want = wizard.AtEnd
		}
		require.Equal(t, want, s.Next(ctx))
	}

	var got wizard.Payload
	receipt, err := wizard.NewCoordinator(wizard.SubmitterFunc(func(_ context.Context, p wizard.Payload) error {
		got = p
		return nil
	}), nil, nil).Submit(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, CandidateEnrollment, receipt.Flow)

	data, err := json.Marshal(got)
	require.NoError(t, err)
	var decoded struct {
		Steps map[string]map[string]interface{} `json:"steps"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded.Steps, 4)
	assert.Equal(t, "Technician", decoded.Steps["job_role"]["role"])
	assert.Equal(t, "Cuttack", decoded.Steps["address"]["address"].(map[string]interface{})["city"])
	assert.Equal(t, true, decoded.Steps["personal"]["declaration"])
	assert.Equal(t, "data:image/jpeg;base64,AAAA", decoded.Steps["live_capture"]["photo"])
}

func TestCandidateEnrollment_MissingProject(t *testing.T) {
	ctx := context.Background()
	s := openFlow(t, &memRepo{docs: make(map[string][]byte)}, CandidateEnrollment, "2")

	require.NoError(t, s.Change(ctx, "job_role", draft.State{"role": "Technician", "project": ""}))
	assert.False(t, s.CanProceed())
	assert.Equal(t, []core.FieldError{{Field: "project", Error: "this field is required"}}, s.Errors())
	assert.Equal(t, wizard.Blocked, s.Next(ctx))
	assert.Equal(t, 0, s.Index())
}

func TestCandidateEnrollment_Resume(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{docs: make(map[string][]byte)}
	s := openFlow(t, repo, CandidateEnrollment, "3")
	require.NoError(t, s.Change(ctx, "job_role", draft.State{"role": "Technician", "project": "X"}))
	require.Equal(t, wizard.Advanced, s.Next(ctx))

	resumed := openFlow(t, repo, CandidateEnrollment, "3")
	assert.Equal(t, 1, resumed.Index())
	st, err := resumed.State("job_role")
	require.NoError(t, err)
	assert.Equal(t, draft.State{"role": "Technician", "project": "X"}, st)
}

func TestFlowRules(t *testing.T) {
	reg := DefaultRegistry()

	tests := []struct {
		name  string
		flow  string
		step  string
		state draft.State
		want  []string
	}{
		{
			name: "personal declaration unchecked", flow: CandidateEnrollment, step: "personal",
			state: draft.State{"name": "A", "gender": "F", "dob": "2001-01-01", "mobile": "1", "education": "ITI", "declaration": false},
			want:  []string{"declaration"},
		},
		{
			name: "zero latitude is present", flow: CandidateEnrollment, step: "address",
			state: draft.State{"lat": 0, "lng": 0, "address": map[string]interface{}{"city": "c", "state": "s", "pincode": "p"}},
		},
		{
			name: "capture without location", flow: CandidateEnrollment, step: "live_capture",
			state: draft.State{"photo": "data:image/png;base64,AA"},
			want:  []string{"location"},
		},
		{
			name: "empty roles", flow: PlacementDrive, step: "roles",
			state: draft.State{"roles": []interface{}{}},
			want:  []string{"roles"},
		},
		{
			name: "blank role", flow: PlacementDrive, step: "roles",
			state: draft.State{"roles": []interface{}{"Fitter", " "}},
			want:  []string{"roles[1]"},
		},
		{
			name: "contact email is presence only", flow: CompanyRegistration, step: "contact",
			state: draft.State{"person": "Asha", "email": "asha at acme", "phone": "9876543210"},
		},
		{
			name: "blank contact email", flow: CompanyRegistration, step: "contact",
			state: draft.State{"person": "Asha", "email": " ", "phone": "9876543210"},
			want:  []string{"email"},
		},
		{
			name: "review always passes", flow: CompanyRegistration, step: "review",
			state: draft.State{},
		},
		{
			name: "expected count missing", flow: CommunityDrive, step: "participants",
			state: draft.State{"mobilizer": "M"},
			want:  []string{"expected_count"},
		},
		{
			name: "passing year set", flow: StudentDetails, step: "academics",
			state: draft.State{"qualification": "12th", "passing_year": 2020},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := reg.Lookup(tt.flow)
			require.NoError(t, err)
			def := f.Steps[f.Steps.Index(tt.step)]
			state, err := draft.Normalize(tt.state)
			require.NoError(t, err)

			var got []string
			for _, fe := range def.Check(state) {
				got = append(got, fe.Field)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
