package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trezcool/kaushal/core"
	"github.com/trezcool/kaushal/core/draft"
	"github.com/trezcool/kaushal/core/flows"
	"github.com/trezcool/kaushal/core/media"
	"github.com/trezcool/kaushal/core/submission"
	"github.com/trezcool/kaushal/core/wizard"
	inmemdb "github.com/trezcool/kaushal/storage/database/inmem"
)

const testBodyLimit = "64K"

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
}

type testApp struct {
	*Server
	store       *draft.Store
	submissions submission.Repository
}

// setup builds a server on in-memory storage. submitter defaults to recording submissions.
func setup(t *testing.T, submitter ...wizard.Submitter) testApp {
	db := inmemdb.Open()
	store, err := draft.NewStore(inmemdb.NewDraftRepository(db), core.NopLogger{})
	require.NoError(t, err)
	subRepo := inmemdb.NewSubmissionRepository(db)

	var sub wizard.Submitter = submission.NewRecorder(subRepo)
	if len(submitter) > 0 {
		sub = submitter[0]
	}
	translator := core.NewTranslator()
	reg, err := flows.NewRegistry(core.NewValidator(translator), translator)
	require.NoError(t, err)

	srv := NewServer(ServerDeps{
		Conf:        &core.Config{AppName: "Kaushal", TestMode: true, Server: core.ServerConfig{BodyLimit: testBodyLimit}},
		Translator:  translator,
		Registry:    reg,
		Wizards:     wizard.NewManager(store, nil, nil),
		Coordinator: wizard.NewCoordinator(sub, nil, nil),
		Capturer:    media.NewCapturer(nil, nil),
		Submissions: subRepo,
	})
	return testApp{Server: srv, store: store, submissions: subRepo}
}

func (app testApp) do(method, path string, data ...[]byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body).WithContext(context.Background())
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	require.NoError(t, err, "marshallObj()")
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest), rec.Body.String())
}

var _ http.Handler = (*Server)(nil)
