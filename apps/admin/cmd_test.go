package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kaushal/core"
	"github.com/trezcool/kaushal/core/draft"
	"github.com/trezcool/kaushal/core/export"
	"github.com/trezcool/kaushal/core/flows"
	"github.com/trezcool/kaushal/core/wizard"
	inmemdb "github.com/trezcool/kaushal/storage/database/inmem"
	testutil "github.com/trezcool/kaushal/tests"
)

type cliTest struct {
	name       string
	args       []string // without program name
	input      string
	wantErr    error
	wantErrStr string
	wantOut    []string
}

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	db := inmemdb.Open()
	store, err := draft.NewStore(inmemdb.NewDraftRepository(db), core.NopLogger{})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = store.SaveStep(ctx, "candidate_enrollment:1", "job_role", draft.State{"role": "Fitter"})
	require.NoError(t, err)
	_, err = store.SaveStep(ctx, "community_drive:7", "event", draft.State{"project": "X"})
	require.NoError(t, err)

	subs := inmemdb.NewSubmissionRepository(db)
	testutil.CreateSubmission(t, subs, flows.CommunityDrive, "community_drive:3",
		[]wizard.PayloadStep{{ID: "event", State: draft.State{"project": "DDU-GKY"}}})

	var out bytes.Buffer
	return &commandLine{
		store:       store,
		registry:    flows.DefaultRegistry(),
		submissions: subs,
		in:          strings.NewReader(""),
		out:         &out,
		stdinFd:     -1,
	}, &out
}

func runTest(t *testing.T, cli *commandLine, out *bytes.Buffer, tt cliTest) {
	out.Reset()
	cli.in = strings.NewReader(tt.input)
	args := append([]string{"admin"}, tt.args...)

	err := cli.run(args)
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err), "cli.run() error = %v", err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
	for _, s := range tt.wantOut {
		assert.Contains(t, out.String(), s)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, out := setup(t)

	t.Run("memory backend", func(t *testing.T) {
		runTest(t, cli, out, cliTest{args: []string{"migrate", "up"}, wantErr: errNoDatabase})
	})

	cli.db = &sql.DB{}
	defer func(f func(context.Context, *sql.DB, string, ...string) error) { gooseRunFunc = f }(gooseRunFunc)
	gooseRunFunc = func(_ context.Context, _ *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErrStr: "requires at least 1 arg(s), only received 0"},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runTest(t, cli, out, tt)
		})
	}
}

func Test_commandLine_drafts(t *testing.T) {
	cli, out := setup(t)

	tests := []cliTest{
		{name: "list", args: []string{"drafts", "list"}, wantOut: []string{"KEY", "candidate_enrollment:1", "community_drive:7"}},
		{name: "list by flow", args: []string{"drafts", "list", "--flow", "community_drive"}, wantOut: []string{"community_drive:7"}},
		{name: "list unknown flow", args: []string{"drafts", "list", "--flow", "nope"}, wantErr: wizard.ErrUnknownFlow},
		{name: "show", args: []string{"drafts", "show", "candidate_enrollment:1"}, wantOut: []string{`"role": "Fitter"`, `"schema_version": 1`}},
		{
			name:       "show close match",
			args:       []string{"drafts", "show", "candidate_enrolment:1"},
			wantErrStr: `"candidate_enrolment:1" (did you mean "candidate_enrollment:1"?): unknown draft`,
		},
		{name: "show far off", args: []string{"drafts", "show", "xyz"}, wantErrStr: "xyz: unknown draft"},
		{name: "clear needs a terminal", args: []string{"drafts", "clear", "community_drive:7"}, wantErr: errNotATerminal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runTest(t, cli, out, tt)
		})
	}

	runTest(t, cli, out, cliTest{args: []string{"drafts", "list", "--flow", "community_drive"}})
	assert.NotContains(t, out.String(), "candidate_enrollment:1")

	// cells are never cut short
	runTest(t, cli, out, cliTest{args: []string{"drafts", "list"}, wantOut: []string{"│ candidate_enrollment:1 │", "│ UPDATED"}})
	assert.NotContains(t, out.String(), "…")

	defer func(f func(int) bool) { isTerminalFunc = f }(isTerminalFunc)
	isTerminalFunc = func(int) bool { return true }

	confirmTests := []cliTest{
		{name: "declined", args: []string{"drafts", "clear", "community_drive:7"}, input: "n\n", wantErr: errNotConfirmed},
		{name: "no answer", args: []string{"drafts", "clear", "community_drive:7"}, wantErr: errNotConfirmed},
		{name: "confirmed", args: []string{"drafts", "clear", "community_drive:7"}, input: "yes\n", wantOut: []string{"[y/N]", "cleared"}},
		{name: "already cleared", args: []string{"drafts", "clear", "community_drive:7", "--yes"}, wantErr: errUnknownDraft},
		{name: "--yes skips the prompt", args: []string{"drafts", "clear", "-y", "candidate_enrollment:1"}, wantOut: []string{"cleared"}},
	}
	for _, tt := range confirmTests {
		t.Run(tt.name, func(t *testing.T) {
			runTest(t, cli, out, tt)
		})
	}

	runTest(t, cli, out, cliTest{args: []string{"drafts", "list"}, wantOut: []string{"no drafts"}})
}

func Test_commandLine_submissions(t *testing.T) {
	cli, out := setup(t)

	tests := []cliTest{
		{name: "csv to stdout", args: []string{"submissions", "export"}, wantOut: []string{"id,flow,draft_key,submitted_at,event.project", "DDU-GKY"}},
		{name: "unknown format", args: []string{"submissions", "export", "--format", "xml"}, wantErr: export.ErrUnknownFormat},
		{name: "unknown flow", args: []string{"submissions", "export", "--flow", "nope"}, wantErr: wizard.ErrUnknownFlow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runTest(t, cli, out, tt)
		})
	}

	t.Run("pdf to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "subs.pdf")
		runTest(t, cli, out, cliTest{args: []string{"submissions", "export", "--format", "pdf", "-o", path}, wantOut: []string{"1 submissions exported"}})
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	})
}

func Test_suggest(t *testing.T) {
	known := []string{"candidate_enrollment:1", "community_drive:7"}
	got, ok := suggest("community_drive:8", known)
	assert.True(t, ok)
	assert.Equal(t, "community_drive:7", got)
	_, ok = suggest("zzz", known)
	assert.False(t, ok)
	_, ok = suggest("x", nil)
	assert.False(t, ok)
}
