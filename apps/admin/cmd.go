package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/kaushal/core/draft"
	"github.com/trezcool/kaushal/core/flows"
	"github.com/trezcool/kaushal/core/submission"
)

var (
	isTerminalFunc = term.IsTerminal // mockable

	errNoDatabase   = errors.New("this command needs the postgres or redis draft backend")
	errNotConfirmed = errors.New("aborted")
	errNotATerminal = errors.New("refusing to clear a draft without confirmation: use --yes")
	errUnknownDraft = errors.New("unknown draft")

	// minimum similarity ratio of a suggested draft key
	suggestMinRatio = 0.7
)

type commandLine struct {
	db          *sql.DB // nil with the memory backend
	store       *draft.Store
	registry    *flows.Registry
	submissions submission.Repository
	in          io.Reader
	out         io.Writer
	stdinFd     int
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Kaushal administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(cli.in)
	root.SetOut(cli.out)
	root.SetErr(cli.out)

	root.AddCommand(cli.migrateCmd(), cli.draftsCmd(), cli.submissionsCmd())
	return root
}

func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	root.SetArgs(args[1:])
	return root.ExecuteContext(context.Background())
}

// confirm asks a yes/no question on an interactive input.
func (cli *commandLine) confirm(question string) error {
	if !isTerminalFunc(cli.stdinFd) {
		return errNotATerminal
	}
	fmt.Fprintf(cli.out, "%s [y/N] ", question)
	answer, err := bufio.NewReader(cli.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return errors.Wrap(err, "reading answer")
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	}
	return errNotConfirmed
}

// suggest returns the known key closest to key, if it is similar enough.
func suggest(key string, known []string) (string, bool) {
	best, bestRatio := "", 0.0
	sorted := append([]string(nil), known...)
	sort.Strings(sorted)
	for _, k := range sorted {
		ratio := difflib.NewMatcher(strings.Split(key, ""), strings.Split(k, "")).Ratio()
		if ratio > bestRatio {
			best, bestRatio = k, ratio
		}
	}
	return best, bestRatio >= suggestMinRatio
}
