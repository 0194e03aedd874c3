// Command wizard fills a flow's draft from the terminal. Drafts survive quitting and resume where they were left.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/kaushal/core"
	"github.com/trezcool/kaushal/core/draft"
	"github.com/trezcool/kaushal/core/flows"
	"github.com/trezcool/kaushal/core/media"
	"github.com/trezcool/kaushal/core/submission"
	"github.com/trezcool/kaushal/core/wizard"
	emailsvc "github.com/trezcool/kaushal/services/email"
	geocodesvc "github.com/trezcool/kaushal/services/geocode"
	logsvc "github.com/trezcool/kaushal/services/logger"
	"github.com/trezcool/kaushal/storage"
)

const defaultLogFile = "wizard.log"

// mockable
var runProgramFunc = func(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m, tea.WithAltScreen()).Run()
}

func main() {
	if err := rootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "wizard FLOW DRAFT_ID",
		Short:         "Fill a flow from the terminal",
		Long:          "Fill a flow from the terminal. Every edit is saved to the draft, which resumes on the next run.",
		Args:          cobra.RangeArgs(0, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := flows.DefaultRegistry()
			if len(args) < 2 {
				listFlows(out, registry)
				if len(args) == 0 {
					return nil
				}
				return errors.New("missing DRAFT_ID")
			}
			return run(cmd.Context(), out, registry, args[0], args[1])
		},
	}
	return cmd
}

func listFlows(out io.Writer, registry *flows.Registry) {
	fmt.Fprintln(out, "Flows:")
	for _, f := range registry.All() {
		fmt.Fprintf(out, "  %-22s %s (%d steps)\n", f.Name, f.Title, len(f.Steps))
	}
}

func run(ctx context.Context, out io.Writer, registry *flows.Registry, flowName, id string) error {
	f, err := registry.Lookup(flowName)
	if err != nil {
		return err
	}

	conf := core.NewConfig()
	if conf.Log.File == "" {
		conf.Log.File = defaultLogFile
	}
	logger, err := logsvc.NewRollbarLogger(conf)
	if err != nil {
		return err
	}
	logger.Enable(!conf.Debug)
	defer func() { _ = logger.Sync() }()

	st, err := storage.Open(ctx, conf)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("Failed to close storage", err)
		}
	}()

	store, err := draft.NewStore(st.Drafts, logger)
	if err != nil {
		return err
	}
	session, err := wizard.Open(ctx, store, flows.DraftKey(f.Name, id), f.Steps,
		wizard.WithFlow(f.Name), wizard.WithLogger(logger))
	if err != nil {
		return err
	}

	emails := emailsvc.NewConsoleService(conf, logger)
	coordinator := wizard.NewCoordinator(
		submission.NewNotifier(submission.NewRecorder(st.Submissions), emails, logger),
		logger, nil,
	)
	capturer := media.NewCapturer(geocodesvc.NewNominatim(conf.Geocoding), logger,
		media.WithMaxPixels(conf.Media.MaxPhotoPixels))

	result, err := runProgramFunc(newModel(ctx, session, coordinator, capturer))
	if err != nil {
		return errors.Wrap(err, "running wizard")
	}
	final, ok := result.(model)
	if !ok {
		return errors.New("wizard returned an unexpected model")
	}
	if final.receipt != nil {
		fmt.Fprintf(out, "%s submitted: %s\n", f.Title, final.receipt.ID)
		return nil
	}
	if final.err != nil {
		return final.err
	}
	fmt.Fprintf(out, "draft %s saved at step %d/%d\n", session.Key(), session.Index()+1, session.Len())
	return nil
}
