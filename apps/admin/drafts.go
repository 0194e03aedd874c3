package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/kaushal/core/draft"
)

func (cli *commandLine) draftsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Inspect and clear saved drafts",
	}

	var flow string
	list := &cobra.Command{
		Use:   "list",
		Short: "List saved drafts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.listDrafts(cmd, flow)
		},
	}
	list.Flags().StringVar(&flow, "flow", "", "only list the drafts of this flow")

	show := &cobra.Command{
		Use:   "show KEY",
		Short: "Print a saved draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.showDraft(cmd, args[0])
		},
	}

	var yes bool
	clear := &cobra.Command{
		Use:   "clear KEY",
		Short: "Delete a saved draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.clearDraft(cmd, args[0], yes)
		},
	}
	clear.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	cmd.AddCommand(list, show, clear)
	return cmd
}

func (cli *commandLine) listDrafts(cmd *cobra.Command, flow string) error {
	if flow != "" {
		if _, err := cli.registry.Lookup(flow); err != nil {
			return err
		}
	}
	keys, err := cli.store.Keys(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "listing drafts")
	}

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		if flow != "" && !strings.HasPrefix(key, flow+":") {
			continue
		}
		d := cli.store.Load(cmd.Context(), key)
		updated := "-"
		if !d.UpdatedAt.IsZero() {
			updated = d.UpdatedAt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, []string{key, strconv.Itoa(len(d.Steps)), strconv.Itoa(d.CurrentStep), updated})
	}
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no drafts")
		return nil
	}

	// cells need padding, the table truncates content that fills its column
	cell := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style { return cell }).
		Headers("KEY", "STEPS", "CURRENT", "UPDATED").
		Rows(rows...)
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}

func (cli *commandLine) showDraft(cmd *cobra.Command, key string) error {
	if err := cli.checkDraftExists(cmd, key); err != nil {
		return err
	}
	data, err := draft.Encode(cli.store.Load(cmd.Context(), key))
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err = json.Indent(&out, data, "", "  "); err != nil {
		return errors.Wrap(err, "indenting draft")
	}
	fmt.Fprintln(cmd.OutOrStdout(), out.String())
	return nil
}

func (cli *commandLine) clearDraft(cmd *cobra.Command, key string, yes bool) error {
	if err := cli.checkDraftExists(cmd, key); err != nil {
		return err
	}
	if !yes {
		if err := cli.confirm(fmt.Sprintf("Clear draft %q?", key)); err != nil {
			return err
		}
	}
	if err := cli.store.Clear(cmd.Context(), key); err != nil {
		return errors.Wrapf(err, "clearing draft %q", key)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "draft %q cleared\n", key)
	return nil
}

// checkDraftExists fails with errUnknownDraft, suggesting the closest saved key.
func (cli *commandLine) checkDraftExists(cmd *cobra.Command, key string) error {
	keys, err := cli.store.Keys(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "listing drafts")
	}
	for _, k := range keys {
		if k == key {
			return nil
		}
	}
	if s, ok := suggest(key, keys); ok {
		return errors.Wrapf(errUnknownDraft, "%q (did you mean %q?)", key, s)
	}
	return errors.Wrap(errUnknownDraft, key)
}
