package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/kaushal/core"
	"github.com/trezcool/kaushal/core/export"
	"github.com/trezcool/kaushal/core/submission"
)

func (cli *commandLine) submissionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submissions",
		Short: "Work with submitted records",
	}

	var (
		filter   submission.QueryFilter
		format   string
		outPath  string
		ordering string
	)
	exp := &cobra.Command{
		Use:   "export",
		Short: "Export submissions to a CSV or PDF file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exporter, err := export.ByFormat(format)
			if err != nil {
				return err
			}
			if filter.Flow != "" {
				if _, err = cli.registry.Lookup(filter.Flow); err != nil {
					return err
				}
			}
			filter.Clean()
			records, err := cli.submissions.QuerySubmissions(cmd.Context(), filter, core.ParseOrderings(ordering)...)
			if err != nil {
				return errors.Wrap(err, "querying submissions")
			}

			var w io.Writer = cmd.OutOrStdout()
			if outPath != "" && outPath != "-" {
				f, err := os.Create(outPath)
				if err != nil {
					return errors.Wrap(err, "creating export file")
				}
				defer f.Close()
				w = f
			}
			title := "Submissions"
			if filter.Flow != "" {
				title += " - " + filter.Flow
			}
			if err = exporter.Export(w, submission.Table(title, records)); err != nil {
				return errors.Wrapf(err, "exporting submissions to %s", exporter.Extension())
			}
			if outPath != "" && outPath != "-" {
				cmd.PrintErrf("%d submissions exported to %s\n", len(records), outPath)
			}
			return nil
		},
	}
	exp.Flags().StringVar(&filter.Flow, "flow", "", "only export the submissions of this flow")
	exp.Flags().StringVar(&filter.Search, "search", "", "only export the submissions matching this text")
	exp.Flags().StringVar(&format, "format", "csv", "export format: csv or pdf")
	exp.Flags().StringVarP(&outPath, "out", "o", "-", "output file, - for stdout")
	exp.Flags().StringVar(&ordering, "ordering", "", "comma separated fields, prefixed with - for descending order")

	cmd.AddCommand(exp)
	return cmd
}
