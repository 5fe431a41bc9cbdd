package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/setu007/play-scraper-render/internal/archive"
	"github.com/setu007/play-scraper-render/pkg/database"
)

func newReportsCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Browse the local report archive",
		Long: `Read runs stored in the sqlite archive (archive.path or PLAYSCOUT_DB_PATH).

Examples:
  playscout reports list --limit 5
  playscout reports export 0b6f1c1e-... --out last.csv
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newReportsListCmd(g), newReportsExportCmd(g))
	return cmd
}

func openRepo(g *globals) (*archive.Repo, func(), error) {
	cfg, err := g.load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.OpenArchive(database.Config{Path: archivePath(cfg)})
	if err != nil {
		return nil, nil, fmt.Errorf("open archive: %w", err)
	}
	return archive.NewRepo(db), func() { _ = db.Close() }, nil
}

func newReportsListCmd(g *globals) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeFn, err := openRepo(g)
			if err != nil {
				return err
			}
			defer closeFn()

			runs, err := repo.List(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no archived runs")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
			color.New(color.Bold).Fprintln(w, "ID\tSTARTED\tKEYWORDS\tFILTER\tROWS\tERRORS")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
					r.ID, r.StartedAt.Format("2006-01-02 15:04"), strings.Join(r.Keywords, ","),
					r.Filter, r.Rows, len(r.Errors))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Max runs to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Runs to skip")
	return cmd
}

func newReportsExportCmd(g *globals) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Write the report of an archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeFn, err := openRepo(g)
			if err != nil {
				return err
			}
			defer closeFn()

			run, err := repo.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("run not found: %s", args[0])
			}

			dest := out
			if dest == "" {
				dest = run.Filename
			}
			return writeReport(cmd.OutOrStdout(), dest, run.Body)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file, - for stdout (default: original file name)")
	return cmd
}
