package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/setu007/play-scraper-render/internal/archive"
	"github.com/setu007/play-scraper-render/internal/pipeline"
	"github.com/setu007/play-scraper-render/pkg/database"
)

type runOptions struct {
	keywords string
	per      string
	filter   string
	empty    string
	out      string
	archive  bool
}

func newRunCmd(g *globals) *cobra.Command {
	o := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a report locally and write it to a file",
		Long: `Run the full pipeline in-process: fetch candidates for each keyword, resolve
publishers, classify them and render the report.

The report goes to --out. Without --out the report file name is used
(inactive_devs.csv or all_devs.csv). "--out -" writes to stdout.
A summary is printed to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, g, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.keywords, "keywords", pipeline.DefaultKeywords, "Comma separated keywords")
	f.StringVar(&o.per, "per", "", "Apps per keyword (default depends on source mode)")
	f.StringVar(&o.filter, "filter", "", "inactive or all (default from config)")
	f.StringVar(&o.empty, "empty", "", "plain, placeholder or diagnostic (default from config)")
	f.StringVarP(&o.out, "out", "o", "", "Output file, - for stdout")
	f.BoolVar(&o.archive, "archive", false, "Also store the run in the sqlite archive")
	return cmd
}

func runReport(cmd *cobra.Command, g *globals, o *runOptions) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg, g.logger(cmd))
	if err != nil {
		return err
	}

	out, err := p.Execute(cmd.Context(), pipeline.Request{
		Keywords: pipeline.ParseKeywords(o.keywords),
		Per:      p.Bounds.Clamp(o.per),
		Filter:   o.filter,
		Empty:    o.empty,
	})
	if err != nil {
		return err
	}

	dest := o.out
	if dest == "" {
		dest = out.Filename
		if !out.Document.IsCSV() {
			dest = "diagnostic.json"
		}
	}
	if err := writeReport(cmd.OutOrStdout(), dest, out.Document.Body); err != nil {
		return err
	}

	if o.archive || cfg.Archive.Enabled {
		db, err := database.OpenArchive(database.Config{Path: archivePath(cfg)})
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer db.Close()
		if err := archive.NewRepo(db).Save(cmd.Context(), archive.FromOutcome(out)); err != nil {
			return err
		}
	}

	printSummary(cmd.ErrOrStderr(), out, dest)
	return nil
}

func writeReport(stdout io.Writer, dest string, body []byte) error {
	if dest == "-" {
		_, err := stdout.Write(append(body, '\n'))
		return err
	}
	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(dest, body, 0o644)
}

func printSummary(w io.Writer, out *pipeline.Outcome, dest string) {
	res := out.Result
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	bold.Fprintf(w, "run %s\n", res.ID)
	fmt.Fprintf(w, "  keywords:    %d (%d apps each)\n", len(res.Keywords), res.PerKeyword)
	fmt.Fprintf(w, "  apps seen:   %d\n", res.TotalCandidatesSeen)
	fmt.Fprintf(w, "  publishers:  %d\n", res.Publishers.Len())
	green.Fprintf(w, "  reported:    %d (%s)\n", len(out.Rows), out.Filter)
	if n := len(res.Errors); n > 0 {
		yellow.Fprintf(w, "  errors:      %d\n", n)
	}
	if dest != "-" {
		fmt.Fprintf(w, "  written to:  %s\n", dest)
	}
}
