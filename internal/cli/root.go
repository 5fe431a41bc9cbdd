package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/setu007/play-scraper-render/pkg/database"
	"github.com/setu007/play-scraper-render/pkg/utils"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

// globals holds the persistent flags shared by every command.
type globals struct {
	configPath string
	verbose    bool
}

func NewRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "playscout",
		Short: "Find app-store publishers that look inactive",
		Long: `playscout queries an app-store catalog for keywords, groups the apps it finds
by publisher and reports publishers with few apps and no recent update.

Examples:
	# Run locally and write inactive_devs.csv
	playscout run --keywords tools,productivity --per 20

	# Print every publisher to stdout
	playscout run --filter all --out -

	# Follow the progress of runs on a server
	playscout watch --api http://localhost:3000

Configuration:
	Defaults, then the YAML file from --config or PLAYSCOUT_CONFIG, then
	PLAYSCOUT_* environment variables.`,
		SilenceUsage: true,
		Version:      fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate),
	}
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "Path to a YAML config file")
	root.PersistentFlags().BoolVar(&g.verbose, "verbose", false, "Log every upstream step")

	root.AddCommand(
		newRunCmd(g),
		newTokenCmd(g),
		newReportsCmd(g),
		newWatchCmd(g),
	)
	return root
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}
}

// Execute runs the CLI; SIGINT/SIGTERM cancel the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (g *globals) load() (utils.Config, error) {
	return utils.Load(g.configPath)
}

// logger writes to stderr with --verbose and discards otherwise.
func (g *globals) logger(cmd *cobra.Command) *log.Logger {
	if !g.verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
}

func archivePath(cfg utils.Config) string {
	if cfg.Archive.Path != "" {
		return cfg.Archive.Path
	}
	return database.DefaultConfig().Path
}
