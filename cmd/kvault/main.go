package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/knowledge-vault/internal/app"
	"github.com/joseph-ayodele/knowledge-vault/internal/common"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

type globals struct {
	configPath string
	jsonOutput bool
	inMemory   bool
	verbose    bool
}

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g := &globals{}
	root := newRootCmd(g)
	if err := root.ExecuteContext(ctx); err != nil {
		printError("Error: %v\n", err)
		stop()
		os.Exit(common.ExitCode(err))
	}
}

func newRootCmd(g *globals) *cobra.Command {
	root := &cobra.Command{
		Use:           "kvault",
		Short:         "Personal knowledge vault",
		Long:          "kvault imports files, directories and web pages into a deduplicated vault and sorts them into categories.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "path to a YAML config file (default $KVAULT_CONFIG)")
	root.PersistentFlags().BoolVarP(&g.jsonOutput, "json", "j", false, "output as JSON")
	root.PersistentFlags().BoolVar(&g.inMemory, "inmem", false, "keep items in memory instead of the database")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log pipeline stages")

	root.AddCommand(
		newVersionCmd(g),
		newImportCmd(g),
		newClassifyCmd(g),
		newReclassifyCmd(g),
		newCategoriesCmd(g),
		newRulesCmd(g),
		newExportCmd(g),
		newInfoCmd(g),
	)
	return root
}

func newVersionCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			if g.jsonOutput {
				printJSON(map[string]string{"version": version, "commit": commit, "date": buildDate})
				return
			}
			fmt.Printf("kvault %s (%s, %s)\n", version, commit, buildDate)
		},
	}
}

// open loads configuration and wires the vault.
func (g *globals) open(ctx context.Context) (*app.App, error) {
	cfg, err := common.LoadConfig(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.verbose {
		cfg.Log.Level = "debug"
	}
	// logs go to stderr so that --json output stays parseable
	logger := common.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)
	return app.New(ctx, cfg, logger, app.Options{InMemory: g.inMemory})
}

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		printError("Error: encode output: %v\n", err)
	}
}
