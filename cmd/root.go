package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/msalah0e/relmap/internal/config"
	"github.com/msalah0e/relmap/internal/journal"
	"github.com/msalah0e/relmap/internal/logging"
	"github.com/msalah0e/relmap/internal/ui"
)

var version = "0.3.0"

var (
	debugMode bool
	noColor   bool

	cfg    = config.Default()
	logger = logging.Discard()
)

var rootCmd = &cobra.Command{
	Use:   "relmap",
	Short: "relmap: lay out company relationship graphs",
	Long: ui.Brand.Sprint(ui.Mark+" relmap") + ": force-directed maps of company relations\n" +
		ui.Subtle.Sprint("Build, filter and lay out relationship graphs from JSON, YAML or TOML records"),
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		ui.SetColor(cfg.UI.Color && !noColor && os.Getenv("NO_COLOR") == "")
		logger = logging.New(logging.Options{Level: cfg.Log.Level, Debug: debugMode})
	},
}

func init() {
	rootCmd.SetVersionTemplate("relmap {{ .Version }}\n")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Log simulation and pipeline details")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		layoutCmd(),
		showCmd(),
		batchCmd(),
		configCmd(),
		journalCmd(),
		versionCmd(),
		completionCmd(),
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// openJournal returns the event journal, or nil when it is disabled.
func openJournal() *journal.Journal {
	if !cfg.Journal.Enabled {
		return nil
	}
	return journal.Open(journal.DefaultPath())
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the relmap version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("relmap %s\n", version)
		},
	}
}

// fail prints a formatted error and exits.
func fail(format string, args ...any) {
	ui.Bad.Fprintf(os.Stderr, "  "+format+"\n", args...)
	os.Exit(1)
}
