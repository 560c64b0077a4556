package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/phsym/console-slog"
	"github.com/spf13/cobra"
	"github.com/vango-dev/signals/internal/config"
	"github.com/vango-dev/signals/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are shared by every command.
type globalFlags struct {
	config   string
	logLevel string
}

func main() {
	godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprint(os.Stderr, errors.Format(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "signals",
		Short: "Serve a reactive signal graph",
		Long: `Signals loads a graph of named signals and computed values from YAML.

Writing a signal updates every computed value that depends on it before the
write returns. The graph can be served over HTTP and WebSocket, evaluated
once from the command line, or checked for errors.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", config.ConfigFileName, "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(
		serveCmd(flags),
		runCmd(flags),
		checkCmd(flags),
		inspectCmd(flags),
		initCmd(flags),
		versionCmd(),
	)

	return rootCmd
}

// loadConfig loads and validates the configuration named by flags, applying
// environment overrides.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.config)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger creates a console logger at the configured level.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level, err := cfg.Log.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(console.NewHandler(w, &console.HandlerOptions{
		Level: level,
	}))
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}
