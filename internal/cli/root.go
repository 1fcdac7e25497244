package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/layersync/internal/config"
)

// RootOptions holds global flags and the configuration shared by all
// commands. Config and Logger are filled in before any command runs.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	Database   string

	Config *config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the layersync CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "layersync",
		Short: "layersync - keep layer collections and record stores in step",
		Long: `Bidirectional synchronization between an ordered collection of map
layers and an ordered record store.

Runs sync scenarios against the engine, validates CUE layer manifests and
inspects the run journal.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.load(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default ./layersync.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the SQLite run journal")

	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))

	return cmd
}

// load reads the configuration, lets --db override store.path and installs
// the logger.
func (o *RootOptions) load(cmd *cobra.Command) error {
	v, err := config.New(o.ConfigFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if f := cmd.Flags().Lookup("db"); f != nil {
		if err := v.BindPFlag("store.path", f); err != nil {
			return WrapExitError(ExitCommandError, "failed to bind --db", err)
		}
	}
	if o.Verbose {
		v.Set("log.level", "debug")
	}

	cfg, err := config.Load(v)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}
	o.Config = cfg
	o.Database = cfg.Store.Path
	o.Logger = newLogger(cfg.Log, cmd.ErrOrStderr())
	return nil
}

// logger returns the configured logger, or slog.Default() when the command
// runs without the root command (as in tests).
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
