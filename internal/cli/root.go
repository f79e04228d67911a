// Package cli implements the basestyle command line.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/dshills/basestyle/internal/logging"
	"github.com/dshills/basestyle/internal/notice"
	"github.com/dshills/basestyle/internal/plugin"
)

// DefaultConfigPath is the settings file used when --config is not given.
const DefaultConfigPath = "data.json"

// ValidLogFormats defines the allowed --log-format values.
var ValidLogFormats = []string{string(logging.FormatConsole), string(logging.FormatJSON)}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string

	logger *logging.Logger
}

// Logger returns the logger configured from the global flags.
func (o *RootOptions) Logger() *logging.Logger {
	if o.logger == nil {
		return logging.NullLogger
	}
	return o.logger
}

// newPlugin creates a plugin reading o.ConfigPath. Notices go to the log
// unless cfg names another notifier.
func (o *RootOptions) newPlugin(cfg plugin.Config) *plugin.Plugin {
	cfg.SettingsPath = o.ConfigPath
	cfg.Logger = o.Logger()
	if cfg.Notifier == nil {
		cfg.Notifier = notice.NewLogNotifier(o.Logger())
	}
	return plugin.New(cfg)
}

// NewRootCommand creates the root command for the basestyle CLI.
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "basestyle",
		Short: "Style base view cells with prefixed CSS classes",
		Long: `basestyle decorates the cells of rendered base views with CSS classes
derived from each cell's value, using static class templates or snippets.

Every class it adds starts with the configured prefix, and only classes
with that prefix are ever removed.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidLogFormats, opts.LogFormat) {
				return fmt.Errorf("invalid log format %q: must be one of %v", opts.LogFormat, ValidLogFormats)
			}
			opts.logger = logging.New(logging.Config{
				Level:  logging.ParseLevel(opts.LogLevel),
				Output: cmd.ErrOrStderr(),
				Name:   "basestyle",
				Format: logging.Format(opts.LogFormat),
			})
			logging.SetLogger(opts.logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			opts.Logger().Sync()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", DefaultConfigPath, "settings file (.json, .toml, .yaml)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", string(logging.FormatConsole), "log format (console|json)")

	cmd.AddCommand(NewDecorateCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}
