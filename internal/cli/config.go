package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/basestyle/internal/notice"
	"github.com/dshills/basestyle/internal/plugin"
	"github.com/dshills/basestyle/internal/script"
	"github.com/dshills/basestyle/internal/settings"
)

// NewConfigCommand creates the config command and its subcommands.
// Columns are numbered from 1, as in the settings UI.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit the settings file",
		Long: `Config shows or edits the settings file named by --config.

Every edit is validated and saved immediately. A missing file starts
from the defaults and is created by the first edit.`,
	}

	var format string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPlugin(cmd.Context(), rootOpts, func(p *plugin.Plugin) error {
				return showSettings(cmd.OutOrStdout(), p.Store(), format)
			})
		},
	}
	show.Flags().StringVar(&format, "format", "", "output format (json|toml|yaml), default: that of the file")
	cmd.AddCommand(show)

	cmd.AddCommand(&cobra.Command{
		Use:   "help-snippets",
		Short: "Explain computed-column snippets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), script.Help)
			return err
		},
	})

	cmd.AddCommand(editCommand(rootOpts, "set-prefix <prefix>", "Set the managed class prefix", 1,
		func(ed *settings.Editor, args []string) error {
			return ed.SetPrefix(args[0])
		}))
	cmd.AddCommand(editCommand(rootOpts, "set-debounce <milliseconds>", "Set the debounce interval", 1,
		func(ed *settings.Editor, args []string) error {
			return ed.SetDebounce(args[0])
		}))
	cmd.AddCommand(editCommand(rootOpts, "observe-attributes <true|false>", "React to value and checked attribute edits", 1,
		func(ed *settings.Editor, args []string) error {
			on, err := strconv.ParseBool(args[0])
			if err != nil {
				return fmt.Errorf("observe-attributes: %w", err)
			}
			return ed.SetObserveAttributes(on)
		}))

	addColumn := &cobra.Command{
		Use:   "add-column",
		Short: "Append an empty static column and print its number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPlugin(cmd.Context(), rootOpts, func(p *plugin.Plugin) error {
				index, err := p.Editor().AddColumn()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), index+1)
				return err
			})
		},
	}
	cmd.AddCommand(addColumn)

	cmd.AddCommand(columnCommand(rootOpts, "remove-column <n>", "Remove column n", 0,
		func(ed *settings.Editor, index int, _ []string) error {
			return ed.RemoveColumn(index)
		}))
	cmd.AddCommand(columnCommand(rootOpts, "set-property <n> <property>", "Set the data property column n targets", 1,
		func(ed *settings.Editor, index int, args []string) error {
			return ed.SetDataProperty(index, args[0])
		}))
	cmd.AddCommand(columnCommand(rootOpts, "set-mode <n> <static|computed>", "Switch column n between static and computed", 1,
		func(ed *settings.Editor, index int, args []string) error {
			return ed.SetMode(index, args[0])
		}))
	cmd.AddCommand(columnCommand(rootOpts, "set-classes <n> <template>", "Set the class template of column n", 1,
		func(ed *settings.Editor, index int, args []string) error {
			return ed.SetClasses(index, args[0])
		}))
	cmd.AddCommand(columnCommand(rootOpts, "set-snippet <n> <source>", "Set the snippet of column n (- reads stdin)", 1,
		func(ed *settings.Editor, index int, args []string) error {
			return ed.SetSnippet(index, args[0])
		}))
	cmd.AddCommand(columnCommand(rootOpts, "set-engine <n> <lua|expr|cel>", "Set the snippet engine of column n", 1,
		func(ed *settings.Editor, index int, args []string) error {
			return ed.SetEngine(index, args[0])
		}))

	return cmd
}

// withPlugin loads the settings, runs fn and unloads. Rejected edits are
// returned as errors, so notices are not logged twice.
func withPlugin(ctx context.Context, root *RootOptions, fn func(*plugin.Plugin) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	p := root.newPlugin(plugin.Config{Notifier: notice.Discard})
	if err := p.Load(ctx); err != nil {
		return err
	}
	defer p.Unload()
	return fn(p)
}

func editCommand(root *RootOptions, use, short string, nargs int, edit func(*settings.Editor, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPlugin(cmd.Context(), root, func(p *plugin.Plugin) error {
				return edit(p.Editor(), args)
			})
		},
	}
}

func columnCommand(root *RootOptions, use, short string, nargs int, edit func(*settings.Editor, int, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs + 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid column number %q", args[0])
			}
			rest := args[1:]
			if len(rest) > 0 && rest[len(rest)-1] == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				rest[len(rest)-1] = strings.TrimRight(string(data), "\n")
			}
			return withPlugin(cmd.Context(), root, func(p *plugin.Plugin) error {
				return edit(p.Editor(), n-1, rest)
			})
		},
	}
}

func showSettings(w io.Writer, store *settings.Store, format string) error {
	f := store.Format()
	switch format {
	case "":
	case "json":
		f = settings.FormatJSON
	case "toml":
		f = settings.FormatTOML
	case "yaml", "yml":
		f = settings.FormatYAML
	default:
		return fmt.Errorf("%w: %q", settings.ErrUnsupportedFormat, format)
	}
	data, err := settings.Encode(store.Settings(), f)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
