package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/basestyle/internal/plugin"
)

type decorateOptions struct {
	output   string
	selector string
	tree     bool
}

// NewDecorateCommand creates the decorate command.
func NewDecorateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &decorateOptions{}

	cmd := &cobra.Command{
		Use:   "decorate <file.html>",
		Short: "Decorate a rendered view once and print it",
		Long: `Decorate parses an HTML export of a base view, runs one decoration
pass over every view container and writes the result.

With --tree the containers are printed as an indented element tree
instead of HTML.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecorate(cmd.Context(), rootOpts, opts, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().StringVar(&opts.selector, "container", DefaultContainerSelector, "CSS selector of view containers")
	cmd.Flags().BoolVar(&opts.tree, "tree", false, "print element trees instead of HTML")

	return cmd
}

func runDecorate(ctx context.Context, root *RootOptions, opts *decorateOptions, path string, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := root.Logger().WithComponent("decorate")

	doc, containers, err := loadView(path, opts.selector)
	if err != nil {
		return err
	}

	p := root.newPlugin(plugin.Config{})
	if err := p.Load(ctx); err != nil {
		return err
	}
	defer closeLogged(log, "unloading plugin", p.Unload)

	for _, c := range containers {
		stats, err := p.Decorate(c)
		if err != nil {
			return err
		}
		log.Info("decorated %d cells, %d changed, %d rejected, %d faults",
			stats.Cells, stats.Changed, stats.Rejected, stats.Faults)
	}

	return writeOutput(w, opts.output, doc, containers, opts.tree)
}
