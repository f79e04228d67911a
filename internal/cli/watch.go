package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/basestyle/internal/decorate"
	"github.com/dshills/basestyle/internal/dom"
	"github.com/dshills/basestyle/internal/filewatch"
	"github.com/dshills/basestyle/internal/logging"
	"github.com/dshills/basestyle/internal/loop"
	"github.com/dshills/basestyle/internal/plugin"
)

type watchOptions struct {
	output   string
	selector string
	tree     bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <file.html>",
		Short: "Keep a view decorated while its file and settings change",
		Long: `Watch hooks every view container of an HTML export and keeps it
decorated. When the file changes, each container's content is replaced
by the new content, and the change is picked up like any other DOM
mutation: after the debounce interval one pass runs. Settings file
edits apply to the next pass.

The decorated document is written after every pass. Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), rootOpts, opts, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().StringVar(&opts.selector, "container", DefaultContainerSelector, "CSS selector of view containers")
	cmd.Flags().BoolVar(&opts.tree, "tree", false, "print element trees instead of HTML")

	return cmd
}

func runWatch(ctx context.Context, root *RootOptions, opts *watchOptions, path string, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := root.Logger().WithComponent("watch")

	doc, containers, err := loadView(path, opts.selector)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l := loop.New(loop.WithLogger(root.Logger().WithComponent("loop")))
	go l.Run(ctx)
	defer l.Close()

	p := root.newPlugin(plugin.Config{
		Loop:       l,
		LiveReload: true,
		AfterPass: func(dom.Element, decorate.Stats) {
			if err := writeOutput(w, opts.output, doc, containers, opts.tree); err != nil {
				log.Error("writing output: %v", err)
			}
		},
	})
	if err := p.Load(ctx); err != nil {
		return err
	}
	defer closeLogged(log, "unloading plugin", p.Unload)

	files, err := filewatch.New(
		filewatch.WithScheduler(l.Schedule),
		filewatch.WithLogger(root.Logger().WithComponent("filewatch").Logr()),
	)
	if err != nil {
		return err
	}
	defer closeLogged(log, "closing view watcher", files.Close)

	err = files.Add(path, func(string) {
		refreshView(path, opts.selector, containers, log)
	})
	if err != nil {
		return err
	}

	err = l.Do(ctx, func() {
		for _, c := range containers {
			p.OnActiveViewChange(plugin.NewView(viewPath(path), c))
		}
	})
	if err != nil {
		return err
	}
	log.Info("watching %s (%d containers)", path, len(containers))

	<-ctx.Done()
	return nil
}

// refreshView copies the content of the file's containers into the live
// ones, pairing them by position. It runs on the loop.
func refreshView(path, selector string, live []dom.Element, log *logging.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("reading %s: %v", path, err)
		return
	}
	fresh, err := dom.ParseString(string(data))
	if err != nil {
		log.Warn("parsing %s: %v", path, err)
		return
	}
	next, err := findContainers(fresh, selector)
	if err != nil {
		log.Warn("%s: %v", path, err)
		return
	}
	for i, c := range live {
		if i >= len(next) {
			break
		}
		if err := c.SetInnerHTML(next[i].InnerHTML()); err != nil {
			log.Warn("updating container %d: %v", i, err)
		}
	}
}
