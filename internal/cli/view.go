package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/basestyle/internal/dom"
	"github.com/dshills/basestyle/internal/logging"
	"github.com/dshills/basestyle/internal/plugin"
)

// DefaultContainerSelector matches the root element of a rendered base view.
const DefaultContainerSelector = ".bases-view"

// ErrNoContainer is returned when a document holds no view container.
var ErrNoContainer = errors.New("no view container found")

// loadView parses the HTML file at path and returns its containers.
func loadView(path, selector string) (*dom.Document, []dom.Element, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	doc, err := dom.Parse(f)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	containers, err := findContainers(doc, selector)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, containers, nil
}

func findContainers(doc *dom.Document, selector string) ([]dom.Element, error) {
	sel, err := dom.Compile(selector)
	if err != nil {
		return nil, err
	}
	containers := doc.Root().QueryAll(sel)
	if len(containers) == 0 {
		return nil, fmt.Errorf("%w matching %q", ErrNoContainer, selector)
	}
	return containers, nil
}

// viewPath names the base file an HTML export was rendered from:
// Tasks.html comes from Tasks.base.
func viewPath(htmlPath string) string {
	return strings.TrimSuffix(htmlPath, filepath.Ext(htmlPath)) + plugin.BaseExtension
}

// writeOutput renders doc, or the containers as trees, to path or w.
func writeOutput(w io.Writer, path string, doc *dom.Document, containers []dom.Element, tree bool) error {
	var sb strings.Builder
	if tree {
		for _, c := range containers {
			sb.WriteString(c.Dump())
		}
	} else {
		if err := doc.Render(&sb); err != nil {
			return err
		}
		sb.WriteString("\n")
	}

	if path == "" {
		_, err := io.WriteString(w, sb.String())
		return err
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

// closeLogged runs a deferred release and logs its error.
func closeLogged(log *logging.Logger, what string, release func() error) {
	if err := release(); err != nil {
		log.Error("%s: %v", what, err)
	}
}
