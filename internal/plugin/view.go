package plugin

import (
	"path/filepath"

	"github.com/google/uuid"

	"github.com/dshills/basestyle/internal/dom"
)

// BaseExtension is the file extension of views the plugin decorates.
const BaseExtension = ".base"

// View is a host view that became active.
type View struct {
	ID uuid.UUID
	// Path is the file the view shows. Empty for views without a file.
	Path string
	// Container is the view's root element.
	Container dom.Element
}

// NewView creates a view with a fresh ID.
func NewView(path string, container dom.Element) *View {
	return &View{
		ID:        uuid.New(),
		Path:      path,
		Container: container,
	}
}

// IsBase reports whether the view shows a base file.
func (v *View) IsBase() bool {
	if v == nil || v.Path == "" {
		return false
	}
	return filepath.Ext(v.Path) == BaseExtension
}
