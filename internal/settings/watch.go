package settings

import (
	"github.com/go-logr/logr"

	"github.com/dshills/basestyle/internal/filewatch"
)

// Watch reloads the store whenever its file changes on disk. Reload
// failures are logged and leave the current settings in place.
func (s *Store) Watch(w *filewatch.Watcher, log logr.Logger) error {
	if s.path == "" {
		return nil
	}
	return w.Add(s.path, func(string) {
		changed, err := s.Reload()
		if err != nil {
			log.Error(err, "reloading settings", "path", s.path)
			return
		}
		if changed {
			log.Info("settings changed on disk", "path", s.path)
		}
	})
}
