package settings

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"

	"github.com/dshills/basestyle/internal/logging"
)

// DefaultFileName is the settings file used when none is given.
const DefaultFileName = "data.json"

// Format identifies a settings file encoding.
type Format int

const (
	// FormatJSON is the default format. Unknown keys survive a save.
	FormatJSON Format = iota
	// FormatTOML stores settings as TOML.
	FormatTOML
	// FormatYAML stores settings as YAML.
	FormatYAML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// FormatFor picks a format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", "":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Equal reports whether two settings values are identical.
func (s Settings) Equal(o Settings) bool {
	return s.CSSClassPrefix == o.CSSClassPrefix &&
		s.DebounceTime == o.DebounceTime &&
		s.ObserveAttributes == o.ObserveAttributes &&
		slices.Equal(s.Columns, o.Columns)
}

// Store owns the live settings and their file.
type Store struct {
	mu sync.RWMutex

	path   string
	format Format
	cur    Settings
	// raw is the last JSON document read or written; unknown keys are kept
	// in it and carried into the next save.
	raw []byte

	notifier *Notifier
	logger   *logging.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the logger.
func WithStoreLogger(l *logging.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open loads settings from path, merging defaults under missing keys.
// A missing file yields the defaults; nothing is written until the first save.
func Open(path string, opts ...StoreOption) (*Store, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}

	s := &Store{
		path:     path,
		format:   format,
		notifier: NewNotifier(),
		logger:   logging.NullLogger,
	}
	for _, opt := range opts {
		opt(s)
	}

	cur, raw, err := s.read()
	if err != nil {
		return nil, err
	}
	s.cur = cur
	s.raw = raw
	return s, nil
}

// NewMemoryStore returns a Store without a backing file. Saves are no-ops.
func NewMemoryStore(initial Settings, opts ...StoreOption) *Store {
	s := &Store{
		cur:      initial.Clone(),
		notifier: NewNotifier(),
		logger:   logging.NullLogger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file, or "" for memory stores.
func (s *Store) Path() string {
	return s.path
}

// Format returns the file format.
func (s *Store) Format() Format {
	return s.format
}

// Settings returns a copy of the current settings.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.Clone()
}

// Subscribe registers an observer for every change.
func (s *Store) Subscribe(observer Observer) *Subscription {
	return s.notifier.Subscribe(observer)
}

// SubscribePath registers an observer for changes at or below path.
func (s *Store) SubscribePath(path string, observer Observer) *Subscription {
	return s.notifier.SubscribePath(path, observer)
}

// Update applies fn to a copy of the settings, saves the result and
// notifies observers with the change fn describes. If fn fails nothing is
// changed.
func (s *Store) Update(fn func(*Settings) (Change, error)) error {
	s.mu.Lock()
	next := s.cur.Clone()
	change, err := fn(&next)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.cur = next
	err = s.saveLocked()
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.notifier.Notify(change)
	return nil
}

// Save writes the current settings to the file.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// Reload re-reads the file. It reports whether the settings changed;
// observers only hear about actual changes, so the store's own saves do
// not echo back as reloads.
func (s *Store) Reload() (bool, error) {
	if s.path == "" {
		return false, nil
	}

	cur, raw, err := s.read()
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	changed := !s.cur.Equal(cur)
	s.cur = cur
	s.raw = raw
	s.mu.Unlock()

	if changed {
		s.logger.Info("settings reloaded from %s", s.path)
		s.notifier.Notify(Change{Type: ChangeReload, Source: "file"})
	}
	return changed, nil
}

// Close drops all subscriptions.
func (s *Store) Close() {
	s.notifier.Close()
}

func (s *Store) read() (Settings, []byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), nil, nil
		}
		return Settings{}, nil, fmt.Errorf("reading settings %s: %w", s.path, err)
	}

	var cur Settings
	switch s.format {
	case FormatTOML:
		cur, err = decodeTOML(data)
	case FormatYAML:
		cur, err = decodeYAML(data)
	default:
		cur, err = decodeJSON(data, s.logger)
	}
	if err != nil {
		return Settings{}, nil, fmt.Errorf("parsing settings %s: %w", s.path, err)
	}
	if s.format != FormatJSON {
		data = nil
	}
	return cur, data, nil
}

func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}

	data, err := encode(s.format, s.raw, s.cur)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating settings directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing settings %s: %w", s.path, err)
	}
	if s.format == FormatJSON {
		s.raw = data
	}
	return nil
}

// Encode renders s in format f, the way a store of that format saves it.
func Encode(s Settings, f Format) ([]byte, error) {
	return encode(f, nil, s)
}

func encode(f Format, prev []byte, cur Settings) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch f {
	case FormatTOML:
		data, err = toml.Marshal(cur)
	case FormatYAML:
		data, err = yaml.Marshal(cur)
	default:
		data, err = encodeJSON(prev, cur)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}
	return data, nil
}

// decodeJSON reads the known keys with gjson so that missing keys keep
// their defaults and foreign keys are left alone.
func decodeJSON(data []byte, logger *logging.Logger) (Settings, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Defaults(), nil
	}
	if !gjson.ValidBytes(data) {
		return Settings{}, errors.New("invalid JSON")
	}

	out := Defaults()
	doc := gjson.ParseBytes(data)

	if v := doc.Get("cssClassPrefix"); v.Exists() {
		out.CSSClassPrefix = v.String()
	}
	if v := doc.Get("debounceTime"); v.Exists() {
		n, ok := jsonInt(v)
		if ok && n >= 0 {
			out.DebounceTime = n
		} else {
			logger.Warn("ignoring invalid debounceTime %s", v.Raw)
		}
	}
	if v := doc.Get("observeAttributes"); v.Exists() {
		out.ObserveAttributes = v.Bool()
	}
	if v := doc.Get("columns"); v.Exists() {
		if !v.IsArray() {
			return Settings{}, errors.New("columns must be an array")
		}
		out.Columns = []ColumnRule{}
		var colErr error
		v.ForEach(func(_, col gjson.Result) bool {
			rule, err := jsonColumn(col)
			if err != nil {
				colErr = fmt.Errorf("columns[%d]: %w", len(out.Columns), err)
				return false
			}
			out.Columns = append(out.Columns, rule)
			return true
		})
		if colErr != nil {
			return Settings{}, colErr
		}
	}
	return out, nil
}

func jsonColumn(col gjson.Result) (ColumnRule, error) {
	rule := ColumnRule{
		DataProperty: col.Get("dataProperty").String(),
		CSSClasses:   col.Get("cssClasses").String(),
		Snippet:      col.Get("snippet").String(),
		Engine:       col.Get("engine").String(),
	}
	// Older files stored the snippet as jsFunction.
	if rule.Snippet == "" {
		rule.Snippet = col.Get("jsFunction").String()
	}

	rule.Mode = ModeStatic
	if m := col.Get("mode"); m.Exists() && m.String() != "" {
		mode, err := ParseMode(m.String())
		if err != nil {
			return ColumnRule{}, err
		}
		rule.Mode = mode
	}
	return rule, nil
}

func jsonInt(v gjson.Result) (int, bool) {
	switch v.Type {
	case gjson.Number:
		f := v.Float()
		if f != float64(int(f)) {
			return 0, false
		}
		return int(f), true
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(v.Str))
		return n, err == nil
	default:
		return 0, false
	}
}

// encodeJSON writes the known keys into the previous document so foreign
// keys and their order survive.
func encodeJSON(prev []byte, cur Settings) ([]byte, error) {
	doc := prev
	if len(bytes.TrimSpace(doc)) == 0 || !gjson.ValidBytes(doc) {
		doc = []byte("{}")
	}

	columns := cur.Columns
	if columns == nil {
		columns = []ColumnRule{}
	}

	var err error
	sets := []struct {
		path  string
		value any
	}{
		{"columns", columns},
		{"cssClassPrefix", cur.CSSClassPrefix},
		{"debounceTime", cur.DebounceTime},
		{"observeAttributes", cur.ObserveAttributes},
	}
	for _, set := range sets {
		doc, err = sjson.SetBytes(doc, set.path, set.value)
		if err != nil {
			return nil, fmt.Errorf("setting %s: %w", set.path, err)
		}
	}
	return pretty.PrettyOptions(doc, &pretty.Options{Width: 80, Indent: "  "}), nil
}

// fileSettings mirrors Settings with pointers so absent keys can be told
// apart from zero values.
type fileSettings struct {
	Columns           *[]ColumnRule `toml:"columns" yaml:"columns"`
	CSSClassPrefix    *string       `toml:"cssClassPrefix" yaml:"cssClassPrefix"`
	DebounceTime      *int          `toml:"debounceTime" yaml:"debounceTime"`
	ObserveAttributes *bool         `toml:"observeAttributes" yaml:"observeAttributes"`
}

func (f fileSettings) merge() (Settings, error) {
	out := Defaults()
	if f.CSSClassPrefix != nil {
		out.CSSClassPrefix = *f.CSSClassPrefix
	}
	if f.DebounceTime != nil {
		if *f.DebounceTime < 0 {
			return Settings{}, fmt.Errorf("debounceTime: %w: %d", ErrInvalidNumber, *f.DebounceTime)
		}
		out.DebounceTime = *f.DebounceTime
	}
	if f.ObserveAttributes != nil {
		out.ObserveAttributes = *f.ObserveAttributes
	}
	if f.Columns != nil {
		out.Columns = make([]ColumnRule, len(*f.Columns))
		copy(out.Columns, *f.Columns)
		for i := range out.Columns {
			if out.Columns[i].Mode == "" {
				out.Columns[i].Mode = ModeStatic
			}
		}
	}
	return out, nil
}

func decodeTOML(data []byte) (Settings, error) {
	var f fileSettings
	if err := toml.Unmarshal(data, &f); err != nil {
		return Settings{}, err
	}
	return f.merge()
}

func decodeYAML(data []byte) (Settings, error) {
	var f fileSettings
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Settings{}, err
	}
	return f.merge()
}
