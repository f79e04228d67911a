// Package settings holds the decoration settings and everything that reads,
// writes or edits them.
//
// A Store owns the single live Settings value. The decoration engine reads a
// copy at the start of every pass through the Provider interface; the Editor
// is the only writer path besides reloading the file from disk.
package settings

import (
	"fmt"
	"strings"
	"time"
)

// Placeholder is the literal token replaced with the configured prefix in
// static templates and computed snippets.
const Placeholder = "$PREFIX-"

// Default values.
const (
	DefaultPrefix   = "base-styled-"
	DefaultDebounce = 500
	DefaultEngine   = "lua"
)

// Mode selects how a rule produces classes.
type Mode string

const (
	// ModeStatic applies a fixed, comma-separated class template.
	ModeStatic Mode = "static"
	// ModeComputed evaluates a snippet per cell.
	ModeComputed Mode = "computed"
)

// ParseMode accepts the canonical names and the legacy "css"/"function".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "static", "css":
		return ModeStatic, nil
	case "computed", "function":
		return ModeComputed, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler so legacy names load.
func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m), nil
}

// ColumnRule maps one data property to a class list.
// Mode decides which of CSSClasses and Snippet is used; the other is ignored.
type ColumnRule struct {
	DataProperty string `json:"dataProperty" toml:"dataProperty" yaml:"dataProperty"`
	Mode         Mode   `json:"mode" toml:"mode" yaml:"mode"`
	CSSClasses   string `json:"cssClasses,omitempty" toml:"cssClasses,omitempty" yaml:"cssClasses,omitempty"`
	Snippet      string `json:"snippet,omitempty" toml:"snippet,omitempty" yaml:"snippet,omitempty"`
	Engine       string `json:"engine,omitempty" toml:"engine,omitempty" yaml:"engine,omitempty"`
}

// EngineName returns the snippet engine, defaulting to lua.
func (r ColumnRule) EngineName() string {
	if r.Engine == "" {
		return DefaultEngine
	}
	return r.Engine
}

// Settings is the complete decoration configuration.
type Settings struct {
	Columns        []ColumnRule `json:"columns" toml:"columns" yaml:"columns"`
	CSSClassPrefix string       `json:"cssClassPrefix" toml:"cssClassPrefix" yaml:"cssClassPrefix"`
	// DebounceTime is in milliseconds.
	DebounceTime int `json:"debounceTime" toml:"debounceTime" yaml:"debounceTime"`
	// ObserveAttributes makes watchers react to value/checked attribute edits.
	ObserveAttributes bool `json:"observeAttributes" toml:"observeAttributes" yaml:"observeAttributes"`
}

// PriorityBucketSnippet is the default rule's snippet: it buckets numeric
// values by ten, e.g. 47 becomes $PREFIX-note-priority-40.
const PriorityBucketSnippet = `local n = tonumber(value)
if value == nil or n == nil then
	return {}
end
local bucket = math.floor(n / 10) * 10
return { "$PREFIX-note-priority-" .. bucket }`

// Defaults returns a fresh copy of the default settings.
func Defaults() Settings {
	return Settings{
		CSSClassPrefix: DefaultPrefix,
		DebounceTime:   DefaultDebounce,
		Columns: []ColumnRule{
			{
				DataProperty: "note.priority",
				Mode:         ModeComputed,
				Engine:       DefaultEngine,
				Snippet:      PriorityBucketSnippet,
			},
		},
	}
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	out := s
	if s.Columns != nil {
		out.Columns = make([]ColumnRule, len(s.Columns))
		copy(out.Columns, s.Columns)
	}
	return out
}

// Debounce returns the debounce interval as a duration.
func (s Settings) Debounce() time.Duration {
	return time.Duration(s.DebounceTime) * time.Millisecond
}

// Expand replaces every placeholder in text with the prefix.
func (s Settings) Expand(text string) string {
	return ExpandPlaceholder(text, s.CSSClassPrefix)
}

// ExpandPlaceholder replaces every occurrence of Placeholder with prefix.
func ExpandPlaceholder(text, prefix string) string {
	return strings.ReplaceAll(text, Placeholder, prefix)
}

// Provider supplies the current settings. Each call returns an independent
// copy, so a caller holding one is not affected by later edits.
type Provider interface {
	Settings() Settings
}

// Static is a Provider returning fixed settings.
type Static Settings

// Settings returns a copy of s.
func (s Static) Settings() Settings {
	return Settings(s).Clone()
}
