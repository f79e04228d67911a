// Package notice delivers transient user-facing messages.
//
// The decoration engine and the settings editor share one Notifier. Hosts
// decide how notices are shown; the CLI logs them, tests record them.
package notice

import (
	"sync"

	"github.com/dshills/basestyle/internal/logging"
)

// Level represents the severity of a notice.
type Level string

const (
	// LevelInfo is an informational notice.
	LevelInfo Level = "info"
	// LevelWarning is a warning notice.
	LevelWarning Level = "warning"
	// LevelError is an error notice.
	LevelError Level = "error"
)

// Kind classifies what produced a notice.
type Kind string

const (
	// KindComputationFault is a computed-mode snippet failure.
	KindComputationFault Kind = "computation-fault"
	// KindPolicyViolation is a class name rejected for not carrying the prefix.
	KindPolicyViolation Kind = "policy-violation"
	// KindInvalidInput is a rejected configuration edit.
	KindInvalidInput Kind = "invalid-input"
	// KindInvalidPrefix is a pass skipped because the prefix is empty.
	KindInvalidPrefix Kind = "invalid-prefix"
	// KindGeneral is anything else.
	KindGeneral Kind = "general"
)

// Notice is one message for the user.
type Notice struct {
	Level   Level
	Kind    Kind
	Message string
	// Property is the rule's data property, when the notice concerns a rule.
	Property string
}

// Notifier shows notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// Func adapts a function to Notifier.
type Func func(n Notice)

// Notify calls f.
func (f Func) Notify(n Notice) {
	f(n)
}

// Discard drops every notice.
var Discard Notifier = Func(func(Notice) {})

// LogNotifier writes notices to a logger at a level matching the notice.
type LogNotifier struct {
	logger *logging.Logger
}

// NewLogNotifier creates a notifier writing to logger.
func NewLogNotifier(logger *logging.Logger) *LogNotifier {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &LogNotifier{logger: logger.WithComponent("notice")}
}

// Notify logs the notice.
func (l *LogNotifier) Notify(n Notice) {
	lg := l.logger.WithField("kind", string(n.Kind))
	if n.Property != "" {
		lg = lg.WithField("property", n.Property)
	}
	switch n.Level {
	case LevelError:
		lg.Error("%s", n.Message)
	case LevelWarning:
		lg.Warn("%s", n.Message)
	default:
		lg.Info("%s", n.Message)
	}
}

// Recorder keeps every notice it receives.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify records n.
func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of the recorded notices.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// OfKind returns the recorded notices of one kind.
func (r *Recorder) OfKind(kind Kind) []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notice
	for _, n := range r.notices {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// Len returns how many notices were recorded.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notices)
}

// Reset clears the recorder.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = nil
}

// Multi fans a notice out to several notifiers.
type Multi []Notifier

// Notify sends n to every notifier.
func (m Multi) Notify(n Notice) {
	for _, nf := range m {
		if nf != nil {
			nf.Notify(n)
		}
	}
}
