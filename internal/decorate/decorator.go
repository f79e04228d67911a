package decorate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dshills/basestyle/internal/dom"
	"github.com/dshills/basestyle/internal/logging"
	"github.com/dshills/basestyle/internal/notice"
	"github.com/dshills/basestyle/internal/script"
	"github.com/dshills/basestyle/internal/settings"
)

// Stats summarises one decoration pass.
type Stats struct {
	Rules int
	// Cells counts rule/cell pairs, so a cell matched by two rules counts twice.
	Cells int
	// Changed counts cells whose class attribute was rewritten.
	Changed  int
	Applied  int
	Rejected int
	Faults   int
	// Skipped is set when the pass did nothing because the prefix is empty.
	Skipped  bool
	Duration time.Duration
}

// Decorator applies column rules to a container.
type Decorator struct {
	resolver  *Resolver
	notifier  notice.Notifier
	logger    *logging.Logger
	afterPass func(dom.Element, Stats)
	now       func() time.Time
}

// Option configures a Decorator.
type Option func(*Decorator)

// WithNotifier sets where policy violations and faults are reported.
func WithNotifier(n notice.Notifier) Option {
	return func(d *Decorator) {
		if n != nil {
			d.notifier = n
		}
	}
}

// WithLogger sets the logger used for pass timings.
func WithLogger(l *logging.Logger) Option {
	return func(d *Decorator) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithAfterPass registers a hook called at the end of every pass.
func WithAfterPass(fn func(container dom.Element, stats Stats)) Option {
	return func(d *Decorator) {
		d.afterPass = fn
	}
}

// NewDecorator creates a decorator.
func NewDecorator(resolver *Resolver, opts ...Option) *Decorator {
	d := &Decorator{
		resolver: resolver,
		notifier: notice.Discard,
		logger:   logging.NullLogger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// cellPlan is the class list a pass will leave on one cell.
type cellPlan struct {
	cell    dom.Element
	classes []string
}

// Decorate runs one pass over container with s. For each rule in order,
// each matching cell loses its prefixed classes and gains the rule's
// accepted candidates; a later rule on the same cell replaces an earlier
// one's classes. Class attributes are written once per cell at the end of
// the pass and only when they change, so decorating an unchanged view
// mutates nothing.
func (d *Decorator) Decorate(container dom.Element, s settings.Settings) Stats {
	start := d.now()
	var stats Stats

	prefix := s.CSSClassPrefix
	if prefix == "" {
		stats.Skipped = true
		d.notifier.Notify(notice.Notice{
			Level:   notice.LevelWarning,
			Kind:    notice.KindInvalidPrefix,
			Message: "Class prefix is empty; set one in settings to decorate cells",
		})
		stats.Duration = d.now().Sub(start)
		d.finish(container, stats)
		return stats
	}

	ctx := context.Background()
	var (
		plans     []*cellPlan
		byCell    = make(map[dom.Element]*cellPlan)
		lastFault *ComputationFault
	)

	// A rule whose snippet timed out is not run again this pass; its other
	// cells share the fault.
	timedOut := make(map[int]*ComputationFault)

	for i, rule := range s.Columns {
		stats.Rules++
		for _, cell := range Cells(container, rule.DataProperty) {
			stats.Cells++

			value := Extract(cell, rule.DataProperty)
			base := stripPrefixed(cell.Classes(), prefix)
			view := script.Cell{
				Property: rule.DataProperty,
				Tag:      cell.Tag(),
				Text:     cell.Text(),
				Classes:  base,
				Attrs:    cell.Attrs(),
			}

			var res Resolution
			if f, ok := timedOut[i]; ok {
				res = Resolution{Fault: f}
			} else {
				res = d.resolver.Resolve(ctx, rule, view, value, prefix)
				if res.Fault != nil && errors.Is(res.Fault.Err, script.ErrTimeout) {
					timedOut[i] = res.Fault
				}
			}
			if res.Fault != nil {
				stats.Faults++
				lastFault = res.Fault
				d.logger.Debug("snippet fault for %s: %v", rule.DataProperty, res.Fault.Err)
			}

			next := append([]string(nil), base...)
			for _, c := range res.Classes {
				if strings.HasPrefix(c, prefix) {
					next = append(next, c)
					stats.Applied++
					continue
				}
				if strings.TrimSpace(c) == "" {
					continue
				}
				stats.Rejected++
				v := &PolicyViolation{Property: rule.DataProperty, Class: c, Prefix: prefix}
				d.notifier.Notify(notice.Notice{
					Level:    notice.LevelWarning,
					Kind:     notice.KindPolicyViolation,
					Message:  v.Error(),
					Property: rule.DataProperty,
				})
			}

			plan, ok := byCell[cell]
			if !ok {
				plan = &cellPlan{cell: cell}
				byCell[cell] = plan
				plans = append(plans, plan)
			}
			plan.classes = next
		}
	}

	for _, plan := range plans {
		if !sameClasses(plan.cell.Classes(), plan.classes) {
			plan.cell.SetClasses(plan.classes)
			stats.Changed++
		}
	}

	if lastFault != nil {
		d.notifier.Notify(notice.Notice{
			Level:    notice.LevelError,
			Kind:     notice.KindComputationFault,
			Message:  lastFault.Error(),
			Property: lastFault.Property,
		})
	}

	stats.Duration = d.now().Sub(start)
	d.logger.Debug("decorated %d cells (%d changed) in %s", stats.Cells, stats.Changed, stats.Duration)
	d.finish(container, stats)
	return stats
}

func (d *Decorator) finish(container dom.Element, stats Stats) {
	if d.afterPass != nil {
		d.afterPass(container, stats)
	}
}

// stripPrefixed returns classes without those starting with prefix.
func stripPrefixed(classes []string, prefix string) []string {
	out := make([]string, 0, len(classes))
	for _, c := range classes {
		if !strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// sameClasses compares class lists the way SetClasses would write them:
// duplicates after the first occurrence are ignored.
func sameClasses(cur, next []string) bool {
	seen := make(map[string]bool, len(next))
	deduped := make([]string, 0, len(next))
	for _, c := range next {
		if c != "" && !seen[c] {
			seen[c] = true
			deduped = append(deduped, c)
		}
	}
	if len(cur) != len(deduped) {
		return false
	}
	for i := range cur {
		if cur[i] != deduped[i] {
			return false
		}
	}
	return true
}
