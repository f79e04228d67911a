// Package dom provides a mutable, observable document tree for rendered views.
//
// It wraps golang.org/x/net/html parse trees with lightweight Element handles
// and adds what the decoration engine needs from a browser DOM:
//   - CSS selector queries (via cascadia), always over descendants only
//   - class list, attribute and text manipulation
//   - a MutationObserver that records child-list, character-data and
//     attribute mutations on a subtree and delivers them in batches
//
// # Elements
//
// An Element is a value pairing a node with its Document. Two Elements are
// equal exactly when they refer to the same node, so Elements can be used as
// map keys:
//
//	doc, _ := dom.ParseString(`<div class="view"><div class="bases-td">x</div></div>`)
//	view, _ := doc.Root().QueryFirst(dom.MustCompile("div.view"))
//	view.AddClass("decorated")
//
// # Observers
//
// Mutations made through Element methods are reported to observers whose
// target is the mutated node or, with Subtree set, one of its ancestors.
// Records accumulate per observer and are delivered in one callback per
// batch through the observer's scheduler:
//
//	obs := dom.NewObserver(func(recs []dom.Record, _ *dom.Observer) {
//	    trigger()
//	}, dom.WithScheduler(eventLoop.Schedule))
//	_ = obs.Observe(view, dom.ObserveOptions{ChildList: true, Subtree: true})
//	defer obs.Disconnect()
//
// # Concurrency
//
// A Document is not goroutine-safe. All reads and mutations of one document
// must happen on a single goroutine, normally an event loop.
package dom
