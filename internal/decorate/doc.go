// Package decorate attaches managed CSS classes to the cells of base views.
//
// The package has four parts:
//
//   - Extract reads the value a cell displays, whatever widget renders it.
//   - Resolver turns a column rule and a value into candidate class names,
//     either from a static template or by running a snippet.
//   - Decorator runs one pass over a container: for every rule and every
//     matching cell it strips the managed classes and applies the accepted
//     candidates.
//   - Watcher keeps a container decorated while the host mutates it, by
//     observing the subtree and running debounced passes.
//
// Every class the package adds or removes starts with the configured
// prefix. Classes the host owns are never touched.
package decorate
