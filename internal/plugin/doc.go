// Package plugin wires the decoration engine to a host.
//
// A Plugin owns the settings store, the snippet engines and the change
// watcher. The host calls Load once, forwards activation events through
// OnActiveViewChange and calls Unload when shutting down:
//
//	l := loop.New()
//	go l.Run(ctx)
//
//	p := plugin.New(plugin.Config{SettingsPath: "data.json", Loop: l})
//	if err := p.Load(ctx); err != nil {
//	    return err
//	}
//	defer p.Unload()
//
//	_ = l.Do(ctx, func() {
//	    p.OnActiveViewChange(plugin.NewView("Tasks.base", container))
//	})
//
// Everything touching a document runs on the loop. OnActiveViewChange
// must itself be called from a loop task.
package plugin
