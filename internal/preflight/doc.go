// Package preflight checks that the machine can hold and write indexes
// before a rebuild starts.
//
//	checker := preflight.New()
//	results := checker.RunAll(ctx, cfg.Index.Root, cfg.Store.Path)
//	if checker.HasCriticalFailures(results) {
//	    // refuse to rebuild
//	}
package preflight
