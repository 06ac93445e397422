// Package impact decides which test files are affected by a change set.
//
// A test is affected when its own path changed (ReasonSelfChanged) or when
// any file in its dependency closure changed (ReasonDependencyChanged). For
// dependency changes the first changed file in breadth-first closure order
// is recorded as the trigger, together with the import chain that reaches it.
//
// Basic usage:
//
//	closures, _ := builder.BuildAll(ctx, tests)
//	cs, _ := changeset.Normalize(root, paths)
//	result := impact.NewAnalyzer().Analyze(closures, cs)
//	for _, e := range result.Tests {
//	    fmt.Println(e.TestFile, e.Reason, e.TriggerPath)
//	}
//
// Entries keep the order of the closures passed in, which is the discovery
// order, so output is stable across runs.
package impact
