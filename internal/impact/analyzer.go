package impact

import (
	"tir/internal/changeset"
	"tir/internal/graph"
)

// Analyzer intersects dependency closures with a change set
type Analyzer struct {
	withChains bool
}

// NewAnalyzer creates a new analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// NewAnalyzerWithChains creates an analyzer that records the import chain
// for every dependency-changed entry
func NewAnalyzerWithChains() *Analyzer {
	return &Analyzer{withChains: true}
}

// Analyze returns the affected subset of closures. Unaffected tests are
// omitted. Entries keep the order of closures.
func (a *Analyzer) Analyze(closures []*graph.Closure, cs *changeset.ChangeSet) *Result {
	result := &Result{
		Tests: make([]Entry, 0),
		Summary: Summary{
			TotalTests:   len(closures),
			ChangedFiles: cs.Len(),
		},
	}
	if cs.IsEmpty() {
		return result
	}

	for _, c := range closures {
		entry, ok := a.classify(c, cs)
		if !ok {
			continue
		}
		result.Tests = append(result.Tests, entry)
		switch entry.Reason {
		case ReasonSelfChanged:
			result.Summary.SelfChanged++
		case ReasonDependencyChanged:
			result.Summary.DependencyChanged++
		}
	}
	result.Summary.Affected = len(result.Tests)
	return result
}

func (a *Analyzer) classify(c *graph.Closure, cs *changeset.ChangeSet) (Entry, bool) {
	if cs.Contains(c.TestFile) {
		return Entry{
			TestFile:    c.TestFile,
			Reason:      ReasonSelfChanged,
			TriggerPath: c.TestFile,
		}, true
	}
	for _, dep := range c.Files {
		if !cs.Contains(dep) {
			continue
		}
		e := Entry{
			TestFile:    c.TestFile,
			Reason:      ReasonDependencyChanged,
			TriggerPath: dep,
		}
		if a.withChains {
			e.Chain = c.Chain(dep)
		}
		return e, true
	}
	return Entry{}, false
}
