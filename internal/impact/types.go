package impact

// Reason explains why a test is affected
type Reason string

const (
	ReasonSelfChanged       Reason = "self-changed"
	ReasonDependencyChanged Reason = "dependency-changed"
)

// Entry is one affected test file
type Entry struct {
	TestFile string `json:"testFile" yaml:"testFile" toml:"testFile"`
	Reason   Reason `json:"reason" yaml:"reason" toml:"reason"`
	// TriggerPath is the changed file that caused the entry: the test itself
	// for self-changed, the first changed dependency otherwise.
	TriggerPath string `json:"triggerPath" yaml:"triggerPath" toml:"triggerPath"`
	// Chain is the import chain from TestFile to TriggerPath, when requested.
	Chain []string `json:"chain,omitempty" yaml:"chain,omitempty" toml:"chain,omitempty"`
}

// Summary counts a run's outcome
type Summary struct {
	TotalTests        int `json:"totalTests" yaml:"totalTests" toml:"totalTests"`
	Affected          int `json:"affected" yaml:"affected" toml:"affected"`
	SelfChanged       int `json:"selfChanged" yaml:"selfChanged" toml:"selfChanged"`
	DependencyChanged int `json:"dependencyChanged" yaml:"dependencyChanged" toml:"dependencyChanged"`
	ChangedFiles      int `json:"changedFiles" yaml:"changedFiles" toml:"changedFiles"`
}

// Result is the full impact of one change set
type Result struct {
	Tests   []Entry `json:"tests" yaml:"tests" toml:"tests"`
	Summary Summary `json:"summary" yaml:"summary" toml:"summary"`
}

// TestFiles returns the affected test paths in result order
func (r *Result) TestFiles() []string {
	out := make([]string, len(r.Tests))
	for i, e := range r.Tests {
		out[i] = e.TestFile
	}
	return out
}
