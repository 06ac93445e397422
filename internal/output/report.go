package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"tir/internal/diag"
	"tir/internal/graph"
	"tir/internal/impact"
	"tir/internal/storage"
)

// Renderable is a command result that can be written in every Format
type Renderable interface {
	// Lines is the list form: one item per line.
	Lines() []string
	// Table is the tsv form.
	Table() (header []string, rows [][]string)
	// Human writes the terminal form.
	Human(w io.Writer) error
}

// ImpactReport is the result of an affected-tests query
type ImpactReport struct {
	Tests       []impact.Entry    `json:"tests" yaml:"tests" toml:"tests"`
	Summary     impact.Summary    `json:"summary" yaml:"summary" toml:"summary"`
	Diagnostics []diag.Diagnostic `json:"diagnostics" yaml:"diagnostics" toml:"diagnostics"`
	Limitations []string          `json:"limitations,omitempty" yaml:"limitations,omitempty" toml:"limitations,omitempty"`
}

// NewImpactReport assembles a report. Tests and Diagnostics are never nil.
func NewImpactReport(result *impact.Result, diags []diag.Diagnostic, limitations []string) *ImpactReport {
	r := &ImpactReport{
		Tests:       []impact.Entry{},
		Diagnostics: nonNilDiagnostics(diags),
		Limitations: limitations,
	}
	if result != nil {
		if result.Tests != nil {
			r.Tests = result.Tests
		}
		r.Summary = result.Summary
	}
	return r
}

// TestFiles returns the affected test paths in report order
func (r *ImpactReport) TestFiles() []string {
	out := make([]string, len(r.Tests))
	for i, e := range r.Tests {
		out[i] = e.TestFile
	}
	return out
}

func (r *ImpactReport) Lines() []string {
	return r.TestFiles()
}

func (r *ImpactReport) Table() ([]string, [][]string) {
	rows := make([][]string, len(r.Tests))
	for i, e := range r.Tests {
		rows[i] = []string{e.TestFile, string(e.Reason), e.TriggerPath}
	}
	return []string{"testFile", "reason", "triggerPath"}, rows
}

func (r *ImpactReport) Human(w io.Writer) error {
	var b strings.Builder
	writeTitle(&b, "Affected Tests")

	if len(r.Tests) == 0 {
		b.WriteString("No affected tests found.\n")
	} else {
		b.WriteString(fmt.Sprintf("Found %d test files:\n", len(r.Tests)))
		if r.Summary.SelfChanged > 0 {
			b.WriteString(fmt.Sprintf("  • %d self-changed (the test file itself changed)\n", r.Summary.SelfChanged))
		}
		if r.Summary.DependencyChanged > 0 {
			b.WriteString(fmt.Sprintf("  • %d dependency-changed (an imported file changed)\n", r.Summary.DependencyChanged))
		}
		b.WriteString("\n")

		b.WriteString("Test files:\n")
		for _, e := range r.Tests {
			icon := "○"
			if e.Reason == impact.ReasonSelfChanged {
				icon = "●"
			}
			b.WriteString(fmt.Sprintf("  %s %s (%s: %s)\n", icon, e.TestFile, e.Reason, e.TriggerPath))
			if len(e.Chain) > 1 {
				b.WriteString(fmt.Sprintf("      %s\n", strings.Join(e.Chain, " → ")))
			}
		}
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Scanned %d test files against %d changed files.\n", r.Summary.TotalTests, r.Summary.ChangedFiles))

	writeDiagnostics(&b, r.Diagnostics)
	if len(r.Limitations) > 0 {
		b.WriteString("\nLimitations:\n")
		for _, note := range r.Limitations {
			b.WriteString(fmt.Sprintf("  - %s\n", note))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// ClosureReport is the dependency closure of a single test file
type ClosureReport struct {
	TestFile    string            `json:"testFile" yaml:"testFile" toml:"testFile"`
	Files       []string          `json:"files" yaml:"files" toml:"files"`
	Edges       []graph.Edge      `json:"edges,omitempty" yaml:"edges,omitempty" toml:"edges,omitempty"`
	Diagnostics []diag.Diagnostic `json:"diagnostics" yaml:"diagnostics" toml:"diagnostics"`
}

// NewClosureReport assembles a closure report. Edges are included only when
// withEdges is set.
func NewClosureReport(c *graph.Closure, withEdges bool, diags []diag.Diagnostic) *ClosureReport {
	r := &ClosureReport{
		TestFile:    c.TestFile,
		Files:       nonNilStrings(c.Files),
		Diagnostics: nonNilDiagnostics(diags),
	}
	if withEdges && c.Graph != nil {
		r.Edges = c.Graph.Edges()
	}
	return r
}

func (r *ClosureReport) Lines() []string {
	return r.Files
}

func (r *ClosureReport) Table() ([]string, [][]string) {
	if r.Edges != nil {
		rows := make([][]string, len(r.Edges))
		for i, e := range r.Edges {
			rows[i] = []string{e.From, e.To}
		}
		return []string{"from", "to"}, rows
	}
	rows := make([][]string, len(r.Files))
	for i, f := range r.Files {
		rows[i] = []string{f}
	}
	return []string{"file"}, rows
}

func (r *ClosureReport) Human(w io.Writer) error {
	var b strings.Builder
	writeTitle(&b, "Dependency Closure")
	b.WriteString(fmt.Sprintf("Test file: %s\n\n", r.TestFile))

	if len(r.Files) == 0 {
		b.WriteString("No local dependencies.\n")
	} else {
		b.WriteString(fmt.Sprintf("Depends on %d files:\n", len(r.Files)))
		for _, f := range r.Files {
			b.WriteString(fmt.Sprintf("  • %s\n", f))
		}
	}
	if len(r.Edges) > 0 {
		b.WriteString("\nImports:\n")
		for _, e := range r.Edges {
			b.WriteString(fmt.Sprintf("  %s → %s\n", e.From, e.To))
		}
	}

	writeDiagnostics(&b, r.Diagnostics)
	_, err := io.WriteString(w, b.String())
	return err
}

// DiscoverReport lists the test files found under the root
type DiscoverReport struct {
	Tests       []string          `json:"tests" yaml:"tests" toml:"tests"`
	Diagnostics []diag.Diagnostic `json:"diagnostics" yaml:"diagnostics" toml:"diagnostics"`
}

// NewDiscoverReport assembles a discovery report
func NewDiscoverReport(tests []string, diags []diag.Diagnostic) *DiscoverReport {
	return &DiscoverReport{Tests: nonNilStrings(tests), Diagnostics: nonNilDiagnostics(diags)}
}

func (r *DiscoverReport) Lines() []string {
	return r.Tests
}

func (r *DiscoverReport) Table() ([]string, [][]string) {
	rows := make([][]string, len(r.Tests))
	for i, t := range r.Tests {
		rows[i] = []string{t}
	}
	return []string{"testFile"}, rows
}

func (r *DiscoverReport) Human(w io.Writer) error {
	var b strings.Builder
	writeTitle(&b, "Test Files")
	if len(r.Tests) == 0 {
		b.WriteString("No test files found.\n")
	} else {
		b.WriteString(fmt.Sprintf("Found %d test files:\n", len(r.Tests)))
		for _, t := range r.Tests {
			b.WriteString(fmt.Sprintf("  • %s\n", t))
		}
	}
	writeDiagnostics(&b, r.Diagnostics)
	_, err := io.WriteString(w, b.String())
	return err
}

// CacheReport describes the persistent specifier cache
type CacheReport struct {
	Path  string             `json:"path" yaml:"path" toml:"path"`
	Stats storage.CacheStats `json:"stats" yaml:"stats" toml:"stats"`
}

func (r *CacheReport) Lines() []string {
	return []string{
		"path=" + r.Path,
		"entries=" + strconv.Itoa(r.Stats.Entries),
		"payloadBytes=" + strconv.FormatInt(r.Stats.PayloadBytes, 10),
	}
}

func (r *CacheReport) Table() ([]string, [][]string) {
	return []string{"path", "entries", "payloadBytes", "oldest", "newest"}, [][]string{{
		r.Path,
		strconv.Itoa(r.Stats.Entries),
		strconv.FormatInt(r.Stats.PayloadBytes, 10),
		strconv.FormatInt(r.Stats.Oldest, 10),
		strconv.FormatInt(r.Stats.Newest, 10),
	}}
}

func (r *CacheReport) Human(w io.Writer) error {
	var b strings.Builder
	writeTitle(&b, "Specifier Cache")
	b.WriteString(fmt.Sprintf("Location: %s\n", r.Path))
	b.WriteString(fmt.Sprintf("Entries:  %d\n", r.Stats.Entries))
	b.WriteString(fmt.Sprintf("Payload:  %d bytes\n", r.Stats.PayloadBytes))
	if r.Stats.Entries > 0 {
		b.WriteString(fmt.Sprintf("Oldest:   %s\n", time.Unix(r.Stats.Oldest, 0).UTC().Format(time.RFC3339)))
		b.WriteString(fmt.Sprintf("Newest:   %s\n", time.Unix(r.Stats.Newest, 0).UTC().Format(time.RFC3339)))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeTitle(b *strings.Builder, title string) {
	b.WriteString(title + "\n")
	b.WriteString("──────────────────────────────────────────────────────────\n\n")
}

func writeDiagnostics(b *strings.Builder, diags []diag.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("\nDiagnostics (%d):\n", len(diags)))
	for _, d := range diags {
		b.WriteString(fmt.Sprintf("  ! %s\n", d))
	}
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilDiagnostics(d []diag.Diagnostic) []diag.Diagnostic {
	if d == nil {
		return []diag.Diagnostic{}
	}
	return d
}
