package impact

import "fmt"

// NoteStaticOnly is always present: extraction never evaluates code.
const NoteStaticOnly = "computed import specifiers (require(name), template substitutions) are not tracked"

// AnalysisLimits describes what the analysis could not see
type AnalysisLimits struct {
	Notes []string
}

// NewAnalysisLimits creates limits holding the notes every run shares
func NewAnalysisLimits() *AnalysisLimits {
	return &AnalysisLimits{Notes: []string{NoteStaticOnly}}
}

// AddNote adds a limitation note to the analysis
func (al *AnalysisLimits) AddNote(note string) {
	al.Notes = append(al.Notes, note)
}

// LimitInputs are the run facts that can weaken a result
type LimitInputs struct {
	Extractor        string
	FallbackScanner  bool
	Diagnostics      int
	DeletedFiles     int
	DeletedAsChanged bool
}

// DetermineLimits builds the limitation notes for one run
func DetermineLimits(in LimitInputs) *AnalysisLimits {
	al := NewAnalysisLimits()
	if in.FallbackScanner {
		al.AddNote(fmt.Sprintf("syntax-tree extraction unavailable; %s used", in.Extractor))
	}
	if in.Diagnostics > 0 {
		al.AddNote(fmt.Sprintf("%d files or directories could not be analyzed; see diagnostics", in.Diagnostics))
	}
	if in.DeletedFiles > 0 && !in.DeletedAsChanged {
		al.AddNote(fmt.Sprintf("%d deleted files were treated as unresolved; tests importing them are not reported", in.DeletedFiles))
	}
	return al
}
