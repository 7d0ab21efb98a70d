// Package workflow holds the persisted orchestration state that gates which
// handlers may run.
//
// The package is split the same way throughout:
// - types.go: states, modes, the transition table and the document shape
// - machine.go: the state machine operating on a loaded document
// - store.go: JSON persistence under the project's .conductor/ directory
package workflow

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// --- State enum ---

// State is one phase of the workflow.
type State string

const (
	StateInit                     State = "INIT"
	StateAnalysisComplete         State = "ANALYSIS_COMPLETE"
	StateArchitectureComplete     State = "ARCHITECTURE_COMPLETE"
	StateImplementationInProgress State = "IMPLEMENTATION_IN_PROGRESS"
	StateImplementationComplete   State = "IMPLEMENTATION_COMPLETE"
	StateReviewComplete           State = "REVIEW_COMPLETE"
	StateAccepted                 State = "ACCEPTED"
	StateIterationRequired        State = "ITERATION_REQUIRED"
)

// States lists every state in pipeline order.
var States = []State{
	StateInit,
	StateAnalysisComplete,
	StateArchitectureComplete,
	StateImplementationInProgress,
	StateImplementationComplete,
	StateReviewComplete,
	StateAccepted,
	StateIterationRequired,
}

// transitions is the fixed table of allowed moves. ACCEPTED only ever
// leads back to INIT, and that hop happens automatically.
var transitions = map[State][]State{
	StateInit:                     {StateAnalysisComplete},
	StateAnalysisComplete:         {StateArchitectureComplete, StateInit},
	StateArchitectureComplete:     {StateImplementationInProgress, StateAnalysisComplete},
	StateImplementationInProgress: {StateImplementationComplete},
	StateImplementationComplete:   {StateReviewComplete},
	StateReviewComplete:           {StateAccepted, StateIterationRequired},
	StateAccepted:                 {StateInit},
	StateIterationRequired:        {StateImplementationInProgress, StateArchitectureComplete},
}

// IsValid reports whether s is a member of the state set.
func (s State) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// AllowedFrom returns a copy of the states reachable from s.
func AllowedFrom(s State) []State {
	next := transitions[s]
	out := make([]State, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether from → to is in the table.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// --- Mode enum ---

// Mode selects how much ceremony the workflow expects.
type Mode string

const (
	ModeQuick    Mode = "quick"
	ModeStandard Mode = "standard"
)

// ErrInvalidMode is returned when a mode outside the known set is given.
var ErrInvalidMode = errors.New("invalid mode")

// ValidateMode returns an error if the mode is not recognized.
func ValidateMode(m Mode) error {
	if m != ModeQuick && m != ModeStandard {
		return fmt.Errorf("%w %q: must be one of: quick, standard", ErrInvalidMode, m)
	}
	return nil
}

// --- Document ---

// DocumentVersion is the schema version written to disk.
const DocumentVersion = 1

// HistoryEntry records one applied transition.
type HistoryEntry struct {
	From      State  `json:"from"`
	To        State  `json:"to"`
	Timestamp string `json:"timestamp"`
}

// Document is the persisted workflow state.
type Document struct {
	Mode    Mode           `json:"mode"`
	State   State          `json:"state"`
	Locked  []string       `json:"locked"`
	History []HistoryEntry `json:"history"`
	Version int            `json:"version"`
}

// clone returns a deep copy of d.
func (d *Document) clone() *Document {
	c := *d
	c.Locked = slices.Clone(d.Locked)
	c.History = slices.Clone(d.History)
	return &c
}

func (d *Document) lock(stage string) {
	if slices.Contains(d.Locked, stage) {
		return
	}
	d.Locked = append(d.Locked, stage)
	sort.Strings(d.Locked)
}

// NewDocument returns the initial document.
func NewDocument() *Document {
	return &Document{
		Mode:    ModeQuick,
		State:   StateInit,
		Locked:  []string{},
		History: []HistoryEntry{},
		Version: DocumentVersion,
	}
}

// normalize backfills missing or invalid fields with defaults and reports
// whether anything changed.
func (d *Document) normalize() bool {
	changed := false
	if ValidateMode(d.Mode) != nil {
		d.Mode = ModeQuick
		changed = true
	}
	if !d.State.IsValid() {
		d.State = StateInit
		changed = true
	}
	if d.Locked == nil {
		d.Locked = []string{}
		changed = true
	}
	if !sort.StringsAreSorted(d.Locked) {
		sort.Strings(d.Locked)
		changed = true
	}
	if d.History == nil {
		d.History = []HistoryEntry{}
		changed = true
	}
	if d.Version == 0 {
		d.Version = DocumentVersion
		changed = true
	}
	return changed
}

// --- Artifacts ---

// ArtifactFilename returns the markdown file holding a stage's artifact.
// ACCEPTED is a pass-through state and has none.
func ArtifactFilename(s State) string {
	if !s.IsValid() || s == StateAccepted {
		return ""
	}
	return strings.ToLower(string(s)) + ".md"
}
