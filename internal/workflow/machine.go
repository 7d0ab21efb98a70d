package workflow

import (
	"fmt"
	"slices"
	"strings"
)

// Result reports the outcome of a transition attempt. Illegal moves are
// not errors: OK is false and Message explains why.
type Result struct {
	OK      bool   `json:"ok"`
	From    State  `json:"from"`
	State   State  `json:"state"`
	Message string `json:"message,omitempty"`
}

// Machine applies transitions to a document and persists it after every
// mutation. It is not safe for concurrent use.
type Machine struct {
	path string
	doc  *Document
}

// Load reads the document at path, backfilling any missing field, and
// rewrites the normalized document.
func Load(path string) (*Machine, error) {
	doc, created, err := readDocument(path)
	if err != nil {
		return nil, err
	}

	m := &Machine{path: path, doc: doc}
	if changed := doc.normalize(); changed || created {
		if err := m.save(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Path returns the file the machine persists to.
func (m *Machine) Path() string { return m.path }

// State returns the current state.
func (m *Machine) State() State { return m.doc.State }

// Mode returns the current mode.
func (m *Machine) Mode() Mode { return m.doc.Mode }

// CurrentState satisfies the dispatcher's state gate.
func (m *Machine) CurrentState() (string, error) {
	if m == nil || m.doc == nil {
		return "", fmt.Errorf("workflow state not loaded")
	}
	return string(m.doc.State), nil
}

// Locked returns a copy of the locked stage names, sorted.
func (m *Machine) Locked() []string {
	return slices.Clone(m.doc.Locked)
}

// IsLocked reports whether a stage's artifacts are frozen.
func (m *Machine) IsLocked(stage State) bool {
	return slices.Contains(m.doc.Locked, string(stage))
}

// History returns a copy of the transition history, oldest first.
func (m *Machine) History() []HistoryEntry {
	return slices.Clone(m.doc.History)
}

// AllowedNext returns the states reachable from the current one.
func (m *Machine) AllowedNext() []State {
	return AllowedFrom(m.doc.State)
}

// Snapshot returns a copy of the whole document.
func (m *Machine) Snapshot() Document {
	return Document{
		Mode:    m.doc.Mode,
		State:   m.doc.State,
		Locked:  m.Locked(),
		History: m.History(),
		Version: m.doc.Version,
	}
}

// Transition moves to the given state if the table allows it. On success
// the state being left is locked. Entering ACCEPTED chains straight back to
// INIT within the same mutation, clearing every lock.
func (m *Machine) Transition(to State) (Result, error) {
	from := m.doc.State
	if !CanTransition(from, to) {
		return Result{
			OK:      false,
			From:    from,
			State:   from,
			Message: fmt.Sprintf("Illegal transition: %s -> %s (allowed: %s)", from, to, joinStates(AllowedFrom(from))),
		}, nil
	}

	now := timeNow().UTC().Format("2006-01-02T15:04:05Z07:00")
	next := m.doc.clone()
	next.History = append(next.History, HistoryEntry{From: from, To: to, Timestamp: now})
	next.State = to
	next.lock(string(from))

	if to == StateAccepted {
		next.History = append(next.History, HistoryEntry{From: StateAccepted, To: StateInit, Timestamp: now})
		next.State = StateInit
		next.Locked = []string{}
	}

	if err := m.commit(next); err != nil {
		return Result{}, fmt.Errorf("persisting transition: %w", err)
	}
	return Result{OK: true, From: from, State: m.doc.State}, nil
}

// SetMode switches the workflow mode.
func (m *Machine) SetMode(mode Mode) error {
	if err := ValidateMode(mode); err != nil {
		return err
	}
	next := m.doc.clone()
	next.Mode = mode
	return m.commit(next)
}

// Reset returns the workflow to INIT in quick mode with no locks or history.
func (m *Machine) Reset() error {
	next := m.doc.clone()
	next.State = StateInit
	next.Mode = ModeQuick
	next.Locked = []string{}
	next.History = []HistoryEntry{}
	return m.commit(next)
}

// commit persists next and only then makes it current, so a failed write
// leaves the in-memory state matching the file.
func (m *Machine) commit(next *Document) error {
	if err := writeDocument(m.path, next); err != nil {
		return err
	}
	m.doc = next
	return nil
}

func (m *Machine) save() error {
	return writeDocument(m.path, m.doc)
}

func joinStates(states []State) string {
	names := make([]string, len(states))
	for i, s := range states {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
