// Package mode tracks the editor's interaction mode.
package mode

import (
	"errors"
	"fmt"

	"github.com/wudi/pdfedit/annotation"
)

// ErrUnknownTool is returned when Annotate is selected with an invalid tool.
var ErrUnknownTool = errors.New("unknown annotation tool")

type Kind int

const (
	View Kind = iota
	EditText
	Annotate
)

func (k Kind) String() string {
	switch k {
	case View:
		return "view"
	case EditText:
		return "edit-text"
	case Annotate:
		return "annotate"
	}
	return fmt.Sprintf("mode(%d)", int(k))
}

// State is a mode plus, for Annotate, the active tool.
type State struct {
	Kind Kind
	Tool annotation.Kind
}

func (s State) String() string {
	if s.Kind == Annotate {
		return fmt.Sprintf("%s(%s)", s.Kind, s.Tool)
	}
	return s.Kind.String()
}

// AnnotateWith is the Annotate state for a tool.
func AnnotateWith(tool annotation.Kind) State {
	return State{Kind: Annotate, Tool: tool}
}

// Transition describes a completed mode change.
type Transition struct {
	From, To State
}

// Entered reports whether the transition moved into k from a different mode.
func (t Transition) Entered(k Kind) bool { return t.To.Kind == k && t.From.Kind != k }

// Left reports whether the transition moved out of k.
func (t Transition) Left(k Kind) bool { return t.From.Kind == k && t.To.Kind != k }

// Hooks run after a transition has been applied.
type Hooks struct {
	OnEnter func(Transition)
	OnLeave func(Transition)
}

// Machine holds the current mode. It starts in View and has no terminal state.
type Machine struct {
	state State
	hooks Hooks
}

func NewMachine(hooks Hooks) *Machine {
	return &Machine{state: State{Kind: View}, hooks: hooks}
}

func (m *Machine) Current() State { return m.state }

// Select moves to next. Selecting the current state is a no-op; switching
// tools inside Annotate counts as leaving and re-entering Annotate.
func (m *Machine) Select(next State) error {
	switch next.Kind {
	case View, EditText:
		next.Tool = 0
	case Annotate:
		if !next.Tool.Valid() {
			return fmt.Errorf("%w: %d", ErrUnknownTool, int(next.Tool))
		}
	default:
		return fmt.Errorf("unknown mode %d", int(next.Kind))
	}
	if next == m.state {
		return nil
	}
	t := Transition{From: m.state, To: next}
	m.state = next
	if m.hooks.OnLeave != nil && (t.From.Kind != t.To.Kind || t.From.Kind == Annotate) {
		m.hooks.OnLeave(t)
	}
	if m.hooks.OnEnter != nil {
		m.hooks.OnEnter(t)
	}
	return nil
}

// CanEditText reports whether text commits are accepted.
func (m *Machine) CanEditText() bool { return m.state.Kind == EditText }

// Tool returns the active annotation tool when in Annotate.
func (m *Machine) Tool() (annotation.Kind, bool) {
	if m.state.Kind != Annotate {
		return 0, false
	}
	return m.state.Tool, true
}
