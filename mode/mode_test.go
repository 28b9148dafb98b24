package mode

import (
	"errors"
	"testing"

	"github.com/wudi/pdfedit/annotation"
)

func TestInitialState(t *testing.T) {
	m := NewMachine(Hooks{})
	if m.Current().Kind != View {
		t.Fatalf("initial = %v", m.Current())
	}
	if m.CanEditText() {
		t.Fatalf("view mode must not accept text edits")
	}
	if _, ok := m.Tool(); ok {
		t.Fatalf("view mode has no tool")
	}
}

func TestTransitionsRunHooks(t *testing.T) {
	var entered, left []Transition
	m := NewMachine(Hooks{
		OnEnter: func(t Transition) { entered = append(entered, t) },
		OnLeave: func(t Transition) { left = append(left, t) },
	})

	steps := []State{
		{Kind: EditText},
		{Kind: EditText},
		AnnotateWith(annotation.Highlight),
		AnnotateWith(annotation.Circle),
		{Kind: View},
	}
	for _, s := range steps {
		if err := m.Select(s); err != nil {
			t.Fatalf("select %v: %v", s, err)
		}
	}
	if len(entered) != 4 {
		t.Fatalf("entered = %d, want 4 (repeat selection is a no-op)", len(entered))
	}
	if !entered[0].Entered(EditText) || entered[0].From.Kind != View {
		t.Fatalf("first transition = %+v", entered[0])
	}
	if !entered[1].Left(EditText) || !entered[1].Entered(Annotate) {
		t.Fatalf("second transition = %+v", entered[1])
	}
	if entered[2].Entered(Annotate) || entered[2].To.Tool != annotation.Circle {
		t.Fatalf("tool switch = %+v", entered[2])
	}
	if len(left) != 4 {
		t.Fatalf("left = %d, want 4", len(left))
	}
	if m.Current().String() != "view" {
		t.Fatalf("final = %v", m.Current())
	}
}

func TestAnnotateRequiresTool(t *testing.T) {
	m := NewMachine(Hooks{})
	err := m.Select(State{Kind: Annotate, Tool: annotation.Kind(42)})
	if !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}
	if m.Current().Kind != View {
		t.Fatalf("state changed on failed select: %v", m.Current())
	}
	if err := m.Select(AnnotateWith(annotation.Rectangle)); err != nil {
		t.Fatalf("select: %v", err)
	}
	tool, ok := m.Tool()
	if !ok || tool != annotation.Rectangle {
		t.Fatalf("tool = %v ok=%v", tool, ok)
	}
	if m.Current().String() != "annotate(rectangle)" {
		t.Fatalf("string = %q", m.Current().String())
	}
}

func TestEditTextIgnoresTool(t *testing.T) {
	m := NewMachine(Hooks{})
	if err := m.Select(State{Kind: EditText, Tool: annotation.Circle}); err != nil {
		t.Fatalf("select: %v", err)
	}
	if m.Current().Tool != 0 || !m.CanEditText() {
		t.Fatalf("state = %+v", m.Current())
	}
}
