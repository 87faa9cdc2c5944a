package ink

import (
	"encoding/json"
	"fmt"
	"time"
)

// ScriptedStep describes one sub-step of a ScriptedRuntime.
type ScriptedStep struct {
	Text    string
	Tags    []string
	Warning string // diagnostic raised while evaluating this step
	Error   string // diagnostic raised while evaluating this step
	Overrun bool   // the budget elapses before this step completes
	Err     error  // ContinueWithBudget fails outright with this error
}

// ScriptedTurn is one stretch of story content up to a choice point. A turn
// with no choices ends the story when its steps run out.
type ScriptedTurn struct {
	Steps   []ScriptedStep
	Choices []Choice
}

// ScriptedRuntime implements Runtime for testing. It plays back a fixed
// sequence of turns and records choices, variable writes, and loaded
// documents so tests can assert on engine behavior.
type ScriptedRuntime struct {
	Turns   []ScriptedTurn
	Globals []string

	FailSerialize bool
	FailLoad      bool

	Chosen []int
	Vars   map[string]any
	Loaded []string

	turn    int
	pos     int
	text    string
	tags    []string
	handler Handler
}

var _ Runtime = (*ScriptedRuntime)(nil)

func (r *ScriptedRuntime) CanContinue() bool {
	return r.turn < len(r.Turns) && r.pos < len(r.Turns[r.turn].Steps)
}

func (r *ScriptedRuntime) ContinueWithBudget(budget time.Duration) (bool, error) {
	if !r.CanContinue() {
		return false, fmt.Errorf("ink: continue past a choice point")
	}
	step := r.Turns[r.turn].Steps[r.pos]
	if step.Err != nil {
		return false, step.Err
	}
	if step.Overrun {
		// Mid-step: position does not advance.
		return false, nil
	}
	r.pos++
	r.text = step.Text
	r.tags = step.Tags
	if r.handler != nil {
		if step.Warning != "" {
			r.handler(step.Warning, SeverityWarning)
		}
		if step.Error != "" {
			r.handler(step.Error, SeverityError)
		}
	}
	return true, nil
}

func (r *ScriptedRuntime) CurrentText() string { return r.text }

func (r *ScriptedRuntime) CurrentTags() []string { return r.tags }

func (r *ScriptedRuntime) CurrentChoices() []Choice {
	if r.CanContinue() || r.turn >= len(r.Turns) {
		return nil
	}
	return r.Turns[r.turn].Choices
}

func (r *ScriptedRuntime) ChooseChoiceIndex(index int) error {
	for _, c := range r.CurrentChoices() {
		if c.Index == index {
			r.Chosen = append(r.Chosen, index)
			r.turn++
			r.pos = 0
			return nil
		}
	}
	return fmt.Errorf("ink: no choice with index %d", index)
}

func (r *ScriptedRuntime) GlobalTags() []string { return r.Globals }

func (r *ScriptedRuntime) SetVariable(name string, value any) error {
	if r.Vars == nil {
		r.Vars = make(map[string]any)
	}
	r.Vars[name] = value
	return nil
}

func (r *ScriptedRuntime) ToDocument() (string, error) {
	if r.FailSerialize {
		return "", fmt.Errorf("ink: state not serializable")
	}
	doc, err := json.Marshal(map[string]int{"turn": r.turn, "pos": r.pos})
	if err != nil {
		return "", err
	}
	return string(doc), nil
}

func (r *ScriptedRuntime) LoadDocument(doc string) error {
	if r.FailLoad {
		return fmt.Errorf("ink: document corrupt")
	}
	var state map[string]int
	if err := json.Unmarshal([]byte(doc), &state); err != nil {
		return fmt.Errorf("ink: load document: %w", err)
	}
	r.turn = state["turn"]
	r.pos = state["pos"]
	r.Loaded = append(r.Loaded, doc)
	return nil
}

func (r *ScriptedRuntime) OnDiagnostic(h Handler) { r.handler = h }
