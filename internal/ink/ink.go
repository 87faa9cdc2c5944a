// Package ink defines the boundary to the narrative-scripting interpreter.
// The interpreter itself is an external collaborator; this package holds the
// interface the story engine drives, the value types crossing it, and the
// helpers that read story metadata out of global tags.
package ink

import "time"

// Severity distinguishes the two diagnostic channels of the interpreter.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

// Choice is one selectable option at the current story point. Index is the
// interpreter's stable choice index and must be passed back unchanged to
// ChooseChoiceIndex.
type Choice struct {
	Index int
	Text  string
	Tags  []string
}

// Handler receives interpreter diagnostics raised while evaluating a
// sub-step. This is a separate channel from errors returned by
// ContinueWithBudget, which represent the interpreter itself failing.
type Handler func(message string, severity Severity)

// Runtime is a loaded story positioned at some point of its content.
// Implementations are not safe for concurrent use; the engine drives one
// runtime at a time per user.
type Runtime interface {
	// CanContinue reports whether the story has more content before the
	// next choice point or the end.
	CanContinue() bool

	// ContinueWithBudget advances the story by one sub-step, giving the
	// interpreter at most budget of wall-clock time. It returns false when
	// the budget elapsed before the sub-step finished; the runtime is then
	// left mid-step and must not be advanced further this turn.
	ContinueWithBudget(budget time.Duration) (bool, error)

	// CurrentText and CurrentTags describe the line produced by the most
	// recent completed sub-step.
	CurrentText() string
	CurrentTags() []string

	// CurrentChoices lists the options available at the current point.
	CurrentChoices() []Choice

	// ChooseChoiceIndex selects a choice by its stable index. It fails when
	// the index does not match a currently available choice, which happens
	// when a stale control is used after the story advanced.
	ChooseChoiceIndex(index int) error

	// GlobalTags returns the story-level tags carrying metadata such as
	// declared characters and the default button style.
	GlobalTags() []string

	// SetVariable writes one interpreter variable binding.
	SetVariable(name string, value any) error

	// ToDocument serializes the runtime state to a resumable document.
	// LoadDocument restores a runtime to a previously serialized state.
	ToDocument() (string, error)
	LoadDocument(doc string) error

	// OnDiagnostic registers the handler receiving errors and warnings
	// raised during evaluation. Passing nil removes the handler.
	OnDiagnostic(h Handler)
}

// Compiler turns raw story content into a fresh Runtime positioned at the
// beginning of the story. A compile error means the content is not playable.
type Compiler func(content string) (Runtime, error)
