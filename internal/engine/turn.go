package engine

import (
	"fmt"
	"time"

	"github.com/Shepard/bardbot-sub001/internal/ink"
	"github.com/Shepard/bardbot-sub001/internal/models"
)

// Line is one narrative line produced by a sub-step.
type Line struct {
	Text string
	Tags []string
}

// TurnResult is the raw outcome of driving the interpreter through one
// turn. Exactly one of Errors non-empty, BudgetExceeded, IsEnd, or Choices
// non-empty characterizes the outcome.
type TurnResult struct {
	Lines          []Line
	Choices        []ink.Choice
	Warnings       []string
	Errors         []string
	IsEnd          bool
	BudgetExceeded bool
	// Suggestions is populated only when IsEnd is true, and may be empty
	// even then: a failed suggestion lookup is swallowed.
	Suggestions []models.Story
}

// Turn is the enhanced result handed to callers: the raw turn plus the
// story metadata the presentation layer needs.
type Turn struct {
	TurnResult
	StoryID string
	GuildID string
	Title   string
	Author  string
	Meta    ink.Metadata
}

// runTurn drives the runtime until it needs input, ends, errors, or blows
// the budget. Interpreter diagnostics are collected through the callback
// channel; an error diagnostic truncates the turn with no choices. Any
// failure of the interpreter itself is folded into the errors list here,
// at the stepper boundary — including panics, since the interpreter runs
// untrusted story content and must not be able to take the process down.
func runTurn(rt ink.Runtime, budget time.Duration) (res *TurnResult) {
	res = &TurnResult{}
	defer func() {
		if r := recover(); r != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("interpreter panicked: %v", r))
			res.Choices = nil
			res.IsEnd = false
			res.BudgetExceeded = false
		}
	}()
	rt.OnDiagnostic(func(msg string, sev ink.Severity) {
		if sev == ink.SeverityError {
			res.Errors = append(res.Errors, msg)
		} else {
			res.Warnings = append(res.Warnings, msg)
		}
	})
	defer rt.OnDiagnostic(nil)

	for rt.CanContinue() {
		done, err := rt.ContinueWithBudget(budget)
		if err != nil {
			res.Errors = append(res.Errors, err.Error())
			return res
		}
		if !done {
			res.BudgetExceeded = true
			return res
		}
		res.Lines = append(res.Lines, Line{Text: rt.CurrentText(), Tags: rt.CurrentTags()})
		if len(res.Errors) > 0 {
			return res
		}
	}

	res.Choices = rt.CurrentChoices()
	if len(res.Choices) == 0 {
		res.IsEnd = true
	}
	return res
}

// lastLines returns up to n trailing line texts, for report context.
func lastLines(lines []Line, n int) []string {
	start := len(lines) - n
	if start < 0 {
		start = 0
	}
	var texts []string
	for _, l := range lines[start:] {
		texts = append(texts, l.Text)
	}
	return texts
}
