package engine

import (
	"errors"
	"fmt"
)

// Code identifies the failure class of an engine operation. Player-facing
// handlers branch on the code to decide between "try again", "pick another
// choice", and "this story cannot continue".
type Code string

const (
	CodeStoryNotFound                Code = "StoryNotFound"
	CodeAlreadyPlayingDifferentStory Code = "AlreadyPlayingDifferentStory"
	CodeStoryNotStartable            Code = "StoryNotStartable"
	CodeStoryNotContinueable         Code = "StoryNotContinueable"
	CodeTemporaryProblem             Code = "TemporaryProblem"
	CodeInvalidChoice                Code = "InvalidChoice"
	CodeCouldNotSaveState            Code = "CouldNotSaveState"
	CodeTimeBudgetExceeded           Code = "TimeBudgetExceeded"
)

// Error is the typed failure returned by engine operations.
type Error struct {
	Code  Code
	cause error
}

func newError(code Code, cause error) *Error {
	return &Error{Code: code, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("engine: %s: %v", e.Code, e.cause)
	}
	return fmt.Sprintf("engine: %s", e.Code)
}

func (e *Error) Unwrap() error { return e.cause }

// CodeOf extracts the engine error code from err, or "" when err is not an
// engine error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Retryable reports whether the failure is player-local and worth retrying
// without abandoning anything: a stale choice or a one-off slow turn.
func Retryable(err error) bool {
	switch CodeOf(err) {
	case CodeInvalidChoice, CodeTimeBudgetExceeded, CodeTemporaryProblem:
		return true
	}
	return false
}
