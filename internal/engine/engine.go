// Package engine runs interactive story sessions: it loads and persists
// per-user play state, drives the narrative interpreter one turn at a time
// under a wall-clock budget, and classifies what each turn means for the
// player and for the story's author.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Shepard/bardbot-sub001/internal/ink"
	"github.com/Shepard/bardbot-sub001/internal/models"
	"github.com/Shepard/bardbot-sub001/internal/report"
	"github.com/Shepard/bardbot-sub001/internal/store"
)

// DefaultStepBudget bounds one interpreter sub-step. Large enough for a
// legitimately slow script step, small enough that one user's turn cannot
// starve others sharing the process.
const DefaultStepBudget = 300 * time.Millisecond

// DefaultLoopThreshold is the number of budget overruns a story is granted
// before the next one is reclassified as a potential infinite loop.
const DefaultLoopThreshold = 10

// DefaultMaxChoices is the largest number of choices the platform can
// present for one turn (button rows times buttons per row).
const DefaultMaxChoices = 25

// reportContextLines is how many trailing output lines accompany a report.
const reportContextLines = 5

// Store is the persistence collaborator. Lookup methods report missing rows
// with store.ErrNotFound.
type Store interface {
	Session(userID string) (*models.StorySession, error)
	CreateSession(sess *models.StorySession) error
	SaveSessionState(userID, doc string) error
	ClearSessionState(userID string) error
	DeleteSession(userID string) error
	Story(id, guildID string) (*models.Story, error)
	StoryByID(id string) (*models.Story, error)
	IncrementOverrun(storyID string) (int, error)
	Suggestions(storyID string) ([]models.Story, error)
}

// Reporter delivers author-facing issue reports. Implementations dedupe per
// story and kind, and never let delivery problems surface here.
type Reporter interface {
	Report(ctx context.Context, story *models.Story, ev report.Event)
}

// Engine is the session lifecycle controller.
type Engine struct {
	store         Store
	reporter      Reporter
	compile       ink.Compiler
	budget        time.Duration
	loopThreshold int
	maxChoices    int
}

// Opts holds parameters for creating an Engine.
type Opts struct {
	Store         Store
	Reporter      Reporter
	Compile       ink.Compiler
	StepBudget    time.Duration // defaults to DefaultStepBudget
	LoopThreshold int           // defaults to DefaultLoopThreshold
	MaxChoices    int           // defaults to DefaultMaxChoices
}

// New creates an Engine.
func New(opts Opts) (*Engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("engine: store is required")
	}
	if opts.Reporter == nil {
		return nil, fmt.Errorf("engine: reporter is required")
	}
	if opts.Compile == nil {
		return nil, fmt.Errorf("engine: compiler is required")
	}
	e := &Engine{
		store:         opts.Store,
		reporter:      opts.Reporter,
		compile:       opts.Compile,
		budget:        opts.StepBudget,
		loopThreshold: opts.LoopThreshold,
		maxChoices:    opts.MaxChoices,
	}
	if e.budget <= 0 {
		e.budget = DefaultStepBudget
	}
	if e.loopThreshold <= 0 {
		e.loopThreshold = DefaultLoopThreshold
	}
	if e.maxChoices <= 0 {
		e.maxChoices = DefaultMaxChoices
	}
	return e, nil
}

// Start begins a new session for userID playing storyID. The session row is
// persisted before the first turn runs; if that turn never completes the
// row is rolled back so the user is not left stuck.
func (e *Engine) Start(ctx context.Context, userID, storyID, guildID string) (*Turn, error) {
	_, err := e.store.Session(userID)
	if err == nil {
		return nil, newError(CodeAlreadyPlayingDifferentStory, nil)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, newError(CodeTemporaryProblem, err)
	}

	story, err := e.store.Story(storyID, guildID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(CodeStoryNotFound, nil)
	}
	if err != nil {
		return nil, newError(CodeTemporaryProblem, err)
	}
	if story.Status == models.StoryStatusToBeDeleted {
		return nil, newError(CodeStoryNotFound, nil)
	}
	if story.ReportedPotentialLoop {
		// A confirmed loop blocks starting until management clears the flag.
		return nil, newError(CodeStoryNotStartable, nil)
	}

	rt, err := e.compile(story.Content)
	if err != nil {
		return nil, newError(CodeStoryNotStartable, err)
	}

	sess := &models.StorySession{UserID: userID, StoryID: story.ID, GuildID: guildID}
	if err := e.store.CreateSession(sess); err != nil {
		// Lost a race against another start for the same user.
		if _, sessErr := e.store.Session(userID); sessErr == nil {
			return nil, newError(CodeAlreadyPlayingDifferentStory, nil)
		}
		return nil, newError(CodeTemporaryProblem, err)
	}

	turn, err := e.finishTurn(ctx, userID, story, rt)
	if err != nil && turn == nil && Retryable(err) {
		if delErr := e.store.DeleteSession(userID); delErr != nil {
			log.Printf("engine: rollback session %s: %v", userID, delErr)
		}
	}
	return turn, err
}

// Continue advances an existing session: variable bindings are applied to
// the restored state, then the choice is selected and a turn is run. A
// rejected choice is local and non-fatal; state corruption abandons the
// session.
func (e *Engine) Continue(ctx context.Context, userID string, choiceIndex int, vars map[string]any) (*Turn, error) {
	sess, story, err := e.loadSession(userID)
	if err != nil {
		return nil, err
	}

	rt, err := e.compile(story.Content)
	if err != nil {
		// Content no longer parses even though a session references it.
		e.abandon(userID)
		return nil, newError(CodeStoryNotContinueable, err)
	}

	if sess.StateDoc == nil {
		// The first turn never completed; run it now instead of choosing.
		return e.finishTurn(ctx, userID, story, rt)
	}

	if err := rt.LoadDocument(*sess.StateDoc); err != nil {
		// Corrupt state is abandoned, not retried.
		e.abandon(userID)
		return nil, newError(CodeStoryNotContinueable, err)
	}

	for name, value := range vars {
		if err := rt.SetVariable(name, value); err != nil {
			return nil, newError(CodeInvalidChoice, err)
		}
	}

	if err := rt.ChooseChoiceIndex(choiceIndex); err != nil {
		return nil, newError(CodeInvalidChoice, err)
	}

	return e.finishTurn(ctx, userID, story, rt)
}

// Restart resets the session to the beginning of the story and runs the
// first turn again.
func (e *Engine) Restart(ctx context.Context, userID string) (*Turn, error) {
	_, story, err := e.loadSession(userID)
	if err != nil {
		return nil, err
	}

	rt, err := e.compile(story.Content)
	if err != nil {
		e.abandon(userID)
		return nil, newError(CodeStoryNotContinueable, err)
	}

	if err := e.store.ClearSessionState(userID); err != nil {
		return nil, newError(CodeTemporaryProblem, err)
	}

	return e.finishTurn(ctx, userID, story, rt)
}

// Inspect re-presents the current turn's line and choices without advancing
// the story. A state that still has pending content means the last turn was
// cut short by an already-reported problem; it is not replayed.
func (e *Engine) Inspect(userID string) (*Turn, error) {
	sess, story, err := e.loadSession(userID)
	if err != nil {
		return nil, err
	}
	if sess.StateDoc == nil {
		return nil, newError(CodeStoryNotContinueable, nil)
	}

	rt, err := e.compile(story.Content)
	if err != nil {
		return nil, newError(CodeStoryNotContinueable, err)
	}
	if err := rt.LoadDocument(*sess.StateDoc); err != nil {
		e.abandon(userID)
		return nil, newError(CodeStoryNotContinueable, err)
	}
	if rt.CanContinue() {
		return nil, newError(CodeStoryNotContinueable, nil)
	}

	res := &TurnResult{Choices: rt.CurrentChoices()}
	if text := rt.CurrentText(); text != "" {
		res.Lines = append(res.Lines, Line{Text: text, Tags: rt.CurrentTags()})
	}
	return e.enhance(story, rt, res), nil
}

// loadSession resolves a user's session and its story.
func (e *Engine) loadSession(userID string) (*models.StorySession, *models.Story, error) {
	sess, err := e.store.Session(userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, newError(CodeStoryNotFound, nil)
	}
	if err != nil {
		return nil, nil, newError(CodeTemporaryProblem, err)
	}

	story, err := e.store.StoryByID(sess.StoryID)
	if errors.Is(err, store.ErrNotFound) {
		// The story vanished under the session; nothing to resume.
		e.abandon(userID)
		return nil, nil, newError(CodeStoryNotContinueable, nil)
	}
	if err != nil {
		return nil, nil, newError(CodeTemporaryProblem, err)
	}
	if story.Status == models.StoryStatusToBeDeleted {
		// Marked for deletion counts as gone. Dropping the session also
		// unblocks the purge, which skips stories still referenced.
		e.abandon(userID)
		return nil, nil, newError(CodeStoryNotContinueable, nil)
	}
	return sess, story, nil
}

// finishTurn runs one turn on rt and applies the outcome rules: report and
// abandon on interpreter errors, count overruns toward loop detection,
// persist state or wind the session down at story end.
func (e *Engine) finishTurn(ctx context.Context, userID string, story *models.Story, rt ink.Runtime) (*Turn, error) {
	res := runTurn(rt, e.budget)

	if len(res.Errors) > 0 {
		e.reporter.Report(ctx, story, report.Event{
			Kind:    report.KindInkError,
			Details: strings.Join(res.Errors, "\n"),
			Context: lastLines(res.Lines, reportContextLines),
		})
		e.abandon(userID)
		return nil, newError(CodeStoryNotContinueable, nil)
	}

	if res.BudgetExceeded {
		return nil, e.handleOverrun(ctx, userID, story, res)
	}

	if len(res.Warnings) > 0 {
		e.reporter.Report(ctx, story, report.Event{
			Kind:    report.KindInkWarning,
			Details: strings.Join(res.Warnings, "\n"),
			Context: lastLines(res.Lines, reportContextLines),
		})
	}

	if len(res.Choices) > e.maxChoices {
		texts := make([]string, 0, len(res.Choices))
		for _, c := range res.Choices {
			texts = append(texts, c.Text)
		}
		e.reporter.Report(ctx, story, report.Event{
			Kind:    report.KindMaxChoices,
			Details: fmt.Sprintf("%d choices offered, at most %d can be presented", len(res.Choices), e.maxChoices),
			Context: texts,
		})
	}

	if res.IsEnd {
		e.abandon(userID)
		suggestions, err := e.store.Suggestions(story.ID)
		if err != nil {
			// Missing suggestions must never fail the turn.
			log.Printf("engine: suggestions for %s: %v", story.ID, err)
		} else {
			res.Suggestions = suggestions
		}
		return e.enhance(story, rt, res), nil
	}

	doc, err := rt.ToDocument()
	if err != nil {
		return e.enhance(story, rt, res), newError(CodeCouldNotSaveState, err)
	}
	if err := e.store.SaveSessionState(userID, doc); err != nil {
		return e.enhance(story, rt, res), newError(CodeCouldNotSaveState, err)
	}

	return e.enhance(story, rt, res), nil
}

// handleOverrun increments the story's overrun counter and decides between
// "slow this once, retry" and "potential infinite loop, shut it down".
func (e *Engine) handleOverrun(ctx context.Context, userID string, story *models.Story, res *TurnResult) error {
	count, err := e.store.IncrementOverrun(story.ID)
	if err != nil {
		// Counting failed; fall back to the retryable path rather than
		// escalating on missing evidence.
		log.Printf("engine: overrun counter %s: %v", story.ID, err)
		return newError(CodeTimeBudgetExceeded, nil)
	}

	if count <= e.loopThreshold {
		return newError(CodeTimeBudgetExceeded, nil)
	}

	e.reporter.Report(ctx, story, report.Event{
		Kind: report.KindPotentialLoop,
		Details: fmt.Sprintf("the story exceeded its %v step budget %d times and looks stuck in a loop; it can no longer be started",
			e.budget, count),
		Context: lastLines(res.Lines, reportContextLines),
	})
	e.abandon(userID)
	return newError(CodeStoryNotContinueable, nil)
}

// abandon deletes a session, logging but not propagating failures.
func (e *Engine) abandon(userID string) {
	if err := e.store.DeleteSession(userID); err != nil {
		log.Printf("engine: abandon session %s: %v", userID, err)
	}
}

// enhance attaches the story metadata the presentation layer needs.
func (e *Engine) enhance(story *models.Story, rt ink.Runtime, res *TurnResult) *Turn {
	return &Turn{
		TurnResult: *res,
		StoryID:    story.ID,
		GuildID:    story.GuildID,
		Title:      story.Title,
		Author:     story.Author,
		Meta:       ink.ParseMetadata(rt.GlobalTags()),
	}
}
