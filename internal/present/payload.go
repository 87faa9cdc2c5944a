// Package present turns a finished story turn into the ordered sequence of
// bounded message payloads the platform can actually deliver: merged text
// blocks, character panels, pause markers, button rows, and end-of-story
// trailers. Order of the returned payloads is the delivery contract.
package present

import "github.com/Shepard/bardbot-sub001/internal/models"

// Platform presentation limits.
const (
	// MessageLimit is the most code points one plain text message holds.
	MessageLimit = 2000
	// PanelLimit is the most code points a character panel's body holds.
	PanelLimit = 1024
	// ButtonLabelLimit is the most code points one button label holds.
	ButtonLabelLimit = 80
	// ButtonsPerRow and RowsPerMessage bound one interactive message, so at
	// most ButtonsPerRow*RowsPerMessage choices can be presented.
	ButtonsPerRow  = 5
	RowsPerMessage = 5
)

// PayloadKind discriminates the Payload variants.
type PayloadKind string

const (
	// KindText is a plain text block.
	KindText PayloadKind = "text"
	// KindPanel is a styled panel attributed to a speaking character.
	KindPanel PayloadKind = "panel"
	// KindPause asks the sender to wait briefly before the next payload.
	KindPause PayloadKind = "pause"
	// KindButtons carries up to RowsPerMessage rows of choice buttons.
	KindButtons PayloadKind = "buttons"
	// KindOverflow explains that some choices could not be presented.
	KindOverflow PayloadKind = "overflow"
	// KindEnd closes the story, with a restart button.
	KindEnd PayloadKind = "end"
	// KindSuggestion offers one follow-up story with a start button.
	KindSuggestion PayloadKind = "suggestion"
)

// ButtonAction says what pressing a button means to the interaction layer.
type ButtonAction string

const (
	ActionChoice  ButtonAction = "choice"
	ActionRestart ButtonAction = "restart"
	ActionStart   ButtonAction = "start"
)

// Button is one interactive button.
type Button struct {
	Label  string
	Action ButtonAction
	// ChoiceIndex is the interpreter's stable choice index (ActionChoice).
	ChoiceIndex int
	// StoryID and GuildID name the story to start (ActionStart).
	StoryID string
	GuildID string
	// Style is the visual style hint from story metadata, may be empty.
	Style string
}

// Panel is a styled block attributed to a speaking character.
type Panel struct {
	Title string
	Color string
	Body  string
}

// Payload is one ordered unit of turn output. Exactly the fields implied by
// Kind are set.
type Payload struct {
	Kind       PayloadKind
	Text       string
	Panel      *Panel
	Rows       [][]Button
	Suggestion *models.Story
}
