package present

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Shepard/bardbot-sub001/internal/chunk"
	"github.com/Shepard/bardbot-sub001/internal/engine"
	"github.com/Shepard/bardbot-sub001/internal/ink"
)

// Picker selects one of n alternatives. Injectable so tests can pin the
// choice of closing phrase.
type Picker func(n int) int

// Presenter renders turns into payload sequences.
type Presenter struct {
	pick Picker
}

// New creates a Presenter. A nil picker means uniform random selection.
func New(pick Picker) *Presenter {
	if pick == nil {
		pick = rand.Intn
	}
	return &Presenter{pick: pick}
}

// Render transforms one turn into its ordered payloads: narrative lines
// merged per speaker under size limits, then choice buttons, then the
// end-of-story trailer when the story is over.
func (p *Presenter) Render(turn *engine.Turn) []Payload {
	var out []Payload

	var buf []string
	bufLen := 0
	var speaker ink.Character
	attributed := false

	flush := func() {
		if len(buf) == 0 {
			return
		}
		out = append(out, blockPayload(speaker, attributed, strings.Join(buf, "\n")))
		buf, bufLen = nil, 0
	}

	for _, line := range turn.Lines {
		if ink.HasTag(line.Tags, ink.TagPause) {
			flush()
			out = append(out, Payload{Kind: KindPause})
		}

		sp, ok := turn.Meta.Speaker(line.Tags)
		limit := MessageLimit
		if ok {
			limit = PanelLimit
		}

		if ink.HasTag(line.Tags, ink.TagStandalone) || containsURL(line.Text) {
			// Isolated so link previews attach to their own message, and the
			// following line starts a fresh block.
			flush()
			for _, part := range chunk.Segment(line.Text, limit) {
				out = append(out, blockPayload(sp, ok, part))
			}
			continue
		}

		if len(buf) > 0 && (attributed != ok || speaker.Name != sp.Name) {
			flush()
		}
		speaker, attributed = sp, ok

		lineLen := utf8.RuneCountInString(line.Text)
		if lineLen > limit {
			flush()
			for _, part := range chunk.Segment(line.Text, limit) {
				out = append(out, blockPayload(sp, ok, part))
			}
			continue
		}
		if len(buf) > 0 && bufLen+1+lineLen > limit {
			flush()
		}
		if len(buf) > 0 {
			bufLen++
		}
		buf = append(buf, line.Text)
		bufLen += lineLen
	}
	flush()

	if len(turn.Choices) > 0 {
		out = p.appendChoices(out, turn)
	}

	if turn.IsEnd {
		out = p.appendEnding(out, turn)
	}

	return out
}

// appendChoices renders the turn's choices as button rows. Labels that do
// not fit on a button demote the whole set to a numbered list with
// index-only buttons. Choices beyond what one message can carry are dropped
// behind an explanatory overflow payload.
func (p *Presenter) appendChoices(out []Payload, turn *engine.Turn) []Payload {
	numbered := false
	for _, c := range turn.Choices {
		if utf8.RuneCountInString(c.Text) > ButtonLabelLimit {
			numbered = true
			break
		}
	}

	if numbered {
		lines := make([]string, 0, len(turn.Choices))
		for i, c := range turn.Choices {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, c.Text))
		}
		for _, part := range chunk.Segment(strings.Join(lines, "\n"), MessageLimit) {
			out = append(out, Payload{Kind: KindText, Text: part})
		}
	}

	choices := turn.Choices
	max := ButtonsPerRow * RowsPerMessage
	overflow := len(choices) > max
	if overflow {
		choices = choices[:max]
	}

	var rows [][]Button
	var row []Button
	for i, c := range choices {
		label := c.Text
		if numbered {
			label = strconv.Itoa(i + 1)
		}
		row = append(row, Button{
			Label:       label,
			Action:      ActionChoice,
			ChoiceIndex: c.Index,
			Style:       turn.Meta.DefaultButtonStyle,
		})
		if len(row) == ButtonsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	out = append(out, Payload{Kind: KindButtons, Rows: rows})

	if overflow {
		out = append(out, Payload{
			Kind: KindOverflow,
			Text: fmt.Sprintf("This story offered %d choices, but only the first %d can be shown.", len(turn.Choices), max),
		})
	}
	return out
}

// appendEnding adds the closing phrase with a restart button, then one
// payload per follow-up suggestion.
func (p *Presenter) appendEnding(out []Payload, turn *engine.Turn) []Payload {
	out = append(out, Payload{
		Kind: KindEnd,
		Text: closingPhrases[p.pick(len(closingPhrases))],
		Rows: [][]Button{{{
			Label:  "Play again",
			Action: ActionRestart,
			Style:  turn.Meta.DefaultButtonStyle,
		}}},
	})
	for i := range turn.Suggestions {
		s := &turn.Suggestions[i]
		out = append(out, Payload{
			Kind:       KindSuggestion,
			Suggestion: s,
			Rows: [][]Button{{{
				Label:   "Start this one",
				Action:  ActionStart,
				StoryID: s.ID,
				GuildID: s.GuildID,
			}}},
		})
	}
	return out
}

func blockPayload(sp ink.Character, attributed bool, text string) Payload {
	if attributed {
		return Payload{Kind: KindPanel, Panel: &Panel{Title: sp.Name, Color: sp.Color, Body: text}}
	}
	return Payload{Kind: KindText, Text: text}
}

// containsURL reports whether text carries a bare link that the platform
// would expand into a preview.
func containsURL(text string) bool {
	for _, field := range strings.Fields(text) {
		if strings.HasPrefix(field, "http://") || strings.HasPrefix(field, "https://") {
			return true
		}
	}
	return false
}
