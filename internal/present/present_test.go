package present

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Shepard/bardbot-sub001/internal/engine"
	"github.com/Shepard/bardbot-sub001/internal/ink"
	"github.com/Shepard/bardbot-sub001/internal/models"
)

func pinned(i int) Picker {
	return func(int) int { return i }
}

func kinds(payloads []Payload) []PayloadKind {
	var ks []PayloadKind
	for _, p := range payloads {
		ks = append(ks, p.Kind)
	}
	return ks
}

func turnWith(lines []engine.Line, choices []ink.Choice) *engine.Turn {
	return &engine.Turn{
		TurnResult: engine.TurnResult{Lines: lines, Choices: choices},
		Meta: ink.Metadata{
			Characters: map[string]ink.Character{
				"keeper": {Name: "Keeper", Color: "#36a64f"},
				"ghost":  {Name: "Ghost"},
			},
		},
	}
}

func TestRender_SimpleTurn(t *testing.T) {
	turn := turnWith(
		[]engine.Line{{Text: "The lamp is out."}},
		[]ink.Choice{{Index: 0, Text: "Climb"}},
	)

	got := New(pinned(0)).Render(turn)
	if len(got) != 2 || got[0].Kind != KindText || got[1].Kind != KindButtons {
		t.Fatalf("payloads = %v", kinds(got))
	}
	if got[0].Text != "The lamp is out." {
		t.Errorf("text = %q", got[0].Text)
	}
	rows := got[1].Rows
	if len(rows) != 1 || len(rows[0]) != 1 {
		t.Fatalf("rows = %+v", rows)
	}
	b := rows[0][0]
	if b.Label != "Climb" || b.Action != ActionChoice || b.ChoiceIndex != 0 {
		t.Errorf("button = %+v", b)
	}
}

func TestRender_MergesSameSpeaker(t *testing.T) {
	turn := turnWith([]engine.Line{
		{Text: "Who goes there?", Tags: []string{"keeper"}},
		{Text: "Speak up!", Tags: []string{"keeper"}},
		{Text: "Silence answers.", Tags: nil},
		{Text: "Leave...", Tags: []string{"ghost"}},
	}, nil)
	turn.IsEnd = true

	got := New(pinned(0)).Render(turn)
	want := []PayloadKind{KindPanel, KindText, KindPanel, KindEnd}
	if fmt.Sprint(kinds(got)) != fmt.Sprint(want) {
		t.Fatalf("payloads = %v, want %v", kinds(got), want)
	}
	if got[0].Panel.Title != "Keeper" || got[0].Panel.Color != "#36a64f" {
		t.Errorf("panel = %+v", got[0].Panel)
	}
	if got[0].Panel.Body != "Who goes there?\nSpeak up!" {
		t.Errorf("merged body = %q", got[0].Panel.Body)
	}
	if got[2].Panel.Title != "Ghost" {
		t.Errorf("second panel = %+v", got[2].Panel)
	}
}

func TestRender_PauseFlushesAndMarks(t *testing.T) {
	turn := turnWith([]engine.Line{
		{Text: "A long silence."},
		{Text: "Then, a knock.", Tags: []string{"pause"}},
	}, []ink.Choice{{Index: 0, Text: "Open"}})

	got := New(pinned(0)).Render(turn)
	want := []PayloadKind{KindText, KindPause, KindText, KindButtons}
	if fmt.Sprint(kinds(got)) != fmt.Sprint(want) {
		t.Fatalf("payloads = %v, want %v", kinds(got), want)
	}
}

func TestRender_StandaloneAndURLsIsolated(t *testing.T) {
	turn := turnWith([]engine.Line{
		{Text: "Before."},
		{Text: "See the map: https://example.com/map"},
		{Text: "After."},
	}, nil)
	turn.IsEnd = true

	got := New(pinned(0)).Render(turn)
	want := []PayloadKind{KindText, KindText, KindText, KindEnd}
	if fmt.Sprint(kinds(got)) != fmt.Sprint(want) {
		t.Fatalf("payloads = %v, want %v", kinds(got), want)
	}
	if got[1].Text != "See the map: https://example.com/map" {
		t.Errorf("url line = %q", got[1].Text)
	}
	if got[2].Text != "After." {
		t.Errorf("following line merged: %q", got[2].Text)
	}
}

func TestRender_OversizedLineIsSegmented(t *testing.T) {
	long := strings.Repeat("word ", 900) // well past MessageLimit
	turn := turnWith([]engine.Line{{Text: long}}, []ink.Choice{{Index: 0, Text: "On"}})

	got := New(pinned(0)).Render(turn)
	if len(got) < 3 {
		t.Fatalf("payloads = %v, want several text parts plus buttons", kinds(got))
	}
	var rebuilt []string
	for _, p := range got[:len(got)-1] {
		if p.Kind != KindText {
			t.Fatalf("payloads = %v", kinds(got))
		}
		if n := utf8.RuneCountInString(p.Text); n > MessageLimit {
			t.Errorf("part is %d code points", n)
		}
		rebuilt = append(rebuilt, p.Text)
	}
	if strings.TrimSpace(strings.Join(rebuilt, " ")) != strings.TrimSpace(long) {
		t.Error("segmented parts do not reconstruct the line")
	}
}

func TestRender_PanelLimitTighterThanMessageLimit(t *testing.T) {
	body := strings.Repeat("x", PanelLimit+100)
	turn := turnWith([]engine.Line{{Text: body, Tags: []string{"keeper"}}}, nil)
	turn.IsEnd = true

	got := New(pinned(0)).Render(turn)
	if got[0].Kind != KindPanel || got[1].Kind != KindPanel {
		t.Fatalf("payloads = %v", kinds(got))
	}
	if n := utf8.RuneCountInString(got[0].Panel.Body); n != PanelLimit {
		t.Errorf("first part is %d code points, want %d", n, PanelLimit)
	}
}

func TestRender_ChoiceRowsAndOverflow(t *testing.T) {
	var choices []ink.Choice
	for i := 0; i < 27; i++ {
		choices = append(choices, ink.Choice{Index: i, Text: fmt.Sprintf("c%d", i)})
	}
	turn := turnWith([]engine.Line{{Text: "Pick."}}, choices)

	got := New(pinned(0)).Render(turn)
	want := []PayloadKind{KindText, KindButtons, KindOverflow}
	if fmt.Sprint(kinds(got)) != fmt.Sprint(want) {
		t.Fatalf("payloads = %v, want %v", kinds(got), want)
	}
	rows := got[1].Rows
	if len(rows) != RowsPerMessage {
		t.Fatalf("rows = %d", len(rows))
	}
	total := 0
	for _, row := range rows {
		if len(row) > ButtonsPerRow {
			t.Errorf("row of %d buttons", len(row))
		}
		total += len(row)
	}
	if total != ButtonsPerRow*RowsPerMessage {
		t.Errorf("buttons = %d, want the first %d kept", total, ButtonsPerRow*RowsPerMessage)
	}
}

func TestRender_LongLabelsBecomeNumberedList(t *testing.T) {
	turn := turnWith([]engine.Line{{Text: "Pick."}}, []ink.Choice{
		{Index: 0, Text: "Short"},
		{Index: 1, Text: strings.Repeat("very long choice ", 10)},
	})

	got := New(pinned(0)).Render(turn)
	want := []PayloadKind{KindText, KindText, KindButtons}
	if fmt.Sprint(kinds(got)) != fmt.Sprint(want) {
		t.Fatalf("payloads = %v, want %v", kinds(got), want)
	}
	if !strings.HasPrefix(got[1].Text, "1. Short\n2. very long") {
		t.Errorf("numbered list = %q", got[1].Text)
	}
	row := got[2].Rows[0]
	if row[0].Label != "1" || row[1].Label != "2" {
		t.Errorf("labels = %q, %q", row[0].Label, row[1].Label)
	}
	if row[0].ChoiceIndex != 0 || row[1].ChoiceIndex != 1 {
		t.Errorf("indices = %d, %d", row[0].ChoiceIndex, row[1].ChoiceIndex)
	}
}

func TestRender_EndingWithSuggestions(t *testing.T) {
	turn := turnWith([]engine.Line{{Text: "fin"}}, nil)
	turn.IsEnd = true
	turn.Suggestions = []models.Story{
		{ID: "s2", Title: "Next One"},
		{ID: "s3", Title: "Another"},
	}

	got := New(pinned(2)).Render(turn)
	want := []PayloadKind{KindText, KindEnd, KindSuggestion, KindSuggestion}
	if fmt.Sprint(kinds(got)) != fmt.Sprint(want) {
		t.Fatalf("payloads = %v, want %v", kinds(got), want)
	}
	if got[1].Text != closingPhrases[2] {
		t.Errorf("closing phrase = %q", got[1].Text)
	}
	if got[1].Rows[0][0].Action != ActionRestart {
		t.Errorf("end button = %+v", got[1].Rows[0][0])
	}
	sug := got[2]
	if sug.Suggestion.ID != "s2" || sug.Rows[0][0].Action != ActionStart || sug.Rows[0][0].StoryID != "s2" {
		t.Errorf("suggestion payload = %+v", sug)
	}
}
