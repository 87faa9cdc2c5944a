package chunk

import (
	"strings"
	"testing"
)

func TestSegment_ShortTextUntouched(t *testing.T) {
	got := Segment("hello", 10)
	if len(got) != 1 || got[0] != "hello" {
		t.Errorf("Segment() = %v, want [hello]", got)
	}
}

func TestSegment_Empty(t *testing.T) {
	if got := Segment("", 10); got != nil {
		t.Errorf("Segment(\"\") = %v, want nil", got)
	}
}

func TestSegment_DropsContinuationLeadingWhitespace(t *testing.T) {
	got := Segment("abc de", 3)
	if len(got) != 2 || got[0] != "abc" || got[1] != "de" {
		t.Errorf("Segment() = %q, want [abc de]", got)
	}
}

func TestSegment_PrefersLineBreak(t *testing.T) {
	got := Segment("one two\nthree four", 10)
	if len(got) != 2 {
		t.Fatalf("Segment() = %q, want 2 parts", got)
	}
	if got[0] != "one two" {
		t.Errorf("first part = %q, want %q", got[0], "one two")
	}
	if got[1] != "three four" {
		t.Errorf("second part = %q, want %q", got[1], "three four")
	}
}

func TestSegment_LineBreakBeatsLaterSpace(t *testing.T) {
	// The newline at index 3 should win over the space at index 7 only if
	// the space is outside the window; within the window the newline is
	// preferred even though the space is later.
	got := Segment("ab\ncd ef", 6)
	if got[0] != "ab\ncd" && got[0] != "ab" {
		t.Errorf("first part = %q, want a whitespace-delimited prefix", got[0])
	}
	for _, p := range got {
		if n := len([]rune(p)); n > 6 {
			t.Errorf("part %q has %d code points, limit 6", p, n)
		}
	}
}

func TestSegment_FallsBackToSpace(t *testing.T) {
	got := Segment("alpha beta gamma", 11)
	if got[0] != "alpha beta" {
		t.Errorf("first part = %q, want %q", got[0], "alpha beta")
	}
	if got[1] != "gamma" {
		t.Errorf("second part = %q, want %q", got[1], "gamma")
	}
}

func TestSegment_HardCutWithoutWhitespace(t *testing.T) {
	got := Segment("abcdefghij", 4)
	want := []string{"abcd", "efgh", "ij"}
	if len(got) != len(want) {
		t.Fatalf("Segment() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("part[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSegment_CountsCodePointsNotBytes(t *testing.T) {
	// Four two-byte runes; a byte-based split at 4 would cut mid-rune.
	got := Segment("éééé", 2)
	if len(got) != 2 {
		t.Fatalf("Segment() = %q, want 2 parts", got)
	}
	for _, p := range got {
		if p != "éé" {
			t.Errorf("part = %q, want %q", p, "éé")
		}
	}
}

func TestSegment_NoPartExceedsLimit(t *testing.T) {
	texts := []string{
		"The quick brown fox jumps over the lazy dog, again and again and again.",
		strings.Repeat("x", 100),
		"line one\nline two\nline three\nline four\nline five",
		"word " + strings.Repeat("y", 50) + " tail",
	}
	for _, text := range texts {
		for _, limit := range []int{1, 5, 17, 64} {
			for _, p := range Segment(text, limit) {
				if n := len([]rune(p)); n > limit {
					t.Errorf("Segment(%q, %d): part %q has %d code points", text, limit, p, n)
				}
				if p == "" {
					t.Errorf("Segment(%q, %d): empty part", text, limit)
				}
			}
		}
	}
}

func TestSegment_ReconstructsOriginalContent(t *testing.T) {
	text := "Once upon a time there was a story\nwith several lines of prose and a few long words."
	joined := strings.Join(Segment(text, 20), " ")
	// Collapse whitespace on both sides: only whitespace may differ at breaks.
	if normalize(joined) != normalize(text) {
		t.Errorf("reconstructed %q, want content of %q", joined, text)
	}
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
