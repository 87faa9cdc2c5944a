package ink

import "strings"

// Line tags with structural meaning for presentation.
const (
	TagPause      = "pause"
	TagStandalone = "standalone"
)

// Character is a speaking character declared in a story's global tags.
type Character struct {
	Name  string
	Color string // sidebar color hint, e.g. "#aa66cc"
}

// Metadata holds the story-level settings read from global tags.
type Metadata struct {
	Title              string
	Author             string
	Teaser             string
	DefaultButtonStyle string
	Characters         map[string]Character
}

// ParseMetadata extracts story metadata from global tags. Recognized forms:
//
//	title: The Lighthouse
//	author: Ada
//	teaser: A short mystery.
//	button-style: primary
//	character: Keeper #36a64f
//
// Unknown tags are ignored so stories can carry authoring-tool tags freely.
func ParseMetadata(globalTags []string) Metadata {
	meta := Metadata{Characters: make(map[string]Character)}
	for _, tag := range globalTags {
		key, value, ok := strings.Cut(tag, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "title":
			meta.Title = value
		case "author":
			meta.Author = value
		case "teaser":
			meta.Teaser = value
		case "button-style":
			meta.DefaultButtonStyle = strings.ToLower(value)
		case "character":
			c := parseCharacter(value)
			if c.Name != "" {
				meta.Characters[strings.ToLower(c.Name)] = c
			}
		}
	}
	return meta
}

// parseCharacter splits a character declaration into name and optional
// trailing "#rrggbb" color.
func parseCharacter(value string) Character {
	name := value
	color := ""
	if i := strings.LastIndex(value, "#"); i > 0 {
		name = strings.TrimSpace(value[:i])
		color = value[i:]
	}
	return Character{Name: name, Color: color}
}

// Speaker returns the declared character a line is attributed to, matching
// line tags against declared character names case-insensitively.
func (m Metadata) Speaker(lineTags []string) (Character, bool) {
	for _, tag := range lineTags {
		if c, ok := m.Characters[strings.ToLower(strings.TrimSpace(tag))]; ok {
			return c, true
		}
	}
	return Character{}, false
}

// HasTag reports whether tags contains name, ignoring case and surrounding
// whitespace.
func HasTag(tags []string, name string) bool {
	for _, tag := range tags {
		if strings.EqualFold(strings.TrimSpace(tag), name) {
			return true
		}
	}
	return false
}
