// Package transcript renders the event log into bounded prompt context.
package transcript

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tatianab/saga/internal/models"
)

const (
	runesPerToken  = 4
	blockSeparator = "\n\n"
)

// TokenCount approximates the number of tokens in text. It is deterministic
// and monotonic in the length of text.
func TokenCount(text string) int {
	return tokensForRunes(utf8.RuneCountInString(text))
}

func tokensForRunes(n int) int {
	return (n + runesPerToken - 1) / runesPerToken
}

// Render returns what has happened so far, using no more than budget tokens.
// Scenes closed by a summarized location change are represented by that
// summary; the open scene is rendered in full. When the result still does not
// fit, the oldest blocks are dropped and then the oldest text is cut.
func Render(s *models.State, budget int) string {
	if budget <= 0 {
		return ""
	}
	return fit(blocks(s), budget)
}

func blocks(s *models.State) []string {
	var out []string
	scene := []models.Event{}
	var header *models.LocationChangeEvent

	flush := func(closing *models.LocationChangeEvent) {
		if header != nil {
			out = appendBlock(out, LocationChangeText(header, s))
		}
		if closing != nil && strings.TrimSpace(closing.Summary) != "" {
			out = appendBlock(out, strings.TrimSpace(closing.Summary))
		} else {
			for _, e := range scene {
				out = appendBlock(out, eventText(e, s))
			}
		}
		scene = scene[:0]
	}

	for _, e := range s.Events {
		if lc, ok := e.(*models.LocationChangeEvent); ok {
			flush(lc)
			header = lc
			continue
		}
		scene = append(scene, e)
	}
	flush(nil)
	return out
}

func appendBlock(out []string, b string) []string {
	if b = strings.TrimSpace(b); b != "" {
		out = append(out, b)
	}
	return out
}

func fit(blocks []string, budget int) string {
	if len(blocks) == 0 {
		return ""
	}
	total := 0
	for _, b := range blocks {
		total += utf8.RuneCountInString(b)
	}
	total += len(blockSeparator) * (len(blocks) - 1)

	for len(blocks) > 1 && tokensForRunes(total) > budget {
		total -= utf8.RuneCountInString(blocks[0]) + len(blockSeparator)
		blocks = blocks[1:]
	}
	if len(blocks) == 1 && tokensForRunes(total) > budget {
		return tail(blocks[0], budget*runesPerToken)
	}
	return strings.Join(blocks, blockSeparator)
}

func tail(s string, maxRunes int) string {
	n := utf8.RuneCountInString(s)
	if n <= maxRunes {
		return s
	}
	skip := n - maxRunes
	for i := range s {
		if skip == 0 {
			return s[i:]
		}
		skip--
	}
	return ""
}

// LocationChangeText renders a location change as the location followed by
// the characters present there.
func LocationChangeText(e *models.LocationChangeEvent, s *models.State) string {
	var b strings.Builder
	if e.LocationIndex >= 0 && e.LocationIndex < len(s.Locations) {
		loc := s.Locations[e.LocationIndex]
		fmt.Fprintf(&b, "Location: %s. %s", loc.Name, loc.Description)
	} else {
		b.WriteString("Location: unknown.")
	}

	var names []string
	for _, i := range e.PresentCharacterIndices {
		if i >= 0 && i < len(s.Characters) {
			names = append(names, s.Characters[i].Name)
		}
	}
	if len(names) == 0 {
		b.WriteString("\nPresent characters: none.")
	} else {
		fmt.Fprintf(&b, "\nPresent characters: %s.", strings.Join(names, ", "))
	}
	return b.String()
}

func protagonist(s *models.State) string {
	if s.Protagonist.Name == "" {
		return "The protagonist"
	}
	return s.Protagonist.Name
}

func eventText(e models.Event, s *models.State) string {
	switch e := e.(type) {
	case *models.ActionEvent:
		return fmt.Sprintf("%s chose to: %s", protagonist(s), e.Action)
	case *models.NarrationEvent:
		return e.Text
	case *models.CharacterIntroductionEvent:
		return ""
	case *models.LocationChangeEvent:
		return LocationChangeText(e, s)
	case *models.InventoryChangeEvent:
		var parts []string
		if len(e.Gained) > 0 {
			parts = append(parts, "gained "+itemNames(e.Gained))
		}
		if len(e.Lost) > 0 {
			parts = append(parts, "lost "+itemNames(e.Lost))
		}
		if len(parts) == 0 {
			return ""
		}
		return fmt.Sprintf("%s %s.", protagonist(s), strings.Join(parts, " and "))
	default:
		return ""
	}
}

func itemNames(items []models.Item) string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	return strings.Join(names, ", ")
}
