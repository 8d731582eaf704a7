package schema

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/tatianab/saga/internal/models"
)

// Field limits, in characters.
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 2000
	MaxActionLength      = 200
	MaxNarrationLength   = 5000
	MaxSummaryLength     = 5000
	MaxGuidanceLength    = 500
	MaxPromptLength      = 10000
)

// ValidateState checks the whole document, including every history snapshot.
func ValidateState(s *models.State) error {
	if s == nil {
		return violation("", "nil state")
	}
	if err := validateBase(s, ""); err != nil {
		return err
	}
	for i := range s.History {
		prefix := fmt.Sprintf("history.%d.", i)
		if len(s.History[i].History) > 0 {
			return violation(prefix+"history", "snapshot carries nested history")
		}
		if err := validateBase(&s.History[i], prefix); err != nil {
			return err
		}
	}
	return nil
}

func validateBase(s *models.State, p string) error {
	u, err := url.Parse(s.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return violation(p+"api_url", "invalid url %q", s.APIURL)
	}
	if s.UpdateInterval < 0 {
		return violation(p+"update_interval", "negative value=%d", s.UpdateInterval)
	}
	if !slices.Contains(models.Genres, s.Genre) {
		return violation(p+"genre", "unknown value=%q", s.Genre)
	}
	if !slices.Contains(models.Views, s.View) {
		return violation(p+"view", "unknown value=%q", s.View)
	}
	if err := validatePromptConfig(s.CustomPrompts, s.Genre == models.GenreCustom, p+"custom_prompts."); err != nil {
		return err
	}

	optional := []struct {
		path  string
		value string
		max   int
	}{
		{"protagonist_guidance", s.ProtagonistGuidance, MaxGuidanceLength},
		{"starting_location_guidance", s.StartingLocationGuidance, MaxGuidanceLength},
		{"starting_characters_guidance", s.StartingCharactersGuidance, MaxGuidanceLength},
		{"system_prompt_override", s.SystemPromptOverride, MaxPromptLength},
		{"protagonist_prompt_override", s.ProtagonistPromptOverride, MaxPromptLength},
		{"starting_location_prompt_override", s.StartingLocationPromptOverride, MaxPromptLength},
		{"starting_characters_prompt_override", s.StartingCharactersPromptOverride, MaxPromptLength},
		{"world.name", s.World.Name, MaxNameLength},
		{"world.description", s.World.Description, MaxDescriptionLength},
	}
	for _, f := range optional {
		if err := checkOptional(p+f.path, f.value, f.max); err != nil {
			return err
		}
	}

	if !slices.Contains(models.SexualContentLevels, s.SexualContentLevel) {
		return violation(p+"sexual_content_level", "unknown value=%q", s.SexualContentLevel)
	}
	if !slices.Contains(models.ViolentContentLevels, s.ViolentContentLevel) {
		return violation(p+"violent_content_level", "unknown value=%q", s.ViolentContentLevel)
	}

	for i, loc := range s.Locations {
		if err := ValidateLocation(loc, fmt.Sprintf("%slocations.%d.", p, i)); err != nil {
			return err
		}
	}
	for i, item := range s.Inventory {
		if err := validateItem(item, fmt.Sprintf("%sinventory.%d.", p, i)); err != nil {
			return err
		}
	}
	for i, c := range s.Characters {
		path := fmt.Sprintf("%scharacters.%d.", p, i)
		if err := ValidateCharacter(c, path); err != nil {
			return err
		}
		if err := checkIndex(path+"location_index", c.LocationIndex, len(s.Locations)); err != nil {
			return err
		}
	}

	if err := validateProtagonist(s, p+"protagonist."); err != nil {
		return err
	}
	for i, e := range s.Events {
		if err := validateEvent(s, e, fmt.Sprintf("%sevents.%d.", p, i)); err != nil {
			return err
		}
	}
	for i, a := range s.Actions {
		if err := checkText(fmt.Sprintf("%sactions.%d", p, i), a, MaxActionLength); err != nil {
			return err
		}
	}
	return nil
}

// The protagonist is generated during the character step and has no
// location until the scenario step, so its texts may be blank and its
// index is only checked once locations exist.
func validateProtagonist(s *models.State, p string) error {
	c := s.Protagonist
	if err := checkOptional(p+"name", c.Name, MaxNameLength); err != nil {
		return err
	}
	if err := checkOptional(p+"biography", c.Biography, MaxDescriptionLength); err != nil {
		return err
	}
	if !slices.Contains(models.Genders, c.Gender) {
		return violation(p+"gender", "unknown value=%q", c.Gender)
	}
	if !slices.Contains(models.Races, c.Race) {
		return violation(p+"race", "unknown value=%q", c.Race)
	}
	if len(s.Locations) > 0 {
		return checkIndex(p+"location_index", c.LocationIndex, len(s.Locations))
	}
	return nil
}

func validateEvent(s *models.State, e models.Event, p string) error {
	switch e := e.(type) {
	case *models.ActionEvent:
		return checkText(p+"action", e.Action, MaxActionLength)
	case *models.NarrationEvent:
		if err := checkText(p+"text", e.Text, MaxNarrationLength); err != nil {
			return err
		}
		if err := checkIndex(p+"location_index", e.LocationIndex, len(s.Locations)); err != nil {
			return err
		}
		return checkIndices(p+"referenced_character_indices", e.ReferencedCharacterIndices, len(s.Characters))
	case *models.CharacterIntroductionEvent:
		return checkIndex(p+"character_index", e.CharacterIndex, len(s.Characters))
	case *models.LocationChangeEvent:
		if err := checkIndex(p+"location_index", e.LocationIndex, len(s.Locations)); err != nil {
			return err
		}
		if err := checkIndices(p+"present_character_indices", e.PresentCharacterIndices, len(s.Characters)); err != nil {
			return err
		}
		if e.Summary != "" {
			return checkText(p+"summary", e.Summary, MaxSummaryLength)
		}
		return nil
	case *models.InventoryChangeEvent:
		for i, item := range e.Gained {
			if err := validateItem(item, fmt.Sprintf("%sgained.%d.", p, i)); err != nil {
				return err
			}
		}
		for i, item := range e.Lost {
			if err := validateItem(item, fmt.Sprintf("%slost.%d.", p, i)); err != nil {
				return err
			}
		}
		return nil
	case nil:
		return violation(p+"type", "nil event")
	default:
		return violation(p+"type", "unknown event %T", e)
	}
}

// ValidateCharacter checks a generated character, ignoring its location.
func ValidateCharacter(c models.Character, p string) error {
	if err := checkText(p+"name", c.Name, MaxNameLength); err != nil {
		return err
	}
	if !slices.Contains(models.Genders, c.Gender) {
		return violation(p+"gender", "unknown value=%q", c.Gender)
	}
	if !slices.Contains(models.Races, c.Race) {
		return violation(p+"race", "unknown value=%q", c.Race)
	}
	return checkText(p+"biography", c.Biography, MaxDescriptionLength)
}

// ValidateLocation checks a generated location.
func ValidateLocation(l models.Location, p string) error {
	if err := checkText(p+"name", l.Name, MaxNameLength); err != nil {
		return err
	}
	if !slices.Contains(models.LocationTypes, l.Type) {
		return violation(p+"type", "unknown value=%q", l.Type)
	}
	return checkText(p+"description", l.Description, MaxDescriptionLength)
}

func validateItem(item models.Item, p string) error {
	if err := checkText(p+"name", item.Name, MaxNameLength); err != nil {
		return err
	}
	return checkText(p+"description", item.Description, MaxDescriptionLength)
}

func validatePromptConfig(c models.PromptConfig, required bool, p string) error {
	fields := []struct {
		path  string
		value string
	}{
		{"system_prompt", c.SystemPrompt},
		{"world_prompt", c.WorldPrompt},
		{"protagonist_prompt", c.ProtagonistPrompt},
		{"starting_location_prompt", c.StartingLocationPrompt},
		{"starting_characters_prompt", c.StartingCharactersPrompt},
		{"main_prompt_preamble", c.MainPromptPreamble},
		{"narration_prompt", c.NarrationPrompt},
		{"actions_prompt", c.ActionsPrompt},
		{"inventory_prompt", c.InventoryPrompt},
		{"check_location_prompt", c.CheckLocationPrompt},
		{"new_location_prompt", c.NewLocationPrompt},
		{"new_characters_prompt", c.NewCharactersPrompt},
		{"summarize_prompt", c.SummarizePrompt},
	}
	for _, f := range fields {
		var err error
		if required {
			err = checkText(p+f.path, f.value, MaxPromptLength)
		} else {
			err = checkOptional(p+f.path, f.value, MaxPromptLength)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func checkText(path, value string, max int) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return violation(path, "empty")
	}
	if n := utf8.RuneCountInString(trimmed); n > max {
		return violation(path, "too long length=%d max=%d", n, max)
	}
	return nil
}

func checkOptional(path, value string, max int) error {
	if n := utf8.RuneCountInString(strings.TrimSpace(value)); n > max {
		return violation(path, "too long length=%d max=%d", n, max)
	}
	return nil
}

func checkIndex(path string, index, length int) error {
	if index < 0 || index >= length {
		return violation(path, "dangling index=%d len=%d", index, length)
	}
	return nil
}

func checkIndices(path string, indices []int, length int) error {
	for i, index := range indices {
		if err := checkIndex(fmt.Sprintf("%s.%d", path, i), index, length); err != nil {
			return err
		}
	}
	return nil
}
