// Package prompts composes the system and user prompts for every generation
// task from the session document and the genre templates.
package prompts

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tatianab/saga/internal/models"
	"github.com/tatianab/saga/internal/transcript"
)

//go:embed genres.yaml
var genresYAML []byte

// ErrNoScene is returned when a scene summary is requested before any
// location change exists.
var ErrNoScene = errors.New("no location change to summarize from")

// Prompt is a system/user prompt pair.
type Prompt struct {
	System string
	User   string
}

var genreConfigs = mustLoadGenres(genresYAML)

func mustLoadGenres(data []byte) map[models.Genre]models.PromptConfig {
	var file struct {
		Genres map[models.Genre]models.PromptConfig `yaml:"genres"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		panic(fmt.Sprintf("prompts: parse genres.yaml: %v", err))
	}
	for _, g := range models.Genres {
		if _, ok := file.Genres[g]; !ok {
			panic(fmt.Sprintf("prompts: genres.yaml has no %q entry", g))
		}
	}
	return file.Genres
}

// DefaultCustomPrompts returns the starting templates for the custom genre.
func DefaultCustomPrompts() models.PromptConfig {
	return genreConfigs[models.GenreCustom]
}

// Config returns the template set selected by the document's genre.
func Config(s *models.State) models.PromptConfig {
	if s.Genre == models.GenreCustom {
		return s.CustomPrompts
	}
	return genreConfigs[s.Genre]
}

var placeholder = regexp.MustCompile(`\{\{(\w+)\}\}`)

func formatTemplate(template string, vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		return vars[placeholder.FindStringSubmatch(m)[1]]
	})
}

// normalize collapses single newlines into spaces so templates can be
// wrapped freely; blank lines separate paragraphs.
func normalize(text string) string {
	var b strings.Builder
	for i := 0; i < len(text); {
		if text[i] != '\n' {
			b.WriteByte(text[i])
			i++
			continue
		}
		j := i
		for j < len(text) && text[j] == '\n' {
			j++
		}
		if j-i == 1 {
			b.WriteByte(' ')
		} else {
			b.WriteString(text[i:j])
		}
		i = j
	}
	return strings.TrimSpace(b.String())
}

func locationTypes() string {
	names := make([]string, len(models.LocationTypes))
	for i, t := range models.LocationTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func variables(s *models.State, extra map[string]string) map[string]string {
	loc, _ := s.CurrentLocation()
	vars := map[string]string{
		"worldName":            s.World.Name,
		"worldDescription":     s.World.Description,
		"protagonistName":      s.Protagonist.Name,
		"protagonistGender":    string(s.Protagonist.Gender),
		"protagonistRace":      string(s.Protagonist.Race),
		"protagonistBiography": s.Protagonist.Biography,
		"locationName":         loc.Name,
		"locationDescription":  loc.Description,
		"locationTypes":        locationTypes(),
	}
	for k, v := range extra {
		vars[k] = v
	}
	return vars
}

// SystemPrompt returns the system prompt in effect for the document.
func SystemPrompt(s *models.State) string {
	if o := strings.TrimSpace(s.SystemPromptOverride); o != "" {
		return o
	}
	return Config(s).SystemPrompt
}

func makePrompt(s *models.State, user string) Prompt {
	return Prompt{System: SystemPrompt(s), User: normalize(user)}
}

// startingPrompt expands one of the three starting-content templates,
// honoring the full-text override and the guidance suffix.
func startingPrompt(s *models.State, override, template, guidance string) string {
	if o := strings.TrimSpace(override); o != "" {
		return o
	}
	text := normalize(formatTemplate(template, variables(s, nil)))
	if g := strings.TrimSpace(guidance); g != "" && s.Genre != models.GenreCustom {
		text += "\n\nAdditional guidance: " + g
	}
	return text
}

// ProtagonistPromptText returns the user text of the protagonist prompt.
func ProtagonistPromptText(s *models.State) string {
	return startingPrompt(s, s.ProtagonistPromptOverride, Config(s).ProtagonistPrompt, s.ProtagonistGuidance)
}

// StartingLocationPromptText returns the user text of the starting-location prompt.
func StartingLocationPromptText(s *models.State) string {
	return startingPrompt(s, s.StartingLocationPromptOverride, Config(s).StartingLocationPrompt, s.StartingLocationGuidance)
}

// StartingCharactersPromptText returns the user text of the starting-characters prompt.
func StartingCharactersPromptText(s *models.State) string {
	return startingPrompt(s, s.StartingCharactersPromptOverride, Config(s).StartingCharactersPrompt, s.StartingCharactersGuidance)
}

func GenerateWorld(s *models.State) Prompt {
	return makePrompt(s, formatTemplate(Config(s).WorldPrompt, variables(s, nil)))
}

// Override and guidance text is passed through verbatim rather than
// normalized.
func GenerateProtagonist(s *models.State) Prompt {
	return Prompt{System: SystemPrompt(s), User: ProtagonistPromptText(s)}
}

func GenerateStartingLocation(s *models.State) Prompt {
	return Prompt{System: SystemPrompt(s), User: StartingLocationPromptText(s)}
}

func GenerateStartingCharacters(s *models.State) Prompt {
	return Prompt{System: SystemPrompt(s), User: StartingCharactersPromptText(s)}
}

func preamble(s *models.State) string {
	return formatTemplate(Config(s).MainPromptPreamble, variables(s, nil))
}

// mainPrompt wraps a task prompt with the preamble and as much of the
// transcript as fits into the document's input length.
func mainPrompt(s *models.State, task string) Prompt {
	pre := preamble(s)
	task = normalize(task)
	budget := s.InputLength - transcript.TokenCount(task) - transcript.TokenCount(pre)
	past := transcript.Render(s, budget)

	return makePrompt(s, fmt.Sprintf("\n%s\n\nHere is what has happened so far:\n%s\n\n\n\n%s\n", pre, past, task))
}

// Narrate builds the narration prompt; action may be empty.
func Narrate(s *models.State, action string) Prompt {
	actionLine := ""
	if action != "" {
		actionLine = fmt.Sprintf("The protagonist (%s) has chosen to do the following: %s.", s.Protagonist.Name, action)
	}
	return mainPrompt(s, formatTemplate(Config(s).NarrationPrompt, variables(s, map[string]string{
		"actionLine": actionLine,
	})))
}

func GenerateActions(s *models.State) Prompt {
	return mainPrompt(s, formatTemplate(Config(s).ActionsPrompt, variables(s, nil)))
}

func CheckInventoryChange(s *models.State) Prompt {
	return mainPrompt(s, formatTemplate(Config(s).InventoryPrompt, variables(s, nil)))
}

func CheckIfSameLocation(s *models.State) Prompt {
	return mainPrompt(s, formatTemplate(Config(s).CheckLocationPrompt, variables(s, nil)))
}

func GenerateNewLocation(s *models.State) Prompt {
	return mainPrompt(s, formatTemplate(Config(s).NewLocationPrompt, variables(s, nil)))
}

// GenerateNewCharacters must be built before the location change event for
// the new location is appended, so the context still ends with the old scene.
func GenerateNewCharacters(s *models.State, companions []string) Prompt {
	line := ""
	if len(companions) > 0 {
		line = fmt.Sprintf("%s is accompanied by the following characters: %s.", s.Protagonist.Name, strings.Join(companions, ", "))
	}
	return mainPrompt(s, formatTemplate(Config(s).NewCharactersPrompt, variables(s, map[string]string{
		"accompanyingCharactersLine": line,
	})))
}

// SummarizeScene builds the prompt that summarizes the scene opened by the
// most recent location change.
func SummarizeScene(s *models.State) (Prompt, error) {
	start, lc := s.Events.LastLocationChange()
	if lc == nil {
		return Prompt{}, ErrNoScene
	}

	var texts []string
	for _, e := range s.Events[start+1:] {
		if n, ok := e.(*models.NarrationEvent); ok && n.Text != "" {
			texts = append(texts, n.Text)
		}
	}

	user := formatTemplate(Config(s).SummarizePrompt, variables(s, map[string]string{
		"sceneContext":       transcript.LocationChangeText(lc, s),
		"sceneText":          strings.Join(texts, "\n\n"),
		"mainPromptPreamble": preamble(s),
	}))
	return makePrompt(s, user), nil
}
