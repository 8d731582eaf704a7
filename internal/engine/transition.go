package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tatianab/saga/internal/models"
	"github.com/tatianab/saga/internal/prompts"
	"github.com/tatianab/saga/internal/schema"
)

type step struct {
	title       string
	description string
}

var (
	stepConnection       = step{"Checking connection", "If this takes longer than a few seconds, there is probably something wrong"}
	stepWorld            = step{"Generating world", "This typically takes between 10 and 30 seconds"}
	stepProtagonist      = step{"Generating protagonist", "This typically takes between 10 and 30 seconds"}
	stepStartingLocation = step{"Generating starting location", "This typically takes between 10 and 30 seconds"}
	stepCharacters       = step{"Generating characters", "This typically takes between 30 seconds and 1 minute"}
	stepNarrate          = step{"Narrating", ""}
	stepInventory        = step{"Checking inventory", "This typically takes a few seconds"}
	stepCheckLocation    = step{"Checking for location change", "This typically takes a few seconds"}
	stepNewLocation      = step{"Generating location", "This typically takes between 10 and 30 seconds"}
	stepSummarize        = step{"Summarizing scene", "This typically takes between 10 and 30 seconds"}
	stepActions          = step{"Generating actions", "This typically takes a few seconds"}
)

var (
	probePrompt      = prompts.Prompt{System: "test", User: "test"}
	errProbeMismatch = errors.New("unexpected probe response")
)

type progress struct {
	step  step
	count int
}

// transition applies one Advance to a working copy of the document.
type transition struct {
	ctx      context.Context
	e        *Engine
	s        *models.State
	step     step
	progress *Throttler[progress]
	updates  *Throttler[*models.State]
}

func (e *Engine) newTransition(ctx context.Context, draft *models.State, onProgress ProgressFunc) *transition {
	interval := time.Duration(draft.UpdateInterval) * time.Millisecond
	t := &transition{ctx: ctx, e: e, s: draft}
	t.progress = NewThrottler(interval, func(p progress) {
		if onProgress != nil {
			onProgress(p.step.title, p.step.description, p.count)
		}
	})
	t.updates = NewThrottler(interval, func(s *models.State) {
		if e.onUpdate != nil {
			e.onUpdate(s)
		}
	})
	return t
}

// stop drops pending callbacks so nothing is delivered after Advance returns.
func (t *transition) stop() {
	t.progress.Cancel()
	t.updates.Cancel()
}

func (t *transition) begin(st step) {
	t.step = st
	t.e.logger.Debug("step", zap.String("title", st.title))
	t.progress.Schedule(progress{step: st})
}

func (t *transition) onToken(_ string, count int) {
	t.progress.Schedule(progress{step: t.step, count: count})
}

// update publishes the working copy to observers.
func (t *transition) update() {
	if t.e.onUpdate == nil {
		return
	}
	snap := t.s.Snapshot()
	t.updates.Schedule(&snap)
}

func (t *transition) logPrompt(task string, p prompts.Prompt, params map[string]any) {
	log := t.e.logger.With(zap.String("task", task))
	if t.s.LogPrompts {
		log.Info("prompt", zap.String("system", p.System), zap.String("user", p.User))
	}
	if t.s.LogParams {
		log.Info("params", zap.Any("params", params))
	}
}

func (t *transition) logResponse(task, response string) {
	if t.s.LogResponses {
		t.e.logger.Info("response", zap.String("task", task), zap.String("text", response))
	}
}

// getObject requests a structured object and decodes it after validating it
// against obj.
func getObject[T any](t *transition, p prompts.Prompt, obj schema.Object) (T, error) {
	var out T
	t.logPrompt(obj.Name, p, t.s.GenerationParams)
	raw, err := t.e.backend.GetObject(t.ctx, p, obj, t.onToken)
	if err != nil {
		return out, fmt.Errorf("%s: %w", obj.Name, err)
	}
	t.logResponse(obj.Name, string(raw))
	if err := obj.Decode(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

// stream requests narration, handing every token to sink as it arrives.
func (t *transition) stream(task string, p prompts.Prompt, sink func(token string)) (string, error) {
	t.logPrompt(task, p, t.s.NarrationParams)
	text, err := t.e.backend.GetNarration(t.ctx, p, func(token string, count int) {
		sink(token)
		t.onToken(token, count)
		t.update()
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", task, err)
	}
	t.logResponse(task, text)
	return text, nil
}

func (t *transition) run(action string) error {
	s := t.s
	switch s.View {
	case models.ViewWelcome:
		s.PushHistory()
		s.View = models.ViewConnection
	case models.ViewConnection:
		s.PushHistory()
		if err := t.checkConnection(); err != nil {
			return err
		}
		s.View = models.ViewGenre
	case models.ViewGenre:
		s.PushHistory()
		s.View = models.ViewCharacter
	case models.ViewCharacter:
		s.PushHistory()
		if err := t.createCharacter(); err != nil {
			return err
		}
		s.View = models.ViewScenario
	case models.ViewScenario:
		s.PushHistory()
		if err := t.createScenario(); err != nil {
			return err
		}
		s.View = models.ViewChat
	case models.ViewChat:
		s.PushHistory()
		return t.chatTurn(action)
	default:
		return fmt.Errorf("%w: view=%q", ErrInvalidState, s.View)
	}
	return nil
}

func (t *transition) checkConnection() error {
	t.begin(stepConnection)
	got, err := getObject[string](t, probePrompt, schema.ConnectionProbe())
	if err == nil && got != schema.ProbeLiteral {
		err = fmt.Errorf("%w: got %q", errProbeMismatch, got)
	}
	if err != nil && !t.e.IsAbortError(err) {
		return fmt.Errorf("%w: %w", ErrBackendCapability, err)
	}
	return err
}

func (t *transition) createCharacter() error {
	s := t.s
	t.begin(stepWorld)
	world, err := getObject[models.World](t, prompts.GenerateWorld(s), schema.WorldObject())
	if err != nil {
		return err
	}
	s.World = world
	t.update()

	t.begin(stepProtagonist)
	protagonist, err := getObject[models.Character](t, prompts.GenerateProtagonist(s), schema.ProtagonistObject())
	if err != nil {
		return err
	}
	protagonist.LocationIndex = 0
	s.Protagonist = protagonist
	t.update()
	return nil
}

func (t *transition) createScenario() error {
	s := t.s
	t.begin(stepStartingLocation)
	location, err := getObject[models.Location](t, prompts.GenerateStartingLocation(s), schema.LocationObject())
	if err != nil {
		return err
	}
	if err := t.e.plugins.notifyLocationChange(t.ctx, location, s); err != nil {
		return err
	}
	s.Locations = []models.Location{location}
	s.Protagonist.LocationIndex = 0
	t.update()

	t.begin(stepCharacters)
	characters, err := getObject[[]models.Character](t, prompts.GenerateStartingCharacters(s), schema.CharactersObject())
	if err != nil {
		return err
	}
	present := make([]int, len(characters))
	for i := range characters {
		characters[i].LocationIndex = 0
		present[i] = i
	}
	s.Characters = characters
	s.Events = models.Events{&models.LocationChangeEvent{LocationIndex: 0, PresentCharacterIndices: present}}
	t.update()
	return nil
}

func (t *transition) chatTurn(action string) error {
	s := t.s
	s.Actions = []string{}
	if action != "" {
		s.Events = append(s.Events, &models.ActionEvent{Action: action})
	}
	t.update()

	if err := t.narrate(action); err != nil {
		return err
	}
	if err := t.applyInventoryChange(); err != nil {
		return err
	}

	t.begin(stepCheckLocation)
	same, err := getObject[string](t, prompts.CheckIfSameLocation(s), schema.YesNoObject("same_location"))
	if err != nil {
		return err
	}
	if same == schema.No {
		if err := t.changeLocation(); err != nil {
			return err
		}
		if err := t.narrate(""); err != nil {
			return err
		}
		if err := t.applyInventoryChange(); err != nil {
			return err
		}
	}

	t.begin(stepActions)
	actions, err := getObject[[]string](t, prompts.GenerateActions(s), schema.ActionsObject())
	if err != nil {
		return err
	}
	s.Actions = actions
	t.update()
	return nil
}

func (t *transition) narrate(action string) error {
	s := t.s
	event := &models.NarrationEvent{LocationIndex: s.Protagonist.LocationIndex, ReferencedCharacterIndices: []int{}}
	s.Events = append(s.Events, event)

	t.begin(stepNarrate)
	text, err := t.stream("narration", prompts.Narrate(s, action), func(token string) {
		event.Text += token
	})
	if err != nil {
		return err
	}
	event.Text = text
	event.ReferencedCharacterIndices = ReferencedCharacters(text, s.Characters)

	introduced := make(map[int]bool)
	for _, e := range s.Events {
		if ci, ok := e.(*models.CharacterIntroductionEvent); ok {
			introduced[ci.CharacterIndex] = true
		}
	}
	for _, i := range event.ReferencedCharacterIndices {
		if !introduced[i] {
			s.Events = append(s.Events, &models.CharacterIntroductionEvent{CharacterIndex: i})
			introduced[i] = true
		}
	}
	t.update()
	return nil
}

func (t *transition) applyInventoryChange() error {
	s := t.s
	t.begin(stepInventory)
	change, err := getObject[schema.InventoryChange](t, prompts.CheckInventoryChange(s), schema.InventoryChangeObject())
	if err != nil {
		return err
	}
	if len(change.Gained) == 0 && len(change.Lost) == 0 {
		return nil
	}
	s.Events = append(s.Events, &models.InventoryChangeEvent{Gained: change.Gained, Lost: change.Lost})
	s.Inventory = ApplyInventoryChange(s.Inventory, change.Gained, change.Lost)
	t.update()
	return nil
}

func (t *transition) changeLocation() error {
	s := t.s
	names := make([]string, len(s.Characters))
	for i, c := range s.Characters {
		names[i] = c.Name
	}

	t.begin(stepNewLocation)
	info, err := getObject[schema.NewLocation](t, prompts.GenerateNewLocation(s), schema.NewLocationObject(names))
	if err != nil {
		return err
	}
	if err := t.e.plugins.notifyLocationChange(t.ctx, info.NewLocation, s); err != nil {
		return err
	}

	s.Locations = append(s.Locations, info.NewLocation)
	index := len(s.Locations) - 1
	s.Protagonist.LocationIndex = index

	companions := []int{}
	for i, c := range s.Characters {
		for _, name := range info.AccompanyingCharacters {
			if c.Name == name {
				s.Characters[i].LocationIndex = index
				companions = append(companions, i)
				break
			}
		}
	}

	// Built before the new location change event exists, so the context
	// still ends with the scene being left.
	newCharacters := prompts.GenerateNewCharacters(s, info.AccompanyingCharacters)

	event := &models.LocationChangeEvent{LocationIndex: index, PresentCharacterIndices: companions}
	summaryPrompt, err := prompts.SummarizeScene(s)
	if err != nil {
		return err
	}
	t.begin(stepSummarize)
	summary, err := t.stream("summary", summaryPrompt, func(token string) {
		event.Summary += token
	})
	if err != nil {
		return err
	}
	event.Summary = strings.TrimSpace(summary)
	s.Events = append(s.Events, event)
	t.update()

	t.begin(stepCharacters)
	characters, err := getObject[[]models.Character](t, newCharacters, schema.CharactersObject())
	if err != nil {
		return err
	}
	for _, c := range characters {
		c.LocationIndex = index
		s.Characters = append(s.Characters, c)
		event.PresentCharacterIndices = append(event.PresentCharacterIndices, len(s.Characters)-1)
	}
	t.update()
	return nil
}

// boldName matches a bold span, dropping a trailing possessive.
var boldName = regexp.MustCompile(`\*\*(.+?)(?:'s?)?\*\*`)

// ReferencedCharacters resolves bold-marked names in text to character
// indices. A span matches a character by full name or first name; the first
// matching character wins. Indices are returned in order of first mention.
func ReferencedCharacters(text string, characters []models.Character) []int {
	seen := make(map[int]bool)
	out := []int{}
	for _, m := range boldName.FindAllStringSubmatch(text, -1) {
		name := m[1]
		for i, c := range characters {
			if c.Name != name && c.FirstName() != name {
				continue
			}
			if !seen[i] {
				seen[i] = true
				out = append(out, i)
			}
			break
		}
	}
	return out
}

// ApplyInventoryChange removes items named in lost, compared
// case-insensitively, then appends gained.
func ApplyInventoryChange(inventory, gained, lost []models.Item) []models.Item {
	drop := make(map[string]bool, len(lost))
	for _, item := range lost {
		drop[strings.ToLower(item.Name)] = true
	}
	out := make([]models.Item, 0, len(inventory)+len(gained))
	for _, item := range inventory {
		if !drop[strings.ToLower(item.Name)] {
			out = append(out, item)
		}
	}
	return append(out, gained...)
}
