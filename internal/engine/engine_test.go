package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/tatianab/saga/internal/backend/backendtest"
	"github.com/tatianab/saga/internal/models"
	"github.com/tatianab/saga/internal/schema"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var characterNames = []string{"Ana Reyes", "Bram Oak", "Cora Vale", "Dain Stone", "Edda Moss"}

func character(name string) map[string]any {
	return map[string]any{"name": name, "gender": "female", "race": "elf", "biography": "Someone at the inn."}
}

func characters(names ...string) []map[string]any {
	out := make([]map[string]any, len(names))
	for i, n := range names {
		out[i] = character(n)
	}
	return out
}

func scenarioState() *models.State {
	s := Initial()
	s.View = models.ViewScenario
	s.World = models.World{Name: "Vel Arath", Description: "A drowned kingdom."}
	s.Protagonist = models.Character{Name: "Tom Hale", Gender: models.GenderMale, Race: models.RaceHuman, Biography: "A sailor."}
	return s
}

func chatState() *models.State {
	s := scenarioState()
	s.View = models.ViewChat
	s.Locations = []models.Location{{Name: "The Gull", Type: models.LocationTavern, Description: "A smoky tavern."}}
	for _, n := range characterNames {
		s.Characters = append(s.Characters, models.Character{
			Name: n, Gender: models.GenderFemale, Race: models.RaceElf, Biography: "Someone at the inn.",
		})
	}
	s.Events = models.Events{&models.LocationChangeEvent{LocationIndex: 0, PresentCharacterIndices: []int{0, 1, 2, 3, 4}}}
	s.Actions = []string{"Order a drink", "Leave", "Sing"}
	return s
}

func newEngine(t *testing.T, b *backendtest.Backend, s *models.State, plugins ...Plugin) *Engine {
	t.Helper()
	p, err := NewPlugins(plugins...)
	require.NoError(t, err)
	e, err := New(Dependencies{Backend: b, Plugins: p, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	if s != nil {
		require.NoError(t, e.Load(s))
	}
	return e
}

// scriptQuietTurn scripts a chat turn that stays at the same location.
func scriptQuietTurn(b *backendtest.Backend, narration string) {
	b.Narration(narration).
		JSON("inventory_change", map[string]any{"gained": []any{}, "lost": []any{}}).
		JSON("same_location", schema.Yes).
		JSON("actions", []string{"Pay", "Ask about the ship", "Leave"})
}

var equateState = cmpopts.EquateEmpty()

func TestNewRequiresBackend(t *testing.T) {
	_, err := New(Dependencies{})
	assert.ErrorIs(t, err, ErrBackendRequired)
}

func TestInitialIsValid(t *testing.T) {
	require.NoError(t, schema.ValidateState(Initial()))
}

func TestAdvanceThroughWizard(t *testing.T) {
	b := backendtest.New().
		JSON("connection_probe", schema.ProbeLiteral).
		JSON("world", models.World{Name: "Vel Arath", Description: "A drowned kingdom."}).
		JSON("protagonist", character("Tom Hale")).
		JSON("location", models.Location{Name: "The Gull", Type: models.LocationTavern, Description: "A smoky tavern."}).
		JSON("characters", characters(characterNames...))
	e := newEngine(t, b, nil)
	ctx := context.Background()

	views := []models.View{models.ViewConnection, models.ViewGenre, models.ViewCharacter, models.ViewScenario, models.ViewChat}
	for i, want := range views {
		require.NoError(t, e.Advance(ctx, "", nil))
		s := e.State()
		assert.Equal(t, want, s.View)
		assert.Len(t, s.History, i+1)
		require.NoError(t, schema.ValidateState(s))
	}

	assert.Equal(t, []string{"connection_probe", "world", "protagonist", "location", "characters"}, b.Keys())
	s := e.State()
	assert.Equal(t, "Vel Arath", s.World.Name)
	assert.Equal(t, "Tom Hale", s.Protagonist.Name)
	assert.Zero(t, b.Pending())
}

func TestScenarioAdvance(t *testing.T) {
	b := backendtest.New().
		JSON("location", models.Location{Name: "The Gull", Type: models.LocationTavern, Description: "A smoky tavern."}).
		JSON("characters", characters(characterNames...))
	hook := &locationRecorder{name: "hook"}
	e := newEngine(t, b, scenarioState(), hook)

	require.NoError(t, e.Advance(context.Background(), "", nil))

	s := e.State()
	assert.Equal(t, models.ViewChat, s.View)
	assert.Len(t, s.Locations, 1)
	assert.Len(t, s.Characters, 5)
	for _, c := range s.Characters {
		assert.Equal(t, 0, c.LocationIndex)
	}
	assert.Equal(t, 0, s.Protagonist.LocationIndex)
	want := models.Events{&models.LocationChangeEvent{LocationIndex: 0, PresentCharacterIndices: []int{0, 1, 2, 3, 4}}}
	assert.Empty(t, cmp.Diff(want, s.Events))
	assert.Equal(t, []string{"The Gull"}, hook.seen)
}

func TestChatTurn(t *testing.T) {
	b := backendtest.New().
		Narration("**Ana** slides a lantern across the bar. **Ana's** eyes narrow.").
		JSON("inventory_change", map[string]any{
			"gained": []models.Item{{Name: "Lantern", Description: "A brass lantern."}},
			"lost":   []any{},
		}).
		JSON("same_location", schema.Yes).
		JSON("actions", []string{"Pay", "Ask about the ship", "Leave"})
	e := newEngine(t, b, chatState())

	require.NoError(t, e.Advance(context.Background(), "Draw your sword", nil))

	s := e.State()
	assert.Equal(t, models.ViewChat, s.View)
	want := models.Events{
		&models.LocationChangeEvent{LocationIndex: 0, PresentCharacterIndices: []int{0, 1, 2, 3, 4}},
		&models.ActionEvent{Action: "Draw your sword"},
		&models.NarrationEvent{
			Text:                       "**Ana** slides a lantern across the bar. **Ana's** eyes narrow.",
			LocationIndex:              0,
			ReferencedCharacterIndices: []int{0},
		},
		&models.CharacterIntroductionEvent{CharacterIndex: 0},
		&models.InventoryChangeEvent{
			Gained: []models.Item{{Name: "Lantern", Description: "A brass lantern."}},
			Lost:   []models.Item{},
		},
	}
	assert.Empty(t, cmp.Diff(want, s.Events, equateState))
	assert.Equal(t, []models.Item{{Name: "Lantern", Description: "A brass lantern."}}, s.Inventory)
	assert.Equal(t, []string{"Pay", "Ask about the ship", "Leave"}, s.Actions)
	assert.Equal(t, []string{"narration", "inventory_change", "same_location", "actions"}, b.Keys())

	narration := b.Requests()[0].Prompt.User
	assert.Contains(t, narration, "has chosen to do the following: Draw your sword.")
}

func TestChatTurnIntroducesCharacterOnce(t *testing.T) {
	b := backendtest.New()
	scriptQuietTurn(b, "**Bram** waves.")
	scriptQuietTurn(b, "**Bram** waves again. **Cora** laughs.")
	e := newEngine(t, b, chatState())

	require.NoError(t, e.Advance(context.Background(), "Wave back", nil))
	require.NoError(t, e.Advance(context.Background(), "Join them", nil))

	var intros []int
	for _, ev := range e.State().Events {
		if ci, ok := ev.(*models.CharacterIntroductionEvent); ok {
			intros = append(intros, ci.CharacterIndex)
		}
	}
	assert.Equal(t, []int{1, 2}, intros)
}

func TestChatTurnWithLocationChange(t *testing.T) {
	b := backendtest.New().
		Narration("You follow **Ana** out into the rain.").
		JSON("inventory_change", map[string]any{"gained": []any{}, "lost": []any{}}).
		JSON("same_location", schema.No).
		JSON("new_location", map[string]any{
			"newLocation":            models.Location{Name: "The Docks", Type: models.LocationRoad, Description: "Wet planks and gulls."},
			"accompanyingCharacters": []string{"Ana Reyes"},
		}).
		Narration("  You left the tavern with Ana.  ").
		JSON("characters", characters("Fen Marsh", "Gil Rook", "Hana Pike", "Ivo Crane", "Jun Weir")).
		Narration("**Fen** hauls a net onto the pier.").
		JSON("inventory_change", map[string]any{
			"gained": []models.Item{{Name: "Rope", Description: "Tarred rope."}},
			"lost":   []any{},
		}).
		JSON("actions", []string{"Help Fen", "Look for a ship", "Go back"})
	hook := &locationRecorder{name: "hook"}
	e := newEngine(t, b, chatState(), hook)

	require.NoError(t, e.Advance(context.Background(), "Follow Ana", nil))
	require.Zero(t, b.Pending())

	s := e.State()
	require.NoError(t, schema.ValidateState(s))
	assert.Equal(t, []string{"The Docks"}, hook.seen)
	assert.Len(t, s.Locations, 2)
	assert.Equal(t, 1, s.Protagonist.LocationIndex)
	assert.Len(t, s.Characters, 10)
	assert.Equal(t, 1, s.Characters[0].LocationIndex)
	assert.Equal(t, 0, s.Characters[1].LocationIndex)
	for _, c := range s.Characters[5:] {
		assert.Equal(t, 1, c.LocationIndex)
	}

	var changes []*models.LocationChangeEvent
	var narrations int
	for _, ev := range s.Events {
		switch ev := ev.(type) {
		case *models.LocationChangeEvent:
			changes = append(changes, ev)
		case *models.NarrationEvent:
			narrations++
		}
	}
	require.Len(t, changes, 2)
	assert.Equal(t, 1, changes[1].LocationIndex)
	assert.Equal(t, []int{0, 5, 6, 7, 8, 9}, changes[1].PresentCharacterIndices)
	assert.Equal(t, "You left the tavern with Ana.", changes[1].Summary)
	assert.Equal(t, 2, narrations)
	assert.Equal(t, []models.Item{{Name: "Rope", Description: "Tarred rope."}}, s.Inventory)
	assert.Len(t, s.Actions, 3)

	reqs := b.Requests()
	keys := b.Keys()
	assert.Equal(t, []string{
		"narration", "inventory_change", "same_location", "new_location",
		"narration", "characters", "narration", "inventory_change", "actions",
	}, keys)
	summary := reqs[4].Prompt.User
	assert.Contains(t, summary, "Location: The Gull. A smoky tavern.")
	assert.Contains(t, summary, "You follow **Ana** out into the rain.")
	newCharacters := reqs[5].Prompt.User
	assert.Contains(t, newCharacters, "Tom Hale is accompanied by the following characters: Ana Reyes.")
	assert.Contains(t, newCharacters, "about to enter The Docks")
	assert.NotContains(t, newCharacters, "You left the tavern with Ana.")
}

func TestUndoRestoresPreviousDocument(t *testing.T) {
	b := backendtest.New()
	scriptQuietTurn(b, "**Ana** nods.")
	before := chatState()
	e := newEngine(t, b, before)

	require.NoError(t, e.Advance(context.Background(), "Nod back", nil))
	require.NoError(t, e.Undo())

	assert.Empty(t, cmp.Diff(before, e.State(), equateState))
}

func TestUndoWithoutHistory(t *testing.T) {
	e := newEngine(t, backendtest.New(), nil)
	require.NoError(t, e.Undo())
	assert.Empty(t, cmp.Diff(Initial(), e.State(), equateState))
}

func TestRegenerate(t *testing.T) {
	b := backendtest.New()
	scriptQuietTurn(b, "**Ana** nods.")
	scriptQuietTurn(b, "**Ana** shrugs.")
	scriptQuietTurn(b, "**Ana** smiles.")
	start := chatState()
	start.History = []models.State{chatState().Snapshot()}
	e := newEngine(t, b, start)
	ctx := context.Background()

	require.NoError(t, e.Advance(ctx, "Wave", nil))
	require.NoError(t, e.Advance(ctx, "Sit down", nil))
	afterTwo := e.State()
	top := afterTwo.History[len(afterTwo.History)-1]

	require.NoError(t, e.Regenerate())
	regenerated := e.State()
	assert.Len(t, regenerated.History, len(afterTwo.History))
	want := top
	want.History = afterTwo.History
	assert.Empty(t, cmp.Diff(&want, regenerated, equateState))

	// A second regenerate rolls back to the same point.
	require.NoError(t, e.Regenerate())
	assert.Empty(t, cmp.Diff(regenerated, e.State(), equateState))

	require.NoError(t, e.Advance(ctx, "Sit down", nil))
	s := e.State()
	assert.GreaterOrEqual(t, len(s.History), len(regenerated.History))
	assert.Equal(t, models.ViewChat, s.View)
}

func TestRegenerateNotApplicable(t *testing.T) {
	tests := []struct {
		name  string
		state func() *models.State
	}{
		{"outside chat", scenarioState},
		{"empty history", chatState},
		{"top is not chat", func() *models.State {
			s := chatState()
			s.History = []models.State{scenarioState().Snapshot()}
			return s
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.state()
			e := newEngine(t, backendtest.New(), before)
			require.NoError(t, e.Regenerate())
			assert.Empty(t, cmp.Diff(before, e.State(), equateState))
		})
	}
}

func TestBack(t *testing.T) {
	tests := []struct {
		from models.View
		want models.View
	}{
		{models.ViewWelcome, models.ViewWelcome},
		{models.ViewConnection, models.ViewWelcome},
		{models.ViewGenre, models.ViewConnection},
		{models.ViewCharacter, models.ViewGenre},
		{models.ViewScenario, models.ViewCharacter},
		{models.ViewChat, models.ViewChat},
	}
	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			s := Initial()
			if tt.from == models.ViewChat {
				s = chatState()
			}
			s.View = tt.from
			e := newEngine(t, backendtest.New(), s)
			require.NoError(t, e.Back())
			want := s.Clone()
			want.View = tt.want
			assert.Empty(t, cmp.Diff(want, e.State(), equateState))
		})
	}
}

func TestBackInvalidView(t *testing.T) {
	e := newEngine(t, backendtest.New(), nil)
	e.state.View = "limbo"
	assert.ErrorIs(t, e.Back(), ErrInvalidState)
}

func TestReset(t *testing.T) {
	s := chatState()
	s.History = []models.State{scenarioState().Snapshot()}
	e := newEngine(t, backendtest.New(), s)
	require.NoError(t, e.Reset())
	assert.Empty(t, cmp.Diff(Initial(), e.State(), equateState))
}

func TestEdit(t *testing.T) {
	e := newEngine(t, backendtest.New(), nil)

	require.NoError(t, e.Edit(func(s *models.State) {
		s.Genre = models.GenreSciFi
		s.ProtagonistGuidance = "A retired pilot."
	}))
	got := e.State()
	assert.Equal(t, models.GenreSciFi, got.Genre)
	assert.Equal(t, "A retired pilot.", got.ProtagonistGuidance)

	err := e.Edit(func(s *models.State) { s.Genre = "western" })
	assert.ErrorIs(t, err, schema.ErrViolation)
	assert.Equal(t, models.GenreSciFi, e.State().Genre)
}

func TestNewCharacterAndScenario(t *testing.T) {
	for _, tt := range []struct {
		name string
		call func(*Engine) error
		view models.View
	}{
		{"character", (*Engine).NewCharacter, models.ViewCharacter},
		{"scenario", (*Engine).NewScenario, models.ViewScenario},
	} {
		t.Run(tt.name, func(t *testing.T) {
			s := chatState()
			s.APIURL = "http://example.com/v1/"
			s.Model = "local"
			s.Genre = models.GenreSciFi
			s.ViolentContentLevel = models.ViolentGraphic
			s.Betrayal = true
			s.ProtagonistGuidance = "A pirate."
			s.Inventory = []models.Item{{Name: "Rope", Description: "Tarred."}}
			s.History = []models.State{scenarioState().Snapshot()}
			e := newEngine(t, backendtest.New(), s)

			require.NoError(t, tt.call(e))

			got := e.State()
			require.NoError(t, schema.ValidateState(got))
			assert.Equal(t, tt.view, got.View)
			assert.Equal(t, "http://example.com/v1/", got.APIURL)
			assert.Equal(t, "local", got.Model)
			assert.Equal(t, models.GenreSciFi, got.Genre)
			assert.Equal(t, models.ViolentGraphic, got.ViolentContentLevel)
			assert.True(t, got.Betrayal)
			assert.Empty(t, got.World.Name)
			assert.Empty(t, got.Protagonist.Name)
			assert.Empty(t, got.ProtagonistGuidance)
			assert.Empty(t, got.Locations)
			assert.Empty(t, got.Characters)
			assert.Empty(t, got.Inventory)
			assert.Empty(t, got.Events)
			assert.Empty(t, got.Actions)
			assert.Empty(t, got.History)
		})
	}
}

func TestConnectionProbeRejected(t *testing.T) {
	s := Initial()
	s.View = models.ViewConnection
	b := backendtest.New().JSON("connection_probe", "something else")
	e := newEngine(t, b, s)

	err := e.Advance(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrBackendCapability)
	assert.ErrorIs(t, err, schema.ErrBackendViolation)
	assert.False(t, e.IsAbortError(err))
	assert.Equal(t, models.ViewConnection, e.State().View)
}

func TestConnectionTransportFailure(t *testing.T) {
	s := Initial()
	s.View = models.ViewConnection
	refused := errors.New("connection refused")
	e := newEngine(t, backendtest.New().Fail("connection_probe", refused), s)

	err := e.Advance(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrBackendCapability)
	assert.ErrorIs(t, err, refused)
}

func TestBackendSchemaViolation(t *testing.T) {
	b := backendtest.New().
		Narration("**Ana** nods.").
		JSON("inventory_change", map[string]any{"gained": []any{}, "lost": []any{}}).
		JSON("same_location", schema.Yes).
		JSON("actions", []string{"Only one"})
	e := newEngine(t, b, chatState())

	err := e.Advance(context.Background(), "Nod", nil)
	assert.ErrorIs(t, err, schema.ErrBackendViolation)

	// The streamed turn is kept and can be undone.
	s := e.State()
	assert.Empty(t, s.Actions)
	last := s.Events[len(s.Events)-1]
	require.IsType(t, &models.CharacterIntroductionEvent{}, last)
	require.NoError(t, e.Undo())
	assert.Empty(t, cmp.Diff(chatState(), e.State(), equateState))
}

func TestFailureAfterNarrationKeepsStreamedText(t *testing.T) {
	boom := errors.New("upstream 502")
	b := backendtest.New().
		Narration("The rain stops.").
		Fail("inventory_change", boom)
	e := newEngine(t, b, chatState())

	err := e.Advance(context.Background(), "Wait", nil)
	assert.ErrorIs(t, err, boom)
	s := e.State()
	n, ok := s.Events[len(s.Events)-1].(*models.NarrationEvent)
	require.True(t, ok)
	assert.Equal(t, "The rain stops.", n.Text)
	assert.Len(t, s.History, 1)
}

func TestBlankItemNameIsBackendViolation(t *testing.T) {
	b := backendtest.New().
		Narration("You find something.").
		JSON("inventory_change", map[string]any{
			"gained": []any{map[string]any{"name": "   ", "description": "Shiny."}},
			"lost":   []any{},
		})
	e := newEngine(t, b, chatState())

	err := e.Advance(context.Background(), "Search", nil)
	assert.ErrorIs(t, err, schema.ErrBackendViolation)
	assert.NotErrorIs(t, err, schema.ErrViolation)

	s := e.State()
	n, ok := s.Events[len(s.Events)-1].(*models.NarrationEvent)
	require.True(t, ok)
	assert.Equal(t, "You find something.", n.Text)
	assert.Empty(t, s.Inventory)
	assert.Len(t, s.History, 1)
}

func TestAbortDuringNarration(t *testing.T) {
	b := backendtest.New().Block(backendtest.NarrationKey)
	before := chatState()
	e := newEngine(t, b, before)

	errc := make(chan error, 1)
	go func() { errc <- e.Advance(context.Background(), "Wait", nil) }()

	require.Eventually(t, func() bool { return len(b.Requests()) == 1 }, time.Second, time.Millisecond)
	assert.ErrorIs(t, e.Undo(), ErrBusy)
	assert.ErrorIs(t, e.Advance(context.Background(), "Again", nil), ErrBusy)

	e.Abort()
	err := <-errc
	require.Error(t, err)
	assert.True(t, e.IsAbortError(err))

	// Nothing was streamed, so the empty narration is discarded.
	assert.Empty(t, cmp.Diff(before, e.State(), equateState))
}

func TestAdvanceRejectsInvalidDocument(t *testing.T) {
	b := backendtest.New()
	e := newEngine(t, b, chatState())
	e.state.Events = append(e.state.Events, &models.CharacterIntroductionEvent{CharacterIndex: 9})

	err := e.Advance(context.Background(), "Wait", nil)
	assert.ErrorIs(t, err, schema.ErrViolation)
	assert.Empty(t, b.Requests())

	s := chatState()
	s.Protagonist.LocationIndex = 4
	assert.ErrorIs(t, e.Load(s), schema.ErrViolation)
}

func TestPluginFailureIsFatal(t *testing.T) {
	boom := errors.New("no music")
	hook := &locationRecorder{name: "music", err: boom}
	b := backendtest.New().
		JSON("location", models.Location{Name: "The Gull", Type: models.LocationTavern, Description: "A smoky tavern."})
	before := scenarioState()
	e := newEngine(t, b, before, hook)

	err := e.Advance(context.Background(), "", nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"location"}, b.Keys())
	s := e.State()
	assert.Equal(t, models.ViewScenario, s.View)
	assert.Empty(t, s.Locations)
}

func TestProgressAndUpdates(t *testing.T) {
	b := backendtest.New()
	scriptQuietTurn(b, "**Ana** pours a drink for you.")

	var mu sync.Mutex
	var titles []string
	var updates []*models.State
	p, err := NewPlugins()
	require.NoError(t, err)
	e, err := New(Dependencies{
		Backend: b,
		Plugins: p,
		Logger:  zaptest.NewLogger(t),
		OnUpdate: func(s *models.State) {
			mu.Lock()
			defer mu.Unlock()
			updates = append(updates, s)
		},
	})
	require.NoError(t, err)
	s := chatState()
	s.UpdateInterval = 0
	require.NoError(t, e.Load(s))

	mu.Lock()
	updates = nil
	mu.Unlock()

	require.NoError(t, e.Advance(context.Background(), "Drink", func(title, _ string, _ int) {
		mu.Lock()
		defer mu.Unlock()
		if len(titles) == 0 || titles[len(titles)-1] != title {
			titles = append(titles, title)
		}
	}))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Narrating", "Checking inventory", "Checking for location change", "Generating actions"}, titles)
	require.NotEmpty(t, updates)
	last := updates[len(updates)-1]
	assert.Len(t, last.Actions, 3)
	assert.Len(t, last.History, 1)

	var partial bool
	for _, u := range updates[:len(updates)-1] {
		if len(u.Events) > 0 {
			if n, ok := u.Events[len(u.Events)-1].(*models.NarrationEvent); ok && n.Text == "**Ana** pours " {
				partial = true
			}
		}
	}
	assert.True(t, partial, "expected a streamed partial update")
}

func TestReferencedCharacters(t *testing.T) {
	cast := []models.Character{{Name: "Ana Reyes"}, {Name: "Ana Smith"}, {Name: "Bob Stone"}}

	tests := []struct {
		text string
		want []int
	}{
		{"**Ana** waves.", []int{0}},
		{"**Ana Smith** waves.", []int{1}},
		{"**Bob's** dog and **Bob'** hat.", []int{2}},
		{"**Zed** and **Ana** and **Ana**.", []int{0}},
		{"**Bob** then **Ana Smith**.", []int{2, 1}},
		{"No names here.", []int{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReferencedCharacters(tt.text, cast), tt.text)
	}
}

func TestApplyInventoryChange(t *testing.T) {
	inv := []models.Item{{Name: "Rope"}, {Name: "Lantern"}, {Name: "Coin"}}
	got := ApplyInventoryChange(inv, []models.Item{{Name: "Map"}}, []models.Item{{Name: "lantern"}, {Name: "Sword"}})
	assert.Equal(t, []models.Item{{Name: "Rope"}, {Name: "Coin"}, {Name: "Map"}}, got)
	assert.Len(t, inv, 3)
}
