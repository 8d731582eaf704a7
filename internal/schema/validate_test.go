package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tatianab/saga/internal/models"
)

func chatState() *models.State {
	s := models.NewState()
	s.View = models.ViewChat
	s.World = models.World{Name: "Vel Arath", Description: "A drowned kingdom."}
	s.Locations = []models.Location{{Name: "The Gull", Type: models.LocationTavern, Description: "Smoky."}}
	s.Characters = []models.Character{
		{Name: "Ana Reyes", Gender: models.GenderFemale, Race: models.RaceElf, Biography: "A smuggler."},
	}
	s.Protagonist = models.Character{Name: "Tom", Gender: models.GenderMale, Race: models.RaceHuman, Biography: "A sailor."}
	s.Events = models.Events{
		&models.LocationChangeEvent{LocationIndex: 0, PresentCharacterIndices: []int{0}},
		&models.NarrationEvent{Text: "**Ana** waves.", LocationIndex: 0, ReferencedCharacterIndices: []int{0}},
		&models.CharacterIntroductionEvent{CharacterIndex: 0},
	}
	s.Actions = []string{"Wave back", "Leave", "Order ale"}
	return s
}

func TestValidateStateAcceptsInitialState(t *testing.T) {
	require.NoError(t, ValidateState(models.NewState()))
}

func TestValidateStateAcceptsChatState(t *testing.T) {
	s := chatState()
	s.PushHistory()
	require.NoError(t, ValidateState(s))
}

func TestValidateStateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.State)
		path   string
	}{
		{
			name:   "dangling narration location",
			mutate: func(s *models.State) { s.Events[1].(*models.NarrationEvent).LocationIndex = 3 },
			path:   "events.1.location_index",
		},
		{
			name:   "dangling character introduction",
			mutate: func(s *models.State) { s.Events[2].(*models.CharacterIntroductionEvent).CharacterIndex = 1 },
			path:   "events.2.character_index",
		},
		{
			name: "dangling present character",
			mutate: func(s *models.State) {
				s.Events[0].(*models.LocationChangeEvent).PresentCharacterIndices = []int{0, -1}
			},
			path: "events.0.present_character_indices.1",
		},
		{
			name:   "dangling character location",
			mutate: func(s *models.State) { s.Characters[0].LocationIndex = 2 },
			path:   "characters.0.location_index",
		},
		{
			name:   "dangling protagonist location",
			mutate: func(s *models.State) { s.Protagonist.LocationIndex = 1 },
			path:   "protagonist.location_index",
		},
		{
			name:   "unknown view",
			mutate: func(s *models.State) { s.View = "lobby" },
			path:   "view",
		},
		{
			name:   "blank narration",
			mutate: func(s *models.State) { s.Events[1].(*models.NarrationEvent).Text = "  " },
			path:   "events.1.text",
		},
		{
			name:   "long action",
			mutate: func(s *models.State) { s.Actions[0] = strings.Repeat("a", MaxActionLength+1) },
			path:   "actions.0",
		},
		{
			name:   "bad api url",
			mutate: func(s *models.State) { s.APIURL = "localhost" },
			path:   "api_url",
		},
		{
			name:   "unknown location type",
			mutate: func(s *models.State) { s.Locations[0].Type = "castle" },
			path:   "locations.0.type",
		},
		{
			name:   "empty custom prompts",
			mutate: func(s *models.State) { s.Genre = models.GenreCustom },
			path:   "custom_prompts.system_prompt",
		},
		{
			name:   "nested history",
			mutate: func(s *models.State) { s.History = []models.State{{History: []models.State{{}}}} },
			path:   "history.0.history",
		},
		{
			name: "invalid snapshot",
			mutate: func(s *models.State) {
				s.PushHistory()
				s.History[0].Characters[0].Gender = "other"
			},
			path: "history.0.characters.0.gender",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := chatState()
			tt.mutate(s)
			err := ValidateState(s)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrViolation))
			var se *Error
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.path, se.Path)
		})
	}
}

func TestValidateStateRejectsNil(t *testing.T) {
	assert.ErrorIs(t, ValidateState(nil), ErrViolation)
}
