package models

// View is the current stage of the session wizard.
type View string

const (
	ViewWelcome    View = "welcome"
	ViewConnection View = "connection"
	ViewGenre      View = "genre"
	ViewCharacter  View = "character"
	ViewScenario   View = "scenario"
	ViewChat       View = "chat"
)

// Views lists every view in forward order.
var Views = []View{ViewWelcome, ViewConnection, ViewGenre, ViewCharacter, ViewScenario, ViewChat}

// Genre selects the prompt template set.
type Genre string

const (
	GenreFantasy Genre = "fantasy"
	GenreSciFi   Genre = "scifi"
	GenreReality Genre = "reality"
	GenreCustom  Genre = "custom"
)

var Genres = []Genre{GenreFantasy, GenreSciFi, GenreReality, GenreCustom}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

var Genders = []Gender{GenderMale, GenderFemale}

type Race string

const (
	RaceHuman Race = "human"
	RaceElf   Race = "elf"
	RaceDwarf Race = "dwarf"
)

var Races = []Race{RaceHuman, RaceElf, RaceDwarf}

type LocationType string

const (
	LocationTavern LocationType = "tavern"
	LocationMarket LocationType = "market"
	LocationRoad   LocationType = "road"
)

var LocationTypes = []LocationType{LocationTavern, LocationMarket, LocationRoad}

type SexualContentLevel string

const (
	SexualRegular          SexualContentLevel = "regular"
	SexualExplicit         SexualContentLevel = "explicit"
	SexualActivelyExplicit SexualContentLevel = "actively_explicit"
)

var SexualContentLevels = []SexualContentLevel{SexualRegular, SexualExplicit, SexualActivelyExplicit}

type ViolentContentLevel string

const (
	ViolentRegular   ViolentContentLevel = "regular"
	ViolentGraphic   ViolentContentLevel = "graphic"
	ViolentPervasive ViolentContentLevel = "pervasive"
)

var ViolentContentLevels = []ViolentContentLevel{ViolentRegular, ViolentGraphic, ViolentPervasive}

// World is the setting generated once per session.
type World struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// Character is the protagonist or a supporting character.
// LocationIndex points into State.Locations.
type Character struct {
	Name          string `json:"name" yaml:"name"`
	Gender        Gender `json:"gender" yaml:"gender"`
	Race          Race   `json:"race" yaml:"race"`
	Biography     string `json:"biography" yaml:"biography"`
	LocationIndex int    `json:"locationIndex" yaml:"location_index"`
}

// FirstName returns the first space-separated token of the name.
func (c Character) FirstName() string {
	for i, r := range c.Name {
		if r == ' ' {
			return c.Name[:i]
		}
	}
	return c.Name
}

// Location represents a specific place in the world.
type Location struct {
	Name        string       `json:"name" yaml:"name"`
	Type        LocationType `json:"type" yaml:"type"`
	Description string       `json:"description" yaml:"description"`
}

// Item is an inventory entry.
type Item struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// PromptConfig is one genre's set of prompt templates.
type PromptConfig struct {
	SystemPrompt             string `yaml:"system_prompt"`
	WorldPrompt              string `yaml:"world_prompt"`
	ProtagonistPrompt        string `yaml:"protagonist_prompt"`
	StartingLocationPrompt   string `yaml:"starting_location_prompt"`
	StartingCharactersPrompt string `yaml:"starting_characters_prompt"`
	MainPromptPreamble       string `yaml:"main_prompt_preamble"`
	NarrationPrompt          string `yaml:"narration_prompt"`
	ActionsPrompt            string `yaml:"actions_prompt"`
	InventoryPrompt          string `yaml:"inventory_prompt"`
	CheckLocationPrompt      string `yaml:"check_location_prompt"`
	NewLocationPrompt        string `yaml:"new_location_prompt"`
	NewCharactersPrompt      string `yaml:"new_characters_prompt"`
	SummarizePrompt          string `yaml:"summarize_prompt"`
}

// State is the session document. The engine owns it between calls;
// everything else should treat it as a read-only snapshot.
type State struct {
	// Connection settings.
	APIURL           string         `yaml:"api_url"`
	APIKey           string         `yaml:"api_key"`
	Model            string         `yaml:"model"`
	ContextLength    int            `yaml:"context_length"`
	InputLength      int            `yaml:"input_length"`
	GenerationParams map[string]any `yaml:"generation_params"`
	NarrationParams  map[string]any `yaml:"narration_params"`
	UpdateInterval   int            `yaml:"update_interval"` // milliseconds
	LogPrompts       bool           `yaml:"log_prompts"`
	LogParams        bool           `yaml:"log_params"`
	LogResponses     bool           `yaml:"log_responses"`

	Genre         Genre        `yaml:"genre"`
	View          View         `yaml:"view"`
	CustomPrompts PromptConfig `yaml:"custom_prompts"`

	ProtagonistGuidance        string `yaml:"protagonist_guidance"`
	StartingLocationGuidance   string `yaml:"starting_location_guidance"`
	StartingCharactersGuidance string `yaml:"starting_characters_guidance"`

	SystemPromptOverride             string `yaml:"system_prompt_override"`
	ProtagonistPromptOverride        string `yaml:"protagonist_prompt_override"`
	StartingLocationPromptOverride   string `yaml:"starting_location_prompt_override"`
	StartingCharactersPromptOverride string `yaml:"starting_characters_prompt_override"`

	World       World       `yaml:"world"`
	Locations   []Location  `yaml:"locations"`
	Inventory   []Item      `yaml:"inventory"`
	Characters  []Character `yaml:"characters"`
	Protagonist Character   `yaml:"protagonist"`

	HiddenDestiny       bool                `yaml:"hidden_destiny"`
	Betrayal            bool                `yaml:"betrayal"`
	OppositeSexMagnet   bool                `yaml:"opposite_sex_magnet"`
	SameSexMagnet       bool                `yaml:"same_sex_magnet"`
	SexualContentLevel  SexualContentLevel  `yaml:"sexual_content_level"`
	ViolentContentLevel ViolentContentLevel `yaml:"violent_content_level"`

	Events  Events   `yaml:"events"`
	Actions []string `yaml:"actions"`

	// History holds prior snapshots, newest last. Snapshots never carry
	// their own history.
	History []State `yaml:"history,omitempty"`
}

// NewState returns a document in its initial state.
func NewState() *State {
	return &State{
		APIURL:        "http://localhost:8080/v1/",
		ContextLength: 16384,
		InputLength:   16384,
		GenerationParams: map[string]any{
			"temperature": 0.5,
		},
		NarrationParams: map[string]any{
			"temperature":    0.6,
			"min_p":          0.03,
			"dry_multiplier": 0.8,
		},
		UpdateInterval: 200,
		Genre:          GenreFantasy,
		View:           ViewWelcome,
		Protagonist: Character{
			Gender: GenderMale,
			Race:   RaceHuman,
		},
		SexualContentLevel:  SexualRegular,
		ViolentContentLevel: ViolentRegular,
		Locations:           []Location{},
		Inventory:           []Item{},
		Characters:          []Character{},
		Events:              Events{},
		Actions:             []string{},
	}
}

// CurrentLocation returns the protagonist's location, if one exists.
func (s *State) CurrentLocation() (Location, bool) {
	i := s.Protagonist.LocationIndex
	if i < 0 || i >= len(s.Locations) {
		return Location{}, false
	}
	return s.Locations[i], true
}
