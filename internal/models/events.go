package models

import (
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// EventType tags each transcript entry.
type EventType string

const (
	EventAction                EventType = "action"
	EventNarration             EventType = "narration"
	EventCharacterIntroduction EventType = "character_introduction"
	EventLocationChange        EventType = "location_change"
	EventInventoryChange       EventType = "inventory_change"
)

// Event is one entry of the append-only transcript. The set of
// implementations is closed to this package.
type Event interface {
	Type() EventType
	clone() Event
}

// ActionEvent records an action chosen or typed by the player.
type ActionEvent struct {
	Action string
}

// NarrationEvent holds generated prose.
type NarrationEvent struct {
	Text                       string
	LocationIndex              int
	ReferencedCharacterIndices []int
}

// CharacterIntroductionEvent marks the first transcript mention of a character.
type CharacterIntroductionEvent struct {
	CharacterIndex int
}

// LocationChangeEvent marks a scene boundary. Summary describes the scene
// that this event closes.
type LocationChangeEvent struct {
	LocationIndex           int
	PresentCharacterIndices []int
	Summary                 string
}

// InventoryChangeEvent records items gained and lost in one step.
type InventoryChangeEvent struct {
	Gained []Item
	Lost   []Item
}

func (*ActionEvent) Type() EventType                { return EventAction }
func (*NarrationEvent) Type() EventType             { return EventNarration }
func (*CharacterIntroductionEvent) Type() EventType { return EventCharacterIntroduction }
func (*LocationChangeEvent) Type() EventType        { return EventLocationChange }
func (*InventoryChangeEvent) Type() EventType       { return EventInventoryChange }

func (e *ActionEvent) clone() Event { c := *e; return &c }

func (e *NarrationEvent) clone() Event {
	c := *e
	c.ReferencedCharacterIndices = slices.Clone(e.ReferencedCharacterIndices)
	return &c
}

func (e *CharacterIntroductionEvent) clone() Event { c := *e; return &c }

func (e *LocationChangeEvent) clone() Event {
	c := *e
	c.PresentCharacterIndices = slices.Clone(e.PresentCharacterIndices)
	return &c
}

func (e *InventoryChangeEvent) clone() Event {
	return &InventoryChangeEvent{
		Gained: slices.Clone(e.Gained),
		Lost:   slices.Clone(e.Lost),
	}
}

// Events is the transcript. It marshals to YAML as a list of records
// discriminated by their "type" key.
type Events []Event

// Clone returns a deep copy of the transcript.
func (es Events) Clone() Events {
	if es == nil {
		return nil
	}
	out := make(Events, len(es))
	for i, e := range es {
		out[i] = e.clone()
	}
	return out
}

// LastLocationChange returns the index and value of the most recent
// location change, or -1 when there is none.
func (es Events) LastLocationChange() (int, *LocationChangeEvent) {
	for i := len(es) - 1; i >= 0; i-- {
		if lc, ok := es[i].(*LocationChangeEvent); ok {
			return i, lc
		}
	}
	return -1, nil
}

type eventRecord struct {
	Type                       EventType `yaml:"type"`
	Action                     string    `yaml:"action,omitempty"`
	Text                       string    `yaml:"text,omitempty"`
	LocationIndex              *int      `yaml:"location_index,omitempty"`
	CharacterIndex             *int      `yaml:"character_index,omitempty"`
	ReferencedCharacterIndices []int     `yaml:"referenced_character_indices,omitempty,flow"`
	PresentCharacterIndices    []int     `yaml:"present_character_indices,omitempty,flow"`
	Summary                    string    `yaml:"summary,omitempty"`
	Gained                     []Item    `yaml:"gained,omitempty"`
	Lost                       []Item    `yaml:"lost,omitempty"`
}

func intPtr(v int) *int { return &v }

func (es Events) MarshalYAML() (any, error) {
	records := make([]eventRecord, 0, len(es))
	for _, e := range es {
		var r eventRecord
		switch e := e.(type) {
		case *ActionEvent:
			r = eventRecord{Type: EventAction, Action: e.Action}
		case *NarrationEvent:
			r = eventRecord{
				Type:                       EventNarration,
				Text:                       e.Text,
				LocationIndex:              intPtr(e.LocationIndex),
				ReferencedCharacterIndices: e.ReferencedCharacterIndices,
			}
		case *CharacterIntroductionEvent:
			r = eventRecord{Type: EventCharacterIntroduction, CharacterIndex: intPtr(e.CharacterIndex)}
		case *LocationChangeEvent:
			r = eventRecord{
				Type:                    EventLocationChange,
				LocationIndex:           intPtr(e.LocationIndex),
				PresentCharacterIndices: e.PresentCharacterIndices,
				Summary:                 e.Summary,
			}
		case *InventoryChangeEvent:
			r = eventRecord{Type: EventInventoryChange, Gained: e.Gained, Lost: e.Lost}
		default:
			return nil, fmt.Errorf("unknown event %T", e)
		}
		records = append(records, r)
	}
	return records, nil
}

func (es *Events) UnmarshalYAML(node *yaml.Node) error {
	var records []eventRecord
	if err := node.Decode(&records); err != nil {
		return err
	}
	out := make(Events, 0, len(records))
	for i, r := range records {
		var e Event
		var err error
		switch r.Type {
		case EventAction:
			e = &ActionEvent{Action: r.Action}
		case EventNarration:
			var loc int
			loc, err = required(r.LocationIndex, "location_index")
			e = &NarrationEvent{
				Text:                       r.Text,
				LocationIndex:              loc,
				ReferencedCharacterIndices: nonNil(r.ReferencedCharacterIndices),
			}
		case EventCharacterIntroduction:
			var c int
			c, err = required(r.CharacterIndex, "character_index")
			e = &CharacterIntroductionEvent{CharacterIndex: c}
		case EventLocationChange:
			var loc int
			loc, err = required(r.LocationIndex, "location_index")
			e = &LocationChangeEvent{
				LocationIndex:           loc,
				PresentCharacterIndices: nonNil(r.PresentCharacterIndices),
				Summary:                 r.Summary,
			}
		case EventInventoryChange:
			e = &InventoryChangeEvent{Gained: nonNil(r.Gained), Lost: nonNil(r.Lost)}
		default:
			err = fmt.Errorf("unknown event type %q", r.Type)
		}
		if err != nil {
			return fmt.Errorf("events[%d]: %w", i, err)
		}
		out = append(out, e)
	}
	*es = out
	return nil
}

func required(p *int, field string) (int, error) {
	if p == nil {
		return 0, fmt.Errorf("missing %s", field)
	}
	return *p, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
