package models

import (
	"maps"
	"slices"
)

// Clone returns a deep copy of the document, history included.
func (s *State) Clone() *State {
	c := s.cloneBase()
	if s.History != nil {
		c.History = make([]State, len(s.History))
		for i := range s.History {
			c.History[i] = *s.History[i].cloneBase()
		}
	}
	return c
}

// Snapshot returns a deep copy with the history stripped, suitable for
// pushing onto History.
func (s *State) Snapshot() State {
	return *s.cloneBase()
}

// Restore replaces every field of s with a copy of snap, keeping history.
func (s *State) Restore(snap State) {
	history := s.History
	*s = *snap.cloneBase()
	s.History = history
}

// PushHistory snapshots the current document onto its own history stack.
func (s *State) PushHistory() {
	s.History = append(s.History, s.Snapshot())
}

func (s *State) cloneBase() *State {
	c := *s
	c.History = nil
	c.GenerationParams = maps.Clone(s.GenerationParams)
	c.NarrationParams = maps.Clone(s.NarrationParams)
	c.Locations = slices.Clone(s.Locations)
	c.Inventory = slices.Clone(s.Inventory)
	c.Characters = slices.Clone(s.Characters)
	c.Events = s.Events.Clone()
	c.Actions = slices.Clone(s.Actions)
	return &c
}
