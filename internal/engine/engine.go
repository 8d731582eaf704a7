// Package engine runs the session state machine: it advances the document
// one stage at a time by issuing backend requests, validating their results
// and folding them into the document.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tatianab/saga/internal/backend"
	"github.com/tatianab/saga/internal/models"
	"github.com/tatianab/saga/internal/prompts"
	"github.com/tatianab/saga/internal/schema"
)

// ProgressFunc reports the stage in flight and the number of tokens
// received for it so far. It may be called from another goroutine.
type ProgressFunc func(title, description string, tokenCount int)

// UpdateFunc observes the document. Partial updates during a transition
// carry no history; committed documents are complete. It may be called from
// another goroutine.
type UpdateFunc func(s *models.State)

// Dependencies configures an Engine.
type Dependencies struct {
	Backend backend.Port
	Plugins *Plugins
	Logger  *zap.Logger
	// OnUpdate is optional.
	OnUpdate UpdateFunc
	// Initial is the document Reset returns to. Defaults to Initial().
	Initial *models.State
}

// Engine owns one session document. Calls that change the document are
// serialized; a call that overlaps one in flight fails with ErrBusy.
type Engine struct {
	backend  backend.Port
	plugins  *Plugins
	logger   *zap.Logger
	onUpdate UpdateFunc
	initial  *models.State

	busy sync.Mutex

	mu    sync.RWMutex
	state *models.State
}

// Initial returns the empty document a new session starts from.
func Initial() *models.State {
	s := models.NewState()
	s.CustomPrompts = prompts.DefaultCustomPrompts()
	return s
}

func New(deps Dependencies) (*Engine, error) {
	if deps.Backend == nil {
		return nil, ErrBackendRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	initial := deps.Initial
	if initial == nil {
		initial = Initial()
	}
	if err := schema.ValidateState(initial); err != nil {
		return nil, fmt.Errorf("initial document: %w", err)
	}
	initial = initial.Clone()
	initial.History = nil

	return &Engine{
		backend:  deps.Backend,
		plugins:  deps.Plugins,
		logger:   logger.Named("engine"),
		onUpdate: deps.OnUpdate,
		initial:  initial,
		state:    initial.Clone(),
	}, nil
}

// State returns a copy of the committed document.
func (e *Engine) State() *models.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Clone()
}

// Load replaces the document, for example with a saved session.
func (e *Engine) Load(s *models.State) error {
	if err := schema.ValidateState(s); err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	return e.mutate(func(cur *models.State) error {
		*cur = *s.Clone()
		return nil
	})
}

// Edit applies fn to a copy of the document between transitions, such as
// choosing a genre or typing guidance, and commits it if it is still valid.
func (e *Engine) Edit(fn func(s *models.State)) error {
	return e.mutate(func(s *models.State) error {
		fn(s)
		if err := schema.ValidateState(s); err != nil {
			return fmt.Errorf("edit document: %w", err)
		}
		return nil
	})
}

// Abort cancels the backend request in flight, if any.
func (e *Engine) Abort() {
	e.backend.Abort()
}

// IsAbortError reports whether err resulted from Abort or context
// cancellation. Such errors should not be shown as failures.
func (e *Engine) IsAbortError(err error) bool {
	return e.backend.IsAbortError(err)
}

func (e *Engine) commit(s *models.State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
	e.notify(s)
}

func (e *Engine) notify(s *models.State) {
	if e.onUpdate != nil {
		e.onUpdate(s.Clone())
	}
}

// mutate applies a synchronous change to a copy of the document and commits
// it unless fn fails.
func (e *Engine) mutate(fn func(s *models.State) error) error {
	if !e.busy.TryLock() {
		return ErrBusy
	}
	defer e.busy.Unlock()

	s := e.State()
	if err := fn(s); err != nil {
		return err
	}
	e.commit(s)
	return nil
}

// Advance performs the transition for the current view. action is used only
// in the chat view and may be empty. onProgress may be nil.
//
// The document is validated before any request is made and again before the
// result is committed. When the transition fails, the partially advanced
// document is committed if it is still valid, so streamed narration and the
// pushed history entry survive and Undo can recover; otherwise the document
// is left as it was.
func (e *Engine) Advance(ctx context.Context, action string, onProgress ProgressFunc) error {
	if !e.busy.TryLock() {
		return ErrBusy
	}
	defer e.busy.Unlock()

	current := e.State()
	if err := schema.ValidateState(current); err != nil {
		return fmt.Errorf("validate document: %w", err)
	}

	start := time.Now()
	t := e.newTransition(ctx, current.Clone(), onProgress)
	err := t.run(action)
	t.stop()

	log := e.logger.With(
		zap.String("from", string(current.View)),
		zap.String("to", string(t.s.View)),
		zap.Duration("elapsed", time.Since(start)),
	)
	if verr := schema.ValidateState(t.s); verr != nil {
		e.notify(current)
		if err != nil {
			log.Warn("discarding partial transition", zap.Error(err), zap.NamedError("validation", verr))
			return err
		}
		return fmt.Errorf("validate result: %w", verr)
	}
	e.commit(t.s)

	switch {
	case err == nil:
		log.Info("transition complete")
	case e.IsAbortError(err):
		log.Info("transition aborted")
	default:
		log.Warn("transition failed", zap.Error(err))
	}
	return err
}

// Back moves to the previous wizard view. It does nothing in the welcome and
// chat views.
func (e *Engine) Back() error {
	return e.mutate(func(s *models.State) error {
		switch s.View {
		case models.ViewWelcome, models.ViewChat:
		case models.ViewConnection:
			s.View = models.ViewWelcome
		case models.ViewGenre:
			s.View = models.ViewConnection
		case models.ViewCharacter:
			s.View = models.ViewGenre
		case models.ViewScenario:
			s.View = models.ViewCharacter
		default:
			return fmt.Errorf("%w: view=%q", ErrInvalidState, s.View)
		}
		return nil
	})
}

// Undo pops the most recent history entry and restores it. It does nothing
// when the history is empty.
func (e *Engine) Undo() error {
	return e.mutate(func(s *models.State) error {
		n := len(s.History)
		if n == 0 {
			return nil
		}
		prev := s.History[n-1]
		s.History = s.History[:n-1]
		s.Restore(prev)
		return nil
	})
}

// Regenerate restores the most recent chat snapshot without popping it, so
// the next Advance with the same action produces an alternative turn. It
// only applies in the chat view when the newest snapshot is a chat view too.
func (e *Engine) Regenerate() error {
	return e.mutate(func(s *models.State) error {
		n := len(s.History)
		if s.View != models.ViewChat || n == 0 || s.History[n-1].View != models.ViewChat {
			return nil
		}
		s.Restore(s.History[n-1])
		return nil
	})
}

// Reset returns to the initial document.
func (e *Engine) Reset() error {
	return e.mutate(func(s *models.State) error {
		*s = *e.initial.Clone()
		return nil
	})
}

// NewCharacter starts over at character creation, keeping connection
// settings, genre and content settings.
func (e *Engine) NewCharacter() error {
	return e.resetScenario(models.ViewCharacter)
}

// NewScenario starts over at scenario creation, keeping connection settings,
// genre and content settings.
func (e *Engine) NewScenario() error {
	return e.resetScenario(models.ViewScenario)
}

func (e *Engine) resetScenario(view models.View) error {
	return e.mutate(func(s *models.State) error {
		base := e.initial
		s.View = view
		s.World = base.World
		s.Locations = []models.Location{}
		s.Inventory = []models.Item{}
		s.Characters = []models.Character{}
		s.Protagonist = base.Protagonist
		s.ProtagonistGuidance = base.ProtagonistGuidance
		s.StartingLocationGuidance = base.StartingLocationGuidance
		s.StartingCharactersGuidance = base.StartingCharactersGuidance
		s.SystemPromptOverride = base.SystemPromptOverride
		s.ProtagonistPromptOverride = base.ProtagonistPromptOverride
		s.StartingLocationPromptOverride = base.StartingLocationPromptOverride
		s.StartingCharactersPromptOverride = base.StartingCharactersPromptOverride
		s.Events = models.Events{}
		s.Actions = []string{}
		s.History = nil
		return nil
	})
}
