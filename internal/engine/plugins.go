package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tatianab/saga/internal/models"
)

// Plugin is an extension registered with the engine. Capabilities are
// optional interfaces a plugin may also implement.
type Plugin interface {
	Name() string
}

// LocationChangeHandler is notified of every new location, including the
// starting one, before it is added to the document. The state passed in is
// the transition's working copy and may be modified.
type LocationChangeHandler interface {
	OnLocationChange(ctx context.Context, location models.Location, s *models.State) error
}

type pluginEntry struct {
	plugin  Plugin
	enabled bool
}

// Plugins is an ordered plugin registry. Plugins run in registration order.
type Plugins struct {
	mu      sync.RWMutex
	entries []pluginEntry
}

func NewPlugins(plugins ...Plugin) (*Plugins, error) {
	p := &Plugins{}
	for _, plugin := range plugins {
		if err := p.Register(plugin); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Register adds an enabled plugin.
func (p *Plugins) Register(plugin Plugin) error {
	if plugin == nil || strings.TrimSpace(plugin.Name()) == "" {
		return ErrPluginNameRequired
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.indexLocked(plugin.Name()) >= 0 {
		return fmt.Errorf("%w: %s", ErrPluginAlreadyRegistered, plugin.Name())
	}
	p.entries = append(p.entries, pluginEntry{plugin: plugin, enabled: true})
	return nil
}

func (p *Plugins) SetEnabled(name string, enabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.indexLocked(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	p.entries[i].enabled = enabled
	return nil
}

// Names lists registered plugins in order.
func (p *Plugins) Names() []string {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, len(p.entries))
	for i, e := range p.entries {
		names[i] = e.plugin.Name()
	}
	return names
}

func (p *Plugins) indexLocked(name string) int {
	for i, e := range p.entries {
		if e.plugin.Name() == name {
			return i
		}
	}
	return -1
}

func (p *Plugins) enabled() []Plugin {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []Plugin
	for _, e := range p.entries {
		if e.enabled {
			out = append(out, e.plugin)
		}
	}
	return out
}

// notifyLocationChange runs every enabled handler in order and stops at the
// first failure.
func (p *Plugins) notifyLocationChange(ctx context.Context, location models.Location, s *models.State) error {
	for _, plugin := range p.enabled() {
		h, ok := plugin.(LocationChangeHandler)
		if !ok {
			continue
		}
		if err := h.OnLocationChange(ctx, location, s); err != nil {
			return fmt.Errorf("plugin %s: %w", plugin.Name(), err)
		}
	}
	return nil
}
