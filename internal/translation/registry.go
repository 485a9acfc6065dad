package translation

import (
	"fmt"
	"sort"
	"strings"
)

// Registry stores the closed engine set keyed by identifier.
type Registry struct {
	engines map[EngineID]Engine
}

func NewRegistry() *Registry {
	return &Registry{engines: make(map[EngineID]Engine, 3)}
}

// Register adds one engine.
func (r *Registry) Register(engine Engine) error {
	if r == nil {
		return fmt.Errorf("registry is nil")
	}
	if engine == nil {
		return fmt.Errorf("engine is nil")
	}
	id := NormalizeEngineID(string(engine.ID()))
	if id == "" {
		return fmt.Errorf("engine id is required")
	}
	r.engines[id] = engine
	return nil
}

// Engine resolves an engine by identifier.
func (r *Registry) Engine(id EngineID) (Engine, bool) {
	if r == nil {
		return nil, false
	}
	engine, ok := r.engines[id]
	return engine, ok
}

func (r *Registry) IDs() []EngineID {
	if r == nil {
		return nil
	}
	ids := make([]EngineID, 0, len(r.engines))
	for id := range r.engines {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func NormalizeEngineID(raw string) EngineID {
	return EngineID(strings.ToLower(strings.TrimSpace(raw)))
}
