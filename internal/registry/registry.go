// Package registry resolves the symbols a deployment watches and the
// signal presets they run with. Definitions come from the config file
// or, when configured, from Postgres so presets can be tuned without
// redeploying.
package registry

import (
	"main/internal/feature"
	"main/internal/signal"
)

// Symbol is one watched instrument on one venue.
type Symbol struct {
	Name     string `json:"name"`
	Venue    string `json:"venue"`
	Mode     string `json:"mode"`   // "top_of_book" or "depth"
	Preset   string `json:"preset"` // empty selects the default preset
	DepthCap int    `json:"depthCap"`
}

// Preset bundles the tunable feature/signal parameters under one name.
type Preset struct {
	Name     string         `json:"name"`
	Features feature.Config `json:"features"`
	Signal   signal.Config  `json:"signal"`
}

// Registry is the resolved in-memory view.
type Registry struct {
	symbols []Symbol
	presets map[string]Preset
}

// New builds a registry; unnamed presets are rejected silently rather
// than shadowing the default.
func New(symbols []Symbol, presets []Preset) *Registry {
	r := &Registry{
		symbols: symbols,
		presets: make(map[string]Preset, len(presets)),
	}
	for _, p := range presets {
		if p.Name == "" {
			continue
		}
		r.presets[p.Name] = p
	}
	return r
}

// Symbols lists every watched instrument.
func (r *Registry) Symbols() []Symbol {
	return r.symbols
}

// Resolve returns the preset for a symbol, falling back to defaults
// when the symbol names no preset or an unknown one.
func (r *Registry) Resolve(sym Symbol) Preset {
	if p, ok := r.presets[sym.Preset]; ok {
		return p
	}
	return Preset{
		Name:     "default",
		Features: feature.DefaultConfig(),
		Signal:   signal.DefaultConfig(),
	}
}

// PresetCount reports the loaded presets.
func (r *Registry) PresetCount() int {
	return len(r.presets)
}
