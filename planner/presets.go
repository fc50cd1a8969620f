// planner/presets.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package planner

import (
	"errors"
	"io"
	"maps"

	"github.com/derohimat/cesium-flight-simulator/util"
	"gopkg.in/yaml.v3"
)

// Presets maps preset names to flight altitudes in meters. Presets are
// user-facing starting points, not safety bounds; planned flights still
// go through the terrain checks.
type Presets map[string]float64

var defaultPresets = Presets{
	"low":     120,
	"default": 200,
	"scenic":  350,
	"aerial":  600,
	"high":    1000,
}

func DefaultPresets() Presets {
	return maps.Clone(defaultPresets)
}

func (p Presets) Clone() Presets {
	return maps.Clone(p)
}

// Altitude returns the altitude for a named preset, or the default
// preset's altitude if the name is unknown.
func (p Presets) Altitude(name string) float64 {
	if alt, ok := p[name]; ok {
		return alt
	}
	if alt, ok := p["default"]; ok {
		return alt
	}
	return DefaultBaseAltitude
}

// Names returns the preset names, sorted.
func (p Presets) Names() []string {
	return util.SortedMapKeys(p)
}

// LoadPresets reads preset overrides from YAML, a mapping from preset
// name to altitude in meters, and merges them over the defaults.
// Problems are reported through the ErrorLogger; entries that fail
// validation keep their default.
func LoadPresets(r io.Reader, e *util.ErrorLogger) Presets {
	p := DefaultPresets()

	e.Push("altitude presets")
	defer e.Pop()

	var raw map[string]float64
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if !errors.Is(err, io.EOF) {
			e.Error(err)
		}
		return p
	}

	for _, name := range util.SortedMapKeys(raw) {
		alt := raw[name]
		if name == "" {
			e.ErrorString("preset with empty name")
			continue
		}
		if alt < MinAltitude || alt > MaxAltitude {
			e.ErrorString("%s: altitude %v outside [%d, %d]", name, alt, MinAltitude, MaxAltitude)
			continue
		}
		p[name] = alt
	}
	return p
}
