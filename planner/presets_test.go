// planner/presets_test.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package planner

import (
	"slices"
	"strings"
	"testing"

	"github.com/derohimat/cesium-flight-simulator/util"
)

func TestDefaultPresets(t *testing.T) {
	p := DefaultPresets()

	for _, c := range []struct {
		name     string
		expected float64
	}{
		{"low", 120},
		{"default", 200},
		{"scenic", 350},
		{"aerial", 600},
		{"high", 1000},
	} {
		if a := p.Altitude(c.name); a != c.expected {
			t.Errorf("%s: got %v, expected %v", c.name, a, c.expected)
		}
	}

	// Unknown names fall back to the default preset.
	if a := p.Altitude("nonesuch"); a != 200 {
		t.Errorf("unknown preset: got %v, expected 200", a)
	}
}

func TestPresetNames(t *testing.T) {
	names := DefaultPresets().Names()
	expected := []string{"aerial", "default", "high", "low", "scenic"}
	if !slices.Equal(names, expected) {
		t.Errorf("got %v, expected %v", names, expected)
	}
}

func TestLoadPresets(t *testing.T) {
	var e util.ErrorLogger
	p := LoadPresets(strings.NewReader("scenic: 500\ncanyon: 450\n"), &e)
	if e.HaveErrors() {
		t.Errorf("unexpected errors: %s", e.String())
	}
	if a := p.Altitude("scenic"); a != 500 {
		t.Errorf("scenic override: got %v, expected 500", a)
	}
	if a := p.Altitude("canyon"); a != 450 {
		t.Errorf("new preset: got %v, expected 450", a)
	}
	// Presets not mentioned in the file keep their defaults.
	if a := p.Altitude("low"); a != 120 {
		t.Errorf("untouched preset: got %v, expected 120", a)
	}
}

func TestLoadPresetsInvalid(t *testing.T) {
	var e util.ErrorLogger
	p := LoadPresets(strings.NewReader("stratosphere: 5000\nsubterranean: 10\n"), &e)
	if !e.HaveErrors() {
		t.Errorf("expected errors for out of range altitudes")
	}
	// Rejected entries don't make it into the set.
	if a := p.Altitude("stratosphere"); a != 200 {
		t.Errorf("rejected preset resolved: got %v, expected default 200", a)
	}
	if a := p.Altitude("subterranean"); a != 200 {
		t.Errorf("rejected preset resolved: got %v, expected default 200", a)
	}
}

func TestLoadPresetsEmpty(t *testing.T) {
	var e util.ErrorLogger
	p := LoadPresets(strings.NewReader(""), &e)
	if e.HaveErrors() {
		t.Errorf("unexpected errors: %s", e.String())
	}
	if a := p.Altitude("default"); a != 200 {
		t.Errorf("got %v, expected 200", a)
	}
}

func TestLoadPresetsMalformed(t *testing.T) {
	var e util.ErrorLogger
	LoadPresets(strings.NewReader("not yaml: [unclosed"), &e)
	if !e.HaveErrors() {
		t.Errorf("expected a parse error")
	}
}

func TestPresetsClone(t *testing.T) {
	p := DefaultPresets()
	q := p.Clone()
	q["scenic"] = 999
	if a := p.Altitude("scenic"); a != 350 {
		t.Errorf("clone aliases original: got %v", a)
	}
}
