// planner/scene.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package planner

// SceneType is a coarse terrain-roughness label derived from the spread
// between sampled heights around a point. It picks the altitude formula
// and how much the recommendation is trusted.
type SceneType int

const (
	SceneFlat SceneType = iota
	SceneHilly
	SceneUrban
	SceneMountainous
	SceneCoastal
)

func (s SceneType) String() string {
	switch s {
	case SceneFlat:
		return "flat"
	case SceneHilly:
		return "hilly"
	case SceneUrban:
		return "urban"
	case SceneMountainous:
		return "mountainous"
	case SceneCoastal:
		return "coastal"
	default:
		return "unknown"
	}
}

// terrainStats summarizes the heights sampled around a point.
type terrainStats struct {
	min, max, avg float64
	variation     float64 // max - min
}

func classifyScene(st terrainStats) SceneType {
	// Low relief near sea level reads as coastline regardless of which
	// variation bucket it lands in.
	if st.min < 5 && st.avg < 50 {
		return SceneCoastal
	}

	switch {
	case st.variation < 20:
		return SceneFlat
	case st.variation < 100:
		return SceneHilly
	case st.variation < 500:
		return SceneUrban
	default:
		return SceneMountainous
	}
}
