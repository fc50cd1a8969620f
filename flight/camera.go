// flight/camera.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flight

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/derohimat/cesium-flight-simulator/math"
)

// Orientation describes where the camera points. Heading, Pitch, and
// Roll are in degrees; heading is measured clockwise from true north
// and a negative pitch looks down. When Direction is set, it and Up
// carry a full ECEF view frame that takes precedence over the angles.
type Orientation struct {
	Heading float64
	Pitch   float64
	Roll    float64

	Direction r3.Vec
	Up        r3.Vec
}

// HasFrame reports whether the orientation carries an explicit ECEF
// direction/up frame rather than Euler angles.
func (o Orientation) HasFrame() bool {
	return o.Direction != (r3.Vec{})
}

// Pose is a camera position and orientation.
type Pose struct {
	Position    math.LLA
	Orientation Orientation
}

// Camera is the pose sink the controller drives. SetView applies a pose
// immediately. FlyTo animates toward a pose over the given duration in
// seconds and then invokes exactly one of onComplete or onCancel,
// depending on whether the animation ran to the end or was interrupted
// by a newer camera command.
type Camera interface {
	SetView(p Pose)
	FlyTo(p Pose, duration float64, onComplete func(), onCancel func())
}

// GuideLine is optionally implemented by a Camera that can draw a
// visual aid from the viewpoint to a point of interest. It is pure
// presentation; the controller never reads it back.
type GuideLine interface {
	SetGuideLine(target math.LLA, visible bool)
}

// Clock delivers one callback per rendered frame. OnTick returns a
// function that removes the subscription; calling it more than once is
// harmless.
type Clock interface {
	Now() time.Time
	OnTick(fn func(now time.Time)) (remove func())
}

// InputLock is the advisory flag read by the manual camera controls;
// locked means a flight mode owns the camera.
type InputLock interface {
	SetLocked(locked bool)
}
