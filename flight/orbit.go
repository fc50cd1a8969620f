// flight/orbit.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flight

import (
	gomath "math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/derohimat/cesium-flight-simulator/math"
)

const (
	// Orbit camera pitch in degrees, looking down at the center.
	orbitPitch = -30

	DefaultOrbitRadius     = 500 // meters
	DefaultOrbitDegPerTick = 0.5 // degrees of sweep per frame
)

// OrbitOptions adjust an orbit run. Zero values take the defaults; a
// negative DegPerTick orbits counterclockwise.
type OrbitOptions struct {
	Radius     float64
	DegPerTick float64
	OnComplete func()
}

// orbitRun is the live state of an orbit: the fixed center and its
// local frame, plus the accumulated sweep.
type orbitRun struct {
	center           r3.Vec // ECEF
	east, north, up  r3.Vec
	radius           float64
	degPerTick       float64
	heading          float64
	totalRotationDeg float64
}

// StartOrbit sweeps the camera around the point at (lat, lon, altitude)
// holding the given radius and a fixed downward pitch, advancing the
// heading every clock tick until a full revolution has accumulated;
// then the orbit stops itself and calls opts.OnComplete. Any active
// run, including another orbit, is stopped first. StartOrbit returns
// immediately; the orbit advances on clock ticks.
func (c *Controller) StartOrbit(lat, lon, altitude float64, opts OrbitOptions) {
	if opts.Radius <= 0 {
		opts.Radius = DefaultOrbitRadius
	}
	if opts.DegPerTick == 0 {
		opts.DegPerTick = DefaultOrbitDegPerTick
	}

	center := math.LLA{Lon: lon, Lat: lat, Alt: altitude}
	east, north, up := math.ENUFrame(lon, lat)

	c.mu.Lock()
	r := c.beginLocked(ModeOrbit)
	r.onComplete = opts.OnComplete
	o := &orbitRun{
		center:     center.ECEF(),
		east:       east,
		north:      north,
		up:         up,
		radius:     opts.Radius,
		degPerTick: opts.DegPerTick,
	}
	pose := o.pose()
	r.remove = c.clock.OnTick(func(now time.Time) { c.orbitTick(r, o) })
	c.mu.Unlock()

	c.cam.SetView(pose)
}

func (c *Controller) orbitTick(r *run, o *orbitRun) {
	c.mu.Lock()
	if c.cur != r {
		c.mu.Unlock()
		return
	}

	o.heading = math.NormalizeHeading(o.heading + o.degPerTick)
	o.totalRotationDeg += math.Abs(o.degPerTick)
	pose := o.pose()

	var onComplete func()
	if o.totalRotationDeg >= 360 {
		onComplete = c.finishLocked(r, "completed")
	}
	c.mu.Unlock()

	c.cam.SetView(pose)
	if onComplete != nil {
		onComplete()
	}
}

// pose places the camera radius meters from the center looking back at
// it: the view direction from camera to center has the run's current
// heading and the fixed orbit pitch, so the camera sits at -radius
// along that direction in the center's local frame.
func (o *orbitRun) pose() Pose {
	h, p := math.Radians(o.heading), math.Radians(orbitPitch)
	de := -o.radius * gomath.Sin(h) * gomath.Cos(p)
	dn := -o.radius * gomath.Cos(h) * gomath.Cos(p)
	du := -o.radius * gomath.Sin(p)

	pos := r3.Add(r3.Add(r3.Add(o.center, r3.Scale(de, o.east)), r3.Scale(dn, o.north)), r3.Scale(du, o.up))
	return Pose{
		Position:    math.ECEFToLLA(pos),
		Orientation: Orientation{Heading: o.heading, Pitch: orbitPitch},
	}
}
