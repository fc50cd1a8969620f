// flight/linear.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flight

import (
	"context"
	gomath "math"

	"github.com/brunoga/deep"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/derohimat/cesium-flight-simulator/planner"
	"github.com/derohimat/cesium-flight-simulator/util"
)

const (
	// Cruise pitch during waypoint-to-waypoint flight, degrees.
	linearPitch = -15

	// Every leg gets at least this many seconds so that short hops
	// don't snap the camera.
	minLegSeconds = 3
)

// PathOptions adjust a linear waypoint run.
type PathOptions struct {
	// Speed in m/s, clamped to the governor's bounds; zero means the
	// default cruise speed.
	Speed float64

	// Altitude in meters; zero means the default base altitude. With
	// TerrainFollow off this is height above the terrain at each
	// waypoint, with it on it is the floor altitude handed to the
	// terrain avoidance pass.
	Altitude float64

	// TerrainFollow plans per-point safe altitudes with lookahead and
	// smoothing instead of a constant height above each waypoint.
	TerrainFollow bool

	// AdaptiveSpeed re-derives the speed of each leg from the terrain
	// roughness ahead of it.
	AdaptiveSpeed bool
}

// FlyPath flies the camera through waypoints in order, blocking until
// the run completes, is stopped or preempted, or ctx is canceled. The
// input lock is held for the whole run and released however the run
// ends. An empty waypoint list is a no-op, as is calling FlyPath while
// another linear run is active.
func (c *Controller) FlyPath(ctx context.Context, waypoints []planner.Waypoint, opts PathOptions) {
	if len(waypoints) == 0 {
		return
	}

	c.mu.Lock()
	if c.cur != nil && c.cur.mode == ModeLinear {
		c.mu.Unlock()
		c.lg.Debugf("ignoring fly path request: linear run already active")
		return
	}
	r := c.beginLocked(ModeLinear)
	c.mu.Unlock()

	outcome := "completed"
	defer func() { c.finish(r, outcome) }()

	// The caller keeps its slice; the run plans against a snapshot.
	wps := deep.MustCopy(waypoints)

	speed := c.speed.ClampSpeed(util.Select(opts.Speed > 0, opts.Speed, planner.DefaultSpeed))
	base := util.Select(opts.Altitude > 0, opts.Altitude, planner.DefaultBaseAltitude)

	var pts []planner.PathPoint
	if opts.TerrainFollow {
		pts = c.altitude.AdjustPathForTerrainAvoidance(wps, base)
	} else {
		pts = util.MapSlice(wps, func(wp planner.Waypoint) planner.PathPoint {
			return planner.PathPoint{Lat: wp.Lat, Lon: wp.Lon,
				Altitude: c.sampler.HeightAt(wp.Lon, wp.Lat) + base}
		})
	}

	for i, pt := range pts {
		legSpeed := speed
		heading := 0.0
		duration := float64(minLegSeconds)

		if i > 0 {
			prev := pts[i-1]
			heading = prev.LLA().BearingTo(pt.LLA())
			if opts.AdaptiveSpeed {
				legSpeed = c.speed.DynamicSpeed(prev.Lon, prev.Lat, heading, pt.Altitude)
			}
			dist := r3.Norm(pt.LLA().ECEF().Sub(prev.LLA().ECEF()))
			duration = gomath.Max(minLegSeconds, dist/legSpeed)
		} else if len(pts) > 1 {
			// Arrive at the first point already facing the second.
			heading = pt.LLA().BearingTo(pts[1].LLA())
		}

		pose := Pose{
			Position:    pt.LLA(),
			Orientation: Orientation{Heading: heading, Pitch: linearPitch},
		}
		if !c.flyLeg(ctx, r, pose, duration) {
			outcome = "canceled"
			return
		}
		c.mc.LegFlown(duration)
	}
}

// flyLeg animates one leg and blocks until the camera reports the
// animation complete. It returns false if the leg ended any other way:
// the camera canceled the animation, the run was stopped or preempted,
// or ctx was canceled.
func (c *Controller) flyLeg(ctx context.Context, r *run, pose Pose, duration float64) bool {
	select {
	case <-r.stopc:
		return false
	case <-ctx.Done():
		return false
	default:
	}

	legc := make(chan bool, 1)
	resolve := func(completed bool) {
		select {
		case legc <- completed:
		default:
		}
	}
	c.cam.FlyTo(pose, duration, func() { resolve(true) }, func() { resolve(false) })

	select {
	case completed := <-legc:
		return completed
	case <-r.stopc:
		return false
	case <-ctx.Done():
		return false
	}
}
