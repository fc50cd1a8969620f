// flight/lock.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flight

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/derohimat/cesium-flight-simulator/math"
	"github.com/derohimat/cesium-flight-simulator/planner"
	"github.com/derohimat/cesium-flight-simulator/util"
)

// LockOptions adjust a target-lock run. A positive Speed derives the
// run duration from the path length and overrides Duration.
type LockOptions struct {
	Speed      float64 // m/s along the path
	Duration   float64 // seconds
	OnComplete func()
}

// lockRun is the live state of a target-lock run: the fitted curve
// through the path, the fixed target, and the start time.
type lockRun struct {
	curve    *math.Curve3
	target   r3.Vec // ECEF
	start    time.Time
	duration float64
}

// FlyPathWithTargetLock flies the camera along a smooth curve through
// path while keeping it pointed at target. The run duration comes from
// opts.Speed when positive, else opts.Duration, else the default cruise
// speed over the path length. Paths shorter than two points are
// ignored, as are calls while another lock run is active. Returns
// immediately; the run advances on clock ticks and calls
// opts.OnComplete when the curve has been flown to its end.
func (c *Controller) FlyPathWithTargetLock(path []planner.PathPoint, target planner.PathPoint, opts LockOptions) {
	if len(path) < 2 {
		c.lg.Debugf("ignoring target lock request with %d path points", len(path))
		return
	}

	pts := util.MapSlice(path, func(p planner.PathPoint) r3.Vec { return p.LLA().ECEF() })
	var length float64
	for i := 1; i < len(pts); i++ {
		length += r3.Norm(r3.Sub(pts[i], pts[i-1]))
	}

	duration := opts.Duration
	if opts.Speed > 0 {
		duration = length / opts.Speed
	} else if duration <= 0 {
		duration = length / planner.DefaultSpeed
	}

	curve, err := math.FitCurve3(pts, duration)
	if err != nil {
		c.lg.Warnf("target lock path rejected: %v", err)
		return
	}

	c.mu.Lock()
	if c.cur != nil && c.cur.mode == ModeLock {
		c.mu.Unlock()
		c.lg.Debugf("ignoring target lock request: lock run already active")
		return
	}
	r := c.beginLocked(ModeLock)
	r.onComplete = opts.OnComplete
	l := &lockRun{
		curve:    curve,
		target:   target.LLA().ECEF(),
		start:    c.clock.Now(),
		duration: duration,
	}
	r.remove = c.clock.OnTick(func(now time.Time) { c.lockTick(r, l, now) })
	c.mu.Unlock()
}

func (c *Controller) lockTick(r *run, l *lockRun, now time.Time) {
	c.mu.Lock()
	if c.cur != r {
		c.mu.Unlock()
		return
	}

	elapsed := now.Sub(l.start).Seconds()
	pos := l.curve.At(elapsed)

	pose := Pose{Position: math.ECEFToLLA(pos)}
	if dir := r3.Sub(l.target, pos); r3.Norm(dir) > 1e-6 {
		dir = r3.Unit(dir)
		upRef := r3.Unit(pos)
		right := r3.Cross(dir, upRef)
		if r3.Norm(right) < 1e-9 {
			// Looking straight along the local vertical; fall back to
			// the local east axis for the right vector.
			ll := pose.Position
			right, _, _ = math.ENUFrame(ll.Lon, ll.Lat)
		}
		right = r3.Unit(right)
		pose.Orientation = Orientation{
			Direction: dir,
			Up:        r3.Unit(r3.Cross(right, dir)),
		}
	}

	var onComplete func()
	if elapsed >= l.duration {
		onComplete = c.finishLocked(r, "completed")
	}
	c.mu.Unlock()

	c.cam.SetView(pose)
	if onComplete != nil {
		onComplete()
	}
}
