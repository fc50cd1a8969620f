// flight/lock_test.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flight

import (
	gomath "math"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/derohimat/cesium-flight-simulator/planner"
)

func lockPath() []planner.PathPoint {
	return []planner.PathPoint{
		{Lat: 37.60, Lon: -122.40, Altitude: 300},
		{Lat: 37.61, Lon: -122.39, Altitude: 320},
		{Lat: 37.62, Lon: -122.38, Altitude: 300},
	}
}

func pathLength(path []planner.PathPoint) float64 {
	var length float64
	for i := 1; i < len(path); i++ {
		length += r3.Norm(path[i].LLA().ECEF().Sub(path[i-1].LLA().ECEF()))
	}
	return length
}

func TestTargetLockFacesTarget(t *testing.T) {
	c, cam, clock, input := newTestController()

	path := lockPath()
	target := planner.PathPoint{Lat: 37.61, Lon: -122.35, Altitude: 0}
	completions := 0
	c.FlyPathWithTargetLock(path, target, LockOptions{Duration: 10,
		OnComplete: func() { completions++ }})

	if c.ActiveMode() != ModeLock {
		t.Fatalf("got %s, expected lock", c.ActiveMode())
	}
	if !input.isLocked() {
		t.Errorf("input not locked during lock run")
	}
	if clock.listeners() != 1 {
		t.Fatalf("got %d tick listeners, expected 1", clock.listeners())
	}

	clock.tick(2500 * time.Millisecond)
	pose := cam.lastView(t)
	if !pose.Orientation.HasFrame() {
		t.Fatalf("pose carries no view frame: %+v", pose.Orientation)
	}

	pos := pose.Position.ECEF()
	want := r3.Unit(target.LLA().ECEF().Sub(pos))
	if d := r3.Norm(pose.Orientation.Direction.Sub(want)); d > 1e-6 {
		t.Errorf("direction off target by %v", d)
	}
	up := pose.Orientation.Up
	if gomath.Abs(r3.Norm(up)-1) > 1e-9 {
		t.Errorf("up not unit length: %v", r3.Norm(up))
	}
	if dot := up.Dot(pose.Orientation.Direction); gomath.Abs(dot) > 1e-9 {
		t.Errorf("up not orthogonal to direction: %v", dot)
	}
	// Up should point away from the planet, not into it.
	if up.Dot(r3.Unit(pos)) <= 0 {
		t.Errorf("up points below the horizon")
	}

	// Lock runs are not awaited; the starter sees completion only via
	// the callback once elapsed time passes the duration.
	clock.tick(8 * time.Second)
	if completions != 1 {
		t.Errorf("got %d completions, expected 1", completions)
	}
	if c.IsActive() || input.isLocked() || clock.listeners() != 0 {
		t.Errorf("lock run not torn down after completing")
	}

	// The final pose is the end of the path.
	end := path[len(path)-1]
	final := cam.lastView(t)
	if gomath.Abs(final.Position.Lat-end.Lat) > 1e-6 ||
		gomath.Abs(final.Position.Lon-end.Lon) > 1e-6 ||
		gomath.Abs(final.Position.Alt-end.Altitude) > 1e-3 {
		t.Errorf("final position: got %v, expected %+v", final.Position, end)
	}

	views := cam.viewCount()
	clock.tick(time.Second)
	if cam.viewCount() != views || completions != 1 {
		t.Errorf("lock run still live after completion")
	}
}

func TestTargetLockDurationFromSpeed(t *testing.T) {
	c, _, clock, _ := newTestController()

	path := []planner.PathPoint{
		{Lat: 37, Lon: -122.40, Altitude: 300},
		{Lat: 37, Lon: -122.38, Altitude: 300},
	}
	target := planner.PathPoint{Lat: 37.01, Lon: -122.39, Altitude: 0}
	duration := pathLength(path) / 120 // about 15s

	// Speed overrides the given duration outright.
	c.FlyPathWithTargetLock(path, target, LockOptions{Speed: 120, Duration: 1})
	clock.tick(14 * time.Second)
	if !c.IsActive() {
		t.Fatalf("run ended before the speed-derived duration %v", duration)
	}
	clock.tick(2 * time.Second)
	if c.IsActive() {
		t.Errorf("run still active past the speed-derived duration %v", duration)
	}
}

func TestTargetLockDefaultDuration(t *testing.T) {
	c, _, clock, _ := newTestController()

	path := []planner.PathPoint{
		{Lat: 37, Lon: -122.40, Altitude: 300},
		{Lat: 37, Lon: -122.38, Altitude: 300},
	}
	target := planner.PathPoint{Lat: 37.01, Lon: -122.39, Altitude: 0}

	// Neither speed nor duration given: the default cruise speed over
	// the path length, about 29.6s here.
	c.FlyPathWithTargetLock(path, target, LockOptions{})
	clock.tick(29 * time.Second)
	if !c.IsActive() {
		t.Fatalf("run ended before the default duration")
	}
	clock.tick(time.Second)
	if c.IsActive() {
		t.Errorf("run still active past the default duration")
	}
}

func TestTargetLockShortPathNoOp(t *testing.T) {
	c, cam, clock, input := newTestController()

	target := planner.PathPoint{Lat: 37.61, Lon: -122.35, Altitude: 0}
	c.FlyPathWithTargetLock(lockPath()[:1], target, LockOptions{Duration: 10})

	if c.IsActive() {
		t.Errorf("active after a 1-point path")
	}
	if input.setCount() != 0 {
		t.Errorf("input touched by a 1-point path")
	}
	if clock.listeners() != 0 || cam.viewCount() != 0 {
		t.Errorf("1-point path left state behind")
	}

	// A degenerate path with zero length is also rejected.
	p := lockPath()[0]
	c.FlyPathWithTargetLock([]planner.PathPoint{p, p}, target, LockOptions{})
	if c.IsActive() {
		t.Errorf("active after a zero-length path")
	}
}

func TestTargetLockIgnoredWhileLockActive(t *testing.T) {
	c, _, clock, _ := newTestController()

	target := planner.PathPoint{Lat: 37.61, Lon: -122.35, Altitude: 0}
	c.FlyPathWithTargetLock(lockPath(), target, LockOptions{Duration: 100})

	second := 0
	c.FlyPathWithTargetLock(lockPath(), target, LockOptions{Duration: 1,
		OnComplete: func() { second++ }})
	if clock.listeners() != 1 {
		t.Errorf("got %d tick listeners, expected 1", clock.listeners())
	}

	// If the second request had been accepted it would complete here.
	clock.tick(2 * time.Second)
	if second != 0 {
		t.Errorf("ignored lock request ran anyway")
	}
	if !c.IsActive() {
		t.Errorf("original lock run ended early")
	}
	c.StopLock()
}

func TestOrbitPreemptsLock(t *testing.T) {
	c, _, clock, input := newTestController()

	lockDone := 0
	target := planner.PathPoint{Lat: 37.61, Lon: -122.35, Altitude: 0}
	c.FlyPathWithTargetLock(lockPath(), target, LockOptions{Duration: 100,
		OnComplete: func() { lockDone++ }})
	if clock.listeners() != 1 {
		t.Fatalf("got %d tick listeners, expected 1", clock.listeners())
	}

	orbitDone := 0
	c.StartOrbit(37.6, -122.4, 300, OrbitOptions{DegPerTick: 10,
		OnComplete: func() { orbitDone++ }})

	// The lock listener is detached and the orbit's attached.
	if clock.listeners() != 1 {
		t.Errorf("got %d tick listeners, expected 1", clock.listeners())
	}
	if c.ActiveMode() != ModeOrbit {
		t.Errorf("got %s, expected orbit", c.ActiveMode())
	}
	if !input.isLocked() {
		t.Errorf("input unlocked across the transition")
	}

	for i := 0; i < 36; i++ {
		clock.tick(frame)
	}
	if orbitDone != 1 {
		t.Errorf("got %d orbit completions, expected 1", orbitDone)
	}
	if lockDone != 0 {
		t.Errorf("preempted lock run completed anyway")
	}
}

func TestStopLockIdempotent(t *testing.T) {
	c, cam, clock, input := newTestController()

	target := planner.PathPoint{Lat: 37.61, Lon: -122.35, Altitude: 0}
	c.FlyPathWithTargetLock(lockPath(), target, LockOptions{Duration: 100})
	clock.tick(time.Second)

	c.StopLock()
	if c.IsActive() || input.isLocked() || clock.listeners() != 0 {
		t.Fatalf("lock run not fully stopped")
	}
	views := cam.viewCount()

	c.StopLock()
	if c.IsActive() || input.isLocked() || clock.listeners() != 0 {
		t.Errorf("second stop changed state")
	}
	clock.tick(time.Second)
	if cam.viewCount() != views {
		t.Errorf("camera moved after stop")
	}
}

func TestStopOrbitLeavesLockAlone(t *testing.T) {
	c, _, clock, _ := newTestController()

	target := planner.PathPoint{Lat: 37.61, Lon: -122.35, Altitude: 0}
	c.FlyPathWithTargetLock(lockPath(), target, LockOptions{Duration: 100})

	c.StopOrbit()
	if c.ActiveMode() != ModeLock {
		t.Errorf("stop orbit affected a lock run")
	}
	if clock.listeners() != 1 {
		t.Errorf("got %d tick listeners, expected 1", clock.listeners())
	}
	c.Stop()
}
