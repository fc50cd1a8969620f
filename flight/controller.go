// flight/controller.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package flight drives the camera through the three autopilot motion
// modes: linear waypoint flight, orbiting a point, and flying a smooth
// curve while locked on a target. At most one mode is active at a time;
// starting a new one force-stops whatever is running first, and every
// stop releases the input lock and detaches the mode's tick listener.
// Altitudes and speeds come from the planner package so that all three
// modes respect the same terrain clearances.
package flight

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/derohimat/cesium-flight-simulator/log"
	"github.com/derohimat/cesium-flight-simulator/math"
	"github.com/derohimat/cesium-flight-simulator/metrics"
	"github.com/derohimat/cesium-flight-simulator/planner"
	"github.com/derohimat/cesium-flight-simulator/terrain"
)

type Mode int

const (
	ModeIdle Mode = iota
	ModeLinear
	ModeOrbit
	ModeLock
)

func (m Mode) String() string {
	return []string{"idle", "linear", "orbit", "lock"}[m]
}

// run is the live state shared by all modes: an id for logging, the
// channel closed when the run ends, and the tick subscription to detach
// when it does. A run ends exactly once, whether it completes on its
// own, is stopped explicitly, or is preempted by another mode.
type run struct {
	id   string
	mode Mode

	stopc  chan struct{}
	remove func()

	// onComplete fires only when the run finishes on its own rather
	// than being stopped or preempted.
	onComplete func()

	finished bool
}

// Controller arbitrates the camera between the flight modes. All
// methods are safe for concurrent use; motion itself advances only on
// clock ticks.
type Controller struct {
	mu  sync.Mutex
	cur *run

	cam   Camera
	clock Clock
	input InputLock
	guide GuideLine

	guideTarget  math.LLA
	guideVisible bool

	sampler  *terrain.Sampler
	altitude *planner.AltitudePlanner
	speed    *planner.SpeedGovernor

	lg *log.Logger
	mc *metrics.Collector
}

// New returns a Controller driving cam on the given clock. presets may
// be nil for the built-in altitude presets; lg and mc may be nil. If
// cam also implements GuideLine, the controller forwards guide line
// visibility to it.
func New(sampler *terrain.Sampler, presets planner.Presets, cam Camera, clock Clock,
	input InputLock, lg *log.Logger, mc *metrics.Collector) *Controller {
	if sampler == nil {
		sampler = terrain.NewSampler(nil, lg, mc)
	}

	c := &Controller{
		cam:      cam,
		clock:    clock,
		input:    input,
		sampler:  sampler,
		altitude: planner.NewAltitudePlanner(sampler, presets, lg),
		speed:    planner.NewSpeedGovernor(sampler, mc),
		lg:       lg,
		mc:       mc,
	}
	c.guide, _ = cam.(GuideLine)
	c.mc.SetActiveMode(int(ModeIdle))
	return c
}

// ActiveMode returns the mode currently flying the camera, ModeIdle if
// none.
func (c *Controller) ActiveMode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == nil {
		return ModeIdle
	}
	return c.cur.mode
}

// IsActive reports whether any flight mode is running.
func (c *Controller) IsActive() bool {
	return c.ActiveMode() != ModeIdle
}

// Stop halts whichever mode is active; stopping an idle controller is a
// no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.stopLocked("stopped")
	c.mu.Unlock()
}

// StopOrbit stops an active orbit. Other modes are unaffected and a
// second call is a no-op.
func (c *Controller) StopOrbit() { c.stopMode(ModeOrbit) }

// StopLock stops an active target-lock run. Other modes are unaffected
// and a second call is a no-op.
func (c *Controller) StopLock() { c.stopMode(ModeLock) }

func (c *Controller) stopMode(m Mode) {
	c.mu.Lock()
	if c.cur != nil && c.cur.mode == m {
		c.stopLocked("stopped")
	}
	c.mu.Unlock()
}

// beginLocked force-stops any active run and installs a fresh one for
// mode, taking the input lock. The caller holds c.mu.
func (c *Controller) beginLocked(mode Mode) *run {
	c.stopLocked("preempted")

	r := &run{
		id:    uuid.NewString()[:8],
		mode:  mode,
		stopc: make(chan struct{}),
	}
	c.cur = r
	c.input.SetLocked(true)
	c.mc.RunStarted(mode.String())
	c.mc.SetActiveMode(int(mode))
	c.lg.Infof("%s: starting %s run", r.id, mode)
	return r
}

// stopLocked ends the active run, whatever its mode. The caller holds
// c.mu.
func (c *Controller) stopLocked(outcome string) {
	if c.cur != nil {
		c.finishLocked(c.cur, outcome)
	}
}

// finishLocked tears down r if it is still live: closes its stop
// channel, detaches its tick listener, and releases the input lock. It
// returns the completion callback to invoke, non-nil only when the run
// completed naturally. The caller holds c.mu and must invoke the
// returned callback after releasing it, since the callback may call
// back into the controller.
func (c *Controller) finishLocked(r *run, outcome string) func() {
	if r.finished {
		return nil
	}
	r.finished = true
	close(r.stopc)
	if r.remove != nil {
		r.remove()
		r.remove = nil
	}
	if c.cur == r {
		c.cur = nil
		c.input.SetLocked(false)
		c.mc.SetActiveMode(int(ModeIdle))
	}
	c.mc.RunFinished(r.mode.String(), outcome)
	c.lg.Infof("%s: %s run %s", r.id, r.mode, outcome)

	if outcome == "completed" {
		return r.onComplete
	}
	return nil
}

func (c *Controller) finish(r *run, outcome string) {
	c.mu.Lock()
	onComplete := c.finishLocked(r, outcome)
	c.mu.Unlock()
	if onComplete != nil {
		onComplete()
	}
}

// ShowGuideLine draws the camera-to-target guide if the camera supports
// one. The guide line is independent of the flight modes: starting and
// stopping runs leaves it alone.
func (c *Controller) ShowGuideLine(target math.LLA) {
	c.mu.Lock()
	c.guideTarget = target
	c.guideVisible = true
	g := c.guide
	c.mu.Unlock()
	c.lg.Debug("guide line shown", slog.Any("target", target))
	if g != nil {
		g.SetGuideLine(target, true)
	}
}

// HideGuideLine hides the guide line if it is shown.
func (c *Controller) HideGuideLine() {
	c.mu.Lock()
	target := c.guideTarget
	c.guideVisible = false
	g := c.guide
	c.mu.Unlock()
	c.lg.Debug("guide line hidden", slog.Any("target", target))
	if g != nil {
		g.SetGuideLine(target, false)
	}
}

// GuideLineVisible reports whether the guide line is currently shown.
func (c *Controller) GuideLineVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.guideVisible
}

// AutoAltitude analyzes the terrain around a point and recommends a
// flight altitude for it.
func (c *Controller) AutoAltitude(lon, lat, radius float64) planner.AltitudeRecommendation {
	return c.altitude.AutoAltitude(lon, lat, radius)
}

// AutoAltitudeForPath recommends a single altitude for a whole path.
func (c *Controller) AutoAltitudeForPath(wps []planner.Waypoint) float64 {
	return c.altitude.AutoAltitudeForPath(wps)
}

// PresetAltitude resolves a named altitude preset.
func (c *Controller) PresetAltitude(name string) float64 {
	return c.altitude.PresetAltitude(name)
}

// AllPresets returns a copy of the altitude presets.
func (c *Controller) AllPresets() planner.Presets {
	return c.altitude.AllPresets()
}
