// flight/controller_test.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flight

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/derohimat/cesium-flight-simulator/math"
	"github.com/derohimat/cesium-flight-simulator/metrics"
	"github.com/derohimat/cesium-flight-simulator/planner"
	"github.com/derohimat/cesium-flight-simulator/terrain"
)

// fakeClock delivers ticks on demand and tracks listener registration.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	subs map[int]func(time.Time)
	next int
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1000, 0), subs: make(map[int]func(time.Time))}
}

func (fc *fakeClock) Now() time.Time {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.now
}

func (fc *fakeClock) OnTick(fn func(time.Time)) func() {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	id := fc.next
	fc.next++
	fc.subs[id] = fn
	return func() {
		fc.mu.Lock()
		defer fc.mu.Unlock()
		delete(fc.subs, id)
	}
}

// tick advances the clock by dt and fires the currently registered
// listeners.
func (fc *fakeClock) tick(dt time.Duration) {
	fc.mu.Lock()
	fc.now = fc.now.Add(dt)
	now := fc.now
	fns := make([]func(time.Time), 0, len(fc.subs))
	for _, fn := range fc.subs {
		fns = append(fns, fn)
	}
	fc.mu.Unlock()

	for _, fn := range fns {
		fn(now)
	}
}

func (fc *fakeClock) listeners() int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return len(fc.subs)
}

type flyReq struct {
	pose       Pose
	duration   float64
	onComplete func()
	onCancel   func()
}

// fakeCamera records poses and hands FlyTo requests to the test so it
// can resolve legs by hand.
type fakeCamera struct {
	mu          sync.Mutex
	views       []Pose
	guideOn     bool
	guideTarget math.LLA

	legs chan flyReq
}

func newFakeCamera() *fakeCamera {
	return &fakeCamera{legs: make(chan flyReq, 16)}
}

func (fc *fakeCamera) SetView(p Pose) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.views = append(fc.views, p)
}

func (fc *fakeCamera) FlyTo(p Pose, duration float64, onComplete, onCancel func()) {
	fc.legs <- flyReq{pose: p, duration: duration, onComplete: onComplete, onCancel: onCancel}
}

func (fc *fakeCamera) SetGuideLine(target math.LLA, visible bool) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.guideTarget = target
	fc.guideOn = visible
}

func (fc *fakeCamera) nextLeg(t *testing.T) flyReq {
	t.Helper()
	select {
	case req := <-fc.legs:
		return req
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a camera leg")
		return flyReq{}
	}
}

func (fc *fakeCamera) viewCount() int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return len(fc.views)
}

func (fc *fakeCamera) lastView(t *testing.T) Pose {
	t.Helper()
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if len(fc.views) == 0 {
		t.Fatal("no views recorded")
	}
	return fc.views[len(fc.views)-1]
}

func (fc *fakeCamera) guideVisible() bool {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.guideOn
}

type fakeInput struct {
	mu     sync.Mutex
	locked bool
	sets   int
}

func (fi *fakeInput) SetLocked(locked bool) {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	fi.locked = locked
	fi.sets++
}

func (fi *fakeInput) isLocked() bool {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	return fi.locked
}

func (fi *fakeInput) setCount() int {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	return fi.sets
}

func newTestController() (*Controller, *fakeCamera, *fakeClock, *fakeInput) {
	return newTestControllerOver(terrain.ConstantProvider(0))
}

func newTestControllerOver(p terrain.Provider) (*Controller, *fakeCamera, *fakeClock, *fakeInput) {
	cam := newFakeCamera()
	clock := newFakeClock()
	input := &fakeInput{}
	c := New(terrain.NewSampler(p, nil, nil), nil, cam, clock, input, nil, nil)
	return c, cam, clock, input
}

func TestModeString(t *testing.T) {
	for m, expected := range map[Mode]string{
		ModeIdle: "idle", ModeLinear: "linear", ModeOrbit: "orbit", ModeLock: "lock",
	} {
		if s := m.String(); s != expected {
			t.Errorf("got %q, expected %q", s, expected)
		}
	}
}

func TestControllerStartsIdle(t *testing.T) {
	c, _, clock, input := newTestController()
	if c.IsActive() {
		t.Errorf("new controller is active")
	}
	if c.ActiveMode() != ModeIdle {
		t.Errorf("got %s, expected idle", c.ActiveMode())
	}
	if input.setCount() != 0 {
		t.Errorf("input touched before any run")
	}

	// Stopping with nothing active is harmless.
	c.Stop()
	c.StopOrbit()
	c.StopLock()
	if clock.listeners() != 0 {
		t.Errorf("got %d tick listeners, expected 0", clock.listeners())
	}
}

func TestGuideLineIndependentOfModes(t *testing.T) {
	c, cam, clock, _ := newTestController()

	target := math.LLA{Lon: -122.3, Lat: 37.7, Alt: 50}
	c.ShowGuideLine(target)
	if !c.GuideLineVisible() || !cam.guideVisible() {
		t.Errorf("guide line not shown")
	}

	c.StartOrbit(37.6, -122.4, 300, OrbitOptions{DegPerTick: 10})
	clock.tick(16 * time.Millisecond)
	c.Stop()
	if !c.GuideLineVisible() || !cam.guideVisible() {
		t.Errorf("starting and stopping a run hid the guide line")
	}

	c.HideGuideLine()
	if c.GuideLineVisible() || cam.guideVisible() {
		t.Errorf("guide line still shown after hide")
	}
}

func TestPlannerQueries(t *testing.T) {
	c, _, _, _ := newTestController()

	if a := c.PresetAltitude("scenic"); a != 350 {
		t.Errorf("scenic preset: got %v, expected 350", a)
	}
	if a := c.AllPresets()["high"]; a != 1000 {
		t.Errorf("high preset: got %v, expected 1000", a)
	}
	if a := c.AutoAltitudeForPath(nil); a != planner.DefaultBaseAltitude {
		t.Errorf("empty path: got %v, expected %v", a, planner.DefaultBaseAltitude)
	}

	// Constant sea level terrain reads as coastal.
	rec := c.AutoAltitude(-122.4, 37.6, 0)
	if rec.Scene != planner.SceneCoastal || rec.Altitude != 120 {
		t.Errorf("got %+v, expected coastal at 120", rec)
	}
}

func TestControllerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	mc, err := metrics.New(reg)
	if err != nil {
		t.Fatalf("metrics.New: %v", err)
	}

	cam := newFakeCamera()
	clock := newFakeClock()
	input := &fakeInput{}
	c := New(terrain.NewSampler(terrain.ConstantProvider(0), nil, nil), nil, cam, clock, input, nil, mc)

	c.StartOrbit(37.6, -122.4, 300, OrbitOptions{DegPerTick: 90})
	if v := testutil.ToFloat64(mc.ActiveMode); v != float64(ModeOrbit) {
		t.Errorf("active mode gauge: got %v, expected %v", v, float64(ModeOrbit))
	}

	for i := 0; i < 4; i++ {
		clock.tick(16 * time.Millisecond)
	}

	if v := testutil.ToFloat64(mc.RunsStarted.WithLabelValues("orbit")); v != 1 {
		t.Errorf("runs started: got %v, expected 1", v)
	}
	if v := testutil.ToFloat64(mc.RunsFinished.WithLabelValues("orbit", "completed")); v != 1 {
		t.Errorf("runs finished: got %v, expected 1", v)
	}
	if v := testutil.ToFloat64(mc.ActiveMode); v != float64(ModeIdle) {
		t.Errorf("active mode gauge after completion: got %v, expected 0", v)
	}
}
