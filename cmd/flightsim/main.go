// cmd/flightsim/main.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// flightsim exercises the flight engine from the command line: it loads
// terrain tiles and altitude presets, plans a route over a waypoint
// file, and flies one of the camera modes against a console camera that
// prints poses as they happen. With -mode orbit the first waypoint is
// the orbit center; with -mode lock the route is flown with the camera
// held on -target.
package main

import (
	"context"
	"flag"
	"fmt"
	gomath "math"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/derohimat/cesium-flight-simulator/flight"
	"github.com/derohimat/cesium-flight-simulator/log"
	"github.com/derohimat/cesium-flight-simulator/math"
	"github.com/derohimat/cesium-flight-simulator/metrics"
	"github.com/derohimat/cesium-flight-simulator/planner"
	"github.com/derohimat/cesium-flight-simulator/terrain"
	"github.com/derohimat/cesium-flight-simulator/util"
)

var (
	flightMode   = flag.String("mode", "fly", "flight mode: fly, orbit, or lock")
	waypointFile = flag.String("waypoints", "", "YAML waypoint file, a list of {lat, lon} entries")
	lockTarget   = flag.String("target", "", "lock target as lon,lat[,alt]; without alt it sits on the terrain")

	tileDir = flag.String("tiles", "", "directory of terrain tiles")
	tileDB  = flag.String("tiledb", "", "SQLite terrain tile database")

	presetFile = flag.String("presets", "", "YAML altitude preset overrides")
	presetName = flag.String("preset", "", "fly at this altitude preset")
	altitude   = flag.Float64("altitude", 0, "altitude in meters; 0 picks one from the terrain")
	speed      = flag.Float64("speed", 0, "speed in m/s; 0 uses the default cruise speed")
	follow     = flag.Bool("follow", false, "plan terrain following altitudes along the route")
	adaptive   = flag.Bool("adaptive", false, "adapt each leg's speed to the terrain ahead")

	orbitRadius = flag.Float64("radius", flight.DefaultOrbitRadius, "orbit radius in meters")
	orbitStep   = flag.Float64("step", 2, "orbit sweep in degrees per tick")

	tickInterval = flag.Int("tick", 50, "clock tick interval in milliseconds")
	speedup      = flag.Float64("speedup", 1, "fly point-to-point legs this many times faster")
	listenAddr   = flag.String("listen", "", "address to serve Prometheus metrics on, e.g. :9100")
	logLevel     = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir       = flag.String("logdir", "", "directory to write logs to")
	quiet        = flag.Bool("quiet", false, "only print run summaries")
)

func main() {
	flag.Parse()

	lg := log.New(*logLevel, *logDir)

	wps, err := loadWaypoints(*waypointFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if len(wps) == 0 {
		fmt.Fprintf(os.Stderr, "usage: flightsim -waypoints <file.yaml> [options]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	provider, err := openProvider(lg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	presets := planner.DefaultPresets()
	if *presetFile != "" {
		f, err := os.Open(*presetFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		var e util.ErrorLogger
		presets = planner.LoadPresets(f, &e)
		f.Close()
		if e.HaveErrors() {
			e.PrintErrors(lg)
			os.Exit(1)
		}
	}

	var mc *metrics.Collector
	if *listenAddr != "" {
		if mc, err = metrics.New(nil); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", mc.Handler())
		go func() {
			if err := http.ListenAndServe(*listenAddr, mux); err != nil {
				lg.Errorf("%s: %v", *listenAddr, err)
			}
		}()
	}

	clock := flight.NewTickerClock(time.Duration(*tickInterval) * time.Millisecond)
	defer clock.Stop()

	s := &session{
		cam:     &consoleCamera{quiet: *quiet, speedup: gomath.Max(*speedup, 1e-3)},
		sampler: terrain.NewSampler(provider, lg, mc),
	}
	s.alt = planner.NewAltitudePlanner(s.sampler, presets, lg)
	s.c = flight.New(s.sampler, presets, s.cam, clock, &consoleInput{quiet: *quiet}, lg, mc)

	// ^C stops the active run and lets the summary print.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch *flightMode {
	case "fly":
		s.fly(ctx, wps)
	case "orbit":
		s.orbit(ctx, wps[0])
	case "lock":
		s.lock(ctx, wps)
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown mode (want fly, orbit, or lock)\n", *flightMode)
		os.Exit(1)
	}
}

type session struct {
	c       *flight.Controller
	cam     *consoleCamera
	sampler *terrain.Sampler
	alt     *planner.AltitudePlanner
}

func (s *session) fly(ctx context.Context, wps []planner.Waypoint) {
	alt := s.baseAltitude()
	if alt == 0 && !*follow {
		alt = s.c.AutoAltitudeForPath(wps)
		fmt.Printf("auto altitude for route: %.0f m\n", alt)
	}

	start := time.Now()
	s.c.FlyPath(ctx, wps, flight.PathOptions{
		Speed:         *speed,
		Altitude:      alt,
		TerrainFollow: *follow,
		AdaptiveSpeed: *adaptive,
	})

	var dist float64
	for i := 1; i < len(wps); i++ {
		dist += math.Distance(wps[i-1].Lon, wps[i-1].Lat, wps[i].Lon, wps[i].Lat)
	}
	fmt.Printf("flew %d waypoints, %s in %v\n", len(wps),
		humanize.SI(dist, "m"), time.Since(start).Round(time.Second))
}

func (s *session) orbit(ctx context.Context, center planner.Waypoint) {
	rec := s.c.AutoAltitude(center.Lon, center.Lat, 0)
	alt := s.baseAltitude()
	if alt == 0 {
		alt = rec.Altitude
	}
	fmt.Printf("%s terrain at %.0f m around the center; orbiting at %.0f m\n",
		rec.Scene, rec.TerrainHeight, alt)

	donec := make(chan struct{})
	start := time.Now()
	s.c.StartOrbit(center.Lat, center.Lon, alt, flight.OrbitOptions{
		Radius:     *orbitRadius,
		DegPerTick: *orbitStep,
		OnComplete: func() { close(donec) },
	})

	select {
	case <-donec:
		fmt.Printf("orbit complete in %v\n", time.Since(start).Round(time.Second))
	case <-ctx.Done():
		s.c.StopOrbit()
		fmt.Printf("orbit interrupted\n")
	}
}

func (s *session) lock(ctx context.Context, wps []planner.Waypoint) {
	target, err := s.parseTarget(*lockTarget)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if len(wps) < 2 {
		fmt.Fprintf(os.Stderr, "lock mode needs at least two waypoints\n")
		os.Exit(1)
	}

	base := s.baseAltitude()
	if base == 0 {
		base = s.alt.AutoAltitudeForPath(wps)
		fmt.Printf("auto altitude for route: %.0f m\n", base)
	}
	var path []planner.PathPoint
	if *follow {
		path = s.alt.AdjustPathForTerrainAvoidance(wps, base)
	} else {
		path = util.MapSlice(wps, func(wp planner.Waypoint) planner.PathPoint {
			return planner.PathPoint{Lat: wp.Lat, Lon: wp.Lon,
				Altitude: s.sampler.HeightAt(wp.Lon, wp.Lat) + base}
		})
	}

	s.c.ShowGuideLine(target.LLA())
	defer s.c.HideGuideLine()

	donec := make(chan struct{})
	start := time.Now()
	s.c.FlyPathWithTargetLock(path, target, flight.LockOptions{
		Speed:      *speed,
		OnComplete: func() { close(donec) },
	})
	select {
	case <-donec:
		fmt.Printf("target lock complete\n")
		return
	default:
	}
	if !s.c.IsActive() {
		fmt.Fprintf(os.Stderr, "target lock did not start\n")
		os.Exit(1)
	}

	select {
	case <-donec:
		fmt.Printf("target lock complete in %v\n", time.Since(start).Round(time.Second))
	case <-ctx.Done():
		s.c.StopLock()
		fmt.Printf("target lock interrupted\n")
	}
}

// baseAltitude resolves the -altitude and -preset flags; 0 means pick
// automatically.
func (s *session) baseAltitude() float64 {
	if *altitude > 0 {
		return *altitude
	}
	if *presetName != "" {
		return s.c.PresetAltitude(*presetName)
	}
	return 0
}

// parseTarget parses "lon,lat[,alt]". With no altitude the target sits
// on the terrain.
func (s *session) parseTarget(arg string) (planner.PathPoint, error) {
	if arg == "" {
		return planner.PathPoint{}, fmt.Errorf("lock mode needs -target lon,lat[,alt]")
	}
	f := strings.Split(arg, ",")
	if len(f) != 2 && len(f) != 3 {
		return planner.PathPoint{}, fmt.Errorf("%s: malformed target, want lon,lat[,alt]", arg)
	}

	var v [3]float64
	for i, c := range f {
		var err error
		if v[i], err = strconv.ParseFloat(strings.TrimSpace(c), 64); err != nil {
			return planner.PathPoint{}, fmt.Errorf("target %q: %v", c, err)
		}
	}

	p := planner.PathPoint{Lon: v[0], Lat: v[1], Altitude: v[2]}
	if len(f) == 2 {
		p.Altitude = s.sampler.HeightAt(p.Lon, p.Lat)
	}
	return p, nil
}

// openProvider opens whichever terrain source was given on the command
// line; with none, planning sees sea level everywhere.
func openProvider(lg *log.Logger) (terrain.Provider, error) {
	switch {
	case *tileDir != "" && *tileDB != "":
		return nil, fmt.Errorf("only one of -tiles and -tiledb may be given")

	case *tileDir != "":
		ts, err := terrain.OpenTileSet(*tileDir, lg)
		if err != nil {
			return nil, err
		}
		fmt.Printf("loaded %d terrain tiles from %s\n", ts.Count(), *tileDir)
		return ts, nil

	case *tileDB != "":
		return terrain.OpenSQLiteStore(*tileDB)

	default:
		return nil, nil
	}
}

// loadWaypoints reads a YAML list of {lat, lon} entries.
func loadWaypoints(path string) ([]planner.Waypoint, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var wps []planner.Waypoint
	if err := yaml.Unmarshal(b, &wps); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return wps, nil
}

// consoleCamera prints camera motion to stdout. FlyTo completions are
// scheduled on wall time, scaled down by the speedup factor; a newer
// camera command interrupts an in-flight animation.
type consoleCamera struct {
	mu      sync.Mutex
	quiet   bool
	speedup float64

	lastPrint time.Time

	timer    *time.Timer
	onCancel func()
}

func (cc *consoleCamera) SetView(p flight.Pose) {
	cc.mu.Lock()
	onCancel := cc.interruptLocked()
	show := !cc.quiet && time.Since(cc.lastPrint) >= 500*time.Millisecond
	if show {
		cc.lastPrint = time.Now()
	}
	cc.mu.Unlock()

	if onCancel != nil {
		onCancel()
	}
	if show {
		fmt.Printf("  %s\n", formatPose(p))
	}
}

func (cc *consoleCamera) FlyTo(p flight.Pose, duration float64, onComplete, onCancel func()) {
	cc.mu.Lock()
	interrupted := cc.interruptLocked()

	var timer *time.Timer
	timer = time.AfterFunc(time.Duration(float64(time.Second)*duration/cc.speedup), func() {
		cc.mu.Lock()
		if cc.timer == timer {
			cc.timer, cc.onCancel = nil, nil
		}
		cc.mu.Unlock()
		onComplete()
	})
	cc.timer, cc.onCancel = timer, onCancel
	quiet := cc.quiet
	cc.mu.Unlock()

	if interrupted != nil {
		interrupted()
	}
	if !quiet {
		fmt.Printf("flying %.0fs to %s\n", duration, formatPose(p))
	}
}

func (cc *consoleCamera) SetGuideLine(target math.LLA, visible bool) {
	if !cc.quiet {
		fmt.Printf("guide line to (%.6f, %.6f) %s\n", target.Lon, target.Lat,
			util.Select(visible, "shown", "hidden"))
	}
}

// interruptLocked stops any pending animation, returning its cancel
// callback if the completion hadn't fired yet. The caller holds cc.mu
// and invokes the callback after releasing it.
func (cc *consoleCamera) interruptLocked() func() {
	if cc.timer == nil {
		return nil
	}
	timer, onCancel := cc.timer, cc.onCancel
	cc.timer, cc.onCancel = nil, nil
	if timer.Stop() {
		return onCancel
	}
	return nil
}

func formatPose(p flight.Pose) string {
	o := p.Orientation
	if o.HasFrame() {
		return fmt.Sprintf("(%.6f, %.6f) alt %5.0f m, on target",
			p.Position.Lon, p.Position.Lat, p.Position.Alt)
	}
	return fmt.Sprintf("(%.6f, %.6f) alt %5.0f m, hdg %3.0f pitch %3.0f",
		p.Position.Lon, p.Position.Lat, p.Position.Alt, o.Heading, o.Pitch)
}

// consoleInput stands in for the interactive camera controls; it just
// reports lock transitions.
type consoleInput struct {
	quiet bool
}

func (ci *consoleInput) SetLocked(locked bool) {
	if !ci.quiet {
		fmt.Printf("manual camera input %s\n", util.Select(locked, "locked", "unlocked"))
	}
}
