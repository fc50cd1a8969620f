// math/curve.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"fmt"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/spatial/r3"
)

// Curve3 is a smooth parametric curve through a sequence of 3D points,
// built from independent natural cubic splines in x, y, and z with knots
// evenly spaced over [0, Duration]. It interpolates its control points
// exactly and has a continuous second derivative, so camera motion along
// it stays free of velocity pops at the knots.
type Curve3 struct {
	x, y, z  interp.NaturalCubic
	duration float64
}

// FitCurve3 fits a curve through points, parameterized over
// [0, duration]. It returns an error if fewer than two points are given
// or duration is not positive.
func FitCurve3(points []r3.Vec, duration float64) (*Curve3, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("fitting a curve takes at least 2 points, given %d", len(points))
	}
	if duration <= 0 {
		return nil, fmt.Errorf("curve duration %v must be positive", duration)
	}

	ts := make([]float64, len(points))
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	zs := make([]float64, len(points))
	for i, p := range points {
		ts[i] = duration * float64(i) / float64(len(points)-1)
		xs[i], ys[i], zs[i] = p.X, p.Y, p.Z
	}

	c := &Curve3{duration: duration}
	if err := c.x.Fit(ts, xs); err != nil {
		return nil, err
	}
	if err := c.y.Fit(ts, ys); err != nil {
		return nil, err
	}
	if err := c.z.Fit(ts, zs); err != nil {
		return nil, err
	}
	return c, nil
}

// At returns the curve position at time t; t is clamped to
// [0, Duration], so evaluating past either end holds the endpoint.
func (c *Curve3) At(t float64) r3.Vec {
	t = Clamp(t, 0, c.duration)
	return r3.Vec{X: c.x.Predict(t), Y: c.y.Predict(t), Z: c.z.Predict(t)}
}

func (c *Curve3) Duration() float64 { return c.duration }
