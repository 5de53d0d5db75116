package sdfkernel

import (
	"errors"
	"fmt"
	"math"

	"github.com/soypat/threadcad/internal/d3"
	"github.com/soypat/threadcad/kernel"
	"github.com/soypat/threadcad/sdf"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Curve is a C2 cubic spline through a sequence of points, parametrized by
// cumulative chord length. End slopes are those of the cubic through the
// four points at each end, so curvature does not vanish at the ends.
type Curve struct {
	knots   []float64
	x, y, z interp.PiecewiseCubic
	bb      r3.Box
	start   r3.Vec
	end     r3.Vec
}

var _ kernel.Curve = (*Curve)(nil)

func fitCurve(points []r3.Vec, opts kernel.FitOptions) (c *Curve, err error) {
	switch {
	case opts.Degree != 3:
		return nil, fmt.Errorf("unsupported degree %d", opts.Degree)
	case opts.Continuity > kernel.C2 || opts.Continuity < kernel.C0:
		return nil, fmt.Errorf("unsupported continuity %v", opts.Continuity)
	case !(opts.Tolerance > 0):
		return nil, errors.New("tolerance must be positive")
	case len(points) < 4:
		return nil, fmt.Errorf("need at least 4 points, got %d", len(points))
	}
	knots := make([]float64, len(points))
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	zs := make([]float64, len(points))
	for i, p := range points {
		if !d3.IsFinite(p) {
			return nil, fmt.Errorf("point %d is not finite", i)
		}
		xs[i], ys[i], zs[i] = p.X, p.Y, p.Z
		if i == 0 {
			continue
		}
		step := r3.Norm(r3.Sub(p, points[i-1]))
		if step == 0 {
			return nil, fmt.Errorf("points %d and %d coincide", i-1, i)
		}
		knots[i] = knots[i-1] + step
	}

	c = &Curve{knots: knots, start: points[0], end: points[len(points)-1]}
	defer func() {
		if a := recover(); a != nil {
			c = nil
			err = fmt.Errorf("spline fit: %v", a)
		}
	}()
	for _, fit := range []struct {
		p  *interp.PiecewiseCubic
		vs []float64
	}{{&c.x, xs}, {&c.y, ys}, {&c.z, zs}} {
		if err := fitSpline(fit.p, knots, fit.vs); err != nil {
			return nil, fmt.Errorf("spline fit: %w", err)
		}
	}

	bb := d3.Box{Min: c.start, Max: c.start}
	for i, p := range points {
		got := c.Point(knots[i])
		if !d3.IsFinite(got) || r3.Norm(r3.Sub(got, p)) > opts.Tolerance {
			return nil, errors.New("fit did not converge")
		}
		bb = bb.Include(got)
		if i > 0 {
			bb = bb.Include(c.Point((knots[i-1] + knots[i]) / 2))
		}
	}
	c.bb = r3.Box(bb)
	return c, nil
}

// fitSpline fits pc to the C2 cubic spline through (xs, ys). The knot slopes
// solve the tridiagonal continuity system, which is diagonally dominant for
// any number of knots.
func fitSpline(pc *interp.PiecewiseCubic, xs, ys []float64) error {
	n := len(xs)
	dl := make([]float64, n-1)
	d := make([]float64, n)
	du := make([]float64, n-1)
	b := make([]float64, n)
	d[0], d[n-1] = 1, 1
	b[0] = endSlope(xs[:4], ys[:4])
	b[n-1] = endSlope(
		[]float64{xs[n-1], xs[n-2], xs[n-3], xs[n-4]},
		[]float64{ys[n-1], ys[n-2], ys[n-3], ys[n-4]},
	)
	for i := 1; i < n-1; i++ {
		h0, h1 := xs[i]-xs[i-1], xs[i+1]-xs[i]
		s0, s1 := (ys[i]-ys[i-1])/h0, (ys[i+1]-ys[i])/h1
		dl[i-1] = h1
		d[i] = 2 * (h0 + h1)
		du[i] = h0
		b[i] = 3 * (h1*s0 + h0*s1)
	}
	var slopes mat.VecDense
	if err := mat.NewTridiag(n, dl, d, du).SolveVecTo(&slopes, false, mat.NewVecDense(n, b)); err != nil {
		return err
	}
	pc.FitWithDerivatives(xs, ys, slopes.RawVector().Data)
	return nil
}

// endSlope returns the derivative at ts[0] of the polynomial interpolating
// (ts, ys).
func endSlope(ts, ys []float64) float64 {
	var slope float64
	for j := range ts {
		if j == 0 {
			for k := 1; k < len(ts); k++ {
				slope += ys[0] / (ts[0] - ts[k])
			}
			continue
		}
		w := ys[j]
		for k := range ts {
			if k == j {
				continue
			}
			if k != 0 {
				w *= ts[0] - ts[k]
			}
			w /= ts[j] - ts[k]
		}
		slope += w
	}
	return slope
}

// Point returns the curve position at parameter t.
func (c *Curve) Point(t float64) r3.Vec {
	return r3.Vec{X: c.x.Predict(t), Y: c.y.Predict(t), Z: c.z.Predict(t)}
}

// Derivative returns the first derivative of the curve at t.
func (c *Curve) Derivative(t float64) r3.Vec {
	return r3.Vec{X: c.x.PredictDerivative(t), Y: c.y.PredictDerivative(t), Z: c.z.PredictDerivative(t)}
}

// Length returns the parameter span of the curve, the chord length of the
// fitted points.
func (c *Curve) Length() float64 { return c.knots[len(c.knots)-1] }

// Spans returns the number of spline pieces.
func (c *Curve) Spans() int { return len(c.knots) - 1 }

func (c *Curve) Bounds() r3.Box { return c.bb }
func (c *Curve) Start() r3.Vec  { return c.start }
func (c *Curve) End() r3.Vec    { return c.end }

// Frames returns n Frenet frames evenly spaced in parameter along the curve.
// Where the curvature vanishes the normal of the previous frame is carried
// over.
func (c *Curve) Frames(n int) ([]sdf.Frame, error) {
	if n < 2 {
		return nil, errors.New("need at least 2 frames")
	}
	length := c.Length()
	h := 1e-3 * length / float64(c.Spans())
	ts := floats.Span(make([]float64, n), 0, length)
	frames := make([]sdf.Frame, n)
	for i, t := range ts {
		d1 := c.Derivative(t)
		speed := r3.Norm(d1)
		if !(speed > 0) || math.IsInf(speed, 0) {
			return nil, fmt.Errorf("degenerate tangent at t=%g", t)
		}
		T := r3.Scale(1/speed, d1)
		d2 := c.secondDerivative(t, h)
		perp := r3.Sub(d2, r3.Scale(r3.Dot(d2, T), T))
		var N r3.Vec
		switch {
		case r3.Norm(perp)/(speed*speed)*length > 1e-8:
			N = r3.Unit(perp)
		case i > 0:
			prev := frames[i-1].N
			N = r3.Unit(r3.Sub(prev, r3.Scale(r3.Dot(prev, T), T)))
		default:
			N = perpendicular(T)
		}
		if !d3.IsFinite(N) {
			return nil, fmt.Errorf("degenerate normal at t=%g", t)
		}
		frames[i] = sdf.Frame{Origin: c.Point(t), T: T, N: N, B: r3.Cross(T, N)}
	}
	return frames, nil
}

// secondDerivative estimates the second derivative at t by differencing the
// first derivative over a step of 2h, one sided at the ends.
func (c *Curve) secondDerivative(t, h float64) r3.Vec {
	lo, hi := math.Max(t-h, 0), math.Min(t+h, c.Length())
	return r3.Scale(1/(hi-lo), r3.Sub(c.Derivative(hi), c.Derivative(lo)))
}

// perpendicular returns a unit vector normal to unit vector v.
func perpendicular(v r3.Vec) r3.Vec {
	e := r3.Vec{X: 1}
	if math.Abs(v.X) > 0.9 {
		e = r3.Vec{Y: 1}
	}
	return r3.Unit(r3.Cross(v, e))
}
