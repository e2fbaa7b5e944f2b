// Package envelope samples pulse shapes and memoizes the resulting IQ arrays
// so that many pulses sharing the same (shape, width, plateau, sub-sample
// offset, sample rate) reuse one buffer instead of re-evaluating the shape.
package envelope

import (
	"errors"
	"math"

	"github.com/arborwave/pulsegen/internal/iq"
)

// Shape produces an IQ sample for a dimensionless x in [-0.5, 0.5], and is
// zero outside that range.
type Shape interface {
	// At evaluates the shape at a single x.
	At(x float64) complex128
	// SampleInto fills dst[offset:offset+n] with n uniformly spaced
	// evaluations starting at x0 with step dx. Vectorized so a shape can
	// special-case its own closed form instead of calling At in a loop.
	SampleInto(dst *iq.Buffer, offset int, x0, dx float64, n int)
}

// defaultSampleInto is the fallback vectorized sampler built from At; shapes
// without a cheaper closed form embed this.
type defaultSampleInto struct{ self Shape }

func (d defaultSampleInto) SampleInto(dst *iq.Buffer, offset int, x0, dx float64, n int) {
	x := x0
	for i := 0; i < n; i++ {
		dst.Set(offset+i, d.self.At(x))
		x += dx
	}
}

// Hann is the raised-cosine window (1+cos(2*pi*x))/2, real-valued.
type Hann struct{}

func (Hann) At(x float64) complex128 {
	if x < -0.5 || x > 0.5 {
		return 0
	}
	return complex((1+math.Cos(2*math.Pi*x))/2, 0)
}

func (h Hann) SampleInto(dst *iq.Buffer, offset int, x0, dx float64, n int) {
	defaultSampleInto{h}.SampleInto(dst, offset, x0, dx, n)
}

// Triangle is 1 - 2*|x|, real-valued.
type Triangle struct{}

func (Triangle) At(x float64) complex128 {
	if x < -0.5 || x > 0.5 {
		return 0
	}
	return complex(1-2*math.Abs(x), 0)
}

func (tr Triangle) SampleInto(dst *iq.Buffer, offset int, x0, dx float64, n int) {
	defaultSampleInto{tr}.SampleInto(dst, offset, x0, dx, n)
}

// Spline is a B-spline interpolant over complex control points. NewSpline
// validates and copies its inputs, so two Splines built from equal (Knots,
// Controls, Degree) evaluate identically; no evaluator is cached, and each
// evaluation runs De Boor's algorithm afresh.
type Spline struct {
	knots    []float64
	controls []complex128
	degree   int
}

// NewSpline validates and builds a Spline. knots must be non-decreasing and
// of length len(controls)+degree+1.
func NewSpline(knots []float64, controls []complex128, degree int) (*Spline, error) {
	if degree < 0 {
		return nil, errors.New("envelope: spline degree must be >= 0")
	}
	if len(knots) != len(controls)+degree+1 {
		return nil, errors.New("envelope: spline knot/control/degree length mismatch")
	}
	for i := 1; i < len(knots); i++ {
		if knots[i] < knots[i-1] {
			return nil, errors.New("envelope: spline knots must be non-decreasing")
		}
	}
	k := append([]float64(nil), knots...)
	c := append([]complex128(nil), controls...)
	return &Spline{knots: k, controls: c, degree: degree}, nil
}

// At evaluates the spline via De Boor's algorithm, mapping x in [-0.5, 0.5]
// onto the knot domain [knots[degree], knots[len(knots)-degree-1]].
func (s *Spline) At(x float64) complex128 {
	if x < -0.5 || x > 0.5 {
		return 0
	}
	lo, hi := s.knots[s.degree], s.knots[len(s.knots)-s.degree-1]
	u := lo + (x+0.5)*(hi-lo)
	return s.deBoor(u)
}

func (s *Spline) deBoor(u float64) complex128 {
	p := s.degree
	k := s.findSpan(u)
	d := make([]complex128, p+1)
	for j := 0; j <= p; j++ {
		d[j] = s.controls[j+k-p]
	}
	for r := 1; r <= p; r++ {
		for j := p; j >= r; j-- {
			left := s.knots[j+k-p]
			right := s.knots[j+1+k-r]
			var alpha float64
			if right-left > 0 {
				alpha = (u - left) / (right - left)
			}
			d[j] = d[j-1]*complex(1-alpha, 0) + d[j]*complex(alpha, 0)
		}
	}
	return d[p]
}

func (s *Spline) findSpan(u float64) int {
	n := len(s.controls) - 1
	p := s.degree
	if u >= s.knots[n+1] {
		return n
	}
	lo, hi := p, n+1
	for lo < hi {
		mid := (lo + hi) / 2
		if s.knots[mid] <= u {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo - 1
}

func (s *Spline) SampleInto(dst *iq.Buffer, offset int, x0, dx float64, n int) {
	defaultSampleInto{s}.SampleInto(dst, offset, x0, dx, n)
}
