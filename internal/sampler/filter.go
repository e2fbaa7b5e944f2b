// Package sampler implements the waveform sampler: turning one channel's
// post-processed pulse list into a final IQ buffer by replaying cached
// envelope samples through the iq mix-add kernels, then running the result
// through a per-channel filter chain (biquad IIR, then FIR).
//
// The streaming per-sample filter state here follows the same shape as
// internal/effects' EQ3Band/Delay: small fixed state structs with
// per-plane process methods (ProcessI/ProcessQ on Biquad) and a state
// reset, generalized from stereo L/R planes to the sampler's I/Q planes.
package sampler

// Biquad holds one direct-form-II-transposed second-order IIR stage,
// applied identically (separate state) to the I and Q planes.
type Biquad struct {
	B0, B1, B2 float64
	A1, A2     float64

	s0I, s1I float64
	s0Q, s1Q float64
}

// NewBiquad builds a Biquad from its five coefficients. A1/A2 are the
// feedback coefficients already normalized against a0 (a0 == 1).
func NewBiquad(b0, b1, b2, a1, a2 float64) *Biquad {
	return &Biquad{B0: b0, B1: b1, B2: b2, A1: a1, A2: a2}
}

// ProcessI runs one I-plane sample through the stage.
func (bq *Biquad) ProcessI(x float64) float64 {
	y := bq.B0*x + bq.s0I
	bq.s0I = bq.B1*x - bq.A1*y + bq.s1I
	bq.s1I = bq.B2*x - bq.A2*y
	return y
}

// ProcessQ runs one Q-plane sample through the stage.
func (bq *Biquad) ProcessQ(x float64) float64 {
	y := bq.B0*x + bq.s0Q
	bq.s0Q = bq.B1*x - bq.A1*y + bq.s1Q
	bq.s1Q = bq.B2*x - bq.A2*y
	return y
}

func (bq *Biquad) reset() {
	bq.s0I, bq.s1I = 0, 0
	bq.s0Q, bq.s1Q = 0, 0
}

// BiquadChain runs a signal through an ordered sequence of Biquad stages.
type BiquadChain struct {
	Stages []*Biquad
}

// NewBiquadChain builds a chain from SOS coefficient rows, one
// (b0,b1,b2,a1,a2) row per stage.
func NewBiquadChain(sos [][5]float64) *BiquadChain {
	c := &BiquadChain{Stages: make([]*Biquad, len(sos))}
	for i, row := range sos {
		c.Stages[i] = NewBiquad(row[0], row[1], row[2], row[3], row[4])
	}
	return c
}

func (c *BiquadChain) processI(x float64) float64 {
	for _, s := range c.Stages {
		x = s.ProcessI(x)
	}
	return x
}

func (c *BiquadChain) processQ(x float64) float64 {
	for _, s := range c.Stages {
		x = s.ProcessQ(x)
	}
	return x
}

func (c *BiquadChain) reset() {
	for _, s := range c.Stages {
		s.reset()
	}
}

// simdLane is the vector width FIR coefficient and history buffers are
// padded to, so each output sample is one fixed-length dot product.
const simdLane = 8

func padLen(n int) int {
	if n == 0 {
		return 0
	}
	return (n + simdLane - 1) / simdLane * simdLane
}

// FIR is a direct-convolution finite-impulse-response filter backed by an
// in-place circular history buffer, applied separately to I and Q.
type FIR struct {
	coeffs []float64 // h[0..n) front-aligned, zero-padded to a simdLane multiple
	padded int

	histI, histQ []float64
	pos          int
}

// NewFIR builds a FIR filter from tap coefficients h[0..n) such that
// y[n] = sum_k h[k]*x[n-k].
func NewFIR(taps []float64) *FIR {
	padded := padLen(len(taps))
	coeffs := make([]float64, padded)
	copy(coeffs, taps)
	return &FIR{
		coeffs: coeffs,
		padded: padded,
		histI:  make([]float64, padded),
		histQ:  make([]float64, padded),
	}
}

func (f *FIR) process(hist []float64, x float64) float64 {
	if f.padded == 0 {
		return x
	}
	hist[f.pos] = x
	var acc float64
	// Walk the circular buffer newest-to-oldest against the (padded,
	// front-aligned) coefficient vector so this reduces to one dot product
	// of fixed length once vectorized.
	idx := f.pos
	for k := 0; k < f.padded; k++ {
		acc += f.coeffs[k] * hist[idx]
		idx--
		if idx < 0 {
			idx = f.padded - 1
		}
	}
	f.pos++
	if f.pos >= f.padded {
		f.pos = 0
	}
	return acc
}

func (f *FIR) processI(x float64) float64 { return f.process(f.histI, x) }
func (f *FIR) processQ(x float64) float64 { return f.process(f.histQ, x) }

func (f *FIR) reset() {
	for i := range f.histI {
		f.histI[i] = 0
		f.histQ[i] = 0
	}
	f.pos = 0
}

// Filter is one named post-process filter: a biquad chain followed by an
// FIR stage, applied to I and Q independently (spec order: IIR, then FIR).
type Filter struct {
	IIR *BiquadChain
	FIR *FIR
}

// ApplyPlane runs buf (one I or Q plane) through the filter in place.
func (f *Filter) ApplyPlane(buf []float64, isQ bool) {
	for i, x := range buf {
		if f.IIR != nil {
			if isQ {
				x = f.IIR.processQ(x)
			} else {
				x = f.IIR.processI(x)
			}
		}
		if f.FIR != nil {
			if isQ {
				x = f.FIR.processQ(x)
			} else {
				x = f.FIR.processI(x)
			}
		}
		buf[i] = x
	}
}

// Reset clears all streaming filter state, for reuse across channels.
func (f *Filter) Reset() {
	if f.IIR != nil {
		f.IIR.reset()
	}
	if f.FIR != nil {
		f.FIR.reset()
	}
}
