package iq

import "math/cmplx"

// Mix-add kernels accumulate one pulse's contribution into a target buffer.
// Each one is specialized for a combination of (rectangular vs shaped,
// modulated vs not, drag vs not) so the hot path never pays for work it
// doesn't need — the plateau kernels skip the per-sample envelope load
// entirely and the no-freq kernels skip the carrier rotation.
//
// All six share the same contract: tgt[start+n] += contribution(n) for
// n in [0, count), in the fixed order the caller presents pulses, so output
// is reproducible run to run for the same inputs.

// MixAddPlateau adds a constant amplitude over count samples: a rectangular,
// unmodulated pulse.
func MixAddPlateau(tgt *Buffer, start, count int, amp complex128) error {
	if tgt.released {
		return ErrReleased
	}
	ai, aq := real(amp), imag(amp)
	for n := 0; n < count; n++ {
		tgt.I[start+n] += ai
		tgt.Q[start+n] += aq
	}
	return nil
}

// MixAddPlateauFreq adds a rectangular pulse under a rotating carrier:
// tgt[n] += amp * e^{i*n*dphi}.
func MixAddPlateauFreq(tgt *Buffer, start, count int, amp complex128, dphi float64) error {
	if tgt.released {
		return ErrReleased
	}
	carrier := amp
	step := cmplx.Rect(1, dphi)
	for n := 0; n < count; n++ {
		tgt.AddAt(start+n, carrier)
		carrier *= step
	}
	return nil
}

// MixAdd adds a shaped, unmodulated pulse: tgt[n] += src[n]*amp.
func MixAdd(tgt, src *Buffer, start, count int, amp complex128) error {
	if tgt.released || src.released {
		return ErrReleased
	}
	for n := 0; n < count; n++ {
		tgt.AddAt(start+n, src.At(n)*amp)
	}
	return nil
}

// MixAddFreq adds a shaped pulse under a rotating carrier:
// tgt[n] += src[n]*amp*e^{i*n*dphi}.
func MixAddFreq(tgt, src *Buffer, start, count int, amp complex128, dphi float64) error {
	if tgt.released || src.released {
		return ErrReleased
	}
	carrier := amp
	step := cmplx.Rect(1, dphi)
	for n := 0; n < count; n++ {
		tgt.AddAt(start+n, src.At(n)*carrier)
		carrier *= step
	}
	return nil
}

// sideDiff returns the centred derivative of src at index n, using one-sided
// differences at the two ends where the centred stencil has no neighbour.
func sideDiff(src *Buffer, n, count int) complex128 {
	switch {
	case count == 1:
		return 0
	case n == 0:
		return src.At(1) - src.At(0)
	case n == count-1:
		return src.At(n) - src.At(n-1)
	default:
		return (src.At(n+1) - src.At(n-1)) / 2
	}
}

// MixAddDrag adds a shaped, unmodulated pulse plus its DRAG correction:
// tgt[n] += src[n]*amp + diff(src,n)*drag.
func MixAddDrag(tgt, src *Buffer, start, count int, amp, drag complex128) error {
	if tgt.released || src.released {
		return ErrReleased
	}
	for n := 0; n < count; n++ {
		tgt.AddAt(start+n, src.At(n)*amp+sideDiff(src, n, count)*drag)
	}
	return nil
}

// MixAddFreqDrag adds a shaped, modulated pulse plus its DRAG correction;
// both the carrier and the drag-carrier rotate together with dphi.
func MixAddFreqDrag(tgt, src *Buffer, start, count int, amp, drag complex128, dphi float64) error {
	if tgt.released || src.released {
		return ErrReleased
	}
	carrier := complex(1, 0)
	step := cmplx.Rect(1, dphi)
	for n := 0; n < count; n++ {
		contribution := src.At(n)*amp + sideDiff(src, n, count)*drag
		tgt.AddAt(start+n, contribution*carrier)
		carrier *= step
	}
	return nil
}
