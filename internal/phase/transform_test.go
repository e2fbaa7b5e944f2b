package phase

import (
	"math"
	"testing"
)

func TestSetPhasePinsPhaseAtGivenTime(t *testing.T) {
	tr := New()
	ch := tr.AddChannel(1e6, 1e-12)
	tr.SetFreq(ch, 2e6, 0)
	tr.SetPhase(ch, 0.3, 10e-9)
	got := tr.PhaseAt(ch, 10e-9)
	if math.Abs(got-0.3) > 1e-9 {
		t.Errorf("PhaseAt = %v, want 0.3", got)
	}
}

func TestSwapPhaseIsItsOwnInverse(t *testing.T) {
	tr := New()
	a := tr.AddChannel(1e6, 1e-12)
	b := tr.AddChannel(3e6, 1e-12)
	tr.ShiftPhase(a, 0.1)
	tr.ShiftPhase(b, 0.4)
	pa0, pb0 := tr.PhaseAt(a, 0), tr.PhaseAt(b, 0)
	tr.SwapPhase(a, b, 5e-9)
	tr.SwapPhase(a, b, 5e-9)
	pa1, pb1 := tr.PhaseAt(a, 0), tr.PhaseAt(b, 0)
	if math.Abs(pa0-pa1) > 1e-9 || math.Abs(pb0-pb1) > 1e-9 {
		t.Errorf("double swap did not restore phases: before=(%v,%v) after=(%v,%v)", pa0, pb0, pa1, pb1)
	}
}

func TestShiftPhaseThenSwapExchangesTrackedPhase(t *testing.T) {
	tr := New()
	a := tr.AddChannel(0, 1e-12)
	b := tr.AddChannel(0, 1e-12)
	tr.ShiftPhase(a, 0.25)
	tr.SwapPhase(a, b, 0)
	if got := tr.PhaseAt(a, 0); math.Abs(got-0) > 1e-9 {
		t.Errorf("phase(ch1) = %v, want 0", got)
	}
	if got := tr.PhaseAt(b, 0); math.Abs(got-0.25) > 1e-9 {
		t.Errorf("phase(ch2) = %v, want 0.25", got)
	}
}
