package pulselist

import (
	"math/cmplx"
	"testing"

	"pgregory.net/rapid"
)

// totalAmplitude sums every item's amplitude across every bin of a list.
func totalAmplitude(l *List) complex128 {
	var total complex128
	for _, key := range l.Bins() {
		for _, it := range l.Items(key) {
			total += it.Amplitude
		}
	}
	return total
}

// TestSumConservesScaledAmplitude checks the pulse-list algebra's defining
// invariant: summing a set of lists whose amplitudes have been scaled by
// arbitrary lambdas yields the same total amplitude as scaling each list's
// own total first and then adding, for both the near-unity and
// general-multiplier code paths Sum dispatches between.
func TestSumConservesScaledAmplitude(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		env := rectEnv(10e-9)
		n := rapid.IntRange(1, 4).Draw(rt, "n")
		lists := make([]*List, n)
		var want complex128
		for i := 0; i < n; i++ {
			b := NewBuilder(0)
			m := rapid.IntRange(1, 3).Draw(rt, "m")
			var raw complex128
			for j := 0; j < m; j++ {
				re := rapid.Float64Range(-10, 10).Draw(rt, "re")
				im := rapid.Float64Range(-10, 10).Draw(rt, "im")
				tm := rapid.Float64Range(0, 1e-6).Draw(rt, "t")
				amp := complex(re, im)
				b.Add(env, 0, 0, 0, tm, amp, 0)
				raw += amp
			}
			lambdaRe := rapid.Float64Range(-2, 2).Draw(rt, "lambdaRe")
			lambdaIm := rapid.Float64Range(-2, 2).Draw(rt, "lambdaIm")
			lambda := complex(lambdaRe, lambdaIm)
			lists[i] = b.Build().Scaled(lambda)
			want += raw * lambda
		}
		got := totalAmplitude(Sum(lists, 0, 0))
		if diff := cmplx.Abs(got - want); diff > 1e-6 {
			rt.Fatalf("total amplitude mismatch: got %v want %v (diff %v)", got, want, diff)
		}
	})
}

// TestSumNearUnityMultiplierReusesItems checks the near-unity fast path: a
// lambda within ampTol of 1 must leave each item's amplitude bit-identical
// (not merely numerically close), since Sum special-cases it to skip the
// multiply entirely.
func TestSumNearUnityMultiplierReusesItems(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		env := rectEnv(5e-9)
		b := NewBuilder(0)
		re := rapid.Float64Range(-5, 5).Draw(rt, "re")
		im := rapid.Float64Range(-5, 5).Draw(rt, "im")
		amp := complex(re, im)
		b.Add(env, 0, 0, 0, 0, amp, 0)
		list := b.Build().Scaled(complex(1, 0))

		out := Sum([]*List{list}, 0, 1e-9)
		keys := out.Bins()
		if len(keys) != 1 {
			rt.Fatalf("expected 1 bin, got %d", len(keys))
		}
		items := out.Items(keys[0])
		if len(items) != 1 || items[0].Amplitude != amp {
			rt.Fatalf("expected unscaled amplitude %v, got %+v", amp, items)
		}
	})
}
