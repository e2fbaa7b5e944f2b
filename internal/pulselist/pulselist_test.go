package pulselist

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/arborwave/pulsegen/internal/envelope"
)

func rectEnv(plateau float64) envelope.Descriptor {
	return envelope.Descriptor{Plateau: plateau}
}

func TestBuildSortsAndMergesWithinTolerance(t *testing.T) {
	b := NewBuilder(1e-9)
	env := rectEnv(10e-9)
	b.Add(env, 0, 0, 0, 5e-9, complex(1, 0), 0)
	b.Add(env, 0, 0, 0, 1e-9, complex(1, 0), 0)
	b.Add(env, 0, 0, 0, 1e-9+0.5e-9, complex(1, 0), 0) // within tolerance of the previous item
	list := b.Build()
	keys := list.Bins()
	if len(keys) != 1 {
		t.Fatalf("expected 1 bin, got %d", len(keys))
	}
	items := list.Items(keys[0])
	if len(items) != 2 {
		t.Fatalf("expected 2 merged items, got %d: %+v", len(items), items)
	}
	if items[0].Time != 1e-9 {
		t.Errorf("expected first item at 1e-9, got %v", items[0].Time)
	}
	if items[0].Amplitude != complex(2, 0) {
		t.Errorf("expected merged amplitude 2, got %v", items[0].Amplitude)
	}
	if items[1].Time != 5e-9 {
		t.Errorf("expected second item at 5e-9, got %v", items[1].Time)
	}
}

func TestAddRealDropsZeroAmplitude(t *testing.T) {
	b := NewBuilder(1e-12)
	b.AddReal(rectEnv(1e-9), 0, 0, 0, 0, 0, 0)
	list := b.Build()
	if len(list.Bins()) != 0 {
		t.Fatalf("expected no bins from a zero-amplitude add, got %d", len(list.Bins()))
	}
}

func TestAddRealConvertsPhaseAndDrag(t *testing.T) {
	b := NewBuilder(1e-12)
	b.AddReal(rectEnv(1e-9), 0, 0, 0, 0.3, 0.25, 0.1)
	list := b.Build()
	keys := list.Bins()
	items := list.Items(keys[0])
	want := complex(0.3, 0) * cmplx.Rect(1, 2*3.141592653589793*0.25)
	if cmplx.Abs(items[0].Amplitude-want) > 1e-9 {
		t.Errorf("amplitude = %v, want %v", items[0].Amplitude, want)
	}
	wantDrag := want * complex(0, 1) * complex(0.1, 0)
	if cmplx.Abs(items[0].Drag-wantDrag) > 1e-9 {
		t.Errorf("drag = %v, want %v", items[0].Drag, wantDrag)
	}
}

func TestTimeShiftedIsEquivalentToShiftingSourceTimes(t *testing.T) {
	b := NewBuilder(1e-12)
	env := rectEnv(1e-9)
	b.Add(env, 0, 0, 0, 1e-9, complex(1, 0), 0)
	b.Add(env, 0, 0, 0, 3e-9, complex(0.5, 0.1), 0)
	list := b.Build()
	shifted := list.TimeShifted(2e-9)

	b2 := NewBuilder(1e-12)
	b2.Add(env, 0, 0, 0, 3e-9, complex(1, 0), 0)
	b2.Add(env, 0, 0, 0, 5e-9, complex(0.5, 0.1), 0)
	wantList := b2.Build()

	summedShifted := Sum([]*List{shifted}, 1e-12, 1e-9)
	summedWant := Sum([]*List{wantList}, 1e-12, 1e-9)
	for _, k := range summedWant.Bins() {
		// Sum folds the shifted list's offset into its bin key's Delay, so
		// compare absolute times (item time plus bin delay).
		sk := k
		sk.Delay += 2e-9
		got := summedShifted.Items(sk)
		want := summedWant.Items(k)
		if len(got) != len(want) {
			t.Fatalf("bin %v: got %d items, want %d", sk, len(got), len(want))
		}
		for i := range got {
			if math.Abs((got[i].Time+sk.Delay)-(want[i].Time+k.Delay)) > 1e-18 || got[i].Amplitude != want[i].Amplitude {
				t.Errorf("item %d: got %+v, want %+v", i, got[i], want[i])
			}
		}
	}
}

func TestScaledByOneIsNoopFastPath(t *testing.T) {
	b := NewBuilder(1e-12)
	env := rectEnv(1e-9)
	b.Add(env, 0, 0, 0, 0, complex(1, 0), 0)
	list := b.Build()
	scaled := list.Scaled(complex(1, 0))
	summed := Sum([]*List{scaled}, 1e-12, 1e-9)
	key := summed.Bins()[0]
	// Reused items slice header should be the same underlying array when the
	// multiplier is within amp tolerance of unity (no per-item copy).
	if &summed.Items(key)[0] != &list.Items(key)[0] {
		t.Errorf("expected Sum to reuse the original items slice for a unity multiplier")
	}
}

func TestScaledByZeroYieldsEmptyList(t *testing.T) {
	b := NewBuilder(1e-12)
	env := rectEnv(1e-9)
	b.Add(env, 0, 0, 0, 0, complex(1, 0), 0)
	list := b.Build()
	scaled := list.Scaled(complex(0, 0))
	summed := Sum([]*List{scaled}, 1e-12, 1e-9)
	if len(summed.Bins()) != 0 {
		t.Fatalf("expected an empty result, got %d bins", len(summed.Bins()))
	}
}

func TestSumMergesAcrossListsWithinTolerance(t *testing.T) {
	env := rectEnv(1e-9)
	b1 := NewBuilder(1e-12)
	b1.Add(env, 0, 0, 0, 1e-9, complex(1, 0), 0)
	l1 := b1.Build()

	b2 := NewBuilder(1e-12)
	b2.Add(env, 0, 0, 0, 1e-9+1e-13, complex(2, 0), 0)
	l2 := b2.Build()

	summed := Sum([]*List{l1, l2}, 1e-12, 1e-9)
	key := summed.Bins()[0]
	items := summed.Items(key)
	if len(items) != 1 {
		t.Fatalf("expected 1 merged item, got %d", len(items))
	}
	if items[0].Amplitude != complex(3, 0) {
		t.Errorf("expected summed amplitude 3, got %v", items[0].Amplitude)
	}
}

func TestFilteredConcatenatesChainIntoFoldedKey(t *testing.T) {
	env := rectEnv(1e-9)
	b := NewBuilder(1e-12)
	b.Add(env, 0, 0, 0, 0, complex(1, 0), 0)
	list := b.Build().Filtered("lpf")
	summed := Sum([]*List{list}, 1e-12, 1e-9)
	key := summed.Bins()[0]
	if key.Filter != "lpf" {
		t.Errorf("expected folded filter chain 'lpf', got %q", key.Filter)
	}
}
