package iq

import (
	"math"
	"math/cmplx"
	"testing"
)

func closeEnough(a, b complex128, tol float64) bool {
	return cmplx.Abs(a-b) <= tol
}

func TestMixAddPlateau(t *testing.T) {
	tgt := New(4, true)
	defer tgt.Release()
	if err := MixAddPlateau(tgt, 1, 2, complex(0.5, -0.25)); err != nil {
		t.Fatalf("MixAddPlateau: %v", err)
	}
	want := []complex128{0, complex(0.5, -0.25), complex(0.5, -0.25), 0}
	for n, w := range want {
		if got := tgt.At(n); !closeEnough(got, w, 1e-12) {
			t.Errorf("sample %d = %v, want %v", n, got, w)
		}
	}
}

func TestMixAddPlateauFreqMatchesScalarReference(t *testing.T) {
	const count = 64
	amp := complex(0.3, 0.1)
	dphi := 0.07
	tgt := New(count, true)
	defer tgt.Release()
	if err := MixAddPlateauFreq(tgt, 0, count, amp, dphi); err != nil {
		t.Fatal(err)
	}
	for n := 0; n < count; n++ {
		want := amp * cmplx.Rect(1, float64(n)*dphi)
		if got := tgt.At(n); !closeEnough(got, want, 1e-9*math.Sqrt(float64(count))) {
			t.Errorf("sample %d = %v, want %v", n, got, want)
		}
	}
}

func sineSrc(n int) *Buffer {
	b := New(n, true)
	for i := 0; i < n; i++ {
		b.Set(i, complex(math.Sin(float64(i)/4), math.Cos(float64(i)/4)))
	}
	return b
}

func TestMixAddMatchesScalarReference(t *testing.T) {
	const count = 32
	src := sineSrc(count)
	defer src.Release()
	amp := complex(0.8, -0.2)
	tgt := New(count, true)
	defer tgt.Release()
	if err := MixAdd(tgt, src, 0, count, amp); err != nil {
		t.Fatal(err)
	}
	for n := 0; n < count; n++ {
		want := src.At(n) * amp
		if got := tgt.At(n); !closeEnough(got, want, 1e-12) {
			t.Errorf("sample %d = %v want %v", n, got, want)
		}
	}
}

func TestMixAddDragBoundaryUsesOneSidedDifference(t *testing.T) {
	const count = 8
	src := sineSrc(count)
	defer src.Release()
	amp := complex(1, 0)
	drag := complex(0.5, 0)
	tgt := New(count, true)
	defer tgt.Release()
	if err := MixAddDrag(tgt, src, 0, count, amp, drag); err != nil {
		t.Fatal(err)
	}
	wantFirst := src.At(0)*amp + (src.At(1)-src.At(0))*drag
	wantLast := src.At(count-1)*amp + (src.At(count-1)-src.At(count-2))*drag
	wantMid := src.At(4)*amp + ((src.At(5)-src.At(3))/2)*drag
	if got := tgt.At(0); !closeEnough(got, wantFirst, 1e-12) {
		t.Errorf("first sample = %v want %v", got, wantFirst)
	}
	if got := tgt.At(count - 1); !closeEnough(got, wantLast, 1e-12) {
		t.Errorf("last sample = %v want %v", got, wantLast)
	}
	if got := tgt.At(4); !closeEnough(got, wantMid, 1e-12) {
		t.Errorf("interior sample = %v want %v", got, wantMid)
	}
}

func TestMixAddFreqDragMatchesScalarReference(t *testing.T) {
	const count = 16
	src := sineSrc(count)
	defer src.Release()
	amp := complex(0.6, 0.1)
	drag := complex(0.2, -0.3)
	dphi := 0.11
	tgt := New(count, true)
	defer tgt.Release()
	if err := MixAddFreqDrag(tgt, src, 0, count, amp, drag, dphi); err != nil {
		t.Fatal(err)
	}
	for n := 0; n < count; n++ {
		want := (src.At(n)*amp + sideDiff(src, n, count)*drag) * cmplx.Rect(1, float64(n)*dphi)
		if got := tgt.At(n); !closeEnough(got, want, 1e-9*math.Sqrt(count)) {
			t.Errorf("sample %d = %v want %v", n, got, want)
		}
	}
}

func TestBufferUsedAfterReleaseFails(t *testing.T) {
	b := New(4, true)
	b.Release()
	if err := b.Clear(); err != ErrReleased {
		t.Fatalf("expected ErrReleased, got %v", err)
	}
	if _, err := b.Clone(); err != ErrReleased {
		t.Fatalf("expected ErrReleased from Clone, got %v", err)
	}
}

func TestNewZeroLengthIsValid(t *testing.T) {
	b := New(0, true)
	defer b.Release()
	if b == nil {
		t.Fatal("expected non-nil empty buffer")
	}
	if b.Len() != 0 {
		t.Fatalf("expected length 0, got %d", b.Len())
	}
}
