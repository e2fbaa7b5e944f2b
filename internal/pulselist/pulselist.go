// Package pulselist implements the bucketed, time-sorted pulse representation
// that sits between phase tracking (internal/phase) and sampling
// (internal/sampler): a Builder accumulates pulses into bins keyed by
// (envelope, global frequency, local frequency, delay, filter); Build
// produces an immutable List, and a small lazy algebra (time shift, scale,
// filter, sum) lets the post-process DAG (internal/postprocess) combine
// lists in O(1) except for the one genuinely O(n) operation, Sum.
package pulselist

import (
	"math"
	"math/cmplx"
	"sort"

	"github.com/arborwave/pulsegen/internal/envelope"
)

// BinKey groups pulses that share an envelope and carrier. Two bin keys are
// equal iff every field compares equal; the amp/time tolerance options never
// affect key equality, only in-bin merging.
type BinKey struct {
	Envelope   envelope.Descriptor
	GlobalFreq float64
	LocalFreq  float64
	Delay      float64
	Filter     string
}

// Item is one bin entry: a time, a complex amplitude, and its DRAG
// derivative-correction amplitude.
type Item struct {
	Time      float64
	Amplitude complex128
	Drag      complex128
}

// Builder accumulates pulses for one channel. Use Add for the general
// complex form and AddReal for the phase-tracking transform's real-valued
// convenience form; call Build to obtain an immutable List and reset.
type Builder struct {
	timeTol float64
	bins    map[BinKey][]Item
	order   []BinKey
}

// NewBuilder creates a Builder that merges same-bin items within timeTol of
// each other during Build.
func NewBuilder(timeTol float64) *Builder {
	return &Builder{timeTol: timeTol, bins: make(map[BinKey][]Item)}
}

// Add appends one pulse to the bin (envelope, globalFreq, localFreq, delay,
// filter=""), in the complex amplitude/drag form.
func (b *Builder) Add(env envelope.Descriptor, globalFreq, localFreq, delay, t float64, amp, drag complex128) {
	key := BinKey{Envelope: env, GlobalFreq: globalFreq, LocalFreq: localFreq, Delay: delay}
	if _, ok := b.bins[key]; !ok {
		b.order = append(b.order, key)
	}
	b.bins[key] = append(b.bins[key], Item{Time: t, Amplitude: amp, Drag: drag})
}

// AddReal converts a real amplitude/phase/drag-coefficient triple into the
// complex form and calls Add with delay=0. A zero amplitude is
// dropped rather than appended.
func (b *Builder) AddReal(env envelope.Descriptor, globalFreq, localFreq, t, ampReal, phase, dragCoef float64) {
	if ampReal == 0 {
		return
	}
	amp := complex(ampReal, 0) * cmplx.Rect(1, 2*math.Pi*phase)
	drag := amp * complex(0, 1) * complex(dragCoef, 0)
	b.Add(env, globalFreq, localFreq, 0, t, amp, drag)
}

// Build sorts and merges each bin's items within the builder's time
// tolerance, returns the resulting immutable List, and resets the builder
// to empty.
func (b *Builder) Build() *List {
	out := &List{
		bins:   make(map[BinKey][]Item, len(b.bins)),
		order:  append([]BinKey(nil), b.order...),
		ampMul: 1,
	}
	for _, key := range b.order {
		items := b.bins[key]
		sort.SliceStable(items, func(i, j int) bool { return items[i].Time < items[j].Time })
		out.bins[key] = mergeWithinTolerance(items, b.timeTol)
	}
	b.bins = make(map[BinKey][]Item)
	b.order = nil
	return out
}

// mergeWithinTolerance collapses consecutive (already time-sorted) items
// whose times differ by <= tol into the earliest representative's time,
// summing amplitudes and drag amplitudes.
func mergeWithinTolerance(items []Item, tol float64) []Item {
	if len(items) == 0 {
		return nil
	}
	out := make([]Item, 0, len(items))
	cur := items[0]
	for _, it := range items[1:] {
		if it.Time-cur.Time <= tol {
			cur.Amplitude += it.Amplitude
			cur.Drag += it.Drag
		} else {
			out = append(out, cur)
			cur = it
		}
	}
	out = append(out, cur)
	return out
}

// List is an immutable, bucketed pulse collection for one channel, with a
// lazily-applied time offset, amplitude multiplier, and filter chain so
// TimeShifted/Scaled/Filtered are O(1); Sum is the only O(n) operation.
type List struct {
	bins        map[BinKey][]Item
	order       []BinKey
	timeOffset  float64
	ampMul      complex128
	filterChain string
}

// Bins exposes the list's bin keys in deterministic insertion order, which
// the sampler relies on for reproducible output.
func (l *List) Bins() []BinKey { return l.order }

// Items returns the raw items of one bin (without the list's lazy time
// offset / amplitude multiplier / filter chain applied — callers that need
// the fully-resolved view should go through Sum first).
func (l *List) Items(key BinKey) []Item { return l.bins[key] }

// TimeOffset returns the list's pending lazy time shift.
func (l *List) TimeOffset() float64 { return l.timeOffset }

// AmplitudeMultiplier returns the list's pending lazy amplitude scale.
func (l *List) AmplitudeMultiplier() complex128 { return l.ampMul }

// TimeShifted returns a copy of l with its lazy time offset increased by dt.
func (l *List) TimeShifted(dt float64) *List {
	out := *l
	out.timeOffset += dt
	return &out
}

// Scaled returns a copy of l with its lazy amplitude multiplier multiplied
// by lambda.
func (l *List) Scaled(lambda complex128) *List {
	out := *l
	out.ampMul *= lambda
	return &out
}

// Filtered returns a copy of l with f concatenated onto its pending filter
// chain.
func (l *List) Filtered(f string) *List {
	out := *l
	out.filterChain = concatFilter(out.filterChain, f)
	return &out
}

func concatFilter(chain, f string) string {
	if f == "" {
		return chain
	}
	if chain == "" {
		return f
	}
	return chain + ">" + f
}

func foldKey(base BinKey, list *List) BinKey {
	out := base
	out.Delay += list.timeOffset
	out.Filter = concatFilter(base.Filter, list.filterChain)
	return out
}

// Sum folds the lazily-pending time offset, multiplier, and filter chain of
// each list into its bin keys, then merges bins that land on the same key
// across lists. It is the single O(n) operation in the pulse-list algebra
//.
func Sum(lists []*List, timeTol, ampTol float64) *List {
	out := &List{bins: make(map[BinKey][]Item), ampMul: 1}
	for _, l := range lists {
		if l == nil {
			continue
		}
		nearUnity := cmplx.Abs(l.ampMul-1) <= ampTol
		nearZero := cmplx.Abs(l.ampMul) <= ampTol
		for _, bk := range l.order {
			if nearZero {
				continue
			}
			items := l.bins[bk]
			if len(items) == 0 {
				continue
			}
			key := foldKey(bk, l)
			var scaled []Item
			if nearUnity {
				scaled = items
			} else {
				scaled = make([]Item, len(items))
				for i, it := range items {
					scaled[i] = Item{Time: it.Time, Amplitude: it.Amplitude * l.ampMul, Drag: it.Drag * l.ampMul}
				}
			}
			if existing, ok := out.bins[key]; ok {
				out.bins[key] = mergeSortedSequences(existing, scaled, timeTol)
			} else {
				out.order = append(out.order, key)
				out.bins[key] = scaled
			}
		}
	}
	return out
}

// mergeSortedSequences two-pointer merges two time-sorted item sequences,
// combining items within timeTol of each other into one item at the
// earlier time with summed amplitudes, and otherwise emitting items in
// sorted order.
func mergeSortedSequences(a, b []Item, timeTol float64) []Item {
	out := make([]Item, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ai, bj := a[i], b[j]
		switch {
		case math.Abs(ai.Time-bj.Time) <= timeTol:
			out = append(out, Item{Time: math.Min(ai.Time, bj.Time), Amplitude: ai.Amplitude + bj.Amplitude, Drag: ai.Drag + bj.Drag})
			i++
			j++
		case ai.Time < bj.Time:
			out = append(out, ai)
			i++
		default:
			out = append(out, bj)
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
