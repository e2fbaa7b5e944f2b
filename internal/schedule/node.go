// Package schedule implements the hierarchical element tree: a
// measure/arrange/render protocol over a closed set of concrete elements
// (Play, {Shift,Set}{Phase,Freq}, SwapPhase, Barrier, Repeat, Stack,
// Absolute, Grid) that drives a phase.Transform while walking the arranged
// tree.
//
// mmlfm-go drives its voices from a flat, tick-ordered event stream rather
// than a nested layout tree, so the measure/arrange/render dispatch below
// is new; it follows the same interface-over-a-closed-variant-set idiom
// used for sequencer.VoiceEngine, with one unexported marker method keeping
// the element set closed against outside implementations.
package schedule

import (
	"math"

	"github.com/arborwave/pulsegen/internal/phase"
	"github.com/arborwave/pulsegen/internal/pgerr"
)

// Alignment controls how an element's content is positioned when the
// final duration it is arranged into exceeds its desired duration.
type Alignment int

const (
	AlignStart Alignment = iota
	AlignCenter
	AlignEnd
	AlignStretch
)

// Margin is the (start, end) padding around an element's own content.
type Margin struct {
	Start, End float64
}

func (m Margin) total() float64 { return m.Start + m.End }

// durationEpsilon absorbs floating-point noise when comparing a requested
// final_duration against a measured desired_duration.
const durationEpsilon = 1e-9

// Node holds the layout state common to every concrete element and tracks
// the unmeasured -> measured -> arranged -> rendered lifecycle.
type Node struct {
	Margin        Margin
	Align         Alignment
	FixedDuration *float64
	MinDuration   float64
	MaxDuration   float64
	Phantom       bool

	measured bool
	arranged bool
	visiting bool

	desiredDuration  float64
	unclippedDesired float64
	actualTime       float64
	actualDuration   float64
	innerTime        float64
	innerDuration    float64
}

func newNode() Node {
	return Node{MaxDuration: math.Inf(1)}
}

// DesiredDuration returns the duration computed by the last Measure call,
// including margins.
func (n *Node) DesiredDuration() float64 { return n.desiredDuration }

// UnclippedDesiredDuration returns measure_override's raw result before
// min/max/fixed clamping, for parents that need the unclamped child size
//.
func (n *Node) UnclippedDesiredDuration() float64 { return n.unclippedDesired }

// ActualTime and ActualDuration return the results of the last Arrange call.
func (n *Node) ActualTime() float64     { return n.actualTime }
func (n *Node) ActualDuration() float64 { return n.actualDuration }

// element is the closed interface every concrete schedule element
// implements. The unexported marker keeps the variant set fixed to this
// package instead of reinventing runtime type inspection over containers.
type element interface {
	node() *Node
	Channels() []string
	measureOverride(avail float64) (float64, error)
	arrangeOverride(innerTime, innerDuration float64) error
	renderOverride(tr *phase.Transform) error
	describe() string
}

// Element is the public handle callers and containers pass to Measure,
// Arrange, and Render.
type Element interface {
	element
}

// Measure computes e's desired duration given an outer budget of
// maxDuration: subtract margins, delegate to the element's own sizing
// logic, then clamp to min/max/fixed duration.
func Measure(e Element, maxDuration float64) (float64, error) {
	n := e.node()
	if n.visiting {
		return 0, pgerr.Wrap(pgerr.LayoutError, "", e.describe(), errCycle)
	}
	n.visiting = true
	defer func() { n.visiting = false }()

	avail := maxDuration - n.Margin.total()
	if avail < 0 {
		avail = 0
	}
	inner, err := e.measureOverride(avail)
	if err != nil {
		return 0, err
	}
	n.unclippedDesired = inner

	d := inner
	if d < n.MinDuration {
		d = n.MinDuration
	}
	if d > n.MaxDuration {
		d = n.MaxDuration
	}
	if n.FixedDuration != nil {
		d = *n.FixedDuration
	}
	if d > avail {
		d = avail
	}
	if d < 0 {
		d = 0
	}

	n.desiredDuration = d + n.Margin.total()
	n.measured = true
	n.arranged = false
	return n.desiredDuration, nil
}

// Arrange places e at outer time `time` with a final duration of
// finalDuration (which must be >= the last Measure's result), resolving
// alignment inside the margin and recursing into arrangeOverride with the
// resolved inner time/duration.
func Arrange(e Element, time, finalDuration float64) (float64, error) {
	n := e.node()
	if !n.measured {
		return 0, pgerr.Wrap(pgerr.LayoutError, "", e.describe(), errNotMeasured)
	}
	if finalDuration < n.desiredDuration-durationEpsilon {
		return 0, pgerr.Wrap(pgerr.LayoutError, "", e.describe(), errFinalTooSmall)
	}

	innerAvail := finalDuration - n.Margin.total()
	if innerAvail < 0 {
		innerAvail = 0
	}
	innerDesired := n.desiredDuration - n.Margin.total()
	if innerDesired < 0 {
		innerDesired = 0
	}

	var offset, innerDuration float64
	switch n.Align {
	case AlignEnd:
		offset = innerAvail - innerDesired
		innerDuration = innerDesired
	case AlignCenter:
		offset = (innerAvail - innerDesired) / 2
		innerDuration = innerDesired
	case AlignStretch:
		offset = 0
		innerDuration = innerAvail
	default: // AlignStart
		offset = 0
		innerDuration = innerDesired
	}
	innerTime := time + n.Margin.Start + offset

	if err := e.arrangeOverride(innerTime, innerDuration); err != nil {
		return 0, err
	}

	n.actualTime = time
	n.actualDuration = finalDuration
	n.innerTime = innerTime
	n.innerDuration = innerDuration
	n.arranged = true
	return finalDuration, nil
}

// Render walks the arranged tree emitting ops into tr. Phantom elements are
// skipped.
func Render(e Element, tr *phase.Transform) error {
	n := e.node()
	if !n.arranged {
		return pgerr.Wrap(pgerr.LayoutError, "", e.describe(), errNotArranged)
	}
	if n.Phantom {
		return nil
	}
	return e.renderOverride(tr)
}
