package schedule

import "github.com/arborwave/pulsegen/internal/phase"

// Repeat arranges Count copies of Child back to back, each offset by the
// previous copy's arranged duration plus Spacing.
type Repeat struct {
	Node

	Child   Element
	Count   int
	Spacing float64

	childDuration float64
	childTimes    []float64
}

// NewRepeat builds a Repeat over child, emitting it count times with the
// given spacing between successive copies.
func NewRepeat(child Element, count int, spacing float64) *Repeat {
	return &Repeat{Node: newNode(), Child: child, Count: count, Spacing: spacing}
}

func (r *Repeat) node() *Node        { return &r.Node }
func (r *Repeat) Channels() []string { return r.Child.Channels() }
func (r *Repeat) describe() string   { return "Repeat" }

func (r *Repeat) measureOverride(avail float64) (float64, error) {
	if r.Count <= 0 {
		return 0, nil
	}
	perChild := avail/float64(r.Count) - r.Spacing
	if perChild < 0 {
		perChild = 0
	}
	d, err := Measure(r.Child, perChild)
	if err != nil {
		return 0, err
	}
	r.childDuration = d
	spacingTotal := r.Spacing
	if r.Count-1 < 1 {
		spacingTotal = 0
	} else {
		spacingTotal *= float64(r.Count - 1)
	}
	return float64(r.Count)*d + spacingTotal, nil
}

func (r *Repeat) arrangeOverride(innerTime, innerDuration float64) error {
	if r.Count <= 0 {
		return nil
	}
	stride := r.childDuration + r.Spacing
	r.childTimes = r.childTimes[:0]
	for k := 0; k < r.Count; k++ {
		r.childTimes = append(r.childTimes, innerTime+float64(k)*stride)
	}
	return nil
}

// renderOverride re-arranges the shared child template at each recorded
// offset immediately before rendering it there, since a single child
// element can only hold one arranged position at a time.
func (r *Repeat) renderOverride(tr *phase.Transform) error {
	for _, t := range r.childTimes {
		if _, err := Arrange(r.Child, t, r.childDuration); err != nil {
			return err
		}
		if err := Render(r.Child, tr); err != nil {
			return err
		}
	}
	return nil
}
