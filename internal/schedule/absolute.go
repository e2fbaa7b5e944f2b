package schedule

import "github.com/arborwave/pulsegen/internal/phase"

// AbsoluteChild pairs a child element with its explicit start time relative
// to the enclosing Absolute's inner time.
type AbsoluteChild struct {
	Element Element
	Time    float64
}

// Absolute places each child at an explicitly stated start time, each
// measured independently against the full available duration.
type Absolute struct {
	Node

	Children []AbsoluteChild
}

// NewAbsolute builds an Absolute over the given (element, time) pairs.
func NewAbsolute(children ...AbsoluteChild) *Absolute {
	return &Absolute{Node: newNode(), Children: children}
}

func (a *Absolute) node() *Node { return &a.Node }

func (a *Absolute) Channels() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range a.Children {
		for _, ch := range c.Element.Channels() {
			if !seen[ch] {
				seen[ch] = true
				out = append(out, ch)
			}
		}
	}
	return out
}

func (a *Absolute) describe() string { return "Absolute" }

func (a *Absolute) measureOverride(avail float64) (float64, error) {
	max := 0.0
	for _, c := range a.Children {
		d, err := Measure(c.Element, avail)
		if err != nil {
			return 0, err
		}
		if end := c.Time + d; end > max {
			max = end
		}
	}
	return max, nil
}

func (a *Absolute) arrangeOverride(innerTime, innerDuration float64) error {
	for _, c := range a.Children {
		if _, err := Arrange(c.Element, innerTime+c.Time, c.Element.node().desiredDuration); err != nil {
			return err
		}
	}
	return nil
}

func (a *Absolute) renderOverride(tr *phase.Transform) error {
	for _, c := range a.Children {
		if err := Render(c.Element, tr); err != nil {
			return err
		}
	}
	return nil
}
