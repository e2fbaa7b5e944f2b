package schedule

import (
	"github.com/arborwave/pulsegen/internal/envelope"
	"github.com/arborwave/pulsegen/internal/phase"
)

// Play emits one pulse on a single channel. If Flexible is set, arranging
// it into a final duration larger than its measured width+plateau enlarges
// the plateau to absorb the extra time rather than leaving a gap.
type Play struct {
	Node

	Channel    string
	Shape      envelope.Descriptor
	LocalFreq  float64
	ExtraPhase float64
	Amplitude  float64
	DragCoef   float64
	Flexible   bool

	arrangedPlateau float64
}

// NewPlay constructs a Play element for channel ch with the given envelope
// shape (its Width/Plateau fields drive the measured duration).
func NewPlay(ch string, shape envelope.Descriptor, localFreq, extraPhase, amplitude, dragCoef float64) *Play {
	p := &Play{Node: newNode(), Channel: ch, Shape: shape, LocalFreq: localFreq,
		ExtraPhase: extraPhase, Amplitude: amplitude, DragCoef: dragCoef}
	p.arrangedPlateau = shape.Plateau
	return p
}

func (p *Play) node() *Node        { return &p.Node }
func (p *Play) Channels() []string { return []string{p.Channel} }
func (p *Play) describe() string   { return "Play(" + p.Channel + ")" }

func (p *Play) measureOverride(avail float64) (float64, error) {
	return p.Shape.Width + p.Shape.Plateau, nil
}

func (p *Play) arrangeOverride(innerTime, innerDuration float64) error {
	p.arrangedPlateau = p.Shape.Plateau
	if p.Flexible {
		extra := innerDuration - (p.Shape.Width + p.Shape.Plateau)
		if extra > 0 {
			p.arrangedPlateau = p.Shape.Plateau + extra
		}
	}
	return nil
}

func (p *Play) renderOverride(tr *phase.Transform) error {
	ch := tr.ChannelID(p.Channel)
	env := p.Shape
	env.Plateau = p.arrangedPlateau
	tr.Play(ch, env, p.LocalFreq, p.ExtraPhase, p.Amplitude, p.DragCoef, p.Node.innerTime)
	return nil
}
