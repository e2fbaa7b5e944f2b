package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arborwave/pulsegen/internal/envelope"
	"github.com/arborwave/pulsegen/internal/pulsegen"
	"github.com/arborwave/pulsegen/internal/schedule"
)

// fixture is the on-disk shape of a compile job: a channel table, a named
// shape table, and one schedule tree bundled into a single document.
type fixture struct {
	Channels []channelConfig          `yaml:"channels"`
	Shapes   map[string]shapeConfig   `yaml:"shapes"`
	Schedule nodeConfig               `yaml:"schedule"`
	Options  optionsConfig            `yaml:"options"`
}

type channelConfig struct {
	Name         string  `yaml:"name"`
	BaseFreq     float64 `yaml:"base_freq"`
	SampleRate   float64 `yaml:"sample_rate"`
	Length       int     `yaml:"length"`
	Delay        float64 `yaml:"delay"`
	AlignLevel   int     `yaml:"align_level"`
	MixGain      float64 `yaml:"mix_gain"`
	MixPhase     float64 `yaml:"mix_phase"`
	FilterOffset bool    `yaml:"filter_offset"`
	IsReal       bool    `yaml:"is_real"`
}

type shapeConfig struct {
	Kind string `yaml:"kind"` // hann | triangle
}

type optionsConfig struct {
	TimeTolerance float64 `yaml:"time_tolerance"`
	AmpTolerance  float64 `yaml:"amp_tolerance"`
	AllowOversize bool    `yaml:"allow_oversize"`
}

// nodeConfig is a schedule element described declaratively; Kind selects
// which fields apply, mirroring a discriminated union.
type nodeConfig struct {
	Kind string `yaml:"kind"`

	// Node common fields.
	MarginStart float64 `yaml:"margin_start"`
	MarginEnd   float64 `yaml:"margin_end"`
	Align       string  `yaml:"align"`
	Phantom     bool    `yaml:"phantom"`

	// play
	Channel    string  `yaml:"channel"`
	Shape      string  `yaml:"shape"`
	Width      float64 `yaml:"width"`
	Plateau    float64 `yaml:"plateau"`
	LocalFreq  float64 `yaml:"local_freq"`
	ExtraPhase float64 `yaml:"extra_phase"`
	Amplitude  float64 `yaml:"amplitude"`
	DragCoef   float64 `yaml:"drag_coef"`
	Flexible   bool    `yaml:"flexible"`

	// phase ops / swap_phase
	Channel2 string  `yaml:"channel2"`
	Value    float64 `yaml:"value"`

	// barrier
	Channels []string `yaml:"channels"`

	// repeat
	Count   int     `yaml:"count"`
	Spacing float64 `yaml:"spacing"`
	Child   *nodeConfig `yaml:"child"`

	// stack / absolute / grid
	Direction string         `yaml:"direction"`
	Children  []nodeConfig   `yaml:"children"`
	Times     []float64      `yaml:"times"` // absolute: one per child
	Columns   []columnConfig `yaml:"columns"`

	// grid: this node's own placement when nested as a grid child.
	Column int `yaml:"column"`
	Span   int `yaml:"span"`
}

type columnConfig struct {
	Kind  string  `yaml:"kind"` // fixed | auto | star
	Value float64 `yaml:"value"`
}

func loadFixture(path string) (*fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pulsegen: reading fixture %s: %w", path, err)
	}
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("pulsegen: parsing fixture %s: %w", path, err)
	}
	return &f, nil
}

func (f *fixture) buildChannels() []pulsegen.Channel {
	out := make([]pulsegen.Channel, len(f.Channels))
	for i, c := range f.Channels {
		out[i] = pulsegen.Channel{
			Name:         c.Name,
			BaseFreq:     c.BaseFreq,
			SampleRate:   c.SampleRate,
			Length:       c.Length,
			Delay:        c.Delay,
			AlignLevel:   c.AlignLevel,
			MixGain:      c.MixGain,
			MixPhase:     c.MixPhase,
			FilterOffset: c.FilterOffset,
			IsReal:       c.IsReal,
		}
	}
	return out
}

func (f *fixture) buildShapes() (map[string]envelope.Shape, error) {
	out := make(map[string]envelope.Shape, len(f.Shapes))
	for name, s := range f.Shapes {
		switch s.Kind {
		case "hann":
			out[name] = envelope.Hann{}
		case "triangle":
			out[name] = envelope.Triangle{}
		default:
			return nil, fmt.Errorf("pulsegen: shape %q: unknown kind %q", name, s.Kind)
		}
	}
	return out, nil
}

func (f *fixture) buildOptions() pulsegen.Options {
	return pulsegen.Options{
		TimeTolerance: f.Options.TimeTolerance,
		AmpTolerance:  f.Options.AmpTolerance,
		AllowOversize: f.Options.AllowOversize,
	}
}

func alignmentOf(s string) schedule.Alignment {
	switch s {
	case "center":
		return schedule.AlignCenter
	case "end":
		return schedule.AlignEnd
	case "stretch":
		return schedule.AlignStretch
	default:
		return schedule.AlignStart
	}
}

func applyCommon(n *schedule.Node, c nodeConfig) {
	n.Margin = schedule.Margin{Start: c.MarginStart, End: c.MarginEnd}
	n.Align = alignmentOf(c.Align)
	n.Phantom = c.Phantom
}

// buildNode recursively turns one nodeConfig into a schedule.Element.
func buildNode(c nodeConfig) (schedule.Element, error) {
	switch c.Kind {
	case "play":
		p := schedule.NewPlay(c.Channel, envelope.Descriptor{ShapeID: c.Shape, Width: c.Width, Plateau: c.Plateau},
			c.LocalFreq, c.ExtraPhase, c.Amplitude, c.DragCoef)
		p.Flexible = c.Flexible
		applyCommon(&p.Node, c)
		return p, nil
	case "shift_phase":
		n := schedule.NewShiftPhase(c.Channel, c.Value)
		applyCommon(&n.Node, c)
		return n, nil
	case "set_phase":
		n := schedule.NewSetPhase(c.Channel, c.Value)
		applyCommon(&n.Node, c)
		return n, nil
	case "shift_freq":
		n := schedule.NewShiftFreq(c.Channel, c.Value)
		applyCommon(&n.Node, c)
		return n, nil
	case "set_freq":
		n := schedule.NewSetFreq(c.Channel, c.Value)
		applyCommon(&n.Node, c)
		return n, nil
	case "swap_phase":
		n := schedule.NewSwapPhase(c.Channel, c.Channel2)
		applyCommon(&n.Node, c)
		return n, nil
	case "barrier":
		n := schedule.NewBarrier(c.Channels...)
		applyCommon(&n.Node, c)
		return n, nil
	case "repeat":
		if c.Child == nil {
			return nil, fmt.Errorf("pulsegen: repeat node requires a child")
		}
		child, err := buildNode(*c.Child)
		if err != nil {
			return nil, err
		}
		n := schedule.NewRepeat(child, c.Count, c.Spacing)
		applyCommon(&n.Node, c)
		return n, nil
	case "stack":
		children, err := buildNodes(c.Children)
		if err != nil {
			return nil, err
		}
		dir := schedule.Forward
		if c.Direction == "backward" {
			dir = schedule.Backward
		}
		n := schedule.NewStack(dir, children...)
		applyCommon(&n.Node, c)
		return n, nil
	case "absolute":
		if len(c.Times) != len(c.Children) {
			return nil, fmt.Errorf("pulsegen: absolute node needs one time per child")
		}
		kids := make([]schedule.AbsoluteChild, len(c.Children))
		for i, cc := range c.Children {
			child, err := buildNode(cc)
			if err != nil {
				return nil, err
			}
			kids[i] = schedule.AbsoluteChild{Element: child, Time: c.Times[i]}
		}
		n := schedule.NewAbsolute(kids...)
		applyCommon(&n.Node, c)
		return n, nil
	case "grid":
		cols := make([]schedule.Column, len(c.Columns))
		for i, col := range c.Columns {
			var kind schedule.ColumnKind
			switch col.Kind {
			case "auto":
				kind = schedule.ColAuto
			case "star":
				kind = schedule.ColStar
			default:
				kind = schedule.ColFixed
			}
			cols[i] = schedule.Column{Kind: kind, Value: col.Value}
		}
		kids := make([]schedule.GridChild, len(c.Children))
		for i, cc := range c.Children {
			child, err := buildNode(cc)
			if err != nil {
				return nil, err
			}
			span := cc.Span
			if span < 1 {
				span = 1
			}
			kids[i] = schedule.GridChild{Element: child, Column: cc.Column, Span: span}
		}
		n := schedule.NewGrid(cols, kids...)
		applyCommon(&n.Node, c)
		return n, nil
	default:
		return nil, fmt.Errorf("pulsegen: unknown schedule node kind %q", c.Kind)
	}
}

func buildNodes(cs []nodeConfig) ([]schedule.Element, error) {
	out := make([]schedule.Element, len(cs))
	for i, c := range cs {
		n, err := buildNode(c)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
