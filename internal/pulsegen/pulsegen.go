// Package pulsegen is the top-level orchestrator: it wires the schedule
// element tree, the phase-tracking transform, the post-process DAG, and the
// waveform sampler into the single Generate entry point, the way the
// teacher's player.go glues its sequencer, voice engines, and effects chain
// into one Play call.
package pulsegen

import (
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/arborwave/pulsegen/internal/envelope"
	"github.com/arborwave/pulsegen/internal/pgerr"
	"github.com/arborwave/pulsegen/internal/phase"
	"github.com/arborwave/pulsegen/internal/postprocess"
	"github.com/arborwave/pulsegen/internal/pulselist"
	"github.com/arborwave/pulsegen/internal/sampler"
	"github.com/arborwave/pulsegen/internal/schedule"
)

// Channel describes one output channel's sampling and post-process
// parameters.
type Channel struct {
	Name       string
	BaseFreq   float64
	SampleRate float64
	Length     int
	Delay      float64
	AlignLevel int

	// MixGain/MixPhase apply a static per-channel IQ gain/phase-imbalance
	// correction after sampling (distinct from the cross-channel Crosstalk
	// matrix below).
	MixGain  float64
	MixPhase float64
	DCOffset complex128

	IIR []IIRStage
	FIR []float64

	// FilterOffset, when true, also applies IIR/FIR to the pulses on this
	// channel that carry no filter chain; when false (the default) IIR/FIR
	// only apply to pulses explicitly routed through a filter chain named
	// after this channel.
	FilterOffset bool

	IsReal bool
}

// IIRStage is one direct-form-II-transposed biquad section.
type IIRStage struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Crosstalk wires a linear mixing matrix between channels into the
// post-process DAG as a Matrix node.
type Crosstalk struct {
	Matrix       [][]complex128
	ChannelNames []string
}

// Options configures a Generate call; zero value uses sensible defaults.
type Options struct {
	TimeTolerance float64
	AmpTolerance  float64
	AllowOversize bool
	CacheCapacity int
	Crosstalk     *Crosstalk
}

func (o Options) withDefaults() Options {
	if o.TimeTolerance == 0 {
		o.TimeTolerance = 1e-12
	}
	if o.AmpTolerance == 0 {
		o.AmpTolerance = 0.1 / 65535
	}
	return o
}

// Waveform is one channel's compiled output: Q is nil for real channels.
type Waveform struct {
	I, Q []float64
}

// Generate compiles channels against root (measured over an unbounded
// duration and arranged to its own measured length) and returns one
// Waveform per input channel, keyed by name. Channels never played on are
// returned as all-zero buffers of their configured length.
func Generate(channels []Channel, shapes map[string]envelope.Shape, root schedule.Element, opts Options) (map[string]Waveform, error) {
	opts = opts.withDefaults()
	if err := validateChannels(channels, opts); err != nil {
		return nil, err
	}

	tr := phase.New()
	byName := make(map[string]int, len(channels))
	for _, ch := range channels {
		id := tr.AddNamedChannel(ch.Name, ch.BaseFreq, opts.TimeTolerance)
		byName[ch.Name] = id
	}
	for _, name := range root.Channels() {
		if _, ok := byName[name]; !ok {
			return nil, pgerr.New(pgerr.InvalidInput, "schedule references unknown channel "+name)
		}
	}

	desired, err := schedule.Measure(root, math.Inf(1))
	if err != nil {
		return nil, pgerr.Wrap(pgerr.LayoutError, "", "", err)
	}
	if _, err := schedule.Arrange(root, 0, desired); err != nil {
		return nil, pgerr.Wrap(pgerr.LayoutError, "", "", err)
	}
	if err := schedule.Render(root, tr); err != nil {
		return nil, pgerr.Wrap(pgerr.LayoutError, "", "", err)
	}

	rawLists := tr.Finish()
	postLists, err := runPostProcess(channels, byName, rawLists, opts)
	if err != nil {
		return nil, err
	}

	cache := envelope.NewCache(opts.CacheCapacity)
	return sampleChannels(channels, postLists, cache, shapes, opts)
}

// runPostProcess builds one Source->[Matrix]->Delay chain per channel (the
// crosstalk Matrix node is only inserted when opts.Crosstalk is set) and
// executes the resulting DAG.
func runPostProcess(channels []Channel, byName map[string]int, rawLists []*pulselist.List, opts Options) (map[string]*pulselist.List, error) {
	g := postprocess.NewGraph()
	sourceIDs := make(map[string]int, len(channels))
	delayIDs := make(map[string]int, len(channels))

	for _, ch := range channels {
		list := rawLists[byName[ch.Name]]
		src := g.AddNode(postprocess.Node{Kind: postprocess.Source, SourceList: list})
		delay := g.AddNode(postprocess.Node{Kind: postprocess.Delay, DelayTime: ch.Delay})
		sourceIDs[ch.Name] = src
		delayIDs[ch.Name] = delay
	}

	if opts.Crosstalk == nil {
		for _, ch := range channels {
			g.Connect(sourceIDs[ch.Name], delayIDs[ch.Name], 0, 0)
		}
	} else {
		ct := opts.Crosstalk
		inputs := make([]int, len(ct.ChannelNames))
		outputs := make([]int, len(ct.ChannelNames))
		for i, name := range ct.ChannelNames {
			inputs[i] = sourceIDs[name]
			outputs[i] = delayIDs[name]
		}
		matrix := g.AddNode(postprocess.Node{
			Kind:          postprocess.Matrix,
			Matrix:        ct.Matrix,
			MatrixInputs:  inputs,
			MatrixOutputs: outputs,
		})
		for i, name := range ct.ChannelNames {
			g.Connect(sourceIDs[name], matrix, 0, i)
			g.Connect(matrix, outputs[i], i, 0)
		}
		// Channels not named in the crosstalk matrix bypass it.
		inCrosstalk := make(map[string]bool, len(ct.ChannelNames))
		for _, n := range ct.ChannelNames {
			inCrosstalk[n] = true
		}
		for _, ch := range channels {
			if !inCrosstalk[ch.Name] {
				g.Connect(sourceIDs[ch.Name], delayIDs[ch.Name], 0, 0)
			}
		}
	}

	terminal, err := postprocess.Run(g, opts.TimeTolerance, opts.AmpTolerance)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*pulselist.List, len(channels))
	for _, ch := range channels {
		out[ch.Name] = terminal[delayIDs[ch.Name]]
	}
	return out, nil
}

func sampleChannels(channels []Channel, lists map[string]*pulselist.List, cache *envelope.Cache, shapes map[string]envelope.Shape, opts Options) (map[string]Waveform, error) {
	results := make([]Waveform, len(channels))
	g := new(errgroup.Group)

	for i, ch := range channels {
		i, ch := i, ch
		g.Go(func() error {
			spec := sampler.ChannelSpec{
				Name:          ch.Name,
				SampleRate:    ch.SampleRate,
				Length:        ch.Length,
				AlignLevel:    ch.AlignLevel,
				AllowOversize: opts.AllowOversize,
				Filters:       channelFilters(ch),
			}
			list := lists[ch.Name]
			if list == nil {
				list = pulselist.NewBuilder(opts.TimeTolerance).Build()
			}
			buf, err := sampler.Sample(list, spec, cache, shapes)
			if err != nil {
				return err
			}
			defer buf.Release()

			i2, q2 := mixAndOffset(buf.I, buf.Q, ch)
			if ch.IsReal {
				results[i] = Waveform{I: i2}
			} else {
				results[i] = Waveform{I: i2, Q: q2}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]Waveform, len(channels))
	for i, ch := range channels {
		out[ch.Name] = results[i]
	}
	return out, nil
}

// channelFilters builds the sampler's filter-name -> Filter table for one
// channel. When FilterOffset is set the channel's IIR/FIR applies to the
// unfiltered ("") bin group; otherwise it is registered under the channel's
// own name so a schedule must opt in via Filtered(channelName).
func channelFilters(ch Channel) map[string]*sampler.Filter {
	if len(ch.IIR) == 0 && len(ch.FIR) == 0 {
		return nil
	}
	f := &sampler.Filter{}
	if len(ch.IIR) > 0 {
		rows := make([][5]float64, len(ch.IIR))
		for i, s := range ch.IIR {
			rows[i] = [5]float64{s.B0, s.B1, s.B2, s.A1, s.A2}
		}
		f.IIR = sampler.NewBiquadChain(rows)
	}
	if len(ch.FIR) > 0 {
		f.FIR = sampler.NewFIR(ch.FIR)
	}
	key := ch.Name
	if ch.FilterOffset {
		key = ""
	}
	return map[string]*sampler.Filter{key: f}
}

func mixAndOffset(i, q []float64, ch Channel) ([]float64, []float64) {
	outI := make([]float64, len(i))
	outQ := make([]float64, len(q))
	gain, phase := ch.MixGain, ch.MixPhase
	if gain == 0 {
		gain = 1
	}
	sinP, cosP := math.Sincos(phase)
	for n := range i {
		ival, qval := i[n], q[n]
		mi := gain * ival
		mq := gain * (qval*cosP + ival*sinP)
		outI[n] = mi + real(ch.DCOffset)
		outQ[n] = mq + imag(ch.DCOffset)
	}
	return outI, outQ
}

func validateChannels(channels []Channel, opts Options) error {
	names := make(map[string]bool, len(channels))
	for _, ch := range channels {
		if ch.SampleRate <= 0 || math.IsNaN(ch.SampleRate) || math.IsInf(ch.SampleRate, 0) {
			return pgerr.Wrap(pgerr.InvalidInput, ch.Name, "", errBadSampleRate)
		}
		if ch.Length < 0 {
			return pgerr.Wrap(pgerr.InvalidInput, ch.Name, "", errNegativeLength)
		}
		if math.IsNaN(ch.BaseFreq) || math.IsInf(ch.BaseFreq, 0) {
			return pgerr.Wrap(pgerr.InvalidInput, ch.Name, "", errBadFrequency)
		}
		names[ch.Name] = true
	}
	if ct := opts.Crosstalk; ct != nil {
		n := len(ct.ChannelNames)
		if len(ct.Matrix) != n {
			return pgerr.New(pgerr.InvalidInput, "crosstalk matrix row count does not match channel count")
		}
		for _, row := range ct.Matrix {
			if len(row) != n {
				return pgerr.New(pgerr.InvalidInput, "crosstalk matrix is not square")
			}
		}
		for _, name := range ct.ChannelNames {
			if !names[name] {
				return pgerr.New(pgerr.InvalidInput, "crosstalk channel name not present in channels: "+name)
			}
		}
	}
	return nil
}
