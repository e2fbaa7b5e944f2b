// Package phase implements the phase-tracking transform: one oscillator per
// channel (base frequency, frequency delta, phase, all carried in cycles)
// that the schedule element tree (internal/schedule) drives through
// play/shift-phase/set-phase/shift-freq/set-freq/swap-phase while walking
// the arranged tree, feeding a pulselist.Builder per channel.
//
// Carrying phase in cycles rather than radians keeps "phase mod 1" cheap and
// makes swap-phase arithmetic exact for common rational frequency ratios.
package phase

import (
	"math"

	"github.com/arborwave/pulsegen/internal/envelope"
	"github.com/arborwave/pulsegen/internal/pulselist"
)

type channelState struct {
	base  float64
	delta float64
	phase float64
}

// Transform owns one oscillator + pulse-list builder per channel, indexed
// both by integer id and by the caller-assigned channel name.
type Transform struct {
	channels []channelState
	builders []*pulselist.Builder
	names    []string
	byName   map[string]int
}

// New creates an empty Transform.
func New() *Transform {
	return &Transform{byName: make(map[string]int)}
}

// AddChannel registers a new channel with the given base frequency (Hz) and
// builder time tolerance, returning its channel id.
func (t *Transform) AddChannel(baseFreq, timeTol float64) int {
	t.channels = append(t.channels, channelState{base: baseFreq})
	t.builders = append(t.builders, pulselist.NewBuilder(timeTol))
	t.names = append(t.names, "")
	return len(t.channels) - 1
}

// AddNamedChannel is AddChannel plus registering name for later ChannelID
// lookups by the schedule element tree.
func (t *Transform) AddNamedChannel(name string, baseFreq, timeTol float64) int {
	ch := t.AddChannel(baseFreq, timeTol)
	t.names[ch] = name
	t.byName[name] = ch
	return ch
}

// ChannelID returns the id registered for name by AddNamedChannel, or -1 if
// no channel was registered under that name.
func (t *Transform) ChannelID(name string) int {
	if id, ok := t.byName[name]; ok {
		return id
	}
	return -1
}

// ChannelName returns the name registered for ch, or "" if it was added
// through the unnamed AddChannel.
func (t *Transform) ChannelName(ch int) string { return t.names[ch] }

// NumChannels returns the number of registered channels.
func (t *Transform) NumChannels() int { return len(t.channels) }

func wrap(p float64) float64 {
	p = math.Mod(p, 1)
	if p < 0 {
		p += 1
	}
	return p
}

// TotalFreq returns base_freq + delta_freq for ch.
func (t *Transform) TotalFreq(ch int) float64 {
	c := &t.channels[ch]
	return c.base + c.delta
}

// PhaseAt returns phase + delta_freq*at, wrapped to [0, 1) cycles.
func (t *Transform) PhaseAt(ch int, at float64) float64 {
	c := &t.channels[ch]
	return wrap(c.phase + c.delta*at)
}

// ShiftFreq applies phase += -df*t; delta_freq += df.
func (t *Transform) ShiftFreq(ch int, df, at float64) {
	c := &t.channels[ch]
	c.phase = wrap(c.phase - df*at)
	c.delta += df
}

// SetFreq sets delta_freq so that TotalFreq(ch) == base_freq+f at time at,
// preserving PhaseAt(ch, at) across the change.
func (t *Transform) SetFreq(ch int, f, at float64) {
	c := &t.channels[ch]
	df := f - c.delta
	t.ShiftFreq(ch, df, at)
}

// ShiftPhase applies phase += dphi (cycles).
func (t *Transform) ShiftPhase(ch int, dphi float64) {
	c := &t.channels[ch]
	c.phase = wrap(c.phase + dphi)
}

// SetPhase sets phase so that PhaseAt(ch, at) == phi.
func (t *Transform) SetPhase(ch int, phi, at float64) {
	c := &t.channels[ch]
	c.phase = wrap(phi - c.delta*at)
}

// SwapPhase exchanges the two channels' tracked phase at time at so that,
// from at onward, each channel continues as if its tracked total frequency
// had been exchanged with the other's at that instant.
func (t *Transform) SwapPhase(ch1, ch2 int, at float64) {
	c1, c2 := &t.channels[ch1], &t.channels[ch2]
	total1 := c1.base + c1.delta
	total2 := c2.base + c2.delta
	df12 := total1 - total2
	old1, old2 := c1.phase, c2.phase
	c1.phase = wrap(old2 - df12*at)
	c2.phase = wrap(old1 + df12*at)
}

// Play records one real-amplitude pulse on ch at time t, using the
// channel's stored phase plus extraPhase; the carrier's frequency-times-time
// rotation is applied later from the pulse's global frequency.
func (t *Transform) Play(ch int, env envelope.Descriptor, localFreq, extraPhase, amp, dragCoef, at float64) {
	phase := t.channels[ch].phase + extraPhase
	t.builders[ch].AddReal(env, t.TotalFreq(ch), localFreq, at, amp, phase, dragCoef)
}

// Finish builds and returns one pulse list per channel, in channel-id order.
func (t *Transform) Finish() []*pulselist.List {
	out := make([]*pulselist.List, len(t.builders))
	for i, b := range t.builders {
		out[i] = b.Build()
	}
	return out
}
