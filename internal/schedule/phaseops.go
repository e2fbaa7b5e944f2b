package schedule

import "github.com/arborwave/pulsegen/internal/phase"

// phaseOpKind selects which phase.Transform method a PhaseOp dispatches to
// at render time.
type phaseOpKind int

const (
	opShiftPhase phaseOpKind = iota
	opSetPhase
	opShiftFreq
	opSetFreq
)

// PhaseOp is a zero-duration element covering ShiftPhase, SetPhase,
// ShiftFreq, and SetFreq: render dispatches to the matching phase.Transform
// method at the element's arranged start time.
type PhaseOp struct {
	Node

	Channel string
	kind    phaseOpKind
	value   float64
}

// NewShiftPhase builds a PhaseOp that adds dphi cycles to Channel's phase.
func NewShiftPhase(ch string, dphi float64) *PhaseOp {
	return &PhaseOp{Node: newNode(), Channel: ch, kind: opShiftPhase, value: dphi}
}

// NewSetPhase builds a PhaseOp that pins Channel's phase to phi cycles.
func NewSetPhase(ch string, phi float64) *PhaseOp {
	return &PhaseOp{Node: newNode(), Channel: ch, kind: opSetPhase, value: phi}
}

// NewShiftFreq builds a PhaseOp that adds df Hz to Channel's tracked
// frequency delta.
func NewShiftFreq(ch string, df float64) *PhaseOp {
	return &PhaseOp{Node: newNode(), Channel: ch, kind: opShiftFreq, value: df}
}

// NewSetFreq builds a PhaseOp that sets Channel's frequency offset from its
// base frequency to f Hz (total tracked frequency becomes base + f).
func NewSetFreq(ch string, f float64) *PhaseOp {
	return &PhaseOp{Node: newNode(), Channel: ch, kind: opSetFreq, value: f}
}

func (p *PhaseOp) node() *Node        { return &p.Node }
func (p *PhaseOp) Channels() []string { return []string{p.Channel} }

func (p *PhaseOp) describe() string {
	names := [...]string{"ShiftPhase", "SetPhase", "ShiftFreq", "SetFreq"}
	return names[p.kind] + "(" + p.Channel + ")"
}

func (p *PhaseOp) measureOverride(avail float64) (float64, error) { return 0, nil }

func (p *PhaseOp) arrangeOverride(innerTime, innerDuration float64) error { return nil }

func (p *PhaseOp) renderOverride(tr *phase.Transform) error {
	ch := tr.ChannelID(p.Channel)
	at := p.Node.innerTime
	switch p.kind {
	case opShiftPhase:
		tr.ShiftPhase(ch, p.value)
	case opSetPhase:
		tr.SetPhase(ch, p.value, at)
	case opShiftFreq:
		tr.ShiftFreq(ch, p.value, at)
	case opSetFreq:
		tr.SetFreq(ch, p.value, at)
	}
	return nil
}

// SwapPhase is a zero-duration element exchanging two channels' tracked
// phase at its arranged start time.
type SwapPhase struct {
	Node

	Ch1, Ch2 string
}

// NewSwapPhase builds a SwapPhase element over channels ch1 and ch2.
func NewSwapPhase(ch1, ch2 string) *SwapPhase {
	return &SwapPhase{Node: newNode(), Ch1: ch1, Ch2: ch2}
}

func (s *SwapPhase) node() *Node        { return &s.Node }
func (s *SwapPhase) Channels() []string { return []string{s.Ch1, s.Ch2} }
func (s *SwapPhase) describe() string   { return "SwapPhase(" + s.Ch1 + "," + s.Ch2 + ")" }

func (s *SwapPhase) measureOverride(avail float64) (float64, error) { return 0, nil }

func (s *SwapPhase) arrangeOverride(innerTime, innerDuration float64) error { return nil }

func (s *SwapPhase) renderOverride(tr *phase.Transform) error {
	tr.SwapPhase(tr.ChannelID(s.Ch1), tr.ChannelID(s.Ch2), s.Node.innerTime)
	return nil
}

// Barrier is a zero-duration, no-render element used purely to force
// per-channel usage synchronization inside a Stack. An empty Chs means "all
// channels present in the enclosing stack," resolved by Stack itself during
// measure.
type Barrier struct {
	Node

	Chs []string
}

// NewBarrier builds a Barrier over the given channels (empty means "all
// channels in the enclosing stack").
func NewBarrier(chs ...string) *Barrier {
	return &Barrier{Node: newNode(), Chs: chs}
}

func (b *Barrier) node() *Node        { return &b.Node }
func (b *Barrier) Channels() []string { return b.Chs }
func (b *Barrier) describe() string   { return "Barrier" }

func (b *Barrier) measureOverride(avail float64) (float64, error) { return 0, nil }

func (b *Barrier) arrangeOverride(innerTime, innerDuration float64) error { return nil }

func (b *Barrier) renderOverride(tr *phase.Transform) error { return nil }
