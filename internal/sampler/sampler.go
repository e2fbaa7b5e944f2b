package sampler

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/arborwave/pulsegen/internal/envelope"
	"github.com/arborwave/pulsegen/internal/iq"
	"github.com/arborwave/pulsegen/internal/pgerr"
	"github.com/arborwave/pulsegen/internal/pulselist"
)

// ChannelSpec carries the per-channel parameters the sampler needs to turn
// one post-processed pulse list into a final IQ buffer.
type ChannelSpec struct {
	Name          string
	SampleRate    float64
	LoFreq        float64
	Length        int
	AlignLevel    int
	AllowOversize bool
	Filters       map[string]*Filter // keyed by the pulse list's filter chain name, "" = no filter
}

// Sample turns one channel's pulse list into a final IQ buffer. cache and
// shapes resolve envelope lookups; spec.Filters resolves each bin group's
// filter chain by name (see pulselist.BinKey.Filter).
func Sample(list *pulselist.List, spec ChannelSpec, cache *envelope.Cache, shapes map[string]envelope.Shape) (*iq.Buffer, error) {
	// Fold any pending time offset, multiplier and filter chain into the
	// bins so each bin key carries its full filter chain name.
	list = pulselist.Sum([]*pulselist.List{list}, 0, 0)
	order, groups := groupByFilter(list)

	final := iq.New(spec.Length, true)
	defer final.Release()

	for _, filterName := range order {
		keys := groups[filterName]
		buf := iq.New(spec.Length, true)
		for _, key := range keys {
			items := list.Items(key)
			for _, p := range items {
				if err := renderPulse(buf, key, p, list, spec, cache, shapes); err != nil {
					buf.Release()
					kind := pgerr.InvalidInput
					if errors.Is(err, errOutOfRange) {
						kind = pgerr.OutOfRange
					}
					return nil, pgerr.Wrap(kind, spec.Name, "", err)
				}
			}
		}
		if f := spec.Filters[filterName]; f != nil {
			f.ApplyPlane(buf.I, false)
			f.ApplyPlane(buf.Q, true)
		}
		for n := 0; n < spec.Length; n++ {
			final.I[n] += buf.I[n]
			final.Q[n] += buf.Q[n]
		}
		buf.Release()
	}

	out, err := final.Clone()
	if err != nil {
		return nil, pgerr.Wrap(pgerr.InternalInvariant, spec.Name, "", err)
	}
	return out, nil
}

// groupByFilter buckets bin keys by their filter chain name, in the order
// each filter name first appears across the list's insertion-ordered bins,
// so both per-group rendering and the final cross-group sum stay
// reproducible run to run.
func groupByFilter(list *pulselist.List) ([]string, map[string][]pulselist.BinKey) {
	groups := make(map[string][]pulselist.BinKey)
	var order []string
	seen := make(map[string]bool)
	for _, key := range list.Bins() {
		if !seen[key.Filter] {
			seen[key.Filter] = true
			order = append(order, key.Filter)
		}
		groups[key.Filter] = append(groups[key.Filter], key)
	}
	return order, groups
}

func renderPulse(buf *iq.Buffer, key pulselist.BinKey, p pulselist.Item, list *pulselist.List, spec ChannelSpec, cache *envelope.Cache, shapes map[string]envelope.Shape) error {
	delay := list.TimeOffset() + key.Delay
	tStart := p.Time + delay

	iStart, indexOffset := splitStart(tStart, spec.SampleRate, spec.AlignLevel)

	sample, err := cache.Get(shapes, envelope.Key{Descriptor: key.Envelope, IndexOffset: indexOffset, SampleRate: spec.SampleRate})
	if err != nil {
		return err
	}
	if sample == nil {
		return nil
	}

	globalEff := key.GlobalFreq - spec.LoFreq
	total := globalEff + key.LocalFreq
	dt := 1 / spec.SampleRate
	phiG := 2 * math.Pi * globalEff * (float64(iStart)*dt - delay)
	amp := p.Amplitude * list.AmplitudeMultiplier() * cmplx.Rect(1, phiG)
	drag := p.Drag * list.AmplitudeMultiplier() * cmplx.Rect(1, phiG) * complex(spec.SampleRate, 0)
	dphi := 2 * math.Pi * total * dt

	switch sample.Kind {
	case envelope.KindRectangular:
		return writeSegment(buf, spec, iStart, sample.Len, amp, drag, dphi, nil)
	case envelope.KindContinuous:
		return writeSegment(buf, spec, iStart, sample.Len, amp, drag, dphi, sample.Buf)
	case envelope.KindSplit:
		carrier := complex(1, 0)
		if err := writeSegment(buf, spec, iStart, sample.PlateauStart, amp*carrier, drag*carrier, dphi, sample.Left); err != nil {
			return err
		}
		carrier *= cmplx.Rect(1, dphi*float64(sample.PlateauStart))
		plateauAmp := amp * carrier
		if err := writeSegment(buf, spec, iStart+sample.PlateauStart, sample.PlateauLen, plateauAmp, drag*carrier, dphi, nil); err != nil {
			return err
		}
		carrier *= cmplx.Rect(1, dphi*float64(sample.PlateauLen))
		rightStart := iStart + sample.PlateauStart + sample.PlateauLen
		return writeSegment(buf, spec, rightStart, len(sample.Right.I), amp*carrier, drag*carrier, dphi, sample.Right)
	default:
		return pgerr.New(pgerr.InternalInvariant, "unknown envelope sample kind")
	}
}

// writeSegment dispatches to the appropriate iq mix-add kernel for one
// contiguous segment (rectangular if src==nil, shaped otherwise), handling
// allow_oversize clipping/failure.
func writeSegment(buf *iq.Buffer, spec ChannelSpec, start, count int, amp, drag complex128, dphi float64, src *iq.Buffer) error {
	if count <= 0 {
		return nil
	}
	end := start + count
	if start < 0 || end > spec.Length {
		if !spec.AllowOversize {
			return errOutOfRange
		}
		clipStart := start
		clipSrcOffset := 0
		if clipStart < 0 {
			clipSrcOffset = -clipStart
			clipStart = 0
		}
		clipEnd := end
		if clipEnd > spec.Length {
			clipEnd = spec.Length
		}
		count = clipEnd - clipStart
		if count <= 0 {
			return nil
		}
		if src != nil {
			sliced, err := src.Slice(clipSrcOffset, count)
			if err != nil {
				return err
			}
			src = sliced
		}
		start = clipStart
	}

	dragIsZero := drag == 0
	switch {
	case src == nil && dphi == 0:
		return iq.MixAddPlateau(buf, start, count, amp)
	case src == nil:
		return iq.MixAddPlateauFreq(buf, start, count, amp, dphi)
	case dragIsZero && dphi == 0:
		return iq.MixAdd(buf, src, start, count, amp)
	case dragIsZero:
		return iq.MixAddFreq(buf, src, start, count, amp, dphi)
	case dphi == 0:
		return iq.MixAddDrag(buf, src, start, count, amp, drag)
	default:
		return iq.MixAddFreqDrag(buf, src, start, count, amp, drag, dphi)
	}
}
