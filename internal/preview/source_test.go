package preview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborwave/pulsegen/internal/pulsegen"
)

func TestDecimateAveragesWindows(t *testing.T) {
	src := []float64{1, 1, -1, -1, 2, 2, -2, -2}
	out, factor := Decimate(src, 8, 2)
	require.Equal(t, 4, factor)
	require.Len(t, out, 2)
	assert.InDelta(t, 0, out[0], 1e-9)
	assert.InDelta(t, 0, out[1], 1e-9)
}

func TestDecimateNoOpWhenTargetAboveSource(t *testing.T) {
	src := []float64{1, 2, 3}
	out, factor := Decimate(src, 10, 20)
	assert.Equal(t, 1, factor)
	assert.Equal(t, src, out)
}

func TestNormalizeScalesToUnitPeak(t *testing.T) {
	out := Normalize([]float64{0.5, -2, 1})
	assert.InDelta(t, 1.0, out[1], 1e-9)
	assert.InDelta(t, 0.25, out[0], 1e-9)
}

func TestNormalizeLeavesSilenceUntouched(t *testing.T) {
	out := Normalize([]float64{0, 0, 0})
	assert.Equal(t, []float64{0, 0, 0}, out)
}

func TestWaveformSourceDuplicatesMonoAcrossChannels(t *testing.T) {
	wf := pulsegen.Waveform{I: []float64{1, 0, -1, 0}}
	src := NewWaveformSource(wf, 4, 4, false)
	dst := make([]float32, 8)
	src.Process(dst)
	assert.Equal(t, dst[0], dst[1])
	assert.Equal(t, dst[2], dst[3])
}

func TestWaveformSourceFinishesWithoutLoop(t *testing.T) {
	wf := pulsegen.Waveform{I: []float64{1}, Q: []float64{0}}
	src := NewWaveformSource(wf, 1, 1, false)
	dst := make([]float32, 4)
	src.Process(dst)
	assert.True(t, src.Finished())
}

func TestWaveformSourceLoopsWhenConfigured(t *testing.T) {
	wf := pulsegen.Waveform{I: []float64{1}, Q: []float64{0}}
	src := NewWaveformSource(wf, 1, 1, true)
	dst := make([]float32, 4)
	src.Process(dst)
	assert.False(t, src.Finished())
}
