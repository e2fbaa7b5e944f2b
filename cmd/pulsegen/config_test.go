package main

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborwave/pulsegen/internal/pulsegen"
	"github.com/arborwave/pulsegen/internal/schedule"
)

func compileForTest(t *testing.T, path string) (map[string]pulsegen.Waveform, error) {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	return compile(path, logger)
}

func TestLoadFixtureSinglePlay(t *testing.T) {
	f, err := loadFixture("testdata/single_play.yaml")
	require.NoError(t, err)
	require.Len(t, f.Channels, 1)
	assert.Equal(t, "q0", f.Channels[0].Name)
	assert.Equal(t, "play", f.Schedule.Kind)

	root, err := buildNode(f.Schedule)
	require.NoError(t, err)
	assert.Equal(t, []string{"q0"}, root.Channels())
}

func TestLoadFixtureTwoQubitStack(t *testing.T) {
	f, err := loadFixture("testdata/two_qubit_stack.yaml")
	require.NoError(t, err)
	require.Len(t, f.Channels, 2)

	root, err := buildNode(f.Schedule)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"q0", "q1"}, root.Channels())
}

func TestCompileTwoQubitStackProducesWaveformPerChannel(t *testing.T) {
	out, err := compileForTest(t, "testdata/two_qubit_stack.yaml")
	require.NoError(t, err)
	assert.Len(t, out, 2)
	for _, name := range []string{"q0", "q1"} {
		wf, ok := out[name]
		require.True(t, ok)
		assert.Len(t, wf.I, 128)
	}
}

func TestUnknownScheduleKindFails(t *testing.T) {
	_, err := buildNode(nodeConfig{Kind: "nope"})
	assert.Error(t, err)
}

func TestGridChildUsesExplicitColumnNotListPosition(t *testing.T) {
	f, err := loadFixture("testdata/grid_out_of_order.yaml")
	require.NoError(t, err)

	root, err := buildNode(f.Schedule)
	require.NoError(t, err)

	grid, ok := root.(*schedule.Grid)
	require.True(t, ok, "expected *schedule.Grid, got %T", root)
	require.Len(t, grid.Children, 2)

	// List position 0 is the q1 play node, but its declared column is 1;
	// list position 1 is q0, declared column 0. A binding that fell back to
	// list index would report the opposite of this.
	assert.Equal(t, 1, grid.Children[0].Column)
	assert.Equal(t, 0, grid.Children[1].Column)

	wf, err := compileForTest(t, "testdata/grid_out_of_order.yaml")
	require.NoError(t, err)
	assert.Len(t, wf, 2)
}
