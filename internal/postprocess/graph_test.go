package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborwave/pulsegen/internal/envelope"
	"github.com/arborwave/pulsegen/internal/pulselist"
)

func onePulse(t float64, amp complex128) *pulselist.List {
	b := pulselist.NewBuilder(1e-12)
	b.Add(envelope.Descriptor{Plateau: 1e-9}, 0, 0, 0, t, amp, 0)
	return b.Build()
}

func TestSourceDelayMultiplyChain(t *testing.T) {
	g := NewGraph()
	src := g.AddNode(Node{Kind: Source, SourceList: onePulse(0, complex(1, 0))})
	delay := g.AddNode(Node{Kind: Delay, DelayTime: 5e-9})
	mul := g.AddNode(Node{Kind: Multiply, Multiplier: complex(2, 0)})
	g.Connect(src, delay, 0, 0)
	g.Connect(delay, mul, 0, 0)

	out, err := Run(g, 1e-12, 1e-9)
	require.NoError(t, err)
	result := out[mul]
	require.NotNil(t, result)
	key := result.Bins()[0]
	items := result.Items(key)
	require.Len(t, items, 1)
	// The Multiply node sums its inbox, which folds the delay into the key.
	assert.Equal(t, 5e-9, key.Delay)
	assert.Equal(t, complex(2, 0), result.AmplitudeMultiplier())
}

func TestSimpleSumsMultipleInboxEntries(t *testing.T) {
	g := NewGraph()
	a := g.AddNode(Node{Kind: Source, SourceList: onePulse(0, complex(1, 0))})
	b := g.AddNode(Node{Kind: Source, SourceList: onePulse(0, complex(2, 0))})
	sum := g.AddNode(Node{Kind: Simple})
	g.Connect(a, sum, 0, 0)
	g.Connect(b, sum, 0, 0)

	out, err := Run(g, 1e-12, 1e-9)
	require.NoError(t, err)
	result := out[sum]
	key := result.Bins()[0]
	assert.Equal(t, complex(3, 0), result.Items(key)[0].Amplitude)
}

func TestCyclicGraphFailsLayout(t *testing.T) {
	g := NewGraph()
	a := g.AddNode(Node{Kind: Simple})
	b := g.AddNode(Node{Kind: Simple})
	g.Connect(a, b, 0, 0)
	g.Connect(b, a, 0, 0)
	_, err := Run(g, 1e-12, 1e-9)
	assert.Error(t, err)
}

func TestMatrixRoutesWeightedRowsToDistinctOutputs(t *testing.T) {
	g := NewGraph()
	in0 := g.AddNode(Node{Kind: Source, SourceList: onePulse(0, complex(1, 0))})
	in1 := g.AddNode(Node{Kind: Source, SourceList: onePulse(0, complex(1, 0))})

	out0 := g.AddNode(Node{Kind: Simple})
	out1 := g.AddNode(Node{Kind: Simple})

	matrix := g.AddNode(Node{
		Kind: Matrix,
		Matrix: [][]complex128{
			{complex(1, 0), complex(0.5, 0)},
			{complex(0, 0), complex(1, 0)},
		},
		MatrixInputs:  []int{in0, in1},
		MatrixOutputs: []int{out0, out1},
	})
	g.Connect(in0, matrix, 0, 0)
	g.Connect(in1, matrix, 0, 1)
	g.Connect(matrix, out0, 0, 0)
	g.Connect(matrix, out1, 1, 0)

	out, err := Run(g, 1e-12, 1e-9)
	require.NoError(t, err)
	r0 := out[out0]
	r1 := out[out1]
	require.NotNil(t, r0)
	require.NotNil(t, r1)
	k0 := r0.Bins()[0]
	k1 := r1.Bins()[0]
	assert.Equal(t, complex(1.5, 0), r0.Items(k0)[0].Amplitude)
	assert.Equal(t, complex(1, 0), r1.Items(k1)[0].Amplitude)
}
