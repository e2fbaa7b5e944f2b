package envelope

import (
	"container/list"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/arborwave/pulsegen/internal/iq"
)

// PlateauThreshold is the sample count at or above which a plateau is stored as an
// implicit (left edge, right edge) split instead of one continuous buffer.
const PlateauThreshold = 128

// DefaultCapacity is the default LRU capacity.
const DefaultCapacity = 666

// Descriptor is the value-type envelope shape. ShapeID == "" means
// a pure rectangular envelope.
type Descriptor struct {
	ShapeID       string
	Width         float64
	Plateau       float64
}

// Key identifies one envelope-cache entry.
type Key struct {
	Descriptor  Descriptor
	IndexOffset float64
	SampleRate  float64
}

// Kind distinguishes the three representations an envelope sample can take.
type Kind int

const (
	KindRectangular Kind = iota
	KindContinuous
	KindSplit
)

// Sample is one cached envelope value. Immutable once produced; safe to
// share by reference across sampler tasks.
type Sample struct {
	Kind Kind
	Len  int

	// KindRectangular: no buffers, just Len.
	// KindContinuous:
	Buf *iq.Buffer
	// KindSplit: buffers for the two edges; the plateau between them is
	// implicit and is filled by the caller as a constant (1, 0).
	Left, Right    *iq.Buffer
	PlateauStart   int // index where the (implicit) plateau begins
	PlateauLen     int
}

var (
	// ErrInvalidEnvelope covers non-finite or negative width/plateau.
	ErrInvalidEnvelope = errors.New("envelope: invalid envelope")
	// ErrInvalidIndexOffset covers an index_offset outside [0, 1).
	ErrInvalidIndexOffset = errors.New("envelope: invalid index offset")
)

type entry struct {
	key   Key
	value *Sample
}

// Cache is an LRU of produced envelope samples, safe for concurrent use by
// multiple sampler goroutines sharing it under a single lock.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[Key]*list.Element
}

// NewCache builds a Cache with the given capacity (<=0 uses DefaultCapacity).
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[Key]*list.Element),
	}
}

// Get returns the cached Sample for key, producing and storing it on a miss.
// shapes resolves key.Descriptor.ShapeID for non-rectangular envelopes.
func (c *Cache) Get(shapes map[string]Shape, key Key) (*Sample, error) {
	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		v := el.Value.(*entry).value
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	v, err := produce(shapes, key)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		return el.Value.(*entry).value, nil
	}
	el := c.ll.PushFront(&entry{key: key, value: v})
	c.items[key] = el
	for c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*entry).key)
	}
	return v, nil
}

// Len reports the number of entries currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func validate(key Key) error {
	d := key.Descriptor
	for _, v := range []float64{d.Width, d.Plateau} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return ErrInvalidEnvelope
		}
	}
	if math.IsNaN(key.IndexOffset) || key.IndexOffset < 0 || key.IndexOffset >= 1 {
		return ErrInvalidIndexOffset
	}
	if key.SampleRate <= 0 || math.IsNaN(key.SampleRate) || math.IsInf(key.SampleRate, 0) {
		return ErrInvalidEnvelope
	}
	return nil
}

func produce(shapes map[string]Shape, key Key) (*Sample, error) {
	if err := validate(key); err != nil {
		return nil, err
	}
	d := key.Descriptor
	rate := key.SampleRate

	if d.ShapeID == "" {
		if d.Plateau <= 0 {
			return nil, nil
		}
		length := int(math.Ceil(d.Plateau * rate))
		return &Sample{Kind: KindRectangular, Len: length}, nil
	}

	shape, ok := shapes[d.ShapeID]
	if !ok {
		return nil, fmt.Errorf("envelope: unknown shape id %q", d.ShapeID)
	}

	dt := 1 / rate
	tOff := key.IndexOffset * dt
	t1 := d.Width/2 - tOff
	t2 := t1 + d.Plateau
	t3 := d.Width + d.Plateau - tOff

	length := int(math.Ceil(t3 * rate))
	if length == 0 {
		return nil, nil
	}
	plateauStart := int(math.Ceil(t1 * rate))
	plateauEnd := int(math.Ceil(t2 * rate))
	plateauLen := plateauEnd - plateauStart
	if plateauLen < 0 {
		plateauLen = 0
	}

	if plateauLen < PlateauThreshold {
		buf := iq.New(length, false)
		if plateauStart > 0 {
			x0 := -t1 / d.Width
			shape.SampleInto(buf, 0, x0, dt/d.Width, plateauStart)
		}
		for n := plateauStart; n < plateauEnd; n++ {
			buf.Set(n, complex(1, 0))
		}
		fallingLen := length - plateauEnd
		if fallingLen > 0 {
			x2 := (float64(plateauEnd)*dt - t2) / d.Width
			shape.SampleInto(buf, plateauEnd, x2, dt/d.Width, fallingLen)
		}
		return &Sample{Kind: KindContinuous, Len: length, Buf: buf}, nil
	}

	left := iq.New(plateauStart, false)
	if plateauStart > 0 {
		x0 := -t1 / d.Width
		shape.SampleInto(left, 0, x0, dt/d.Width, plateauStart)
	}
	rightLen := length - plateauEnd
	right := iq.New(rightLen, false)
	if rightLen > 0 {
		x2 := (float64(plateauEnd)*dt - t2) / d.Width
		shape.SampleInto(right, 0, x2, dt/d.Width, rightLen)
	}
	return &Sample{
		Kind:         KindSplit,
		Len:          length,
		Left:         left,
		Right:        right,
		PlateauStart: plateauStart,
		PlateauLen:   plateauLen,
	}, nil
}
