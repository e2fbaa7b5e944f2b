package schedule

import "github.com/arborwave/pulsegen/internal/phase"

// ColumnKind selects how a Grid column's width is resolved.
type ColumnKind int

const (
	ColFixed ColumnKind = iota
	ColAuto
	ColStar
)

// Column declares one Grid column. Value holds the fixed width for
// ColFixed and the star weight for ColStar; it is ignored for ColAuto.
type Column struct {
	Kind  ColumnKind
	Value float64
}

// GridChild places an element at a starting column, spanning Span columns
// (Span 0 behaves as 1; a negative Span is rejected when the grid is
// arranged).
type GridChild struct {
	Element Element
	Column  int
	Span    int
}

// Grid lays out children against a row of declared columns, resolved in
// three rounds: fixed columns keep their declared width, auto columns grow
// to the largest single-column child they contain, and any space left over
// is distributed across star columns proportional to weight.
type Grid struct {
	Node

	Columns  []Column
	Children []GridChild

	colWidths []float64
}

// NewGrid builds a Grid over the given columns and children.
func NewGrid(columns []Column, children ...GridChild) *Grid {
	return &Grid{Node: newNode(), Columns: columns, Children: children}
}

func (g *Grid) node() *Node { return &g.Node }

func (g *Grid) Channels() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range g.Children {
		for _, ch := range c.Element.Channels() {
			if !seen[ch] {
				seen[ch] = true
				out = append(out, ch)
			}
		}
	}
	return out
}

func (g *Grid) describe() string { return "Grid" }

func span(c GridChild) int {
	if c.Span < 1 {
		return 1
	}
	return c.Span
}

func (g *Grid) measureOverride(avail float64) (float64, error) {
	if len(g.Columns) == 0 {
		return 0, errEmptyGrid
	}
	n := len(g.Columns)
	widths := make([]float64, n)

	// Round 1: fixed columns take their declared width.
	for i, col := range g.Columns {
		if col.Kind == ColFixed {
			widths[i] = col.Value
		}
	}

	// Round 2: auto columns grow to their largest single-column child,
	// measured against the grid's own available duration (spanning children don't
	// directly size an auto column; they're accounted for in round 3's
	// leftover distribution by simply not reducing it further here).
	for _, c := range g.Children {
		if span(c) != 1 {
			continue
		}
		col := c.Column
		if col < 0 || col >= n || g.Columns[col].Kind != ColAuto {
			continue
		}
		d, err := Measure(c.Element, avail)
		if err != nil {
			return 0, err
		}
		if d > widths[col] {
			widths[col] = d
		}
	}

	// Round 3: distribute remaining space across star columns by weight.
	fixedAutoTotal := 0.0
	starWeight := 0.0
	for i, col := range g.Columns {
		switch col.Kind {
		case ColFixed, ColAuto:
			fixedAutoTotal += widths[i]
		case ColStar:
			starWeight += col.Value
		}
	}
	remaining := avail - fixedAutoTotal
	if remaining < 0 {
		remaining = 0
	}
	if starWeight > 0 {
		for i, col := range g.Columns {
			if col.Kind == ColStar {
				widths[i] = remaining * (col.Value / starWeight)
			}
		}
	}

	// Now measure every child (including spans and star-column children)
	// against its resolved column-span width, so nested layout state is
	// current before arrange.
	for _, c := range g.Children {
		w := g.spanWidth(widths, c)
		if _, err := Measure(c.Element, w); err != nil {
			return 0, err
		}
	}

	g.colWidths = widths
	total := 0.0
	for _, w := range widths {
		total += w
	}
	return total, nil
}

func (g *Grid) spanWidth(widths []float64, c GridChild) float64 {
	total := 0.0
	s := span(c)
	for i := c.Column; i < c.Column+s && i < len(widths); i++ {
		if i < 0 {
			continue
		}
		total += widths[i]
	}
	return total
}

func (g *Grid) columnOffset(col int) float64 {
	off := 0.0
	for i := 0; i < col && i < len(g.colWidths); i++ {
		off += g.colWidths[i]
	}
	return off
}

func (g *Grid) arrangeOverride(innerTime, innerDuration float64) error {
	for _, c := range g.Children {
		if c.Span < 0 {
			return errNegativeSpan
		}
		w := g.spanWidth(g.colWidths, c)
		offset := g.columnOffset(c.Column)
		if _, err := Arrange(c.Element, innerTime+offset, w); err != nil {
			return err
		}
	}
	return nil
}

func (g *Grid) renderOverride(tr *phase.Transform) error {
	for _, c := range g.Children {
		if err := Render(c.Element, tr); err != nil {
			return err
		}
	}
	return nil
}
