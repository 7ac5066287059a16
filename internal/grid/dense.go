package grid

// Size is the extent of a rectangular grid.
type Size struct {
	W, H int
}

// Contains reports whether p lies inside the grid.
func (s Size) Contains(p Point) bool {
	return p.X >= 0 && p.X < s.W && p.Y >= 0 && p.Y < s.H
}

// Cells returns the number of cells in the grid.
func (s Size) Cells() int {
	return s.W * s.H
}

// Index returns the row-major slice index of p.
func (s Size) Index(p Point) int {
	return p.Y*s.W + p.X
}

// At returns the point stored at row-major index i.
func (s Size) At(i int) Point {
	return Point{X: i % s.W, Y: i / s.W}
}

// Neighbors appends the in-bounds Moore neighbours of p to dst in
// MooreOffsets order and returns the extended slice.
func (s Size) Neighbors(dst []Point, p Point) []Point {
	for _, off := range MooreOffsets {
		q := p.Add(off)
		if s.Contains(q) {
			dst = append(dst, q)
		}
	}
	return dst
}

// Floats stores one float64 per cell in row-major order.
type Floats struct {
	Size
	data []float64
}

// NewFloats allocates a zeroed grid.
func NewFloats(w, h int) *Floats {
	return &Floats{Size: Size{W: w, H: h}, data: make([]float64, w*h)}
}

// At returns the value stored at p.
func (g *Floats) At(p Point) float64 { return g.data[g.Index(p)] }

// Set stores v at p.
func (g *Floats) Set(p Point, v float64) { g.data[g.Index(p)] = v }

// Values exposes the backing slice so callers can scan every cell.
func (g *Floats) Values() []float64 { return g.data }

// Fill sets every cell to v.
func (g *Floats) Fill(v float64) {
	for i := range g.data {
		g.data[i] = v
	}
}

// Rows copies the grid into a slice of rows indexed [y][x].
func (g *Floats) Rows() [][]float64 {
	rows := make([][]float64, g.H)
	for y := range rows {
		rows[y] = make([]float64, g.W)
		copy(rows[y], g.data[y*g.W:(y+1)*g.W])
	}
	return rows
}

// Clone returns an independent copy of g.
func (g *Floats) Clone() *Floats {
	c := NewFloats(g.W, g.H)
	copy(c.data, g.data)
	return c
}

// Bools stores one flag per cell in row-major order.
type Bools struct {
	Size
	data []bool
}

// NewBools allocates a grid with every flag cleared.
func NewBools(w, h int) *Bools {
	return &Bools{Size: Size{W: w, H: h}, data: make([]bool, w*h)}
}

// At returns the flag stored at p.
func (g *Bools) At(p Point) bool { return g.data[g.Index(p)] }

// Set stores v at p.
func (g *Bools) Set(p Point, v bool) { g.data[g.Index(p)] = v }

// Rows copies the grid into a slice of rows indexed [y][x].
func (g *Bools) Rows() [][]bool {
	rows := make([][]bool, g.H)
	for y := range rows {
		rows[y] = make([]bool, g.W)
		copy(rows[y], g.data[y*g.W:(y+1)*g.W])
	}
	return rows
}

// AnyWithin reports whether any flag is set in the square of the given
// radius centred on p, clipped to the grid.
func (g *Bools) AnyWithin(p Point, radius int) bool {
	for x := max(0, p.X-radius); x <= min(g.W-1, p.X+radius); x++ {
		for y := max(0, p.Y-radius); y <= min(g.H-1, p.Y+radius); y++ {
			if g.data[y*g.W+x] {
				return true
			}
		}
	}
	return false
}
