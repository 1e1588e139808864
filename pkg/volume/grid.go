package volume

// Grid is fixed-size 3D storage of scalar density samples, laid out as
// a single contiguous buffer indexed x + y*width + z*width*height.
// Coordinates are zero-based; Get and Set perform no bounds checking,
// callers must keep x < width, y < height, z < depth.
type Grid struct {
	width  int
	height int
	depth  int
	cells  []float64
}

// NewGrid allocates a zero-filled grid with the given dimensions.
func NewGrid(width, height, depth int) *Grid {
	return &Grid{
		width:  width,
		height: height,
		depth:  depth,
		cells:  make([]float64, width*height*depth),
	}
}

// Get returns the density stored at (x, y, z).
func (g *Grid) Get(x, y, z int) float64 {
	return g.cells[x+y*g.width+z*g.width*g.height]
}

// Set stores a density at (x, y, z).
func (g *Grid) Set(x, y, z int, value float64) {
	g.cells[x+y*g.width+z*g.width*g.height] = value
}

// Fill sets every cell to the given value.
func (g *Grid) Fill(value float64) {
	for i := range g.cells {
		g.cells[i] = value
	}
}

// Width returns the grid extent along x.
func (g *Grid) Width() int { return g.width }

// Height returns the grid extent along y.
func (g *Grid) Height() int { return g.height }

// Depth returns the grid extent along z.
func (g *Grid) Depth() int { return g.depth }

// getClamped reads (x, y, z) with each coordinate clamped into the
// valid range. Used by gradient estimators at the grid border.
func (g *Grid) getClamped(x, y, z int) float64 {
	return g.Get(clampInt(x, 0, g.width-1), clampInt(y, 0, g.height-1), clampInt(z, 0, g.depth-1))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
