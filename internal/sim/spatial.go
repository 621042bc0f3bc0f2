package sim

const spatialCellSize = 80.0 // ~2x the largest entity radius

// EntityRef identifies an entity in the grid
type EntityRef struct {
	Kind byte // entity class tag, e.g. 'o'=obstacle
	ID   string
}

// SpatialGrid is a uniform grid over the arena used to cull collision
// candidates. It is rebuilt in full every tick — cheap at this entity count,
// and a full rebuild cannot go stale the way an incrementally maintained
// index can.
type SpatialGrid struct {
	cols, rows int
	cells      [][]EntityRef
}

// NewSpatialGrid creates a grid covering a world of the given size
func NewSpatialGrid(worldW, worldH float64) *SpatialGrid {
	cols := int(worldW/spatialCellSize) + 1
	rows := int(worldH/spatialCellSize) + 1
	return &SpatialGrid{
		cols:  cols,
		rows:  rows,
		cells: make([][]EntityRef, cols*rows),
	}
}

// Clear resets all cells (keeps allocated capacity)
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

func (g *SpatialGrid) clampCell(c, max int) int {
	if c < 0 {
		return 0
	}
	if c >= max {
		return max - 1
	}
	return c
}

// Insert adds an entity reference at the given position
func (g *SpatialGrid) Insert(x, y float64, ref EntityRef) {
	cx := g.clampCell(int(x/spatialCellSize), g.cols)
	cy := g.clampCell(int(y/spatialCellSize), g.rows)
	idx := cy*g.cols + cx
	g.cells[idx] = append(g.cells[idx], ref)
}

// InsertCircle adds an entity reference to all cells overlapping its
// bounding box, so objects straddling a cell boundary are still found
func (g *SpatialGrid) InsertCircle(x, y, radius float64, ref EntityRef) {
	minCX := g.clampCell(int((x-radius)/spatialCellSize), g.cols)
	maxCX := g.clampCell(int((x+radius)/spatialCellSize), g.cols)
	minCY := g.clampCell(int((y-radius)/spatialCellSize), g.rows)
	maxCY := g.clampCell(int((y+radius)/spatialCellSize), g.rows)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			idx := cy*g.cols + cx
			g.cells[idx] = append(g.cells[idx], ref)
		}
	}
}

// Query returns all entity refs in cells overlapping the given bounding box
func (g *SpatialGrid) Query(x, y, radius float64) []EntityRef {
	return g.QueryBuf(x, y, radius, nil)
}

// QueryBuf appends results to buf and returns the extended slice, avoiding
// per-call allocation on the hot path
func (g *SpatialGrid) QueryBuf(x, y, radius float64, buf []EntityRef) []EntityRef {
	minCX := g.clampCell(int((x-radius)/spatialCellSize), g.cols)
	maxCX := g.clampCell(int((x+radius)/spatialCellSize), g.cols)
	minCY := g.clampCell(int((y-radius)/spatialCellSize), g.rows)
	maxCY := g.clampCell(int((y+radius)/spatialCellSize), g.rows)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			idx := cy*g.cols + cx
			buf = append(buf, g.cells[idx]...)
		}
	}
	return buf
}
