package vtcore

// Geometry limits enforced by Resize.
const (
	MinDimension = 1
	MaxDimension = 1000
)

// ScreenBuffer is a fixed-geometry grid of cells plus an append-only
// scrollback. Every line holds exactly Cols cells; lines that overflowed onto
// the next row carry the Wrapped flag so reflow and selection can rejoin
// them. The buffer performs no parsing and holds no locks; the terminal
// orchestrator serializes access.
type ScreenBuffer struct {
	cols int
	rows int

	lines []Line

	scrollback    []Line
	scrollbackMax int
}

// NewScreenBuffer returns a buffer of the given geometry, clamped to
// [MinDimension, MaxDimension], filled with blank cells. scrollbackMax is the
// retention cap; zero disables scrollback.
func NewScreenBuffer(cols, rows, scrollbackMax int) *ScreenBuffer {
	cols = clampDim(cols)
	rows = clampDim(rows)
	b := &ScreenBuffer{
		cols:          cols,
		rows:          rows,
		scrollbackMax: scrollbackMax,
	}
	b.lines = make([]Line, rows)
	for i := range b.lines {
		b.lines[i] = newLine(cols, EmptyCell())
	}
	return b
}

// Cols returns the current width in cells.
func (b *ScreenBuffer) Cols() int { return b.cols }

// Rows returns the current height in lines.
func (b *ScreenBuffer) Rows() int { return b.rows }

// GetCell returns the cell at (row, col), clamping out-of-range coordinates
// to the nearest valid cell.
func (b *ScreenBuffer) GetCell(row, col int) Cell {
	row = clampInt(row, 0, b.rows-1)
	col = clampInt(col, 0, b.cols-1)
	return b.lines[row].Cells[col]
}

// SetCell writes a cell at (row, col). Out-of-range coordinates are ignored.
func (b *ScreenBuffer) SetCell(row, col int, c Cell) {
	if row < 0 || row >= b.rows || col < 0 || col >= b.cols {
		return
	}
	b.lines[row].Cells[col] = c
}

// LineWrapped reports whether the line at row overflowed onto the next row.
func (b *ScreenBuffer) LineWrapped(row int) bool {
	if row < 0 || row >= b.rows {
		return false
	}
	return b.lines[row].Wrapped
}

// SetLineWrapped marks or clears the wrap flag on a line.
func (b *ScreenBuffer) SetLineWrapped(row int, wrapped bool) {
	if row < 0 || row >= b.rows {
		return
	}
	b.lines[row].Wrapped = wrapped
}

// Resize changes the geometry in a single step, clamping both dimensions to
// [MinDimension, MaxDimension]. Content anchored at the top-left survives
// where it still fits; shrinking discards the right and bottom edges, growing
// pads with blanks. Wrap flags are cleared on lines that were truncated.
func (b *ScreenBuffer) Resize(cols, rows int) {
	cols = clampDim(cols)
	rows = clampDim(rows)
	if cols == b.cols && rows == b.rows {
		return
	}

	lines := make([]Line, rows)
	for i := 0; i < rows; i++ {
		nl := newLine(cols, EmptyCell())
		if i < b.rows {
			old := b.lines[i]
			n := copy(nl.Cells, old.Cells)
			// A wide cell split at the new right edge loses its head too.
			if n > 0 && n < len(old.Cells) && nl.Cells[n-1].Width == 2 {
				nl.Cells[n-1] = EmptyCell()
			}
			if cols >= b.cols {
				nl.Wrapped = old.Wrapped
			}
		}
		lines[i] = nl
	}
	b.cols = cols
	b.rows = rows
	b.lines = lines
}

// ScrollUp moves the lines inside the inclusive region [top, bottom] up by n,
// filling the vacated bottom lines with fill. When toScrollback is true the
// lines that leave through the top are appended to the scrollback before
// being discarded.
func (b *ScreenBuffer) ScrollUp(top, bottom, n int, toScrollback bool, fill Cell) {
	top, bottom, n = b.clampRegion(top, bottom, n)
	if n == 0 {
		return
	}
	if toScrollback {
		for i := top; i < top+n; i++ {
			b.pushScrollback(b.lines[i])
		}
	}
	for i := top; i <= bottom-n; i++ {
		b.lines[i] = b.lines[i+n]
	}
	for i := bottom - n + 1; i <= bottom; i++ {
		b.lines[i] = newLine(b.cols, fill)
	}
}

// ScrollDown moves the lines inside [top, bottom] down by n, filling the
// vacated top lines with fill. Lines pushed out through the bottom are
// discarded.
func (b *ScreenBuffer) ScrollDown(top, bottom, n int, fill Cell) {
	top, bottom, n = b.clampRegion(top, bottom, n)
	if n == 0 {
		return
	}
	for i := bottom; i >= top+n; i-- {
		b.lines[i] = b.lines[i-n]
	}
	for i := top; i < top+n; i++ {
		b.lines[i] = newLine(b.cols, fill)
	}
}

// InsertLines inserts n blank lines at row, shifting the rest of the region
// down. Equivalent to scrolling [row, bottom] down by n.
func (b *ScreenBuffer) InsertLines(row, bottom, n int, fill Cell) {
	b.ScrollDown(row, bottom, n, fill)
}

// DeleteLines removes n lines at row, shifting the rest of the region up and
// filling the bottom with blanks. Deleted lines never enter the scrollback.
func (b *ScreenBuffer) DeleteLines(row, bottom, n int, fill Cell) {
	b.ScrollUp(row, bottom, n, false, fill)
}

// InsertCells inserts n blank cells at (row, col), shifting the remainder of
// the line right; cells pushed past the right edge are lost.
func (b *ScreenBuffer) InsertCells(row, col, n int, fill Cell) {
	if row < 0 || row >= b.rows || col < 0 || col >= b.cols || n <= 0 {
		return
	}
	if n > b.cols-col {
		n = b.cols - col
	}
	cells := b.lines[row].Cells
	copy(cells[col+n:], cells[col:])
	for i := col; i < col+n; i++ {
		cells[i] = fill
	}
}

// DeleteCells removes n cells at (row, col), shifting the remainder of the
// line left and filling the right edge with fill.
func (b *ScreenBuffer) DeleteCells(row, col, n int, fill Cell) {
	if row < 0 || row >= b.rows || col < 0 || col >= b.cols || n <= 0 {
		return
	}
	if n > b.cols-col {
		n = b.cols - col
	}
	cells := b.lines[row].Cells
	copy(cells[col:], cells[col+n:])
	for i := b.cols - n; i < b.cols; i++ {
		cells[i] = fill
	}
}

// EraseCells overwrites n cells at (row, col) with fill without shifting.
func (b *ScreenBuffer) EraseCells(row, col, n int, fill Cell) {
	if row < 0 || row >= b.rows || col < 0 || col >= b.cols || n <= 0 {
		return
	}
	end := col + n
	if end > b.cols {
		end = b.cols
	}
	for i := col; i < end; i++ {
		b.lines[row].Cells[i] = fill
	}
}

// ClearRegion fills the inclusive rectangle with fill and clears wrap flags
// on the affected lines.
func (b *ScreenBuffer) ClearRegion(top, left, bottom, right int, fill Cell) {
	top = clampInt(top, 0, b.rows-1)
	bottom = clampInt(bottom, 0, b.rows-1)
	left = clampInt(left, 0, b.cols-1)
	right = clampInt(right, 0, b.cols-1)
	for row := top; row <= bottom; row++ {
		for col := left; col <= right; col++ {
			b.lines[row].Cells[col] = fill
		}
		if left == 0 && right == b.cols-1 {
			b.lines[row].Wrapped = false
		}
	}
}

// ClearAll blanks the whole visible grid with fill.
func (b *ScreenBuffer) ClearAll(fill Cell) {
	b.ClearRegion(0, 0, b.rows-1, b.cols-1, fill)
}

// ScrollbackLen returns the number of retained scrollback lines.
func (b *ScreenBuffer) ScrollbackLen() int { return len(b.scrollback) }

// ScrollbackLine returns scrollback line i, with 0 the oldest retained line.
// Out-of-range indices return a blank line.
func (b *ScreenBuffer) ScrollbackLine(i int) Line {
	if i < 0 || i >= len(b.scrollback) {
		return newLine(b.cols, EmptyCell())
	}
	return b.scrollback[i]
}

// ClearScrollback drops all retained scrollback lines.
func (b *ScreenBuffer) ClearScrollback() {
	b.scrollback = nil
}

func (b *ScreenBuffer) pushScrollback(l Line) {
	if b.scrollbackMax <= 0 {
		return
	}
	b.scrollback = append(b.scrollback, l.clone())
	if len(b.scrollback) > b.scrollbackMax {
		drop := len(b.scrollback) - b.scrollbackMax
		b.scrollback = b.scrollback[drop:]
	}
}

// clampRegion normalizes a scroll region and count. It returns n == 0 when
// nothing should move, and caps n at the region height so an oversized scroll
// simply blanks the region.
func (b *ScreenBuffer) clampRegion(top, bottom, n int) (int, int, int) {
	top = clampInt(top, 0, b.rows-1)
	bottom = clampInt(bottom, 0, b.rows-1)
	if top > bottom || n <= 0 {
		return top, bottom, 0
	}
	if h := bottom - top + 1; n > h {
		n = h
	}
	return top, bottom, n
}

func clampDim(v int) int {
	return clampInt(v, MinDimension, MaxDimension)
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
