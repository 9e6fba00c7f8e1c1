package vtcore

// UnderlineStyle represents different underline rendering styles
type UnderlineStyle uint8

const (
	UnderlineNone   UnderlineStyle = iota // No underline
	UnderlineSingle                       // Single straight underline (default)
	UnderlineDouble                       // Double underline
	UnderlineCurly                        // Curly/wavy underline
	UnderlineDotted                       // Dotted underline
	UnderlineDashed                       // Dashed underline
)

// Cell represents a single character cell in the grid. A wide glyph occupies
// two cells: the left cell has Width 2 and holds the rune, the right cell is a
// continuation marker with Width 0 that renderers must skip.
type Cell struct {
	Rune       rune
	Width      int // 1 = normal, 2 = wide, 0 = continuation of a wide cell
	Foreground Color
	Background Color

	Bold          bool
	Dim           bool
	Italic        bool
	Underline     UnderlineStyle
	Inverse       bool
	Strikethrough bool
	Blink         bool
	Conceal       bool

	// Hyperlink id assigned by OSC 8, 0 if the cell is not part of a link.
	Hyperlink int
}

// IsContinuation reports whether this cell is the right half of a wide glyph.
func (c Cell) IsContinuation() bool {
	return c.Width == 0
}

// EmptyCell returns a blank cell with default colors and no attributes.
func EmptyCell() Cell {
	return Cell{
		Rune:       ' ',
		Width:      1,
		Foreground: DefaultForeground,
		Background: DefaultBackground,
	}
}

// Line is a fixed-length row of cells. Length always equals the buffer's
// current column count. Wrapped marks that the line continues onto the next
// one (set when autowrap pushed the cursor over the right edge), which
// selection and reflow logic use to join logical lines.
type Line struct {
	Cells   []Cell
	Wrapped bool
}

// newLine creates a blank line of the given width filled with fill.
func newLine(width int, fill Cell) Line {
	cells := make([]Cell, width)
	for i := range cells {
		cells[i] = fill
	}
	return Line{Cells: cells}
}

// clone returns a deep copy of the line.
func (l Line) clone() Line {
	cells := make([]Cell, len(l.Cells))
	copy(cells, l.Cells)
	return Line{Cells: cells, Wrapped: l.Wrapped}
}
