package vtcore

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"
)

const defaultScrollbackLimit = 10000

// Option configures a Terminal at construction time.
type Option func(*Terminal)

// WithScrollbackLimit sets the maximum number of retained scrollback lines.
// Zero disables scrollback.
func WithScrollbackLimit(n int) Option {
	return func(t *Terminal) { t.scrollbackMax = n }
}

// WithCellPixelSize sets the assumed pixels-per-cell metrics used for image
// placement and pixel-to-cell mapping when the host has not reported real
// ones.
func WithCellPixelSize(w, h int) Option {
	return func(t *Terminal) {
		if w > 0 {
			t.cellWidth = w
		}
		if h > 0 {
			t.cellHeight = h
		}
	}
}

// WithDefaultColors overrides the colors cells take when no SGR color is in
// effect.
func WithDefaultColors(fg, bg Color) Option {
	return func(t *Terminal) {
		t.defaultFg = fg
		t.defaultBg = bg
	}
}

// savedCursor is one DECSC/ANSI save slot: position plus the rendition and
// charset state that DEC restore brings back.
type savedCursor struct {
	row, col    int
	pen         Pen
	charsets    CharsetManager
	origin      bool
	pendingWrap bool
	link        int
}

// Terminal owns one primary and one alternate screen, the cursor, the pen,
// the modes and the character sets, and applies parsed actions to them. All
// exported methods are safe for one writer and concurrent readers.
type Terminal struct {
	mu sync.RWMutex

	parser  *Parser
	primary *ScreenBuffer
	alt     *ScreenBuffer
	images  *ImageStore

	altActive bool

	row, col    int
	pendingWrap bool
	lastPrinted rune

	pen      Pen
	charsets *CharsetManager

	savedDEC  savedCursor
	savedANSI savedCursor

	scrollTop    int
	scrollBottom int

	tabStops []bool

	originMode     bool
	autowrap       bool
	insertMode     bool
	bracketedPaste bool
	appCursorKeys  bool
	appKeypad      bool
	cursorVisible  bool
	cursorBlink    bool
	cursorStyle    int

	mouseMode     MouseMode
	mouseEncoding MouseEncoding

	hyperlinks []string
	penLink    int

	palette   map[int]Color
	defaultFg Color
	defaultBg Color

	cellWidth  int
	cellHeight int

	scrollbackMax int

	title  string
	output []byte

	onTitle        func(string)
	onBell         func()
	onClipboardSet func(selection string, data []byte)
	onClipboardGet func(selection string) []byte

	// deferred collects callback invocations queued while the lock is held;
	// Feed runs them after releasing it.
	deferred []func()
}

// NewTerminal returns a terminal of the given geometry with xterm-like
// defaults: autowrap on, cursor visible, scrollback enabled.
func NewTerminal(cols, rows int, opts ...Option) *Terminal {
	t := &Terminal{
		parser:        NewParser(),
		charsets:      NewCharsetManager(),
		autowrap:      true,
		cursorVisible: true,
		palette:       make(map[int]Color),
		defaultFg:     DefaultForeground,
		defaultBg:     DefaultBackground,
		cellWidth:     DefaultCellWidth,
		cellHeight:    DefaultCellHeight,
		scrollbackMax: defaultScrollbackLimit,
	}
	for _, opt := range opts {
		opt(t)
	}
	cols = clampDim(cols)
	rows = clampDim(rows)
	t.primary = NewScreenBuffer(cols, rows, t.scrollbackMax)
	t.alt = NewScreenBuffer(cols, rows, 0)
	t.images = NewImageStore(t.cellWidth, t.cellHeight)
	t.pen = NewPen()
	t.savedDEC = savedCursor{pen: t.pen, charsets: *t.charsets}
	t.savedANSI = t.savedDEC
	t.scrollBottom = rows - 1
	t.resetTabStops(cols)
	return t
}

// OnTitleChange registers a callback invoked when OSC 0/2 changes the title.
func (t *Terminal) OnTitleChange(fn func(string)) {
	t.mu.Lock()
	t.onTitle = fn
	t.mu.Unlock()
}

// OnBell registers a callback invoked for BEL.
func (t *Terminal) OnBell(fn func()) {
	t.mu.Lock()
	t.onBell = fn
	t.mu.Unlock()
}

// OnClipboard registers the callbacks backing OSC 52. get may be nil, in
// which case clipboard queries are ignored.
func (t *Terminal) OnClipboard(set func(selection string, data []byte), get func(selection string) []byte) {
	t.mu.Lock()
	t.onClipboardSet = set
	t.onClipboardGet = get
	t.mu.Unlock()
}

func (t *Terminal) buffer() *ScreenBuffer {
	if t.altActive {
		return t.alt
	}
	return t.primary
}

// Feed consumes the next chunk of application output. Chunks may split
// escape sequences and UTF-8 runes at any byte boundary; callers must deliver
// them in stream order, one Feed at a time.
//
// Registered callbacks fire after the internal lock is released, so they may
// call back into the Terminal.
func (t *Terminal) Feed(data []byte) {
	t.mu.Lock()
	for _, action := range t.parser.Feed(data) {
		t.apply(action)
	}
	pending := t.deferred
	t.deferred = nil
	t.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

// Resize changes the terminal geometry, clamping to [MinDimension,
// MaxDimension]. Both screens resize together and the cursor and scroll
// region are clamped into the new bounds.
func (t *Terminal) Resize(cols, rows int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cols = clampDim(cols)
	rows = clampDim(rows)
	t.primary.Resize(cols, rows)
	t.alt.Resize(cols, rows)
	t.row = clampInt(t.row, 0, rows-1)
	t.col = clampInt(t.col, 0, cols-1)
	t.scrollTop = 0
	t.scrollBottom = rows - 1
	t.pendingWrap = false
	t.resetTabStops(cols)
}

// TakePendingOutput returns the queued response bytes (DSR and DA replies,
// graphics acknowledgements) and clears the queue.
func (t *Terminal) TakePendingOutput() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.output
	t.output = nil
	return out
}

// ReportMouse encodes a pointer event under the current tracking mode and
// encoding and queues it as output. Events the mode filters out are dropped.
func (t *Terminal) ReportMouse(ev MouseEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if b := EncodeMouseEvent(ev, t.mouseMode, t.mouseEncoding); b != nil {
		t.output = append(t.output, b...)
	}
}

// ReportMousePixels is ReportMouse for events in pixel coordinates; positions
// outside the terminal's pixel bounds are dropped.
func (t *Terminal) ReportMousePixels(ev MouseEvent, px, py int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b := t.buffer()
	if px < 0 || py < 0 || px >= b.Cols()*t.cellWidth || py >= b.Rows()*t.cellHeight {
		return
	}
	ev.Col, ev.Row = CellFromPixel(px, py, t.cellWidth, t.cellHeight)
	if enc := EncodeMouseEvent(ev, t.mouseMode, t.mouseEncoding); enc != nil {
		t.output = append(t.output, enc...)
	}
}

// Paste queues pasted text as input, wrapping it in bracketed-paste markers
// when the application enabled mode 2004.
func (t *Terminal) Paste(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bracketedPaste {
		t.output = append(t.output, "\x1b[200~"...)
		t.output = append(t.output, data...)
		t.output = append(t.output, "\x1b[201~"...)
	} else {
		t.output = append(t.output, data...)
	}
}

// Read surface.

// Size returns the current geometry.
func (t *Terminal) Size() (cols, rows int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	b := t.buffer()
	return b.Cols(), b.Rows()
}

// Cell returns the cell at (row, col) of the active screen, clamped to
// bounds.
func (t *Terminal) Cell(row, col int) Cell {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.buffer().GetCell(row, col)
}

// Cursor returns the cursor position.
func (t *Terminal) Cursor() (row, col int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.row, t.col
}

// CursorVisible reports whether the cursor should be drawn.
func (t *Terminal) CursorVisible() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cursorVisible
}

// CursorStyle returns the DECSCUSR style (0/1 blinking block through 6 bar).
func (t *Terminal) CursorStyle() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cursorStyle
}

// Title returns the window title set by OSC 0/2.
func (t *Terminal) Title() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.title
}

// AltScreenActive reports whether the alternate screen is in use.
func (t *Terminal) AltScreenActive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.altActive
}

// BracketedPaste reports whether mode 2004 is enabled.
func (t *Terminal) BracketedPaste() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.bracketedPaste
}

// ApplicationCursorKeys reports whether DECCKM is enabled, which changes how
// the embedder should encode arrow keys.
func (t *Terminal) ApplicationCursorKeys() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.appCursorKeys
}

// MouseState returns the active tracking mode and encoding.
func (t *Terminal) MouseState() (MouseMode, MouseEncoding) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mouseMode, t.mouseEncoding
}

// ScrollbackLen returns the number of retained history lines of the primary
// screen.
func (t *Terminal) ScrollbackLen() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.primary.ScrollbackLen()
}

// ScrollbackLine returns primary-screen history line i, 0 being the oldest.
func (t *Terminal) ScrollbackLine(i int) Line {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.primary.ScrollbackLine(i)
}

// Hyperlink resolves a cell's Hyperlink field to its OSC 8 URI, or "".
func (t *Terminal) Hyperlink(id int) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if id <= 0 || id > len(t.hyperlinks) {
		return ""
	}
	return t.hyperlinks[id-1]
}

// Placements returns the current inline-image placements.
func (t *Terminal) Placements() []Placement {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.images.Placements()
}

// ImageData returns a transmitted image by id.
func (t *Terminal) ImageData(id uint32) (*Image, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.images.Image(id)
}

// DefaultColors returns the effective default foreground and background,
// honoring OSC 10/11 overrides. Renderers resolve cells whose colors have
// ColorTypeDefault through these.
func (t *Terminal) DefaultColors() (fg, bg Color) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.defaultFg, t.defaultBg
}

// PaletteColor256 returns the effective RGB value of palette index n,
// honoring OSC 4 overrides.
func (t *Terminal) PaletteColor256(n int) RGB {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if c, ok := t.palette[n&0xff]; ok {
		return RGB{c.R, c.G, c.B}
	}
	return Get256ColorRGB(n & 0xff)
}

// Action dispatch.

func (t *Terminal) apply(action Action) {
	switch a := action.(type) {
	case PrintAction:
		t.print(a.Rune)
	case ControlAction:
		t.control(a.Byte)
	case CsiAction:
		t.csi(a)
	case EscAction:
		t.esc(a)
	case OscAction:
		t.osc(a.Payload)
	case DcsAction:
		t.dcs(a.Payload)
	case StringAction:
		if a.Kind == StringAPC && strings.HasPrefix(a.Payload, "G") {
			t.graphics(a.Payload)
		}
	}
}

// print writes one rune at the cursor, honoring charset mapping, autowrap,
// insert mode and wide glyphs.
func (t *Terminal) print(r rune) {
	if r < 0x80 {
		r = t.charsets.Map(r)
	}
	w := runewidth.RuneWidth(r)
	if w <= 0 {
		return
	}
	b := t.buffer()
	cols := b.Cols()

	if t.pendingWrap && t.autowrap {
		b.SetLineWrapped(t.row, true)
		t.col = 0
		t.linefeed()
	}
	t.pendingWrap = false

	// A wide glyph that does not fit at the margin wraps early.
	if w == 2 && t.col == cols-1 {
		if t.autowrap {
			b.SetLineWrapped(t.row, true)
			t.col = 0
			t.linefeed()
		} else {
			t.col = cols - 2
			if t.col < 0 {
				t.col = 0
			}
		}
	}

	if t.insertMode {
		b.InsertCells(t.row, t.col, w, t.fillCell())
	}

	cell := t.pen.cell()
	cell.Rune = r
	cell.Width = w
	cell.Hyperlink = t.penLink
	b.SetCell(t.row, t.col, cell)
	if w == 2 {
		cont := t.pen.cell()
		cont.Rune = 0
		cont.Width = 0
		cont.Hyperlink = t.penLink
		b.SetCell(t.row, t.col+1, cont)
	}
	t.lastPrinted = r

	t.col += w
	if t.col >= cols {
		t.col = cols - 1
		t.pendingWrap = true
	}
}

// fillCell is the blank cell used for erases and scrolls: the pen's colors
// with no glyph (background color erase).
func (t *Terminal) fillCell() Cell {
	c := EmptyCell()
	c.Foreground = t.pen.Foreground
	c.Background = t.pen.Background
	return c
}

func (t *Terminal) control(b byte) {
	switch b {
	case 0x07: // BEL
		if fn := t.onBell; fn != nil {
			t.deferred = append(t.deferred, fn)
		}
	case 0x08: // BS
		if t.col > 0 {
			t.col--
		}
		t.pendingWrap = false
	case 0x09: // HT
		t.col = t.nextTabStop(t.col)
		t.pendingWrap = false
	case 0x0A, 0x0B, 0x0C: // LF, VT, FF
		t.linefeed()
	case 0x0D: // CR
		t.col = 0
		t.pendingWrap = false
	case 0x0E: // SO
		t.charsets.ShiftOut()
	case 0x0F: // SI
		t.charsets.ShiftIn()
	}
}

// linefeed moves the cursor down one row, scrolling the region when the
// cursor sits on its bottom line.
func (t *Terminal) linefeed() {
	if t.row == t.scrollBottom {
		t.scrollRegionUp(1)
	} else if t.row < t.buffer().Rows()-1 {
		t.row++
	}
	t.pendingWrap = false
}

// reverseLinefeed is ESC M: up one row, scrolling down at the region top.
func (t *Terminal) reverseLinefeed() {
	if t.row == t.scrollTop {
		t.buffer().ScrollDown(t.scrollTop, t.scrollBottom, 1, t.fillCell())
	} else if t.row > 0 {
		t.row--
	}
	t.pendingWrap = false
}

// scrollRegionUp scrolls the active region up by n. Lines leave through the
// top into scrollback only when the region spans the full primary screen.
func (t *Terminal) scrollRegionUp(n int) {
	b := t.buffer()
	toScrollback := !t.altActive && t.scrollTop == 0 && t.scrollBottom == b.Rows()-1
	b.ScrollUp(t.scrollTop, t.scrollBottom, n, toScrollback, t.fillCell())
}

func (t *Terminal) esc(a EscAction) {
	switch a.Intermediate {
	case '(':
		t.charsets.Designate(0, a.Final)
		return
	case ')':
		t.charsets.Designate(1, a.Final)
		return
	case '*':
		t.charsets.Designate(2, a.Final)
		return
	case '+':
		t.charsets.Designate(3, a.Final)
		return
	case '#':
		if a.Final == '8' {
			t.alignmentTest()
		}
		return
	}

	switch a.Final {
	case 'D': // IND
		t.linefeed()
	case 'E': // NEL
		t.col = 0
		t.linefeed()
	case 'M': // RI
		t.reverseLinefeed()
	case 'H': // HTS
		t.setTabStop(t.col)
	case '7': // DECSC
		t.savedDEC = t.saveCursor()
	case '8': // DECRC
		t.restoreCursor(t.savedDEC)
	case 'N': // SS2
		t.charsets.SingleShift(2)
	case 'O': // SS3
		t.charsets.SingleShift(3)
	case '=':
		t.appKeypad = true
	case '>':
		t.appKeypad = false
	case 'c': // RIS
		t.fullReset()
	case 'Z': // DECID
		t.respond("\x1b[?62;22c")
	}
}

// alignmentTest (DECALN) fills the screen with E and homes the cursor.
func (t *Terminal) alignmentTest() {
	b := t.buffer()
	fill := t.pen.cell()
	fill.Rune = 'E'
	for row := 0; row < b.Rows(); row++ {
		for col := 0; col < b.Cols(); col++ {
			b.SetCell(row, col, fill)
		}
	}
	t.row, t.col = 0, 0
	t.scrollTop = 0
	t.scrollBottom = b.Rows() - 1
	t.pendingWrap = false
}

func (t *Terminal) saveCursor() savedCursor {
	return savedCursor{
		row:         t.row,
		col:         t.col,
		pen:         t.pen,
		charsets:    *t.charsets,
		origin:      t.originMode,
		pendingWrap: t.pendingWrap,
		link:        t.penLink,
	}
}

func (t *Terminal) restoreCursor(s savedCursor) {
	b := t.buffer()
	t.row = clampInt(s.row, 0, b.Rows()-1)
	t.col = clampInt(s.col, 0, b.Cols()-1)
	t.pen = s.pen
	*t.charsets = s.charsets
	t.originMode = s.origin
	t.pendingWrap = s.pendingWrap
	t.penLink = s.link
}

func (t *Terminal) respond(s string) {
	t.output = append(t.output, s...)
}

func (t *Terminal) csi(a CsiAction) {
	b := t.buffer()
	switch a.Final {
	case '@': // ICH
		b.InsertCells(t.row, t.col, a.Param(0, 1), t.fillCell())
	case 'A':
		t.moveCursor(-a.Param(0, 1), 0)
	case 'B':
		t.moveCursor(a.Param(0, 1), 0)
	case 'C':
		t.moveCursor(0, a.Param(0, 1))
	case 'D':
		t.moveCursor(0, -a.Param(0, 1))
	case 'E': // CNL
		t.moveCursor(a.Param(0, 1), 0)
		t.col = 0
	case 'F': // CPL
		t.moveCursor(-a.Param(0, 1), 0)
		t.col = 0
	case 'G', '`': // CHA / HPA
		t.col = clampInt(a.Param(0, 1)-1, 0, b.Cols()-1)
		t.pendingWrap = false
	case 'H', 'f': // CUP / HVP
		t.setCursor(a.Param(0, 1)-1, a.Param(1, 1)-1)
	case 'I': // CHT
		for i := 0; i < a.Param(0, 1); i++ {
			t.col = t.nextTabStop(t.col)
		}
	case 'J':
		t.eraseDisplay(a.Param(0, 0))
	case 'K':
		t.eraseLine(a.Param(0, 0))
	case 'L': // IL
		if t.row >= t.scrollTop && t.row <= t.scrollBottom {
			b.InsertLines(t.row, t.scrollBottom, a.Param(0, 1), t.fillCell())
			t.col = 0
		}
	case 'M': // DL
		if t.row >= t.scrollTop && t.row <= t.scrollBottom {
			b.DeleteLines(t.row, t.scrollBottom, a.Param(0, 1), t.fillCell())
			t.col = 0
		}
	case 'P': // DCH
		b.DeleteCells(t.row, t.col, a.Param(0, 1), t.fillCell())
	case 'S': // SU
		b.ScrollUp(t.scrollTop, t.scrollBottom, a.Param(0, 1), false, t.fillCell())
	case 'T': // SD
		b.ScrollDown(t.scrollTop, t.scrollBottom, a.Param(0, 1), t.fillCell())
	case 'X': // ECH
		b.EraseCells(t.row, t.col, a.Param(0, 1), t.fillCell())
	case 'Z': // CBT
		for i := 0; i < a.Param(0, 1); i++ {
			t.col = t.prevTabStop(t.col)
		}
	case 'a': // HPR
		t.moveCursor(0, a.Param(0, 1))
	case 'b': // REP
		if t.lastPrinted != 0 {
			for i := 0; i < a.Param(0, 1); i++ {
				t.print(t.lastPrinted)
			}
		}
	case 'c':
		t.deviceAttributes(a)
	case 'd': // VPA
		t.setCursor(a.Param(0, 1)-1, t.col)
	case 'e': // VPR
		t.moveCursor(a.Param(0, 1), 0)
	case 'g': // TBC
		switch a.Param(0, 0) {
		case 0:
			if t.col < len(t.tabStops) {
				t.tabStops[t.col] = false
			}
		case 3:
			t.tabStops = make([]bool, b.Cols())
		}
	case 'h':
		t.setModes(a, true)
	case 'l':
		t.setModes(a, false)
	case 'm':
		if a.Private == 0 {
			t.pen.ApplySGR(a.Params, a.RawParams)
		}
	case 'n':
		t.deviceStatus(a)
	case 'p':
		if a.Intermediate() == '!' { // DECSTR
			t.softReset()
		}
	case 'q':
		if a.Intermediate() == ' ' { // DECSCUSR
			t.cursorStyle = a.Param(0, 0)
		}
	case 'r': // DECSTBM
		t.setScrollRegion(a.Param(0, 1), a.Param(1, b.Rows()))
	case 's':
		if a.Private == 0 {
			t.savedANSI = t.saveCursor()
		}
	case 'u':
		if a.Private == 0 {
			t.restoreCursor(t.savedANSI)
		}
	}
}

// moveCursor moves relatively, clamped to the scroll region when the cursor
// starts inside it.
func (t *Terminal) moveCursor(dRow, dCol int) {
	b := t.buffer()
	top, bottom := 0, b.Rows()-1
	if t.row >= t.scrollTop && t.row <= t.scrollBottom {
		top, bottom = t.scrollTop, t.scrollBottom
	}
	t.row = clampInt(t.row+dRow, top, bottom)
	t.col = clampInt(t.col+dCol, 0, b.Cols()-1)
	t.pendingWrap = false
}

// setCursor places the cursor absolutely; in origin mode coordinates are
// relative to the scroll region and clamped inside it.
func (t *Terminal) setCursor(row, col int) {
	b := t.buffer()
	if t.originMode {
		row += t.scrollTop
		t.row = clampInt(row, t.scrollTop, t.scrollBottom)
	} else {
		t.row = clampInt(row, 0, b.Rows()-1)
	}
	t.col = clampInt(col, 0, b.Cols()-1)
	t.pendingWrap = false
}

func (t *Terminal) setScrollRegion(top, bottom int) {
	b := t.buffer()
	top = clampInt(top-1, 0, b.Rows()-1)
	bottom = clampInt(bottom-1, 0, b.Rows()-1)
	if top >= bottom {
		return
	}
	t.scrollTop = top
	t.scrollBottom = bottom
	t.setCursor(0, 0)
}

func (t *Terminal) eraseDisplay(mode int) {
	b := t.buffer()
	fill := t.fillCell()
	switch mode {
	case 0: // cursor to end
		b.EraseCells(t.row, t.col, b.Cols()-t.col, fill)
		if t.row < b.Rows()-1 {
			b.ClearRegion(t.row+1, 0, b.Rows()-1, b.Cols()-1, fill)
		}
	case 1: // start to cursor
		if t.row > 0 {
			b.ClearRegion(0, 0, t.row-1, b.Cols()-1, fill)
		}
		b.EraseCells(t.row, 0, t.col+1, fill)
	case 2:
		b.ClearAll(fill)
	case 3:
		b.ClearAll(fill)
		b.ClearScrollback()
	}
	t.pendingWrap = false
}

func (t *Terminal) eraseLine(mode int) {
	b := t.buffer()
	fill := t.fillCell()
	switch mode {
	case 0:
		b.EraseCells(t.row, t.col, b.Cols()-t.col, fill)
	case 1:
		b.EraseCells(t.row, 0, t.col+1, fill)
	case 2:
		b.EraseCells(t.row, 0, b.Cols(), fill)
	}
	t.pendingWrap = false
}

func (t *Terminal) deviceAttributes(a CsiAction) {
	switch a.Private {
	case 0:
		if a.Param(0, 0) == 0 {
			// VT220-class with sixel-free feature set.
			t.respond("\x1b[?62;22c")
		}
	case '>':
		if a.Param(0, 0) == 0 {
			t.respond("\x1b[>1;10;0c")
		}
	}
}

func (t *Terminal) deviceStatus(a CsiAction) {
	if a.Private != 0 {
		return
	}
	switch a.Param(0, 0) {
	case 5:
		t.respond("\x1b[0n")
	case 6:
		row := t.row + 1
		if t.originMode {
			row = t.row - t.scrollTop + 1
		}
		t.respond(fmt.Sprintf("\x1b[%d;%dR", row, t.col+1))
	}
}

func (t *Terminal) setModes(a CsiAction, on bool) {
	for _, p := range a.Params {
		if a.Private == '?' {
			t.setPrivateMode(p, on)
		} else if a.Private == 0 {
			t.setANSIMode(p, on)
		}
	}
}

func (t *Terminal) setANSIMode(mode int, on bool) {
	if mode == 4 {
		t.insertMode = on
	}
}

func (t *Terminal) setPrivateMode(mode int, on bool) {
	switch mode {
	case 1: // DECCKM
		t.appCursorKeys = on
	case 6: // DECOM
		t.originMode = on
		t.setCursor(0, 0)
	case 7: // DECAWM
		t.autowrap = on
		t.pendingWrap = false
	case 12:
		t.cursorBlink = on
	case 25: // DECTCEM
		t.cursorVisible = on
	case 47:
		t.switchScreen(on, false, false)
	case 1000:
		t.toggleMouse(on, MouseModeClick)
	case 1002:
		t.toggleMouse(on, MouseModeButton)
	case 1003:
		t.toggleMouse(on, MouseModeAny)
	case 1006:
		if on {
			t.mouseEncoding = EncodingSGR
		} else {
			t.mouseEncoding = EncodingLegacy
		}
	case 1047:
		t.switchScreen(on, false, true)
	case 1048:
		if on {
			t.savedDEC = t.saveCursor()
		} else {
			t.restoreCursor(t.savedDEC)
		}
	case 1049:
		if on {
			t.savedDEC = t.saveCursor()
		}
		t.switchScreen(on, true, false)
		if !on {
			t.restoreCursor(t.savedDEC)
		}
	case 2004:
		t.bracketedPaste = on
	}
}

func (t *Terminal) toggleMouse(on bool, mode MouseMode) {
	if on {
		t.mouseMode = mode
	} else if t.mouseMode == mode {
		t.mouseMode = MouseModeOff
	}
}

// switchScreen enters or leaves the alternate screen. clearOnEnter blanks the
// alt screen when entering (1049); clearOnLeave blanks it when leaving
// (1047).
func (t *Terminal) switchScreen(toAlt, clearOnEnter, clearOnLeave bool) {
	if toAlt == t.altActive {
		return
	}
	if toAlt {
		t.altActive = true
		if clearOnEnter {
			t.alt.ClearAll(t.fillCell())
			t.row, t.col = 0, 0
		}
	} else {
		if clearOnLeave {
			t.alt.ClearAll(t.fillCell())
		}
		t.altActive = false
	}
	b := t.buffer()
	t.row = clampInt(t.row, 0, b.Rows()-1)
	t.col = clampInt(t.col, 0, b.Cols()-1)
	t.scrollTop = 0
	t.scrollBottom = b.Rows() - 1
	t.pendingWrap = false
}

// softReset implements DECSTR: modes and pen back to defaults, screen
// contents untouched.
func (t *Terminal) softReset() {
	t.pen.Reset()
	t.charsets.Reset()
	t.originMode = false
	t.autowrap = true
	t.insertMode = false
	t.appCursorKeys = false
	t.appKeypad = false
	t.cursorVisible = true
	t.scrollTop = 0
	t.scrollBottom = t.buffer().Rows() - 1
	t.pendingWrap = false
	t.savedDEC = savedCursor{pen: NewPen()}
	t.savedANSI = savedCursor{pen: NewPen()}
}

// fullReset implements RIS: everything back to power-on state, both screens
// blanked, scrollback kept.
func (t *Terminal) fullReset() {
	t.softReset()
	t.primary.ClearAll(EmptyCell())
	t.alt.ClearAll(EmptyCell())
	t.altActive = false
	t.row, t.col = 0, 0
	t.pen = NewPen()
	t.mouseMode = MouseModeOff
	t.mouseEncoding = EncodingLegacy
	t.bracketedPaste = false
	t.cursorStyle = 0
	t.penLink = 0
	t.hyperlinks = nil
	t.palette = make(map[int]Color)
	t.images.Reset()
	t.resetTabStops(t.primary.Cols())
	t.title = ""
}

// Tab stops.

func (t *Terminal) resetTabStops(cols int) {
	t.tabStops = make([]bool, cols)
	for i := 8; i < cols; i += 8 {
		t.tabStops[i] = true
	}
}

func (t *Terminal) setTabStop(col int) {
	if col >= 0 && col < len(t.tabStops) {
		t.tabStops[col] = true
	}
}

func (t *Terminal) nextTabStop(col int) int {
	cols := t.buffer().Cols()
	for c := col + 1; c < cols && c < len(t.tabStops); c++ {
		if t.tabStops[c] {
			return c
		}
	}
	return cols - 1
}

func (t *Terminal) prevTabStop(col int) int {
	for c := col - 1; c > 0; c-- {
		if c < len(t.tabStops) && t.tabStops[c] {
			return c
		}
	}
	return 0
}

// OSC handling.

func (t *Terminal) osc(payload string) {
	code := payload
	rest := ""
	if idx := strings.IndexByte(payload, ';'); idx >= 0 {
		code, rest = payload[:idx], payload[idx+1:]
	}
	switch code {
	case "0", "2":
		t.title = rest
		t.notifyTitle(rest)
	case "1":
		// Icon name; carried with the title.
		t.notifyTitle(rest)
	case "4":
		t.oscPalette(rest)
	case "8":
		t.oscHyperlink(rest)
	case "10":
		t.oscDynamicColor(10, rest, &t.defaultFg)
	case "11":
		t.oscDynamicColor(11, rest, &t.defaultBg)
	case "52":
		t.oscClipboard(rest)
	case "104":
		t.oscPaletteReset(rest)
	}
}

// oscPalette handles OSC 4: pairs of index;spec, where spec "?" queries the
// current value.
func (t *Terminal) oscPalette(args string) {
	fields := strings.Split(args, ";")
	for i := 0; i+1 < len(fields); i += 2 {
		idx, err := strconv.Atoi(fields[i])
		if err != nil || idx < 0 || idx > 255 {
			continue
		}
		spec := fields[i+1]
		if spec == "?" {
			rgb := Get256ColorRGB(idx)
			if c, ok := t.palette[idx]; ok {
				rgb = RGB{c.R, c.G, c.B}
			}
			c := TrueColor(rgb.R, rgb.G, rgb.B)
			t.respond(fmt.Sprintf("\x1b]4;%d;%s\x07", idx, c.XColorString()))
			continue
		}
		if c, ok := ParseColorSpec(spec); ok {
			t.palette[idx] = c
		}
	}
}

func (t *Terminal) oscPaletteReset(args string) {
	if args == "" {
		t.palette = make(map[int]Color)
		return
	}
	for _, f := range strings.Split(args, ";") {
		if idx, err := strconv.Atoi(f); err == nil {
			delete(t.palette, idx)
		}
	}
}

func (t *Terminal) oscDynamicColor(code int, spec string, target *Color) {
	if spec == "?" {
		t.respond(fmt.Sprintf("\x1b]%d;%s\x07", code, target.XColorString()))
		return
	}
	if c, ok := ParseColorSpec(spec); ok {
		*target = c
	}
}

// oscHyperlink handles OSC 8 "params;uri". An empty URI ends the current
// link.
func (t *Terminal) oscHyperlink(args string) {
	idx := strings.IndexByte(args, ';')
	if idx < 0 {
		return
	}
	uri := args[idx+1:]
	if uri == "" {
		t.penLink = 0
		return
	}
	t.hyperlinks = append(t.hyperlinks, uri)
	t.penLink = len(t.hyperlinks)
}

// oscClipboard handles OSC 52 "selection;base64-data" through the registered
// callbacks.
func (t *Terminal) oscClipboard(args string) {
	idx := strings.IndexByte(args, ';')
	if idx < 0 {
		return
	}
	selection, data := args[:idx], args[idx+1:]
	if selection == "" {
		selection = "c"
	}
	if data == "?" {
		get := t.onClipboardGet
		if get == nil {
			return
		}
		// The reply depends on the callback's answer, so both the call and
		// the response append run after the lock is dropped.
		t.deferred = append(t.deferred, func() {
			content := get(selection)
			enc := base64.StdEncoding.EncodeToString(content)
			t.mu.Lock()
			t.respond(fmt.Sprintf("\x1b]52;%s;%s\x07", selection, enc))
			t.mu.Unlock()
		})
		return
	}
	set := t.onClipboardSet
	if set == nil {
		return
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return
	}
	t.deferred = append(t.deferred, func() { set(selection, decoded) })
}

func (t *Terminal) notifyTitle(title string) {
	if fn := t.onTitle; fn != nil {
		t.deferred = append(t.deferred, func() { fn(title) })
	}
}

// DCS handling: DECRQSS state queries.

func (t *Terminal) dcs(payload string) {
	if !strings.HasPrefix(payload, "$q") {
		return
	}
	switch payload[2:] {
	case "m":
		t.respond("\x1bP1$r" + t.pen.SGR() + "m\x1b\\")
	case "r":
		t.respond(fmt.Sprintf("\x1bP1$r%d;%dr\x1b\\", t.scrollTop+1, t.scrollBottom+1))
	case " q":
		t.respond(fmt.Sprintf("\x1bP1$r%d q\x1b\\", t.cursorStyle))
	default:
		t.respond("\x1bP0$r\x1b\\")
	}
}

func (t *Terminal) graphics(payload string) {
	cmd, err := ParseGraphicsCommand(payload)
	if err != nil {
		return
	}
	b := t.buffer()
	resp, _ := t.images.HandleCommand(cmd, t.row, t.col, b.Rows(), b.Cols())
	if resp != "" {
		t.respond(resp)
	}
}
