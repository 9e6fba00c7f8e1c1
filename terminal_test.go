package vtcore

import (
	"strings"
	"testing"
)

func feedString(t *Terminal, s string) {
	t.Feed([]byte(s))
}

func screenRow(t *Terminal, row int) string {
	cols, _ := t.Size()
	var sb strings.Builder
	for col := 0; col < cols; col++ {
		cell := t.Cell(row, col)
		if cell.IsContinuation() {
			continue
		}
		sb.WriteRune(cell.Rune)
	}
	return strings.TrimRight(sb.String(), " ")
}

func TestTerminalRedHello(t *testing.T) {
	term := NewTerminal(10, 1)
	feedString(term, "\x1b[31mHello\x1b[0m")

	for i, want := range "Hello" {
		cell := term.Cell(0, i)
		if cell.Rune != want {
			t.Errorf("cell %d = %q, want %q", i, cell.Rune, want)
		}
		if cell.Foreground != StandardColor(1) {
			t.Errorf("cell %d foreground = %+v, want red", i, cell.Foreground)
		}
	}
	if _, col := term.Cursor(); col != 5 {
		t.Errorf("cursor col = %d, want 5", col)
	}
	// The trailing reset applies to future prints, not existing cells.
	feedString(term, "x")
	if c := term.Cell(0, 5); c.Foreground != DefaultForeground {
		t.Errorf("post-reset cell foreground = %+v", c.Foreground)
	}
}

func TestTerminalClearAndHome(t *testing.T) {
	term := NewTerminal(20, 5)
	feedString(term, "line one\r\nline two\x1b[3;4H")
	feedString(term, "\x1b[2J\x1b[H")

	cols, rows := term.Size()
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if term.Cell(row, col).Rune != ' ' {
				t.Fatalf("cell (%d,%d) not blank after ED 2", row, col)
			}
		}
	}
	if row, col := term.Cursor(); row != 0 || col != 0 {
		t.Errorf("cursor = (%d,%d), want (0,0)", row, col)
	}
}

func TestTerminalSplitFeedEqualsWhole(t *testing.T) {
	input := "\x1b[2;3H\x1b[1;38;5;96mpayload\x1b[0m\x1b[2J\x1b[Hdone"
	whole := NewTerminal(20, 5)
	feedString(whole, input)

	for split := 1; split < len(input); split++ {
		chunked := NewTerminal(20, 5)
		chunked.Feed([]byte(input[:split]))
		chunked.Feed([]byte(input[split:]))

		wr, wc := whole.Cursor()
		cr, cc := chunked.Cursor()
		if wr != cr || wc != cc {
			t.Fatalf("split %d: cursor (%d,%d) != (%d,%d)", split, cr, cc, wr, wc)
		}
		for row := 0; row < 5; row++ {
			for col := 0; col < 20; col++ {
				if chunked.Cell(row, col) != whole.Cell(row, col) {
					t.Fatalf("split %d: cell (%d,%d) differs", split, row, col)
				}
			}
		}
	}
}

func TestTerminalTwoCallCSI(t *testing.T) {
	a := NewTerminal(10, 3)
	feedString(a, "junk")
	a.Feed([]byte("\x1b["))
	a.Feed([]byte("2J"))

	b := NewTerminal(10, 3)
	feedString(b, "junk")
	b.Feed([]byte("\x1b[2J"))

	for row := 0; row < 3; row++ {
		for col := 0; col < 10; col++ {
			if a.Cell(row, col) != b.Cell(row, col) {
				t.Fatalf("cell (%d,%d) differs between split and whole feed", row, col)
			}
		}
	}
}

func TestTerminalAutowrap(t *testing.T) {
	term := NewTerminal(5, 3)
	feedString(term, "abcdefg")
	if got := screenRow(term, 0); got != "abcde" {
		t.Errorf("row 0 = %q", got)
	}
	if got := screenRow(term, 1); got != "fg" {
		t.Errorf("row 1 = %q", got)
	}
	if !term.primary.LineWrapped(0) {
		t.Error("wrapped flag not set on overflowing line")
	}

	// With autowrap off, printing sticks at the right margin.
	term = NewTerminal(5, 3)
	feedString(term, "\x1b[?7labcdefg")
	if got := screenRow(term, 0); got != "abcdg" {
		t.Errorf("no-wrap row 0 = %q", got)
	}
	if got := screenRow(term, 1); got != "" {
		t.Errorf("no-wrap row 1 = %q", got)
	}
}

func TestTerminalWideGlyphs(t *testing.T) {
	term := NewTerminal(10, 2)
	feedString(term, "a世b")
	if c := term.Cell(0, 1); c.Rune != '世' || c.Width != 2 {
		t.Errorf("wide cell = %+v", c)
	}
	if c := term.Cell(0, 2); !c.IsContinuation() {
		t.Errorf("continuation cell = %+v", c)
	}
	if c := term.Cell(0, 3); c.Rune != 'b' {
		t.Errorf("cell after wide glyph = %q", c.Rune)
	}

	// A wide glyph that does not fit in the last column wraps whole.
	term = NewTerminal(5, 2)
	feedString(term, "abcd世")
	if got := screenRow(term, 0); got != "abcd" {
		t.Errorf("row 0 = %q", got)
	}
	if c := term.Cell(1, 0); c.Rune != '世' {
		t.Errorf("wrapped wide glyph at (1,0) = %q", c.Rune)
	}
}

func TestTerminalCursorMovement(t *testing.T) {
	term := NewTerminal(10, 5)
	feedString(term, "\x1b[3;4H")
	if row, col := term.Cursor(); row != 2 || col != 3 {
		t.Fatalf("CUP: (%d,%d)", row, col)
	}
	feedString(term, "\x1b[2A\x1b[3C")
	if row, col := term.Cursor(); row != 0 || col != 6 {
		t.Errorf("after CUU/CUF: (%d,%d)", row, col)
	}
	// Movement clamps at the edges.
	feedString(term, "\x1b[99D\x1b[99B")
	if row, col := term.Cursor(); row != 4 || col != 0 {
		t.Errorf("after clamped moves: (%d,%d)", row, col)
	}
}

func TestTerminalScrollRegion(t *testing.T) {
	term := NewTerminal(10, 5)
	for i := 1; i <= 5; i++ {
		feedString(term, "l")
		feedString(term, string(rune('0'+i)))
		if i < 5 {
			feedString(term, "\r\n")
		}
	}
	// Region rows 2-4 (1-based), cursor to region bottom, then linefeed.
	feedString(term, "\x1b[2;4r\x1b[4;1H\n")
	if got := screenRow(term, 0); got != "l1" {
		t.Errorf("row above region scrolled: %q", got)
	}
	if got := screenRow(term, 1); got != "l3" {
		t.Errorf("region top = %q, want l3", got)
	}
	if got := screenRow(term, 3); got != "" {
		t.Errorf("region bottom = %q, want blank", got)
	}
	if got := screenRow(term, 4); got != "l5" {
		t.Errorf("row below region scrolled: %q", got)
	}
}

func TestTerminalOriginMode(t *testing.T) {
	term := NewTerminal(10, 6)
	feedString(term, "\x1b[3;5r\x1b[?6h\x1b[1;1H")
	if row, _ := term.Cursor(); row != 2 {
		t.Errorf("origin-mode home row = %d, want region top", row)
	}
	// CUP cannot leave the region while origin mode is on.
	feedString(term, "\x1b[99;1H")
	if row, _ := term.Cursor(); row != 4 {
		t.Errorf("origin-mode clamp row = %d, want region bottom", row)
	}
}

func TestTerminalInsertDelete(t *testing.T) {
	term := NewTerminal(10, 2)
	feedString(term, "abcdef\x1b[1;3H\x1b[2@")
	if got := screenRow(term, 0); got != "ab  cdef" {
		t.Errorf("after ICH: %q", got)
	}
	feedString(term, "\x1b[2P")
	if got := screenRow(term, 0); got != "abcdef" {
		t.Errorf("after DCH: %q", got)
	}
	feedString(term, "\x1b[2X")
	if got := screenRow(term, 0); got != "ab  ef" {
		t.Errorf("after ECH: %q", got)
	}
}

func TestTerminalEraseLine(t *testing.T) {
	term := NewTerminal(10, 1)
	feedString(term, "abcdefghij\x1b[1;5H")
	feedString(term, "\x1b[1K")
	if got := screenRow(term, 0); got != "     fghij" {
		t.Errorf("after EL 1: %q", got)
	}
	feedString(term, "\x1b[0K")
	if got := screenRow(term, 0); got != "" {
		t.Errorf("after EL 0: %q", got)
	}
}

func TestTerminalAltScreen(t *testing.T) {
	term := NewTerminal(10, 3)
	feedString(term, "primary")
	feedString(term, "\x1b[?1049h")
	if !term.AltScreenActive() {
		t.Fatal("alt screen not active")
	}
	if got := screenRow(term, 0); got != "" {
		t.Errorf("alt screen not blank: %q", got)
	}
	feedString(term, "alt stuff")
	feedString(term, "\x1b[?1049l")
	if term.AltScreenActive() {
		t.Fatal("alt screen still active")
	}
	if got := screenRow(term, 0); got != "primary" {
		t.Errorf("primary content lost: %q", got)
	}
	if _, col := term.Cursor(); col != len("primary") {
		t.Errorf("cursor not restored: col=%d", col)
	}
}

func TestTerminalSaveRestoreCursorSlots(t *testing.T) {
	term := NewTerminal(20, 5)
	// DEC slot.
	feedString(term, "\x1b[2;3H\x1b7\x1b[4;7H\x1b8")
	if row, col := term.Cursor(); row != 1 || col != 2 {
		t.Errorf("DECRC: (%d,%d)", row, col)
	}
	// ANSI slot is independent.
	feedString(term, "\x1b[5;5H\x1b[s\x1b[1;1H\x1b8")
	if row, col := term.Cursor(); row != 1 || col != 2 {
		t.Errorf("DEC slot disturbed by CSI s: (%d,%d)", row, col)
	}
	feedString(term, "\x1b[u")
	if row, col := term.Cursor(); row != 4 || col != 4 {
		t.Errorf("ANSI restore: (%d,%d)", row, col)
	}
}

func TestTerminalDeviceStatusReports(t *testing.T) {
	term := NewTerminal(80, 24)
	feedString(term, "\x1b[5n")
	if got := string(term.TakePendingOutput()); got != "\x1b[0n" {
		t.Errorf("DSR 5 reply = %q", got)
	}
	feedString(term, "\x1b[3;7H\x1b[6n")
	if got := string(term.TakePendingOutput()); got != "\x1b[3;7R" {
		t.Errorf("CPR = %q", got)
	}
	feedString(term, "\x1b[c")
	if got := string(term.TakePendingOutput()); !strings.HasPrefix(got, "\x1b[?") {
		t.Errorf("DA1 reply = %q", got)
	}
	feedString(term, "\x1b[>c")
	if got := string(term.TakePendingOutput()); !strings.HasPrefix(got, "\x1b[>") {
		t.Errorf("DA2 reply = %q", got)
	}
}

func TestTerminalDECRQSS(t *testing.T) {
	term := NewTerminal(80, 24)
	feedString(term, "\x1b[1;31m")
	feedString(term, "\x1bP$qm\x1b\\")
	got := string(term.TakePendingOutput())
	want := "\x1bP1$r0;1;31m\x1b\\"
	if got != want {
		t.Errorf("DECRQSS reply = %q, want %q", got, want)
	}
	// Unknown settings get the failure form.
	feedString(term, "\x1bP$qz\x1b\\")
	if got := string(term.TakePendingOutput()); got != "\x1bP0$r\x1b\\" {
		t.Errorf("unknown DECRQSS reply = %q", got)
	}
}

func TestTerminalTitleAndCallbacks(t *testing.T) {
	term := NewTerminal(80, 24)
	var seen string
	term.OnTitleChange(func(s string) { seen = s })
	feedString(term, "\x1b]2;my title\x07")
	if term.Title() != "my title" || seen != "my title" {
		t.Errorf("title = %q, callback = %q", term.Title(), seen)
	}

	rang := false
	term.OnBell(func() { rang = true })
	feedString(term, "\x07")
	if !rang {
		t.Error("bell callback not invoked")
	}
}

func TestTerminalCallbacksMayReenter(t *testing.T) {
	term := NewTerminal(80, 24)
	var title string
	var row, col int
	term.OnTitleChange(func(string) {
		// Reading terminal state from inside a callback must not deadlock.
		title = term.Title()
		row, col = term.Cursor()
	})
	term.OnBell(func() { _, _ = term.Size() })
	term.OnClipboard(func(string, []byte) { _ = term.Title() }, func(string) []byte {
		_, _ = term.Cursor()
		return nil
	})

	feedString(term, "abc\x1b]2;reentrant\x07\x07\x1b]52;c;aGk=\x07\x1b]52;c;?\x07")
	if title != "reentrant" || row != 0 || col != 3 {
		t.Errorf("callback saw title=%q cursor=(%d,%d)", title, row, col)
	}
	if got := string(term.TakePendingOutput()); got != "\x1b]52;c;\x07" {
		t.Errorf("clipboard query reply = %q", got)
	}
}

func TestTerminalClipboard(t *testing.T) {
	term := NewTerminal(80, 24)
	var gotSel string
	var gotData []byte
	term.OnClipboard(func(sel string, data []byte) {
		gotSel, gotData = sel, data
	}, func(sel string) []byte {
		return []byte("stored")
	})

	feedString(term, "\x1b]52;c;aGVsbG8=\x07") // "hello"
	if gotSel != "c" || string(gotData) != "hello" {
		t.Errorf("clipboard set: sel=%q data=%q", gotSel, gotData)
	}

	feedString(term, "\x1b]52;c;?\x07")
	if got := string(term.TakePendingOutput()); got != "\x1b]52;c;c3RvcmVk\x07" {
		t.Errorf("clipboard query reply = %q", got)
	}
}

func TestTerminalHyperlinks(t *testing.T) {
	term := NewTerminal(40, 2)
	feedString(term, "\x1b]8;;https://example.com\x1b\\link\x1b]8;;\x1b\\plain")
	linkID := term.Cell(0, 0).Hyperlink
	if linkID == 0 {
		t.Fatal("linked cell has no hyperlink id")
	}
	if got := term.Hyperlink(linkID); got != "https://example.com" {
		t.Errorf("Hyperlink(%d) = %q", linkID, got)
	}
	if term.Cell(0, 4).Hyperlink != 0 {
		t.Error("cell after link end still linked")
	}
}

func TestTerminalModes(t *testing.T) {
	term := NewTerminal(80, 24)
	feedString(term, "\x1b[?2004h\x1b[?1h")
	if !term.BracketedPaste() || !term.ApplicationCursorKeys() {
		t.Error("modes not set")
	}
	feedString(term, "\x1b[?2004l\x1b[?1l")
	if term.BracketedPaste() || term.ApplicationCursorKeys() {
		t.Error("modes not cleared")
	}

	feedString(term, "\x1b[?25l")
	if term.CursorVisible() {
		t.Error("cursor still visible after DECTCEM reset")
	}

	feedString(term, "\x1b[?1002h\x1b[?1006h")
	mode, enc := term.MouseState()
	if mode != MouseModeButton || enc != EncodingSGR {
		t.Errorf("mouse state = %d/%d", mode, enc)
	}
}

func TestTerminalBracketedPaste(t *testing.T) {
	term := NewTerminal(80, 24)
	term.Paste([]byte("data"))
	if got := string(term.TakePendingOutput()); got != "data" {
		t.Errorf("plain paste = %q", got)
	}
	feedString(term, "\x1b[?2004h")
	term.Paste([]byte("data"))
	if got := string(term.TakePendingOutput()); got != "\x1b[200~data\x1b[201~" {
		t.Errorf("bracketed paste = %q", got)
	}
}

func TestTerminalMouseReporting(t *testing.T) {
	term := NewTerminal(80, 24)
	ev := MouseEvent{Button: ButtonLeft, Col: 3, Row: 2, Press: true}

	// No tracking: nothing reported.
	term.ReportMouse(ev)
	if out := term.TakePendingOutput(); len(out) != 0 {
		t.Errorf("untracked event reported: %q", out)
	}

	feedString(term, "\x1b[?1000h\x1b[?1006h")
	term.ReportMouse(ev)
	if got := string(term.TakePendingOutput()); got != "\x1b[<0;4;3M" {
		t.Errorf("tracked event = %q", got)
	}

	// Pixel coordinates map through the configured cell size; out-of-bounds
	// positions yield nothing.
	term.ReportMousePixels(ev, 35, 45)
	if got := string(term.TakePendingOutput()); got != "\x1b[<0;4;3M" {
		t.Errorf("pixel event = %q", got)
	}
	term.ReportMousePixels(ev, 80*10+1, 0)
	if out := term.TakePendingOutput(); len(out) != 0 {
		t.Errorf("out-of-bounds pixel event reported: %q", out)
	}
}

func TestTerminalScrollbackFeedsFromTop(t *testing.T) {
	term := NewTerminal(10, 3)
	feedString(term, "one\r\ntwo\r\nthree\r\nfour")
	if term.ScrollbackLen() != 1 {
		t.Fatalf("scrollback len = %d, want 1", term.ScrollbackLen())
	}
	line := term.ScrollbackLine(0)
	var sb strings.Builder
	for _, c := range line.Cells {
		sb.WriteRune(c.Rune)
	}
	if got := strings.TrimRight(sb.String(), " "); got != "one" {
		t.Errorf("scrollback line = %q, want %q", got, "one")
	}
	if got := screenRow(term, 0); got != "two" {
		t.Errorf("top visible row = %q", got)
	}
}

func TestTerminalResizeClampsAndPreserves(t *testing.T) {
	term := NewTerminal(10, 4)
	feedString(term, "keep me")
	term.Resize(2000, -5)
	cols, rows := term.Size()
	if cols != MaxDimension || rows != MinDimension {
		t.Errorf("resize bounds: %dx%d", cols, rows)
	}
	if got := screenRow(term, 0); got != "keep me" {
		t.Errorf("content lost on grow: %q", got)
	}
	term.Resize(10, 4)
	if got := screenRow(term, 0); got != "keep me" {
		t.Errorf("content lost on shrink back: %q", got)
	}
}

func TestTerminalTabStops(t *testing.T) {
	term := NewTerminal(40, 2)
	feedString(term, "\ta")
	if c := term.Cell(0, 8); c.Rune != 'a' {
		t.Errorf("default tab stop: 'a' not at col 8")
	}
	// Set a custom stop at col 3, clear all defaults first.
	term = NewTerminal(40, 2)
	feedString(term, "\x1b[3g\x1b[1;4H\x1bH\r\tb")
	if c := term.Cell(0, 3); c.Rune != 'b' {
		row, col := term.Cursor()
		t.Errorf("custom tab stop: 'b' not at col 3 (cursor %d,%d)", row, col)
	}
}

func TestTerminalDECGraphicsIntegration(t *testing.T) {
	term := NewTerminal(10, 1)
	feedString(term, "\x1b(0lqk\x1b(B")
	want := []rune{'┌', '─', '┐'}
	for i, r := range want {
		if c := term.Cell(0, i); c.Rune != r {
			t.Errorf("cell %d = %q, want %q", i, c.Rune, r)
		}
	}
	feedString(term, "x")
	if c := term.Cell(0, 3); c.Rune != 'x' {
		t.Errorf("after ESC (B: %q", c.Rune)
	}
}

func TestTerminalKittyIntegration(t *testing.T) {
	term := NewTerminal(80, 24)
	payload := b64(rgbaPixels(2, 2))
	feedString(term, "\x1b_Ga=T,f=32,s=2,v=2,i=7;"+payload+"\x1b\\")

	if _, ok := term.ImageData(7); !ok {
		t.Fatal("image 7 not stored via APC")
	}
	if len(term.Placements()) != 1 {
		t.Fatalf("placements = %d", len(term.Placements()))
	}
	if got := string(term.TakePendingOutput()); !strings.Contains(got, "Gi=7;OK") {
		t.Errorf("graphics ack = %q", got)
	}

	feedString(term, "\x1b_Ga=d,d=I,i=7\x1b\\")
	if len(term.Placements()) != 0 {
		t.Error("placements survived delete")
	}
	if _, ok := term.ImageData(7); ok {
		t.Error("image survived delete")
	}
}

func TestTerminalFullReset(t *testing.T) {
	term := NewTerminal(20, 5)
	feedString(term, "\x1b[31mstuff\x1b[?25l\x1b[2;4r\x1b]2;t\x07")
	feedString(term, "\x1bc")
	if got := screenRow(term, 0); got != "" {
		t.Errorf("screen not cleared: %q", got)
	}
	if row, col := term.Cursor(); row != 0 || col != 0 {
		t.Errorf("cursor = (%d,%d)", row, col)
	}
	if !term.CursorVisible() {
		t.Error("cursor hidden after RIS")
	}
	if term.Title() != "" {
		t.Errorf("title survived RIS: %q", term.Title())
	}
	feedString(term, "x")
	if c := term.Cell(0, 0); c.Foreground != DefaultForeground {
		t.Errorf("pen survived RIS: %+v", c.Foreground)
	}
}
