package vtcore

import "fmt"

// MouseMode selects which mouse events the application has asked for.
type MouseMode uint8

const (
	MouseModeOff    MouseMode = iota
	MouseModeClick            // presses and releases only (mode 1000)
	MouseModeButton           // clicks plus drag motion (mode 1002)
	MouseModeAny              // clicks plus all motion (mode 1003)
)

// MouseEncoding selects the wire format for reported events.
type MouseEncoding uint8

const (
	// EncodingLegacy is the original X10/X11 byte encoding. Coordinates
	// beyond column or row 223 cannot be represented and are dropped.
	EncodingLegacy MouseEncoding = iota
	// EncodingSGR is the CSI < variant enabled by mode 1006, with no
	// coordinate limit and distinguishable releases.
	EncodingSGR
)

// MouseButton identifies the button involved in an event.
type MouseButton uint8

const (
	ButtonLeft MouseButton = iota
	ButtonMiddle
	ButtonRight
	ButtonNone // motion with no button held
	WheelUp
	WheelDown
)

// MouseEvent is one pointer event in cell coordinates, 0-based.
type MouseEvent struct {
	Button  MouseButton
	Col     int
	Row     int
	Press   bool // true for press, false for release; wheel events are presses
	Motion  bool // event is movement rather than a button transition
	Shift   bool
	Alt     bool
	Control bool
}

// legacyCoordMax is the highest 0-based coordinate the legacy encoding can
// carry (value + 32 + 1 must fit a byte).
const legacyCoordMax = 222

// EncodeMouseEvent renders an event in the given mode and encoding. It
// returns nil when the mode filters the event out or the legacy encoding
// cannot represent its coordinates.
func EncodeMouseEvent(ev MouseEvent, mode MouseMode, enc MouseEncoding) []byte {
	if !mouseReportable(ev, mode) {
		return nil
	}

	b := buttonCode(ev)
	if enc == EncodingSGR {
		final := byte('M')
		if !ev.Press && !ev.Motion && ev.Button < WheelUp {
			final = 'm'
		}
		return []byte(fmt.Sprintf("\x1b[<%d;%d;%d%c", b, ev.Col+1, ev.Row+1, final))
	}

	if ev.Col > legacyCoordMax || ev.Row > legacyCoordMax || ev.Col < 0 || ev.Row < 0 {
		return nil
	}
	code := b
	if !ev.Press && !ev.Motion && ev.Button < WheelUp {
		// Legacy releases report button 3 regardless of which was let go.
		code = (code &^ 0x43) | 3
	}
	return []byte{0x1b, '[', 'M', byte(code + 32), byte(ev.Col + 33), byte(ev.Row + 33)}
}

// mouseReportable applies the mode filter.
func mouseReportable(ev MouseEvent, mode MouseMode) bool {
	switch mode {
	case MouseModeOff:
		return false
	case MouseModeClick:
		return !ev.Motion
	case MouseModeButton:
		return !ev.Motion || ev.Button != ButtonNone
	case MouseModeAny:
		return true
	}
	return false
}

// buttonCode builds the shared button/modifier code used by both encodings.
func buttonCode(ev MouseEvent) int {
	var code int
	switch ev.Button {
	case ButtonLeft:
		code = 0
	case ButtonMiddle:
		code = 1
	case ButtonRight:
		code = 2
	case ButtonNone:
		code = 3
	case WheelUp:
		code = 64
	case WheelDown:
		code = 65
	}
	if ev.Motion {
		code += 32
	}
	if ev.Shift {
		code += 4
	}
	if ev.Alt {
		code += 8
	}
	if ev.Control {
		code += 16
	}
	return code
}

// CellFromPixel converts pixel coordinates to the containing cell using
// floor division. Negative pixels clamp to cell 0.
func CellFromPixel(px, py, cellWidth, cellHeight int) (col, row int) {
	if cellWidth <= 0 {
		cellWidth = DefaultCellWidth
	}
	if cellHeight <= 0 {
		cellHeight = DefaultCellHeight
	}
	if px > 0 {
		col = px / cellWidth
	}
	if py > 0 {
		row = py / cellHeight
	}
	return col, row
}
