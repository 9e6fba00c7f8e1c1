package vtcore

// Charset identifies a character set that can occupy one of the G0-G3 slots.
type Charset uint8

const (
	CharsetASCII Charset = iota
	CharsetDECGraphics
	CharsetUK
	CharsetDECAlternate
	CharsetDECTechnical
)

// decGraphics maps the 0x60-0x7E range of the DEC Special Graphics set to
// the Unicode line-drawing and symbol equivalents.
var decGraphics = map[rune]rune{
	'`': '◆', // diamond
	'a': '▒', // checkerboard
	'b': '␉',
	'c': '␌',
	'd': '␍',
	'e': '␊',
	'f': '°', // degree
	'g': '±', // plus/minus
	'h': '␤',
	'i': '␋',
	'j': '┘',
	'k': '┐',
	'l': '┌',
	'm': '└',
	'n': '┼',
	'o': '⎺',
	'p': '⎻',
	'q': '─',
	'r': '⎼',
	's': '⎽',
	't': '├',
	'u': '┤',
	'v': '┴',
	'w': '┬',
	'x': '│',
	'y': '≤',
	'z': '≥',
	'{': 'π',
	'|': '≠',
	'}': '£',
	'~': '·',
}

// CharsetManager tracks the four designated character sets, the active slot,
// and any pending single shift, translating runes as they are printed.
type CharsetManager struct {
	slots  [4]Charset
	active int
	// singleShift holds 2 or 3 while an SS2/SS3 applies to the next rune,
	// 0 otherwise.
	singleShift int
}

// NewCharsetManager returns a manager with all slots set to US-ASCII and G0
// active.
func NewCharsetManager() *CharsetManager {
	return &CharsetManager{}
}

// Reset restores the power-on state: ASCII in every slot, G0 active, no
// pending shift.
func (m *CharsetManager) Reset() {
	*m = CharsetManager{}
}

// Designate assigns a character set to slot 0-3 based on the final byte of an
// ESC ( ) * + sequence. Unknown finals designate ASCII.
func (m *CharsetManager) Designate(slot int, final byte) {
	if slot < 0 || slot > 3 {
		return
	}
	switch final {
	case '0':
		m.slots[slot] = CharsetDECGraphics
	case 'A':
		m.slots[slot] = CharsetUK
	case '1':
		// DEC alternate ROM, kept distinct but mapped as ASCII.
		m.slots[slot] = CharsetDECAlternate
	case '>':
		// DEC technical, kept distinct but mapped as ASCII.
		m.slots[slot] = CharsetDECTechnical
	default:
		// 'B' and anything unrecognized fall back to ASCII.
		m.slots[slot] = CharsetASCII
	}
}

// ShiftIn makes G0 active (SI, 0x0F).
func (m *CharsetManager) ShiftIn() { m.active = 0 }

// ShiftOut makes G1 active (SO, 0x0E).
func (m *CharsetManager) ShiftOut() { m.active = 1 }

// SingleShift arranges for the next printed rune to use G2 or G3.
func (m *CharsetManager) SingleShift(slot int) {
	if slot == 2 || slot == 3 {
		m.singleShift = slot
	}
}

// Map translates a rune through the charset selected by the current shift
// state, consuming any pending single shift.
func (m *CharsetManager) Map(r rune) rune {
	slot := m.active
	if m.singleShift != 0 {
		slot = m.singleShift
		m.singleShift = 0
	}
	switch m.slots[slot] {
	case CharsetDECGraphics:
		if mapped, ok := decGraphics[r]; ok {
			return mapped
		}
	case CharsetUK:
		if r == '#' {
			return '£'
		}
	}
	return r
}

// Active returns the index of the active slot, ignoring single shifts.
func (m *CharsetManager) Active() int { return m.active }

// Slot returns the charset designated in slot 0-3.
func (m *CharsetManager) Slot(i int) Charset {
	if i < 0 || i > 3 {
		return CharsetASCII
	}
	return m.slots[i]
}
