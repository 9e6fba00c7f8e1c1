package vtcore

// Actions are the structured output of the byte-stream parser. The parser turns
// raw terminal output into a flat sequence of these values; the Terminal applies
// them with a single dispatch switch. There are no handler interfaces — an
// Action is plain data and can be inspected or replayed by tests.
type Action interface {
	isAction()
}

// PrintAction is a single printable character (already decoded from UTF-8).
type PrintAction struct {
	Rune rune
}

// ControlAction is a C0 control byte (0x00-0x1F, 0x7F) executed in ground state.
type ControlAction struct {
	Byte byte
}

// CsiAction is a complete CSI sequence: ESC [ <private> <params> <intermediates> <final>.
// Params holds the semicolon-separated integer parameters with empty fields as 0.
// RawParams preserves the original parameter strings so colon-separated
// subparameters (SGR 4:3, 38:2::r:g:b) survive for handlers that need them.
type CsiAction struct {
	Private       byte // 0x3C-0x3F ('<' '=' '>' '?'), or 0 if none
	Intermediates []byte
	Params        []int
	RawParams     []string
	Final         byte
}

// Param returns the parameter at index i, or def when the parameter is absent
// or zero. Zero-as-default matches how xterm treats the sequences this core
// dispatches through it (CUU, CUP, ED, ... all have a minimum meaningful
// value of 1; handlers that distinguish explicit zero index Params directly).
func (a CsiAction) Param(i, def int) int {
	if i < len(a.Params) && a.Params[i] > 0 {
		return a.Params[i]
	}
	return def
}

// Intermediate returns the first intermediate byte, or 0 if there is none.
// The sequences this core handles carry at most one (e.g. DECSCUSR's SP).
func (a CsiAction) Intermediate() byte {
	if len(a.Intermediates) > 0 {
		return a.Intermediates[0]
	}
	return 0
}

// OscAction is a complete OSC string (terminated by BEL or ST), payload verbatim.
type OscAction struct {
	Payload string
}

// DcsAction is a complete DCS string (terminated by ST), payload verbatim
// including any parameter prefix (e.g. "$qm" for DECRQSS).
type DcsAction struct {
	Payload string
}

// EscAction is a non-CSI escape sequence: ESC <intermediate?> <final>.
// Charset designations arrive here with Intermediate set to '(' ')' '*' or '+'.
type EscAction struct {
	Intermediate byte // 0 if none
	Final        byte
}

// StringKind identifies which control string introduced a StringAction.
type StringKind int

const (
	StringSOS StringKind = iota // ESC X
	StringPM                    // ESC ^
	StringAPC                   // ESC _
)

// StringAction is a SOS/PM/APC control string. Most are ignored, but APC
// payloads beginning with 'G' carry Kitty graphics commands.
type StringAction struct {
	Kind    StringKind
	Payload string
}

func (PrintAction) isAction()   {}
func (ControlAction) isAction() {}
func (CsiAction) isAction()     {}
func (OscAction) isAction()     {}
func (DcsAction) isAction()     {}
func (EscAction) isAction()     {}
func (StringAction) isAction()  {}
