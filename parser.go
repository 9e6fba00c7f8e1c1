package vtcore

import (
	"strconv"
	"strings"
)

// Parser states
type parserState int

const (
	stateGround   parserState = iota
	stateEscape               // After ESC
	stateCSI                  // After ESC [, before any parameter byte
	stateCSIParam             // Reading CSI parameters/intermediates
	stateOSC                  // Reading an OSC string
	stateDCS                  // Reading a DCS string
	stateSosPmApc             // Reading a SOS/PM/APC string
)

// maxSequenceLen bounds how many bytes a single in-progress sequence may
// accumulate. A CSI sequence that grows past this is assumed to be garbage and
// is silently discarded; an overlong control string keeps consuming (so the
// stream stays in sync) but stops accumulating payload.
const maxSequenceLen = 4096

// Parser is a streaming lexer for the terminal output byte stream. Feed may be
// called with the stream split at arbitrary byte boundaries — mid-escape,
// mid-parameter, or mid-UTF-8-rune — and produces exactly the Actions that
// feeding the whole stream at once would.
//
// A Parser is not safe for concurrent use; the embedder must call Feed from a
// single goroutine in stream order.
type Parser struct {
	state parserState

	// CSI sequence accumulator
	csiPrivate       byte
	csiIntermediates []byte
	csiParams        []int
	csiRawParams     []string
	csiBuf           strings.Builder
	csiLen           int
	csiPending       bool // a ';' closed a field, so the next flush must produce one

	// Two-byte escape intermediate ('(' ')' '*' '+' '#')
	escIntermediate byte

	// OSC/DCS/SOS/PM/APC accumulator
	strBuf     strings.Builder
	strKind    StringKind
	pendingEsc bool // ESC seen inside a string state, awaiting '\' (ST) or abort

	// UTF-8 multi-byte handling
	utf8Buf  []byte
	utf8Need int

	actions []Action
}

// NewParser creates a streaming escape-sequence parser in ground state.
func NewParser() *Parser {
	return &Parser{
		csiParams: make([]int, 0, 16),
	}
}

// Feed consumes a chunk of the output stream and returns the Actions completed
// by it. The returned slice is only valid until the next call to Feed.
func (p *Parser) Feed(data []byte) []Action {
	p.actions = p.actions[:0]
	for _, b := range data {
		p.processByte(b)
	}
	return p.actions
}

func (p *Parser) emit(a Action) {
	p.actions = append(p.actions, a)
}

func (p *Parser) processByte(b byte) {
	// A pending ESC inside a string state is waiting for '\' to form ST.
	if p.pendingEsc {
		p.pendingEsc = false
		if b == '\\' {
			p.finishString()
			p.state = stateGround
			return
		}
		// Not ST: the string is aborted and the ESC starts a new sequence.
		p.resetString()
		p.state = stateEscape
		p.escIntermediate = 0
		p.handleEscape(b)
		return
	}

	// UTF-8 continuation bytes (ground state only; escape sequences are ASCII,
	// and control-string payload bytes are collected verbatim).
	if p.utf8Need > 0 {
		if b&0xC0 == 0x80 {
			p.utf8Buf = append(p.utf8Buf, b)
			p.utf8Need--
			if p.utf8Need == 0 {
				p.emit(PrintAction{Rune: decodeUTF8(p.utf8Buf)})
				p.utf8Buf = p.utf8Buf[:0]
			}
			return
		}
		// Invalid continuation: drop the partial rune, reprocess this byte.
		p.utf8Buf = p.utf8Buf[:0]
		p.utf8Need = 0
	}

	switch p.state {
	case stateGround:
		p.handleGround(b)
	case stateEscape:
		p.handleEscape(b)
	case stateCSI, stateCSIParam:
		p.handleCSI(b)
	case stateOSC:
		p.handleString(b, true)
	case stateDCS, stateSosPmApc:
		p.handleString(b, false)
	}
}

func decodeUTF8(buf []byte) rune {
	switch len(buf) {
	case 2:
		return rune(buf[0]&0x1F)<<6 | rune(buf[1]&0x3F)
	case 3:
		return rune(buf[0]&0x0F)<<12 | rune(buf[1]&0x3F)<<6 | rune(buf[2]&0x3F)
	case 4:
		return rune(buf[0]&0x07)<<18 | rune(buf[1]&0x3F)<<12 | rune(buf[2]&0x3F)<<6 | rune(buf[3]&0x3F)
	default:
		return 0xFFFD
	}
}

func (p *Parser) handleGround(b byte) {
	switch {
	case b == 0x1B:
		p.state = stateEscape
		p.escIntermediate = 0
	case b < 0x20 || b == 0x7F:
		if b != 0x00 { // NUL is ignored entirely
			p.emit(ControlAction{Byte: b})
		}
	case b < 0x80:
		p.emit(PrintAction{Rune: rune(b)})
	case b&0xE0 == 0xC0:
		p.utf8Buf = append(p.utf8Buf[:0], b)
		p.utf8Need = 1
	case b&0xF0 == 0xE0:
		p.utf8Buf = append(p.utf8Buf[:0], b)
		p.utf8Need = 2
	case b&0xF8 == 0xF0:
		p.utf8Buf = append(p.utf8Buf[:0], b)
		p.utf8Need = 3
	default:
		// Stray continuation byte — drop it.
	}
}

func (p *Parser) handleEscape(b byte) {
	if p.escIntermediate != 0 {
		// Second byte of a two-byte sequence (charset designation, ESC # n).
		inter := p.escIntermediate
		p.escIntermediate = 0
		p.state = stateGround
		if b >= 0x30 && b <= 0x7E {
			p.emit(EscAction{Intermediate: inter, Final: b})
		}
		return
	}

	switch b {
	case '[': // CSI
		p.state = stateCSI
		p.csiPrivate = 0
		p.csiIntermediates = p.csiIntermediates[:0]
		p.csiParams = p.csiParams[:0]
		p.csiRawParams = p.csiRawParams[:0]
		p.csiBuf.Reset()
		p.csiLen = 0
		p.csiPending = false
	case ']': // OSC
		p.state = stateOSC
		p.resetString()
	case 'P': // DCS
		p.state = stateDCS
		p.resetString()
	case 'X': // SOS
		p.state = stateSosPmApc
		p.resetString()
		p.strKind = StringSOS
	case '^': // PM
		p.state = stateSosPmApc
		p.resetString()
		p.strKind = StringPM
	case '_': // APC (Kitty graphics arrive here)
		p.state = stateSosPmApc
		p.resetString()
		p.strKind = StringAPC
	case '(', ')', '*', '+', '#':
		// Charset designation / DEC line commands: one more byte follows.
		p.escIntermediate = b
	case 0x1B:
		// ESC ESC: restart the escape sequence.
	default:
		p.state = stateGround
		if b >= 0x30 && b <= 0x7E {
			p.emit(EscAction{Final: b})
		}
		// Anything else (C0 inside an escape, DEL) aborts the sequence.
	}
}

func (p *Parser) handleCSI(b byte) {
	p.csiLen++
	if p.csiLen > maxSequenceLen {
		p.state = stateGround
		return
	}

	if p.state == stateCSI {
		p.state = stateCSIParam
		// A single private marker byte may open the parameter list.
		if b >= 0x3C && b <= 0x3F {
			p.csiPrivate = b
			return
		}
	}

	switch {
	case b >= '0' && b <= '9', b == ':':
		p.csiBuf.WriteByte(b)
	case b == ';':
		p.pushCSIParam(true)
	case b >= 0x20 && b <= 0x2F:
		p.pushCSIParam(false)
		p.csiIntermediates = append(p.csiIntermediates, b)
	case b >= 0x40 && b <= 0x7E:
		p.pushCSIParam(false)
		p.emit(CsiAction{
			Private:       p.csiPrivate,
			Intermediates: append([]byte(nil), p.csiIntermediates...),
			Params:        append([]int(nil), p.csiParams...),
			RawParams:     append([]string(nil), p.csiRawParams...),
			Final:         b,
		})
		p.csiIntermediates = p.csiIntermediates[:0]
		p.state = stateGround
	case b == 0x1B:
		// ESC aborts the sequence and starts a new one.
		p.csiIntermediates = p.csiIntermediates[:0]
		p.state = stateEscape
		p.escIntermediate = 0
	default:
		// Invalid byte (second private marker, C0, DEL): discard the sequence.
		p.csiIntermediates = p.csiIntermediates[:0]
		p.state = stateGround
	}
}

// pushCSIParam finalizes the parameter string accumulated so far. When the
// accumulator is empty it only produces a parameter if a separator forces one
// or a preceding ';' left a field open (so a bare final byte yields zero
// parameters, "5;" yields two, and an intermediate byte flushes nothing extra).
func (p *Parser) pushCSIParam(separator bool) {
	s := p.csiBuf.String()
	p.csiBuf.Reset()
	if s == "" && !separator && !p.csiPending {
		return
	}
	p.csiPending = separator
	p.csiRawParams = append(p.csiRawParams, s)
	base := s
	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		base = s[:idx]
	}
	n, _ := strconv.Atoi(base)
	p.csiParams = append(p.csiParams, n)
}

func (p *Parser) handleString(b byte, belTerminates bool) {
	switch {
	case b == 0x07 && belTerminates:
		p.finishString()
		p.state = stateGround
	case b == 0x1B:
		p.pendingEsc = true
	default:
		if p.strBuf.Len() >= maxSequenceLen {
			return
		}
		p.strBuf.WriteByte(b)
	}
}

func (p *Parser) finishString() {
	payload := p.strBuf.String()
	switch p.state {
	case stateOSC:
		p.emit(OscAction{Payload: payload})
	case stateDCS:
		p.emit(DcsAction{Payload: payload})
	case stateSosPmApc:
		p.emit(StringAction{Kind: p.strKind, Payload: payload})
	}
	p.resetString()
}

func (p *Parser) resetString() {
	p.strBuf.Reset()
	p.pendingEsc = false
}

// parseSubParams splits a raw colon-separated CSI parameter like "38:2::255:0:0"
// into its base value and subparameters. Empty subparameter slots become -1.
func parseSubParams(raw string) (base int, subs []int) {
	parts := strings.Split(raw, ":")
	base, _ = strconv.Atoi(parts[0])
	for _, part := range parts[1:] {
		if part == "" {
			subs = append(subs, -1)
		} else {
			n, _ := strconv.Atoi(part)
			subs = append(subs, n)
		}
	}
	return base, subs
}
