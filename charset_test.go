package vtcore

import "testing"

func TestCharsetDefaultPassthrough(t *testing.T) {
	m := NewCharsetManager()
	for _, r := range "Hello, World! #~|" {
		if got := m.Map(r); got != r {
			t.Errorf("Map(%q) = %q with ASCII active", r, got)
		}
	}
}

func TestCharsetDECGraphics(t *testing.T) {
	m := NewCharsetManager()
	m.Designate(0, '0')
	tests := []struct {
		in, want rune
	}{
		{'q', '─'}, // horizontal line
		{'x', '│'}, // vertical line
		{'l', '┌'},
		{'k', '┐'},
		{'m', '└'},
		{'j', '┘'},
		{'n', '┼'},
		{'f', '°'},
		{'g', '±'},
		{'A', 'A'}, // outside the remapped range
		{'1', '1'},
	}
	for _, tt := range tests {
		if got := m.Map(tt.in); got != tt.want {
			t.Errorf("Map(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCharsetUK(t *testing.T) {
	m := NewCharsetManager()
	m.Designate(0, 'A')
	if got := m.Map('#'); got != '£' {
		t.Errorf("Map('#') = %q, want pound sign", got)
	}
	if got := m.Map('q'); got != 'q' {
		t.Errorf("Map('q') = %q, want passthrough", got)
	}
}

func TestCharsetShiftInOut(t *testing.T) {
	m := NewCharsetManager()
	m.Designate(1, '0')
	if got := m.Map('q'); got != 'q' {
		t.Fatalf("G0 active but Map('q') = %q", got)
	}
	m.ShiftOut()
	if m.Active() != 1 {
		t.Fatalf("active slot = %d after SO", m.Active())
	}
	if got := m.Map('q'); got != '─' {
		t.Errorf("G1 graphics: Map('q') = %q", got)
	}
	m.ShiftIn()
	if got := m.Map('q'); got != 'q' {
		t.Errorf("back on G0: Map('q') = %q", got)
	}
}

func TestCharsetSingleShift(t *testing.T) {
	m := NewCharsetManager()
	m.Designate(2, '0')
	m.SingleShift(2)
	if got := m.Map('q'); got != '─' {
		t.Errorf("SS2 rune: Map('q') = %q", got)
	}
	// The shift applies to exactly one rune.
	if got := m.Map('q'); got != 'q' {
		t.Errorf("rune after SS2: Map('q') = %q", got)
	}
}

func TestCharsetDesignationIDs(t *testing.T) {
	tests := []struct {
		final byte
		want  Charset
	}{
		{'B', CharsetASCII},
		{'0', CharsetDECGraphics},
		{'A', CharsetUK},
		{'1', CharsetDECAlternate},
		{'>', CharsetDECTechnical},
	}
	m := NewCharsetManager()
	for _, tt := range tests {
		m.Designate(0, tt.final)
		if m.Slot(0) != tt.want {
			t.Errorf("Designate(0, %q): Slot(0) = %d, want %d", tt.final, m.Slot(0), tt.want)
		}
	}
	// The ROM and technical sets have no translation table; runes pass through.
	m.Designate(0, '>')
	if got := m.Map('q'); got != 'q' {
		t.Errorf("DEC technical Map('q') = %q, want passthrough", got)
	}
}

func TestCharsetUnknownFinalIsASCII(t *testing.T) {
	m := NewCharsetManager()
	m.Designate(0, '0')
	m.Designate(0, 'Z')
	if got := m.Map('q'); got != 'q' {
		t.Errorf("unknown final should designate ASCII, Map('q') = %q", got)
	}
	if m.Slot(0) != CharsetASCII {
		t.Errorf("Slot(0) = %d, want ASCII", m.Slot(0))
	}
}

func TestCharsetReset(t *testing.T) {
	m := NewCharsetManager()
	m.Designate(1, '0')
	m.ShiftOut()
	m.SingleShift(3)
	m.Reset()
	if m.Active() != 0 || m.Slot(1) != CharsetASCII {
		t.Errorf("Reset left state: active=%d slot1=%d", m.Active(), m.Slot(1))
	}
	if got := m.Map('q'); got != 'q' {
		t.Errorf("Map('q') = %q after reset", got)
	}
}
