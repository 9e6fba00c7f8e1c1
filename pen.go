package vtcore

import (
	"strconv"
	"strings"
)

// Pen is the current graphic-rendition state: the colors and style bits
// stamped onto newly printed cells. Changing the pen never rewrites cells that
// are already on screen.
type Pen struct {
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
}

// NewPen returns a pen with default colors and no attributes set.
func NewPen() Pen {
	return Pen{
		Foreground: DefaultForeground,
		Background: DefaultBackground,
	}
}

// Reset restores the pen to its default state (SGR 0).
func (p *Pen) Reset() {
	*p = NewPen()
}

// apply stamps the pen onto a blank cell.
func (p *Pen) cell() Cell {
	return Cell{
		Rune:          ' ',
		Width:         1,
		Foreground:    p.Foreground,
		Background:    p.Background,
		Bold:          p.Bold,
		Dim:           p.Dim,
		Italic:        p.Italic,
		Underline:     p.Underline,
		Inverse:       p.Inverse,
		Strikethrough: p.Strikethrough,
		Blink:         p.Blink,
		Conceal:       p.Conceal,
	}
}

// ApplySGR processes an ordered SGR parameter list left to right. raws carries
// the raw parameter strings when colon subparameters may be present; it may be
// nil. Unrecognized codes are ignored. A malformed extended-color clause
// (38/48 with too few following parameters) drops only that clause — the
// introducer consumes whatever incomplete tail follows it and interpretation
// resumes at the next top-level parameter.
func (p *Pen) ApplySGR(params []int, raws []string) {
	if len(params) == 0 {
		p.Reset()
		return
	}

	i := 0
	for i < len(params) {
		switch n := params[i]; n {
		case 0:
			p.Reset()
		case 1:
			p.Bold = true
		case 2:
			p.Dim = true
		case 3:
			p.Italic = true
		case 4:
			p.Underline = underlineFromSub(raws, i)
		case 5, 6:
			p.Blink = true
		case 7:
			p.Inverse = true
		case 8:
			p.Conceal = true
		case 9:
			p.Strikethrough = true
		case 21:
			p.Underline = UnderlineDouble
		case 22:
			p.Bold = false
			p.Dim = false
		case 23:
			p.Italic = false
		case 24:
			p.Underline = UnderlineNone
		case 25:
			p.Blink = false
		case 27:
			p.Inverse = false
		case 28:
			p.Conceal = false
		case 29:
			p.Strikethrough = false
		case 30, 31, 32, 33, 34, 35, 36, 37:
			p.Foreground = StandardColor(n - 30)
		case 38:
			c, consumed, ok := extendedColor(params, raws, i)
			if ok {
				p.Foreground = c
			}
			i += consumed
		case 39:
			p.Foreground = DefaultForeground
		case 40, 41, 42, 43, 44, 45, 46, 47:
			p.Background = StandardColor(n - 40)
		case 48:
			c, consumed, ok := extendedColor(params, raws, i)
			if ok {
				p.Background = c
			}
			i += consumed
		case 49:
			p.Background = DefaultBackground
		case 90, 91, 92, 93, 94, 95, 96, 97:
			p.Foreground = StandardColor(n - 90 + 8)
		case 100, 101, 102, 103, 104, 105, 106, 107:
			p.Background = StandardColor(n - 100 + 8)
		}
		i++
	}
}

// underlineFromSub resolves SGR 4 with an optional colon subparameter
// (4:0=off, 4:1=single, 4:2=double, 4:3=curly, 4:4=dotted, 4:5=dashed).
func underlineFromSub(raws []string, i int) UnderlineStyle {
	if i < len(raws) {
		if _, subs := parseSubParams(raws[i]); len(subs) > 0 {
			switch subs[0] {
			case 0:
				return UnderlineNone
			case 2:
				return UnderlineDouble
			case 3:
				return UnderlineCurly
			case 4:
				return UnderlineDotted
			case 5:
				return UnderlineDashed
			}
		}
	}
	return UnderlineSingle
}

// extendedColor parses an extended-color clause starting at the 38/48
// introducer at params[i]. It returns the color, the number of extra
// parameters consumed beyond the introducer, and whether the clause was well
// formed. Both the semicolon form (38;5;N / 38;2;R;G;B) and the colon
// subparameter form (38:5:N / 38:2::R:G:B) are supported. A truncated clause
// consumes its incomplete tail and reports ok=false.
func extendedColor(params []int, raws []string, i int) (Color, int, bool) {
	// Colon form: everything lives in the raw parameter at i.
	if i < len(raws) {
		if _, subs := parseSubParams(raws[i]); len(subs) > 0 {
			switch {
			case subs[0] == 5 && len(subs) >= 2:
				return PaletteColor(subs[1]), 0, true
			case subs[0] == 2 && len(subs) >= 4:
				// 38:2:colorspace:R:G:B or 38:2:R:G:B
				r, g, b := subs[1], subs[2], subs[3]
				if len(subs) >= 5 {
					r, g, b = subs[2], subs[3], subs[4]
				}
				return TrueColor(clamp8(r), clamp8(g), clamp8(b)), 0, true
			default:
				return Color{}, 0, false
			}
		}
	}

	// Semicolon form: following top-level parameters belong to the clause.
	if i+1 >= len(params) {
		return Color{}, 0, false
	}
	switch params[i+1] {
	case 5:
		if i+2 < len(params) {
			return PaletteColor(params[i+2]), 2, true
		}
		// "38;5" with nothing after: the introducer eats the mode selector.
		return Color{}, 1, false
	case 2:
		if i+4 < len(params) {
			return TrueColor(clamp8(params[i+2]), clamp8(params[i+3]), clamp8(params[i+4])), 4, true
		}
		// Truncated RGB clause: consume what is there.
		return Color{}, len(params) - i - 1, false
	default:
		// Unknown color mode: drop just the selector.
		return Color{}, 1, false
	}
}

func clamp8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// SGR renders the pen state as an SGR parameter string beginning with the
// full reset, the format DECRQSS replies use ("0;1;31" for bold red). Feeding
// the result back through ApplySGR reproduces the same pen.
func (p *Pen) SGR() string {
	parts := []string{"0"}
	if p.Bold {
		parts = append(parts, "1")
	}
	if p.Dim {
		parts = append(parts, "2")
	}
	if p.Italic {
		parts = append(parts, "3")
	}
	switch p.Underline {
	case UnderlineSingle:
		parts = append(parts, "4")
	case UnderlineDouble:
		parts = append(parts, "4:2")
	case UnderlineCurly:
		parts = append(parts, "4:3")
	case UnderlineDotted:
		parts = append(parts, "4:4")
	case UnderlineDashed:
		parts = append(parts, "4:5")
	}
	if p.Blink {
		parts = append(parts, "5")
	}
	if p.Inverse {
		parts = append(parts, "7")
	}
	if p.Conceal {
		parts = append(parts, "8")
	}
	if p.Strikethrough {
		parts = append(parts, "9")
	}
	if s := colorSGR(p.Foreground, true); s != "" {
		parts = append(parts, s)
	}
	if s := colorSGR(p.Background, false); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, ";")
}

// colorSGR returns the SGR parameter(s) selecting c, or "" for default colors
// (the leading reset already selects those).
func colorSGR(c Color, isFg bool) string {
	switch c.Type {
	case ColorTypeStandard:
		idx := int(c.Index)
		base := 30
		if idx >= 8 {
			base = 90
			idx -= 8
		}
		if !isFg {
			base += 10
		}
		return strconv.Itoa(base + idx)
	case ColorTypePalette:
		if isFg {
			return "38;5;" + strconv.Itoa(int(c.Index))
		}
		return "48;5;" + strconv.Itoa(int(c.Index))
	case ColorTypeTrueColor:
		prefix := "48;2;"
		if isFg {
			prefix = "38;2;"
		}
		return prefix + strconv.Itoa(int(c.R)) + ";" + strconv.Itoa(int(c.G)) + ";" + strconv.Itoa(int(c.B))
	}
	return ""
}
