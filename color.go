package vtcore

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorType indicates how a color was specified
type ColorType uint8

const (
	ColorTypeDefault   ColorType = iota // Use terminal default fg/bg (SGR 39/49)
	ColorTypeStandard                   // Standard 16 ANSI colors (0-15)
	ColorTypePalette                    // 256-color palette (0-255)
	ColorTypeTrueColor                  // 24-bit RGB
)

// Color represents a terminal color with its original specification preserved,
// so attribute state can round-trip through DECRQSS and palette queries.
type Color struct {
	Type    ColorType // How the color was specified
	Index   uint8     // For Standard (0-15) or Palette (0-255)
	R, G, B uint8     // For TrueColor, or resolved RGB for display
}

// Predefined colors
var (
	DefaultForeground = Color{Type: ColorTypeDefault, R: 212, G: 212, B: 212}
	DefaultBackground = Color{Type: ColorTypeDefault, R: 30, G: 30, B: 30}
)

// StandardColor creates a standard 16-color ANSI color (index 0-15)
func StandardColor(index int) Color {
	if index < 0 || index > 15 {
		index = 7
	}
	rgb := ansiColorsRGB[index]
	return Color{Type: ColorTypeStandard, Index: uint8(index), R: rgb.R, G: rgb.G, B: rgb.B}
}

// PaletteColor creates a 256-color palette color (index 0-255)
func PaletteColor(index int) Color {
	if index < 0 || index > 255 {
		index = 7
	}
	rgb := Get256ColorRGB(index)
	return Color{Type: ColorTypePalette, Index: uint8(index), R: rgb.R, G: rgb.G, B: rgb.B}
}

// TrueColor creates a 24-bit true color
func TrueColor(r, g, b uint8) Color {
	return Color{Type: ColorTypeTrueColor, R: r, G: g, B: b}
}

// IsDefault returns true if this is the default fg/bg color
func (c Color) IsDefault() bool {
	return c.Type == ColorTypeDefault
}

// RGB holds just the red, green, blue components (used internally)
type RGB struct {
	R, G, B uint8
}

// Standard ANSI 16-color palette RGB values (in ANSI order)
var ansiColorsRGB = [16]RGB{
	{R: 0, G: 0, B: 0},       // ANSI 0: Black
	{R: 170, G: 0, B: 0},     // ANSI 1: Red
	{R: 0, G: 170, B: 0},     // ANSI 2: Green
	{R: 170, G: 85, B: 0},    // ANSI 3: Yellow/Brown
	{R: 0, G: 0, B: 170},     // ANSI 4: Blue
	{R: 170, G: 0, B: 170},   // ANSI 5: Magenta
	{R: 0, G: 170, B: 170},   // ANSI 6: Cyan
	{R: 170, G: 170, B: 170}, // ANSI 7: White/Silver
	{R: 85, G: 85, B: 85},    // ANSI 8: Bright Black
	{R: 255, G: 85, B: 85},   // ANSI 9: Bright Red
	{R: 85, G: 255, B: 85},   // ANSI 10: Bright Green
	{R: 255, G: 255, B: 85},  // ANSI 11: Bright Yellow
	{R: 85, G: 85, B: 255},   // ANSI 12: Bright Blue
	{R: 255, G: 85, B: 255},  // ANSI 13: Bright Magenta
	{R: 85, G: 255, B: 255},  // ANSI 14: Bright Cyan
	{R: 255, G: 255, B: 255}, // ANSI 15: White
}

// Get256ColorRGB returns the RGB values for a 256-color palette index:
// 0-15 the ANSI colors, 16-231 the 6x6x6 cube, 232-255 the grayscale ramp.
func Get256ColorRGB(idx int) RGB {
	if idx < 0 {
		idx = 0
	} else if idx > 255 {
		idx = 255
	}
	if idx < 16 {
		return ansiColorsRGB[idx]
	} else if idx < 232 {
		idx -= 16
		b := idx % 6
		g := (idx / 6) % 6
		r := idx / 36
		return RGB{R: cubeLevel(r), G: cubeLevel(g), B: cubeLevel(b)}
	}
	gray := uint8((idx-232)*10 + 8)
	return RGB{R: gray, G: gray, B: gray}
}

// cubeLevel maps a 0-5 color-cube coordinate to its xterm channel value.
func cubeLevel(n int) uint8 {
	if n == 0 {
		return 0
	}
	return uint8(55 + n*40)
}

// ParseColorSpec parses a color specification as used by OSC 4/10/11:
// "#rgb"/"#rrggbb" hex forms (via go-colorful) or the XParseColor
// "rgb:RR/GG/BB" form with 1-4 hex digits per channel.
func ParseColorSpec(spec string) (Color, bool) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Color{}, false
	}
	if strings.HasPrefix(spec, "rgb:") {
		parts := strings.Split(spec[4:], "/")
		if len(parts) != 3 {
			return Color{}, false
		}
		var ch [3]uint8
		for i, part := range parts {
			v, ok := parseScaledHex(part)
			if !ok {
				return Color{}, false
			}
			ch[i] = v
		}
		return TrueColor(ch[0], ch[1], ch[2]), true
	}
	if strings.HasPrefix(spec, "#") && len(spec) == 4 {
		// colorful.Hex only accepts #rrggbb; widen the short form first.
		spec = fmt.Sprintf("#%c%c%c%c%c%c", spec[1], spec[1], spec[2], spec[2], spec[3], spec[3])
	}
	c, err := colorful.Hex(spec)
	if err != nil {
		return Color{}, false
	}
	r, g, b := c.RGB255()
	return TrueColor(r, g, b), true
}

// parseScaledHex parses a 1-4 digit hex channel value and scales it to 8 bits.
func parseScaledHex(s string) (uint8, bool) {
	if len(s) == 0 || len(s) > 4 {
		return 0, false
	}
	v := 0
	for i := 0; i < len(s); i++ {
		d := hexDigit(s[i])
		if d < 0 {
			return 0, false
		}
		v = v<<4 | d
	}
	max := 1<<(4*len(s)) - 1
	return uint8(v * 255 / max), true
}

func hexDigit(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	default:
		return -1
	}
}

// XColorString formats the color's resolved RGB as the 16-bit-per-channel
// "rgb:rrrr/gggg/bbbb" form used in OSC color-query replies.
func (c Color) XColorString() string {
	scale := func(v uint8) int { return int(v) * 0x0101 }
	return fmt.Sprintf("rgb:%04x/%04x/%04x", scale(c.R), scale(c.G), scale(c.B))
}
