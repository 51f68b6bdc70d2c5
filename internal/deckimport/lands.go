package deckimport

import "strings"

// Color is a mana color in a color identity.
type Color string

// Color constants for WUBRG
const (
	ColorWhite Color = "W"
	ColorBlue  Color = "U"
	ColorBlack Color = "B"
	ColorRed   Color = "R"
	ColorGreen Color = "G"
)

// AllColors lists all five colors in WUBRG order.
var AllColors = []Color{ColorWhite, ColorBlue, ColorBlack, ColorRed, ColorGreen}

// ParseColors converts identity strings such as "W" or "wu" into colors.
// Unknown symbols are ignored.
func ParseColors(symbols ...string) []Color {
	var colors []Color
	for _, s := range symbols {
		for _, r := range strings.ToUpper(s) {
			c := Color(string(r))
			for _, known := range AllColors {
				if c == known {
					colors = append(colors, c)
					break
				}
			}
		}
	}
	return colors
}

// DeriveLands splits targetTotal basic lands across the colors of an
// identity. Colorless identities get Wastes. Remainders go to the colors
// earliest in WUBRG order. The result depends only on the arguments.
func DeriveLands(colorIdentity []Color, targetTotal int) BasicLands {
	if targetTotal < 0 {
		targetTotal = 0
	}

	present := make(map[Color]bool, len(colorIdentity))
	for _, c := range colorIdentity {
		present[c] = true
	}
	ordered := make([]Color, 0, len(AllColors))
	for _, c := range AllColors {
		if present[c] {
			ordered = append(ordered, c)
		}
	}

	var lands BasicLands
	if len(ordered) == 0 {
		lands.Wastes = targetTotal
		return lands
	}

	share := targetTotal / len(ordered)
	remainder := targetTotal % len(ordered)
	for i, c := range ordered {
		n := share
		if i < remainder {
			n++
		}
		lands.add(c, n)
	}
	return lands
}

func (b *BasicLands) add(c Color, n int) {
	switch c {
	case ColorWhite:
		b.Plains += n
	case ColorBlue:
		b.Island += n
	case ColorBlack:
		b.Swamp += n
	case ColorRed:
		b.Mountain += n
	case ColorGreen:
		b.Forest += n
	}
}
