// pkg/style/color.go - Hex color parsing for overlays
package style

import (
	"math"
	"strconv"
	"strings"
)

// DefaultFillOpacity applies to fill colors that carry no alpha channel
const DefaultFillOpacity = 0.6

// FillColor is a fill color split into its RGB part and opacity
type FillColor struct {
	Color   string
	Opacity float64
}

// ParseFillColor splits #RRGGBBAA and #RGBA colors into an RGB color and an
// opacity in [0, 1]. Any other input is returned as-is with DefaultFillOpacity.
func ParseFillColor(s string) FillColor {
	switch {
	case len(s) == 9 && s[0] == '#':
		if alpha, err := strconv.ParseUint(s[7:9], 16, 8); err == nil {
			return FillColor{Color: s[:7], Opacity: float64(alpha) / 255}
		}
	case len(s) == 5 && s[0] == '#':
		var b strings.Builder
		b.WriteByte('#')
		for _, c := range s[1:4] {
			b.WriteRune(c)
			b.WriteRune(c)
		}
		if alpha, err := strconv.ParseUint(s[4:5]+s[4:5], 16, 8); err == nil {
			return FillColor{Color: b.String(), Opacity: float64(alpha) / 255}
		}
	}
	return FillColor{Color: s, Opacity: DefaultFillOpacity}
}

// StripHash removes the leading # of a hex color
func StripHash(color string) string {
	return strings.TrimPrefix(color, "#")
}

// RoundOpacity rounds an opacity to two decimals
func RoundOpacity(o float64) float64 {
	return math.Round(o*100) / 100
}
