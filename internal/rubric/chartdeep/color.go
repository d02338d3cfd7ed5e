package chartdeep

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// economistPalette is the known-good muted palette; its members count as
// muted regardless of their measured saturation.
//
//nolint:gochecknoglobals // Read-only lookup tables
var economistPalette = map[string]struct{}{
	"#1a476f": {},
	"#c74634": {},
	"#2d7282": {},
	"#e9c46a": {},
	"#5d666f": {},
	"#d0d0d0": {},
}

// backgroundHexes are grid, text, and background colors excluded from the
// data-color checks.
//
//nolint:gochecknoglobals // Read-only lookup tables
var backgroundHexes = map[string]struct{}{
	"#d0d0d0": {},
	"#e0e0e0": {},
	"#f5f5f5": {},
	"#f0f0f0": {},
	"#cccccc": {},
	"#999999": {},
	"#333333": {},
	"#1a1a1a": {},
}

//nolint:gochecknoglobals // Read-only lookup tables
var primaryHexes = map[string]struct{}{
	"ff0000": {},
	"00ff00": {},
	"0000ff": {},
	"ffff00": {},
	"ff00ff": {},
	"00ffff": {},
}

//nolint:gochecknoglobals // Read-only lookup tables
var serifNames = []string{
	"times new roman", "times", "georgia", "garamond", "palatino",
	"book antiqua", "baskerville", "cambria",
}

//nolint:gochecknoglobals // Package-level compiled regexes for reuse
var (
	hexColorPattern = regexp.MustCompile(`#[0-9a-fA-F]{6}\b`)
	serifWordRe     = regexp.MustCompile(`\bserif\b`)
)

// hexToHSL converts #RRGGBB to hue in degrees and saturation/lightness in
// [0,1]. Characters past the sixth hex digit are ignored, so gridline
// values collected whole survive. Unparseable input reads as black.
func hexToHSL(hexColor string) (h, s, l float64) {
	trimmed := strings.TrimLeft(hexColor, "#")
	if len(trimmed) < 6 {
		return 0, 0, 0
	}
	var rgb [3]float64
	for i := 0; i < 3; i++ {
		n, err := strconv.ParseUint(trimmed[2*i:2*i+2], 16, 8)
		if err != nil {
			return 0, 0, 0
		}
		rgb[i] = float64(n) / 255.0
	}
	return colorful.Color{R: rgb[0], G: rgb[1], B: rgb[2]}.Hsl()
}

// isMuted reports low saturation or low lightness, with the Economist
// palette always accepted.
func isMuted(hexColor string) bool {
	if _, ok := economistPalette[strings.ToLower(hexColor)]; ok {
		return true
	}
	_, s, l := hexToHSL(hexColor)
	return s < 0.7 || l < 0.45
}

// isNeonOrPrimary reports saturated bright colors and the pure RGB/CMY
// primaries.
func isNeonOrPrimary(hexColor string) bool {
	_, s, l := hexToHSL(hexColor)
	if s > 0.85 && l > 0.4 {
		return true
	}
	_, ok := primaryHexes[strings.TrimLeft(strings.ToLower(hexColor), "#")]
	return ok
}

// isRedFamily covers hues 0-30 and 330-360 at meaningful saturation.
func isRedFamily(hexColor string) bool {
	h, s, _ := hexToHSL(hexColor)
	return s > 0.3 && (h <= 30 || h >= 330)
}

// isGreenFamily covers hues 90-150 at meaningful saturation.
func isGreenFamily(hexColor string) bool {
	h, s, _ := hexToHSL(hexColor)
	return s > 0.3 && h >= 90 && h <= 150
}

func isLightColor(hexColor string) bool {
	_, _, l := hexToHSL(hexColor)
	return l > 0.7
}

// isSansSerif reports whether a font string avoids the serif families.
// A standalone "serif" counts unless it is the tail of "sans-serif".
func isSansSerif(font string) bool {
	lower := strings.ToLower(font)
	for _, serif := range serifNames {
		if strings.Contains(lower, serif) {
			return false
		}
	}
	for _, loc := range serifWordRe.FindAllStringIndex(lower, -1) {
		start := loc[0]
		if start >= 5 {
			prefix := lower[start-5 : start]
			if prefix == "sans-" || prefix == "sans " {
				continue
			}
		}
		return false
	}
	return true
}

// allHexColors finds every #RRGGBB match inside any string value in the
// tree, lowercased, deduplicated, sorted.
func allHexColors(root value) []string {
	seen := map[string]struct{}{}
	var walk func(v value)
	walk = func(v value) {
		switch v.kind {
		case kindString:
			for _, m := range hexColorPattern.FindAllString(v.str, -1) {
				seen[strings.ToLower(m)] = struct{}{}
			}
		case kindObject:
			for _, m := range v.members {
				walk(m.val)
			}
		case kindArray:
			for _, item := range v.items {
				walk(item)
			}
		}
	}
	walk(root)
	return sortedKeys(seen)
}

// dataColors filters the tree's colors down to likely data series colors:
// near-white and near-black values drop out along with the fixed grid,
// text, and background set.
func dataColors(root value) []string {
	var out []string
	for _, c := range allHexColors(root) {
		_, _, l := hexToHSL(c)
		if l > 0.9 || l < 0.05 {
			continue
		}
		if _, ok := backgroundHexes[c]; ok {
			continue
		}
		out = append(out, c)
	}
	return out
}
