package cutout

import (
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ParseHexColor 解析 #rgb / #rrggbb，# 可省略
func ParseHexColor(s string) (color.RGBA, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	case 6:
	default:
		return color.RGBA{}, false
	}
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return color.RGBA{}, false
		}
	}

	c, err := colorful.Hex("#" + s)
	if err != nil {
		return color.RGBA{}, false
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, true
}

// FormatHexColor 输出 #rrggbb 小写形式
func FormatHexColor(c color.RGBA) string {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
