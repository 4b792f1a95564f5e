package cutout

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHexColor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		want   color.RGBA
		wantOK bool
	}{
		{input: "#ff0000", want: color.RGBA{R: 255, A: 255}, wantOK: true},
		{input: "00FF00", want: color.RGBA{G: 255, A: 255}, wantOK: true},
		{input: "#abc", want: color.RGBA{R: 0xaa, G: 0xbb, B: 0xcc, A: 255}, wantOK: true},
		{input: " #123456 ", want: color.RGBA{R: 0x12, G: 0x34, B: 0x56, A: 255}, wantOK: true},
		{input: ""},
		{input: "#12345"},
		{input: "#12345z"},
		{input: "red"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseHexColor(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFormatHexColor(t *testing.T) {
	assert.Equal(t, "#aabbcc", FormatHexColor(color.RGBA{R: 0xaa, G: 0xbb, B: 0xcc, A: 255}))
	assert.Equal(t, "#000000", FormatHexColor(color.RGBA{}))
}
