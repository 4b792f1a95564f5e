package cutout

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposite_Transparent(t *testing.T) {
	src := patternImage(2, 2)
	orig := append([]uint8(nil), src.Pix...)
	alpha := &AlphaSurface{Width: 2, Height: 2, Data: []float32{0, 0.5, 1, 0.25}}

	out, err := Composite(src, alpha, nil)
	require.NoError(t, err)

	wantA := []uint8{0, 128, 255, 64}
	for i := 0; i < 4; i++ {
		assert.Equal(t, src.Pix[i*4:i*4+3], out.Pix[i*4:i*4+3], "rgb copied")
		assert.Equal(t, wantA[i], out.Pix[i*4+3])
	}
	assert.Equal(t, orig, src.Pix, "source must not be mutated")
}

func TestComposite_Background(t *testing.T) {
	t.Parallel()

	red := &color.RGBA{R: 255, A: 255}
	white := &color.RGBA{R: 255, G: 255, B: 255, A: 255}

	tests := []struct {
		name  string
		src   color.NRGBA
		alpha float32
		bg    *color.RGBA
		want  color.NRGBA
	}{
		{name: "全透明取背景", src: color.NRGBA{R: 10, G: 20, B: 30, A: 255}, alpha: 0, bg: red, want: color.NRGBA{R: 255, A: 255}},
		{name: "全不透明取原图", src: color.NRGBA{R: 10, G: 20, B: 30, A: 255}, alpha: 1, bg: red, want: color.NRGBA{R: 10, G: 20, B: 30, A: 255}},
		{name: "半透明混合", src: color.NRGBA{B: 255, A: 255}, alpha: 0.5, bg: white, want: color.NRGBA{R: 128, G: 128, B: 255, A: 255}},
		{name: "越界 alpha 截断", src: color.NRGBA{R: 1, G: 2, B: 3, A: 255}, alpha: 1.7, bg: white, want: color.NRGBA{R: 1, G: 2, B: 3, A: 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
			for y := 0; y < 2; y++ {
				for x := 0; x < 3; x++ {
					src.SetNRGBA(x, y, tt.src)
				}
			}
			out, err := Composite(src, uniformAlpha(3, 2, tt.alpha), tt.bg)
			require.NoError(t, err)
			for y := 0; y < 2; y++ {
				for x := 0; x < 3; x++ {
					assert.Equal(t, tt.want, out.NRGBAAt(x, y))
				}
			}
		})
	}
}

func TestComposite_SubImage(t *testing.T) {
	full := patternImage(6, 6)
	sub := full.SubImage(image.Rect(2, 2, 5, 4)).(*image.NRGBA)

	out, err := Composite(sub, uniformAlpha(3, 2, 1), nil)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), out.Bounds())
	assert.Equal(t, full.NRGBAAt(2, 2), out.NRGBAAt(0, 0))
	assert.Equal(t, full.NRGBAAt(4, 3), out.NRGBAAt(2, 1))
}

func TestComposite_DimensionMismatch(t *testing.T) {
	_, err := Composite(patternImage(4, 4), uniformAlpha(3, 4, 1), nil)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
	_, err = Composite(patternImage(4, 4), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
}
