package cutout

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// Composite 用透明度合成输出图
//
// bg 为 nil 时输出直通 alpha 的透明图，RGB 与原图一致；
// 否则与纯色背景混合，输出完全不透明。
func Composite(src *image.NRGBA, alpha *AlphaSurface, bg *color.RGBA) (*image.NRGBA, error) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if alpha == nil || alpha.Width != w || alpha.Height != h || len(alpha.Data) < w*h {
		return nil, fmt.Errorf("%w: image %dx%d, alpha mismatch", ErrInvalidDimensions, w, h)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		s := src.Pix[y*src.Stride:]
		d := dst.Pix[y*dst.Stride:]
		for x := 0; x < w; x++ {
			a := clampAlpha(alpha.Data[y*w+x])
			i := x * 4
			if bg == nil {
				d[i] = s[i]
				d[i+1] = s[i+1]
				d[i+2] = s[i+2]
				d[i+3] = toByte(a * 255)
				continue
			}
			d[i] = blend(s[i], bg.R, a)
			d[i+1] = blend(s[i+1], bg.G, a)
			d[i+2] = blend(s[i+2], bg.B, a)
			d[i+3] = 255
		}
	}
	return dst, nil
}

func clampAlpha(v float32) float64 {
	a := float64(v)
	if math.IsNaN(a) {
		return 0
	}
	return clamp64(a, 0, 1)
}

func blend(fg, bg uint8, a float64) uint8 {
	return toByte(float64(fg)*a + float64(bg)*(1-a))
}

func toByte(v float64) uint8 {
	return uint8(clamp64(math.Round(v), 0, 255))
}
