package cutout

import (
	"fmt"
	"image"
	"strings"

	"github.com/chaos-io/cutout/cutout/rembg"
	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"
)

// Resampler 原图缩放到模型输入时使用的插值方式
type Resampler string

const (
	ResampleBilinear   Resampler = "bilinear"
	ResampleCatmullRom Resampler = "catmullrom"
	ResampleLanczos3   Resampler = "lanczos3"
)

// ParseResampler 未知取值回退到 bilinear
func ParseResampler(s string) Resampler {
	switch r := Resampler(strings.ToLower(strings.TrimSpace(s))); r {
	case ResampleCatmullRom, ResampleLanczos3:
		return r
	default:
		return ResampleBilinear
	}
}

// scale 把 src 缩放到 w x h
func (r Resampler) scale(src image.Image, w, h int) image.Image {
	if r == ResampleLanczos3 {
		return resize.Resize(uint(w), uint(h), src, resize.Lanczos3)
	}

	var interp xdraw.Interpolator = xdraw.BiLinear
	if r == ResampleCatmullRom {
		interp = xdraw.CatmullRom
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	interp.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// Rasterize 把原图按 letterbox 绘制到黑底正方形画布
func Rasterize(src *image.NRGBA, lb Letterbox, r Resampler) *image.NRGBA {
	canvas := image.NewNRGBA(image.Rect(0, 0, lb.InputSize, lb.InputSize))
	xdraw.Draw(canvas, canvas.Bounds(), image.Black, image.Point{}, xdraw.Src)

	scaled := r.scale(src, lb.DrawWidth, lb.DrawHeight)
	rect := lb.ContentRect()
	xdraw.Draw(canvas, rect, scaled, scaled.Bounds().Min, xdraw.Over)
	return canvas
}

// EncodeTensor 生成模型输入张量 [1,3,in,in]，按通道平面排列，值为 byte/255
func EncodeTensor(src *image.NRGBA, lb Letterbox, r Resampler) (*rembg.Tensor, error) {
	if lb.InputSize <= 0 {
		return nil, fmt.Errorf("%w: input size %d", ErrInvalidDimensions, lb.InputSize)
	}

	canvas := Rasterize(src, lb, r)
	n := lb.InputSize
	stride := n * n
	data := make([]float32, 3*stride)
	for y := 0; y < n; y++ {
		row := canvas.Pix[y*canvas.Stride:]
		for x := 0; x < n; x++ {
			idx := y*n + x
			p := row[x*4:]
			data[idx] = float32(p[0]) / 255
			data[stride+idx] = float32(p[1]) / 255
			data[2*stride+idx] = float32(p[2]) / 255
		}
	}

	return &rembg.Tensor{
		Shape: []int64{1, 3, int64(n), int64(n)},
		Data:  data,
	}, nil
}
