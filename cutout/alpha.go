package cutout

import (
	"context"
	"fmt"
	"math"
)

// AlphaSurface 原图分辨率的透明度，值域 [0,1]
type AlphaSurface struct {
	Width  int
	Height int
	Data   []float32
}

func NewAlphaSurface(width, height int) *AlphaSurface {
	return &AlphaSurface{
		Width:  width,
		Height: height,
		Data:   make([]float32, width*height),
	}
}

func (a *AlphaSurface) At(x, y int) float32 {
	return a.Data[y*a.Width+x]
}

// Clone 深拷贝
func (a *AlphaSurface) Clone() *AlphaSurface {
	out := &AlphaSurface{Width: a.Width, Height: a.Height, Data: make([]float32, len(a.Data))}
	copy(out.Data, a.Data)
	return out
}

const (
	minThreshold = 0.05
	maxThreshold = 0.95
)

// BuildAlpha 把模型输出的掩码映射回原图分辨率，并做软阈值
//
// 每个目标像素先经 letterbox 映射到模型输入坐标，再按输出/输入的比例
// 映射到掩码坐标，双线性采样后计算 (p-t)/(1-t) 并截断到 [0,1]。
func BuildAlpha(ctx context.Context, mask *MaskSurface, lb Letterbox, width, height int, threshold float64) (*AlphaSurface, error) {
	if mask == nil || mask.Width <= 0 || mask.Height <= 0 || len(mask.Data) < mask.Width*mask.Height {
		return nil, ErrInvalidOutputShape
	}
	if width <= 0 || height <= 0 || lb.InputSize <= 0 {
		return nil, fmt.Errorf("%w: alpha %dx%d", ErrInvalidDimensions, width, height)
	}

	t := clamp64(threshold, minThreshold, maxThreshold)
	if math.IsNaN(threshold) {
		t = DefaultThreshold
	}
	sx := float64(mask.Width) / float64(lb.InputSize)
	sy := float64(mask.Height) / float64(lb.InputSize)

	alpha := NewAlphaSurface(width, height)
	err := parallelRows(ctx, height, func(lo, hi int) {
		for y := lo; y < hi; y++ {
			my := (float64(y)*lb.Scale + lb.PadY) * sy
			row := alpha.Data[y*width : (y+1)*width]
			for x := range row {
				mx := (float64(x)*lb.Scale + lb.PadX) * sx
				p := sampleBilinear(mask, mx, my)
				row[x] = float32(clamp64((p-t)/(1-t), 0, 1))
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return alpha, nil
}

// sampleBilinear 双线性采样，越界坐标取边缘值
func sampleBilinear(m *MaskSurface, x, y float64) float64 {
	x0 := clampInt(int(math.Floor(x)), 0, m.Width-1)
	y0 := clampInt(int(math.Floor(y)), 0, m.Height-1)
	x1 := clampInt(x0+1, 0, m.Width-1)
	y1 := clampInt(y0+1, 0, m.Height-1)
	dx := clamp64(x-float64(x0), 0, 1)
	dy := clamp64(y-float64(y0), 0, 1)

	i00 := float64(m.At(x0, y0))
	i10 := float64(m.At(x1, y0))
	i01 := float64(m.At(x0, y1))
	i11 := float64(m.At(x1, y1))

	// a+(b-a)*t 的形式保证常量区域采样结果精确等于该常量
	i0 := i00 + (i10-i00)*dx
	i1 := i01 + (i11-i01)*dx
	return i0 + (i1-i0)*dy
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
