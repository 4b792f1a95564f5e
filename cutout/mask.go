package cutout

import (
	"fmt"
	"math"

	"github.com/chaos-io/cutout/cutout/rembg"
)

// MaskSurface 模型输出分辨率下的前景概率，值域 [0,1]
type MaskSurface struct {
	Width  int
	Height int
	Data   []float32
}

// At 取 (x, y) 处的概率，调用方保证坐标在范围内
func (m *MaskSurface) At(x, y int) float32 {
	return m.Data[y*m.Width+x]
}

// Normalization 原始输出的归一化方式
type Normalization int

const (
	// NormalizeNone 值已在 [0,1] 内
	NormalizeNone Normalization = iota
	// NormalizeSigmoid 输出是 logit，逐点做 sigmoid
	NormalizeSigmoid
	// NormalizeClamp 多通道输出，截断到 [0,1]
	NormalizeClamp
)

func (n Normalization) String() string {
	switch n {
	case NormalizeSigmoid:
		return "sigmoid"
	case NormalizeClamp:
		return "clamp"
	default:
		return "none"
	}
}

// ChooseNormalization 根据首通道的取值范围和通道数决定归一化方式
func ChooseNormalization(minV, maxV float32, channels int) Normalization {
	if minV < 0 || maxV > 1 {
		return NormalizeSigmoid
	}
	if channels > 1 {
		return NormalizeClamp
	}
	return NormalizeNone
}

// ExtractMaskTensor 见 ExtractMask
func ExtractMaskTensor(t *rembg.Tensor) (*MaskSurface, error) {
	if t == nil {
		return nil, ErrMissingOutput
	}
	return ExtractMask(t.Data, t.Shape)
}

// ExtractMask 取输出张量最后两维的第一个通道作为掩码
func ExtractMask(data []float32, shape []int64) (*MaskSurface, error) {
	if len(data) == 0 {
		return nil, ErrMissingOutput
	}
	if len(shape) < 2 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutputShape, shape)
	}

	h, w := shape[len(shape)-2], shape[len(shape)-1]
	if h <= 0 || w <= 0 || h > math.MaxInt32/w {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutputShape, shape)
	}
	plane := int(h * w)
	if len(data) < plane {
		return nil, fmt.Errorf("%w: %v with %d values", ErrInvalidOutputShape, shape, len(data))
	}

	channels := 1
	if len(shape) == 4 && shape[1] > 0 {
		channels = int(shape[1])
	}

	mask := make([]float32, plane)
	minV, maxV := float32(math.Inf(1)), float32(math.Inf(-1))
	for i, v := range data[:plane] {
		if v != v {
			v = 0
		}
		mask[i] = v
		minV = min(minV, v)
		maxV = max(maxV, v)
	}

	switch ChooseNormalization(minV, maxV, channels) {
	case NormalizeSigmoid:
		for i, v := range mask {
			mask[i] = sigmoid(v)
		}
	case NormalizeClamp:
		for i, v := range mask {
			mask[i] = clamp32(v, 0, 1)
		}
	}

	return &MaskSurface{Width: int(w), Height: int(h), Data: mask}, nil
}

func sigmoid(v float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(v))))
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
