package cutout

import (
	"errors"
	"fmt"
	"math"

	"github.com/chaos-io/cutout/cutout/rembg"
)

var (
	// ErrModelAssetUnavailable 模型文件缺失或会话创建失败
	ErrModelAssetUnavailable = rembg.ErrModelAssetUnavailable
	// ErrMissingOutput 推理引擎没有返回输出张量
	ErrMissingOutput = errors.New("model returned no output")
	// ErrInvalidOutputShape 输出张量形状无法解释为二维掩码
	ErrInvalidOutputShape = errors.New("invalid model output shape")
	// ErrSurfaceAllocation 图像过大，无法分配工作缓冲
	ErrSurfaceAllocation = errors.New("image surface too large")
	// ErrUnsupportedInputFormat 输入不是可解码的图片
	ErrUnsupportedInputFormat = errors.New("unsupported input format")
	ErrInvalidDimensions      = errors.New("invalid dimensions")
)

// DefaultMaxPixels 默认单张图片最大像素数
const DefaultMaxPixels = 64 << 20

// checkSurface 校验宽高并确认像素数在 maxPixels 以内
func checkSurface(width, height, maxPixels int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	if width > math.MaxInt32/height || width*height > maxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrSurfaceAllocation, width, height, maxPixels)
	}
	return nil
}
