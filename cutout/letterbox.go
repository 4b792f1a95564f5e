package cutout

import (
	"fmt"
	"image"
	"math"
)

// Letterbox 原图到正方形模型输入的映射：等比缩放后居中，四周补黑边
type Letterbox struct {
	InputSize  int
	Scale      float64
	PadX       float64
	PadY       float64
	DrawWidth  int
	DrawHeight int
}

// NewLetterbox 计算 srcW x srcH 的图片放入 inputSize 见方画布时的缩放与偏移
func NewLetterbox(srcW, srcH, inputSize int) (Letterbox, error) {
	if srcW <= 0 || srcH <= 0 || inputSize <= 0 {
		return Letterbox{}, fmt.Errorf("%w: letterbox %dx%d into %d", ErrInvalidDimensions, srcW, srcH, inputSize)
	}

	in := float64(inputSize)
	scale := math.Min(in/float64(srcW), in/float64(srcH))
	drawW := min(inputSize, max(1, int(math.Round(float64(srcW)*scale))))
	drawH := min(inputSize, max(1, int(math.Round(float64(srcH)*scale))))

	return Letterbox{
		InputSize:  inputSize,
		Scale:      scale,
		PadX:       math.Round(float64(inputSize-drawW) / 2),
		PadY:       math.Round(float64(inputSize-drawH) / 2),
		DrawWidth:  drawW,
		DrawHeight: drawH,
	}, nil
}

// ContentRect 画布上实际绘制原图内容的区域
func (lb Letterbox) ContentRect() image.Rectangle {
	x, y := int(lb.PadX), int(lb.PadY)
	return image.Rect(x, y, x+lb.DrawWidth, y+lb.DrawHeight)
}

// ToInput 原图坐标映射到模型输入坐标
func (lb Letterbox) ToInput(x, y float64) (float64, float64) {
	return x*lb.Scale + lb.PadX, y*lb.Scale + lb.PadY
}
