package cutout

import (
	"context"
	"image"
	"image/color"
	"sync"

	"github.com/chaos-io/cutout/cutout/rembg"
)

// stubSession 返回固定输出的推理会话
type stubSession struct {
	shape  rembg.ModelShapeInfo
	output *rembg.Tensor
	err    error

	mu     sync.Mutex
	inputs []*rembg.Tensor
}

func (s *stubSession) Shape() rembg.ModelShapeInfo { return s.shape }

func (s *stubSession) Run(_ context.Context, input *rembg.Tensor) (*rembg.Tensor, error) {
	s.mu.Lock()
	s.inputs = append(s.inputs, input)
	s.mu.Unlock()
	return s.output, s.err
}

func (s *stubSession) Close() error { return nil }

type stubLoader struct {
	session rembg.Session
	err     error
}

func (l *stubLoader) Load(context.Context, rembg.Model) (rembg.Session, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.session, nil
}

func uniformTensor(h, w int, v float32) *rembg.Tensor {
	data := make([]float32, h*w)
	for i := range data {
		data[i] = v
	}
	return &rembg.Tensor{Shape: []int64{1, 1, int64(h), int64(w)}, Data: data}
}

func uniformAlpha(w, h int, v float32) *AlphaSurface {
	a := NewAlphaSurface(w, h)
	for i := range a.Data {
		a.Data[i] = v
	}
	return a
}

// patternImage 生成每个像素颜色都不同的测试图
func patternImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 13), B: uint8(x + y), A: 255})
		}
	}
	return img
}
