package cutout

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"

	"github.com/chaos-io/cutout/cutout/rembg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStubPipeline(sess rembg.Session, opts Options) *Pipeline {
	return NewPipeline(rembg.NewSessionCache(&stubLoader{session: sess}), opts)
}

func TestPipeline_EndToEnd(t *testing.T) {
	sess := &stubSession{
		shape:  rembg.ModelShapeInfo{InputDims: []int64{1, 3, 320, 320}},
		output: uniformTensor(320, 320, 0.9),
	}

	var mu sync.Mutex
	var stages []string
	p := newStubPipeline(sess, Options{}).WithProgress(func(stage string, _ float64) {
		mu.Lock()
		stages = append(stages, stage)
		mu.Unlock()
	})

	src := patternImage(100, 50)
	settings := Settings{InputSize: 320, Threshold: 0.5, Feather: 0, Model: rembg.ModelHuman}
	res, err := p.Run(context.Background(), src, settings)
	require.NoError(t, err)

	assert.Equal(t, 320, res.InputSize)
	assert.InDelta(t, 3.2, res.Letterbox.Scale, 1e-9)
	assert.Equal(t, 0.0, res.Letterbox.PadX)
	assert.Equal(t, 80.0, res.Letterbox.PadY)
	assert.Equal(t, 320, res.Letterbox.DrawWidth)
	assert.Equal(t, 160, res.Letterbox.DrawHeight)

	require.Len(t, sess.inputs, 1)
	assert.Equal(t, []int64{1, 3, 320, 320}, sess.inputs[0].Shape)

	out := res.Image
	assert.Equal(t, image.Rect(0, 0, 100, 50), out.Bounds())
	for i := 0; i < len(out.Pix); i += 4 {
		assert.Equal(t, src.Pix[i:i+3], out.Pix[i:i+3])
		if out.Pix[i+3] != 204 {
			t.Fatalf("alpha byte at %d = %d, want 204", i/4, out.Pix[i+3])
		}
	}

	assert.True(t, res.HasForeground)
	assert.Equal(t, image.Rect(0, 0, 100, 50), res.Bounds)
	assert.InDelta(t, 1.0, res.Coverage, 1e-9)
	assert.False(t, res.SourceHasAlpha)
	assert.Equal(t, []string{StageLoadingModel, StagePreparing, StageRunning, StageRefining, StageCompositing}, stages)
}

func TestPipeline_BackgroundOpaque(t *testing.T) {
	sess := &stubSession{
		shape:  rembg.ModelShapeInfo{InputDims: []int64{1, 3, 64, 64}},
		output: uniformTensor(64, 64, 0),
	}
	p := newStubPipeline(sess, Options{})

	settings := DefaultSettings()
	settings.Background = "#ff0000"
	res, err := p.Run(context.Background(), patternImage(20, 30), settings)
	require.NoError(t, err)

	for i := 0; i < len(res.Image.Pix); i += 4 {
		assert.Equal(t, []uint8{255, 0, 0, 255}, res.Image.Pix[i:i+4])
	}
	assert.False(t, res.HasForeground)
}

func TestPipeline_FeatherKeepsRawAlpha(t *testing.T) {
	mask := uniformTensor(32, 32, 0)
	for y := 8; y < 24; y++ {
		for x := 8; x < 24; x++ {
			mask.Data[y*32+x] = 1
		}
	}
	sess := &stubSession{shape: rembg.ModelShapeInfo{InputDims: []int64{1, 3, 32, 32}}, output: mask}
	p := newStubPipeline(sess, Options{})

	settings := DefaultSettings()
	settings.Feather = 3
	res, err := p.Run(context.Background(), patternImage(32, 32), settings)
	require.NoError(t, err)

	assert.Equal(t, float32(1), res.RawAlpha.At(16, 16))
	assert.Equal(t, float32(0), res.RawAlpha.At(2, 2))
	edge := res.Alpha.At(8, 16)
	assert.Greater(t, edge, float32(0))
	assert.Less(t, edge, float32(1))
}

func TestPipeline_Errors(t *testing.T) {
	t.Parallel()

	shape := rembg.ModelShapeInfo{InputDims: []int64{1, 3, 16, 16}}
	tests := []struct {
		name    string
		loader  rembg.Loader
		opts    Options
		src     image.Image
		wantErr error
	}{
		{
			name:    "模型不可用",
			loader:  &stubLoader{err: rembg.ErrModelAssetUnavailable},
			src:     patternImage(8, 8),
			wantErr: ErrModelAssetUnavailable,
		},
		{
			name:    "无输出",
			loader:  &stubLoader{session: &stubSession{shape: shape}},
			src:     patternImage(8, 8),
			wantErr: ErrMissingOutput,
		},
		{
			name:    "输出形状非法",
			loader:  &stubLoader{session: &stubSession{shape: shape, output: &rembg.Tensor{Shape: []int64{4}, Data: []float32{1, 1, 1, 1}}}},
			src:     patternImage(8, 8),
			wantErr: ErrInvalidOutputShape,
		},
		{
			name:    "图片过大",
			loader:  &stubLoader{session: &stubSession{shape: shape}},
			opts:    Options{MaxPixels: 50},
			src:     patternImage(8, 8),
			wantErr: ErrSurfaceAllocation,
		},
		{
			name:    "空图片",
			loader:  &stubLoader{session: &stubSession{shape: shape}},
			src:     image.NewNRGBA(image.Rect(0, 0, 0, 4)),
			wantErr: ErrInvalidDimensions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline(rembg.NewSessionCache(tt.loader), tt.opts)
			_, err := p.Run(context.Background(), tt.src, DefaultSettings())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPipeline_EngineError(t *testing.T) {
	boom := errors.New("engine crashed")
	sess := &stubSession{shape: rembg.ModelShapeInfo{}, err: boom}
	_, err := newStubPipeline(sess, Options{}).Run(context.Background(), patternImage(8, 8), DefaultSettings())
	assert.ErrorIs(t, err, boom)
}

func TestPipeline_Cancelled(t *testing.T) {
	sess := &stubSession{
		shape:  rembg.ModelShapeInfo{InputDims: []int64{1, 3, 16, 16}},
		output: uniformTensor(16, 16, 1),
	}
	p := newStubPipeline(sess, Options{})
	_, err := p.Warmup(context.Background(), rembg.ModelHuman)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Run(ctx, patternImage(8, 8), DefaultSettings())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_RunBytes(t *testing.T) {
	sess := &stubSession{
		shape:  rembg.ModelShapeInfo{InputDims: []int64{1, 3, 16, 16}},
		output: uniformTensor(16, 16, 1),
	}
	p := newStubPipeline(sess, Options{})

	res, err := p.RunBytes(context.Background(), pngData(t, 12, 9), DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 12, 9), res.Image.Bounds())

	_, err = p.RunBytes(context.Background(), []byte("not an image"), DefaultSettings())
	assert.ErrorIs(t, err, ErrUnsupportedInputFormat)

	_, err = NewPipeline(rembg.NewSessionCache(&stubLoader{session: sess}), Options{MaxPixels: 10}).
		RunBytes(context.Background(), pngData(t, 12, 9), DefaultSettings())
	assert.ErrorIs(t, err, ErrSurfaceAllocation)
}

func TestResolveInputSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		dims       []int64
		model      rembg.Model
		configured int
		want       int
		wantNotice bool
	}{
		{name: "声明与配置一致", dims: []int64{1, 3, 320, 320}, model: rembg.ModelHuman, configured: 320, want: 320},
		{name: "声明优先", dims: []int64{1, 3, 1024, 1024}, model: rembg.ModelHuman, configured: 512, want: 1024, wantNotice: true},
		{name: "动态形状用模型默认", dims: []int64{1, 3, -1, -1}, model: rembg.ModelGeneral, configured: 320, want: 1024, wantNotice: true},
		{name: "模型默认与配置一致", dims: nil, model: rembg.ModelHuman, configured: 320, want: 320},
		{name: "未知模型用配置", dims: nil, model: rembg.Model("x"), configured: 512, want: 512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, notice := ResolveInputSize(rembg.ModelShapeInfo{InputDims: tt.dims}, tt.model, tt.configured)
			assert.Equal(t, tt.want, got)
			if tt.wantNotice {
				assert.Contains(t, notice, "Model expects")
			} else {
				assert.Empty(t, notice)
			}
		})
	}
}
