package cutout

import (
	"context"
	"fmt"
	"image"

	"github.com/chaos-io/cutout/cutout/rembg"
	"github.com/chaos-io/cutout/util"
	"go.uber.org/zap"
)

// ProgressFunc 阶段进度回调，value 在 [0,1]
type ProgressFunc func(stage string, value float64)

const (
	StageLoadingModel = "Loading model…"
	StagePreparing    = "Preparing image…"
	StageRunning      = "Running model…"
	StageRefining     = "Refining mask…"
	StageCompositing  = "Compositing PNG…"
)

type Options struct {
	// MaxPixels 单张图片最大像素数，<= 0 使用 DefaultMaxPixels
	MaxPixels int
	Resampler Resampler
	Progress  ProgressFunc
}

// Pipeline 抠图流水线：编码 -> 推理 -> 取掩码 -> 映射回原图 -> 羽化 -> 合成
//
// Pipeline 本身无状态，可被并发调用；唯一共享的是 SessionCache。
type Pipeline struct {
	sessions *rembg.SessionCache
	opts     Options
}

func NewPipeline(sessions *rembg.SessionCache, opts Options) *Pipeline {
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxPixels
	}
	if opts.Resampler == "" {
		opts.Resampler = ResampleBilinear
	}
	return &Pipeline{sessions: sessions, opts: opts}
}

// WithProgress 返回使用指定进度回调的副本
func (p *Pipeline) WithProgress(fn ProgressFunc) *Pipeline {
	cp := *p
	cp.opts.Progress = fn
	return &cp
}

func (p *Pipeline) progress(stage string, value float64) {
	if p.opts.Progress != nil {
		p.opts.Progress(stage, value)
	}
}

// Result 一次抠图的产物
type Result struct {
	Image *image.NRGBA
	// Alpha 羽化后的透明度
	Alpha *AlphaSurface
	// RawAlpha 羽化前的透明度，用于导出诊断掩码
	RawAlpha  *AlphaSurface
	Mask      *MaskSurface
	Letterbox Letterbox
	InputSize int
	Settings  Settings

	Bounds         image.Rectangle
	Coverage       float64
	HasForeground  bool
	SourceHasAlpha bool
}

// ResolveInputSize 选择模型输入边长：模型声明 > 模型默认 > 配置
//
// 实际使用的边长与配置不同时返回提示文案。
func ResolveInputSize(shape rembg.ModelShapeInfo, model rembg.Model, configured int) (int, string) {
	if declared, ok := shape.DeclaredInputSize(); ok {
		if declared != configured {
			return declared, fmt.Sprintf("Model expects %dpx. Using that size.", declared)
		}
		return declared, ""
	}

	size := configured
	if d := model.DefaultInputSize(); d > 0 {
		size = d
	}
	if size != configured {
		return size, fmt.Sprintf("Model expects %dpx. Using that size.", size)
	}
	return size, ""
}

// Warmup 预先加载模型
func (p *Pipeline) Warmup(ctx context.Context, model rembg.Model) (rembg.ModelShapeInfo, error) {
	defer util.Trace("warmup " + model.String())()

	sess, err := p.sessions.GetOrLoad(ctx, model)
	if err != nil {
		return rembg.ModelShapeInfo{}, fmt.Errorf("load model: %w", err)
	}
	return sess.Shape(), nil
}

// RunBytes 解码图片字节后执行 Run
func (p *Pipeline) RunBytes(ctx context.Context, data []byte, settings Settings) (*Result, error) {
	if _, err := DetectImageType(data); err != nil {
		return nil, err
	}
	cfg, err := DecodeConfig(data)
	if err != nil {
		return nil, err
	}
	if err := checkSurface(cfg.Width, cfg.Height, p.opts.MaxPixels); err != nil {
		return nil, err
	}

	img, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, img, settings)
}

// Run 对一张图片抠图，每个阶段之间检查 ctx 是否已取消
func (p *Pipeline) Run(ctx context.Context, src image.Image, settings Settings) (*Result, error) {
	settings = settings.Normalize()

	b := src.Bounds()
	if err := checkSurface(b.Dx(), b.Dy(), p.opts.MaxPixels); err != nil {
		return nil, err
	}
	img := toNRGBA(src)
	width, height := img.Rect.Dx(), img.Rect.Dy()

	p.progress(StageLoadingModel, 0.05)
	sess, err := p.sessions.GetOrLoad(ctx, settings.Model)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	p.progress(StagePreparing, 0.2)

	inputSize, notice := ResolveInputSize(sess.Shape(), settings.Model, settings.InputSize)
	if notice != "" {
		p.progress(notice, 0.25)
	}

	lb, err := NewLetterbox(width, height, inputSize)
	if err != nil {
		return nil, err
	}
	input, err := EncodeTensor(img, lb, p.opts.Resampler)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.progress(StageRunning, 0.45)
	output, err := sess.Run(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("run model: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.progress(StageRefining, 0.7)
	mask, err := ExtractMaskTensor(output)
	if err != nil {
		return nil, err
	}
	rawAlpha, err := BuildAlpha(ctx, mask, lb, width, height, settings.Threshold)
	if err != nil {
		return nil, err
	}
	alpha, err := Feather(ctx, rawAlpha, settings.FeatherRadius())
	if err != nil {
		return nil, err
	}

	p.progress(StageCompositing, 0.9)
	out, err := Composite(img, alpha, settings.BackgroundColor())
	if err != nil {
		return nil, err
	}

	res := &Result{
		Image:          out,
		Alpha:          alpha,
		RawAlpha:       rawAlpha,
		Mask:           mask,
		Letterbox:      lb,
		InputSize:      inputSize,
		Settings:       settings,
		SourceHasAlpha: hasUsefulAlpha(img),
	}
	res.Bounds, res.Coverage, res.HasForeground = ForegroundBounds(alpha, ForegroundThreshold)

	util.Logger.Debug("cutout done",
		zap.String("model", settings.Model.String()),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("input_size", inputSize),
		zap.Float64("coverage", res.Coverage))
	return res, nil
}
