package rembg

import (
	"context"
	"fmt"
	"sync"

	"github.com/chaos-io/cutout/util"
	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"
)

// ONNXConfig 本地 onnxruntime 引擎配置
type ONNXConfig struct {
	// LibraryPath onnxruntime 动态库路径，为空则使用库的默认查找
	LibraryPath string
	NumThreads  int
}

// ONNXLoader 使用 onnxruntime 在本进程内加载模型
type ONNXLoader struct {
	cfg    ONNXConfig
	assets *AssetFetcher

	initMu sync.Mutex
}

func NewONNXLoader(cfg ONNXConfig, assets *AssetFetcher) *ONNXLoader {
	return &ONNXLoader{
		cfg:    cfg,
		assets: assets,
	}
}

func (l *ONNXLoader) initEnvironment() error {
	l.initMu.Lock()
	defer l.initMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if l.cfg.LibraryPath != "" {
		ort.SetSharedLibraryPath(l.cfg.LibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("init onnx: %w", err)
	}
	return nil
}

func (l *ONNXLoader) Load(ctx context.Context, model Model) (Session, error) {
	path, err := l.assets.Resolve(ctx, model)
	if err != nil {
		return nil, err
	}

	if err := l.initEnvironment(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelAssetUnavailable, err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("%w: io info: %v", ErrModelAssetUnavailable, err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("%w: unexpected io (in:%d out:%d)", ErrModelAssetUnavailable, len(inputs), len(outputs))
	}
	in, out := inputs[0], outputs[0]

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("%w: session opts: %v", ErrModelAssetUnavailable, err)
	}
	defer func() {
		if err := opts.Destroy(); err != nil {
			util.Logger.Warn("destroy session options", zap.Error(err))
		}
	}()
	if l.cfg.NumThreads > 0 {
		_ = opts.SetIntraOpNumThreads(l.cfg.NumThreads)
	}

	sess, err := ort.NewDynamicAdvancedSession(path, []string{in.Name}, []string{out.Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: session: %v", ErrModelAssetUnavailable, err)
	}

	return &onnxSession{
		session: sess,
		shape: ModelShapeInfo{
			InputName:  in.Name,
			OutputName: out.Name,
			InputDims:  append([]int64(nil), in.Dimensions...),
			OutputDims: append([]int64(nil), out.Dimensions...),
		},
	}, nil
}

type onnxSession struct {
	session *ort.DynamicAdvancedSession
	shape   ModelShapeInfo
}

func (s *onnxSession) Shape() ModelShapeInfo {
	return s.shape
}

func (s *onnxSession) Run(ctx context.Context, input *Tensor) (*Tensor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	in, err := ort.NewTensor(ort.NewShape(input.Shape...), input.Data)
	if err != nil {
		return nil, fmt.Errorf("input tensor: %w", err)
	}
	defer func() {
		_ = in.Destroy()
	}()

	outputs := []ort.Value{nil}
	if err := s.session.Run([]ort.Value{in}, outputs); err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	if outputs[0] == nil {
		return nil, nil
	}
	defer func() {
		_ = outputs[0].Destroy()
	}()

	t, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", outputs[0])
	}

	// 输出张量随 Destroy 释放，这里复制一份
	return &Tensor{
		Shape: append([]int64(nil), t.GetShape()...),
		Data:  append([]float32(nil), t.GetData()...),
	}, nil
}

func (s *onnxSession) Close() error {
	return s.session.Destroy()
}
