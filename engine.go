package main

import (
	"fmt"
	"strings"

	"github.com/chaos-io/cutout/config"
	"github.com/chaos-io/cutout/cutout"
	"github.com/chaos-io/cutout/cutout/rembg"
)

// newLoader 按配置选择推理引擎
func newLoader(mc config.ModelConfig) (rembg.Loader, error) {
	switch strings.ToLower(mc.Engine) {
	case "", "onnx":
		assets := rembg.NewAssetFetcher(mc.Dir, mc.AssetURL)
		return rembg.NewONNXLoader(rembg.ONNXConfig{
			LibraryPath: mc.LibraryPath,
			NumThreads:  mc.NumThreads,
		}, assets), nil
	case "remote":
		if mc.RemoteURL == "" {
			return nil, fmt.Errorf("model.remote_url is required for the remote engine")
		}
		return rembg.NewRemoteLoader(mc.RemoteURL), nil
	default:
		return nil, fmt.Errorf("unknown model engine %q", mc.Engine)
	}
}

// newPipeline 创建流水线和它持有的会话缓存，调用方负责 Close 缓存
func newPipeline(c *config.Config, progress cutout.ProgressFunc) (*cutout.Pipeline, *rembg.SessionCache, error) {
	loader, err := newLoader(c.Model)
	if err != nil {
		return nil, nil, err
	}
	sessions := rembg.NewSessionCache(loader)
	p := cutout.NewPipeline(sessions, cutout.Options{
		MaxPixels: c.Pipeline.MaxPixels,
		Resampler: cutout.ParseResampler(c.Pipeline.Resampler),
		Progress:  progress,
	})
	return p, sessions, nil
}
