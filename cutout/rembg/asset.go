package rembg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chaos-io/cutout/util"
	nhttp "github.com/chaos-io/cutout/util/http"
	"go.uber.org/zap"
)

const assetDownloadTimeout = 10 * time.Minute

// AssetFetcher 定位模型文件，本地不存在时从 baseURL 下载
type AssetFetcher struct {
	dir     string
	baseURL string
	cli     nhttp.IClient
}

func NewAssetFetcher(dir, baseURL string) *AssetFetcher {
	return &AssetFetcher{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		cli:     nhttp.NewHTTPClientWithTimeout(assetDownloadTimeout),
	}
}

// Path 模型文件的本地路径
func (f *AssetFetcher) Path(model Model) string {
	return filepath.Join(f.dir, model.Asset())
}

// Resolve 返回可用的本地模型文件路径
func (f *AssetFetcher) Resolve(ctx context.Context, model Model) (string, error) {
	if !model.Valid() {
		return "", fmt.Errorf("%w: unknown model %q", ErrModelAssetUnavailable, model)
	}

	path := f.Path(model)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if f.baseURL == "" {
		return "", fmt.Errorf("%w: model not found at %s, place the ONNX file there or configure model.asset_url",
			ErrModelAssetUnavailable, path)
	}

	if err := f.download(ctx, model, path); err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelAssetUnavailable, err)
	}
	return path, nil
}

func (f *AssetFetcher) download(ctx context.Context, model Model, path string) error {
	url := f.baseURL + "/" + model.Asset()
	util.Logger.Info("downloading model", zap.String("model", model.String()), zap.String("url", url))

	var data []byte
	err := f.cli.DoHTTPRequest(ctx, &nhttp.RequestParam{
		RequestURI: url,
		Method:     "GET",
		Response:   &data,
		Timeout:    assetDownloadTimeout,
	})
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	if len(data) == 0 {
		return fmt.Errorf("empty model file from %s", url)
	}

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}

	// 先写临时文件再改名，避免留下半个模型文件
	tmp, err := os.CreateTemp(f.dir, model.Asset()+".*.part")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write model file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename model file: %w", err)
	}

	util.Logger.Info("model downloaded", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}
