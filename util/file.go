package util

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	nhttp "github.com/chaos-io/cutout/util/http"
)

const downloadTimeout = 60 * time.Second

// IsURL 判断输入是否为 http(s) 地址
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// DownloadBytes 下载远程文件
func DownloadBytes(ctx context.Context, cli nhttp.IClient, url string) ([]byte, error) {
	var data []byte
	err := cli.DoHTTPRequest(ctx, &nhttp.RequestParam{
		RequestURI: url,
		Method:     "GET",
		Response:   &data,
		Timeout:    downloadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	return data, nil
}

// LoadBytes 读取本地文件或下载远程图片
func LoadBytes(ctx context.Context, src string) ([]byte, error) {
	if IsURL(src) {
		return DownloadBytes(ctx, nhttp.NewHTTPClient(), src)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}
	return data, nil
}
