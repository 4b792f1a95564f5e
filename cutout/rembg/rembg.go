package rembg

import (
	"context"
	"errors"
)

// ErrModelAssetUnavailable 模型文件无法获取或推理会话无法创建
var ErrModelAssetUnavailable = errors.New("model asset unavailable")

// Tensor 推理引擎的输入输出，Data 为行优先的 float32
type Tensor struct {
	Shape []int64
	Data  []float32
}

// ModelShapeInfo 模型声明的输入输出形状
type ModelShapeInfo struct {
	InputName  string
	OutputName string
	// InputDims 模型声明的输入维度，动态维度为 -1
	InputDims  []int64
	OutputDims []int64
}

// DeclaredInputSize 模型声明的正方形输入边长，[N,C,H,W] 且 H == W > 0 时有效
func (s ModelShapeInfo) DeclaredInputSize() (int, bool) {
	if len(s.InputDims) < 4 {
		return 0, false
	}
	h, w := s.InputDims[2], s.InputDims[3]
	if h <= 0 || w <= 0 || h != w {
		return 0, false
	}
	return int(h), true
}

// Session 已加载的模型，Run 可被多个请求并发只读使用
type Session interface {
	Shape() ModelShapeInfo
	// Run 执行一次推理，引擎没有输出时返回 nil Tensor
	Run(ctx context.Context, input *Tensor) (*Tensor, error)
	Close() error
}

// Loader 按模型标识创建推理会话
type Loader interface {
	Load(ctx context.Context, model Model) (Session, error)
}
