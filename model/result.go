package model

import "github.com/chaos-io/cutout/cutout"

// CutoutResult 一次抠图的元数据，PNG 本体由结果存储保存
type CutoutResult struct {
	ID            string          `json:"id"`
	MD5           string          `json:"md5"`
	Width         int             `json:"width"`
	Height        int             `json:"height"`
	InputSize     int             `json:"input_size"`
	Settings      cutout.Settings `json:"settings"`
	BoundingBox   *BBox           `json:"bounding_box,omitempty"`
	Coverage      float64         `json:"coverage"`
	HasForeground bool            `json:"has_foreground"`
	URL           string          `json:"url"`
	Timestamp     int64           `json:"timestamp"`
}

// BBox 前景外接矩形
type BBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CutoutResponse 抠图响应
type CutoutResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Data    *CutoutResult `json:"data,omitempty"`
}

// ModelInfo 可用模型
type ModelInfo struct {
	Name             string `json:"name"`
	Asset            string `json:"asset"`
	DefaultInputSize int    `json:"default_input_size"`
}

type ModelsResponse struct {
	Success bool        `json:"success"`
	Data    []ModelInfo `json:"data"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
