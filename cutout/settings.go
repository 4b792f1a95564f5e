package cutout

import (
	"image/color"
	"math"

	"github.com/chaos-io/cutout/cutout/rembg"
)

const (
	DefaultInputSize = 320
	LargeInputSize   = 512
	DefaultThreshold = 0.5
	DefaultFeather   = 6

	MinSettingsThreshold = 0.1
	MaxSettingsThreshold = 0.9
)

// Settings 单次抠图的参数，处理前先 Normalize
type Settings struct {
	InputSize int         `json:"input_size" mapstructure:"input_size"`
	Threshold float64     `json:"threshold" mapstructure:"threshold"`
	Feather   float64     `json:"feather" mapstructure:"feather"`
	Model     rembg.Model `json:"model" mapstructure:"model"`
	// Background 纯色背景，空字符串表示保留透明
	Background string `json:"background" mapstructure:"background"`
}

func DefaultSettings() Settings {
	return Settings{
		InputSize: DefaultInputSize,
		Threshold: DefaultThreshold,
		Feather:   DefaultFeather,
		Model:     rembg.ModelHuman,
	}
}

// Normalize 把参数收敛到合法范围
//
//	InputSize 只接受 512，其余按 320
//	Threshold 截断到 [0.1, 0.9]
//	Feather 四舍五入后截断到 [0, 20]
//	未知模型回退到人像模型，非法颜色视为无背景
func (s Settings) Normalize() Settings {
	out := s
	if s.InputSize != LargeInputSize {
		out.InputSize = DefaultInputSize
	}

	if math.IsNaN(s.Threshold) {
		out.Threshold = DefaultThreshold
	} else {
		out.Threshold = clamp64(s.Threshold, MinSettingsThreshold, MaxSettingsThreshold)
	}

	if math.IsNaN(s.Feather) {
		out.Feather = DefaultFeather
	} else {
		out.Feather = clamp64(math.Round(s.Feather), 0, MaxFeather)
	}

	if m, ok := rembg.ParseModel(string(s.Model)); ok {
		out.Model = m
	} else {
		out.Model = rembg.ModelHuman
	}

	if c, ok := ParseHexColor(s.Background); ok {
		out.Background = FormatHexColor(c)
	} else {
		out.Background = ""
	}
	return out
}

// FeatherRadius 羽化半径
func (s Settings) FeatherRadius() int {
	return int(clamp64(math.Round(s.Feather), 0, MaxFeather))
}

// BackgroundColor 解析背景色，无背景返回 nil
func (s Settings) BackgroundColor() *color.RGBA {
	c, ok := ParseHexColor(s.Background)
	if !ok {
		return nil
	}
	return &c
}
