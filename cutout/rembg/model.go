package rembg

import "strings"

// Model 分割模型标识
type Model string

const (
	ModelHuman   Model = "human-segmentation"
	ModelGeneral Model = "general-segmentation"
)

type modelSpec struct {
	asset        string
	defaultInput int
}

var modelSpecs = map[Model]modelSpec{
	ModelHuman:   {asset: "u2net-human.onnx", defaultInput: 320},
	ModelGeneral: {asset: "isnet-general.onnx", defaultInput: 1024},
}

var modelAliases = map[string]Model{
	"u2net-human":   ModelHuman,
	"isnet-general": ModelGeneral,
}

// ParseModel 解析模型标识，兼容 u2net-human / isnet-general 旧名称
func ParseModel(s string) (Model, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if m := Model(s); m.Valid() {
		return m, true
	}
	m, ok := modelAliases[s]
	return m, ok
}

func (m Model) Valid() bool {
	_, ok := modelSpecs[m]
	return ok
}

// Asset 模型文件名
func (m Model) Asset() string {
	return modelSpecs[m].asset
}

// DefaultInputSize 模型未声明输入形状时使用的边长
func (m Model) DefaultInputSize() int {
	return modelSpecs[m].defaultInput
}

func (m Model) String() string {
	return string(m)
}

// Models 所有支持的模型
func Models() []Model {
	return []Model{ModelHuman, ModelGeneral}
}
