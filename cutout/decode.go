package cutout

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var supportedMIME = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/webp",
	"image/bmp",
	"image/tiff",
}

// DetectImageType 按内容嗅探图片类型，非图片返回 ErrUnsupportedInputFormat
func DetectImageType(data []byte) (string, error) {
	mt := mimetype.Detect(data)
	for _, m := range supportedMIME {
		if mt.Is(m) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedInputFormat, mt.String())
}

// DecodeImage 解码图片并按 EXIF 方向摆正，结果为原点在 (0,0) 的 NRGBA
func DecodeImage(data []byte) (*image.NRGBA, error) {
	if _, err := DetectImageType(data); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedInputFormat, err)
	}
	return toNRGBA(img), nil
}

// DecodeConfig 只读取宽高，用于在解码前拒绝超大图片
func DecodeConfig(data []byte) (image.Config, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, fmt.Errorf("%w: %v", ErrUnsupportedInputFormat, err)
	}
	return cfg, nil
}

// EncodePNG 无损编码为 PNG
func EncodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.DefaultCompression))
}

// PNGBytes EncodePNG 的便捷形式
func PNGBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// IsPNGName 输出文件名是否以 .png 结尾
func IsPNGName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".png")
}
