package cutout

import (
	"image"

	"github.com/disintegration/imaging"
)

// AlphaToGray 把透明度面转换为灰度图，1.0 为白色
func AlphaToGray(alpha *AlphaSurface) *image.Gray {
	gray := image.NewGray(image.Rect(0, 0, alpha.Width, alpha.Height))
	for y := 0; y < alpha.Height; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < alpha.Width; x++ {
			row[x] = toByte(clampAlpha(alpha.Data[y*alpha.Width+x]) * 255)
		}
	}
	return gray
}

// MaskToGray 模型输出掩码的灰度预览，可选放大到 width x height
func MaskToGray(mask *MaskSurface, width, height int) image.Image {
	gray := image.NewGray(image.Rect(0, 0, mask.Width, mask.Height))
	for i, v := range mask.Data[:mask.Width*mask.Height] {
		gray.Pix[i] = toByte(clampAlpha(v) * 255)
	}
	if width <= 0 || height <= 0 || (width == mask.Width && height == mask.Height) {
		return gray
	}
	return imaging.Resize(gray, width, height, imaging.Linear)
}
