package cutout

import "image"

// ForegroundThreshold 计入前景的最小透明度
const ForegroundThreshold = 0.5

// ForegroundBounds 统计 alpha > threshold 的像素，返回外接矩形和占比
//
// 没有前景像素时返回空矩形，ok 为 false。
func ForegroundBounds(alpha *AlphaSurface, threshold float64) (rect image.Rectangle, coverage float64, ok bool) {
	w, h := alpha.Width, alpha.Height
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, 0, false
	}

	minX, minY := w, h
	maxX, maxY := -1, -1
	count := 0
	th := float32(threshold)

	for y := 0; y < h; y++ {
		row := alpha.Data[y*w : (y+1)*w]
		for x, a := range row {
			if a <= th {
				continue
			}
			count++
			minX = min(minX, x)
			maxX = max(maxX, x)
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
	}

	if count == 0 {
		return image.Rectangle{}, 0, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), float64(count) / float64(w*h), true
}
