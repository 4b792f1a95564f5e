package cutout

import "context"

// MaxFeather 羽化半径上限
const MaxFeather = 20

// Feather 对透明度做可分离的盒式模糊，先水平后垂直，边界取边缘值
//
// radius <= 0 时返回输入的拷贝。结果总是新分配的缓冲，不修改输入。
func Feather(ctx context.Context, alpha *AlphaSurface, radius int) (*AlphaSurface, error) {
	if radius <= 0 {
		return alpha.Clone(), nil
	}

	w, h := alpha.Width, alpha.Height
	k := float64(2*radius + 1)
	src := alpha.Data

	temp := make([]float32, len(src))
	err := parallelRows(ctx, h, func(lo, hi int) {
		for y := lo; y < hi; y++ {
			row := src[y*w : (y+1)*w]
			out := temp[y*w : (y+1)*w]

			var sum float64
			for x := -radius; x <= radius; x++ {
				sum += float64(row[clampInt(x, 0, w-1)])
			}
			for x := 0; x < w; x++ {
				out[x] = float32(sum / k)
				sum += float64(row[clampInt(x+radius+1, 0, w-1)]) - float64(row[clampInt(x-radius, 0, w-1)])
			}
		}
	})
	if err != nil {
		return nil, err
	}

	result := NewAlphaSurface(w, h)
	err = parallelRows(ctx, w, func(lo, hi int) {
		for x := lo; x < hi; x++ {
			var sum float64
			for y := -radius; y <= radius; y++ {
				sum += float64(temp[clampInt(y, 0, h-1)*w+x])
			}
			for y := 0; y < h; y++ {
				result.Data[y*w+x] = float32(sum / k)
				sum += float64(temp[clampInt(y+radius+1, 0, h-1)*w+x]) - float64(temp[clampInt(y-radius, 0, h-1)*w+x])
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
