package remover

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math"

	_ "image/jpeg"

	"github.com/pkg/errors"
)

const defaultColorThreshold = 60.0

// LocalRemover runs a simple in-process matte: it estimates the background
// color from the border pixels and clears everything within a color-distance
// threshold. CPU-bound, so callers must keep it off the polling loop.
type LocalRemover struct {
	threshold float64
}

func NewLocalRemover() *LocalRemover {
	return &LocalRemover{threshold: defaultColorThreshold}
}

func (l *LocalRemover) Remove(ctx context.Context, data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}

	bounds := src.Bounds()
	bg := borderColor(src)

	out := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			if colorDistance(px, bg) <= l.threshold {
				px = color.NRGBA{}
			}
			out.SetNRGBA(x, y, px)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, errors.Wrap(err, "encode png")
	}
	return buf.Bytes(), nil
}

// borderColor averages the outermost pixel ring.
func borderColor(src image.Image) color.NRGBA {
	bounds := src.Bounds()
	var rSum, gSum, bSum, count uint64

	add := func(x, y int) {
		px := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
		rSum += uint64(px.R)
		gSum += uint64(px.G)
		bSum += uint64(px.B)
		count++
	}

	for x := bounds.Min.X; x < bounds.Max.X; x++ {
		add(x, bounds.Min.Y)
		add(x, bounds.Max.Y-1)
	}
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		add(bounds.Min.X, y)
		add(bounds.Max.X-1, y)
	}

	if count == 0 {
		return color.NRGBA{A: 255}
	}
	return color.NRGBA{
		R: uint8(rSum / count),
		G: uint8(gSum / count),
		B: uint8(bSum / count),
		A: 255,
	}
}

func colorDistance(a, b color.NRGBA) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}
