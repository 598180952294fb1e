package extract

import (
	"image"
	"image/color"
	"image/png"
	"os"

	// Register decoders for the raster formats the allow-list can contain.
	_ "image/jpeg"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// preprocessFile applies the fixed OCR preprocessing pipeline:
// grayscale -> autocontrast -> sharpen -> binarize at the given luminance
// threshold, and writes the result as PNG.
func preprocessFile(in, out string, threshold uint8) error {
	f, err := os.Open(in)
	if err != nil {
		return err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return err
	}

	g := toGray(src)
	autocontrast(g)
	g = sharpen(g)
	binarize(g, threshold)

	dst, err := os.Create(out)
	if err != nil {
		return err
	}
	defer dst.Close()
	return png.Encode(dst, g)
}

func toGray(src image.Image) *image.Gray {
	b := src.Bounds()
	g := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g.Set(x, y, color.GrayModel.Convert(src.At(x, y)))
		}
	}
	return g
}

// autocontrast stretches the histogram so the darkest pixel maps to 0 and
// the brightest to 255. A flat image is left untouched.
func autocontrast(g *image.Gray) {
	lo, hi := uint8(255), uint8(0)
	for _, p := range g.Pix {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	if hi <= lo {
		return
	}
	scale := 255.0 / float64(hi-lo)
	for i, p := range g.Pix {
		g.Pix[i] = uint8(float64(p-lo)*scale + 0.5)
	}
}

// sharpen applies a standard 3x3 sharpening kernel (center 5, cross -1).
func sharpen(g *image.Gray) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(b)
	copy(out.Pix, g.Pix)
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			v := 5*int(g.GrayAt(x, y).Y) -
				int(g.GrayAt(x-1, y).Y) - int(g.GrayAt(x+1, y).Y) -
				int(g.GrayAt(x, y-1).Y) - int(g.GrayAt(x, y+1).Y)
			if v < 0 {
				v = 0
			}
			if v > 255 {
				v = 255
			}
			out.SetGray(x, y, color.Gray{Y: uint8(v)})
		}
	}
	return out
}

func binarize(g *image.Gray, threshold uint8) {
	for i, p := range g.Pix {
		if p > threshold {
			g.Pix[i] = 255
		} else {
			g.Pix[i] = 0
		}
	}
}
