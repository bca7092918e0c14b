package enhance

import (
	"image"

	"github.com/disintegration/imaging"
)

// median3x3 replaces every colour channel value with the median of its 3x3
// neighbourhood. Edges replicate the border pixel. Alpha is copied through.
func median3x3(img image.Image) image.Image {
	src := imaging.Clone(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := imaging.New(w, h, image.Transparent)

	at := func(x, y int) int {
		if x < 0 {
			x = 0
		} else if x >= w {
			x = w - 1
		}
		if y < 0 {
			y = 0
		} else if y >= h {
			y = h - 1
		}
		return y*src.Stride + x*4
	}

	var window [9]uint8
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := y*dst.Stride + x*4
			for c := 0; c < 3; c++ {
				n := 0
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						window[n] = src.Pix[at(x+dx, y+dy)+c]
						n++
					}
				}
				dst.Pix[o+c] = median9(&window)
			}
			dst.Pix[o+3] = src.Pix[o+3]
		}
	}
	return dst
}

// median9 sorts w in place and returns its middle element.
func median9(w *[9]uint8) uint8 {
	for i := 1; i < len(w); i++ {
		v := w[i]
		j := i - 1
		for j >= 0 && w[j] > v {
			w[j+1] = w[j]
			j--
		}
		w[j+1] = v
	}
	return w[4]
}
