package engine

import (
	"cmp"
	"image/color"
	"slices"
)

type histEntry struct {
	c      color.NRGBA
	f      fcolor
	weight float64
}

// buildHistogram pulls every row of img, posterizes the colour channels and
// counts distinct colours. Entries are sorted by weight, most frequent first.
func buildHistogram(img *Image, bits int) (hist []histEntry, total float64) {
	mask := uint8(0xff << bits)
	counts := make(map[color.NRGBA]float64)

	img.eachRow(func(_ int, row []color.NRGBA) {
		for _, c := range row {
			c = canonical(c)
			if bits > 0 {
				c = color.NRGBA{R: c.R & mask, G: c.G & mask, B: c.B & mask, A: c.A}
			}
			counts[c]++
		}
	})

	hist = make([]histEntry, 0, len(counts))
	for c, w := range counts {
		hist = append(hist, histEntry{c: c, f: toF(c), weight: w})
		total += w
	}
	slices.SortFunc(hist, func(a, b histEntry) int {
		if c := cmp.Compare(b.weight, a.weight); c != 0 {
			return c
		}
		return cmp.Compare(colorKey(a.c), colorKey(b.c))
	})
	return hist, total
}

func colorKey(c color.NRGBA) int64 {
	return int64(c.R)<<24 | int64(c.G)<<16 | int64(c.B)<<8 | int64(c.A)
}
