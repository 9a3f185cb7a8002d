package engine

import (
	"image/color"
	"math"
	"slices"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"go.uber.org/zap"
)

type paletteEntry struct {
	c          fcolor
	popularity float64
	fixed      bool
}

// Quantize selects a palette for img under attr.
//
// Images with no more distinct colours than palette slots get an exact
// palette. Otherwise initial centres come from k-means in Lab space over the
// most frequent colours and are refined against the weighted histogram.
// Quantize fails with QualityTooLow when the achieved quality is below the
// configured minimum.
func Quantize(attr *Attr, img *Image) (*Result, error) {
	if attr == nil || img == nil {
		return nil, InvalidPointer
	}

	hist, total := buildHistogram(img, attr.minPosterize)
	if len(hist) == 0 || total == 0 {
		return nil, BitmapNotAvailable
	}

	fixed := img.fixed
	if len(fixed) > attr.maxColors {
		fixed = fixed[:attr.maxColors]
	}

	pal := make([]paletteEntry, 0, attr.maxColors)
	isFixed := make(map[color.NRGBA]bool, len(fixed))
	for _, c := range fixed {
		c = canonical(c)
		isFixed[c] = true
		pal = append(pal, paletteEntry{c: toF(c), fixed: true})
	}

	rest := make([]histEntry, 0, len(hist))
	for _, h := range hist {
		if !isFixed[h.c] {
			rest = append(rest, h)
		}
	}

	free := attr.maxColors - len(pal)
	switch {
	case free <= 0 || len(rest) == 0:
	case len(rest) <= free:
		for _, h := range rest {
			pal = append(pal, paletteEntry{c: h.f})
		}
	default:
		for _, c := range seedCenters(rest, free, attr) {
			pal = append(pal, paletteEntry{c: c})
		}
		limit := min(len(hist), 4*attr.sampleLimit())
		refine(pal, hist[:limit], attr.refineIterations(), qualityToMSE(attr.maxQuality))
	}

	colors, popularity, mse := finalize(pal, hist, total)
	quality := mseToQuality(mse)

	Logger().Debug("quantized",
		zap.Int("distinct", len(hist)),
		zap.Int("colors", len(colors)),
		zap.Float64("mse", mse),
		zap.Int("quality", quality),
	)

	if mse > qualityToMSE(attr.minQuality) {
		Logger().Debug("quality below minimum",
			zap.Int("quality", quality),
			zap.Int("min_quality", attr.minQuality),
		)
		return nil, QualityTooLow
	}

	order := paletteOrder(colors, popularity, attr.lastTransparent)
	sorted := make([]color.NRGBA, len(order))
	for i, j := range order {
		sorted[i] = colors[j]
	}

	return newResult(sorted, img.gamma, mse), nil
}

// seedCenters picks k initial palette colours by clustering the most frequent
// distinct colours. It falls back to the k most frequent colours when
// clustering fails.
func seedCenters(hist []histEntry, k int, attr *Attr) []fcolor {
	n := min(len(hist), attr.sampleLimit())

	dataset := make(clusters.Observations, 0, n)
	for _, h := range hist[:n] {
		dataset = append(dataset, labCoordinates(h.c))
	}

	centers := make([]fcolor, 0, k)
	if k < n {
		km, err := kmeans.NewWithOptions(0.01, nil)
		if err == nil {
			cc, err := km.Partition(dataset, k)
			if err == nil {
				for _, c := range cc {
					if len(c.Observations) == 0 {
						continue
					}
					centers = append(centers, fromLabCoordinates(c.Center))
				}
			} else {
				Logger().Debug("kmeans partition failed", zap.Error(err))
			}
		}
	}

	for i := 0; len(centers) < k && i < len(hist); i++ {
		centers = append(centers, hist[i].f)
	}
	return centers
}

// refine moves every non-fixed entry to the weighted mean of the colours
// nearest to it. It stops early once the error drops to target.
func refine(pal []paletteEntry, hist []histEntry, iterations int, target float64) {
	sums := make([]fcolor, len(pal))
	weights := make([]float64, len(pal))

	for it := 0; it < iterations; it++ {
		clear(sums)
		clear(weights)
		var errSum, total float64

		for _, h := range hist {
			i, d := nearestEntry(pal, h.f)
			for ch := range sums[i] {
				sums[i][ch] += h.f[ch] * h.weight
			}
			weights[i] += h.weight
			errSum += d * h.weight
			total += h.weight
		}

		if total > 0 && errSum/total <= target {
			return
		}

		for i := range pal {
			if pal[i].fixed || weights[i] == 0 {
				continue
			}
			for ch := range pal[i].c {
				pal[i].c[ch] = sums[i][ch] / weights[i]
			}
		}
	}
}

func nearestEntry(pal []paletteEntry, f fcolor) (int, float64) {
	best, bestD := 0, math.Inf(1)
	for i := range pal {
		if d := pal[i].c.diff(f); d < bestD {
			best, bestD = i, d
			if d == 0 {
				break
			}
		}
	}
	return best, bestD
}

// finalize rounds the palette to 8 bits, drops unused non-fixed entries and
// measures the error of the rounded palette over the whole histogram.
func finalize(pal []paletteEntry, hist []histEntry, total float64) ([]color.NRGBA, []float64, float64) {
	rounded := make([]paletteEntry, len(pal))
	for i, p := range pal {
		rounded[i] = paletteEntry{c: toF(p.c.nrgba()), fixed: p.fixed}
	}

	var errSum float64
	for _, h := range hist {
		i, d := nearestEntry(rounded, h.f)
		rounded[i].popularity += h.weight
		errSum += d * h.weight
	}

	colors := make([]color.NRGBA, 0, len(rounded))
	popularity := make([]float64, 0, len(rounded))
	for i, p := range rounded {
		if !p.fixed && p.popularity == 0 {
			continue
		}
		colors = append(colors, pal[i].c.nrgba())
		popularity = append(popularity, p.popularity)
	}
	return colors, popularity, errSum / total
}

// paletteOrder returns indices ordering translucent entries first (or last
// when lastTransparent is set), then by popularity, most popular first.
func paletteOrder(colors []color.NRGBA, popularity []float64, lastTransparent bool) []int {
	order := make([]int, len(colors))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		ta, tb := colors[a].A < 255, colors[b].A < 255
		if ta != tb {
			if ta != lastTransparent {
				return -1
			}
			return 1
		}
		switch {
		case popularity[a] > popularity[b]:
			return -1
		case popularity[a] < popularity[b]:
			return 1
		}
		return 0
	})
	return order
}
