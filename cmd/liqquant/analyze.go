package main

import (
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/stat"

	"github.com/wippyai/liqbridge/bridge"
	"github.com/wippyai/liqbridge/liq"
)

const dominantColors = 5

// analysis describes what quantization does to one image.
type analysis struct {
	path     string
	width    int
	height   int
	inBytes  int64
	outBytes int
	mse      float64
	quality  int
	palette  []string
	usage    []float64
	entropy  float64
	dominant []dominantcolor.Color
}

// analyzeImage quantizes img with the typed session API and gathers palette
// usage statistics.
func analyzeImage(s *liq.Session, img image.Image, opts options) (*analysis, error) {
	attr, err := s.AttrCreate()
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.AttrDestroy(attr) }()

	if err := s.SetMaxColors(attr, opts.colors); err != nil {
		return nil, err
	}
	if err := s.SetQualityRange(attr, opts.qualityMin, opts.qualityMax); err != nil {
		return nil, err
	}
	if err := s.SetSpeed(attr, opts.speed); err != nil {
		return nil, err
	}
	if err := s.SetMinPosterization(attr, opts.posterize); err != nil {
		return nil, err
	}

	r, err := s.Remap(attr, img, opts.dither)
	if err != nil {
		return nil, err
	}

	data, err := encodePNG(r.Image)
	if err != nil {
		return nil, err
	}

	a := &analysis{
		width:    r.Image.Rect.Dx(),
		height:   r.Image.Rect.Dy(),
		outBytes: len(data),
		mse:      r.MSE,
		quality:  r.Quality,
		usage:    make([]float64, len(r.Image.Palette)),
		dominant: dominantcolor.FindWeight(img, dominantColors),
	}

	for _, c := range r.Image.Palette {
		cf, _ := colorful.MakeColor(c)
		a.palette = append(a.palette, cf.Hex())
	}
	for _, idx := range r.Image.Pix {
		a.usage[idx]++
	}
	if n := float64(len(r.Image.Pix)); n > 0 {
		for i := range a.usage {
			a.usage[i] /= n
		}
	}
	a.entropy = stat.Entropy(a.usage) / math.Ln2
	return a, nil
}

func (a *analysis) write(w io.Writer) {
	fmt.Fprintf(w, "%s\n", titleStyle.Render(a.path))
	fmt.Fprintf(w, "  Size:        %dx%d\n", a.width, a.height)
	if a.inBytes > 0 {
		fmt.Fprintf(w, "  File:        %s -> %s (%.1f%%)\n",
			humanBytes(a.inBytes), humanBytes(int64(a.outBytes)), 100*float64(a.outBytes)/float64(a.inBytes))
	}
	fmt.Fprintf(w, "  Quality:     %d (mse %.4f)\n", a.quality, a.mse)
	fmt.Fprintf(w, "  Palette:     %d colours, index entropy %.2f bits\n", len(a.palette), a.entropy)

	order := make([]int, len(a.usage))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return a.usage[order[i]] > a.usage[order[j]] })

	var top []string
	for _, i := range order[:min(len(order), 8)] {
		top = append(top, fmt.Sprintf("%s %.1f%%", a.palette[i], 100*a.usage[i]))
	}
	fmt.Fprintf(w, "  Most used:   %s\n", strings.Join(top, ", "))

	var dom []string
	for _, c := range a.dominant {
		cf, _ := colorful.MakeColor(c.RGBA)
		dom = append(dom, fmt.Sprintf("%s %.2f", cf.Hex(), c.Weight))
	}
	fmt.Fprintf(w, "  Dominant:    %s\n", strings.Join(dom, ", "))
}

func runAnalyze(b *bridge.Bridge, paths []string, opts options) error {
	for _, path := range paths {
		img, err := loadImage(path, opts.maxWidth)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		a, err := analyzeImage(b.Session(), img, opts)
		if err != nil {
			return fmt.Errorf("analyze %s: %w", path, err)
		}
		a.path = path
		if info, err := os.Stat(path); err == nil {
			a.inBytes = info.Size()
		}
		a.write(os.Stdout)
	}
	return nil
}
