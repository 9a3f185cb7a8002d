package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/wippyai/liqbridge"
	"github.com/wippyai/liqbridge/bridge"
	"github.com/wippyai/liqbridge/pixel"
)

type options struct {
	colors     int
	qualityMin int
	qualityMax int
	speed      int
	posterize  int
	dither     float32
	workers    int
	maxWidth   int
	outDir     string
	suffix     string
}

// fileStat records the outcome of compressing one file.
type fileStat struct {
	err      error
	path     string
	out      string
	inBytes  int64
	outBytes int64
	colors   int
	quality  int
	mse      float64
	elapsed  time.Duration
}

func (s fileStat) ratio() float64 {
	if s.inBytes == 0 {
		return 0
	}
	return float64(s.outBytes) / float64(s.inBytes)
}

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// collectInputs expands directories into the image files below them.
func collectInputs(args []string, suffix string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !imageExts[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			if suffix != "" && strings.HasSuffix(path, suffix) {
				return nil
			}
			out = append(out, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func outputPath(in, outDir, suffix string) string {
	base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in)) + suffix
	if outDir == "" {
		return filepath.Join(filepath.Dir(in), base)
	}
	return filepath.Join(outDir, base)
}

func loadImage(path string, maxWidth int) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		g := gift.New(gift.Resize(maxWidth, 0, gift.LanczosResampling))
		dst := image.NewNRGBA(g.Bounds(img.Bounds()))
		g.Draw(dst, img)
		img = dst
	}
	return img, nil
}

// newAttr creates an attribute configured from opts.
func newAttr(b *bridge.Bridge, opts options) (int64, error) {
	attr := b.AttrCreate()
	if attr == liqbridge.NullHandle {
		return 0, fmt.Errorf("create attribute")
	}

	ok := int32(liqbridge.StatusOK)
	switch {
	case b.SetMaxColors(attr, int32(opts.colors)) != ok:
		b.AttrDestroy(attr)
		return 0, fmt.Errorf("colors %d out of range", opts.colors)
	case b.SetQualityRange(attr, int32(opts.qualityMin), int32(opts.qualityMax)) != ok:
		b.AttrDestroy(attr)
		return 0, fmt.Errorf("quality %d-%d out of range", opts.qualityMin, opts.qualityMax)
	case b.SetSpeed(attr, int32(opts.speed)) != ok:
		b.AttrDestroy(attr)
		return 0, fmt.Errorf("speed %d out of range", opts.speed)
	case b.SetMinPosterization(attr, int32(opts.posterize)) != ok:
		b.AttrDestroy(attr)
		return 0, fmt.Errorf("posterization %d out of range", opts.posterize)
	}
	return attr, nil
}

// quantized is an image pushed through the primitive bridge surface.
type quantized struct {
	img     *image.Paletted
	quality int
	mse     float64
}

// quantize runs the full handle protocol for img: create, quantize, size
// query, fill, remap, destroy.
func quantize(b *bridge.Bridge, attr int64, img image.Image, dither float32) (*quantized, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	ok := int32(liqbridge.StatusOK)

	src := b.ImageCreate(attr, pixel.Pack(img, pixel.LayoutABGR), int32(w), int32(h), int32(pixel.LayoutABGR))
	if src == liqbridge.NullHandle {
		return nil, fmt.Errorf("image %dx%d rejected", w, h)
	}
	defer b.ImageDestroy(src)

	res := b.Quantize(attr, src)
	if res == liqbridge.NullHandle {
		return nil, fmt.Errorf("quantization failed or quality below minimum")
	}
	defer b.ResultDestroy(res)

	if b.SetDitheringLevel(res, dither) != ok {
		return nil, fmt.Errorf("dithering level %.2f out of range", dither)
	}

	size := b.PaletteBytes(res, nil, 0)
	if size < 0 {
		return nil, fmt.Errorf("palette size query failed")
	}
	pal := make([]byte, size)
	if b.CopyPaletteData(b.Palette(res), pal, size) != ok {
		return nil, fmt.Errorf("copy palette failed")
	}

	indices := make([]byte, w*h)
	if b.WriteRemappedImage(res, src, indices, int32(len(indices))) != ok {
		return nil, fmt.Errorf("remap failed")
	}

	entries := make([]color.NRGBA, size/4)
	for i := range entries {
		entries[i] = color.NRGBA{R: pal[i*4], G: pal[i*4+1], B: pal[i*4+2], A: pal[i*4+3]}
	}

	return &quantized{
		img:     pixel.Paletted(indices, entries, w, h),
		quality: int(b.Quality(res)),
		mse:     b.MeanSquareError(res),
	}, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func compressFile(b *bridge.Bridge, attr int64, path string, opts options) fileStat {
	start := time.Now()
	st := fileStat{path: path, out: outputPath(path, opts.outDir, opts.suffix)}

	if info, err := os.Stat(path); err == nil {
		st.inBytes = info.Size()
	}

	img, err := loadImage(path, opts.maxWidth)
	if err != nil {
		st.err = fmt.Errorf("load: %w", err)
		return st
	}

	q, err := quantize(b, attr, img, opts.dither)
	if err != nil {
		st.err = err
		return st
	}

	data, err := encodePNG(q.img)
	if err != nil {
		st.err = fmt.Errorf("encode: %w", err)
		return st
	}
	if err := os.WriteFile(st.out, data, 0o644); err != nil {
		st.err = fmt.Errorf("write: %w", err)
		return st
	}

	st.outBytes = int64(len(data))
	st.colors = len(q.img.Palette)
	st.quality = q.quality
	st.mse = q.mse
	st.elapsed = time.Since(start)
	return st
}

// compressAll compresses paths with opts.workers workers. Each worker owns
// a copy of the base attribute. done is called once per file, from any
// worker.
func compressAll(ctx context.Context, b *bridge.Bridge, paths []string, opts options, done func(fileStat)) ([]fileStat, error) {
	base, err := newAttr(b, opts)
	if err != nil {
		return nil, err
	}
	defer b.AttrDestroy(base)

	if opts.outDir != "" {
		if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
			return nil, err
		}
	}

	jobs := make(chan int)
	stats := make([]fileStat, len(paths))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := range paths {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < min(opts.workers, len(paths)); w++ {
		g.Go(func() error {
			attr := b.AttrCopy(base)
			if attr == liqbridge.NullHandle {
				return fmt.Errorf("copy attribute")
			}
			defer b.AttrDestroy(attr)

			for i := range jobs {
				st := compressFile(b, attr, paths[i], opts)
				stats[i] = st
				if done != nil {
					mu.Lock()
					done(st)
					mu.Unlock()
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return stats, err
	}
	return stats, nil
}

// summary aggregates per-file statistics.
type summary struct {
	files       int
	failed      int
	inBytes     int64
	outBytes    int64
	meanRatio   float64
	stdRatio    float64
	medianRatio float64
	meanQuality float64
	elapsed     time.Duration
}

func summarize(stats []fileStat) summary {
	var s summary
	var ratios, qualities []float64
	for _, st := range stats {
		s.files++
		if st.err != nil {
			s.failed++
			continue
		}
		s.inBytes += st.inBytes
		s.outBytes += st.outBytes
		s.elapsed += st.elapsed
		ratios = append(ratios, st.ratio())
		qualities = append(qualities, float64(st.quality))
	}
	if len(ratios) == 0 {
		return s
	}

	s.meanRatio, s.stdRatio = stat.MeanStdDev(ratios, nil)
	if len(ratios) < 2 {
		s.stdRatio = 0
	}
	slices.Sort(ratios)
	s.medianRatio = stat.Quantile(0.5, stat.Empirical, ratios, nil)
	s.meanQuality = stat.Mean(qualities, nil)
	return s
}

func (s summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Files:        %d (%d failed)\n", s.files, s.failed)
	fmt.Fprintf(&b, "Input:        %s\n", humanBytes(s.inBytes))
	fmt.Fprintf(&b, "Output:       %s\n", humanBytes(s.outBytes))
	if s.inBytes > 0 {
		fmt.Fprintf(&b, "Saved:        %.1f%%\n", 100*(1-float64(s.outBytes)/float64(s.inBytes)))
	}
	fmt.Fprintf(&b, "Ratio:        mean %.3f, median %.3f, stddev %.3f\n", s.meanRatio, s.medianRatio, s.stdRatio)
	fmt.Fprintf(&b, "Quality:      mean %.1f\n", s.meanQuality)
	fmt.Fprintf(&b, "CPU time:     %s\n", s.elapsed.Round(time.Millisecond))
	return b.String()
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func runCompress(ctx context.Context, b *bridge.Bridge, args []string, opts options, log *zap.Logger) error {
	paths, err := collectInputs(args, opts.suffix)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no images found")
	}
	log.Info("compressing",
		zap.Int("files", len(paths)),
		zap.Int("workers", opts.workers),
	)

	start := time.Now()
	var stats []fileStat
	if isTerminal() {
		stats, err = compressWithProgress(ctx, b, paths, opts)
	} else {
		stats, err = compressAll(ctx, b, paths, opts, func(st fileStat) {
			fmt.Println(formatStat(st))
		})
	}
	if err != nil {
		return err
	}

	for _, st := range stats {
		if st.err != nil {
			log.Warn("compression failed", zap.String("file", st.path), zap.Error(st.err))
		}
	}

	fmt.Print(summarize(stats))
	fmt.Printf("Wall time:    %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func formatStat(st fileStat) string {
	if st.err != nil {
		return fmt.Sprintf("FAIL %s: %v", st.path, st.err)
	}
	return fmt.Sprintf("ok   %s -> %s  %s -> %s  %d colours  q=%d  %s",
		st.path, st.out, humanBytes(st.inBytes), humanBytes(st.outBytes),
		st.colors, st.quality, st.elapsed.Round(time.Millisecond))
}
