package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/liqbridge/bridge"
	"github.com/wippyai/liqbridge/engine"
	"github.com/wippyai/liqbridge/host"
	"github.com/wippyai/liqbridge/liq"
)

func main() {
	var (
		colors      = flag.Int("colors", 256, "Maximum palette size (1-256)")
		qualityMin  = flag.Int("quality-min", 70, "Minimum acceptable quality (0-100)")
		qualityMax  = flag.Int("quality-max", 90, "Target quality (0-100)")
		speed       = flag.Int("speed", liq.DefaultSpeed, "Speed 1 (best) to 11 (fastest)")
		posterize   = flag.Int("posterize", 0, "Minimum posterization bits (0-4)")
		dither      = flag.Float64("dither", 1.0, "Dithering level (0.0-1.0)")
		workers     = flag.Int("workers", runtime.GOMAXPROCS(0), "Parallel compression workers")
		maxWidth    = flag.Int("max-width", 0, "Downscale wider images before quantizing (0 disables)")
		outDir      = flag.String("out", "", "Output directory (default: next to each input)")
		suffix      = flag.String("suffix", "-fs8.png", "Output file name suffix")
		analyze     = flag.Bool("analyze", false, "Print a compression analysis instead of writing files")
		interactive = flag.Bool("i", false, "Interactive bridge explorer with TUI")
		wasmFile    = flag.String("wasm", "", "Run a wasm guest that imports the \"liq\" module")
		argv        = flag.String("argv", "", "Guest CLI arguments (comma-separated)")
		logLevel    = flag.String("log-level", envOr("LIQ_LOG_LEVEL", "warn"), "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	log, err := newLogger(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	liq.SetLogger(log.Named("liq"))
	engine.SetLogger(log.Named("engine"))
	host.SetLogger(log.Named("host"))

	opts := options{
		colors:     *colors,
		qualityMin: *qualityMin,
		qualityMax: *qualityMax,
		speed:      *speed,
		posterize:  *posterize,
		dither:     float32(*dither),
		workers:    max(*workers, 1),
		maxWidth:   *maxWidth,
		outDir:     *outDir,
		suffix:     *suffix,
	}

	ctx := context.Background()
	b := bridge.New(bridge.DefaultConfig())
	defer b.Close()

	switch {
	case *wasmFile != "":
		err = runGuest(ctx, b, *wasmFile, *argv)
	case *interactive:
		err = runExplorer(b, flag.Arg(0))
	case flag.NArg() == 0:
		usage()
		os.Exit(1)
	case *analyze:
		err = runAnalyze(b, flag.Args(), opts)
	default:
		err = runCompress(ctx, b, flag.Args(), opts, log)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: liqquant [flags] <image|dir>...")
	fmt.Fprintln(os.Stderr, "       liqquant -analyze <image>...")
	fmt.Fprintln(os.Stderr, "       liqquant -i [image]  (interactive mode)")
	fmt.Fprintln(os.Stderr, "       liqquant -wasm <guest.wasm> [-argv a,b]")
	flag.PrintDefaults()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewDevelopmentConfig()
	if lvl > zapcore.DebugLevel {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
