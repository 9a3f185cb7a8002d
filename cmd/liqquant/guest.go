package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wippyai/liqbridge/bridge"
	"github.com/wippyai/liqbridge/host"
)

// runGuest runs a WASI command module whose "liq" imports are served by b.
func runGuest(ctx context.Context, b *bridge.Bridge, path, argv string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	r, err := host.NewRunner(ctx, b, host.DefaultConfig())
	if err != nil {
		return err
	}
	defer r.Close(ctx)

	args := []string{filepath.Base(path)}
	if argv != "" {
		args = append(args, strings.Split(argv, ",")...)
	}

	code, err := r.Run(ctx, data, host.RunOptions{
		Args:   args,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	if err != nil {
		return err
	}

	stats := b.Session().Stats()
	if stats.Attributes+stats.Images+stats.Results > 0 {
		fmt.Fprintf(os.Stderr, "guest leaked %d attributes, %d images, %d results\n",
			stats.Attributes, stats.Images, stats.Results)
	}
	if code != 0 {
		return fmt.Errorf("guest exited with code %d", code)
	}
	return nil
}
