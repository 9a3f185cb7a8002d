package host

import (
	"context"
	stderrors "errors"
	"io"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	"github.com/wippyai/liqbridge/bridge"
	"github.com/wippyai/liqbridge/errors"
)

// Runner hosts guest modules that import the bridge and WASI preview1.
type Runner struct {
	runtime wazero.Runtime
	bridge  *bridge.Bridge
}

// NewRunner creates a runtime with WASI and the bridge host module.
func NewRunner(ctx context.Context, b *bridge.Bridge, cfg Config) (*Runner, error) {
	r := NewRuntime(ctx, cfg)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		_ = r.Close(ctx)
		return nil, errors.Wrap(errors.PhaseHost, errors.KindEngine, err, "instantiate wasi")
	}
	if _, err := Instantiate(ctx, r, b, cfg); err != nil {
		_ = r.Close(ctx)
		return nil, err
	}

	return &Runner{runtime: r, bridge: b}, nil
}

// Bridge returns the bridge guests of this runner call into.
func (r *Runner) Bridge() *bridge.Bridge {
	return r.bridge
}

// Runtime returns the underlying wazero runtime.
func (r *Runner) Runtime() wazero.Runtime {
	return r.runtime
}

// RunOptions configures a guest command run.
type RunOptions struct {
	Args   []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Load instantiates wasm under name without running any start function.
func (r *Runner) Load(ctx context.Context, wasm []byte, name string) (api.Module, error) {
	compiled, err := r.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("compile guest", err)
	}
	mod, err := r.runtime.InstantiateModule(ctx, compiled,
		wazero.NewModuleConfig().WithName(name).WithStartFunctions())
	if err != nil {
		return nil, errors.Load("instantiate guest", err)
	}
	return mod, nil
}

// Run executes a WASI command module to completion and returns its exit code.
func (r *Runner) Run(ctx context.Context, wasm []byte, opts RunOptions) (uint32, error) {
	compiled, err := r.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return 0, errors.Load("compile guest", err)
	}
	defer compiled.Close(ctx)

	modCfg := wazero.NewModuleConfig().
		WithName("").
		WithArgs(opts.Args...)
	if opts.Stdin != nil {
		modCfg = modCfg.WithStdin(opts.Stdin)
	}
	if opts.Stdout != nil {
		modCfg = modCfg.WithStdout(opts.Stdout)
	}
	if opts.Stderr != nil {
		modCfg = modCfg.WithStderr(opts.Stderr)
	}

	mod, err := r.runtime.InstantiateModule(ctx, compiled, modCfg)
	if mod != nil {
		defer mod.Close(ctx)
	}
	if err != nil {
		var exit *sys.ExitError
		if stderrors.As(err, &exit) {
			Logger().Debug("guest exited", zap.Uint32("code", exit.ExitCode()))
			return exit.ExitCode(), nil
		}
		return 0, errors.Load("run guest", err)
	}
	return 0, nil
}

// Close releases the runtime and every module in it. Bridge objects created
// by guests stay live until the bridge itself is closed.
func (r *Runner) Close(ctx context.Context) error {
	return r.runtime.Close(ctx)
}
