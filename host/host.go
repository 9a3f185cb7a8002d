package host

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/liqbridge"
	"github.com/wippyai/liqbridge/bridge"
	"github.com/wippyai/liqbridge/errors"
)

// DefaultModuleName is the import module guests use for bridge functions.
const DefaultModuleName = "liq"

// Config holds configuration for the host module and its runtime.
type Config struct {
	// ModuleName is the import module name. Empty means DefaultModuleName.
	ModuleName string

	// MemoryLimitPages caps guest memory in 64KB pages. 0 means the wazero
	// default (65536 pages = 4GB).
	MemoryLimitPages uint32
}

// DefaultConfig returns the default host configuration.
func DefaultConfig() Config {
	return Config{ModuleName: DefaultModuleName}
}

func (c Config) moduleName() string {
	if c.ModuleName == "" {
		return DefaultModuleName
	}
	return c.ModuleName
}

// NewRuntime creates a wazero runtime honouring the memory limit.
func NewRuntime(ctx context.Context, cfg Config) wazero.Runtime {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	return wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
}

// Instantiate registers every function of b's catalog as a host module in r.
// Buffer arguments are resolved against the calling module's memory.
func Instantiate(ctx context.Context, r wazero.Runtime, b *bridge.Bridge, cfg Config) (api.Module, error) {
	name := cfg.moduleName()
	if r.Module(name) != nil {
		return nil, errors.New(errors.PhaseHost, errors.KindInvalidState).
			Op("instantiate").
			Detail("module %q already instantiated", name).
			Build()
	}

	fns := b.Functions()
	builder := r.NewHostModuleBuilder(name)
	for _, fn := range fns {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(handler(fn), valueTypes(fn.Params), valueTypes(fn.Results)).
			WithName(fn.Name).
			Export(fn.Name)
	}

	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHost, errors.KindEngine, err, "instantiate host module")
	}
	Logger().Debug("host module instantiated",
		zap.String("module", name),
		zap.Int("functions", len(fns)),
	)
	return mod, nil
}

func handler(fn bridge.Function) api.GoModuleFunc {
	call, name := fn.Call, fn.Name
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		call(ctx, memoryOf(mod, name), stack)
	}
}

func valueTypes(ts []liqbridge.ValueType) []api.ValueType {
	if len(ts) == 0 {
		return nil
	}
	out := make([]api.ValueType, len(ts))
	for i, t := range ts {
		out[i] = api.ValueType(t)
	}
	return out
}
