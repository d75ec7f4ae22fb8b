// Package executor runs runtime calls according to the node's execution
// policy: natively, in the wasm virtual machine, or both.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/DeBrosOfficial/fullnode/pkg/config"
)

var (
	// ErrMethodNotFound is returned when neither native code nor the runtime
	// exports the requested method.
	ErrMethodNotFound = errors.New("runtime method not found")
	// ErrNativeUnavailable is returned when a strategy requires native code
	// that is not present.
	ErrNativeUnavailable = errors.New("native runtime unavailable")
)

// maxMemoryPages is the wasm32 address space limit in 64KiB pages.
const maxMemoryPages = 65536

// Call is a single runtime invocation.
type Call struct {
	Context config.ExecutionContext
	// Code is the on-chain runtime.
	Code []byte
	// Version is the on-chain runtime version when known.
	Version *NativeVersion
	Method  string
	Input   []byte
}

// Executor handles runtime execution.
type Executor struct {
	runtime    wazero.Runtime
	cache      *ModuleCache
	instances  *semaphore.Weighted
	native     Dispatch
	strategies config.ExecutionStrategies
	logger     *zap.Logger
}

// New creates an Executor for the given execution policy. native may be nil,
// in which case every call runs in the virtual machine.
func New(ctx context.Context, cfg config.ExecutionConfig, native Dispatch, logger *zap.Logger) (*Executor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRuntimeInstances < 1 {
		return nil, fmt.Errorf("max runtime instances must be >= 1; got %d", cfg.MaxRuntimeInstances)
	}

	var rc wazero.RuntimeConfig
	switch cfg.WasmMethod {
	case config.WasmCompiled:
		// Falls back to the interpreter where no compiler backend exists
		rc = wazero.NewRuntimeConfig()
	case config.WasmInterpreted:
		rc = wazero.NewRuntimeConfigInterpreter()
	default:
		return nil, fmt.Errorf("unknown wasm execution method %q", cfg.WasmMethod)
	}
	if cfg.DefaultHeapPages > 0 {
		pages := cfg.DefaultHeapPages
		if pages > maxMemoryPages {
			pages = maxMemoryPages
		}
		rc = rc.WithMemoryLimitPages(uint32(pages))
	}
	rc = rc.WithCloseOnContextDone(true)

	cache, err := NewModuleCache(cfg.RuntimeCacheSize, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("Runtime executor ready",
		zap.String("wasm_method", string(cfg.WasmMethod)),
		zap.Int("max_instances", cfg.MaxRuntimeInstances),
		zap.Int("runtime_cache_size", cfg.RuntimeCacheSize),
		zap.Bool("native", native != nil),
	)

	return &Executor{
		runtime:    wazero.NewRuntimeWithConfig(ctx, rc),
		cache:      cache,
		instances:  semaphore.NewWeighted(int64(cfg.MaxRuntimeInstances)),
		native:     native,
		strategies: cfg.Strategies,
		logger:     logger,
	}, nil
}

// Execute runs call using the strategy configured for its context.
func (e *Executor) Execute(ctx context.Context, call Call) ([]byte, error) {
	strategy := e.strategies.ForContext(call.Context)

	switch strategy {
	case config.AlwaysWasm:
		return e.CallWasm(ctx, call.Code, call.Method, call.Input)

	case config.NativeWhenPossible:
		if e.canCallNatively(call.Version) {
			if out, ok := e.native.Dispatch(call.Method, call.Input); ok {
				return out, nil
			}
		}
		return e.CallWasm(ctx, call.Code, call.Method, call.Input)

	case config.NativeElseWasm:
		if e.native != nil {
			if out, ok := e.native.Dispatch(call.Method, call.Input); ok {
				return out, nil
			}
			e.logger.Debug("Native call failed, falling back to wasm", zap.String("method", call.Method))
		}
		return e.CallWasm(ctx, call.Code, call.Method, call.Input)

	case config.Both:
		if e.native == nil {
			return nil, ErrNativeUnavailable
		}
		wasmOut, err := e.CallWasm(ctx, call.Code, call.Method, call.Input)
		if err != nil {
			return nil, err
		}
		nativeOut, ok := e.native.Dispatch(call.Method, call.Input)
		if !ok || !bytes.Equal(nativeOut, wasmOut) {
			e.logger.Error("Consensus error: native and wasm results differ",
				zap.String("method", call.Method),
				zap.String("context", string(call.Context)),
				zap.Bool("native_ok", ok),
			)
		}
		return wasmOut, nil
	}

	return nil, fmt.Errorf("unknown execution strategy %q", strategy)
}

func (e *Executor) canCallNatively(onchain *NativeVersion) bool {
	if e.native == nil || onchain == nil {
		return false
	}
	return e.native.NativeVersion().CanCallWith(*onchain)
}

// CallWasm instantiates code and calls method(ptr, len) with input. The
// export must return the output location packed as ptr | len<<32.
func (e *Executor) CallWasm(ctx context.Context, code []byte, method string, input []byte) ([]byte, error) {
	compiled, release, err := e.compile(ctx, code)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := e.instances.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for runtime instance: %w", err)
	}
	defer e.instances.Release(1)

	instance, err := e.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate runtime: %w", err)
	}
	defer instance.Close(ctx)

	return e.callExport(ctx, instance, method, input)
}

// Prepare compiles code ahead of its first call and returns its hash.
func (e *Executor) Prepare(ctx context.Context, code []byte) (CodeHash, error) {
	_, release, err := e.compile(ctx, code)
	if err != nil {
		return CodeHash{}, err
	}
	release()
	return HashCode(code), nil
}

// compile returns the compiled module for code, held until release is run.
func (e *Executor) compile(ctx context.Context, code []byte) (wazero.CompiledModule, func(), error) {
	hash := HashCode(code)
	if compiled, release, ok := e.cache.Acquire(hash); ok {
		return compiled, release, nil
	}

	compiled, err := e.runtime.CompileModule(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compile runtime %s: %w", hash, err)
	}
	compiled, release := e.cache.Add(hash, compiled)
	return compiled, release, nil
}

func (e *Executor) callExport(ctx context.Context, instance api.Module, method string, input []byte) ([]byte, error) {
	fn := instance.ExportedFunction(method)
	if fn == nil {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, method)
	}

	memory := instance.ExportedMemory("memory")
	if memory == nil {
		return nil, fmt.Errorf("runtime does not export 'memory'")
	}

	var inputPtr uint32
	inputLen := uint32(len(input))

	if len(input) > 0 {
		// Without an allocator the input goes at the start of linear memory
		if malloc := instance.ExportedFunction("malloc"); malloc != nil {
			results, err := malloc.Call(ctx, uint64(inputLen))
			if err != nil {
				return nil, fmt.Errorf("malloc failed: %w", err)
			}
			inputPtr = uint32(results[0])
		}
		if !memory.Write(inputPtr, input) {
			return nil, fmt.Errorf("failed to write input to runtime memory")
		}
	}

	results, err := fn.Call(ctx, uint64(inputPtr), uint64(inputLen))
	if err != nil {
		return nil, fmt.Errorf("runtime call %s failed: %w", method, err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	outputPtr := uint32(results[0] & 0xFFFFFFFF)
	outputLen := uint32(results[0] >> 32)
	if outputLen == 0 {
		return nil, nil
	}

	output, ok := memory.Read(outputPtr, outputLen)
	if !ok {
		return nil, fmt.Errorf("failed to read output from runtime memory")
	}

	// Memory goes away with the instance
	out := make([]byte, len(output))
	copy(out, output)
	return out, nil
}

// NativeVersion returns the native runtime version, if any.
func (e *Executor) NativeVersion() (NativeVersion, bool) {
	if e.native == nil {
		return NativeVersion{}, false
	}
	return e.native.NativeVersion(), true
}

// CachedModules returns the number of compiled runtimes held.
func (e *Executor) CachedModules() int {
	return e.cache.Len()
}

// Close releases the cache and the virtual machine.
func (e *Executor) Close(ctx context.Context) error {
	e.cache.Purge()
	return e.runtime.Close(ctx)
}
