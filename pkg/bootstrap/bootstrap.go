// Package bootstrap performs the process-wide setup a node needs exactly
// once, no matter how many clients the process creates.
package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/fullnode/pkg/chainspec"
	"github.com/DeBrosOfficial/fullnode/pkg/fdlimit"
	"github.com/DeBrosOfficial/fullnode/pkg/logging"
	"github.com/DeBrosOfficial/fullnode/pkg/panics"
	"github.com/DeBrosOfficial/fullnode/pkg/ss58"
	"github.com/DeBrosOfficial/fullnode/pkg/version"
)

const (
	// SupportURL is where panic reports point users.
	SupportURL = "https://discord.gg/vhKF9w3x"
	// LogLevel is the verbosity the process logger starts with.
	LogLevel = "info"
	// EnvFile is loaded from the working directory when present.
	EnvFile = ".env"
)

// Environment is the process state established by bootstrap.
type Environment struct {
	Logger        *logging.ColoredLogger
	Panics        *panics.Handler
	AddressFormat ss58.Format
	FDLimit       uint64
}

// Guard runs initialization at most once. Concurrent callers block until the
// first one finishes and then all observe the same Environment.
type Guard struct {
	done atomic.Bool
	mu   sync.Mutex
	env  *Environment

	init func(spec chainspec.ChainSpec) *Environment
}

// Default is the process-wide guard.
var Default = &Guard{}

// NewGuard returns a guard that runs init instead of the process setup.
// Embedders that manage logging and limits themselves use it.
func NewGuard(init func(spec chainspec.ChainSpec) *Environment) *Guard {
	return &Guard{init: init}
}

// Ensure initializes the process on first use and returns the Environment.
// Later calls ignore spec.
func (g *Guard) Ensure(spec chainspec.ChainSpec) *Environment {
	if g.done.Load() {
		return g.env
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done.Load() {
		return g.env
	}

	init := g.init
	if init == nil {
		init = initialize
	}
	g.env = init(spec)
	g.done.Store(true)
	return g.env
}

// Done reports whether initialization has completed.
func (g *Guard) Done() bool {
	return g.done.Load()
}

// initialize performs every step in order. Invalid chain properties and a
// failing logger are fatal.
func initialize(spec chainspec.ChainSpec) *Environment {
	envErr := loadEnvFile(EnvFile)

	format := applyAddressFormat(spec)

	handler := panics.New(SupportURL, version.Full())

	logger, err := logging.Init(LogLevel)
	if err != nil {
		panic(fmt.Sprintf("logger initialization must not fail: %v", err))
	}
	if envErr != nil {
		logger.ComponentWarn(logging.ComponentBootstrap, "Failed to load environment file",
			zap.String("file", EnvFile), zap.Error(envErr))
	}

	limit := raiseFDLimit(logger)

	logger.ComponentInfo(logging.ComponentBootstrap, "Process initialized",
		zap.String("version", version.Full()),
		zap.Uint16("ss58_format", uint16(format)),
		zap.Uint64("fd_limit", limit),
	)

	return &Environment{
		Logger:        logger,
		Panics:        handler,
		AddressFormat: format,
		FDLimit:       limit,
	}
}

// loadEnvFile loads variables from path without overriding ones already set.
// A missing file is not an error.
func loadEnvFile(path string) error {
	err := gotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// applyAddressFormat sets the default address format from the chain's
// ss58Format property and returns the format in effect.
func applyAddressFormat(spec chainspec.ChainSpec) ss58.Format {
	if spec == nil {
		return ss58.Default()
	}
	v, ok := spec.Property(ss58.PropertyKey)
	if !ok {
		return ss58.Default()
	}
	format, err := ss58.FormatFromProperty(v)
	if err != nil {
		panic(fmt.Sprintf("chain spec property %q: %v", ss58.PropertyKey, err))
	}
	ss58.SetDefault(format)
	return format
}

func raiseFDLimit(logger *logging.ColoredLogger) uint64 {
	limit, err := fdlimit.Raise()
	if err != nil {
		logger.ComponentWarn(logging.ComponentBootstrap, "Failed to raise open file descriptor limit", zap.Error(err))
		return 0
	}
	if limit < fdlimit.Recommended {
		logger.ComponentWarn(logging.ComponentBootstrap, "Low open file descriptor limit configured for the process",
			zap.Uint64("current", limit),
			zap.Uint64("recommended", fdlimit.Recommended),
		)
	}
	return limit
}
