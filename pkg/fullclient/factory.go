package fullclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/fullnode/pkg/bootstrap"
	"github.com/DeBrosOfficial/fullnode/pkg/chainspec"
	"github.com/DeBrosOfficial/fullnode/pkg/config"
	"github.com/DeBrosOfficial/fullnode/pkg/errors"
	"github.com/DeBrosOfficial/fullnode/pkg/logging"
	"github.com/DeBrosOfficial/fullnode/pkg/node"
	"github.com/DeBrosOfficial/fullnode/pkg/tasks"
)

// Service is a running node.
type Service interface {
	Stop(ctx context.Context) error
}

// ServiceConstructor starts a node from a configuration. authority requests
// block production.
type ServiceConstructor func(ctx context.Context, cfg *config.Configuration, env *bootstrap.Environment, authority bool) (Service, error)

// Factory creates full clients.
//
// Two clients on the same base path corrupt each other's state; callers must
// not do that.
type Factory struct {
	Guard      *bootstrap.Guard
	Assembler  *Assembler
	NewService ServiceConstructor
	// Tasks runs the node's background work. Nil creates a group bound to
	// the context passed to CreateFullClient.
	Tasks tasks.Executor
}

// CreateFullClient initializes the process once, assembles the
// configuration and starts the node service. Service failures are returned
// as *errors.ServiceError and never retried.
func (f *Factory) CreateFullClient(ctx context.Context, spec chainspec.ChainSpec, basePath config.BasePath) (Service, error) {
	guard := f.Guard
	if guard == nil {
		guard = bootstrap.Default
	}
	env := guard.Ensure(spec)

	logger := logging.NewNopLogger()
	if env != nil && env.Logger != nil {
		logger = env.Logger
	}

	exec := f.Tasks
	if exec == nil {
		exec = tasks.NewGroup(ctx, logger.Logger)
	}

	assembler := f.Assembler
	if assembler == nil {
		assembler = NewAssembler()
	}
	cfg, err := assembler.CreateConfiguration(basePath, spec, exec)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create configuration")
	}
	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, errors.NewConfigError(problems)
	}

	logger.ComponentInfo(logging.ComponentNode, "Starting full client",
		zap.String("chain", spec.ID()),
		zap.String("node_name", cfg.Network.NodeName),
		zap.String("client_id", cfg.Network.ClientID),
		zap.String("base_path", basePath.Path()),
	)

	if f.NewService == nil {
		return nil, errors.NewServiceError(ServiceName, "no node service constructor", nil)
	}
	svc, err := f.NewService(ctx, cfg, env, NodeRole.IsAuthority())
	if err != nil {
		return nil, errors.NewServiceError(ServiceName, fmt.Sprintf("failed to start node for chain %s", spec.ID()), err)
	}
	return svc, nil
}

// CreateFullClient starts the reference node service using the process-wide
// bootstrap guard.
func CreateFullClient(ctx context.Context, spec chainspec.ChainSpec, basePath config.BasePath) (Service, error) {
	f := &Factory{
		Guard:      bootstrap.Default,
		NewService: NewNodeService,
	}
	return f.CreateFullClient(ctx, spec, basePath)
}

// NewNodeService adapts node.NewFull to ServiceConstructor.
func NewNodeService(ctx context.Context, cfg *config.Configuration, env *bootstrap.Environment, authority bool) (Service, error) {
	n, err := node.NewFull(ctx, cfg, env, authority)
	if err != nil {
		return nil, err
	}
	return n, nil
}
