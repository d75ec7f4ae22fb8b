package tasks

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Executor runs named background tasks on behalf of the node service.
// It is the caller-supplied execution context a configuration is built with.
type Executor interface {
	// Spawn starts fn in the background. fn must return when ctx is cancelled.
	Spawn(name string, fn func(ctx context.Context) error)
}

// Group is an Executor backed by an errgroup. The first task to fail cancels
// the shared context; Wait returns that error.
type Group struct {
	ctx    context.Context
	group  *errgroup.Group
	logger *zap.Logger

	mu    sync.Mutex
	names []string
}

// NewGroup creates a task group bound to parent.
func NewGroup(parent context.Context, logger *zap.Logger) *Group {
	if logger == nil {
		logger = zap.NewNop()
	}
	g, ctx := errgroup.WithContext(parent)
	return &Group{ctx: ctx, group: g, logger: logger}
}

// Spawn implements Executor.
func (g *Group) Spawn(name string, fn func(ctx context.Context) error) {
	g.mu.Lock()
	g.names = append(g.names, name)
	g.mu.Unlock()

	g.logger.Debug("Spawning task", zap.String("task", name))
	g.group.Go(func() error {
		if err := fn(g.ctx); err != nil {
			g.logger.Warn("Task exited with error", zap.String("task", name), zap.Error(err))
			return fmt.Errorf("task %s: %w", name, err)
		}
		g.logger.Debug("Task finished", zap.String("task", name))
		return nil
	})
}

// Context returns the context shared by all spawned tasks.
func (g *Group) Context() context.Context {
	return g.ctx
}

// Names returns the names of all tasks spawned so far.
func (g *Group) Names() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// Wait blocks until every spawned task has returned.
func (g *Group) Wait() error {
	return g.group.Wait()
}
