package fullclient

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeBrosOfficial/fullnode/pkg/bootstrap"
	"github.com/DeBrosOfficial/fullnode/pkg/chainspec"
	"github.com/DeBrosOfficial/fullnode/pkg/config"
	"github.com/DeBrosOfficial/fullnode/pkg/errors"
	"github.com/DeBrosOfficial/fullnode/pkg/logging"
)

type fakeService struct {
	cfg       *config.Configuration
	authority bool
	stopped   bool
}

func (s *fakeService) Stop(context.Context) error {
	s.stopped = true
	return nil
}

func countingGuard(calls *atomic.Int32) *bootstrap.Guard {
	return bootstrap.NewGuard(func(chainspec.ChainSpec) *bootstrap.Environment {
		calls.Add(1)
		return &bootstrap.Environment{Logger: logging.NewNopLogger()}
	})
}

func TestFactoryCreatesService(t *testing.T) {
	var calls atomic.Int32
	var got *fakeService
	f := &Factory{
		Guard:     countingGuard(&calls),
		Assembler: testAssembler(nil),
		NewService: func(ctx context.Context, cfg *config.Configuration, env *bootstrap.Environment, authority bool) (Service, error) {
			require.NotNil(t, env)
			got = &fakeService{cfg: cfg, authority: authority}
			return got, nil
		},
	}

	svc, err := f.CreateFullClient(context.Background(), geminiSpec(), config.BasePath(t.TempDir()))
	require.NoError(t, err)
	require.Same(t, got, svc)

	assert.True(t, got.authority)
	assert.Equal(t, "subspace_gemini_2a", got.cfg.ChainSpec.ID())
	assert.NotNil(t, got.cfg.Tasks)
}

func TestFactoryBootstrapsOnce(t *testing.T) {
	var calls atomic.Int32
	f := &Factory{
		Guard:     countingGuard(&calls),
		Assembler: testAssembler(nil),
		NewService: func(context.Context, *config.Configuration, *bootstrap.Environment, bool) (Service, error) {
			return &fakeService{}, nil
		},
	}

	for i := 0; i < 3; i++ {
		_, err := f.CreateFullClient(context.Background(), geminiSpec(), config.BasePath(t.TempDir()))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestFactoryWrapsServiceFailure(t *testing.T) {
	var calls atomic.Int32
	cause := stderrors.New("address already in use")
	attempts := 0
	f := &Factory{
		Guard:     countingGuard(&calls),
		Assembler: testAssembler(nil),
		NewService: func(context.Context, *config.Configuration, *bootstrap.Environment, bool) (Service, error) {
			attempts++
			return nil, cause
		},
	}

	svc, err := f.CreateFullClient(context.Background(), geminiSpec(), config.BasePath(t.TempDir()))
	require.Error(t, err)
	assert.Nil(t, svc)
	assert.Equal(t, 1, attempts)

	var serviceErr *errors.ServiceError
	require.True(t, stderrors.As(err, &serviceErr))
	assert.Equal(t, ServiceName, serviceErr.Service)
	assert.ErrorIs(t, err, cause)
	assert.True(t, errors.IsServiceError(err))
}

func TestFactoryRejectsInvalidConfiguration(t *testing.T) {
	var calls atomic.Int32
	started := false
	f := &Factory{
		Guard:     countingGuard(&calls),
		Assembler: testAssembler(nil),
		NewService: func(context.Context, *config.Configuration, *bootstrap.Environment, bool) (Service, error) {
			started = true
			return &fakeService{}, nil
		},
	}

	spec := geminiSpec()
	spec.Boot = []string{"/ip4/10.0.0.1/tcp/30333"}

	_, err := f.CreateFullClient(context.Background(), spec, config.BasePath(t.TempDir()))
	require.Error(t, err)
	assert.False(t, started)

	var cfgErr *errors.ConfigError
	require.True(t, stderrors.As(err, &cfgErr))
	assert.Len(t, cfgErr.Problems, 1)
	assert.True(t, errors.IsValidation(err))
}

func TestFactoryWithoutConstructor(t *testing.T) {
	var calls atomic.Int32
	f := &Factory{Guard: countingGuard(&calls), Assembler: testAssembler(nil)}

	_, err := f.CreateFullClient(context.Background(), geminiSpec(), config.BasePath(t.TempDir()))
	require.Error(t, err)
	assert.True(t, errors.IsServiceError(err))
}
