// Package monolith provides the application container and module interface.
package monolith

import (
	"context"
	"errors"

	"github.com/fd1az/triangular-arbitrage/internal/asset"
	"github.com/fd1az/triangular-arbitrage/internal/config"
	"github.com/fd1az/triangular-arbitrage/internal/di"
	"github.com/fd1az/triangular-arbitrage/internal/health"
	"github.com/fd1az/triangular-arbitrage/internal/logger"
)

// Monolith is the shared infrastructure handed to every module at startup.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	Symbols() *asset.Registry
	Health() *health.Server
	Services() di.ServiceRegistry
	// OnShutdown registers a cleanup hook, run in reverse registration order by Close.
	OnShutdown(fn func(context.Context) error)
}

// Module is a bounded context that registers services and starts up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

type app struct {
	config    *config.Config
	logger    logger.LoggerInterface
	symbols   *asset.Registry
	health    *health.Server
	container di.Container
	shutdown  []func(context.Context) error
}

// New creates the container and registers the global services.
func New(cfg *config.Config, log logger.LoggerInterface, hs *health.Server) *app {
	symbols := asset.NewRegistry()
	container := di.NewContainer()

	container.Register("config", cfg)
	container.Register("logger", log)
	container.Register("symbols", symbols)
	container.Register("health", hs)

	return &app{
		config:    cfg,
		logger:    log,
		symbols:   symbols,
		health:    hs,
		container: container,
	}
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) Symbols() *asset.Registry {
	return a.symbols
}

func (a *app) Health() *health.Server {
	return a.health
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

// Container returns the DI container for module registration.
func (a *app) Container() di.Container {
	return a.container
}

func (a *app) OnShutdown(fn func(context.Context) error) {
	a.shutdown = append(a.shutdown, fn)
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts modules in order.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close runs shutdown hooks last-in first-out and joins their errors.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.shutdown) - 1; i >= 0; i-- {
		if err := a.shutdown[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.shutdown = nil
	return errors.Join(errs...)
}
