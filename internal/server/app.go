// Package server wires configuration, storage, services and the router into
// one App that the Lambda, HTTP and CLI entry points share.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/events"
	"github.com/dmitrijs2005/userreg/internal/cryptox"
	"github.com/dmitrijs2005/userreg/internal/logging"
	"github.com/dmitrijs2005/userreg/internal/server/api"
	"github.com/dmitrijs2005/userreg/internal/server/auth"
	"github.com/dmitrijs2005/userreg/internal/server/config"
	"github.com/dmitrijs2005/userreg/internal/server/httpserver"
	"github.com/dmitrijs2005/userreg/internal/server/lambdax"
	"github.com/dmitrijs2005/userreg/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/userreg/internal/server/router"
	"github.com/dmitrijs2005/userreg/internal/server/secrets"
	"github.com/dmitrijs2005/userreg/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	flush    func()
	repos    repomanager.RepositoryManager
	router   *router.Router
	registry *prometheus.Registry
}

// NewApp builds everything once per process. A missing signing secret, an
// unknown store backend or an unreachable store is an error here, before
// any request is served. Logs go to logOut.
func NewApp(ctx context.Context, c *config.Config, logOut io.Writer) (*App, error) {
	logger, flush, err := logging.New(logging.Options{
		Backend: c.LogBackend,
		Level:   c.LogLevel,
		Format:  c.LogFormat,
		Output:  logOut,
	})
	if err != nil {
		return nil, err
	}

	secret, err := secrets.Resolve(ctx, c)
	if err != nil {
		flush()
		return nil, fmt.Errorf("resolve signing secret: %w", err)
	}
	c.SecretKey = secret

	if err := c.Validate(); err != nil {
		flush()
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	hasher, err := cryptox.NewScryptHasher(cryptox.ScryptParams{
		LogN:    uint8(c.PasswordHashCost),
		R:       8,
		P:       1,
		SaltLen: 16,
		KeyLen:  32,
	})
	if err != nil {
		flush()
		return nil, err
	}

	repos, err := repomanager.New(ctx, c)
	if err != nil {
		flush()
		return nil, fmt.Errorf("store init error: %w", err)
	}

	issuer := auth.NewIssuer([]byte(c.SecretKey), c.TokenValidityDuration)

	authSvc, err := services.NewAuthService(ctx, repos.Users(), hasher, issuer, logger)
	if err != nil {
		_ = repos.Close()
		flush()
		return nil, err
	}
	regSvc := services.NewRegistrationService(repos.Users(), hasher, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := router.New(logger, registry)
	api.NewHandlers(authSvc, regSvc, logger).Routes(r)

	logger.Info(ctx, "app initialized", "store", c.StoreBackend, "token_validity", c.TokenValidityDuration)

	return &App{
		config:   c,
		logger:   logger,
		flush:    flush,
		repos:    repos,
		router:   r,
		registry: registry,
	}, nil
}

// Dispatch serves one event.
func (app *App) Dispatch(ctx context.Context, ev router.Event) router.Response {
	return app.router.Dispatch(ctx, ev)
}

// LambdaHandler is the function handed to lambda.Start.
func (app *App) LambdaHandler() func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return lambdax.Handler(app, app.logger)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP until ctx is canceled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	s := httpserver.New(app, app.logger, httpserver.Options{
		Addr:           app.config.EndpointAddrHTTP,
		RequestTimeout: app.config.RequestTimeout,
		RateLimitRPS:   app.config.RateLimitRPS,
		RateLimitBurst: app.config.RateLimitBurst,
		Gatherer:       app.registry,
	})

	return s.Run(ctx)
}

// Close releases the store and flushes buffered logs.
func (app *App) Close() error {
	err := app.repos.Close()
	app.flush()
	return err
}
