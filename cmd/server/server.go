package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-booking/internal/adapter/grpc/server"
	"github.com/seu-repo/sigec-booking/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/sigec-booking/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/sigec-booking/internal/service/health"
	"github.com/seu-repo/sigec-booking/internal/service/reservation"
)

const shutdownTimeout = 30 * time.Second

// httpApp builds the Fiber application with every route registered
func (a *application) httpApp() (*fiber.App, error) {
	if a.verifier == nil {
		return nil, errors.New("jwt.secret is required to serve the API")
	}

	app := fiber.New(fiber.Config{
		AppName:               a.cfg.App.Name,
		ReadTimeout:           a.cfg.HTTP.ReadTimeout,
		WriteTimeout:          a.cfg.HTTP.WriteTimeout,
		IdleTimeout:           a.cfg.HTTP.IdleTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(a.log),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(a.log))
	if a.cfg.CORS.Enabled {
		app.Use(middleware.NewCORS(a.cfg.CORS))
	}

	health.NewFiberHandler(a.health).RegisterRoutes(app)
	if a.cfg.Prometheus.Enabled {
		app.Get(a.cfg.Prometheus.Path, func(c *fiber.Ctx) error {
			fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())(c.Context())
			return nil
		})
	}

	if a.cfg.CircuitBreaker.Enabled {
		app.Use("/api", middleware.CircuitBreaker(middleware.BreakerSettings{
			Name:         "api",
			MaxRequests:  uint32(a.cfg.CircuitBreaker.MaxRequests),
			Interval:     a.cfg.CircuitBreaker.Interval,
			Timeout:      a.cfg.CircuitBreaker.Timeout,
			FailureRatio: a.cfg.CircuitBreaker.FailureThreshold,
			MinRequests:  uint32(a.cfg.CircuitBreaker.MinRequests),
		}, a.log))
	}

	auth := middleware.AuthRequired(a.verifier)
	handlers.NewAvailabilityHandler(a.finder, a.log).RegisterRoutes(app, auth)
	handlers.NewReassignmentHandler(a.coordinator, a.log).RegisterRoutes(app, auth)
	reservation.NewHandler(a.ledger).RegisterRoutes(app, auth)

	return app, nil
}

// Serve runs the HTTP server, the optional gRPC health server and the
// lifecycle monitor until ctx is done or a listener fails.
func (a *application) Serve(ctx context.Context) error {
	app, err := a.httpApp()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 2)

	var grpcServer *server.GRPCServer
	if a.cfg.GRPC.Enabled {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.GRPC.Port))
		if err != nil {
			return fmt.Errorf("listen grpc: %w", err)
		}
		grpcServer = server.NewGRPCServer(a.ready, a.verifier, a.log)
		go grpcServer.WatchReadiness(ctx, a.cfg.GRPC.HealthInterval)
		go func() {
			a.log.Info("Starting gRPC server", zap.Int("port", a.cfg.GRPC.Port))
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	go func() {
		a.log.Info("Starting HTTP server", zap.Int("port", a.cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", a.cfg.HTTP.Port)); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	monitorDone := make(chan struct{})
	if a.cfg.Lifecycle.Enabled {
		go func() {
			defer close(monitorDone)
			a.monitor.Run(ctx)
		}()
	} else {
		close(monitorDone)
	}

	select {
	case <-ctx.Done():
		a.log.Info("Shutting down")
	case err = <-errCh:
		a.log.Error("Server failed", zap.Error(err))
	}
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if serr := app.ShutdownWithContext(shutdownCtx); serr != nil {
		a.log.Error("HTTP server forced to shutdown", zap.Error(serr))
	}
	if grpcServer != nil {
		grpcServer.Stop()
	}
	<-monitorDone

	a.log.Info("Server exited")
	return err
}

func (a *application) ready(ctx context.Context) bool {
	return a.health.Ready(ctx).Ready
}
