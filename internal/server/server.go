package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/config"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/events"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/hub"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/metrics"
	mid "github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/server/middleware"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/session"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/storage"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/api"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/logger"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// New builds the echo instance serving app.
func New(app *mid.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(app))
	if len(app.Config.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: app.Config.AllowedOrigins}))
	} else {
		e.Use(middleware.CORS())
	}
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(app.Config.MaxUploadSize))

	RegisterRoutes(e)
	return e
}

// checkOrigin allows websocket connections from the configured origins, or
// from everywhere when none are configured.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

// Init wires the console from cfg and serves until SIGINT or SIGTERM.
func Init(cfg config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := api.NewClient(api.NewClientParams{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.RequestTimeout,
	})
	if err != nil {
		logger.Fatal("Failed to create backend client", "err", err)
	}

	h := hub.New(checkOrigin(cfg.AllowedOrigins))
	defer h.Close()
	publishers := events.Multi{h}

	if cfg.RabbitMQ.Enabled() {
		conn, err := events.Connect(cfg.RabbitMQ.URL())
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", "err", err)
		}
		defer conn.Close()
		ch, err := conn.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		pub, err := events.NewAMQPPublisher(ch, cfg.RabbitMQ.Exchange)
		if err != nil {
			logger.Fatal("Failed to set up event exchange", "err", err)
		}
		publishers = append(publishers, pub)
		logger.Info("Forwarding events to RabbitMQ", "exchange", cfg.RabbitMQ.Exchange)
	}

	app := &mid.App{
		Config: cfg,
		API:    client,
		Hub:    h,
	}

	if cfg.S3.Enabled() {
		exporter, err := storage.NewExporterFromConfig(ctx, cfg.S3)
		if err != nil {
			logger.Fatal("Failed to set up graph export", "err", err)
		}
		app.Exporter = exporter
	}

	app.Registry = session.NewRegistry(session.NewRegistryParams{
		API:                client,
		Publisher:          publishers,
		PollInterval:       cfg.PollInterval,
		RefreshParallelism: cfg.RefreshParallelism,
	})
	defer app.Registry.Close()

	e := New(app)
	if cfg.MetricsPrometheus {
		e.GET("/metrics", echo.WrapHandler(metrics.EnablePrometheus()))
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting server", "port", cfg.Port, "backend", client.BaseURL())
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", "err", err)
	}
}
