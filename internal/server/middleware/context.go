package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/config"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/hub"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/session"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/storage"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/api"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/graph"
)

// Exporter stores graph snapshots. *storage.Exporter implements it.
type Exporter interface {
	Export(ctx context.Context, sessionID string, g graph.Graph, format string) (storage.Snapshot, error)
	List(ctx context.Context, sessionID string) ([]string, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

type App struct {
	Config   config.Config
	API      *api.Client
	Registry *session.Registry
	Hub      *hub.Hub
	// Exporter is nil when no bucket is configured.
	Exporter Exporter
}

type AppContext struct {
	echo.Context
	App     *App
	Session *session.Session
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
