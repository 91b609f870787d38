package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/server/middleware"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	ui := e.Group("/ui")

	// Session routes
	ui.GET("/sessions", routes.GetSessionsHandler)
	ui.POST("/sessions", routes.CreateSessionHandler)
	ui.DELETE("/sessions/:sid", routes.DeleteSessionHandler)

	s := ui.Group("/sessions/:sid", middleware.RequireSession)
	s.GET("", routes.GetSessionHandler)
	s.GET("/ws", routes.SessionSocketHandler)
	s.PATCH("/view", routes.EditViewHandler)

	// Upload routes
	s.GET("/upload", routes.GetUploadHandler)
	s.POST("/upload", routes.UploadFileHandler)
	s.DELETE("/upload", routes.ResetUploadHandler)

	// Entity routes
	s.GET("/entities", routes.GetEntitiesHandler)
	s.POST("/entities", routes.CreateEntityHandler)
	s.POST("/entities/search", routes.SearchEntitiesHandler)
	s.GET("/entities/:id", routes.GetEntityHandler)
	s.PATCH("/entities/:id", routes.EditEntityHandler)
	s.DELETE("/entities/:id", routes.DeleteEntityHandler)
	s.GET("/entities/:id/relationships", routes.GetEntityRelationshipsHandler)
	s.POST("/entities/:id/relationships", routes.AddEntityRelationshipHandler)

	// Selection routes
	s.GET("/selection", routes.GetSelectionHandler)
	s.PUT("/selection", routes.ReplaceSelectionHandler)
	s.POST("/selection/toggle", routes.ToggleSelectionHandler)
	s.POST("/selection/refresh", routes.RefreshSelectionHandler)

	// Graph routes
	s.GET("/graph", routes.GetGraphHandler)
	s.GET("/graph.dot", routes.GetGraphDOTHandler)
	s.PATCH("/graph/toggles", routes.EditGraphTogglesHandler)
	s.POST("/graph/export", routes.ExportGraphHandler, middleware.RequireExporter)
	s.GET("/graph/exports", routes.GetGraphExportsHandler, middleware.RequireExporter)

	// Conversation routes
	s.GET("/conversation", routes.GetConversationHandler)
	s.POST("/conversation/messages", routes.SendMessageHandler)
	s.DELETE("/conversation", routes.ResetConversationHandler)
	s.GET("/conversation/summary", routes.GetConversationSummaryHandler)
	s.GET("/conversation/visualization", routes.GetConversationVisualizationHandler)
}
