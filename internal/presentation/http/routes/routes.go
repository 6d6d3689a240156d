// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"time"

	"github.com/AtRiskMedia/pagecraft-go/internal/application/container"
	"github.com/AtRiskMedia/pagecraft-go/internal/application/services"
	"github.com/AtRiskMedia/pagecraft-go/internal/presentation/http/handlers"
	"github.com/AtRiskMedia/pagecraft-go/internal/presentation/http/middleware"
	"github.com/AtRiskMedia/pagecraft-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.RequestID())
	r.Use(middleware.CORSMiddleware(config.CORSOrigins))

	// Uploaded background images.
	r.Static("/media", config.MediaDir)

	// Initialize handlers
	authHandlers := handlers.NewAuthHandlers(container.AuthService, config.TokenTTL, container.Logger, container.PerfTracker)
	pageHandlers := handlers.NewPageHandlers(container.PageService, container.Logger, container.PerfTracker)
	editorHandlers := handlers.NewEditorHandlers(container.SessionService, container.MediaService, container.Logger, container.PerfTracker)
	eventHandlers := handlers.NewEventHandlers(container.SessionService, container.Broadcaster,
		time.Duration(config.SSEHeartbeatIntervalSeconds)*time.Second, container.Logger)
	socketHandlers := handlers.NewSocketHandlers(container.SessionService, container.SocketHub, config.CORSOrigins, container.Logger)
	systemHandlers := handlers.NewSystemHandlers(container)

	requireEditor := middleware.RequireAuth(container.AuthService, container.Logger, services.RoleAdmin, services.RoleEditor)
	requireAdmin := middleware.RequireAuth(container.AuthService, container.Logger, services.RoleAdmin)

	api := r.Group("/api/v1")
	{
		api.GET("/health", systemHandlers.GetHealth)

		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandlers.PostLogin)
			auth.POST("/logout", authHandlers.PostLogout)
			auth.GET("/status", authHandlers.GetAuthStatus)
		}

		pages := api.Group("/pages", requireEditor)
		{
			pages.GET("", pageHandlers.ListPages)
			pages.POST("", pageHandlers.CreatePage)
			pages.GET("/:id", pageHandlers.GetPage)
			pages.GET("/:id/render", pageHandlers.RenderPage)
			pages.DELETE("/:id", requireAdmin, pageHandlers.DeletePage)
		}

		sessions := api.Group("/sessions", requireEditor)
		{
			sessions.POST("", editorHandlers.OpenSession)
			sessions.GET("", editorHandlers.ListSessions)

			session := sessions.Group("/:sessionId")
			{
				session.GET("", editorHandlers.GetSession)
				session.DELETE("", editorHandlers.CloseSession)
				session.POST("/save", editorHandlers.SaveSession)
				session.GET("/status", editorHandlers.GetSaveStatus)
				session.GET("/events", eventHandlers.GetEvents)
				session.GET("/connections", eventHandlers.GetConnections)
				session.GET("/socket", socketHandlers.GetSocket)

				// Document
				session.GET("/html", editorHandlers.GetHTML)
				session.PUT("/html", editorHandlers.PutHTML)
				session.POST("/undo", editorHandlers.PostUndo)
				session.POST("/redo", editorHandlers.PostRedo)
				session.POST("/generate", editorHandlers.PostGenerate)

				// Selection and element edits
				session.GET("/selection", editorHandlers.GetSelection)
				session.POST("/selection", editorHandlers.PostSelection)
				session.DELETE("/selection", editorHandlers.DeleteSelection)
				session.PUT("/elements/:id/style", editorHandlers.PutStyle)
				session.DELETE("/elements/:id/style/:property", editorHandlers.DeleteStyle)
				session.PUT("/elements/:id/attributes", editorHandlers.PutAttribute)
				session.DELETE("/elements/:id/attributes/:name", editorHandlers.DeleteAttribute)
				session.PUT("/elements/:id/classes", editorHandlers.PutClasses)
				session.PUT("/elements/:id/text", editorHandlers.PutText)
				session.PUT("/elements/:id/html", editorHandlers.PutInnerHTML)
				session.PUT("/elements/:id/visibility", editorHandlers.PutVisibility)
				session.PUT("/elements/:id/lock", editorHandlers.PutLock)

				// Layers
				session.GET("/layers", editorHandlers.GetLayers)
				session.POST("/layers/refresh", editorHandlers.PostRefreshLayers)
				session.POST("/layers/:id/toggle", editorHandlers.PostToggleLayer)
				session.POST("/layers/:id/reveal", editorHandlers.PostRevealLayer)

				// Backgrounds
				session.GET("/backgrounds", editorHandlers.GetBackgrounds)
				session.POST("/backgrounds", editorHandlers.PostBackground)
				session.POST("/backgrounds/upload", editorHandlers.PostBackgroundUpload)
				session.PATCH("/backgrounds/:id", editorHandlers.PatchBackground)
				session.DELETE("/backgrounds/:id", editorHandlers.DeleteBackground)
				session.POST("/backgrounds/:id/toggle", editorHandlers.PostToggleBackground)
				session.POST("/backgrounds/:id/move", editorHandlers.PostMoveBackground)

				// Canvas
				session.GET("/canvas", editorHandlers.GetCanvas)
				session.PATCH("/canvas/view", editorHandlers.PatchView)
				session.GET("/canvas/workspace", editorHandlers.GetWorkspace)
				session.POST("/artboards", editorHandlers.PostArtboard)
				session.DELETE("/artboards/:id", editorHandlers.DeleteArtboard)
				session.PUT("/artboards/:id/device", editorHandlers.PutArtboardDevice)
				session.PUT("/artboards/:id/dimensions", editorHandlers.PutArtboardDimensions)
				session.PUT("/artboards/:id/position", editorHandlers.PutArtboardPosition)
				session.PUT("/artboards/:id/scale", editorHandlers.PutArtboardScale)
				session.PUT("/artboards/:id/name", editorHandlers.PutArtboardName)
				session.POST("/artboards/:id/duplicate", editorHandlers.PostDuplicateArtboard)
				session.POST("/artboards/:id/select", editorHandlers.PostSelectArtboard)
				session.GET("/artboards/:id/preview", editorHandlers.GetArtboardPreview)
			}
		}

		system := api.Group("/system", requireAdmin)
		{
			system.GET("/performance", systemHandlers.GetPerformance)
			system.GET("/logs/levels", systemHandlers.GetLogLevels)
			system.POST("/logs/levels", systemHandlers.SetLogLevel)
			system.GET("/logs/stream", systemHandlers.StreamLogs)
		}
	}

	return r
}
