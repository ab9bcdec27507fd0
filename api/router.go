// api/router.go
package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Annany2002/schema-designer-backend/api/handlers"
	"github.com/Annany2002/schema-designer-backend/api/middleware"
	"github.com/Annany2002/schema-designer-backend/config"
	"github.com/Annany2002/schema-designer-backend/internal/collaboration"
	"github.com/Annany2002/schema-designer-backend/internal/diagram"
	"github.com/Annany2002/schema-designer-backend/internal/notification"
)

// SetupRouter initializes the Gin router and sets up all routes.
func SetupRouter(db *sql.DB, cfg *config.Config, notices notification.Dispatcher) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(cors.New(corsConfig(cfg)))
	// Runs after Recovery/Logger so every handler error passes through it
	router.Use(middleware.ErrorHandler())

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	diagramHandler := handlers.NewDiagramHandler(diagram.NewService(db))
	collabHandler := handlers.NewCollaborationHandler(collaboration.NewService(db, notices, cfg.FrontendURL))

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRateLimit, time.Minute)

	// --- Public Routes ---
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to the Schema Designer API"})
	})
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.POST("/token", middleware.RateLimitMiddleware(loginLimiter), authHandler.Token)
	router.POST("/users", authHandler.Register)

	// --- Protected Routes ---
	protected := router.Group("/")
	protected.Use(middleware.AuthMiddleware(db, cfg))
	{
		protected.GET("/users/me", authHandler.Me)

		protected.POST("/diagrams", diagramHandler.CreateDiagram)
		protected.GET("/diagrams", diagramHandler.ListDiagrams)
		protected.GET("/diagrams/:id", diagramHandler.GetDiagram)
		protected.DELETE("/diagrams/:id", diagramHandler.DeleteDiagram)
		protected.POST("/diagrams/:id/tables", diagramHandler.CreateTable)
		protected.GET("/diagrams/:id/export", diagramHandler.ExportDiagram)

		protected.POST("/diagrams/:id/invite", collabHandler.Invite)
		protected.GET("/diagrams/:id/collaborators", collabHandler.ListCollaborators)
		protected.DELETE("/diagrams/:id/collaborators/:uid", collabHandler.RemoveCollaborator)
		protected.PUT("/diagrams/:id/collaborators/:uid/permission", collabHandler.UpdatePermission)

		protected.GET("/invitations", collabHandler.ListInvitations)
		protected.POST("/invitations/:id/accept", collabHandler.AcceptInvitation)
		protected.POST("/invitations/:id/reject", collabHandler.RejectInvitation)
	}

	return router
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range cfg.CORSAllowedOrigins {
		if origin == "*" {
			c.AllowAllOrigins = true
			c.AllowCredentials = false
			return c
		}
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
		return c
	}
	c.AllowOrigins = cfg.CORSAllowedOrigins
	return c
}
