package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quillfeed/quillfeed/internal/auth"
	"github.com/quillfeed/quillfeed/internal/cache"
	"github.com/quillfeed/quillfeed/internal/content"
	"github.com/quillfeed/quillfeed/internal/db"
	"github.com/quillfeed/quillfeed/internal/feed"
	"github.com/quillfeed/quillfeed/internal/graph"
	"github.com/quillfeed/quillfeed/pkg/config"
	"github.com/quillfeed/quillfeed/pkg/logging"
)

// Router wires the services to the HTTP surface
type Router struct {
	auth    *auth.Service
	content *content.Service
	graph   *graph.Service
	feed    *feed.Service
	db      *db.DB
	cache   cache.Store
	logger  *zap.Logger
}

// NewRouter creates a new API router
func NewRouter(database *db.DB, store cache.Store, cfg *config.Config) *Router {
	repo := db.NewRepository(database.DB)

	return &Router{
		auth:    auth.NewService(repo, store, cfg.Auth),
		content: content.NewService(repo, cfg.Content),
		graph:   graph.NewService(repo),
		feed:    feed.NewService(repo, store, cfg.Feed),
		db:      database,
		cache:   store,
		logger:  logging.GetLogger().With(zap.String("component", "api-router")),
	}
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.Use(RequestLogger())
	engine.Use(cors.Default())

	// Health check endpoints
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	v1 := engine.Group("/api/v1")

	// Auth endpoints
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", r.register)
	authGroup.POST("/sign-in", r.signIn)
	authGroup.POST("/refresh", r.refresh)
	authGroup.GET("/user", RequireAuth(r.auth), r.currentUser)

	// Everything below acts on behalf of a principal
	protected := v1.Group("")
	protected.Use(RequireAuth(r.auth))

	// Posts
	protected.POST("/posts", r.createPost)
	protected.PUT("/posts/:id", r.updatePost)
	protected.POST("/posts/:id/archive", r.archivePost)
	protected.DELETE("/posts/:id", r.deletePost)
	protected.POST("/posts/:id/repost", r.repost)
	protected.DELETE("/posts/:id/repost", r.deleteRepost)
	protected.POST("/users/:username/posts/:id/like", r.like)
	protected.DELETE("/posts/:id/like", r.unlike)

	// Follow graph
	protected.POST("/users/:username/follow", r.follow)
	protected.DELETE("/users/:username/follow", r.unfollow)

	// Home feed
	protected.GET("/home", r.home)
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "OK",
		"service": "quillfeed-api",
	})
}
