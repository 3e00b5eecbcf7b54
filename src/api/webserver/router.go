package webserver

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stake-plus/govproposals/src/config"
	"github.com/stake-plus/govproposals/src/proposals"
)

// New builds the HTTP API. sweeper may be nil, which disables the admin route.
func New(cfg config.APIConfig, engine Engine, sweeper Sweeper, renderer proposals.Renderer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	attachRoutes(r, cfg, engine, sweeper, renderer)
	return r
}

func attachRoutes(r *gin.Engine, cfg config.APIConfig, engine Engine, sweeper Sweeper, renderer proposals.Renderer) {
	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "If-None-Match"},
		ExposeHeaders:    []string{"Content-Length", "ETag"},
		AllowCredentials: true,
	}))

	limiter := NewRateLimiter(120, time.Minute)
	r.GET("/healthz", Health)

	propH := NewProposals(engine, renderer)
	v1 := r.Group("/v1")
	v1.Use(RateLimitMiddleware(limiter))
	{
		v1.GET("/proposals", propH.List)
		v1.GET("/proposals/:id", propH.Get)
	}

	if sweeper != nil {
		admin := v1.Group("/admin")
		admin.Use(JWTMiddleware([]byte(cfg.JWTSecret)))
		{
			adminH := NewAdmin(sweeper)
			admin.POST("/sweep", adminH.Sweep)
		}
	}
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
