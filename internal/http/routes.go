package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterConfig struct {
	CORSOrigins []string
	// Metrics exposes /metrics; leave off in tests that build many routers.
	Metrics bool
}

func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(AccessLog(h.Log))
	r.Use(Metrics())
	r.Use(CORS(cfg.CORSOrigins))

	r.GET("/healthz", h.Healthz)
	r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if cfg.Metrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api")
	api.GET("/health", h.Health)

	limited := RateLimit(h.Limiter, h.RateLimitPerMin, h.Log)
	auth := api.Group("/auth")
	{
		auth.POST("/register", limited, h.Register)
		auth.POST("/login", limited, h.Login)
		auth.GET("/google/login", h.GoogleLogin)
		auth.GET("/google/callback", limited, h.GoogleCallback)
	}

	tenders := api.Group("/tenders")
	{
		tenders.GET("", h.ListTenders)
		tenders.GET("/categories", h.Categories)
		tenders.GET("/countries", h.Countries)
		tenders.GET("/:id", h.GetTender)
	}

	user := api.Group("/user", AuthJWT(h.JWTSecret))
	{
		user.GET("/profile", h.GetProfile)
		user.PUT("/profile", h.UpdateProfile)
		user.GET("/recommendations", h.Recommendations)
	}
	return r
}
