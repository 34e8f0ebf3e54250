package api

import (
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"school-directory-backend/config"
	"school-directory-backend/internal/imagestore"
	"school-directory-backend/internal/mw"
	"school-directory-backend/internal/store"
	"school-directory-backend/internal/validate"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, log logrus.FieldLogger, s store.Store, images imagestore.Store) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestLog(log))

	handler := NewHandler(s, images, validate.New(), log, Limits{
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
	})

	r.GET("/healthz", handler.Health)

	// Images written by the local backend are served from its root.
	if local, ok := images.(*imagestore.Local); ok {
		r.Static(local.PublicPath(), local.Root())
	}

	// API group
	api := r.Group("/api")
	if cfg.Server.RateLimitPerSec > 0 {
		api.Use(mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst))
	}
	if ttl := cfg.Server.CacheTTL(); ttl > 0 {
		api.Use(mw.Cache(cache.New(ttl, 2*ttl), ttl))
	}
	{
		api.GET("/schools", handler.ListSchools)
		api.GET("/schools/cities", handler.ListCities)
		api.GET("/schools/:id", handler.GetSchool)
		api.POST("/schools", handler.CreateSchool)
		api.PUT("/schools/:id", handler.UpdateSchool)
		api.DELETE("/schools/:id", handler.DeleteSchool)
	}

	return r
}
