package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/nocparse/backend/internal/config"
	"github.com/nocparse/backend/internal/db"
	"github.com/nocparse/backend/internal/http/handlers"
	"github.com/nocparse/backend/internal/http/middleware"
	"github.com/nocparse/backend/internal/service"

	_ "github.com/nocparse/backend/docs"
)

func Router(cfg config.Config, store *db.Store, svc *service.ProcessingService, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:     store,
		Service:   svc,
		Validator: validator.New(),
		Logger:    logger,
		AdminKey:  cfg.AdminKey,
		TopN:      cfg.TopFindings,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/reports/:id/findings", h.ReportFindings)
		api.GET("/runs/latest", h.RunsLatest)
		api.GET("/categories", h.Categories)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/reports", h.SubmitReport)
		admin.POST("/reports/:id/process", h.ProcessReport)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
