package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ortegadev/autoescuela-api/api/swagger"
	"github.com/ortegadev/autoescuela-api/internal/handler"
	"github.com/ortegadev/autoescuela-api/internal/middleware"
	"github.com/ortegadev/autoescuela-api/internal/models"
	"github.com/ortegadev/autoescuela-api/internal/repository"
	"github.com/ortegadev/autoescuela-api/internal/service"
	"github.com/ortegadev/autoescuela-api/pkg/cache"
	"github.com/ortegadev/autoescuela-api/pkg/config"
	"github.com/ortegadev/autoescuela-api/pkg/database"
	"github.com/ortegadev/autoescuela-api/pkg/logger"
	corsmiddleware "github.com/ortegadev/autoescuela-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ortegadev/autoescuela-api/pkg/middleware/requestid"
)

// @title Autoescuela API
// @version 1.0.0
// @description Driving school administration and seat reservation API
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metrics := service.NewMetricsService()
	validate := validator.New()

	// Redis is optional: a cache outage degrades to direct reads.
	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close()
		}
	}
	cacheEnabled := cfg.Cache.Enabled && cacheRepo != nil
	classCache := service.NewCacheService(cacheRepo, metrics, cfg.Cache.ClassTTL, logr, cacheEnabled)
	weekCache := service.NewCacheService(cacheRepo, metrics, cfg.Cache.WeekTTL, logr, cacheEnabled)

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	classRepo := repository.NewClassRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	reservationRepo := repository.NewReservationRepository(db)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		SingleSession:      cfg.Booking.SingleSession,
	})
	userService := service.NewUserService(userRepo, validate, logr)
	studentService := service.NewStudentService(studentRepo, subjectRepo, userRepo, logr)
	subjectService := service.NewSubjectService(subjectRepo, validate, logr)
	classService := service.NewClassService(classRepo, subjectRepo, userRepo, scheduleRepo, validate, logr, classCache)
	scheduleService := service.NewScheduleService(scheduleRepo, classRepo, validate, logr, weekCache)
	reservationService := service.NewReservationService(reservationRepo, studentRepo, validate, logr, metrics, classCache)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	studentHandler := handler.NewStudentHandler(studentService)
	subjectHandler := handler.NewSubjectHandler(subjectService)
	classHandler := handler.NewClassHandler(classService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	reservationHandler := handler.NewReservationHandler(reservationService)
	metricsHandler := handler.NewMetricsHandler(metrics, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	jwtAuth := middleware.JWT(authService)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	staffOnly := middleware.RequireRoles(models.RoleAdmin, models.RoleProfessor)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", jwtAuth, authHandler.Logout)
		auth.GET("/me", jwtAuth, authHandler.Me)
	}

	reservations := api.Group("/reservations", jwtAuth)
	{
		reservations.POST("", middleware.RequireRoles(models.RoleStudent), reservationHandler.Book)
		reservations.GET("/mine", middleware.RequireRoles(models.RoleStudent), reservationHandler.ListMine)
		reservations.POST("/:id/cancel", middleware.RequireRoles(models.RoleStudent), reservationHandler.Cancel)
		reservations.PATCH("/:id/attendance", middleware.RequireRoles(models.RoleStudent, models.RoleAdmin), reservationHandler.MarkAttendance)
		reservations.POST("/admin/create", adminOnly, reservationHandler.BookAsAdmin)
	}

	classes := api.Group("/classes")
	{
		classes.GET("", classHandler.List)
		classes.GET("/:id", classHandler.Get)
		classes.POST("", jwtAuth, adminOnly, classHandler.Create)
		classes.DELETE("/:id", jwtAuth, adminOnly, classHandler.Delete)
		if cfg.Booking.RosterExportEnabled {
			classes.GET("/:id/roster.pdf", jwtAuth, staffOnly, classHandler.Roster)
			classes.GET("/:id/roster.csv", jwtAuth, staffOnly, classHandler.RosterCSV)
		}
	}

	schedules := api.Group("/schedules")
	{
		schedules.GET("", scheduleHandler.List)
		schedules.POST("", jwtAuth, adminOnly, scheduleHandler.Create)
		schedules.GET("/:id/candidates", jwtAuth, adminOnly, scheduleHandler.Candidates)
		schedules.PATCH("/:id/toggle", jwtAuth, adminOnly, scheduleHandler.ToggleActive)
		schedules.POST("/:id/assign", jwtAuth, adminOnly, scheduleHandler.Assign)
		schedules.DELETE("/classes/:classId", jwtAuth, adminOnly, scheduleHandler.Unassign)
		schedules.DELETE("/:id", jwtAuth, adminOnly, scheduleHandler.Delete)
	}

	subjects := api.Group("/subjects")
	{
		subjects.GET("", subjectHandler.List)
		subjects.POST("", jwtAuth, adminOnly, subjectHandler.Create)
		subjects.PUT("/:id", jwtAuth, adminOnly, subjectHandler.Update)
		subjects.DELETE("/:id", jwtAuth, adminOnly, subjectHandler.Delete)
	}
	api.GET("/license-categories", subjectHandler.ListCategories)
	api.POST("/license-categories", jwtAuth, adminOnly, subjectHandler.CreateCategory)

	users := api.Group("/users", jwtAuth, adminOnly)
	{
		users.GET("", userHandler.List)
		users.GET("/:id", userHandler.Get)
		users.POST("", userHandler.Create)
		users.PUT("/:id", userHandler.Update)
		users.DELETE("/:id", userHandler.Deactivate)
	}

	students := api.Group("/students", jwtAuth)
	{
		students.GET("/:id", staffOnly, studentHandler.Get)
		students.POST("/:id/licenses", adminOnly, studentHandler.AttachLicense)
		students.DELETE("/:id/licenses/:categoryId", adminOnly, studentHandler.DetachLicense)
	}
	api.GET("/professors", jwtAuth, staffOnly, studentHandler.ListProfessors)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
