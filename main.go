package main

import (
	"coffeetour/internal/config"
	"coffeetour/internal/handlers"
	"coffeetour/internal/logger"
	"coffeetour/internal/repository"
	"coffeetour/internal/services"
	"coffeetour/internal/tasks"
	"coffeetour/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Z().Sync()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := utils.InitDatabase(cfg.Database.Path)
	if err != nil {
		logger.Errorw("database_init_failed", "path", cfg.Database.Path, "error", err)
		panic(err)
	}

	postRepo := repository.NewPostRepository(db)
	correctionRepo := repository.NewCorrectionRepository(db)

	importSvc := services.NewImportService(postRepo)
	syncSvc := services.NewSyncService(postRepo, cfg.Posts.Dir)
	backupSvc := services.NewBackupService(postRepo, cfg.Backup.Dir, cfg.Server.Password)
	dedupeSvc := services.NewDedupeService(postRepo, syncSvc, backupSvc)
	backfillSvc := services.NewBackfillService(postRepo)
	correctionSvc := services.NewCorrectionService(correctionRepo, postRepo, syncSvc)

	authHandler := handlers.NewAuthHandler(cfg.Server.Password)
	adminHandler := handlers.NewAdminHandler(
		postRepo, importSvc, dedupeSvc, syncSvc, backupSvc, backfillSvc, correctionSvc,
		cfg.Github)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handlers.RequestIDMiddleware())
	router.Use(cors.Default())

	store := cookie.NewStore([]byte(cfg.Server.Password))
	router.Use(sessions.Sessions("coffeetour_session", store))

	router.POST("/api/login", authHandler.Login)
	router.POST("/api/logout", authHandler.Logout)

	api := router.Group("/api", handlers.AuthMiddleware())
	{
		api.GET("/posts", adminHandler.ListPosts)
		api.GET("/posts/:id", adminHandler.GetPost)
		api.POST("/posts", adminHandler.CreatePost)
		api.PUT("/posts/:id", adminHandler.UpdatePost)
		api.DELETE("/posts/:id", adminHandler.DeletePost)
		api.PUT("/posts/:id/publish", adminHandler.SetPublished)

		api.GET("/stats", adminHandler.Stats)
		api.POST("/preview", adminHandler.Preview)

		api.POST("/sync", adminHandler.Sync)
		api.GET("/sync/verify", adminHandler.VerifySync)
		api.POST("/dedupe", adminHandler.Dedupe)
		api.POST("/backup", adminHandler.Backup)

		api.POST("/import/export", adminHandler.ImportExport)
		api.POST("/import/markdown", adminHandler.ImportMarkdown)
		api.POST("/backfill", adminHandler.Backfill)

		api.GET("/corrections", adminHandler.ListCorrections)
		api.POST("/corrections", adminHandler.SaveCorrection)
		api.DELETE("/corrections", adminHandler.DeleteCorrection)
		api.POST("/corrections/apply", adminHandler.ApplyCorrections)
	}

	scheduler := tasks.NewScheduler(cfg, syncSvc, backupSvc)
	scheduler.Start()
	defer scheduler.Stop()

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	logger.Infow("server_starting", "addr", addr)
	if err := router.Run(addr); err != nil {
		logger.Errorw("server_exited", "error", err)
	}
}
