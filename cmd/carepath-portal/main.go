package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"

	"carepath-portal/internal/config"
	httpapi "carepath-portal/internal/http"
	"carepath-portal/internal/notify"
	"carepath-portal/internal/repository"
	"carepath-portal/internal/service"
	"carepath-portal/internal/store"
	"carepath-portal/pkg/database"
	"carepath-portal/pkg/logger"
	"carepath-portal/pkg/redisutil"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "carepath-portal")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	redisClient := redisutil.NewClient(&cfg.Redis)
	sessions := store.NewRedisKV(redisClient)

	var notifier notify.Notifier = notify.NewService(cfg.Mail, redisClient, log)

	// Repositories: Postgres when reachable, in-memory otherwise so the API
	// still serves dev/demo traffic.
	var (
		db             *sql.DB
		usersRepo      repository.UsersRepository
		templatesRepo  repository.TemplatesRepository
		checklistsRepo repository.ChecklistsRepository
		authRepo       repository.AuthRepository
		contentRepo    repository.ContentRepository
		searchRepo     repository.SearchRepository
	)
	if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
		db = d
		usersRepo = repository.NewPostgresUsersRepository(db)
		templatesRepo = repository.NewPostgresTemplatesRepository(db)
		checklistsRepo = repository.NewPostgresChecklistsRepository(db)
		authRepo = repository.NewPostgresAuthRepository(db)
		contentRepo = repository.NewPostgresContentRepository(db)
		searchRepo = repository.NewPostgresSearchRepository(db)
		log.Info("Postgres connected", zap.String("host", cfg.Database.Host))
	} else {
		log.Warn("Postgres unavailable, using in-memory repositories", zap.Error(err))
		memUsers := repository.NewMemoryUsersRepo()
		memChecklists := repository.NewMemoryChecklistsRepo(memUsers)
		memContent := repository.NewMemoryContentRepo()
		usersRepo = memUsers
		templatesRepo = repository.NewMemoryTemplatesRepo()
		checklistsRepo = memChecklists
		authRepo = repository.NewMemoryAuthRepo(memUsers)
		contentRepo = memContent
		searchRepo = repository.NewMemorySearchRepo(memUsers, memChecklists, memContent)
	}

	authSvc := service.NewAuthService(usersRepo, authRepo, sessions, notifier, cfg.HTTP.BaseURL, cfg.Session.TTL, log)
	checklistSvc := service.NewChecklistService(templatesRepo, checklistsRepo, usersRepo, log)
	userSvc := service.NewUserService(usersRepo, checklistsRepo, checklistSvc, notifier, log)
	templateSvc := service.NewTemplateService(templatesRepo, log)
	insightsSvc := service.NewInsightsService(checklistsRepo, log)
	contentSvc := service.NewContentService(contentRepo, log)
	searchSvc := service.NewSearchService(searchRepo, log)
	exportSvc := service.NewExportService(checklistsRepo, log)

	httpSessions := httpapi.NewSessions(authSvc, log)
	router := httpapi.NewRouter(log)
	router.RegisterAuthRoutes(httpapi.NewAuthHandler(authSvc, httpSessions, log))
	router.RegisterPortalRoutes(httpapi.NewPortalHandler(checklistSvc, userSvc, searchSvc, exportSvc, contentSvc, httpSessions, log))
	router.RegisterAdminRoutes(httpapi.NewAdminHandler(userSvc, checklistSvc, templateSvc, insightsSvc, contentSvc, httpSessions, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Error("HTTP server failed", zap.Error(err))
	}
	_ = redisClient.Close()
	if db != nil {
		_ = db.Close()
	}
}
