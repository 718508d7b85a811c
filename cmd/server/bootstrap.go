package main

import (
	"github.com/bandhall/bandhall/internal/config"
	"github.com/bandhall/bandhall/internal/handlers"
	"github.com/bandhall/bandhall/internal/models"
	"github.com/bandhall/bandhall/internal/services"
	"github.com/bandhall/bandhall/internal/utils"
	"github.com/bandhall/bandhall/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	taskQueue     services.TaskQueue
	worker        *services.Worker
	digestService *services.DigestService

	authHandler        *handlers.AuthHandler
	bandHandler        *handlers.BandHandler
	proposalHandler    *handlers.ProposalHandler
	projectHandler     *handlers.ProjectHandler
	discussionHandler  *handlers.DiscussionHandler
	commentHandler     *handlers.CommentHandler
	captainsLogHandler *handlers.CaptainsLogHandler
	aiHandler          *handlers.AIHandler
	uploadHandler      *handlers.UploadHandler
	adminHandler       *handlers.AdminHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	db := models.GetDB()

	// Operational logging
	services.InitSystemLogger(db)
	services.StartLogCleanupScheduler(db)

	// Notification pipeline: queue -> worker/sync processor -> webhook delivery
	notificationService := services.NewNotificationService(db)
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(notificationService.Process)
	}

	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(notificationService.Process)
			worker.Start()
		}
	}

	// Domain services
	activityLog := services.NewActivityLogService(db)
	bandService := services.NewBandService(db, activityLog)
	proposalService := services.NewProposalService(db, activityLog, taskQueue)
	voteService := services.NewVoteService(db, activityLog)
	projectService := services.NewProjectService(db, activityLog, proposalService)
	taskService := services.NewTaskService(db, activityLog)
	commentService := services.NewCommentService(db, activityLog)
	discussionService := services.NewDiscussionService(db, activityLog)
	uploadService := services.NewUploadService(db, &cfg.Storage, activityLog)

	// AI
	usageService := services.NewAIUsageService(db)
	aiService := services.NewAIService(db, &cfg.AI, usageService)
	llmConfigService := services.NewLLMConfigService(db)

	// Auth
	ldapService := services.NewLDAPService(cfg.LDAP)
	authService := services.NewAuthService(db, cfg, ldapService)
	if err := authService.EnsureAdmin(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed admin account")
	}

	// Daily digest
	digestService := services.NewDigestService(db, cfg, activityLog, taskQueue, services.NewHolidayService())
	digestService.StartScheduler()

	return &appServices{
		taskQueue:     taskQueue,
		worker:        worker,
		digestService: digestService,

		authHandler:        handlers.NewAuthHandler(authService, cfg.LDAP.Enabled),
		bandHandler:        handlers.NewBandHandler(bandService),
		proposalHandler:    handlers.NewProposalHandler(bandService, proposalService, voteService),
		projectHandler:     handlers.NewProjectHandler(bandService, projectService, taskService),
		discussionHandler:  handlers.NewDiscussionHandler(bandService, discussionService),
		commentHandler:     handlers.NewCommentHandler(bandService, commentService),
		captainsLogHandler: handlers.NewCaptainsLogHandler(bandService, activityLog),
		aiHandler:          handlers.NewAIHandler(bandService, aiService, usageService),
		uploadHandler:      handlers.NewUploadHandler(bandService, uploadService),
		adminHandler:       handlers.NewAdminHandler(llmConfigService, services.NewSystemLogService(db)),
	}
}

// shutdown gracefully stops all background services.
func (s *appServices) shutdown() {
	s.digestService.StopScheduler()
	services.StopLogCleanupScheduler()
	logger.Info().Msg("All schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
}
