package main

import (
	"github.com/bandhall/bandhall/internal/config"
	"github.com/bandhall/bandhall/internal/handlers"
	"github.com/bandhall/bandhall/internal/middleware"
	"github.com/bandhall/bandhall/pkg/logger"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, cfg *config.Config, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Auth endpoints are brute-forceable, AI endpoints cost money
	authLimiter := middleware.NewRateLimiter(5, 10)
	aiLimiter := middleware.NewRateLimiter(1, 5)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "bandhall"})
	})

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth", authLimiter.Middleware())
		{
			auth.POST("/register", svc.authHandler.Register)
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/refresh", svc.authHandler.Refresh)
			auth.GET("/config", svc.authHandler.Config)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(), middleware.AuditLog())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.Me)
			protected.PUT("/auth/me", svc.authHandler.UpdateMe)
			protected.POST("/auth/logout", svc.authHandler.Logout)

			// Bands
			protected.POST("/bands", svc.bandHandler.Create)
			protected.GET("/bands/my-bands", svc.bandHandler.MyBands)

			band := protected.Group("/bands/:bandId")
			{
				band.GET("", svc.bandHandler.Get)
				band.PUT("/profile", svc.bandHandler.UpdateProfile)

				// Members
				band.GET("/members", svc.bandHandler.Members)
				band.POST("/members", svc.bandHandler.AddMember)
				band.PUT("/members/:memberId", svc.bandHandler.UpdateMember)
				band.DELETE("/members/:memberId", svc.bandHandler.RemoveMember)

				// Proposals
				band.POST("/proposals", svc.proposalHandler.Create)
				band.GET("/proposals", svc.proposalHandler.List)
				band.GET("/proposals/:id", svc.proposalHandler.Get)
				band.PUT("/proposals/:id", svc.proposalHandler.Update)
				band.POST("/proposals/:id/submit", svc.proposalHandler.Submit)
				band.POST("/proposals/:id/review", svc.proposalHandler.Review)
				band.POST("/proposals/:id/vote", svc.proposalHandler.Vote)
				band.GET("/proposals/:id/votes", svc.proposalHandler.Votes)
				band.POST("/proposals/:id/finalize", svc.proposalHandler.Finalize)
				band.GET("/proposals/:id/comments", svc.commentHandler.ListFor(handlers.CommentEntityProposal, "id"))
				band.POST("/proposals/:id/comments", svc.commentHandler.AddFor(handlers.CommentEntityProposal, "id"))

				// Projects and tasks
				band.POST("/projects", svc.projectHandler.Create)
				band.GET("/projects", svc.projectHandler.List)
				band.GET("/projects/:projectId", svc.projectHandler.Get)
				band.PUT("/projects/:projectId", svc.projectHandler.Update)
				band.DELETE("/projects/:projectId", svc.projectHandler.Delete)
				band.POST("/projects/:projectId/tasks", svc.projectHandler.CreateTask)
				band.GET("/projects/:projectId/tasks", svc.projectHandler.ListTasks)
				band.GET("/projects/:projectId/tasks/:taskId", svc.projectHandler.GetTask)
				band.PUT("/projects/:projectId/tasks/:taskId", svc.projectHandler.UpdateTask)
				band.POST("/projects/:projectId/tasks/:taskId/complete", svc.projectHandler.CompleteTask)
				band.DELETE("/projects/:projectId/tasks/:taskId", svc.projectHandler.DeleteTask)
				band.GET("/projects/:projectId/tasks/:taskId/comments", svc.commentHandler.ListFor(handlers.CommentEntityTask, "taskId"))
				band.POST("/projects/:projectId/tasks/:taskId/comments", svc.commentHandler.AddFor(handlers.CommentEntityTask, "taskId"))

				// Discussions
				band.POST("/discussions", svc.discussionHandler.Create)
				band.GET("/discussions", svc.discussionHandler.List)
				band.GET("/discussions/:discussionId", svc.discussionHandler.Get)
				band.PUT("/discussions/:discussionId", svc.discussionHandler.Update)
				band.DELETE("/discussions/:discussionId", svc.discussionHandler.Delete)
				band.GET("/discussions/:discussionId/comments", svc.commentHandler.ListFor(handlers.CommentEntityDiscussion, "discussionId"))
				band.POST("/discussions/:discussionId/comments", svc.commentHandler.AddFor(handlers.CommentEntityDiscussion, "discussionId"))

				// Comment edit/delete (shared across entity types)
				band.PUT("/comments/:commentId", svc.commentHandler.Update)
				band.DELETE("/comments/:commentId", svc.commentHandler.Delete)

				// Captain's log
				band.GET("/captains-log", svc.captainsLogHandler.List)
				band.GET("/captains-log/:entryId", svc.captainsLogHandler.Get)

				// Media
				band.POST("/images", svc.uploadHandler.UploadImage)
				band.GET("/images", svc.uploadHandler.ListImages)
				band.GET("/images/:imageId", svc.uploadHandler.DownloadImage)
				band.DELETE("/images/:imageId", svc.uploadHandler.DeleteImage)
				band.POST("/documents", svc.uploadHandler.UploadDocument)
				band.GET("/documents", svc.uploadHandler.ListDocuments)
				band.GET("/documents/:documentId", svc.uploadHandler.DownloadDocument)
				band.DELETE("/documents/:documentId", svc.uploadHandler.DeleteDocument)
			}

			// AI assistance
			ai := protected.Group("/ai", aiLimiter.Middleware())
			{
				ai.POST("/generate-proposal", svc.aiHandler.GenerateProposal)
				ai.POST("/generate-profile", svc.aiHandler.GenerateProfile)
				ai.GET("/bands/:bandId/usage", svc.aiHandler.Usage)
			}

			// Platform admin
			admin := protected.Group("/admin", middleware.AdminRequired())
			{
				admin.GET("/llm-configs", svc.adminHandler.ListLLMConfigs)
				admin.GET("/llm-configs/:id", svc.adminHandler.GetLLMConfig)
				admin.POST("/llm-configs", svc.adminHandler.CreateLLMConfig)
				admin.PUT("/llm-configs/:id", svc.adminHandler.UpdateLLMConfig)
				admin.DELETE("/llm-configs/:id", svc.adminHandler.DeleteLLMConfig)

				admin.GET("/system-logs", svc.adminHandler.ListSystemLogs)
				admin.GET("/system-logs/modules", svc.adminHandler.SystemLogModules)
				admin.PUT("/system-logs/retention", svc.adminHandler.SetLogRetention)
				admin.POST("/system-logs/cleanup", svc.adminHandler.CleanupSystemLogs)
			}
		}
	}
}
