package routes

import (
	"github.com/MohamedElaraby99/the-good-analyst-sub000/backend/config"
	"github.com/MohamedElaraby99/the-good-analyst-sub000/backend/controllers"
	"github.com/MohamedElaraby99/the-good-analyst-sub000/backend/middleware"
	"github.com/MohamedElaraby99/the-good-analyst-sub000/backend/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, stats *services.StatsService) {
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware(db, cfg)

	progressController := controllers.NewProgressController(db, cfg, stats)
	progress := app.Group("/api/video-progress", authMiddleware)

	// Admin routes first: the admin prefix must not be swallowed by the
	// :courseId/:videoId wildcard below.
	progress.Get("/admin/video/:videoId/stats", adminMiddleware, progressController.GetVideoStats)
	progress.Get("/admin/video/:videoId", adminMiddleware, progressController.GetVideoProgressForAdmin)

	progress.Get("/course/:courseId", progressController.GetCourseVideoProgress)
	progress.Get("/:courseId/:videoId", progressController.GetVideoProgress)
	progress.Put("/:courseId/:videoId", progressController.UpdateVideoProgress)
	progress.Delete("/:videoId", progressController.ResetVideoProgress)
}
