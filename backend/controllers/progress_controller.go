package controllers

import (
	"github.com/MohamedElaraby99/the-good-analyst-sub000/backend/config"
	"github.com/MohamedElaraby99/the-good-analyst-sub000/backend/services"
	"github.com/MohamedElaraby99/the-good-analyst-sub000/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProgressController struct {
	Cfg      *config.Config
	Progress *services.ProgressService
	Stats    *services.StatsService
}

func NewProgressController(db *gorm.DB, cfg *config.Config, stats *services.StatsService) *ProgressController {
	return &ProgressController{
		Cfg:      cfg,
		Progress: services.NewProgressService(db),
		Stats:    stats,
	}
}

// GetVideoProgress godoc
// @Summary Get video progress
// @Description Returns the caller's progress record for one video; a record that does not exist yet comes back zero-valued, never as 404
// @Tags video-progress
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param videoId path string true "Video ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /video-progress/{courseId}/{videoId} [get]
func (pc *ProgressController) GetVideoProgress(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID := c.Params("courseId")
	videoID := c.Params("videoId")
	if courseID == "" || videoID == "" {
		return utils.BadRequest(c, "Missing course or video ID")
	}

	rec, err := pc.Progress.Get(courseID, videoID, userID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query progress")
	}

	return utils.Success(c, fiber.StatusOK, rec)
}

// UpdateVideoProgress godoc
// @Summary Update video progress
// @Description Merges one tick's observed playback state into the stored record, creating it on first contact
// @Tags video-progress
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param videoId path string true "Video ID"
// @Param progress body services.ProgressUpdate true "Observed playback state"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /video-progress/{courseId}/{videoId} [put]
func (pc *ProgressController) UpdateVideoProgress(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID := c.Params("courseId")
	videoID := c.Params("videoId")
	if courseID == "" || videoID == "" {
		return utils.BadRequest(c, "Missing course or video ID")
	}

	var input services.ProgressUpdate
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	rec, err := pc.Progress.Update(courseID, videoID, userID, input)
	if err != nil {
		return utils.InternalServerError(c, "Could not save progress")
	}

	return utils.Success(c, fiber.StatusOK, rec, "Progress updated")
}

// GetCourseVideoProgress godoc
// @Summary Get course video progress
// @Description Returns all of the caller's progress records for a course, most recently watched first
// @Tags video-progress
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /video-progress/course/{courseId} [get]
func (pc *ProgressController) GetCourseVideoProgress(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID := c.Params("courseId")
	if courseID == "" {
		return utils.BadRequest(c, "Missing course ID")
	}

	recs, err := pc.Progress.ListForCourse(courseID, userID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query progress")
	}

	return utils.Success(c, fiber.StatusOK, recs)
}

// GetVideoProgressForAdmin godoc
// @Summary Get all users' progress for a video
// @Description Returns every user's record for a video with the owning user's name and email attached
// @Tags video-progress
// @Accept json
// @Produce json
// @Param videoId path string true "Video ID"
// @Param courseId query string true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /video-progress/admin/video/{videoId} [get]
func (pc *ProgressController) GetVideoProgressForAdmin(c *fiber.Ctx) error {
	videoID := c.Params("videoId")
	if videoID == "" {
		return utils.BadRequest(c, "Missing video ID")
	}
	courseID := c.Query("courseId")
	if courseID == "" {
		return utils.BadRequest(c, "Missing course ID")
	}

	entries, err := pc.Progress.ListForVideo(videoID, courseID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query progress")
	}

	return utils.Success(c, fiber.StatusOK, entries)
}

// GetVideoStats godoc
// @Summary Get video stats
// @Description Returns the aggregate dashboard numbers for a video (viewers, average progress, completion count)
// @Tags video-progress
// @Accept json
// @Produce json
// @Param videoId path string true "Video ID"
// @Param courseId query string true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /video-progress/admin/video/{videoId}/stats [get]
func (pc *ProgressController) GetVideoStats(c *fiber.Ctx) error {
	videoID := c.Params("videoId")
	if videoID == "" {
		return utils.BadRequest(c, "Missing video ID")
	}
	courseID := c.Query("courseId")
	if courseID == "" {
		return utils.BadRequest(c, "Missing course ID")
	}

	stats, err := pc.Stats.StatsForVideo(videoID, courseID)
	if err != nil {
		return utils.InternalServerError(c, "Could not compute stats")
	}

	return utils.Success(c, fiber.StatusOK, stats)
}

// ResetVideoProgress godoc
// @Summary Reset video progress
// @Description Clears the caller's record for a video so it can be rewatched from scratch; responds with the zeroed record
// @Tags video-progress
// @Accept json
// @Produce json
// @Param videoId path string true "Video ID"
// @Param courseId query string true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /video-progress/{videoId} [delete]
func (pc *ProgressController) ResetVideoProgress(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	videoID := c.Params("videoId")
	if videoID == "" {
		return utils.BadRequest(c, "Missing video ID")
	}
	courseID := c.Query("courseId")
	if courseID == "" {
		return utils.BadRequest(c, "Missing course ID")
	}

	rec, err := pc.Progress.Reset(courseID, videoID, userID)
	if err != nil {
		return utils.InternalServerError(c, "Could not reset progress")
	}

	return utils.Success(c, fiber.StatusOK, rec, "Progress reset")
}
