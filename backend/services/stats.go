package services

import (
	"errors"
	"log"
	"time"

	"github.com/MohamedElaraby99/the-good-analyst-sub000/backend/models"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatsService maintains the per-video aggregate table the admin dashboard
// reads, so dashboard loads never scan the full progress table.
type StatsService struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewStatsService(db *gorm.DB, logger *log.Logger) *StatsService {
	return &StatsService{DB: db, Logger: logger}
}

type videoAggregate struct {
	VideoID         string
	CourseID        string
	Viewers         int64
	AverageProgress float64
	CompletedCount  int64
}

// StartScheduler launches the periodic recompute job.
func (s *StatsService) StartScheduler(interval time.Duration) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		s.Logger.Printf("[Stats] Scheduler init failed: %v", err)
		return
	}
	sched.Start()

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := s.RecomputeAll(); err != nil {
				s.Logger.Printf("[Stats] Recompute failed: %v", err)
			}
		}),
	)
	if err != nil {
		s.Logger.Printf("[Stats] Scheduling recompute job failed: %v", err)
	}
}

// RecomputeAll rebuilds the aggregate row of every video that has at least
// one progress record.
func (s *StatsService) RecomputeAll() error {
	var aggs []videoAggregate
	err := s.DB.Model(&models.WatchProgress{}).
		Select("video_id, course_id, COUNT(*) AS viewers, AVG(progress) AS average_progress, COUNT(*) FILTER (WHERE is_completed) AS completed_count").
		Group("video_id, course_id").
		Scan(&aggs).Error
	if err != nil {
		return err
	}

	now := time.Now()
	for _, agg := range aggs {
		stats := models.VideoStats{
			VideoID:         agg.VideoID,
			CourseID:        agg.CourseID,
			Viewers:         agg.Viewers,
			AverageProgress: agg.AverageProgress,
			CompletedCount:  agg.CompletedCount,
			ComputedAt:      now,
		}
		err := s.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "video_id"}, {Name: "course_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"viewers", "average_progress", "completed_count", "computed_at"}),
		}).Create(&stats).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// StatsForVideo returns the cached aggregate for a video, computing it on the
// spot when the scheduler has not covered the video yet.
func (s *StatsService) StatsForVideo(videoID, courseID string) (*models.VideoStats, error) {
	var stats models.VideoStats
	err := s.DB.Where("video_id = ? AND course_id = ?", videoID, courseID).First(&stats).Error
	if err == nil {
		return &stats, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var agg videoAggregate
	err = s.DB.Model(&models.WatchProgress{}).
		Select("video_id, course_id, COUNT(*) AS viewers, AVG(progress) AS average_progress, COUNT(*) FILTER (WHERE is_completed) AS completed_count").
		Where("video_id = ? AND course_id = ?", videoID, courseID).
		Group("video_id, course_id").
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}

	return &models.VideoStats{
		VideoID:         videoID,
		CourseID:        courseID,
		Viewers:         agg.Viewers,
		AverageProgress: agg.AverageProgress,
		CompletedCount:  agg.CompletedCount,
		ComputedAt:      time.Now(),
	}, nil
}
