package services

import (
	"errors"
	"time"

	"github.com/MohamedElaraby99/the-good-analyst-sub000/backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Completion requires real viewing, not a single large seek: both thresholds
// must hold before a record is marked completed.
const (
	CompletionMinProgress  = 90   // percent
	CompletionMinWatchTime = 60.0 // seconds
)

// ProgressUpdate is one client tick's worth of observed playback state.
// WatchTime is a delta to accumulate, not a replacement total.
type ProgressUpdate struct {
	CurrentTime       float64 `json:"currentTime"`
	Duration          float64 `json:"duration"`
	Progress          int     `json:"progress"`
	WatchTime         float64 `json:"watchTime"`
	ReachedPercentage *int    `json:"reachedPercentage,omitempty"`
}

// VideoProgressEntry augments a progress record with the owning user's
// identity for the admin view.
type VideoProgressEntry struct {
	models.WatchProgress
	Username string `json:"username"`
	Email    string `json:"email"`
}

type ProgressService struct {
	DB *gorm.DB
}

func NewProgressService(db *gorm.DB) *ProgressService {
	return &ProgressService{DB: db}
}

// ApplyUpdate merges one update into a record. The merge is monotonic:
// progress takes the max of stored and incoming, watch time is additive, and
// completion is recomputed from the merged values. Position and duration are
// informational and track the latest observation.
func ApplyUpdate(rec *models.WatchProgress, upd ProgressUpdate, now time.Time) {
	if upd.CurrentTime >= 0 {
		rec.CurrentTime = upd.CurrentTime
	}
	if upd.Duration > 0 {
		rec.Duration = upd.Duration
	}

	incoming := upd.Progress
	if incoming < 0 {
		incoming = 0
	}
	if incoming > 100 {
		incoming = 100
	}
	if incoming > rec.Progress {
		rec.Progress = incoming
	}

	if upd.WatchTime > 0 {
		rec.TotalWatchTime += upd.WatchTime
	}

	rec.IsCompleted = rec.Progress >= CompletionMinProgress &&
		rec.TotalWatchTime >= CompletionMinWatchTime
	rec.LastWatched = now
}

// OnLadder reports whether a percentage is a valid checkpoint value.
func OnLadder(pct int) bool {
	return pct >= CheckpointStep && pct <= 100 && pct%CheckpointStep == 0
}

// Get returns the stored record for the triple, or a zero-valued default when
// none exists yet. Absence is a legitimate initial state, not an error.
func (s *ProgressService) Get(courseID, videoID string, userID uint) (*models.WatchProgress, error) {
	var rec models.WatchProgress
	err := s.DB.Preload("Checkpoints", checkpointOrder).
		Where("user_id = ? AND course_id = ? AND video_id = ?", userID, courseID, videoID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return emptyProgress(courseID, videoID, userID), nil
	}
	if err != nil {
		return nil, err
	}
	if rec.Checkpoints == nil {
		rec.Checkpoints = []models.WatchCheckpoint{}
	}
	return &rec, nil
}

// Update applies a monotonic merge to the stored record, creating it first if
// this is the triple's first update. A reached percentage outside the ladder
// is ignored; one already recorded is deduped by the checkpoint unique index.
func (s *ProgressService) Update(courseID, videoID string, userID uint, upd ProgressUpdate) (*models.WatchProgress, error) {
	now := time.Now()

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var rec models.WatchProgress
		err := tx.Where("user_id = ? AND course_id = ? AND video_id = ?", userID, courseID, videoID).
			First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			rec = models.WatchProgress{
				ID:       uuid.NewString(),
				UserID:   userID,
				CourseID: courseID,
				VideoID:  videoID,
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		ApplyUpdate(&rec, upd, now)
		if err := tx.Save(&rec).Error; err != nil {
			return err
		}

		if upd.ReachedPercentage != nil && OnLadder(*upd.ReachedPercentage) {
			cp := models.WatchCheckpoint{
				ProgressID: rec.ID,
				Percentage: *upd.ReachedPercentage,
				ReachedAt:  now,
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&cp).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(courseID, videoID, userID)
}

// ListForCourse returns the user's progress records across a course, most
// recently watched first.
func (s *ProgressService) ListForCourse(courseID string, userID uint) ([]models.WatchProgress, error) {
	var recs []models.WatchProgress
	err := s.DB.Preload("Checkpoints", checkpointOrder).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("last_watched DESC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	for i := range recs {
		if recs[i].Checkpoints == nil {
			recs[i].Checkpoints = []models.WatchCheckpoint{}
		}
	}
	return recs, nil
}

// ListForVideo returns every user's record for a video, each with the owning
// user's display name and email. Records whose user row is gone are kept with
// an empty projection.
func (s *ProgressService) ListForVideo(videoID, courseID string) ([]VideoProgressEntry, error) {
	var recs []models.WatchProgress
	err := s.DB.Preload("Checkpoints", checkpointOrder).
		Where("video_id = ? AND course_id = ?", videoID, courseID).
		Order("progress DESC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	entries := make([]VideoProgressEntry, 0, len(recs))
	for _, rec := range recs {
		if rec.Checkpoints == nil {
			rec.Checkpoints = []models.WatchCheckpoint{}
		}
		entry := VideoProgressEntry{WatchProgress: rec}

		var user models.User
		if err := s.DB.First(&user, rec.UserID).Error; err == nil {
			entry.Username = user.Username
			entry.Email = user.Email
		}

		entries = append(entries, entry)
	}
	return entries, nil
}

// Reset deletes accumulated progress and checkpoints for the triple and
// returns the zeroed record. Resetting a record that never existed is a no-op
// returning the zero default.
func (s *ProgressService) Reset(courseID, videoID string, userID uint) (*models.WatchProgress, error) {
	var rec models.WatchProgress

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND course_id = ? AND video_id = ?", userID, courseID, videoID).
			First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			rec = *emptyProgress(courseID, videoID, userID)
			return nil
		}
		if err != nil {
			return err
		}

		if err := tx.Where("progress_id = ?", rec.ID).Delete(&models.WatchCheckpoint{}).Error; err != nil {
			return err
		}

		rec.CurrentTime = 0
		rec.Progress = 0
		rec.TotalWatchTime = 0
		rec.IsCompleted = false
		rec.LastWatched = time.Now()
		rec.Checkpoints = []models.WatchCheckpoint{}
		return tx.Save(&rec).Error
	})
	if err != nil {
		return nil, err
	}

	if rec.Checkpoints == nil {
		rec.Checkpoints = []models.WatchCheckpoint{}
	}
	return &rec, nil
}

func checkpointOrder(db *gorm.DB) *gorm.DB {
	return db.Order("reached_at ASC, id ASC")
}

func emptyProgress(courseID, videoID string, userID uint) *models.WatchProgress {
	return &models.WatchProgress{
		UserID:      userID,
		CourseID:    courseID,
		VideoID:     videoID,
		Checkpoints: []models.WatchCheckpoint{},
	}
}
