package models

import (
	"time"
)

// WatchProgress is the stored playback state for one (user, course, video) triple.
// Progress and TotalWatchTime only ever grow; updates go through the monotonic
// merge in services, never a wholesale overwrite.
type WatchProgress struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID   uint   `gorm:"not null;uniqueIndex:idx_user_course_video" json:"userId"`
	CourseID string `gorm:"not null;uniqueIndex:idx_user_course_video" json:"courseId"`
	VideoID  string `gorm:"not null;uniqueIndex:idx_user_course_video" json:"videoId"`

	CurrentTime    float64 `gorm:"default:0" json:"currentTime"`
	Duration       float64 `gorm:"default:0" json:"duration"` // 0 when unknown/live
	Progress       int     `gorm:"default:0" json:"progress"` // percent, 0-100
	TotalWatchTime float64 `gorm:"default:0" json:"totalWatchTime"`
	IsCompleted    bool    `gorm:"default:false" json:"isCompleted"`

	LastWatched time.Time `json:"lastWatched"`

	Checkpoints []WatchCheckpoint `gorm:"foreignKey:ProgressID" json:"reachedPercentages"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WatchCheckpoint records when a ladder percentage was first reached.
// The unique index makes duplicate credits a no-op at the database level.
type WatchCheckpoint struct {
	ID         uint      `gorm:"primarykey" json:"-"`
	ProgressID string    `gorm:"type:uuid;not null;uniqueIndex:idx_progress_percentage" json:"-"`
	Percentage int       `gorm:"not null;uniqueIndex:idx_progress_percentage" json:"percentage"`
	ReachedAt  time.Time `json:"reachedAt"`
}

// VideoStats is a periodically recomputed aggregate over all watch progress
// records of one video, backing the admin dashboard.
type VideoStats struct {
	ID              uint      `gorm:"primarykey" json:"-"`
	VideoID         string    `gorm:"not null;uniqueIndex:idx_video_course_stats" json:"videoId"`
	CourseID        string    `gorm:"not null;uniqueIndex:idx_video_course_stats" json:"courseId"`
	Viewers         int64     `gorm:"default:0" json:"viewers"`
	AverageProgress float64   `gorm:"default:0" json:"averageProgress"`
	CompletedCount  int64     `gorm:"default:0" json:"completedCount"`
	ComputedAt      time.Time `json:"computedAt"`
}
