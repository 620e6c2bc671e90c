package client

import (
	"context"
	"io"
	"log"
	"math"
	"time"

	"github.com/MohamedElaraby99/the-good-analyst-sub000/backend/models"
	"github.com/MohamedElaraby99/the-good-analyst-sub000/backend/services"
)

// PlayerState is one observation of the underlying video player.
type PlayerState struct {
	CurrentTime float64
	Duration    float64
	Playing     bool
}

// Player is the capability the tracker needs from a video player SDK. The
// handle is injected at construction; the tracker never touches SDK globals.
type Player interface {
	State() PlayerState
}

// Syncer pushes observed playback state to the progress service and pulls the
// stored record back.
type Syncer interface {
	Fetch(ctx context.Context, courseID, videoID string) (*models.WatchProgress, error)
	Push(ctx context.Context, courseID, videoID string, upd services.ProgressUpdate) (*models.WatchProgress, error)
}

const (
	// DefaultInterval is the polling cadence while a video is open.
	DefaultInterval = time.Second

	// maxTickWatchDelta caps the wall-clock watch time credited per tick.
	// Tab backgrounding or a long pause between ticks must not overcredit.
	maxTickWatchDelta = 1.5

	// progressPushThreshold is the percent change below which a tick is not
	// worth a network round trip on its own.
	progressPushThreshold = 1
)

// Tracker polls a Player on a fixed cadence and keeps the server-side record
// in sync. Local counters mirror server state; the server's monotonic merge
// is the source of truth, the tracker never overwrites it wholesale.
//
// A Tracker drives one video for one viewer and is not safe for concurrent
// use; run it from a single goroutine via Run.
type Tracker struct {
	player   Player
	syncer   Syncer
	courseID string
	videoID  string
	logger   *log.Logger

	interval time.Duration
	now      func() time.Time

	checkpoints []services.Checkpoint
	nextIndex   int

	storedProgress  int
	storedWatchTime float64
	watchTime       float64 // locally accumulated, ahead of storedWatchTime until acknowledged
	position        float64 // last credible playback position
	pending         []int   // checkpoints crossed locally but not yet acknowledged, oldest first

	lastTick time.Time
}

func NewTracker(player Player, syncer Syncer, courseID, videoID string, logger *log.Logger) *Tracker {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Tracker{
		player:   player,
		syncer:   syncer,
		courseID: courseID,
		videoID:  videoID,
		logger:   logger,
		interval: DefaultInterval,
		now:      time.Now,
	}
}

// Run pulls the stored record, then polls until the context is cancelled.
// Cancelling tears the loop down without waiting on in-flight pushes; a late
// response is safe to lose since the server merge is monotonic.
func (t *Tracker) Run(ctx context.Context) error {
	if rec, err := t.syncer.Fetch(ctx, t.courseID, t.videoID); err != nil {
		t.logger.Printf("[Tracker] Fetch failed for video %s: %v", t.videoID, err)
	} else {
		t.adopt(rec)
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.Tick(ctx)
		}
	}
}

// Tick processes one poll of the player: accumulate watch time, detect a
// crossed checkpoint, and push an update when the tick changed anything worth
// storing. Push errors are logged and dropped; the next tick recomputes from
// accumulated local state, so nothing is lost beyond one cadence.
func (t *Tracker) Tick(ctx context.Context) {
	st := t.player.State()
	now := t.now()

	// A zeroed position mid-session is a player glitch, not a restart; keep
	// reporting the last credible position so the stored resume point
	// survives the tick.
	ct := st.CurrentTime
	if ct == 0 && t.storedProgress > 0 {
		ct = t.position
	} else if ct > 0 {
		t.position = ct
	}

	if len(t.checkpoints) == 0 && st.Duration > 0 {
		t.checkpoints = services.GenerateCheckpoints(st.Duration)
	}

	var delta float64
	if st.Playing && !t.lastTick.IsZero() {
		delta = now.Sub(t.lastTick).Seconds()
		if delta < 0 {
			delta = 0
		}
		if delta > maxTickWatchDelta {
			delta = maxTickWatchDelta
		}
	}
	t.lastTick = now
	t.watchTime += delta

	// A fully scrubbed video must not report implausibly low watch time.
	estimated := t.watchTime
	if ct > estimated {
		estimated = ct
	}

	raw := 0
	if st.Duration > 0 {
		raw = int(math.Round(ct / st.Duration * 100))
	}
	if raw > 100 {
		raw = 100
	}
	// Regression clamp: players transiently report 0 or stale positions
	// during seeks and reloads. Earned progress never goes backward.
	if raw < t.storedProgress && ct > 0 {
		raw = t.storedProgress
	}
	if ct == 0 && t.storedProgress > 0 {
		raw = t.storedProgress
	}

	if cp, idx, ok := services.NextCheckpoint(ct, t.watchTime, t.nextIndex, t.checkpoints); ok {
		t.nextIndex = idx
		t.pending = append(t.pending, cp.Percentage)
	}

	unsynced := estimated - t.storedWatchTime
	if unsynced < 0 {
		unsynced = 0
	}

	changed := abs(raw-t.storedProgress) > progressPushThreshold ||
		len(t.pending) > 0 || delta > 0 || unsynced > 0
	if !changed || raw < t.storedProgress {
		return
	}

	// One checkpoint per update: the oldest unacknowledged crossing rides
	// this push, the rest drain on subsequent ticks.
	var reached *int
	if len(t.pending) > 0 {
		reached = &t.pending[0]
	}

	upd := services.ProgressUpdate{
		CurrentTime:       ct,
		Duration:          st.Duration,
		Progress:          raw,
		WatchTime:         unsynced,
		ReachedPercentage: reached,
	}

	rec, err := t.syncer.Push(ctx, t.courseID, t.videoID, upd)
	if err != nil {
		t.logger.Printf("[Tracker] Push failed for video %s: %v", t.videoID, err)
		return
	}

	if len(t.pending) > 0 {
		t.pending = t.pending[1:]
	}
	t.adopt(rec)
}

// Progress returns the last acknowledged progress percent and total watch time.
func (t *Tracker) Progress() (int, float64) {
	return t.storedProgress, t.storedWatchTime
}

// adopt merges a server record into local state. Counters only move forward;
// a stale response from a slow request cannot roll them back.
func (t *Tracker) adopt(rec *models.WatchProgress) {
	if rec.Progress > t.storedProgress {
		t.storedProgress = rec.Progress
	}
	if rec.TotalWatchTime > t.storedWatchTime {
		t.storedWatchTime = rec.TotalWatchTime
	}
	if rec.TotalWatchTime > t.watchTime {
		t.watchTime = rec.TotalWatchTime
	}
	if t.position == 0 && rec.CurrentTime > 0 {
		t.position = rec.CurrentTime
	}

	if len(t.checkpoints) == 0 && rec.Duration > 0 {
		t.checkpoints = services.GenerateCheckpoints(rec.Duration)
	}

	reached := make([]int, 0, len(rec.Checkpoints))
	for _, cp := range rec.Checkpoints {
		reached = append(reached, cp.Percentage)
	}
	if idx := services.NextIndexFor(reached); idx > t.nextIndex {
		t.nextIndex = idx
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
