package services

// The checkpoint ladder runs in fixed 10% steps up to 100%.
const (
	CheckpointStep  = 10
	CheckpointCount = 100 / CheckpointStep

	// MinWatchTimeForCheckpoint is the accumulated viewing time (seconds)
	// required before any checkpoint is credited. A seek-only session with no
	// real viewing earns nothing.
	MinWatchTimeForCheckpoint = 10.0
)

// Checkpoint is one entry of the percentage ladder, resolved against a
// concrete video duration.
type Checkpoint struct {
	Percentage int     `json:"percentage"`
	Time       float64 `json:"time"` // seconds into the video
}

// GenerateCheckpoints resolves the ladder for a video of the given duration.
// An unknown or non-positive duration returns an empty ladder; checkpointing
// is simply deferred until the duration is known.
func GenerateCheckpoints(duration float64) []Checkpoint {
	if duration <= 0 {
		return nil
	}

	checkpoints := make([]Checkpoint, 0, CheckpointCount)
	for pct := CheckpointStep; pct <= 100; pct += CheckpointStep {
		checkpoints = append(checkpoints, Checkpoint{
			Percentage: pct,
			Time:       duration * float64(pct) / 100,
		})
	}
	return checkpoints
}

// NextCheckpoint checks whether the single next checkpoint in the ladder has
// been crossed. It returns the crossed checkpoint, the advanced index, and
// whether a checkpoint was credited. At most one checkpoint is credited per
// call: when a seek jumps past several thresholds at once, the remaining ones
// are picked up on subsequent ticks since currentTime keeps satisfying them.
//
// Out-of-range indices and unreadable input never panic, they yield no credit.
func NextCheckpoint(currentTime, watchTime float64, nextIndex int, checkpoints []Checkpoint) (Checkpoint, int, bool) {
	if nextIndex < 0 || nextIndex >= len(checkpoints) {
		return Checkpoint{}, nextIndex, false
	}

	cp := checkpoints[nextIndex]
	if cp.Time <= 0 || currentTime < cp.Time {
		return Checkpoint{}, nextIndex, false
	}
	if watchTime < MinWatchTimeForCheckpoint {
		return Checkpoint{}, nextIndex, false
	}

	return cp, nextIndex + 1, true
}

// NextIndexFor maps a set of already reached percentages to the index of the
// first checkpoint still to earn, so a resumed session continues the ladder
// where the stored record left off.
func NextIndexFor(reached []int) int {
	highest := 0
	for _, pct := range reached {
		if pct > highest {
			highest = pct
		}
	}
	return highest / CheckpointStep
}
