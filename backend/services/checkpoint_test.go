package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateCheckpoints(t *testing.T) {
	checkpoints := GenerateCheckpoints(120)
	assert.Len(t, checkpoints, 10)

	expectedTimes := []float64{12, 24, 36, 48, 60, 72, 84, 96, 108, 120}
	for i, cp := range checkpoints {
		assert.Equal(t, (i+1)*10, cp.Percentage)
		assert.InDelta(t, expectedTimes[i], cp.Time, 0.0001)
	}
}

func TestGenerateCheckpointsUnknownDuration(t *testing.T) {
	assert.Empty(t, GenerateCheckpoints(0))
	assert.Empty(t, GenerateCheckpoints(-5))
}

func TestNextCheckpointWatchTimeGuard(t *testing.T) {
	checkpoints := GenerateCheckpoints(100)

	// 15s into a 100s video crosses the 10% threshold, but not enough real
	// viewing has accumulated yet.
	_, idx, ok := NextCheckpoint(15, 5, 0, checkpoints)
	assert.False(t, ok)
	assert.Equal(t, 0, idx)

	cp, idx, ok := NextCheckpoint(15, 10, 0, checkpoints)
	assert.True(t, ok)
	assert.Equal(t, 10, cp.Percentage)
	assert.Equal(t, 1, idx)
}

func TestNextCheckpointOnePerCall(t *testing.T) {
	checkpoints := GenerateCheckpoints(100)

	// A seek to 55s is past five thresholds; each call credits exactly one.
	idx := 0
	var earned []int
	for {
		cp, next, ok := NextCheckpoint(55, 120, idx, checkpoints)
		if !ok {
			break
		}
		earned = append(earned, cp.Percentage)
		idx = next
	}

	assert.Equal(t, []int{10, 20, 30, 40, 50}, earned)
	assert.Equal(t, 5, idx)
}

func TestNextCheckpointNotReached(t *testing.T) {
	checkpoints := GenerateCheckpoints(100)

	_, idx, ok := NextCheckpoint(9.9, 120, 0, checkpoints)
	assert.False(t, ok)
	assert.Equal(t, 0, idx)
}

func TestNextCheckpointInvalidInput(t *testing.T) {
	checkpoints := GenerateCheckpoints(100)

	_, _, ok := NextCheckpoint(100, 120, len(checkpoints), checkpoints)
	assert.False(t, ok)

	_, _, ok = NextCheckpoint(100, 120, -1, checkpoints)
	assert.False(t, ok)

	_, _, ok = NextCheckpoint(100, 120, 0, nil)
	assert.False(t, ok)
}

func TestNextIndexFor(t *testing.T) {
	assert.Equal(t, 0, NextIndexFor(nil))
	assert.Equal(t, 3, NextIndexFor([]int{10, 20, 30}))
	assert.Equal(t, 5, NextIndexFor([]int{10, 50}))
	assert.Equal(t, 10, NextIndexFor([]int{100}))
}
