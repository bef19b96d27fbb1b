package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil)
	require.Equal(t, BatchStats{}, stats)
}

func TestComputeStatsAggregates(t *testing.T) {
	items := []QueueItem{
		{Status: StatusCompleted, WordCount: 10, Duration: 2 * time.Second, Confidence: floatPtr(90)},
		{Status: StatusCompleted, WordCount: 5, Duration: 1 * time.Second, Confidence: floatPtr(70)},
		{Status: StatusCompleted, WordCount: 3, Duration: 1 * time.Second}, // no confidence (PDF text layer)
		{Status: StatusError},
		{Status: StatusPending},
	}

	stats := ComputeStats(items)
	require.Equal(t, 5, stats.TotalFiles)
	require.Equal(t, 3, stats.CompletedFiles)
	require.Equal(t, 1, stats.ErrorFiles)
	require.Equal(t, 1, stats.PendingFiles)
	require.Equal(t, 18, stats.TotalWords)
	require.Equal(t, 4*time.Second, stats.TotalTime)

	// Confidence averages only over items that carry one.
	require.InDelta(t, 80.0, stats.AvgConfidence, 0.001)
}

func TestComputeStatsCountsMatchTotal(t *testing.T) {
	items := []QueueItem{
		{Status: StatusCompleted},
		{Status: StatusError},
		{Status: StatusPending},
		{Status: StatusPending},
	}
	stats := ComputeStats(items)
	require.Equal(t, stats.TotalFiles, stats.CompletedFiles+stats.ErrorFiles+stats.PendingFiles)
}
