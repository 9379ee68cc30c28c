package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStatisticsEmpty(t *testing.T) {
	stats := ComputeStatistics(nil, time.Now())

	assert.Equal(t, 0, stats.TotalTasks)
	assert.Equal(t, 0, stats.CompletedTasks)
	assert.Equal(t, 0, stats.OverdueTasks)
	assert.Zero(t, stats.AvgCompletionTime)
	require.Len(t, stats.CompletionTrend, 7)
	for _, point := range stats.CompletionTrend {
		assert.Equal(t, 0, point.Count)
	}
}

func TestComputeStatisticsCounts(t *testing.T) {
	now := time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)
	completedAt := now.Add(-24 * time.Hour)
	createdAt := now.Add(-72 * time.Hour)

	tasks := []Task{
		{Status: StatusCompleted, CompletedAt: &completedAt, CreatedAt: createdAt, Category: "work"},
		{Status: StatusPending, DueDate: &past, Category: "work"},
		{Status: StatusInProgress, DueDate: &future, Category: "personal"},
		{Status: StatusPending},
	}

	stats := ComputeStatistics(tasks, now)

	assert.Equal(t, 4, stats.TotalTasks)
	assert.Equal(t, 1, stats.CompletedTasks)
	assert.Equal(t, 1, stats.OverdueTasks)
	// 72h create-to-complete minus 24h remaining: two days.
	assert.InDelta(t, 2.0, stats.AvgCompletionTime, 0.001)
	assert.Equal(t, map[string]int{"work": 2, "personal": 1}, stats.CategoryDistribution)
}

func TestComputeStatisticsCompletedTaskIsNeverOverdue(t *testing.T) {
	now := time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	completedAt := now.Add(-24 * time.Hour)

	tasks := []Task{
		{Status: StatusCompleted, DueDate: &past, CompletedAt: &completedAt, CreatedAt: past},
	}

	stats := ComputeStatistics(tasks, now)
	assert.Equal(t, 0, stats.OverdueTasks)
}

func TestComputeStatisticsTrend(t *testing.T) {
	now := time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	lastWeek := now.AddDate(0, 0, -10)

	tasks := []Task{
		{Status: StatusCompleted, CompletedAt: &now, CreatedAt: now},
		{Status: StatusCompleted, CompletedAt: &yesterday, CreatedAt: yesterday},
		{Status: StatusCompleted, CompletedAt: &yesterday, CreatedAt: yesterday},
		// Outside the trailing window: counted as completed, not in trend.
		{Status: StatusCompleted, CompletedAt: &lastWeek, CreatedAt: lastWeek},
	}

	stats := ComputeStatistics(tasks, now)
	require.Len(t, stats.CompletionTrend, 7)

	assert.Equal(t, "2026-08-22", stats.CompletionTrend[0].Date)
	assert.Equal(t, "2026-08-28", stats.CompletionTrend[6].Date)
	assert.Equal(t, 1, stats.CompletionTrend[6].Count)
	assert.Equal(t, 2, stats.CompletionTrend[5].Count)

	total := 0
	for _, point := range stats.CompletionTrend {
		total += point.Count
	}
	assert.Equal(t, 3, total)
	assert.Equal(t, 4, stats.CompletedTasks)
}
