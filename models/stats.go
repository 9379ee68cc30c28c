package models

import "time"

// TrendPoint is one day of the trailing completion trend.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Statistics is the per-user aggregation result. The task set it is computed
// over is the deduplicated union of the user's three access relations; the
// query layer is responsible for fetching each task once.
type Statistics struct {
	TotalTasks           int            `json:"totalTasks"`
	CompletedTasks       int            `json:"completedTasks"`
	OverdueTasks         int            `json:"overdueTasks"`
	AvgCompletionTime    float64        `json:"avgCompletionTime"`
	CompletionTrend      []TrendPoint   `json:"completionTrend"`
	CategoryDistribution map[string]int `json:"categoryDistribution"`
}

const trendDays = 7

// ComputeStatistics reduces a fetched task set into the statistics document.
// Average completion time is in days over completed tasks only, zero when
// none exist. The trend covers the trailing 7 calendar days including today,
// zero-filled. Tasks without a category are excluded from the distribution.
func ComputeStatistics(tasks []Task, now time.Time) Statistics {
	stats := Statistics{
		CategoryDistribution: make(map[string]int),
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	trend := make(map[string]int, trendDays)
	for i := 0; i < trendDays; i++ {
		trend[today.AddDate(0, 0, -i).Format("2006-01-02")] = 0
	}

	var completionDays float64
	for _, t := range tasks {
		stats.TotalTasks++

		if t.Status == StatusCompleted {
			stats.CompletedTasks++
			if t.CompletedAt != nil {
				completionDays += t.CompletedAt.Sub(t.CreatedAt).Hours() / 24
				day := t.CompletedAt.In(now.Location()).Format("2006-01-02")
				if _, ok := trend[day]; ok {
					trend[day]++
				}
			}
		} else if t.DueDate != nil && t.DueDate.Before(now) {
			stats.OverdueTasks++
		}

		if t.Category != "" {
			stats.CategoryDistribution[t.Category]++
		}
	}

	if stats.CompletedTasks > 0 {
		stats.AvgCompletionTime = completionDays / float64(stats.CompletedTasks)
	}

	stats.CompletionTrend = make([]TrendPoint, 0, trendDays)
	for i := trendDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i).Format("2006-01-02")
		stats.CompletionTrend = append(stats.CompletionTrend, TrendPoint{Date: day, Count: trend[day]})
	}

	return stats
}
