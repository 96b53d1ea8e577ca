package app

import (
	"math"
	"sort"
	"time"

	"arith-quiz-service/internal/domain"
)

const (
	// RecentAttempts is how many records Stats.Recent holds.
	RecentAttempts = 5
	// DefaultLeaderboardSize is the number of ranked users when no limit is given.
	DefaultLeaderboardSize = 5
)

// ComputeStats aggregates records given oldest first.
func ComputeStats(userID string, records []domain.HistoryRecord) domain.Stats {
	stats := domain.Stats{UserID: userID, TotalQuizzes: len(records), Recent: []domain.HistoryRecord{}}
	if len(records) == 0 {
		return stats
	}

	sum := 0
	for _, r := range records {
		sum += r.Percentage
		if r.Score > stats.BestScore {
			stats.BestScore = r.Score
		}
	}
	stats.AveragePercent = averagePercent(sum, len(records))

	for i := len(records) - 1; i >= 0 && len(stats.Recent) < RecentAttempts; i-- {
		stats.Recent = append(stats.Recent, records[i])
	}
	return stats
}

func averagePercent(sum, n int) int {
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}

// RankUsers orders users with at least one record by average percentage,
// highest first; ties fall back to user id.
func RankUsers(all map[string][]domain.HistoryRecord, limit int, now time.Time) domain.Leaderboard {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}

	entries := make([]domain.LeaderboardEntry, 0, len(all))
	for userID, records := range all {
		if len(records) == 0 {
			continue
		}
		sum := 0
		for _, r := range records {
			sum += r.Percentage
		}
		entries = append(entries, domain.LeaderboardEntry{
			UserID:         userID,
			AveragePercent: averagePercent(sum, len(records)),
			TotalQuizzes:   len(records),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].AveragePercent != entries[j].AveragePercent {
			return entries[i].AveragePercent > entries[j].AveragePercent
		}
		return entries[i].UserID < entries[j].UserID
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: now}
}
