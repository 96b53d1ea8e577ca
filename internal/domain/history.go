package domain

import "time"

// HistoryRecord is the condensed result appended to a user's history.
type HistoryRecord struct {
	Difficulty     Difficulty `json:"difficulty"`
	ModeLabel      string     `json:"modeLabel"`
	Score          int        `json:"score"`
	TotalQuestions int        `json:"totalQuestions"`
	Percentage     int        `json:"percentage"`
	Date           time.Time  `json:"date"`
	ElapsedSeconds int        `json:"elapsedSeconds"`
}

// Stats aggregates a user's history.
type Stats struct {
	UserID         string          `json:"userId"`
	TotalQuizzes   int             `json:"totalQuizzes"`
	AveragePercent int             `json:"averagePercent"`
	BestScore      int             `json:"bestScore"`
	Recent         []HistoryRecord `json:"recent"`
}

// LeaderboardEntry ranks a user by average percentage.
type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	UserID         string `json:"userId"`
	AveragePercent int    `json:"averagePercent"`
	TotalQuizzes   int    `json:"totalQuizzes"`
}

// Leaderboard is the ordered ranking snapshot.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}
