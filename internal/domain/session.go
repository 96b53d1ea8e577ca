package domain

import "time"

// SessionState is the lifecycle stage of a quiz session.
type SessionState string

const (
	StateInProgress SessionState = "in_progress"
	StateCompleted  SessionState = "completed"
	StateExpired    SessionState = "expired"
	StateQuit       SessionState = "quit"
)

// Terminated reports whether the session accepts no further input.
func (s SessionState) Terminated() bool {
	return s != StateInProgress
}

// Unanswered marks a review entry the player never answered.
const Unanswered = "unanswered"

// RightItem is a right-column entry of a matching round, keyed by its display letter.
type RightItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// QuestionView is what a renderer needs to draw the question under the cursor.
type QuestionView struct {
	Index  int    `json:"index"`
	Count  int    `json:"count"`
	Prompt string `json:"prompt"`

	// Multiple choice and true/false.
	Options  []string `json:"options,omitempty"`
	Selected *int     `json:"selected,omitempty"`

	// Matching.
	Left         []string    `json:"left,omitempty"`
	Right        []RightItem `json:"right,omitempty"`
	Assignments  []string    `json:"assignments,omitempty"`
	SelectedLeft *int        `json:"selectedLeft,omitempty"`
}

// SessionView is the render state emitted after every mutation.
type SessionView struct {
	SessionID        string       `json:"sessionId"`
	Title            string       `json:"title"`
	Mode             Mode         `json:"mode"`
	Difficulty       Difficulty   `json:"difficulty"`
	State            SessionState `json:"state"`
	Question         QuestionView `json:"question"`
	Score            int          `json:"score"`
	AdvanceAllowed   bool         `json:"advanceAllowed"`
	RemainingSeconds int          `json:"remainingSeconds"`
	Clock            string       `json:"clock"`
}

// ScoringOutcome summarises a multiple-choice or true/false answer.
type ScoringOutcome struct {
	Correct        bool `json:"correct"`
	Score          int  `json:"score"`
	AdvanceAllowed bool `json:"advanceAllowed"`
}

// MatchOutcome summarises a successful matching assignment.
type MatchOutcome struct {
	Left           int    `json:"left"`
	Key            string `json:"key"`
	Complete       bool   `json:"complete"`
	Score          int    `json:"score"`
	AdvanceAllowed bool   `json:"advanceAllowed"`
}

// ReviewEntry is one line of the results review.
type ReviewEntry struct {
	Index         int    `json:"index"`
	Prompt        string `json:"prompt"`
	Answer        string `json:"answer"`
	Answered      bool   `json:"answered"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer,omitempty"`
}

// SessionResult is the immutable outcome of a completed or expired session.
type SessionResult struct {
	SessionID      string        `json:"sessionId"`
	Mode           Mode          `json:"mode"`
	Difficulty     Difficulty    `json:"difficulty"`
	Outcome        SessionState  `json:"outcome"`
	Score          int           `json:"score"`
	TotalQuestions int           `json:"totalQuestions"`
	Percentage     int           `json:"percentage"`
	ElapsedSeconds int           `json:"elapsedSeconds"`
	FinishedAt     time.Time     `json:"finishedAt"`
	Review         []ReviewEntry `json:"review"`
}

// EventType names the signals a game emits to its subscribers.
type EventType string

const (
	EventView      EventType = "view"
	EventTick      EventType = "tick"
	EventCompleted EventType = "completed"
	EventQuit      EventType = "quit"
)

// Event is pushed to subscribers after each state change or clock tick.
type Event struct {
	Type      EventType      `json:"type"`
	View      *SessionView   `json:"view,omitempty"`
	Result    *SessionResult `json:"result,omitempty"`
	Persisted bool           `json:"persisted,omitempty"`
}
