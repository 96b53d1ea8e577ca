package domain

import "errors"

var (
	// ErrInvalidSelection is returned when a difficulty or mode is unset or unknown.
	ErrInvalidSelection = errors.New("invalid difficulty or mode selection")
	// ErrNoLeftPending is returned when a right item is chosen before a left item.
	ErrNoLeftPending = errors.New("select a left item first")
	// ErrRightAlreadyUsed is returned when a right item is already matched to another left item.
	ErrRightAlreadyUsed = errors.New("right item already used, choose another")
	// ErrEvaluatorMisuse indicates a call the current session cannot accept (wrong mode, cursor or index out of range).
	ErrEvaluatorMisuse = errors.New("evaluator misuse")
	// ErrInvalidAnswer indicates an answer value of the wrong kind for the question.
	ErrInvalidAnswer = errors.New("invalid answer")
	// ErrAdvanceNotAllowed is returned when advancing past an unanswered question.
	ErrAdvanceNotAllowed = errors.New("current question is not answered")
	// ErrSessionClosed is returned for input that arrives after the session terminated.
	ErrSessionClosed = errors.New("quiz session already finished")
	// ErrTimeExpired is returned when input arrives after the countdown reached zero.
	ErrTimeExpired = errors.New("time is up")
	// ErrNoActiveSession is returned when a player has no session to act on.
	ErrNoActiveSession = errors.New("no active quiz session")
	// ErrBankNotFound indicates the question bank could not be loaded.
	ErrBankNotFound = errors.New("question bank not found")
	// ErrBankIncomplete indicates a bank tier is missing or too small for a round.
	ErrBankIncomplete = errors.New("question bank incomplete")
)
