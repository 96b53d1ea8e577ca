package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"arith-quiz-service/internal/domain"
	"arith-quiz-service/internal/engine"
	"github.com/jonboulle/clockwork"
)

// SessionRepository abstracts where the active games of players live.
type SessionRepository interface {
	GetOrCreate(playerID string, create func() *Game) *Game
	Get(playerID string) (*Game, bool)
	Delete(playerID string)
}

// BankRepository loads question banks (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error)
}

// HistoryStore is the append-only per-user result history.
type HistoryStore interface {
	Append(ctx context.Context, userID string, record domain.HistoryRecord) error
	// List returns a user's records oldest first.
	List(ctx context.Context, userID string) ([]domain.HistoryRecord, error)
	// ListAll returns every user's records, keyed by user id.
	ListAll(ctx context.Context) (map[string][]domain.HistoryRecord, error)
}

// Options tune new sessions.
type Options struct {
	BankID        string
	QuestionCount int
	TimeLimit     time.Duration
	Rand          engine.Rand
	Clock         clockwork.Clock
	Logger        *slog.Logger
	NewID         func() string
}

// QuizService contains the quiz use cases, keyed by player.
type QuizService struct {
	games   SessionRepository
	banks   BankRepository
	history HistoryStore
	opts    Options
	logger  *slog.Logger
}

func NewQuizService(games SessionRepository, banks BankRepository, history HistoryStore, opts Options) *QuizService {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Rand == nil {
		opts.Rand = engine.DefaultRand
	}
	if opts.BankID == "" {
		opts.BankID = "arithmetic"
	}
	return &QuizService{games: games, banks: banks, history: history, opts: opts, logger: opts.Logger}
}

// NewGame is exported for infrastructure layers that hold games.
func (s *QuizService) NewGame(playerID, userID string) *Game {
	return newGame(playerID, userID, s.opts.Clock, s.history, s.logger)
}

func (s *QuizService) builder(ctx context.Context) (*engine.Builder, error) {
	bank, err := s.banks.GetBank(ctx, s.opts.BankID)
	if err != nil {
		return nil, fmt.Errorf("load bank %s: %w", s.opts.BankID, err)
	}
	opts := []engine.BuilderOption{
		engine.WithRand(s.opts.Rand),
		engine.WithClock(s.opts.Clock),
		engine.WithQuestionCount(s.opts.QuestionCount),
		engine.WithTimeLimit(s.opts.TimeLimit),
	}
	if s.opts.NewID != nil {
		opts = append(opts, engine.WithIDGenerator(s.opts.NewID))
	}
	return engine.NewBuilder(bank, opts...), nil
}

// Start builds a new session for the player, replacing any active one.
// userID may be empty for guests; guest results are not persisted.
func (s *QuizService) Start(ctx context.Context, playerID, userID string, difficulty domain.Difficulty, mode domain.Mode) (domain.SessionView, error) {
	b, err := s.builder(ctx)
	if err != nil {
		return domain.SessionView{}, err
	}
	session, err := b.Build(difficulty, mode)
	if err != nil {
		return domain.SessionView{}, err
	}

	game := s.games.GetOrCreate(playerID, func() *Game { return s.NewGame(playerID, userID) })
	game.SetUser(userID)
	return game.begin(ctx, session), nil
}

// Retake starts a fresh session with the previous difficulty and mode.
func (s *QuizService) Retake(ctx context.Context, playerID string) (domain.SessionView, error) {
	game, err := s.game(playerID)
	if err != nil {
		return domain.SessionView{}, err
	}
	d, m, err := game.lastSelection()
	if err != nil {
		return domain.SessionView{}, err
	}
	b, err := s.builder(ctx)
	if err != nil {
		return domain.SessionView{}, err
	}
	session, err := b.Build(d, m)
	if err != nil {
		return domain.SessionView{}, err
	}
	return game.begin(ctx, session), nil
}

func (s *QuizService) game(playerID string) (*Game, error) {
	game, ok := s.games.Get(playerID)
	if !ok {
		return nil, domain.ErrNoActiveSession
	}
	return game, nil
}

// RecordAnswer answers the current multiple-choice or true/false question.
func (s *QuizService) RecordAnswer(ctx context.Context, playerID string, value any) (domain.ScoringOutcome, error) {
	game, err := s.game(playerID)
	if err != nil {
		return domain.ScoringOutcome{}, err
	}
	return game.recordAnswer(ctx, value)
}

// SelectLeft picks the left item the next ChooseRight applies to.
func (s *QuizService) SelectLeft(ctx context.Context, playerID string, left int) (domain.SessionView, error) {
	game, err := s.game(playerID)
	if err != nil {
		return domain.SessionView{}, err
	}
	return game.selectLeft(ctx, left)
}

// ChooseRight matches the selected left item with a right key.
func (s *QuizService) ChooseRight(ctx context.Context, playerID, key string) (domain.MatchOutcome, error) {
	game, err := s.game(playerID)
	if err != nil {
		return domain.MatchOutcome{}, err
	}
	return game.chooseRight(ctx, key)
}

// Unassign clears the right item bound to a left item.
func (s *QuizService) Unassign(ctx context.Context, playerID string, left int) (domain.SessionView, error) {
	game, err := s.game(playerID)
	if err != nil {
		return domain.SessionView{}, err
	}
	return game.unassign(ctx, left)
}

// Advance moves to the next question. The returned result is non-nil when the
// session completed.
func (s *QuizService) Advance(ctx context.Context, playerID string) (domain.SessionView, *domain.SessionResult, error) {
	game, err := s.game(playerID)
	if err != nil {
		return domain.SessionView{}, nil, err
	}
	return game.advance(ctx)
}

// Quit abandons the active session. Nothing is recorded unless the deadline
// already passed, in which case the session expires and ErrTimeExpired is returned.
func (s *QuizService) Quit(ctx context.Context, playerID string) error {
	game, err := s.game(playerID)
	if err != nil {
		return err
	}
	return game.quit(ctx)
}

// View renders the player's session.
func (s *QuizService) View(ctx context.Context, playerID string) (domain.SessionView, error) {
	game, err := s.game(playerID)
	if err != nil {
		return domain.SessionView{}, err
	}
	return game.view(ctx)
}

// Result returns the player's most recent finished session.
func (s *QuizService) Result(_ context.Context, playerID string) (domain.SessionResult, error) {
	game, err := s.game(playerID)
	if err != nil {
		return domain.SessionResult{}, err
	}
	result, ok := game.LastResult()
	if !ok {
		return domain.SessionResult{}, domain.ErrNoActiveSession
	}
	return result, nil
}

// Subscribe returns a channel that receives the player's events.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, playerID, userID string) (<-chan domain.Event, func()) {
	game := s.games.GetOrCreate(playerID, func() *Game { return s.NewGame(playerID, userID) })
	return game.subscribe()
}

// Leave drops the player's game and stops its countdown.
func (s *QuizService) Leave(_ context.Context, playerID string) {
	game, ok := s.games.Get(playerID)
	if !ok {
		return
	}
	game.shutdown()
	s.games.Delete(playerID)
}

// Release drops the player's game once its last subscriber is gone. It
// reports whether the game was dropped.
func (s *QuizService) Release(_ context.Context, playerID string) bool {
	game, ok := s.games.Get(playerID)
	if !ok {
		return false
	}
	if !game.shutdownIfIdle() {
		return false
	}
	s.games.Delete(playerID)
	return true
}

// Bank returns the configured question bank.
func (s *QuizService) Bank(ctx context.Context) (domain.QuestionBank, error) {
	return s.banks.GetBank(ctx, s.opts.BankID)
}

// History lists a user's records oldest first.
func (s *QuizService) History(ctx context.Context, userID string) ([]domain.HistoryRecord, error) {
	records, err := s.history.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return records, nil
}

// Stats summarises a user's history.
func (s *QuizService) Stats(ctx context.Context, userID string) (domain.Stats, error) {
	records, err := s.History(ctx, userID)
	if err != nil {
		return domain.Stats{}, err
	}
	return ComputeStats(userID, records), nil
}

// Leaderboard ranks users by average percentage. limit <= 0 means the default of 5.
func (s *QuizService) Leaderboard(ctx context.Context, limit int) (domain.Leaderboard, error) {
	all, err := s.history.ListAll(ctx)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("list all history: %w", err)
	}
	return RankUsers(all, limit, s.opts.Clock.Now()), nil
}
