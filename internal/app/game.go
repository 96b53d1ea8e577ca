package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"arith-quiz-service/internal/domain"
	"arith-quiz-service/internal/engine"
	"github.com/jonboulle/clockwork"
)

// Game owns a player's active session and its countdown. Input, ticks and
// expiry all run under mu, so they never interleave.
type Game struct {
	playerID string
	userID   string

	clock   clockwork.Clock
	history HistoryStore
	logger  *slog.Logger

	mu          sync.Mutex
	session     *engine.Session
	countdown   *engine.Countdown
	lastResult  *domain.SessionResult
	subscribers map[chan domain.Event]struct{}
}

func newGame(playerID, userID string, clock clockwork.Clock, history HistoryStore, logger *slog.Logger) *Game {
	return &Game{
		playerID:    playerID,
		userID:      userID,
		clock:       clock,
		history:     history,
		logger:      logger.With(slog.String("player", playerID)),
		subscribers: make(map[chan domain.Event]struct{}),
	}
}

// PlayerID identifies the game's owner.
func (g *Game) PlayerID() string { return g.playerID }

// Active reports whether a session is in progress.
func (g *Game) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session != nil && !g.session.State().Terminated()
}

// LastResult returns the result of the most recently finished session.
func (g *Game) LastResult() (domain.SessionResult, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.lastResult == nil {
		return domain.SessionResult{}, false
	}
	return *g.lastResult, true
}

// SetUser attaches a user id; later finished sessions are persisted under it.
func (g *Game) SetUser(userID string) {
	g.mu.Lock()
	g.userID = userID
	g.mu.Unlock()
}

// begin installs s as the only active session, discarding any previous one.
// An overdue previous session is expired and recorded first.
func (g *Game) begin(ctx context.Context, s *engine.Session) domain.SessionView {
	g.mu.Lock()
	defer g.mu.Unlock()

	if prev := g.session; prev != nil && !prev.State().Terminated() {
		if prev.Expired(g.clock.Now()) {
			g.expireLocked(ctx, prev)
		} else {
			prev.Terminate(domain.StateQuit)
			g.logger.Info("session discarded", slog.String("session", prev.ID))
		}
	}
	g.stopLocked()
	g.session = s
	g.lastResult = nil
	g.countdown = engine.StartCountdown(g.clock, s.StartedAt, s.TimeLimit,
		func(remaining time.Duration) { g.onTick(s, remaining) },
		func() { g.onExpire(s) },
	)
	g.logger.Info("session started",
		slog.String("session", s.ID),
		slog.String("mode", string(s.Mode)),
		slog.String("difficulty", string(s.Difficulty)),
	)

	view := s.View(g.clock.Now())
	g.broadcastLocked(domain.Event{Type: domain.EventView, View: &view})
	return view
}

func (g *Game) stopLocked() {
	if g.countdown != nil {
		g.countdown.Stop()
		g.countdown = nil
	}
}

// activeLocked returns the session that input applies to. An overdue session
// is expired first, so expiry wins over input that arrives with it.
func (g *Game) activeLocked(ctx context.Context) (*engine.Session, error) {
	if g.session == nil {
		return nil, domain.ErrNoActiveSession
	}
	switch g.session.State() {
	case domain.StateExpired:
		return nil, domain.ErrTimeExpired
	case domain.StateCompleted, domain.StateQuit:
		return nil, domain.ErrSessionClosed
	}
	if g.session.Expired(g.clock.Now()) {
		g.expireLocked(ctx, g.session)
		return nil, domain.ErrTimeExpired
	}
	return g.session, nil
}

func (g *Game) onTick(s *engine.Session, remaining time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session != s || s.State().Terminated() {
		return
	}
	view := s.View(g.clock.Now())
	view.RemainingSeconds = engine.RemainingSeconds(remaining)
	view.Clock = engine.FormatClock(view.RemainingSeconds)
	g.broadcastLocked(domain.Event{Type: domain.EventTick, View: &view})
}

func (g *Game) onExpire(s *engine.Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session != s || s.State().Terminated() {
		return
	}
	g.expireLocked(context.Background(), s)
}

func (g *Game) expireLocked(ctx context.Context, s *engine.Session) {
	if !s.Terminate(domain.StateExpired) {
		return
	}
	g.logger.Info("session expired", slog.String("session", s.ID))
	g.finishLocked(ctx, s)
}

// finishLocked compiles and persists a completed or expired session.
func (g *Game) finishLocked(ctx context.Context, s *engine.Session) domain.SessionResult {
	g.stopLocked()
	now := g.clock.Now()
	result := engine.Compile(s, now)
	g.lastResult = &result

	persisted := false
	if g.userID != "" && g.history != nil {
		if err := g.history.Append(ctx, g.userID, engine.HistoryRecordFor(result, now)); err != nil {
			g.logger.Warn("history append failed",
				slog.String("session", s.ID),
				slog.String("user", g.userID),
				slog.String("error", err.Error()),
			)
		} else {
			persisted = true
		}
	}

	g.logger.Info("session finished",
		slog.String("session", s.ID),
		slog.String("outcome", string(result.Outcome)),
		slog.Int("score", result.Score),
		slog.Int("total", result.TotalQuestions),
	)
	g.broadcastLocked(domain.Event{Type: domain.EventCompleted, Result: &result, Persisted: persisted})
	return result
}

func (g *Game) viewEventLocked(s *engine.Session) domain.SessionView {
	view := s.View(g.clock.Now())
	g.broadcastLocked(domain.Event{Type: domain.EventView, View: &view})
	return view
}

func (g *Game) recordAnswer(ctx context.Context, value any) (domain.ScoringOutcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, err := g.activeLocked(ctx)
	if err != nil {
		return domain.ScoringOutcome{}, err
	}
	out, err := s.RecordAnswer(value)
	if err != nil {
		return domain.ScoringOutcome{}, err
	}
	g.viewEventLocked(s)
	return out, nil
}

func (g *Game) selectLeft(ctx context.Context, left int) (domain.SessionView, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, err := g.activeLocked(ctx)
	if err != nil {
		return domain.SessionView{}, err
	}
	if err := s.SelectLeft(left); err != nil {
		return domain.SessionView{}, err
	}
	return g.viewEventLocked(s), nil
}

func (g *Game) chooseRight(ctx context.Context, key string) (domain.MatchOutcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, err := g.activeLocked(ctx)
	if err != nil {
		return domain.MatchOutcome{}, err
	}
	out, err := s.ChooseRight(key)
	if err != nil {
		return domain.MatchOutcome{}, err
	}
	g.viewEventLocked(s)
	return out, nil
}

func (g *Game) unassign(ctx context.Context, left int) (domain.SessionView, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, err := g.activeLocked(ctx)
	if err != nil {
		return domain.SessionView{}, err
	}
	if err := s.Unassign(left); err != nil {
		return domain.SessionView{}, err
	}
	return g.viewEventLocked(s), nil
}

// advance moves past the current unit. The result is non-nil once the last
// unit has been passed.
func (g *Game) advance(ctx context.Context) (domain.SessionView, *domain.SessionResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, err := g.activeLocked(ctx)
	if err != nil {
		return domain.SessionView{}, nil, err
	}
	finished, err := s.Advance()
	if err != nil {
		return domain.SessionView{}, nil, err
	}
	if finished {
		result := g.finishLocked(ctx, s)
		return s.View(g.clock.Now()), &result, nil
	}
	return g.viewEventLocked(s), nil, nil
}

// quit abandons the session without compiling or persisting a result. A
// quit that arrives after the deadline expires the session instead.
func (g *Game) quit(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, err := g.activeLocked(ctx)
	if err != nil {
		return err
	}
	s.Terminate(domain.StateQuit)
	g.stopLocked()
	g.logger.Info("session quit", slog.String("session", s.ID))
	g.broadcastLocked(domain.Event{Type: domain.EventQuit})
	return nil
}

func (g *Game) view(ctx context.Context) (domain.SessionView, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session == nil {
		return domain.SessionView{}, domain.ErrNoActiveSession
	}
	if !g.session.State().Terminated() && g.session.Expired(g.clock.Now()) {
		g.expireLocked(ctx, g.session)
	}
	return g.session.View(g.clock.Now()), nil
}

// lastSelection is the tier and mode of the most recent session.
func (g *Game) lastSelection() (domain.Difficulty, domain.Mode, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session == nil {
		return "", "", domain.ErrNoActiveSession
	}
	return g.session.Difficulty, g.session.Mode, nil
}

// shutdown stops the countdown, drops the session and closes subscriber channels.
func (g *Game) shutdown() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.shutdownLocked()
}

// shutdownIfIdle shuts the game down only when no subscriber is left.
func (g *Game) shutdownIfIdle() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.subscribers) > 0 {
		return false
	}
	g.shutdownLocked()
	return true
}

func (g *Game) shutdownLocked() {
	g.stopLocked()
	if g.session != nil {
		g.session.Terminate(domain.StateQuit)
	}
	for ch := range g.subscribers {
		delete(g.subscribers, ch)
		close(ch)
	}
}

func (g *Game) subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 8)

	g.mu.Lock()
	g.subscribers[ch] = struct{}{}
	if g.session != nil {
		view := g.session.View(g.clock.Now())
		ch <- domain.Event{Type: domain.EventView, View: &view}
	}
	g.mu.Unlock()

	cancel := func() {
		g.mu.Lock()
		if _, ok := g.subscribers[ch]; ok {
			delete(g.subscribers, ch)
			close(ch)
		}
		g.mu.Unlock()
	}
	return ch, cancel
}

// broadcastLocked never blocks; a full subscriber loses its oldest event.
func (g *Game) broadcastLocked(ev domain.Event) {
	for ch := range g.subscribers {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
				g.logger.Warn("subscriber dropped event", slog.String("type", string(ev.Type)))
			}
		}
	}
}

// IsTerminalEvent reports whether ev ends the session's event stream.
func IsTerminalEvent(ev domain.Event) bool {
	return ev.Type == domain.EventCompleted || ev.Type == domain.EventQuit
}
