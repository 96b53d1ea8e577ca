package app_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"arith-quiz-service/internal/app"
	"arith-quiz-service/internal/domain"
	"arith-quiz-service/internal/infra/memory"
	"github.com/jonboulle/clockwork"
)

// stableRand keeps bank order, so the built-in bank's correct option stays at index 0.
type stableRand struct{}

func (stableRand) IntN(n int) int { return n - 1 }

var epoch = time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)

type fixture struct {
	service *app.QuizService
	clock   *clockwork.FakeClock
	history app.HistoryStore
}

func newFixture(t *testing.T, history app.HistoryStore) fixture {
	t.Helper()
	if history == nil {
		history = memory.NewHistoryStore()
	}
	clock := clockwork.NewFakeClockAt(epoch)
	service := app.NewQuizService(
		memory.NewSessionStore(),
		memory.NewBankRepository(memory.NewStaticBankLoader(), 5*time.Minute),
		history,
		app.Options{
			Rand:   stableRand{},
			Clock:  clock,
			Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		},
	)
	t.Cleanup(func() { service.Leave(context.Background(), "p1") })
	return fixture{service: service, clock: clock, history: history}
}

func waitFor(t *testing.T, ch <-chan domain.Event, typ domain.EventType) domain.Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("event channel closed while waiting for %s", typ)
			}
			if ev.Type == typ {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s event", typ)
		}
	}
}

func TestMultipleChoiceRoundIsPersisted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	view, err := f.service.Start(ctx, "p1", "alice", domain.Easy, domain.MultipleChoice)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if view.Title != "Easy - Multiple Choice" || view.RemainingSeconds != 60 || view.Clock != "1:00" {
		t.Fatalf("unexpected initial view %+v", view)
	}
	if view.AdvanceAllowed {
		t.Fatalf("advance must wait for an answer")
	}

	var result *domain.SessionResult
	for i := 0; i < 10; i++ {
		answer := 0
		if i >= 7 {
			answer = 1
		}
		out, err := f.service.RecordAnswer(ctx, "p1", answer)
		if err != nil {
			t.Fatalf("answer %d failed: %v", i, err)
		}
		if out.Correct != (i < 7) {
			t.Fatalf("answer %d: unexpected correctness %v", i, out.Correct)
		}
		f.clock.Advance(3 * time.Second)
		_, result, err = f.service.Advance(ctx, "p1")
		if err != nil {
			t.Fatalf("advance %d failed: %v", i, err)
		}
	}
	if result == nil {
		t.Fatalf("expected a result after the last question")
	}
	if result.Score != 7 || result.Percentage != 70 || result.ElapsedSeconds != 30 || result.Outcome != domain.StateCompleted {
		t.Fatalf("unexpected result %+v", result)
	}

	records, err := f.service.History(ctx, "alice")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(records) != 1 || records[0].ModeLabel != "MC" || records[0].Score != 7 || records[0].ElapsedSeconds != 30 {
		t.Fatalf("unexpected history %+v", records)
	}

	if _, err := f.service.RecordAnswer(ctx, "p1", 0); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("expected closed session, got %v", err)
	}
	last, err := f.service.Result(ctx, "p1")
	if err != nil || last.SessionID != result.SessionID {
		t.Fatalf("expected last result, got %+v %v", last, err)
	}
}

func TestGuestResultsAreNotPersisted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	if _, err := f.service.Start(ctx, "p1", "", domain.Medium, domain.TrueOrFalse); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	ch, cancel := f.service.Subscribe(ctx, "p1", "")
	defer cancel()

	for i := 0; i < 10; i++ {
		if _, err := f.service.RecordAnswer(ctx, "p1", true); err != nil {
			t.Fatalf("answer failed: %v", err)
		}
		if _, _, err := f.service.Advance(ctx, "p1"); err != nil {
			t.Fatalf("advance failed: %v", err)
		}
	}
	ev := waitFor(t, ch, domain.EventCompleted)
	if ev.Persisted || ev.Result == nil {
		t.Fatalf("guest result must not be persisted: %+v", ev)
	}
	all, _ := f.history.ListAll(ctx)
	if len(all) != 0 {
		t.Fatalf("expected empty history, got %+v", all)
	}
}

func TestQuitRecordsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	if _, err := f.service.Start(ctx, "p1", "alice", domain.Hard, domain.Matching); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	ch, cancel := f.service.Subscribe(ctx, "p1", "alice")
	defer cancel()

	if err := f.service.Quit(ctx, "p1"); err != nil {
		t.Fatalf("quit failed: %v", err)
	}
	waitFor(t, ch, domain.EventQuit)

	if err := f.service.Quit(ctx, "p1"); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("expected closed session on second quit, got %v", err)
	}
	if _, err := f.service.SelectLeft(ctx, "p1", 0); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("expected closed session, got %v", err)
	}
	if _, err := f.service.Result(ctx, "p1"); !errors.Is(err, domain.ErrNoActiveSession) {
		t.Fatalf("quit must not compile a result, got %v", err)
	}
	records, _ := f.service.History(ctx, "alice")
	if len(records) != 0 {
		t.Fatalf("quit must not append history, got %+v", records)
	}
}

func TestCountdownExpiresSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	if _, err := f.service.Start(ctx, "p1", "alice", domain.Easy, domain.Matching); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	ch, cancel := f.service.Subscribe(ctx, "p1", "alice")
	defer cancel()

	if _, err := f.service.SelectLeft(ctx, "p1", 0); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if _, err := f.service.ChooseRight(ctx, "p1", "A"); err != nil {
		t.Fatalf("choose failed: %v", err)
	}

	f.clock.Advance(time.Second)
	tick := waitFor(t, ch, domain.EventTick)
	if tick.View == nil || tick.View.RemainingSeconds != 59 || tick.View.Clock != "0:59" {
		t.Fatalf("unexpected tick %+v", tick.View)
	}

	f.clock.Advance(59 * time.Second)
	ev := waitFor(t, ch, domain.EventCompleted)
	if ev.Result.Outcome != domain.StateExpired || ev.Result.Score != 0 || ev.Result.ElapsedSeconds != 60 {
		t.Fatalf("unexpected expired result %+v", ev.Result)
	}
	if !ev.Persisted {
		t.Fatalf("expired round should be persisted")
	}

	if _, err := f.service.ChooseRight(ctx, "p1", "B"); !errors.Is(err, domain.ErrTimeExpired) {
		t.Fatalf("expected time expired, got %v", err)
	}
	records, _ := f.service.History(ctx, "alice")
	if len(records) != 1 || records[0].ModeLabel != "Match" {
		t.Fatalf("unexpected history %+v", records)
	}
}

func TestInputAfterDeadlineExpiresFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	if _, err := f.service.Start(ctx, "p1", "alice", domain.Easy, domain.TrueOrFalse); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	f.clock.Advance(61 * time.Second)

	if _, err := f.service.RecordAnswer(ctx, "p1", true); !errors.Is(err, domain.ErrTimeExpired) {
		t.Fatalf("expected time expired, got %v", err)
	}
	view, err := f.service.View(ctx, "p1")
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if view.State != domain.StateExpired || view.RemainingSeconds != 0 {
		t.Fatalf("unexpected view %+v", view)
	}
	records, _ := f.service.History(ctx, "alice")
	if len(records) != 1 || records[0].Score != 0 {
		t.Fatalf("expected one empty record, got %+v", records)
	}
}

func TestQuitAfterDeadlineExpiresSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	if _, err := f.service.Start(ctx, "p1", "alice", domain.Easy, domain.MultipleChoice); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := f.service.RecordAnswer(ctx, "p1", 0); err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	f.clock.Advance(60 * time.Second)

	if err := f.service.Quit(ctx, "p1"); !errors.Is(err, domain.ErrTimeExpired) {
		t.Fatalf("expected time expired, got %v", err)
	}
	result, err := f.service.Result(ctx, "p1")
	if err != nil {
		t.Fatalf("result failed: %v", err)
	}
	if result.Outcome != domain.StateExpired || result.Score != 1 || result.TotalQuestions != 10 {
		t.Fatalf("unexpected result %+v", result)
	}
	records, _ := f.service.History(ctx, "alice")
	if len(records) != 1 || records[0].Score != 1 {
		t.Fatalf("expected the expired round recorded once, got %+v", records)
	}
}

func TestStartAfterDeadlineRecordsExpiredSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	if _, err := f.service.Start(ctx, "p1", "alice", domain.Medium, domain.TrueOrFalse); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	f.clock.Advance(75 * time.Second)

	view, err := f.service.Start(ctx, "p1", "alice", domain.Easy, domain.MultipleChoice)
	if err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if view.State != domain.StateInProgress || view.Mode != domain.MultipleChoice {
		t.Fatalf("unexpected view %+v", view)
	}
	records, _ := f.service.History(ctx, "alice")
	if len(records) != 1 || records[0].ModeLabel != "T/F" || records[0].Difficulty != domain.Medium {
		t.Fatalf("expected the expired true/false round recorded, got %+v", records)
	}
}

func TestReleaseWaitsForLastSubscriber(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, cancelFirst := f.service.Subscribe(ctx, "p1", "alice")
	_, cancelSecond := f.service.Subscribe(ctx, "p1", "alice")
	defer cancelSecond()
	if _, err := f.service.Start(ctx, "p1", "alice", domain.Easy, domain.MultipleChoice); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	cancelFirst()
	if f.service.Release(ctx, "p1") {
		t.Fatalf("game released while a subscriber remains")
	}
	if _, err := f.service.RecordAnswer(ctx, "p1", 0); err != nil {
		t.Fatalf("answer after first unsubscribe: %v", err)
	}

	cancelSecond()
	if !f.service.Release(ctx, "p1") {
		t.Fatalf("expected release after last subscriber left")
	}
	if _, err := f.service.View(ctx, "p1"); !errors.Is(err, domain.ErrNoActiveSession) {
		t.Fatalf("expected no active session, got %v", err)
	}
}

func TestStartReplacesActiveSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	first, err := f.service.Start(ctx, "p1", "alice", domain.Easy, domain.MultipleChoice)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	f.clock.Advance(30 * time.Second)
	second, err := f.service.Start(ctx, "p1", "alice", domain.Hard, domain.TrueOrFalse)
	if err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if first.SessionID == second.SessionID {
		t.Fatalf("expected a new session")
	}

	// The first countdown would have expired here; only the second one runs.
	f.clock.Advance(35 * time.Second)
	view, err := f.service.View(ctx, "p1")
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if view.SessionID != second.SessionID || view.State != domain.StateInProgress || view.RemainingSeconds != 25 {
		t.Fatalf("unexpected view %+v", view)
	}
	records, _ := f.service.History(ctx, "alice")
	if len(records) != 0 {
		t.Fatalf("replaced session must not be recorded, got %+v", records)
	}
}

func TestRetakeKeepsSelection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	if _, err := f.service.Retake(ctx, "p1"); !errors.Is(err, domain.ErrNoActiveSession) {
		t.Fatalf("expected no active session, got %v", err)
	}
	first, err := f.service.Start(ctx, "p1", "alice", domain.Medium, domain.Matching)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := f.service.Quit(ctx, "p1"); err != nil {
		t.Fatalf("quit failed: %v", err)
	}
	f.clock.Advance(time.Minute)

	again, err := f.service.Retake(ctx, "p1")
	if err != nil {
		t.Fatalf("retake failed: %v", err)
	}
	if again.SessionID == first.SessionID || again.Mode != domain.Matching || again.Difficulty != domain.Medium {
		t.Fatalf("unexpected retake view %+v", again)
	}
	if again.RemainingSeconds != 60 || again.State != domain.StateInProgress {
		t.Fatalf("retake must restart the countdown: %+v", again)
	}
}

func TestInvalidSelectionCreatesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	if _, err := f.service.Start(ctx, "p1", "alice", "", domain.Matching); !errors.Is(err, domain.ErrInvalidSelection) {
		t.Fatalf("expected invalid selection, got %v", err)
	}
	if _, err := f.service.View(ctx, "p1"); !errors.Is(err, domain.ErrNoActiveSession) {
		t.Fatalf("expected no session, got %v", err)
	}
}

func TestMatchingErrorsLeaveStateUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	if _, err := f.service.Start(ctx, "p1", "alice", domain.Easy, domain.Matching); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := f.service.ChooseRight(ctx, "p1", "A"); !errors.Is(err, domain.ErrNoLeftPending) {
		t.Fatalf("expected no left pending, got %v", err)
	}
	if _, err := f.service.RecordAnswer(ctx, "p1", 0); !errors.Is(err, domain.ErrEvaluatorMisuse) {
		t.Fatalf("expected misuse, got %v", err)
	}
	if _, _, err := f.service.Advance(ctx, "p1"); !errors.Is(err, domain.ErrAdvanceNotAllowed) {
		t.Fatalf("expected advance refused, got %v", err)
	}

	if _, err := f.service.SelectLeft(ctx, "p1", 2); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if _, err := f.service.ChooseRight(ctx, "p1", "C"); err != nil {
		t.Fatalf("choose failed: %v", err)
	}
	if _, err := f.service.SelectLeft(ctx, "p1", 3); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if _, err := f.service.ChooseRight(ctx, "p1", "C"); !errors.Is(err, domain.ErrRightAlreadyUsed) {
		t.Fatalf("expected right already used, got %v", err)
	}
	view, err := f.service.Unassign(ctx, "p1", 2)
	if err != nil {
		t.Fatalf("unassign failed: %v", err)
	}
	if view.Question.Assignments[2] != "" || view.Question.SelectedLeft == nil || *view.Question.SelectedLeft != 3 {
		t.Fatalf("unexpected matching view %+v", view.Question)
	}
}

type failingHistory struct{ app.HistoryStore }

func (failingHistory) Append(context.Context, string, domain.HistoryRecord) error {
	return errors.New("disk full")
}

func TestHistoryFailureKeepsResult(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, failingHistory{memory.NewHistoryStore()})

	if _, err := f.service.Start(ctx, "p1", "alice", domain.Easy, domain.TrueOrFalse); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	ch, cancel := f.service.Subscribe(ctx, "p1", "alice")
	defer cancel()

	var result *domain.SessionResult
	for i := 0; i < 10; i++ {
		if _, err := f.service.RecordAnswer(ctx, "p1", false); err != nil {
			t.Fatalf("answer failed: %v", err)
		}
		var err error
		if _, result, err = f.service.Advance(ctx, "p1"); err != nil {
			t.Fatalf("advance failed: %v", err)
		}
	}
	if result == nil || result.TotalQuestions != 10 {
		t.Fatalf("expected compiled result, got %+v", result)
	}
	ev := waitFor(t, ch, domain.EventCompleted)
	if ev.Persisted {
		t.Fatalf("failed append must be reported as not persisted")
	}
}

func TestUnknownPlayer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	if _, err := f.service.RecordAnswer(ctx, "nobody", 1); !errors.Is(err, domain.ErrNoActiveSession) {
		t.Fatalf("expected no active session, got %v", err)
	}
	if err := f.service.Quit(ctx, "nobody"); !errors.Is(err, domain.ErrNoActiveSession) {
		t.Fatalf("expected no active session, got %v", err)
	}
}
