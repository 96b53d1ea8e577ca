package memory

import (
	"testing"

	"arith-quiz-service/internal/app"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	service := app.NewQuizService(store, NewBankRepository(NewStaticBankLoader(), 0), NewHistoryStore(), app.Options{})

	created := 0
	create := func() *app.Game {
		created++
		return service.NewGame("p1", "")
	}

	game := store.GetOrCreate("p1", create)
	if game == nil {
		t.Fatalf("expected game")
	}
	if again := store.GetOrCreate("p1", create); again != game || created != 1 {
		t.Fatalf("expected the same game, created %d", created)
	}
	if _, ok := store.Get("p1"); !ok {
		t.Fatalf("expected game present")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 game, got %d", store.Len())
	}

	store.Delete("p1")
	if _, ok := store.Get("p1"); ok {
		t.Fatalf("expected game removed")
	}
}
