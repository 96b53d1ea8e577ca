package redis

import (
	"context"
	"testing"
	"time"

	"arith-quiz-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestHistoryStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewHistoryStore(newClient(mr))
	date := time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)

	records := []domain.HistoryRecord{
		{Difficulty: domain.Easy, ModeLabel: "MC", Score: 7, TotalQuestions: 10, Percentage: 70, Date: date, ElapsedSeconds: 41},
		{Difficulty: domain.Medium, ModeLabel: "T/F", Score: 9, TotalQuestions: 10, Percentage: 90, Date: date.Add(time.Hour), ElapsedSeconds: 22},
	}
	for _, r := range records {
		if err := store.Append(ctx, "alice", r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := store.Append(ctx, "bob", records[0]); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := store.List(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	for i := range records {
		if !got[i].Date.Equal(records[i].Date) || got[i].ModeLabel != records[i].ModeLabel || got[i].Score != records[i].Score {
			t.Fatalf("record %d mismatch: %+v", i, got[i])
		}
	}

	none, err := store.List(ctx, "carol")
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no records, got %v %v", none, err)
	}

	all, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 || len(all["alice"]) != 2 || len(all["bob"]) != 1 {
		t.Fatalf("unexpected all history %+v", all)
	}
}

func TestHistoryStoreListAllEmpty(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	all, err := NewHistoryStore(newClient(mr)).ListAll(context.Background())
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty map, got %+v", all)
	}
}
