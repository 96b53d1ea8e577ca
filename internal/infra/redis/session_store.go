package redis

import (
	"context"
	"sync"
	"time"

	"arith-quiz-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of SessionRepository.
// Games stay in a local map because they own goroutines and subscriber
// channels; Redis only carries a liveness marker per player so other
// instances and operators can see who is playing.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	games  map[string]*app.Game
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client: client,
		ttl:    ttl,
		games:  make(map[string]*app.Game),
	}
}

func (s *SessionStore) GetOrCreate(playerID string, create func() *app.Game) *app.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	if game, ok := s.games[playerID]; ok {
		s.touch(playerID)
		return game
	}
	game := create()
	s.games[playerID] = game
	s.touch(playerID)
	return game
}

func (s *SessionStore) Get(playerID string) (*app.Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[playerID]
	return game, ok
}

func (s *SessionStore) Delete(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[playerID]; !ok {
		return
	}
	delete(s.games, playerID)
	_ = s.client.Del(context.Background(), s.key(playerID)).Err()
}

// best-effort liveness marker
func (s *SessionStore) touch(playerID string) {
	_ = s.client.Set(context.Background(), s.key(playerID), "1", s.ttl).Err()
}

func (s *SessionStore) key(playerID string) string {
	return "quiz:game:" + playerID
}
