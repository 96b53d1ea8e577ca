package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"arith-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const historyUsersKey = "quiz:history:users"

// HistoryStore keeps each user's records in a Redis list, oldest first:
//
//	RPUSH quiz:history:{userID} {json}
//	SADD  quiz:history:users {userID}
type HistoryStore struct {
	client *redis.Client
}

func NewHistoryStore(client *redis.Client) *HistoryStore {
	return &HistoryStore{client: client}
}

func (h *HistoryStore) Append(ctx context.Context, userID string, record domain.HistoryRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode history record: %w", err)
	}
	pipe := h.client.TxPipeline()
	pipe.RPush(ctx, h.key(userID), raw)
	pipe.SAdd(ctx, historyUsersKey, userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append history for %s: %w", userID, err)
	}
	return nil
}

func (h *HistoryStore) List(ctx context.Context, userID string) ([]domain.HistoryRecord, error) {
	raws, err := h.client.LRange(ctx, h.key(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list history for %s: %w", userID, err)
	}
	return decodeRecords(raws)
}

func (h *HistoryStore) ListAll(ctx context.Context) (map[string][]domain.HistoryRecord, error) {
	users, err := h.client.SMembers(ctx, historyUsersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list history users: %w", err)
	}

	pipe := h.client.Pipeline()
	cmds := make(map[string]*redis.StringSliceCmd, len(users))
	for _, userID := range users {
		cmds[userID] = pipe.LRange(ctx, h.key(userID), 0, -1)
	}
	if len(users) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("list all history: %w", err)
		}
	}

	out := make(map[string][]domain.HistoryRecord, len(users))
	for userID, cmd := range cmds {
		records, err := decodeRecords(cmd.Val())
		if err != nil {
			return nil, err
		}
		out[userID] = records
	}
	return out, nil
}

func (h *HistoryStore) key(userID string) string {
	return "quiz:history:" + userID
}

func decodeRecords(raws []string) ([]domain.HistoryRecord, error) {
	records := make([]domain.HistoryRecord, 0, len(raws))
	for _, raw := range raws {
		var r domain.HistoryRecord
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("decode history record: %w", err)
		}
		records = append(records, r)
	}
	return records, nil
}
