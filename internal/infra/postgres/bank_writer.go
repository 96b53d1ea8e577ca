package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"arith-quiz-service/internal/domain"
	"github.com/uptrace/bun"
)

type questionBankRow struct {
	bun.BaseModel `bun:"table:question_banks"`

	ID        string          `bun:"id,pk"`
	Data      json.RawMessage `bun:"data,type:jsonb"`
	UpdatedAt time.Time       `bun:"updated_at"`
}

// SaveBank upserts a bank document; used by the seed command.
func SaveBank(ctx context.Context, db bun.IDB, b domain.QuestionBank) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal bank: %w", err)
	}
	row := &questionBankRow{ID: b.ID, Data: data, UpdatedAt: time.Now().UTC()}
	_, err = db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save bank %s: %w", b.ID, err)
	}
	return nil
}
