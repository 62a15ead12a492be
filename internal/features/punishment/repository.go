package punishment

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository пишет наказания в таблицу punishments.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Save записывает результат наказания.
func (r *Repository) Save(ctx context.Context, res Result) error {
	query := `
		INSERT INTO punishments
			(case_id, chat_id, user_id, status, reason, error, message_ids, deleted, failed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	var errText *string
	if res.Err != nil {
		s := res.Err.Error()
		errText = &s
	}
	ids := make([]int64, 0, len(res.MessageIDs))
	for _, id := range res.MessageIDs {
		ids = append(ids, int64(id))
	}

	_, err := r.db.Exec(ctx, query,
		res.CaseID, res.Key.ChatID, res.Key.UserID, string(res.Status), res.Reason,
		errText, ids, res.Deleted, res.Failed, res.At,
	)
	if err != nil {
		return fmt.Errorf("ошибка записи наказания %s: %w", res.CaseID, err)
	}
	return nil
}
