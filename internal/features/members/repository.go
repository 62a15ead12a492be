// Package members — repository.go отвечает за все операции с таблицей members в БД.
// Каждая функция выполняет один SQL-запрос и возвращает результат или ошибку.
package members

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/antiscam-bot/internal/common"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create добавляет участника. На конфликте по (chat_id, user_id) обновляет
// только имя/username, joined_at не трогает.
func (r *Repository) Create(ctx context.Context, m *Member) error {
	query := `
		INSERT INTO members (chat_id, user_id, username, first_name, last_name, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (chat_id, user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    updated_at = NOW()
	`
	joinedAt := m.JoinedAt
	if joinedAt.IsZero() {
		joinedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, query,
		m.ChatID, m.UserID, m.Username, m.FirstName, m.LastName, joinedAt,
	)
	if err != nil {
		return fmt.Errorf("ошибка создания/обновления участника: %w", err)
	}
	return nil
}

// GetByUserID: если не найден — ошибка с common.ErrMemberNotFound.
func (r *Repository) GetByUserID(ctx context.Context, chatID, userID int64) (*Member, error) {
	query := `
		SELECT id, chat_id, user_id, username, first_name, last_name,
		       joined_at, created_at, updated_at
		FROM members
		WHERE chat_id = $1 AND user_id = $2
	`
	var m Member
	err := r.db.QueryRow(ctx, query, chatID, userID).Scan(
		&m.ID, &m.ChatID, &m.UserID, &m.Username, &m.FirstName, &m.LastName,
		&m.JoinedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("chat_id=%d user_id=%d: %w", chatID, userID, common.ErrMemberNotFound)
		}
		return nil, fmt.Errorf("ошибка чтения участника (chat_id=%d user_id=%d): %w", chatID, userID, err)
	}
	return &m, nil
}

func (r *Repository) Exists(ctx context.Context, chatID, userID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM members WHERE chat_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, chatID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки существования: %w", err)
	}
	return exists, nil
}

// MarkJoined обновляет данные и сбрасывает joined_at — стаж считается заново.
func (r *Repository) MarkJoined(ctx context.Context, chatID, userID int64, info UpdateInfo, joinedAt time.Time) error {
	query := `
		UPDATE members
		SET username = $3, first_name = $4, last_name = $5, joined_at = $6, updated_at = NOW()
		WHERE chat_id = $1 AND user_id = $2
	`
	if _, err := r.db.Exec(ctx, query, chatID, userID, info.Username, info.FirstName, info.LastName, joinedAt); err != nil {
		return fmt.Errorf("ошибка обновления данных участника: %w", err)
	}
	return nil
}

// Delete удаляет участника (вышел или был исключён).
func (r *Repository) Delete(ctx context.Context, chatID, userID int64) error {
	query := `DELETE FROM members WHERE chat_id = $1 AND user_id = $2`
	if _, err := r.db.Exec(ctx, query, chatID, userID); err != nil {
		return fmt.Errorf("ошибка удаления участника: %w", err)
	}
	return nil
}
