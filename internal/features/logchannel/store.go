// Package logchannel ведёт журнал модерации: строка в лог процесса и
// копия в Telegram-чат, выбранный командой !loghere.
package logchannel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/antiscam-bot/internal/common"
)

// Store хранит ID лог-канала между перезапусками.
// Load возвращает common.ErrLogChannelNotSet, если канал не выбран.
type Store interface {
	Load(ctx context.Context) (int64, error)
	Save(ctx context.Context, chatID int64) error
	Delete(ctx context.Context) error
}

// FileStore держит ID в текстовом файле.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(_ context.Context) (int64, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, common.ErrLogChannelNotSet
		}
		return 0, fmt.Errorf("ошибка чтения %s: %w", s.path, err)
	}
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return 0, common.ErrLogChannelNotSet
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректный ID лог-канала в %s: %w", s.path, err)
	}
	return id, nil
}

func (s *FileStore) Save(_ context.Context, chatID int64) error {
	if err := os.WriteFile(s.path, []byte(strconv.FormatInt(chatID, 10)), 0o644); err != nil {
		return fmt.Errorf("ошибка записи %s: %w", s.path, err)
	}
	return nil
}

// Delete не считает ошибкой отсутствие файла.
func (s *FileStore) Delete(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("ошибка удаления %s: %w", s.path, err)
	}
	return nil
}

const settingLogChannel = "log_channel_id"

// Repository держит ID в таблице bot_settings.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Load(ctx context.Context) (int64, error) {
	query := `SELECT value FROM bot_settings WHERE key = $1`
	var raw string
	if err := r.db.QueryRow(ctx, query, settingLogChannel).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.ErrLogChannelNotSet
		}
		return 0, fmt.Errorf("ошибка чтения лог-канала: %w", err)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректный ID лог-канала в БД: %w", err)
	}
	return id, nil
}

func (r *Repository) Save(ctx context.Context, chatID int64) error {
	query := `
		INSERT INTO bot_settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query, settingLogChannel, strconv.FormatInt(chatID, 10)); err != nil {
		return fmt.Errorf("ошибка сохранения лог-канала: %w", err)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM bot_settings WHERE key = $1`, settingLogChannel); err != nil {
		return fmt.Errorf("ошибка удаления лог-канала: %w", err)
	}
	return nil
}
