// Package members — service.go содержит бизнес-логику управления участниками.
// Сервис регистрирует вступления, досоздаёт участников при первом сообщении
// и отдаёт время вступления для расчёта стажа.
package members

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/antiscam-bot/internal/common"
)

// Store — операции с таблицей members, которые нужны сервису.
type Store interface {
	Create(ctx context.Context, m *Member) error
	GetByUserID(ctx context.Context, chatID, userID int64) (*Member, error)
	Exists(ctx context.Context, chatID, userID int64) (bool, error)
	MarkJoined(ctx context.Context, chatID, userID int64, info UpdateInfo, joinedAt time.Time) error
	Delete(ctx context.Context, chatID, userID int64) error
}

// Service управляет участниками чатов.
type Service struct {
	repo Store
	now  func() time.Time
}

// NewService создаёт новый сервис участников.
func NewService(repo Store) *Service {
	return &Service{repo: repo, now: time.Now}
}

// HandleNewMember обрабатывает вступление пользователя в чат.
// Перезашедшему пользователю стаж сбрасывается: исключённый спамер,
// вернувшись, не должен оказаться «старожилом».
func (s *Service) HandleNewMember(ctx context.Context, chatID, userID int64, info UpdateInfo) error {
	exists, err := s.repo.Exists(ctx, chatID, userID)
	if err != nil {
		return err
	}
	now := s.now().UTC()

	if exists {
		log.WithFields(log.Fields{"chat_id": chatID, "user_id": userID}).Info("Участник перезашёл в чат, стаж сброшен")
		return s.repo.MarkJoined(ctx, chatID, userID, info, now)
	}

	member := &Member{
		ChatID:    chatID,
		UserID:    userID,
		Username:  info.Username,
		FirstName: info.FirstName,
		LastName:  info.LastName,
		JoinedAt:  now,
	}
	if err := s.repo.Create(ctx, member); err != nil {
		return fmt.Errorf("ошибка регистрации нового участника: %w", err)
	}

	log.WithFields(log.Fields{
		"chat_id": chatID,
		"user_id": userID,
		"name":    member.DisplayName(),
	}).Info("Новый участник зарегистрирован")
	return nil
}

// HandleLeftMember забывает участника, покинувшего чат.
func (s *Service) HandleLeftMember(ctx context.Context, chatID, userID int64) error {
	return s.repo.Delete(ctx, chatID, userID)
}

// EnsureMember гарантирует, что пользователь есть в базе.
// Если нет — создаёт запись со стажем «с этого момента».
func (s *Service) EnsureMember(ctx context.Context, chatID, userID int64, info UpdateInfo) error {
	exists, err := s.repo.Exists(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.HandleNewMember(ctx, chatID, userID, info)
}

// JoinedAt возвращает время вступления. Для неизвестного участника —
// нулевое время без ошибки: такой пользователь просто не считается доверенным.
func (s *Service) JoinedAt(ctx context.Context, chatID, userID int64) (time.Time, error) {
	m, err := s.repo.GetByUserID(ctx, chatID, userID)
	if err != nil {
		if errors.Is(err, common.ErrMemberNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return m.JoinedAt, nil
}
