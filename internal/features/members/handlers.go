// Package members — handlers.go обрабатывает Telegram-события, связанные с участниками:
// вступление новых пользователей и выход из чата.
package members

import (
	"context"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

// Handler обрабатывает события участников.
type Handler struct {
	service *Service // Сервис участников для бизнес-логики
}

// NewHandler создаёт новый обработчик событий участников.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleNewChatMembers регистрирует каждого вступившего пользователя.
// Боты пропускаются.
func (h *Handler) HandleNewChatMembers(ctx context.Context, chatID int64, newMembers []telego.User) {
	for _, user := range newMembers {
		if user.IsBot {
			continue
		}
		err := h.service.HandleNewMember(ctx, chatID, user.ID, InfoFromUser(user))
		if err != nil {
			log.WithError(err).WithFields(log.Fields{"chat_id": chatID, "user_id": user.ID}).Error("Ошибка регистрации нового участника")
		}
	}
}

// HandleLeftChatMember забывает вышедшего участника.
func (h *Handler) HandleLeftChatMember(ctx context.Context, chatID int64, user *telego.User) {
	if user == nil {
		return
	}
	if err := h.service.HandleLeftMember(ctx, chatID, user.ID); err != nil {
		log.WithError(err).WithFields(log.Fields{"chat_id": chatID, "user_id": user.ID}).Warn("Не удалось удалить вышедшего участника")
	}
}

// InfoFromUser достаёт имя и username из Telegram-пользователя.
func InfoFromUser(user telego.User) UpdateInfo {
	return UpdateInfo{
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}
