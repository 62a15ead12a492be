package moderation

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/antiscam-bot/internal/common"
	"serotonyl.ru/antiscam-bot/internal/features/scoring"
	"serotonyl.ru/antiscam-bot/internal/models"
)

const HelpText = `Commands:
!help - Show this help message.
!suspiciousness - Test the suspiciousness of your message.
!loghere - Set the current chat as the log channel.
!stoplogging - Stop logging to Telegram.`

// Replier отправляет ответ в чат.
type Replier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// LogChannel — управление лог-каналом.
type LogChannel interface {
	Set(ctx context.Context, chatID int64) error
	Unset(ctx context.Context) error
	Log(text string)
}

// ChatAdminChecker узнаёт у Telegram, администрирует ли пользователь чат.
type ChatAdminChecker interface {
	IsChatAdmin(ctx context.Context, chatID, userID int64) (bool, error)
}

// HandlerDeps — зависимости обработчика команд.
// Управлять лог-каналом можно только из модерируемого чата, и только
// пользователям из IsAdmin или администраторам этого чата.
type HandlerDeps struct {
	Scorer        *scoring.Scorer
	LogChannel    LogChannel
	Replier       Replier
	ChatAdmins    ChatAdminChecker
	IsAdmin       func(userID int64) bool
	IsModerated   func(chatID int64) bool
	ActionTimeout time.Duration
}

// Handler обрабатывает команды модерации.
type Handler struct {
	scorer      *scoring.Scorer
	logChannel  LogChannel
	replier     Replier
	chatAdmins  ChatAdminChecker
	isAdmin     func(userID int64) bool
	isModerated func(chatID int64) bool
	timeout     time.Duration
}

// NewHandler. Не заданные IsAdmin/IsModerated никому ничего не разрешают.
func NewHandler(d HandlerDeps) *Handler {
	deny := func(int64) bool { return false }
	h := &Handler{
		scorer:      d.Scorer,
		logChannel:  d.LogChannel,
		replier:     d.Replier,
		chatAdmins:  d.ChatAdmins,
		isAdmin:     d.IsAdmin,
		isModerated: d.IsModerated,
		timeout:     d.ActionTimeout,
	}
	if h.isAdmin == nil {
		h.isAdmin = deny
	}
	if h.isModerated == nil {
		h.isModerated = deny
	}
	if h.timeout <= 0 {
		h.timeout = 10 * time.Second
	}
	return h
}

func (h *Handler) HandleHelp(ctx context.Context, chatID int64) {
	h.reply(ctx, chatID, HelpText)
}

// HandleSuspiciousness показывает оценку самого сообщения с командой.
func (h *Handler) HandleSuspiciousness(ctx context.Context, msg models.Message) {
	score := h.scorer.ScoreMessage(msg)
	verdict := "not suspicious"
	if h.scorer.IsSuspicious(score) {
		verdict = "SUSPICIOUS"
	}
	h.reply(ctx, msg.ChatID, fmt.Sprintf("Suspiciousness score: %.2f [%s]", score, verdict))
	h.logChannel.Log(fmt.Sprintf("Calculated suspiciousness for message %d with score %.2f [%s]", msg.ID, score, verdict))
}

func (h *Handler) HandleLogHere(ctx context.Context, chatID, userID int64) {
	if err := h.authorize(ctx, chatID, userID); err != nil {
		h.deny(ctx, chatID, userID, err)
		return
	}
	if err := h.logChannel.Set(ctx, chatID); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Не удалось сохранить лог-канал")
		h.reply(ctx, chatID, "Failed to set this chat for logging.")
		return
	}
	h.reply(ctx, chatID, "This chat is now set for logging.")
}

func (h *Handler) HandleStopLogging(ctx context.Context, chatID, userID int64) {
	if err := h.authorize(ctx, chatID, userID); err != nil {
		h.deny(ctx, chatID, userID, err)
		return
	}
	if err := h.logChannel.Unset(ctx); err != nil {
		log.WithError(err).Warn("Не удалось удалить сохранённый лог-канал")
	}
	h.reply(ctx, chatID, "Logging to Telegram has been stopped.")
}

func (h *Handler) authorize(ctx context.Context, chatID, userID int64) error {
	if !h.isModerated(chatID) {
		return common.ErrChatNotModerated
	}
	if h.isAdmin(userID) {
		return nil
	}
	if h.chatAdmins == nil {
		return common.ErrNotAdmin
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	ok, err := h.chatAdmins.IsChatAdmin(checkCtx, chatID, userID)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrNotAdmin, err)
	}
	if !ok {
		return common.ErrNotAdmin
	}
	return nil
}

func (h *Handler) deny(ctx context.Context, chatID, userID int64, err error) {
	log.WithError(err).WithFields(log.Fields{"chat_id": chatID, "user_id": userID}).Info("Команда отклонена")
	h.reply(ctx, chatID, "You are not allowed to use this command.")
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	sendCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	if err := h.replier.SendMessage(sendCtx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
