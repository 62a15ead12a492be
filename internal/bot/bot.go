// Package bot содержит главный модуль бота — приём апдейтов и маршрутизацию.
// bot.go получает сообщения через long polling, раздаёт их на модерацию
// и обработку команд.
package bot

import (
	"context"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/antiscam-bot/internal/bot/filters"
	"serotonyl.ru/antiscam-bot/internal/bot/middleware"
	"serotonyl.ru/antiscam-bot/internal/config"
	"serotonyl.ru/antiscam-bot/internal/features/members"
	"serotonyl.ru/antiscam-bot/internal/features/moderation"
	"serotonyl.ru/antiscam-bot/internal/models"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api  *telego.Bot
	cfg  *config.Config
	self *telego.User

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter
	parser      *CommandParser

	memberService     *members.Service
	memberHandler     *members.Handler
	controller        *moderation.Controller
	moderationHandler *moderation.Handler

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *telego.Bot,
	self *telego.User,
	cfg *config.Config,
	memberService *members.Service,
	memberHandler *members.Handler,
	controller *moderation.Controller,
	moderationHandler *moderation.Handler,
	chatFilter *filters.ChatFilter,
	rateLimiter *middleware.RateLimiter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:               api,
		cfg:               cfg,
		self:              self,
		chatFilter:        chatFilter,
		rateLimiter:       rateLimiter,
		parser:            NewCommandParser(self.Username),
		memberService:     memberService,
		memberHandler:     memberHandler,
		controller:        controller,
		moderationHandler: moderationHandler,
		inflight:          make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling и блокируется до отмены ctx.
// Возвращает ошибку, только если polling не удалось запустить.
func (b *Bot) Start(ctx context.Context) error {
	updates, err := b.api.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: b.cfg.BotUpdateTimeoutSeconds,
		AllowedUpdates: []string{
			"message",
		},
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.wait()
			return nil

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				b.wait()
				return nil
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd telego.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// wait дожидается апдейтов, которые ещё обрабатываются.
func (b *Bot) wait() {
	for i := 0; i < cap(b.inflight); i++ {
		b.inflight <- struct{}{}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update telego.Update) {
	defer middleware.RecoverFromPanic()

	message := update.Message
	if message == nil {
		return
	}

	access := b.chatFilter.CheckAccess(message)
	if access == filters.AccessDenied {
		return
	}
	chatID := message.Chat.ID

	// Служебные сообщения о вступлении/выходе
	if len(message.NewChatMembers) > 0 {
		if access == filters.AccessModerated {
			b.memberHandler.HandleNewChatMembers(ctx, chatID, message.NewChatMembers)
		}
		return
	}
	if message.LeftChatMember != nil {
		if access == filters.AccessModerated {
			b.memberHandler.HandleLeftChatMember(ctx, chatID, message.LeftChatMember)
		}
		return
	}

	// Сообщения от имени каналов и анонимных админов пропускаем
	if message.From == nil || message.From.IsBot {
		return
	}

	msg := ToModel(message)
	middleware.LogMessage(msg)

	if access == filters.AccessModerated {
		// кого видим впервые, того считаем новичком с этого момента
		if err := b.memberService.EnsureMember(ctx, chatID, msg.AuthorID, members.InfoFromUser(*message.From)); err != nil {
			log.WithError(err).WithField("user_id", msg.AuthorID).Warn("EnsureMember failed")
		}
	}

	// Команды не отменяют модерацию того же сообщения
	cmd, args, isCommand := b.parser.ParseCommand(msg.Content)
	if isCommand {
		log.WithFields(log.Fields{
			"cmd":  cmd,
			"args": args,
		}).Debug("parsed command")

		if b.rateLimiter.Allow(msg.AuthorID) {
			b.routeCommand(ctx, msg, cmd, access)
		} else {
			log.WithField("user_id", msg.AuthorID).Debug("rate limited")
		}
	}

	if access == filters.AccessModerated {
		b.controller.HandleMessage(ctx, msg)
	}
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, msg models.Message, cmd string, access filters.Access) {
	if !commandAllowed(cmd, access) {
		log.WithFields(log.Fields{
			"cmd":     cmd,
			"chat_id": msg.ChatID,
			"user_id": msg.AuthorID,
		}).Debug("command not allowed in this chat")
		return
	}

	switch cmd {
	case "start", "help":
		b.moderationHandler.HandleHelp(ctx, msg.ChatID)

	case "suspiciousness":
		b.moderationHandler.HandleSuspiciousness(ctx, msg)

	case "loghere":
		b.moderationHandler.HandleLogHere(ctx, msg.ChatID, msg.AuthorID)

	case "stoplogging":
		b.moderationHandler.HandleStopLogging(ctx, msg.ChatID, msg.AuthorID)
	}
}

// commandAllowed: лог-канал переключается только из модерируемых чатов,
// остальные команды работают везде, где бот отвечает.
func commandAllowed(cmd string, access filters.Access) bool {
	switch cmd {
	case "loghere", "stoplogging":
		return access == filters.AccessModerated
	default:
		return access != filters.AccessDenied
	}
}
