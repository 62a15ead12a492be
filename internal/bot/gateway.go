package bot

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"
)

// Gateway — действия модерации поверх Telegram Bot API.
type Gateway struct {
	api *telego.Bot
}

func NewGateway(api *telego.Bot) *Gateway {
	return &Gateway{api: api}
}

// KickMember удаляет пользователя из чата, не запрещая вернуться:
// бан и сразу разбан.
func (g *Gateway) KickMember(ctx context.Context, chatID, userID int64) error {
	err := g.api.BanChatMember(ctx, &telego.BanChatMemberParams{
		ChatID: tu.ID(chatID),
		UserID: userID,
	})
	if err != nil {
		return fmt.Errorf("ban chat member: %w", err)
	}

	err = g.api.UnbanChatMember(ctx, &telego.UnbanChatMemberParams{
		ChatID:       tu.ID(chatID),
		UserID:       userID,
		OnlyIfBanned: true,
	})
	if err != nil {
		// из чата пользователь уже удалён, просто вернуться сам не сможет
		log.WithError(err).WithFields(log.Fields{"chat_id": chatID, "user_id": userID}).Warn("Не удалось снять бан после исключения")
	}
	return nil
}

func (g *Gateway) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	err := g.api.DeleteMessage(ctx, &telego.DeleteMessageParams{
		ChatID:    tu.ID(chatID),
		MessageID: messageID,
	})
	if err != nil {
		return fmt.Errorf("delete message %d: %w", messageID, err)
	}
	return nil
}

func (g *Gateway) SendMessage(ctx context.Context, chatID int64, text string) error {
	if _, err := g.api.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// IsChatAdmin — создатель или администратор чата.
func (g *Gateway) IsChatAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	member, err := g.api.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: tu.ID(chatID),
		UserID: userID,
	})
	if err != nil {
		return false, fmt.Errorf("get chat member: %w", err)
	}
	return isAdminStatus(member.MemberStatus()), nil
}

func isAdminStatus(status string) bool {
	return status == telego.MemberStatusCreator || status == telego.MemberStatusAdministrator
}
