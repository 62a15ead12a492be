// Package filters решает, что бот делает с сообщением из конкретного чата.
package filters

import (
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

// Access — что разрешено делать с сообщением.
type Access int

const (
	// AccessDenied — чат игнорируется полностью.
	AccessDenied Access = iota
	// AccessCommands — только команды (личка, немодерируемые группы).
	AccessCommands
	// AccessModerated — модерация и команды.
	AccessModerated
)

type ChatFilter struct {
	isModerated func(chatID int64) bool
}

// NewChatFilter. isModerated решает, модерируется ли группа.
func NewChatFilter(isModerated func(chatID int64) bool) *ChatFilter {
	return &ChatFilter{isModerated: isModerated}
}

func (f *ChatFilter) CheckAccess(message *telego.Message) Access {
	if message == nil {
		log.WithField("component", "ChatFilter").Warn("nil message")
		return AccessDenied
	}

	logger := log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   message.Chat.ID,
		"chat_type": message.Chat.Type,
	})

	switch {
	case IsGroup(message.Chat):
		if f.isModerated(message.Chat.ID) {
			return AccessModerated
		}
		logger.Debug("group is not moderated")
		return AccessCommands
	case message.Chat.Type == telego.ChatTypePrivate:
		return AccessCommands
	default:
		// каналы
		logger.Debug("deny: unsupported chat type")
		return AccessDenied
	}
}

// IsGroup — группа или супергруппа.
func IsGroup(chat telego.Chat) bool {
	return chat.Type == telego.ChatTypeGroup || chat.Type == telego.ChatTypeSupergroup
}
