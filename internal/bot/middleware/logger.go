// Package middleware содержит промежуточные обработчики для логирования,
// восстановления после паники и rate-limiting.
package middleware

import (
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/antiscam-bot/internal/models"
)

// LogMessage логирует входящее сообщение.
// Записывает: user_id, chat_id, автора, текст (первые 50 символов) и число вложений.
func LogMessage(msg models.Message) {
	text := []rune(msg.Content)
	preview := string(text)
	if len(text) > 50 {
		preview = string(text[:50]) + "..."
	}

	log.WithFields(log.Fields{
		"user_id":     msg.AuthorID,
		"chat_id":     msg.ChatID,
		"message_id":  msg.ID,
		"author":      msg.AuthorName,
		"text":        preview,
		"attachments": len(msg.Attachments),
	}).Debug("Входящее сообщение")
}
