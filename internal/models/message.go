// Package models описывает сообщения чата в том виде, в каком их видит модерация.
// Платформенные типы (telego) конвертируются сюда на границе, в internal/bot.
package models

import (
	"fmt"
	"time"
)

// Attachment — вложение сообщения. ContentType может быть пустым,
// если платформа не сообщила MIME-тип.
type Attachment struct {
	ContentType string
}

// Message — входящее сообщение.
type Message struct {
	ID          int       // ID сообщения внутри чата
	ChatID      int64     // Чат, в котором оно отправлено
	AuthorID    int64     // Telegram user ID автора
	AuthorName  string    // @username или имя, только для логов
	Content     string    // Текст или подпись к медиа
	CreatedAt   time.Time // Время отправки
	Attachments []Attachment
}

// AttachmentTypes возвращает MIME-типы вложений в исходном порядке.
func (m Message) AttachmentTypes() []string {
	out := make([]string, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		out = append(out, a.ContentType)
	}
	return out
}

// Author возвращает человекочитаемое имя автора для логов.
func (m Message) Author() string {
	if m.AuthorName != "" {
		return fmt.Sprintf("%s (%d)", m.AuthorName, m.AuthorID)
	}
	return fmt.Sprintf("%d", m.AuthorID)
}
