package bot

import (
	"strings"
	"time"

	"github.com/mymmrac/telego"

	"serotonyl.ru/antiscam-bot/internal/models"
)

// Telegram пережимает фото в JPEG, MIME-тип у них не приходит.
const photoContentType = "image/jpeg"

// У стикеров MIME-типа тоже нет, он следует из формата.
const (
	stickerStaticContentType   = "image/webp"
	stickerAnimatedContentType = "application/x-tgsticker"
	stickerVideoContentType    = "video/webm"
)

// ToModel переводит сообщение Telegram в модель модерации.
// Текст и подпись к медиа склеиваются, каждое вложение даёт один Attachment.
func ToModel(msg *telego.Message) models.Message {
	m := models.Message{
		ID:        msg.MessageID,
		ChatID:    msg.Chat.ID,
		Content:   content(msg),
		CreatedAt: time.Unix(msg.Date, 0).UTC(),
	}
	if msg.From != nil {
		m.AuthorID = msg.From.ID
		m.AuthorName = displayName(msg.From)
	}

	if len(msg.Photo) > 0 {
		// Photo — это размеры одного и того же снимка
		m.Attachments = append(m.Attachments, models.Attachment{ContentType: photoContentType})
	}
	if msg.Document != nil {
		m.Attachments = append(m.Attachments, models.Attachment{ContentType: msg.Document.MimeType})
	}
	if msg.Animation != nil {
		m.Attachments = append(m.Attachments, models.Attachment{ContentType: msg.Animation.MimeType})
	}
	if msg.Video != nil {
		m.Attachments = append(m.Attachments, models.Attachment{ContentType: msg.Video.MimeType})
	}
	if msg.Audio != nil {
		m.Attachments = append(m.Attachments, models.Attachment{ContentType: msg.Audio.MimeType})
	}
	if msg.Voice != nil {
		m.Attachments = append(m.Attachments, models.Attachment{ContentType: msg.Voice.MimeType})
	}
	if msg.Sticker != nil {
		m.Attachments = append(m.Attachments, models.Attachment{ContentType: stickerContentType(msg.Sticker)})
	}
	return m
}

func stickerContentType(s *telego.Sticker) string {
	switch {
	case s.IsAnimated:
		return stickerAnimatedContentType
	case s.IsVideo:
		return stickerVideoContentType
	default:
		return stickerStaticContentType
	}
}

func content(msg *telego.Message) string {
	switch {
	case msg.Text != "" && msg.Caption != "":
		return msg.Text + "\n" + msg.Caption
	case msg.Text != "":
		return msg.Text
	default:
		return msg.Caption
	}
}

func displayName(u *telego.User) string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
