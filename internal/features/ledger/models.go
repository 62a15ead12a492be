// Package ledger хранит недавние подозрительные сообщения каждого участника
// и решает, когда участника пора наказать.
// models.go описывает ключи, записи и результат RecordFlag.
package ledger

import (
	"fmt"
	"time"

	"serotonyl.ru/antiscam-bot/internal/models"
)

// Значения по умолчанию.
const (
	DefaultForgivenessWindow           = 120 * time.Second
	DefaultSuspiciousMessagesThreshold = 5
)

// Key — участник сообщества: пользователь в конкретном чате.
type Key struct {
	ChatID int64
	UserID int64
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%d", k.ChatID, k.UserID)
}

// KeyOf возвращает ключ автора сообщения.
func KeyOf(m models.Message) Key {
	return Key{ChatID: m.ChatID, UserID: m.AuthorID}
}

// Record — одно помеченное сообщение и момент, от которого отсчитывается окно.
type Record struct {
	Message models.Message
	At      time.Time
}

// Verdict — что ledger решил после очередной пометки.
type Verdict int

const (
	// VerdictOK — порог не достигнут, участник остаётся под наблюдением.
	VerdictOK Verdict = iota
	// VerdictBreach — порог достигнут; вызывающий наказывает и вызывает Clear.
	VerdictBreach
	// VerdictPending — по этому участнику уже идёт наказание.
	VerdictPending
)

func (v Verdict) String() string {
	switch v {
	case VerdictOK:
		return "ok"
	case VerdictBreach:
		return "breach"
	case VerdictPending:
		return "pending"
	default:
		return "unknown"
	}
}

// Outcome — результат RecordFlag.
type Outcome struct {
	Verdict Verdict
	Count   int      // Сколько записей в окне после очистки
	Records []Record // Копия всех записей; заполнено только при VerdictBreach
}
