// Package punishment исключает нарушителя из чата и убирает его сообщения.
package punishment

import (
	"time"

	"github.com/google/uuid"

	"serotonyl.ru/antiscam-bot/internal/features/ledger"
)

// KickReason — причина исключения. Telegram не показывает причину кика,
// поэтому она уходит пользователю в личку и в журнал наказаний.
const KickReason = "Suspected of sending scam messages. Please contact the moderators if you believe this was a mistake."

// DefaultDeleteParallelism — сколько удалений идёт одновременно.
const DefaultDeleteParallelism = 4

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Result описывает одно наказание. Для журнала и лог-канала.
type Result struct {
	CaseID     uuid.UUID
	Key        ledger.Key
	Status     Status
	Reason     string
	Err        error // причина неудачного кика
	MessageIDs []int
	Deleted    int
	Failed     int
	At         time.Time
}

func (r Result) Success() bool {
	return r.Status == StatusSuccess
}
