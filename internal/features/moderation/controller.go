// Package moderation связывает скоринг, доверие, учёт нарушений и наказание
// в обработку одного входящего сообщения.
package moderation

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/antiscam-bot/internal/features/ledger"
	"serotonyl.ru/antiscam-bot/internal/features/punishment"
	"serotonyl.ru/antiscam-bot/internal/features/scoring"
	"serotonyl.ru/antiscam-bot/internal/features/trust"
	"serotonyl.ru/antiscam-bot/internal/metrics"
	"serotonyl.ru/antiscam-bot/internal/models"
)

// MemberDirectory отдаёт время вступления участника в чат.
// Нулевое время — участник неизвестен.
type MemberDirectory interface {
	JoinedAt(ctx context.Context, chatID, userID int64) (time.Time, error)
}

type Punisher interface {
	Punish(ctx context.Context, key ledger.Key, records []ledger.Record) punishment.Result
}

// MessageDeleter удаляет сообщения, пришедшие пока нарушителя наказывали.
type MessageDeleter interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// ModLog — журнал модерации (лог процесса + лог-канал).
type ModLog interface {
	Log(text string)
}

// Deps — всё, что нужно контроллеру.
type Deps struct {
	SelfID        int64
	Scorer        *scoring.Scorer
	Policy        trust.Policy
	Members       MemberDirectory
	Ledger        *ledger.Ledger
	Punisher      Punisher
	Deleter       MessageDeleter
	ModLog        ModLog
	ActionTimeout time.Duration
}

// Controller обрабатывает каждое сообщение модерируемого чата.
type Controller struct {
	selfID   int64
	scorer   *scoring.Scorer
	policy   trust.Policy
	members  MemberDirectory
	ledger   *ledger.Ledger
	punisher Punisher
	deleter  MessageDeleter
	modlog   ModLog
	timeout  time.Duration
	now      func() time.Time
}

func NewController(d Deps) *Controller {
	timeout := d.ActionTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Controller{
		selfID:   d.SelfID,
		scorer:   d.Scorer,
		policy:   d.Policy,
		members:  d.Members,
		ledger:   d.Ledger,
		punisher: d.Punisher,
		deleter:  d.Deleter,
		modlog:   d.ModLog,
		timeout:  timeout,
		now:      time.Now,
	}
}

// HandleMessage оценивает сообщение и, если автор набрал порог
// подозрительных сообщений в окне прощения, исключает его.
func (c *Controller) HandleMessage(ctx context.Context, msg models.Message) {
	if msg.AuthorID == c.selfID {
		return
	}

	score := c.scorer.ScoreMessage(msg)
	metrics.MessagesScored.Inc()
	if !c.scorer.IsSuspicious(score) {
		return
	}
	metrics.MessagesFlagged.Inc()
	c.modlog.Log(fmt.Sprintf("Flagged message %d from %s as suspicious with score %.2f", msg.ID, msg.Author(), score))

	now := c.now()
	logger := log.WithFields(log.Fields{
		"chat_id":    msg.ChatID,
		"user_id":    msg.AuthorID,
		"message_id": msg.ID,
	})

	joinedAt, err := c.members.JoinedAt(ctx, msg.ChatID, msg.AuthorID)
	if err != nil {
		// без даты вступления пользователь считается новичком
		logger.WithError(err).Warn("Не удалось получить дату вступления")
		joinedAt = time.Time{}
	}
	if trust.IsTrustworthy(joinedAt, now, c.policy) {
		metrics.TrustedSkipped.Inc()
		c.modlog.Log(fmt.Sprintf("User %s is considered trustworthy. Ignoring suspicious message.", msg.Author()))
		return
	}

	key := ledger.KeyOf(msg)
	out := c.ledger.RecordFlag(key, msg, now)
	metrics.LedgerEntries.Set(float64(c.ledger.Len()))

	switch out.Verdict {
	case ledger.VerdictBreach:
		c.punish(ctx, key, msg, out.Records)
	case ledger.VerdictPending:
		// удалится после кика вместе с остальными, если кик пройдёт
		logger.Debug("Сообщение отложено: по автору идёт наказание")
	default:
		logger.WithFields(log.Fields{
			"count":     out.Count,
			"threshold": c.ledger.Threshold(),
		}).Debug("Подозрительное сообщение учтено")
	}
}

// punish исключает автора и забывает его историю. История очищается
// и при неудачном кике: иначе каждое следующее сообщение повторяло бы попытку.
// Сообщения, пришедшие во время кика, удаляются только если кик удался.
func (c *Controller) punish(ctx context.Context, key ledger.Key, msg models.Message, records []ledger.Record) {
	metrics.Breaches.Inc()
	res := c.punisher.Punish(ctx, key, records)
	held := heldBack(c.ledger.Release(key), records)
	metrics.LedgerEntries.Set(float64(c.ledger.Len()))

	if !res.Success() {
		c.modlog.Log(fmt.Sprintf("Failed to punish user %s: %v", msg.Author(), res.Err))
		return
	}
	for _, r := range held {
		c.deleteHeld(ctx, r.Message)
	}
	if res.Failed > 0 {
		c.modlog.Log(fmt.Sprintf("Failed to delete %d of %d messages from user %s", res.Failed, len(records), msg.Author()))
	}
	c.modlog.Log(fmt.Sprintf("User %s has been kicked on suspicion of sending scam messages. (case %s)", msg.Author(), res.CaseID))
}

func (c *Controller) deleteHeld(ctx context.Context, msg models.Message) {
	delCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.deleter.DeleteMessage(delCtx, msg.ChatID, msg.ID); err != nil {
		c.modlog.Log(fmt.Sprintf("Failed to delete message %d from user %s: %v", msg.ID, msg.Author(), err))
	}
}

// heldBack — записи из released, которых нет в punished.
func heldBack(released, punished []ledger.Record) []ledger.Record {
	seen := make(map[int]struct{}, len(punished))
	for _, r := range punished {
		seen[r.Message.ID] = struct{}{}
	}
	var out []ledger.Record
	for _, r := range released {
		if _, ok := seen[r.Message.ID]; !ok {
			out = append(out, r)
		}
	}
	return out
}
