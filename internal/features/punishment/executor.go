package punishment

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"serotonyl.ru/antiscam-bot/internal/common"
	"serotonyl.ru/antiscam-bot/internal/features/ledger"
	"serotonyl.ru/antiscam-bot/internal/metrics"
)

// Gateway — действия в чате, которые нужны исполнителю.
type Gateway interface {
	KickMember(ctx context.Context, chatID, userID int64) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// AuditStore сохраняет результат наказания.
type AuditStore interface {
	Save(ctx context.Context, r Result) error
}

// Executor исключает пользователя и удаляет его подозрительные сообщения.
type Executor struct {
	gateway     Gateway
	audit       AuditStore
	timeout     time.Duration
	parallelism int
	now         func() time.Time
}

// NewExecutor. audit может быть nil, тогда журнал не ведётся.
func NewExecutor(gateway Gateway, audit AuditStore, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Executor{
		gateway:     gateway,
		audit:       audit,
		timeout:     timeout,
		parallelism: DefaultDeleteParallelism,
		now:         time.Now,
	}
}

// Punish исключает key.UserID из key.ChatID. Если кик не удался, сообщения
// не трогаются. Иначе каждое сообщение из records удаляется независимо:
// ошибка одного удаления не мешает остальным.
func (e *Executor) Punish(ctx context.Context, key ledger.Key, records []ledger.Record) Result {
	res := Result{
		CaseID:     uuid.New(),
		Key:        key,
		Reason:     KickReason,
		MessageIDs: messageIDs(records),
		At:         e.now().UTC(),
	}

	logger := log.WithFields(log.Fields{
		"component": "punishment",
		"case_id":   res.CaseID.String(),
		"chat_id":   key.ChatID,
		"user_id":   key.UserID,
	})

	kickCtx, cancel := context.WithTimeout(ctx, e.timeout)
	err := e.gateway.KickMember(kickCtx, key.ChatID, key.UserID)
	cancel()
	if err != nil {
		res.Status = StatusFailure
		res.Err = fmt.Errorf("%w: %w", common.ErrKickFailed, err)
		metrics.Punishments.WithLabelValues(string(StatusFailure)).Inc()
		logger.WithError(err).Error("Не удалось исключить пользователя")
		e.save(ctx, res, logger)
		return res
	}
	res.Status = StatusSuccess
	metrics.Punishments.WithLabelValues(string(StatusSuccess)).Inc()

	res.Deleted, res.Failed = e.deleteAll(ctx, key.ChatID, records, logger)

	logger.WithFields(log.Fields{
		"reason":   res.Reason,
		"messages": len(records),
		"deleted":  res.Deleted,
		"failed":   res.Failed,
	}).Info("Пользователь исключён")

	e.notifyUser(ctx, key.UserID, logger)
	e.save(ctx, res, logger)
	return res
}

func (e *Executor) deleteAll(ctx context.Context, chatID int64, records []ledger.Record, logger *log.Entry) (int, int) {
	var deleted, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(e.parallelism)
	for _, rec := range records {
		messageID := rec.Message.ID
		g.Go(func() error {
			delCtx, cancel := context.WithTimeout(ctx, e.timeout)
			defer cancel()
			if err := e.gateway.DeleteMessage(delCtx, chatID, messageID); err != nil {
				failed.Add(1)
				metrics.Deletions.WithLabelValues("failed").Inc()
				logger.WithError(err).WithField("message_id", messageID).Warn("Не удалось удалить сообщение")
				return nil
			}
			deleted.Add(1)
			metrics.Deletions.WithLabelValues("deleted").Inc()
			return nil
		})
	}
	_ = g.Wait()

	return int(deleted.Load()), int(failed.Load())
}

// notifyUser пишет исключённому причину. Бот может писать только тем,
// кто сам начинал с ним диалог, так что ошибка тут обычное дело.
func (e *Executor) notifyUser(ctx context.Context, userID int64, logger *log.Entry) {
	sendCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if err := e.gateway.SendMessage(sendCtx, userID, KickReason); err != nil {
		logger.WithError(err).Debug("Не удалось написать исключённому в личку")
	}
}

func (e *Executor) save(ctx context.Context, res Result, logger *log.Entry) {
	if e.audit == nil {
		return
	}
	saveCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if err := e.audit.Save(saveCtx, res); err != nil {
		logger.WithError(err).Warn("Не удалось записать наказание в журнал")
	}
}

func messageIDs(records []ledger.Record) []int {
	ids := make([]int, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.Message.ID)
	}
	return ids
}
