package logchannel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"serotonyl.ru/antiscam-bot/internal/common"
	"serotonyl.ru/antiscam-bot/internal/metrics"
)

// QueueSize — сколько записей может ждать отправки в канал.
const QueueSize = 256

// Sender отправляет текст в чат.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type entry struct {
	chatID int64
	text   string
}

// Sink пишет каждую запись в logrus и, если лог-канал выбран,
// ставит её в очередь на отправку. Очередь разбирает Run.
type Sink struct {
	store   Store
	sender  Sender
	limiter *rate.Limiter
	timeout time.Duration

	mu     sync.RWMutex
	chatID int64 // 0 — канал не выбран

	queue chan entry
}

func NewSink(store Store, sender Sender, limiter *rate.Limiter, timeout time.Duration) *Sink {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(time.Second), 5)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Sink{
		store:   store,
		sender:  sender,
		limiter: limiter,
		timeout: timeout,
		queue:   make(chan entry, QueueSize),
	}
}

// Log не блокирует. Если очередь полна, запись остаётся только в логе процесса.
func (s *Sink) Log(text string) {
	log.WithField("component", "modlog").Info(text)

	chatID, ok := s.ChatID()
	if !ok {
		return
	}
	select {
	case s.queue <- entry{chatID: chatID, text: text}:
	default:
		metrics.LogChannelDropped.Inc()
		log.WithField("chat_id", chatID).Warn("Очередь лог-канала переполнена, запись пропущена")
	}
}

// Logf — Log с форматированием.
func (s *Sink) Logf(format string, args ...any) {
	s.Log(fmt.Sprintf(format, args...))
}

// Run отправляет записи из очереди, соблюдая лимит, пока не отменён ctx.
func (s *Sink) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-s.queue:
			if err := s.limiter.Wait(ctx); err != nil {
				return
			}
			sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
			if err := s.sender.SendMessage(sendCtx, e.chatID, e.text); err != nil {
				log.WithError(err).WithField("chat_id", e.chatID).Warn("Не удалось отправить запись в лог-канал")
			}
			cancel()
		}
	}
}

// ChatID возвращает текущий лог-канал.
func (s *Sink) ChatID() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chatID, s.chatID != 0
}

// Set сохраняет chatID и начинает писать туда.
func (s *Sink) Set(ctx context.Context, chatID int64) error {
	if err := s.store.Save(ctx, chatID); err != nil {
		return err
	}
	s.mu.Lock()
	s.chatID = chatID
	s.mu.Unlock()
	return nil
}

// Unset прекращает отправку в Telegram. Канал забывается даже если
// хранилище не удалось почистить.
func (s *Sink) Unset(ctx context.Context) error {
	s.mu.Lock()
	s.chatID = 0
	s.mu.Unlock()
	return s.store.Delete(ctx)
}

// Load поднимает сохранённый канал при старте.
func (s *Sink) Load(ctx context.Context) {
	chatID, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, common.ErrLogChannelNotSet) {
			log.Info("Лог-канал не задан, пишем только в лог процесса")
			return
		}
		s.Logf("Failed to load log channel: %v", err)
		return
	}
	s.mu.Lock()
	s.chatID = chatID
	s.mu.Unlock()
	s.Logf("Loaded log channel (ID: %d)", chatID)
}
