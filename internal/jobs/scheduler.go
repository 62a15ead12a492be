// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: периодическая чистка истёкших записей
// учёта нарушений и счётчиков rate limiter.
package jobs

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/antiscam-bot/internal/metrics"
)

// LedgerSweeper — учёт нарушений с периодической чисткой.
type LedgerSweeper interface {
	Sweep(now time.Time) int
	Len() int
}

// LimiterSweeper — rate limiter с периодической чисткой.
type LimiterSweeper interface {
	Sweep(now time.Time) int
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	ledger   LedgerSweeper
	limiter  LimiterSweeper
	now      func() time.Time
}

// NewScheduler создаёт планировщик в часовом поясе timezone.
func NewScheduler(timezone, schedule string, ledger LedgerSweeper, limiter LimiterSweeper) *Scheduler {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.WithError(err).WithField("timezone", timezone).Warn("Не удалось загрузить часовой пояс, используем UTC")
		loc = time.UTC
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		schedule: schedule,
		ledger:   ledger,
		limiter:  limiter,
		now:      time.Now,
	}
}

// Start регистрирует задачи и запускает cron.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		return fmt.Errorf("некорректное расписание %q: %w", s.schedule, err)
	}

	s.cron.Start()
	log.WithField("schedule", s.schedule).Info("Планировщик задач запущен")
	return nil
}

// sweep чистит истёкшие записи. Ошибок тут не бывает, только статистика.
func (s *Scheduler) sweep() {
	now := s.now()
	removed := s.ledger.Sweep(now)
	limited := s.limiter.Sweep(now)
	metrics.LedgerEntries.Set(float64(s.ledger.Len()))

	log.WithFields(log.Fields{
		"ledger_removed":  removed,
		"ledger_entries":  s.ledger.Len(),
		"limiter_removed": limited,
	}).Debug("[CRON] Чистка истёкших записей")
}

// Stop останавливает планировщик и ждёт завершения текущих задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
