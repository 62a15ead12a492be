// Package metrics объявляет счётчики модерации и поднимает /metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var MessagesScored = promauto.NewCounter(prometheus.CounterOpts{
	Name: "antiscam_messages_scored_total",
	Help: "Сколько сообщений прошло через скоринг",
})

var MessagesFlagged = promauto.NewCounter(prometheus.CounterOpts{
	Name: "antiscam_messages_flagged_total",
	Help: "Сколько сообщений признано подозрительными",
})

var TrustedSkipped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "antiscam_trusted_skipped_total",
	Help: "Подозрительные сообщения старожилов, которые не учитывались",
})

var Breaches = promauto.NewCounter(prometheus.CounterOpts{
	Name: "antiscam_breaches_total",
	Help: "Сколько раз пользователь превысил порог подозрительных сообщений",
})

// Punishments размечен result=success|failure.
var Punishments = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "antiscam_punishments_total",
	Help: "Исключения пользователей по результату",
}, []string{"result"})

// Deletions размечен result=deleted|failed.
var Deletions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "antiscam_deletions_total",
	Help: "Удаления сообщений наказанных пользователей",
}, []string{"result"})

var LedgerEntries = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "antiscam_ledger_entries",
	Help: "Пользователи с непустой историей подозрительных сообщений",
})

// Panics размечен component — где именно восстановились.
var Panics = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "antiscam_panics_recovered_total",
	Help: "Паники, перехваченные при обработке апдейтов",
}, []string{"component"})

var LogChannelDropped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "antiscam_log_channel_dropped_total",
	Help: "Записи лог-канала, выброшенные из-за переполненной очереди",
})

// Serve отдаёт /metrics на addr, пока не отменён ctx.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Ошибка остановки сервера метрик")
		}
	}()

	log.WithField("addr", addr).Info("Метрики доступны на /metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
