package middleware

import (
	"fmt"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/antiscam-bot/internal/metrics"
)

const updateComponent = "update"

// RecoverFromPanic вызывается через defer в начале обработки апдейта.
// Паника не роняет бота: пишем стек и считаем её в метриках.
func RecoverFromPanic() {
	if r := recover(); r != nil {
		reportPanic(updateComponent, r, debug.Stack())
	}
}

func reportPanic(component string, r any, stack []byte) {
	metrics.Panics.WithLabelValues(component).Inc()
	log.WithFields(log.Fields{
		"component": "panic_recovery",
		"source":    component,
		"panic":     fmt.Sprintf("%v", r),
		"stack":     string(stack),
	}).Error("ПАНИКА в обработчике — восстановлено")
}
