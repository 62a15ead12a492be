package ledger

import (
	"sync"
	"time"

	"serotonyl.ru/antiscam-bot/internal/models"
)

// entry — записи одного участника. mu защищает всё внутри.
// dead выставляется, когда entry удалена из карты: держатель устаревшего
// указателя должен взять entry заново.
type entry struct {
	mu        sync.Mutex
	records   []Record
	punishing bool
	dead      bool
}

// Ledger — in-memory реестр подозрений. Переживать рестарт не должен.
// Обновление одного участника (добавить + очистить + сравнить) атомарно,
// разные участники не блокируют друг друга.
type Ledger struct {
	mu      sync.Mutex
	entries map[Key]*entry

	window    time.Duration
	threshold int
}

// New создаёт реестр с окном прощения window и порогом threshold.
func New(window time.Duration, threshold int) *Ledger {
	if window <= 0 {
		window = DefaultForgivenessWindow
	}
	if threshold <= 0 {
		threshold = DefaultSuspiciousMessagesThreshold
	}
	return &Ledger{
		entries:   make(map[Key]*entry),
		window:    window,
		threshold: threshold,
	}
}

// Window возвращает окно прощения.
func (l *Ledger) Window() time.Duration { return l.window }

// Threshold возвращает порог наказания.
func (l *Ledger) Threshold() int { return l.threshold }

// RecordFlag добавляет помеченное сообщение и сообщает, достигнут ли порог.
// Записи старше окна относительно now выбрасываются до подсчёта.
func (l *Ledger) RecordFlag(key Key, msg models.Message, now time.Time) Outcome {
	e := l.acquire(key, true)
	defer e.mu.Unlock()

	e.records = append(e.records, Record{Message: msg, At: msg.CreatedAt})

	// пока идёт наказание, записи копятся без чистки: их отдаст Release
	if e.punishing {
		return Outcome{Verdict: VerdictPending, Count: len(e.records)}
	}

	e.records = purge(e.records, now, l.window)
	count := len(e.records)

	if count >= l.threshold {
		e.punishing = true
		records := make([]Record, count)
		copy(records, e.records)
		return Outcome{Verdict: VerdictBreach, Count: count, Records: records}
	}

	if count == 0 {
		// сообщение пришло уже протухшим
		l.removeLocked(key, e)
	}
	return Outcome{Verdict: VerdictOK, Count: count}
}

// Clear удаляет участника из реестра целиком. Повторный вызов ничего не делает.
func (l *Ledger) Clear(key Key) {
	l.Release(key)
}

// Release удаляет участника и возвращает все его записи, включая те,
// что пришли, пока по нему шло наказание (VerdictPending).
func (l *Ledger) Release(key Key) []Record {
	e := l.acquire(key, false)
	if e == nil {
		return nil
	}
	defer e.mu.Unlock()
	records := e.records
	l.removeLocked(key, e)
	return records
}

// PurgeExpired выбрасывает устаревшие записи участника без проверки порога.
// Возвращает, сколько записей осталось. Пустая запись удаляется из карты.
func (l *Ledger) PurgeExpired(key Key, now time.Time) int {
	remaining, _ := l.purgeKey(key, now)
	return remaining
}

// Sweep проходит по всем участникам и чистит устаревшее.
// Возвращает число удалённых из карты участников.
func (l *Ledger) Sweep(now time.Time) int {
	removed := 0
	for _, key := range l.keys() {
		if _, ok := l.purgeKey(key, now); ok {
			removed++
		}
	}
	return removed
}

func (l *Ledger) purgeKey(key Key, now time.Time) (remaining int, removed bool) {
	e := l.acquire(key, false)
	if e == nil {
		return 0, false
	}
	defer e.mu.Unlock()

	if e.punishing {
		return len(e.records), false
	}
	e.records = purge(e.records, now, l.window)
	if len(e.records) == 0 {
		l.removeLocked(key, e)
		return 0, true
	}
	return len(e.records), false
}

// Count возвращает актуальное число записей участника на момент now,
// не изменяя реестр.
func (l *Ledger) Count(key Key, now time.Time) int {
	e := l.acquire(key, false)
	if e == nil {
		return 0
	}
	defer e.mu.Unlock()

	n := 0
	for _, r := range e.records {
		if now.Sub(r.At) < l.window {
			n++
		}
	}
	return n
}

// Len возвращает число отслеживаемых участников.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// acquire возвращает заблокированную entry. При create=false и отсутствии
// участника возвращает nil.
func (l *Ledger) acquire(key Key, create bool) *entry {
	for {
		l.mu.Lock()
		e, ok := l.entries[key]
		if !ok {
			if !create {
				l.mu.Unlock()
				return nil
			}
			e = &entry{}
			l.entries[key] = e
		}
		l.mu.Unlock()

		e.mu.Lock()
		if !e.dead {
			return e
		}
		// entry удалили, пока мы ждали блокировку
		e.mu.Unlock()
	}
}

// removeLocked удаляет entry из карты. Вызывать с захваченным e.mu.
func (l *Ledger) removeLocked(key Key, e *entry) {
	e.dead = true
	e.records = nil
	l.mu.Lock()
	if l.entries[key] == e {
		delete(l.entries, key)
	}
	l.mu.Unlock()
}

func (l *Ledger) keys() []Key {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Key, 0, len(l.entries))
	for k := range l.entries {
		out = append(out, k)
	}
	return out
}

// purge оставляет записи моложе окна. Порядок (хронологический) сохраняется.
func purge(records []Record, now time.Time, window time.Duration) []Record {
	kept := records[:0]
	for _, r := range records {
		if now.Sub(r.At) < window {
			kept = append(kept, r)
		}
	}
	// не держим ссылки на выброшенные сообщения
	for i := len(kept); i < len(records); i++ {
		records[i] = Record{}
	}
	return kept
}
