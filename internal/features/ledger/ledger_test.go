package ledger

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/antiscam-bot/internal/models"
)

var (
	t0  = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	key = Key{ChatID: -100500, UserID: 42}
)

func msgAt(id int, at time.Time) models.Message {
	return models.Message{ID: id, ChatID: key.ChatID, AuthorID: key.UserID, CreatedAt: at}
}

func TestBreachOnFifthFlagWithinWindow(t *testing.T) {
	assert := assert.New(t)
	l := New(DefaultForgivenessWindow, DefaultSuspiciousMessagesThreshold)

	for i := 1; i <= 4; i++ {
		at := t0.Add(time.Duration(i) * 10 * time.Second)
		out := l.RecordFlag(key, msgAt(i, at), at)
		assert.Equal(VerdictOK, out.Verdict)
		assert.Equal(i, out.Count)
		assert.Nil(out.Records)
	}

	at := t0.Add(50 * time.Second)
	out := l.RecordFlag(key, msgAt(5, at), at)
	require.Equal(t, VerdictBreach, out.Verdict)
	assert.Equal(5, out.Count)
	require.Len(t, out.Records, 5)
	for i, r := range out.Records {
		assert.Equal(i+1, r.Message.ID, "records keep chronological order")
	}

	l.Clear(key)
	assert.Equal(0, l.Len())
	assert.Equal(0, l.Count(key, at))
}

func TestExpiredRecordsDoNotCount(t *testing.T) {
	assert := assert.New(t)
	l := New(120*time.Second, 5)

	// четыре сообщения через 40 секунд, пятое через 200 секунд после первого
	for i := 0; i < 4; i++ {
		at := t0.Add(time.Duration(i) * 40 * time.Second)
		out := l.RecordFlag(key, msgAt(i+1, at), at)
		assert.Equal(VerdictOK, out.Verdict)
	}
	at := t0.Add(200 * time.Second)
	out := l.RecordFlag(key, msgAt(5, at), at)
	assert.Equal(VerdictOK, out.Verdict)
	assert.Less(out.Count, 5)
	// живы сообщения на 120с (возраст 80с) и на 200с
	assert.Equal(2, out.Count)
}

func TestWindowBoundaryIsExclusive(t *testing.T) {
	l := New(120*time.Second, 2)

	l.RecordFlag(key, msgAt(1, t0), t0)
	at := t0.Add(120 * time.Second)
	out := l.RecordFlag(key, msgAt(2, at), at)
	assert.Equal(t, VerdictOK, out.Verdict, "a record exactly window old has expired")
	assert.Equal(t, 1, out.Count)
}

func TestOneFewerThanThresholdNeverBreaches(t *testing.T) {
	l := New(time.Hour, 5)
	for i := 0; i < 4; i++ {
		at := t0.Add(time.Duration(i) * time.Second)
		out := l.RecordFlag(key, msgAt(i, at), at)
		assert.NotEqual(t, VerdictBreach, out.Verdict)
	}
	assert.Equal(t, 4, l.Count(key, t0.Add(10*time.Second)))
}

func TestCountIgnoresStaleRecordsWithoutPurge(t *testing.T) {
	l := New(120*time.Second, 5)
	l.RecordFlag(key, msgAt(1, t0), t0)
	l.RecordFlag(key, msgAt(2, t0.Add(100*time.Second)), t0.Add(100*time.Second))

	assert.Equal(t, 1, l.Count(key, t0.Add(150*time.Second)))
	assert.Equal(t, 0, l.Count(key, t0.Add(500*time.Second)))
}

func TestStaleMessageDoesNotCreateEntry(t *testing.T) {
	l := New(120*time.Second, 5)
	out := l.RecordFlag(key, msgAt(1, t0), t0.Add(10*time.Minute))
	assert.Equal(t, VerdictOK, out.Verdict)
	assert.Equal(t, 0, out.Count)
	assert.Equal(t, 0, l.Len())
}

func TestPurgeExpiredRemovesEmptyEntries(t *testing.T) {
	assert := assert.New(t)
	l := New(120*time.Second, 5)

	l.RecordFlag(key, msgAt(1, t0), t0)
	other := Key{ChatID: key.ChatID, UserID: 7}
	l.RecordFlag(other, models.Message{ID: 2, CreatedAt: t0.Add(100 * time.Second)}, t0.Add(100*time.Second))
	assert.Equal(2, l.Len())

	assert.Equal(1, l.PurgeExpired(key, t0.Add(60*time.Second)))
	assert.Equal(0, l.PurgeExpired(key, t0.Add(130*time.Second)))
	assert.Equal(1, l.Len())

	assert.Equal(0, l.PurgeExpired(Key{UserID: 999}, t0))
}

func TestSweep(t *testing.T) {
	l := New(120*time.Second, 5)
	for u := int64(1); u <= 10; u++ {
		at := t0.Add(time.Duration(u) * 10 * time.Second)
		l.RecordFlag(Key{ChatID: 1, UserID: u}, models.Message{CreatedAt: at}, at)
	}
	// на момент t0+175s живы пользователи 6..10 (возраст < 120s)
	removed := l.Sweep(t0.Add(175 * time.Second))
	assert.Equal(t, 5, removed)
	assert.Equal(t, 5, l.Len())
}

func TestClearIsIdempotent(t *testing.T) {
	l := New(time.Minute, 5)
	l.Clear(key)
	l.RecordFlag(key, msgAt(1, t0), t0)
	l.Clear(key)
	l.Clear(key)
	assert.Equal(t, 0, l.Len())

	// после очистки счёт начинается заново
	out := l.RecordFlag(key, msgAt(2, t0), t0)
	assert.Equal(t, 1, out.Count)
}

func TestPendingWhilePunishing(t *testing.T) {
	assert := assert.New(t)
	l := New(time.Hour, 2)

	l.RecordFlag(key, msgAt(1, t0), t0)
	out := l.RecordFlag(key, msgAt(2, t0), t0)
	assert.Equal(VerdictBreach, out.Verdict)

	out = l.RecordFlag(key, msgAt(3, t0), t0)
	assert.Equal(VerdictPending, out.Verdict)
	assert.Nil(out.Records)

	// Sweep не трогает участника, по которому идёт наказание
	assert.Equal(0, l.Sweep(t0.Add(2*time.Hour)))
	assert.Equal(1, l.Len())

	l.Clear(key)
	out = l.RecordFlag(key, msgAt(4, t0), t0)
	assert.Equal(VerdictOK, out.Verdict)
	assert.Equal(1, out.Count)
}

func TestReleaseReturnsRecordsHeldDuringPunishment(t *testing.T) {
	l := New(time.Minute, 2)

	l.RecordFlag(key, msgAt(1, t0), t0)
	require.Equal(t, VerdictBreach, l.RecordFlag(key, msgAt(2, t0), t0).Verdict)

	// пришло уже после окна, но по участнику идёт наказание
	late := t0.Add(5 * time.Minute)
	assert.Equal(t, VerdictPending, l.RecordFlag(key, msgAt(3, late), late).Verdict)
	assert.Equal(t, 0, l.Sweep(late.Add(time.Hour)))

	records := l.Release(key)
	ids := make([]int, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.Message.ID)
	}
	assert.Equal(t, []int{1, 2, 3}, ids)
	assert.Equal(t, 0, l.Len())
	assert.Nil(t, l.Release(key))
}

func TestBreachRecordsAreACopy(t *testing.T) {
	l := New(time.Hour, 1)
	out := l.RecordFlag(key, msgAt(1, t0), t0)
	require.Equal(t, VerdictBreach, out.Verdict)
	out.Records[0].Message.ID = 999

	// следующая пометка во время наказания видит исходные данные
	l.RecordFlag(key, msgAt(2, t0), t0)
	assert.Equal(t, 2, l.Count(key, t0))
}

func TestConcurrentFlagsSameUserBreachOnce(t *testing.T) {
	l := New(time.Hour, 5)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		verdicts = map[Verdict]int{}
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			out := l.RecordFlag(key, msgAt(id, t0), t0)
			mu.Lock()
			verdicts[out.Verdict]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, verdicts[VerdictBreach])
	assert.Equal(t, 4, verdicts[VerdictOK])
	assert.Equal(t, 45, verdicts[VerdictPending])
}

func TestConcurrentDifferentUsers(t *testing.T) {
	l := New(time.Hour, 3)

	var wg sync.WaitGroup
	breaches := make(chan Key, 100)
	for u := int64(0); u < 20; u++ {
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func(u int64, id int) {
				defer wg.Done()
				k := Key{ChatID: 1, UserID: u}
				if out := l.RecordFlag(k, models.Message{ID: id, CreatedAt: t0}, t0); out.Verdict == VerdictBreach {
					breaches <- k
					l.Clear(k)
				}
			}(u, i)
		}
	}
	wg.Wait()
	close(breaches)

	seen := map[Key]bool{}
	for k := range breaches {
		assert.False(t, seen[k], "double breach for %s", k)
		seen[k] = true
	}
	assert.Len(t, seen, 20)
	assert.Equal(t, 0, l.Len())
}

func TestNewAppliesDefaults(t *testing.T) {
	l := New(0, 0)
	assert.Equal(t, DefaultForgivenessWindow, l.Window())
	assert.Equal(t, DefaultSuspiciousMessagesThreshold, l.Threshold())
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "breach", VerdictBreach.String())
	assert.Equal(t, "pending", VerdictPending.String())
	assert.Equal(t, "ok", VerdictOK.String())
}
