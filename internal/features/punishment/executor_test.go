package punishment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/antiscam-bot/internal/common"
	"serotonyl.ru/antiscam-bot/internal/features/ledger"
	"serotonyl.ru/antiscam-bot/internal/models"
)

type fakeGateway struct {
	mu        sync.Mutex
	kickErr   error
	failIDs   map[int]bool
	kicked    []ledger.Key
	deleted   []int
	sent      map[int64][]string
	sendErr   error
	deadlines bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{failIDs: map[int]bool{}, sent: map[int64][]string{}}
}

func (g *fakeGateway) KickMember(ctx context.Context, chatID, userID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, g.deadlines = ctx.Deadline()
	if g.kickErr != nil {
		return g.kickErr
	}
	g.kicked = append(g.kicked, ledger.Key{ChatID: chatID, UserID: userID})
	return nil
}

func (g *fakeGateway) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failIDs[messageID] {
		return errors.New("message to delete not found")
	}
	g.deleted = append(g.deleted, messageID)
	return nil
}

func (g *fakeGateway) SendMessage(_ context.Context, chatID int64, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sendErr != nil {
		return g.sendErr
	}
	g.sent[chatID] = append(g.sent[chatID], text)
	return nil
}

type fakeAudit struct {
	mu    sync.Mutex
	saved []Result
	err   error
}

func (a *fakeAudit) Save(_ context.Context, r Result) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saved = append(a.saved, r)
	return a.err
}

func records(key ledger.Key, ids ...int) []ledger.Record {
	now := time.Now()
	out := make([]ledger.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, ledger.Record{
			Message: models.Message{ID: id, ChatID: key.ChatID, AuthorID: key.UserID, CreatedAt: now},
			At:      now,
		})
	}
	return out
}

var testKey = ledger.Key{ChatID: -100, UserID: 42}

func TestPunishSuccessDeletesAll(t *testing.T) {
	gw := newFakeGateway()
	audit := &fakeAudit{}
	ex := NewExecutor(gw, audit, time.Second)

	res := ex.Punish(context.Background(), testKey, records(testKey, 1, 2, 3, 4, 5))

	require.True(t, res.Success())
	assert.Equal(t, []ledger.Key{testKey}, gw.kicked)
	assert.True(t, gw.deadlines, "kick must carry a timeout")
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5}, gw.deleted)
	assert.Equal(t, 5, res.Deleted)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, KickReason, res.Reason)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, res.MessageIDs)
	assert.Equal(t, []string{KickReason}, gw.sent[testKey.UserID])

	require.Len(t, audit.saved, 1)
	assert.Equal(t, res.CaseID, audit.saved[0].CaseID)
}

func TestPunishKickFailureDeletesNothing(t *testing.T) {
	gw := newFakeGateway()
	gw.kickErr = errors.New("not enough rights to restrict/unrestrict chat member")
	audit := &fakeAudit{}
	ex := NewExecutor(gw, audit, time.Second)

	res := ex.Punish(context.Background(), testKey, records(testKey, 1, 2, 3))

	assert.False(t, res.Success())
	assert.Equal(t, StatusFailure, res.Status)
	assert.ErrorIs(t, res.Err, common.ErrKickFailed)
	assert.Empty(t, gw.deleted)
	assert.Empty(t, gw.sent)
	assert.Zero(t, res.Deleted)

	require.Len(t, audit.saved, 1)
	assert.Equal(t, StatusFailure, audit.saved[0].Status)
}

func TestPunishPartialDeleteFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.failIDs[2] = true
	gw.failIDs[4] = true
	ex := NewExecutor(gw, nil, time.Second)

	res := ex.Punish(context.Background(), testKey, records(testKey, 1, 2, 3, 4, 5))

	assert.True(t, res.Success())
	assert.ElementsMatch(t, []int{1, 3, 5}, gw.deleted)
	assert.Equal(t, 3, res.Deleted)
	assert.Equal(t, 2, res.Failed)
}

func TestPunishIgnoresNotifyAndAuditErrors(t *testing.T) {
	gw := newFakeGateway()
	gw.sendErr = errors.New("bot can't initiate conversation with a user")
	audit := &fakeAudit{err: errors.New("db down")}
	ex := NewExecutor(gw, audit, time.Second)

	res := ex.Punish(context.Background(), testKey, records(testKey, 7))

	assert.True(t, res.Success())
	assert.Equal(t, 1, res.Deleted)
	assert.Len(t, audit.saved, 1)
}

func TestPunishUniqueCaseIDs(t *testing.T) {
	ex := NewExecutor(newFakeGateway(), nil, 0)
	a := ex.Punish(context.Background(), testKey, records(testKey, 1))
	b := ex.Punish(context.Background(), testKey, records(testKey, 2))
	assert.NotEqual(t, a.CaseID, b.CaseID)
	assert.Equal(t, 10*time.Second, ex.timeout)
}
