package moderation

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/antiscam-bot/internal/features/logchannel"
	"serotonyl.ru/antiscam-bot/internal/features/scoring"
	"serotonyl.ru/antiscam-bot/internal/models"
)

type fakeReplier struct {
	mu      sync.Mutex
	replies map[int64][]string
}

func (f *fakeReplier) SendMessage(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replies == nil {
		f.replies = map[int64][]string{}
	}
	f.replies[chatID] = append(f.replies[chatID], text)
	return nil
}

type fakeLogChannel struct {
	chatID int64
	setErr error
	lines  []string
}

func (f *fakeLogChannel) Set(_ context.Context, chatID int64) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.chatID = chatID
	return nil
}

func (f *fakeLogChannel) Unset(context.Context) error {
	f.chatID = 0
	return nil
}

func (f *fakeLogChannel) Log(text string) { f.lines = append(f.lines, text) }

type fakeChatAdmins struct {
	admins map[int64]bool
	err    error
}

func (f *fakeChatAdmins) IsChatAdmin(_ context.Context, _ int64, userID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.admins[userID], nil
}

const moderatedChat int64 = 77

func newTestHandler(t *testing.T, admins ...int64) (*Handler, *fakeReplier, *fakeLogChannel) {
	t.Helper()
	h, replier, lc, _ := newTestHandlerWithChatAdmins(t, admins...)
	return h, replier, lc
}

func newTestHandlerWithChatAdmins(t *testing.T, admins ...int64) (*Handler, *fakeReplier, *fakeLogChannel, *fakeChatAdmins) {
	t.Helper()
	keywords, err := scoring.NewKeywordTable(map[string]float64{"free nitro": 1.0})
	require.NoError(t, err)

	replier := &fakeReplier{}
	lc := &fakeLogChannel{}
	chatAdmins := &fakeChatAdmins{admins: map[int64]bool{}}
	h := NewHandler(HandlerDeps{
		Scorer:      scoring.NewScorer(keywords, 0.3, 1.0),
		LogChannel:  lc,
		Replier:     replier,
		ChatAdmins:  chatAdmins,
		IsAdmin:     func(id int64) bool { return slices.Contains(admins, id) },
		IsModerated: func(chatID int64) bool { return chatID == moderatedChat },
	})
	return h, replier, lc, chatAdmins
}

func TestHandleSuspiciousness(t *testing.T) {
	h, replier, lc := newTestHandler(t)

	h.HandleSuspiciousness(context.Background(), models.Message{ID: 9, ChatID: 5, Content: "!suspiciousness free nitro"})
	h.HandleSuspiciousness(context.Background(), models.Message{ID: 10, ChatID: 5, Content: "!suspiciousness",
		Attachments: []models.Attachment{{ContentType: "image/png"}}})

	assert.Equal(t, []string{
		"Suspiciousness score: 1.00 [SUSPICIOUS]",
		"Suspiciousness score: 0.30 [not suspicious]",
	}, replier.replies[5])
	assert.Equal(t, "Calculated suspiciousness for message 9 with score 1.00 [SUSPICIOUS]", lc.lines[0])
}

func TestHandleLogHereAndStop(t *testing.T) {
	h, replier, lc := newTestHandler(t, 1)
	ctx := context.Background()

	h.HandleLogHere(ctx, 77, 1)
	assert.Equal(t, int64(77), lc.chatID)
	h.HandleStopLogging(ctx, 77, 1)
	assert.Zero(t, lc.chatID)
	assert.Equal(t, []string{"This chat is now set for logging.", "Logging to Telegram has been stopped."}, replier.replies[77])
}

func TestLogCommandsRequireAdmin(t *testing.T) {
	h, replier, lc := newTestHandler(t, 1)
	ctx := context.Background()

	h.HandleLogHere(ctx, 77, 2)
	assert.Zero(t, lc.chatID)
	assert.Equal(t, []string{"You are not allowed to use this command."}, replier.replies[77])

	h.HandleLogHere(ctx, 77, 1)
	assert.Equal(t, int64(77), lc.chatID)
}

func TestHandleLogHereStoreError(t *testing.T) {
	h, replier, lc := newTestHandler(t, 1)
	lc.setErr = errors.New("disk full")

	h.HandleLogHere(context.Background(), 77, 1)
	assert.Equal(t, []string{"Failed to set this chat for logging."}, replier.replies[77])
}

func TestHandleHelp(t *testing.T) {
	h, replier, _ := newTestHandler(t)
	h.HandleHelp(context.Background(), 3)
	require.Len(t, replier.replies[3], 1)
	assert.Contains(t, replier.replies[3][0], "!suspiciousness")
}

func TestLogCommandsDeniedWithoutAdminList(t *testing.T) {
	h, replier, lc := newTestHandler(t)

	h.HandleLogHere(context.Background(), moderatedChat, 1)
	assert.Zero(t, lc.chatID)
	assert.Equal(t, []string{"You are not allowed to use this command."}, replier.replies[moderatedChat])
}

func TestChatAdminMayManageLogChannel(t *testing.T) {
	h, replier, lc, chatAdmins := newTestHandlerWithChatAdmins(t)
	chatAdmins.admins[5] = true

	h.HandleLogHere(context.Background(), moderatedChat, 5)
	assert.Equal(t, moderatedChat, lc.chatID)
	assert.Equal(t, []string{"This chat is now set for logging."}, replier.replies[moderatedChat])
}

func TestChatAdminLookupErrorDenies(t *testing.T) {
	h, _, lc, chatAdmins := newTestHandlerWithChatAdmins(t)
	chatAdmins.admins[5] = true
	chatAdmins.err = errors.New("chat not found")

	h.HandleLogHere(context.Background(), moderatedChat, 5)
	assert.Zero(t, lc.chatID)
}

func TestStrangerCannotRedirectLogFromUnmoderatedGroup(t *testing.T) {
	ctx := context.Background()
	const strangerGroup int64 = -999

	sender := &fakeReplier{}
	store := logchannel.NewFileStore(filepath.Join(t.TempDir(), "log_channel_id.txt"))
	require.NoError(t, store.Save(ctx, moderatedChat))
	sink := logchannel.NewSink(store, sender, nil, time.Second)
	sink.Load(ctx)

	keywords, err := scoring.NewKeywordTable(map[string]float64{"free nitro": 1.0})
	require.NoError(t, err)
	chatAdmins := &fakeChatAdmins{admins: map[int64]bool{777: true}}
	h := NewHandler(HandlerDeps{
		Scorer:      scoring.NewScorer(keywords, 0.3, 1.0),
		LogChannel:  sink,
		Replier:     sender,
		ChatAdmins:  chatAdmins,
		IsModerated: func(chatID int64) bool { return chatID == moderatedChat },
	})

	// 777 администрирует свою группу, но она не модерируется
	h.HandleLogHere(ctx, strangerGroup, 777)
	h.HandleStopLogging(ctx, strangerGroup, 777)

	id, ok := sink.ChatID()
	assert.True(t, ok)
	assert.Equal(t, moderatedChat, id)
	assert.Equal(t, []string{
		"You are not allowed to use this command.",
		"You are not allowed to use this command.",
	}, sender.replies[strangerGroup])
}
