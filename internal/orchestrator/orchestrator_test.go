package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnleshan/SwiftChat/internal/advisor"
	"github.com/johnleshan/SwiftChat/internal/focus"
	"github.com/johnleshan/SwiftChat/internal/model"
	"github.com/johnleshan/SwiftChat/internal/store"
)

// fakeAdvisor — управляемая реализация advisory-границы для тестов.
type fakeAdvisor struct {
	mu          sync.Mutex
	replyOut    advisor.GenerateReplyOutput
	replyErr    error
	replyDelay  time.Duration
	focusOut    advisor.SuggestFocusModeOutput
	focusErr    error
	focusDelay  time.Duration
	replyCalls  int
	focusCalls  int
	lastReplyIn advisor.GenerateReplyInput
}

func (f *fakeAdvisor) GenerateReply(ctx context.Context, in advisor.GenerateReplyInput) (advisor.GenerateReplyOutput, error) {
	f.mu.Lock()
	f.replyCalls++
	f.lastReplyIn = in
	out, err, d := f.replyOut, f.replyErr, f.replyDelay
	f.mu.Unlock()
	if d > 0 {
		time.Sleep(d)
	}
	return out, err
}

func (f *fakeAdvisor) SuggestFocusMode(ctx context.Context, in advisor.SuggestFocusModeInput) (advisor.SuggestFocusModeOutput, error) {
	f.mu.Lock()
	f.focusCalls++
	out, err, d := f.focusOut, f.focusErr, f.focusDelay
	f.mu.Unlock()
	if d > 0 {
		time.Sleep(d)
	}
	return out, err
}

func (f *fakeAdvisor) calls() (reply, focusN int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.replyCalls, f.focusCalls
}

type recordingNotifier struct {
	mu     sync.Mutex
	topics []string
}

func (n *recordingNotifier) FocusSuggested(chatID, topic string) {
	n.mu.Lock()
	n.topics = append(n.topics, topic)
	n.mu.Unlock()
}

func (n *recordingNotifier) got() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.topics...)
}

func newTestStore() *store.Store {
	s := store.New()
	s.AddUser(model.User{ID: "u1", Name: "You"})
	s.AddUser(model.User{ID: "u2", Name: "Alice"})
	s.AddUser(model.User{ID: "u3", Name: "Bob"})
	s.AddChat(model.Chat{ID: "group", ChatType: model.ChatTypeGroup, Name: "Team", Members: []string{"u1", "u2", "u3"}})
	s.AddChat(model.Chat{ID: "dm", ChatType: model.ChatTypeDM, Name: "Alice", Members: []string{"u1", "u2"}})
	return s
}

func testOptions() Options {
	// Быстрые задержки, чтобы тесты не спали по секунде.
	return Options{HistoryWindow: 10, ReplyDelayMin: time.Millisecond, ReplyDelayMax: 2 * time.Millisecond}
}

func TestSend_AppendsExactlyOneOwnMessage(t *testing.T) {
	st := newTestStore()
	adv := &fakeAdvisor{}
	o := New(st, adv, focus.NewController(), nil, testOptions())

	msg, ok, err := o.Send(context.Background(), "group", "u1", "  hello world  ")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "u1", msg.SenderID)
	assert.Equal(t, "hello world", msg.Text, "текст отправляется обрезанным")
	o.Wait()

	msgs, err := st.LastMessages("group", 0)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(msgs), 1)
	assert.Equal(t, "hello world", msgs[0].Text)
}

func TestSend_EmptyTextIsNoOp(t *testing.T) {
	st := newTestStore()
	adv := &fakeAdvisor{}
	o := New(st, adv, focus.NewController(), nil, testOptions())

	for _, text := range []string{"", "   ", "\n\t "} {
		_, ok, err := o.Send(context.Background(), "group", "u1", text)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	o.Wait()

	msgs, err := st.LastMessages("group", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs, "ни одного сообщения")

	reply, focusN := adv.calls()
	assert.Zero(t, reply, "advisory не вызывался")
	assert.Zero(t, focusN)

	chat, err := st.Chat("group")
	require.NoError(t, err)
	assert.Empty(t, chat.LastMessage)
}

func TestSend_SyntheticReplyAppendedAfterOwnMessage(t *testing.T) {
	st := newTestStore()
	adv := &fakeAdvisor{replyOut: advisor.GenerateReplyOutput{ReplyText: "sounds great", ReplySenderID: "u2"}}
	o := New(st, adv, focus.NewController(), nil, testOptions())

	own, ok, err := o.Send(context.Background(), "group", "u1", "let's meet")
	require.NoError(t, err)
	require.True(t, ok)
	o.Wait()

	msgs, err := st.LastMessages("group", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, own.ID, msgs[0].ID)
	assert.Equal(t, "u2", msgs[1].SenderID)
	assert.Equal(t, "sounds great", msgs[1].Text)
	assert.True(t, msgs[1].Timestamp.After(own.Timestamp), "синтетический ответ строго позже исходного сообщения")
}

func TestSend_InvalidReplySenderDropped(t *testing.T) {
	for _, senderID := range []string{"u1", "stranger", ""} {
		st := newTestStore()
		adv := &fakeAdvisor{replyOut: advisor.GenerateReplyOutput{ReplyText: "hi", ReplySenderID: senderID}}
		o := New(st, adv, focus.NewController(), nil, testOptions())

		_, ok, err := o.Send(context.Background(), "group", "u1", "hello")
		require.NoError(t, err)
		require.True(t, ok)
		o.Wait()

		msgs, err := st.LastMessages("group", 0)
		require.NoError(t, err)
		assert.Len(t, msgs, 1, "reply от %q должен быть отброшен", senderID)
	}
}

func TestSend_AdvisoryFailuresContained(t *testing.T) {
	st := newTestStore()
	adv := &fakeAdvisor{
		replyErr: context.DeadlineExceeded,
		focusErr: context.DeadlineExceeded,
	}
	o := New(st, adv, focus.NewController(), nil, testOptions())

	_, ok, err := o.Send(context.Background(), "group", "u1", "hello")
	require.NoError(t, err, "сбой advisory не должен влиять на отправку")
	require.True(t, ok)
	o.Wait()

	msgs, err := st.LastMessages("group", 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 1, "собственное сообщение в логе, синтетического нет")
}

func TestSend_FocusSuggestionIdempotentPerTopic(t *testing.T) {
	st := newTestStore()
	adv := &fakeAdvisor{focusOut: advisor.SuggestFocusModeOutput{ShouldSuggestFocusMode: true, SuggestedTopic: "Q3 report"}}
	fc := focus.NewController()
	n := &recordingNotifier{}
	o := New(st, adv, fc, n, testOptions())

	_, _, err := o.Send(context.Background(), "group", "u1", "about the Q3 report")
	require.NoError(t, err)
	o.Wait()

	require.Equal(t, []string{"Q3 report"}, n.got())
	assert.Equal(t, model.FocusPending, fc.State("group").Phase)

	// dismiss + тот же topic снова — prompt не повторяется
	require.NoError(t, fc.Dismiss("group"))
	_, _, err = o.Send(context.Background(), "group", "u1", "more about the Q3 report")
	require.NoError(t, err)
	o.Wait()

	assert.Equal(t, []string{"Q3 report"}, n.got(), "повторная тема не поднимает prompt")
	assert.Equal(t, model.FocusInactive, fc.State("group").Phase)
}

func TestSend_NoFocusSuggestionForDM(t *testing.T) {
	st := newTestStore()
	adv := &fakeAdvisor{focusOut: advisor.SuggestFocusModeOutput{ShouldSuggestFocusMode: true, SuggestedTopic: "lunch"}}
	o := New(st, adv, focus.NewController(), nil, testOptions())

	_, _, err := o.Send(context.Background(), "dm", "u1", "lunch tomorrow?")
	require.NoError(t, err)
	o.Wait()

	_, focusN := adv.calls()
	assert.Zero(t, focusN, "focus suggestion только для групповых чатов")
}

func TestSend_NoFocusSuggestionWhileActive(t *testing.T) {
	st := newTestStore()
	adv := &fakeAdvisor{focusOut: advisor.SuggestFocusModeOutput{ShouldSuggestFocusMode: true, SuggestedTopic: "beach"}}
	fc := focus.NewController()
	o := New(st, adv, fc, nil, testOptions())

	require.True(t, fc.Suggest("group", "beach"))
	_, err := fc.Confirm("group")
	require.NoError(t, err)

	_, _, err = o.Send(context.Background(), "group", "u1", "hello")
	require.NoError(t, err)
	o.Wait()

	_, focusN := adv.calls()
	assert.Zero(t, focusN, "при активном focus mode предложение не запрашивается")
}

func TestSend_SkipsReplyWhenNoOtherMembers(t *testing.T) {
	st := newTestStore()
	st.AddChat(model.Chat{ID: "solo", ChatType: model.ChatTypeGroup, Name: "Notes", Members: []string{"u1"}})
	adv := &fakeAdvisor{replyOut: advisor.GenerateReplyOutput{ReplyText: "hi", ReplySenderID: "u2"}}
	o := New(st, adv, focus.NewController(), nil, testOptions())

	_, _, err := o.Send(context.Background(), "solo", "u1", "just me here")
	require.NoError(t, err)
	o.Wait()

	reply, _ := adv.calls()
	assert.Zero(t, reply, "без других участников генерация ответа не запускается")
}

func TestSend_HistoryWindowCapped(t *testing.T) {
	st := newTestStore()
	for i := 0; i < 14; i++ {
		_, err := st.Append("group", model.Message{SenderID: "u2", Text: "filler"})
		require.NoError(t, err)
	}
	adv := &fakeAdvisor{replyOut: advisor.GenerateReplyOutput{ReplyText: "ok", ReplySenderID: "u2"}}
	o := New(st, adv, focus.NewController(), nil, testOptions())

	_, _, err := o.Send(context.Background(), "group", "u1", "latest")
	require.NoError(t, err)
	o.Wait()

	adv.mu.Lock()
	in := adv.lastReplyIn
	adv.mu.Unlock()

	require.Len(t, in.Messages, 10, "окно истории ограничено десятью сообщениями")
	last := in.Messages[len(in.Messages)-1]
	assert.Equal(t, "You", last.Sender, "имя отправителя резолвится из справочника")
	assert.Equal(t, "latest", last.Content, "собственное сообщение входит в окно")
	assert.Equal(t, "u1", in.CurrentUser.ID)
	assert.Len(t, in.ChatMembers, 3)
}

func TestSend_LateReplyRoutesToOriginChat(t *testing.T) {
	st := newTestStore()
	adv := &fakeAdvisor{
		replyOut:   advisor.GenerateReplyOutput{ReplyText: "late but correct", ReplySenderID: "u2"},
		replyDelay: 20 * time.Millisecond,
	}
	o := New(st, adv, focus.NewController(), nil, testOptions())

	_, _, err := o.Send(context.Background(), "group", "u1", "hello")
	require.NoError(t, err)

	// уходим в другой чат до прихода ответа
	_, err = st.Select("dm")
	require.NoError(t, err)
	o.Wait()

	groupMsgs, err := st.LastMessages("group", 0)
	require.NoError(t, err)
	require.Len(t, groupMsgs, 2, "поздний ответ лёг в исходный чат")
	assert.Equal(t, "late but correct", groupMsgs[1].Text)

	dmMsgs, err := st.LastMessages("dm", 0)
	require.NoError(t, err)
	assert.Empty(t, dmMsgs)
}

func TestSend_AdvisoryRace(t *testing.T) {
	// Сценарий: reply доезжает сильно позже, focus — сразу и с отказом.
	// Итог не зависит от порядка завершения: [M1, Reply], focus не тронут.
	st := newTestStore()
	adv := &fakeAdvisor{
		replyOut:   advisor.GenerateReplyOutput{ReplyText: "delayed reply", ReplySenderID: "u3"},
		replyDelay: 30 * time.Millisecond,
		focusOut:   advisor.SuggestFocusModeOutput{ShouldSuggestFocusMode: false},
		focusDelay: time.Millisecond,
	}
	fc := focus.NewController()
	n := &recordingNotifier{}
	o := New(st, adv, fc, n, testOptions())

	own, ok, err := o.Send(context.Background(), "group", "u1", "who is up for lunch?")
	require.NoError(t, err)
	require.True(t, ok)
	o.Wait()

	msgs, err := st.LastMessages("group", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, own.ID, msgs[0].ID)
	assert.Equal(t, "delayed reply", msgs[1].Text)
	assert.True(t, msgs[1].Timestamp.After(msgs[0].Timestamp))

	assert.Empty(t, n.got())
	assert.Equal(t, model.FocusInactive, fc.State("group").Phase)
}

func TestSend_UnknownChat(t *testing.T) {
	st := newTestStore()
	o := New(st, &fakeAdvisor{}, focus.NewController(), nil, testOptions())

	_, ok, err := o.Send(context.Background(), "missing", "u1", "hello")
	assert.ErrorIs(t, err, store.ErrChatNotFound)
	assert.False(t, ok)
}
