// Package orchestrator превращает одну отправку сообщения в детерминированную
// последовательность: append собственного сообщения, затем два независимых
// advisory-вызова (синтетический ответ и предложение focus mode). Ошибка
// любого advisory логируется и глотается — собственное сообщение уже в логе.
package orchestrator

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/johnleshan/SwiftChat/internal/advisor"
	"github.com/johnleshan/SwiftChat/internal/focus"
	"github.com/johnleshan/SwiftChat/internal/logger"
	"github.com/johnleshan/SwiftChat/internal/model"
	"github.com/johnleshan/SwiftChat/internal/store"
)

// SuggestionNotifier доставляет принятое к показу предложение focus mode
// (подтверждающий prompt на клиенте). nil — предложения никому не показываются.
type SuggestionNotifier interface {
	FocusSuggested(chatID, topic string)
}

type Options struct {
	// HistoryWindow — сколько последних сообщений уходит в advisory-запрос.
	HistoryWindow int
	// ReplyDelayMin/Max — искусственная задержка "печатает..." перед
	// синтетическим ответом, равномерно из [Min, Max).
	ReplyDelayMin time.Duration
	ReplyDelayMax time.Duration
}

func (o *Options) normalize() {
	if o.HistoryWindow <= 0 {
		o.HistoryWindow = 10
	}
	if o.ReplyDelayMin < 0 {
		o.ReplyDelayMin = 0
	}
	if o.ReplyDelayMax <= o.ReplyDelayMin {
		o.ReplyDelayMax = o.ReplyDelayMin + time.Millisecond
	}
}

type Orchestrator struct {
	store    *store.Store
	advisor  advisor.Advisor
	focus    *focus.Controller
	notifier SuggestionNotifier
	opts     Options

	// wg считает незавершённые advisory-операции; Wait() дренирует их
	// при остановке сервиса и в тестах.
	wg sync.WaitGroup
}

func New(st *store.Store, adv advisor.Advisor, fc *focus.Controller, notifier SuggestionNotifier, opts Options) *Orchestrator {
	opts.normalize()
	return &Orchestrator{
		store:    st,
		advisor:  adv,
		focus:    fc,
		notifier: notifier,
		opts:     opts,
	}
}

// Send обрабатывает одну пользовательскую отправку. Пустой (после trim) текст —
// no-op: ни сообщения, ни advisory-вызовов, ok=false без ошибки. При успехе
// возвращает добавленное сообщение; advisory-результаты доезжают асинхронно
// и привязаны к chatID, снятому здесь, а не к «текущему» чату.
func (o *Orchestrator) Send(ctx context.Context, chatID, senderID, text string) (model.Message, bool, error) {
	defer logger.DeferLogDuration("orchestrator.Send", time.Now())()

	text = strings.TrimSpace(text)
	if text == "" {
		return model.Message{}, false, nil
	}

	msg, err := o.store.Append(chatID, model.Message{SenderID: senderID, Text: text})
	if err != nil {
		return model.Message{}, false, err
	}

	// Снимок окна истории и состава чата берём сразу после append: поздние
	// результаты применяются к этому чату независимо от навигации.
	chat, err := o.store.Chat(chatID)
	if err != nil {
		return msg, true, nil
	}
	history := o.historyWindow(chatID)
	members, err := o.store.Members(chatID)
	if err != nil {
		return msg, true, nil
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.replyFlow(chatID, senderID, history, members)
	}()

	if chat.ChatType == model.ChatTypeGroup {
		if _, active := o.focus.Active(chatID); !active {
			o.wg.Add(1)
			go func() {
				defer o.wg.Done()
				o.focusFlow(chatID, history)
			}()
		}
	}

	return msg, true, nil
}

// Wait блокирует до завершения всех выпущенных advisory-операций.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// replyFlow запрашивает синтетический ответ от одного из других участников
// и добавляет его после искусственной задержки. Любой сбой — лог и выход.
func (o *Orchestrator) replyFlow(chatID, senderID string, history []advisor.HistoryMessage, members []model.User) {
	others := make([]model.Participant, 0, len(members))
	var current model.Participant
	for _, u := range members {
		if u.ID == senderID {
			current = u.ToParticipant()
			continue
		}
		others = append(others, u.ToParticipant())
	}
	if len(others) == 0 {
		return
	}

	participants := make([]model.Participant, 0, len(members))
	for _, u := range members {
		participants = append(participants, u.ToParticipant())
	}

	out, err := o.advisor.GenerateReply(context.Background(), advisor.GenerateReplyInput{
		Messages:    history,
		ChatMembers: participants,
		CurrentUser: current,
	})
	if err != nil {
		logger.Errorf("orchestrator: reply generation chat=%s: %v", chatID, err)
		return
	}

	valid := false
	for _, p := range others {
		if p.ID == out.ReplySenderID {
			valid = true
			break
		}
	}
	if !valid {
		logger.Errorf("orchestrator: reply sender %q is not another member of chat=%s, dropping", out.ReplySenderID, chatID)
		return
	}

	// "Печатает..." — задержка не трогает уже добавленное сообщение
	// пользователя и переживает уход с экрана чата.
	time.Sleep(o.replyDelay())

	if _, err := o.store.Append(chatID, model.Message{SenderID: out.ReplySenderID, Text: out.ReplyText}); err != nil {
		logger.Errorf("orchestrator: append synthetic reply chat=%s: %v", chatID, err)
	}
}

// focusFlow запрашивает предложение focus mode и передаёт его контроллеру.
// Повтор той же темы не поднимает prompt второй раз.
func (o *Orchestrator) focusFlow(chatID string, history []advisor.HistoryMessage) {
	out, err := o.advisor.SuggestFocusMode(context.Background(), advisor.SuggestFocusModeInput{Messages: history})
	if err != nil {
		logger.Errorf("orchestrator: focus suggestion chat=%s: %v", chatID, err)
		return
	}
	if !out.ShouldSuggestFocusMode {
		return
	}
	if !o.focus.Suggest(chatID, out.SuggestedTopic) {
		logger.Debugf("orchestrator: focus topic %q already suggested for chat=%s", out.SuggestedTopic, chatID)
		return
	}
	logger.Infof("orchestrator: focus topic %q suggested for chat=%s", out.SuggestedTopic, chatID)
	if o.notifier != nil {
		o.notifier.FocusSuggested(chatID, out.SuggestedTopic)
	}
}

func (o *Orchestrator) historyWindow(chatID string) []advisor.HistoryMessage {
	msgs, err := o.store.LastMessages(chatID, o.opts.HistoryWindow)
	if err != nil {
		return nil
	}
	out := make([]advisor.HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, advisor.HistoryMessage{
			Sender:  o.store.SenderName(m.SenderID),
			Content: m.Text,
		})
	}
	return out
}

func (o *Orchestrator) replyDelay() time.Duration {
	span := o.opts.ReplyDelayMax - o.opts.ReplyDelayMin
	return o.opts.ReplyDelayMin + time.Duration(rand.Int63n(int64(span)))
}
