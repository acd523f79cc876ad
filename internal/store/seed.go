package store

import (
	"time"

	"github.com/johnleshan/SwiftChat/internal/model"
)

// NewSeeded возвращает стор с демо-данными: 5 пользователей, два личных и
// два групповых чата с историей. Таймстемпы относительные, чтобы сайдбар
// выглядел живым при каждом запуске.
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	users := []model.User{
		{ID: "user-1", Name: "You", Email: "you@example.com", AvatarURL: "https://placehold.co/40x40/FFD700/000000.png?text=You"},
		{ID: "user-2", Name: "Alice", Email: "alice@example.com", AvatarURL: "https://placehold.co/40x40.png"},
		{ID: "user-3", Name: "Bob", Email: "bob@example.com", AvatarURL: "https://placehold.co/40x40.png"},
		{ID: "user-4", Name: "Charlie", Email: "charlie@example.com", AvatarURL: "https://placehold.co/40x40.png"},
		{ID: "user-5", Name: "Diana", Email: "diana@example.com", AvatarURL: "https://placehold.co/40x40.png"},
	}
	for _, u := range users {
		s.AddUser(u)
	}

	chats := []model.Chat{
		{ID: "chat-1", ChatType: model.ChatTypeDM, Name: "Alice", Members: []string{"user-1", "user-2"}, AvatarURL: "https://placehold.co/40x40.png", UnreadCount: 2},
		{ID: "chat-2", ChatType: model.ChatTypeDM, Name: "Bob", Members: []string{"user-1", "user-3"}, AvatarURL: "https://placehold.co/40x40.png"},
		{ID: "chat-3", ChatType: model.ChatTypeGroup, Name: "Project Team", Members: []string{"user-1", "user-2", "user-4", "user-5"}, AvatarURL: "https://placehold.co/40x40/008080/FFFFFF.png?text=PT", UnreadCount: 5},
		{ID: "chat-4", ChatType: model.ChatTypeGroup, Name: "Weekend Plans", Members: []string{"user-1", "user-3", "user-5"}, AvatarURL: "https://placehold.co/40x40/FFD700/000000.png?text=WP"},
	}
	for _, c := range chats {
		s.AddChat(c)
	}

	seed := func(chatID, msgID, senderID, text string, ago time.Duration) {
		s.seedMessage(chatID, model.Message{
			ID:        msgID,
			ChatID:    chatID,
			SenderID:  senderID,
			Text:      text,
			Timestamp: now.Add(-ago),
		})
	}

	seed("chat-1", "msg-1-1", "user-2", "Hey, are we still on for lunch tomorrow?", 5*time.Minute)
	seed("chat-1", "msg-1-2", "user-1", "Yes, absolutely! 12:30 PM at The Daily Grind?", 4*time.Minute)
	seed("chat-1", "msg-1-3", "user-2", "Perfect. I have a meeting at 2, so that works well.", 3*time.Minute)
	seed("chat-1", "msg-1-4", "user-2", "Sounds good!", 2*time.Minute)

	seed("chat-2", "msg-2-1", "user-3", "Can you send over the latest designs?", 3*time.Hour)
	seed("chat-2", "msg-2-2", "user-1", "Just sent them to your email.", 150*time.Minute)
	seed("chat-2", "msg-2-3", "user-3", "Got it, thanks!", 126*time.Minute)
	seed("chat-2", "msg-2-4", "user-1", "See you then.", 2*time.Hour)

	seed("chat-3", "msg-3-1", "user-4", "Team, quick update on the project. We are on track for the deadline.", 15*time.Minute)
	seed("chat-3", "msg-3-2", "user-2", "Great news! Has the client given feedback on the latest mockups?", 12*time.Minute)
	seed("chat-3", "msg-3-3", "user-5", "Yes, they loved them. Only minor changes requested. It is mostly related to the Q3 report.", 10*time.Minute)
	seed("chat-3", "msg-3-4", "user-1", "Excellent. I'll incorporate the feedback today.", 8*time.Minute)
	seed("chat-3", "msg-3-5", "user-4", "Let's sync up tomorrow morning about the Q3 report.", 5*time.Minute)

	seed("chat-4", "msg-4-1", "user-5", "Long week! Any fun plans for the weekend?", 25*time.Hour)
	seed("chat-4", "msg-4-2", "user-3", "I was thinking of going to the beach if the weather holds up.", 24*time.Hour+30*time.Minute)
	seed("chat-4", "msg-4-3", "user-1", "Anyone up for hiking?", 24*time.Hour)

	return s
}

// seedMessage кладёт сообщение с уже назначенным timestamp, минуя монотонную
// нумерацию Append. Только для сидов и тестов; unread не трогает.
func (s *Store) seedMessage(chatID string, msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[chatID]
	if !ok {
		return
	}
	msg.Sender = nil
	s.messages[chatID] = append(s.messages[chatID], msg)
	if msg.Timestamp.After(chat.LastMessageTimestamp) {
		chat.LastMessage = lastMessagePreview(msg)
		chat.LastMessageTimestamp = msg.Timestamp
	}
}
