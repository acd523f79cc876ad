package model

// FocusPhase — фаза focus mode для одного чата.
type FocusPhase string

const (
	FocusInactive FocusPhase = "inactive"
	FocusPending  FocusPhase = "pending_confirmation"
	FocusActive   FocusPhase = "active"
)

// FocusSuggestion is a transient advisory result; at most one pending per chat.
type FocusSuggestion struct {
	ShouldSuggest bool   `json:"should_suggest"`
	Topic         string `json:"topic"`
}

// FocusState is the per-chat focus mode snapshot handed to clients.
type FocusState struct {
	Phase FocusPhase `json:"phase"`
	// Topic is the pending or active topic, empty when inactive.
	Topic string `json:"topic,omitempty"`
	// LastSuggestedTopic suppresses repeat prompts for the same topic.
	LastSuggestedTopic string `json:"last_suggested_topic,omitempty"`
}
