package focus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnleshan/SwiftChat/internal/model"
)

func TestSuggestConfirmExit(t *testing.T) {
	c := NewController()

	require.True(t, c.Suggest("c1", "beach"))
	st := c.State("c1")
	assert.Equal(t, model.FocusPending, st.Phase)
	assert.Equal(t, "beach", st.Topic)

	topic, err := c.Confirm("c1")
	require.NoError(t, err)
	assert.Equal(t, "beach", topic)

	got, active := c.Active("c1")
	require.True(t, active)
	assert.Equal(t, "beach", got)

	require.NoError(t, c.Exit("c1"))
	_, active = c.Active("c1")
	assert.False(t, active)
}

func TestSuggest_SameTopicNeverRepromptsTwiceInARow(t *testing.T) {
	c := NewController()

	require.True(t, c.Suggest("c1", "beach"))
	require.NoError(t, c.Dismiss("c1"))

	// та же тема после dismiss — молчим
	assert.False(t, c.Suggest("c1", "beach"))
	assert.Equal(t, model.FocusInactive, c.State("c1").Phase)

	// другая тема — новый prompt
	assert.True(t, c.Suggest("c1", "hiking"))
	assert.Equal(t, model.FocusPending, c.State("c1").Phase)
}

func TestSuggest_DoesNotInterruptActiveFocus(t *testing.T) {
	c := NewController()
	require.True(t, c.Suggest("c1", "beach"))
	_, err := c.Confirm("c1")
	require.NoError(t, err)

	assert.False(t, c.Suggest("c1", "hiking"))
	topic, active := c.Active("c1")
	require.True(t, active)
	assert.Equal(t, "beach", topic)
}

func TestSuggest_EmptyTopicIgnored(t *testing.T) {
	c := NewController()
	assert.False(t, c.Suggest("c1", ""))
	assert.Equal(t, model.FocusInactive, c.State("c1").Phase)
}

func TestConfirmDismissExit_WrongPhase(t *testing.T) {
	c := NewController()

	_, err := c.Confirm("c1")
	assert.ErrorIs(t, err, ErrNoPendingSuggestion)
	assert.ErrorIs(t, c.Dismiss("c1"), ErrNoPendingSuggestion)
	assert.ErrorIs(t, c.Exit("c1"), ErrNotActive)
}

func TestReset_ClearsStateAndSuggestionMemory(t *testing.T) {
	c := NewController()
	require.True(t, c.Suggest("c1", "beach"))
	_, err := c.Confirm("c1")
	require.NoError(t, err)

	c.Reset("c1")

	st := c.State("c1")
	assert.Equal(t, model.FocusInactive, st.Phase)
	assert.Empty(t, st.Topic)
	assert.Empty(t, st.LastSuggestedTopic)

	// после reset та же тема снова предлагается
	assert.True(t, c.Suggest("c1", "beach"))
}

func TestReset_ScopedToOneChat(t *testing.T) {
	c := NewController()
	require.True(t, c.Suggest("c1", "beach"))
	require.True(t, c.Suggest("c2", "hiking"))

	c.Reset("c1")

	assert.Equal(t, model.FocusInactive, c.State("c1").Phase)
	assert.Equal(t, model.FocusPending, c.State("c2").Phase)
}

func TestFilter_CaseInsensitiveSubstring(t *testing.T) {
	msgs := []model.Message{
		{ID: "1", Text: "Let's go to the Beach house"},
		{ID: "2", Text: "I'd rather stay home"},
		{ID: "3", Text: "Meeting at 10"},
	}

	got := Filter(msgs, "beach")
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)

	// ни одного совпадения — пустая проекция, не nil-паника
	got = Filter(msgs, "volleyball")
	assert.Empty(t, got)

	// исходный срез не тронут
	assert.Len(t, msgs, 3)
}
