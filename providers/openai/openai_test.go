package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/streamtree/aierrors"
	"github.com/kadirpekel/streamtree/config"
	"github.com/kadirpekel/streamtree/element"
)

func TestChatRejectsEmptyMessages(t *testing.T) {
	m := New(config.OpenAIConfig{APIKey: "test", Model: "gpt-4o-mini", MaxTokens: 256})
	_, err := m.Chat(element.Props{}, nil)
	require.Error(t, err)
	var aerr *aierrors.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, aierrors.CodeChatCompletionMissingChildren, aerr.Code)
	assert.Equal(t, "openai.Chat", aerr.Tag)
}

func TestAdaptMessagesRoles(t *testing.T) {
	out := adaptMessages([]Message{
		{Role: "system", Content: "be terse"},
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "tool", Content: "42"},
	})
	assert.Len(t, out, 4)
}
