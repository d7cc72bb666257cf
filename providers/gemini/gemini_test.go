package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/streamtree/aierrors"
	"github.com/kadirpekel/streamtree/element"
)

func TestChatRejectsEmptyMessages(t *testing.T) {
	m := &ChatModel{model: "gemini-2.0-flash"}
	_, err := m.Chat(element.Props{}, nil)
	require.Error(t, err)
	var aerr *aierrors.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, aierrors.CodeChatCompletionMissingChildren, aerr.Code)
	assert.Equal(t, "gemini.Chat", aerr.Tag)
}

func TestAdaptMessagesMapsAssistantToModelRole(t *testing.T) {
	out := adaptMessages([]Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "user", out[0].Role)
	assert.Equal(t, "model", out[1].Role)
}
