package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChatMessage(t *testing.T) {
	msg, errReply := ParseChatMessage([]byte(`{"type":"message","content":"hello","timestamp":1700000000000}`))
	require.Nil(t, errReply)
	require.NotNil(t, msg)
	assert.Equal(t, "message", msg.Type)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, int64(1700000000000), msg.Timestamp)
}

func TestParseChatMessageInvalidJSON(t *testing.T) {
	msg, errReply := ParseChatMessage([]byte(`{not json`))
	assert.Nil(t, msg)
	require.NotNil(t, errReply)
	assert.Equal(t, "error", errReply.Type)
	assert.Equal(t, "invalid message format", errReply.Message)
}

func TestParseChatMessageUnsupportedType(t *testing.T) {
	msg, errReply := ParseChatMessage([]byte(`{"type":"broadcast","content":"hi"}`))
	assert.Nil(t, msg)
	require.NotNil(t, errReply)
	assert.Equal(t, "error", errReply.Type)
	assert.Contains(t, errReply.Message, "unsupported message type")
}

func TestParseChatMessageEmptyContent(t *testing.T) {
	msg, errReply := ParseChatMessage([]byte(`{"type":"message","content":""}`))
	assert.Nil(t, msg)
	require.NotNil(t, errReply)
	assert.Equal(t, "message content is required", errReply.Message)
}
