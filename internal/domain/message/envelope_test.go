package message

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStream_AppendsEllipsis(t *testing.T) {
	env := NewStream("Hello.")
	assert.Equal(t, "Hello....", env.Message)
	assert.Equal(t, TypeStream, env.Type)
	assert.False(t, env.Type.IsTerminal())
}

func TestNewEnd(t *testing.T) {
	env := NewEnd("Hello world.", nil)
	assert.Equal(t, "Hello world.", env.Message)
	assert.True(t, env.Type.IsTerminal())
}

func TestNewError(t *testing.T) {
	assert.Equal(t, "throttled", NewError(errors.New("throttled")).Message)
	assert.Equal(t, "unknown error", NewError(nil).Message)
	assert.Equal(t, TypeError, NewError(nil).Type)
}

func TestEnvelope_WireShape(t *testing.T) {
	raw, err := json.Marshal(NewStream("Hi."))
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"Hi....","type":"stream"}`, string(raw))

	withExtras := Envelope{
		Message:  "bye",
		Type:     TypeMessage,
		Action:   ActionClose,
		Feedback: "thumbs-up",
		Data:     map[string]int{"n": 1},
	}
	raw, err = json.Marshal(withExtras)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, key := range []string{FieldMessage, FieldType, FieldAction, FieldFeedback, FieldData} {
		assert.Contains(t, fields, key)
	}
	assert.Equal(t, "close", fields[FieldAction])
}

func TestParseType(t *testing.T) {
	for _, s := range []string{"message", "stream", "end", "error"} {
		typ, err := ParseType(s)
		require.NoError(t, err)
		assert.Equal(t, Type(s), typ)
	}
	_, err := ParseType("partial")
	assert.Error(t, err)
}
