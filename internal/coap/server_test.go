package coap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestTo(path string) []byte {
	msg := &Message{Type: TypeConfirmable, Code: CodePost, MessageID: 1, Options: UriPathOptions(path)}
	raw, _ := msg.Encode()
	return raw
}

func TestServerDispatchesToRegisteredResource(t *testing.T) {
	s := NewServer()
	called := false
	s.Handle("a/sd", func(req *Message) *Message {
		called = true
		return &Message{Type: TypeAck, Code: CodeChanged, MessageID: req.MessageID}
	})

	resp, err := s.Dispatch(requestTo("a/sd"))
	require.NoError(t, err)
	require.True(t, called)

	got, err := Decode(resp)
	require.NoError(t, err)
	assert.Equal(t, CodeChanged, got.Code)
}

func TestServerReturnsNotFoundForUnknownPath(t *testing.T) {
	s := NewServer()
	resp, err := s.Dispatch(requestTo("x/y"))
	require.NoError(t, err)
	got, err := Decode(resp)
	require.NoError(t, err)
	assert.Equal(t, CodeNotFound, got.Code)
}

func TestServerRejectsUnrecognizedCriticalOption(t *testing.T) {
	s := NewServer()
	s.Handle("a/sd", func(req *Message) *Message {
		return &Message{Type: TypeAck, Code: CodeChanged}
	})

	msg := &Message{
		Type: TypeConfirmable, Code: CodePost, MessageID: 2,
		Options: append(UriPathOptions("a/sd"), Option{Number: 13, Value: []byte{1}}),
	}
	raw, err := msg.Encode()
	require.NoError(t, err)

	resp, err := s.Dispatch(raw)
	require.NoError(t, err)
	got, err := Decode(resp)
	require.NoError(t, err)
	assert.Equal(t, CodeBadRequest, got.Code)
}

func TestServerAllowsRecognizedElectiveOption(t *testing.T) {
	s := NewServer()
	s.Handle("a/sd", func(req *Message) *Message {
		return &Message{Type: TypeAck, Code: CodeChanged}
	})

	msg := &Message{
		Type: TypeConfirmable, Code: CodePost, MessageID: 3,
		Options: append(UriPathOptions("a/sd"), Option{Number: OptionContentFmt, Value: []byte{0}}),
	}
	raw, err := msg.Encode()
	require.NoError(t, err)

	resp, err := s.Dispatch(raw)
	require.NoError(t, err)
	got, err := Decode(resp)
	require.NoError(t, err)
	assert.Equal(t, CodeChanged, got.Code)
}
