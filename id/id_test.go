package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsCanonicalAndUnique(t *testing.T) {
	a := New()
	b := New()
	assert.Len(t, string(a), 36) // canonical dash-separated hex form
	assert.NotEqual(t, a, b)
}

func TestNewRequestHeaderDefaults(t *testing.T) {
	session := New()
	h := NewRequestHeader(session, "", "kernel_info_request")
	assert.Equal(t, DefaultUsername, h.Username)
	assert.Equal(t, session, h.Session)
	assert.Equal(t, "kernel_info_request", h.MsgType)
	assert.Equal(t, ProtocolVersion, h.Version)
	require.NotEmpty(t, h.MessageID)
	require.NotEmpty(t, h.Date)
}

func TestNewReplyHeaderCopiesParent(t *testing.T) {
	session := New()
	parent := NewRequestHeader(session, "alice", "execute_request")
	reply := NewReplyHeader(parent, "execute_reply")
	assert.Equal(t, parent.Session, reply.Session)
	assert.Equal(t, parent.Username, reply.Username)
	assert.Equal(t, "execute_reply", reply.MsgType)
	assert.NotEqual(t, parent.MessageID, reply.MessageID)
}
