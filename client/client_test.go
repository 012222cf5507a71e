package client

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wireproto/jupykernel/message"
)

func TestIsCommTag(t *testing.T) {
	assert.True(t, isCommTag(message.TagCommOpen))
	assert.True(t, isCommTag(message.TagCommClose))
	assert.True(t, isCommTag(message.TagCommMsg))
	assert.False(t, isCommTag(message.TagKernelInfoRequest))
}
