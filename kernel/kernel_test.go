package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wireproto/jupykernel/message"
	"github.com/wireproto/jupykernel/wire"
)

func TestIsCommTag(t *testing.T) {
	assert.True(t, isCommTag(message.TagCommOpen))
	assert.True(t, isCommTag(message.TagCommClose))
	assert.True(t, isCommTag(message.TagCommMsg))
	assert.False(t, isCommTag(message.TagExecuteRequest))
}

func TestMarshalContentDefaultsNilToEmptyObject(t *testing.T) {
	raw, err := marshalContent(nil)
	assert.NoError(t, err)
	assert.JSONEq(t, "{}", string(raw))
}

// TestKnownCommsBookkeeping grounds the comm-id registry used to answer
// comm_info_request: opening a comm records its target name, closing it
// removes the entry.
func TestKnownCommsBookkeeping(t *testing.T) {
	e := &Engine{comms: make(map[message.CommID]message.CommTargetName)}
	frame := wire.Frame{MsgType: message.TagCommOpen}

	e.handleComm(nil, message.CommOpen{ID: "c1", TargetName: "jupyter.widget"}, frame)
	assert.Equal(t, message.CommTargetName("jupyter.widget"), e.KnownComms()["c1"])

	e.handleComm(nil, message.CommClose{ID: "c1"}, frame)
	_, ok := e.KnownComms()["c1"]
	assert.False(t, ok)
}

// TestCommCloseForUnknownCommIsHarmless grounds the "logged, not silently
// dropped" rule for a comm_close naming an id the engine never saw a
// comm_open for: it must not panic or mutate the registry.
func TestCommCloseForUnknownCommIsHarmless(t *testing.T) {
	e := &Engine{comms: make(map[message.CommID]message.CommTargetName)}
	e.comms["c1"] = "jupyter.widget"
	frame := wire.Frame{MsgType: message.TagCommClose}

	e.handleComm(nil, message.CommClose{ID: "unknown"}, frame)

	assert.Equal(t, message.CommTargetName("jupyter.widget"), e.KnownComms()["c1"])
	_, ok := e.KnownComms()["unknown"]
	assert.False(t, ok)
}
