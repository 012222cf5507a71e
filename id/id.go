// Package id generates the message, session and comm identifiers used
// throughout the Jupyter wire protocol, and builds the per-message headers
// that carry them.
package id

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/janpfeifer/must"
)

// UUID is a 36-character dash-separated canonical-hex UUID, used for
// message IDs, session IDs and comm IDs.
type UUID string

// New generates a fresh, cryptographically random V4 UUID in canonical hex
// form (no dashes stripped — canonical here means the standard
// 8-4-4-4-12 dash-separated hex form used on the wire).
func New() UUID {
	// uuid.NewV4 only fails if the system RNG is broken, which makes the
	// process unsafe to continue running at all.
	return UUID(must.M1(uuid.NewV4()).String())
}

// String implements fmt.Stringer.
func (u UUID) String() string {
	return string(u)
}

// Empty reports whether u is the zero value.
func (u UUID) Empty() bool {
	return u == ""
}

// Header is the per-message metadata every Jupyter message carries.
type Header struct {
	MessageID UUID   `json:"msg_id"`
	Session   UUID   `json:"session"`
	Username  string `json:"username"`
	Date      string `json:"date"`
	MsgType   string `json:"msg_type"`
	Version   string `json:"version"`
}

// ProtocolVersion is the Jupyter messaging protocol version this package
// emits on every header it builds.
const ProtocolVersion = "5.0"

// DefaultUsername is substituted when no username was supplied.
const DefaultUsername = "default-username"

// now is overridable in tests so header timestamps are deterministic.
var now = func() time.Time { return time.Now() }

// NewRequestHeader builds a fresh header for a message originating in this
// process (no parent), tagged with msgType.
func NewRequestHeader(session UUID, username, msgType string) Header {
	if username == "" {
		username = DefaultUsername
	}
	return Header{
		MessageID: New(),
		Session:   session,
		Username:  username,
		Date:      now().UTC().Format(time.RFC3339Nano),
		MsgType:   msgType,
		Version:   ProtocolVersion,
	}
}

// NewReplyHeader builds a header for a message emitted in response to
// parent, copying its session and username and setting msgType to the
// reply's own tag. The caller is responsible for attaching parent as the
// ParentHeader of the resulting message.
func NewReplyHeader(parent Header, msgType string) Header {
	return Header{
		MessageID: New(),
		Session:   parent.Session,
		Username:  parent.Username,
		Date:      now().UTC().Format(time.RFC3339Nano),
		MsgType:   msgType,
		Version:   ProtocolVersion,
	}
}
