// Package message implements the closed algebra of Jupyter wire-protocol
// messages: the tagged request/reply/output/comm families, their canonical
// JSON encoding, and the msg_type-keyed decoder.
//
// Every exported type here is a value: encoding and decoding never retain a
// reference into the original JSON, and no type here touches a socket.
package message

import "github.com/wireproto/jupykernel/id"

// CodeBlock is a notebook cell's source text.
type CodeBlock string

// DetailLevel selects how much information an inspect_request wants back.
// It serializes as 0 (Low) or 1 (High), per the wire protocol.
type DetailLevel int

const (
	DetailLow  DetailLevel = 0
	DetailHigh DetailLevel = 1
)

// Restart indicates whether a shutdown is actually a restart. It serializes
// as a bare JSON boolean.
type Restart bool

// WaitBeforeClear indicates a clear_output should wait for new output to
// arrive before clearing, to avoid flicker in the front-end.
type WaitBeforeClear bool

// Stream names an output stream a kernel writes text to.
type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// KernelStatus is the busy/idle/starting lifecycle state broadcast on iopub.
type KernelStatus string

const (
	StatusStarting KernelStatus = "starting"
	StatusBusy     KernelStatus = "busy"
	StatusIdle     KernelStatus = "idle"
)

// ErrorInfo describes a failure surfaced either as an execute_error output
// or as the error branch of an OperationResult.
type ErrorInfo struct {
	Ename     string   `json:"ename"`
	Evalue    string   `json:"evalue"`
	Traceback []string `json:"traceback"`
}

// ExecuteOptions are the request-side knobs of an execute_request.
type ExecuteOptions struct {
	Silent       bool
	StoreHistory bool
	AllowStdin   bool
	StopOnError  bool
}

// InputOptions configures an input_request prompt shown to the user.
type InputOptions struct {
	Prompt   string
	Password bool
}

// HistoryOptions are the request-side knobs of a history_request.
type HistoryOptions struct {
	Output bool
	Raw    bool
	Access HistoryAccessType
}

// HistoryAccessType selects how history is queried: by session range, by
// tail count, or by pattern search. It is a closed, exhaustive set.
type HistoryAccessType interface {
	historyAccessType()
	accessTypeTag() string
}

// HistoryRange requests a contiguous range of history lines from one
// session (-1 meaning the current session).
type HistoryRange struct {
	Session int
	Start   int
	Stop    int
}

func (HistoryRange) historyAccessType()    {}
func (HistoryRange) accessTypeTag() string { return "range" }

// HistoryTail requests the last N history entries.
type HistoryTail struct {
	N int
}

func (HistoryTail) historyAccessType()    {}
func (HistoryTail) accessTypeTag() string { return "tail" }

// HistorySearch requests history entries matching a glob-style Pattern.
type HistorySearch struct {
	Pattern string
	Unique  bool
}

func (HistorySearch) historyAccessType()    {}
func (HistorySearch) accessTypeTag() string { return "search" }

// HistoryEntry is a single returned history line.
type HistoryEntry struct {
	Session int
	Line    int
	Input   string
	Output  string
}

// CommTargetName identifies the front-end/kernel-side handler a comm is
// addressed to. It is opaque to this package — no semantics are validated.
type CommTargetName string

// CommTargetModule optionally names the module that should be imported to
// find the handler for CommTargetName.
type CommTargetModule string

// CommID identifies one comm channel, shared by both sides for its lifetime.
type CommID = id.UUID
