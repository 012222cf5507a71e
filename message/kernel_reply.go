package message

// KernelReply is the closed set of messages a kernel sends back on the
// shell or control channel, one variant per ClientRequest variant, paired
// by the `_request`/`_reply` msg_type suffix.
type KernelReply interface {
	Tag() string
	isKernelReply()
}

type ExecuteReplyOk struct {
	ExecutionCount  int
	Payload         []map[string]any
	UserExpressions map[string]any
}

type ExecuteReply struct {
	Result OperationResult[ExecuteReplyOk]
}

func (ExecuteReply) Tag() string { return TagExecuteReply }
func (ExecuteReply) isKernelReply() {}

type InspectReplyOk struct {
	Found bool
	Data  DisplayData
}

type InspectReply struct {
	Result OperationResult[InspectReplyOk]
}

func (InspectReply) Tag() string { return TagInspectReply }
func (InspectReply) isKernelReply() {}

type HistoryReplyOk struct {
	History []HistoryEntry
}

type HistoryReply struct {
	Result OperationResult[HistoryReplyOk]
}

func (HistoryReply) Tag() string { return TagHistoryReply }
func (HistoryReply) isKernelReply() {}

type CompleteReplyOk struct {
	Matches     []string
	CursorStart int
	CursorEnd   int
}

type CompleteReply struct {
	Result OperationResult[CompleteReplyOk]
}

func (CompleteReply) Tag() string { return TagCompleteReply }
func (CompleteReply) isKernelReply() {}

// IsCompleteStatus is is_complete_reply's own status enum — it is not an
// OperationResult, it has no error/abort branch in the wire protocol.
type IsCompleteStatus string

const (
	CodeComplete   IsCompleteStatus = "complete"
	CodeIncomplete IsCompleteStatus = "incomplete"
	CodeInvalid    IsCompleteStatus = "invalid"
	CodeUnknown    IsCompleteStatus = "unknown"
)

type IsCompleteReply struct {
	Status IsCompleteStatus
	Indent string // meaningful only when Status == CodeIncomplete
}

func (IsCompleteReply) Tag() string { return TagIsCompleteReply }
func (IsCompleteReply) isKernelReply() {}

// CodeIncompleteResult is a constructor mirroring the source language's
// pattern-synonym shorthand named in spec.md §8 scenario S3.
func CodeIncompleteResult(indent string) IsCompleteReply {
	return IsCompleteReply{Status: CodeIncomplete, Indent: indent}
}

type ConnectInfo struct {
	ShellPort     int
	IOPubPort     int
	StdinPort     int
	HBPort        int
	ControlPort   int
}

type ConnectReply struct {
	Info ConnectInfo
}

func (ConnectReply) Tag() string { return TagConnectReply }
func (ConnectReply) isKernelReply() {}

type CommInfoReply struct {
	// Comms maps comm id (as string) to the target name it was opened with.
	Comms map[CommID]CommTargetName
}

func (CommInfoReply) Tag() string { return TagCommInfoReply }
func (CommInfoReply) isKernelReply() {}

type KernelInfoReply struct {
	ProtocolVersion       string
	Implementation        string
	ImplementationVersion string
	LanguageName          string
	LanguageVersion       string
	LanguageMimeType      string
	LanguageFileExtension string
	Banner                string
}

func (KernelInfoReply) Tag() string { return TagKernelInfoReply }
func (KernelInfoReply) isKernelReply() {}

type ShutdownReply struct {
	Restart Restart
}

func (ShutdownReply) Tag() string { return TagShutdownReply }
func (ShutdownReply) isKernelReply() {}
