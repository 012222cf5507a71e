package message

// ClientRequest is the closed set of messages a client sends to a kernel on
// the shell or control channel.
type ClientRequest interface {
	Tag() string
	isClientRequest()
}

type ExecuteRequest struct {
	Code    CodeBlock
	Options ExecuteOptions
}

func (ExecuteRequest) Tag() string { return TagExecuteRequest }
func (ExecuteRequest) isClientRequest() {}

type InspectRequest struct {
	Code        CodeBlock
	CursorPos   int
	DetailLevel DetailLevel
}

func (InspectRequest) Tag() string { return TagInspectRequest }
func (InspectRequest) isClientRequest() {}

type HistoryRequest struct {
	Options HistoryOptions
}

func (HistoryRequest) Tag() string { return TagHistoryRequest }
func (HistoryRequest) isClientRequest() {}

type CompleteRequest struct {
	Code      CodeBlock
	CursorPos int
}

func (CompleteRequest) Tag() string { return TagCompleteRequest }
func (CompleteRequest) isClientRequest() {}

type IsCompleteRequest struct {
	Code CodeBlock
}

func (IsCompleteRequest) Tag() string { return TagIsCompleteRequest }
func (IsCompleteRequest) isClientRequest() {}

type ConnectRequest struct{}

func (ConnectRequest) Tag() string { return TagConnectRequest }
func (ConnectRequest) isClientRequest() {}

// CommInfoRequest asks the kernel about open comms, optionally filtered to
// one target name.
type CommInfoRequest struct {
	TargetName *CommTargetName // nil means "all targets"
}

func (CommInfoRequest) Tag() string { return TagCommInfoRequest }
func (CommInfoRequest) isClientRequest() {}

type KernelInfoRequest struct{}

func (KernelInfoRequest) Tag() string { return TagKernelInfoRequest }
func (KernelInfoRequest) isClientRequest() {}

type ShutdownRequest struct {
	Restart Restart
}

func (ShutdownRequest) Tag() string { return TagShutdownRequest }
func (ShutdownRequest) isClientRequest() {}
