package message

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTripClientRequest encodes a ClientRequest to JSON and decodes it
// back, returning the decoded value for the caller to compare with the
// original (Testable Property 1).
func roundTripClientRequest(t *testing.T, r ClientRequest) ClientRequest {
	t.Helper()
	content, err := EncodeClientRequest(r)
	require.NoError(t, err)
	raw, err := json.Marshal(content)
	require.NoError(t, err)
	got, err := DecodeClientRequest(r.Tag(), raw)
	require.NoError(t, err)
	return got
}

func TestClientRequestRoundTrip(t *testing.T) {
	cases := []ClientRequest{
		ExecuteRequest{Code: "1+1", Options: ExecuteOptions{Silent: true, StoreHistory: true, AllowStdin: true, StopOnError: true}},
		InspectRequest{Code: "foo", CursorPos: 3, DetailLevel: DetailHigh},
		HistoryRequest{Options: HistoryOptions{Output: true, Raw: true, Access: HistoryRange{Session: -1, Start: 0, Stop: 10}}},
		HistoryRequest{Options: HistoryOptions{Access: HistoryTail{N: 5}}},
		HistoryRequest{Options: HistoryOptions{Access: HistorySearch{Pattern: "foo*", Unique: true}}},
		CompleteRequest{Code: "foo.ba", CursorPos: 6},
		IsCompleteRequest{Code: "if True:"},
		ConnectRequest{},
		CommInfoRequest{},
		KernelInfoRequest{},
		ShutdownRequest{Restart: true},
	}
	for _, c := range cases {
		got := roundTripClientRequest(t, c)
		assert.Equal(t, c, got, "tag %s", c.Tag())
	}
}

func TestCommInfoRequestWithTarget(t *testing.T) {
	name := CommTargetName("my_target")
	got := roundTripClientRequest(t, CommInfoRequest{TargetName: &name})
	req, ok := got.(CommInfoRequest)
	require.True(t, ok)
	require.NotNil(t, req.TargetName)
	assert.Equal(t, name, *req.TargetName)
}

func roundTripKernelReply(t *testing.T, r KernelReply) KernelReply {
	t.Helper()
	content, err := EncodeKernelReply(r)
	require.NoError(t, err)
	raw, err := json.Marshal(content)
	require.NoError(t, err)
	got, err := DecodeKernelReply(r.Tag(), raw)
	require.NoError(t, err)
	return got
}

func TestKernelReplyRoundTrip(t *testing.T) {
	cases := []KernelReply{
		ExecuteReply{Result: Ok(ExecuteReplyOk{ExecutionCount: 4, UserExpressions: map[string]any{}})},
		ExecuteReply{Result: Error[ExecuteReplyOk](ErrorInfo{Ename: "ValueError", Evalue: "bad", Traceback: []string{"line1"}})},
		ExecuteReply{Result: Abort[ExecuteReplyOk]()},
		InspectReply{Result: Ok(InspectReplyOk{Found: true, Data: NewDisplayData().WithText("hi")})},
		HistoryReply{Result: Ok(HistoryReplyOk{History: []HistoryEntry{{Session: 1, Line: 2, Input: "x=1", Output: ""}}})},
		CompleteReply{Result: Ok(CompleteReplyOk{Matches: []string{"foo", "foobar"}, CursorStart: 0, CursorEnd: 3})},
		ConnectReply{Info: ConnectInfo{ShellPort: 1, IOPubPort: 2, StdinPort: 3, HBPort: 4, ControlPort: 5}},
		CommInfoReply{Comms: map[CommID]CommTargetName{"abc": "widget"}},
		KernelInfoReply{ProtocolVersion: "5.3", Implementation: "gokernel", LanguageName: "go"},
		ShutdownReply{Restart: false},
	}
	for _, c := range cases {
		got := roundTripKernelReply(t, c)
		assert.Equal(t, c, got, "tag %s", c.Tag())
	}
}

// TestIsCompleteReplyScenario grounds spec scenario S3: an incomplete code
// block encodes to {"status":"incomplete","indent":"    "}.
func TestIsCompleteReplyScenario(t *testing.T) {
	reply := CodeIncompleteResult("    ")
	content, err := EncodeKernelReply(reply)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "incomplete", "indent": "    "}, content)

	raw, err := json.Marshal(content)
	require.NoError(t, err)
	got, err := DecodeKernelReply(TagIsCompleteReply, raw)
	require.NoError(t, err)
	assert.Equal(t, reply, got)

	complete := IsCompleteReply{Status: CodeComplete}
	content, err = EncodeKernelReply(complete)
	require.NoError(t, err)
	_, hasIndent := content["indent"]
	assert.False(t, hasIndent, "complete status must not carry an indent field")
}

// TestHistoryRequestScenario grounds spec scenario S4: a tail-access history
// request flattens hist_access_type alongside its own "n" field.
func TestHistoryRequestScenario(t *testing.T) {
	req := HistoryRequest{Options: HistoryOptions{
		Output: true,
		Raw:    false,
		Access: HistoryTail{N: 3},
	}}
	content, err := EncodeClientRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "tail", content["hist_access_type"])
	assert.Equal(t, 3, content["n"])
	assert.Equal(t, true, content["output"])
	assert.Equal(t, false, content["raw"])

	raw, err := json.Marshal(content)
	require.NoError(t, err)
	got, err := DecodeClientRequest(TagHistoryRequest, raw)
	require.NoError(t, err)
	assert.Equal(t, req, got)
}

// TestExecuteRequestAlwaysEmitsEmptyUserExpressions grounds the spec rule
// that user_expressions is always emitted as an empty object.
func TestExecuteRequestAlwaysEmitsEmptyUserExpressions(t *testing.T) {
	content, err := EncodeClientRequest(ExecuteRequest{Code: "pass"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, content["user_expressions"])
}

func roundTripKernelOutput(t *testing.T, o KernelOutput) KernelOutput {
	t.Helper()
	content, err := EncodeKernelOutput(o)
	require.NoError(t, err)
	raw, err := json.Marshal(content)
	require.NoError(t, err)
	got, err := DecodeKernelOutput(o.Tag(), raw)
	require.NoError(t, err)
	return got
}

func TestKernelOutputRoundTrip(t *testing.T) {
	cases := []KernelOutput{
		StreamOutput{Stream: StreamStdout, Text: "hello\n"},
		DisplayDataOutput{Data: NewDisplayData().WithText("x").WithHTML("<b>x</b>")},
		ExecuteInputOutput{Code: "1+1", ExecutionCount: 1},
		ExecuteResultOutput{ExecutionCount: 1, Data: NewDisplayData().WithText("2")},
		ExecuteErrorOutput{Error: ErrorInfo{Ename: "Err", Evalue: "bad", Traceback: []string{"a", "b"}}},
		KernelStatusOutput{Status: StatusBusy},
		ClearOutputMsg{Wait: true},
	}
	for _, c := range cases {
		got := roundTripKernelOutput(t, c)
		assert.Equal(t, c, got, "tag %s", c.Tag())
	}
}

func TestKernelRequestClientReplyRoundTrip(t *testing.T) {
	req := InputRequest{Options: InputOptions{Prompt: "name?", Password: false}}
	content, err := EncodeKernelRequest(req)
	require.NoError(t, err)
	raw, err := json.Marshal(content)
	require.NoError(t, err)
	gotReq, err := DecodeKernelRequest(req.Tag(), raw)
	require.NoError(t, err)
	assert.Equal(t, req, gotReq)

	rep := InputReply{Value: "Ada"}
	content, err = EncodeClientReply(rep)
	require.NoError(t, err)
	raw, err = json.Marshal(content)
	require.NoError(t, err)
	gotRep, err := DecodeClientReply(rep.Tag(), raw)
	require.NoError(t, err)
	assert.Equal(t, rep, gotRep)
}

func TestCommRoundTrip(t *testing.T) {
	mod := CommTargetModule("widgets")
	cases := []Comm{
		CommOpen{ID: "c1", Data: map[string]any{"state": "init"}, TargetName: "jupyter.widget", TargetModule: &mod},
		CommOpen{ID: "c2", Data: map[string]any{}, TargetName: "jupyter.widget"},
		CommClose{ID: "c1", Data: map[string]any{}},
		CommMessage{ID: "c1", Data: map[string]any{"count": float64(3)}},
	}
	for _, c := range cases {
		content, err := EncodeComm(c)
		require.NoError(t, err)
		raw, err := json.Marshal(content)
		require.NoError(t, err)
		got, err := DecodeComm(c.Tag(), raw)
		require.NoError(t, err)
		assert.Equal(t, c, got, "tag %s", c.Tag())
	}
}

func TestDecodeUnknownMessageType(t *testing.T) {
	_, err := DecodeClientRequest("bogus_request", json.RawMessage(`{}`))
	require.Error(t, err)
	var unknown *UnknownMessageTypeError
	assert.ErrorAs(t, err, &unknown)
	assert.Equal(t, "bogus_request", unknown.MsgType)
}

// TestReplyTagPairing grounds Testable Property 4: every ClientRequest tag
// maps to a KernelReply tag by _request/_reply suffix substitution, except
// requests with no paired reply type are not exercised here.
func TestReplyTagPairing(t *testing.T) {
	pairs := map[string]string{
		TagExecuteRequest:    TagExecuteReply,
		TagInspectRequest:    TagInspectReply,
		TagHistoryRequest:    TagHistoryReply,
		TagCompleteRequest:   TagCompleteReply,
		TagIsCompleteRequest: TagIsCompleteReply,
		TagConnectRequest:    TagConnectReply,
		TagCommInfoRequest:   TagCommInfoReply,
		TagKernelInfoRequest: TagKernelInfoReply,
		TagShutdownRequest:   TagShutdownReply,
	}
	for req, reply := range pairs {
		assert.Equal(t, reply, replyTag(req), "request tag %s", req)
	}
}
