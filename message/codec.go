package message

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// UnknownMessageTypeError is returned when a msg_type does not belong to the
// message family a Decode* function was asked to decode.
type UnknownMessageTypeError struct {
	MsgType string
}

func (e *UnknownMessageTypeError) Error() string {
	return "unknown message type: " + e.MsgType
}

// DecodeError wraps a JSON body that did not match its declared msg_type.
type DecodeError struct {
	MsgType string
	Detail  string
}

func (e *DecodeError) Error() string {
	return "failed to decode " + e.MsgType + ": " + e.Detail
}

func decodeErrorf(msgType string, err error) error {
	return &DecodeError{MsgType: msgType, Detail: err.Error()}
}

// unmarshalContent turns a raw JSON content frame into a generic object map.
// An empty frame decodes to an empty object, matching connect_request,
// kernel_info_request, etc.
func unmarshalContent(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

// ---- ClientRequest -------------------------------------------------------

// EncodeClientRequest produces the JSON content object for r.
func EncodeClientRequest(r ClientRequest) (map[string]any, error) {
	switch req := r.(type) {
	case ExecuteRequest:
		return map[string]any{
			"code":              string(req.Code),
			"silent":            req.Options.Silent,
			"store_history":     req.Options.StoreHistory,
			"user_expressions":  map[string]any{},
			"allow_stdin":       req.Options.AllowStdin,
			"stop_on_error":     req.Options.StopOnError,
		}, nil

	case InspectRequest:
		return map[string]any{
			"code":         string(req.Code),
			"cursor_pos":   req.CursorPos,
			"detail_level": int(req.DetailLevel),
		}, nil

	case HistoryRequest:
		out := map[string]any{
			"output":           req.Options.Output,
			"raw":              req.Options.Raw,
			"hist_access_type": req.Options.Access.accessTypeTag(),
		}
		switch access := req.Options.Access.(type) {
		case HistoryRange:
			out["session"] = access.Session
			out["start"] = access.Start
			out["stop"] = access.Stop
		case HistoryTail:
			out["n"] = access.N
		case HistorySearch:
			out["pattern"] = access.Pattern
			out["unique"] = access.Unique
		}
		return out, nil

	case CompleteRequest:
		return map[string]any{
			"code":       string(req.Code),
			"cursor_pos": req.CursorPos,
		}, nil

	case IsCompleteRequest:
		return map[string]any{"code": string(req.Code)}, nil

	case ConnectRequest:
		return map[string]any{}, nil

	case CommInfoRequest:
		if req.TargetName == nil {
			return map[string]any{}, nil
		}
		return map[string]any{"target_name": string(*req.TargetName)}, nil

	case KernelInfoRequest:
		return map[string]any{}, nil

	case ShutdownRequest:
		return map[string]any{"restart": bool(req.Restart)}, nil

	default:
		return nil, errors.Errorf("EncodeClientRequest: unhandled type %T", r)
	}
}

// DecodeClientRequest dispatches on msgType to decode raw into the matching
// ClientRequest variant.
func DecodeClientRequest(msgType string, raw json.RawMessage) (ClientRequest, error) {
	m, err := unmarshalContent(raw)
	if err != nil {
		return nil, decodeErrorf(msgType, err)
	}
	switch msgType {
	case TagExecuteRequest:
		return ExecuteRequest{
			Code: CodeBlock(asString(m, "code")),
			Options: ExecuteOptions{
				Silent:       asBool(m, "silent"),
				StoreHistory: asBool(m, "store_history"),
				AllowStdin:   asBool(m, "allow_stdin"),
				StopOnError:  asBool(m, "stop_on_error"),
			},
		}, nil

	case TagInspectRequest:
		return InspectRequest{
			Code:        CodeBlock(asString(m, "code")),
			CursorPos:   asInt(m, "cursor_pos"),
			DetailLevel: DetailLevel(asInt(m, "detail_level")),
		}, nil

	case TagHistoryRequest:
		var access HistoryAccessType
		switch asString(m, "hist_access_type") {
		case "range":
			access = HistoryRange{Session: asInt(m, "session"), Start: asInt(m, "start"), Stop: asInt(m, "stop")}
		case "tail":
			access = HistoryTail{N: asInt(m, "n")}
		case "search":
			access = HistorySearch{Pattern: asString(m, "pattern"), Unique: asBool(m, "unique")}
		default:
			return nil, decodeErrorf(msgType, errors.Errorf("unknown hist_access_type %q", asString(m, "hist_access_type")))
		}
		return HistoryRequest{Options: HistoryOptions{
			Output: asBool(m, "output"),
			Raw:    asBool(m, "raw"),
			Access: access,
		}}, nil

	case TagCompleteRequest:
		return CompleteRequest{Code: CodeBlock(asString(m, "code")), CursorPos: asInt(m, "cursor_pos")}, nil

	case TagIsCompleteRequest:
		return IsCompleteRequest{Code: CodeBlock(asString(m, "code"))}, nil

	case TagConnectRequest:
		return ConnectRequest{}, nil

	case TagCommInfoRequest:
		if name, ok := m["target_name"].(string); ok {
			tn := CommTargetName(name)
			return CommInfoRequest{TargetName: &tn}, nil
		}
		return CommInfoRequest{}, nil

	case TagKernelInfoRequest:
		return KernelInfoRequest{}, nil

	case TagShutdownRequest:
		return ShutdownRequest{Restart: Restart(asBool(m, "restart"))}, nil

	default:
		return nil, &UnknownMessageTypeError{MsgType: msgType}
	}
}

// ---- KernelReply ----------------------------------------------------------

// EncodeKernelReply produces the JSON content object for r.
func EncodeKernelReply(r KernelReply) (map[string]any, error) {
	switch rep := r.(type) {
	case ExecuteReply:
		out := encodeResultEnvelope(rep.Result.Status, rep.Result.Err)
		if rep.Result.Status == ResultOk {
			ok := rep.Result.Value
			payload := ok.Payload
			if payload == nil {
				payload = []map[string]any{}
			}
			userExpr := ok.UserExpressions
			if userExpr == nil {
				userExpr = map[string]any{}
			}
			out["execution_count"] = ok.ExecutionCount
			out["payload"] = payload
			out["user_expressions"] = userExpr
		}
		return out, nil

	case InspectReply:
		out := encodeResultEnvelope(rep.Result.Status, rep.Result.Err)
		if rep.Result.Status == ResultOk {
			ok := rep.Result.Value
			data, metadata := ok.Data.encode()
			out["found"] = ok.Found
			out["data"] = data
			out["metadata"] = metadata
		}
		return out, nil

	case HistoryReply:
		out := encodeResultEnvelope(rep.Result.Status, rep.Result.Err)
		if rep.Result.Status == ResultOk {
			history := make([][]any, 0, len(rep.Result.Value.History))
			for _, h := range rep.Result.Value.History {
				history = append(history, []any{h.Session, h.Line, h.Input, h.Output})
			}
			out["history"] = history
		}
		return out, nil

	case CompleteReply:
		out := encodeResultEnvelope(rep.Result.Status, rep.Result.Err)
		if rep.Result.Status == ResultOk {
			ok := rep.Result.Value
			matches := ok.Matches
			if matches == nil {
				matches = []string{}
			}
			out["matches"] = matches
			out["cursor_start"] = ok.CursorStart
			out["cursor_end"] = ok.CursorEnd
			out["metadata"] = map[string]any{}
		}
		return out, nil

	case IsCompleteReply:
		out := map[string]any{"status": string(rep.Status)}
		if rep.Status == CodeIncomplete {
			out["indent"] = rep.Indent
		}
		return out, nil

	case ConnectReply:
		return map[string]any{
			"shell_port":   rep.Info.ShellPort,
			"iopub_port":   rep.Info.IOPubPort,
			"stdin_port":   rep.Info.StdinPort,
			"hb_port":      rep.Info.HBPort,
			"control_port": rep.Info.ControlPort,
		}, nil

	case CommInfoReply:
		comms := make(map[string]any, len(rep.Comms))
		for id, target := range rep.Comms {
			comms[string(id)] = map[string]any{"target_name": string(target)}
		}
		return map[string]any{"comms": comms}, nil

	case KernelInfoReply:
		return map[string]any{
			"protocol_version":       rep.ProtocolVersion,
			"implementation":         rep.Implementation,
			"implementation_version": rep.ImplementationVersion,
			"language_info": map[string]any{
				"name":           rep.LanguageName,
				"version":        rep.LanguageVersion,
				"mimetype":       rep.LanguageMimeType,
				"file_extension": rep.LanguageFileExtension,
			},
			"banner": rep.Banner,
		}, nil

	case ShutdownReply:
		return map[string]any{"restart": bool(rep.Restart), "status": "ok"}, nil

	default:
		return nil, errors.Errorf("EncodeKernelReply: unhandled type %T", r)
	}
}

// DecodeKernelReply dispatches on msgType to decode raw into the matching
// KernelReply variant.
func DecodeKernelReply(msgType string, raw json.RawMessage) (KernelReply, error) {
	m, err := unmarshalContent(raw)
	if err != nil {
		return nil, decodeErrorf(msgType, err)
	}
	switch msgType {
	case TagExecuteReply:
		status, errInfo := decodeResultStatus(m)
		if status != ResultOk {
			return ExecuteReply{Result: OperationResult[ExecuteReplyOk]{Status: status, Err: errInfo}}, nil
		}
		var payload []map[string]any
		if rawPayload, ok := m["payload"].([]any); ok {
			for _, p := range rawPayload {
				if pm, ok := p.(map[string]any); ok {
					payload = append(payload, pm)
				}
			}
		}
		return ExecuteReply{Result: Ok(ExecuteReplyOk{
			ExecutionCount:  asInt(m, "execution_count"),
			Payload:         payload,
			UserExpressions: asMap(m, "user_expressions"),
		})}, nil

	case TagInspectReply:
		status, errInfo := decodeResultStatus(m)
		if status != ResultOk {
			return InspectReply{Result: OperationResult[InspectReplyOk]{Status: status, Err: errInfo}}, nil
		}
		data := decodeDisplayData(asMap(m, "data"), asMap(m, "metadata"))
		return InspectReply{Result: Ok(InspectReplyOk{Found: asBool(m, "found"), Data: data})}, nil

	case TagHistoryReply:
		status, errInfo := decodeResultStatus(m)
		if status != ResultOk {
			return HistoryReply{Result: OperationResult[HistoryReplyOk]{Status: status, Err: errInfo}}, nil
		}
		var entries []HistoryEntry
		if rows, ok := m["history"].([]any); ok {
			for _, row := range rows {
				cols, ok := row.([]any)
				if !ok || len(cols) < 4 {
					continue
				}
				session, _ := cols[0].(float64)
				line, _ := cols[1].(float64)
				input, _ := cols[2].(string)
				output, _ := cols[3].(string)
				entries = append(entries, HistoryEntry{
					Session: int(session), Line: int(line), Input: input, Output: output,
				})
			}
		}
		return HistoryReply{Result: Ok(HistoryReplyOk{History: entries})}, nil

	case TagCompleteReply:
		status, errInfo := decodeResultStatus(m)
		if status != ResultOk {
			return CompleteReply{Result: OperationResult[CompleteReplyOk]{Status: status, Err: errInfo}}, nil
		}
		var matches []string
		if rawMatches, ok := m["matches"].([]any); ok {
			for _, v := range rawMatches {
				if s, ok := v.(string); ok {
					matches = append(matches, s)
				}
			}
		}
		return CompleteReply{Result: Ok(CompleteReplyOk{
			Matches:     matches,
			CursorStart: asInt(m, "cursor_start"),
			CursorEnd:   asInt(m, "cursor_end"),
		})}, nil

	case TagIsCompleteReply:
		return IsCompleteReply{
			Status: IsCompleteStatus(asString(m, "status")),
			Indent: asString(m, "indent"),
		}, nil

	case TagConnectReply:
		return ConnectReply{Info: ConnectInfo{
			ShellPort:   asInt(m, "shell_port"),
			IOPubPort:   asInt(m, "iopub_port"),
			StdinPort:   asInt(m, "stdin_port"),
			HBPort:      asInt(m, "hb_port"),
			ControlPort: asInt(m, "control_port"),
		}}, nil

	case TagCommInfoReply:
		comms := make(map[CommID]CommTargetName)
		for key, v := range asMap(m, "comms") {
			if entry, ok := v.(map[string]any); ok {
				comms[CommID(key)] = CommTargetName(asString(entry, "target_name"))
			}
		}
		return CommInfoReply{Comms: comms}, nil

	case TagKernelInfoReply:
		langInfo := asObject(m, "language_info")
		return KernelInfoReply{
			ProtocolVersion:       asString(m, "protocol_version"),
			Implementation:        asString(m, "implementation"),
			ImplementationVersion: asString(m, "implementation_version"),
			LanguageName:          asString(langInfo, "name"),
			LanguageVersion:       asString(langInfo, "version"),
			LanguageMimeType:      asString(langInfo, "mimetype"),
			LanguageFileExtension: asString(langInfo, "file_extension"),
			Banner:                asString(m, "banner"),
		}, nil

	case TagShutdownReply:
		return ShutdownReply{Restart: Restart(asBool(m, "restart"))}, nil

	default:
		return nil, &UnknownMessageTypeError{MsgType: msgType}
	}
}

// ---- KernelOutput -----------------------------------------------------------

// EncodeKernelOutput produces the JSON content object for o.
func EncodeKernelOutput(o KernelOutput) (map[string]any, error) {
	switch out := o.(type) {
	case StreamOutput:
		return map[string]any{"name": string(out.Stream), "text": out.Text}, nil

	case DisplayDataOutput:
		data, metadata := out.Data.encode()
		return map[string]any{"data": data, "metadata": metadata}, nil

	case ExecuteInputOutput:
		return map[string]any{"code": string(out.Code), "execution_count": out.ExecutionCount}, nil

	case ExecuteResultOutput:
		data, metadata := out.Data.encode()
		return map[string]any{"execution_count": out.ExecutionCount, "data": data, "metadata": metadata}, nil

	case ExecuteErrorOutput:
		tb := out.Error.Traceback
		if tb == nil {
			tb = []string{}
		}
		return map[string]any{"ename": out.Error.Ename, "evalue": out.Error.Evalue, "traceback": tb}, nil

	case KernelStatusOutput:
		return map[string]any{"execution_state": string(out.Status)}, nil

	case ClearOutputMsg:
		return map[string]any{"wait": bool(out.Wait)}, nil

	default:
		return nil, errors.Errorf("EncodeKernelOutput: unhandled type %T", o)
	}
}

// DecodeKernelOutput dispatches on msgType to decode raw into the matching
// KernelOutput variant.
func DecodeKernelOutput(msgType string, raw json.RawMessage) (KernelOutput, error) {
	m, err := unmarshalContent(raw)
	if err != nil {
		return nil, decodeErrorf(msgType, err)
	}
	switch msgType {
	case TagStream:
		return StreamOutput{Stream: Stream(asString(m, "name")), Text: asString(m, "text")}, nil

	case TagDisplayData:
		return DisplayDataOutput{Data: decodeDisplayData(asMap(m, "data"), asMap(m, "metadata"))}, nil

	case TagExecuteInput:
		return ExecuteInputOutput{Code: CodeBlock(asString(m, "code")), ExecutionCount: asInt(m, "execution_count")}, nil

	case TagExecuteResult:
		return ExecuteResultOutput{
			ExecutionCount: asInt(m, "execution_count"),
			Data:           decodeDisplayData(asMap(m, "data"), asMap(m, "metadata")),
		}, nil

	case TagError:
		var traceback []string
		if tb, ok := m["traceback"].([]any); ok {
			for _, line := range tb {
				if s, ok := line.(string); ok {
					traceback = append(traceback, s)
				}
			}
		}
		return ExecuteErrorOutput{Error: ErrorInfo{
			Ename:     asString(m, "ename"),
			Evalue:    asString(m, "evalue"),
			Traceback: traceback,
		}}, nil

	case TagStatus:
		return KernelStatusOutput{Status: KernelStatus(asString(m, "execution_state"))}, nil

	case TagClearOutput:
		return ClearOutputMsg{Wait: WaitBeforeClear(asBool(m, "wait"))}, nil

	default:
		return nil, &UnknownMessageTypeError{MsgType: msgType}
	}
}

// ---- KernelRequest / ClientReply (stdin) -----------------------------------

func EncodeKernelRequest(r KernelRequest) (map[string]any, error) {
	switch req := r.(type) {
	case InputRequest:
		return map[string]any{"prompt": req.Options.Prompt, "password": req.Options.Password}, nil
	default:
		return nil, errors.Errorf("EncodeKernelRequest: unhandled type %T", r)
	}
}

func DecodeKernelRequest(msgType string, raw json.RawMessage) (KernelRequest, error) {
	m, err := unmarshalContent(raw)
	if err != nil {
		return nil, decodeErrorf(msgType, err)
	}
	switch msgType {
	case TagInputRequest:
		return InputRequest{Options: InputOptions{Prompt: asString(m, "prompt"), Password: asBool(m, "password")}}, nil
	default:
		return nil, &UnknownMessageTypeError{MsgType: msgType}
	}
}

func EncodeClientReply(r ClientReply) (map[string]any, error) {
	switch rep := r.(type) {
	case InputReply:
		return map[string]any{"value": rep.Value}, nil
	default:
		return nil, errors.Errorf("EncodeClientReply: unhandled type %T", r)
	}
}

func DecodeClientReply(msgType string, raw json.RawMessage) (ClientReply, error) {
	m, err := unmarshalContent(raw)
	if err != nil {
		return nil, decodeErrorf(msgType, err)
	}
	switch msgType {
	case TagInputReply:
		return InputReply{Value: asString(m, "value")}, nil
	default:
		return nil, &UnknownMessageTypeError{MsgType: msgType}
	}
}

// ---- Comm -------------------------------------------------------------------

func EncodeComm(c Comm) (map[string]any, error) {
	switch comm := c.(type) {
	case CommOpen:
		out := map[string]any{
			"comm_id":     string(comm.ID),
			"data":        nonNilMap(comm.Data),
			"target_name": string(comm.TargetName),
		}
		if comm.TargetModule != nil {
			out["target_module"] = string(*comm.TargetModule)
		}
		return out, nil

	case CommClose:
		return map[string]any{"comm_id": string(comm.ID), "data": nonNilMap(comm.Data)}, nil

	case CommMessage:
		return map[string]any{"comm_id": string(comm.ID), "data": nonNilMap(comm.Data)}, nil

	default:
		return nil, errors.Errorf("EncodeComm: unhandled type %T", c)
	}
}

func DecodeComm(msgType string, raw json.RawMessage) (Comm, error) {
	m, err := unmarshalContent(raw)
	if err != nil {
		return nil, decodeErrorf(msgType, err)
	}
	id := CommID(asString(m, "comm_id"))
	switch msgType {
	case TagCommOpen:
		open := CommOpen{ID: id, Data: asMap(m, "data"), TargetName: CommTargetName(asString(m, "target_name"))}
		if mod, ok := m["target_module"].(string); ok {
			tm := CommTargetModule(mod)
			open.TargetModule = &tm
		}
		return open, nil
	case TagCommClose:
		return CommClose{ID: id, Data: asMap(m, "data")}, nil
	case TagCommMsg:
		return CommMessage{ID: id, Data: asMap(m, "data")}, nil
	default:
		return nil, &UnknownMessageTypeError{MsgType: msgType}
	}
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
