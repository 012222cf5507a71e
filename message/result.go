package message

// ResultStatus is the wire-level "status" discriminator of an
// OperationResult.
type ResultStatus string

const (
	ResultOk    ResultStatus = "ok"
	ResultError ResultStatus = "error"
	ResultAbort ResultStatus = "abort"
)

// OperationResult is the outcome of an execute/inspect/complete request:
// either a successful T, an ErrorInfo, or an abort with no further detail.
//
// On the wire it flattens onto a single JSON object: "status" plus, for Ok,
// T's own fields; for Error, ename/evalue/traceback; for Abort, nothing
// else. Each KernelReply variant that embeds one writes its own flattening,
// since T's shape (and whether it nests a DisplayData, itself flattened)
// differs per reply.
type OperationResult[T any] struct {
	Status ResultStatus
	Value  T // meaningful only when Status == ResultOk
	Err    ErrorInfo
}

// Ok wraps a successful result.
func Ok[T any](v T) OperationResult[T] {
	return OperationResult[T]{Status: ResultOk, Value: v}
}

// Error wraps a failed result.
func Error[T any](err ErrorInfo) OperationResult[T] {
	return OperationResult[T]{Status: ResultError, Err: err}
}

// Abort returns an aborted result (no value, no error detail).
func Abort[T any]() OperationResult[T] {
	return OperationResult[T]{Status: ResultAbort}
}

// encodeResultEnvelope produces the "status" (+ ename/evalue/traceback for
// the error branch) fields shared by every OperationResult encoding. The
// caller merges in the Ok branch's own fields.
func encodeResultEnvelope(status ResultStatus, errInfo ErrorInfo) map[string]any {
	out := map[string]any{"status": string(status)}
	if status == ResultError {
		out["ename"] = errInfo.Ename
		out["evalue"] = errInfo.Evalue
		tb := errInfo.Traceback
		if tb == nil {
			tb = []string{}
		}
		out["traceback"] = tb
	}
	return out
}

// decodeResultStatus reads the "status" discriminator and, for the error
// branch, the accompanying ErrorInfo. The caller decodes the Ok branch's own
// fields when status is ResultOk.
func decodeResultStatus(raw map[string]any) (ResultStatus, ErrorInfo) {
	statusStr, _ := raw["status"].(string)
	status := ResultStatus(statusStr)
	if status != ResultError {
		return status, ErrorInfo{}
	}
	ename, _ := raw["ename"].(string)
	evalue, _ := raw["evalue"].(string)
	var traceback []string
	if tb, ok := raw["traceback"].([]any); ok {
		for _, line := range tb {
			if s, ok := line.(string); ok {
				traceback = append(traceback, s)
			}
		}
	}
	return status, ErrorInfo{Ename: ename, Evalue: evalue, Traceback: traceback}
}
