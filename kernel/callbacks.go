package kernel

import (
	"context"

	"github.com/go-zeromq/zmq4"
	"github.com/pkg/errors"

	"github.com/wireproto/jupykernel/id"
	"github.com/wireproto/jupykernel/message"
	"github.com/wireproto/jupykernel/wire"
)

// Callbacks lets a RequestHandler or CommHandler emit kernel-originated
// traffic while a request is being handled, always parented to the request
// that triggered it, per the protocol's parenting rule.
type Callbacks struct {
	engine *Engine
	parent id.Header
}

// SendOutput publishes an unsolicited output on iopub, parented to the
// request or comm currently being handled.
func (c *Callbacks) SendOutput(out message.KernelOutput) error {
	header := id.NewReplyHeader(c.parent, out.Tag())
	content, err := message.EncodeKernelOutput(out)
	if err != nil {
		return errors.WithMessagef(err, "encoding %s output", out.Tag())
	}
	return c.engine.publish(header, c.parent, content)
}

// SendComm emits a Comm message on iopub, parented to the currently handled
// request.
func (c *Callbacks) SendComm(comm message.Comm) error {
	header := id.NewReplyHeader(c.parent, comm.Tag())
	content, err := message.EncodeComm(comm)
	if err != nil {
		return errors.WithMessagef(err, "encoding %s comm", comm.Tag())
	}
	if open, ok := comm.(message.CommOpen); ok {
		c.engine.commsMu.Lock()
		c.engine.comms[open.ID] = open.TargetName
		c.engine.commsMu.Unlock()
	}
	if _, ok := comm.(message.CommClose); ok {
		c.engine.commsMu.Lock()
		delete(c.engine.comms, comm.CommID())
		c.engine.commsMu.Unlock()
	}
	return c.engine.publish(header, c.parent, content)
}

// RequestInput sends an input_request on stdin and blocks until the
// matching input_reply arrives, or ctx is done. Only one stdin round-trip
// may be outstanding at a time: a call made while another is still waiting
// for its reply returns an error at once; it does not wait for its turn.
func (c *Callbacks) RequestInput(ctx context.Context, req message.InputRequest) (message.InputReply, error) {
	e := c.engine

	e.stdinMu.Lock()
	if e.pendingStdin != nil {
		e.stdinMu.Unlock()
		return message.InputReply{}, errors.New("a stdin request is already outstanding")
	}
	pending := &pendingInput{reply: make(chan message.ClientReply, 1)}
	e.pendingStdin = pending
	e.stdinMu.Unlock()

	header := id.NewReplyHeader(c.parent, req.Tag())
	content, err := message.EncodeKernelRequest(req)
	if err != nil {
		e.clearPendingStdin()
		return message.InputReply{}, errors.WithMessage(err, "encoding input_request")
	}
	raw, err := marshalContent(content)
	if err != nil {
		e.clearPendingStdin()
		return message.InputReply{}, err
	}
	frame := wire.Frame{Header: header, ParentHeader: c.parent, MsgType: header.MsgType, Content: raw}
	parts, err := e.signer.Encode(frame)
	if err != nil {
		e.clearPendingStdin()
		return message.InputReply{}, errors.WithMessage(err, "signing input_request")
	}
	err = e.sockets.Stdin.RunLocked(func(sock zmq4.Socket) error {
		return sock.SendMulti(zmq4.NewMsgFrom(parts...))
	})
	if err != nil {
		e.clearPendingStdin()
		return message.InputReply{}, errors.WithMessage(err, "sending input_request")
	}

	select {
	case reply := <-pending.reply:
		input, ok := reply.(message.InputReply)
		if !ok {
			return message.InputReply{}, errors.Errorf("unexpected stdin reply type %T", reply)
		}
		return input, nil
	case <-ctx.Done():
		e.clearPendingStdin()
		return message.InputReply{}, ctx.Err()
	case <-e.stop:
		e.clearPendingStdin()
		return message.InputReply{}, errors.New("kernel stopped while awaiting stdin reply")
	}
}

func (e *Engine) clearPendingStdin() {
	e.stdinMu.Lock()
	e.pendingStdin = nil
	e.stdinMu.Unlock()
}
