package client

import (
	"context"
	"encoding/json"

	"github.com/go-zeromq/zmq4"
	"github.com/pkg/errors"

	"github.com/wireproto/jupykernel/id"
	"github.com/wireproto/jupykernel/message"
	"github.com/wireproto/jupykernel/transport"
	"github.com/wireproto/jupykernel/wire"
)

func (e *Engine) send(sock *transport.SyncSocket, header, parent id.Header, content map[string]any) error {
	if content == nil {
		content = map[string]any{}
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return errors.WithMessagef(err, "marshaling %s content", header.MsgType)
	}
	frame := wire.Frame{Header: header, ParentHeader: parent, MsgType: header.MsgType, Content: raw}
	parts, err := e.signer.Encode(frame)
	if err != nil {
		return errors.WithMessagef(err, "signing %s", header.MsgType)
	}
	return sock.RunLocked(func(s zmq4.Socket) error {
		return s.SendMulti(zmq4.NewMsgFrom(parts...))
	})
}

// socketFor returns the shell or control socket a ClientRequest travels on.
// Per the protocol, shutdown_request is the one request a front-end may
// also send on control to jump the shell queue; every other request goes on
// shell. This implementation always uses shell, leaving control to the
// caller that needs priority delivery via SendControlRequest.
func (e *Engine) socketFor(req message.ClientRequest) *transport.SyncSocket {
	return &e.sockets.Shell
}

// SendRequest sends req on the shell channel and blocks until its paired
// KernelReply arrives, or ctx is done.
func (e *Engine) SendRequest(ctx context.Context, req message.ClientRequest) (message.KernelReply, error) {
	return e.sendRequestOn(ctx, e.socketFor(req), req)
}

// SendControlRequest sends req on the control channel, which a front-end
// uses to jump ahead of queued shell traffic (notably shutdown_request).
func (e *Engine) SendControlRequest(ctx context.Context, req message.ClientRequest) (message.KernelReply, error) {
	return e.sendRequestOn(ctx, &e.sockets.Control, req)
}

func (e *Engine) sendRequestOn(ctx context.Context, sock *transport.SyncSocket, req message.ClientRequest) (message.KernelReply, error) {
	header := id.NewRequestHeader(e.session, e.username, req.Tag())

	replyCh := make(chan message.KernelReply, 1)
	e.pendingMu.Lock()
	e.pending[header.MessageID] = replyCh
	e.pendingMu.Unlock()
	defer func() {
		e.pendingMu.Lock()
		delete(e.pending, header.MessageID)
		e.pendingMu.Unlock()
	}()

	content, err := message.EncodeClientRequest(req)
	if err != nil {
		return nil, errors.WithMessagef(err, "encoding %s", req.Tag())
	}
	if err := e.send(sock, header, id.Header{}, content); err != nil {
		return nil, errors.WithMessagef(err, "sending %s", req.Tag())
	}

	select {
	case reply := <-replyCh:
		return reply, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.stop:
		return nil, errors.New("client stopped while awaiting reply")
	}
}

// SendComm emits a Comm message on the shell channel, fire-and-forget: no
// reply is expected.
func (e *Engine) SendComm(comm message.Comm) error {
	header := id.NewRequestHeader(e.session, e.username, comm.Tag())
	content, err := message.EncodeComm(comm)
	if err != nil {
		return errors.WithMessagef(err, "encoding %s", comm.Tag())
	}
	return e.send(&e.sockets.Shell, header, id.Header{}, content)
}
