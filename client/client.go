// Package client implements the front-end side of the Jupyter wire
// protocol: send a ClientRequest on shell or control and block for its
// KernelReply, send Comm traffic on shell and receive it on iopub, and
// answer input_request prompts arriving on stdin.
package client

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/wireproto/jupykernel/id"
	"github.com/wireproto/jupykernel/message"
	"github.com/wireproto/jupykernel/profile"
	"github.com/wireproto/jupykernel/transport"
	"github.com/wireproto/jupykernel/wire"
)

// OutputHandler reacts to a KernelOutput broadcast on iopub.
type OutputHandler func(parent id.Header, out message.KernelOutput)

// CommHandler reacts to a Comm message arriving on iopub.
type CommHandler func(parent id.Header, comm message.Comm)

// InputHandler answers an input_request arriving on stdin, returning the
// value to send back as an input_reply.
type InputHandler func(ctx context.Context, parent id.Header, req message.InputRequest) string

// Engine is a running client: the socket group dialed to a kernel's
// connection profile, and the handlers invoked for unsolicited traffic.
type Engine struct {
	sockets *transport.SocketGroup
	signer  *wire.Signer
	session id.UUID
	username string

	OutputHandler OutputHandler
	CommHandler   CommHandler
	InputHandler  InputHandler

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	pendingMu sync.Mutex
	pending   map[id.UUID]chan message.KernelReply
}

// New dials the client's sockets at p and returns an Engine ready to Run.
func New(ctx context.Context, p profile.KernelProfile, username string) (*Engine, error) {
	sockets, err := transport.DialClient(ctx, p)
	if err != nil {
		return nil, errors.WithMessage(err, "dialing client sockets")
	}
	return &Engine{
		sockets:  sockets,
		signer:   wire.NewSigner(sockets.Key),
		session:  id.New(),
		username: username,
		stop:     make(chan struct{}),
		pending:  make(map[id.UUID]chan message.KernelReply),
	}, nil
}

// Stop signals every polling goroutine to exit.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stop) })
}

// Wait blocks until every polling goroutine launched by Run has returned.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close releases the engine's sockets. Call after Wait returns.
func (e *Engine) Close() error {
	return e.sockets.Close()
}

// Run starts the iopub and stdin listener goroutines. It returns
// immediately; use Wait to block until the engine stops.
func (e *Engine) Run(ctx context.Context) {
	e.pollIOPub(ctx)
	e.pollStdin(ctx)
	e.pollReplies(ctx, &e.sockets.Shell)
	e.pollReplies(ctx, &e.sockets.Control)
}

// pollReplies receives KernelReply messages off sock and delivers each to
// the channel SendRequest/SendControlRequest registered for its
// parent_header message id.
func (e *Engine) pollReplies(ctx context.Context, sock *transport.SyncSocket) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for {
			zmqMsg, err := sock.Socket.Recv()
			select {
			case <-e.stop:
				return
			default:
			}
			if err != nil {
				klog.Errorf("client: reply recv failed, stopping: %+v", err)
				e.Stop()
				return
			}
			frame, err := e.signer.Decode(zmqMsg.Frames)
			if err != nil {
				klog.Warningf("client: dropping malformed reply: %+v", err)
				continue
			}
			reply, err := message.DecodeKernelReply(frame.MsgType, frame.Content)
			if err != nil {
				klog.Warningf("client: cannot decode reply %s: %+v", frame.MsgType, err)
				continue
			}
			e.pendingMu.Lock()
			ch, ok := e.pending[frame.ParentHeader.MessageID]
			e.pendingMu.Unlock()
			if !ok {
				klog.Warningf("client: reply %s has no matching pending request", frame.MsgType)
				continue
			}
			ch <- reply
		}
	}()
}

func (e *Engine) pollIOPub(ctx context.Context) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for {
			zmqMsg, err := e.sockets.IOPub.Socket.Recv()
			select {
			case <-e.stop:
				return
			default:
			}
			if err != nil {
				klog.Errorf("client: iopub recv failed, stopping: %+v", err)
				e.Stop()
				return
			}
			frame, err := e.signer.Decode(zmqMsg.Frames)
			if err != nil {
				var protoErr *wire.ProtocolError
				if !errors.As(err, &protoErr) {
					klog.Warningf("client: dropping malformed iopub message: %+v", err)
					continue
				}
				klog.Errorf("client: unparseable iopub message, stopping: %+v", err)
				e.Stop()
				return
			}
			e.dispatchIOPub(frame)
		}
	}()
}

func (e *Engine) dispatchIOPub(frame wire.Frame) {
	if isCommTag(frame.MsgType) {
		comm, err := message.DecodeComm(frame.MsgType, frame.Content)
		if err != nil {
			klog.Warningf("client: cannot decode iopub comm %s: %+v", frame.MsgType, err)
			return
		}
		if e.CommHandler != nil {
			e.CommHandler(frame.ParentHeader, comm)
		}
		return
	}
	out, err := message.DecodeKernelOutput(frame.MsgType, frame.Content)
	if err != nil {
		klog.Warningf("client: cannot decode iopub output %s: %+v", frame.MsgType, err)
		return
	}
	if e.OutputHandler != nil {
		e.OutputHandler(frame.ParentHeader, out)
	}
}

func (e *Engine) pollStdin(ctx context.Context) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for {
			zmqMsg, err := e.sockets.Stdin.Socket.Recv()
			select {
			case <-e.stop:
				return
			default:
			}
			if err != nil {
				klog.Errorf("client: stdin recv failed, stopping: %+v", err)
				e.Stop()
				return
			}
			frame, err := e.signer.Decode(zmqMsg.Frames)
			if err != nil {
				klog.Warningf("client: dropping malformed stdin request: %+v", err)
				continue
			}
			req, err := message.DecodeKernelRequest(frame.MsgType, frame.Content)
			if err != nil {
				klog.Warningf("client: cannot decode stdin request %s: %+v", frame.MsgType, err)
				continue
			}
			go e.answerStdin(ctx, frame, req)
		}
	}()
}

func (e *Engine) answerStdin(ctx context.Context, frame wire.Frame, req message.KernelRequest) {
	input, ok := req.(message.InputRequest)
	if !ok {
		klog.Warningf("client: unexpected stdin request type %T", req)
		return
	}
	var value string
	if e.InputHandler != nil {
		value = e.InputHandler(ctx, frame.Header, input)
	}
	reply := message.InputReply{Value: value}
	header := id.NewReplyHeader(frame.Header, reply.Tag())
	content, err := message.EncodeClientReply(reply)
	if err != nil {
		klog.Errorf("client: encoding input_reply: %+v", err)
		return
	}
	if err := e.send(&e.sockets.Stdin, header, frame.Header, content); err != nil {
		klog.Errorf("client: sending input_reply: %+v", err)
	}
}

func isCommTag(msgType string) bool {
	switch msgType {
	case message.TagCommOpen, message.TagCommClose, message.TagCommMsg:
		return true
	default:
		return false
	}
}
