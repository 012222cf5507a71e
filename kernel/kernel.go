// Package kernel implements the kernel side of the Jupyter wire protocol: it
// binds the five sockets, echoes heartbeats, receives client requests and
// comms on shell/control, brackets execute_request handling
// with busy/idle status, and lets request handlers round-trip through
// stdin to collect input from the front-end.
package kernel

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"

	"github.com/go-zeromq/zmq4"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"k8s.io/klog/v2"

	"github.com/wireproto/jupykernel/common"
	"github.com/wireproto/jupykernel/id"
	"github.com/wireproto/jupykernel/message"
	"github.com/wireproto/jupykernel/profile"
	"github.com/wireproto/jupykernel/transport"
	"github.com/wireproto/jupykernel/wire"
)

// busyIdleMsgTypes are the request tags whose handling is bracketed with a
// busy/idle status pair on iopub. Every other request type is handled
// without a status bracket.
var busyIdleMsgTypes = []string{message.TagExecuteRequest}

func marshalContent(content map[string]any) (json.RawMessage, error) {
	if content == nil {
		content = map[string]any{}
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, errors.WithMessage(err, "marshaling message content")
	}
	return json.RawMessage(raw), nil
}

// RequestHandler answers one ClientRequest arriving on shell or control,
// using cb to emit any iopub output or comm traffic, or to round-trip
// through stdin, while the request is being handled.
type RequestHandler func(ctx context.Context, req message.ClientRequest, cb *Callbacks) message.KernelReply

// CommHandler reacts to an unsolicited Comm message arriving on shell or
// control.
type CommHandler func(ctx context.Context, comm message.Comm, cb *Callbacks)

// Engine is a running kernel: bound sockets, the signing key from its
// connection profile, and the goroutines polling each channel.
type Engine struct {
	sockets *transport.SocketGroup
	signer  *wire.Signer
	session id.UUID
	username string

	// Profile is the effective connection profile sockets were bound to: any
	// port left at 0 by the caller has been replaced with the OS-assigned
	// one New actually bound.
	Profile profile.KernelProfile

	RequestHandler RequestHandler
	CommHandler    CommHandler

	// Implementation is advertised in kernel_info_reply.
	Implementation string

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	stdinMu      sync.Mutex // guards pendingStdin
	pendingStdin *pendingInput
	execMu       sync.Mutex // serializes busy/idle bracketed execute handling

	commsMu sync.Mutex
	comms   map[message.CommID]message.CommTargetName

	Interrupted atomic.Bool
	sigintC     chan os.Signal
}

// New binds the kernel's sockets per p and returns an Engine ready to Run.
func New(ctx context.Context, p profile.KernelProfile, username string) (*Engine, error) {
	sockets, effective, err := transport.BindKernel(ctx, p)
	if err != nil {
		return nil, errors.WithMessage(err, "binding kernel sockets")
	}
	return &Engine{
		sockets:  sockets,
		signer:   wire.NewSigner(sockets.Key),
		session:  id.New(),
		username: username,
		Profile:  effective,
		stop:     make(chan struct{}),
		comms:    make(map[message.CommID]message.CommTargetName),
	}, nil
}

// IsStopped reports whether the engine has been asked to stop.
func (e *Engine) IsStopped() bool {
	select {
	case <-e.stop:
		return true
	default:
		return false
	}
}

// StoppedChan returns a channel closed once the engine stops.
func (e *Engine) StoppedChan() <-chan struct{} {
	return e.stop
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

// HandleInterrupt arranges for SIGINT (the signal Jupyter sends a kernel to
// request an interrupt) to set Interrupted instead of killing the process.
func (e *Engine) HandleInterrupt() {
	if e.sigintC != nil {
		return
	}
	e.sigintC = make(chan os.Signal, 1)
	signal.Notify(e.sigintC, os.Interrupt)
	go func() {
		for {
			select {
			case <-e.sigintC:
				e.Interrupted.Store(true)
				klog.Infof("kernel: interrupt received")
			case <-e.stop:
				signal.Stop(e.sigintC)
				return
			}
		}
	}()
}

// Run starts the heartbeat echo and the shell/control/stdin receive loops.
// It returns immediately; use Wait to block until the engine stops.
func (e *Engine) Run(ctx context.Context) {
	e.pollHeartbeat()
	e.pollRequests(ctx, &e.sockets.Shell)
	e.pollRequests(ctx, &e.sockets.Control)
	e.pollStdinReplies(ctx)
}

func (e *Engine) pollHeartbeat() {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for {
			msg, err := e.sockets.HB.Socket.Recv()
			if e.IsStopped() {
				return
			}
			if err != nil {
				klog.Errorf("kernel: heartbeat recv failed, stopping: %+v", err)
				e.Stop()
				return
			}
			err = e.sockets.HB.RunLocked(func(sock zmq4.Socket) error {
				return sock.Send(msg)
			})
			if err != nil {
				klog.Errorf("kernel: heartbeat echo failed, stopping: %+v", err)
				e.Stop()
				return
			}
		}
	}()
}

// pollRequests receives ClientRequest messages off sock and dispatches each
// to e.RequestHandler, bracketing execute_request handling with busy/idle
// status per the wire protocol's rule that only execution is bracketed.
// Dispatch runs inline in the receive loop, one request at a time per
// socket, so replies on a given socket are emitted in the order their
// requests arrived; shell and control still run concurrently with each
// other, each in its own pollRequests goroutine.
func (e *Engine) pollRequests(ctx context.Context, sock *transport.SyncSocket) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for {
			zmqMsg, err := sock.Socket.Recv()
			if e.IsStopped() {
				return
			}
			if err != nil {
				klog.Errorf("kernel: request recv failed, stopping: %+v", err)
				e.Stop()
				return
			}
			frame, err := e.signer.Decode(zmqMsg.Frames)
			if err != nil {
				klog.Warningf("kernel: dropping malformed request: %+v", err)
				continue
			}
			e.dispatchRequest(ctx, sock, frame)
		}
	}()
}

func (e *Engine) dispatchRequest(ctx context.Context, sock *transport.SyncSocket, frame wire.Frame) {
	if isCommTag(frame.MsgType) {
		comm, err := message.DecodeComm(frame.MsgType, frame.Content)
		if err != nil {
			klog.Warningf("kernel: cannot decode %s: %+v", frame.MsgType, err)
			return
		}
		e.handleComm(ctx, comm, frame)
		return
	}

	req, err := message.DecodeClientRequest(frame.MsgType, frame.Content)
	if err != nil {
		klog.Warningf("kernel: cannot decode %s: %+v", frame.MsgType, err)
		return
	}

	cb := &Callbacks{engine: e, parent: frame.Header}

	bracket := slices.Contains(busyIdleMsgTypes, req.Tag())
	if bracket {
		e.execMu.Lock()
		defer e.execMu.Unlock()
		e.publishStatus(frame.Header, message.StatusBusy)
		defer e.publishStatus(frame.Header, message.StatusIdle)
	}

	if req.Tag() == message.TagShutdownRequest {
		defer e.Stop()
	}

	var reply message.KernelReply
	if e.RequestHandler != nil {
		reply = e.RequestHandler(ctx, req, cb)
	}
	if reply == nil {
		return
	}
	// An execute_request with silent=true suppresses its own execute_reply:
	// the front-end asked not to be told the outcome.
	if exec, ok := req.(message.ExecuteRequest); ok && exec.Options.Silent {
		return
	}
	if err := e.sendReply(sock, frame, reply); err != nil {
		klog.Errorf("kernel: failed to send reply to %s: %+v", frame.MsgType, err)
	}
}

func (e *Engine) handleComm(ctx context.Context, comm message.Comm, frame wire.Frame) {
	e.commsMu.Lock()
	switch c := comm.(type) {
	case message.CommOpen:
		e.comms[c.ID] = c.TargetName
	case message.CommClose:
		if _, known := e.comms[c.ID]; known {
			delete(e.comms, c.ID)
		} else {
			klog.Warningf("kernel: comm_close for unknown comm %s, known comms: %v", c.ID, common.SortedKeys(e.commIDStrings()))
		}
	}
	e.commsMu.Unlock()

	if e.CommHandler != nil {
		e.CommHandler(ctx, comm, &Callbacks{engine: e, parent: frame.Header})
	}
}

// commIDStrings returns e.comms keyed by string instead of message.CommID,
// so common.SortedKeys can enumerate it. Caller must hold commsMu.
func (e *Engine) commIDStrings() map[string]message.CommTargetName {
	out := make(map[string]message.CommTargetName, len(e.comms))
	for k, v := range e.comms {
		out[string(k)] = v
	}
	return out
}

func isCommTag(msgType string) bool {
	switch msgType {
	case message.TagCommOpen, message.TagCommClose, message.TagCommMsg:
		return true
	default:
		return false
	}
}

// KnownComms returns a snapshot of currently open comm ids and the target
// name each was opened with, for answering comm_info_request.
func (e *Engine) KnownComms() map[message.CommID]message.CommTargetName {
	e.commsMu.Lock()
	defer e.commsMu.Unlock()
	out := make(map[message.CommID]message.CommTargetName, len(e.comms))
	for k, v := range e.comms {
		out[k] = v
	}
	return out
}

func (e *Engine) publishStatus(parent id.Header, status message.KernelStatus) {
	header := id.NewReplyHeader(parent, message.TagStatus)
	content, err := message.EncodeKernelOutput(message.KernelStatusOutput{Status: status})
	if err != nil {
		klog.Errorf("kernel: encoding status %s: %+v", status, err)
		return
	}
	if err := e.publish(header, parent, content); err != nil {
		klog.Errorf("kernel: publishing status %s: %+v", status, err)
	}
}

func (e *Engine) publish(header, parent id.Header, content map[string]any) error {
	raw, err := marshalContent(content)
	if err != nil {
		return err
	}
	frame := wire.Frame{Header: header, ParentHeader: parent, MsgType: header.MsgType, Content: raw}
	parts, err := e.signer.Encode(frame)
	if err != nil {
		return err
	}
	return e.sockets.IOPub.RunLocked(func(sock zmq4.Socket) error {
		return sock.SendMulti(zmq4.NewMsgFrom(parts...))
	})
}

func (e *Engine) sendReply(sock *transport.SyncSocket, parentFrame wire.Frame, reply message.KernelReply) error {
	header := id.NewReplyHeader(parentFrame.Header, reply.Tag())
	content, err := message.EncodeKernelReply(reply)
	if err != nil {
		return errors.WithMessagef(err, "encoding %s", reply.Tag())
	}
	raw, err := marshalContent(content)
	if err != nil {
		return err
	}
	frame := wire.Frame{
		Identities:   parentFrame.Identities,
		Header:       header,
		ParentHeader: parentFrame.Header,
		MsgType:      header.MsgType,
		Content:      raw,
	}
	parts, err := e.signer.Encode(frame)
	if err != nil {
		return err
	}
	return sock.RunLocked(func(s zmq4.Socket) error {
		return s.SendMulti(zmq4.NewMsgFrom(parts...))
	})
}

// pendingInput is the state of an in-flight input_request, matched against
// the next input_reply arriving on stdin.
type pendingInput struct {
	reply chan message.ClientReply
}

func (e *Engine) pollStdinReplies(ctx context.Context) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for {
			zmqMsg, err := e.sockets.Stdin.Socket.Recv()
			if e.IsStopped() {
				return
			}
			if err != nil {
				klog.Errorf("kernel: stdin recv failed, stopping: %+v", err)
				e.Stop()
				return
			}
			frame, err := e.signer.Decode(zmqMsg.Frames)
			if err != nil {
				klog.Warningf("kernel: dropping malformed stdin reply: %+v", err)
				continue
			}
			reply, err := message.DecodeClientReply(frame.MsgType, frame.Content)
			if err != nil {
				klog.Warningf("kernel: cannot decode stdin reply %s: %+v", frame.MsgType, err)
				continue
			}
			e.stdinMu.Lock()
			pending := e.pendingStdin
			e.pendingStdin = nil
			e.stdinMu.Unlock()
			if pending != nil {
				pending.reply <- reply
			}
		}
	}()
}
