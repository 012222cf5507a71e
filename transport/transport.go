// Package transport binds or dials the five ZMQ sockets a Jupyter kernel
// and client exchange messages over, following the role table fixed by the
// messaging protocol: ROUTER/DEALER for shell, control and stdin, PUB/SUB
// for iopub, REP/REQ-style alternation for heartbeat.
package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/go-zeromq/zmq4"
	"github.com/pkg/errors"
	"github.com/wireproto/jupykernel/profile"
)

// SyncSocket wraps a zmq4.Socket with a mutex guarding writes, since zmq4
// sockets are not safe for concurrent Send calls.
type SyncSocket struct {
	Socket zmq4.Socket

	mu sync.Mutex
}

// RunLocked runs fn with the socket's write lock held.
func (s *SyncSocket) RunLocked(fn func(socket zmq4.Socket) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.Socket)
}

func (s *SyncSocket) Close() error {
	return s.Socket.Close()
}

// SocketGroup holds the five sockets used to talk to the other side of a
// kernel connection, plus the signing key carried alongside them.
type SocketGroup struct {
	Shell   SyncSocket
	Control SyncSocket
	Stdin   SyncSocket
	IOPub   SyncSocket
	HB      SyncSocket
	Key     []byte
}

// Close shuts down every socket in the group. Errors from individual
// sockets are collected but do not stop the others from being closed.
func (g *SocketGroup) Close() error {
	var errs []error
	for _, s := range []*SyncSocket{&g.Shell, &g.Control, &g.Stdin, &g.IOPub, &g.HB} {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Errorf("closing sockets: %v", errs)
	}
	return nil
}

func address(p profile.KernelProfile, port int) string {
	switch profile.Transport(p.Transport) {
	case profile.TransportIPC:
		return fmt.Sprintf("ipc://%s-%d", p.IP, port)
	default:
		return fmt.Sprintf("tcp://%s:%d", p.IP, port)
	}
}

// resolveDynamicPorts returns a copy of p with every zero port replaced by
// one the OS hands out. zmq4 never reports back which port a Listen(":0")
// actually bound, so the port has to be reserved through a plain TCP
// listener first and released right before zmq4 binds to it -- the same
// workaround the teacher uses to find jupyter notebook a free port. Every
// zero port is reserved before any listener is released, so two dynamic
// ports on the same profile can never collide.
func resolveDynamicPorts(p profile.KernelProfile) (profile.KernelProfile, error) {
	ports := []*int{&p.ShellPort, &p.ControlPort, &p.StdinPort, &p.IOPubPort, &p.HBPort}
	var reserved []net.Listener
	defer func() {
		for _, l := range reserved {
			_ = l.Close()
		}
	}()
	for _, port := range ports {
		if *port != 0 {
			continue
		}
		l, err := net.Listen("tcp", ":0")
		if err != nil {
			return p, errors.WithMessage(err, "reserving a dynamic port")
		}
		reserved = append(reserved, l)
		*port = l.Addr().(*net.TCPAddr).Port
	}
	return p, nil
}

// BindKernel creates the kernel-side socket group: ROUTER for shell,
// control and stdin (a kernel may serve several clients), PUB for iopub,
// REP for heartbeat. Any port left at 0 in p is resolved to an
// OS-assigned one first; the returned KernelProfile is the effective one,
// with every port actually bound, ready to hand to a caller that needs to
// advertise it (e.g. write a connection file).
func BindKernel(ctx context.Context, p profile.KernelProfile) (*SocketGroup, profile.KernelProfile, error) {
	p, err := resolveDynamicPorts(p)
	if err != nil {
		return nil, profile.KernelProfile{}, err
	}
	if err := p.Validate(); err != nil {
		return nil, profile.KernelProfile{}, errors.WithMessage(err, "resolved connection profile")
	}

	g := &SocketGroup{
		Key:     p.KeyBytes(),
		Shell:   SyncSocket{Socket: zmq4.NewRouter(ctx)},
		Control: SyncSocket{Socket: zmq4.NewRouter(ctx)},
		Stdin:   SyncSocket{Socket: zmq4.NewRouter(ctx)},
		IOPub:   SyncSocket{Socket: zmq4.NewPub(ctx)},
		HB:      SyncSocket{Socket: zmq4.NewRep(ctx)},
	}
	binds := []struct {
		name string
		sock *SyncSocket
		port int
	}{
		{"shell", &g.Shell, p.ShellPort},
		{"control", &g.Control, p.ControlPort},
		{"stdin", &g.Stdin, p.StdinPort},
		{"iopub", &g.IOPub, p.IOPubPort},
		{"heartbeat", &g.HB, p.HBPort},
	}
	for _, b := range binds {
		if err := b.sock.Socket.Listen(address(p, b.port)); err != nil {
			return nil, profile.KernelProfile{}, errors.WithMessagef(err, "binding %s socket", b.name)
		}
	}
	return g, p, nil
}

// DialClient creates the client-side socket group: DEALER for shell,
// control and stdin, SUB for iopub (subscribed to every topic), REQ for
// heartbeat, all dialing the ports named in p.
func DialClient(ctx context.Context, p profile.KernelProfile) (*SocketGroup, error) {
	g := &SocketGroup{
		Key:     p.KeyBytes(),
		Shell:   SyncSocket{Socket: zmq4.NewDealer(ctx)},
		Control: SyncSocket{Socket: zmq4.NewDealer(ctx)},
		Stdin:   SyncSocket{Socket: zmq4.NewDealer(ctx)},
		IOPub:   SyncSocket{Socket: zmq4.NewSub(ctx)},
		HB:      SyncSocket{Socket: zmq4.NewReq(ctx)},
	}
	dials := []struct {
		name string
		sock *SyncSocket
		port int
	}{
		{"shell", &g.Shell, p.ShellPort},
		{"control", &g.Control, p.ControlPort},
		{"stdin", &g.Stdin, p.StdinPort},
		{"iopub", &g.IOPub, p.IOPubPort},
		{"heartbeat", &g.HB, p.HBPort},
	}
	for _, d := range dials {
		if err := d.sock.Socket.Dial(address(p, d.port)); err != nil {
			return nil, errors.WithMessagef(err, "dialing %s socket", d.name)
		}
	}
	if err := g.IOPub.Socket.SetOption(zmq4.OptionSubscribe, ""); err != nil {
		return nil, errors.WithMessage(err, "subscribing iopub socket to all topics")
	}
	return g, nil
}
