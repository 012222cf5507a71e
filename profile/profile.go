// Package profile reads and writes the Jupyter connection file: the JSON
// document a front-end and a kernel both read to learn which transport,
// ports and signing key to use to talk to each other.
package profile

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// SignatureScheme is the only signature algorithm this implementation
// understands. Connection files naming any other scheme are rejected.
const SignatureScheme = "hmac-sha256"

// Transport is the socket transport a KernelProfile binds over.
type Transport string

const (
	TransportTCP Transport = "tcp"
	TransportIPC Transport = "ipc"
)

// KernelProfile is the decoded contents of a Jupyter connection file: enough
// information for either side to find the other's five sockets and sign
// messages between them.
type KernelProfile struct {
	SignatureScheme string `json:"signature_scheme"`
	Transport       string `json:"transport"`
	IP              string `json:"ip"`
	Key             string `json:"key"`
	ShellPort       int    `json:"shell_port"`
	ControlPort     int    `json:"control_port"`
	StdinPort       int    `json:"stdin_port"`
	IOPubPort       int    `json:"iopub_port"`
	HBPort          int    `json:"hb_port"`
}

// KeyBytes returns the signing key as raw bytes, or nil when the connection
// is unsigned.
func (p KernelProfile) KeyBytes() []byte {
	if p.Key == "" {
		return nil
	}
	return []byte(p.Key)
}

// Validate checks the invariants a connection file must satisfy before it
// can be used to bind or dial sockets: a known transport, a signature scheme
// that is either empty or the one this implementation speaks, and five
// distinct, non-zero ports.
func (p KernelProfile) Validate() error {
	switch Transport(p.Transport) {
	case TransportTCP, TransportIPC:
	default:
		return errors.Errorf("unsupported transport %q", p.Transport)
	}
	if p.SignatureScheme != "" && p.SignatureScheme != SignatureScheme {
		return errors.Errorf("unsupported signature_scheme %q, only %q is implemented", p.SignatureScheme, SignatureScheme)
	}
	ports := map[string]int{
		"shell_port":   p.ShellPort,
		"control_port": p.ControlPort,
		"stdin_port":   p.StdinPort,
		"iopub_port":   p.IOPubPort,
		"hb_port":      p.HBPort,
	}
	seen := make(map[int]string, len(ports))
	for name, port := range ports {
		if port <= 0 {
			return errors.Errorf("%s must be a positive port number, got %d", name, port)
		}
		if other, ok := seen[port]; ok {
			return errors.Errorf("%s and %s must not share port %d", name, other, port)
		}
		seen[port] = name
	}
	return nil
}

// Read loads and validates a connection file from path.
func Read(path string) (KernelProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return KernelProfile{}, errors.WithMessagef(err, "reading connection file %s", path)
	}
	var p KernelProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return KernelProfile{}, errors.WithMessagef(err, "parsing connection file %s", path)
	}
	if err := p.Validate(); err != nil {
		return KernelProfile{}, errors.WithMessagef(err, "invalid connection file %s", path)
	}
	return p, nil
}

// Write serializes p to path as the JSON document Jupyter front-ends expect
// to find there.
func Write(path string, p KernelProfile) error {
	if err := p.Validate(); err != nil {
		return errors.WithMessage(err, "refusing to write invalid connection profile")
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return errors.WithMessage(err, "marshaling connection profile")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.WithMessagef(err, "writing connection file %s", path)
	}
	return nil
}
