// Package wire implements the Jupyter wire envelope: the multi-frame layout
// delimited by "<IDS|MSG>", HMAC-SHA-256 signing, and encoding/decoding of
// the header/parent_header/metadata/content frames to and from raw bytes.
//
// This package never touches a socket: it only turns a Frame into bytes and
// back. Socket binding lives in the transport package.
package wire

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/wireproto/jupykernel/id"
)

// Delimiter separates the (possibly empty) ROUTER envelope identities from
// the signed message frames.
const Delimiter = "<IDS|MSG>"

// InvalidSignatureError is returned when a received message's signature does
// not match the recomputed HMAC over its header/parent_header/metadata/
// content frames.
type InvalidSignatureError struct{}

func (*InvalidSignatureError) Error() string {
	return "message had an invalid signature"
}

// ProtocolError wraps a failure to decode one of the four signed frames as
// JSON.
type ProtocolError struct {
	Frame string
	Err   error
}

func (e *ProtocolError) Error() string {
	return "malformed " + e.Frame + " frame: " + e.Err.Error()
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// Frame is the decoded, unsigned content of one Jupyter message: the four
// JSON frames plus whatever ROUTER identities prefixed it on the wire.
type Frame struct {
	Identities   [][]byte
	Header       id.Header
	ParentHeader id.Header
	Metadata     map[string]any
	MsgType      string
	Content      json.RawMessage
}

// Signer signs and verifies the four content frames of a Frame using the
// connection file's key and hmac-sha256, the only signature_scheme this
// implementation accepts.
type Signer struct {
	key []byte
}

// NewSigner builds a Signer from the raw key bytes found in a connection
// file. An empty key disables signing, matching unsigned local connections.
func NewSigner(key []byte) *Signer {
	return &Signer{key: key}
}

func (s *Signer) sign(parts [][]byte) []byte {
	if len(s.key) == 0 {
		return nil
	}
	mac := hmac.New(sha256.New, s.key)
	for _, p := range parts {
		mac.Write(p)
	}
	sig := make([]byte, hex.EncodedLen(mac.Size()))
	hex.Encode(sig, mac.Sum(nil))
	return sig
}

func (s *Signer) verify(parts [][]byte, signature []byte) error {
	if len(s.key) == 0 {
		return nil
	}
	mac := hmac.New(sha256.New, s.key)
	for _, p := range parts {
		mac.Write(p)
	}
	want := make([]byte, hex.DecodedLen(len(signature)))
	n, err := hex.Decode(want, signature)
	if err != nil {
		return errors.WithMessage(&InvalidSignatureError{}, "decoding hex signature")
	}
	if !hmac.Equal(mac.Sum(nil), want[:n]) {
		return &InvalidSignatureError{}
	}
	return nil
}

// Encode marshals f's four frames, signs them, and returns the complete
// multi-frame wire message: identities, delimiter, signature, then the four
// JSON frames, ready to send on a ZMQ socket as-is.
func (s *Signer) Encode(f Frame) ([][]byte, error) {
	header, err := json.Marshal(f.Header)
	if err != nil {
		return nil, errors.WithMessage(err, "marshaling header")
	}
	parentHeader, err := json.Marshal(f.ParentHeader)
	if err != nil {
		return nil, errors.WithMessage(err, "marshaling parent_header")
	}
	metadata := f.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataBytes, err := json.Marshal(metadata)
	if err != nil {
		return nil, errors.WithMessage(err, "marshaling metadata")
	}
	content := f.Content
	if content == nil {
		content = json.RawMessage("{}")
	}

	signed := [][]byte{header, parentHeader, metadataBytes, content}
	signature := s.sign(signed)
	if signature == nil {
		signature = []byte{}
	}

	out := make([][]byte, 0, len(f.Identities)+2+len(signed))
	out = append(out, f.Identities...)
	out = append(out, []byte(Delimiter))
	out = append(out, signature)
	out = append(out, signed...)
	return out, nil
}

// Decode parses a complete multi-frame wire message, verifying its
// signature, and returns the reconstructed Frame.
func (s *Signer) Decode(parts [][]byte) (Frame, error) {
	i := 0
	for i < len(parts) && string(parts[i]) != Delimiter {
		i++
	}
	if i >= len(parts) {
		return Frame{}, errors.New("missing <IDS|MSG> delimiter")
	}
	if i+6 > len(parts) {
		return Frame{}, errors.New("truncated message: fewer than 5 frames after delimiter")
	}

	identities := parts[:i]
	signature := parts[i+1]
	signed := parts[i+2 : i+6]

	if err := s.verify(signed, signature); err != nil {
		return Frame{}, err
	}

	var f Frame
	f.Identities = identities

	if err := json.Unmarshal(signed[0], &f.Header); err != nil {
		return Frame{}, &ProtocolError{Frame: "header", Err: err}
	}
	if err := json.Unmarshal(signed[1], &f.ParentHeader); err != nil {
		return Frame{}, &ProtocolError{Frame: "parent_header", Err: err}
	}
	if err := json.Unmarshal(signed[2], &f.Metadata); err != nil {
		return Frame{}, &ProtocolError{Frame: "metadata", Err: err}
	}
	f.Content = json.RawMessage(signed[3])
	f.MsgType = f.Header.MsgType
	return f, nil
}
