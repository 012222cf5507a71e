package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wireproto/jupykernel/id"
)

func sampleFrame() Frame {
	session := id.New()
	return Frame{
		Identities: [][]byte{[]byte("route-a")},
		Header:     id.NewRequestHeader(session, "tester", "kernel_info_request"),
		Metadata:   map[string]any{},
		MsgType:    "kernel_info_request",
		Content:    json.RawMessage(`{}`),
	}
}

// TestSignAndVerifyRoundTrip checks that Decode accepts a message signed by
// Encode with the same key and recovers its header, msg_type and content.
func TestSignAndVerifyRoundTrip(t *testing.T) {
	signer := NewSigner([]byte("super-secret-key"))
	frame := sampleFrame()

	parts, err := signer.Encode(frame)
	require.NoError(t, err)

	got, err := signer.Decode(parts)
	require.NoError(t, err)
	assert.Equal(t, frame.Header, got.Header)
	assert.Equal(t, frame.MsgType, got.MsgType)
	assert.JSONEq(t, string(frame.Content), string(got.Content))
}

// TestSignIsIdempotent grounds Testable Property 2: encoding the same Frame
// twice produces byte-identical signatures.
func TestSignIsIdempotent(t *testing.T) {
	signer := NewSigner([]byte("super-secret-key"))
	frame := sampleFrame()

	parts1, err := signer.Encode(frame)
	require.NoError(t, err)
	parts2, err := signer.Encode(frame)
	require.NoError(t, err)

	delimIdx := indexOf(parts1, Delimiter)
	require.GreaterOrEqual(t, delimIdx, 0)
	assert.Equal(t, parts1[delimIdx+1], parts2[delimIdx+1])
}

// TestVerifyRejectsTamperedSignature grounds scenario S6: a message whose
// signature was computed with a different key is rejected.
func TestVerifyRejectsTamperedSignature(t *testing.T) {
	signer := NewSigner([]byte("correct-key"))
	attacker := NewSigner([]byte("wrong-key"))
	frame := sampleFrame()

	parts, err := attacker.Encode(frame)
	require.NoError(t, err)

	_, err = signer.Decode(parts)
	require.Error(t, err)
	var sigErr *InvalidSignatureError
	assert.ErrorAs(t, err, &sigErr)
}

// TestVerifyRejectsCorruptedContent grounds scenario S6 for payload
// tampering after signing.
func TestVerifyRejectsCorruptedContent(t *testing.T) {
	signer := NewSigner([]byte("correct-key"))
	frame := sampleFrame()

	parts, err := signer.Encode(frame)
	require.NoError(t, err)
	parts[len(parts)-1] = []byte(`{"tampered":true}`)

	_, err = signer.Decode(parts)
	require.Error(t, err)
	var sigErr *InvalidSignatureError
	assert.ErrorAs(t, err, &sigErr)
}

func TestUnsignedConnectionSkipsVerification(t *testing.T) {
	signer := NewSigner(nil)
	frame := sampleFrame()

	parts, err := signer.Encode(frame)
	require.NoError(t, err)
	got, err := signer.Decode(parts)
	require.NoError(t, err)
	assert.Equal(t, frame.Header, got.Header)
}

func TestDecodeRejectsMissingDelimiter(t *testing.T) {
	signer := NewSigner([]byte("k"))
	_, err := signer.Decode([][]byte{[]byte("a"), []byte("b")})
	require.Error(t, err)
}

func TestDecodeRejectsTruncatedFrames(t *testing.T) {
	signer := NewSigner([]byte("k"))
	_, err := signer.Decode([][]byte{[]byte(Delimiter), []byte("sig"), []byte("{}")})
	require.Error(t, err)
}

func indexOf(parts [][]byte, s string) int {
	for i, p := range parts {
		if string(p) == s {
			return i
		}
	}
	return -1
}
