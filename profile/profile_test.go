package profile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProfile() KernelProfile {
	return KernelProfile{
		SignatureScheme: SignatureScheme,
		Transport:       string(TransportTCP),
		IP:              "127.0.0.1",
		Key:             "abc123",
		ShellPort:       52000,
		ControlPort:     52001,
		StdinPort:       52002,
		IOPubPort:       52003,
		HBPort:          52004,
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kernel.json")
	p := sampleProfile()

	require.NoError(t, Write(path, p))
	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestValidateRejectsUnknownTransport(t *testing.T) {
	p := sampleProfile()
	p.Transport = "udp"
	assert.Error(t, p.Validate())
}

func TestValidateRejectsUnknownSignatureScheme(t *testing.T) {
	p := sampleProfile()
	p.SignatureScheme = "hmac-sha1"
	assert.Error(t, p.Validate())
}

func TestValidateRejectsDuplicatePorts(t *testing.T) {
	p := sampleProfile()
	p.ControlPort = p.ShellPort
	assert.Error(t, p.Validate())
}

func TestValidateRejectsZeroPort(t *testing.T) {
	p := sampleProfile()
	p.HBPort = 0
	assert.Error(t, p.Validate())
}

func TestKeyBytesEmptyForUnsignedConnection(t *testing.T) {
	p := sampleProfile()
	p.Key = ""
	assert.Nil(t, p.KeyBytes())
}
