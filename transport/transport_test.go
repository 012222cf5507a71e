package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wireproto/jupykernel/profile"
)

func TestResolveDynamicPortsFillsZeroPorts(t *testing.T) {
	p := profile.KernelProfile{Transport: "tcp", IP: "127.0.0.1"}

	resolved, err := resolveDynamicPorts(p)
	require.NoError(t, err)

	ports := []int{resolved.ShellPort, resolved.ControlPort, resolved.StdinPort, resolved.IOPubPort, resolved.HBPort}
	seen := make(map[int]bool, len(ports))
	for _, port := range ports {
		assert.Greater(t, port, 0)
		assert.False(t, seen[port], "dynamic ports must be distinct, got %d twice", port)
		seen[port] = true
	}
}

func TestResolveDynamicPortsLeavesExplicitPortsAlone(t *testing.T) {
	p := profile.KernelProfile{
		Transport:   "tcp",
		IP:          "127.0.0.1",
		ShellPort:   60001,
		ControlPort: 60002,
		StdinPort:   60003,
		IOPubPort:   60004,
		HBPort:      60005,
	}

	resolved, err := resolveDynamicPorts(p)
	require.NoError(t, err)
	assert.Equal(t, p, resolved)
}
