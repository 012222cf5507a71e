package kernelspec

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppendsConnectionFilePlaceholder(t *testing.T) {
	s := New("Go (echokernel)", "go", "/usr/local/bin/echokernel", "--verbose")
	assert.Equal(t, []string{"/usr/local/bin/echokernel", "--verbose", ConnectionFilePlaceholder}, s.Argv)
}

func TestInstallWritesKernelJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "echokernel")
	s := New("Go (echokernel)", "go", "/usr/local/bin/echokernel")

	require.NoError(t, Install(dir, s))

	data, err := os.ReadFile(filepath.Join(dir, "kernel.json"))
	require.NoError(t, err)
	var got Spec
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, s, got)
}
