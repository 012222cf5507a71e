// Package kernelspec writes the kernel.json file Jupyter reads to discover
// and launch a kernel: the command line to run, ending in the
// "{connection_file}" placeholder that Jupyter replaces with the connection
// file's path at launch time.
package kernelspec

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
)

// Spec is the decoded contents of a kernel.json file.
type Spec struct {
	Argv        []string          `json:"argv"`
	DisplayName string            `json:"display_name"`
	Language    string            `json:"language"`
	Env         map[string]string `json:"env,omitempty"`
}

// ConnectionFilePlaceholder is the token Jupyter substitutes with the path
// to the connection file it generates for a launched kernel.
const ConnectionFilePlaceholder = "{connection_file}"

// New builds a Spec that launches binaryPath with extraArgs, followed by
// the connection-file placeholder Jupyter substitutes at launch.
func New(displayName, language, binaryPath string, extraArgs ...string) Spec {
	argv := append([]string{binaryPath}, extraArgs...)
	argv = append(argv, ConnectionFilePlaceholder)
	return Spec{
		Argv:        argv,
		DisplayName: displayName,
		Language:    language,
		Env:         map[string]string{},
	}
}

// UserKernelDir returns the per-user directory Jupyter scans for kernel
// specs named name, following the platform conventions Jupyter documents.
func UserKernelDir(name string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.WithMessage(err, "resolving home directory")
	}
	switch runtime.GOOS {
	case "linux":
		return filepath.Join(home, ".local", "share", "jupyter", "kernels", name), nil
	case "darwin":
		return filepath.Join(home, "Library", "Jupyter", "kernels", name), nil
	default:
		return "", errors.Errorf("unsupported OS %q for locating the Jupyter kernels directory", runtime.GOOS)
	}
}

// Install writes s as kernel.json under dir, creating dir if needed.
func Install(dir string, s Spec) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WithMessagef(err, "creating kernel spec directory %s", dir)
	}
	path := filepath.Join(dir, "kernel.json")
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.WithMessage(err, "marshaling kernel.json")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WithMessagef(err, "writing %s", path)
	}
	return nil
}
