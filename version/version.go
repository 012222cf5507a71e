// Package version reports build and module version information for the
// protocol engine, so an engine binary can expose it in a kernel_info_reply
// banner or a --version flag without hand-rolling build-info parsing.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
)

// Info holds version and source-control metadata for the running binary.
type Info struct {
	Version    string
	Commit     string
	CommitLink string
}

const baseRepoURL = "https://github.com/wireproto/jupykernel"

// GitTag is replaced on `git archive` via the `export-subst` attribute.
var GitTag = "$Format:%(describe)$"

// GitHash is replaced on `git archive` via the `export-subst` attribute.
var GitHash = "$Format:%H$"

// AppVersion contains version and commit information for this build.
//
// It prefers information substituted by `git archive`; failing that, it
// falls back to `hardcoded` augmented with `debug.ReadBuildInfo` data.
var AppVersion = Resolve("0.1.0", GitTag, GitHash)

// Resolve determines version and commit information from multiple sources:
// a hardcoded fallback version, `git archive` substitution, and build info
// embedded by the Go toolchain.
func Resolve(hardcoded, gitVersion, gitHash string) *Info {
	if !strings.HasPrefix(gitVersion, "$") && !strings.HasPrefix(gitHash, "$") {
		info := &Info{Version: gitVersion, Commit: gitHash}
		if len(gitHash) > 0 {
			info.CommitLink = fmt.Sprintf("%s/tree/%s", baseRepoURL, gitHash)
		}
		return info
	}

	version := hardcoded
	var commit string
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		modified := false
		for _, setting := range buildInfo.Settings {
			switch setting.Key {
			case "vcs.revision":
				commit = setting.Value
			case "vcs.modified":
				modified, _ = strconv.ParseBool(setting.Value)
			}
		}
		if modified && commit != "" {
			version += "-dirty"
			commit += " (modified)"
		}
	}

	info := &Info{Version: version, Commit: commit}
	if len(commit) > 0 {
		info.CommitLink = fmt.Sprintf("%s/tree/%s", baseRepoURL, commit)
	}
	return info
}

// String returns the version string alone.
func (v *Info) String() string {
	return v.Version
}

// Print writes a short human-readable version report to stdout.
func (v *Info) Print() {
	fmt.Printf("jupykernel version: %s\n", v.Version)
	if v.CommitLink != "" {
		fmt.Printf("  commit: %s\n", v.CommitLink)
	}
	fmt.Printf("  go: %s (%s/%s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
