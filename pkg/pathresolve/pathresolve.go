// Package pathresolve expands operator-supplied paths, including translation
// of Windows-style drive paths to their WSL mount location.
package pathresolve

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultMountRoot is where WSL mounts host drives unless configured
// otherwise.
const DefaultMountRoot = "/mnt"

var windowsDriveRe = regexp.MustCompile(`^([A-Za-z]):[\\/]`)

// Resolver expands user-supplied paths against a home directory and, when
// running inside WSL, a host drive mount root.
type Resolver struct {
	home      string
	mountRoot string
	wsl       bool
}

// New builds a Resolver with explicit settings.
func New(home, mountRoot string, wsl bool) *Resolver {
	if mountRoot == "" {
		mountRoot = DefaultMountRoot
	}
	return &Resolver{home: home, mountRoot: mountRoot, wsl: wsl}
}

// Detect builds a Resolver for the current process environment
func Detect(mountRoot string) *Resolver {
	home, _ := os.UserHomeDir()
	return New(home, mountRoot, IsWSL())
}

// kernelVersionPath is swapped out in tests.
var kernelVersionPath = "/proc/version"

// IsWSL reports whether the process runs inside a WSL guest, either via the
// interop environment markers or the Microsoft vendor signature in the
// kernel version string.
func IsWSL() bool {
	if os.Getenv("WSL_DISTRO_NAME") != "" || os.Getenv("WSL_INTEROP") != "" {
		return true
	}
	version, err := os.ReadFile(kernelVersionPath)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(version)), "microsoft")
}

// WSL reports whether the resolver treats the environment as a WSL guest.
func (r *Resolver) WSL() bool {
	return r.wsl
}

// Expand resolves a user-supplied path. `~` expands against the home
// directory, and under WSL a DRIVE:\path is rewritten to the mount
// convention: lowercased drive letter, forward slashes, mount root prefix.
// Everything else passes through untouched; no `..` or symlink
// normalization happens here.
func (r *Resolver) Expand(path string) string {
	if path == "~" {
		return r.home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(r.home, path[2:])
	}

	if r.wsl {
		if m := windowsDriveRe.FindStringSubmatch(path); m != nil {
			drive := strings.ToLower(m[1])
			rest := strings.ReplaceAll(path[len(m[0]):], `\`, "/")
			return r.mountRoot + "/" + drive + "/" + rest
		}
	}

	return path
}
