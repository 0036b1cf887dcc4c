// Package framework provides helpers for integration tests that drive
// the pipeline against stubbed external tools. Stubs are real
// executables on PATH, so the full subprocess path is exercised
// without docker or openssl installed.
package framework

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ToolDir is a directory of stub executables plus a shared call log.
type ToolDir struct {
	// Dir is prepended to PATH so stubs shadow real tools.
	Dir string
	// LogPath collects one line per stub invocation: the tool name
	// followed by its arguments.
	LogPath string
}

// NewToolDir creates a stub directory under base.
func NewToolDir(base string) (*ToolDir, error) {
	dir := filepath.Join(base, "bin")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create stub dir: %w", err)
	}
	return &ToolDir{
		Dir:     dir,
		LogPath: filepath.Join(base, "calls.log"),
	}, nil
}

// Install writes a stub executable. Every invocation appends its
// command line to the call log before running body, a shell fragment
// that can inspect "$1", "$@", etc. An empty body makes the stub
// succeed silently.
func (td *ToolDir) Install(name, body string) error {
	script := fmt.Sprintf("#!/bin/sh\necho \"%s $*\" >> %q\n%s\nexit 0\n", name, td.LogPath, body)
	path := filepath.Join(td.Dir, name)
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		return fmt.Errorf("failed to install stub %s: %w", name, err)
	}
	return nil
}

// PATH returns a PATH value with the stub directory in front.
func (td *ToolDir) PATH() string {
	return td.Dir + string(os.PathListSeparator) + os.Getenv("PATH")
}

// Calls returns every stub invocation so far, one command line per
// entry.
func (td *ToolDir) Calls() ([]string, error) {
	data, err := os.ReadFile(td.LogPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read call log: %w", err)
	}
	var calls []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			calls = append(calls, line)
		}
	}
	return calls, nil
}

// IndexOf returns the position of the first call starting with prefix,
// or -1.
func IndexOf(calls []string, prefix string) int {
	for i, call := range calls {
		if strings.HasPrefix(call, prefix) {
			return i
		}
	}
	return -1
}

// DockerStub is a stub body for a docker CLI whose containers are
// always healthy and whose network does not exist yet.
const DockerStub = `case "$1" in
  inspect)
    echo "healthy"
    ;;
  network)
    if [ "$2" = "inspect" ]; then exit 1; fi
    ;;
esac`

// OpenSSLStub is a stub body for an openssl CLI: it creates whatever
// file -out names, reports a version, and verifies chains as OK.
const OpenSSLStub = `out=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "-out" ]; then out="$arg"; fi
  prev="$arg"
done
if [ -n "$out" ]; then echo "stub" > "$out"; fi
if [ "$1" = "version" ]; then echo "OpenSSL 3.0.0-stub"; fi
if [ "$1" = "verify" ]; then echo "server.crt: OK"; fi`
