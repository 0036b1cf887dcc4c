package certs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quayside/deckhand/pkg/config"
	"github.com/quayside/deckhand/pkg/invoke"
	"github.com/quayside/deckhand/pkg/log"
)

func TestMain(m *testing.M) {
	log.Init(log.Config{Level: log.ErrorLevel, Output: io.Discard})
	os.Exit(m.Run())
}

// fakeRunner records every command and answers from a script keyed by
// the openssl subcommand (the first argument).
type fakeRunner struct {
	calls  []invoke.Cmd
	script map[string]invoke.Result
}

func (f *fakeRunner) Run(ctx context.Context, cmd invoke.Cmd) invoke.Result {
	f.calls = append(f.calls, cmd)
	if len(cmd.Args) > 0 {
		if res, ok := f.script[cmd.Args[0]]; ok {
			return res
		}
	}
	return invoke.Result{ExitCode: 0, Stdout: "OK"}
}

func (f *fakeRunner) Quiet(ctx context.Context, path string, args ...string) bool {
	return f.Run(ctx, invoke.Cmd{Path: path, Args: args, Capture: true}).OK()
}

func (f *fakeRunner) subcommands() []string {
	var subs []string
	for _, c := range f.calls {
		if len(c.Args) > 0 {
			subs = append(subs, c.Args[0])
		}
	}
	return subs
}

func newTestGenerator(t *testing.T, runner invoke.Runner) *Generator {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Domain = "example.com"
	cfg.CertsDir = t.TempDir()
	// Pin the validities asserted in command lines, in case the
	// ambient environment overrides them.
	cfg.CertDays = 825
	cfg.CADays = 3650
	return NewGenerator(runner, cfg)
}

func TestCheckPrerequisites(t *testing.T) {
	runner := &fakeRunner{script: map[string]invoke.Result{
		"version": {ExitCode: 0, Stdout: "OpenSSL 3.0.2 15 Mar 2022\n"},
	}}
	g := newTestGenerator(t, runner)

	require.NoError(t, g.CheckPrerequisites(context.Background()))
	require.Len(t, runner.calls, 1)
	assert.Equal(t, "openssl", runner.calls[0].Path)
	assert.Equal(t, []string{"version"}, runner.calls[0].Args)
	assert.True(t, runner.calls[0].Capture)
}

func TestCheckPrerequisites_Missing(t *testing.T) {
	runner := &fakeRunner{script: map[string]invoke.Result{
		"version": {ExitCode: -1, Stderr: "exec: \"openssl\": executable file not found in $PATH"},
	}}
	g := newTestGenerator(t, runner)

	err := g.CheckPrerequisites(context.Background())
	assert.Error(t, err)
}

func TestGenerateCA_CommandLines(t *testing.T) {
	runner := &fakeRunner{}
	g := newTestGenerator(t, runner)

	require.NoError(t, g.GenerateCA(context.Background()))
	require.Len(t, runner.calls, 2)

	genrsa := runner.calls[0]
	assert.Equal(t, []string{"genrsa", "-out", filepath.Join(g.Dir, "ca.key"), "4096"}, genrsa.Args)

	req := runner.calls[1]
	assert.Equal(t, "req", req.Args[0])
	assert.Contains(t, req.Args, "-x509")
	assert.Contains(t, req.Args, "3650")
	subject := req.Args[len(req.Args)-1]
	assert.Equal(t, "/C=US/ST=State/L=City/O=Quayside CA/OU=Platform/CN=Quayside Root CA", subject)
}

func TestGenerateServer_CommandLines(t *testing.T) {
	runner := &fakeRunner{}
	g := newTestGenerator(t, runner)

	require.NoError(t, g.GenerateServer(context.Background()))
	require.Len(t, runner.calls, 3)

	genrsa := runner.calls[0]
	assert.Equal(t, []string{"genrsa", "-out", filepath.Join(g.Dir, "server.key"), "2048"}, genrsa.Args)

	csr := runner.calls[1]
	assert.Equal(t, "req", csr.Args[0])
	assert.NotContains(t, csr.Args, "-x509")
	subject := csr.Args[len(csr.Args)-1]
	assert.Equal(t, "/C=US/ST=State/L=City/O=Quayside/OU=Platform/CN=example.com", subject)

	sign := runner.calls[2]
	assert.Equal(t, "x509", sign.Args[0])
	assert.Contains(t, sign.Args, "-CAcreateserial")
	assert.Contains(t, sign.Args, "-sha256")
	assert.Contains(t, sign.Args, "825")
	assert.Contains(t, sign.Args, "-extfile")
}

func TestGenerateServer_WritesExtensionsFile(t *testing.T) {
	runner := &fakeRunner{}
	g := newTestGenerator(t, runner)

	require.NoError(t, g.GenerateServer(context.Background()))

	data, err := os.ReadFile(filepath.Join(g.Dir, "server.ext"))
	require.NoError(t, err)
	ext := string(data)

	assert.Contains(t, ext, "basicConstraints=CA:FALSE")
	assert.Contains(t, ext, "DNS.1 = example.com")
	assert.Contains(t, ext, "DNS.2 = *.example.com")
	assert.Contains(t, ext, "DNS.3 = localhost")
	assert.Contains(t, ext, "IP.1 = 127.0.0.1")
	assert.NotContains(t, ext, "DNS.4")
	assert.NotContains(t, ext, "IP.2")
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		result  invoke.Result
		wantErr bool
	}{
		{"exit zero with OK", invoke.Result{ExitCode: 0, Stdout: "server.crt: OK\n"}, false},
		{"exit zero without OK", invoke.Result{ExitCode: 0, Stdout: "server.crt: verification pending\n"}, true},
		{"nonzero exit", invoke.Result{ExitCode: 2, Stderr: "unable to load certificate"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{script: map[string]invoke.Result{"verify": tt.result}}
			g := newTestGenerator(t, runner)

			err := g.Verify(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSetPermissions(t *testing.T) {
	g := newTestGenerator(t, &fakeRunner{})

	for _, name := range []string{"ca.key", "server.key", "ca.crt", "server.crt", "server.ext"} {
		require.NoError(t, os.WriteFile(filepath.Join(g.Dir, name), []byte("x"), 0666))
	}

	require.NoError(t, g.SetPermissions())

	for _, name := range []string{"ca.key", "server.key"} {
		info, err := os.Stat(filepath.Join(g.Dir, name))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), name)
	}
	for _, name := range []string{"ca.crt", "server.crt", "server.ext"} {
		info, err := os.Stat(filepath.Join(g.Dir, name))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0644), info.Mode().Perm(), name)
	}
}

func TestWriteReadme(t *testing.T) {
	g := newTestGenerator(t, &fakeRunner{})

	require.NoError(t, g.WriteReadme())

	data, err := os.ReadFile(filepath.Join(g.Dir, "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "deckhand certs")
	assert.Contains(t, string(data), "self-signed")
}

func TestExists(t *testing.T) {
	g := newTestGenerator(t, &fakeRunner{})
	assert.False(t, g.Exists())

	require.NoError(t, os.WriteFile(filepath.Join(g.Dir, "server.crt"), []byte("cert"), 0644))
	assert.True(t, g.Exists())
}

func TestGenerate_FullFlow(t *testing.T) {
	runner := &fakeRunner{script: map[string]invoke.Result{
		"version": {ExitCode: 0, Stdout: "OpenSSL 3.0.2\n"},
		"verify":  {ExitCode: 0, Stdout: "server.crt: OK\n"},
	}}
	g := newTestGenerator(t, runner)

	require.NoError(t, g.Generate(context.Background()))

	assert.Equal(t,
		[]string{"version", "genrsa", "req", "genrsa", "req", "x509", "verify"},
		runner.subcommands())

	_, err := os.Stat(filepath.Join(g.Dir, "server.ext"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(g.Dir, "README.md"))
	assert.NoError(t, err)
}

func TestGenerate_StopsOnFirstFailure(t *testing.T) {
	runner := &fakeRunner{script: map[string]invoke.Result{
		"genrsa": {ExitCode: 1, Stderr: "genrsa: unable to write ca.key"},
	}}
	g := newTestGenerator(t, runner)

	err := g.Generate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to write ca.key")

	// Stops after the failing CA key step: version check plus one genrsa.
	assert.Equal(t, []string{"version", "genrsa"}, runner.subcommands())
}

func TestExtensionsFile_WildcardFollowsDomain(t *testing.T) {
	g := newTestGenerator(t, &fakeRunner{})
	g.Domain = "shop.internal"

	ext := g.ExtensionsFile()
	assert.True(t, strings.Contains(ext, "DNS.1 = shop.internal"))
	assert.True(t, strings.Contains(ext, "DNS.2 = *.shop.internal"))
}
