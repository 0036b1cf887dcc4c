package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quayside/deckhand/pkg/config"
	"github.com/quayside/deckhand/pkg/invoke"
	"github.com/quayside/deckhand/pkg/log"
	"github.com/quayside/deckhand/pkg/stack"
)

func TestMain(m *testing.M) {
	log.Init(log.Config{Level: log.ErrorLevel, Output: io.Discard})
	os.Exit(m.Run())
}

// fakeRunner answers from a script keyed by a command-line prefix
// ("docker run", "openssl verify", ...). Longest prefix wins;
// unmatched commands succeed.
type fakeRunner struct {
	calls  []string
	script map[string]invoke.Result
}

func (f *fakeRunner) Run(ctx context.Context, cmd invoke.Cmd) invoke.Result {
	line := cmd.Path + " " + strings.Join(cmd.Args, " ")
	f.calls = append(f.calls, line)
	best := invoke.Result{ExitCode: 0}
	bestLen := -1
	for prefix, res := range f.script {
		if strings.HasPrefix(line, prefix) && len(prefix) > bestLen {
			best = res
			bestLen = len(prefix)
		}
	}
	return best
}

func (f *fakeRunner) Quiet(ctx context.Context, path string, args ...string) bool {
	return f.Run(ctx, invoke.Cmd{Path: path, Args: args, Capture: true}).OK()
}

func (f *fakeRunner) indexOf(prefix string) int {
	for i, line := range f.calls {
		if strings.HasPrefix(line, prefix) {
			return i
		}
	}
	return -1
}

func (f *fakeRunner) called(prefix string) bool {
	return f.indexOf(prefix) >= 0
}

type fakeTester struct {
	runs *int
	err  error
}

func (f fakeTester) Run(ctx context.Context) error {
	*f.runs++
	return f.err
}

// healthyScript covers the docker and openssl calls a successful
// deploy makes.
func healthyScript() map[string]invoke.Result {
	return map[string]invoke.Result{
		"openssl version":        {ExitCode: 0, Stdout: "OpenSSL 3.0.2\n"},
		"openssl verify":         {ExitCode: 0, Stdout: "server.crt: OK\n"},
		"docker network inspect": {ExitCode: 1, Stderr: "no such network"},
		"docker ps -a --filter name=": {ExitCode: 0, Stdout: ""},
		"docker inspect":              {ExitCode: 0, Stdout: "healthy\n"},
	}
}

// newTestPipeline builds a pipeline over the default stack with a
// scripted runner, a project directory holding both Dockerfiles, and a
// stubbed verifier.
func newTestPipeline(t *testing.T, runner *fakeRunner, testerRuns *int, testerErr error) (*Pipeline, *bytes.Buffer) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM scratch\n"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nginx"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nginx", "Dockerfile"), []byte("FROM nginx:alpine\n"), 0644))
	t.Chdir(dir)

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.CertsDir = filepath.Join(dir, "certs")
	// Pin the values the call-line assertions depend on, in case the
	// ambient environment overrides them.
	cfg.HTTPPort = 8080
	cfg.HTTPSPort = 8443
	cfg.Network = "webapp-network"
	cfg.WebappImage = "webapp:latest"
	cfg.NginxImage = "webapp-nginx:latest"
	cfg.WebappContainer = "webapp"
	cfg.NginxContainer = "nginx"
	cfg.ServiceLabel = "dev.quayside.service"

	p := New(cfg, stack.Default(cfg), runner)
	p.waiter.Interval = time.Millisecond
	p.newVerifier = func(config.Config) (tester, error) {
		return fakeTester{runs: testerRuns, err: testerErr}, nil
	}

	out := &bytes.Buffer{}
	p.out = out
	return p, out
}

func TestDeploy_FullSequence(t *testing.T) {
	runner := &fakeRunner{script: healthyScript()}
	testerRuns := 0
	p, out := newTestPipeline(t, runner, &testerRuns, nil)

	require.NoError(t, p.Deploy(context.Background()))

	// Certificates come first, then images, then containers.
	certsAt := runner.indexOf("openssl genrsa")
	buildAt := runner.indexOf("docker build")
	runWebapp := runner.indexOf("docker run -d --name webapp")
	runNginx := runner.indexOf("docker run -d --name nginx")
	healthAt := runner.indexOf("docker inspect")

	require.GreaterOrEqual(t, certsAt, 0)
	require.GreaterOrEqual(t, buildAt, 0)
	require.GreaterOrEqual(t, runWebapp, 0)
	require.GreaterOrEqual(t, runNginx, 0)
	require.GreaterOrEqual(t, healthAt, 0)

	assert.Less(t, certsAt, buildAt)
	assert.Less(t, buildAt, runWebapp)
	assert.Less(t, runWebapp, runNginx, "application starts before the proxy")
	assert.Less(t, runNginx, healthAt)

	assert.Equal(t, 1, testerRuns, "verification should run once")
	assert.Contains(t, out.String(), "Services are running!")
	assert.Contains(t, out.String(), "https://localhost:8443/")
	assert.Contains(t, out.String(), "deckhand stop")
}

func TestDeploy_SkipsCertsWhenPresent(t *testing.T) {
	runner := &fakeRunner{script: healthyScript()}
	testerRuns := 0
	p, _ := newTestPipeline(t, runner, &testerRuns, nil)

	require.NoError(t, os.MkdirAll(p.cfg.CertsDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(p.cfg.CertsDir, "server.crt"), []byte("cert"), 0644))

	require.NoError(t, p.Deploy(context.Background()))
	assert.False(t, runner.called("openssl genrsa"), "existing certificates should not be regenerated")
}

func TestDeploy_StopsWhenBuildFails(t *testing.T) {
	script := healthyScript()
	script["docker build"] = invoke.Result{ExitCode: 1, Stderr: "no space left on device"}
	runner := &fakeRunner{script: script}
	testerRuns := 0
	p, _ := newTestPipeline(t, runner, &testerRuns, nil)

	err := p.Deploy(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build failed")
	assert.False(t, runner.called("docker run"), "containers must not start after a failed build")
	assert.Zero(t, testerRuns, "verification must not run after a failed build")
}

func TestDeploy_PropagatesTestFailure(t *testing.T) {
	runner := &fakeRunner{script: healthyScript()}
	testerRuns := 0
	p, _ := newTestPipeline(t, runner, &testerRuns, errors.New("HTTPS endpoint test failed"))

	err := p.Deploy(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tests failed")
	assert.Equal(t, 1, testerRuns)
}

func TestStart_RemovesStaleContainers(t *testing.T) {
	script := healthyScript()
	script["docker ps -a --filter name=webapp"] = invoke.Result{ExitCode: 0, Stdout: "webapp\n"}
	runner := &fakeRunner{script: script}
	testerRuns := 0
	p, _ := newTestPipeline(t, runner, &testerRuns, nil)

	require.NoError(t, p.Start(context.Background()))

	assert.True(t, runner.called("docker stop webapp"))
	assert.False(t, runner.called("docker stop nginx"), "absent containers should not be stopped")
	assert.Less(t, runner.indexOf("docker stop webapp"), runner.indexOf("docker run -d --name webapp"),
		"stale container is removed before its replacement starts")
}

func TestStart_CreatesMissingNetwork(t *testing.T) {
	runner := &fakeRunner{script: healthyScript()}
	testerRuns := 0
	p, _ := newTestPipeline(t, runner, &testerRuns, nil)

	require.NoError(t, p.Start(context.Background()))
	assert.True(t, runner.called("docker network create webapp-network"))
}

func TestStart_FailsWhenUnhealthy(t *testing.T) {
	script := healthyScript()
	script["docker inspect"] = invoke.Result{ExitCode: 0, Stdout: "starting\n"}
	runner := &fakeRunner{script: script}
	testerRuns := 0
	p, _ := newTestPipeline(t, runner, &testerRuns, nil)
	p.waiter.Attempts = 2

	err := p.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not become healthy")
	assert.True(t, runner.called("docker logs webapp"), "logs are dumped for the failing container")
}

// A service without a health command starts with no healthcheck
// attached, so docker inspect errors for it and the wait must skip it
// instead of polling a status that can never appear.
func TestStart_SkipsWaitForServicesWithoutHealthCmd(t *testing.T) {
	script := healthyScript()
	script["docker inspect --format {{.State.Health.Status}} worker"] = invoke.Result{
		ExitCode: 1,
		Stderr:   `map has no entry for key "Health"`,
	}
	runner := &fakeRunner{script: script}
	testerRuns := 0
	p, _ := newTestPipeline(t, runner, &testerRuns, nil)
	p.stack = stack.Stack{Services: []stack.Service{
		{
			Name:   "webapp",
			Image:  "webapp:latest",
			Build:  stack.Build{Context: "."},
			Health: stack.HealthCheck{Cmd: "curl -f https://localhost:8443/health || exit 1"},
		},
		{
			Name:  "worker",
			Image: "webapp:latest",
			Build: stack.Build{Context: "."},
		},
	}}

	require.NoError(t, p.Start(context.Background()))

	assert.True(t, runner.called("docker run -d --name worker"))
	assert.True(t, runner.called("docker inspect --format {{.State.Health.Status}} webapp"))
	assert.False(t, runner.called("docker inspect --format {{.State.Health.Status}} worker"),
		"no healthcheck means no status to poll")
}

func TestStart_FailsWithoutDocker(t *testing.T) {
	runner := &fakeRunner{script: map[string]invoke.Result{
		"docker --version": {ExitCode: -1, Stderr: "not found"},
	}}
	testerRuns := 0
	p, _ := newTestPipeline(t, runner, &testerRuns, nil)

	err := p.Start(context.Background())
	require.Error(t, err)
	assert.False(t, runner.called("docker network"), "nothing runs when docker is missing")
}

func TestStop_ReverseOrder(t *testing.T) {
	runner := &fakeRunner{}
	testerRuns := 0
	p, _ := newTestPipeline(t, runner, &testerRuns, nil)

	require.NoError(t, p.Stop(context.Background()))

	assert.Equal(t, []string{
		"docker stop nginx",
		"docker rm nginx",
		"docker stop webapp",
		"docker rm webapp",
	}, runner.calls)
}

func TestClean_RemovesEverything(t *testing.T) {
	// Every removal fails; clean must still succeed.
	runner := &fakeRunner{script: map[string]invoke.Result{
		"docker stop":       {ExitCode: 1, Stderr: "no such container"},
		"docker rm ":        {ExitCode: 1, Stderr: "no such container"},
		"docker rmi":        {ExitCode: 1, Stderr: "no such image"},
		"docker network rm": {ExitCode: 1, Stderr: "no such network"},
	}}
	testerRuns := 0
	p, _ := newTestPipeline(t, runner, &testerRuns, nil)

	require.NoError(t, p.Clean(context.Background()))

	assert.True(t, runner.called("docker network rm webapp-network"))
	assert.True(t, runner.called("docker rmi webapp:latest"))
	assert.True(t, runner.called("docker rmi webapp-nginx:latest"))
}

func TestTest_RunsVerifier(t *testing.T) {
	runner := &fakeRunner{}
	testerRuns := 0
	p, _ := newTestPipeline(t, runner, &testerRuns, nil)

	require.NoError(t, p.Test(context.Background()))
	assert.Equal(t, 1, testerRuns)
}

func TestStatus_ListsAllContainers(t *testing.T) {
	runner := &fakeRunner{}
	testerRuns := 0
	p, _ := newTestPipeline(t, runner, &testerRuns, nil)

	require.NoError(t, p.Status(context.Background()))
	assert.True(t, runner.called("docker ps -a --filter label=dev.quayside.service"))
}

func TestStatusYAML(t *testing.T) {
	runner := &fakeRunner{script: map[string]invoke.Result{
		"docker ps -a": {ExitCode: 0, Stdout: `{"Names":"webapp","Image":"webapp:latest","State":"running","Status":"Up 5 minutes (healthy)","Ports":""}
`},
	}}
	testerRuns := 0
	p, out := newTestPipeline(t, runner, &testerRuns, nil)

	require.NoError(t, p.StatusYAML(context.Background()))

	assert.Contains(t, out.String(), "containers:")
	assert.Contains(t, out.String(), "name: webapp")
	assert.Contains(t, out.String(), "state: running")
}

func TestRunID(t *testing.T) {
	runner := &fakeRunner{}
	cfg, err := config.Load("")
	require.NoError(t, err)

	p1 := New(cfg, stack.Default(cfg), runner)
	p2 := New(cfg, stack.Default(cfg), runner)

	assert.NotEmpty(t, p1.RunID())
	assert.NotEqual(t, p1.RunID(), p2.RunID())
}
