package cli

import (
	"io"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

const (
	testRegistryName = "relaypush-registry-test"
	testPort         = 49153
	testAddr         = "127.0.0.1:49153"
	testPortsJSON    = `{"5000/tcp":[{"HostIp":"127.0.0.1","HostPort":"49153"}]}`
)

// useTestRegistryName pins the generated registry container name.
func useTestRegistryName(t *testing.T) {
	t.Helper()
	orig := registryName
	registryName = func() string { return testRegistryName }
	t.Cleanup(func() { registryName = orig })
}

// newRelayMock scripts a docker/ssh environment where everything succeeds
// unless a command line starts with one of the keys in failures.
func newRelayMock(failures map[string]error) *MockExecutor {
	return &MockExecutor{
		CommandFunc: func(spec ExecSpec) *MockCommand {
			cmd := &MockCommand{}
			if hasVerb(spec, "docker", "inspect") {
				cmd.OutputData = []byte(testPortsJSON + "\n")
			}
			line := strings.Join(append([]string{spec.Name}, spec.Args...), " ")
			for prefix, err := range failures {
				if strings.HasPrefix(line, prefix) {
					cmd.Err = err
					cmd.OutputData = nil
				}
			}
			return cmd
		},
	}
}

func newTestManager(mock *MockExecutor) *PushManager {
	m := NewPushManager(NewDockerClient(mock), mock, zap.NewNop(), &Printer{Quiet: true, Out: io.Discard})
	m.stdout, m.stderr = io.Discard, io.Discard
	m.readyTimeout = 300 * time.Millisecond
	m.readyInterval = 10 * time.Millisecond
	return m
}

// commandsWithVerb returns the recorded commands of name whose first arg is verb.
func commandsWithVerb(mock *MockExecutor, name, verb string) []ExecSpec {
	var out []ExecSpec
	for _, spec := range mock.Commands {
		if hasVerb(spec, name, verb) {
			out = append(out, spec)
		}
	}
	return out
}
