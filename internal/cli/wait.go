package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

const (
	// ReadyTimeout bounds how long the registry may take to accept logins.
	ReadyTimeout = 5 * time.Second
	// ReadyInterval is the pause between readiness probes.
	ReadyInterval = 100 * time.Millisecond

	probeUser     = "relaypush"
	probePassword = "relaypush"
)

// errProbeNotRun is reported when the budget ends before any probe returned.
var errProbeNotRun = errors.New("probe did not run before timeout")

// WaitFor calls probe immediately and then every interval until it returns
// nil or timeout elapses. It returns nil on success and otherwise the last
// probe error.
func WaitFor(ctx context.Context, timeout, interval time.Duration, probe func(context.Context) error) error {
	lastErr := errProbeNotRun
	err := wait.PollUntilContextTimeout(ctx, interval, timeout, true, func(ctx context.Context) (bool, error) {
		lastErr = probe(ctx)
		return lastErr == nil, nil
	})
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return lastErr
}

// loginProbe returns a probe that logs in to the registry at addr with fixed
// placeholder credentials. The registry accepts any credentials, so success
// only means it is up and speaking the registry protocol.
func loginProbe(docker DockerRunner, addr string) func(context.Context) error {
	return func(ctx context.Context) error {
		// #nosec G204 -- fixed credentials, password via stdin, loopback addr.
		cmd, err := docker.CommandArgs(ctx, []string{"login", "-u", probeUser, "--password-stdin", addr})
		if err != nil {
			return err
		}
		var stderr bytes.Buffer
		cmd.SetStdin(strings.NewReader(probePassword))
		cmd.SetStdout(io.Discard)
		cmd.SetStderr(&stderr)
		if err := cmd.Run(); err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return fmt.Errorf("%w: %s", err, msg)
			}
			return err
		}
		return nil
	}
}
