package cli

// This file implements remote execution over ssh with a reverse port forward,
// and the script the remote host runs to pull images through that forward.

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/mattn/go-shellwords"
)

// PortForward asks the remote end to relay RemotePort to LocalHost:LocalPort.
type PortForward struct {
	RemotePort int
	LocalHost  string
	LocalPort  int
}

// String renders the forward in ssh -R syntax.
func (f PortForward) String() string {
	return fmt.Sprintf("%d:%s:%d", f.RemotePort, f.LocalHost, f.LocalPort)
}

// RemoteRunner runs script on target while fwd is active and returns when
// the remote script finishes or the connection drops.
type RemoteRunner interface {
	Run(ctx context.Context, target string, fwd PortForward, script string) error
}

// SSHRunner is the RemoteRunner backed by the ssh client. The script is sent
// on stdin to the remote login shell.
type SSHRunner struct {
	exec Executor
	// ExtraArgs are passed to ssh before the target, uninterpreted.
	ExtraArgs []string
	Stdout    io.Writer
	Stderr    io.Writer
}

// NewSSHRunner parses sshOpts with shell quoting rules into extra ssh arguments.
func NewSSHRunner(exec Executor, sshOpts string) (*SSHRunner, error) {
	extra, err := shellwords.Parse(sshOpts)
	if err != nil {
		return nil, wrapWithSentinelAndContext(
			ErrParseSSHOptsFailed,
			err,
			fmt.Sprintf("failed to parse --ssh-opts %q: %v", sshOpts, err),
			map[string]any{"ssh_opts": sshOpts, "component": "tunnel"},
		)
	}
	return &SSHRunner{exec: exec, ExtraArgs: extra, Stdout: os.Stdout, Stderr: os.Stderr}, nil
}

// Args returns the ssh argument list for target and fwd.
func (r *SSHRunner) Args(target string, fwd PortForward) []string {
	args := []string{
		"-R", fwd.String(),
		// A remote port already in use must fail the session rather than
		// let pulls reach whatever holds it.
		"-o", "ExitOnForwardFailure=yes",
	}
	args = append(args, r.ExtraArgs...)
	return append(args, target)
}

func (r *SSHRunner) Run(ctx context.Context, target string, fwd PortForward, script string) error {
	// #nosec G204 -- ssh options are supplied by the invoking user on purpose.
	cmd, err := r.exec.Command(ctx, "ssh", r.Args(target, fwd), AllowlistBins("ssh"), NoControlChars())
	if err != nil {
		return err
	}
	cmd.SetStdin(strings.NewReader(script))
	cmd.SetStdout(r.Stdout)
	cmd.SetStderr(r.Stderr)
	return cmd.Run()
}

// BuildPullScript returns a POSIX shell script that pulls every image from
// the registry at addr, retags it to its original name and drops the
// registry-qualified tag. Each image has its own && chain; a failed chain
// prints a diagnostic and the script moves on to the next image, so the
// script's own exit status does not reflect individual pulls.
func BuildPullScript(addr string, images []string) string {
	var b strings.Builder
	b.WriteString("set +e\n")
	for _, image := range images {
		derived := shellescape.Quote(addr + "/" + image)
		original := shellescape.Quote(image)
		fmt.Fprintf(&b, "{ docker pull %s && docker tag %s %s && docker rmi %s; } || echo %s >&2\n",
			derived, derived, original, derived,
			shellescape.Quote("relaypush: failed to pull "+image))
	}
	b.WriteString("exit 0\n")
	return b.String()
}

// loopbackForward forwards the same port number on the remote loopback to
// the local registry.
func loopbackForward(port int) PortForward {
	return PortForward{RemotePort: port, LocalHost: LoopbackHost, LocalPort: port}
}
