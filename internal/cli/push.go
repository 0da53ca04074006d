// Package cli implements the relaypush command.
//
// Example usage:
//
//	relaypush deploy@target.example.com app:latest
//	relaypush --no-cache --ssh-opts "-p 2222 -i ~/.ssh/deploy" target.example.com a:1 b:2
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// PushRequest describes one run: where to deploy and what.
type PushRequest struct {
	// Target is the ssh destination in [user@]host form.
	Target string
	// Images are local image references, used verbatim on the remote host.
	Images  []string
	Options Options
}

// PushManager runs the relay procedure with injected dependencies.
type PushManager struct {
	docker  DockerRunner
	exec    Executor
	logger  *zap.Logger
	printer *Printer
	stdout  io.Writer
	stderr  io.Writer

	// newRemote builds the remote runner for the resolved ssh options.
	newRemote func(sshOpts string) (RemoteRunner, error)

	readyTimeout  time.Duration
	readyInterval time.Duration
}

// NewPushManager creates a PushManager with the given dependencies.
func NewPushManager(docker DockerRunner, exec Executor, logger *zap.Logger, printer *Printer) *PushManager {
	m := &PushManager{
		docker:        docker,
		exec:          exec,
		logger:        logger,
		printer:       printer,
		stdout:        os.Stdout,
		stderr:        os.Stderr,
		readyTimeout:  ReadyTimeout,
		readyInterval: ReadyInterval,
	}
	m.newRemote = func(sshOpts string) (RemoteRunner, error) {
		runner, err := NewSSHRunner(m.exec, sshOpts)
		if err != nil {
			return nil, err
		}
		runner.Stdout, runner.Stderr = m.stdout, m.stderr
		return runner, nil
	}
	return m
}

// DefaultPushManager returns a PushManager using default clients.
func DefaultPushManager(logger *zap.Logger) *PushManager {
	return NewPushManager(dockerClient, execExecutor, logger, DefaultPrinter)
}

// NewPushCmd builds the relaypush command.
func NewPushCmd(logger *zap.Logger) *cobra.Command {
	return NewPushCmdWithManager(DefaultPushManager(logger))
}

// NewPushCmdWithManager returns the relaypush command using the provided manager.
func NewPushCmdWithManager(mgr *PushManager) *cobra.Command {
	v := newConfig()
	var configPath string

	cmd := &cobra.Command{
		Use:   "relaypush [options] [user@]host name[:tag] [name[:tag] ...]",
		Short: "Copy local Docker images to a remote host over ssh",
		Long: `relaypush copies local Docker images to a remote host without a public registry.

It starts a throwaway registry on a loopback port, pushes the images into it,
opens an ssh session that reverse-forwards the registry port to the target,
and has the target pull, retag and clean up each image. The registry is
removed when the run ends, whatever the outcome.

Layers are kept in the "` + DefaultCacheVolume + `" volume between runs unless --no-cache is set.`,
		Args:          validatePositionals,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Usage is only useful for argument and flag mistakes.
			cmd.SilenceUsage = true
			if err := readConfigFile(v, configPath); err != nil {
				return err
			}
			return mgr.Push(cmd.Context(), PushRequest{
				Target:  args[0],
				Images:  args[1:],
				Options: resolveOptions(v),
			})
		},
	}

	cmd.Flags().StringP("ssh-opts", "o", "", "Additional arguments for ssh, e.g. \"-p 2222 -i ~/.ssh/id_deploy\"")
	cmd.Flags().Bool("no-cache", false, "Do not keep registry layers in the cache volume between runs")
	cmd.Flags().StringVar(&configPath, "config", "", "Config file (default: ~/.config/relaypush/config.yaml)")
	if err := bindFlags(v, cmd.Flags()); err != nil {
		panic(err)
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return wrapWithSentinel(ErrUsage, err, err.Error())
	})

	return cmd
}

// validatePositionals requires a target and at least one image, and checks
// every image reference before anything is started.
func validatePositionals(_ *cobra.Command, args []string) error {
	if len(args) < 2 {
		return newWithSentinel(ErrArguments,
			fmt.Sprintf("requires [user@]host and at least one image, received %d argument(s)", len(args)))
	}
	if err := validateTarget(args[0]); err != nil {
		return err
	}
	for _, image := range args[1:] {
		if err := validateImageReference(image); err != nil {
			return err
		}
	}
	return nil
}

func validateTarget(target string) error {
	if strings.TrimSpace(target) == "" || strings.HasPrefix(target, "-") || strings.ContainsAny(target, " \t\r\n") {
		return newWithSentinel(ErrInvalidTarget, fmt.Sprintf("invalid deploy target %q (expected [user@]host)", target))
	}
	return nil
}

// validateImageReference accepts name[:tag] references. Digest references
// are rejected because the remote host retags to the original name.
func validateImageReference(image string) error {
	ref, err := name.ParseReference(image)
	if err != nil {
		return wrapWithSentinelAndContext(ErrInvalidImageReference, err,
			fmt.Sprintf("invalid image reference %q: %v", image, err),
			map[string]any{"image": image, "component": "cli"})
	}
	if _, ok := ref.(name.Tag); !ok {
		return newWithSentinel(ErrInvalidImageReference,
			fmt.Sprintf("invalid image reference %q: digest references cannot be retagged, use name[:tag]", image))
	}
	if _, err := name.ParseReference(LoopbackHost + ":1/" + image); err != nil {
		return wrapWithSentinelAndContext(ErrInvalidImageReference, err,
			fmt.Sprintf("image reference %q cannot be served from a local registry: %v", image, err),
			map[string]any{"image": image, "component": "cli"})
	}
	return nil
}

// Push runs the whole procedure for req. The registry, once started, is
// removed before Push returns on every path.
func (m *PushManager) Push(ctx context.Context, req PushRequest) error {
	remote, err := m.newRemote(req.Options.SSHOpts)
	if err != nil {
		return m.fail(ctx, err, "Invalid ssh options")
	}

	cacheVolume := ""
	if !req.Options.NoCache {
		cacheVolume = req.Options.CacheVolume
		if cacheVolume == "" {
			cacheVolume = DefaultCacheVolume
		}
	}

	m.printer.Step("Starting local registry")
	reg, err := StartRegistry(ctx, m.docker, m.logger, RegistryOptions{
		Image:       req.Options.RegistryImage,
		CacheVolume: cacheVolume,
		Stdout:      m.stdout,
		Stderr:      m.stderr,
	})
	if err != nil {
		return m.fail(ctx, err, "Failed to start local registry")
	}
	defer reg.Close(ctx)

	stop := m.printer.SpinnerStart(fmt.Sprintf("Waiting for registry on %s", reg.Addr()))
	if err := WaitFor(ctx, m.readyTimeout, m.readyInterval, loginProbe(m.docker, reg.Addr())); err != nil {
		stop(false, fmt.Sprintf("Registry on %s did not become ready", reg.Addr()))
		wrappedErr := wrapWithSentinelAndContext(
			ErrRegistryNotReady,
			err,
			fmt.Sprintf("registry on %s not ready after %s: %v", reg.Addr(), m.readyTimeout, err),
			map[string]any{"container": reg.Name(), "port": reg.Port(), "component": "registry"},
		)
		return m.fail(ctx, wrappedErr, "Registry not ready")
	}
	stop(true, fmt.Sprintf("Registry ready on %s", reg.Addr()))

	uploader := &Uploader{docker: m.docker, logger: m.logger, printer: m.printer, stdout: m.stdout, stderr: m.stderr}
	if err := uploader.UploadImages(ctx, reg, req.Images); err != nil {
		return m.fail(ctx, err, "")
	}

	fwd := loopbackForward(reg.Port())
	m.printer.Step(fmt.Sprintf("Pulling %d image(s) on %s", len(req.Images), req.Target))
	m.logger.Info("Opening tunnel", zap.String("target", req.Target), zap.String("forward", fwd.String()))
	if err := remote.Run(ctx, req.Target, fwd, BuildPullScript(reg.Addr(), req.Images)); err != nil {
		wrappedErr := wrapWithSentinelAndContext(
			ErrTunnelFailed,
			err,
			fmt.Sprintf("remote pull session on %s failed: %v", req.Target, err),
			map[string]any{"target": req.Target, "forward": fwd.String(), "component": "tunnel"},
		)
		return m.fail(ctx, wrappedErr, "Remote pull session failed")
	}

	m.printer.Success(fmt.Sprintf("Sent %s to %s", strings.Join(req.Images, ", "), req.Target))
	return nil
}

// fail reports err and marks it as interrupted when ctx was cancelled. An
// empty msg means err was already reported where it happened.
func (m *PushManager) fail(ctx context.Context, err error, msg string) error {
	if ctx.Err() != nil && !errors.Is(err, ErrInterrupted) {
		err = wrapWithSentinel(ErrInterrupted, err, fmt.Sprintf("interrupted: %v", err))
	}
	if msg != "" {
		m.printer.Error(msg)
		logStructuredError(m.logger, err, msg)
	}
	return err
}
