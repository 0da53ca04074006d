package cli

import (
	"context"
	"io"
)

// DockerRunner captures the docker methods used by the registry, uploader and
// readiness probe.
type DockerRunner interface {
	CommandArgs(ctx context.Context, args []string) (Command, error)
	Output(ctx context.Context, args []string) ([]byte, error)
	RunWithOutput(ctx context.Context, args []string, stdout, stderr io.Writer) error
}

// DockerClient wraps docker CLI execution with validation.
type DockerClient struct {
	exec       Executor
	validators []ExecValidator
}

// NewDockerClient creates a DockerClient with default validators.
func NewDockerClient(exec Executor) *DockerClient {
	return &DockerClient{
		exec: exec,
		validators: []ExecValidator{
			AllowlistBins("docker"),
			NoControlChars(),
			NoShellMeta(),
		},
	}
}

// CommandArgs builds a docker command with the given arguments.
// Validates arguments against configured validators before building.
func (c *DockerClient) CommandArgs(ctx context.Context, args []string) (Command, error) {
	return c.exec.Command(ctx, "docker", args, c.validators...)
}

// Output runs docker with the given arguments and returns stdout.
func (c *DockerClient) Output(ctx context.Context, args []string) ([]byte, error) {
	cmd, err := c.CommandArgs(ctx, args)
	if err != nil {
		return nil, err
	}
	return cmd.Output()
}

// RunWithOutput runs docker with the given arguments, piping to the provided writers.
func (c *DockerClient) RunWithOutput(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd, err := c.CommandArgs(ctx, args)
	if err != nil {
		return err
	}
	cmd.SetStdout(stdout)
	cmd.SetStderr(stderr)
	return cmd.Run()
}

var dockerClient = NewDockerClient(execExecutor)
