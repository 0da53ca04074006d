package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MockCommand is a scripted Command. Run, Output and CombinedOutput use
// RunFunc when set, otherwise they write OutputData to stdout and return Err.
type MockCommand struct {
	Name       string
	Args       []string
	OutputData []byte
	Err        error
	RunFunc    func() error

	StdoutW io.Writer
	StderrW io.Writer
	StdinR  io.Reader
	// Stdin holds whatever was read from StdinR when the command ran.
	Stdin string
}

func (c *MockCommand) captureStdin() {
	if c.StdinR == nil {
		return
	}
	data, _ := io.ReadAll(c.StdinR)
	c.Stdin = string(data)
	c.StdinR = nil
}

func (c *MockCommand) Run() error {
	if c.RunFunc != nil {
		err := c.RunFunc()
		c.captureStdin()
		return err
	}
	c.captureStdin()
	if c.StdoutW != nil && len(c.OutputData) > 0 {
		_, _ = c.StdoutW.Write(c.OutputData)
	}
	return c.Err
}

func (c *MockCommand) Output() ([]byte, error) {
	c.captureStdin()
	if c.RunFunc != nil {
		return c.OutputData, c.RunFunc()
	}
	return c.OutputData, c.Err
}

func (c *MockCommand) CombinedOutput() ([]byte, error) { return c.Output() }
func (c *MockCommand) SetStdout(w io.Writer)           { c.StdoutW = w }
func (c *MockCommand) SetStderr(w io.Writer)           { c.StderrW = w }
func (c *MockCommand) SetStdin(r io.Reader)            { c.StdinR = r }

// MockExecutor records every command it creates.
type MockExecutor struct {
	// CommandFunc scripts a command per spec; Name and Args are filled in.
	CommandFunc   func(spec ExecSpec) *MockCommand
	DefaultOutput []byte
	DefaultErr    error

	mu       sync.Mutex
	Commands []ExecSpec
	Created  []*MockCommand
}

func (m *MockExecutor) Command(_ context.Context, name string, args []string, validators ...ExecValidator) (Command, error) {
	spec := ExecSpec{Name: name, Args: append([]string(nil), args...)}
	for _, validate := range validators {
		if err := validate(spec); err != nil {
			return nil, err
		}
	}

	var cmd *MockCommand
	if m.CommandFunc != nil {
		cmd = m.CommandFunc(spec)
	}
	if cmd == nil {
		cmd = &MockCommand{OutputData: m.DefaultOutput, Err: m.DefaultErr}
	}
	cmd.Name, cmd.Args = spec.Name, spec.Args

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Commands = append(m.Commands, spec)
	m.Created = append(m.Created, cmd)
	return cmd, nil
}

// HasCommand reports whether a command with this binary name was created.
func (m *MockExecutor) HasCommand(name string) bool {
	for _, cmd := range m.Commands {
		if cmd.Name == name {
			return true
		}
	}
	return false
}

// LastCommand returns the most recent command spec.
func (m *MockExecutor) LastCommand() ExecSpec {
	if len(m.Commands) == 0 {
		return ExecSpec{}
	}
	return m.Commands[len(m.Commands)-1]
}

// Lines renders each recorded command as "name arg arg ...".
func (m *MockExecutor) Lines() []string {
	lines := make([]string, 0, len(m.Commands))
	for _, cmd := range m.Commands {
		line := cmd.Name
		for _, arg := range cmd.Args {
			line += " " + arg
		}
		lines = append(lines, line)
	}
	return lines
}

// exitError mimics *exec.ExitError for status propagation tests.
type exitError int

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", int(e)) }
func (e exitError) ExitCode() int { return int(e) }

// contains checks if a string slice contains a value.
func contains(slice []string, val string) bool {
	for _, s := range slice {
		if s == val {
			return true
		}
	}
	return false
}

// hasVerb reports whether spec runs name with verb as its first argument.
func hasVerb(spec ExecSpec, name, verb string) bool {
	return spec.Name == name && len(spec.Args) > 0 && spec.Args[0] == verb
}
