package cli

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitFor(t *testing.T) {
	t.Run("succeeds immediately", func(t *testing.T) {
		calls := 0
		err := WaitFor(context.Background(), time.Second, 10*time.Millisecond, func(context.Context) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries until success", func(t *testing.T) {
		calls := 0
		err := WaitFor(context.Background(), time.Second, 5*time.Millisecond, func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after the budget with the last error", func(t *testing.T) {
		calls := 0
		start := time.Now()
		err := WaitFor(context.Background(), 100*time.Millisecond, 10*time.Millisecond, func(context.Context) error {
			calls++
			return errors.New("connection refused")
		})
		elapsed := time.Since(start)

		require.EqualError(t, err, "connection refused")
		assert.Greater(t, calls, 1)
		assert.GreaterOrEqual(t, elapsed, 90*time.Millisecond)
		assert.Less(t, elapsed, 2*time.Second)
	})

	t.Run("stops on parent cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := WaitFor(ctx, time.Second, 10*time.Millisecond, func(context.Context) error {
			return errors.New("connection refused")
		})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestLoginProbe(t *testing.T) {
	t.Run("logs in on loopback with stdin password", func(t *testing.T) {
		mock := &MockExecutor{}
		probe := loginProbe(NewDockerClient(mock), testAddr)

		require.NoError(t, probe(context.Background()))
		require.Len(t, mock.Created, 1)
		assert.Equal(t, []string{"login", "-u", probeUser, "--password-stdin", testAddr}, mock.Created[0].Args)
		assert.Equal(t, probePassword, mock.Created[0].Stdin)
	})

	t.Run("includes docker stderr in the error", func(t *testing.T) {
		mock := &MockExecutor{
			CommandFunc: func(spec ExecSpec) *MockCommand {
				cmd := &MockCommand{}
				cmd.RunFunc = func() error {
					_, _ = cmd.StderrW.Write([]byte("connection refused\n"))
					return exitError(1)
				}
				return cmd
			},
		}
		err := loginProbe(NewDockerClient(mock), testAddr)(context.Background())
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "connection refused"))
	})
}
