package cli

// This file implements the ephemeral registry: a registry container published
// on an auto-assigned loopback port, optionally backed by a named cache volume,
// and torn down exactly once when the run ends.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// LoopbackHost is used instead of "localhost" so docker treats the
	// plain-HTTP registry as a local insecure registry.
	LoopbackHost = "127.0.0.1"
	// RegistryContainerPort is the port the distribution registry listens on.
	RegistryContainerPort = 5000
	// registryStoragePath is where the registry image keeps its layers.
	registryStoragePath = "/var/lib/registry"

	teardownTimeout = 30 * time.Second
)

// registryName is a test seam for container name generation.
var registryName = func() string {
	return fmt.Sprintf("relaypush-registry-%d", time.Now().UnixNano())
}

// RegistryOptions configures StartRegistry.
type RegistryOptions struct {
	// Image is the registry image to run.
	Image string
	// CacheVolume is mounted as registry storage when non-empty. An empty
	// value keeps storage inside the container, discarded on teardown.
	CacheVolume string
	Stdout      io.Writer
	Stderr      io.Writer
}

// Registry is a running ephemeral registry owned by one run.
type Registry struct {
	docker      DockerRunner
	logger      *zap.Logger
	name        string
	port        int
	cacheVolume string

	closeOnce sync.Once
}

// Name returns the container name.
func (r *Registry) Name() string { return r.name }

// Port returns the loopback host port the registry is published on.
func (r *Registry) Port() int { return r.port }

// CacheVolume returns the mounted cache volume, or "" when caching is off.
func (r *Registry) CacheVolume() string { return r.cacheVolume }

// Addr returns host:port of the registry on loopback.
func (r *Registry) Addr() string {
	return LoopbackHost + ":" + strconv.Itoa(r.port)
}

// Reference returns image rewritten to live in this registry.
func (r *Registry) Reference(image string) string {
	return r.Addr() + "/" + image
}

// Close kills and removes the registry container. Only the first call does
// anything; failures are logged at debug level and never returned, so a
// teardown problem cannot replace the error that ended the run. Close runs
// even when ctx is already cancelled.
func (r *Registry) Close(ctx context.Context) {
	if r == nil {
		return
	}
	r.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
		defer cancel()

		r.logger.Debug("Removing registry", zap.String("container", r.name))
		// #nosec G204 -- container name is generated by this process.
		if err := r.docker.RunWithOutput(ctx, []string{"kill", r.name}, io.Discard, io.Discard); err != nil {
			r.logger.Debug("Failed to kill registry", zap.String("container", r.name), zap.Error(err))
		}
		// -v drops the anonymous storage volume; the named cache volume is kept.
		// #nosec G204 -- container name is generated by this process.
		if err := r.docker.RunWithOutput(ctx, []string{"rm", "-v", r.name}, io.Discard, io.Discard); err != nil {
			r.logger.Debug("Failed to remove registry", zap.String("container", r.name), zap.Error(err))
		}
	})
}

// StartRegistry ensures the cache volume, runs the registry container and
// discovers the host port assigned to it.
func StartRegistry(ctx context.Context, docker DockerRunner, logger *zap.Logger, opts RegistryOptions) (*Registry, error) {
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	image := opts.Image
	if image == "" {
		image = DefaultRegistryImage
	}

	if opts.CacheVolume != "" {
		logger.Info("Ensuring cache volume", zap.String("volume", opts.CacheVolume))
		// `docker volume create` is a no-op for an existing volume.
		// #nosec G204 -- volume name from validated config.
		if err := docker.RunWithOutput(ctx, []string{"volume", "create", opts.CacheVolume}, io.Discard, stderr); err != nil {
			return nil, wrapWithSentinelAndContext(
				ErrCreateCacheVolumeFailed,
				err,
				fmt.Sprintf("failed to create cache volume %s: %v", opts.CacheVolume, err),
				map[string]any{"volume": opts.CacheVolume, "component": "registry"},
			)
		}
	}

	name := registryName()
	args := []string{
		"run", "-d",
		"--name", name,
		"-p", fmt.Sprintf("%s::%d", LoopbackHost, RegistryContainerPort),
	}
	if opts.CacheVolume != "" {
		args = append(args, "-v", opts.CacheVolume+":"+registryStoragePath)
	}
	args = append(args, image)

	logger.Info("Starting registry", zap.String("container", name), zap.String("image", image))
	// Container ID goes to stdout; it is not useful to the user.
	// #nosec G204 -- arguments are fixed verbs, a generated name and config values.
	if err := docker.RunWithOutput(ctx, args, io.Discard, stderr); err != nil {
		return nil, wrapWithSentinelAndContext(
			ErrStartRegistryFailed,
			err,
			fmt.Sprintf("failed to start registry: %v", err),
			map[string]any{"container": name, "image": image, "component": "registry"},
		)
	}

	reg := &Registry{
		docker:      docker,
		logger:      logger,
		name:        name,
		cacheVolume: opts.CacheVolume,
	}

	port, err := inspectRegistryPort(ctx, docker, name)
	if err != nil {
		reg.Close(ctx)
		return nil, err
	}
	reg.port = port

	logger.Info("Registry started", zap.String("container", name), zap.Int("port", port))
	return reg, nil
}

type portBinding struct {
	HostIP   string `json:"HostIp"`
	HostPort string `json:"HostPort"`
}

func inspectRegistryPort(ctx context.Context, docker DockerRunner, name string) (int, error) {
	var stdout, stderr bytes.Buffer
	// #nosec G204 -- fixed inspect template and generated container name.
	args := []string{"inspect", "--format", "{{json .NetworkSettings.Ports}}", name}
	if err := docker.RunWithOutput(ctx, args, &stdout, &stderr); err != nil {
		return 0, wrapWithSentinelAndContext(
			ErrInspectRegistryFailed,
			err,
			fmt.Sprintf("failed to inspect registry: %v (%s)", err, strings.TrimSpace(stderr.String())),
			map[string]any{"container": name, "component": "registry"},
		)
	}

	port, err := parseLoopbackPort(stdout.Bytes(), RegistryContainerPort)
	if err != nil {
		return 0, wrapWithSentinelAndContext(
			ErrRegistryPortNotFound,
			err,
			fmt.Sprintf("failed to find registry port: %v", err),
			map[string]any{"container": name, "component": "registry"},
		)
	}
	return port, nil
}

// parseLoopbackPort picks the loopback host port bound to containerPort/tcp
// from the JSON form of .NetworkSettings.Ports.
func parseLoopbackPort(data []byte, containerPort int) (int, error) {
	var ports map[string][]portBinding
	if err := json.Unmarshal(bytes.TrimSpace(data), &ports); err != nil {
		return 0, fmt.Errorf("decode port map: %w", err)
	}
	key := fmt.Sprintf("%d/tcp", containerPort)
	for _, binding := range ports[key] {
		if binding.HostIP != LoopbackHost {
			continue
		}
		port, err := strconv.Atoi(binding.HostPort)
		if err != nil || port <= 0 || port > 65535 {
			return 0, fmt.Errorf("invalid host port %q for %s", binding.HostPort, key)
		}
		return port, nil
	}
	return 0, fmt.Errorf("no %s binding for %s", LoopbackHost, key)
}
