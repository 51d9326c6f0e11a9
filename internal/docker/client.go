package docker

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"runtime"
	"time"

	"github.com/docker/docker/client"

	"github.com/mmr-tortoise/plugctl/internal/model"
)

// defaultPingTimeout is the maximum duration to wait for a Docker daemon
// response during a Ping operation. 5 seconds is generous enough for most
// environments, including Docker Desktop on macOS which can be slower
// than native Linux Docker.
const defaultPingTimeout = 5 * time.Second

// Client wraps the Docker Engine SDK client. It handles automatic Docker
// socket detection across platforms (Linux, macOS, Windows) and hands out
// the plugin Gateway used by the reconciler.
//
// Usage:
//
//	c, err := docker.NewClient("")
//	if err != nil { /* handle */ }
//	defer c.Close()
//	if err := c.Ping(ctx); err != nil { /* Docker not running */ }
//	gw := c.Plugins(io.Discard)
type Client struct {
	// inner is the underlying Docker SDK client. It is wrapped rather than
	// embedded to control the exposed API surface.
	inner *client.Client
}

// NewClient creates a new Docker client.
//
// The host is chosen in this order:
//  1. the host argument, when non-empty (e.g. from --host)
//  2. DOCKER_HOST and the other DOCKER_* environment variables
//     (TLS settings included), via client.FromEnv
//  3. platform-specific default socket paths:
//     - Linux: /var/run/docker.sock
//     - macOS: /var/run/docker.sock, then ~/.docker/run/docker.sock
//     - Windows: npipe:////./pipe/docker_engine
//
// Returns a model.CLIError with ExitDockerNotRunning if no Docker socket
// is found or the client cannot be created.
func NewClient(host string) (*Client, error) {
	if host != "" {
		return newClient(fmt.Sprintf("Docker host %q", host), client.WithHost(host))
	}

	if os.Getenv("DOCKER_HOST") != "" {
		return newClient("DOCKER_HOST", client.FromEnv)
	}

	detected, err := detectDockerHost()
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"Docker socket not found",
			err,
		)
	}

	return newClient(fmt.Sprintf("Docker host %q", detected), client.WithHost(detected))
}

// newClient creates a Docker client with API version negotiation enabled,
// so that it works against older and newer daemons without pinning an
// API version.
func newClient(source string, opt client.Opt) (*Client, error) {
	c, err := client.NewClientWithOpts(
		opt,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to create Docker client for %s", source),
			err,
		)
	}

	return &Client{inner: c}, nil
}

// detectDockerHost determines the Docker socket path for the current platform.
// It checks known socket paths and returns the first one that exists.
//
// Socket existence is checked rather than connectivity; Ping verifies that
// the daemon actually answers.
func detectDockerHost() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return detectUnixSocket([]string{
			"/var/run/docker.sock",
		})

	case "darwin":
		// Docker Desktop either symlinks /var/run/docker.sock or only
		// creates the per-user socket.
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return detectUnixSocket([]string{
				"/var/run/docker.sock",
			})
		}
		return detectUnixSocket([]string{
			"/var/run/docker.sock",
			homeDir + "/.docker/run/docker.sock",
		})

	case "windows":
		// os.Stat does not work on named pipes, so try a brief dial instead.
		pipePath := `//./pipe/docker_engine`
		conn, err := net.DialTimeout("pipe", pipePath, 1*time.Second)
		if err == nil {
			conn.Close()
			return "npipe://" + pipePath, nil
		}
		return "", fmt.Errorf("Docker named pipe not found at %s: %w", pipePath, err)

	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// detectUnixSocket checks a list of Unix socket paths and returns the
// Docker host URI for the first socket that exists on the filesystem.
//
// The paths are checked in order, so callers should list them from
// most-preferred to least-preferred.
func detectUnixSocket(paths []string) (string, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return "unix://" + path, nil
		}
	}
	return "", fmt.Errorf(
		"Docker socket not found at any of: %v (is Docker running?)",
		paths,
	)
}

// Ping verifies that the Docker daemon is reachable and responsive.
// It sends a lightweight ping request to the Docker API and waits
// up to defaultPingTimeout for a response.
//
// Returns a model.CLIError with ExitDockerNotRunning if the daemon
// does not respond or returns an error.
func (c *Client) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	_, err := c.inner.Ping(pingCtx)
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			"Docker daemon is not responding (is Docker running?)",
			err,
		)
	}
	return nil
}

// Host returns the daemon address the client talks to.
func (c *Client) Host() string {
	return c.inner.DaemonHost()
}

// Plugins returns the plugin Gateway backed by this client. Pull progress
// of plugin installs is written to progress; pass io.Discard to drop it.
func (c *Client) Plugins(progress io.Writer) *PluginGateway {
	return newPluginGateway(c.inner, progress)
}

// Close releases all resources held by the Docker client.
// This should be called when the client is no longer needed,
// typically via defer immediately after NewClient().
//
// Close is safe to call multiple times.
func (c *Client) Close() error {
	if c.inner != nil {
		return c.inner.Close()
	}
	return nil
}
