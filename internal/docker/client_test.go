package docker

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/plugctl/internal/model"
)

// TestDetectUnixSocket verifies that the first existing path wins.
func TestDetectUnixSocket(t *testing.T) {
	dir := t.TempDir()
	socket := filepath.Join(dir, "docker.sock")

	require.NoError(t, os.WriteFile(socket, nil, 0o600))

	host, err := detectUnixSocket([]string{filepath.Join(dir, "missing.sock"), socket})
	require.NoError(t, err)
	assert.Equal(t, "unix://"+socket, host)
}

func TestDetectUnixSocket_NotFound(t *testing.T) {
	_, err := detectUnixSocket([]string{filepath.Join(t.TempDir(), "missing.sock")})
	assert.Error(t, err)
}

// TestNewClient_ExplicitHost checks that an explicit host is used verbatim.
func TestNewClient_ExplicitHost(t *testing.T) {
	c, err := NewClient("tcp://127.0.0.1:2375")
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "tcp://127.0.0.1:2375", c.Host())
	assert.NotNil(t, c.Plugins(nil))
}

func TestNewClient_InvalidHost(t *testing.T) {
	c, err := NewClient("://")
	require.Error(t, err)
	assert.Nil(t, c)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitDockerNotRunning, cliErr.Code)
}

func TestNewClient_FromEnv(t *testing.T) {
	t.Setenv("DOCKER_HOST", "tcp://10.0.0.1:2376")
	t.Setenv("DOCKER_TLS_VERIFY", "")
	t.Setenv("DOCKER_CERT_PATH", "")

	c, err := NewClient("")
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "tcp://10.0.0.1:2376", c.Host())
}

func TestClose_NilInner(t *testing.T) {
	assert.NoError(t, (&Client{}).Close())
}
