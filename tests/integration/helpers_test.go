package integration

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/pkg/stdcopy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	sshUser     = "analyst"
	sshPassword = "secret"
)

// sshContainer is a running sshd container plus its mapped address.
type sshContainer struct {
	container testcontainers.Container
	host      string
	port      int
}

// startSSHContainer builds and starts the sshd test image.
func startSSHContainer(t *testing.T, ctx context.Context) *sshContainer {
	t.Helper()

	req := testcontainers.ContainerRequest{
		FromDockerfile: testcontainers.FromDockerfile{
			Context:    ".",
			Dockerfile: "Dockerfile",
		},
		ExposedPorts: []string{"22/tcp"},
		WaitingFor:   wait.ForListeningPort("22/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start sshd container")

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	mapped, err := container.MappedPort(ctx, "22/tcp")
	require.NoError(t, err)

	return &sshContainer{
		container: container,
		host:      host,
		port:      mapped.Int(),
	}
}

// execInContainer runs a command in the container and returns stdout.
func execInContainer(ctx context.Context, container testcontainers.Container, cmd []string) (int, string, error) {
	exitCode, reader, err := container.Exec(ctx, cmd)
	if err != nil {
		return exitCode, "", err
	}

	// Demux the Docker stream (stdout/stderr are multiplexed)
	var stdout, stderr bytes.Buffer
	_, _ = stdcopy.StdCopy(&stdout, &stderr, reader)

	return exitCode, stdout.String(), nil
}

// assertRemoteFileContains checks a file in the container holds the
// expected content.
func assertRemoteFileContains(t *testing.T, ctx context.Context, c *sshContainer, path, expected string) {
	t.Helper()
	exitCode, content, err := execInContainer(ctx, c.container, []string{"cat", path})
	require.NoError(t, err)
	require.Equal(t, 0, exitCode, "failed to read file %s", path)
	assert.Contains(t, content, expected, "file %s should contain %q", path, expected)
}

// assertRemoteFileMode checks a file's permission bits in the container.
func assertRemoteFileMode(t *testing.T, ctx context.Context, c *sshContainer, path, expectedMode string) {
	t.Helper()
	exitCode, mode, err := execInContainer(ctx, c.container, []string{"stat", "-c", "%a", path})
	require.NoError(t, err)
	require.Equal(t, 0, exitCode, "failed to stat file %s", path)
	assert.Equal(t, expectedMode, strings.TrimSpace(mode), "file %s should have mode %s", path, expectedMode)
}
