package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const memoryConfig = `
env: local
storage_driver: memory
http_server:
  addresshttp: "127.0.0.1:0"
jwttoken:
  jwt_secret_key: test-secret
`

func TestRootCommand_ConfigRequired(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	var out bytes.Buffer

	err := NewRootCommand(&out).Execute(context.Background(), []string{"migrate"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "config path is not set")
}

func TestRootCommand_MigrateRejectsMemoryDriver(t *testing.T) {
	var out bytes.Buffer

	err := NewRootCommand(&out).Execute(context.Background(), []string{"migrate", "--config", writeConfig(t, memoryConfig)})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `migrate requires storage_driver "postgres"`)
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	var out bytes.Buffer
	path := writeConfig(t, "env: local\nstorage_driver: sqlite\njwttoken:\n  jwt_secret_key: x\n")

	err := NewRootCommand(&out).Execute(context.Background(), []string{"serve", "-c", path})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown storage_driver "sqlite"`)
}

func TestRootCommand_ServeStopsOnCancel(t *testing.T) {
	var out bytes.Buffer
	t.Setenv("CONFIG_PATH", writeConfig(t, memoryConfig))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewRootCommand(&out).Execute(ctx, nil)
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(20 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
	assert.Contains(t, out.String(), "task-tracker stopped gracefully")
}
