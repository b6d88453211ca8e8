package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/task-tracker/internal/config"
)

func TestNew(t *testing.T) {
	t.Run("local logs debug as text", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(config.EnvLocal, &buf)

		log.Debug("starting", "addr", ":8080")

		assert.Contains(t, buf.String(), "level=DEBUG")
		assert.Contains(t, buf.String(), "addr=:8080")
	})

	t.Run("prod logs json from info", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(config.EnvProd, &buf)

		log.Debug("hidden")
		log.Info("visible", "request_id", "r-1")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 1)
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
		assert.Equal(t, "visible", entry["msg"])
		assert.Equal(t, "r-1", entry["request_id"])
	})
}
