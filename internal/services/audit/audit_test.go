package audit

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/task-tracker/internal/models"
	"github.com/magabrotheeeer/task-tracker/internal/rabbitmq"
)

func TestService_Handle(t *testing.T) {
	occurred := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		body     []byte
		wantErr  bool
		wantLogs map[string]any
	}{
		{
			name: "created event",
			body: mustJSON(t, models.TaskEvent{
				Type:       models.TaskCreated,
				TaskID:     "t1",
				OwnerID:    "u1",
				OccurredAt: occurred,
				Task:       &models.Task{ID: "t1", Title: "Buy milk", Status: models.StatusPending},
			}),
			wantLogs: map[string]any{
				"msg":      "task event",
				"type":     "task.created",
				"task_id":  "t1",
				"owner_id": "u1",
				"status":   "pending",
				"title":    "Buy milk",
			},
		},
		{
			name: "deleted event has no task",
			body: mustJSON(t, models.TaskEvent{Type: models.TaskDeleted, TaskID: "t1", OwnerID: "u1", OccurredAt: occurred}),
			wantLogs: map[string]any{
				"type":    "task.deleted",
				"task_id": "t1",
			},
		},
		{name: "not json", body: []byte("garbage"), wantErr: true},
		{name: "missing fields", body: []byte(`{"type":"task.created"}`), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			svc := New(slog.New(slog.NewJSONHandler(&buf, nil)))

			err := svc.Handle(tt.body)
			if tt.wantErr {
				assert.ErrorIs(t, err, rabbitmq.ErrUnprocessable)
				assert.Zero(t, buf.Len())
				return
			}
			require.NoError(t, err)

			var line map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
			for k, v := range tt.wantLogs {
				assert.Equal(t, v, line[k], k)
			}
			if tt.body != nil && line["type"] == "task.deleted" {
				assert.NotContains(t, line, "title")
			}
		})
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
