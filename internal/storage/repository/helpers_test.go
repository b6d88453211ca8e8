package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/task-tracker/internal/migrations"
	"github.com/magabrotheeeer/task-tracker/internal/models"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя и возвращает его ID
func (f *TestDataFactory) CreateUser(t *testing.T, email string) string {
	id := uuid.NewString()
	_, err := f.storage.DB.Exec(`INSERT INTO users (id, name, email, password_hash)
		VALUES ($1, $2, $3, $4)`,
		id, "user "+email, email, "hashedpassword")
	require.NoError(t, err)
	return id
}

// CreateTask создает тестовую задачу с заданным временем создания
func (f *TestDataFactory) CreateTask(t *testing.T, ownerID, title, description string,
	status models.TaskStatus, createdAt time.Time) string {
	id := uuid.NewString()
	_, err := f.storage.DB.Exec(`INSERT INTO tasks (id, title, description, status, created_at, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, title, description, string(status), createdAt, ownerID)
	require.NoError(t, err)
	return id
}

// CountTasks возвращает количество задач в БД
func (f *TestDataFactory) CountTasks(t *testing.T, ownerID string) int {
	var count int
	err := f.storage.DB.QueryRow(`SELECT COUNT(*) FROM tasks WHERE owner_id = $1`, ownerID).Scan(&count)
	require.NoError(t, err)
	return count
}

// setupTestDatabase поднимает PostgreSQL в контейнере и накатывает миграции
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(connStr)
	require.NoError(t, err, "failed to create storage")

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath), "failed to run migrations")

	cleanup := func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return storage, cleanup
}
