package queue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/mealsync/internal/client/storage"
	"github.com/iudanet/mealsync/internal/client/storage/sqlite"
	"github.com/iudanet/mealsync/internal/models"
)

func setupQueue(t *testing.T) (*Queue, func()) {
	ctx := context.Background()

	st, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return New(st, logger), func() { _ = st.Close() }
}

func TestQueue_Enqueue_NewOperation(t *testing.T) {
	ctx := context.Background()
	q, cleanup := setupQueue(t)
	defer cleanup()

	require.NoError(t, q.Enqueue(ctx, models.OperationAdd, models.EntityTypeDish, "entity-1"))

	op, err := q.Lookup(ctx, "entity-1")
	require.NoError(t, err)
	assert.Equal(t, models.OperationAdd, op.OperationType)
	assert.Equal(t, 0, op.RetryCount)
}

func TestQueue_Enqueue_MergeRules(t *testing.T) {
	tests := []struct {
		name     string
		existing models.OperationType
		incoming models.OperationType
		want     models.OperationType
		removed  bool
	}{
		{
			name:     "add then update keeps add",
			existing: models.OperationAdd,
			incoming: models.OperationUpdate,
			want:     models.OperationAdd,
		},
		{
			name:     "add then delete removes entry",
			existing: models.OperationAdd,
			incoming: models.OperationDelete,
			removed:  true,
		},
		{
			name:     "update then update keeps fresh update",
			existing: models.OperationUpdate,
			incoming: models.OperationUpdate,
			want:     models.OperationUpdate,
		},
		{
			name:     "update then delete becomes delete",
			existing: models.OperationUpdate,
			incoming: models.OperationDelete,
			want:     models.OperationDelete,
		},
		{
			name:     "delete then update keeps delete",
			existing: models.OperationDelete,
			incoming: models.OperationUpdate,
			want:     models.OperationDelete,
		},
		{
			name:     "delete then add keeps delete",
			existing: models.OperationDelete,
			incoming: models.OperationAdd,
			want:     models.OperationDelete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			q, cleanup := setupQueue(t)
			defer cleanup()

			require.NoError(t, q.Enqueue(ctx, tt.existing, models.EntityTypeDish, "entity-1"))
			require.NoError(t, q.Enqueue(ctx, tt.incoming, models.EntityTypeDish, "entity-1"))

			op, err := q.Lookup(ctx, "entity-1")
			if tt.removed {
				assert.ErrorIs(t, err, storage.ErrOperationNotFound)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, op.OperationType)

			// Инвариант: на сущность не больше одной операции
			count, err := q.PendingCount(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, count)
		})
	}
}

func TestQueue_Enqueue_FreshUpdateResetsRetries(t *testing.T) {
	ctx := context.Background()
	q, cleanup := setupQueue(t)
	defer cleanup()

	require.NoError(t, q.Enqueue(ctx, models.OperationUpdate, models.EntityTypeDish, "entity-1"))

	op, err := q.Lookup(ctx, "entity-1")
	require.NoError(t, err)
	require.NoError(t, q.RecordAttempt(ctx, op.ID, errors.New("connection refused")))

	// Новое изменение - свежая операция с нулевым счетчиком
	require.NoError(t, q.Enqueue(ctx, models.OperationUpdate, models.EntityTypeDish, "entity-1"))

	fresh, err := q.Lookup(ctx, "entity-1")
	require.NoError(t, err)
	assert.NotEqual(t, op.ID, fresh.ID)
	assert.Equal(t, 0, fresh.RetryCount)
	assert.Empty(t, fresh.LastError)
}

func TestQueue_Drain_SkipsExhaustedOperations(t *testing.T) {
	ctx := context.Background()
	q, cleanup := setupQueue(t)
	defer cleanup()

	require.NoError(t, q.Enqueue(ctx, models.OperationUpdate, models.EntityTypeDish, "entity-1"))
	require.NoError(t, q.Enqueue(ctx, models.OperationUpdate, models.EntityTypeDish, "entity-2"))

	op, err := q.Lookup(ctx, "entity-1")
	require.NoError(t, err)

	// Исчерпываем попытки первой операции
	for i := 0; i < MaxRetries; i++ {
		require.NoError(t, q.RecordAttempt(ctx, op.ID, errors.New("boom")))
	}

	ready, err := q.Drain(ctx)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, "entity-2", ready[0].EntityID)

	// Исчерпанная операция не выброшена - она ждет ручного повтора
	failed, err := q.Failed(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "entity-1", failed[0].EntityID)
	assert.Equal(t, "boom", failed[0].LastError)
}

func TestQueue_Retry_ReenablesFailedOperation(t *testing.T) {
	ctx := context.Background()
	q, cleanup := setupQueue(t)
	defer cleanup()

	require.NoError(t, q.Enqueue(ctx, models.OperationUpdate, models.EntityTypeDish, "entity-1"))

	op, err := q.Lookup(ctx, "entity-1")
	require.NoError(t, err)
	for i := 0; i < MaxRetries; i++ {
		require.NoError(t, q.RecordAttempt(ctx, op.ID, errors.New("boom")))
	}

	require.NoError(t, q.Retry(ctx, op.ID))

	ready, err := q.Drain(ctx)
	require.NoError(t, err)
	assert.Len(t, ready, 1)
}

func TestQueue_Dequeue(t *testing.T) {
	ctx := context.Background()
	q, cleanup := setupQueue(t)
	defer cleanup()

	require.NoError(t, q.Enqueue(ctx, models.OperationAdd, models.EntityTypeDish, "entity-1"))

	op, err := q.Lookup(ctx, "entity-1")
	require.NoError(t, err)

	require.NoError(t, q.Dequeue(ctx, op.ID))

	count, err := q.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestQueue_Drain_FIFO(t *testing.T) {
	ctx := context.Background()
	q, cleanup := setupQueue(t)
	defer cleanup()

	require.NoError(t, q.Enqueue(ctx, models.OperationAdd, models.EntityTypeDish, "entity-1"))
	require.NoError(t, q.Enqueue(ctx, models.OperationAdd, models.EntityTypeDish, "entity-2"))
	require.NoError(t, q.Enqueue(ctx, models.OperationAdd, models.EntityTypeDish, "entity-3"))

	ready, err := q.Drain(ctx)
	require.NoError(t, err)
	require.Len(t, ready, 3)
	assert.Equal(t, "entity-1", ready[0].EntityID)
	assert.Equal(t, "entity-2", ready[1].EntityID)
	assert.Equal(t, "entity-3", ready[2].EntityID)
}
