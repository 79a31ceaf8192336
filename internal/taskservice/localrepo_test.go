package taskservice

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"prodcal/internal/domain"
)

func newTestRepo(t *testing.T) *LocalRepo {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, EnsureSchema(db))
	return NewLocalRepo(db)
}

func TestLocalRepo_TasksByRangeOverlap(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	inside := domain.Task{
		Name:          "In window",
		Status:        domain.StatusScheduled,
		ScheduledDate: time.Date(2024, 3, 3, 8, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC),
		WorkstationID: "W1",
	}
	spanning := domain.Task{
		Name:          "Spans the start bound",
		Status:        domain.StatusInProgress,
		ScheduledDate: time.Date(2024, 2, 27, 8, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC),
	}
	outside := domain.Task{
		Name:          "After window",
		Status:        domain.StatusScheduled,
		ScheduledDate: time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC),
	}
	for _, task := range []domain.Task{inside, spanning, outside} {
		_, err := repo.InsertTask(ctx, task)
		require.NoError(t, err)
	}

	got, err := repo.TasksByRange(ctx,
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Spans the start bound", got[0].Name)
	assert.Equal(t, "In window", got[1].Name)
}

func TestLocalRepo_SessionsRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.InsertTask(ctx, domain.Task{
		Name:          "With sessions",
		Status:        domain.StatusCompleted,
		ScheduledDate: time.Date(2024, 3, 3, 6, 0, 0, 0, time.UTC),
		ProductionSessions: []domain.ProductionSession{
			{Start: time.Date(2024, 3, 3, 8, 0, 0, 0, time.UTC), End: time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC)},
			{Start: time.Date(2024, 3, 3, 13, 0, 0, 0, time.UTC)},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, id, "tsk_")

	got, err := repo.TasksByRange(ctx,
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].ProductionSessions, 2)
	assert.False(t, got[0].ProductionSessions[0].Start.IsZero())
	assert.True(t, got[0].ProductionSessions[1].End.IsZero())
}

func TestLocalRepo_UpdateTaskBumpsUpdatedAt(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.InsertTask(ctx, domain.Task{
		Name:          "Movable",
		Status:        domain.StatusScheduled,
		ScheduledDate: time.Date(2024, 3, 3, 8, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	newStart := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	dur := 90
	require.NoError(t, repo.UpdateTask(ctx, id, domain.TaskPatch{ScheduledDate: &newStart, EstimatedDurationMin: &dur}, "tester"))

	got, err := repo.TasksByRange(ctx,
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].ScheduledDate.Equal(newStart))
	assert.Equal(t, 90, got[0].EstimatedDurationMin)
	assert.False(t, got[0].UpdatedAt.IsZero())
}

func TestLocalRepo_Catalogs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertWorkstation(ctx, domain.Workstation{ID: "W1", Name: "Mill", Color: "#112233"}))
	require.NoError(t, repo.InsertCustomer(ctx, domain.Customer{ID: "C1", Name: "Acme"}))

	ws, err := repo.Workstations(ctx)
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.Equal(t, "Mill", ws[0].Name)

	cs, err := repo.Customers(ctx)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, "C1", cs[0].ID)
}
