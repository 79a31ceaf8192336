package taskservice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodcal/internal/domain"
)

func TestClient_TasksByRangeDecodesMixedDateRepresentations(t *testing.T) {
	ref := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)

	var gotQuery struct{ start, end string }
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/production-tasks", r.URL.Path)
		gotQuery.start = r.URL.Query().Get("start")
		gotQuery.end = r.URL.Query().Get("end")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{
				"id":             "t1",
				"name":           "Cut plates",
				"status":         "Scheduled",
				"scheduled_date": ref.Format(time.RFC3339),
				"end_date":       ref.Add(4 * time.Hour).UnixMilli(),
				"workstation_id": "W1",
			},
			{
				"id":           "t2",
				"product_name": "Bracket",
				"mo_number":    "MO-7",
				"status":       "Completed",
				"scheduled_date": map[string]any{
					"seconds":     ref.Unix(),
					"nanoseconds": 0,
				},
				"customer": map[string]any{"id": "C1", "name": "Acme"},
				"production_sessions": []map[string]any{
					{"start_date": ref.Format(time.RFC3339), "end_date": "garbage"},
				},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
	tasks, err := c.TasksByRange(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	assert.Equal(t, "2024-03-01T00:00:00Z", gotQuery.start)
	assert.Equal(t, "2024-03-07T00:00:00Z", gotQuery.end)

	assert.True(t, tasks[0].ScheduledDate.Equal(ref))
	assert.True(t, tasks[0].EndDate.Equal(ref.Add(4*time.Hour)))

	assert.True(t, tasks[1].ScheduledDate.Equal(ref), "wrapped timestamp decodes")
	assert.Equal(t, "C1", tasks[1].CustomerID, "customer id falls back to nested customer object")
	require.Len(t, tasks[1].ProductionSessions, 1)
	assert.True(t, tasks[1].ProductionSessions[0].Start.Equal(ref))
	assert.True(t, tasks[1].ProductionSessions[0].End.IsZero(), "unparsable date resolves to zero, never an error")
}

func TestClient_TasksByRangeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.TasksByRange(context.Background(), time.Now(), time.Now())
	assert.ErrorContains(t, err, "HTTP 500")
}

func TestClient_UpdateTaskSendsPatchAndActor(t *testing.T) {
	var gotPath, gotActor string
	var gotPatch domain.TaskPatch
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotActor = r.Header.Get("X-Actor-ID")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPatch))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	start := time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC)
	dur := 120
	err := c.UpdateTask(context.Background(), "t1", domain.TaskPatch{ScheduledDate: &start, EstimatedDurationMin: &dur}, "user-9")
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/production-tasks/t1", gotPath)
	assert.Equal(t, "user-9", gotActor)
	require.NotNil(t, gotPatch.ScheduledDate)
	assert.True(t, gotPatch.ScheduledDate.Equal(start))
	require.NotNil(t, gotPatch.EstimatedDurationMin)
	assert.Equal(t, 120, *gotPatch.EstimatedDurationMin)
	assert.Nil(t, gotPatch.EndDate)
}

func TestClient_UpdateTaskFailureSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "version conflict", http.StatusConflict)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	err := c.UpdateTask(context.Background(), "t1", domain.TaskPatch{}, "user-9")
	assert.ErrorContains(t, err, "HTTP 409")
}

func TestClient_Catalogs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/workstations":
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"id": "W1", "name": "Mill", "color": "#112233", "business_hours": map[string]int{"start_hour": 6, "end_hour": 18}},
			})
		case "/api/v1/customers":
			_ = json.NewEncoder(w).Encode([]map[string]any{{"id": "C1", "name": "Acme"}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)

	ws, err := c.Workstations(context.Background())
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.Equal(t, "#112233", ws[0].Color)
	require.NotNil(t, ws[0].BusinessHours)
	assert.Equal(t, 6, ws[0].BusinessHours.StartHour)

	cs, err := c.Customers(context.Background())
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, "Acme", cs[0].Name)
}
