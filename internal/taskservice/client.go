// Package taskservice talks to the remote ERP task store.
package taskservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"prodcal/internal/domain"
	"prodcal/internal/timeutil"
)

// Client calls the task store over HTTP. It implements
// calendar.TaskSource and calendar.CatalogSource.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// taskWire mirrors the store's task document. Date fields are decoded as
// any because the store serves RFC3339 strings, epoch millis, or wrapped
// timestamp objects depending on which backend wrote the row.
type taskWire struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	ProductName       string        `json:"product_name"`
	MONumber          string        `json:"mo_number"`
	Quantity          float64       `json:"quantity"`
	Unit              string        `json:"unit"`
	Status            string        `json:"status"`
	ScheduledDate     any           `json:"scheduled_date"`
	EndDate           any           `json:"end_date"`
	EstimatedDuration int           `json:"estimated_duration"`
	WorkstationID     string        `json:"workstation_id"`
	OrderID           string        `json:"order_id"`
	OrderNumber       string        `json:"order_number"`
	CustomerID        string        `json:"customer_id"`
	Customer          *customerWire `json:"customer"`
	Sessions          []sessionWire `json:"production_sessions"`
	UpdatedAt         any           `json:"updated_at"`
}

type sessionWire struct {
	StartDate any `json:"start_date"`
	EndDate   any `json:"end_date"`
}

type customerWire struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type workstationWire struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Color         string `json:"color"`
	BusinessHours *struct {
		StartHour int `json:"start_hour"`
		EndHour   int `json:"end_hour"`
	} `json:"business_hours"`
}

// TasksByRange fetches tasks whose window intersects [start, end], both
// bounds inclusive, passed as ISO-8601 timestamps.
func (c *Client) TasksByRange(ctx context.Context, start, end time.Time) ([]domain.Task, error) {
	q := url.Values{}
	q.Set("start", start.UTC().Format(time.RFC3339))
	q.Set("end", end.UTC().Format(time.RFC3339))

	var wire []taskWire
	if err := c.getJSON(ctx, "/api/v1/production-tasks?"+q.Encode(), &wire); err != nil {
		return nil, err
	}
	tasks := make([]domain.Task, 0, len(wire))
	for _, w := range wire {
		tasks = append(tasks, decodeTask(w))
	}
	return tasks, nil
}

func (c *Client) Workstations(ctx context.Context) ([]domain.Workstation, error) {
	var wire []workstationWire
	if err := c.getJSON(ctx, "/api/v1/workstations", &wire); err != nil {
		return nil, err
	}
	out := make([]domain.Workstation, 0, len(wire))
	for _, w := range wire {
		ws := domain.Workstation{ID: w.ID, Name: w.Name, Color: w.Color}
		if w.BusinessHours != nil {
			ws.BusinessHours = &domain.BusinessHours{StartHour: w.BusinessHours.StartHour, EndHour: w.BusinessHours.EndHour}
		}
		out = append(out, ws)
	}
	return out, nil
}

func (c *Client) Customers(ctx context.Context) ([]domain.Customer, error) {
	var wire []customerWire
	if err := c.getJSON(ctx, "/api/v1/customers", &wire); err != nil {
		return nil, err
	}
	out := make([]domain.Customer, 0, len(wire))
	for _, w := range wire {
		out = append(out, domain.Customer{ID: w.ID, Name: w.Name})
	}
	return out, nil
}

// UpdateTask commits a partial update. The actor id rides along so the
// store can attribute the change.
func (c *Client) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch, actorID string) error {
	body, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+"/api/v1/production-tasks/"+id, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Actor-ID", actorID)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("task update failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("task update HTTP %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("task store request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("task store HTTP %d: %s", resp.StatusCode, string(msg))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeTask(w taskWire) domain.Task {
	t := domain.Task{
		ID:                   w.ID,
		Name:                 w.Name,
		ProductName:          w.ProductName,
		MONumber:             w.MONumber,
		Quantity:             w.Quantity,
		Unit:                 w.Unit,
		Status:               domain.TaskStatus(w.Status),
		EstimatedDurationMin: w.EstimatedDuration,
		WorkstationID:        w.WorkstationID,
		OrderID:              w.OrderID,
		OrderNumber:          w.OrderNumber,
		CustomerID:           w.CustomerID,
	}
	if t.CustomerID == "" && w.Customer != nil {
		t.CustomerID = w.Customer.ID
	}
	t.ScheduledDate = decodeInstant(w.ID, "scheduled_date", w.ScheduledDate)
	t.EndDate = decodeInstant(w.ID, "end_date", w.EndDate)
	t.UpdatedAt = decodeInstant(w.ID, "updated_at", w.UpdatedAt)
	for _, s := range w.Sessions {
		t.ProductionSessions = append(t.ProductionSessions, domain.ProductionSession{
			Start: decodeInstant(w.ID, "session.start_date", s.StartDate),
			End:   decodeInstant(w.ID, "session.end_date", s.EndDate),
		})
	}
	return t
}

// decodeInstant normalizes a duck-typed date. An unparsable value becomes
// a zero time and a warning; it never fails the fetch.
func decodeInstant(taskID, field string, v any) time.Time {
	t, ok := timeutil.ToInstant(v)
	if !ok && v != nil {
		log.Warn().Str("task_id", taskID).Str("field", field).Interface("value", v).Msg("unparsable task date")
	}
	return t
}
