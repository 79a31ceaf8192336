package domain

import "time"

// Task is a schedulable unit of production work as served by the remote
// task store. Dates are normalized to time.Time at the decode boundary;
// a zero time means the field was absent or unparsable.
type Task struct {
	ID                   string
	Name                 string
	ProductName          string
	MONumber             string
	Quantity             float64
	Unit                 string
	Status               TaskStatus
	ScheduledDate        time.Time
	EndDate              time.Time
	EstimatedDurationMin int
	WorkstationID        string
	OrderID              string
	OrderNumber          string
	CustomerID           string
	ProductionSessions   []ProductionSession
	UpdatedAt            time.Time
}

// ProductionSession records an actual work interval on a task.
type ProductionSession struct {
	Start time.Time
	End   time.Time
}

type Workstation struct {
	ID            string
	Name          string
	Color         string
	BusinessHours *BusinessHours
}

type BusinessHours struct {
	StartHour int
	EndHour   int
}

type Customer struct {
	ID   string
	Name string
}

// PendingEdit is a locally held override of a task's dates produced by a
// drag, resize, or manual edit, applied until superseded by fresher
// server data.
type PendingEdit struct {
	TaskID               string
	ScheduledDate        time.Time
	EndDate              time.Time
	EstimatedDurationMin int
	LastModified         time.Time
}

// TaskPatch is the partial update sent to the task store when a pending
// edit is committed. Nil fields are left untouched server-side.
type TaskPatch struct {
	ScheduledDate        *time.Time `json:"scheduled_date,omitempty"`
	EndDate              *time.Time `json:"end_date,omitempty"`
	EstimatedDurationMin *int       `json:"estimated_duration_min,omitempty"`
}

// CalendarEvent is one renderable timeline entry.
type CalendarEvent struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end,omitempty"`
	Color      string    `json:"color"`
	ResourceID string    `json:"resource_id,omitempty"`
	Editable   bool      `json:"editable"`

	// Denormalized fields for tooltips and cell rendering.
	MONumber      string     `json:"mo_number,omitempty"`
	Quantity      float64    `json:"quantity,omitempty"`
	Unit          string     `json:"unit,omitempty"`
	Status        TaskStatus `json:"status"`
	WorkstationID string     `json:"workstation_id,omitempty"`
}

// Resource is one timeline row: a workstation or an order bucket.
type Resource struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ViewConfig describes the concrete calendar view chosen for a range and
// detail level.
type ViewConfig struct {
	View        ViewID    `json:"view"`
	SlotMinutes int       `json:"slot_minutes"`
	RangeStart  time.Time `json:"range_start"`
	RangeEnd    time.Time `json:"range_end"`
}

// RangeState is the orchestrator's visible window state.
type RangeState struct {
	CustomRangeActive bool
	Start             time.Time
	End               time.Time
	Detail            DetailLevel
	GroupBy           GroupMode
	View              ViewID
}
