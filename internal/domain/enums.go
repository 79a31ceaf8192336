package domain

type TaskStatus string

const (
	StatusScheduled  TaskStatus = "Scheduled"
	StatusInProgress TaskStatus = "InProgress"
	StatusCompleted  TaskStatus = "Completed"
	StatusCancelled  TaskStatus = "Cancelled"
	StatusOnHold     TaskStatus = "OnHold"
)

type DetailLevel string

const (
	DetailHour DetailLevel = "hour"
	DetailDay  DetailLevel = "day"
	DetailWeek DetailLevel = "week"
)

type GroupMode string

const (
	GroupByWorkstation GroupMode = "workstation"
	GroupByOrder       GroupMode = "order"
)

type ViewID string

const (
	ViewTimelineDay   ViewID = "timeline-day"
	ViewTimelineWeek  ViewID = "timeline-week"
	ViewTimelineMonth ViewID = "timeline-month"
	ViewTimelineYear  ViewID = "timeline-year"
)

// Synthetic buckets and filter keys for tasks that carry no assignment.
const (
	ResourceUnassigned = "unassigned"
	ResourceNoOrder    = "no-order"
	FilterNoCustomer   = "no-customer"
)

// Status colors, FullCalendar default blue for scheduled work.
const (
	ColorScheduled  = "#3788d8"
	ColorInProgress = "#f39c12"
	ColorCompleted  = "#2ecc71"
	ColorCancelled  = "#e74c3c"
	ColorOnHold     = "#95a5a6"
	ColorNeutral    = "#7f8c8d"
)

// StatusColor maps a task status to its palette color.
func StatusColor(s TaskStatus) string {
	switch s {
	case StatusScheduled:
		return ColorScheduled
	case StatusInProgress:
		return ColorInProgress
	case StatusCompleted:
		return ColorCompleted
	case StatusCancelled:
		return ColorCancelled
	case StatusOnHold:
		return ColorOnHold
	default:
		return ColorNeutral
	}
}
