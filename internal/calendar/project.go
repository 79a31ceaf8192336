package calendar

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"prodcal/internal/domain"
)

// ProjectOptions carries the filter and display state that shapes the
// projected events.
type ProjectOptions struct {
	// SelectedCustomers is keyed by customer id; the domain.FilterNoCustomer
	// key governs tasks without a customer.
	SelectedCustomers map[string]bool

	// SelectedWorkstations is keyed by workstation id. Only consulted under
	// workstation grouping.
	SelectedWorkstations map[string]bool

	GroupBy domain.GroupMode

	// GroupedView is true when the active view lays events out per
	// resource row; events that resolve to no row are dropped.
	GroupedView bool

	EditEnabled bool

	// WorkstationColors is non-nil when workstation coloring mode is
	// active; a workstation's color then wins over the status palette.
	WorkstationColors map[string]string
}

// ProjectEvents converts tasks plus pending local edits into calendar
// events. Pure: inputs are never mutated, so projecting twice over the
// same inputs yields identical output.
func ProjectEvents(tasks []domain.Task, edits map[string]domain.PendingEdit, opts ProjectOptions) []domain.CalendarEvent {
	events := make([]domain.CalendarEvent, 0, len(tasks))
	for _, t := range tasks {
		if !customerSelected(t, opts.SelectedCustomers) {
			continue
		}
		if opts.GroupedView && opts.GroupBy == domain.GroupByWorkstation &&
			t.WorkstationID != "" && !opts.SelectedWorkstations[t.WorkstationID] {
			continue
		}

		start, end := ResolveDates(t)
		if edit, ok := edits[t.ID]; ok {
			start, end = applyEdit(start, end, edit)
		}
		if start.IsZero() {
			log.Warn().Str("task_id", t.ID).Msg("task has no resolvable start date, skipping")
			continue
		}

		resourceID := resolveResourceID(t, opts.GroupBy)
		if opts.GroupedView && resourceID == "" {
			continue
		}

		events = append(events, domain.CalendarEvent{
			ID:            t.ID,
			Title:         eventTitle(t),
			Start:         start,
			End:           end,
			Color:         eventColor(t, opts.WorkstationColors),
			ResourceID:    resourceID,
			Editable:      opts.EditEnabled && t.Status != domain.StatusCompleted && t.Status != domain.StatusCancelled,
			MONumber:      t.MONumber,
			Quantity:      t.Quantity,
			Unit:          t.Unit,
			Status:        t.Status,
			WorkstationID: t.WorkstationID,
		})
	}
	return events
}

func customerSelected(t domain.Task, selected map[string]bool) bool {
	if t.CustomerID == "" {
		return selected[domain.FilterNoCustomer]
	}
	return selected[t.CustomerID]
}

// applyEdit overlays a pending drag/resize/manual edit. Edit values win
// over both session-derived and scheduled dates.
func applyEdit(start, end time.Time, edit domain.PendingEdit) (time.Time, time.Time) {
	if !edit.ScheduledDate.IsZero() {
		start = edit.ScheduledDate
	}
	switch {
	case !edit.EndDate.IsZero():
		end = edit.EndDate
	case edit.EstimatedDurationMin > 0 && !start.IsZero():
		end = start.Add(time.Duration(edit.EstimatedDurationMin) * time.Minute)
	}
	return start, end
}

func resolveResourceID(t domain.Task, groupBy domain.GroupMode) string {
	if groupBy == domain.GroupByOrder {
		if t.OrderID == "" {
			return domain.ResourceNoOrder
		}
		return t.OrderID
	}
	return t.WorkstationID
}

func eventTitle(t domain.Task) string {
	switch {
	case t.Name != "":
		return t.Name
	case t.ProductName != "" && t.MONumber != "":
		return fmt.Sprintf("%s (%s)", t.ProductName, t.MONumber)
	case t.ProductName != "":
		return t.ProductName
	case t.MONumber != "":
		return t.MONumber
	default:
		return t.ID
	}
}

func eventColor(t domain.Task, workstationColors map[string]string) string {
	if workstationColors != nil {
		if c, ok := workstationColors[t.WorkstationID]; ok && c != "" {
			return c
		}
	}
	return domain.StatusColor(t.Status)
}
