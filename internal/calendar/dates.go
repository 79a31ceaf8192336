package calendar

import (
	"time"

	"prodcal/internal/domain"
)

// ResolveDates computes the effective display window for a task.
//
// A completed task with recorded production sessions shows its actual work
// window: earliest session start to latest session end. If no session
// carries a start (or end), that side falls back to the task's own
// scheduled/end date. Any other task shows its planned window, deriving
// the end from the estimated duration when no explicit end is set.
//
// A zero return value means that endpoint could not be resolved.
func ResolveDates(t domain.Task) (start, end time.Time) {
	if t.Status == domain.StatusCompleted && len(t.ProductionSessions) > 0 {
		start, end = sessionBounds(t.ProductionSessions)
		if start.IsZero() {
			start = t.ScheduledDate
		}
		if end.IsZero() {
			end = t.EndDate
		}
		return start, end
	}

	start = t.ScheduledDate
	end = t.EndDate
	if end.IsZero() && !start.IsZero() && t.EstimatedDurationMin > 0 {
		end = start.Add(time.Duration(t.EstimatedDurationMin) * time.Minute)
	}
	return start, end
}

func sessionBounds(sessions []domain.ProductionSession) (earliest, latest time.Time) {
	for _, s := range sessions {
		if !s.Start.IsZero() && (earliest.IsZero() || s.Start.Before(earliest)) {
			earliest = s.Start
		}
		if !s.End.IsZero() && (latest.IsZero() || s.End.After(latest)) {
			latest = s.End
		}
	}
	return earliest, latest
}
