package calendar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"prodcal/internal/domain"
	"prodcal/internal/rangecache"
	"prodcal/internal/timeutil"
)

// TaskSource is the remote task store as seen by the engine.
type TaskSource interface {
	TasksByRange(ctx context.Context, start, end time.Time) ([]domain.Task, error)
	UpdateTask(ctx context.Context, id string, patch domain.TaskPatch, actorID string) error
}

// CatalogSource serves the workstation and customer lists that seed the
// filter and grouping sets.
type CatalogSource interface {
	Workstations(ctx context.Context) ([]domain.Workstation, error)
	Customers(ctx context.Context) ([]domain.Customer, error)
}

// RangePersister stores the last applied custom range across restarts.
type RangePersister interface {
	SaveRange(key string, start, end time.Time) error
	LoadRange(key string, maxAge time.Duration) (start, end time.Time, ok bool, err error)
}

const (
	// RangePersistKey is the local-store key for the custom date range.
	RangePersistKey = "production-calendar-date-range"

	// RangePersistMaxAge is how long a persisted range stays restorable.
	RangePersistMaxAge = time.Hour

	// DefaultPendingEditTTL bounds how long a local edit may outlive the
	// fetch that should have superseded it.
	DefaultPendingEditTTL = 30 * time.Minute

	maxNotices = 20
)

var (
	ErrInvalidRange = errors.New("invalid date range: start must not be after end")
	ErrUnknownTask  = errors.New("task not in the current range")
	ErrBadInput     = errors.New("bad input")
)

type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeWarn  NoticeLevel = "warning"
	NoticeError NoticeLevel = "error"
)

// Notice is a user-visible message produced by the orchestrator. Nothing
// below the orchestrator surfaces UI text.
type Notice struct {
	ID      string      `json:"id"`
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
}

// Snapshot is the renderable output of the engine.
type Snapshot struct {
	Events    []domain.CalendarEvent `json:"events"`
	Resources []domain.Resource      `json:"resources"`
	View      domain.ViewConfig      `json:"view"`
	State     domain.RangeState      `json:"-"`
	Notices   []Notice               `json:"notices,omitempty"`
	Loading   bool                   `json:"loading"`
}

type Config struct {
	Source    TaskSource
	Catalogs  CatalogSource
	Cache     *rangecache.Cache
	Persister RangePersister
	Logger    zerolog.Logger

	// ActorID identifies this user on committed task updates.
	ActorID string

	NavigationThresholdDays float64
	PendingEditTTL          time.Duration
}

// Orchestrator owns the range/detail/grouping state and the pending-edit
// map, and runs the resolve-fetch-project pipeline on every
// state-affecting action. All mutation is serialized; remote calls run
// with the lock released and results are applied only when still current.
type Orchestrator struct {
	mu sync.Mutex

	log       zerolog.Logger
	source    TaskSource
	catalogs  CatalogSource
	cache     *rangecache.Cache
	persister RangePersister
	actorID   string

	navThresholdDays float64
	editTTL          time.Duration
	now              func() time.Time

	state        domain.RangeState
	tasks        []domain.Task
	pendingEdits map[string]domain.PendingEdit

	workstations         []domain.Workstation
	customers            []domain.Customer
	selectedWorkstations map[string]bool
	selectedCustomers    map[string]bool
	editEnabled          bool
	workstationColoring  bool

	// stateSeq stamps each issued fetch; a completing fetch whose stamp
	// is no longer current is discarded, never applied.
	stateSeq uint64
	fetching bool

	notices []Notice
}

func NewOrchestrator(cfg Config) *Orchestrator {
	if cfg.NavigationThresholdDays <= 0 {
		cfg.NavigationThresholdDays = DefaultNavigationThresholdDays
	}
	if cfg.PendingEditTTL <= 0 {
		cfg.PendingEditTTL = DefaultPendingEditTTL
	}
	o := &Orchestrator{
		log:                  cfg.Logger,
		source:               cfg.Source,
		catalogs:             cfg.Catalogs,
		cache:                cfg.Cache,
		persister:            cfg.Persister,
		actorID:              cfg.ActorID,
		navThresholdDays:     cfg.NavigationThresholdDays,
		editTTL:              cfg.PendingEditTTL,
		now:                  time.Now,
		pendingEdits:         make(map[string]domain.PendingEdit),
		selectedWorkstations: make(map[string]bool),
		selectedCustomers:    map[string]bool{domain.FilterNoCustomer: true},
		editEnabled:          true,
	}
	today := dayStart(o.now())
	o.state = domain.RangeState{
		Start:   today,
		End:     today.AddDate(0, 0, 7),
		Detail:  domain.DetailDay,
		GroupBy: domain.GroupByWorkstation,
	}
	o.resolveViewLocked()
	return o
}

// Start restores the persisted custom range, loads the workstation and
// customer catalogs, and runs the first fetch.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.persister != nil {
		start, end, ok, err := o.persister.LoadRange(RangePersistKey, RangePersistMaxAge)
		if err != nil {
			o.log.Warn().Err(err).Msg("could not restore persisted range")
		} else if ok {
			o.state.Start, o.state.End = start, end
			o.state.CustomRangeActive = true
			o.resolveViewLocked()
		}
	}
	o.mu.Unlock()

	if err := o.ReloadCatalogs(ctx); err != nil {
		return err
	}
	return o.fetch(ctx)
}

// ReloadCatalogs refreshes the workstation and customer lists. New
// entries default to selected; existing selections are preserved.
func (o *Orchestrator) ReloadCatalogs(ctx context.Context) error {
	if o.catalogs == nil {
		return nil
	}
	workstations, err := o.catalogs.Workstations(ctx)
	if err != nil {
		return err
	}
	customers, err := o.catalogs.Customers(ctx)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.workstations = workstations
	o.customers = customers
	for _, ws := range workstations {
		if _, known := o.selectedWorkstations[ws.ID]; !known {
			o.selectedWorkstations[ws.ID] = true
		}
	}
	for _, c := range customers {
		if _, known := o.selectedCustomers[c.ID]; !known {
			o.selectedCustomers[c.ID] = true
		}
	}
	return nil
}

// Navigate shifts the window by its own span ("prev"/"next") or recenters
// it on today ("today").
func (o *Orchestrator) Navigate(ctx context.Context, direction string) error {
	o.mu.Lock()
	span := o.state.End.Sub(o.state.Start)
	switch direction {
	case "prev":
		o.state.Start = o.state.Start.Add(-span)
		o.state.End = o.state.End.Add(-span)
	case "next":
		o.state.Start = o.state.Start.Add(span)
		o.state.End = o.state.End.Add(span)
	case "today":
		today := dayStart(o.now())
		o.state.Start = today
		o.state.End = today.Add(span)
	default:
		o.mu.Unlock()
		return fmt.Errorf("%w: unknown navigation direction %q", ErrBadInput, direction)
	}
	o.afterRangeChangeLocked()
	o.mu.Unlock()
	return o.fetch(ctx)
}

// ApplyCustomRange activates a user-chosen window. The window is
// validated and persisted before any fetch.
func (o *Orchestrator) ApplyCustomRange(ctx context.Context, start, end time.Time) error {
	if start.IsZero() || end.IsZero() || start.After(end) {
		o.mu.Lock()
		o.notifyLocked(NoticeError, "invalid date range")
		o.mu.Unlock()
		return ErrInvalidRange
	}
	o.mu.Lock()
	o.state.Start, o.state.End = start, end
	o.state.CustomRangeActive = true
	o.afterRangeChangeLocked()
	if o.persister != nil {
		if err := o.persister.SaveRange(RangePersistKey, start, end); err != nil {
			o.log.Warn().Err(err).Msg("could not persist custom range")
		}
	}
	o.mu.Unlock()
	return o.fetch(ctx)
}

// WidgetRangeChanged handles the calendar widget reporting its own
// visible range. While a custom range is active the report is honored
// only when it looks like genuine prev/next navigation; internal
// re-renders echo a near-identical window and are ignored.
func (o *Orchestrator) WidgetRangeChanged(ctx context.Context, start, end time.Time) error {
	if start.IsZero() || end.IsZero() || start.After(end) {
		return ErrInvalidRange
	}
	o.mu.Lock()
	if o.state.CustomRangeActive &&
		!IsGenuineUserNavigation(o.state.Start, o.state.End, start, end, o.navThresholdDays) {
		o.mu.Unlock()
		return nil
	}
	o.state.Start, o.state.End = start, end
	o.state.CustomRangeActive = false
	o.afterRangeChangeLocked()
	o.mu.Unlock()
	return o.fetch(ctx)
}

// SetDetail switches the slot granularity. An hourly request over a
// too-wide window is downgraded to day detail unless clamp is set, in
// which case the window end is trimmed to the hourly limit instead.
func (o *Orchestrator) SetDetail(ctx context.Context, detail domain.DetailLevel, clamp bool) error {
	switch detail {
	case domain.DetailHour, domain.DetailDay, domain.DetailWeek:
	default:
		return fmt.Errorf("%w: unknown detail level %q", ErrBadInput, detail)
	}
	o.mu.Lock()
	if detail == domain.DetailHour && clamp {
		clamped := ClampHourlyRange(o.state.Start, o.state.End)
		if !clamped.Equal(o.state.End) {
			o.state.End = clamped
			o.notifyLocked(NoticeInfo, "range end clamped to fit hourly view")
		}
	}
	o.state.Detail = detail
	o.afterRangeChangeLocked()
	o.mu.Unlock()
	return o.fetch(ctx)
}

// SetGrouping switches the timeline rows between workstations and orders.
func (o *Orchestrator) SetGrouping(ctx context.Context, groupBy domain.GroupMode) error {
	switch groupBy {
	case domain.GroupByWorkstation, domain.GroupByOrder:
	default:
		return fmt.Errorf("%w: unknown grouping mode %q", ErrBadInput, groupBy)
	}
	o.mu.Lock()
	o.state.GroupBy = groupBy
	o.mu.Unlock()
	return o.fetch(ctx)
}

// SetCustomerFilter replaces the customer selection set. The
// domain.FilterNoCustomer key governs tasks without a customer.
func (o *Orchestrator) SetCustomerFilter(selected map[string]bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.selectedCustomers = cloneSet(selected)
}

// SetWorkstationFilter replaces the workstation selection set.
func (o *Orchestrator) SetWorkstationFilter(selected map[string]bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.selectedWorkstations = cloneSet(selected)
}

// SetEditEnabled toggles drag/resize editing globally.
func (o *Orchestrator) SetEditEnabled(enabled bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.editEnabled = enabled
}

// SetWorkstationColoring toggles coloring events by workstation instead
// of by status.
func (o *Orchestrator) SetWorkstationColoring(enabled bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.workstationColoring = enabled
}

// MoveTask records a drag as a pending edit, commits it to the task
// store, and rolls the edit back if the commit fails.
func (o *Orchestrator) MoveTask(ctx context.Context, id string, newStart, newEnd time.Time) error {
	if newStart.IsZero() || (!newEnd.IsZero() && newStart.After(newEnd)) {
		o.mu.Lock()
		o.notifyLocked(NoticeError, "invalid date range")
		o.mu.Unlock()
		return ErrInvalidRange
	}
	edit := domain.PendingEdit{TaskID: id, ScheduledDate: newStart, EndDate: newEnd}
	patch := domain.TaskPatch{ScheduledDate: &newStart}
	if !newEnd.IsZero() {
		dur := timeutil.MinutesBetween(newStart, newEnd)
		edit.EstimatedDurationMin = dur
		patch.EndDate = &newEnd
		patch.EstimatedDurationMin = &dur
	}
	return o.commitEdit(ctx, id, edit, patch)
}

// ResizeTask records an end-date change as a pending edit and commits it.
func (o *Orchestrator) ResizeTask(ctx context.Context, id string, newEnd time.Time) error {
	if newEnd.IsZero() {
		o.mu.Lock()
		o.notifyLocked(NoticeError, "invalid date range")
		o.mu.Unlock()
		return ErrInvalidRange
	}
	edit := domain.PendingEdit{TaskID: id, EndDate: newEnd}
	return o.commitEdit(ctx, id, edit, domain.TaskPatch{EndDate: &newEnd})
}

func (o *Orchestrator) commitEdit(ctx context.Context, id string, edit domain.PendingEdit, patch domain.TaskPatch) error {
	o.mu.Lock()
	if !o.hasTaskLocked(id) {
		o.mu.Unlock()
		return ErrUnknownTask
	}
	prev, hadPrev := o.pendingEdits[id]
	edit.LastModified = o.now()
	o.pendingEdits[id] = edit
	r := rangecache.Range{Start: o.state.Start, End: o.state.End}
	o.mu.Unlock()

	if err := o.source.UpdateTask(ctx, id, patch, o.actorID); err != nil {
		o.mu.Lock()
		if hadPrev {
			o.pendingEdits[id] = prev
		} else {
			delete(o.pendingEdits, id)
		}
		o.notifyLocked(NoticeError, "could not save task dates: "+err.Error())
		o.mu.Unlock()
		o.log.Error().Err(err).Str("task_id", id).Msg("task update failed, edit rolled back")
		return err
	}

	// The cached window is stale now; the next fetch must see the server's
	// version of this task.
	o.cache.Invalidate(r)
	return nil
}

// Refresh drops every cached range and refetches the current one.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	o.cache.Purge()
	o.mu.Lock()
	o.stateSeq++
	o.mu.Unlock()
	return o.fetch(ctx)
}

// Snapshot projects the current tasks, edits, and filters into renderable
// events and resources. Accumulated notices are drained on read.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.pruneExpiredEditsLocked()

	var wsColors map[string]string
	if o.workstationColoring {
		wsColors = make(map[string]string, len(o.workstations))
		for _, ws := range o.workstations {
			wsColors[ws.ID] = ws.Color
		}
	}
	events := ProjectEvents(o.tasks, o.pendingEdits, ProjectOptions{
		SelectedCustomers:    o.selectedCustomers,
		SelectedWorkstations: o.selectedWorkstations,
		GroupBy:              o.state.GroupBy,
		GroupedView:          true,
		EditEnabled:          o.editEnabled,
		WorkstationColors:    wsColors,
	})
	resources := Resources(o.workstations, o.selectedWorkstations, o.tasks, o.state.GroupBy)
	view, _ := ResolveView(o.state.Start, o.state.End, o.state.Detail)

	notices := o.notices
	o.notices = nil

	return Snapshot{
		Events:    events,
		Resources: resources,
		View:      view,
		State:     o.state,
		Notices:   notices,
		Loading:   o.fetching,
	}
}

// State returns a copy of the current range state.
func (o *Orchestrator) State() domain.RangeState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// fetch runs one pass of the fetch pipeline. A fetch already in flight
// drops the new request; the completing fetch applies its result only if
// no state change was issued after it started.
func (o *Orchestrator) fetch(ctx context.Context) error {
	o.mu.Lock()
	if o.fetching {
		o.mu.Unlock()
		return nil
	}
	if o.state.Start.IsZero() || o.state.End.IsZero() || o.state.Start.After(o.state.End) {
		o.notifyLocked(NoticeError, "invalid date range")
		o.mu.Unlock()
		return ErrInvalidRange
	}
	o.fetching = true
	seq := o.stateSeq
	r := rangecache.Range{Start: o.state.Start, End: o.state.End}
	o.mu.Unlock()

	tasks, err := o.cache.GetOrFetch(ctx, r, func(ctx context.Context, r rangecache.Range) ([]domain.Task, error) {
		return o.source.TasksByRange(ctx, r.Start, r.End)
	})

	o.mu.Lock()
	defer o.mu.Unlock()
	o.fetching = false
	if err != nil {
		// Previous task set stays on screen; retry happens on the next
		// triggering action.
		o.log.Error().Err(err).Time("start", r.Start).Time("end", r.End).Msg("task fetch failed")
		o.notifyLocked(NoticeError, "could not load tasks: "+err.Error())
		return err
	}
	if seq != o.stateSeq {
		o.log.Debug().Uint64("issued", seq).Uint64("current", o.stateSeq).Msg("discarding outdated fetch result")
		return nil
	}
	o.tasks = tasks
	o.dropSupersededEditsLocked(tasks)
	return nil
}

// afterRangeChangeLocked re-resolves the view and invalidates any
// in-flight fetch by bumping the state sequence.
func (o *Orchestrator) afterRangeChangeLocked() {
	o.stateSeq++
	o.resolveViewLocked()
}

func (o *Orchestrator) resolveViewLocked() {
	cfg, downgraded := ResolveView(o.state.Start, o.state.End, o.state.Detail)
	if downgraded {
		o.state.Detail = domain.DetailDay
		o.notifyLocked(NoticeWarn, "range too large for hourly view, switched to day detail")
	}
	o.state.View = cfg.View
}

// dropSupersededEditsLocked clears pending edits for tasks whose fresh
// server copy is at least as new as the edit.
func (o *Orchestrator) dropSupersededEditsLocked(tasks []domain.Task) {
	for _, t := range tasks {
		edit, ok := o.pendingEdits[t.ID]
		if !ok {
			continue
		}
		if !t.UpdatedAt.IsZero() && !t.UpdatedAt.Before(edit.LastModified) {
			delete(o.pendingEdits, t.ID)
		}
	}
}

// pruneExpiredEditsLocked drops edits past the edit TTL so a task that
// left the queried window cannot pin a stale override forever.
func (o *Orchestrator) pruneExpiredEditsLocked() {
	cutoff := o.now().Add(-o.editTTL)
	for id, edit := range o.pendingEdits {
		if edit.LastModified.Before(cutoff) {
			delete(o.pendingEdits, id)
		}
	}
}

func (o *Orchestrator) hasTaskLocked(id string) bool {
	for _, t := range o.tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}

func (o *Orchestrator) notifyLocked(level NoticeLevel, msg string) {
	o.notices = append(o.notices, Notice{
		ID:      uuid.NewString(),
		Level:   level,
		Message: msg,
		At:      o.now(),
	})
	if len(o.notices) > maxNotices {
		o.notices = o.notices[len(o.notices)-maxNotices:]
	}
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func cloneSet(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
