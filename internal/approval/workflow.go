// Package approval implements event submission by organizers and the admin decisions that
// move an event out of Pending.
package approval

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hapsayhub/backend/internal/bridge"
	"github.com/hapsayhub/backend/internal/models"
	"github.com/hapsayhub/backend/internal/status"
)

// Organizer defaults for fields left blank.
const (
	DefaultStartTime = "08:00"
	DefaultEndTime   = "17:00"
	DefaultCapacity  = 100
)

// Workflow writes events through the sync bridge.
type Workflow struct {
	events *bridge.Bridge[models.Event]
	logger *zap.Logger
	now    func() time.Time
}

// NewWorkflow creates a workflow over the event catalog.
func NewWorkflow(events *bridge.Bridge[models.Event], logger *zap.Logger) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{events: events, logger: logger, now: time.Now}
}

// Submit saves an organizer's event. New events start Pending with approvalOverride set;
// edits keep the stored status, approval flag and registration summary.
func (w *Workflow) Submit(ctx context.Context, ev models.Event) (models.Event, error) {
	trimEvent(&ev)
	if ev.Name == "" {
		return models.Event{}, &models.ValidationError{Field: "name", Message: "name is required"}
	}
	if ev.DateRange == "" {
		return models.Event{}, &models.ValidationError{Field: "date", Message: "date is required"}
	}
	if ev.StartTime == "" {
		ev.StartTime = DefaultStartTime
	}
	if ev.EndTime == "" {
		ev.EndTime = DefaultEndTime
	}
	if ev.Capacity <= 0 {
		ev.Capacity = DefaultCapacity
	}

	existing, found, err := w.lookup(ctx, ev.ID)
	if err != nil {
		return models.Event{}, err
	}
	if found {
		ev.Status = existing.Status
		ev.ApprovalOverride = existing.ApprovalOverride
		ev.Registration = existing.Registration
		if ev.Image == "" {
			ev.Image = existing.Image
		}
		ev.Status = status.Resolve(ev, w.now())
	} else {
		if ev.ID == 0 {
			if ev.ID, err = w.nextID(ctx); err != nil {
				return models.Event{}, err
			}
		}
		ev.Status = models.StatusPending
		ev.ApprovalOverride = true
		ev.Registration = models.RegistrationSummary(0, int64(ev.Capacity))
	}

	if err := w.events.Save(ctx, ev); err != nil {
		return models.Event{}, err
	}
	w.logger.Info("event submitted", zap.Int64("event_id", int64(ev.ID)), zap.String("status", string(ev.Status)))
	return ev, nil
}

// AdminSave creates or edits an event with its status computed immediately.
// An event that is still pending stays pending.
func (w *Workflow) AdminSave(ctx context.Context, ev models.Event) (models.Event, error) {
	trimEvent(&ev)
	for _, req := range []struct{ field, value string }{
		{"name", ev.Name},
		{"date", ev.DateRange},
		{"location", ev.Location},
		{"startTime", ev.StartTime},
		{"endTime", ev.EndTime},
	} {
		if req.value == "" {
			return models.Event{}, &models.ValidationError{Field: req.field, Message: req.field + " is required"}
		}
	}
	if ev.Capacity <= 0 {
		return models.Event{}, &models.ValidationError{Field: "capacity", Message: "capacity must be a positive number"}
	}

	existing, found, err := w.lookup(ctx, ev.ID)
	if err != nil {
		return models.Event{}, err
	}
	ev.ApprovalOverride = false
	ev.Status = ""
	if found {
		if existing.IsPending() {
			ev.ApprovalOverride = true
			ev.Status = models.StatusPending
		}
		if ev.Image == "" {
			ev.Image = existing.Image
		}
	} else if ev.ID == 0 {
		if ev.ID, err = w.nextID(ctx); err != nil {
			return models.Event{}, err
		}
	}
	ev.Registration = models.RegistrationSummary(0, int64(ev.Capacity))
	ev.Status = status.Resolve(ev, w.now())

	if err := w.events.Save(ctx, ev); err != nil {
		return models.Event{}, err
	}
	w.logger.Info("event saved by admin", zap.Int64("event_id", int64(ev.ID)), zap.String("status", string(ev.Status)))
	return ev, nil
}

// Approve clears the approval flag and persists the status computed at the current time.
func (w *Workflow) Approve(ctx context.Context, id string) (models.Event, error) {
	ev, err := w.events.Find(ctx, id)
	if err != nil {
		return models.Event{}, err
	}
	ev.ApprovalOverride = false
	ev.Status = status.Compute(ev.DateRange, ev.StartTime, ev.EndTime, w.now())
	if err := w.events.Save(ctx, ev); err != nil {
		return models.Event{}, err
	}
	w.logger.Info("event approved", zap.String("event_id", id), zap.String("status", string(ev.Status)))
	return ev, nil
}

// Decline removes the event. No rejected state is retained.
func (w *Workflow) Decline(ctx context.Context, id string) error {
	if _, err := w.events.Find(ctx, id); err != nil {
		return err
	}
	if err := w.events.Delete(ctx, id); err != nil {
		return err
	}
	w.logger.Info("event declined", zap.String("event_id", id))
	return nil
}

func (w *Workflow) lookup(ctx context.Context, id models.FlexInt) (models.Event, bool, error) {
	if id == 0 {
		return models.Event{}, false, nil
	}
	ev, err := w.events.Find(ctx, models.EventKey(models.Event{ID: id}))
	if errors.Is(err, models.ErrNotFound) {
		return models.Event{}, false, nil
	}
	if err != nil {
		return models.Event{}, false, err
	}
	return ev, true, nil
}

// nextID derives a new id from the clock in milliseconds, skipping ids already taken.
func (w *Workflow) nextID(ctx context.Context) (models.FlexInt, error) {
	all, err := w.events.ReadAll(ctx)
	if err != nil {
		return 0, err
	}
	taken := make(map[models.FlexInt]struct{}, len(all))
	for _, ev := range all {
		taken[ev.ID] = struct{}{}
	}
	id := models.FlexInt(w.now().UnixMilli())
	for {
		if _, ok := taken[id]; !ok {
			return id, nil
		}
		id++
	}
}

func trimEvent(ev *models.Event) {
	ev.Name = strings.TrimSpace(ev.Name)
	ev.Description = strings.TrimSpace(ev.Description)
	ev.DateRange = strings.TrimSpace(ev.DateRange)
	ev.Location = strings.TrimSpace(ev.Location)
	ev.StartTime = strings.TrimSpace(ev.StartTime)
	ev.EndTime = strings.TrimSpace(ev.EndTime)
}
