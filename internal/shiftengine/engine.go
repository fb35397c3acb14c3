// Package shiftengine holds the shift lifecycle state machine:
// open -> assigned -> in-progress -> completed, the claim/drop conflict
// rules, the single-active-shift handoff, and the pay calculation.
//
// Coordination is optimistic: concurrent writers within the same poll
// window can race, and the single-active-shift invariant is enforced
// eventually (on the next read), not atomically.
package shiftengine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cgtm/cgtm_backend/internal/models"
	"github.com/cgtm/cgtm_backend/internal/store"
)

// dropCutoff is the no-self-cancel window: caregivers cannot drop a shift
// starting in less than 24 hours; exactly 24 hours out is still allowed.
const dropCutoff = 24 * time.Hour

type Engine struct {
	store  *store.Client
	logger *zap.Logger
	now    func() time.Time
}

func NewEngine(st *store.Client, logger *zap.Logger) *Engine {
	return &Engine{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

// ClaimShift assigns an open published shift to a caregiver, snapshotting
// the caregiver's current pay terms onto the record.
func (e *Engine) ClaimShift(ctx context.Context, shiftID, caregiverID string) Result {
	shift, found := e.store.GetScheduledShift(ctx, shiftID)
	if !found {
		return fail(KindNotFound, "Shift not found")
	}
	if shift.Status != models.StatusOpen {
		return fail(KindUnavailable, "Shift is no longer available")
	}

	scheduled := e.store.ListScheduledShifts(ctx)
	if HasConflict(scheduled, caregiverID, shift.ScheduledStartTime, shift.ScheduledEndTime) {
		return fail(KindConflict, "You have an overlapping shift at this time")
	}

	caregiver, found := e.store.GetUser(ctx, caregiverID)
	if !found {
		return fail(KindNotFound, "Caregiver not found")
	}

	shift.CaregiverID = caregiverID
	shift.Status = models.StatusAssigned
	shift.PayType = caregiver.PayType
	shift.HourlyRate = caregiver.HourlyRate
	shift.ShiftRate = caregiver.ShiftRate
	e.store.SaveScheduledShift(ctx, *shift)

	e.logger.Info("Shift claimed",
		zap.String("shift_id", shiftID),
		zap.String("caregiver_id", caregiverID),
	)
	return ok("Shift claimed successfully")
}

// DropShift reverts an assigned shift back to open. Only the assignee may
// drop, and only while at least 24 hours remain before the scheduled start.
func (e *Engine) DropShift(ctx context.Context, shiftID, caregiverID string) Result {
	shift, found := e.store.GetScheduledShift(ctx, shiftID)
	if !found {
		return fail(KindNotFound, "Shift not found")
	}
	if shift.CaregiverID != caregiverID {
		return fail(KindNotOwner, "This is not your shift")
	}
	if shift.ScheduledStartTime.Sub(e.now()) < dropCutoff {
		return fail(KindTooLate, "Cannot drop shift less than 24 hours before start. Contact Admin.")
	}

	shift.CaregiverID = ""
	shift.Status = models.StatusOpen
	e.store.SaveScheduledShift(ctx, *shift)

	e.logger.Info("Shift dropped",
		zap.String("shift_id", shiftID),
		zap.String("caregiver_id", caregiverID),
	)
	return ok("Shift dropped successfully")
}

// ClockInResult carries the new shift on success, or the identity of the
// currently clocked-in caregiver when a handoff confirmation is required.
type ClockInResult struct {
	Result
	Shift           *models.Shift `json:"shift,omitempty"`
	ActiveShiftID   string        `json:"activeShiftId,omitempty"`
	ActiveCaregiver string        `json:"activeCaregiverName,omitempty"`
}

// ClockIn starts a new in-progress shift for the caregiver. If someone
// else is already clocked in, the caller must confirm the handoff; the
// existing shift is then ended before the new one starts, with the two
// remote writes serialized to keep at most one shift in progress. A
// caregiver clocking in over their own forgotten shift is an implicit
// handoff to self.
func (e *Engine) ClockIn(ctx context.Context, caregiverID string, confirmHandoff bool) ClockInResult {
	caregiver, found := e.store.GetUser(ctx, caregiverID)
	if !found {
		return ClockInResult{Result: fail(KindNotFound, "Caregiver not found")}
	}

	active, hasActive := e.store.GetAnyActiveShift(ctx)
	if hasActive && active.CaregiverID != caregiverID && !confirmHandoff {
		name := e.caregiverName(ctx, active.CaregiverID)
		return ClockInResult{
			Result:          fail(KindHandoffRequired, fmt.Sprintf("%s is currently clocked in. Confirm handoff to continue.", name)),
			ActiveShiftID:   active.ID,
			ActiveCaregiver: name,
		}
	}

	var handoff string
	if hasActive {
		ended := e.AutoEndActiveShift(ctx)
		if ended.Ended && ended.CaregiverName != caregiver.Name {
			handoff = ended.CaregiverName
		}
	}

	newShift := models.Shift{
		ID:          uuid.NewString(),
		CaregiverID: caregiverID,
		StartTime:   e.now(),
		PayType:     caregiver.PayType,
		HourlyRate:  caregiver.HourlyRate,
		ShiftRate:   caregiver.ShiftRate,
		IsPaid:      false,
		Status:      models.StatusInProgress,
	}
	e.store.SaveShift(ctx, newShift)

	e.logger.Info("Clocked in",
		zap.String("shift_id", newShift.ID),
		zap.String("caregiver_id", caregiverID),
		zap.Bool("handoff", handoff != ""),
	)

	message := "Clocked in"
	if handoff != "" {
		message = fmt.Sprintf("%s has been clocked out. Your shift has started.", handoff)
	}
	return ClockInResult{Result: ok(message), Shift: &newShift}
}

// ClockOutSummary reports the worked duration and earned amount. The
// summary is informational; it does not mark the shift paid.
type ClockOutSummary struct {
	Result
	Shift         *models.Shift `json:"shift,omitempty"`
	DurationHours float64       `json:"durationHours"`
	Amount        float64       `json:"amount"`
}

// ClockOut ends an in-progress shift and returns its pay summary.
func (e *Engine) ClockOut(ctx context.Context, shiftID string) ClockOutSummary {
	shift, found := e.store.GetShift(ctx, shiftID)
	if !found {
		return ClockOutSummary{Result: fail(KindNotFound, "Shift not found")}
	}
	if !shift.IsActive() {
		return ClockOutSummary{Result: fail(KindNotActive, "Shift is not in progress")}
	}

	endTime := e.now()
	shift.EndTime = &endTime
	shift.Status = models.StatusCompleted
	e.store.SaveShift(ctx, *shift)

	e.logger.Info("Clocked out",
		zap.String("shift_id", shiftID),
		zap.String("caregiver_id", shift.CaregiverID),
	)
	return ClockOutSummary{
		Result:        ok("Clocked out"),
		Shift:         shift,
		DurationHours: ShiftDuration(*shift),
		Amount:        CalculatePay(*shift),
	}
}

// AutoEndResult reports whether a shift was force-completed and, if so,
// which one and whose it was.
type AutoEndResult struct {
	Ended         bool   `json:"ended"`
	ShiftID       string `json:"shiftId,omitempty"`
	CaregiverName string `json:"caregiverName,omitempty"`
}

// AutoEndActiveShift force-completes the system-wide in-progress shift, if
// any. Idempotent: with no active shift it is a no-op. Both the handoff
// flow and admin cleanup go through here.
func (e *Engine) AutoEndActiveShift(ctx context.Context) AutoEndResult {
	active, hasActive := e.store.GetAnyActiveShift(ctx)
	if !hasActive {
		return AutoEndResult{Ended: false}
	}

	endTime := e.now()
	active.EndTime = &endTime
	active.Status = models.StatusCompleted
	e.store.SaveShift(ctx, *active)

	name := e.caregiverName(ctx, active.CaregiverID)
	e.logger.Info("Auto-ended active shift",
		zap.String("shift_id", active.ID),
		zap.String("caregiver", name),
	)
	return AutoEndResult{Ended: true, ShiftID: active.ID, CaregiverName: name}
}

// MarkPaid flags a completed shift as paid. Safe to call twice.
func (e *Engine) MarkPaid(ctx context.Context, shiftID string) Result {
	shift, found := e.store.GetShift(ctx, shiftID)
	if !found {
		return fail(KindNotFound, "Shift not found")
	}
	if shift.IsPaid {
		return ok("Shift already marked paid")
	}

	shift.IsPaid = true
	e.store.SaveShift(ctx, *shift)
	return ok("Shift marked paid")
}

func (e *Engine) caregiverName(ctx context.Context, caregiverID string) string {
	if user, found := e.store.GetUser(ctx, caregiverID); found {
		return user.Name
	}
	return "Another caregiver"
}
