package store

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/cgtm/cgtm_backend/internal/cache"
	"github.com/cgtm/cgtm_backend/internal/models"
)

func normalizeShift(s models.Shift) models.Shift {
	if s.PayType == "" {
		s.PayType = models.PayHourly
	}
	return s
}

func normalizeScheduledShift(s models.ScheduledShift) models.ScheduledShift {
	if s.PayType == "" {
		s.PayType = models.PayHourly
	}
	return s
}

// ListShifts fetches the worked-shift collection remote-first, newest first.
func (c *Client) ListShifts(ctx context.Context) []models.Shift {
	records, err := c.remote.List(ctx, "shifts")
	if err != nil {
		c.logger.Warn("Remote shift fetch failed, using cached snapshot", zap.Error(err))
		return c.cachedShifts(ctx)
	}

	shifts := make([]models.Shift, 0, len(records))
	for id, raw := range records {
		var s models.Shift
		if err := json.Unmarshal(raw, &s); err != nil {
			c.logger.Error("Skipping undecodable shift record", zap.String("id", id), zap.Error(err))
			continue
		}
		shifts = append(shifts, normalizeShift(s))
	}
	sort.Slice(shifts, func(i, j int) bool { return shifts[i].StartTime.After(shifts[j].StartTime) })

	c.writeCache(ctx, cache.KeyShifts, shifts)
	return shifts
}

func (c *Client) cachedShifts(ctx context.Context) []models.Shift {
	var shifts []models.Shift
	c.readCache(ctx, cache.KeyShifts, &shifts)
	for i := range shifts {
		shifts[i] = normalizeShift(shifts[i])
	}
	if shifts == nil {
		shifts = []models.Shift{}
	}
	return shifts
}

func (c *Client) GetShift(ctx context.Context, id string) (*models.Shift, bool) {
	for _, s := range c.ListShifts(ctx) {
		if s.ID == id {
			return &s, true
		}
	}
	return nil, false
}

// GetAnyActiveShift returns the system-wide in-progress shift, if one exists.
func (c *Client) GetAnyActiveShift(ctx context.Context) (*models.Shift, bool) {
	for _, s := range c.ListShifts(ctx) {
		if s.IsActive() {
			return &s, true
		}
	}
	return nil, false
}

func (c *Client) SaveShift(ctx context.Context, shift models.Shift) {
	shifts := c.cachedShifts(ctx)
	replaced := false
	for i := range shifts {
		if shifts[i].ID == shift.ID {
			shifts[i] = shift
			replaced = true
			break
		}
	}
	if !replaced {
		shifts = append(shifts, shift)
	}
	c.writeCache(ctx, cache.KeyShifts, shifts)

	if err := c.remote.Set(ctx, "shifts/"+shift.ID, shift); err != nil {
		c.logger.Warn("Remote shift write failed", zap.String("id", shift.ID), zap.Error(err))
	}
}

func (c *Client) DeleteShift(ctx context.Context, id string) {
	shifts := c.cachedShifts(ctx)
	filtered := shifts[:0]
	for _, s := range shifts {
		if s.ID != id {
			filtered = append(filtered, s)
		}
	}
	c.writeCache(ctx, cache.KeyShifts, filtered)

	if err := c.remote.Remove(ctx, "shifts/"+id); err != nil {
		c.logger.Warn("Remote shift delete failed", zap.String("id", id), zap.Error(err))
	}
}

// ListScheduledShifts fetches the published-shift collection remote-first,
// soonest first.
func (c *Client) ListScheduledShifts(ctx context.Context) []models.ScheduledShift {
	records, err := c.remote.List(ctx, "scheduled_shifts")
	if err != nil {
		c.logger.Warn("Remote scheduled-shift fetch failed, using cached snapshot", zap.Error(err))
		return c.cachedScheduledShifts(ctx)
	}

	shifts := make([]models.ScheduledShift, 0, len(records))
	for id, raw := range records {
		var s models.ScheduledShift
		if err := json.Unmarshal(raw, &s); err != nil {
			c.logger.Error("Skipping undecodable scheduled shift", zap.String("id", id), zap.Error(err))
			continue
		}
		shifts = append(shifts, normalizeScheduledShift(s))
	}
	sort.Slice(shifts, func(i, j int) bool {
		return shifts[i].ScheduledStartTime.Before(shifts[j].ScheduledStartTime)
	})

	c.writeCache(ctx, cache.KeyScheduledShifts, shifts)
	return shifts
}

func (c *Client) cachedScheduledShifts(ctx context.Context) []models.ScheduledShift {
	var shifts []models.ScheduledShift
	c.readCache(ctx, cache.KeyScheduledShifts, &shifts)
	for i := range shifts {
		shifts[i] = normalizeScheduledShift(shifts[i])
	}
	if shifts == nil {
		shifts = []models.ScheduledShift{}
	}
	return shifts
}

func (c *Client) GetScheduledShift(ctx context.Context, id string) (*models.ScheduledShift, bool) {
	for _, s := range c.ListScheduledShifts(ctx) {
		if s.ID == id {
			return &s, true
		}
	}
	return nil, false
}

func (c *Client) SaveScheduledShift(ctx context.Context, shift models.ScheduledShift) {
	shifts := c.cachedScheduledShifts(ctx)
	replaced := false
	for i := range shifts {
		if shifts[i].ID == shift.ID {
			shifts[i] = shift
			replaced = true
			break
		}
	}
	if !replaced {
		shifts = append(shifts, shift)
	}
	c.writeCache(ctx, cache.KeyScheduledShifts, shifts)

	if err := c.remote.Set(ctx, "scheduled_shifts/"+shift.ID, shift); err != nil {
		c.logger.Warn("Remote scheduled-shift write failed", zap.String("id", shift.ID), zap.Error(err))
	}
}

// ScheduledShiftUpdate is a partial-field update; nil fields are left unchanged.
type ScheduledShiftUpdate struct {
	Date               *string
	ScheduledStartTime *time.Time
	ScheduledEndTime   *time.Time
	CaregiverID        *string
	Status             *models.ShiftStatus
	ShiftName          *string
	PayType            *models.PayType
	HourlyRate         *float64
	ShiftRate          *float64
}

func (c *Client) UpdateScheduledShift(ctx context.Context, id string, updates ScheduledShiftUpdate) (*models.ScheduledShift, bool) {
	shift, ok := c.GetScheduledShift(ctx, id)
	if !ok {
		return nil, false
	}
	if updates.Date != nil {
		shift.Date = *updates.Date
	}
	if updates.ScheduledStartTime != nil {
		shift.ScheduledStartTime = *updates.ScheduledStartTime
	}
	if updates.ScheduledEndTime != nil {
		shift.ScheduledEndTime = *updates.ScheduledEndTime
	}
	if updates.CaregiverID != nil {
		shift.CaregiverID = *updates.CaregiverID
	}
	if updates.Status != nil {
		shift.Status = *updates.Status
	}
	if updates.ShiftName != nil {
		shift.ShiftName = *updates.ShiftName
	}
	if updates.PayType != nil {
		shift.PayType = *updates.PayType
	}
	if updates.HourlyRate != nil {
		shift.HourlyRate = *updates.HourlyRate
	}
	if updates.ShiftRate != nil {
		shift.ShiftRate = *updates.ShiftRate
	}
	c.SaveScheduledShift(ctx, *shift)
	return shift, true
}

func (c *Client) DeleteScheduledShift(ctx context.Context, id string) {
	shifts := c.cachedScheduledShifts(ctx)
	filtered := shifts[:0]
	for _, s := range shifts {
		if s.ID != id {
			filtered = append(filtered, s)
		}
	}
	c.writeCache(ctx, cache.KeyScheduledShifts, filtered)

	if err := c.remote.Remove(ctx, "scheduled_shifts/"+id); err != nil {
		c.logger.Warn("Remote scheduled-shift delete failed", zap.String("id", id), zap.Error(err))
	}
}
