package shiftengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cgtm/cgtm_backend/internal/models"
)

func completedShift(payType models.PayType, hourlyRate, shiftRate float64, worked time.Duration) models.Shift {
	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	end := start.Add(worked)
	return models.Shift{
		ID:          "shift-1",
		CaregiverID: "caregiver-1",
		StartTime:   start,
		EndTime:     &end,
		PayType:     payType,
		HourlyRate:  hourlyRate,
		ShiftRate:   shiftRate,
		Status:      models.StatusCompleted,
	}
}

func TestCalculatePayHourly(t *testing.T) {
	shift := completedShift(models.PayHourly, 25.0, 0, 8*time.Hour)
	assert.InDelta(t, 200.0, CalculatePay(shift), 0.001)
}

func TestCalculatePayHourlyFractional(t *testing.T) {
	shift := completedShift(models.PayHourly, 20.0, 0, 8*time.Hour+30*time.Minute)
	assert.InDelta(t, 170.0, CalculatePay(shift), 0.001)
}

func TestCalculatePayPerShiftIgnoresDuration(t *testing.T) {
	short := completedShift(models.PayPerShift, 0, 200.0, 2*time.Hour)
	long := completedShift(models.PayPerShift, 0, 200.0, 12*time.Hour)
	assert.InDelta(t, 200.0, CalculatePay(short), 0.001)
	assert.InDelta(t, 200.0, CalculatePay(long), 0.001)
}

func TestCalculatePayNoEndTime(t *testing.T) {
	shift := completedShift(models.PayHourly, 25.0, 0, 8*time.Hour)
	shift.EndTime = nil
	assert.Zero(t, CalculatePay(shift))
	assert.Zero(t, ShiftDuration(shift))
}

func TestCalculatePayEmptyPayTypeDefaultsToHourly(t *testing.T) {
	shift := completedShift("", 30.0, 500.0, 4*time.Hour)
	assert.InDelta(t, 120.0, CalculatePay(shift), 0.001)
}

func TestShiftDurationHours(t *testing.T) {
	shift := completedShift(models.PayHourly, 25.0, 0, 90*time.Minute)
	assert.InDelta(t, 1.5, ShiftDuration(shift), 0.001)
}
