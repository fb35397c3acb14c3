package shiftengine

import (
	"github.com/cgtm/cgtm_backend/internal/models"
)

// CalculatePay returns the earned amount for a shift. A shift without an
// end time has earned nothing yet. Per-shift pay is the fixed rate
// regardless of duration; hourly pay (the default) is duration in hours
// times the hourly rate. No rounding here; that happens at presentation time.
func CalculatePay(shift models.Shift) float64 {
	if shift.EndTime == nil {
		return 0
	}
	payType := shift.PayType
	if payType == "" {
		payType = models.PayHourly
	}
	if payType == models.PayPerShift {
		return shift.ShiftRate
	}
	return ShiftDuration(shift) * shift.HourlyRate
}

// ShiftDuration returns the worked duration in hours, 0 while still open.
func ShiftDuration(shift models.Shift) float64 {
	if shift.EndTime == nil {
		return 0
	}
	return shift.EndTime.Sub(shift.StartTime).Hours()
}
