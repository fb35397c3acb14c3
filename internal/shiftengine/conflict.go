package shiftengine

import (
	"time"

	"github.com/cgtm/cgtm_backend/internal/models"
)

// HasConflict reports whether the proposed interval [newStart, newEnd)
// overlaps any scheduled shift already held by the caregiver (status other
// than open). Intervals are half-open, so back-to-back shifts do not
// conflict.
func HasConflict(shifts []models.ScheduledShift, caregiverID string, newStart, newEnd time.Time) bool {
	for _, s := range shifts {
		if s.CaregiverID != caregiverID || s.Status == models.StatusOpen {
			continue
		}
		if newStart.Before(s.ScheduledEndTime) && newEnd.After(s.ScheduledStartTime) {
			return true
		}
	}
	return false
}
