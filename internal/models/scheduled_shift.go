package models

import "time"

// ScheduledShift is a published shift slot. CaregiverID is empty iff the
// status is open. The pay fields are a snapshot of the caregiver's profile
// taken at claim time.
type ScheduledShift struct {
	ID                 string      `json:"id"`
	Date               string      `json:"date"` // YYYY-MM-DD
	ScheduledStartTime time.Time   `json:"scheduledStartTime"`
	ScheduledEndTime   time.Time   `json:"scheduledEndTime"`
	CaregiverID        string      `json:"caregiverId,omitempty"`
	Status             ShiftStatus `json:"status"`
	ShiftName          string      `json:"shiftName,omitempty"`
	PayType            PayType     `json:"payType,omitempty"`
	HourlyRate         float64     `json:"hourlyRate,omitempty"`
	ShiftRate          float64     `json:"shiftRate,omitempty"`
}

func (s *ScheduledShift) IsOpen() bool {
	return s.Status == StatusOpen
}
