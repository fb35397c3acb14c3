package models

import "time"

type ShiftStatus string

const (
	StatusOpen       ShiftStatus = "open"
	StatusAssigned   ShiftStatus = "assigned"
	StatusInProgress ShiftStatus = "in-progress"
	StatusCompleted  ShiftStatus = "completed"
)

// Shift is an actual worked record: real clock-in/clock-out time plus the
// payroll snapshot fixed at creation. At most one shift system-wide may be
// in-progress at a time (one shared duty station); convergence to that
// invariant is eventual, via the handoff flow.
type Shift struct {
	ID          string      `json:"id"`
	CaregiverID string      `json:"caregiverId"`
	StartTime   time.Time   `json:"startTime"`
	EndTime     *time.Time  `json:"endTime,omitempty"`
	PayType     PayType     `json:"payType,omitempty"`
	HourlyRate  float64     `json:"hourlyRate"`
	ShiftRate   float64     `json:"shiftRate,omitempty"`
	IsPaid      bool        `json:"isPaid"`
	Status      ShiftStatus `json:"status"`
	ShiftName   string      `json:"shiftName,omitempty"`
}

func (s *Shift) IsActive() bool {
	return s.Status == StatusInProgress && s.EndTime == nil
}
