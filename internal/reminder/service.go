// Package reminder scans upcoming assigned shifts and pushes "starting
// soon" notifications to the assigned caregiver's registered device.
package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cgtm/cgtm_backend/internal/models"
	"github.com/cgtm/cgtm_backend/internal/recordstore"
	"github.com/cgtm/cgtm_backend/internal/store"
)

const tokenCollection = "notificationTokens"

// TokenRecord is the per-device registration stored at
// notificationTokens/{caregiverId} by the client.
type TokenRecord struct {
	Token string `json:"token"`
}

// NoTokenError means the caregiver never registered a push token. The
// registered ids are included as an operator hint.
type NoTokenError struct {
	CaregiverID string
	Registered  []string
}

func (e *NoTokenError) Error() string {
	return fmt.Sprintf("caregiver %s has no registered push token", e.CaregiverID)
}

type SendResult struct {
	ShiftName   string `json:"shiftName"`
	CaregiverID string `json:"caregiverId"`
	Success     bool   `json:"success"`
	Status      int    `json:"status"`
	Response    string `json:"response,omitempty"`
}

type ScanReport struct {
	Scanned int          `json:"scanned"`
	Sent    int          `json:"sent"`
	NoToken int          `json:"noToken"`
	Results []SendResult `json:"results"`
}

type Service struct {
	store   *store.Client
	records recordstore.Client
	gateway Gateway
	logger  *zap.Logger
	lead    time.Duration
	now     func() time.Time

	mu   sync.Mutex
	sent map[string]time.Time // shift id -> when reminded
}

func NewService(st *store.Client, records recordstore.Client, gateway Gateway, lead time.Duration, logger *zap.Logger) *Service {
	return &Service{
		store:   st,
		records: records,
		gateway: gateway,
		logger:  logger,
		lead:    lead,
		now:     time.Now,
		sent:    make(map[string]time.Time),
	}
}

// ScanAndSend finds assigned shifts starting within the lead window and
// dispatches one reminder per shift. Shifts already reminded are skipped.
func (s *Service) ScanAndSend(ctx context.Context) (ScanReport, error) {
	report := ScanReport{Results: []SendResult{}}
	if s.gateway == nil {
		return report, fmt.Errorf("messaging gateway not configured")
	}

	tokens, err := s.loadTokens(ctx)
	if err != nil {
		return report, err
	}

	now := s.now()
	for _, shift := range s.store.ListScheduledShifts(ctx) {
		if shift.CaregiverID == "" || shift.Status == models.StatusCompleted || shift.Status == models.StatusOpen {
			continue
		}
		until := shift.ScheduledStartTime.Sub(now)
		if until < 0 || until > s.lead {
			continue
		}
		report.Scanned++
		if s.alreadyReminded(shift.ID) {
			continue
		}

		token, registered := tokens[shift.CaregiverID]
		if !registered || token.Token == "" {
			report.NoToken++
			continue
		}

		result := s.dispatch(ctx, token.Token, shift.CaregiverID, shift.ShiftName, shift.ScheduledStartTime)
		report.Results = append(report.Results, result)
		if result.Success {
			report.Sent++
			s.markReminded(shift.ID)
		}
	}
	return report, nil
}

// SendNow is the operator-initiated path: it bypasses the time window and
// sends a single reminder immediately.
func (s *Service) SendNow(ctx context.Context, caregiverID, shiftName string, scheduledStart time.Time) (SendResult, error) {
	if s.gateway == nil {
		return SendResult{}, fmt.Errorf("messaging gateway not configured")
	}

	tokens, err := s.loadTokens(ctx)
	if err != nil {
		return SendResult{}, err
	}
	token, registered := tokens[caregiverID]
	if !registered || token.Token == "" {
		ids := make([]string, 0, len(tokens))
		for id := range tokens {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		return SendResult{}, &NoTokenError{CaregiverID: caregiverID, Registered: ids}
	}

	return s.dispatch(ctx, token.Token, caregiverID, shiftName, scheduledStart), nil
}

func (s *Service) dispatch(ctx context.Context, token, caregiverID, shiftName string, start time.Time) SendResult {
	name := shiftName
	if name == "" {
		name = "Scheduled Shift"
	}
	startLocal := start.Local().Format("3:04 PM")

	status, response, err := s.gateway.Send(ctx,
		token,
		"Shift Reminder",
		fmt.Sprintf("Your shift %q is starting soon.", name),
		map[string]string{
			"shiftName":          name,
			"scheduledStartTime": start.Format(time.RFC3339),
			"startTimeLocal":     startLocal,
		},
	)
	if err != nil {
		s.logger.Error("Reminder dispatch failed",
			zap.String("caregiver_id", caregiverID),
			zap.Error(err),
		)
		return SendResult{ShiftName: name, CaregiverID: caregiverID, Success: false, Response: err.Error()}
	}

	success := status >= http.StatusOK && status < http.StatusMultipleChoices
	if success {
		s.logger.Info("Reminder sent",
			zap.String("caregiver_id", caregiverID),
			zap.String("shift_name", name),
		)
	}
	return SendResult{
		ShiftName:   name,
		CaregiverID: caregiverID,
		Success:     success,
		Status:      status,
		Response:    response,
	}
}

func (s *Service) loadTokens(ctx context.Context) (map[string]TokenRecord, error) {
	records, err := s.records.List(ctx, tokenCollection)
	if err != nil {
		return nil, fmt.Errorf("fetch notification tokens: %w", err)
	}
	tokens := make(map[string]TokenRecord, len(records))
	for id, raw := range records {
		var rec TokenRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			s.logger.Warn("Skipping undecodable token record", zap.String("id", id), zap.Error(err))
			continue
		}
		tokens[id] = rec
	}
	return tokens, nil
}

func (s *Service) alreadyReminded(shiftID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, seen := s.sent[shiftID]
	return seen
}

func (s *Service) markReminded(shiftID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent[shiftID] = s.now()
	// Prune entries old enough to be irrelevant.
	cutoff := s.now().Add(-24 * time.Hour)
	for id, at := range s.sent {
		if at.Before(cutoff) {
			delete(s.sent, id)
		}
	}
}
