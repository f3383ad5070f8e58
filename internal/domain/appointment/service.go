package appointment

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/intake/intake/internal/platform/validate"
)

// AdminViewPath is the cached view refreshed when appointment data changes.
const AdminViewPath = "/admin"

type Service struct {
	appointments Repository
	views        ViewInvalidator
	notifier     Notifier
	logger       zerolog.Logger
}

func NewService(appointments Repository, views ViewInvalidator, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{
		appointments: appointments,
		views:        views,
		notifier:     notifier,
		logger:       logger,
	}
}

// Create books a new appointment. It always starts in pending status; the
// admin moves it to scheduled or cancelled later.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Appointment, error) {
	in.Physician = strings.TrimSpace(in.Physician)
	in.Reason = strings.TrimSpace(in.Reason)

	v := validate.New().
		Required("physician", in.Physician).
		Required("reason", in.Reason).
		MaxLen("reason", in.Reason, 2000)
	if in.PatientID == uuid.Nil {
		v.Required("patient_id", "")
	}
	if in.UserID == uuid.Nil {
		v.Required("user_id", "")
	}
	if in.Schedule.IsZero() {
		v.Required("schedule", "")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	a, err := s.appointments.Create(ctx, &Appointment{
		PatientID: in.PatientID,
		UserID:    in.UserID,
		Physician: in.Physician,
		Schedule:  in.Schedule,
		Reason:    in.Reason,
		Note:      in.Note,
		Status:    StatusPending,
	})
	if err != nil {
		return nil, err
	}

	s.views.Invalidate(AdminViewPath)

	s.logger.Info().
		Str("appointment_id", a.ID.String()).
		Str("patient_id", a.PatientID.String()).
		Str("physician", a.Physician).
		Msg("appointment requested")

	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

// ListRecent returns the admin dashboard aggregate: appointments newest
// first plus per-status counts. Counts cover the returned documents; an
// appointment in an unknown status stays in the list but is excluded from
// every status counter.
func (s *Service) ListRecent(ctx context.Context, limit, offset int) (*Aggregate, error) {
	appts, total, err := s.appointments.ListRecent(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	agg := &Aggregate{
		TotalCount: total,
		Documents:  appts,
	}
	for _, a := range appts {
		switch a.Status {
		case StatusScheduled:
			agg.ScheduledCount++
		case StatusPending:
			agg.PendingCount++
		case StatusCancelled:
			agg.CancelledCount++
		}
	}
	return agg, nil
}

// Update applies a scheduling or cancellation change, enforcing the status
// state machine. On success the admin view is invalidated and the patient is
// notified of the status change.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Appointment, error) {
	if in.Status == "" {
		return nil, validate.FieldErrors{"status": "is required"}
	}
	if !validStatuses[in.Status] {
		return nil, validate.FieldErrors{"status": "must be one of: pending, scheduled, cancelled"}
	}

	existing, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanTransition(existing.Status, in.Status) {
		return nil, &InvalidTransitionError{From: existing.Status, To: in.Status}
	}

	if in.Status == StatusCancelled {
		if in.CancellationReason == nil || strings.TrimSpace(*in.CancellationReason) == "" {
			return nil, validate.FieldErrors{"cancellation_reason": "is required when cancelling"}
		}
	}

	patch := map[string]interface{}{
		"status": string(in.Status),
	}
	if in.Physician != nil {
		patch["physician"] = strings.TrimSpace(*in.Physician)
	}
	if in.Schedule != nil {
		patch["schedule"] = *in.Schedule
	}
	if in.Reason != nil {
		patch["reason"] = strings.TrimSpace(*in.Reason)
	}
	if in.Note != nil {
		patch["note"] = *in.Note
	}
	if in.CancellationReason != nil {
		patch["cancellation_reason"] = strings.TrimSpace(*in.CancellationReason)
	}

	updated, err := s.appointments.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.views.Invalidate(AdminViewPath)

	// Notify only on an actual status change, not on metadata patches.
	if updated.Status != existing.Status {
		switch updated.Status {
		case StatusScheduled:
			s.notifier.AppointmentScheduled(ctx, updated)
		case StatusCancelled:
			s.notifier.AppointmentCancelled(ctx, updated)
		}
	}

	s.logger.Info().
		Str("appointment_id", updated.ID.String()).
		Str("from_status", string(existing.Status)).
		Str("to_status", string(updated.Status)).
		Msg("appointment updated")

	return updated, nil
}
