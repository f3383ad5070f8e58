package appointment

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/intake/intake/internal/platform/notification"
)

// scheduleDisplayLayout is how appointment times are rendered in patient
// messages.
const scheduleDisplayLayout = "January 2, 2006 at 3:04 PM"

// ViewInvalidator is notified when appointment data changes so cached views
// of the admin dashboard can be refreshed.
type ViewInvalidator interface {
	Invalidate(path string)
}

// LogInvalidator records invalidations in the structured log. Stands in for
// a real cache layer.
type LogInvalidator struct {
	logger zerolog.Logger
}

func NewLogInvalidator(logger zerolog.Logger) *LogInvalidator {
	return &LogInvalidator{logger: logger}
}

func (i *LogInvalidator) Invalidate(path string) {
	i.logger.Debug().Str("path", path).Msg("view invalidated")
}

// Notifier delivers patient-facing notifications for lifecycle changes.
// Delivery is best-effort; failures must not fail the underlying update.
type Notifier interface {
	AppointmentScheduled(ctx context.Context, a *Appointment)
	AppointmentCancelled(ctx context.Context, a *Appointment)
}

// ContactLookup resolves a patient's name and phone number for messaging.
type ContactLookup interface {
	Contact(ctx context.Context, patientID uuid.UUID) (name, phone string, err error)
}

// SMSNotifier sends appointment SMS messages through the notification
// manager.
type SMSNotifier struct {
	manager  *notification.Manager
	contacts ContactLookup
	logger   zerolog.Logger
}

func NewSMSNotifier(manager *notification.Manager, contacts ContactLookup, logger zerolog.Logger) *SMSNotifier {
	return &SMSNotifier{manager: manager, contacts: contacts, logger: logger}
}

func (n *SMSNotifier) AppointmentScheduled(ctx context.Context, a *Appointment) {
	name, phone, err := n.contacts.Contact(ctx, a.PatientID)
	if err != nil {
		n.logger.Error().Err(err).
			Str("appointment_id", a.ID.String()).
			Msg("contact lookup failed, skipping scheduled sms")
		return
	}

	_, err = n.manager.SendFromTemplate(ctx, notification.TemplateAppointmentScheduled, map[string]string{
		"patient_name": name,
		"physician":    a.Physician,
		"schedule":     a.Schedule.Format(scheduleDisplayLayout),
	}, phone)
	if err != nil {
		n.logger.Error().Err(err).
			Str("appointment_id", a.ID.String()).
			Msg("scheduled sms failed")
	}
}

func (n *SMSNotifier) AppointmentCancelled(ctx context.Context, a *Appointment) {
	name, phone, err := n.contacts.Contact(ctx, a.PatientID)
	if err != nil {
		n.logger.Error().Err(err).
			Str("appointment_id", a.ID.String()).
			Msg("contact lookup failed, skipping cancelled sms")
		return
	}

	reason := ""
	if a.CancellationReason != nil {
		reason = *a.CancellationReason
	}

	_, err = n.manager.SendFromTemplate(ctx, notification.TemplateAppointmentCancelled, map[string]string{
		"patient_name": name,
		"physician":    a.Physician,
		"reason":       reason,
	}, phone)
	if err != nil {
		n.logger.Error().Err(err).
			Str("appointment_id", a.ID.String()).
			Msg("cancelled sms failed")
	}
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) AppointmentScheduled(context.Context, *Appointment) {}
func (NopNotifier) AppointmentCancelled(context.Context, *Appointment) {}

// NopInvalidator discards all invalidations.
type NopInvalidator struct{}

func (NopInvalidator) Invalidate(string) {}
