package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusCancelled Status = "cancelled"
)

var validStatuses = map[Status]bool{
	StatusPending:   true,
	StatusScheduled: true,
	StatusCancelled: true,
}

// allowedTransitions encodes the lifecycle state machine. Same-status
// entries permit metadata-only updates. Cancelled is terminal.
var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusPending:   true,
		StatusScheduled: true,
		StatusCancelled: true,
	},
	StatusScheduled: {
		StatusScheduled: true,
		StatusCancelled: true,
	},
	StatusCancelled: {},
}

// CanTransition reports whether an appointment may move from one status to
// another.
func CanTransition(from, to Status) bool {
	return allowedTransitions[from][to]
}

// Appointment is a booking request made by a patient, managed through the
// admin dashboard.
type Appointment struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	UserID    uuid.UUID `json:"user_id"`

	Physician string    `json:"physician"`
	Schedule  time.Time `json:"schedule"`
	Reason    string    `json:"reason"`
	Note      *string   `json:"note,omitempty"`

	Status             Status  `json:"status"`
	CancellationReason *string `json:"cancellation_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateInput carries the booking form fields. New appointments always start
// pending regardless of any status supplied by the client.
type CreateInput struct {
	PatientID uuid.UUID `json:"patient_id"`
	UserID    uuid.UUID `json:"user_id"`
	Physician string    `json:"physician"`
	Schedule  time.Time `json:"schedule"`
	Reason    string    `json:"reason"`
	Note      *string   `json:"note,omitempty"`
}

// UpdateInput carries a scheduling or cancellation change. Nil fields are
// left untouched.
type UpdateInput struct {
	Physician          *string    `json:"physician,omitempty"`
	Schedule           *time.Time `json:"schedule,omitempty"`
	Reason             *string    `json:"reason,omitempty"`
	Note               *string    `json:"note,omitempty"`
	Status             Status     `json:"status"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`
}

// Aggregate is the admin dashboard view: the recent appointment list plus
// per-status counts. Appointments in an unrecognized status are included in
// TotalCount and Documents but excluded from the status counters.
type Aggregate struct {
	TotalCount     int            `json:"total_count"`
	ScheduledCount int            `json:"scheduled_count"`
	PendingCount   int            `json:"pending_count"`
	CancelledCount int            `json:"cancelled_count"`
	Documents      []*Appointment `json:"documents"`
}
