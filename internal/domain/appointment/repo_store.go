package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/intake/intake/internal/platform/store"
)

// appointmentDoc is the JSON shape persisted in the document store.
type appointmentDoc struct {
	PatientID          string    `json:"patient_id"`
	UserID             string    `json:"user_id"`
	Physician          string    `json:"physician"`
	Schedule           time.Time `json:"schedule"`
	Reason             string    `json:"reason"`
	Note               *string   `json:"note,omitempty"`
	Status             string    `json:"status"`
	CancellationReason *string   `json:"cancellation_reason,omitempty"`
}

// StoreRepository implements Repository on top of the document store.
type StoreRepository struct {
	store      store.Store
	collection string
}

// NewStoreRepository creates a store-backed appointment repository.
func NewStoreRepository(s store.Store, collection string) *StoreRepository {
	return &StoreRepository{store: s, collection: collection}
}

func (r *StoreRepository) Create(ctx context.Context, a *Appointment) (*Appointment, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	rec, err := r.store.Create(ctx, r.collection, a.ID, appointmentDoc{
		PatientID:          a.PatientID.String(),
		UserID:             a.UserID.String(),
		Physician:          a.Physician,
		Schedule:           a.Schedule,
		Reason:             a.Reason,
		Note:               a.Note,
		Status:             string(a.Status),
		CancellationReason: a.CancellationReason,
	})
	if err != nil {
		return nil, err
	}
	return fromRecord(rec)
}

func (r *StoreRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	rec, err := r.store.Get(ctx, r.collection, id)
	if err != nil {
		return nil, err
	}
	return fromRecord(rec)
}

func (r *StoreRepository) ListRecent(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	res, err := r.store.List(ctx, r.collection, store.ListOptions{
		OrderByCreatedDesc: true,
		Limit:              limit,
		Offset:             offset,
	})
	if err != nil {
		return nil, 0, err
	}

	appts := make([]*Appointment, 0, len(res.Documents))
	for _, rec := range res.Documents {
		a, err := fromRecord(rec)
		if err != nil {
			return nil, 0, err
		}
		appts = append(appts, a)
	}
	return appts, res.Total, nil
}

func (r *StoreRepository) Update(ctx context.Context, id uuid.UUID, patch map[string]interface{}) (*Appointment, error) {
	rec, err := r.store.Update(ctx, r.collection, id, patch)
	if err != nil {
		return nil, err
	}
	return fromRecord(rec)
}

func fromRecord(rec *store.Record) (*Appointment, error) {
	var doc appointmentDoc
	if err := rec.Decode(&doc); err != nil {
		return nil, err
	}

	patientID, err := uuid.Parse(doc.PatientID)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(doc.UserID)
	if err != nil {
		return nil, err
	}

	return &Appointment{
		ID:                 rec.ID,
		PatientID:          patientID,
		UserID:             userID,
		Physician:          doc.Physician,
		Schedule:           doc.Schedule,
		Reason:             doc.Reason,
		Note:               doc.Note,
		Status:             Status(doc.Status),
		CancellationReason: doc.CancellationReason,
		CreatedAt:          rec.CreatedAt,
		UpdatedAt:          rec.UpdatedAt,
	}, nil
}
