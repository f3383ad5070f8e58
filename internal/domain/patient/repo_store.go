package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/intake/intake/internal/platform/store"
)

// patientDoc is the JSON shape persisted in the document store.
type patientDoc struct {
	UserID string `json:"user_id"`

	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	BirthDate string `json:"birth_date"`
	Gender    string `json:"gender"`
	Address   string `json:"address"`

	Occupation             string `json:"occupation"`
	EmergencyContactName   string `json:"emergency_contact_name"`
	EmergencyContactNumber string `json:"emergency_contact_number"`

	PrimaryPhysician      string `json:"primary_physician"`
	InsuranceProvider     string `json:"insurance_provider"`
	InsurancePolicyNumber string `json:"insurance_policy_number"`

	Allergies            *string `json:"allergies,omitempty"`
	CurrentMedication    *string `json:"current_medication,omitempty"`
	FamilyMedicalHistory *string `json:"family_medical_history,omitempty"`
	PastMedicalHistory   *string `json:"past_medical_history,omitempty"`

	IdentificationType       *string `json:"identification_type,omitempty"`
	IdentificationNumber     *string `json:"identification_number,omitempty"`
	IdentificationDocumentID *string `json:"identification_document_id,omitempty"`

	TreatmentConsent  bool `json:"treatment_consent"`
	DisclosureConsent bool `json:"disclosure_consent"`
	PrivacyConsent    bool `json:"privacy_consent"`
}

// StoreRepository implements Repository on top of the document store.
type StoreRepository struct {
	store      store.Store
	collection string
}

// NewStoreRepository creates a store-backed patient repository.
func NewStoreRepository(s store.Store, collection string) *StoreRepository {
	return &StoreRepository{store: s, collection: collection}
}

func (r *StoreRepository) Create(ctx context.Context, p *Patient) (*Patient, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	rec, err := r.store.Create(ctx, r.collection, p.ID, toDoc(p))
	if err != nil {
		return nil, err
	}
	return fromRecord(rec)
}

func (r *StoreRepository) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	rec, err := r.store.Get(ctx, r.collection, id)
	if err != nil {
		return nil, err
	}
	return fromRecord(rec)
}

func (r *StoreRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*Patient, error) {
	res, err := r.store.List(ctx, r.collection, store.ListOptions{OrderByCreatedDesc: true})
	if err != nil {
		return nil, err
	}

	for _, rec := range res.Documents {
		p, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, nil
}

func (r *StoreRepository) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	res, err := r.store.List(ctx, r.collection, store.ListOptions{
		OrderByCreatedDesc: true,
		Limit:              limit,
		Offset:             offset,
	})
	if err != nil {
		return nil, 0, err
	}

	patients := make([]*Patient, 0, len(res.Documents))
	for _, rec := range res.Documents {
		p, err := fromRecord(rec)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	return patients, res.Total, nil
}

func toDoc(p *Patient) patientDoc {
	return patientDoc{
		UserID:                   p.UserID.String(),
		Name:                     p.Name,
		Email:                    p.Email,
		Phone:                    p.Phone,
		BirthDate:                p.BirthDate,
		Gender:                   p.Gender,
		Address:                  p.Address,
		Occupation:               p.Occupation,
		EmergencyContactName:     p.EmergencyContactName,
		EmergencyContactNumber:   p.EmergencyContactNumber,
		PrimaryPhysician:         p.PrimaryPhysician,
		InsuranceProvider:        p.InsuranceProvider,
		InsurancePolicyNumber:    p.InsurancePolicyNumber,
		Allergies:                p.Allergies,
		CurrentMedication:        p.CurrentMedication,
		FamilyMedicalHistory:     p.FamilyMedicalHistory,
		PastMedicalHistory:       p.PastMedicalHistory,
		IdentificationType:       p.IdentificationType,
		IdentificationNumber:     p.IdentificationNumber,
		IdentificationDocumentID: p.IdentificationDocumentID,
		TreatmentConsent:         p.TreatmentConsent,
		DisclosureConsent:        p.DisclosureConsent,
		PrivacyConsent:           p.PrivacyConsent,
	}
}

func fromRecord(rec *store.Record) (*Patient, error) {
	var doc patientDoc
	if err := rec.Decode(&doc); err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(doc.UserID)
	if err != nil {
		return nil, err
	}

	return &Patient{
		ID:                       rec.ID,
		UserID:                   userID,
		Name:                     doc.Name,
		Email:                    doc.Email,
		Phone:                    doc.Phone,
		BirthDate:                doc.BirthDate,
		Gender:                   doc.Gender,
		Address:                  doc.Address,
		Occupation:               doc.Occupation,
		EmergencyContactName:     doc.EmergencyContactName,
		EmergencyContactNumber:   doc.EmergencyContactNumber,
		PrimaryPhysician:         doc.PrimaryPhysician,
		InsuranceProvider:        doc.InsuranceProvider,
		InsurancePolicyNumber:    doc.InsurancePolicyNumber,
		Allergies:                doc.Allergies,
		CurrentMedication:        doc.CurrentMedication,
		FamilyMedicalHistory:     doc.FamilyMedicalHistory,
		PastMedicalHistory:       doc.PastMedicalHistory,
		IdentificationType:       doc.IdentificationType,
		IdentificationNumber:     doc.IdentificationNumber,
		IdentificationDocumentID: doc.IdentificationDocumentID,
		TreatmentConsent:         doc.TreatmentConsent,
		DisclosureConsent:        doc.DisclosureConsent,
		PrivacyConsent:           doc.PrivacyConsent,
		CreatedAt:                rec.CreatedAt,
		UpdatedAt:                rec.UpdatedAt,
	}, nil
}
