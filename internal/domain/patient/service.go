package patient

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/intake/intake/internal/platform/blobstore"
	"github.com/intake/intake/internal/platform/validate"
)

// birthDateLayouts are the accepted input formats, normalized to dateLayout
// on storage.
var birthDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
}

const dateLayout = "2006-01-02"

type Service struct {
	patients Repository
	blobs    blobstore.BlobStore
	logger   zerolog.Logger
}

func NewService(patients Repository, blobs blobstore.BlobStore, logger zerolog.Logger) *Service {
	return &Service{patients: patients, blobs: blobs, logger: logger}
}

// Register validates the registration form, uploads the identification
// document when one is attached, and creates the patient record. Nothing is
// persisted, including the attachment, unless validation passes.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Patient, error) {
	trimInput(&in)

	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	birthDate, err := normalizeBirthDate(in.BirthDate)
	if err != nil {
		return nil, validate.FieldErrors{"birth_date": "must be a valid date"}
	}

	p := &Patient{
		ID:                     uuid.New(),
		UserID:                 in.UserID,
		Name:                   in.Name,
		Email:                  in.Email,
		Phone:                  in.Phone,
		BirthDate:              birthDate,
		Gender:                 in.Gender,
		Address:                in.Address,
		Occupation:             in.Occupation,
		EmergencyContactName:   in.EmergencyContactName,
		EmergencyContactNumber: in.EmergencyContactNumber,
		PrimaryPhysician:       in.PrimaryPhysician,
		InsuranceProvider:      in.InsuranceProvider,
		InsurancePolicyNumber:  in.InsurancePolicyNumber,
		Allergies:              in.Allergies,
		CurrentMedication:      in.CurrentMedication,
		FamilyMedicalHistory:   in.FamilyMedicalHistory,
		PastMedicalHistory:     in.PastMedicalHistory,
		IdentificationType:     in.IdentificationType,
		IdentificationNumber:   in.IdentificationNumber,
		TreatmentConsent:       in.TreatmentConsent,
		DisclosureConsent:      in.DisclosureConsent,
		PrivacyConsent:         in.PrivacyConsent,
	}

	if in.Attachment != nil {
		meta, err := s.blobs.Upload(ctx, blobstore.BlobMetadata{
			FileName:    in.Attachment.FileName,
			ContentType: in.Attachment.ContentType,
			PatientID:   p.ID.String(),
			Category:    "identification",
		}, bytes.NewReader(in.Attachment.Content))
		if err != nil {
			return nil, fmt.Errorf("upload identification document: %w", err)
		}
		p.IdentificationDocumentID = &meta.ID
	}

	created, err := s.patients.Create(ctx, p)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("patient_id", created.ID.String()).
		Str("user_id", created.UserID.String()).
		Bool("has_identification_document", created.IdentificationDocumentID != nil).
		Msg("patient registered")

	return created, nil
}

func (s *Service) validateInput(in RegisterInput) error {
	v := validate.New().
		Required("name", in.Name).
		MaxLen("name", in.Name, 200).
		Required("email", in.Email).
		Email("email", in.Email).
		Required("phone", in.Phone).
		Phone("phone", in.Phone).
		Required("birth_date", in.BirthDate).
		Required("gender", in.Gender).
		OneOf("gender", in.Gender, "male", "female", "other").
		Required("address", in.Address).
		Required("occupation", in.Occupation).
		Required("emergency_contact_name", in.EmergencyContactName).
		Required("emergency_contact_number", in.EmergencyContactNumber).
		Phone("emergency_contact_number", in.EmergencyContactNumber).
		Required("primary_physician", in.PrimaryPhysician).
		Required("insurance_provider", in.InsuranceProvider).
		Required("insurance_policy_number", in.InsurancePolicyNumber).
		True("treatment_consent", in.TreatmentConsent, "consent to treatment is required").
		True("disclosure_consent", in.DisclosureConsent, "consent to disclosure is required").
		True("privacy_consent", in.PrivacyConsent, "consent to the privacy policy is required")

	if in.UserID == uuid.Nil {
		v.Required("user_id", "")
	}

	return v.Err()
}

func normalizeBirthDate(raw string) (string, error) {
	for _, layout := range birthDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(dateLayout), nil
		}
	}
	return "", fmt.Errorf("unrecognized date %q", raw)
}

func trimInput(in *RegisterInput) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.BirthDate = strings.TrimSpace(in.BirthDate)
	in.Gender = strings.ToLower(strings.TrimSpace(in.Gender))
	in.Address = strings.TrimSpace(in.Address)
	in.Occupation = strings.TrimSpace(in.Occupation)
	in.EmergencyContactName = strings.TrimSpace(in.EmergencyContactName)
	in.EmergencyContactNumber = strings.TrimSpace(in.EmergencyContactNumber)
	in.PrimaryPhysician = strings.TrimSpace(in.PrimaryPhysician)
	in.InsuranceProvider = strings.TrimSpace(in.InsuranceProvider)
	in.InsurancePolicyNumber = strings.TrimSpace(in.InsurancePolicyNumber)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// GetByUser returns the registered patient for a user, or nil when the user
// has not completed registration.
func (s *Service) GetByUser(ctx context.Context, userID uuid.UUID) (*Patient, error) {
	return s.patients.FindByUser(ctx, userID)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}
