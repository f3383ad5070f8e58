package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a full intake record captured by the registration form. The
// medical history and identification fields are optional; the consent flags
// are not.
type Patient struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`

	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	BirthDate string `json:"birth_date"` // YYYY-MM-DD
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

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Attachment is an identification document uploaded with the registration.
type Attachment struct {
	FileName    string
	ContentType string
	Content     []byte
}

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	UserID uuid.UUID `json:"user_id"`

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

	IdentificationType   *string `json:"identification_type,omitempty"`
	IdentificationNumber *string `json:"identification_number,omitempty"`

	TreatmentConsent  bool `json:"treatment_consent"`
	DisclosureConsent bool `json:"disclosure_consent"`
	PrivacyConsent    bool `json:"privacy_consent"`

	// Attachment is populated from the multipart form, not JSON.
	Attachment *Attachment `json:"-"`
}
