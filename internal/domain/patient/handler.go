package patient

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/intake/intake/internal/platform/blobstore"
	"github.com/intake/intake/internal/platform/store"
	"github.com/intake/intake/internal/platform/validate"
	"github.com/intake/intake/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients", h.Register)
	api.GET("/patients/:id", h.Get)
	api.GET("/users/:userId/patient", h.GetByUser)
}

// RegisterAdminRoutes mounts the admin-only patient routes.
func (h *Handler) RegisterAdminRoutes(admin *echo.Group) {
	admin.GET("/patients", h.List)
}

func (h *Handler) Register(c echo.Context) error {
	in, err := bindRegisterInput(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	p, err := h.svc.Register(c.Request().Context(), *in)
	if err != nil {
		var fe validate.FieldErrors
		switch {
		case errors.As(err, &fe):
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"error":  "validation failed",
				"fields": fe,
			})
		case errors.Is(err, blobstore.ErrInvalidContentType):
			return echo.NewHTTPError(http.StatusUnsupportedMediaType, err.Error())
		case errors.Is(err, blobstore.ErrFileTooLarge):
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	c.Response().Header().Set("Location", "/api/v1/patients/"+p.ID.String())
	return c.JSON(http.StatusCreated, p)
}

// bindRegisterInput accepts either a JSON body or a multipart form with an
// optional identification_document file part.
func bindRegisterInput(c echo.Context) (*RegisterInput, error) {
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		var in RegisterInput
		if err := c.Bind(&in); err != nil {
			return nil, err
		}
		return &in, nil
	}

	in := RegisterInput{
		Name:                   c.FormValue("name"),
		Email:                  c.FormValue("email"),
		Phone:                  c.FormValue("phone"),
		BirthDate:              c.FormValue("birth_date"),
		Gender:                 c.FormValue("gender"),
		Address:                c.FormValue("address"),
		Occupation:             c.FormValue("occupation"),
		EmergencyContactName:   c.FormValue("emergency_contact_name"),
		EmergencyContactNumber: c.FormValue("emergency_contact_number"),
		PrimaryPhysician:       c.FormValue("primary_physician"),
		InsuranceProvider:      c.FormValue("insurance_provider"),
		InsurancePolicyNumber:  c.FormValue("insurance_policy_number"),
	}

	if v := c.FormValue("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, err
		}
		in.UserID = id
	}

	for field, dst := range map[string]**string{
		"allergies":              &in.Allergies,
		"current_medication":     &in.CurrentMedication,
		"family_medical_history": &in.FamilyMedicalHistory,
		"past_medical_history":   &in.PastMedicalHistory,
		"identification_type":    &in.IdentificationType,
		"identification_number":  &in.IdentificationNumber,
	} {
		if v := c.FormValue(field); v != "" {
			val := v
			*dst = &val
		}
	}

	for field, dst := range map[string]*bool{
		"treatment_consent":  &in.TreatmentConsent,
		"disclosure_consent": &in.DisclosureConsent,
		"privacy_consent":    &in.PrivacyConsent,
	} {
		if v, err := strconv.ParseBool(c.FormValue(field)); err == nil {
			*dst = v
		}
	}

	if file, err := c.FormFile("identification_document"); err == nil {
		src, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer src.Close()

		content, err := io.ReadAll(src)
		if err != nil {
			return nil, err
		}

		in.Attachment = &Attachment{
			FileName:    file.Filename,
			ContentType: file.Header.Get("Content-Type"),
			Content:     content,
		}
	}

	return &in, nil
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetByUser(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	p, err := h.svc.GetByUser(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if p == nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	patients, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, pg.Limit, pg.Offset))
}
