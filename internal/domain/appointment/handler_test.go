package appointment

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newHandlerFixture() (*Handler, *mockRepo) {
	repo := newMockRepo()
	svc := NewService(repo, NopInvalidator{}, NopNotifier{}, zerolog.Nop())
	return NewHandler(svc), repo
}

func jsonRequest(method, path, body string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func TestHandler_Create(t *testing.T) {
	h, _ := newHandlerFixture()
	e := echo.New()

	body := `{
		"patient_id": "` + uuid.New().String() + `",
		"user_id": "` + uuid.New().String() + `",
		"physician": "Dr. Green",
		"schedule": "` + time.Now().Add(24*time.Hour).Format(time.RFC3339) + `",
		"reason": "Annual checkup"
	}`
	req, rec := jsonRequest(http.MethodPost, "/appointments", body)
	c := e.NewContext(req, rec)

	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Location") == "" {
		t.Error("expected Location header")
	}

	var a Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if a.Status != StatusPending {
		t.Errorf("expected pending, got %s", a.Status)
	}
}

func TestHandler_CreateValidationError(t *testing.T) {
	h, _ := newHandlerFixture()
	e := echo.New()

	req, rec := jsonRequest(http.MethodPost, "/appointments", `{"reason": ""}`)
	c := e.NewContext(req, rec)

	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}

	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Fields) == 0 {
		t.Error("expected field errors in response")
	}
}

func TestHandler_GetNotFound(t *testing.T) {
	h, _ := newHandlerFixture()
	e := echo.New()

	req, rec := jsonRequest(http.MethodGet, "/", "")
	c := e.NewContext(req, rec)
	c.SetPath("/appointments/:id")
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.Get(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_UpdateInvalidTransitionConflict(t *testing.T) {
	h, repo := newHandlerFixture()
	e := echo.New()

	a := &Appointment{
		PatientID: uuid.New(),
		UserID:    uuid.New(),
		Physician: "Dr. Green",
		Schedule:  time.Now().Add(24 * time.Hour),
		Reason:    "Checkup",
		Status:    StatusCancelled,
	}
	if _, err := repo.Create(nil, a); err != nil {
		t.Fatalf("seed: %v", err)
	}

	req, rec := jsonRequest(http.MethodPatch, "/", `{"status": "scheduled"}`)
	c := e.NewContext(req, rec)
	c.SetPath("/admin/appointments/:id")
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	if err := h.Update(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandler_ListRecent(t *testing.T) {
	h, repo := newHandlerFixture()
	e := echo.New()

	for _, status := range []Status{StatusPending, StatusScheduled} {
		a := &Appointment{
			PatientID: uuid.New(),
			UserID:    uuid.New(),
			Physician: "Dr. Green",
			Schedule:  time.Now().Add(24 * time.Hour),
			Reason:    "Checkup",
			Status:    status,
		}
		if _, err := repo.Create(nil, a); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	req, rec := jsonRequest(http.MethodGet, "/admin/appointments", "")
	c := e.NewContext(req, rec)

	if err := h.ListRecent(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var agg Aggregate
	if err := json.Unmarshal(rec.Body.Bytes(), &agg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if agg.TotalCount != 2 || agg.PendingCount != 1 || agg.ScheduledCount != 1 {
		t.Errorf("unexpected aggregate: %+v", agg)
	}
}
