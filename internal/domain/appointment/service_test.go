package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/intake/intake/internal/platform/store"
	"github.com/intake/intake/internal/platform/validate"
)

type mockRepo struct {
	appts map[uuid.UUID]*Appointment
	order []uuid.UUID // creation order, oldest first
}

func newMockRepo() *mockRepo {
	return &mockRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) (*Appointment, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt
	m.appts[a.ID] = a
	m.order = append(m.order, a.ID)
	return a, nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *mockRepo) ListRecent(_ context.Context, limit, offset int) ([]*Appointment, int, error) {
	var out []*Appointment
	for i := len(m.order) - 1; i >= 0; i-- {
		out = append(out, m.appts[m.order[i]])
	}
	total := len(out)
	if offset > 0 && offset < len(out) {
		out = out[offset:]
	} else if offset >= len(out) {
		out = nil
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *mockRepo) Update(_ context.Context, id uuid.UUID, patch map[string]interface{}) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	// Merge via JSON round trip, mirroring how the document store patches.
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	patchRaw, err := json.Marshal(patch)
	if err != nil {
		return nil, err
	}
	var changes map[string]json.RawMessage
	if err := json.Unmarshal(patchRaw, &changes); err != nil {
		return nil, err
	}
	for k, v := range changes {
		doc[k] = v
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var updated Appointment
	if err := json.Unmarshal(merged, &updated); err != nil {
		return nil, err
	}
	updated.UpdatedAt = time.Now().UTC()
	m.appts[id] = &updated
	return &updated, nil
}

type spyNotifier struct {
	mu        sync.Mutex
	scheduled []*Appointment
	cancelled []*Appointment
}

func (s *spyNotifier) AppointmentScheduled(_ context.Context, a *Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled = append(s.scheduled, a)
}

func (s *spyNotifier) AppointmentCancelled(_ context.Context, a *Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = append(s.cancelled, a)
}

type spyInvalidator struct {
	paths []string
}

func (s *spyInvalidator) Invalidate(path string) {
	s.paths = append(s.paths, path)
}

func newTestService(repo Repository) (*Service, *spyNotifier, *spyInvalidator) {
	notifier := &spyNotifier{}
	views := &spyInvalidator{}
	return NewService(repo, views, notifier, zerolog.Nop()), notifier, views
}

func validCreateInput() CreateInput {
	return CreateInput{
		PatientID: uuid.New(),
		UserID:    uuid.New(),
		Physician: "Dr. Green",
		Schedule:  time.Now().Add(48 * time.Hour),
		Reason:    "Annual checkup",
	}
}

func TestService_CreateStartsPending(t *testing.T) {
	svc, _, views := newTestService(newMockRepo())

	a, err := svc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusPending {
		t.Errorf("expected pending status, got %s", a.Status)
	}
	if len(views.paths) != 1 || views.paths[0] != AdminViewPath {
		t.Errorf("expected admin view invalidation, got %v", views.paths)
	}
}

func TestService_CreateValidation(t *testing.T) {
	svc, _, _ := newTestService(newMockRepo())

	in := validCreateInput()
	in.Physician = ""
	in.Schedule = time.Time{}

	_, err := svc.Create(context.Background(), in)
	var fe validate.FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	if _, ok := fe["physician"]; !ok {
		t.Error("expected physician error")
	}
	if _, ok := fe["schedule"]; !ok {
		t.Error("expected schedule error")
	}
}

func TestService_GetIsIdempotent(t *testing.T) {
	repo := newMockRepo()
	svc, _, _ := newTestService(repo)

	created, err := svc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID != second.ID || first.Status != second.Status {
		t.Error("expected identical reads")
	}
}

func TestService_ListRecentAggregate(t *testing.T) {
	repo := newMockRepo()
	svc, _, _ := newTestService(repo)
	ctx := context.Background()

	mk := func(status Status) *Appointment {
		a, err := svc.Create(ctx, validCreateInput())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		repo.appts[a.ID].Status = status
		return a
	}

	mk(StatusPending)
	mk(StatusPending)
	mk(StatusScheduled)
	last := mk(StatusCancelled)

	agg, err := svc.ListRecent(ctx, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if agg.TotalCount != 4 {
		t.Errorf("expected total 4, got %d", agg.TotalCount)
	}
	if agg.PendingCount != 2 || agg.ScheduledCount != 1 || agg.CancelledCount != 1 {
		t.Errorf("unexpected counts: %+v", agg)
	}
	if agg.PendingCount+agg.ScheduledCount+agg.CancelledCount != agg.TotalCount {
		t.Error("expected counters to sum to total")
	}
	if len(agg.Documents) != 4 {
		t.Fatalf("expected 4 documents, got %d", len(agg.Documents))
	}
	// Newest first.
	if agg.Documents[0].ID != last.ID {
		t.Error("expected newest appointment first")
	}
}

func TestService_ListRecentExcludesUnknownStatusFromCounters(t *testing.T) {
	repo := newMockRepo()
	svc, _, _ := newTestService(repo)
	ctx := context.Background()

	a, err := svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo.appts[a.ID].Status = Status("archived")

	agg, err := svc.ListRecent(ctx, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if agg.TotalCount != 1 {
		t.Errorf("expected total 1, got %d", agg.TotalCount)
	}
	if len(agg.Documents) != 1 {
		t.Errorf("expected the document kept in the list, got %d", len(agg.Documents))
	}
	if agg.PendingCount != 0 || agg.ScheduledCount != 0 || agg.CancelledCount != 0 {
		t.Errorf("expected unknown status excluded from counters: %+v", agg)
	}
}

func TestService_UpdateSchedules(t *testing.T) {
	repo := newMockRepo()
	svc, notifier, views := newTestService(repo)
	ctx := context.Background()

	a, err := svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	views.paths = nil

	newTime := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
	physician := "Dr. Cruz"
	updated, err := svc.Update(ctx, a.ID, UpdateInput{
		Status:    StatusScheduled,
		Schedule:  &newTime,
		Physician: &physician,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusScheduled {
		t.Errorf("expected scheduled, got %s", updated.Status)
	}
	if updated.Physician != "Dr. Cruz" {
		t.Errorf("expected updated physician, got %s", updated.Physician)
	}
	if !updated.Schedule.Equal(newTime) {
		t.Errorf("expected updated schedule, got %v", updated.Schedule)
	}

	if len(notifier.scheduled) != 1 {
		t.Errorf("expected 1 scheduled notification, got %d", len(notifier.scheduled))
	}
	if len(views.paths) != 1 || views.paths[0] != AdminViewPath {
		t.Errorf("expected admin view invalidation, got %v", views.paths)
	}
}

func TestService_UpdateCancelRequiresReason(t *testing.T) {
	repo := newMockRepo()
	svc, notifier, _ := newTestService(repo)
	ctx := context.Background()

	a, err := svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.Update(ctx, a.ID, UpdateInput{Status: StatusCancelled})
	var fe validate.FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	if _, ok := fe["cancellation_reason"]; !ok {
		t.Error("expected cancellation_reason error")
	}

	reason := "physician unavailable"
	updated, err := svc.Update(ctx, a.ID, UpdateInput{
		Status:             StatusCancelled,
		CancellationReason: &reason,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusCancelled {
		t.Errorf("expected cancelled, got %s", updated.Status)
	}
	if updated.CancellationReason == nil || *updated.CancellationReason != reason {
		t.Error("expected cancellation reason stored")
	}
	if len(notifier.cancelled) != 1 {
		t.Errorf("expected 1 cancelled notification, got %d", len(notifier.cancelled))
	}
}

func TestService_UpdateRejectsInvalidTransition(t *testing.T) {
	repo := newMockRepo()
	svc, _, _ := newTestService(repo)
	ctx := context.Background()

	a, err := svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo.appts[a.ID].Status = StatusScheduled

	_, err = svc.Update(ctx, a.ID, UpdateInput{Status: StatusPending})
	var te *InvalidTransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if te.From != StatusScheduled || te.To != StatusPending {
		t.Errorf("unexpected transition error: %v", te)
	}
}

func TestService_UpdateCancelledIsTerminal(t *testing.T) {
	repo := newMockRepo()
	svc, _, _ := newTestService(repo)
	ctx := context.Background()

	a, err := svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo.appts[a.ID].Status = StatusCancelled

	for _, target := range []Status{StatusPending, StatusScheduled, StatusCancelled} {
		_, err := svc.Update(ctx, a.ID, UpdateInput{Status: target})
		var te *InvalidTransitionError
		if !errors.As(err, &te) {
			t.Errorf("expected InvalidTransitionError for cancelled -> %s, got %v", target, err)
		}
	}
}

func TestService_UpdateMetadataPatchDoesNotNotify(t *testing.T) {
	repo := newMockRepo()
	svc, notifier, _ := newTestService(repo)
	ctx := context.Background()

	a, err := svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	note := "patient prefers mornings"
	updated, err := svc.Update(ctx, a.ID, UpdateInput{
		Status: StatusPending,
		Note:   &note,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusPending {
		t.Errorf("expected status unchanged, got %s", updated.Status)
	}
	if updated.Note == nil || *updated.Note != note {
		t.Error("expected note stored")
	}
	if len(notifier.scheduled)+len(notifier.cancelled) != 0 {
		t.Error("expected no notifications for metadata patch")
	}
}

func TestService_UpdateRejectsUnknownStatus(t *testing.T) {
	repo := newMockRepo()
	svc, _, _ := newTestService(repo)
	ctx := context.Background()

	a, err := svc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.Update(ctx, a.ID, UpdateInput{Status: Status("archived")})
	var fe validate.FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
}

func TestService_UpdateNotFound(t *testing.T) {
	svc, _, _ := newTestService(newMockRepo())

	_, err := svc.Update(context.Background(), uuid.New(), UpdateInput{Status: StatusScheduled})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
