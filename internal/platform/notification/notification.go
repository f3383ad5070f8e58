// Package notification sends SMS confirmations to patients when their
// appointments are scheduled or cancelled. Rendering uses simple {{key}}
// templates; delivery goes through the SMSSender interface so a real
// provider can be plugged in without touching the callers.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Built-in template IDs.
const (
	TemplateAppointmentScheduled = "appointment-scheduled"
	TemplateAppointmentCancelled = "appointment-cancelled"
)

// SMSSender is the interface for sending SMS messages.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Template defines a reusable notification template.
type Template struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Body string `json:"body"`
}

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates
// pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:   TemplateAppointmentScheduled,
			Name: "Appointment Scheduled",
			Body: "Hi {{patient_name}}, your appointment with {{physician}} has been scheduled for {{schedule}}.",
		},
		{
			ID:   TemplateAppointmentCancelled,
			Name: "Appointment Cancelled",
			Body: "Hi {{patient_name}}, we regret to inform you that your appointment with {{physician}} has been cancelled. Reason: {{reason}}.",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using
// the supplied data map. Keys present in the template but absent from data
// are left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (string, error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("template %q not found", templateID)
	}

	body := t.Body
	for k, v := range data {
		body = strings.ReplaceAll(body, "{{"+k+"}}", v)
	}
	return body, nil
}

// Message records a single dispatched SMS.
type Message struct {
	ID         string            `json:"id"`
	Recipient  string            `json:"recipient"`
	Body       string            `json:"body"`
	TemplateID string            `json:"template_id,omitempty"`
	Status     string            `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	SentAt     *time.Time        `json:"sent_at,omitempty"`
	Error      string            `json:"error,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
}

// Manager renders templates and dispatches messages through the configured
// sender, keeping an in-memory log of outcomes.
type Manager struct {
	sender    SMSSender
	templates *TemplateEngine

	mu       sync.RWMutex
	messages map[string]*Message
}

// NewManager constructs a Manager.
func NewManager(sender SMSSender, tpl *TemplateEngine) *Manager {
	return &Manager{
		sender:    sender,
		templates: tpl,
		messages:  make(map[string]*Message),
	}
}

// SendFromTemplate renders a template and sends the resulting SMS. The
// message record is kept even when delivery fails so the failure is
// inspectable.
func (m *Manager) SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*Message, error) {
	body, err := m.templates.Render(templateID, data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	msg := &Message{
		ID:         uuid.New().String(),
		Recipient:  recipient,
		Body:       body,
		TemplateID: templateID,
		Status:     "pending",
		CreatedAt:  time.Now().UTC(),
		Data:       data,
	}

	sendErr := m.sender.SendSMS(ctx, recipient, body)
	if sendErr != nil {
		msg.Status = "failed"
		msg.Error = sendErr.Error()
	} else {
		msg.Status = "sent"
		sentAt := time.Now().UTC()
		msg.SentAt = &sentAt
	}

	m.mu.Lock()
	m.messages[msg.ID] = msg
	m.mu.Unlock()

	if sendErr != nil {
		return msg, sendErr
	}
	return msg, nil
}

// Get retrieves a dispatched message by ID.
func (m *Manager) Get(id string) (*Message, error) {
	m.mu.RLock()
	msg, ok := m.messages[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("message %q not found", id)
	}
	return msg, nil
}

// Stats returns counts of messages grouped by status.
func (m *Manager) Stats() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]int)
	for _, msg := range m.messages {
		stats[msg.Status]++
	}
	return stats
}

// LogSender is an SMSSender that writes messages to the structured log
// instead of a real provider. Used in development and tests.
type LogSender struct {
	logger zerolog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendSMS(_ context.Context, to, body string) error {
	s.logger.Info().
		Str("to", to).
		Str("body", body).
		Msg("sms dispatched")
	return nil
}

// SMSCall records a single call to SendSMS.
type SMSCall struct {
	To   string
	Body string
}

// MockSMSSender is a test double for SMSSender.
type MockSMSSender struct {
	mu         sync.Mutex
	calls      []SMSCall
	ShouldFail bool
	FailError  string
}

// SendSMS records the call and optionally returns an error.
func (m *MockSMSSender) SendSMS(_ context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, SMSCall{To: to, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded SMS calls.
func (m *MockSMSSender) Calls() []SMSCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SMSCall, len(m.calls))
	copy(out, m.calls)
	return out
}
