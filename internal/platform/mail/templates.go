package mail

import (
	"fmt"
	"strings"
	"sync"
)

// Built-in template IDs.
const (
	TemplateBookingConfirmed   = "booking-confirmed"
	TemplatePasswordReset      = "password-reset"
	TemplateTempPassword       = "temp-password"
	TemplateCancelOverlap      = "cancel-overlap"
	TemplateCancelForceMajeure = "cancel-force-majeure"
	TemplateCancelCongrats     = "cancel-congrats"
)

// OverlapDiscountPercent is the fixed discount offered when the clinic
// cancels because of an overlapping booking.
const OverlapDiscountPercent = 20

// Template defines a reusable notification template.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TemplateEngine manages mail templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
	// congratulatory template overrides keyed by service code
	congratsByService map[string]string
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates
// pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates:         make(map[string]*Template),
		congratsByService: make(map[string]string),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      TemplateBookingConfirmed,
			Name:    "Booking Confirmed",
			Subject: "Your appointment {{code}} at FisioCare",
			Body: "<p>Dear {{patient_name}},</p>" +
				"<p>Your appointment <b>{{code}}</b> for {{service}} is scheduled on " +
				"{{date}} at {{time}} with {{therapist}}.</p>" +
				"<p>See you soon!</p>",
		},
		{
			ID:      TemplatePasswordReset,
			Name:    "Password Reset",
			Subject: "Password reset request",
			Body: "<p>You requested a password reset. Use the following link to choose " +
				"a new password: {{reset_link}}</p>",
		},
		{
			ID:      TemplateTempPassword,
			Name:    "Temporary Password",
			Subject: "Your FisioCare account",
			Body: "<p>Dear {{patient_name}},</p>" +
				"<p>An account was created for you. Sign in with your email and the " +
				"temporary password <b>{{temp_password}}</b>, then change it.</p>",
		},
		{
			ID:      TemplateCancelOverlap,
			Name:    "Cancellation - Overlap",
			Subject: "Your appointment {{code}} was cancelled",
			Body: "<p>Dear {{patient_name}},</p>" +
				"<p>We had to cancel your appointment {{code}} because of a scheduling " +
				"overlap. We are sorry for the inconvenience: rebook within 30 days and " +
				"a {{discount}}% discount will be applied.</p>",
		},
		{
			ID:      TemplateCancelForceMajeure,
			Name:    "Cancellation - Force Majeure",
			Subject: "Your appointment {{code}} was cancelled",
			Body: "<p>Dear {{patient_name}},</p>" +
				"<p>We regret to inform you that your appointment {{code}} was cancelled " +
				"for reasons beyond our control. {{details}}</p>" +
				"<p>Please contact us to reschedule.</p>",
		},
		{
			ID:      TemplateCancelCongrats,
			Name:    "Cancellation - Therapy Completed",
			Subject: "Congratulations on completing your therapy!",
			Body: "<p>Dear {{patient_name}},</p>" +
				"<p>Congratulations! You completed your {{service}} plan. It was a " +
				"pleasure accompanying your recovery.</p>",
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

// RegisterCongrats binds a service code to a dedicated congratulatory
// template, replacing the generic one for that service.
func (e *TemplateEngine) RegisterCongrats(serviceCode string, t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
	e.congratsByService[serviceCode] = t.ID
}

// CongratsTemplateID returns the congratulatory template for a service
// code, falling back to the generic template when no entry exists.
func (e *TemplateEngine) CongratsTemplateID(serviceCode string) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if id, ok := e.congratsByService[serviceCode]; ok {
		return id
	}
	return TemplateCancelCongrats
}

// Render looks up a template by ID and performs {{key}} replacement using
// the supplied data map. Keys present in the template but absent from data
// are left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}
