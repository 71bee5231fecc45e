package mail

import (
	"strings"
	"testing"
)

func TestRender_ReplacesPlaceholders(t *testing.T) {
	e := NewTemplateEngine()
	subject, body, err := e.Render(TemplateBookingConfirmed, map[string]string{
		"code":         "CITA-0001",
		"patient_name": "Ana",
		"service":      "Sports massage",
		"date":         "2024-06-01",
		"time":         "10:00",
		"therapist":    "Dr. Ruiz",
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(subject, "CITA-0001") {
		t.Errorf("subject missing code: %q", subject)
	}
	for _, want := range []string{"Ana", "Sports massage", "2024-06-01", "10:00", "Dr. Ruiz"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if strings.Contains(body, "{{") {
		t.Errorf("body has unreplaced placeholders: %q", body)
	}
}

func TestRender_MissingKeyLeftAsIs(t *testing.T) {
	e := NewTemplateEngine()
	_, body, err := e.Render(TemplateCancelForceMajeure, map[string]string{
		"patient_name": "Ana",
		"code":         "CITA-0001",
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(body, "{{details}}") {
		t.Error("expected absent key to stay in the body")
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	e := NewTemplateEngine()
	if _, _, err := e.Render("nope", nil); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestCongratsTemplateID(t *testing.T) {
	e := NewTemplateEngine()

	if got := e.CongratsTemplateID("SVC-REHAB"); got != TemplateCancelCongrats {
		t.Errorf("expected generic congrats template, got %s", got)
	}

	e.RegisterCongrats("SVC-REHAB", Template{
		ID:      "congrats-rehab",
		Subject: "You made it!",
		Body:    "<p>Rehab complete, {{patient_name}}.</p>",
	})
	if got := e.CongratsTemplateID("SVC-REHAB"); got != "congrats-rehab" {
		t.Errorf("expected service-specific template, got %s", got)
	}
	if got := e.CongratsTemplateID("SVC-OTHER"); got != TemplateCancelCongrats {
		t.Errorf("other services must keep the generic template, got %s", got)
	}
}

func TestMockSender_RecordsAndFails(t *testing.T) {
	m := &MockSender{}
	if err := m.Send(nil, []string{"a@b.com"}, "hi", "body"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	sent := m.Sent()
	if len(sent) != 1 || sent[0].Subject != "hi" {
		t.Fatalf("unexpected sent log: %+v", sent)
	}

	m.ShouldFail = true
	if err := m.Send(nil, []string{"a@b.com"}, "hi", "body"); err == nil {
		t.Error("expected failure when ShouldFail is set")
	}
}
