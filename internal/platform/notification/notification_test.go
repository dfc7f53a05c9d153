package notification

import (
	"context"
	"strings"
	"testing"
)

func TestRenderAppointmentReminder(t *testing.T) {
	engine := NewTemplateEngine()

	subject, body, err := engine.Render(TemplateAppointmentReminder, map[string]string{
		"client_name": "Ada K",
		"date":        "2026-03-05",
		"time":        "10:00",
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(subject, "2026-03-05") {
		t.Errorf("subject missing date: %q", subject)
	}
	for _, want := range []string{"Ada K", "10:00"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q: %q", want, body)
		}
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	engine := NewTemplateEngine()
	if _, _, err := engine.Render("no-such-template", nil); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestRenderLeavesUnmatchedPlaceholders(t *testing.T) {
	engine := NewTemplateEngine()
	_, body, err := engine.Render(TemplateAppointmentReminder, map[string]string{
		"client_name": "Ada",
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(body, "{{date}}") {
		t.Errorf("unmatched placeholder should remain, got %q", body)
	}
}

func TestRegisterTemplateOverrides(t *testing.T) {
	engine := NewTemplateEngine()
	engine.RegisterTemplate(Template{
		ID:      TemplateAppointmentReminder,
		Subject: "custom subject",
		Body:    "custom body",
		Type:    TypeSMS,
	})

	subject, body, err := engine.Render(TemplateAppointmentReminder, nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if subject != "custom subject" || body != "custom body" {
		t.Errorf("override not applied: %q / %q", subject, body)
	}
}

func TestSendEmail(t *testing.T) {
	email := &MockEmailSender{}
	mgr := NewManager(email, &MockSMSSender{}, NewTemplateEngine())

	n := &Notification{
		Type:      TypeEmail,
		Recipient: "ada@example.com",
		Subject:   "hello",
		Body:      "world",
	}
	if err := mgr.Send(context.Background(), n); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if n.Status != StatusSent {
		t.Errorf("expected status sent, got %q", n.Status)
	}
	if n.SentAt == nil {
		t.Error("expected sent_at to be set")
	}
	if calls := email.Calls(); len(calls) != 1 || calls[0].To != "ada@example.com" {
		t.Errorf("unexpected calls: %+v", calls)
	}
}

func TestSendFailureRecorded(t *testing.T) {
	email := &MockEmailSender{ShouldFail: true, FailError: "smtp unavailable"}
	mgr := NewManager(email, &MockSMSSender{}, NewTemplateEngine())

	n := &Notification{Type: TypeEmail, Recipient: "ada@example.com"}
	if err := mgr.Send(context.Background(), n); err == nil {
		t.Fatal("expected send error")
	}
	if n.Status != StatusFailed {
		t.Errorf("expected status failed, got %q", n.Status)
	}
	if n.Error != "smtp unavailable" {
		t.Errorf("expected error recorded, got %q", n.Error)
	}
}

func TestSendFromTemplate(t *testing.T) {
	email := &MockEmailSender{}
	mgr := NewManager(email, &MockSMSSender{}, NewTemplateEngine())

	n, err := mgr.SendFromTemplate(context.Background(), TemplateAtRiskAlert, map[string]string{
		"client_name":  "Ada K",
		"risk_level":   "high",
		"risk_score":   "75",
		"risk_factors": "1 no-show(s) in last 30 days",
	}, "dr.osei@example.com")
	if err != nil {
		t.Fatalf("SendFromTemplate failed: %v", err)
	}
	if n.Status != StatusSent {
		t.Errorf("expected status sent, got %q", n.Status)
	}
	calls := email.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if !strings.Contains(calls[0].Body, "high") || !strings.Contains(calls[0].Body, "75") {
		t.Errorf("alert body missing risk data: %q", calls[0].Body)
	}
}

func TestRetry(t *testing.T) {
	email := &MockEmailSender{ShouldFail: true, FailError: "smtp unavailable"}
	mgr := NewManager(email, &MockSMSSender{}, NewTemplateEngine())

	n := &Notification{Type: TypeEmail, Recipient: "ada@example.com"}
	_ = mgr.Send(context.Background(), n)

	email.ShouldFail = false
	if err := mgr.Retry(context.Background(), n.ID); err != nil {
		t.Fatalf("Retry failed: %v", err)
	}

	got, err := mgr.Get(context.Background(), n.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != StatusSent {
		t.Errorf("expected status sent after retry, got %q", got.Status)
	}
	if got.Error != "" {
		t.Errorf("expected error cleared, got %q", got.Error)
	}
}

func TestRetryOnlyFailed(t *testing.T) {
	mgr := NewManager(&MockEmailSender{}, &MockSMSSender{}, NewTemplateEngine())

	n := &Notification{Type: TypeEmail, Recipient: "ada@example.com"}
	_ = mgr.Send(context.Background(), n)

	if err := mgr.Retry(context.Background(), n.ID); err == nil {
		t.Error("expected error retrying a sent notification")
	}
}

func TestStats(t *testing.T) {
	email := &MockEmailSender{}
	mgr := NewManager(email, &MockSMSSender{}, NewTemplateEngine())

	_ = mgr.Send(context.Background(), &Notification{Type: TypeEmail, Recipient: "a@example.com"})
	_ = mgr.Send(context.Background(), &Notification{Type: TypeEmail, Recipient: "b@example.com"})
	email.ShouldFail = true
	email.FailError = "boom"
	_ = mgr.Send(context.Background(), &Notification{Type: TypeEmail, Recipient: "c@example.com"})

	stats := mgr.Stats(context.Background())
	if stats[StatusSent] != 2 || stats[StatusFailed] != 1 {
		t.Errorf("unexpected stats: %v", stats)
	}
}
