package notification

import (
	"context"
	"strings"
	"testing"
)

func TestRender_BuiltInInvite(t *testing.T) {
	e := NewTemplateEngine()
	subject, body, err := e.Render("account-invite", map[string]string{
		"first_name":      "Ada",
		"last_name":       "Lovelace",
		"activation_link": "http://app/activate?token=abc",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject != "Activate your account" {
		t.Errorf("unexpected subject %q", subject)
	}
	if !strings.Contains(body, "Ada Lovelace") || !strings.Contains(body, "token=abc") {
		t.Errorf("unexpected body %q", body)
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	e := NewTemplateEngine()
	if _, _, err := e.Render("nope", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestRender_SanitizesTemplateTokens(t *testing.T) {
	e := NewTemplateEngine()
	_, body, err := e.Render("account-invite", map[string]string{
		"first_name": "<%= process.env %>",
		"last_name":  "x",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(body, "<%") || strings.Contains(body, "%>") {
		t.Errorf("template tokens leaked into body: %q", body)
	}
}

func TestSafeTemplateInput(t *testing.T) {
	if SafeTemplateInput("<% evil %>") {
		t.Error("template tokens must be flagged")
	}
	if !SafeTemplateInput("plain name") {
		t.Error("plain input must pass")
	}
}

func TestSanitizeTemplateInput(t *testing.T) {
	got := SanitizeTemplateInput("<%= x %>")
	if strings.ContainsAny(got, "<%>") {
		t.Errorf("delimiters survived sanitization: %q", got)
	}
}

func TestMockEmailSender(t *testing.T) {
	m := &MockEmailSender{}
	if err := m.SendEmail(context.Background(), "a@b.c", "s", "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	calls := m.Calls()
	if len(calls) != 1 || calls[0].To != "a@b.c" {
		t.Errorf("unexpected calls: %+v", calls)
	}
}
