package mailer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestSendWithoutKeySavesFallback(t *testing.T) {
	dir := t.TempDir()
	m := &SendGrid{
		From:        "reports@example.com",
		FromName:    "Reports",
		FallbackDir: dir,
	}

	attachments := []Attachment{{Filename: "food_court-report-2026-08-24.pdf", Content: []byte("%PDF-1.4 test")}}
	err := m.Send(context.Background(), []string{"fc@example.com"}, "subject", "<p>body</p>", attachments)
	if err == nil {
		t.Fatalf("expected error without api key")
	}

	saved, readErr := os.ReadFile(filepath.Join(dir, "food_court-report-2026-08-24.pdf"))
	if readErr != nil {
		t.Fatalf("fallback file not written: %v", readErr)
	}
	if string(saved) != "%PDF-1.4 test" {
		t.Fatalf("fallback content mismatch: %q", saved)
	}
}

func TestSendNoRecipients(t *testing.T) {
	m := &SendGrid{APIKey: "key", FallbackDir: t.TempDir()}
	if err := m.Send(context.Background(), nil, "s", "b", nil); err == nil {
		t.Fatalf("expected error for empty recipient list")
	}
}

func TestFallbackWithoutDirIsNoop(t *testing.T) {
	m := &SendGrid{}
	// must not panic or create anything
	m.saveFallback([]Attachment{{Filename: "x.pdf", Content: []byte("x")}})
}
