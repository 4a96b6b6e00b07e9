package config

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/pulseboard/pulseboard/model"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadRecipients(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "recipients.json", `{
		"food_court": ["a@example.com", "b@example.com"],
		"admin": ["admin@example.com"]
	}`)

	recipients, err := LoadRecipients(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(recipients["food_court"]) != 2 {
		t.Fatalf("expected 2 addresses, got %v", recipients["food_court"])
	}

	departments := recipients.Departments()
	sort.Strings(departments)
	if len(departments) != 1 || departments[0] != "food_court" {
		t.Fatalf("Departments must exclude the admin sentinel, got %v", departments)
	}
}

func TestLoadRecipientsMissingFile(t *testing.T) {
	_, err := LoadRecipients(t.TempDir())
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	var readErr *ReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("expected ReadError, got %T", err)
	}
}

func TestLoadQuestionsMalformed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "questions.json", `{"food_court": `)

	_, err := LoadQuestions(dir)
	var readErr *ReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("expected ReadError, got %v", err)
	}
	if readErr.File != "questions.json" {
		t.Fatalf("expected file name in error, got %q", readErr.File)
	}
}

func TestLoadQuestions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "questions.json", `{
		"food_court": {
			"name": "Food Court",
			"questions": [
				{"id": "food_taste", "text": "Rate the food", "type": "rating_5"},
				{"id": "mood", "text": "How did we do?", "type": "smiley", "labels": {"5": "Excellent"}}
			]
		}
	}`)

	questions, err := LoadQuestions(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	entry := questions["food_court"]
	if entry.Name != "Food Court" {
		t.Fatalf("expected display name, got %q", entry.Name)
	}
	if len(entry.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(entry.Questions))
	}
	if entry.Questions[1].Label(5) != "Excellent" {
		t.Fatalf("expected label lookup, got %q", entry.Questions[1].Label(5))
	}
}

func TestValidateRecipients(t *testing.T) {
	problems := ValidateRecipients(Recipients{
		"ok":    {"a@example.com"},
		"empty": {},
		"bad":   {"not-an-address"},
	})
	if len(problems) != 2 {
		t.Fatalf("expected 2 problems, got %v", problems)
	}
}

func TestValidateQuestions(t *testing.T) {
	problems := ValidateQuestions(Questions{
		"dept": {
			Name: "Dept",
			Questions: []model.Question{
				{ID: "good", Text: "ok", Type: model.TypeStars},
				{ID: "good", Text: "dup", Type: model.TypeStars},
				{ID: "odd", Text: "odd", Type: "telepathy"},
				{ID: "labels", Text: "labels", Type: model.TypeSmiley, Labels: map[string]string{"five": "Excellent"}},
			},
		},
		"nameless": {Questions: []model.Question{{ID: "q", Type: model.TypeText}}},
	})

	// duplicate id, unknown type, non-integer label key, missing name
	if len(problems) != 4 {
		t.Fatalf("expected 4 problems, got %v", problems)
	}
}
