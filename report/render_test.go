package report

import (
	"strings"
	"testing"
	"time"

	"github.com/pulseboard/pulseboard/model"
)

var renderQuestions = []model.Question{
	{ID: "food_taste", Type: model.TypeStars, Text: "Rate the food"},
	{ID: "mood", Type: model.TypeSmiley, Text: "How did we do?", Labels: map[string]string{"5": "Excellent", "1": "Poor"}},
	{ID: "comments", Type: model.TypeText, Text: "Anything else?"},
}

func TestRenderZeroSubmissions(t *testing.T) {
	pdf, err := Render("Food Court", time.Now(), nil, renderQuestions)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(pdf) == 0 {
		t.Fatalf("expected non-empty document")
	}

	doc := buildDocument("Food Court", time.Now(), nil, renderQuestions)
	if got := doc.PageCount(); got != 1 {
		t.Fatalf("empty report should be a single page, got %d", got)
	}
}

func TestRenderSubmissionSectionsStartOnNewPage(t *testing.T) {
	submissions := []model.Submission{
		{
			Name: "Asha", Email: "asha@example.com",
			CreatedAt: time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
			Answers: map[string]model.Answer{
				"food_taste": {Kind: model.AnswerRating, Rating: 5},
				"comments":   {Kind: model.AnswerText, Text: "great"},
			},
		},
		{
			CreatedAt: time.Date(2026, 8, 25, 9, 30, 0, 0, time.UTC),
			Answers: map[string]model.Answer{
				"mood": {Kind: model.AnswerRating, Rating: 5},
			},
		},
	}

	doc := buildDocument("Food Court", time.Now(), submissions, renderQuestions)
	if got := doc.PageCount(); got < 2 {
		t.Fatalf("report with submissions should break to a second page, got %d", got)
	}

	pdf, err := Render("Food Court", time.Now(), submissions, renderQuestions)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(pdf) == 0 {
		t.Fatalf("expected non-empty document")
	}
}

func TestRenderManySubmissionsPaginate(t *testing.T) {
	submissions := make([]model.Submission, 60)
	for i := range submissions {
		submissions[i] = model.Submission{
			CreatedAt: time.Now(),
			Answers: map[string]model.Answer{
				"food_taste": {Kind: model.AnswerRating, Rating: 4},
				"comments":   {Kind: model.AnswerText, Text: "a steady stream of feedback lines"},
			},
		}
	}

	doc := buildDocument("Food Court", time.Now(), submissions, renderQuestions)
	if got := doc.PageCount(); got < 4 {
		t.Fatalf("60 submissions should span several pages, got %d", got)
	}
}

func TestSummaryRows(t *testing.T) {
	submissions := []model.Submission{
		{Answers: map[string]model.Answer{"food_taste": {Kind: model.AnswerRating, Rating: 5}}},
		{Answers: map[string]model.Answer{"food_taste": {Kind: model.AnswerRating, Rating: 3}}},
	}

	rows := summaryRows(submissions, renderQuestions)
	if len(rows) != len(renderQuestions) {
		t.Fatalf("expected %d rows, got %d", len(renderQuestions), len(rows))
	}

	taste := rows[0]
	if taste.Title != "Food Taste" {
		t.Fatalf("expected title-cased id, got %q", taste.Title)
	}
	if taste.Average != "4.0/5" {
		t.Fatalf("expected 4.0/5, got %q", taste.Average)
	}
	if taste.Count != "2" {
		t.Fatalf("expected count 2, got %q", taste.Count)
	}

	mood := rows[1]
	if mood.Average != "N/A" {
		t.Fatalf("rating with no responses must show N/A, got %q", mood.Average)
	}

	comments := rows[2]
	if comments.Average != "-" {
		t.Fatalf("text question must show -, got %q", comments.Average)
	}
}

func TestAnswerLines(t *testing.T) {
	sub := model.Submission{
		Answers: map[string]model.Answer{
			"mood":       {Kind: model.AnswerRating, Rating: 5},
			"comments":   {Kind: model.AnswerText, Text: "keep it up"},
			"old_rating": {Kind: model.AnswerRating, Rating: 2},
		},
	}

	lines := answerLines(sub, renderQuestions)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %v", len(lines), lines)
	}

	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "How did we do?: 5 (Excellent)") {
		t.Fatalf("expected labeled rating line, got:\n%s", joined)
	}
	if !strings.Contains(joined, "Anything else?: keep it up") {
		t.Fatalf("expected text line, got:\n%s", joined)
	}
	// answers no longer in config fall back to the title-cased raw key
	if !strings.Contains(joined, "Old Rating: 2") {
		t.Fatalf("expected drifted answer under raw key, got:\n%s", joined)
	}
	// unanswered questions are omitted entirely
	if strings.Contains(joined, "Rate the food") {
		t.Fatalf("unanswered question must not appear:\n%s", joined)
	}
}

func TestFromLine(t *testing.T) {
	cases := []struct {
		sub  model.Submission
		want string
	}{
		{model.Submission{}, "Anonymous"},
		{model.Submission{Name: "Asha"}, "Asha"},
		{model.Submission{Email: "a@b.co"}, "a@b.co"},
		{model.Submission{Name: "Asha", Email: "a@b.co"}, "Asha (a@b.co)"},
	}
	for _, c := range cases {
		if got := fromLine(c.sub); got != c.want {
			t.Fatalf("fromLine(%+v) = %q, want %q", c.sub, got, c.want)
		}
	}
}
