package report

import (
	"testing"

	"github.com/pulseboard/pulseboard/model"
)

func ratingAnswer(n int) model.Answer {
	return model.Answer{Kind: model.AnswerRating, Rating: n}
}

func textAnswer(s string) model.Answer {
	return model.Answer{Kind: model.AnswerText, Text: s}
}

func submissionWith(answers map[string]model.Answer) model.Submission {
	return model.Submission{Department: "food_court", Answers: answers}
}

func TestAggregateOneEntryPerQuestion(t *testing.T) {
	questions := []model.Question{
		{ID: "food_taste", Type: model.TypeStars},
		{ID: "cleanliness", Type: model.TypeSmiley},
		{ID: "comments", Type: model.TypeText},
	}
	submissions := []model.Submission{
		submissionWith(map[string]model.Answer{
			"food_taste": ratingAnswer(5),
			"stray_key":  ratingAnswer(1),
		}),
	}

	stats := Aggregate(submissions, questions)
	if len(stats) != len(questions) {
		t.Fatalf("expected %d stats, got %d", len(questions), len(stats))
	}
	for _, q := range questions {
		if _, ok := stats[q.ID]; !ok {
			t.Fatalf("missing stat for %s", q.ID)
		}
	}
	if _, ok := stats["stray_key"]; ok {
		t.Fatalf("stray answer key must not produce a stat")
	}
}

func TestAggregateAverageRounding(t *testing.T) {
	questions := []model.Question{{ID: "q", Type: model.TypeStars}}
	submissions := []model.Submission{}
	for _, n := range []int{5, 5, 4, 3, 2} {
		submissions = append(submissions, submissionWith(map[string]model.Answer{"q": ratingAnswer(n)}))
	}

	stat := Aggregate(submissions, questions)["q"]
	if stat.TotalResponses != 5 {
		t.Fatalf("expected 5 responses, got %d", stat.TotalResponses)
	}
	if stat.Average != 3.8 {
		t.Fatalf("expected average 3.8, got %v", stat.Average)
	}
}

func TestAggregateNoResponsesSentinel(t *testing.T) {
	questions := []model.Question{{ID: "q", Type: model.TypeScale}}

	stat := Aggregate(nil, questions)["q"]
	if stat.TotalResponses != 0 {
		t.Fatalf("expected 0 responses, got %d", stat.TotalResponses)
	}
	if stat.HasAverage() {
		t.Fatalf("zero responses must yield the no-data sentinel, got %v", stat.Average)
	}
}

func TestAggregateSmileyBuckets(t *testing.T) {
	questions := []model.Question{{ID: "mood", Type: model.TypeSmiley}}
	submissions := []model.Submission{}
	for _, n := range []int{5, 4, 3, 3, 2, 1} {
		submissions = append(submissions, submissionWith(map[string]model.Answer{"mood": ratingAnswer(n)}))
	}

	stat := Aggregate(submissions, questions)["mood"]
	if stat.Buckets == nil {
		t.Fatalf("smiley question must have buckets")
	}
	b := *stat.Buckets
	if b.Good != 2 || b.Average != 2 || b.Bad != 2 {
		t.Fatalf("unexpected buckets: %+v", b)
	}
	if b.Good+b.Average+b.Bad != stat.TotalResponses {
		t.Fatalf("buckets sum %d != responses %d", b.Good+b.Average+b.Bad, stat.TotalResponses)
	}
}

func TestAggregateNonSmileyHasNoBuckets(t *testing.T) {
	questions := []model.Question{{ID: "q", Type: model.TypeStars}}
	submissions := []model.Submission{submissionWith(map[string]model.Answer{"q": ratingAnswer(4)})}

	stat := Aggregate(submissions, questions)["q"]
	if stat.Buckets != nil {
		t.Fatalf("stars question must not have buckets")
	}
}

func TestAggregateTextCountsOnly(t *testing.T) {
	questions := []model.Question{{ID: "comments", Type: model.TypeText}}
	submissions := []model.Submission{
		submissionWith(map[string]model.Answer{"comments": textAnswer("great")}),
		submissionWith(map[string]model.Answer{}),
		submissionWith(map[string]model.Answer{"comments": textAnswer("ok")}),
	}

	stat := Aggregate(submissions, questions)["comments"]
	if stat.TotalResponses != 2 {
		t.Fatalf("expected 2 responses, got %d", stat.TotalResponses)
	}
	if stat.HasAverage() {
		t.Fatalf("text question must not have an average")
	}
}

func TestAggregateEndToEndScenario(t *testing.T) {
	questions := []model.Question{{ID: "food_taste", Type: model.TypeStars, Text: "Rate the food"}}
	submissions := []model.Submission{
		submissionWith(map[string]model.Answer{"food_taste": ratingAnswer(5)}),
		submissionWith(map[string]model.Answer{"food_taste": ratingAnswer(3)}),
	}

	stat := Aggregate(submissions, questions)["food_taste"]
	if stat.Average != 4.0 {
		t.Fatalf("expected average 4.0, got %v", stat.Average)
	}
	if stat.TotalResponses != 2 {
		t.Fatalf("expected 2 responses, got %d", stat.TotalResponses)
	}
}

func TestAggregateIgnoresTextAnswerToRatingQuestion(t *testing.T) {
	questions := []model.Question{{ID: "q", Type: model.TypeStars}}
	submissions := []model.Submission{
		submissionWith(map[string]model.Answer{"q": textAnswer("lovely")}),
		submissionWith(map[string]model.Answer{"q": ratingAnswer(4)}),
	}

	stat := Aggregate(submissions, questions)["q"]
	if stat.TotalResponses != 1 {
		t.Fatalf("expected 1 valid response, got %d", stat.TotalResponses)
	}
	if stat.Average != 4.0 {
		t.Fatalf("expected average 4.0, got %v", stat.Average)
	}
}
