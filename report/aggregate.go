package report

import (
	"math"

	"github.com/pulseboard/pulseboard/model"
)

// Aggregate computes per-question summary statistics over a set of
// submissions. The result holds exactly one entry per supplied question,
// keyed by question id. Answer keys not declared for any question are
// ignored. Pure function, no side effects.
func Aggregate(submissions []model.Submission, questions []model.Question) map[string]model.Stat {
	stats := make(map[string]model.Stat, len(questions))

	for _, q := range questions {
		stat := model.Stat{QuestionID: q.ID, Average: math.NaN()}

		if q.IsRating() {
			sum := 0
			var buckets model.RatingBuckets
			for _, sub := range submissions {
				a, ok := sub.Answers[q.ID]
				if !ok || a.Kind != model.AnswerRating {
					continue
				}
				stat.TotalResponses++
				sum += a.Rating
				switch {
				case a.Rating >= 4:
					buckets.Good++
				case a.Rating == 3:
					buckets.Average++
				default:
					buckets.Bad++
				}
			}
			if stat.TotalResponses > 0 {
				stat.Average = round1(float64(sum) / float64(stat.TotalResponses))
			}
			if q.Type == model.TypeSmiley {
				stat.Buckets = &buckets
			}
		} else {
			for _, sub := range submissions {
				if _, ok := sub.Answers[q.ID]; ok {
					stat.TotalResponses++
				}
			}
		}

		stats[q.ID] = stat
	}

	return stats
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
