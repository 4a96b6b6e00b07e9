package routes

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/pulseboard/pulseboard/app"
	"github.com/pulseboard/pulseboard/config"
	"github.com/pulseboard/pulseboard/database"
	"github.com/pulseboard/pulseboard/httpx"
	"github.com/pulseboard/pulseboard/log"
	"github.com/pulseboard/pulseboard/model"
	"github.com/pulseboard/pulseboard/report"
)

const asyncDispatchTimeout = 10 * time.Minute

// parseWindow resolves from/to query params to a half-open [from, to)
// window, defaulting to the last 7 days. Accepts RFC3339 or plain dates.
func parseWindow(r *http.Request) (from, to time.Time, err error) {
	parse := func(s string) (time.Time, error) {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t, nil
		}
		return time.Parse("2006-01-02", s)
	}

	to = time.Now()
	if s := r.URL.Query().Get("to"); s != "" {
		if to, err = parse(s); err != nil {
			return
		}
	}
	from = to.AddDate(0, 0, -7)
	if s := r.URL.Query().Get("from"); s != "" {
		if from, err = parse(s); err != nil {
			return
		}
	}
	return
}

// answersDoc re-exposes tagged answers as a plain JSON document for the
// admin UI.
func answersDoc(answers map[string]model.Answer) map[string]any {
	doc := make(map[string]any, len(answers))
	for id, a := range answers {
		if a.Kind == model.AnswerRating {
			doc[id] = a.Rating
		} else {
			doc[id] = a.Text
		}
	}
	return doc
}

func ListSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to, err := parseWindow(r)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_window")
			return
		}
		department := r.URL.Query().Get("department")

		// the admin view includes sample rows; reports never do
		submissions, err := database.SubmissionsInWindow(r.Context(), app.DB, from, to, department, true)
		if err != nil {
			httpx.LogInternalError(w, "db.get_submissions", err)
			return
		}

		type submissionDoc struct {
			model.Submission
			Answers map[string]any `json:"answers"`
		}
		docs := make([]submissionDoc, len(submissions))
		for i, sub := range submissions {
			docs[i] = submissionDoc{Submission: sub, Answers: answersDoc(sub.Answers)}
		}

		render.JSON(w, r, map[string]any{
			"submissions": docs,
		})
	}
}

func ClearSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := database.DeleteAllSubmissions(r.Context(), app.DB)
		if err != nil {
			httpx.LogInternalError(w, "db.clear_submissions", err)
			return
		}

		log.Infof("admin.clear_submissions: %d rows deleted", n)
		render.JSON(w, r, map[string]any{
			"deleted": n,
		})
	}
}

func GetAnalytics(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		department := r.URL.Query().Get("department")
		if department == "" {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_query_param.department")
			return
		}
		from, to, err := parseWindow(r)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_window")
			return
		}

		questions, err := config.LoadQuestions(app.ConfigDir)
		if err != nil {
			httpx.LogInternalError(w, "config.load_questions", err)
			return
		}
		entry, ok := questions[department]
		if !ok {
			httpx.LogNotFound(w, "get_analytics", department)
			return
		}

		submissions, err := database.SubmissionsInWindow(r.Context(), app.DB, from, to, department, false)
		if err != nil {
			httpx.LogInternalError(w, "db.get_submissions", err)
			return
		}

		stats := report.Aggregate(submissions, entry.Questions)

		type statDoc struct {
			QuestionID     string               `json:"questionId"`
			Text           string               `json:"text"`
			Average        *float64             `json:"average"`
			TotalResponses int                  `json:"totalResponses"`
			Buckets        *model.RatingBuckets `json:"buckets,omitempty"`
		}
		docs := make([]statDoc, 0, len(entry.Questions))
		for _, q := range entry.Questions {
			stat := stats[q.ID]
			doc := statDoc{
				QuestionID:     q.ID,
				Text:           q.Text,
				TotalResponses: stat.TotalResponses,
				Buckets:        stat.Buckets,
			}
			if stat.HasAverage() {
				avg := stat.Average
				doc.Average = &avg
			}
			docs = append(docs, doc)
		}

		render.JSON(w, r, map[string]any{
			"department":  department,
			"from":        from,
			"to":          to,
			"submissions": len(submissions),
			"stats":       docs,
		})
	}
}

var sampleNames = []string{"Asha", "Ravi", "Meera", "Kiran", "Devi", "Arjun"}

var sampleComments = []string{
	"Very satisfied with the service.",
	"Could be cleaner during peak hours.",
	"Staff were helpful and friendly.",
	"Waiting time was too long.",
	"Great experience overall.",
}

type sampleDataRequest struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
}

// CreateSampleData seeds synthetic submissions for demoing the admin
// panel. Rows are flagged is_sample and never appear in reports or
// analytics.
func CreateSampleData(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := sampleDataRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if req.Count <= 0 || req.Count > 500 {
			req.Count = 10
		}

		questions, err := config.LoadQuestions(app.ConfigDir)
		if err != nil {
			httpx.LogInternalError(w, "config.load_questions", err)
			return
		}
		entry, ok := questions[req.Department]
		if !ok {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.validate", "unknown department %q", req.Department)
			return
		}

		created := 0
		for i := 0; i < req.Count; i++ {
			answers := map[string]any{}
			for _, q := range entry.Questions {
				if q.IsRating() {
					answers[q.ID] = rand.Intn(5) + 1
				} else {
					answers[q.ID] = sampleComments[rand.Intn(len(sampleComments))]
				}
			}

			sub := model.Submission{
				Department: req.Department,
				Name:       sampleNames[rand.Intn(len(sampleNames))],
				Email:      fmt.Sprintf("sample%d@example.com", i),
				IsSample:   true,
				CreatedAt:  time.Now().Add(-time.Duration(rand.Intn(7*24)) * time.Hour),
			}
			if _, err := database.InsertSubmission(r.Context(), app.DB, sub, answers); err != nil {
				httpx.LogInternalError(w, "db.insert_sample", err)
				return
			}
			created++
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"created": created,
		})
	}
}

// SendReports triggers an immediate dispatch for all departments. The
// response is operation-accepted; outcomes land in the logs.
func SendReports(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), asyncDispatchTimeout)
			defer cancel()
			app.Dispatcher.Dispatch(ctx, report.Options{})
		}()

		w.WriteHeader(http.StatusAccepted)
		render.JSON(w, r, map[string]any{
			"status": "accepted",
		})
	}
}

type customReportRequest struct {
	Departments []string `json:"departments"`
	Recipients  []string `json:"recipients"`
	From        string   `json:"from"`
	To          string   `json:"to"`
}

// SendCustomReport dispatches for an explicit department list to an
// explicit recipient list, bypassing per-department configuration.
func SendCustomReport(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := customReportRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if len(req.Departments) == 0 || len(req.Recipients) == 0 {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.validate", "departments and recipients are required")
			return
		}

		opts := report.Options{
			Departments: req.Departments,
			Recipients:  req.Recipients,
		}
		if req.From != "" {
			if opts.Start, err = time.Parse("2006-01-02", req.From); err != nil {
				httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_from")
				return
			}
		}
		if req.To != "" {
			if opts.End, err = time.Parse("2006-01-02", req.To); err != nil {
				httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_to")
				return
			}
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), asyncDispatchTimeout)
			defer cancel()
			app.Dispatcher.Dispatch(ctx, opts)
		}()

		w.WriteHeader(http.StatusAccepted)
		render.JSON(w, r, map[string]any{
			"status": "accepted",
		})
	}
}

func GetSchedule(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		department := chi.URLParam(r, "department")

		setting, err := database.GetSchedule(r.Context(), app.DB, department)
		if err != nil {
			httpx.LogInternalError(w, "db.get_schedule", err)
			return
		}

		render.JSON(w, r, setting)
	}
}

// UpdateSchedule upserts a department's schedule setting and rearms (or
// disarms) its timer.
func UpdateSchedule(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		department := chi.URLParam(r, "department")

		setting := model.ScheduleSetting{}
		err := render.DecodeJSON(r.Body, &setting)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		setting.Department = department

		if !setting.Valid() {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.validate",
				"schedule out of range: day=%d hour=%d minute=%d", setting.DayOfWeek, setting.Hour, setting.Minute)
			return
		}

		if err := database.UpsertSchedule(r.Context(), app.DB, setting); err != nil {
			httpx.LogInternalError(w, "db.upsert_schedule", err)
			return
		}

		if err := app.Scheduler.Refresh(r.Context(), department); err != nil {
			httpx.LogInternalError(w, "scheduler.refresh", err)
			return
		}

		setting, err = database.GetSchedule(r.Context(), app.DB, department)
		if err != nil {
			httpx.LogInternalError(w, "db.get_schedule", err)
			return
		}
		render.JSON(w, r, setting)
	}
}
