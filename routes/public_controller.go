package routes

import (
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/render"
	"github.com/pulseboard/pulseboard/app"
	"github.com/pulseboard/pulseboard/config"
	"github.com/pulseboard/pulseboard/database"
	"github.com/pulseboard/pulseboard/httpx"
	"github.com/pulseboard/pulseboard/log"
	"github.com/pulseboard/pulseboard/model"
)

// PublicGetDepartments exposes the form configuration: department ids,
// display names and question lists. Read from disk on every request so
// config edits show up immediately.
func PublicGetDepartments(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questions, err := config.LoadQuestions(app.ConfigDir)
		if err != nil {
			httpx.LogInternalError(w, "config.load_questions", err)
			return
		}

		type departmentInfo struct {
			ID        string           `json:"id"`
			Name      string           `json:"name"`
			Questions []model.Question `json:"questions"`
		}

		departments := make([]departmentInfo, 0, len(questions))
		for id, entry := range questions {
			departments = append(departments, departmentInfo{
				ID:        id,
				Name:      entry.Name,
				Questions: entry.Questions,
			})
		}
		sort.Slice(departments, func(i, j int) bool {
			return departments[i].ID < departments[j].ID
		})

		render.JSON(w, r, map[string]any{
			"departments": departments,
		})
	}
}

type submissionRequest struct {
	Department string         `json:"department"`
	Name       string         `json:"name"`
	Email      string         `json:"email"`
	Contact    string         `json:"contact"`
	Location   string         `json:"location"`
	Answers    map[string]any `json:"answers"`
}

func PublicSubmitFeedback(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := submissionRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if req.Department == "" || len(req.Answers) == 0 {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.validate", "department and answers are required")
			return
		}

		// the department set is fixed by configuration, not user input
		questions, err := config.LoadQuestions(app.ConfigDir)
		if err != nil {
			httpx.LogInternalError(w, "config.load_questions", err)
			return
		}
		if _, ok := questions[req.Department]; !ok {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.validate", "unknown department %q", req.Department)
			return
		}

		sub := model.Submission{
			Department: req.Department,
			Name:       req.Name,
			Email:      req.Email,
			Contact:    req.Contact,
			Location:   req.Location,
			CreatedAt:  time.Now(),
		}

		id, err := database.InsertSubmission(r.Context(), app.DB, sub, req.Answers)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_submission", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": id,
		})
	}
}
