package report

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/pulseboard/pulseboard/model"
)

const (
	pageMargin    = 15.0
	lineHeight    = 7.0
	sectionSpace  = 4.0
	bottomReserve = 20.0
)

// Render produces the weekly report PDF for one department: a summary
// table over the declared questions, then one section per submission in
// the order supplied. Callers wanting chronological sections sort before
// calling.
func Render(departmentName string, generatedAt time.Time, submissions []model.Submission, questions []model.Question) ([]byte, error) {
	doc := buildDocument(departmentName, generatedAt, submissions, questions)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildDocument(departmentName string, generatedAt time.Time, submissions []model.Submission, questions []model.Question) *gofpdf.Fpdf {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(pageMargin, pageMargin, pageMargin)
	doc.SetAutoPageBreak(true, bottomReserve)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 16)
	doc.CellFormat(0, 10, fmt.Sprintf("%s - Weekly Feedback Report", departmentName), "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 9)
	doc.CellFormat(0, 6, "Generated "+generatedAt.Format("Mon, 02 Jan 2006 15:04"), "", 1, "L", false, 0, "")
	doc.Ln(4)

	if len(submissions) == 0 {
		doc.SetFont("Helvetica", "I", 12)
		doc.CellFormat(0, 10, "No feedback received this period.", "", 1, "L", false, 0, "")
		return doc
	}

	writeSummaryTable(doc, submissions, questions)

	doc.AddPage()
	doc.SetFont("Helvetica", "B", 14)
	doc.CellFormat(0, 10, "Individual Submissions", "", 1, "L", false, 0, "")
	doc.Ln(2)

	for i, sub := range submissions {
		writeSubmissionSection(doc, i+1, sub, questions)
	}

	return doc
}

type summaryRow struct {
	Title   string
	Text    string
	Average string
	Count   string
}

// summaryRows flattens aggregate stats into display rows, one per
// question in declared order. A rating question with no valid responses
// shows "N/A", never 0; text questions show "-".
func summaryRows(submissions []model.Submission, questions []model.Question) []summaryRow {
	stats := Aggregate(submissions, questions)

	rows := make([]summaryRow, 0, len(questions))
	for _, q := range questions {
		stat := stats[q.ID]

		average := "-"
		if q.IsRating() {
			if stat.HasAverage() {
				average = fmt.Sprintf("%.1f/5", stat.Average)
			} else {
				average = "N/A"
			}
		}

		rows = append(rows, summaryRow{
			Title:   model.Title(q.ID),
			Text:    q.Text,
			Average: average,
			Count:   fmt.Sprintf("%d", stat.TotalResponses),
		})
	}
	return rows
}

func writeSummaryTable(doc *gofpdf.Fpdf, submissions []model.Submission, questions []model.Question) {
	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(0, 8, "Summary", "", 1, "L", false, 0, "")

	colWidths := []float64{45, 85, 25, 25}
	headers := []string{"Question", "Prompt", "Average", "Responses"}

	doc.SetFont("Helvetica", "B", 9)
	doc.SetFillColor(230, 230, 230)
	for i, h := range headers {
		doc.CellFormat(colWidths[i], lineHeight, h, "1", 0, "L", true, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont("Helvetica", "", 9)
	for _, row := range summaryRows(submissions, questions) {
		ensureRoom(doc, lineHeight)
		doc.CellFormat(colWidths[0], lineHeight, row.Title, "1", 0, "L", false, 0, "")
		doc.CellFormat(colWidths[1], lineHeight, row.Text, "1", 0, "L", false, 0, "")
		doc.CellFormat(colWidths[2], lineHeight, row.Average, "1", 0, "C", false, 0, "")
		doc.CellFormat(colWidths[3], lineHeight, row.Count, "1", 0, "C", false, 0, "")
		doc.Ln(-1)
	}
}

// answerLines renders every answered question of one submission as
// "prompt: value" lines, in declared question order, with any answers
// whose ids are no longer in config appended last under their raw key.
func answerLines(sub model.Submission, questions []model.Question) []string {
	lines := make([]string, 0, len(sub.Answers))
	seen := make(map[string]bool, len(sub.Answers))

	for _, q := range questions {
		a, ok := sub.Answers[q.ID]
		if !ok {
			continue
		}
		seen[q.ID] = true
		lines = append(lines, formatAnswer(q.Text, q, a))
	}

	// answers that drifted out of config still show, under the raw key
	drifted := make([]string, 0)
	for id := range sub.Answers {
		if !seen[id] {
			drifted = append(drifted, id)
		}
	}
	sort.Strings(drifted)
	for _, id := range drifted {
		lines = append(lines, formatAnswer(model.Title(id), model.Question{}, sub.Answers[id]))
	}

	return lines
}

func formatAnswer(prompt string, q model.Question, a model.Answer) string {
	switch a.Kind {
	case model.AnswerRating:
		if label := q.Label(a.Rating); label != "" {
			return fmt.Sprintf("%s: %d (%s)", prompt, a.Rating, label)
		}
		return fmt.Sprintf("%s: %d", prompt, a.Rating)
	default:
		return fmt.Sprintf("%s: %s", prompt, a.Text)
	}
}

func writeSubmissionSection(doc *gofpdf.Fpdf, seq int, sub model.Submission, questions []model.Question) {
	lines := answerLines(sub, questions)

	// keep the heading and at least one line together
	ensureRoom(doc, lineHeight*3)

	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(0, lineHeight, fmt.Sprintf("#%d - %s", seq, sub.CreatedAt.Format("02 Jan 2006 15:04")), "", 1, "L", false, 0, "")

	doc.SetFont("Helvetica", "I", 9)
	doc.CellFormat(0, 5, "From: "+fromLine(sub), "", 1, "L", false, 0, "")

	doc.SetFont("Helvetica", "", 10)
	for _, line := range lines {
		ensureRoom(doc, lineHeight)
		doc.MultiCell(0, 6, line, "", "L", false)
	}
	doc.Ln(sectionSpace)
}

func fromLine(sub model.Submission) string {
	if sub.Anonymous() {
		return "Anonymous"
	}
	if sub.Email == "" {
		return sub.Name
	}
	if sub.Name == "" {
		return sub.Email
	}
	return fmt.Sprintf("%s (%s)", sub.Name, sub.Email)
}

// ensureRoom starts a new page when fewer than needed millimeters remain
// above the bottom reserve, so no row or line is ever clipped.
func ensureRoom(doc *gofpdf.Fpdf, needed float64) {
	_, pageHeight := doc.GetPageSize()
	if doc.GetY()+needed > pageHeight-bottomReserve {
		doc.AddPage()
	}
}
