package report

import (
	"context"
	"fmt"
	"html"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pulseboard/pulseboard/config"
	"github.com/pulseboard/pulseboard/log"
	"github.com/pulseboard/pulseboard/mailer"
	"github.com/pulseboard/pulseboard/model"
)

// SubmissionSource is the read-only view of the submission store the
// dispatcher needs: everything in a half-open window, sample rows
// already excluded.
type SubmissionSource interface {
	SubmissionsInWindow(ctx context.Context, from, to time.Time) ([]model.Submission, error)
}

// Mailer is the outbound transport. Implementations must handle their
// own durability fallback; a returned error only marks the department as
// failed in the dispatch result.
type Mailer interface {
	Send(ctx context.Context, recipients []string, subject, htmlBody string, attachments []mailer.Attachment) error
}

type Dispatcher struct {
	Source    SubmissionSource
	Mailer    Mailer
	ConfigDir string

	// Now is the clock used to resolve default windows. Nil means
	// time.Now.
	Now func() time.Time
}

// Options scopes one dispatch run. Zero Start/End resolve to the last
// seven days. Departments narrows the run; Recipients overrides every
// selected department's configured list (ad-hoc/test sends).
type Options struct {
	Start       time.Time
	End         time.Time
	Departments []string
	Recipients  []string
}

type Failure struct {
	Department string `json:"department"`
	Stage      string `json:"stage"`
	Err        error  `json:"-"`
}

// Result is the typed outcome of one run. Per-department failures never
// abort sibling departments; a run-level failure (config, store) leaves
// Sent empty and records a single failure with an empty department.
type Result struct {
	RunID    string    `json:"runId"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Sent     []string  `json:"sent"`
	Skipped  []string  `json:"skipped"`
	Failures []Failure `json:"failures,omitempty"`
}

func (r Result) TotalFailure() bool {
	return len(r.Failures) == 1 && r.Failures[0].Department == ""
}

// Dispatch runs report generation and delivery for the selected
// departments. It never panics and never returns an error: outcomes are
// in the result, detail in the logs.
func (d *Dispatcher) Dispatch(ctx context.Context, opts Options) (result Result) {
	result.RunID = uuid.NewString()

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("report.dispatch[%s]: panic: %v", result.RunID, r)
			result.Failures = append(result.Failures, Failure{Stage: "dispatch", Err: fmt.Errorf("panic: %v", r)})
		}
	}()

	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	result.End = opts.End
	if result.End.IsZero() {
		result.End = now()
	}
	result.Start = opts.Start
	if result.Start.IsZero() {
		result.Start = result.End.AddDate(0, 0, -7)
	}

	recipients, err := config.LoadRecipients(d.ConfigDir)
	if err != nil {
		log.Errorf("report.dispatch[%s]: recipients config: %s", result.RunID, err)
		result.Failures = append(result.Failures, Failure{Stage: "config", Err: err})
		return
	}

	// a broken questions file degrades to raw ids, it does not stop the run
	questions, err := config.LoadQuestions(d.ConfigDir)
	if err != nil {
		log.Warnf("report.dispatch[%s]: questions config: %s", result.RunID, err)
		questions = config.Questions{}
	}

	submissions, err := d.Source.SubmissionsInWindow(ctx, result.Start, result.End)
	if err != nil {
		log.Errorf("report.dispatch[%s]: store query: %s", result.RunID, err)
		result.Failures = append(result.Failures, Failure{Stage: "store", Err: err})
		return
	}

	byDepartment := map[string][]model.Submission{}
	for _, sub := range submissions {
		byDepartment[sub.Department] = append(byDepartment[sub.Department], sub)
	}

	departments := opts.Departments
	if len(departments) == 0 {
		departments = recipients.Departments()
		sort.Strings(departments)
	}

	for _, dept := range departments {
		d.dispatchOne(ctx, &result, dept, byDepartment[dept], recipients, questions, opts.Recipients)
	}

	log.Infof("report.dispatch[%s]: sent=%d skipped=%d failed=%d",
		result.RunID, len(result.Sent), len(result.Skipped), len(result.Failures))
	return
}

func (d *Dispatcher) dispatchOne(
	ctx context.Context, result *Result,
	dept string, submissions []model.Submission,
	recipients config.Recipients, questions config.Questions,
	override []string,
) {
	to := override
	if len(to) == 0 {
		to = recipients[dept]
	}
	if len(to) == 0 {
		log.Debugf("report.dispatch[%s]: %s: no recipients, skipping", result.RunID, dept)
		result.Skipped = append(result.Skipped, dept)
		return
	}

	displayName := dept
	var questionList []model.Question
	if entry, ok := questions[dept]; ok {
		if entry.Name != "" {
			displayName = entry.Name
		}
		questionList = entry.Questions
	}

	pdf, renderErr := renderIsolated(displayName, time.Now(), submissions, questionList)
	if renderErr != nil {
		log.Errorf("report.dispatch[%s]: %s: render: %s", result.RunID, dept, renderErr)
	}

	var attachments []mailer.Attachment
	if renderErr == nil {
		attachments = []mailer.Attachment{{
			Filename: fmt.Sprintf("%s-report-%s.pdf", dept, result.Start.Format("2006-01-02")),
			Content:  pdf,
		}}
	}

	subject := fmt.Sprintf("Weekly Feedback Report: %s (week of %s)", displayName, result.Start.Format("02 Jan 2006"))
	body := emailBody(displayName, result.Start, result.End, len(submissions), renderErr)

	if err := d.Mailer.Send(ctx, to, subject, body, attachments); err != nil {
		log.Errorf("report.dispatch[%s]: %s: send: %s", result.RunID, dept, err)
		result.Failures = append(result.Failures, Failure{Department: dept, Stage: "send", Err: err})
		return
	}

	result.Sent = append(result.Sent, dept)
}

// renderIsolated guards Render against panics so a rendering bug costs
// at most the attachment, not the email.
func renderIsolated(displayName string, generatedAt time.Time, submissions []model.Submission, questions []model.Question) (pdf []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			pdf, err = nil, fmt.Errorf("render panic: %v", r)
		}
	}()
	return Render(displayName, generatedAt, submissions, questions)
}

func emailBody(displayName string, start, end time.Time, count int, renderErr error) string {
	body := fmt.Sprintf(
		`<h2>%s</h2>
<p>Weekly feedback report for %s to %s.</p>
<p>Submissions received: <b>%d</b></p>`,
		html.EscapeString(displayName),
		start.Format("02 Jan 2006"), end.Format("02 Jan 2006"),
		count,
	)
	if count == 0 {
		body += `<p>No feedback received this week.</p>`
	}
	if renderErr != nil {
		body += fmt.Sprintf(
			`<p style="color:red"><b>The PDF report could not be generated:</b> %s</p>`,
			html.EscapeString(renderErr.Error()),
		)
	}
	return body
}
