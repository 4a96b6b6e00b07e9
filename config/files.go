package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/pulseboard/pulseboard/model"
)

// The admin sentinel key in recipients.json. It is never a reportable
// department.
const AdminKey = "admin"

// Recipients maps department id to notification addresses, plus the
// "admin" sentinel list.
type Recipients map[string][]string

// Department is one entry of questions.json: display name plus the
// ordered question list the form and the reports share.
type Department struct {
	Name      string           `json:"name"`
	Questions []model.Question `json:"questions"`
}

type Questions map[string]Department

// ReadError wraps a config file that is missing or not syntactically
// valid JSON. Schema problems are deliberately not load errors; they are
// the job of the out-of-band validators below.
type ReadError struct {
	File string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("config %s: %v", e.File, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// LoadRecipients re-reads recipients.json. No caching: report runs are
// weekly and operator edits must take effect on the next run.
func LoadRecipients(dir string) (Recipients, error) {
	var recipients Recipients
	if err := loadJSON(dir, "recipients.json", &recipients); err != nil {
		return nil, err
	}
	return recipients, nil
}

// LoadQuestions re-reads questions.json. Same freshness rule as
// LoadRecipients.
func LoadQuestions(dir string) (Questions, error) {
	var questions Questions
	if err := loadJSON(dir, "questions.json", &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func loadJSON(dir, name string, out any) error {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return &ReadError{File: name, Err: err}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ReadError{File: name, Err: err}
	}
	return nil
}

// Departments lists the reportable department ids, excluding the admin
// sentinel.
func (r Recipients) Departments() []string {
	departments := make([]string, 0, len(r))
	for id := range r {
		if id != AdminKey {
			departments = append(departments, id)
		}
	}
	return departments
}

var reEmail = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

var knownTypes = map[string]bool{
	model.TypeSmiley: true,
	model.TypeScale:  true,
	model.TypeStars:  true,
	model.TypeSelect: true,
	model.TypeText:   true,
}

// ValidateRecipients checks recipient lists for shape problems. Run via
// -validate-config, never at load time.
func ValidateRecipients(recipients Recipients) (problems []string) {
	for dept, addresses := range recipients {
		if len(addresses) == 0 {
			problems = append(problems, fmt.Sprintf("%s: empty recipient list", dept))
		}
		for _, addr := range addresses {
			if !reEmail.MatchString(addr) {
				problems = append(problems, fmt.Sprintf("%s: invalid address %q", dept, addr))
			}
		}
	}
	return
}

// ValidateQuestions checks questions.json for unknown types, duplicate
// ids and non-integer label keys.
func ValidateQuestions(questions Questions) (problems []string) {
	for dept, entry := range questions {
		if entry.Name == "" {
			problems = append(problems, fmt.Sprintf("%s: missing display name", dept))
		}
		seen := map[string]bool{}
		for _, q := range entry.Questions {
			if q.ID == "" {
				problems = append(problems, fmt.Sprintf("%s: question with empty id", dept))
				continue
			}
			if seen[q.ID] {
				problems = append(problems, fmt.Sprintf("%s: duplicate question id %q", dept, q.ID))
			}
			seen[q.ID] = true
			if !knownTypes[q.Type] {
				problems = append(problems, fmt.Sprintf("%s/%s: unknown type %q", dept, q.ID, q.Type))
			}
			for key := range q.Labels {
				if _, err := strconv.Atoi(key); err != nil {
					problems = append(problems, fmt.Sprintf("%s/%s: label key %q is not an integer", dept, q.ID, key))
				}
			}
		}
	}
	return
}
