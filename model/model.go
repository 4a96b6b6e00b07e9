package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Question types as declared in questions.json.
const (
	TypeSmiley = "smiley"   // 1-5 with fixed good/average/bad bucketing
	TypeScale  = "scale"    // numeric scale
	TypeStars  = "rating_5" // 5-star rating
	TypeSelect = "select"   // option select
	TypeText   = "text"     // free text
)

type Question struct {
	ID     string            `json:"id"`
	Text   string            `json:"text"`
	Type   string            `json:"type"`
	Labels map[string]string `json:"labels,omitempty"`
}

func (q Question) IsRating() bool {
	switch q.Type {
	case TypeSmiley, TypeScale, TypeStars, TypeSelect:
		return true
	}
	return false
}

// Label returns the display label declared for an exact rating value,
// or "" if the question declares none.
func (q Question) Label(value int) string {
	return q.Labels[strconv.Itoa(value)]
}

// Title renders a question id like "food_taste" as "Food Taste".
// Used as a fallback wherever config and stored answers have drifted.
func Title(id string) string {
	words := strings.Split(id, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

type AnswerKind int

const (
	AnswerRating AnswerKind = iota
	AnswerText
)

// Answer is the tagged form of one submitted response. Raw answers arrive
// as an untyped JSON map; they are classified exactly once, when a
// submission is decoded, so downstream code never probes values.
type Answer struct {
	Kind   AnswerKind
	Rating int
	Text   string
}

// ParseAnswer classifies a raw JSON answer value. Numbers and numeric
// strings become ratings, everything else non-empty becomes text.
// Returns ok=false for nil and empty values, which are dropped.
func ParseAnswer(v any) (Answer, bool) {
	switch value := v.(type) {
	case nil:
		return Answer{}, false
	case float64:
		return Answer{Kind: AnswerRating, Rating: int(value)}, true
	case int:
		return Answer{Kind: AnswerRating, Rating: value}, true
	case string:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return Answer{}, false
		}
		if n, err := strconv.Atoi(trimmed); err == nil {
			return Answer{Kind: AnswerRating, Rating: n}, true
		}
		return Answer{Kind: AnswerText, Text: trimmed}, true
	default:
		return Answer{}, false
	}
}

// ParseAnswers converts a raw answers document into tagged answers,
// dropping nil and empty entries.
func ParseAnswers(raw map[string]any) map[string]Answer {
	answers := make(map[string]Answer, len(raw))
	for id, v := range raw {
		if a, ok := ParseAnswer(v); ok {
			answers[id] = a
		}
	}
	return answers
}

// DecodeAnswers parses the answers JSON column of a stored submission.
func DecodeAnswers(data []byte) (map[string]Answer, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return ParseAnswers(raw), nil
}

type Submission struct {
	ID         int               `json:"id"`
	Department string            `json:"department"`
	Name       string            `json:"name,omitempty"`
	Email      string            `json:"email,omitempty"`
	Contact    string            `json:"contact,omitempty"`
	Location   string            `json:"location,omitempty"`
	Answers    map[string]Answer `json:"-"`
	IsSample   bool              `json:"isSample,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

func (s Submission) Anonymous() bool {
	return s.Name == "" && s.Email == ""
}

type ScheduleSetting struct {
	Department string    `json:"department"`
	DayOfWeek  int       `json:"dayOfWeek"`
	Hour       int       `json:"hour"`
	Minute     int       `json:"minute"`
	Enabled    bool      `json:"enabled"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func DefaultSchedule(department string) ScheduleSetting {
	return ScheduleSetting{
		Department: department,
		DayOfWeek:  0,
		Hour:       9,
		Minute:     0,
		Enabled:    true,
	}
}

func (s ScheduleSetting) Valid() bool {
	return s.DayOfWeek >= 0 && s.DayOfWeek <= 6 &&
		s.Hour >= 0 && s.Hour <= 23 &&
		s.Minute >= 0 && s.Minute <= 59
}

// RatingBuckets is the fixed three-way split for smiley questions on a
// 1-5 scale: >=4 good, =3 average, <=2 bad. The thresholds are policy,
// not configuration.
type RatingBuckets struct {
	Good    int `json:"good"`
	Average int `json:"average"`
	Bad     int `json:"bad"`
}

// Stat is the aggregate for one question. Average is NaN when a rating
// question received no valid responses; zero would misread as a score.
type Stat struct {
	QuestionID     string         `json:"questionId"`
	Average        float64        `json:"-"`
	TotalResponses int            `json:"totalResponses"`
	Buckets        *RatingBuckets `json:"buckets,omitempty"`
}

func (s Stat) HasAverage() bool {
	return !math.IsNaN(s.Average)
}
