package api

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"flashmind-student/internal/domain"
)

// id accepts both numeric and string identifiers; the backend uses integers.
type id string

func (i *id) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*i = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*i = id(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*i = id(n.String())
	return nil
}

// timestamp accepts RFC 3339 and zone-less local date-times.
type timestamp time.Time

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (t *timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil || raw == "" {
		*t = timestamp(time.Time{})
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			*t = timestamp(parsed)
			return nil
		}
	}
	*t = timestamp(time.Time{})
	return nil
}

type quizSummary struct {
	ID            id     `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Code          string `json:"code"`
	Questions     int    `json:"questions"`
	QuestionCount int    `json:"questionCount"`
	Duration      int    `json:"duration"`
	Difficulty    string `json:"difficulty"`
	Participants  int    `json:"participants"`
	ProfessorName string `json:"professorName"`
}

func (q quizSummary) toDomain() domain.QuizSummary {
	count := q.Questions
	if count == 0 {
		count = q.QuestionCount
	}
	return domain.QuizSummary{
		ID:            string(q.ID),
		Title:         q.Title,
		Description:   q.Description,
		Code:          q.Code,
		Questions:     count,
		Duration:      q.Duration,
		Difficulty:    q.Difficulty,
		Participants:  q.Participants,
		ProfessorName: q.ProfessorName,
	}
}

type response struct {
	ID           id     `json:"id"`
	ResponseText string `json:"responseText"`
	IsCorrect    bool   `json:"isCorrect"`
}

type question struct {
	ID           id         `json:"id"`
	QuestionText string     `json:"questionText"`
	Responses    []response `json:"responses"`
}

// quizDetail carries "questions" either as a count (summary shape) or as the
// question list (detail shape).
type quizDetail struct {
	quizSummary
	Questions json.RawMessage `json:"questions"`
}

func (q quizDetail) toDomain() (domain.Quiz, error) {
	var questions []question
	if raw := bytes.TrimSpace(q.Questions); len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &questions); err != nil {
			return domain.Quiz{}, err
		}
	}
	quiz := domain.Quiz{
		ID:          string(q.ID),
		Title:       q.Title,
		Description: q.Description,
		Code:        q.Code,
		Difficulty:  q.Difficulty,
		Questions:   make([]domain.Question, 0, len(questions)),
	}
	for _, rq := range questions {
		dq := domain.Question{
			ID:      string(rq.ID),
			Prompt:  rq.QuestionText,
			Options: make([]domain.Option, 0, len(rq.Responses)),
		}
		for _, resp := range rq.Responses {
			dq.Options = append(dq.Options, domain.Option{ID: string(resp.ID), Text: resp.ResponseText})
			if resp.IsCorrect && dq.CorrectOption == "" {
				dq.CorrectOption = resp.ResponseText
			}
		}
		quiz.Questions = append(quiz.Questions, dq)
	}
	return quiz, nil
}

type historyEntry struct {
	ParticipationID   id        `json:"participationId"`
	QuizID            id        `json:"quizId"`
	QuizTitle         string    `json:"quizTitle"`
	QuizDescription   string    `json:"quizDescription"`
	Score             float64   `json:"score"`
	CompletedAt       timestamp `json:"completedAt"`
	ProfessorName     string    `json:"professorName"`
	Rank              int       `json:"rank"`
	TotalParticipants int       `json:"totalParticipants"`
}

func (h historyEntry) toDomain() domain.QuizHistoryEntry {
	return domain.QuizHistoryEntry{
		ParticipationID:   string(h.ParticipationID),
		QuizID:            string(h.QuizID),
		QuizTitle:         h.QuizTitle,
		QuizDescription:   h.QuizDescription,
		Score:             h.Score,
		CompletedAt:       time.Time(h.CompletedAt),
		ProfessorName:     h.ProfessorName,
		Rank:              h.Rank,
		TotalParticipants: h.TotalParticipants,
	}
}

type participation struct {
	ID             id        `json:"id"`
	QuizID         id        `json:"quizId"`
	QuizTitle      string    `json:"quizTitle"`
	Score          float64   `json:"score"`
	CompletedAt    timestamp `json:"completedAt"`
	Duration       int       `json:"duration"`
	QuestionCount  int       `json:"questionCount"`
	CorrectAnswers int       `json:"correctAnswers"`
}

func (p participation) toDomain() domain.Participation {
	return domain.Participation{
		ID:             string(p.ID),
		QuizID:         string(p.QuizID),
		QuizTitle:      p.QuizTitle,
		Score:          p.Score,
		CompletedAt:    time.Time(p.CompletedAt),
		Duration:       p.Duration,
		QuestionCount:  p.QuestionCount,
		CorrectAnswers: p.CorrectAnswers,
	}
}

func normalizeCode(code string) string {
	return strings.TrimSpace(code)
}
