package api

import (
	"context"
	"fmt"
	"net/http"

	"flashmind-student/internal/domain"
	"golang.org/x/oauth2"
)

// StudentClient calls the /student endpoints with a bearer token.
type StudentClient struct {
	c *Client
}

// Student binds the client to a token source.
func (c *Client) Student(ts oauth2.TokenSource) *StudentClient {
	return &StudentClient{c: c.withToken(ts)}
}

func (s *StudentClient) PublicQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	var raw []quizSummary
	if err := s.c.do(ctx, "public_quizzes", http.MethodGet, "/student/quizzes/public", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]domain.QuizSummary, len(raw))
	for i, q := range raw {
		out[i] = q.toDomain()
	}
	return out, nil
}

func (s *StudentClient) QuizByCode(ctx context.Context, code string) (domain.QuizSummary, error) {
	var raw quizSummary
	err := s.c.do(ctx, "quiz_by_code", http.MethodGet, "/student/quiz/code/"+escape(normalizeCode(code)), nil, &raw)
	return raw.toDomain(), err
}

// Quiz returns the quiz detail, including its questions when the backend sends them.
func (s *StudentClient) Quiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var raw quizDetail
	if err := s.c.do(ctx, "quiz", http.MethodGet, "/student/quiz/"+escape(quizID), nil, &raw); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return domain.Quiz{}, domain.ErrQuizNotFound
		}
		return domain.Quiz{}, err
	}
	quiz, err := raw.toDomain()
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("decode quiz: %w", err)
	}
	return quiz, nil
}

func (s *StudentClient) StartQuiz(ctx context.Context, quizID string) error {
	return s.c.do(ctx, "start_quiz", http.MethodPost, "/student/quiz/"+escape(quizID)+"/start", nil, nil)
}

func (s *StudentClient) SubmitAnswer(ctx context.Context, quizID, questionID, answerID string) error {
	return s.c.do(ctx, "submit_answer", http.MethodPost, "/student/quiz/"+escape(quizID)+"/answer", map[string]string{
		"questionId": questionID,
		"answerId":   answerID,
	}, nil)
}

func (s *StudentClient) FinishQuiz(ctx context.Context, quizID string, req domain.SubmitQuizRequest) error {
	return s.c.do(ctx, "finish_quiz", http.MethodPost, "/student/quiz/"+escape(quizID)+"/finish", req, nil)
}

func (s *StudentClient) Stats(ctx context.Context) (domain.StudentStats, error) {
	var out domain.StudentStats
	err := s.c.do(ctx, "stats", http.MethodGet, "/student/stats", nil, &out)
	return out, err
}

func (s *StudentClient) History(ctx context.Context) ([]domain.QuizHistoryEntry, error) {
	var raw []historyEntry
	if err := s.c.do(ctx, "history", http.MethodGet, "/student/history", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]domain.QuizHistoryEntry, len(raw))
	for i, h := range raw {
		out[i] = h.toDomain()
	}
	return out, nil
}

func (s *StudentClient) Participation(ctx context.Context, participationID string) (domain.Participation, error) {
	var raw participation
	err := s.c.do(ctx, "participation", http.MethodGet, "/student/participation/"+escape(participationID), nil, &raw)
	return raw.toDomain(), err
}
