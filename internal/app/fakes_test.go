package app_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"flashmind-student/internal/domain"
	"flashmind-student/internal/runner"
)

func sampleQuiz(n int) domain.Quiz {
	quiz := domain.Quiz{ID: "quiz-1", Title: "React.js Fundamentals"}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("q%d", i+1)
		quiz.Questions = append(quiz.Questions, domain.Question{
			ID:     id,
			Prompt: "Question " + id,
			Options: []domain.Option{
				{ID: id + "-a", Text: "wrong"},
				{ID: id + "-b", Text: "right"},
			},
			CorrectOption: "right",
		})
	}
	return quiz
}

type staticRepo map[string]domain.Quiz

func (r staticRepo) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	q, ok := r[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return q, nil
}

type answerCall struct {
	quizID, questionID, answerID string
}

// fakeStudent records every backend call; the ticker goroutine reports
// through it concurrently with the test.
type fakeStudent struct {
	mu       sync.Mutex
	started  []string
	answers  []answerCall
	finished []domain.SubmitQuizRequest

	startErr   error
	answerErr  error
	finishErr  error
	// answerGate, when set, holds every SubmitAnswer until it is closed.
	answerGate chan struct{}
	waiting    int
	statsErr   error
	historyErr error
	publicErr  error
	quizzes    []domain.QuizSummary
	byCode     map[string]domain.QuizSummary
	history    []domain.QuizHistoryEntry
	detail     map[string]domain.Quiz
}

func (f *fakeStudent) StartQuiz(_ context.Context, quizID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, quizID)
	return f.startErr
}

func (f *fakeStudent) SubmitAnswer(_ context.Context, quizID, questionID, answerID string) error {
	if f.answerGate != nil {
		f.mu.Lock()
		f.waiting++
		f.mu.Unlock()
		<-f.answerGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.answerErr != nil {
		return f.answerErr
	}
	f.answers = append(f.answers, answerCall{quizID, questionID, answerID})
	return nil
}

func (f *fakeStudent) FinishQuiz(_ context.Context, _ string, req domain.SubmitQuizRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.finishErr != nil {
		return f.finishErr
	}
	f.finished = append(f.finished, req)
	return nil
}

func (f *fakeStudent) PublicQuizzes(context.Context) ([]domain.QuizSummary, error) {
	return f.quizzes, f.publicErr
}

func (f *fakeStudent) QuizByCode(_ context.Context, code string) (domain.QuizSummary, error) {
	q, ok := f.byCode[code]
	if !ok {
		return domain.QuizSummary{}, domain.ErrQuizNotFound
	}
	return q, nil
}

func (f *fakeStudent) Quiz(_ context.Context, quizID string) (domain.Quiz, error) {
	q, ok := f.detail[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return q, nil
}

func (f *fakeStudent) Stats(context.Context) (domain.StudentStats, error) {
	return domain.StudentStats{TotalQuizzes: 4, AverageScore: 72.5}, f.statsErr
}

func (f *fakeStudent) History(context.Context) ([]domain.QuizHistoryEntry, error) {
	return f.history, f.historyErr
}

func (f *fakeStudent) Participation(_ context.Context, id string) (domain.Participation, error) {
	return domain.Participation{ID: id}, nil
}

func (f *fakeStudent) snapshot() ([]string, []answerCall, []domain.SubmitQuizRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.started...), append([]answerCall(nil), f.answers...), append([]domain.SubmitQuizRequest(nil), f.finished...)
}

func (f *fakeStudent) waitingAnswers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waiting
}

// manualTickers hands out ManualTickers and remembers them in order.
type manualTickers struct {
	mu      sync.Mutex
	tickers []*runner.ManualTicker
}

func (m *manualTickers) factory(time.Duration) runner.Ticker {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := runner.NewManualTicker()
	m.tickers = append(m.tickers, t)
	return t
}

func (m *manualTickers) get(i int) *runner.ManualTicker {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i >= len(m.tickers) {
		return nil
	}
	return m.tickers[i]
}

func (m *manualTickers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickers)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
