package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"flashmind-student/internal/api"
	"flashmind-student/internal/domain"
	"flashmind-student/internal/runner"
	"golang.org/x/sync/errgroup"
)

// QuizService contains the student-facing quiz use cases.
type QuizService struct {
	quizzes QuizRepository
	cfg     runner.Config
	tickers runner.TickerFactory
	period  time.Duration
	report  bool
	catalog Catalog
}

func NewQuizService(quizzes QuizRepository, cfg runner.Config) *QuizService {
	return &QuizService{quizzes: quizzes, cfg: cfg, tickers: runner.NewTicker, period: time.Second, report: true}
}

// NewQuizServiceWithTicker is test-only for deterministic countdowns.
func NewQuizServiceWithTicker(quizzes QuizRepository, cfg runner.Config, tickers runner.TickerFactory) *QuizService {
	return &QuizService{quizzes: quizzes, cfg: cfg, tickers: tickers, period: time.Second, report: true}
}

// SetReporting turns the start/answer/finish calls to the backend on or off.
// Question sets served from a local bank are unknown to the backend.
func (s *QuizService) SetReporting(enabled bool) {
	s.report = enabled
}

// SetCatalog adds locally banked question sets to the dashboard.
func (s *QuizService) SetCatalog(c Catalog) {
	s.catalog = c
}

// Dashboard is everything the student dashboard shows.
type Dashboard struct {
	Quizzes  []domain.QuizSummary
	Practice []domain.QuizSummary
	Stats    *domain.StudentStats
	History  []domain.QuizHistoryEntry
	Warnings []string
}

// Dashboard loads public quizzes, stats and history concurrently. The quiz
// list is required; stats and history failures become warnings for the page.
func (s *QuizService) Dashboard(ctx context.Context, student StudentAPI) (Dashboard, error) {
	var (
		dash       Dashboard
		stats      domain.StudentStats
		statsErr   error
		historyErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		quizzes, err := student.PublicQuizzes(gctx)
		if err != nil {
			return fmt.Errorf("load public quizzes: %w", err)
		}
		dash.Quizzes = quizzes
		return nil
	})
	if s.catalog != nil {
		g.Go(func() error {
			practice, err := s.catalog.Summaries(gctx)
			if err != nil {
				return fmt.Errorf("load local quizzes: %w", err)
			}
			dash.Practice = practice
			return nil
		})
	}
	g.Go(func() error {
		stats, statsErr = student.Stats(gctx)
		return nil
	})
	g.Go(func() error {
		dash.History, historyErr = student.History(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	if statsErr != nil {
		dash.Warnings = append(dash.Warnings, api.UserMessage(statsErr, "Statistiques indisponibles."))
	} else {
		dash.Stats = &stats
	}
	if historyErr != nil {
		dash.Warnings = append(dash.Warnings, api.UserMessage(historyErr, "Historique indisponible."))
	}
	return dash, nil
}

// JoinByCode resolves a quiz code. An empty code fails before any network call.
func (s *QuizService) JoinByCode(ctx context.Context, student StudentAPI, code string) (domain.QuizSummary, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.QuizSummary{}, &domain.ValidationError{Field: "code", Message: "Veuillez entrer un code de quiz !"}
	}
	quiz, err := student.QuizByCode(ctx, code)
	if err != nil {
		return domain.QuizSummary{}, err
	}
	if quiz.ID == "" {
		return domain.QuizSummary{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

// StartAttempt loads the question set and starts a live attempt. The caller
// owns the attempt and must Close it when the student leaves the screen.
func (s *QuizService) StartAttempt(ctx context.Context, student StudentAPI, quizID string) (*Attempt, error) {
	quiz, err := s.quizzes.GetQuiz(WithStudentAPI(ctx, student), quizID)
	if err != nil {
		return nil, err
	}
	var reporter AttemptReporter
	if s.report && student != nil {
		reporter = student
	}
	attempt, err := NewAttempt(quiz, s.cfg, reporter, s.tickers, s.period)
	if err != nil {
		return nil, fmt.Errorf("quiz %s: %w", quizID, err)
	}
	return attempt, nil
}

// History lists the student's past participations.
func (s *QuizService) History(ctx context.Context, student StudentAPI) ([]domain.QuizHistoryEntry, error) {
	return student.History(ctx)
}

// Participation returns one past participation.
func (s *QuizService) Participation(ctx context.Context, student StudentAPI, id string) (domain.Participation, error) {
	return student.Participation(ctx, id)
}

// DifficultyClass maps the backend's difficulty labels to a badge style.
func DifficultyClass(difficulty string) string {
	switch strings.ToLower(strings.TrimSpace(difficulty)) {
	case "facile", "easy":
		return "easy"
	case "moyen", "medium":
		return "medium"
	case "difficile", "hard":
		return "hard"
	default:
		return "neutral"
	}
}
