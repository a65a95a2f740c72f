package app

import (
	"context"

	"flashmind-student/internal/domain"
	"golang.org/x/oauth2"
)

// CredentialStore is the per-browser session storage (token, refreshToken, user).
type CredentialStore interface {
	Load(ctx context.Context, sid string) (domain.Credentials, bool, error)
	Save(ctx context.Context, sid string, creds domain.Credentials) error
	Clear(ctx context.Context, sid string) error
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizLoader fetches quiz content from a backing store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// Catalog lists question sets served from a local bank.
type Catalog interface {
	Summaries(ctx context.Context) ([]domain.QuizSummary, error)
}

// AuthAPI is the unauthenticated part of the backend.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (domain.LoginResponse, error)
	Signup(ctx context.Context, req domain.SignupRequest) error
	Refresh(ctx context.Context, refreshToken string) (domain.LoginResponse, error)
	Logout(ctx context.Context, email string) error
}

// AttemptReporter receives the progress of a live attempt.
type AttemptReporter interface {
	StartQuiz(ctx context.Context, quizID string) error
	SubmitAnswer(ctx context.Context, quizID, questionID, answerID string) error
	FinishQuiz(ctx context.Context, quizID string, req domain.SubmitQuizRequest) error
}

// StudentAPI is the authenticated part of the backend.
type StudentAPI interface {
	AttemptReporter
	PublicQuizzes(ctx context.Context) ([]domain.QuizSummary, error)
	QuizByCode(ctx context.Context, code string) (domain.QuizSummary, error)
	Quiz(ctx context.Context, quizID string) (domain.Quiz, error)
	Stats(ctx context.Context) (domain.StudentStats, error)
	History(ctx context.Context) ([]domain.QuizHistoryEntry, error)
	Participation(ctx context.Context, participationID string) (domain.Participation, error)
}

// StudentAPIFactory binds the student endpoints to a token source.
type StudentAPIFactory func(ts oauth2.TokenSource) StudentAPI

type studentAPIKey struct{}

// WithStudentAPI makes the caller's authenticated client available to loaders.
func WithStudentAPI(ctx context.Context, api StudentAPI) context.Context {
	return context.WithValue(ctx, studentAPIKey{}, api)
}

// StudentAPIFromContext returns the client stored by WithStudentAPI.
func StudentAPIFromContext(ctx context.Context) (StudentAPI, bool) {
	api, ok := ctx.Value(studentAPIKey{}).(StudentAPI)
	return api, ok
}

// APIQuizLoader loads question sets from the backend with the caller's credentials.
type APIQuizLoader struct{}

func (APIQuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	api, ok := StudentAPIFromContext(ctx)
	if !ok {
		return domain.Quiz{}, domain.ErrNotAuthenticated
	}
	return api.Quiz(ctx, quizID)
}

// UncachedRepository serves every request straight from its loader. Question
// sets from the backend are authorised per student, so they are never shared
// through a cache keyed by quiz ID alone.
type UncachedRepository struct {
	Loader QuizLoader
}

func (r UncachedRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return r.Loader.LoadQuiz(ctx, quizID)
}
