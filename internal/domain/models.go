package domain

import "time"

// NoAnswer is recorded when a question is left without a selection.
const NoAnswer = "No answer"

// Option is one choice of a multiple-choice question.
type Option struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}

// Question models an MCQ question; CorrectOption holds the text of exactly one option.
type Question struct {
	ID            string   `json:"id" yaml:"id"`
	Prompt        string   `json:"prompt" yaml:"prompt"`
	Options       []Option `json:"options" yaml:"options"`
	CorrectOption string   `json:"correctOption" yaml:"correctOption"`
}

// HasOption reports whether text is one of the question's options.
func (q Question) HasOption(text string) bool {
	_, ok := q.OptionID(text)
	return ok
}

// OptionID returns the ID of the option with the given text.
func (q Question) OptionID(text string) (string, bool) {
	for _, opt := range q.Options {
		if opt.Text == text {
			return opt.ID, true
		}
	}
	return "", false
}

// OptionTexts lists option texts in display order.
func (q Question) OptionTexts() []string {
	out := make([]string, len(q.Options))
	for i, opt := range q.Options {
		out[i] = opt.Text
	}
	return out
}

// Quiz is a question set plus the metadata shown on the dashboard.
type Quiz struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Code        string     `json:"code,omitempty" yaml:"code"`
	Difficulty  string     `json:"difficulty,omitempty" yaml:"difficulty"`
	Questions   []Question `json:"questions" yaml:"questions"`
}

// AnswerRecord is an immutable log entry written when the runner moves past a question.
type AnswerRecord struct {
	QuestionID     string `json:"questionId"`
	QuestionPrompt string `json:"question"`
	SelectedOption string `json:"selectedAnswer"`
	CorrectOption  string `json:"correctAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
}

// QuizSummary is a dashboard card for a public quiz.
type QuizSummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Code          string `json:"code,omitempty"`
	Questions     int    `json:"questions"`
	Duration      int    `json:"duration"`
	Difficulty    string `json:"difficulty"`
	Participants  int    `json:"participants"`
	ProfessorName string `json:"professorName,omitempty"`
}

// Profile is the user payload kept in session storage under the "user" key.
type Profile struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// DisplayName prefers the full name and falls back to the username.
func (p Profile) DisplayName() string {
	name := p.FirstName
	if p.LastName != "" {
		if name != "" {
			name += " "
		}
		name += p.LastName
	}
	if name == "" {
		return p.Username
	}
	return name
}

// Credentials is everything the interface stores between page loads.
type Credentials struct {
	Token        string  `json:"token"`
	RefreshToken string  `json:"refreshToken"`
	User         Profile `json:"user"`
}

// LoginResponse is returned by the auth API on login and token refresh.
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
}

// Credentials converts the login payload into storable credentials.
func (r LoginResponse) Credentials() Credentials {
	return Credentials{
		Token:        r.Token,
		RefreshToken: r.RefreshToken,
		User: Profile{
			Username:  r.Username,
			Email:     r.Email,
			Role:      r.Role,
			FirstName: r.FirstName,
			LastName:  r.LastName,
		},
	}
}

// SignupRequest is the account creation payload.
type SignupRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      Role   `json:"role"`
}

// StudentStats feeds the dashboard header.
type StudentStats struct {
	StudentName    string  `json:"studentName"`
	Username       string  `json:"username"`
	TotalQuizzes   int     `json:"totalQuizzes"`
	AverageScore   float64 `json:"averageScore"`
	CurrentStreak  int     `json:"currentStreak"`
	BestScore      float64 `json:"bestScore"`
	PerfectQuizzes int     `json:"perfectQuizzes"`
	SuccessRate    float64 `json:"successRate"`
}

// QuizHistoryEntry is one completed participation in the history list.
type QuizHistoryEntry struct {
	ParticipationID   string    `json:"participationId"`
	QuizID            string    `json:"quizId"`
	QuizTitle         string    `json:"quizTitle"`
	QuizDescription   string    `json:"quizDescription"`
	Score             float64   `json:"score"`
	CompletedAt       time.Time `json:"completedAt"`
	ProfessorName     string    `json:"professorName"`
	Rank              int       `json:"rank"`
	TotalParticipants int       `json:"totalParticipants"`
}

// Participation details one attempt.
type Participation struct {
	ID             string    `json:"id"`
	QuizID         string    `json:"quizId"`
	QuizTitle      string    `json:"quizTitle"`
	Score          float64   `json:"score"`
	CompletedAt    time.Time `json:"completedAt"`
	Duration       int       `json:"duration"`
	QuestionCount  int       `json:"questionCount"`
	CorrectAnswers int       `json:"correctAnswers"`
}

// AnswerSubmission is one answer in the final submission.
type AnswerSubmission struct {
	QuestionID         string `json:"questionId"`
	SelectedResponseID string `json:"selectedResponseId,omitempty"`
	IsCorrect          bool   `json:"isCorrect"`
}

// SubmitQuizRequest is posted when an attempt completes.
type SubmitQuizRequest struct {
	QuizID         string             `json:"quizId"`
	Score          int                `json:"score"`
	Percentage     float64            `json:"percentage"`
	CorrectAnswers int                `json:"correctAnswers"`
	TotalQuestions int                `json:"totalQuestions"`
	TotalTime      int                `json:"totalTime"`
	Answers        []AnswerSubmission `json:"answers"`
}
