// Package runner holds the state machine for one timed quiz attempt.
//
// State is a plain value: every operation takes a State and returns the next
// one, so the view layer (or a test) can hold, compare and discard states
// freely. The Runner itself only carries the immutable question list and the
// configuration.
package runner

import (
	"errors"
	"fmt"

	"flashmind-student/internal/domain"
)

const (
	DefaultTimeBudget        = 30
	DefaultPointsPerQuestion = 125
)

var (
	// ErrInvalidConfiguration is returned when a runner is built without questions.
	ErrInvalidConfiguration = errors.New("quiz has no questions")
	// ErrInvalidOption is returned in strict mode when the option is not offered by the current question.
	ErrInvalidOption = errors.New("option not offered by the current question")
	// ErrSessionCompleted is returned when the attempt has already finished.
	ErrSessionCompleted = errors.New("quiz session already completed")
	// ErrStaleAdvance is returned when an advance targets a question the session already left.
	ErrStaleAdvance = errors.New("question already answered")
	// ErrCannotRetreat is returned on the first question or after completion.
	ErrCannotRetreat = errors.New("cannot go back from here")
	// ErrNotCompleted is returned when results are requested mid-attempt.
	ErrNotCompleted = errors.New("quiz session not completed")
)

// Config holds the per-attempt constants.
type Config struct {
	// TimeBudget is the per-question countdown in ticks (seconds).
	TimeBudget int
	// PointsPerQuestion wins over MaxScore when both are set.
	PointsPerQuestion int
	// MaxScore is spread evenly over the questions when PointsPerQuestion is zero.
	MaxScore int
	// StrictOptions rejects selections that are not options of the current question.
	StrictOptions bool
}

// DefaultConfig is the reference configuration: 30 seconds, 125 points per question.
func DefaultConfig() Config {
	return Config{TimeBudget: DefaultTimeBudget, PointsPerQuestion: DefaultPointsPerQuestion}
}

// State is the in-memory state of one attempt.
type State struct {
	CurrentIndex     int                   `json:"currentIndex"`
	RemainingSeconds int                   `json:"remainingSeconds"`
	SelectedOption   string                `json:"selectedOption,omitempty"`
	Score            int                   `json:"score"`
	AnswerLog        []domain.AnswerRecord `json:"answerLog"`
	ElapsedSeconds   int                   `json:"elapsedSeconds"`
	Completed        bool                  `json:"completed"`
}

// HasSelection reports whether an option is currently chosen.
func (s State) HasSelection() bool {
	return s.SelectedOption != ""
}

// Result is derived from a completed State.
type Result struct {
	Correct          int     `json:"correct"`
	Total            int     `json:"total"`
	FinalScore       int     `json:"finalScore"`
	MaxScore         int     `json:"maxScore"`
	Accuracy         float64 `json:"accuracy"`
	Percentage       float64 `json:"percentage"`
	ElapsedSeconds   int     `json:"elapsedSeconds"`
	FormattedElapsed string  `json:"formattedElapsed"`
}

// Runner applies transitions over a fixed question list.
type Runner struct {
	cfg       Config
	questions []domain.Question
}

// New validates the question list and fills configuration defaults.
func New(cfg Config, questions []domain.Question) (*Runner, error) {
	if len(questions) == 0 {
		return nil, ErrInvalidConfiguration
	}
	if cfg.TimeBudget <= 0 {
		cfg.TimeBudget = DefaultTimeBudget
	}
	qs := make([]domain.Question, len(questions))
	copy(qs, questions)
	return &Runner{cfg: cfg, questions: qs}, nil
}

// Config returns the effective configuration.
func (r *Runner) Config() Config {
	return r.cfg
}

// QuestionCount is N.
func (r *Runner) QuestionCount() int {
	return len(r.questions)
}

// Question returns the question at index i.
func (r *Runner) Question(i int) domain.Question {
	return r.questions[i]
}

// Current returns the question the state points at.
func (r *Runner) Current(s State) domain.Question {
	return r.questions[s.CurrentIndex]
}

// Questions returns a copy of the question list.
func (r *Runner) Questions() []domain.Question {
	out := make([]domain.Question, len(r.questions))
	copy(out, r.questions)
	return out
}

// PointsPerQuestion resolves the scoring rule for this question count.
func (r *Runner) PointsPerQuestion() int {
	switch {
	case r.cfg.PointsPerQuestion > 0:
		return r.cfg.PointsPerQuestion
	case r.cfg.MaxScore > 0:
		return r.cfg.MaxScore / len(r.questions)
	default:
		return DefaultPointsPerQuestion
	}
}

// Initialize produces a fresh state at the first question.
func (r *Runner) Initialize() State {
	return State{
		CurrentIndex:     0,
		RemainingSeconds: r.cfg.TimeBudget,
		AnswerLog:        []domain.AnswerRecord{},
	}
}

// Reset restarts the attempt. A non-empty list replaces the questions.
func (r *Runner) Reset(questions []domain.Question) (State, error) {
	if questions != nil {
		if len(questions) == 0 {
			return State{}, ErrInvalidConfiguration
		}
		qs := make([]domain.Question, len(questions))
		copy(qs, questions)
		r.questions = qs
	}
	return r.Initialize(), nil
}

// SelectOption records the current choice; the last selection wins.
func (r *Runner) SelectOption(s State, option string) (State, error) {
	if s.Completed {
		return s, ErrSessionCompleted
	}
	if r.cfg.StrictOptions && !r.Current(s).HasOption(option) {
		return s, fmt.Errorf("%w: %q", ErrInvalidOption, option)
	}
	s.SelectedOption = option
	return s, nil
}

// Tick advances the clock by one second. When the countdown hits zero the
// question is closed with whatever is selected; the bool reports that case.
func (r *Runner) Tick(s State) (State, bool) {
	if s.Completed {
		return s, false
	}
	s.ElapsedSeconds++
	if s.RemainingSeconds > 0 {
		s.RemainingSeconds--
		if s.RemainingSeconds == 0 {
			advanced, err := r.Advance(s)
			return advanced, err == nil
		}
	}
	return s, false
}

// Advance closes the current question: score it, log it, then move on or complete.
func (r *Runner) Advance(s State) (State, error) {
	if s.Completed {
		return s, ErrSessionCompleted
	}
	q := r.Current(s)
	selected := s.SelectedOption
	if selected == "" {
		selected = domain.NoAnswer
	}
	correct := s.HasSelection() && s.SelectedOption == q.CorrectOption

	log := make([]domain.AnswerRecord, len(s.AnswerLog), len(s.AnswerLog)+1)
	copy(log, s.AnswerLog)
	s.AnswerLog = append(log, domain.AnswerRecord{
		QuestionID:     q.ID,
		QuestionPrompt: q.Prompt,
		SelectedOption: selected,
		CorrectOption:  q.CorrectOption,
		IsCorrect:      correct,
	})
	if correct {
		s.Score++
	}

	if s.CurrentIndex == len(r.questions)-1 {
		s.Completed = true
		return s, nil
	}
	s.CurrentIndex++
	s.SelectedOption = ""
	s.RemainingSeconds = r.cfg.TimeBudget
	return s, nil
}

// AdvanceFrom advances only if the state is still on question index. A manual
// "Next" that loses the race against a time-out is rejected instead of
// logging the following question a second time.
func (r *Runner) AdvanceFrom(s State, index int) (State, error) {
	if s.Completed {
		return s, ErrSessionCompleted
	}
	if s.CurrentIndex != index {
		return s, ErrStaleAdvance
	}
	return r.Advance(s)
}

// Retreat returns to the previous question with a fresh countdown.
// The record already written for that question stays in the log, so
// answering it again appends a second record.
func (r *Runner) Retreat(s State) (State, error) {
	if s.Completed || s.CurrentIndex == 0 {
		return s, ErrCannotRetreat
	}
	s.CurrentIndex--
	s.SelectedOption = ""
	s.RemainingSeconds = r.cfg.TimeBudget
	return s, nil
}

// Result computes the final figures of a completed attempt.
func (r *Runner) Result(s State) (Result, error) {
	if !s.Completed {
		return Result{}, ErrNotCompleted
	}
	n := len(r.questions)
	ppq := r.PointsPerQuestion()
	accuracy := float64(s.Score) / float64(n)
	return Result{
		Correct:          s.Score,
		Total:            n,
		FinalScore:       s.Score * ppq,
		MaxScore:         n * ppq,
		Accuracy:         accuracy,
		Percentage:       accuracy * 100,
		ElapsedSeconds:   s.ElapsedSeconds,
		FormattedElapsed: FormatElapsed(s.ElapsedSeconds),
	}, nil
}

// Progress is the progress-bar percentage for the current question.
func (r *Runner) Progress(s State) float64 {
	return float64(s.CurrentIndex+1) / float64(len(r.questions)) * 100
}

// FormatElapsed renders seconds as mm:ss.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
