package memory

import (
	"context"
	"embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"flashmind-student/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed bank/*.yaml
var builtinBank embed.FS

// StaticQuizLoader is a loader backed by an in-memory map (useful for tests/demos).
type StaticQuizLoader struct {
	quizzes map[string]domain.Quiz
}

func NewStaticQuizLoader(quizzes map[string]domain.Quiz) *StaticQuizLoader {
	return &StaticQuizLoader{quizzes: quizzes}
}

func (l *StaticQuizLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

// Summaries lists the bank as dashboard cards, ordered by title.
func (l *StaticQuizLoader) Summaries(context.Context) ([]domain.QuizSummary, error) {
	out := make([]domain.QuizSummary, 0, len(l.quizzes))
	for _, q := range l.quizzes {
		out = append(out, domain.QuizSummary{
			ID:          q.ID,
			Title:       q.Title,
			Description: q.Description,
			Code:        q.Code,
			Questions:   len(q.Questions),
			Difficulty:  q.Difficulty,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

// bankQuiz is the YAML shape of a question bank entry. Options are plain
// strings; IDs are derived from positions when absent.
type bankQuiz struct {
	ID          string         `yaml:"id"`
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Code        string         `yaml:"code"`
	Difficulty  string         `yaml:"difficulty"`
	Questions   []bankQuestion `yaml:"questions"`
}

type bankQuestion struct {
	ID            string   `yaml:"id"`
	Prompt        string   `yaml:"prompt"`
	Options       []string `yaml:"options"`
	CorrectOption string   `yaml:"correctOption"`
}

// BuiltinBank returns the bundled question bank.
func BuiltinBank() ([]domain.Quiz, error) {
	f, err := builtinBank.Open("bank/react.yaml")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseBank(f)
}

// LoadBankFile reads a YAML question bank from disk.
func LoadBankFile(path string) ([]domain.Quiz, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bank %s: %w", path, err)
	}
	defer f.Close()
	quizzes, err := ParseBank(f)
	if err != nil {
		return nil, fmt.Errorf("bank %s: %w", path, err)
	}
	return quizzes, nil
}

// ParseBank decodes and checks a YAML question bank. Every question needs at
// least two options and a correct option that is one of them.
func ParseBank(r io.Reader) ([]domain.Quiz, error) {
	var raw []bankQuiz
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode bank: %w", err)
	}
	out := make([]domain.Quiz, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, bq := range raw {
		if bq.ID == "" {
			return nil, fmt.Errorf("quiz #%d: missing id", i+1)
		}
		if seen[bq.ID] {
			return nil, fmt.Errorf("quiz %s: duplicate id", bq.ID)
		}
		seen[bq.ID] = true
		if len(bq.Questions) == 0 {
			return nil, fmt.Errorf("quiz %s: no questions", bq.ID)
		}
		quiz := domain.Quiz{
			ID:          bq.ID,
			Title:       bq.Title,
			Description: bq.Description,
			Code:        bq.Code,
			Difficulty:  bq.Difficulty,
		}
		for j, q := range bq.Questions {
			question, err := q.toDomain(j)
			if err != nil {
				return nil, fmt.Errorf("quiz %s: %w", bq.ID, err)
			}
			quiz.Questions = append(quiz.Questions, question)
		}
		out = append(out, quiz)
	}
	return out, nil
}

func (q bankQuestion) toDomain(pos int) (domain.Question, error) {
	id := q.ID
	if id == "" {
		id = strconv.Itoa(pos + 1)
	}
	if len(q.Options) < 2 {
		return domain.Question{}, fmt.Errorf("question %s: needs at least two options", id)
	}
	question := domain.Question{ID: id, Prompt: q.Prompt, CorrectOption: q.CorrectOption}
	for k, text := range q.Options {
		question.Options = append(question.Options, domain.Option{ID: id + "-" + strconv.Itoa(k+1), Text: text})
	}
	if !question.HasOption(q.CorrectOption) {
		return domain.Question{}, fmt.Errorf("question %s: correct option %q is not among the options", id, q.CorrectOption)
	}
	return question, nil
}

// NewBankLoader indexes a parsed bank by quiz ID.
func NewBankLoader(quizzes []domain.Quiz) *StaticQuizLoader {
	byID := make(map[string]domain.Quiz, len(quizzes))
	for _, q := range quizzes {
		byID[q.ID] = q
	}
	return NewStaticQuizLoader(byID)
}
