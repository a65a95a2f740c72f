package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"flashmind-student/internal/api"
	"flashmind-student/internal/domain"
	"flashmind-student/internal/metrics"
	"flashmind-student/internal/runner"
)

// View is what the quiz screen renders for the current state.
type View struct {
	QuizID           string                `json:"quizId"`
	QuizTitle        string                `json:"quizTitle"`
	QuestionIndex    int                   `json:"questionIndex"`
	QuestionNumber   int                   `json:"questionNumber"`
	TotalQuestions   int                   `json:"totalQuestions"`
	Prompt           string                `json:"prompt"`
	Options          []string              `json:"options"`
	Selected         string                `json:"selected,omitempty"`
	RemainingSeconds int                   `json:"remainingSeconds"`
	ElapsedSeconds   int                   `json:"elapsedSeconds"`
	Score            int                   `json:"score"`
	Progress         float64               `json:"progress"`
	CanGoBack        bool                  `json:"canGoBack"`
	Completed        bool                  `json:"completed"`
	Answers          []domain.AnswerRecord `json:"answers,omitempty"`
}

// Update is pushed to subscribers after every transition.
type Update struct {
	View   View           `json:"view"`
	Result *runner.Result `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Attempt is one live run through a quiz. The runner state is only touched
// under mu; the ticker goroutine and the caller (the WebSocket reader) both
// funnel through it.
type Attempt struct {
	quiz      domain.Quiz
	runner    *runner.Runner
	reporter  AttemptReporter
	newTicker runner.TickerFactory
	period    time.Duration

	mu          sync.Mutex
	state       runner.State
	generation  int
	stopTicker  func()
	reported    int
	closed      bool
	subscribers map[chan Update]struct{}

	// Backend calls are queued for one reporter goroutine so the countdown
	// never waits on the network.
	queue      []pendingReport
	queueReady chan struct{}
}

type pendingReport struct {
	ctx     context.Context
	answers []domain.AnswerSubmission
	finish  *domain.SubmitQuizRequest
}

func (p pendingReport) empty() bool {
	return len(p.answers) == 0 && p.finish == nil
}

// NewAttempt prepares an attempt; the countdown starts with Start.
func NewAttempt(quiz domain.Quiz, cfg runner.Config, reporter AttemptReporter, tickers runner.TickerFactory, period time.Duration) (*Attempt, error) {
	r, err := runner.New(cfg, quiz.Questions)
	if err != nil {
		return nil, err
	}
	if tickers == nil {
		tickers = runner.NewTicker
	}
	if period <= 0 {
		period = time.Second
	}
	a := &Attempt{
		quiz:        quiz,
		runner:      r,
		reporter:    reporter,
		newTicker:   tickers,
		period:      period,
		state:       r.Initialize(),
		subscribers: make(map[chan Update]struct{}),
	}
	if reporter != nil {
		a.queueReady = make(chan struct{}, 1)
		go a.reportLoop()
	}
	return a, nil
}

// Start registers the attempt with the backend, then acquires the countdown.
// When the backend refuses the start, nothing runs and the error is returned.
func (a *Attempt) Start(ctx context.Context) error {
	a.mu.Lock()
	running := a.closed || a.stopTicker != nil
	a.mu.Unlock()
	if running {
		return nil
	}

	if a.reporter != nil {
		if err := a.reporter.StartQuiz(ctx, a.quiz.ID); err != nil {
			return fmt.Errorf("start quiz %s: %w", a.quiz.ID, err)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || a.stopTicker != nil {
		return nil
	}
	a.acquireTimerLocked(ctx)
	metrics.AttemptsStarted.Inc()
	return nil
}

// Select records the student's current choice.
func (a *Attempt) Select(option string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	next, err := a.runner.SelectOption(a.state, option)
	if err != nil {
		return err
	}
	a.state = next
	a.broadcastLocked()
	return nil
}

// Next closes question index. It is rejected if the timer closed it first.
func (a *Attempt) Next(ctx context.Context, index int) error {
	a.mu.Lock()
	next, err := a.runner.AdvanceFrom(a.state, index)
	if err != nil {
		a.mu.Unlock()
		return err
	}
	a.state = next
	a.enqueueLocked(ctx, a.afterAdvanceLocked())
	a.broadcastLocked()
	a.mu.Unlock()
	return nil
}

// Previous goes back one question.
func (a *Attempt) Previous() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	next, err := a.runner.Retreat(a.state)
	if err != nil {
		return err
	}
	a.state = next
	a.broadcastLocked()
	return nil
}

// Replay discards the attempt and starts over with a fresh countdown. The
// current attempt is kept when the backend refuses the new start.
func (a *Attempt) Replay(ctx context.Context) error {
	a.mu.Lock()
	closed := a.closed
	a.mu.Unlock()
	if closed {
		return nil
	}

	if a.reporter != nil {
		if err := a.reporter.StartQuiz(ctx, a.quiz.ID); err != nil {
			return fmt.Errorf("start quiz %s: %w", a.quiz.ID, err)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.releaseTimerLocked()
	fresh, err := a.runner.Reset(nil)
	if err != nil {
		return err
	}
	a.state = fresh
	a.reported = 0
	a.acquireTimerLocked(ctx)
	a.broadcastLocked()
	metrics.AttemptsStarted.Inc()
	return nil
}

// Close releases the countdown and ends every subscription. Reports already
// queued are still sent to the backend.
func (a *Attempt) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.releaseTimerLocked()
	a.closed = true
	for ch := range a.subscribers {
		delete(a.subscribers, ch)
		close(ch)
	}
	if a.queueReady != nil {
		close(a.queueReady)
	}
}

// Snapshot returns the current view (and result once completed).
func (a *Attempt) Snapshot() Update {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.updateLocked("")
}

// State returns a copy of the runner state.
func (a *Attempt) State() runner.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Subscribe returns a channel of updates, primed with the current snapshot.
// The caller must invoke the returned cancel function to avoid leaks.
func (a *Attempt) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, 8)

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	a.subscribers[ch] = struct{}{}
	ch <- a.updateLocked("")
	a.mu.Unlock()

	cancel := func() {
		a.mu.Lock()
		if _, ok := a.subscribers[ch]; ok {
			delete(a.subscribers, ch)
			close(ch)
		}
		a.mu.Unlock()
	}
	return ch, cancel
}

// acquireTimerLocked starts a ticker bound to a new generation. Ticks from an
// older generation are ignored, so a replaced ticker can never touch the
// fresh state even if it fires once more before it stops.
func (a *Attempt) acquireTimerLocked(ctx context.Context) {
	a.generation++
	gen := a.generation
	ticker := a.newTicker(a.period)
	done := make(chan struct{})
	var once sync.Once
	a.stopTicker = func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
	metrics.ActiveAttempts.Inc()
	go a.loop(ctx, ticker, gen, done)
}

func (a *Attempt) releaseTimerLocked() {
	if a.stopTicker == nil {
		return
	}
	a.stopTicker()
	a.stopTicker = nil
	metrics.ActiveAttempts.Dec()
}

func (a *Attempt) loop(ctx context.Context, ticker runner.Ticker, gen int, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			a.mu.Lock()
			if gen == a.generation {
				a.releaseTimerLocked()
			}
			a.mu.Unlock()
			return
		case <-ticker.C():
			a.tick(ctx, gen)
		}
	}
}

func (a *Attempt) tick(ctx context.Context, gen int) {
	a.mu.Lock()
	if a.closed || gen != a.generation || a.state.Completed {
		a.mu.Unlock()
		return
	}
	next, advanced := a.runner.Tick(a.state)
	a.state = next
	if advanced {
		a.enqueueLocked(ctx, a.afterAdvanceLocked())
	}
	a.broadcastLocked()
	a.mu.Unlock()
}

// afterAdvanceLocked collects what the backend has not been told yet and
// releases the countdown on completion.
func (a *Attempt) afterAdvanceLocked() pendingReport {
	var report pendingReport
	for _, rec := range a.state.AnswerLog[a.reported:] {
		report.answers = append(report.answers, a.submissionFor(rec))
	}
	a.reported = len(a.state.AnswerLog)

	if a.state.Completed {
		a.releaseTimerLocked()
		metrics.AttemptsCompleted.Inc()
		if res, err := a.runner.Result(a.state); err == nil {
			req := a.finishRequestLocked(res)
			report.finish = &req
		}
	}
	return report
}

func (a *Attempt) submissionFor(rec domain.AnswerRecord) domain.AnswerSubmission {
	sub := domain.AnswerSubmission{QuestionID: rec.QuestionID, IsCorrect: rec.IsCorrect}
	for i := 0; i < a.runner.QuestionCount(); i++ {
		q := a.runner.Question(i)
		if q.ID != rec.QuestionID {
			continue
		}
		if optionID, ok := q.OptionID(rec.SelectedOption); ok {
			sub.SelectedResponseID = optionID
		}
		break
	}
	return sub
}

func (a *Attempt) finishRequestLocked(res runner.Result) domain.SubmitQuizRequest {
	answers := make([]domain.AnswerSubmission, 0, len(a.state.AnswerLog))
	for _, rec := range a.state.AnswerLog {
		answers = append(answers, a.submissionFor(rec))
	}
	return domain.SubmitQuizRequest{
		QuizID:         a.quiz.ID,
		Score:          res.FinalScore,
		Percentage:     res.Percentage,
		CorrectAnswers: res.Correct,
		TotalQuestions: res.Total,
		TotalTime:      res.ElapsedSeconds,
		Answers:        answers,
	}
}

// enqueueLocked hands a report to the reporter goroutine. The report keeps
// the caller's values but not its cancellation, so a result is still
// submitted when the student closes the page right after finishing.
func (a *Attempt) enqueueLocked(ctx context.Context, report pendingReport) {
	if a.queueReady == nil || a.closed || report.empty() {
		return
	}
	report.ctx = context.WithoutCancel(ctx)
	a.queue = append(a.queue, report)
	select {
	case a.queueReady <- struct{}{}:
	default:
	}
}

func (a *Attempt) reportLoop() {
	for range a.queueReady {
		for {
			a.mu.Lock()
			if len(a.queue) == 0 {
				a.mu.Unlock()
				break
			}
			report := a.queue[0]
			a.queue = a.queue[1:]
			a.mu.Unlock()
			a.deliver(report)
		}
	}
}

// deliver forwards answers and the final submission to the backend. Failures
// reach the student as an Update error; the local state is left as is. A
// failed answer does not hold back the final submission.
func (a *Attempt) deliver(report pendingReport) {
	for _, sub := range report.answers {
		if sub.SelectedResponseID == "" {
			continue
		}
		if err := a.reporter.SubmitAnswer(report.ctx, a.quiz.ID, sub.QuestionID, sub.SelectedResponseID); err != nil {
			a.publishError(err, "Votre réponse n'a pas pu être enregistrée.")
		}
	}
	if report.finish != nil {
		if err := a.reporter.FinishQuiz(report.ctx, a.quiz.ID, *report.finish); err != nil {
			a.publishError(err, "Vos résultats n'ont pas pu être envoyés.")
		}
	}
}

func (a *Attempt) publishError(err error, fallback string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		log.Printf("quiz %s: report after close: %v", a.quiz.ID, err)
		return
	}
	a.sendLocked(a.updateLocked(api.UserMessage(err, fallback)))
}

func (a *Attempt) broadcastLocked() {
	if a.closed {
		return
	}
	a.sendLocked(a.updateLocked(""))
}

func (a *Attempt) sendLocked(update Update) {
	for ch := range a.subscribers {
		select {
		case ch <- update:
		default:
			// Drop the oldest update so a slow reader never blocks the timer.
			select {
			case <-ch:
			default:
			}
			ch <- update
		}
	}
}

func (a *Attempt) updateLocked(errMsg string) Update {
	s := a.state
	q := a.runner.Current(s)
	view := View{
		QuizID:           a.quiz.ID,
		QuizTitle:        a.quiz.Title,
		QuestionIndex:    s.CurrentIndex,
		QuestionNumber:   s.CurrentIndex + 1,
		TotalQuestions:   a.runner.QuestionCount(),
		Prompt:           q.Prompt,
		Options:          q.OptionTexts(),
		Selected:         s.SelectedOption,
		RemainingSeconds: s.RemainingSeconds,
		ElapsedSeconds:   s.ElapsedSeconds,
		Score:            s.Score,
		Progress:         a.runner.Progress(s),
		CanGoBack:        s.CurrentIndex > 0 && !s.Completed,
		Completed:        s.Completed,
	}
	update := Update{View: view, Error: errMsg}
	if s.Completed {
		update.View.Answers = append([]domain.AnswerRecord(nil), s.AnswerLog...)
		if res, err := a.runner.Result(s); err == nil {
			update.Result = &res
		}
	}
	return update
}
