package app_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"flashmind-student/internal/api"
	"flashmind-student/internal/app"
	"flashmind-student/internal/domain"
	"flashmind-student/internal/runner"
)

func testConfig(budget int) runner.Config {
	cfg := runner.DefaultConfig()
	cfg.TimeBudget = budget
	return cfg
}

func recv(t *testing.T, ch <-chan app.Update) app.Update {
	t.Helper()
	select {
	case u, ok := <-ch:
		if !ok {
			t.Fatalf("update channel closed")
		}
		return u
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for update")
	}
	return app.Update{}
}

func recvUntil(t *testing.T, ch <-chan app.Update, match func(app.Update) bool) app.Update {
	t.Helper()
	for {
		if u := recv(t, ch); match(u) {
			return u
		}
	}
}

func TestAttemptTimeoutAdvancesWithNoAnswer(t *testing.T) {
	ctx := context.Background()
	student := &fakeStudent{}
	tickers := &manualTickers{}
	attempt, err := app.NewAttempt(sampleQuiz(2), testConfig(2), student, tickers.factory, time.Second)
	if err != nil {
		t.Fatalf("new attempt: %v", err)
	}
	defer attempt.Close()
	if err := attempt.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	ch, cancel := attempt.Subscribe()
	defer cancel()
	initial := recv(t, ch)
	if initial.View.QuestionNumber != 1 || initial.View.RemainingSeconds != 2 || initial.View.TotalQuestions != 2 {
		t.Fatalf("unexpected initial view %+v", initial.View)
	}

	ticker := tickers.get(0)
	ticker.Fire()
	if u := recv(t, ch); u.View.RemainingSeconds != 1 || u.View.ElapsedSeconds != 1 {
		t.Fatalf("expected 1s remaining, got %+v", u.View)
	}
	ticker.Fire()
	u := recv(t, ch)
	if u.View.QuestionIndex != 1 || u.View.RemainingSeconds != 2 || u.View.Selected != "" {
		t.Fatalf("expected auto-advance to question 2, got %+v", u.View)
	}
	state := attempt.State()
	if len(state.AnswerLog) != 1 || state.AnswerLog[0].SelectedOption != domain.NoAnswer || state.AnswerLog[0].IsCorrect {
		t.Fatalf("expected one unanswered record, got %+v", state.AnswerLog)
	}

	if err := attempt.Select("right"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := attempt.Next(ctx, 1); err != nil {
		t.Fatalf("next: %v", err)
	}
	final := recvUntil(t, ch, func(u app.Update) bool { return u.View.Completed })
	if final.Result == nil || final.Result.FinalScore != 125 || final.Result.MaxScore != 250 || final.Result.Correct != 1 {
		t.Fatalf("unexpected result %+v", final.Result)
	}
	if len(final.View.Answers) != 2 {
		t.Fatalf("expected answers on the results view, got %+v", final.View.Answers)
	}
	if !ticker.Stopped() {
		t.Fatalf("expected the countdown to be released on completion")
	}

	waitFor(t, "final submission", func() bool {
		_, _, finished := student.snapshot()
		return len(finished) == 1
	})
	started, answers, finished := student.snapshot()
	if len(started) != 1 || started[0] != "quiz-1" {
		t.Fatalf("expected one start call, got %v", started)
	}
	if len(answers) != 1 || answers[0].questionID != "q2" || answers[0].answerID != "q2-b" {
		t.Fatalf("expected only the answered question to be reported, got %+v", answers)
	}
	if len(finished) != 1 || finished[0].Score != 125 || finished[0].CorrectAnswers != 1 || finished[0].TotalQuestions != 2 || len(finished[0].Answers) != 2 {
		t.Fatalf("unexpected final submission %+v", finished)
	}
}

func TestAttemptRejectsNextForQuestionClosedByTimer(t *testing.T) {
	ctx := context.Background()
	tickers := &manualTickers{}
	attempt, err := app.NewAttempt(sampleQuiz(3), testConfig(1), nil, tickers.factory, time.Second)
	if err != nil {
		t.Fatalf("new attempt: %v", err)
	}
	defer attempt.Close()
	_ = attempt.Start(ctx)
	ch, cancel := attempt.Subscribe()
	defer cancel()
	recv(t, ch)

	tickers.get(0).Fire()
	recvUntil(t, ch, func(u app.Update) bool { return u.View.QuestionIndex == 1 })

	if err := attempt.Next(ctx, 0); !errors.Is(err, runner.ErrStaleAdvance) {
		t.Fatalf("expected ErrStaleAdvance, got %v", err)
	}
	state := attempt.State()
	if state.CurrentIndex != 1 || len(state.AnswerLog) != 1 {
		t.Fatalf("stale next must not advance twice, got %+v", state)
	}
}

func TestAttemptReplayStartsFreshCountdown(t *testing.T) {
	ctx := context.Background()
	student := &fakeStudent{}
	tickers := &manualTickers{}
	attempt, err := app.NewAttempt(sampleQuiz(2), testConfig(5), student, tickers.factory, time.Second)
	if err != nil {
		t.Fatalf("new attempt: %v", err)
	}
	defer attempt.Close()
	_ = attempt.Start(ctx)
	ch, cancel := attempt.Subscribe()
	defer cancel()
	recv(t, ch)

	_ = attempt.Select("right")
	recv(t, ch)
	if err := attempt.Next(ctx, 0); err != nil {
		t.Fatalf("next: %v", err)
	}
	if u := recv(t, ch); u.View.QuestionIndex != 1 || u.View.Score != 1 {
		t.Fatalf("expected question 2 with score 1, got %+v", u.View)
	}
	if err := attempt.Replay(ctx); err != nil {
		t.Fatalf("replay: %v", err)
	}
	u := recv(t, ch)
	if u.View.QuestionIndex != 0 || u.View.Score != 0 || u.View.RemainingSeconds != 5 || u.View.Completed {
		t.Fatalf("expected a fresh view, got %+v", u.View)
	}
	if tickers.count() != 2 {
		t.Fatalf("expected a second ticker, got %d", tickers.count())
	}
	if !tickers.get(0).Stopped() || tickers.get(0).Fire() {
		t.Fatalf("expected the first ticker to be released")
	}

	tickers.get(1).Fire()
	if u := recv(t, ch); u.View.RemainingSeconds != 4 {
		t.Fatalf("expected the new ticker to drive the countdown, got %+v", u.View)
	}
	state := attempt.State()
	if len(state.AnswerLog) != 0 || state.ElapsedSeconds != 1 {
		t.Fatalf("unexpected state after replay %+v", state)
	}
	if started, _, _ := student.snapshot(); len(started) != 2 {
		t.Fatalf("expected replay to notify the backend again, got %v", started)
	}
}

func TestAttemptReporterFailureSurfacesAsError(t *testing.T) {
	ctx := context.Background()
	student := &fakeStudent{finishErr: &api.Error{Status: http.StatusInternalServerError, Message: "Erreur serveur"}}
	tickers := &manualTickers{}
	attempt, err := app.NewAttempt(sampleQuiz(1), testConfig(30), student, tickers.factory, time.Second)
	if err != nil {
		t.Fatalf("new attempt: %v", err)
	}
	defer attempt.Close()
	_ = attempt.Start(ctx)
	ch, cancel := attempt.Subscribe()
	defer cancel()
	recv(t, ch)

	_ = attempt.Select("right")
	if err := attempt.Next(ctx, 0); err != nil {
		t.Fatalf("next should succeed locally, got %v", err)
	}
	u := recvUntil(t, ch, func(u app.Update) bool { return u.Error != "" })
	if u.Error != "Erreur serveur" {
		t.Fatalf("expected backend message, got %q", u.Error)
	}
	if !u.View.Completed || u.Result == nil || u.Result.FinalScore != 125 {
		t.Fatalf("local result must survive the failed submission, got %+v", u)
	}
}

func TestAttemptAnswerFailureStillSubmitsResult(t *testing.T) {
	ctx := context.Background()
	student := &fakeStudent{answerErr: &api.Error{Status: http.StatusBadGateway, Message: "Erreur serveur"}}
	tickers := &manualTickers{}
	attempt, err := app.NewAttempt(sampleQuiz(1), testConfig(30), student, tickers.factory, time.Second)
	if err != nil {
		t.Fatalf("new attempt: %v", err)
	}
	defer attempt.Close()
	_ = attempt.Start(ctx)
	ch, cancel := attempt.Subscribe()
	defer cancel()
	recv(t, ch)

	_ = attempt.Select("right")
	if err := attempt.Next(ctx, 0); err != nil {
		t.Fatalf("next: %v", err)
	}
	if u := recvUntil(t, ch, func(u app.Update) bool { return u.Error != "" }); u.Error != "Erreur serveur" {
		t.Fatalf("expected backend message, got %q", u.Error)
	}
	waitFor(t, "final submission", func() bool {
		_, _, finished := student.snapshot()
		return len(finished) == 1
	})
	if _, _, finished := student.snapshot(); finished[0].Score != 125 || finished[0].CorrectAnswers != 1 {
		t.Fatalf("unexpected final submission %+v", finished[0])
	}
}

func TestAttemptCountdownKeepsRunningWhileReporting(t *testing.T) {
	ctx := context.Background()
	gate := make(chan struct{})
	release := func() {
		select {
		case <-gate:
		default:
			close(gate)
		}
	}
	defer release()
	student := &fakeStudent{answerGate: gate}
	tickers := &manualTickers{}
	attempt, err := app.NewAttempt(sampleQuiz(2), testConfig(2), student, tickers.factory, time.Second)
	if err != nil {
		t.Fatalf("new attempt: %v", err)
	}
	defer attempt.Close()
	_ = attempt.Start(ctx)
	ch, cancel := attempt.Subscribe()
	defer cancel()
	recv(t, ch)

	_ = attempt.Select("right")
	recv(t, ch)
	ticker := tickers.get(0)
	ticker.Fire()
	ticker.Fire()
	recvUntil(t, ch, func(u app.Update) bool { return u.View.QuestionIndex == 1 })
	waitFor(t, "answer report in flight", func() bool { return student.waitingAnswers() == 1 })

	fired := make(chan bool, 1)
	go func() { fired <- ticker.Fire() }()
	select {
	case ok := <-fired:
		if !ok {
			t.Fatalf("ticker stopped unexpectedly")
		}
	case <-time.After(time.Second):
		t.Fatalf("countdown stalled behind the answer report")
	}
	if u := recv(t, ch); u.View.QuestionIndex != 1 || u.View.RemainingSeconds != 1 || u.View.ElapsedSeconds != 3 {
		t.Fatalf("expected the countdown to move on, got %+v", u.View)
	}

	release()
	waitFor(t, "answer report", func() bool {
		_, answers, _ := student.snapshot()
		return len(answers) == 1
	})
	if _, answers, _ := student.snapshot(); answers[0].questionID != "q1" || answers[0].answerID != "q1-b" {
		t.Fatalf("unexpected answer report %+v", answers)
	}
}

func TestAttemptStartRefusedByBackend(t *testing.T) {
	ctx := context.Background()
	student := &fakeStudent{startErr: &api.Error{Status: http.StatusForbidden, Message: "Accès refusé"}}
	tickers := &manualTickers{}
	attempt, err := app.NewAttempt(sampleQuiz(2), testConfig(30), student, tickers.factory, time.Second)
	if err != nil {
		t.Fatalf("new attempt: %v", err)
	}
	defer attempt.Close()

	err = attempt.Start(ctx)
	if !api.IsStatus(err, http.StatusForbidden) || api.UserMessage(err, "") != "Accès refusé" {
		t.Fatalf("expected the backend refusal, got %v", err)
	}
	if tickers.count() != 0 {
		t.Fatalf("countdown must not start, got %d tickers", tickers.count())
	}
	if err := attempt.Replay(ctx); err == nil || tickers.count() != 0 {
		t.Fatalf("replay must be refused too, err=%v tickers=%d", err, tickers.count())
	}
}

func TestAttemptRejectsEmptyQuiz(t *testing.T) {
	_, err := app.NewAttempt(domain.Quiz{ID: "empty"}, runner.DefaultConfig(), nil, nil, 0)
	if !errors.Is(err, runner.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestAttemptCloseEndsSubscriptions(t *testing.T) {
	tickers := &manualTickers{}
	attempt, err := app.NewAttempt(sampleQuiz(2), testConfig(30), nil, tickers.factory, time.Second)
	if err != nil {
		t.Fatalf("new attempt: %v", err)
	}
	_ = attempt.Start(context.Background())
	ch, cancel := attempt.Subscribe()
	defer cancel()
	recv(t, ch)

	attempt.Close()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed")
	}
	if !tickers.get(0).Stopped() {
		t.Fatalf("expected ticker to be stopped on close")
	}
	attempt.Close()
}
