package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"movie-quiz/internal/domain"
)

// QuestionSource supplies quiz questions. Both calls may block; the presenter
// never invokes them on its loop.
type QuestionSource interface {
	// LoadData fetches whatever the source needs before questions can be produced.
	LoadData(ctx context.Context) error
	// NextQuestion returns the next question. A nil question without an error is
	// allowed and is ignored by the presenter.
	NextQuestion(ctx context.Context) (*domain.Question, error)
}

// Display renders presenter output. All methods are called from the presenter's loop.
type Display interface {
	ShowLoading()
	HideLoading()
	ShowNetworkError(message string)
	RenderStep(view domain.QuizStepView)
	RenderAnswerFeedback(isCorrect bool)
	RenderResults(view domain.QuizResultsView)
}

// Statistics is the part of StatisticsStore the presenter needs.
type Statistics interface {
	Store(ctx context.Context, result domain.GameResult) error
	Snapshot(ctx context.Context) (domain.AggregateStatistics, error)
}

// State is the presenter's position in a round.
type State string

const (
	StateLoading         State = "LOADING"
	StateAwaitingAnswer  State = "AWAITING_ANSWER"
	StateShowingFeedback State = "SHOWING_FEEDBACK"
	StateRoundComplete   State = "ROUND_COMPLETE"
	StateFailed          State = "FAILED"
)

const (
	DefaultQuestionsAmount = 10
	DefaultFeedbackDelay   = time.Second

	resultsTitle      = "This round is over!"
	resultsButtonText = "Play again"
	bestGameLayout    = "02.01.06 15:04"
)

// PresenterOptions tune a presenter; zero values fall back to defaults.
type PresenterOptions struct {
	QuestionsAmount int
	FeedbackDelay   time.Duration
	Logger          *slog.Logger
	Now             func() time.Time
}

// RoundSnapshot is a copy of the presenter's counters.
type RoundSnapshot struct {
	State       State
	Index       int
	Correct     int
	HasQuestion bool
}

// QuizPresenter drives one player's game. Its fields are only touched from
// tasks running on loop.
type QuizPresenter struct {
	loop    *Loop
	source  QuestionSource
	stats   Statistics
	display Display
	logger  *slog.Logger
	now     func() time.Time

	questionsAmount int
	feedbackDelay   time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	state           State
	currentIndex    int
	correctAnswers  int
	currentQuestion *domain.Question
	dataLoaded      bool
	closed          bool

	// seq invalidates async results and timers issued before a restart.
	seq      uint64
	feedback *time.Timer
}

// NewQuizPresenter wires a presenter to its collaborators. It does nothing
// until Start; loop must be running (or about to run) for events to be processed.
func NewQuizPresenter(loop *Loop, source QuestionSource, stats Statistics, display Display, opts PresenterOptions) *QuizPresenter {
	if opts.QuestionsAmount <= 0 {
		opts.QuestionsAmount = DefaultQuestionsAmount
	}
	if opts.FeedbackDelay <= 0 {
		opts.FeedbackDelay = DefaultFeedbackDelay
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &QuizPresenter{
		loop:            loop,
		source:          source,
		stats:           stats,
		display:         display,
		logger:          opts.Logger,
		now:             opts.Now,
		questionsAmount: opts.QuestionsAmount,
		feedbackDelay:   opts.FeedbackDelay,
		ctx:             ctx,
		cancel:          cancel,
		state:           StateLoading,
	}
}

// QuestionsAmount is the fixed length of a round.
func (p *QuizPresenter) QuestionsAmount() int {
	return p.questionsAmount
}

// Start shows the loading indicator and triggers the initial data load.
func (p *QuizPresenter) Start() {
	p.post(p.loadData)
}

// YesClicked answers the current question with "yes".
func (p *QuizPresenter) YesClicked() {
	p.post(func() { p.didAnswer(true) })
}

// NoClicked answers the current question with "no".
func (p *QuizPresenter) NoClicked() {
	p.post(func() { p.didAnswer(false) })
}

// Restart begins a new round, or retries the data load if it never succeeded.
func (p *QuizPresenter) Restart() {
	p.post(p.restart)
}

// Close stops the pending feedback timer and cancels in-flight requests.
// The display is never called after the close task has run.
func (p *QuizPresenter) Close() {
	p.cancel()
	p.post(p.close)
}

// Snapshot reads the round counters on the loop.
func (p *QuizPresenter) Snapshot(ctx context.Context) (RoundSnapshot, error) {
	out := make(chan RoundSnapshot, 1)
	errs := make(chan error, 1)
	if !p.loop.Post(func() {
		if p.closed {
			errs <- domain.ErrPresenterClosed
			return
		}
		out <- RoundSnapshot{
			State:       p.state,
			Index:       p.currentIndex,
			Correct:     p.correctAnswers,
			HasQuestion: p.currentQuestion != nil,
		}
	}) {
		return RoundSnapshot{}, domain.ErrPresenterClosed
	}
	select {
	case snap := <-out:
		return snap, nil
	case err := <-errs:
		return RoundSnapshot{}, err
	case <-ctx.Done():
		return RoundSnapshot{}, ctx.Err()
	case <-p.loop.Done():
		return RoundSnapshot{}, domain.ErrPresenterClosed
	}
}

func (p *QuizPresenter) post(fn func()) bool {
	return p.loop.Post(func() {
		if p.closed {
			return
		}
		fn()
	})
}

// async runs call off the loop and posts done back onto it, unless the round
// was restarted or the presenter closed in the meantime.
func (p *QuizPresenter) async(call func(ctx context.Context) func()) {
	seq := p.seq
	ctx := p.ctx
	go func() {
		done := call(ctx)
		p.post(func() {
			if seq != p.seq {
				return
			}
			done()
		})
	}()
}

func (p *QuizPresenter) loadData() {
	p.state = StateLoading
	p.display.ShowLoading()
	p.async(func(ctx context.Context) func() {
		err := p.source.LoadData(ctx)
		return func() {
			if err != nil {
				p.didFailToLoadData(err)
				return
			}
			p.didLoadData()
		}
	})
}

func (p *QuizPresenter) didLoadData() {
	p.dataLoaded = true
	p.display.HideLoading()
	p.requestNextQuestion()
}

func (p *QuizPresenter) didFailToLoadData(err error) {
	p.logger.Warn("question source failed", "error", err, "index", p.currentIndex)
	p.state = StateFailed
	p.display.HideLoading()
	p.display.ShowNetworkError(err.Error())
}

func (p *QuizPresenter) requestNextQuestion() {
	p.async(func(ctx context.Context) func() {
		question, err := p.source.NextQuestion(ctx)
		return func() {
			if err != nil {
				p.didFailToLoadData(err)
				return
			}
			p.didReceiveNextQuestion(question)
		}
	})
}

func (p *QuizPresenter) didReceiveNextQuestion(question *domain.Question) {
	if question == nil {
		p.logger.Debug("empty question ignored", "index", p.currentIndex)
		return
	}
	p.currentQuestion = question
	p.state = StateAwaitingAnswer
	p.display.RenderStep(p.convert(question))
}

func (p *QuizPresenter) convert(question *domain.Question) domain.QuizStepView {
	return domain.QuizStepView{
		Image:          question.Image,
		Question:       question.Text,
		QuestionNumber: fmt.Sprintf("%d/%d", p.currentIndex+1, p.questionsAmount),
	}
}

func (p *QuizPresenter) didAnswer(givenAnswer bool) {
	if p.currentQuestion == nil || p.state != StateAwaitingAnswer {
		return
	}
	isCorrect := givenAnswer == p.currentQuestion.CorrectAnswer
	if isCorrect {
		p.correctAnswers++
	}
	p.state = StateShowingFeedback
	p.display.RenderAnswerFeedback(isCorrect)

	seq := p.seq
	p.feedback = time.AfterFunc(p.feedbackDelay, func() {
		p.post(func() {
			if seq != p.seq || p.state != StateShowingFeedback {
				return
			}
			p.feedback = nil
			p.showNextQuestionOrResults()
		})
	})
}

func (p *QuizPresenter) isLastQuestion() bool {
	return p.currentIndex == p.questionsAmount-1
}

func (p *QuizPresenter) showNextQuestionOrResults() {
	if !p.isLastQuestion() {
		p.currentIndex++
		p.currentQuestion = nil
		p.state = StateAwaitingAnswer
		p.requestNextQuestion()
		return
	}

	result := domain.GameResult{
		Correct: p.correctAnswers,
		Total:   p.questionsAmount,
		Date:    p.now(),
	}
	p.async(func(ctx context.Context) func() {
		if err := p.stats.Store(ctx, result); err != nil {
			return func() { p.didFailToLoadData(err) }
		}
		stats, err := p.stats.Snapshot(ctx)
		return func() {
			if err != nil {
				p.didFailToLoadData(err)
				return
			}
			p.logger.Info("round complete",
				"correct", result.Correct,
				"total", result.Total,
				"games", stats.GamesCount,
			)
			p.state = StateRoundComplete
			p.display.RenderResults(FormatResults(result, stats))
		}
	})
}

func (p *QuizPresenter) restart() {
	p.seq++
	p.stopFeedback()
	p.currentIndex = 0
	p.correctAnswers = 0
	p.currentQuestion = nil
	if !p.dataLoaded {
		p.loadData()
		return
	}
	p.state = StateAwaitingAnswer
	p.requestNextQuestion()
}

func (p *QuizPresenter) close() {
	p.seq++
	p.stopFeedback()
	p.closed = true
}

func (p *QuizPresenter) stopFeedback() {
	if p.feedback != nil {
		p.feedback.Stop()
		p.feedback = nil
	}
}

// FormatResults builds the end-of-round summary for result given the updated
// lifetime statistics.
func FormatResults(result domain.GameResult, stats domain.AggregateStatistics) domain.QuizResultsView {
	best := stats.BestGame
	accuracy := stats.TotalAccuracy()
	text := fmt.Sprintf(
		"Your result: %d/%d\nQuizzes played: %d\nRecord: %d/%d (%s)\nAverage accuracy: %.2f%%",
		result.Correct, result.Total,
		stats.GamesCount,
		best.Correct, best.Total, best.Date.Local().Format(bestGameLayout),
		accuracy,
	)
	return domain.QuizResultsView{
		Title:         resultsTitle,
		Text:          text,
		ButtonText:    resultsButtonText,
		Correct:       result.Correct,
		Total:         result.Total,
		GamesCount:    stats.GamesCount,
		BestGame:      best,
		TotalAccuracy: accuracy,
	}
}
