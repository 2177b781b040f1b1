package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"movie-quiz/internal/app"
	"movie-quiz/internal/domain"
)

// NewPlayCmd plays one game in the terminal.
func NewPlayCmd(configPath, logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play the quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg, logger, err := loadConfig(*configPath, *logLevel)
			if err != nil {
				return err
			}
			b, err := openBackends(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			stats, err := b.statistics(cfg)
			if err != nil {
				return err
			}
			sources, err := b.questionSources(cfg, logger, false)
			if err != nil {
				return err
			}
			return playGame(ctx, sources(), stats, presenterOptions(cfg, logger), os.Stdin, cmd.OutOrStdout())
		},
	}
}

// playGame runs a presenter against a terminal display until in is exhausted
// or the player quits.
func playGame(ctx context.Context, source app.QuestionSource, stats app.Statistics, opts app.PresenterOptions, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop := app.NewLoop(0)
	display := newTerminalDisplay(out)
	presenter := app.NewQuizPresenter(loop, source, stats, display, opts)

	go loop.Run(ctx)
	defer loop.Stop()
	presenter.Start()
	defer presenter.Close()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			switch cmd := strings.ToLower(strings.TrimSpace(line)); {
			case cmd == "q" || cmd == "quit":
				return nil
			case display.awaitingDismiss.Load():
				// any input dismisses the results or error and starts over
				display.awaitingDismiss.Store(false)
				presenter.Restart()
			case cmd == "y" || cmd == "yes":
				presenter.YesClicked()
			case cmd == "n" || cmd == "no":
				presenter.NoClicked()
			default:
				display.hint()
			}
		}
	}
}

// terminalDisplay prints presenter output. Calls arrive from the game loop,
// hint from the input loop, so out is guarded.
type terminalDisplay struct {
	out             io.Writer
	awaitingDismiss atomic.Bool

	title  *color.Color
	good   *color.Color
	bad    *color.Color
	faint  *color.Color
	prompt *color.Color
}

func newTerminalDisplay(out io.Writer) *terminalDisplay {
	return &terminalDisplay{
		out:    &lockedWriter{w: out},
		title:  color.New(color.FgHiBlue, color.Bold),
		good:   color.New(color.FgGreen, color.Bold),
		bad:    color.New(color.FgRed, color.Bold),
		faint:  color.New(color.Faint),
		prompt: color.New(color.FgYellow),
	}
}

func (d *terminalDisplay) ShowLoading() {
	d.faint.Fprintln(d.out, "Loading movies...")
}

func (d *terminalDisplay) HideLoading() {}

func (d *terminalDisplay) ShowNetworkError(message string) {
	d.awaitingDismiss.Store(true)
	d.bad.Fprintln(d.out, "Error")
	fmt.Fprintln(d.out, message)
	d.prompt.Fprintln(d.out, "Press Enter to try again")
}

func (d *terminalDisplay) RenderStep(view domain.QuizStepView) {
	d.awaitingDismiss.Store(false)
	fmt.Fprintln(d.out)
	d.title.Fprintf(d.out, "Question %s\n", view.QuestionNumber)
	fmt.Fprintln(d.out, view.Question)
	d.prompt.Fprint(d.out, "[y]es / [n]o: ")
}

func (d *terminalDisplay) RenderAnswerFeedback(isCorrect bool) {
	if isCorrect {
		d.good.Fprintln(d.out, "Correct!")
		return
	}
	d.bad.Fprintln(d.out, "Wrong!")
}

func (d *terminalDisplay) RenderResults(view domain.QuizResultsView) {
	d.awaitingDismiss.Store(true)
	fmt.Fprintln(d.out)
	d.title.Fprintln(d.out, view.Title)
	fmt.Fprintln(d.out, view.Text)
	d.prompt.Fprintf(d.out, "Press Enter to %s, q to quit\n", strings.ToLower(view.ButtonText))
}

func (d *terminalDisplay) hint() {
	d.prompt.Fprintln(d.out, "Answer y or n (q quits)")
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
