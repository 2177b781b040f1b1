package domain

import "time"

// Movie is the raw material questions are generated from.
type Movie struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Rating   float64 `json:"rating"`
	ImageURL string  `json:"imageUrl"`
}

// Question is a single yes/no quiz question about a movie poster.
type Question struct {
	Image         []byte
	Text          string
	CorrectAnswer bool
}

// GameResult is the outcome of one completed round.
type GameResult struct {
	Correct int       `json:"correct"`
	Total   int       `json:"total"`
	Date    time.Time `json:"date"`
}

// IsZero reports whether no round has been recorded in r.
func (r GameResult) IsZero() bool {
	return r.Total == 0
}

// IsBetterThan orders results by correct answers; on a tie the earlier game wins.
func (r GameResult) IsBetterThan(other GameResult) bool {
	if r.Correct != other.Correct {
		return r.Correct > other.Correct
	}
	return r.Date.Before(other.Date)
}

// AggregateStatistics are the lifetime counters kept across rounds and restarts.
type AggregateStatistics struct {
	CorrectAnswers int        `json:"correctAnswers"`
	QuestionsCount int        `json:"questionsCount"`
	GamesCount     int        `json:"gamesCount"`
	BestGame       GameResult `json:"bestGame"`
}

// TotalAccuracy is the lifetime share of correct answers as a percentage in [0, 100].
func (s AggregateStatistics) TotalAccuracy() float64 {
	if s.GamesCount <= 0 || s.QuestionsCount <= 0 {
		return 0
	}
	acc := float64(s.CorrectAnswers) / float64(s.QuestionsCount) * 100
	switch {
	case acc < 0:
		return 0
	case acc > 100:
		return 100
	}
	return acc
}

// QuizStepView is what a display needs to render one question.
type QuizStepView struct {
	Image          []byte `json:"image"`
	Question       string `json:"question"`
	QuestionNumber string `json:"questionNumber"`
}

// QuizResultsView is the end-of-round summary.
type QuizResultsView struct {
	Title         string     `json:"title"`
	Text          string     `json:"text"`
	ButtonText    string     `json:"buttonText"`
	Correct       int        `json:"correct"`
	Total         int        `json:"total"`
	GamesCount    int        `json:"gamesCount"`
	BestGame      GameResult `json:"bestGame"`
	TotalAccuracy float64    `json:"totalAccuracy"`
}
