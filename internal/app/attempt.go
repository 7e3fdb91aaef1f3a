package app

import (
	"math/rand"
	"time"

	"classquiz-service/internal/domain"
)

// Attempt is one student's run through a single quiz: questions are presented
// one at a time in a shuffled order, exactly one answer is recorded per
// question, and the running score carries an asymmetric reward/penalty per
// question. Once the last answer is submitted the attempt is terminal and no
// further call mutates it.
type Attempt struct {
	quizID    string
	questions []domain.Question
	current   int
	selected  string
	score     int
	finished  bool
}

// NewAttempt copies and shuffles the question set. The caller guarantees a
// non-empty slice; services translate an empty set into ErrQuizNotFound
// before an attempt exists.
func NewAttempt(quizID string, questions []domain.Question, rnd *rand.Rand) *Attempt {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	shuffled := make([]domain.Question, len(questions))
	copy(shuffled, questions)
	rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return &Attempt{quizID: quizID, questions: shuffled}
}

// QuizID returns the quiz this attempt belongs to.
func (a *Attempt) QuizID() string { return a.quizID }

// Score returns the running cumulative score. It may go negative.
func (a *Attempt) Score() int { return a.score }

// Finished reports whether the attempt is terminal.
func (a *Attempt) Finished() bool { return a.finished }

// Questions returns the presentation order. Exposed for permutation checks.
func (a *Attempt) Questions() []domain.Question {
	out := make([]domain.Question, len(a.questions))
	copy(out, a.questions)
	return out
}

// View is the presentation snapshot of the current question. The answer key
// is stripped.
func (a *Attempt) View() domain.AttemptView {
	view := domain.AttemptView{
		QuizID: a.quizID,
		Index:  a.current,
		Total:  len(a.questions),
		Score:  a.score,
	}
	if !a.finished {
		q := a.questions[a.current]
		opts := make([]string, len(q.Options))
		copy(opts, q.Options)
		view.Question = domain.QuestionView{ID: q.ID, Text: q.Text, Options: opts}
	}
	return view
}

// Select records the pending answer for the current question. The option is
// not validated against the question's options; that check is advisory and
// lives at the presentation layer. Selecting on a finished attempt is a no-op.
func (a *Attempt) Select(option string) {
	if a.finished {
		return
	}
	a.selected = option
}

// Submit grades the pending selection against the current question and
// advances the attempt. It fails with ErrNoAnswerSelected when nothing is
// selected and ErrAttemptFinished once terminal; both indicate caller bugs
// rather than recoverable conditions.
func (a *Attempt) Submit() (domain.AdvanceResult, error) {
	if a.finished {
		return domain.AdvanceResult{}, domain.ErrAttemptFinished
	}
	if a.selected == "" {
		return domain.AdvanceResult{}, domain.ErrNoAnswerSelected
	}

	q := a.questions[a.current]
	correct := a.selected == q.CorrectAnswer
	delta := q.PointsCorrect
	if !correct {
		delta = -q.PointsWrong
	}
	a.score += delta

	res := domain.AdvanceResult{Correct: correct, Delta: delta, Score: a.score}
	if a.current == len(a.questions)-1 {
		a.finished = true
		res.Done = true
		res.FinalScore = a.score
		res.MaxPossible = maxPossibleScore(a.questions)
		res.Tier = performanceTier(a.score, res.MaxPossible)
		return res, nil
	}

	a.current++
	a.selected = ""
	res.NextIndex = a.current
	return res, nil
}

func maxPossibleScore(questions []domain.Question) int {
	total := 0
	for _, q := range questions {
		total += q.PointsCorrect
	}
	return total
}

// performanceTier maps score/maxPossible onto a label. Boundaries are closed
// on the lower tier: exactly 0.8 is Good, exactly 0.5 is Keep practicing.
// Integer comparisons keep the boundaries exact.
func performanceTier(score, maxPossible int) string {
	if maxPossible == 0 {
		return ""
	}
	switch {
	case 5*score > 4*maxPossible:
		return domain.TierExcellent
	case 2*score > maxPossible:
		return domain.TierGood
	default:
		return domain.TierKeepPracticing
	}
}
