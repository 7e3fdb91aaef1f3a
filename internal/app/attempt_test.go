package app

import (
	"errors"
	"math/rand"
	"testing"

	"classquiz-service/internal/domain"
)

func fixedRand() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

func threeQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", Text: "A?", Options: []string{"a", "b"}, CorrectAnswer: "a", PointsCorrect: 1, PointsWrong: 0},
		{ID: "q2", Text: "B?", Options: []string{"a", "b"}, CorrectAnswer: "b", PointsCorrect: 1, PointsWrong: 0},
		{ID: "q3", Text: "C?", Options: []string{"a", "b"}, CorrectAnswer: "a", PointsCorrect: 1, PointsWrong: 0},
	}
}

func TestScoreAccumulation(t *testing.T) {
	attempt := NewAttempt("quiz-1", threeQuestions(), fixedRand())

	// correct, wrong, correct
	answers := []bool{true, false, true}
	var last domain.AdvanceResult
	for i, answerCorrectly := range answers {
		q := attempt.Questions()[i]
		if answerCorrectly {
			attempt.Select(q.CorrectAnswer)
		} else {
			attempt.Select(wrongOption(q))
		}
		res, err := attempt.Submit()
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		last = res
	}

	if !last.Done {
		t.Fatalf("expected attempt to complete")
	}
	if last.FinalScore != 2 {
		t.Fatalf("expected final score 2, got %d", last.FinalScore)
	}
	if last.MaxPossible != 3 {
		t.Fatalf("expected max possible 3, got %d", last.MaxPossible)
	}
	// 2/3 lands in the Good band.
	if last.Tier != domain.TierGood {
		t.Fatalf("expected tier %q, got %q", domain.TierGood, last.Tier)
	}
}

func TestNegativeFinalScore(t *testing.T) {
	questions := []domain.Question{
		{ID: "q1", Text: "A?", Options: []string{"a", "b"}, CorrectAnswer: "a", PointsCorrect: 5, PointsWrong: 5},
	}
	attempt := NewAttempt("quiz-1", questions, fixedRand())
	attempt.Select("b")
	res, err := attempt.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.FinalScore != -5 {
		t.Fatalf("expected -5, got %d", res.FinalScore)
	}
	if res.Tier != domain.TierKeepPracticing {
		t.Fatalf("expected tier %q, got %q", domain.TierKeepPracticing, res.Tier)
	}
}

func TestShufflePreservesQuestionSet(t *testing.T) {
	original := threeQuestions()
	attempt := NewAttempt("quiz-1", original, fixedRand())

	shuffled := attempt.Questions()
	if len(shuffled) != len(original) {
		t.Fatalf("expected %d questions, got %d", len(original), len(shuffled))
	}
	seen := map[string]int{}
	for _, q := range shuffled {
		seen[q.ID]++
	}
	for _, q := range original {
		if seen[q.ID] != 1 {
			t.Fatalf("question %s appears %d times after shuffle", q.ID, seen[q.ID])
		}
	}
}

func TestFinishedAttemptIsImmutable(t *testing.T) {
	questions := threeQuestions()[:1]
	attempt := NewAttempt("quiz-1", questions, fixedRand())
	attempt.Select(questions[0].CorrectAnswer)
	if _, err := attempt.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !attempt.Finished() {
		t.Fatalf("expected finished attempt")
	}

	attempt.Select("anything")
	if _, err := attempt.Submit(); !errors.Is(err, domain.ErrAttemptFinished) {
		t.Fatalf("expected ErrAttemptFinished, got %v", err)
	}
	if attempt.Score() != questions[0].PointsCorrect {
		t.Fatalf("score changed after finish: %d", attempt.Score())
	}
}

func TestSubmitWithoutSelection(t *testing.T) {
	attempt := NewAttempt("quiz-1", threeQuestions(), fixedRand())
	if _, err := attempt.Submit(); !errors.Is(err, domain.ErrNoAnswerSelected) {
		t.Fatalf("expected ErrNoAnswerSelected, got %v", err)
	}
	if attempt.Score() != 0 {
		t.Fatalf("score changed on rejected submit: %d", attempt.Score())
	}
}

func TestSelectionClearedOnAdvance(t *testing.T) {
	attempt := NewAttempt("quiz-1", threeQuestions(), fixedRand())
	attempt.Select(attempt.Questions()[0].CorrectAnswer)
	if _, err := attempt.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	// The selection does not carry over to the next question.
	if _, err := attempt.Submit(); !errors.Is(err, domain.ErrNoAnswerSelected) {
		t.Fatalf("expected cleared selection, got %v", err)
	}
}

func TestPerformanceTierBoundaries(t *testing.T) {
	cases := []struct {
		name        string
		score       int
		maxPossible int
		want        string
	}{
		{"exactly 0.8 stays Good", 4, 5, domain.TierGood},
		{"above 0.8 is Excellent", 9, 10, domain.TierExcellent},
		{"exactly 0.5 stays Keep practicing", 1, 2, domain.TierKeepPracticing},
		{"above 0.5 is Good", 3, 5, domain.TierGood},
		{"negative score", -5, 5, domain.TierKeepPracticing},
		{"zero max possible omits tier", 0, 0, ""},
		{"full marks", 5, 5, domain.TierExcellent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := performanceTier(tc.score, tc.maxPossible); got != tc.want {
				t.Fatalf("performanceTier(%d, %d) = %q, want %q", tc.score, tc.maxPossible, got, tc.want)
			}
		})
	}
}

func TestViewStripsAnswerKey(t *testing.T) {
	attempt := NewAttempt("quiz-1", threeQuestions(), fixedRand())
	view := attempt.View()
	if view.Total != 3 || view.Index != 0 || view.Score != 0 {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Question.Text == "" || len(view.Question.Options) != 2 {
		t.Fatalf("expected populated question view, got %+v", view.Question)
	}
}

func wrongOption(q domain.Question) string {
	for _, opt := range q.Options {
		if opt != q.CorrectAnswer {
			return opt
		}
	}
	return ""
}
