package redis

import (
	"context"
	"testing"
	"time"

	"classquiz-service/internal/domain"
	"classquiz-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestQuestionCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		QuestionLoader: memory.NewStaticQuestionLoader(map[string][]domain.Question{
			"quiz-1": sampleQuestions(),
		}),
	}
	cache := NewQuestionCache(client, loader, time.Minute)

	questions, err := cache.GetQuestions(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get questions: %v", err)
	}
	if len(questions) != 1 || questions[0].CorrectAnswer != "4" {
		t.Fatalf("unexpected questions %+v", questions)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("quiz:quiz-1:questions") {
		t.Fatalf("expected cache key set")
	}

	// Second call should hit cache, loader not incremented.
	questions, err = cache.GetQuestions(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get questions 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if questions[0].ID != "q1" {
		t.Fatalf("cached question lost fields: %+v", questions[0])
	}
}

type countingLoader struct {
	QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestions(ctx, quizID)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:            "q1",
			Text:          "What is 2 + 2?",
			Options:       []string{"3", "4"},
			CorrectAnswer: "4",
			PointsCorrect: 1,
			PointsWrong:   0,
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
