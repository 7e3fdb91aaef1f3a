package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"classquiz-service/internal/domain"
)

// QuizStore covers quiz metadata and question persistence for authoring.
type QuizStore interface {
	CreateQuiz(ctx context.Context, meta domain.QuizMeta, questions []domain.Question) error
	FindQuizzesByTeacherPrefix(ctx context.Context, prefix string) ([]domain.QuizMeta, error)
}

// ProfileReader resolves the author's profile for role and display name.
type ProfileReader interface {
	GetUserProfile(ctx context.Context, userID string) (domain.UserProfile, error)
}

// AuthoringService owns the teacher-side use cases: validate and publish a
// quiz, and search quizzes by teacher name.
type AuthoringService struct {
	quizzes  QuizStore
	profiles ProfileReader
	newID    func() string
	now      func() time.Time
}

func NewAuthoringService(quizzes QuizStore, profiles ProfileReader) *AuthoringService {
	return &AuthoringService{
		quizzes:  quizzes,
		profiles: profiles,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// WithIDGenerator injects deterministic ids for tests.
func (s *AuthoringService) WithIDGenerator(newID func() string) *AuthoringService {
	if newID != nil {
		s.newID = newID
	}
	return s
}

// WithClock injects a deterministic clock for tests.
func (s *AuthoringService) WithClock(now func() time.Time) *AuthoringService {
	if now != nil {
		s.now = now
	}
	return s
}

// PublishQuiz validates and stores a quiz authored by userID. The teacher
// name shown in search results is the author's profile name, not a strong
// reference back to the account.
func (s *AuthoringService) PublishQuiz(ctx context.Context, userID, title string, questions []domain.Question) (domain.QuizMeta, error) {
	profile, err := s.profiles.GetUserProfile(ctx, userID)
	if err != nil {
		return domain.QuizMeta{}, err
	}
	if !profile.IsTeacher {
		return domain.QuizMeta{}, domain.ErrNotTeacher
	}

	if err := validateQuiz(title, questions); err != nil {
		return domain.QuizMeta{}, err
	}

	meta := domain.QuizMeta{
		ID:            s.newID(),
		Title:         strings.TrimSpace(title),
		TeacherName:   profile.Name,
		QuestionCount: len(questions),
		CreatedAt:     s.now(),
	}
	stored := make([]domain.Question, len(questions))
	for i, q := range questions {
		q.ID = s.newID()
		stored[i] = q
	}
	if err := s.quizzes.CreateQuiz(ctx, meta, stored); err != nil {
		return domain.QuizMeta{}, err
	}
	return meta, nil
}

// SearchQuizzes returns quizzes whose teacher name starts with prefix.
// The match is case-sensitive.
func (s *AuthoringService) SearchQuizzes(ctx context.Context, prefix string) ([]domain.QuizMeta, error) {
	return s.quizzes.FindQuizzesByTeacherPrefix(ctx, prefix)
}

func validateQuiz(title string, questions []domain.Question) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidQuiz)
	}
	if len(questions) == 0 {
		return fmt.Errorf("%w: at least one question is required", domain.ErrInvalidQuiz)
	}
	for i, q := range questions {
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("%w: question %d has no text", domain.ErrInvalidQuiz, i+1)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %d needs at least two options", domain.ErrInvalidQuiz, i+1)
		}
		correctFound := false
		for _, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				return fmt.Errorf("%w: question %d has an empty option", domain.ErrInvalidQuiz, i+1)
			}
			if opt == q.CorrectAnswer {
				correctFound = true
			}
		}
		if !correctFound {
			return fmt.Errorf("%w: question %d has no correct answer marked", domain.ErrInvalidQuiz, i+1)
		}
		if q.PointsCorrect < 0 || q.PointsWrong < 0 {
			return fmt.Errorf("%w: question %d has negative points", domain.ErrInvalidQuiz, i+1)
		}
	}
	return nil
}
