package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"classquiz-service/internal/domain"
)

// DocStore is an in-memory document store (useful for tests/demos). It holds
// the same three collections the durable store does: user profiles keyed by
// email, quiz metadata, and per-quiz question sets.
type DocStore struct {
	mu        sync.RWMutex
	users     map[string]domain.UserProfile
	quizzes   map[string]domain.QuizMeta
	questions map[string][]domain.Question
}

func NewDocStore() *DocStore {
	return &DocStore{
		users:     make(map[string]domain.UserProfile),
		quizzes:   make(map[string]domain.QuizMeta),
		questions: make(map[string][]domain.Question),
	}
}

func (s *DocStore) GetUserProfile(_ context.Context, userID string) (domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.users[userID]
	if !ok {
		return domain.UserProfile{}, domain.ErrUserNotFound
	}
	return profile, nil
}

func (s *DocStore) FindUserByName(_ context.Context, name string) (domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, profile := range s.users {
		if profile.Name == name {
			return profile, nil
		}
	}
	return domain.UserProfile{}, domain.ErrUserNotFound
}

func (s *DocStore) CreateUser(_ context.Context, profile domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[profile.Email]; ok {
		return domain.ErrEmailTaken
	}
	s.users[profile.Email] = profile
	return nil
}

// UpsertUserProfile merges non-nil patch fields into the stored document,
// creating it if absent.
func (s *DocStore) UpsertUserProfile(_ context.Context, userID string, patch domain.ProfilePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile := s.users[userID]
	profile.Email = userID
	if patch.Name != nil {
		profile.Name = *patch.Name
	}
	if patch.TotalScore != nil {
		profile.TotalScore = *patch.TotalScore
	}
	if patch.LastActive != nil {
		profile.LastActive = *patch.LastActive
	}
	s.users[userID] = profile
	return nil
}

func (s *DocStore) CreateQuiz(_ context.Context, meta domain.QuizMeta, questions []domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[meta.ID] = meta
	qs := make([]domain.Question, len(questions))
	copy(qs, questions)
	s.questions[meta.ID] = qs
	return nil
}

// FindQuizzesByTeacherPrefix matches teacher names case-sensitively.
func (s *DocStore) FindQuizzesByTeacherPrefix(_ context.Context, prefix string) ([]domain.QuizMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]domain.QuizMeta, 0)
	for _, meta := range s.quizzes {
		if strings.HasPrefix(meta.TeacherName, prefix) {
			matches = append(matches, meta)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.Before(matches[j].CreatedAt)
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

// LoadQuestions satisfies the question-cache loader contract. A quiz with no
// questions loads as an empty set; the attempt service treats that as not
// found.
func (s *DocStore) LoadQuestions(_ context.Context, quizID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	qs, ok := s.questions[quizID]
	if !ok {
		return nil, domain.ErrQuizNotFound
	}
	out := make([]domain.Question, len(qs))
	copy(out, qs)
	return out, nil
}
