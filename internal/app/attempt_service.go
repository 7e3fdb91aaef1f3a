package app

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"classquiz-service/internal/domain"
)

// AttemptStore keeps the single active attempt per user.
type AttemptStore interface {
	Put(userID string, attempt *Attempt)
	Get(userID string) (*Attempt, bool)
	Delete(userID string)
}

// QuestionSource loads the question set for a quiz (from cache/backing store).
type QuestionSource interface {
	GetQuestions(ctx context.Context, quizID string) ([]domain.Question, error)
}

// ProfileWriter covers the profile reads/writes the attempt flow needs.
type ProfileWriter interface {
	GetUserProfile(ctx context.Context, userID string) (domain.UserProfile, error)
	UpsertUserProfile(ctx context.Context, userID string, patch domain.ProfilePatch) error
}

// PersistFailureHook observes swallowed final-score write failures. The
// completed result returned to the caller is never affected.
type PersistFailureHook func(userID, quizID string, err error)

// ScorePolicy controls what a finished attempt writes into the profile's
// totalScore. Replace mirrors the behavior observed in the original app
// (the field is overwritten despite its name); Accumulate adds instead.
type ScorePolicy int

const (
	ScoreReplace ScorePolicy = iota
	ScoreAccumulate
)

// AttemptService owns the quiz-taking use cases: start an attempt, record a
// selection, submit answers, and persist the final score best-effort.
type AttemptService struct {
	attempts         AttemptStore
	questions        QuestionSource
	profiles         ProfileWriter
	policy           ScorePolicy
	onPersistFailure PersistFailureHook
	rndMu            sync.Mutex
	rnd              *rand.Rand
	now              func() time.Time
}

func NewAttemptService(attempts AttemptStore, questions QuestionSource, profiles ProfileWriter) *AttemptService {
	return &AttemptService{
		attempts:  attempts,
		questions: questions,
		profiles:  profiles,
		policy:    ScoreReplace,
		onPersistFailure: func(userID, quizID string, err error) {
			log.Printf("persist final score failed for user=%s quiz=%s: %v", userID, quizID, err)
		},
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

// WithPersistFailureHook replaces the default log-only hook. Test harnesses
// use this to observe best-effort persistence failures.
func (s *AttemptService) WithPersistFailureHook(hook PersistFailureHook) *AttemptService {
	if hook != nil {
		s.onPersistFailure = hook
	}
	return s
}

// WithScorePolicy selects the finalization write policy.
func (s *AttemptService) WithScorePolicy(policy ScorePolicy) *AttemptService {
	s.policy = policy
	return s
}

// WithRand injects a deterministic shuffle source for tests.
func (s *AttemptService) WithRand(rnd *rand.Rand) *AttemptService {
	if rnd != nil {
		s.rnd = rnd
	}
	return s
}

// WithClock injects a deterministic clock for tests.
func (s *AttemptService) WithClock(now func() time.Time) *AttemptService {
	if now != nil {
		s.now = now
	}
	return s
}

// StartAttempt loads and shuffles the quiz's questions and registers a fresh
// attempt for the user, replacing any attempt already in flight. A quiz that
// is missing or has zero questions fails with ErrQuizNotFound and no attempt
// is produced.
func (s *AttemptService) StartAttempt(ctx context.Context, userID, quizID string) (domain.AttemptView, error) {
	qs, err := s.questions.GetQuestions(ctx, quizID)
	if err != nil {
		return domain.AttemptView{}, err
	}
	if len(qs) == 0 {
		return domain.AttemptView{}, domain.ErrQuizNotFound
	}

	// rnd is shared across users and Shuffle mutates its state.
	s.rndMu.Lock()
	attempt := NewAttempt(quizID, qs, s.rnd)
	s.rndMu.Unlock()

	s.attempts.Put(userID, attempt)
	return attempt.View(), nil
}

// SelectAnswer records the pending answer on the user's active attempt.
func (s *AttemptService) SelectAnswer(userID, option string) error {
	attempt, ok := s.attempts.Get(userID)
	if !ok {
		return domain.ErrAttemptNotFound
	}
	attempt.Select(option)
	return nil
}

// SubmitAnswer grades the pending selection. On completion the final score is
// written to the profile best-effort: a failed write is reported through the
// failure hook and the Completed result is returned unchanged.
func (s *AttemptService) SubmitAnswer(ctx context.Context, userID string) (domain.AdvanceResult, error) {
	attempt, ok := s.attempts.Get(userID)
	if !ok {
		return domain.AdvanceResult{}, domain.ErrAttemptNotFound
	}

	res, err := attempt.Submit()
	if err != nil {
		return domain.AdvanceResult{}, err
	}
	if res.Done {
		s.persistFinalScore(ctx, userID, attempt.QuizID(), res.FinalScore)
		s.attempts.Delete(userID)
	}
	return res, nil
}

// Attempt returns the presentation view of the user's active attempt.
func (s *AttemptService) Attempt(userID string) (domain.AttemptView, error) {
	attempt, ok := s.attempts.Get(userID)
	if !ok {
		return domain.AttemptView{}, domain.ErrAttemptNotFound
	}
	return attempt.View(), nil
}

func (s *AttemptService) persistFinalScore(ctx context.Context, userID, quizID string, finalScore int) {
	total := finalScore
	if s.policy == ScoreAccumulate {
		profile, err := s.profiles.GetUserProfile(ctx, userID)
		if err != nil {
			s.onPersistFailure(userID, quizID, err)
			return
		}
		total = profile.TotalScore + finalScore
	}

	now := s.now()
	patch := domain.ProfilePatch{TotalScore: &total, LastActive: &now}
	if err := s.profiles.UpsertUserProfile(ctx, userID, patch); err != nil {
		s.onPersistFailure(userID, quizID, err)
	}
}
