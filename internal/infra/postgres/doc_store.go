package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"classquiz-service/internal/domain"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// DocStore keeps each document as a JSONB value, mirroring the
// document/collection shape of the original backing service: users keyed by
// email, quiz metadata, and one row per question under its quiz.
type DocStore struct {
	pool *pgxpool.Pool
}

func NewDocStore(pool *pgxpool.Pool) *DocStore {
	return &DocStore{pool: pool}
}

func (s *DocStore) GetUserProfile(ctx context.Context, userID string) (domain.UserProfile, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM users WHERE email=$1`, userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.UserProfile{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("load user: %w", err)
	}
	var profile domain.UserProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return domain.UserProfile{}, fmt.Errorf("unmarshal user: %w", err)
	}
	if profile.Email == "" {
		profile.Email = userID
	}
	return profile, nil
}

func (s *DocStore) FindUserByName(ctx context.Context, name string) (domain.UserProfile, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM users WHERE data->>'name'=$1 LIMIT 1`, name).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.UserProfile{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("find user by name: %w", err)
	}
	var profile domain.UserProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return domain.UserProfile{}, fmt.Errorf("unmarshal user: %w", err)
	}
	return profile, nil
}

func (s *DocStore) CreateUser(ctx context.Context, profile domain.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO users (email, data) VALUES ($1, $2::jsonb)`, profile.Email, data)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// UpsertUserProfile concatenates the patch into the stored JSONB document,
// creating it if absent. Untouched fields survive the merge.
func (s *DocStore) UpsertUserProfile(ctx context.Context, userID string, patch domain.ProfilePatch) error {
	fields := make(map[string]any)
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.TotalScore != nil {
		fields["totalScore"] = *patch.TotalScore
	}
	if patch.LastActive != nil {
		fields["lastActive"] = *patch.LastActive
	}
	if len(fields) == 0 {
		return nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal patch: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO users (email, data) VALUES ($1, $2::jsonb)
		ON CONFLICT (email) DO UPDATE SET data = users.data || EXCLUDED.data`,
		userID, data)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (s *DocStore) CreateQuiz(ctx context.Context, meta domain.QuizMeta, questions []domain.Question) error {
	metaData, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `INSERT INTO quizzes (id, data) VALUES ($1, $2::jsonb)`, meta.ID, metaData); err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	for _, q := range questions {
		qData, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("marshal question: %w", err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO quiz_questions (id, quiz_id, data) VALUES ($1, $2, $3::jsonb)`, q.ID, meta.ID, qData); err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// FindQuizzesByTeacherPrefix is a case-sensitive prefix range over the
// teacher name, the same shape the original app's document query had.
func (s *DocStore) FindQuizzesByTeacherPrefix(ctx context.Context, prefix string) ([]domain.QuizMeta, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT data FROM quizzes
		WHERE starts_with(data->>'teacherName', $1)
		ORDER BY data->>'createdAt', id`, prefix)
	if err != nil {
		return nil, fmt.Errorf("search quizzes: %w", err)
	}
	defer rows.Close()

	metas := make([]domain.QuizMeta, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		var meta domain.QuizMeta
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, fmt.Errorf("unmarshal quiz: %w", err)
		}
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// LoadQuestions returns the quiz's question set in storage order; callers
// reshuffle per attempt.
func (s *DocStore) LoadQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM quiz_questions WHERE quiz_id=$1`, quizID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("unmarshal question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, domain.ErrQuizNotFound
	}
	return questions, nil
}
