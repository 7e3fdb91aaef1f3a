package domain

import "time"

// UserProfile is the account document, keyed by the user's email address.
type UserProfile struct {
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	IsTeacher    bool      `json:"isTeacher"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	TotalScore   int       `json:"totalScore"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActive   time.Time `json:"lastActive"`
}

// ProfilePatch is a merge-style profile update; nil fields are left untouched.
type ProfilePatch struct {
	Name       *string
	TotalScore *int
	LastActive *time.Time
}

// QuizMeta identifies a quiz without carrying its questions.
type QuizMeta struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	TeacherName   string    `json:"teacherName"`
	QuestionCount int       `json:"questionCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Question models an MCQ question. CorrectAnswer equals one of Options by
// value, not by index.
type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	PointsCorrect int      `json:"pointsCorrect"`
	PointsWrong   int      `json:"pointsWrong"`
}

// Performance tiers reported when an attempt completes.
const (
	TierExcellent      = "Excellent"
	TierGood           = "Good"
	TierKeepPracticing = "Keep practicing"
)

// QuestionView is a question as shown to the student, without the answer key.
type QuestionView struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// AttemptView is a snapshot of an in-progress attempt for presentation.
type AttemptView struct {
	QuizID   string       `json:"quizId"`
	Index    int          `json:"index"`
	Total    int          `json:"total"`
	Score    int          `json:"score"`
	Question QuestionView `json:"question"`
}

// AdvanceResult is the outcome of submitting an answer. Done distinguishes
// the terminal Completed result from a Continuing one.
type AdvanceResult struct {
	Done        bool   `json:"done"`
	Correct     bool   `json:"correct"`
	Delta       int    `json:"delta"`
	Score       int    `json:"score"`
	NextIndex   int    `json:"nextIndex,omitempty"`
	FinalScore  int    `json:"finalScore,omitempty"`
	MaxPossible int    `json:"maxPossible,omitempty"`
	Tier        string `json:"tier,omitempty"`
}

// RoomAnswer is one free-text answer posted into a live room.
type RoomAnswer struct {
	Name string    `json:"name"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// RoomSnapshot captures the state of a live room for broadcast.
type RoomSnapshot struct {
	RoomID    string       `json:"roomId"`
	Question  string       `json:"question"`
	PostedBy  string       `json:"postedBy"`
	Answers   []RoomAnswer `json:"answers"`
	UpdatedAt time.Time    `json:"updatedAt"`
}
