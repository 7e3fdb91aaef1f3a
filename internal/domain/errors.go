package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz does not exist or has no questions.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrUserNotFound indicates no profile document exists for the user.
	ErrUserNotFound = errors.New("user not found")
	// ErrAttemptNotFound is returned when a user has no active attempt.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrNoAnswerSelected is returned when submitting without a selection.
	ErrNoAnswerSelected = errors.New("no answer selected")
	// ErrAttemptFinished is returned when acting on a finished attempt.
	ErrAttemptFinished = errors.New("attempt already finished")
	// ErrNameTaken is returned when a display name is already registered.
	ErrNameTaken = errors.New("name already taken")
	// ErrEmailTaken is returned when an email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRegistration indicates a registration payload that failed
	// validation, as opposed to a credential check.
	ErrInvalidRegistration = errors.New("invalid registration")
	// ErrInvalidQuiz indicates an authoring payload that failed validation.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrNotTeacher is returned when a student tries to publish a quiz.
	ErrNotTeacher = errors.New("user is not a teacher")
	// ErrRoomNotFound indicates a live room has not been opened.
	ErrRoomNotFound = errors.New("room not found")
	// ErrNoActiveQuestion is returned when answering before a question is posted.
	ErrNoActiveQuestion = errors.New("no active question in room")
)
