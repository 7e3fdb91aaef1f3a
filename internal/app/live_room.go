package app

import (
	"context"
	"sync"
	"time"

	"classquiz-service/internal/domain"
)

// RoomRepository abstracts how live rooms are stored (in-memory, Redis, etc).
type RoomRepository interface {
	GetOrCreate(roomID string) *Room
	Get(roomID string) (*Room, bool)
	DeleteIfEmpty(roomID string)
}

// RoomService contains the live-quiz use cases: a teacher posts one free-text
// question to a room and everyone connected watches the answer list grow.
type RoomService struct {
	rooms RoomRepository
}

func NewRoomService(rooms RoomRepository) *RoomService {
	return &RoomService{rooms: rooms}
}

// Join creates the room on first use and returns its current snapshot.
func (s *RoomService) Join(_ context.Context, roomID string) domain.RoomSnapshot {
	return s.rooms.GetOrCreate(roomID).snapshot()
}

// PostQuestion replaces the room's question and clears collected answers.
func (s *RoomService) PostQuestion(_ context.Context, roomID, name, text string) (domain.RoomSnapshot, error) {
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return domain.RoomSnapshot{}, domain.ErrRoomNotFound
	}
	return room.postQuestion(name, text), nil
}

// SubmitAnswer appends a free-text answer to the room's active question.
func (s *RoomService) SubmitAnswer(_ context.Context, roomID, name, text string) (domain.RoomSnapshot, error) {
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return domain.RoomSnapshot{}, domain.ErrRoomNotFound
	}
	return room.submitAnswer(name, text)
}

// Subscribe returns a channel that receives room updates. The caller must
// invoke the returned cancel function to avoid leaks.
func (s *RoomService) Subscribe(_ context.Context, roomID string) (<-chan domain.RoomSnapshot, func(), error) {
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return nil, nil, domain.ErrRoomNotFound
	}
	ch, cancel := room.subscribe()
	return ch, cancel, nil
}

// Leave drops the room once the last subscriber is gone.
func (s *RoomService) Leave(_ context.Context, roomID string) {
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return
	}
	if room.IsEmpty() {
		s.rooms.DeleteIfEmpty(roomID)
	}
}

// Room is the in-memory state of one live-quiz room.
type Room struct {
	id          string
	now         func() time.Time
	mu          sync.RWMutex
	question    string
	postedBy    string
	answers     []domain.RoomAnswer
	subscribers map[chan domain.RoomSnapshot]struct{}
}

// NewRoom is exported for infrastructure layers that need to seed rooms.
func NewRoom(id string) *Room {
	return NewRoomWithClock(id, time.Now)
}

// NewRoomWithClock allows deterministic timestamps in tests.
func NewRoomWithClock(id string, now func() time.Time) *Room {
	return &Room{
		id:          id,
		now:         now,
		subscribers: make(map[chan domain.RoomSnapshot]struct{}),
	}
}

func (r *Room) postQuestion(name, text string) domain.RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.question = text
	r.postedBy = name
	r.answers = nil
	return r.broadcastLocked()
}

func (r *Room) submitAnswer(name, text string) (domain.RoomSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.question == "" {
		return domain.RoomSnapshot{}, domain.ErrNoActiveQuestion
	}
	r.answers = append(r.answers, domain.RoomAnswer{Name: name, Text: text, At: r.now()})
	return r.broadcastLocked(), nil
}

// IsEmpty reports whether the room has no subscribers.
func (r *Room) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscribers) == 0
}

func (r *Room) subscribe() (<-chan domain.RoomSnapshot, func()) {
	ch := make(chan domain.RoomSnapshot, 8)

	r.mu.Lock()
	r.subscribers[ch] = struct{}{}
	initial := r.snapshotLocked()
	r.mu.Unlock()

	ch <- initial

	cancel := func() {
		r.mu.Lock()
		if _, ok := r.subscribers[ch]; ok {
			delete(r.subscribers, ch)
			close(ch)
		}
		r.mu.Unlock()
	}
	return ch, cancel
}

func (r *Room) snapshot() domain.RoomSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Room) broadcastLocked() domain.RoomSnapshot {
	snap := r.snapshotLocked()
	for ch := range r.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale update so a slow client never blocks broadcast.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}

func (r *Room) snapshotLocked() domain.RoomSnapshot {
	answers := make([]domain.RoomAnswer, len(r.answers))
	copy(answers, r.answers)
	return domain.RoomSnapshot{
		RoomID:    r.id,
		Question:  r.question,
		PostedBy:  r.postedBy,
		Answers:   answers,
		UpdatedAt: r.now(),
	}
}
