package redis

import (
	"context"
	"sync"
	"time"

	"classquiz-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// RoomStore is a Redis-aware implementation of app.RoomRepository.
// Notes:
//   - It keeps a local in-memory map of rooms to reuse the in-process
//     broadcast logic.
//   - Redis marks room liveness (and could be extended to share snapshots or
//     route cross-instance pub/sub).
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	rooms  map[string]*app.Room
}

func NewRoomStore(client *redis.Client, ttl time.Duration) *RoomStore {
	return &RoomStore{
		client: client,
		ttl:    ttl,
		rooms:  make(map[string]*app.Room),
	}
}

func (s *RoomStore) GetOrCreate(roomID string) *app.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, ok := s.rooms[roomID]; ok {
		return room
	}
	room := app.NewRoom(roomID)
	s.rooms[roomID] = room
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(roomID), "1", s.ttl).Err()
	return room
}

func (s *RoomStore) Get(roomID string) (*app.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[roomID]
	return room, ok
}

func (s *RoomStore) DeleteIfEmpty(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return
	}
	if room.IsEmpty() {
		delete(s.rooms, roomID)
		_ = s.client.Del(context.Background(), s.key(roomID)).Err()
	}
}

func (s *RoomStore) key(roomID string) string {
	return "live:room:" + roomID
}
