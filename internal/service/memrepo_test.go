package service

import (
	"context"
	"sync"

	"brainboost/internal/models"
	"brainboost/internal/repository"
)

// 記憶體版的 repository 實作，供服務層測試使用
// err 設置後所有操作返回該錯誤，模擬持久層故障

type memRoomRepo struct {
	mu     sync.Mutex
	rooms  map[string]bool
	idents map[string][]string
	err    error
}

func newMemRoomRepo() *memRoomRepo {
	return &memRoomRepo{
		rooms:  make(map[string]bool),
		idents: make(map[string][]string),
	}
}

func (r *memRoomRepo) GetOrCreate(_ context.Context, roomID string) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.rooms[roomID] = true
	return &models.Room{RoomID: roomID}, nil
}

func (r *memRoomRepo) AddIdentity(_ context.Context, roomID, identity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, existing := range r.idents[roomID] {
		if existing == identity {
			return nil
		}
	}
	r.idents[roomID] = append(r.idents[roomID], identity)
	return nil
}

func (r *memRoomRepo) FindIdentities(_ context.Context, roomID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]string, len(r.idents[roomID]))
	copy(out, r.idents[roomID])
	return out, nil
}

type memMessageRepo struct {
	mu     sync.Mutex
	byRoom map[string][]models.Message
	err    error
}

func newMemMessageRepo() *memMessageRepo {
	return &memMessageRepo{byRoom: make(map[string][]models.Message)}
}

func (r *memMessageRepo) Create(_ context.Context, message *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.byRoom[message.RoomID] = append(r.byRoom[message.RoomID], *message)
	return nil
}

func (r *memMessageRepo) FindByRoomID(_ context.Context, roomID string) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]models.Message, len(r.byRoom[roomID]))
	copy(out, r.byRoom[roomID])
	return out, nil
}

func (r *memMessageRepo) Last(_ context.Context, roomID string) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	messages := r.byRoom[roomID]
	if len(messages) == 0 {
		return nil, nil
	}
	last := messages[len(messages)-1]
	return &last, nil
}

func (r *memMessageRepo) DeleteByRoomID(_ context.Context, roomID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	count := int64(len(r.byRoom[roomID]))
	delete(r.byRoom, roomID)
	return count, nil
}

func newMemRepos() (*repository.Repositories, *memRoomRepo, *memMessageRepo) {
	rooms := newMemRoomRepo()
	messages := newMemMessageRepo()
	return &repository.Repositories{Room: rooms, Message: messages}, rooms, messages
}
