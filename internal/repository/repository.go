package repository

import "brainboost/internal/storage"

type Repositories struct {
	Room    RoomRepository
	Message MessageRepository
}

func NewRepositories(db *storage.PostgresDB) *Repositories {
	return &Repositories{
		Room:    NewRoomRepository(db),
		Message: NewMessageRepository(db),
	}
}
