package service

import (
	"time"

	"brainboost/internal/repository"
)

// Options 是即時核心的調校參數
type Options struct {
	StorageTimeout time.Duration // 持久層操作的逾時上限
	RosterGrace    time.Duration // 空房間名單的延遲回收寬限期
}

type Services struct {
	Registry    *RoomRegistry
	Store       *RoomStore
	Broadcaster *MessageBroadcaster
	Replay      *HistoryReplay
	Connections *ConnectionManager
}

func NewServices(repos *repository.Repositories, opts Options) *Services {
	if opts.RosterGrace <= 0 {
		opts.RosterGrace = 30 * time.Second
	}

	registry := NewRoomRegistry(opts.RosterGrace)
	store := NewRoomStore(repos, opts.StorageTimeout)
	broadcaster := NewMessageBroadcaster(registry)
	replay := NewHistoryReplay(store, broadcaster)
	connections := NewConnectionManager(registry, store, broadcaster, replay)

	return &Services{
		Registry:    registry,
		Store:       store,
		Broadcaster: broadcaster,
		Replay:      replay,
		Connections: connections,
	}
}
