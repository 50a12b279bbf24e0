package service

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// Sender 是廣播對單一連線的出口，由傳輸層實作
type Sender interface {
	Send(event Event) error
}

// ErrNoSender 表示指定的連線沒有掛載任何傳輸出口
var ErrNoSender = errors.New("no sender attached for connection")

// MessageBroadcaster 負責把事件扇出給房間內所有在線成員
// 單一連線投遞失敗只記錄日誌，不影響其他成員也不回滾觸發廣播的寫入
type MessageBroadcaster struct {
	registry *RoomRegistry

	mu      sync.RWMutex
	senders map[string]Sender // connectionID -> 傳輸出口
}

func NewMessageBroadcaster(registry *RoomRegistry) *MessageBroadcaster {
	return &MessageBroadcaster{
		registry: registry,
		senders:  make(map[string]Sender),
	}
}

// Attach 掛載連線的傳輸出口，連線建立時由閘道呼叫
func (b *MessageBroadcaster) Attach(connectionID string, sender Sender) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.senders[connectionID] = sender
}

// Detach 移除連線的傳輸出口，連線關閉時由閘道呼叫
func (b *MessageBroadcaster) Detach(connectionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.senders, connectionID)
}

// Publish 把事件投遞給房間目前的所有在線成員
// 名單取呼叫當下的快照，扇出過程不持有任何鎖
// excludeConnectionID 非空時跳過該連線
func (b *MessageBroadcaster) Publish(roomID string, event Event, excludeConnectionID string) {
	members := b.registry.Members(roomID)
	if len(members) == 0 {
		return
	}

	b.mu.RLock()
	targets := make(map[string]Sender, len(members))
	for _, m := range members {
		if m.ConnectionID == excludeConnectionID {
			continue
		}
		if sender, ok := b.senders[m.ConnectionID]; ok {
			targets[m.ConnectionID] = sender
		}
	}
	b.mu.RUnlock()

	for connectionID, sender := range targets {
		if err := sender.Send(event); err != nil {
			// 投遞失敗隔離處理，連線的清理交給斷線流程
			log.Warn().
				Err(err).
				Str("room", roomID).
				Str("conn", connectionID).
				Str("event", event.Type).
				Msg("broadcast delivery failed")
		}
	}
}

// SendTo 把事件投遞給指定的單一連線，供歷史回放和錯誤通知使用
func (b *MessageBroadcaster) SendTo(connectionID string, event Event) error {
	b.mu.RLock()
	sender, ok := b.senders[connectionID]
	b.mu.RUnlock()
	if !ok {
		return ErrNoSender
	}
	return sender.Send(event)
}
