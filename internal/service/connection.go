package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"brainboost/internal/models"
)

// 連線狀態機: Disconnected -> Joining -> Joined -> Disconnected
type connState int

const (
	stateDisconnected connState = iota
	stateJoining
	stateJoined
)

type connection struct {
	state  connState
	roomID string
}

// ConnectionManager 驅動每條連線的加入、發送、離線流程
// 它是唯一協調 RoomRegistry、RoomStore、MessageBroadcaster、HistoryReplay 的元件
// 每個轉換都是同步函數，可以獨立於傳輸層測試
type ConnectionManager struct {
	registry    *RoomRegistry
	store       *RoomStore
	broadcaster *MessageBroadcaster
	replay      *HistoryReplay

	mu    sync.Mutex
	conns map[string]*connection

	// 每個房間一把序列化鎖，寫入和對應的廣播在同一臨界區內完成
	// 廣播送達順序因此與序號指派順序一致
	roomMu    sync.Mutex
	roomLocks map[string]*sync.Mutex
}

func NewConnectionManager(registry *RoomRegistry, store *RoomStore, broadcaster *MessageBroadcaster, replay *HistoryReplay) *ConnectionManager {
	return &ConnectionManager{
		registry:    registry,
		store:       store,
		broadcaster: broadcaster,
		replay:      replay,
		conns:       make(map[string]*connection),
		roomLocks:   make(map[string]*sync.Mutex),
	}
}

// HandleJoin 處理連線加入房間
// 流程: 登記名單 -> 回放歷史給本連線 -> 向全房間廣播名單更新
// 已加入其他房間的連線再次加入時，視為先離開舊房間再加入新房間
func (m *ConnectionManager) HandleJoin(ctx context.Context, connectionID, roomID, displayName, identity string) error {
	if roomID == "" {
		return validationErr("missing room id")
	}
	if displayName == "" {
		displayName = "Guest"
	}

	m.mu.Lock()
	c := m.conns[connectionID]
	if c == nil {
		c = &connection{}
		m.conns[connectionID] = c
	}
	prevRoom := ""
	if c.state == stateJoined {
		prevRoom = c.roomID
	}
	c.state = stateJoining
	m.mu.Unlock()

	// 換房間: 一條連線不能同時屬於兩個房間
	if prevRoom != "" && prevRoom != roomID {
		if rid, roster, ok := m.registry.Leave(connectionID); ok {
			m.broadcaster.Publish(rid, rosterEvent(rid, roster), "")
		}
	}

	roster := m.registry.Join(roomID, connectionID, displayName, identity)

	// 帳號識別記錄是審計性質，失敗不阻止加入
	if identity != "" {
		if err := m.store.RememberIdentity(ctx, roomID, identity); err != nil {
			log.Warn().Err(err).Str("room", roomID).Msg("failed to record identity")
		}
	}

	// 歷史回放失敗時通知本連線，名單操作繼續提供服務
	if err := m.replay.ReplayTo(ctx, connectionID, roomID); err != nil {
		log.Warn().Err(err).Str("room", roomID).Str("conn", connectionID).Msg("history replay failed")
		_ = m.broadcaster.SendTo(connectionID, Event{
			Type:   EventError,
			RoomID: roomID,
			Error:  "failed to load message history",
		})
	}

	m.broadcaster.Publish(roomID, rosterEvent(roomID, roster), "")

	m.mu.Lock()
	c.state = stateJoined
	c.roomID = roomID
	m.mu.Unlock()
	return nil
}

// HandleSend 處理已加入房間的連線發送訊息
// 先持久化再廣播給全房間，包含發送者本人，由同一條路徑確認送達
func (m *ConnectionManager) HandleSend(ctx context.Context, connectionID string, candidate CandidateMessage) (*models.Message, error) {
	m.mu.Lock()
	c := m.conns[connectionID]
	joined := c != nil && c.state == stateJoined
	roomID := ""
	if joined {
		roomID = c.roomID
	}
	m.mu.Unlock()

	if !joined {
		return nil, validationErr("connection has not joined a room")
	}
	return m.PostMessage(ctx, roomID, candidate)
}

// PostMessage 寫入並廣播一則訊息，REST 和 WebSocket 共用同一條路徑
// 持有房間鎖直到廣播入列完成，序號 N 一定先於序號 N+1 入列
func (m *ConnectionManager) PostMessage(ctx context.Context, roomID string, candidate CandidateMessage) (*models.Message, error) {
	lock := m.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	message, err := m.store.Append(ctx, roomID, candidate)
	if err != nil {
		return nil, err
	}
	m.broadcaster.Publish(roomID, Event{
		Type:    EventMessageAppended,
		RoomID:  roomID,
		Message: message,
	}, "")
	return message, nil
}

// HandleClear 清空房間的訊息並廣播清空事件
// 房間層級的管理操作，與連線狀態無關
// 與 PostMessage 共用房間鎖，清空事件不會越過還沒廣播的訊息
func (m *ConnectionManager) HandleClear(ctx context.Context, roomID string) (int64, error) {
	lock := m.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	count, err := m.store.Clear(ctx, roomID)
	if err != nil {
		return 0, err
	}
	m.broadcaster.Publish(roomID, Event{
		Type:    EventRoomCleared,
		RoomID:  roomID,
		Cleared: count,
	}, "")
	return count, nil
}

// HandleDisconnect 處理連線斷開
// 任何狀態下都可以呼叫，重複呼叫是無操作而不是錯誤
func (m *ConnectionManager) HandleDisconnect(connectionID string) {
	m.mu.Lock()
	c := m.conns[connectionID]
	if c == nil {
		m.mu.Unlock()
		return
	}
	delete(m.conns, connectionID)
	m.mu.Unlock()

	if rid, roster, ok := m.registry.Leave(connectionID); ok {
		m.broadcaster.Publish(rid, rosterEvent(rid, roster), "")
	}
}

func (m *ConnectionManager) roomLock(roomID string) *sync.Mutex {
	m.roomMu.Lock()
	defer m.roomMu.Unlock()
	lock := m.roomLocks[roomID]
	if lock == nil {
		lock = &sync.Mutex{}
		m.roomLocks[roomID] = lock
	}
	return lock
}

func rosterEvent(roomID string, roster []MemberInfo) Event {
	return Event{
		Type:    EventRosterUpdated,
		RoomID:  roomID,
		Members: roster,
	}
}
