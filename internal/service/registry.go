package service

import (
	"sync"
	"time"
)

// LiveMember 代表一條連線在某個房間內的即時成員記錄
// 只在連線存活期間存在，進程重啟後從零重建，沒有持久化的對應物
type LiveMember struct {
	ConnectionID string
	RoomID       string
	DisplayName  string
	Identity     string
}

// RoomRegistry 管理所有房間的即時在線名單
// 即時名單與持久化的訊息歷史完全獨立，互不影響
// 同一房間的變更互斥，不同房間的操作互不阻塞
type RoomRegistry struct {
	mu    sync.Mutex
	rooms map[string]*roomEntry
	conns map[string]string // connectionID -> roomID 反向索引
	grace time.Duration     // 空房間延遲回收的寬限期
}

// roomEntry 持有單一房間的名單與專屬鎖
type roomEntry struct {
	mu      sync.Mutex
	members []*LiveMember // 按加入順序排列
}

func NewRoomRegistry(grace time.Duration) *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[string]*roomEntry),
		conns: make(map[string]string),
		grace: grace,
	}
}

// Join 將連線登記為房間成員，返回更新後的完整名單
// 以同一 connectionID 重複加入時替換原有項目而不是重複登記
func (r *RoomRegistry) Join(roomID, connectionID, displayName, identity string) []MemberInfo {
	r.mu.Lock()
	// 同一條連線不允許同時屬於兩個房間
	if prev, ok := r.conns[connectionID]; ok && prev != roomID {
		if e := r.rooms[prev]; e != nil {
			e.mu.Lock()
			e.remove(connectionID)
			empty := len(e.members) == 0
			e.mu.Unlock()
			if empty {
				r.scheduleGC(prev)
			}
		}
	}
	entry := r.rooms[roomID]
	if entry == nil {
		entry = &roomEntry{}
		r.rooms[roomID] = entry
	}
	r.conns[connectionID] = roomID
	// 先鎖住名單再釋放全域鎖，回收器重讀名單前必須等到本次加入完成
	// 否則空房間回收可能在間隙中移走項目，讓剛加入的成員掛在孤兒名單上
	entry.mu.Lock()
	r.mu.Unlock()
	defer entry.mu.Unlock()
	member := &LiveMember{
		ConnectionID: connectionID,
		RoomID:       roomID,
		DisplayName:  displayName,
		Identity:     identity,
	}
	replaced := false
	for i, m := range entry.members {
		if m.ConnectionID == connectionID {
			entry.members[i] = member
			replaced = true
			break
		}
	}
	if !replaced {
		entry.members = append(entry.members, member)
	}
	return entry.roster()
}

// Leave 將連線從它所在的房間移除，返回受影響的房間和更新後的名單
// 連線不屬於任何房間時返回 ok=false，不視為錯誤
func (r *RoomRegistry) Leave(connectionID string) (roomID string, roster []MemberInfo, ok bool) {
	r.mu.Lock()
	roomID, ok = r.conns[connectionID]
	if !ok {
		r.mu.Unlock()
		return "", nil, false
	}
	delete(r.conns, connectionID)
	entry := r.rooms[roomID]
	r.mu.Unlock()

	if entry == nil {
		return "", nil, false
	}
	entry.mu.Lock()
	removed := entry.remove(connectionID)
	roster = entry.roster()
	empty := len(entry.members) == 0
	entry.mu.Unlock()

	if empty {
		r.scheduleGC(roomID)
	}
	if !removed {
		return "", nil, false
	}
	return roomID, roster, true
}

// RosterOf 返回房間目前名單的唯讀快照
func (r *RoomRegistry) RosterOf(roomID string) []MemberInfo {
	r.mu.Lock()
	entry := r.rooms[roomID]
	r.mu.Unlock()

	if entry == nil {
		return []MemberInfo{}
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.roster()
}

// Members 返回房間目前成員的快照，供廣播取得連線識別碼
func (r *RoomRegistry) Members(roomID string) []LiveMember {
	r.mu.Lock()
	entry := r.rooms[roomID]
	r.mu.Unlock()

	if entry == nil {
		return nil
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	out := make([]LiveMember, 0, len(entry.members))
	for _, m := range entry.members {
		out = append(out, *m)
	}
	return out
}

// scheduleGC 在寬限期後回收空房間的名單項目
// 寬限期內有人重新加入時保留原項目不回收
func (r *RoomRegistry) scheduleGC(roomID string) {
	grace := r.grace
	if grace < 0 {
		grace = 0
	}
	time.AfterFunc(grace, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		entry := r.rooms[roomID]
		if entry == nil {
			return
		}
		entry.mu.Lock()
		empty := len(entry.members) == 0
		entry.mu.Unlock()
		if empty {
			delete(r.rooms, roomID)
		}
	})
}

func (e *roomEntry) remove(connectionID string) bool {
	for i, m := range e.members {
		if m.ConnectionID == connectionID {
			e.members = append(e.members[:i], e.members[i+1:]...)
			return true
		}
	}
	return false
}

func (e *roomEntry) roster() []MemberInfo {
	out := make([]MemberInfo, 0, len(e.members))
	for _, m := range e.members {
		out = append(out, MemberInfo{DisplayName: m.DisplayName, Identity: m.Identity})
	}
	return out
}
