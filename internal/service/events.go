package service

import "brainboost/internal/models"

// 伺服器推送給客戶端的事件類型
const (
	EventRosterUpdated   = "roster-updated"   // 房間在線名單變動
	EventHistory         = "history"          // 歷史訊息回放，只發給剛加入的連線
	EventMessageAppended = "message-appended" // 新訊息寫入成功
	EventRoomCleared     = "room-cleared"     // 房間訊息被清空
	EventError           = "error"            // 操作失敗通知
)

// Event 是推送到 WebSocket 客戶端的統一事件結構
type Event struct {
	Type     string           `json:"type"`
	RoomID   string           `json:"room_id,omitempty"`
	Members  []MemberInfo     `json:"members,omitempty"`
	Messages []models.Message `json:"messages,omitempty"`
	Message  *models.Message  `json:"message,omitempty"`
	Cleared  int64            `json:"cleared,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// MemberInfo 是在線名單中一個成員的對外視圖
type MemberInfo struct {
	DisplayName string `json:"display_name"`
	Identity    string `json:"identity,omitempty"`
}
