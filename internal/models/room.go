package models

import (
	"gorm.io/gorm"
)

// Room 表示一個聊天室
// 房間在第一次加入或第一次發送訊息時懶建立，不會被刪除，只能清空訊息
type Room struct {
	gorm.Model
	RoomID     string         `gorm:"uniqueIndex;not null" json:"room_id"` // 房間識別碼，由客戶端提供的不透明字串
	Identities []RoomIdentity `gorm:"foreignKey:RoomID;references:RoomID" json:"-"`
	Messages   []Message      `gorm:"foreignKey:RoomID;references:RoomID" json:"-"`
}

// RoomIdentity 記錄曾經加入過房間的帳號識別
// 與即時名單無關，僅供審計使用
type RoomIdentity struct {
	gorm.Model
	RoomID   string `gorm:"index:idx_room_identity,unique" json:"room_id"`
	Identity string `gorm:"index:idx_room_identity,unique" json:"identity"`
}
